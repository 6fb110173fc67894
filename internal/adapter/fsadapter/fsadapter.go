package fsadapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jgivc/celty/internal/common"
	"github.com/jgivc/celty/internal/config"
	"github.com/jgivc/celty/internal/entity"
	"github.com/jgivc/celty/internal/util"
	"github.com/spf13/afero"
)

type fsAdapter struct {
	fs  afero.Fs
	cfg *config.WatchConfig

	log *slog.Logger
}

func NewFSAdapter(cfg *config.WatchConfig, log *slog.Logger) *fsAdapter {
	return NewFSAdapterWithFS(afero.NewOsFs(), cfg, log)
}

func NewFSAdapterWithFS(fs afero.Fs, cfg *config.WatchConfig, log *slog.Logger) *fsAdapter {
	return &fsAdapter{
		fs:  fs,
		cfg: cfg,
		log: log.With(slog.String("item", "FSAdapter")),
	}
}

// List returns the torrent files found directly in the watch directory,
// sorted by name.
func (a *fsAdapter) List() ([]*entity.Torrent, error) {
	entries, err := afero.ReadDir(a.fs, a.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read watch dir %s: %w", a.cfg.Dir, err)
	}

	torrents := make([]*entity.Torrent, 0, len(entries))
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}

		if !a.hasTorrentExt(entry.Name()) {
			a.log.Debug("Skip file", slog.String("name", entry.Name()))

			continue
		}

		torrents = append(torrents, newTorrent(filepath.Join(a.cfg.Dir, entry.Name())))
	}

	sort.Slice(torrents, func(i, j int) bool {
		return torrents[i].Name < torrents[j].Name
	})

	a.log.Debug("Torrents found", slog.String("dir", a.cfg.Dir), slog.Int("count", len(torrents)))

	return torrents, nil
}

// Find returns the torrent for name, a file in the watch directory given with
// or without the torrent extension.
func (a *fsAdapter) Find(name string) (*entity.Torrent, error) {
	if strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid torrent name")
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.Dir, name)
	}

	if !a.hasTorrentExt(path) {
		path += a.cfg.Ext
	}

	if !a.fileExists(path) {
		return nil, fmt.Errorf("%w: %s", common.ErrTorrentNotFound, path)
	}

	return newTorrent(path), nil
}

func (a *fsAdapter) hasTorrentExt(name string) bool {
	return strings.EqualFold(filepath.Ext(name), a.cfg.Ext)
}

func (a *fsAdapter) fileExists(path string) bool {
	stat, err := a.fs.Stat(path)
	if err == nil {
		return stat.Mode().IsRegular()
	}

	if !os.IsNotExist(err) {
		a.log.Error("Cannot stat file", slog.String("path", path), slog.Any("error", err))
	}

	return false
}

func newTorrent(path string) *entity.Torrent {
	return &entity.Torrent{
		ID:   util.GetIDFromString(&path),
		Name: filepath.Base(path),
		Path: path,
	}
}
