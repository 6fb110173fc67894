package submit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jgivc/celty/internal/adapter/aria2"
	"github.com/jgivc/celty/internal/config"
	"github.com/jgivc/celty/internal/entity"
	"github.com/jgivc/celty/internal/service/resolver"
)

const (
	serviceName = "submit"
)

type TorrentLister interface {
	List() ([]*entity.Torrent, error)
	Find(name string) (*entity.Torrent, error)
}

type SeriesResolver interface {
	Resolve(filename string, store resolver.SeriesStore) entity.Resolution
}

type Daemon interface {
	AddTorrent(ctx context.Context, path string, opts aria2.Options) (string, error)
	ChangeGlobalOption(ctx context.Context, opts aria2.Options) error
}

type SubmissionRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Save(ctx context.Context, sub *entity.Submission) error
}

type SubmitService struct {
	lister   TorrentLister
	resolver SeriesResolver
	daemon   Daemon
	repo     SubmissionRepository
	cfg      *config.Config
	now      func() time.Time
	log      *slog.Logger
}

func NewSubmitService(lister TorrentLister, seriesResolver SeriesResolver, daemon Daemon, repo SubmissionRepository, cfg *config.Config, log *slog.Logger) *SubmitService {
	return &SubmitService{
		lister:   lister,
		resolver: seriesResolver,
		daemon:   daemon,
		repo:     repo,
		cfg:      cfg,
		now:      time.Now,
		log:      log.With(slog.String("service", serviceName)),
	}
}

// Start hands every torrent of the watch directory to the daemon, one at a
// time. A torrent the daemon refuses is recorded in the report and the pass
// goes on with the next one.
func (s *SubmitService) Start(ctx context.Context) (*entity.Report, error) {
	report := &entity.Report{
		WatchDir:  s.cfg.WatchDir,
		StartedAt: s.now(),
	}

	torrents, err := s.lister.List()
	if err != nil {
		s.log.Error("Cannot list torrents", slog.Any("error", err))

		return nil, fmt.Errorf("cannot list torrents: %w", err)
	}

	s.log.Info("Torrents found", slog.String("watch_dir", s.cfg.WatchDir), slog.Int("count", len(torrents)))

	if len(torrents) < 1 {
		report.FinishedAt = s.now()

		return report, nil
	}

	if err := s.daemon.ChangeGlobalOption(ctx, s.globalOptions()); err != nil {
		s.log.Error("Cannot set global options", slog.Any("error", err))

		return nil, fmt.Errorf("cannot set global options: %w", err)
	}

	for _, torrent := range torrents {
		if err := ctx.Err(); err != nil {
			s.log.Info("Interrupted")

			return nil, err
		}

		report.Submissions = append(report.Submissions, s.submit(ctx, torrent, true))
	}

	report.FinishedAt = s.now()

	return report, nil
}

// Add hands a single torrent of the watch directory to the daemon, even if it
// was submitted before.
func (s *SubmitService) Add(ctx context.Context, name string) (*entity.Submission, error) {
	torrent, err := s.lister.Find(name)
	if err != nil {
		return nil, fmt.Errorf("cannot find torrent: %w", err)
	}

	sub := s.submit(ctx, torrent, false)
	if sub.Failed() {
		return sub, sub.Err
	}

	return sub, nil
}

func (s *SubmitService) submit(ctx context.Context, torrent *entity.Torrent, skipSeen bool) *entity.Submission {
	log := s.log.With(slog.String("torrent", torrent.Path))
	sub := &entity.Submission{Torrent: torrent}

	if skipSeen {
		seen, err := s.repo.Exists(ctx, torrent.ID)
		if err != nil {
			log.Warn("Cannot check submission history", slog.Any("error", err))
		}

		if seen {
			log.Info("Torrent was already submitted, skip")
			sub.Skipped = true

			return sub
		}
	}

	sub.Resolution = s.resolver.Resolve(torrent.Name, s.cfg)
	log.Info("Torrent will be added", slog.String("series", sub.Resolution.SeriesName()), slog.String("dir", sub.Resolution.DownloadDir))

	gid, err := s.daemon.AddTorrent(ctx, torrent.Path, aria2.Options{
		aria2.OptionDir:      sub.Resolution.DownloadDir,
		aria2.OptionSeedTime: aria2.SeedTimeOption(sub.Resolution.SeedTime),
	})
	if err != nil {
		log.Error("Cannot add torrent", slog.Any("error", err))
		sub.Err = err

		return sub
	}

	sub.GID = gid
	sub.SubmittedAt = s.now()
	log.Info("Torrent added", slog.String("gid", gid))

	if err := s.repo.Save(ctx, sub); err != nil {
		log.Warn("Cannot save submission", slog.Any("error", err))
	}

	return sub
}

func (s *SubmitService) globalOptions() aria2.Options {
	return aria2.Options{
		aria2.OptionMaxConcurrentDownloads: fmt.Sprint(s.cfg.MaxConcurrentDownloads),
		aria2.OptionCheckIntegrity:         aria2.BoolOption(s.cfg.CheckIntegrity),
		aria2.OptionSeedTime:               aria2.SeedTimeOption(s.cfg.SeedTime),
	}
}
