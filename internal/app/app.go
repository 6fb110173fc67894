package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jgivc/celty/internal/adapter/aria2"
	"github.com/jgivc/celty/internal/adapter/fsadapter"
	"github.com/jgivc/celty/internal/adapter/mdadapter"
	"github.com/jgivc/celty/internal/common"
	"github.com/jgivc/celty/internal/config"
	"github.com/jgivc/celty/internal/entity"
	"github.com/jgivc/celty/internal/repository/submission"
	"github.com/jgivc/celty/internal/service/resolver"
	"github.com/jgivc/celty/internal/service/submit"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

const (
	LogStderr = "-"

	defaultEnvFile = ".env"
	pingTimeout    = 3 * time.Second
	htmlExt        = ".html"
)

type historyRepository interface {
	submit.SubmissionRepository
	List(ctx context.Context) ([]*submission.Record, error)
	Delete(ctx context.Context, id string) error
}

// Options are command line overrides applied on top of the config file.
type Options struct {
	LogLevel string
	LogFile  string
	EnvFile  string
}

type App struct {
	cfgPath string
	opts    Options
	cfg     *config.Config
	fs      afero.Fs
	log     *slog.Logger
	history historyRepository
	closers []io.Closer
}

func New(cfgPath string, opts Options) *App {
	return NewWithFS(afero.NewOsFs(), cfgPath, opts)
}

func NewWithFS(fs afero.Fs, cfgPath string, opts Options) *App {
	return &App{
		cfgPath: cfgPath,
		opts:    opts,
		fs:      fs,
	}
}

// Init loads the environment, the config file and sets up logging. Every
// command but get calls it first.
func (a *App) Init() error {
	if err := a.loadEnv(); err != nil {
		return err
	}

	cfg, err := config.LoadFile(a.fs, a.cfgPath)
	if err != nil {
		return err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}

	a.cfg = cfg

	log, err := a.newLogger()
	if err != nil {
		return err
	}

	a.log = log
	a.log.Debug("Config loaded", slog.String("path", a.cfgPath))

	return nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}

	a.closers = nil
	a.history = nil

	return errors.Join(errs...)
}

// Start submits the watch directory and writes the report to reportPath, if
// one is given.
func (a *App) Start(ctx context.Context, reportPath string) (*entity.Report, error) {
	daemon, err := a.newDaemon()
	if err != nil {
		return nil, err
	}

	srv := a.newSubmitService(daemon, a.newRepository(ctx))

	report, err := srv.Start(ctx)
	if err != nil {
		return nil, err
	}

	if reportPath != "" {
		if err := a.writeReport(report, reportPath); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (a *App) Add(ctx context.Context, name string) (*entity.Submission, error) {
	daemon, err := a.newDaemon()
	if err != nil {
		return nil, err
	}

	return a.newSubmitService(daemon, a.newRepository(ctx)).Add(ctx, name)
}

func (a *App) Stop(ctx context.Context) error {
	daemon, err := a.newDaemon()
	if err != nil {
		return err
	}

	if err := daemon.Shutdown(ctx); err != nil {
		return err
	}

	a.log.Info("Daemon is shutting down", slog.String("url", a.cfg.Aria2.URL()))

	return nil
}

func (a *App) Version(ctx context.Context) (*aria2.VersionInfo, error) {
	daemon, err := a.newDaemon()
	if err != nil {
		return nil, err
	}

	return daemon.Version(ctx)
}

// Get returns the value of a config property as text. It reads the config
// file only: no environment, no logging.
func (a *App) Get(property string) (string, error) {
	cfg, err := config.LoadFile(a.fs, a.cfgPath)
	if err != nil {
		return "", err
	}

	v, err := cfg.PropertyByName(property)
	if err != nil {
		return "", err
	}

	return fmt.Sprint(v), nil
}

func (a *App) History(ctx context.Context) ([]*submission.Record, error) {
	repo, err := a.newHistoryRepository(ctx)
	if err != nil {
		return nil, err
	}

	return repo.List(ctx)
}

// Forget drops a torrent from the submission history, so the next start
// submits it again.
func (a *App) Forget(ctx context.Context, id string) error {
	repo, err := a.newHistoryRepository(ctx)
	if err != nil {
		return err
	}

	return repo.Delete(ctx, id)
}

func (a *App) loadEnv() error {
	if a.opts.EnvFile != "" {
		if err := godotenv.Load(a.opts.EnvFile); err != nil {
			return fmt.Errorf("cannot load env file %s: %w", a.opts.EnvFile, err)
		}

		return nil
	}

	if _, err := os.Stat(defaultEnvFile); err == nil {
		if err := godotenv.Load(defaultEnvFile); err != nil {
			return fmt.Errorf("cannot load env file %s: %w", defaultEnvFile, err)
		}
	}

	return nil
}

func (a *App) newLogger() (*slog.Logger, error) {
	level := a.cfg.LogLevel
	if a.opts.LogLevel != "" {
		level = a.opts.LogLevel
	}

	lo := &slog.HandlerOptions{}
	switch level {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	logFile := a.cfg.LogFile
	if a.opts.LogFile != "" {
		logFile = a.opts.LogFile
	}

	var w io.Writer = os.Stderr
	if logFile != LogStderr {
		f, err := a.fs.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log file %s: %w", logFile, err)
		}

		a.closers = append(a.closers, f)
		w = f
	}

	return slog.New(slog.NewTextHandler(w, lo)), nil
}

func (a *App) newDaemon() (*aria2.Client, error) {
	return aria2.NewClient(&a.cfg.Aria2, a.fs, a.log)
}

func (a *App) newSubmitService(daemon submit.Daemon, repo submit.SubmissionRepository) *submit.SubmitService {
	fsa := fsadapter.NewFSAdapterWithFS(a.fs, a.cfg.WatchConfig(), a.log)

	return submit.NewSubmitService(fsa, resolver.New(a.log), daemon, repo, a.cfg, a.log)
}

// newRepository returns the configured history, or one that remembers nothing
// when none is configured or it is not reachable.
func (a *App) newRepository(ctx context.Context) submit.SubmissionRepository {
	if a.cfg.RedisURL == "" && a.cfg.HistoryFile == "" {
		return submission.NewNopRepository()
	}

	repo, err := a.newHistoryRepository(ctx)
	if err != nil {
		a.log.Warn("Submission history is not available", slog.Any("error", err))

		return submission.NewNopRepository()
	}

	return repo
}

// newHistoryRepository prefers redis over the local history file. The
// repository is opened once per App.
func (a *App) newHistoryRepository(ctx context.Context) (historyRepository, error) {
	if a.history != nil {
		return a.history, nil
	}

	repo, err := a.openHistoryRepository(ctx)
	if err != nil {
		return nil, err
	}

	a.history = repo

	return repo, nil
}

func (a *App) openHistoryRepository(ctx context.Context) (historyRepository, error) {
	if a.cfg.RedisURL == "" {
		if a.cfg.HistoryFile == "" {
			return nil, common.ErrHistoryDisabled
		}

		repo, err := submission.NewBoltRepository(a.cfg.HistoryFile, a.log)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, repo)

		return repo, nil
	}

	opt, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("cannot parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		rdb.Close()

		return nil, fmt.Errorf("cannot connect to redis: %w", err)
	}

	a.closers = append(a.closers, rdb)

	return submission.NewSubmissionRepository(rdb, a.log), nil
}

func (a *App) writeReport(report *entity.Report, path string) error {
	r, err := mdadapter.NewReportRenderer()
	if err != nil {
		return err
	}

	render := r.Markdown
	if strings.EqualFold(filepath.Ext(path), htmlExt) {
		render = r.HTML
	}

	data, err := render(report)
	if err != nil {
		return fmt.Errorf("cannot render report: %w", err)
	}

	if err := afero.WriteFile(a.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write report: %w", err)
	}

	a.log.Info("Report written", slog.String("path", path))

	return nil
}
