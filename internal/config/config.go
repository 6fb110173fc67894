package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jgivc/celty/internal/common"
	"github.com/jgivc/celty/internal/entity"
	"github.com/jgivc/celty/internal/util"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	DefaultTorrentExt = ".torrent"
	DefaultLogFile    = "$HOME/.celty.log"

	defaultAria2Host              = "localhost"
	defaultAria2Port              = 6800
	defaultAria2Timeout           = 10 * time.Second
	defaultMaxConcurrentDownloads = 2
	defaultLogLevel               = LogLevelDebug
)

type Aria2Config struct {
	Host        string
	Port        int
	UseSecret   bool
	FixedSecret string
	Timeout     time.Duration
}

// URL returns the JSON-RPC endpoint of the daemon.
func (c *Aria2Config) URL() string {
	return fmt.Sprintf("http://%s:%d/jsonrpc", c.Host, c.Port)
}

type WatchConfig struct {
	Dir string
	Ext string
}

// Config is the loaded configuration document. It is not modified after Load
// except by ApplyEnv, which the caller runs once before handing it out.
type Config struct {
	WatchDir               string
	DownloadDir            string
	SeedTime               time.Duration
	TorrentExt             string
	MaxConcurrentDownloads int
	CheckIntegrity         bool
	LogLevel               string
	LogFile                string
	RedisURL               string
	HistoryFile            string
	Aria2                  Aria2Config
	Series                 []*entity.SeriesRule

	byName map[string]*entity.SeriesRule
	tree   map[string]any
}

type document struct {
	WatchDir               string         `yaml:"watchDir"`
	DownloadDir            string         `yaml:"downloadDir"`
	SeedTime               *Duration      `yaml:"seedTime"`
	TorrentExt             string         `yaml:"torrentExt"`
	MaxConcurrentDownloads int            `yaml:"maxConcurrentDownloads"`
	CheckIntegrity         *bool          `yaml:"checkIntegrity"`
	LogLevel               string         `yaml:"logLevel"`
	LogFile                string         `yaml:"logFile"`
	RedisURL               string         `yaml:"redisURL"`
	HistoryFile            string         `yaml:"historyFile"`
	Aria2                  aria2Document  `yaml:"aria2"`
	Shows                  []showDocument `yaml:"shows"`
}

type aria2Document struct {
	Host        string    `yaml:"host"`
	Port        int       `yaml:"port"`
	UseSecret   bool      `yaml:"useSecret"`
	FixedSecret string    `yaml:"fixedSecret"`
	Timeout     *Duration `yaml:"timeout"`
}

type showDocument struct {
	Name        string    `yaml:"name"`
	Subber      string    `yaml:"subber"`
	Title       string    `yaml:"title"`
	Format      string    `yaml:"format"`
	Quality     string    `yaml:"quality"`
	Audio       string    `yaml:"audio"`
	Pattern     string    `yaml:"pattern"`
	DownloadDir string    `yaml:"downloadDir"`
	SeedTime    *Duration `yaml:"seedTime"`
}

// LoadFile reads the configuration document at path from fs.
func LoadFile(fs afero.Fs, path string) (*Config, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// MustLoad reads the configuration document at path and panics on failure.
func MustLoad(path string) *Config {
	cfg, err := LoadFile(afero.NewOsFs(), path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load parses a configuration document from r.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: cannot parse document: %w", common.ErrMalformedConfig, err)
	}

	tree, err := parseTree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse document: %w", common.ErrMalformedConfig, err)
	}

	if err := validate(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedConfig, err)
	}

	cfg := newConfig(&doc)
	cfg.tree = tree

	return cfg, nil
}

func validate(doc *document) error {
	if strings.TrimSpace(doc.WatchDir) == "" {
		return fmt.Errorf("watchDir is required")
	}

	if doc.Aria2.Port < 0 || doc.Aria2.Port > 65535 {
		return fmt.Errorf("aria2.port %d is out of range", doc.Aria2.Port)
	}

	if doc.MaxConcurrentDownloads < 0 {
		return fmt.Errorf("maxConcurrentDownloads must not be negative")
	}

	switch doc.LogLevel {
	case "", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level %q", doc.LogLevel)
	}

	names := make(map[string]struct{}, len(doc.Shows))
	for i, show := range doc.Shows {
		if strings.TrimSpace(show.Name) == "" {
			return fmt.Errorf("show %d: name is required", i)
		}

		if _, exists := names[show.Name]; exists {
			return fmt.Errorf("show %d: duplicate name %q", i, show.Name)
		}

		names[show.Name] = struct{}{}
	}

	return nil
}

func newConfig(doc *document) *Config {
	cfg := &Config{
		WatchDir:               util.ExpandPath(doc.WatchDir),
		DownloadDir:            util.ExpandPath(doc.DownloadDir),
		TorrentExt:             doc.TorrentExt,
		MaxConcurrentDownloads: doc.MaxConcurrentDownloads,
		CheckIntegrity:         true,
		LogLevel:               doc.LogLevel,
		LogFile:                doc.LogFile,
		RedisURL:               doc.RedisURL,
		HistoryFile:            util.ExpandPath(doc.HistoryFile),
		Aria2: Aria2Config{
			Host:        doc.Aria2.Host,
			Port:        doc.Aria2.Port,
			UseSecret:   doc.Aria2.UseSecret,
			FixedSecret: doc.Aria2.FixedSecret,
			Timeout:     doc.Aria2.Timeout.Std(),
		},
		Series: make([]*entity.SeriesRule, 0, len(doc.Shows)),
		byName: make(map[string]*entity.SeriesRule, len(doc.Shows)),
	}

	cfg.SeedTime = doc.SeedTime.Std()

	if doc.CheckIntegrity != nil {
		cfg.CheckIntegrity = *doc.CheckIntegrity
	}

	for _, show := range doc.Shows {
		rule := &entity.SeriesRule{
			Name:        show.Name,
			Group:       show.Subber,
			Title:       show.Title,
			Format:      show.Format,
			Quality:     show.Quality,
			Audio:       show.Audio,
			Pattern:     show.Pattern,
			DownloadDir: util.ExpandPath(show.DownloadDir),
		}

		if rule.Title == "" {
			rule.Title = rule.Name
		}

		if show.SeedTime != nil {
			seedTime := show.SeedTime.Std()
			rule.SeedTime = &seedTime
		}

		cfg.Series = append(cfg.Series, rule)
		cfg.byName[rule.Name] = rule
	}

	cfg.SetDefaults()

	return cfg
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.TorrentExt == "" {
		c.TorrentExt = DefaultTorrentExt
	}

	if !strings.HasPrefix(c.TorrentExt, ".") {
		c.TorrentExt = "." + c.TorrentExt
	}

	if c.MaxConcurrentDownloads == 0 {
		c.MaxConcurrentDownloads = defaultMaxConcurrentDownloads
	}

	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}

	c.LogFile = util.ExpandPath(c.LogFile)

	if c.Aria2.Host == "" {
		c.Aria2.Host = defaultAria2Host
	}

	if c.Aria2.Port == 0 {
		c.Aria2.Port = defaultAria2Port
	}

	if c.Aria2.Timeout <= 0 {
		c.Aria2.Timeout = defaultAria2Timeout
	}

	if c.DownloadDir == "" {
		c.DownloadDir = c.WatchDir
	}
}

func (c *Config) WatchConfig() *WatchConfig {
	return &WatchConfig{
		Dir: c.WatchDir,
		Ext: c.TorrentExt,
	}
}

func (c *Config) Rules() []*entity.SeriesRule {
	return c.Series
}

func (c *Config) GlobalDownloadDir() string {
	return c.DownloadDir
}

func (c *Config) GlobalSeedTime() time.Duration {
	return c.SeedTime
}

func (c *Config) RuleByName(name string) (*entity.SeriesRule, error) {
	rule, exists := c.byName[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownSeries, name)
	}

	return rule, nil
}

// DownloadDirFor returns the download dir of the named series, falling back
// to the global one when the series has no override.
func (c *Config) DownloadDirFor(name string) (string, error) {
	rule, err := c.RuleByName(name)
	if err != nil {
		return "", err
	}

	if rule.DownloadDir != "" {
		return rule.DownloadDir, nil
	}

	return c.DownloadDir, nil
}

// SeedTimeFor is the seed time counterpart of DownloadDirFor.
func (c *Config) SeedTimeFor(name string) (time.Duration, error) {
	rule, err := c.RuleByName(name)
	if err != nil {
		return 0, err
	}

	if rule.SeedTime != nil {
		return *rule.SeedTime, nil
	}

	return c.SeedTime, nil
}

// PropertyByName looks up a dotted path such as "notifications.enabled" in
// the document as it was written.
func (c *Config) PropertyByName(path string) (any, error) {
	return lookupProperty(c.tree, path)
}
