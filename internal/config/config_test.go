package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jgivc/celty/internal/common"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testConfig = `
watchDir: /srv/watch
downloadDir: /srv/anime
seedTime: 600
notifications:
  enabled: true
  mail: me@example.com
aria2:
  host: 10.0.0.2
  port: 6801
  useSecret: true
  fixedSecret: ABCDEF
shows:
  - name: Nisekoi
    subber: Omnivium
  - name: Sora no Woto
    subber: Elysium
    format: BD
    quality: 1080p
    audio: FLAC
    downloadDir: /srv/bd
  - name: Shigatsu
    subber: Akindo-SSK
    title: Shigatsu wa Kimi no Uso
    seedTime: 1h
`

func loadString(t *testing.T, src string) *Config {
	t.Helper()

	cfg, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadString(t, testConfig)

	require.Equal(t, "/srv/watch", cfg.WatchDir)
	require.Equal(t, "/srv/anime", cfg.DownloadDir)
	require.Equal(t, 600*time.Second, cfg.SeedTime)
	require.Equal(t, "10.0.0.2", cfg.Aria2.Host)
	require.Equal(t, 6801, cfg.Aria2.Port)
	require.True(t, cfg.Aria2.UseSecret)
	require.Equal(t, "ABCDEF", cfg.Aria2.FixedSecret)
	require.Equal(t, "http://10.0.0.2:6801/jsonrpc", cfg.Aria2.URL())

	require.Len(t, cfg.Rules(), 3)
	require.Equal(t, "Nisekoi", cfg.Rules()[0].Name)
	require.Equal(t, "Nisekoi", cfg.Rules()[0].Title)
	require.Equal(t, "Omnivium", cfg.Rules()[0].Group)
	require.Equal(t, "Shigatsu wa Kimi no Uso", cfg.Rules()[2].Title)
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadString(t, "watchDir: /srv/watch\n")

	require.Equal(t, DefaultTorrentExt, cfg.TorrentExt)
	require.Equal(t, defaultMaxConcurrentDownloads, cfg.MaxConcurrentDownloads)
	require.True(t, cfg.CheckIntegrity)
	require.Equal(t, LogLevelDebug, cfg.LogLevel)
	require.Equal(t, defaultAria2Host, cfg.Aria2.Host)
	require.Equal(t, defaultAria2Port, cfg.Aria2.Port)
	require.Equal(t, defaultAria2Timeout, cfg.Aria2.Timeout)
	require.Equal(t, "/srv/watch", cfg.DownloadDir)
	require.Zero(t, cfg.SeedTime)
	require.Empty(t, cfg.Rules())
}

func TestLoadMalformed(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{name: "empty document", src: ""},
		{name: "missing watchDir", src: "downloadDir: /srv\n"},
		{name: "blank watchDir", src: "watchDir: '  '\n"},
		{name: "not a mapping", src: "just a string\n"},
		{name: "broken yaml", src: "watchDir: [unterminated\n"},
		{name: "bad seed time", src: "watchDir: /w\nseedTime: soon\n"},
		{name: "negative seed time", src: "watchDir: /w\nseedTime: -5\n"},
		{name: "seed time overflow", src: "watchDir: /w\nseedTime: 10000000000000\n"},
		{name: "seed time overflow as string", src: "watchDir: /w\nseedTime: '10000000000000'\n"},
		{name: "seed time overflow as float", src: "watchDir: /w\nseedTime: 1.0e+13\n"},
		{name: "show seed time overflow", src: "watchDir: /w\nshows:\n  - name: A\n    seedTime: 18446744073709551615\n"},
		{name: "seed time infinity", src: "watchDir: /w\nseedTime: .inf\n"},
		{name: "bad log level", src: "watchDir: /w\nlogLevel: loud\n"},
		{name: "bad port", src: "watchDir: /w\naria2:\n  port: 70000\n"},
		{name: "show without name", src: "watchDir: /w\nshows:\n  - subber: X\n"},
		{name: "duplicate show", src: "watchDir: /w\nshows:\n  - name: A\n  - name: A\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.src))
			require.Error(t, err)
			require.True(t, errors.Is(err, common.ErrMalformedConfig), err.Error())
		})
	}
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/celty.yml", []byte(testConfig), 0o644))

	cfg, err := LoadFile(fs, "/etc/celty.yml")
	require.NoError(t, err)
	require.Equal(t, "/srv/watch", cfg.WatchDir)

	_, err = LoadFile(fs, "/etc/missing.yml")
	require.Error(t, err)
}

func TestSeedTimeFormats(t *testing.T) {
	testCases := []struct {
		value    string
		expected time.Duration
	}{
		{"0", 0},
		{"90", 90 * time.Second},
		{"1.5", 1500 * time.Millisecond},
		{"'120'", 120 * time.Second},
		{"1h30m", 90 * time.Minute},
		{"'45s'", 45 * time.Second},
		{"9223372036", 9223372036 * time.Second},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			cfg := loadString(t, "watchDir: /w\nseedTime: "+tc.value+"\n")
			require.Equal(t, tc.expected, cfg.SeedTime)
		})
	}
}

func TestRuleByName(t *testing.T) {
	cfg := loadString(t, testConfig)

	rule, err := cfg.RuleByName("Sora no Woto")
	require.NoError(t, err)
	require.Equal(t, "Elysium", rule.Group)
	require.Equal(t, "BD", rule.Format)

	_, err = cfg.RuleByName("Bakemonogatari")
	require.ErrorIs(t, err, common.ErrUnknownSeries)
}

func TestDownloadDirFor(t *testing.T) {
	cfg := loadString(t, testConfig)

	dir, err := cfg.DownloadDirFor("Sora no Woto")
	require.NoError(t, err)
	require.Equal(t, "/srv/bd", dir)

	dir, err = cfg.DownloadDirFor("Nisekoi")
	require.NoError(t, err)
	require.Equal(t, cfg.GlobalDownloadDir(), dir)

	_, err = cfg.DownloadDirFor("Bakemonogatari")
	require.ErrorIs(t, err, common.ErrUnknownSeries)
}

func TestSeedTimeFor(t *testing.T) {
	cfg := loadString(t, testConfig)

	seedTime, err := cfg.SeedTimeFor("Shigatsu")
	require.NoError(t, err)
	require.Equal(t, time.Hour, seedTime)

	seedTime, err = cfg.SeedTimeFor("Nisekoi")
	require.NoError(t, err)
	require.Equal(t, cfg.GlobalSeedTime(), seedTime)

	_, err = cfg.SeedTimeFor("Bakemonogatari")
	require.ErrorIs(t, err, common.ErrUnknownSeries)
}

func TestPropertyByName(t *testing.T) {
	cfg := loadString(t, testConfig)

	testCases := []struct {
		path     string
		expected any
	}{
		{"watchDir", "/srv/watch"},
		{"seedTime", 600},
		{"notifications.enabled", true},
		{"notifications.mail", "me@example.com"},
		{"aria2.port", 6801},
		{"shows.1.name", "Sora no Woto"},
		{"shows.2.seedTime", "1h"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			v, err := cfg.PropertyByName(tc.path)
			require.NoError(t, err)
			require.Equal(t, tc.expected, v)

			again, err := cfg.PropertyByName(tc.path)
			require.NoError(t, err)
			require.Equal(t, v, again)
		})
	}
}

func TestPropertyByNameUnknown(t *testing.T) {
	cfg := loadString(t, testConfig)

	for _, path := range []string{
		"",
		"notifications",
		"notifications.sound",
		"watchDir.length",
		"shows",
		"shows.7.name",
		"shows.first",
		"aria2.",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := cfg.PropertyByName(path)
			require.ErrorIs(t, err, common.ErrUnknownProperty)
		})
	}
}

func TestPropertyByNameKeepsRawValue(t *testing.T) {
	t.Setenv("CELTY_TEST_HOME", "/home/celty")

	cfg := loadString(t, "watchDir: ${CELTY_TEST_HOME}/watch\n")
	require.Equal(t, "/home/celty/watch", cfg.WatchDir)

	v, err := cfg.PropertyByName("watchDir")
	require.NoError(t, err)
	require.Equal(t, "${CELTY_TEST_HOME}/watch", v)
}

func TestApplyEnv(t *testing.T) {
	cfg := loadString(t, "watchDir: /w\n")

	env := map[string]string{
		EnvRPCSecret: "s3cret",
		EnvRPCHost:   "aria.lan",
		EnvRPCPort:   "6900",
		EnvRedisURL:  "redis://localhost:6379/1",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	require.NoError(t, cfg.ApplyEnv(lookup))
	require.True(t, cfg.Aria2.UseSecret)
	require.Equal(t, "s3cret", cfg.Aria2.FixedSecret)
	require.Equal(t, "aria.lan", cfg.Aria2.Host)
	require.Equal(t, 6900, cfg.Aria2.Port)
	require.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)

	env[EnvRPCPort] = "not-a-port"
	require.ErrorIs(t, cfg.ApplyEnv(lookup), common.ErrMalformedConfig)
}
