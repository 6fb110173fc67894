package resolver

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jgivc/celty/internal/common"
	"github.com/jgivc/celty/internal/entity"
)

const (
	serviceName = "resolver"

	qualifierSeparator = "."
)

type SeriesStore interface {
	Rules() []*entity.SeriesRule
	DownloadDirFor(name string) (string, error)
	SeedTimeFor(name string) (time.Duration, error)
	GlobalDownloadDir() string
	GlobalSeedTime() time.Duration
}

// PatternFromRule builds the string a release name must contain to belong to
// the rule, e.g. "[Elysium] Sora no Woto (BD.1080p.FLAC)".
func PatternFromRule(rule *entity.SeriesRule) string {
	if rule.Pattern != "" {
		return rule.Pattern
	}

	title := rule.Title
	if title == "" {
		title = rule.Name
	}

	var b strings.Builder
	if rule.Group != "" {
		b.WriteString("[")
		b.WriteString(rule.Group)
		b.WriteString("] ")
	}
	b.WriteString(title)

	var qualifiers []string
	for _, q := range []string{rule.Format, rule.Quality, rule.Audio} {
		if q != "" {
			qualifiers = append(qualifiers, q)
		}
	}

	if len(qualifiers) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(qualifiers, qualifierSeparator))
		b.WriteString(")")
	}

	return b.String()
}

// MatchFilename returns the first rule, in declaration order, whose pattern is
// contained in the base name of filename. Extensions are kept: dots in titles
// such as "Dr.Stone" cannot be told apart from them.
func MatchFilename(filename string, rules []*entity.SeriesRule) (*entity.SeriesRule, error) {
	name := path.Base(filepath.ToSlash(filename))

	for _, rule := range rules {
		pattern := PatternFromRule(rule)
		if pattern == "" {
			continue
		}

		if strings.Contains(name, pattern) {
			return rule, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", common.ErrNoSeriesMatch, filename)
}

type SeriesResolver struct {
	log *slog.Logger
}

func New(log *slog.Logger) *SeriesResolver {
	return &SeriesResolver{
		log: log.With(slog.String("service", serviceName)),
	}
}

// Resolve never fails: a filename that matches no rule, or a rule the store
// cannot answer for, gets the global download dir and seed time.
func (r *SeriesResolver) Resolve(filename string, store SeriesStore) entity.Resolution {
	res := entity.Resolution{
		Filename:    filename,
		DownloadDir: store.GlobalDownloadDir(),
		SeedTime:    store.GlobalSeedTime(),
	}

	rule, err := MatchFilename(filename, store.Rules())
	if err != nil {
		if errors.Is(err, common.ErrNoSeriesMatch) {
			r.log.Info("Cannot find a series, use defaults", slog.String("file", filename), slog.String("dir", res.DownloadDir))
		}

		return res
	}

	dir, err := store.DownloadDirFor(rule.Name)
	if err != nil {
		r.log.Error("Cannot get series download dir", slog.String("series", rule.Name), slog.Any("error", err))

		return res
	}

	seedTime, err := store.SeedTimeFor(rule.Name)
	if err != nil {
		r.log.Error("Cannot get series seed time", slog.String("series", rule.Name), slog.Any("error", err))

		return res
	}

	res.Rule = rule
	res.DownloadDir = dir
	res.SeedTime = seedTime

	r.log.Debug("Series found", slog.String("file", filename), slog.String("series", rule.Name), slog.String("dir", dir), slog.Duration("seed_time", seedTime))

	return res
}
