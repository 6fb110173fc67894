package entity

import "time"

// SeriesRule maps a recognizable release name to placement overrides.
type SeriesRule struct {
	Name        string         // Unique identifier, e.g. "Nisekoi"
	Group       string         // Release group tag, rendered in brackets
	Title       string         // Title as it appears in release names. Defaults to Name
	Format      string         // Optional qualifiers, e.g. "BD"
	Quality     string         // e.g. "1080p"
	Audio       string         // e.g. "FLAC"
	Pattern     string         // Explicit pattern, overrides the one built from the fields above
	DownloadDir string         // Empty means the global download dir
	SeedTime    *time.Duration // Nil means the global seed time
}

// Resolution is the placement decision for a single file.
type Resolution struct {
	Filename    string
	Rule        *SeriesRule // Nil when no rule matched
	DownloadDir string
	SeedTime    time.Duration
}

func (r *Resolution) Matched() bool {
	return r.Rule != nil
}

func (r *Resolution) SeriesName() string {
	if r.Rule == nil {
		return ""
	}

	return r.Rule.Name
}
