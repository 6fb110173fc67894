package entity

import "time"

// Torrent is a torrent descriptor found in the watch directory.
type Torrent struct {
	ID   string // Stable hash of Path
	Name string // Base name
	Path string
}

// Submission is the outcome of handing one torrent to the daemon.
type Submission struct {
	Torrent     *Torrent
	Resolution  Resolution
	GID         string
	Skipped     bool // Already submitted by an earlier run
	Err         error
	SubmittedAt time.Time
}

func (s *Submission) Failed() bool {
	return s.Err != nil
}
