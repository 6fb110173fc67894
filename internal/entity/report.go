package entity

import "time"

// Report summarizes one pass over the watch directory.
type Report struct {
	WatchDir    string
	StartedAt   time.Time
	FinishedAt  time.Time
	Submissions []*Submission
}

func (r *Report) Count() (added, skipped, failed int) {
	for _, sub := range r.Submissions {
		switch {
		case sub.Skipped:
			skipped++
		case sub.Failed():
			failed++
		default:
			added++
		}
	}

	return added, skipped, failed
}
