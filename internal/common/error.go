package common

import "fmt"

var (
	ErrMalformedConfig   = fmt.Errorf("malformed config")
	ErrUnknownSeries     = fmt.Errorf("unknown series")
	ErrUnknownProperty   = fmt.Errorf("unknown property")
	ErrNoSeriesMatch     = fmt.Errorf("no series match")
	ErrDaemonUnavailable = fmt.Errorf("daemon unavailable")
	ErrTorrentNotFound   = fmt.Errorf("torrent not found")
	ErrHistoryDisabled   = fmt.Errorf("submission history is disabled, set redisURL or historyFile")
)
