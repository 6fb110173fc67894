package config

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

// Duration is a YAML duration. Bare numbers are seconds, strings are either
// numbers of seconds or Go durations such as "1h30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}

	var v time.Duration

	switch n := raw.(type) {
	case int:
		if int64(n) > maxDurationSeconds || int64(n) < -maxDurationSeconds {
			return fmt.Errorf("duration %v is out of range", raw)
		}
		v = time.Duration(n) * time.Second
	case int64:
		if n > maxDurationSeconds || n < -maxDurationSeconds {
			return fmt.Errorf("duration %v is out of range", raw)
		}
		v = time.Duration(n) * time.Second
	case uint64:
		if n > uint64(maxDurationSeconds) {
			return fmt.Errorf("duration %v is out of range", raw)
		}
		v = time.Duration(n) * time.Second
	case float64:
		parsed, err := secondsDuration(n)
		if err != nil {
			return err
		}
		v = parsed
	case string:
		parsed, err := parseDuration(n)
		if err != nil {
			return err
		}
		v = parsed
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}

	if v < 0 {
		return fmt.Errorf("duration %v must not be negative", raw)
	}

	*d = Duration(v)

	return nil
}

// Std returns the value as time.Duration, zero for a nil receiver.
func (d *Duration) Std() time.Duration {
	if d == nil {
		return 0
	}

	return time.Duration(*d)
}

func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return secondsDuration(secs)
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	return v, nil
}

// secondsDuration converts a number of seconds, rejecting values that do not
// fit in a time.Duration. Negative values pass through to the caller.
func secondsDuration(secs float64) (time.Duration, error) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || math.Abs(secs) > float64(maxDurationSeconds) {
		return 0, fmt.Errorf("duration %v seconds is out of range", secs)
	}

	return time.Duration(secs * float64(time.Second)), nil
}
