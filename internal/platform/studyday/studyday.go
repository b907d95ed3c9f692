// Package studyday maps wall-clock timestamps to calendar study days.
// The day boundary is shifted so that late-night work counts toward the
// day it belongs to: with the default 6-hour offset, 02:00 is still
// "yesterday" and 06:00 starts a new day.
package studyday

import "time"

const (
	DefaultOffset = 6 * time.Hour
	KeyLayout     = "2006-01-02"
)

// Clock derives study-day keys from wall-clock time.
type Clock struct {
	Offset time.Duration
}

func Default() Clock {
	return Clock{Offset: DefaultOffset}
}

// Key returns the study-day key ("YYYY-MM-DD") for t in t's location.
func (c Clock) Key(t time.Time) string {
	return t.Add(-c.Offset).Format(KeyLayout)
}

// LastKeys returns the n study-day keys ending at the key for now,
// oldest first.
func (c Clock) LastKeys(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	shifted := now.Add(-c.Offset)
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, shifted.AddDate(0, 0, -i).Format(KeyLayout))
	}
	return keys
}
