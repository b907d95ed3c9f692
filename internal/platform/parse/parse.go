// Package parse reads loosely typed legacy fields with explicit defaults.
// Every helper records how many fields had to be defaulted so migrations
// can report (and tests can assert) how much input was corrupted.
package parse

import (
	"time"
)

// Diag counts fields that could not be read as-is.
type Diag struct {
	Defaulted int
	Dropped   int
}

func (d *Diag) defaulted() {
	if d != nil {
		d.Defaulted++
	}
}

// String returns m[key] as a string, or def.
func String(m map[string]any, key, def string, d *Diag) string {
	v, ok := m[key]
	if !ok {
		d.defaulted()
		return def
	}
	s, ok := v.(string)
	if !ok {
		d.defaulted()
		return def
	}
	return s
}

// Int returns m[key] as an int, or def. JSON numbers arrive as float64.
func Int(m map[string]any, key string, def int, d *Diag) int {
	v, ok := m[key]
	if !ok {
		d.defaulted()
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		d.defaulted()
		return def
	}
}

// Int64 returns m[key] as an int64, or def.
func Int64(m map[string]any, key string, def int64, d *Diag) int64 {
	v, ok := m[key]
	if !ok {
		d.defaulted()
		return def
	}
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		d.defaulted()
		return def
	}
}

// Time returns m[key] decoded as RFC3339 (with or without sub-second
// precision) or as unix milliseconds, falling back to def.
func Time(m map[string]any, key string, def time.Time, d *Diag) time.Time {
	v, ok := m[key]
	if !ok {
		d.defaulted()
		return def
	}
	switch raw := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
		d.defaulted()
		return def
	case float64:
		return time.UnixMilli(int64(raw)).UTC()
	default:
		d.defaulted()
		return def
	}
}
