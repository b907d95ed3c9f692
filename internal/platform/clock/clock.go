package clock

import "time"

// Clock abstracts time so the engine stays deterministic in tests.
// "Now" is sampled once per logical operation and threaded through;
// pure computations never read wall-clock time themselves.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
