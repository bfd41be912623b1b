package engine

import "time"

// Clock is the time capability the handler stamps execution metadata
// with. Threading it explicitly (instead of calling time.Now ambiently)
// keeps execution deterministic under test.
//
// Production code uses SystemClock; tests use testutil.FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, truncated to second granularity to
// match the stored timestamp resolution.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
