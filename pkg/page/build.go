package page

import "time"

// Build carries the start time of one page build.
type Build struct {
	Start time.Time
	now   func() time.Time
}

// NewBuild starts a build using now as clock. A nil clock means time.Now.
func NewBuild(now func() time.Time) Build {
	if now == nil {
		now = time.Now
	}
	return Build{Start: now(), now: now}
}

// Elapsed returns the time passed since the build started.
func (b Build) Elapsed() time.Duration {
	if b.now == nil {
		return time.Since(b.Start)
	}
	return b.now().Sub(b.Start)
}
