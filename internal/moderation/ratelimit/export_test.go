package ratelimit

import "time"

// SetNow overrides the limiter clock in tests.
func SetNow(l *Limiter, now func() time.Time) {
	l.now = now
}
