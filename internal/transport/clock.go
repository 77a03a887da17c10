package transport

import (
	"context"
	"time"
)

// Clock abstracts time so retry backoff and sync delays can be driven by a
// fake in tests instead of real timers.
type Clock interface {
	Now() time.Time
	// Sleep suspends for d or until ctx is cancelled, whichever comes first.
	Sleep(ctx context.Context, d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// RealClock returns a Clock backed by the system clock.
func RealClock() Clock { return realClock{} }
