package transport

import "time"

// RetryPolicy bounds how often a transient request failure is retried and how
// long to back off between attempts.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy returns the policy used when the configuration does not
// override it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// Delay returns the exponential backoff before the given attempt: base for
// attempt 2, doubling each attempt after. The first attempt carries no delay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return p.BaseDelay * (1 << (attempt - 2))
}
