package ratelimiter

import "time"

// Result is the state of a bucket after a check.
type Result struct {
	Limit     int       // bucket capacity
	Remaining int       // tokens left, negative when the request was denied
	ResetAt   time.Time // next refill
}

// Allowed reports whether the consuming request fit in the bucket.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// Exhausted reports whether the next single-token request would be denied.
func (r *Result) Exhausted() bool {
	return r.Remaining <= 0
}

// RetryAfter is the wait until the next refill, zero when allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Config defines the token bucket.
type Config struct {
	Capacity       int           // burst size
	RefillRate     int           // tokens added per interval
	RefillInterval time.Duration // how often tokens are added
}

// ttl is how long an idle bucket takes to refill completely, plus one
// interval. Stores may forget a bucket after that.
func (c Config) ttl() time.Duration {
	intervals := (c.Capacity + c.RefillRate - 1) / c.RefillRate
	return time.Duration(intervals+1) * c.RefillInterval
}
