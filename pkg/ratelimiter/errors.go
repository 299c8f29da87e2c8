package ratelimiter

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidTokenCount = errors.New("invalid token count")
	ErrEmptyKey          = errors.New("rate limit key cannot be empty")
	ErrStoreUnavailable  = errors.New("store unavailable")
)
