// Package ratelimiter implements a token bucket limiter with pluggable
// storage.
//
// The MFA service uses it twice: as a lockout counter per studio and user
// (each failed verification spends a token, success resets the bucket) and
// as an HTTP middleware that throttles verification requests per client IP.
//
// # Stores
//
// MemoryStore keeps buckets in process and sweeps expired ones in the
// background. RedisStore runs the same refill arithmetic in a Lua script so
// several instances share one view of each bucket.
//
// # Usage
//
//	store := ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix("mfa:lockout:"))
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//	    Capacity:       5,
//	    RefillRate:     1,
//	    RefillInterval: 5 * time.Minute,
//	})
//
//	status, err := bucket.Status(ctx, key)
//	if status.Exhausted() {
//	    // locked out until status.ResetAt
//	}
//
// A Result with negative Remaining means the request was denied.
package ratelimiter
