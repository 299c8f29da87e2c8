// Package redis connects to Redis with go-redis/v9 and offers a small
// namespaced key-value Storage used for short-lived MFA state such as pending
// enrollments.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := redis.NewStorage(client, cfg.KeyPrefix)
//	err = store.Set(ctx, "pending:studio:user", payload, 15*time.Minute)
//
// Healthcheck returns a closure for readiness probes.
//
// # Errors
//
// ErrRedisNotReady, ErrFailedToParseRedisConnString and ErrKeyNotFound are
// sentinels; underlying go-redis errors are joined onto them.
package redis
