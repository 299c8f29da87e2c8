// Package logger builds *slog.Logger instances for the MFA service with
// functional options, environment presets and attributes injected from
// context.Context.
//
// New picks slog.NewTextHandler or slog.NewJSONHandler from the configured
// Format and wraps it in LogHandlerDecorator, which runs every registered
// ContextExtractor on each record. HTTP middleware uses this to stamp the
// request ID, studio ID and user ID onto every line logged while serving a
// request.
//
// Helpers in attr.go (Error, StudioID, UserID, Method, Remaining, ...) keep
// attribute keys consistent. Shared secrets, one-time codes and backup-code
// hashes must never be passed to a logger. As a backstop, values under the
// keys in DefaultRedactedKeys are replaced with "[REDACTED]"; override the set
// with WithRedactedKeys.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, "mfa"),
//	    logger.WithLevelName(cfg.LogLevel),
//	    logger.WithContextValue("request_id", ctxKeyRequestID),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "mfa verified",
//	    logger.StudioID(studioID),
//	    logger.Method("totp"),
//	)
//
// Error and Errors return an empty attribute for nil errors, so
//
//	log.Info("enrollment confirmed", logger.Error(err))
//
// needs no nil check.
package logger
