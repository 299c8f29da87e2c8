// Package requestid propagates a per-request correlation ID through the
// X-Request-ID header, the request context and structured logs.
//
//	r.Use(requestid.Middleware)
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
