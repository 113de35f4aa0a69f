// Package requestid propagates a per-request correlation id through the X-Request-ID
// header, the request context and structured logs.
//
// Middleware reuses a well-formed incoming id (letters, digits, '-' and '_', at most
// 128 characters) and otherwise generates a UUIDv7. The id is echoed back in the
// response header so clients can quote it in support requests.
//
// # Usage
//
//	r.Use(requestid.Middleware)
//
//	log := logger.New(
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//
// Every record logged with the request context then carries request_id. FromContext
// returns the id for code that needs it directly, for example to include it in an
// error response.
package requestid
