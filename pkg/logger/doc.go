// Package logger builds *slog.Logger instances for formgate services.
//
// New assembles a JSON or text handler from functional options and wraps it in a
// context-aware handler that runs every registered ContextExtractor on each record, so
// request-scoped values such as the request id end up in the log line without being
// passed around explicitly.
//
// Attribute helpers in attr.go keep key names consistent across packages:
//
//	log.WarnContext(ctx, "rate limit store unavailable, failing open",
//		logger.Component("ratelimit"),
//		logger.Resource(string(res)),
//		logger.Error(err),
//	)
//
// Typical setup:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "formgate"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
package logger
