// Package logger builds slog loggers for the subscription service.
//
// Loggers are created through New with functional options. The environment
// option selects JSON output at info level for production and staging, and
// text output at debug level everywhere else. Context extractors inject
// request-scoped values (request ID, session ID) into every record written
// through the *Context logging methods.
//
// The attribute helpers in this package keep key names consistent across
// the codebase:
//
//	log.InfoContext(ctx, "document delivered",
//		logger.Component("delivery"),
//		logger.SubmissionID(rec.ID),
//		logger.Channel("document"),
//		logger.Duration(time.Since(start)),
//	)
package logger
