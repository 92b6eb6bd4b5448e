// Package logger builds *slog.Logger values for the tracking pipeline and its
// tools, and provides attribute helpers so log keys stay consistent.
//
// New takes functional options for format, level, output, static attributes
// and context extractors. Extractors run on every record and copy values
// from the context (for example a delivery batch id) into the record.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithDevelopment("trackctl"),
//	    logger.WithContextValue("batch_id", batchIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
//	log.Warn("backlog full, oldest events dropped",
//	    logger.Dropped(3),
//	    logger.BacklogLen(200),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
