// Package logger provides structured logging for gopipe using zerolog.
//
// It supports JSON and console output, per-logger level configuration, and
// component-scoped loggers with structured fields. Pipelines write their
// Log lines through this package at debug level.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Debug("[PipeSync] add ->", logger.Fields(logger.FieldValue, 8))
//
// Steps that accept a context can log with the run's ids attached:
//
//	func charge(ctx context.Context, o Order) (Order, error) {
//	    logger.Get("billing").WithContext(ctx).Info("charging")
//	    ...
//	}
package logger
