// Package logger wraps zerolog for the service: a global logger set up
// from the logging config section, named loggers per component, and
// request IDs carried through context.
//
//	logging:
//	  level: info
//	  format: json   # or console
//
//	log := logger.Get("pipeline").WithContext(ctx)
//	log.Info("stage completed", logger.StageFields("align", "applied", d))
package logger
