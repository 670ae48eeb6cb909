// Package logger wraps zap for the dispatch monitor:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and runtime level changes,
//   - leveled helpers taking a context (Infof, WarnKV, ...).
//
// Services put a named logger into their context and every layer below logs
// through it.
package logger
