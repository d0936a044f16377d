// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger for CLI paths that run before a run log exists,
//   - a run-scoped logger (RunLog) that tees every line to the console and to an
//     append-only log file using the "[timestamp] [LEVEL] message" layout,
//   - context helpers (ToContext/FromContext/WithName),
//   - level parsing utilities.
//
// Services receive the run logger explicitly through their constructors; the
// context helpers exist for command wiring and for code that has no run yet.
package logger
