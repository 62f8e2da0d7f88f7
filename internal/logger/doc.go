// Package logger wraps zap for the pipeline binaries:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - a shared atomic level driven by the --log-level flag.
//
// Services take a context and log through the logger carried in it, so a
// package name or run id attached once shows up on every line below it.
package logger
