// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - leveled helpers with key-value variants (InfoKV, WarnKV, etc.).
//
// Services accept a context and extract the logger from it, so every step
// of a publish or compose run logs with the run's name and fields.
package logger
