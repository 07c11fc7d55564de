// Package logger wraps zap for the alarm controller:
//   - a global sugared logger with a console encoder and a shared atomic level,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and configuration from the YAML settings,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Components receive a context and log through it, so every message carries
// the component name set with WithName.
package logger
