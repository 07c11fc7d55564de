// Package version exposes build metadata of the alarm controller binaries.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// Full renders them for the CLI, KV for the startup log line.
package version
