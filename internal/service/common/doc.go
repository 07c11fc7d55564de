// Package common holds helpers shared by the alarmctl commands.
//
// It provides a gRPC client for the controller's operator API with per-call
// timeouts, and detects the current system actor (hostname/username) so the
// controller can log who armed or disarmed it.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
