// Package radio carries contact sensor reports.
//
// Each sensor publishes a fixed 12-byte payload on <prefix>/<mac>/report.
// Receiver subscribes to every sensor and hands raw reports to a Handler
// supplied by the controller. Publisher emulates a sensor from the CLI and
// Loopback delivers reports in-process.
package radio
