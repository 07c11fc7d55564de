// Package metrics exports the controller's Prometheus metrics.
package metrics
