// Package controller is the alarm-controller daemon.
//
// AlarmSystem owns the alarm state and the sensor registry. Sensor reports
// arrive on the transport's goroutine and are handed over through a bounded
// single-producer single-consumer queue. Loop is the only goroutine that
// touches the system: it drains at most one report per tick, runs the
// staleness sweep on a slower cadence, and executes operator API requests
// between ticks.
package controller
