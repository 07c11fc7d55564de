// Package checker implements "alarmctl watch": it polls the controller, logs
// every alarm state transition and can start a command or exit when the alarm
// triggers.
package checker
