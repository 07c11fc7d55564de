// Package clock provides an injectable time source so that the policy
// timeouts, the activity log flush interval and the sound durations can be
// tested deterministically.
package clock
