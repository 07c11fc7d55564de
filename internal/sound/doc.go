// Package sound turns the controller's sound requests into playback.
//
// TimedPlayer gives every sound a fixed duration and drives an Output: a
// GPIO siren line on Linux, or a log-only output elsewhere. Playback ends
// from OnTick, which the controller loop calls on every iteration.
package sound
