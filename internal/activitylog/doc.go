// Package activitylog keeps the bounded history of notable alarm events.
//
// The Log is a ring of Capacity entries persisted as a fixed-size blob.
// Critical events (system start, arm, disarm, trigger, arming failure) are
// flushed synchronously, so they survive an immediate power loss; other
// events are flushed lazily and a bounded tail of them may be lost.
// Entry ids, not timestamps, order the ring when it is reloaded.
package activitylog
