package clock

import (
	"sync"
	"time"
)

// Clock abstracts the time source. Production code injects Real();
// tests inject Fake() and move time explicitly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Since returns the time elapsed since t according to c.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// realClock reads the system clock.
type realClock struct{}

// Real returns the system clock.
//
//nolint:ireturn // Callers only ever need the interface.
func Real() Clock {
	return realClock{}
}

// Now returns time.Now.
func (realClock) Now() time.Time {
	return time.Now()
}

// FakeClock is a Clock that only moves when told to.
// It is safe for concurrent use.
type FakeClock struct {
	// mu guards current.
	mu sync.Mutex
	// current is the time returned by Now.
	current time.Time
}

// Fake returns a FakeClock stopped at initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{
		current: initial,
	}
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

// Advance moves the fake time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
}

// Set jumps the fake time to t, backwards included, to emulate wall-clock adjustments.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = t
}
