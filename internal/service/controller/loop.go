package controller

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/alarm-controller/internal/logger"
)

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("controller loop stopped")

// request is a function queued for execution on the loop goroutine.
type request func(system *AlarmSystem)

// Loop is the single goroutine that owns an AlarmSystem. It ticks the
// system and runs API requests between ticks, so the system needs no locks.
type Loop struct {
	// system is owned by the Run goroutine.
	system *AlarmSystem
	// tick is the scheduler period.
	tick time.Duration
	// requests carries work from API handlers to the loop.
	requests chan request
	// stopped is closed when Run returns.
	stopped chan struct{}
}

// NewLoop creates a loop over an already started system.
func NewLoop(system *AlarmSystem, tick time.Duration) *Loop {
	return &Loop{
		system:   system,
		tick:     tick,
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
}

// Run ticks the system until ctx is cancelled. Shutting the system down is
// left to the owner, after Run has returned.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	logger.InfoKV(ctx, "Controller loop started", "tick", l.tick)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Controller loop stopped")

			return nil
		case <-ticker.C:
			l.system.OnTick(ctx)
		case req := <-l.requests:
			req(l.system)
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(system *AlarmSystem)) error {
	done := make(chan struct{})

	req := func(system *AlarmSystem) {
		defer close(done)

		fn(system)
	}

	select {
	case l.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}

	<-done

	return nil
}
