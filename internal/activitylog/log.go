package activitylog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oshokin/alarm-controller/internal/clock"
	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
	"github.com/oshokin/alarm-controller/internal/logger"
)

const (
	// Capacity is the number of entries retained; older ones are overwritten.
	Capacity = 16

	// DefaultFlushInterval is the maximum age of unflushed non-critical entries.
	DefaultFlushInterval = 5 * time.Minute
)

// Log is a fixed-capacity ring of activity entries with deferred flushing.
// Critical events are flushed before LogEvent returns; the rest are flushed
// by OnTick once the flush interval has elapsed. Only entries logged since
// the last successful flush can be lost on power failure.
//
// Log is not safe for concurrent use; the controller loop owns it.
type Log struct {
	// clock timestamps entries and paces flushing.
	clock clock.Clock
	// storage is the durable home of the ring.
	storage Storage
	// flushInterval is the lazy flush period.
	flushInterval time.Duration

	// entries are the ring slots in physical order.
	entries [Capacity]entry
	// next is the slot of the next write.
	next int
	// stored is the number of valid entries, at most Capacity.
	stored int
	// nextID is the identifier of the next entry.
	nextID uint64
	// dirty is set while memory holds entries not yet flushed.
	dirty bool
	// lastFlush is the time of the last successful flush, zero when none.
	lastFlush time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option {
	return func(l *Log) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithFlushInterval replaces DefaultFlushInterval.
func WithFlushInterval(d time.Duration) Option {
	return func(l *Log) {
		if d > 0 {
			l.flushInterval = d
		}
	}
}

// New creates an empty Log over storage. Call Begin to load persisted entries.
func New(storage Storage, opts ...Option) *Log {
	l := &Log{
		clock:         clock.Real(),
		storage:       storage,
		flushInterval: DefaultFlushInterval,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.nextID = l.seedID()

	return l
}

// Begin loads the persisted ring. A missing or damaged blob leaves the log
// empty; only storage read failures are returned, and even then the log is
// usable.
func (l *Log) Begin(ctx context.Context) error {
	ctx = logger.WithName(ctx, "activity-log")

	l.entries = [Capacity]entry{}
	l.next, l.stored, l.dirty = 0, 0, false
	l.nextID = l.seedID()

	blob, err := l.storage.Read(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		logger.Info(ctx, "No activity log stored yet, starting empty")

		return nil
	default:
		return fmt.Errorf("load activity log: %w", err)
	}

	slots, err := decodeBlob(blob)
	if err != nil {
		logger.WarnKV(ctx, "Discarding unreadable activity log", "error", err, "size", len(blob))

		return nil
	}

	l.restore(slots)

	logger.InfoKV(ctx, "Activity log loaded", "events", l.stored, "next_id", l.nextID)

	return nil
}

// restore lays the valid slots back in id order. The largest id is the most
// recent write regardless of timestamps, which may jump with clock sync.
func (l *Log) restore(slots [Capacity]entry) {
	valid := make([]entry, 0, Capacity)

	for i := range slots {
		if !slots[i].empty() {
			valid = append(valid, slots[i])
		}
	}

	slices.SortFunc(valid, func(a, b entry) int {
		return cmp.Compare(a.id, b.id)
	})

	copy(l.entries[:], valid)
	l.stored = len(valid)
	l.next = len(valid) % Capacity

	if l.stored > 0 {
		l.nextID = max(l.nextID, valid[len(valid)-1].id+1)
	}
}

// seedID derives the id counter from the wall clock so that ids keep growing
// across reboots without reading the last persisted id.
func (l *Log) seedID() uint64 {
	micros := l.clock.Now().UnixMicro()
	if micros < 0 {
		return 1
	}

	return uint64(micros) //nolint:gosec // Checked non-negative above.
}

// LogEvent appends an entry. Critical event types are flushed synchronously.
func (l *Log) LogEvent(ctx context.Context, eventType domain.EventType, sensorID domain.SensorID) {
	e := entry{
		id:        l.nextID,
		time:      l.clock.Now(),
		eventType: eventType,
		sensorID:  sensorID,
	}

	l.nextID++
	l.entries[l.next] = e
	l.next = (l.next + 1) % Capacity

	if l.stored < Capacity {
		l.stored++
	}

	l.dirty = true

	logger.DebugKV(ctx, "Activity logged", "id", e.id, "type", eventType, "sensor_id", sensorID)

	if eventType.IsCritical() {
		// The error is logged by Flush and the entry stays dirty for OnTick.
		_ = l.Flush(ctx)
	}
}

// OnTick flushes pending entries once the flush interval has elapsed since the
// last successful flush, or right away if nothing was ever flushed.
func (l *Log) OnTick(ctx context.Context) {
	if !l.dirty {
		return
	}

	if !l.lastFlush.IsZero() && clock.Since(l.clock, l.lastFlush) < l.flushInterval {
		return
	}

	_ = l.Flush(ctx)
}

// Flush writes the whole ring to storage. On failure the log stays dirty.
func (l *Log) Flush(ctx context.Context) error {
	if err := l.storage.Write(ctx, encodeBlob(&l.entries)); err != nil {
		logger.ErrorKV(ctx, "Failed to flush activity log", "error", err, "events", l.stored)

		return fmt.Errorf("flush activity log: %w", err)
	}

	l.dirty = false
	l.lastFlush = l.clock.Now()

	return nil
}

// Dirty tells whether entries are waiting to be flushed.
func (l *Log) Dirty() bool {
	return l.dirty
}

// NumberOfEvents returns the number of retained entries.
func (l *Log) NumberOfEvents() int {
	return l.stored
}

// GetEvent returns the i-th retained entry, 0 being the oldest.
func (l *Log) GetEvent(i int) (domain.Event, bool) {
	if i < 0 || i >= l.stored {
		return domain.Event{}, false
	}

	oldest := 0
	if l.stored == Capacity {
		oldest = l.next
	}

	slot := &l.entries[(oldest+i)%Capacity]
	if slot.empty() {
		return domain.Event{}, false
	}

	return slot.event(), true
}

// Events returns every retained entry, oldest first.
func (l *Log) Events() []domain.Event {
	events := make([]domain.Event, 0, l.stored)

	for i := range l.stored {
		if event, ok := l.GetEvent(i); ok {
			events = append(events, event)
		}
	}

	return events
}
