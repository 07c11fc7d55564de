package controller

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// TestQueue_FIFOAndOverflow verifies order, the capacity limit and reuse after wraparound.
func TestQueue_FIFOAndOverflow(t *testing.T) {
	t.Parallel()

	var q Queue

	_, ok := q.Pop()
	require.False(t, ok)

	for i := range QueueCapacity {
		require.True(t, q.TryPush(Message{SensorID: domain.SensorID(i + 1)}))
	}

	require.False(t, q.TryPush(Message{SensorID: 99}))
	require.Equal(t, QueueCapacity, q.Len())

	for i := range QueueCapacity {
		m, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, domain.SensorID(i+1), m.SensorID)
	}

	_, ok = q.Pop()
	require.False(t, ok)

	// Cross the wrap point a few times.
	for i := range 3 * QueueCapacity {
		require.True(t, q.TryPush(Message{SensorID: domain.SensorID(i)}))

		m, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, domain.SensorID(i), m.SensorID)
	}
}

// TestQueue_ConcurrentProducerConsumer checks one producer and one consumer see every accepted message in order.
func TestQueue_ConcurrentProducerConsumer(t *testing.T) {
	t.Parallel()

	const total = 10_000

	var (
		q        Queue
		wg       sync.WaitGroup
		accepted []domain.SensorID
		received []domain.SensorID
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := range total {
			if q.TryPush(Message{SensorID: domain.SensorID(i)}) {
				accepted = append(accepted, domain.SensorID(i))
			}
		}
	}()

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		if m, ok := q.Pop(); ok {
			received = append(received, m.SensorID)

			continue
		}

		select {
		case <-done:
			for {
				m, ok := q.Pop()
				if !ok {
					require.Equal(t, accepted, received)

					return
				}

				received = append(received, m.SensorID)
			}
		default:
		}
	}
}
