package controller

import (
	"sync/atomic"

	domain "github.com/oshokin/alarm-controller/internal/domain/alarm"
)

// QueueCapacity is the number of sensor reports that can wait for the loop.
const QueueCapacity = 16

// Message is one decoded sensor report waiting for the loop.
type Message struct {
	// SensorID identifies the reporting sensor.
	SensorID domain.SensorID
	// State is the reported contact state.
	State domain.SensorState
	// Vcc is the reported supply voltage.
	Vcc float32
}

// Queue is a fixed-capacity single-producer single-consumer ring.
// One goroutine may call TryPush while another calls Pop; neither blocks.
type Queue struct {
	// slots holds the messages; index is position modulo QueueCapacity.
	slots [QueueCapacity]Message
	// head counts messages taken by the consumer.
	head atomic.Uint64
	// tail counts messages added by the producer.
	tail atomic.Uint64
}

// TryPush appends m unless the queue is full.
func (q *Queue) TryPush(m Message) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() == QueueCapacity {
		return false
	}

	q.slots[tail%QueueCapacity] = m
	q.tail.Store(tail + 1)

	return true
}

// Pop removes the oldest message.
func (q *Queue) Pop() (Message, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return Message{}, false
	}

	m := q.slots[head%QueueCapacity]
	q.head.Store(head + 1)

	return m, true
}

// Len returns the number of waiting messages.
func (q *Queue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}
