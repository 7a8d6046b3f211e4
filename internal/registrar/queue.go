package registrar

import (
	"errors"

	"firestige.xyz/gb28181registrar/internal/sip"
)

// QueueCapacity is the bounded register queue's default capacity.
const QueueCapacity = 1000

// ErrQueueFull is returned by Queue.Enqueue when the queue is already at
// its capacity; Intake converts this into a 480 response.
var ErrQueueFull = errors.New("registrar: queue full")

// Queue is the bounded, FIFO register queue shared between Intake
// (producer) and Worker (the single consumer). It is a thin wrapper over
// a buffered channel: the channel's own happens-before semantics give
// FIFO ordering and a non-blocking send gives the capacity check Intake
// needs without holding a lock across any I/O.
type Queue struct {
	ch chan sip.Transaction
}

// NewQueue creates a Queue with the given capacity (QueueCapacity in
// production; tests may use a smaller bound).
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = QueueCapacity
	}
	return &Queue{ch: make(chan sip.Transaction, capacity)}
}

// Enqueue appends txn to the queue. It returns ErrQueueFull instead of
// blocking when the queue is at capacity.
func (q *Queue) Enqueue(txn sip.Transaction) error {
	select {
	case q.ch <- txn:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len reports the number of transactions currently queued, primarily for
// the metrics endpoint.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Chan exposes the underlying channel for select-based consumption in the
// worker loop (the bounded wait needs a select alongside a time.After and
// a done channel, which a method signature alone can't express cleanly).
func (q *Queue) Chan() <-chan sip.Transaction {
	return q.ch
}
