// Package eventbus implements a small in-memory, partitioned fan-out bus.
//
// It backs the registrar's post-registration hooks (RPC-register,
// alarm-subscribe). Each topic has at most one handler: a later Subscribe
// for the same topic replaces the earlier one, so several independent
// subscribers to one topic are not supported. Publishing never blocks; it
// returns an error when the target partition's bounded queue is full.
package eventbus

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"firestige.xyz/gb28181registrar/internal/log"
)

// EventBus is the fan-out interface hooks are published through.
type EventBus interface {
	Publish(event *Event) error
	Subscribe(topic string, handler Handler) error
	Close() error
	Stats() *Stats
}

// Stats reports bus-wide counters, primarily for the metrics endpoint.
type Stats struct {
	Published      int64
	Processed      int64
	PartitionCount int
	Queued         []int
}

// InMemoryEventBus partitions events by CallID across a fixed number of
// single-consumer channels, so handler execution for one dialog is strictly
// ordered while unrelated dialogs proceed concurrently.
type InMemoryEventBus struct {
	partitions     []*partition
	partitionCount int
	subscribers    map[string]Handler
	mu             sync.RWMutex
	closed         int32

	published int64
	processed int64
}

// NewInMemoryEventBus creates a bus with partitionCount consumer goroutines,
// each backed by a channel of capacity queueSize.
func NewInMemoryEventBus(partitionCount, queueSize int) *InMemoryEventBus {
	if partitionCount <= 0 {
		partitionCount = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	bus := &InMemoryEventBus{
		partitionCount: partitionCount,
		subscribers:    make(map[string]Handler),
		partitions:     make([]*partition, partitionCount),
	}

	for i := 0; i < partitionCount; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		bus.partitions[i] = &partition{
			id:     i,
			queue:  make(chan *Event, queueSize),
			ctx:    ctx,
			cancel: cancel,
		}
		go bus.runPartition(bus.partitions[i])
	}

	return bus
}

// Publish routes event to the partition selected by its CallID. It returns
// an error rather than blocking when the bus is closed or the target
// partition's queue is full — callers (the registrar worker) must never
// stall on a hook.
func (b *InMemoryEventBus) Publish(event *Event) error {
	if atomic.LoadInt32(&b.closed) == 1 {
		return fmt.Errorf("eventbus: closed")
	}

	p := b.partitions[b.partitionFor(event.CallID)]

	select {
	case p.queue <- event:
		atomic.AddInt64(&b.published, 1)
		return nil
	default:
		return fmt.Errorf("eventbus: partition %d queue full", p.id)
	}
}

// Subscribe registers handler for topic. Only one handler per topic is
// supported; a later Subscribe for the same topic replaces the prior one.
func (b *InMemoryEventBus) Subscribe(topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if atomic.LoadInt32(&b.closed) == 1 {
		return fmt.Errorf("eventbus: closed")
	}

	b.subscribers[topic] = handler
	for _, p := range b.partitions {
		p.handler = b.dispatch
	}

	log.GetLogger().WithField("topic", topic).Debug("eventbus: subscribed")
	return nil
}

// Close stops every partition goroutine. Safe to call more than once.
func (b *InMemoryEventBus) Close() error {
	if !atomic.CompareAndSwapInt32(&b.closed, 0, 1) {
		return nil
	}
	for _, p := range b.partitions {
		p.cancel()
		close(p.queue)
	}
	return nil
}

// Stats returns a snapshot of bus counters.
func (b *InMemoryEventBus) Stats() *Stats {
	s := &Stats{
		Published:      atomic.LoadInt64(&b.published),
		Processed:      atomic.LoadInt64(&b.processed),
		PartitionCount: b.partitionCount,
		Queued:         make([]int, b.partitionCount),
	}
	for i, p := range b.partitions {
		s.Queued[i] = len(p.queue)
	}
	return s
}

func (b *InMemoryEventBus) partitionFor(callID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(callID))
	return int(h.Sum32() % uint32(b.partitionCount))
}

func (b *InMemoryEventBus) dispatch(event *Event) error {
	b.mu.RLock()
	handler, ok := b.subscribers[event.Topic]
	b.mu.RUnlock()

	if !ok {
		return nil
	}
	return handler(event)
}

func (b *InMemoryEventBus) runPartition(p *partition) {
	logger := log.GetLogger()
	for {
		select {
		case <-p.ctx.Done():
			return
		case event, ok := <-p.queue:
			if !ok {
				return
			}
			if p.handler == nil {
				continue
			}
			if err := p.handler(event); err != nil {
				logger.WithError(err).WithField("topic", event.Topic).Error("eventbus: handler failed")
			} else {
				atomic.AddInt64(&b.processed, 1)
			}
		}
	}
}
