package eventbus

import "context"

// Event is a single fan-out notification. CallID selects the partition a
// handler runs on, so events for one SIP dialog are never reordered with
// respect to each other while independent dialogs run concurrently.
type Event struct {
	Topic   string
	CallID  string
	Payload interface{}
}

// Handler processes one Event. A non-nil error is logged by the partition
// loop; it never stops the bus.
type Handler func(event *Event) error

type partition struct {
	id      int
	queue   chan *Event
	ctx     context.Context
	cancel  context.CancelFunc
	handler Handler
}
