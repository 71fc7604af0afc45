package observe

import (
	"context"
	"time"
)

// EventKind discriminates retry lifecycle events.
type EventKind string

const (
	EventStart   EventKind = "start"
	EventAttempt EventKind = "attempt"
	EventWait    EventKind = "wait"
	EventResolve EventKind = "resolve"
)

// Event is one retry lifecycle notification.
type Event struct {
	Kind    EventKind
	Op      string
	RunID   string
	Try     int
	Wait    time.Duration
	Elapsed time.Duration
	Err     error
	Time    time.Time
}

// Bus is a minimal publish interface for streaming retry events to
// in-process consumers.
type Bus interface {
	Publish(topic string, msg any) error
}

// EventReceiver handles events delivered by a subscription.
type EventReceiver interface {
	Receive(ctx context.Context, msg any)
}

// BusPublisher is an Observer forwarding lifecycle events to a Bus.
// Publish errors are dropped: telemetry must never fail a run.
type BusPublisher struct {
	bus   Bus
	topic string
}

var _ Observer = (*BusPublisher)(nil)

// NewBusPublisher creates a bus-publishing observer.
func NewBusPublisher(bus Bus, topic string) *BusPublisher {
	return &BusPublisher{
		bus:   bus,
		topic: topic,
	}
}

// OnStart implements the Observer interface.
func (p *BusPublisher) OnStart(op, runID string) {
	_ = p.bus.Publish(p.topic, Event{Kind: EventStart, Op: op, RunID: runID, Time: time.Now()})
}

// OnAttempt implements the Observer interface.
func (p *BusPublisher) OnAttempt(op, runID string, try int, err error) {
	_ = p.bus.Publish(p.topic, Event{Kind: EventAttempt, Op: op, RunID: runID, Try: try, Err: err, Time: time.Now()})
}

// OnWait implements the Observer interface.
func (p *BusPublisher) OnWait(op, runID string, try int, wait time.Duration) {
	_ = p.bus.Publish(p.topic, Event{Kind: EventWait, Op: op, RunID: runID, Try: try, Wait: wait, Time: time.Now()})
}

// OnResolve implements the Observer interface.
func (p *BusPublisher) OnResolve(op, runID string, tries int, elapsed time.Duration, err error) {
	_ = p.bus.Publish(p.topic, Event{Kind: EventResolve, Op: op, RunID: runID, Try: tries, Elapsed: elapsed, Err: err, Time: time.Now()})
}

var _ Bus = (*InMem)(nil)

// InMem is a channel-backed Bus for tests and single-process consumers.
type InMem struct {
	ch chan any
}

// NewInMemBus creates an in-memory bus with a buffered channel.
func NewInMemBus() *InMem {
	return &InMem{
		ch: make(chan any, 100),
	}
}

// Publish implements the Bus interface.
func (b *InMem) Publish(_ string, msg any) error {
	b.ch <- msg
	return nil
}

// Subscribe delivers every published message to handler on a dedicated
// goroutine until the bus channel is closed.
func (b *InMem) Subscribe(_ string, handler EventReceiver) {
	go func() {
		for m := range b.ch {
			handler.Receive(context.Background(), m)
		}
	}()
}

// Close stops delivery. Publish must not be called after Close.
func (b *InMem) Close() {
	close(b.ch)
}
