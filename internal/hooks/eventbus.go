package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Subscription is a handle for a registered subscriber.
type Subscription struct {
	ID          string
	Event       Event
	Callback    func(*EventContext)
	Filter      func(*EventContext) bool
	Unsubscribe func()
}

// EventBus fans task-progress events out to subscribers. Publishing is
// asynchronous through a bounded queue; when the queue is full events are
// dropped with a warning instead of stalling execution.
type EventBus struct {
	subscribers  map[Event][]*Subscription
	mu           sync.RWMutex
	eventQueue   chan *EventContext
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	shutdown     bool
}

const eventQueueSize = 1000

// NewEventBus creates a bus and starts its async processor.
func NewEventBus() *EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	bus := &EventBus{
		subscribers: make(map[Event][]*Subscription),
		eventQueue:  make(chan *EventContext, eventQueueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
	go bus.processQueue()
	return bus
}

// Subscribe registers a callback for one event type.
func (b *EventBus) Subscribe(event Event, callback func(*EventContext)) *Subscription {
	return b.SubscribeWithFilter(event, callback, nil)
}

// SubscribeWithFilter registers a callback with an optional filter, e.g.
// restricting a progress view to a single task id.
func (b *EventBus) SubscribeWithFilter(event Event, callback func(*EventContext), filter func(*EventContext) bool) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		ID:       fmt.Sprintf("%d", time.Now().UnixNano()),
		Event:    event,
		Callback: callback,
		Filter:   filter,
	}
	sub.Unsubscribe = func() { b.unsubscribe(sub) }

	b.subscribers[event] = append(b.subscribers[event], sub)
	return sub
}

func (b *EventBus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[sub.Event]
	for i, s := range subs {
		if s.ID == sub.ID {
			b.subscribers[sub.Event] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

// Publish delivers an event to all matching subscribers synchronously.
// Subscriber panics are contained so one bad observer cannot take down
// the pipeline.
func (b *EventBus) Publish(ctx *EventContext) {
	b.mu.RLock()
	subs := b.subscribers[ctx.Event]
	activeSubs := make([]*Subscription, len(subs))
	copy(activeSubs, subs)
	b.mu.RUnlock()

	for _, sub := range activeSubs {
		if sub.Filter == nil || sub.Filter(ctx) {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Errorf("Panic in event subscriber for %s: %v", ctx.Event, r)
					}
				}()
				sub.Callback(ctx)
			}()
		}
	}
}

// PublishAsync queues an event for delivery off the caller's goroutine.
func (b *EventBus) PublishAsync(ctx *EventContext) {
	b.mu.RLock()
	isShutdown := b.shutdown
	b.mu.RUnlock()

	if isShutdown {
		return
	}

	select {
	case <-b.ctx.Done():
		return
	case b.eventQueue <- ctx:
	default:
		log.Warnf("Event queue full, dropping event: %s", ctx.Event)
	}
}

func (b *EventBus) processQueue() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventQueue:
			if !ok {
				return
			}
			if event != nil {
				b.Publish(event)
			}
		}
	}
}

// Shutdown stops event processing. Further publishes become no-ops.
func (b *EventBus) Shutdown() {
	b.shutdownOnce.Do(func() {
		b.mu.Lock()
		b.shutdown = true
		b.mu.Unlock()

		b.cancel()
		close(b.eventQueue)
	})
}
