package event

import (
	"context"
	"log"
	"sync"
	"time"
)

// Event is a message on the internal bus. Type is one of the
// constants package event types; Data carries the entity involved
// (e.g. *model.Notification for notification.created).
type Event struct {
	Type      string
	Source    string
	Data      interface{}
	Timestamp time.Time
}

// Handler processes one event.
type Handler func(ctx context.Context, event Event) error

// Bus decouples the services that produce state changes from the
// transports that fan them out. The notification push path runs through
// here: the borrowing/notification services publish, the websocket
// bridge subscribes.
type Bus struct {
	handlers map[string][]Handler
	mu       sync.RWMutex

	eventChan chan Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewBus(bufferSize int) *Bus {
	ctx, cancel := context.WithCancel(context.Background())

	bus := &Bus{
		handlers:  make(map[string][]Handler),
		eventChan: make(chan Event, bufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	bus.wg.Add(1)
	go bus.processEvents()

	return bus
}

// Subscribe registers a handler for an event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	log.Printf("EventBus: Subscribed to event type: %s", eventType)
}

// Publish enqueues an event for asynchronous dispatch. A full buffer
// drops the event; every event here is a best-effort signal on top of
// already-persisted state.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventChan <- event:
	default:
		log.Printf("EventBus: Warning - event channel full, dropping event: %s", event.Type)
	}
}

// PublishSync dispatches immediately on the caller's goroutine.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return b.dispatch(ctx, event)
}

func (b *Bus) processEvents() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			if err := b.dispatch(b.ctx, event); err != nil {
				log.Printf("EventBus: Error processing event %s: %v", event.Type, err)
			}
		case <-b.ctx.Done():
			log.Println("EventBus: Shutting down event processor")
			return
		}
	}
}

// dispatch runs every handler for the event type concurrently and
// waits for all of them.
func (b *Bus) dispatch(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			if err := h(ctx, event); err != nil {
				log.Printf("EventBus: Handler error for event %s: %v", event.Type, err)
			}
		}(handler)
	}
	wg.Wait()

	return nil
}

// Shutdown stops the dispatch loop and waits for in-flight handlers.
func (b *Bus) Shutdown() {
	b.cancel()
	b.wg.Wait()
}
