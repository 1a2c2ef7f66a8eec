// Package events provides the publish/subscribe bus that front ends use to
// follow transfers without holding a reference to the engine.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultBufferSize is the per-subscriber channel buffer when none is given.
	DefaultBufferSize = 1000
	// MaxBufferSize caps per-subscriber buffers.
	MaxBufferSize = 10000
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventComplete EventType = "complete" // A whole request finished

	EventTransferStarted   EventType = "transfer_started"   // An item began
	EventTransferProgress  EventType = "transfer_progress"  // Bytes moved for an item
	EventTransferCompleted EventType = "transfer_completed" // An item succeeded
	EventTransferFailed    EventType = "transfer_failed"    // An item failed

	EventPaneChanged EventType = "pane_changed" // A pane navigated or refreshed
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// TransferEvent describes one source item of a request.
type TransferEvent struct {
	BaseEvent
	RequestID string
	Index     int    // Position of the item in the request
	Mode      string // "copy" or "move"
	Source    string
	Dest      string
	Size      int64   // Tree size in bytes
	Progress  float64 // 0.0 to 1.0
	Error     error   // Set on transfer_failed
}

// CompleteEvent is published once per request.
type CompleteEvent struct {
	BaseEvent
	RequestID string
	Total     int
	Succeeded int
	Failed    int
	Bytes     int64
	Duration  time.Duration
}

// PaneChangedEvent tells a view to re-render a pane listing.
type PaneChangedEvent struct {
	BaseEvent
	Pane    string // "left" or "right"
	Path    string
	Entries int
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if bufferSize > MaxBufferSize {
		bufferSize = MaxBufferSize
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// Events for a full subscriber are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishTransfer publishes an item lifecycle event, stamping its type and time.
func (eb *EventBus) PublishTransfer(eventType EventType, ev TransferEvent) {
	ev.BaseEvent = BaseEvent{EventType: eventType, Time: time.Now()}
	eb.Publish(&ev)
}

// PublishPaneChanged is a convenience method for pane refresh notifications.
func (eb *EventBus) PublishPaneChanged(pane, path string, entries int) {
	eb.Publish(&PaneChangedEvent{
		BaseEvent: BaseEvent{
			EventType: EventPaneChanged,
			Time:      time.Now(),
		},
		Pane:    pane,
		Path:    path,
		Entries: entries,
	})
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
