package events

import (
	"errors"
	"testing"
	"time"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventTransferCompleted)

	bus.PublishTransfer(EventTransferCompleted, TransferEvent{
		RequestID: "req-1",
		Index:     2,
		Mode:      "copy",
		Source:    "/a/report.txt",
		Dest:      "/b/report.txt",
		Size:      42,
		Progress:  1.0,
	})

	select {
	case received := <-ch:
		ev, ok := received.(*TransferEvent)
		if !ok {
			t.Fatalf("Expected *TransferEvent, got %T", received)
		}
		if ev.Type() != EventTransferCompleted {
			t.Errorf("Expected type %s, got %s", EventTransferCompleted, ev.Type())
		}
		if ev.Timestamp().IsZero() {
			t.Error("Expected timestamp to be set")
		}
		if ev.Index != 2 || ev.Source != "/a/report.txt" {
			t.Errorf("Unexpected payload: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch1 := bus.Subscribe(EventPaneChanged)
	ch2 := bus.Subscribe(EventPaneChanged)

	bus.PublishPaneChanged("right", "/srv/inbox", 4)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Errorf("Subscriber %d did not receive event", i+1)
		}
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	all := bus.SubscribeAll()

	bus.PublishTransfer(EventTransferStarted, TransferEvent{Index: 0})
	bus.PublishTransfer(EventTransferFailed, TransferEvent{Index: 0, Error: errors.New("boom")})
	bus.PublishPaneChanged("left", "/tmp", 3)

	want := []EventType{EventTransferStarted, EventTransferFailed, EventPaneChanged}
	for _, wt := range want {
		select {
		case ev := <-all:
			if ev.Type() != wt {
				t.Errorf("Expected %s, got %s", wt, ev.Type())
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for %s", wt)
		}
	}
}

func TestEventBus_TypeFiltering(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	failed := bus.Subscribe(EventTransferFailed)
	bus.PublishTransfer(EventTransferCompleted, TransferEvent{})

	select {
	case ev := <-failed:
		t.Errorf("Should not receive %s on a %s subscription", ev.Type(), EventTransferFailed)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_DroppedEvents(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	_ = bus.Subscribe(EventPaneChanged)

	for i := 0; i < 5; i++ {
		bus.PublishPaneChanged("left", "/tmp", i)
	}

	if got := bus.GetDroppedEventCount(); got != 4 {
		t.Errorf("Expected 4 dropped events, got %d", got)
	}
}

func TestEventBus_CloseClosesChannels(t *testing.T) {
	bus := NewEventBus(10)
	ch := bus.Subscribe(EventComplete)
	all := bus.SubscribeAll()

	bus.Close()
	bus.Close() // second close is a no-op

	if _, ok := <-ch; ok {
		t.Error("Expected typed channel to be closed")
	}
	if _, ok := <-all; ok {
		t.Error("Expected all-events channel to be closed")
	}

	late := bus.Subscribe(EventComplete)
	if _, ok := <-late; ok {
		t.Error("Subscribe after Close should return a closed channel")
	}

	// Publishing after close must not panic.
	bus.PublishPaneChanged("left", "/late", 0)
}

func TestNewEventBus_BufferBounds(t *testing.T) {
	if bus := NewEventBus(0); bus.bufferSize != DefaultBufferSize {
		t.Errorf("Expected default buffer %d, got %d", DefaultBufferSize, bus.bufferSize)
	}
	if bus := NewEventBus(MaxBufferSize + 1); bus.bufferSize != MaxBufferSize {
		t.Errorf("Expected capped buffer %d, got %d", MaxBufferSize, bus.bufferSize)
	}
}
