// Package progress renders transfer progress for the CLI (an overall byte bar
// or one bar per item) and publishes it on the event bus for other front ends.
package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/rescale/dualpane/internal/events"
)

// Kind selects a Tracker implementation.
type Kind string

const (
	KindAuto  Kind = "auto"  // items on a terminal, none otherwise
	KindBar   Kind = "bar"   // single overall byte bar
	KindItems Kind = "items" // one bar per source item
	KindNone  Kind = "none"
)

// ParseKind validates a progress mode name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindBar, KindItems, KindNone:
		return k, nil
	}
	return "", fmt.Errorf("unknown progress mode %q (want auto, bar, items or none)", s)
}

// New returns the renderer for kind drawing on out.
func New(kind Kind, out *os.File) Tracker {
	isTerminal := out != nil && term.IsTerminal(int(out.Fd()))
	switch kind {
	case KindBar:
		return NewBatchBar(out)
	case KindItems:
		return NewItemUI(out, isTerminal)
	case KindAuto:
		if isTerminal {
			return NewItemUI(out, true)
		}
	}
	return NoOp{}
}

// NoOp is a tracker that does nothing (for background/silent operations).
type NoOp struct{}

func (NoOp) Begin(int, int64) {}

func (NoOp) Item(int, string, string, int64) ItemHandle { return noOpItem{} }

func (NoOp) Done() {}

type noOpItem struct{}

func (noOpItem) Advance(int64)  {}
func (noOpItem) Complete(error) {}

// Multi fans every call out to each tracker in order.
func Multi(trackers ...Tracker) Tracker {
	return multi(trackers)
}

type multi []Tracker

func (m multi) Begin(items int, totalBytes int64) {
	for _, t := range m {
		t.Begin(items, totalBytes)
	}
}

func (m multi) Item(index int, src, dst string, size int64) ItemHandle {
	handles := make(multiItem, 0, len(m))
	for _, t := range m {
		handles = append(handles, t.Item(index, src, dst, size))
	}
	return handles
}

func (m multi) Done() {
	for _, t := range m {
		t.Done()
	}
}

type multiItem []ItemHandle

func (m multiItem) Advance(n int64) {
	for _, h := range m {
		h.Advance(n)
	}
}

func (m multiItem) Complete(err error) {
	for _, h := range m {
		h.Complete(err)
	}
}

// EventTracker publishes per-item progress on an event bus. Updates are
// coalesced to whole-percent steps so a large file does not flood subscribers.
type EventTracker struct {
	bus       *events.EventBus
	requestID string
	mode      string
}

// NewEventTracker creates a tracker publishing transfer_progress events.
func NewEventTracker(bus *events.EventBus, requestID, mode string) *EventTracker {
	return &EventTracker{bus: bus, requestID: requestID, mode: mode}
}

func (e *EventTracker) Begin(int, int64) {}

func (e *EventTracker) Done() {}

func (e *EventTracker) Item(index int, src, dst string, size int64) ItemHandle {
	return &eventItem{
		tracker: e,
		ev: events.TransferEvent{
			RequestID: e.requestID,
			Index:     index,
			Mode:      e.mode,
			Source:    src,
			Dest:      dst,
			Size:      size,
		},
		lastPercent: -1,
	}
}

type eventItem struct {
	tracker     *EventTracker
	ev          events.TransferEvent
	done        int64
	lastPercent int
}

func (i *eventItem) Advance(n int64) {
	i.done += n
	if i.ev.Size <= 0 {
		return
	}
	fraction := float64(i.done) / float64(i.ev.Size)
	if fraction > 1 {
		fraction = 1
	}
	percent := int(fraction * 100)
	if percent == i.lastPercent {
		return
	}
	i.lastPercent = percent
	i.publish(fraction)
}

func (i *eventItem) Complete(err error) {
	if err == nil && i.lastPercent != 100 {
		i.lastPercent = 100
		i.publish(1.0)
	}
}

func (i *eventItem) publish(fraction float64) {
	ev := i.ev
	ev.Progress = fraction
	i.tracker.bus.PublishTransfer(events.EventTransferProgress, ev)
}

// truncatePath truncates a file path to show only the last N components
// Example: truncatePath("/a/b/c/d/file.txt", 3) → "…/c/d/file.txt"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	relevant := parts[len(parts)-maxComponents:]
	return "…/" + strings.Join(relevant, "/")
}
