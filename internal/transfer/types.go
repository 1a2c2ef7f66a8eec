// Package transfer copies and moves files and directory trees into a
// destination directory, recording a result per source instead of aborting
// the batch on the first failure.
package transfer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode selects copy or move semantics for a request.
type Mode string

const (
	ModeCopy Mode = "copy"
	ModeMove Mode = "move"
)

// ParseMode accepts "copy" or "move" in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeCopy, ModeMove:
		return m, nil
	}
	return "", fmt.Errorf("unknown transfer mode %q (want copy or move)", s)
}

// Request is one drop action: sources in the order they were dropped and the
// directory they should land in.
type Request struct {
	ID      string
	Sources []string
	DestDir string
	Mode    Mode
}

// NewRequest creates a request with a fresh ID.
func NewRequest(mode Mode, destDir string, sources ...string) Request {
	return Request{
		ID:      uuid.NewString(),
		Sources: sources,
		DestDir: destDir,
		Mode:    mode,
	}
}

// ItemStatus is the outcome of one source.
type ItemStatus string

const (
	StatusSucceeded ItemStatus = "succeeded"
	StatusFailed    ItemStatus = "failed"
)

// NestedError is a failure on one path inside a directory item.
type NestedError struct {
	Path    string    `json:"path"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ItemResult describes what happened to one source.
type ItemResult struct {
	Source string     `json:"source"`
	Dest   string     `json:"dest"`
	Status ItemStatus `json:"status"`
	Kind   ErrorKind  `json:"kind,omitempty"`
	Reason string     `json:"reason,omitempty"`
	Err    error      `json:"-"`

	Bytes   int64 `json:"bytes"`
	Files   int64 `json:"files"`
	Dirs    int64 `json:"dirs"`
	Renamed bool  `json:"renamed"` // move performed by a single rename

	NestedErrors []NestedError `json:"nested_errors,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Succeeded reports whether the item completed without any error.
func (r ItemResult) Succeeded() bool { return r.Status == StatusSucceeded }

// Summary aggregates item results.
type Summary struct {
	Total     int   `json:"total"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Bytes     int64 `json:"bytes"`
}

// Outcome holds one result per request source, in request order.
type Outcome struct {
	RequestID string       `json:"request_id"`
	Mode      Mode         `json:"mode"`
	DestDir   string       `json:"dest_dir"`
	Items     []ItemResult `json:"items"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary Summary `json:"summary"`
}

// Finalize normalizes timestamps to UTC and recomputes the summary from the
// items. Item order is never changed.
func (o *Outcome) Finalize() {
	o.StartedAt = o.StartedAt.UTC()
	o.FinishedAt = o.FinishedAt.UTC()

	var s Summary
	for i := range o.Items {
		it := &o.Items[i]
		it.StartedAt = it.StartedAt.UTC()
		it.CompletedAt = it.CompletedAt.UTC()

		s.Total++
		s.Bytes += it.Bytes
		if it.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	o.Summary = s
}

// AllSucceeded reports whether no item failed.
func (o *Outcome) AllSucceeded() bool {
	for _, it := range o.Items {
		if !it.Succeeded() {
			return false
		}
	}
	return true
}

// Failures returns the failed items in request order.
func (o *Outcome) Failures() []ItemResult {
	var failed []ItemResult
	for _, it := range o.Items {
		if !it.Succeeded() {
			failed = append(failed, it)
		}
	}
	return failed
}

// MarshalJSON pins the encoding of an outcome to the plain struct form.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type Alias Outcome
	return json.Marshal(Alias(o))
}
