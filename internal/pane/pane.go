// Package pane holds the state of the two directory browsers and turns a
// drop between them into a transfer request.
package pane

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/rescale/dualpane/internal/events"
	"github.com/rescale/dualpane/internal/localfs"
	"github.com/rescale/dualpane/internal/logging"
)

// maxHistory bounds the back stack of a pane.
const maxHistory = 50

// ErrNoHistory is returned by Back when there is nowhere to go back to.
var ErrNoHistory = errors.New("no previous directory")

// Side names one of the two panes.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Other returns the opposite pane.
func (s Side) Other() Side {
	if s == Left {
		return Right
	}
	return Left
}

// ParseSide accepts "left" or "right".
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Left, Right:
		return Side(s), nil
	}
	return "", fmt.Errorf("unknown pane %q (want left or right)", s)
}

// Pane is one directory browser: its current path, back history, hidden-file
// toggle and the listing for the current path. It is safe for concurrent use.
type Pane struct {
	mu          sync.RWMutex
	side        Side
	fs          billy.Filesystem
	currentPath string
	history     []string
	showHidden  bool
	entries     []localfs.FileEntry

	bus    *events.EventBus
	logger *logging.Logger
}

// Option configures a Pane.
type Option func(*Pane)

// WithEventBus publishes pane_changed events after every listing.
func WithEventBus(bus *events.EventBus) Option {
	return func(p *Pane) { p.bus = bus }
}

// WithLogger sets the pane logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pane) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithShowHidden sets the initial hidden-file toggle.
func WithShowHidden(show bool) Option {
	return func(p *Pane) { p.showHidden = show }
}

// New creates a pane on fsys. It has no path until the first Navigate.
func New(side Side, fsys billy.Filesystem, opts ...Option) *Pane {
	p := &Pane{
		side:   side,
		fs:     fsys,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Side returns which pane this is.
func (p *Pane) Side() Side { return p.side }

// Path returns the current directory path.
func (p *Pane) Path() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentPath
}

// Entries returns a copy of the current listing.
func (p *Pane) Entries() []localfs.FileEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]localfs.FileEntry(nil), p.entries...)
}

// ShowHidden reports whether hidden entries are listed.
func (p *Pane) ShowHidden() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.showHidden
}

// History returns the back stack, oldest first.
func (p *Pane) History() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.history...)
}

// Navigate changes to path, which must be an existing directory. A relative
// path is resolved against the current path. On failure the pane is unchanged.
func (p *Pane) Navigate(path string) error {
	target := p.resolve(path)
	if err := p.load(target, true); err != nil {
		return err
	}
	p.logger.Debug().Str("pane", string(p.side)).Str("path", target).Msg("navigated")
	return nil
}

// Back returns to the previous directory.
func (p *Pane) Back() error {
	p.mu.Lock()
	if len(p.history) == 0 {
		p.mu.Unlock()
		return ErrNoHistory
	}
	prev := p.history[len(p.history)-1]
	p.mu.Unlock()

	if err := p.load(prev, false); err != nil {
		return err
	}

	p.mu.Lock()
	if n := len(p.history); n > 0 && p.history[n-1] == prev {
		p.history = p.history[:n-1]
	}
	p.mu.Unlock()
	return nil
}

// Up navigates to the parent directory. At the filesystem root it does nothing.
func (p *Pane) Up() error {
	cur := p.Path()
	parent := filepath.Dir(cur)
	if cur == "" || parent == cur {
		return nil
	}
	return p.Navigate(parent)
}

// Refresh re-reads the current directory.
func (p *Pane) Refresh() error {
	cur := p.Path()
	if cur == "" {
		return nil
	}
	return p.load(cur, false)
}

// SetShowHidden toggles hidden entries and re-lists the current directory.
func (p *Pane) SetShowHidden(show bool) error {
	p.mu.Lock()
	p.showHidden = show
	p.mu.Unlock()
	return p.Refresh()
}

// Resolve joins a relative name onto the current path.
func (p *Pane) Resolve(name string) string {
	return p.resolve(name)
}

func (p *Pane) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.Path(), path)
}

func (p *Pane) load(dir string, pushHistory bool) error {
	fi, err := p.fs.Stat(dir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return &localfs.PathTypeConflictError{Path: dir, Want: "directory", Got: "file"}
	}

	entries, err := localfs.ListDirectory(p.fs, dir, localfs.ListOptions{IncludeHidden: p.ShowHidden()})
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}

	p.mu.Lock()
	if pushHistory && p.currentPath != "" && p.currentPath != dir {
		p.history = append(p.history, p.currentPath)
		if len(p.history) > maxHistory {
			p.history = p.history[1:]
		}
	}
	p.currentPath = dir
	p.entries = entries
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.PublishPaneChanged(string(p.side), dir, len(entries))
	}
	return nil
}
