package pane

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rescale/dualpane/internal/logging"
	"github.com/rescale/dualpane/internal/transfer"
)

// ModeForModifier maps the modifier-key state of a drop to a transfer mode:
// held means copy, otherwise the items are moved.
func ModeForModifier(held bool) transfer.Mode {
	if held {
		return transfer.ModeCopy
	}
	return transfer.ModeMove
}

// DropAction describes items dragged out of one pane and released.
type DropAction struct {
	From         Side     // pane the items were dragged from
	Names        []string // names relative to the source pane, or absolute paths
	ModifierHeld bool
	// Target overrides the destination directory. Empty means the other
	// pane's current path; a relative value is resolved against that pane.
	Target string
}

// Presenter displays the result of a drop, e.g. per-item error dialogs.
type Presenter interface {
	Present(outcome *transfer.Outcome)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(outcome *transfer.Outcome)

func (f PresenterFunc) Present(outcome *transfer.Outcome) { f(outcome) }

// Workspace is the pair of panes plus the engine that moves data between them.
type Workspace struct {
	Left  *Pane
	Right *Pane

	engine    *transfer.Engine
	presenter Presenter
	logger    *logging.Logger
}

// NewWorkspace wires two panes to an engine. presenter may be nil.
func NewWorkspace(left, right *Pane, engine *transfer.Engine, presenter Presenter, logger *logging.Logger) *Workspace {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Workspace{
		Left:      left,
		Right:     right,
		engine:    engine,
		presenter: presenter,
		logger:    logger,
	}
}

// Pane returns the pane on side.
func (w *Workspace) Pane(side Side) *Pane {
	if side == Left {
		return w.Left
	}
	return w.Right
}

// Request resolves a drop into a transfer request without running it.
func (w *Workspace) Request(action DropAction) (transfer.Request, error) {
	if action.From != Left && action.From != Right {
		return transfer.Request{}, fmt.Errorf("unknown source pane %q", action.From)
	}
	if len(action.Names) == 0 {
		return transfer.Request{}, errors.New("nothing was dropped")
	}

	from := w.Pane(action.From)
	to := w.Pane(action.From.Other())

	sources := make([]string, 0, len(action.Names))
	for _, name := range action.Names {
		sources = append(sources, from.Resolve(name))
	}

	dest := to.Path()
	if action.Target != "" {
		dest = to.Resolve(action.Target)
	}
	if dest == "" {
		return transfer.Request{}, fmt.Errorf("%s pane has no current directory", action.From.Other())
	}
	return transfer.NewRequest(ModeForModifier(action.ModifierHeld), filepath.Clean(dest), sources...), nil
}

// Drop runs the transfer for action, hands the outcome to the presenter and
// refreshes both panes. Item failures are reported in the outcome, not as an
// error; the error is only for a drop that could not be turned into a request.
func (w *Workspace) Drop(action DropAction) (*transfer.Outcome, error) {
	req, err := w.Request(action)
	if err != nil {
		return nil, err
	}

	w.logger.Info().Str("request", req.ID).Str("from", string(action.From)).
		Str("mode", string(req.Mode)).Int("items", len(req.Sources)).Str("dest", req.DestDir).
		Msg("drop")

	outcome := w.engine.Transfer(req)

	if w.presenter != nil {
		w.presenter.Present(outcome)
	}
	for _, p := range []*Pane{w.Left, w.Right} {
		if err := p.Refresh(); err != nil {
			w.logger.Warn().Err(err).Str("pane", string(p.Side())).Msg("refresh after drop failed")
		}
	}
	return outcome, nil
}
