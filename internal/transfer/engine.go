package transfer

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/rescale/dualpane/internal/events"
	"github.com/rescale/dualpane/internal/localfs"
	"github.com/rescale/dualpane/internal/logging"
	"github.com/rescale/dualpane/internal/progress"
	"github.com/rescale/dualpane/internal/util/buffers"
	"github.com/rescale/dualpane/internal/validation"
)

// DefaultSpaceSafetyMargin is the free-space multiplier used for copy preflight.
const DefaultSpaceSafetyMargin = 1.1

// SpaceChecker reports whether the filesystem holding targetPath can take
// requiredBytes times safetyMargin.
type SpaceChecker interface {
	CheckAvailableSpace(targetPath string, requiredBytes int64, safetyMargin float64) error
}

// TrackerFactory builds the progress tracker for one request.
type TrackerFactory func(req Request) progress.Tracker

// Engine executes transfer requests synchronously. It keeps no state between
// requests, so one Engine may serve many callers.
type Engine struct {
	fs         billy.Filesystem
	log        *logging.Logger
	bus        *events.EventBus
	newTracker TrackerFactory
	space      SpaceChecker
	margin     float64
	bufSize    int
	buffers    *buffers.Pool
}

// Option configures an Engine.
type Option func(*Engine)

// WithFilesystem runs the engine against fsys instead of the host filesystem.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(e *Engine) { e.fs = fsys }
}

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithEventBus publishes item and request lifecycle events on bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithProgress sets the factory for per-request progress trackers.
func WithProgress(f TrackerFactory) Option {
	return func(e *Engine) { e.newTracker = f }
}

// WithSpaceChecker enables free-space preflight for copies.
func WithSpaceChecker(c SpaceChecker, safetyMargin float64) Option {
	return func(e *Engine) {
		e.space = c
		if safetyMargin > 0 {
			e.margin = safetyMargin
		}
	}
}

// WithBufferSize sets the per-file copy buffer size in bytes.
func WithBufferSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bufSize = n
		}
	}
}

// NewEngine creates an engine on the host filesystem with no progress output.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		fs:      localfs.NativeFS(),
		log:     logging.NewNopLogger(),
		margin:  DefaultSpaceSafetyMargin,
		bufSize: localfs.DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.buffers = buffers.NewPool(e.bufSize)
	return e
}

// Filesystem returns the filesystem the engine operates on.
func (e *Engine) Filesystem() billy.Filesystem { return e.fs }

// Transfer performs req and returns one result per source, in order. It never
// panics and never stops early: a failing source is recorded and the next
// one is processed.
func (e *Engine) Transfer(req Request) *Outcome {
	out := &Outcome{
		RequestID: req.ID,
		Mode:      req.Mode,
		DestDir:   req.DestDir,
		Items:     make([]ItemResult, 0, len(req.Sources)),
		StartedAt: time.Now(),
	}
	log := e.log.With().Str("request", req.ID).Str("mode", string(req.Mode)).Logger()

	sizes := make([]localfs.TreeStats, len(req.Sources))
	var total int64
	for i, src := range req.Sources {
		sizes[i] = e.sizeOf(src)
		total += sizes[i].Bytes
	}

	tracker := e.tracker(req)
	tracker.Begin(len(req.Sources), total)

	destErr := e.prepareDest(req.DestDir)
	if destErr != nil {
		log.Error().Err(destErr).Str("dest", req.DestDir).Msg("destination directory unusable")
	}

	buf := e.buffers.Get()
	defer e.buffers.Put(buf)
	st := &itemState{buf: *buf}
	for i, src := range req.Sources {
		dst := destPath(e.fs, req.DestDir, src)
		handle := tracker.Item(i, src, dst, sizes[i].Bytes)
		e.publish(events.EventTransferStarted, req, i, src, dst, sizes[i].Bytes, nil)

		var res ItemResult
		if destErr != nil {
			now := time.Now()
			res = ItemResult{Source: src, Dest: dst, StartedAt: now, CompletedAt: now}
			fail(&res, destErr)
		} else {
			res = e.transferItem(req.Mode, src, req.DestDir, sizes[i], st, handle)
		}
		handle.Complete(res.Err)
		out.Items = append(out.Items, res)

		if res.Succeeded() {
			log.Info().Str("source", src).Str("dest", res.Dest).Int64("bytes", res.Bytes).
				Bool("renamed", res.Renamed).Msg("transferred")
			e.publish(events.EventTransferCompleted, req, i, src, res.Dest, res.Bytes, nil)
		} else {
			log.Warn().Str("source", src).Str("kind", string(res.Kind)).Str("reason", res.Reason).
				Int("nested_errors", len(res.NestedErrors)).Msg("transfer failed")
			e.publish(events.EventTransferFailed, req, i, src, res.Dest, res.Bytes, res.Err)
		}
	}

	tracker.Done()
	out.FinishedAt = time.Now()
	out.Finalize()

	log.Info().Int("succeeded", out.Summary.Succeeded).Int("failed", out.Summary.Failed).
		Int64("bytes", out.Summary.Bytes).Dur("duration", out.FinishedAt.Sub(out.StartedAt)).
		Msg("request complete")
	if ps := e.buffers.Stats(); ps.Gets > 0 {
		log.Debug().Int("buffer_size", ps.BufferSize).Int64("allocations", ps.Allocations).
			Int64("reuses", ps.Reuses).Msg("copy buffer pool")
	}
	if e.bus != nil {
		e.bus.Publish(&events.CompleteEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventComplete, Time: time.Now()},
			RequestID: req.ID,
			Total:     out.Summary.Total,
			Succeeded: out.Summary.Succeeded,
			Failed:    out.Summary.Failed,
			Bytes:     out.Summary.Bytes,
			Duration:  out.FinishedAt.Sub(out.StartedAt),
		})
	}
	return out
}

// sizeOf returns the tree size of src, or zero when it cannot be measured.
// Measuring problems surface again when the item itself is processed.
func (e *Engine) sizeOf(src string) (st localfs.TreeStats) {
	defer func() {
		if r := recover(); r != nil {
			st = localfs.TreeStats{}
		}
	}()
	st, _ = localfs.TreeSize(e.fs, src)
	return st
}

func (e *Engine) publish(t events.EventType, req Request, index int, src, dst string, size int64, err error) {
	if e.bus == nil {
		return
	}
	ev := events.TransferEvent{
		RequestID: req.ID,
		Index:     index,
		Mode:      string(req.Mode),
		Source:    src,
		Dest:      dst,
		Size:      size,
		Error:     err,
	}
	if t == events.EventTransferCompleted {
		ev.Progress = 1.0
	}
	e.bus.PublishTransfer(t, ev)
}

func (e *Engine) tracker(req Request) progress.Tracker {
	var t progress.Tracker = progress.NoOp{}
	if e.newTracker != nil {
		if nt := e.newTracker(req); nt != nil {
			t = nt
		}
	}
	if e.bus != nil {
		t = progress.Multi(t, progress.NewEventTracker(e.bus, req.ID, string(req.Mode)))
	}
	return t
}

// prepareDest creates the destination directory. Any failure here makes the
// destination unwritable for every item.
func (e *Engine) prepareDest(dir string) error {
	if dir == "" {
		return &Error{Kind: KindDestinationUnwritable, Err: fmt.Errorf("destination directory is empty")}
	}
	if err := localfs.EnsureDir(e.fs, dir, 0o755); err != nil {
		ce := classify(err)
		return &Error{Kind: KindDestinationUnwritable, Op: ce.Op, Path: ce.Path, Err: ce.Err}
	}
	return nil
}

func destPath(fsys billy.Filesystem, destDir, src string) string {
	return fsys.Join(destDir, filepath.Base(filepath.Clean(src)))
}

// transferItem handles one source. A panic anywhere below is turned into an
// IOFailure for this item only.
func (e *Engine) transferItem(mode Mode, src, destDir string, size localfs.TreeStats, st *itemState, handle progress.ItemHandle) (res ItemResult) {
	res = ItemResult{Source: src, Dest: destPath(e.fs, destDir, src), StartedAt: time.Now()}
	st.reset(handle)

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("source", src).Interface("panic", r).Bytes("stack", debug.Stack()).Msg("transfer panicked")
			fail(&res, ioFailure("transfer", src, fmt.Errorf("internal error: %v", r)))
		}
		res.CompletedAt = time.Now()
	}()

	if err := validation.ValidateFilename(filepath.Base(filepath.Clean(src))); err != nil {
		fail(&res, ioFailure("resolve", src, err))
		return res
	}

	fi, err := e.fs.Lstat(src)
	if err != nil {
		fail(&res, classify(&localfs.OpError{Op: "stat", Path: src, Side: localfs.SideSource, Err: err}))
		return res
	}

	if filepath.Clean(src) == filepath.Clean(res.Dest) {
		if mode == ModeMove {
			res.Status = StatusSucceeded
			return res
		}
		fail(&res, ioFailure("copy", src, ErrSamePath))
		return res
	}

	if fi.IsDir() {
		if err := validation.ValidateNotInside(res.Dest, src); err != nil {
			fail(&res, ioFailure(string(mode), src, err))
			return res
		}
	}

	switch mode {
	case ModeMove:
		err = e.move(src, res.Dest, fi, size, st, &res)
	default:
		err = e.copy(src, res.Dest, fi, size, st)
	}

	res.Bytes += st.bytes
	res.Files += st.files
	res.Dirs += st.dirs
	res.NestedErrors = st.nested

	switch {
	case err != nil:
		fail(&res, err)
	case len(st.nested) > 0:
		first := st.nested[0]
		fail(&res, &Error{
			Kind: first.Kind,
			Err:  fmt.Errorf("%d of the entries under %s failed; first: %s", len(st.nested), src, first.Message),
		})
	default:
		res.Status = StatusSucceeded
	}
	return res
}

func (e *Engine) copy(src, dst string, fi fs.FileInfo, size localfs.TreeStats, st *itemState) error {
	if e.space != nil {
		if err := e.space.CheckAvailableSpace(dst, size.Bytes, e.margin); err != nil {
			return ioFailure("preflight", dst, err)
		}
	}
	return e.copyEntry(src, dst, fi, st, true)
}

// move relocates src to dst. A single rename is tried first; a cross-device
// rename, or a directory already present at dst, falls back to copy+delete.
// The source is removed only when the copy left no errors behind.
func (e *Engine) move(src, dst string, fi fs.FileInfo, size localfs.TreeStats, st *itemState, res *ItemResult) error {
	existing, lerr := e.fs.Lstat(dst)
	merge := false
	switch {
	case lerr == nil && fi.IsDir() && existing.IsDir():
		merge = true
	case lerr == nil && fi.IsDir() != existing.IsDir():
		want, got := "file", "directory"
		if fi.IsDir() {
			want, got = got, want
		}
		return classify(&localfs.OpError{Op: "move", Path: dst, Side: localfs.SideDest,
			Err: &localfs.PathTypeConflictError{Path: dst, Want: want, Got: got}})
	}

	if !merge {
		err := rename(e.fs, src, dst)
		if err == nil {
			res.Renamed = true
			st.bytes, st.files, st.dirs = size.Bytes, size.Files, size.Dirs
			st.handle.Advance(size.Bytes)
			return nil
		}
		if !localfs.IsCrossDevice(err) {
			return classify(&localfs.OpError{Op: "rename", Path: src, Side: localfs.SideSource, Err: err})
		}
		e.log.Debug().Str("source", src).Str("dest", dst).Msg("cross-device move, copying instead")
	}

	if err := e.copyEntry(src, dst, fi, st, true); err != nil {
		return err
	}
	if len(st.nested) > 0 {
		return nil
	}
	if err := localfs.RemoveAll(e.fs, src); err != nil {
		return classify(err)
	}
	return nil
}

// copyEntry replicates src at dst. Errors on nested paths are recorded on st
// and the walk continues; only a failure on src itself is returned when top
// is set.
func (e *Engine) copyEntry(src, dst string, fi fs.FileInfo, st *itemState, top bool) error {
	var err error
	mode := fi.Mode()
	switch {
	case mode&fs.ModeSymlink != 0:
		if err = localfs.CopySymlink(e.fs, src, dst); err == nil {
			st.files++
		}
	case mode.IsRegular():
		if err = localfs.CopyFile(e.fs, src, dst, mode.Perm(), st.buf, st.handle.Advance); err == nil {
			st.files++
			st.bytes += fi.Size()
		}
	case mode.IsDir():
		err = e.copyDir(src, dst, mode.Perm(), st)
		if err == nil && !top {
			st.dirs++
		}
	default:
		err = ioFailure("copy", src, fmt.Errorf("unsupported file type %s", mode.Type()))
	}

	if err == nil {
		return nil
	}
	if top {
		return classify(err)
	}
	st.record(src, err)
	return nil
}

func (e *Engine) copyDir(src, dst string, perm fs.FileMode, st *itemState) error {
	// Owner write is kept so the contents can be written into a copy of a
	// read-only directory.
	if err := localfs.EnsureDir(e.fs, dst, perm|0o700); err != nil {
		return err
	}
	entries, err := e.fs.ReadDir(src)
	if err != nil {
		return &localfs.OpError{Op: "readdir", Path: src, Side: localfs.SideSource, Err: err}
	}
	for _, child := range entries {
		name := child.Name()
		_ = e.copyEntry(e.fs.Join(src, name), e.fs.Join(dst, name), child, st, false)
	}
	return nil
}

// Replaceable so tests can simulate a cross-device rename.
var rename = localfs.Rename

func fail(res *ItemResult, err error) {
	ce := classify(err)
	res.Status = StatusFailed
	res.Kind = ce.Kind
	res.Reason = ce.Error()
	res.Err = ce
}

// itemState accumulates counters and nested errors for the item in flight.
type itemState struct {
	buf    []byte
	handle progress.ItemHandle
	bytes  int64
	files  int64
	dirs   int64
	nested []NestedError
}

func (s *itemState) reset(h progress.ItemHandle) {
	s.handle = h
	s.bytes, s.files, s.dirs = 0, 0, 0
	s.nested = nil
}

func (s *itemState) record(path string, err error) {
	ce := classify(err)
	s.nested = append(s.nested, NestedError{Path: path, Kind: ce.Kind, Message: ce.Error()})
}
