package progress

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// updateInterval throttles bar refreshes so EWMA speed stays meaningful.
const updateInterval = 300 * time.Millisecond

// ItemUI shows one mpb progress bar per source item. Without a terminal it
// prints a start line and a result line per item instead.
type ItemUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool
	totalItems int
}

// NewItemUI creates a per-item UI writing to out.
func NewItemUI(out io.Writer, isTerminal bool) *ItemUI {
	u := &ItemUI{out: out, isTerminal: isTerminal}
	if isTerminal {
		if f, ok := out.(*os.File); ok {
			enableANSIOnWindows(f)
		}
		u.progress = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(updateInterval),
			mpb.WithWidth(100),
		)
	}
	return u
}

func (u *ItemUI) Begin(items int, _ int64) {
	u.totalItems = items
}

// Item creates a new progress bar for one source.
func (u *ItemUI) Item(index int, src, dst string, size int64) ItemHandle {
	ib := &itemBar{
		ui:         u,
		index:      index + 1,
		src:        src,
		dst:        dst,
		size:       size,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
	}

	label := fmt.Sprintf("[%d/%d] %s (%.1f MiB) → %s",
		ib.index, u.totalItems,
		truncatePath(src, 2),
		float64(size)/(1024*1024),
		truncatePath(dst, 2))

	if u.progress == nil {
		fmt.Fprintln(u.out, label)
		return ib
	}

	ib.bar = u.progress.New(size,
		mpb.BarStyle().
			Lbound("[").
			Filler("█").
			Tip("█").
			Padding("░").
			Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(label, decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
			decor.Name("  "),
			decor.Percentage(decor.WCSyncSpace),
			decor.Name("  "),
			decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
			decor.Name("  "),
			decor.Name("ETA ", decor.WCSyncWidth),
			decor.EwmaETA(decor.ET_STYLE_GO, 30),
		),
		mpb.BarRemoveOnComplete(),
	)
	return ib
}

// Done blocks until every bar has completed or aborted.
func (u *ItemUI) Done() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns an io.Writer that safely prints above the progress bars.
func (u *ItemUI) Writer() io.Writer {
	if u.progress != nil {
		return u.progress
	}
	return u.out
}

type itemBar struct {
	bar        *mpb.Bar
	ui         *ItemUI
	index      int
	src        string
	dst        string
	size       int64
	startTime  time.Time
	lastUpdate time.Time
	pending    int64
}

func (b *itemBar) Advance(n int64) {
	if b.bar == nil {
		return
	}
	b.pending += n
	now := time.Now()
	elapsed := now.Sub(b.lastUpdate)
	if elapsed >= updateInterval {
		b.bar.EwmaIncrInt64(b.pending, elapsed)
		b.pending = 0
		b.lastUpdate = now
	}
}

func (b *itemBar) Complete(err error) {
	elapsed := time.Since(b.startTime)

	var msg string
	if err == nil {
		if b.bar != nil {
			if b.size > 0 {
				b.bar.SetCurrent(b.size)
			} else {
				b.bar.SetTotal(-1, true)
			}
		}
		speed := 0.0
		if s := elapsed.Seconds(); s > 0 {
			speed = float64(b.size) / s / (1024 * 1024)
		}
		msg = fmt.Sprintf("✓ %s → %s (%.1f MiB, %s, %.1f MiB/s)\n",
			truncatePath(b.src, 2),
			truncatePath(b.dst, 2),
			float64(b.size)/(1024*1024),
			elapsed.Round(time.Millisecond),
			speed)
	} else {
		if b.bar != nil {
			b.bar.Abort(false)
		}
		msg = fmt.Sprintf("✗ %s → %s: %v\n",
			truncatePath(b.src, 2),
			truncatePath(b.dst, 2),
			err)
	}

	// Write through mpb's writer to avoid triggering redraws
	_, _ = io.WriteString(b.ui.Writer(), msg)
}

// enableANSIOnWindows enables Virtual Terminal processing on Windows for ANSI escape sequences
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
