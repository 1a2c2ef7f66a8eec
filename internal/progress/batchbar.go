package progress

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// BatchBar draws one byte bar for the whole request using progressbar.
// Failed items are listed once the bar finishes so they do not tear it.
type BatchBar struct {
	out      io.Writer
	bar      *progressbar.ProgressBar
	items    int
	finished int
	failures []string
}

// NewBatchBar creates an overall progress bar writing to out.
func NewBatchBar(out io.Writer) *BatchBar {
	return &BatchBar{out: out}
}

// Begin initializes the progress bar with total size. An unknown total
// (0 bytes) renders as a spinner.
func (b *BatchBar) Begin(items int, totalBytes int64) {
	b.items = items
	max := totalBytes
	if max <= 0 {
		max = -1
	}
	b.bar = progressbar.NewOptions64(max,
		progressbar.OptionSetDescription(b.description("")),
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(b.out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (b *BatchBar) Item(index int, src, dst string, size int64) ItemHandle {
	if b.bar == nil {
		b.Begin(0, 0)
	}
	b.bar.Describe(b.description(filepath.Base(src)))
	return &batchItem{batch: b, src: src}
}

// Done completes the progress bar and lists failed items.
func (b *BatchBar) Done() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
	for _, msg := range b.failures {
		fmt.Fprintln(b.out, msg)
	}
}

func (b *BatchBar) description(current string) string {
	desc := fmt.Sprintf("[%d/%d]", b.finished, b.items)
	if current != "" {
		desc += " " + current
	}
	return desc
}

type batchItem struct {
	batch *BatchBar
	src   string
}

func (i *batchItem) Advance(n int64) {
	_ = i.batch.bar.Add64(n)
}

func (i *batchItem) Complete(err error) {
	b := i.batch
	b.finished++
	if err != nil {
		b.failures = append(b.failures, fmt.Sprintf("✗ %s: %v", truncatePath(i.src, 2), err))
	}
	b.bar.Describe(b.description(""))
}
