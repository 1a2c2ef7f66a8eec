package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rescale/dualpane/internal/config"
	"github.com/rescale/dualpane/internal/diskspace"
	"github.com/rescale/dualpane/internal/events"
	"github.com/rescale/dualpane/internal/localfs"
	"github.com/rescale/dualpane/internal/logging"
	"github.com/rescale/dualpane/internal/pane"
	"github.com/rescale/dualpane/internal/pathutil"
	"github.com/rescale/dualpane/internal/progress"
	"github.com/rescale/dualpane/internal/transfer"
	ustrings "github.com/rescale/dualpane/internal/util/strings"
)

// ErrPartialFailure is returned when at least one item of a request failed.
var ErrPartialFailure = errors.New("some items failed")

func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy SOURCE... DEST",
		Short: "Copy files or directories into DEST",
		Long: `Copy each SOURCE into the directory DEST. Directories are copied
recursively; an existing file of the same name in DEST is replaced.

Example:
  dualpane copy notes.txt ./photos /mnt/backup`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd, transfer.ModeCopy, args[:len(args)-1], args[len(args)-1])
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move SOURCE... DEST",
		Short: "Move files or directories into DEST",
		Long: `Move each SOURCE into the directory DEST. A rename is used when
possible; across filesystems the tree is copied and the source removed.
A source is only removed once everything below it was copied.

Example:
  dualpane move ./build /srv/releases`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd, transfer.ModeMove, args[:len(args)-1], args[len(args)-1])
		},
	}
}

func newTransferCmd() *cobra.Command {
	var (
		modeFlag string
		modifier bool
	)

	cmd := &cobra.Command{
		Use:   "transfer SOURCE... DEST",
		Short: "Drop SOURCE items from the left pane onto the right pane at DEST",
		Long: `Simulate a drag-and-drop between the two panes. The left pane opens
at the current directory and the right pane at DEST. Without a modifier the
dropped items are moved; with --modifier they are copied.

Examples:
  dualpane transfer report.pdf ~/Documents
  dualpane transfer --modifier ./photos /mnt/usb
  dualpane transfer --mode copy a.txt b.txt ../other`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			held := modifier
			if cmd.Flags().Changed("mode") {
				mode, err := transfer.ParseMode(modeFlag)
				if err != nil {
					return err
				}
				held = mode == transfer.ModeCopy
			}
			return runDrop(cmd, args[:len(args)-1], args[len(args)-1], held)
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", "", "Transfer mode: copy or move (overrides --modifier)")
	cmd.Flags().BoolVarP(&modifier, "modifier", "m", false, "Behave as if the copy modifier key was held")
	return cmd
}

func runTransfer(cmd *cobra.Command, mode transfer.Mode, sources []string, dest string) error {
	destDir, err := pathutil.ResolveAbsolutePath(dest)
	if err != nil {
		return fmt.Errorf("invalid destination %s: %w", dest, err)
	}
	resolved := make([]string, 0, len(sources))
	for _, src := range sources {
		abs, err := pathutil.ResolveSourcePath(src)
		if err != nil {
			return fmt.Errorf("invalid source %s: %w", src, err)
		}
		resolved = append(resolved, abs)
	}

	engine, closeBus := newEngine()
	defer closeBus()

	req := transfer.NewRequest(mode, destDir, resolved...)
	GetLogger().Debug().Str("request", req.ID).Str("mode", string(mode)).
		Int("items", len(resolved)).Str("dest", destDir).Msg("starting transfer")

	outcome := engine.Transfer(req)
	return reportOutcome(cmd.OutOrStdout(), outcome)
}

func runDrop(cmd *cobra.Command, sources []string, dest string, modifierHeld bool) error {
	cfg := GetConfig()
	log := GetLogger()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	destDir, err := pathutil.ResolveAbsolutePath(dest)
	if err != nil {
		return fmt.Errorf("invalid destination %s: %w", dest, err)
	}

	engine, closeBus := newEngine()
	defer closeBus()

	fsys := engine.Filesystem()
	opts := []pane.Option{pane.WithShowHidden(cfg.Panes.ShowHidden), pane.WithLogger(log.Named("pane"))}
	left := pane.New(pane.Left, fsys, opts...)
	right := pane.New(pane.Right, fsys, opts...)
	if err := left.Navigate(cwd); err != nil {
		return fmt.Errorf("failed to open %s: %w", cwd, err)
	}
	if err := right.Navigate(destDir); err != nil {
		return fmt.Errorf("failed to open destination %s: %w", destDir, err)
	}

	var presented *transfer.Outcome
	ws := pane.NewWorkspace(left, right, engine, pane.PresenterFunc(func(o *transfer.Outcome) {
		presented = o
	}), log)

	names := make([]string, 0, len(sources))
	for _, src := range sources {
		abs, err := pathutil.ResolveSourcePath(src)
		if err != nil {
			return fmt.Errorf("invalid source %s: %w", src, err)
		}
		names = append(names, abs)
	}

	if _, err := ws.Drop(pane.DropAction{From: pane.Left, Names: names, ModifierHeld: modifierHeld}); err != nil {
		return err
	}
	return reportOutcome(cmd.OutOrStdout(), presented)
}

// newEngine builds an engine from the loaded configuration. The returned
// func releases the event bus once the request has finished.
func newEngine() (*transfer.Engine, func()) {
	log := GetLogger()

	bus := events.NewEventBus(0)
	all := bus.SubscribeAll()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range all {
			if te, ok := ev.(*events.TransferEvent); ok && ev.Type() != events.EventTransferProgress {
				log.Debug().Str("event", string(te.Type())).Int("index", te.Index).
					Str("source", te.Source).Msg("transfer event")
			}
		}
	}()

	return buildEngine(GetConfig(), log, bus), func() {
		bus.Close()
		<-done
	}
}

// buildEngine wires an engine on the host filesystem. The engine publishes
// progress on bus itself, so the tracker here only renders to the terminal.
func buildEngine(cfg *config.Config, log *logging.Logger, bus *events.EventBus) *transfer.Engine {
	kind := cfg.ProgressKind()
	if jsonOutput && kind == progress.KindAuto {
		kind = progress.KindNone
	}

	opts := []transfer.Option{
		transfer.WithFilesystem(localfs.NativeFS()),
		transfer.WithLogger(log.Named("engine")),
		transfer.WithEventBus(bus),
		transfer.WithBufferSize(cfg.BufferSize()),
		transfer.WithProgress(func(transfer.Request) progress.Tracker {
			return progress.New(kind, os.Stderr)
		}),
	}
	if cfg.Transfer.CheckSpace {
		opts = append(opts, transfer.WithSpaceChecker(diskspace.Checker{}, cfg.Transfer.SpaceSafetyMargin))
	}
	return transfer.NewEngine(opts...)
}

func reportOutcome(w io.Writer, outcome *transfer.Outcome) error {
	if outcome == nil {
		return errors.New("transfer produced no outcome")
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return fmt.Errorf("failed to encode outcome: %w", err)
		}
	} else {
		printOutcome(w, outcome)
	}

	if !outcome.AllSucceeded() {
		return fmt.Errorf("%w: %d of %d", ErrPartialFailure, outcome.Summary.Failed, outcome.Summary.Total)
	}
	return nil
}

func printOutcome(w io.Writer, outcome *transfer.Outcome) {
	verb := "Copied"
	if outcome.Mode == transfer.ModeMove {
		verb = "Moved"
	}

	for _, item := range outcome.Items {
		if item.Succeeded() {
			fmt.Fprintf(w, "✓ %s → %s (%s)\n", item.Source, item.Dest, FormatBytes(item.Bytes))
			continue
		}
		fmt.Fprintf(w, "✗ %s: %s: %s\n", item.Source, item.Kind, item.Reason)
		for _, nested := range item.NestedErrors {
			fmt.Fprintf(w, "    %s: %s\n", nested.Path, nested.Message)
		}
	}

	s := outcome.Summary
	fmt.Fprintf(w, "\n%s %d of %s, %s in %s",
		verb, s.Succeeded, ustrings.Count(int64(s.Total), "item"), FormatBytes(s.Bytes), outcome.FinishedAt.Sub(outcome.StartedAt).Round(time.Millisecond))
	if s.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", s.Failed)
	}
	fmt.Fprintln(w)
}

// FormatBytes formats a byte count with binary units.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
