package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rescale/dualpane/internal/config"
	"github.com/rescale/dualpane/internal/events"
	"github.com/rescale/dualpane/internal/logging"
	"github.com/rescale/dualpane/internal/transfer"
)

// runCLI executes the root command against a config file that disables
// progress output, returning what was written to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{config.EnvProgress, config.EnvShowHidden, config.EnvLogLevel} {
		t.Setenv(env, "")
	}

	cfgPath := filepath.Join(t.TempDir(), "dualpane.conf")
	conf := "[transfer]\nprogress = none\n\n[log]\nlevel = error\n"
	if err := os.WriteFile(cfgPath, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

// tempDir returns a fresh directory with symlinks resolved, matching how
// the commands resolve their arguments.
func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

func mustNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected %s to be gone, got %v", path, err)
	}
}

func TestCopyCommand(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "backup")
	mustWrite(t, filepath.Join(src, "notes.txt"), "hello")
	mustWrite(t, filepath.Join(src, "photos", "a.jpg"), "jpeg")

	out, err := runCLI(t, "copy", filepath.Join(src, "notes.txt"), filepath.Join(src, "photos"), dst)
	if err != nil {
		t.Fatalf("copy failed: %v\n%s", err, out)
	}

	mustExist(t, filepath.Join(dst, "notes.txt"))
	mustExist(t, filepath.Join(dst, "photos", "a.jpg"))
	mustExist(t, filepath.Join(src, "notes.txt"))

	if !strings.Contains(out, "Copied 2 of 2 items") {
		t.Errorf("missing summary in output:\n%s", out)
	}
	if strings.Count(out, "✓") != 2 {
		t.Errorf("expected two success lines:\n%s", out)
	}
}

func TestMoveCommand_PartialFailure(t *testing.T) {
	src := tempDir(t)
	dst := tempDir(t)
	mustWrite(t, filepath.Join(src, "keep.txt"), "data")
	missing := filepath.Join(src, "missing.txt")

	out, err := runCLI(t, "move", missing, filepath.Join(src, "keep.txt"), dst)
	if !errors.Is(err, ErrPartialFailure) {
		t.Fatalf("expected ErrPartialFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("error should carry counts: %v", err)
	}

	mustExist(t, filepath.Join(dst, "keep.txt"))
	mustNotExist(t, filepath.Join(src, "keep.txt"))

	if !strings.Contains(out, "✗ "+missing+": source_not_found") {
		t.Errorf("missing failure line:\n%s", out)
	}
	if !strings.Contains(out, "1 failed") {
		t.Errorf("missing failure count:\n%s", out)
	}
}

func TestCopyCommand_JSON(t *testing.T) {
	src := tempDir(t)
	dst := tempDir(t)
	mustWrite(t, filepath.Join(src, "a.txt"), "12345")

	out, err := runCLI(t, "--json", "copy", filepath.Join(src, "a.txt"), dst)
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}

	var outcome transfer.Outcome
	if err := json.Unmarshal([]byte(out), &outcome); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if outcome.Mode != transfer.ModeCopy {
		t.Errorf("mode = %q", outcome.Mode)
	}
	if outcome.Summary.Total != 1 || outcome.Summary.Succeeded != 1 || outcome.Summary.Bytes != 5 {
		t.Errorf("summary = %+v", outcome.Summary)
	}
	if len(outcome.Items) != 1 || outcome.Items[0].Dest != filepath.Join(dst, "a.txt") {
		t.Errorf("items = %+v", outcome.Items)
	}
}

func TestTransferCommand_ModifierSelectsMode(t *testing.T) {
	tests := []struct {
		name      string
		flags     []string
		wantMoved bool
	}{
		{"no modifier moves", nil, true},
		{"modifier copies", []string{"--modifier"}, false},
		{"explicit copy mode", []string{"--mode", "copy"}, false},
		{"mode wins over modifier", []string{"--modifier", "--mode", "move"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := t.TempDir()
			dst := t.TempDir()
			file := filepath.Join(src, "report.pdf")
			mustWrite(t, file, "pdf")

			args := append([]string{"transfer"}, tt.flags...)
			args = append(args, file, dst)
			if out, err := runCLI(t, args...); err != nil {
				t.Fatalf("transfer failed: %v\n%s", err, out)
			}

			mustExist(t, filepath.Join(dst, "report.pdf"))
			if tt.wantMoved {
				mustNotExist(t, file)
			} else {
				mustExist(t, file)
			}
		})
	}
}

func TestTransferCommand_InvalidMode(t *testing.T) {
	src := t.TempDir()
	mustWrite(t, filepath.Join(src, "a"), "a")

	if _, err := runCLI(t, "transfer", "--mode", "link", filepath.Join(src, "a"), t.TempDir()); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestTransferCommand_MissingDestinationPane(t *testing.T) {
	src := t.TempDir()
	mustWrite(t, filepath.Join(src, "a"), "a")

	_, err := runCLI(t, "transfer", filepath.Join(src, "a"), filepath.Join(t.TempDir(), "nope"))
	if err == nil || errors.Is(err, ErrPartialFailure) {
		t.Fatalf("expected pane open error, got %v", err)
	}
	mustExist(t, filepath.Join(src, "a"))
}

func TestLsCommand(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "b.txt"), "b")
	mustWrite(t, filepath.Join(dir, ".secret"), "s")
	mustWrite(t, filepath.Join(dir, "zeta", "inner.txt"), "z")

	out, err := runCLI(t, "ls", dir)
	if err != nil {
		t.Fatalf("ls failed: %v", err)
	}
	if strings.Contains(out, ".secret") {
		t.Errorf("hidden entry listed without --all:\n%s", out)
	}
	if strings.Index(out, "zeta/") > strings.Index(out, "b.txt") {
		t.Errorf("directories should be listed first:\n%s", out)
	}

	out, err = runCLI(t, "ls", "--all", dir)
	if err != nil {
		t.Fatalf("ls --all failed: %v", err)
	}
	if !strings.Contains(out, ".secret") {
		t.Errorf("hidden entry missing with --all:\n%s", out)
	}
}

func TestLsCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "one.txt"), "1")

	out, err := runCLI(t, "--json", "ls", dir)
	if err != nil {
		t.Fatalf("ls failed: %v", err)
	}
	var listing struct {
		Path    string    `json:"path"`
		Entries []lsEntry `json:"entries"`
	}
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(listing.Entries) != 1 || listing.Entries[0].Name != "one.txt" || listing.Entries[0].Size != 1 {
		t.Errorf("entries = %+v", listing.Entries)
	}
}

func TestLsCommand_BadSide(t *testing.T) {
	if _, err := runCLI(t, "ls", "--side", "middle", t.TempDir()); err == nil {
		t.Fatal("expected error for unknown side")
	}
}

func TestConfigShow(t *testing.T) {
	out, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"; loaded from", "[transfer]", "progress", "none", "space_safety_margin"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show output missing %q:\n%s", want, out)
		}
	}
}

func TestInvalidProgressFlag(t *testing.T) {
	if _, err := runCLI(t, "--progress", "fancy", "config", "show"); err == nil {
		t.Fatal("expected error for unknown progress kind")
	}
}

func TestCompletionBash(t *testing.T) {
	out, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	if !strings.Contains(out, "dualpane") {
		t.Error("completion script does not mention the command")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildEngine_PublishesEachProgressStepOnce(t *testing.T) {
	src := tempDir(t)
	dst := tempDir(t)
	mustWrite(t, filepath.Join(src, "big.bin"), strings.Repeat("x", 1<<20))

	cfg := config.New()
	cfg.Transfer.Progress = "none"
	cfg.Transfer.CheckSpace = false

	bus := events.NewEventBus(events.MaxBufferSize)
	progressCh := bus.Subscribe(events.EventTransferProgress)

	engine := buildEngine(cfg, logging.NewNopLogger(), bus)
	out := engine.Transfer(transfer.NewRequest(transfer.ModeCopy, dst, filepath.Join(src, "big.bin")))
	if !out.AllSucceeded() {
		t.Fatalf("copy failed: %+v", out.Items)
	}
	bus.Close()

	seen := map[float64]int{}
	for ev := range progressCh {
		seen[ev.(*events.TransferEvent).Progress]++
	}
	if len(seen) == 0 {
		t.Fatal("no progress events published")
	}
	if seen[1.0] != 1 {
		t.Errorf("completion step published %d times, want 1", seen[1.0])
	}
	for fraction, n := range seen {
		if n != 1 {
			t.Errorf("progress %.2f published %d times, want 1", fraction, n)
		}
	}
}
