package pane

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/rescale/dualpane/internal/transfer"
)

func newWorkspace(t *testing.T, presenter Presenter) (*Workspace, billy.Filesystem) {
	t.Helper()
	fsys := memfs.New()
	writeFile(t, fsys, "/left/a.txt", "a")
	writeFile(t, fsys, "/left/dir/b.txt", "b")
	if err := fsys.MkdirAll("/right/inbox", 0o755); err != nil {
		t.Fatal(err)
	}

	left, right := New(Left, fsys), New(Right, fsys)
	if err := left.Navigate("/left"); err != nil {
		t.Fatal(err)
	}
	if err := right.Navigate("/right"); err != nil {
		t.Fatal(err)
	}
	engine := transfer.NewEngine(transfer.WithFilesystem(fsys))
	return NewWorkspace(left, right, engine, presenter, nil), fsys
}

func TestDropWithModifierCopies(t *testing.T) {
	var presented *transfer.Outcome
	ws, fsys := newWorkspace(t, PresenterFunc(func(o *transfer.Outcome) { presented = o }))

	out, err := ws.Drop(DropAction{From: Left, Names: []string{"a.txt", "dir"}, ModifierHeld: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.Mode != transfer.ModeCopy || out.DestDir != "/right" {
		t.Errorf("mode=%s dest=%s", out.Mode, out.DestDir)
	}
	if !out.AllSucceeded() {
		t.Fatalf("failures: %+v", out.Failures())
	}
	if presented != out {
		t.Error("presenter should receive the outcome")
	}
	if _, err := fsys.Stat("/left/a.txt"); err != nil {
		t.Error("copy must keep the source")
	}
	if got := names(ws.Right.Entries()); got != "dir,inbox,a.txt" {
		t.Errorf("right pane not refreshed: %s", got)
	}
}

func TestDropWithoutModifierMoves(t *testing.T) {
	ws, fsys := newWorkspace(t, nil)

	out, err := ws.Drop(DropAction{From: Left, Names: []string{"a.txt"}})
	if err != nil {
		t.Fatal(err)
	}
	if out.Mode != transfer.ModeMove || !out.AllSucceeded() {
		t.Fatalf("outcome = %+v", out)
	}
	if _, err := fsys.Stat("/left/a.txt"); err == nil {
		t.Error("move should remove the source")
	}
	if got := names(ws.Left.Entries()); got != "dir" {
		t.Errorf("left pane not refreshed: %s", got)
	}
}

func TestDropIntoExplicitTarget(t *testing.T) {
	ws, fsys := newWorkspace(t, nil)

	out, err := ws.Drop(DropAction{From: Left, Names: []string{"/left/a.txt"}, ModifierHeld: true, Target: "inbox"})
	if err != nil {
		t.Fatal(err)
	}
	if out.DestDir != "/right/inbox" || !out.AllSucceeded() {
		t.Fatalf("outcome = %+v", out)
	}
	if _, err := fsys.Stat("/right/inbox/a.txt"); err != nil {
		t.Errorf("file not in explicit target: %v", err)
	}
}

func TestDropFromRightGoesLeft(t *testing.T) {
	ws, fsys := newWorkspace(t, nil)
	writeFile(t, fsys, "/right/r.txt", "r")

	out, err := ws.Drop(DropAction{From: Right, Names: []string{"r.txt"}, ModifierHeld: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.DestDir != "/left" || out.Items[0].Source != "/right/r.txt" {
		t.Errorf("dest=%s source=%s", out.DestDir, out.Items[0].Source)
	}
}

func TestDropReportsItemFailuresInOutcome(t *testing.T) {
	ws, _ := newWorkspace(t, nil)

	out, err := ws.Drop(DropAction{From: Left, Names: []string{"gone.txt", "a.txt"}, ModifierHeld: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Items) != 2 || out.Items[0].Kind != transfer.KindSourceNotFound || !out.Items[1].Succeeded() {
		t.Errorf("items = %+v", out.Items)
	}
}

func TestDropRejectsInvalidActions(t *testing.T) {
	ws, _ := newWorkspace(t, nil)

	tests := []struct {
		name   string
		action DropAction
	}{
		{"no names", DropAction{From: Left}},
		{"unknown pane", DropAction{From: "top", Names: []string{"a.txt"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ws.Drop(tt.action); err == nil {
				t.Error("expected error")
			}
		})
	}

	empty := NewWorkspace(New(Left, memfs.New()), New(Right, memfs.New()), transfer.NewEngine(), nil, nil)
	if _, err := empty.Request(DropAction{From: Left, Names: []string{"/x"}}); err == nil {
		t.Error("drop onto a pane without a path should fail")
	}
}
