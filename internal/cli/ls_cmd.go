package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rescale/dualpane/internal/localfs"
	"github.com/rescale/dualpane/internal/pane"
	"github.com/rescale/dualpane/internal/pathutil"
)

func newLsCmd() *cobra.Command {
	var (
		sideFlag string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "ls [PATH]",
		Short: "List a directory the way a pane shows it",
		Long: `List PATH with directories first, then files, each group sorted by
name. Without PATH the configured start directory of the pane selected by
--side is listed.

Examples:
  dualpane ls
  dualpane ls --side right
  dualpane ls -a ~/projects`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig()

			side, err := pane.ParseSide(sideFlag)
			if err != nil {
				return err
			}

			target := cfg.Panes.Left
			if side == pane.Right {
				target = cfg.Panes.Right
			}
			if len(args) == 1 {
				target = args[0]
			}
			dir, err := pathutil.ResolveAbsolutePath(target)
			if err != nil {
				return fmt.Errorf("invalid path %s: %w", target, err)
			}

			showHidden := cfg.Panes.ShowHidden || all
			p := pane.New(side, localfs.NativeFS(), pane.WithShowHidden(showHidden), pane.WithLogger(GetLogger().Named("pane")))
			if err := p.Navigate(dir); err != nil {
				return err
			}

			if jsonOutput {
				return writeEntriesJSON(cmd.OutOrStdout(), p.Path(), p.Entries())
			}
			printEntries(cmd.OutOrStdout(), p.Path(), p.Entries())
			return nil
		},
	}

	cmd.Flags().StringVar(&sideFlag, "side", "left", "Pane to open: left or right")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden entries")
	return cmd
}

func printEntries(w io.Writer, dir string, entries []localfs.FileEntry) {
	fmt.Fprintf(w, "%s (%d)\n", dir, len(entries))
	for _, e := range entries {
		name := e.Name
		size := FormatBytes(e.Size)
		switch {
		case e.IsSymlink:
			name += "@"
		case e.IsDir:
			name += "/"
			size = "-"
		}
		fmt.Fprintf(w, "  %-11s %10s  %s  %s\n", e.Mode.String(), size, e.ModTime.Format("2006-01-02 15:04"), name)
	}
}

type lsEntry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	IsDir     bool   `json:"is_dir"`
	IsSymlink bool   `json:"is_symlink"`
	Mode      string `json:"mode"`
	ModTime   string `json:"mod_time"`
}

func writeEntriesJSON(w io.Writer, dir string, entries []localfs.FileEntry) error {
	out := struct {
		Path    string    `json:"path"`
		Entries []lsEntry `json:"entries"`
	}{Path: dir, Entries: make([]lsEntry, 0, len(entries))}

	for _, e := range entries {
		out.Entries = append(out.Entries, lsEntry{
			Name:      e.Name,
			Path:      e.Path,
			Size:      e.Size,
			IsDir:     e.IsDir,
			IsSymlink: e.IsSymlink,
			Mode:      e.Mode.String(),
			ModTime:   e.ModTime.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
