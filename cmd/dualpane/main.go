// dualpane - two-pane copy and move from the command line
package main

import (
	"fmt"
	"os"

	"github.com/rescale/dualpane/internal/cli"
	"github.com/rescale/dualpane/internal/version"
)

// Version information, set by ldflags during build
var (
	Version   = "v0.3.0-dev"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
