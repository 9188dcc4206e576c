package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/idilsaglam/tada/internal/cli"
)

func main() {
	// Keep glog off the terminal while the TUI owns it; logs still go to
	// files under the temp dir. -stderrthreshold=ERROR brings them back.
	_ = flag.Set("stderrthreshold", "FATAL")

	// Root flags (apply to every subcommand)
	plain := flag.Bool("plain", false, "print the list instead of starting the interactive view")
	theme := flag.String("theme", "", "color theme: classic, neon or mono (default: saved preference)")
	flag.Parse()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	code := cli.Run(args, cli.Options{
		Plain: *plain,
		Theme: *theme,
	})
	glog.Flush()
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
