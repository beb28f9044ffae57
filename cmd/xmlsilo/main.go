// Command xmlsilo compiles XML sources into the binary silo format and
// queries compiled silos from the shell.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xmlsilo/xmlsilo/xerr"
)

var (
	verbose bool //nolint:gochecknoglobals
	force   bool //nolint:gochecknoglobals
	log     *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "xmlsilo",
		Short: "Compile and query XML silo archives",
		Long: `xmlsilo compiles one or more XML documents into a single
memory-mappable binary archive (a "silo") and runs restricted
XPath-subset queries against it.`,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug detail to stderr")
	rootCmd.PersistentFlags().BoolVarP(&force, "force", "f", false, "overwrite existing output files")

	rootCmd.AddCommand(compileCmd())
	rootCmd.AddCommand(dumpCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(queryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xmlsilo: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a *xerr.Error's Kind to a process exit status following
// the BSD sysexits.h convention: IO failures are EX_IOERR (74),
// malformed data is EX_DATAERR (65), unsupported XPath/version
// constructs map to EX_NOINPUT's numeric slot (66), repurposed here for
// "input shape the tool declines to handle"; anything else is a
// generic failure.
func exitCode(err error) int {
	switch {
	case xerr.Is(err, xerr.IO):
		return 74
	case xerr.Is(err, xerr.InvalidData):
		return 65
	case xerr.Is(err, xerr.Unsupported):
		return 66
	default:
		return 1
	}
}

func logf(format string, args ...any) {
	log.Debug(fmt.Sprintf(format, args...))
}
