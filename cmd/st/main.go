package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"st/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "st [flags]",
	Short: "Show, group and rank the call stacks of processes and core files",
	Long: `st runs eu-stack or gdb against processes or a core file, groups the
threads that share an identical call stack and ranks the groups by size.
Frames that look like a crash (assertions, fatal signals, segfaults) are
highlighted.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
	addPersistentFlags(rootCmd)
}

func addPersistentFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show phase timings on stderr")
	pf.String("config", "", "config file (default $ST_CONFIG or $XDG_CONFIG_HOME/st/config.toml)")
	pf.String("trace", "", "write trace events to FILE (- for stderr, .ndjson for JSON)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("cpu-profile", "", "write a CPU profile to FILE")
	pf.String("mem-profile", "", "write a heap profile to FILE on exit")
}

// main executes the root command and maps the error to the process exit
// code. SIGINT and SIGTERM cancel the command context, which stops running
// tools and sampling sleeps.
func main() {
	rootCmd.Version = version.Get().Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "st: %s\n", msg)
		}
		os.Exit(exitCode(err))
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
