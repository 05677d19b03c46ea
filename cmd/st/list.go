package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"st/internal/collect"
	"st/internal/proclist"
	"st/internal/termsize"
)

var listCmd = &cobra.Command{
	Use:   "list [PATTERN]",
	Short: "List processes, optionally filtered by a regular expression",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringP("users", "u", "", "restrict the listing to these users")
	listCmd.Flags().BoolP("wide", "W", false, "do not truncate lines to the terminal width")
}

func runList(cmd *cobra.Command, args []string) error {
	users, _ := cmd.Flags().GetString("users")
	wide, _ := cmd.Flags().GetBool("wide")

	var pattern *regexp.Regexp
	if len(args) == 1 {
		re, err := regexp.Compile(args[0])
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", args[0], err)
		}
		pattern = re
	}

	procs, err := proclist.List(cmd.Context(), collect.ExecRunner{}, users)
	if err != nil {
		return fmt.Errorf("failed to list processes: %w", err)
	}
	procs = proclist.Filter(procs, pattern, os.Getpid())
	if pattern != nil && len(procs) == 0 {
		return fmt.Errorf("%w: %s", proclist.ErrNoMatch, args[0])
	}

	width := 0
	if !wide {
		width = termsize.Get().Width
	}
	out := cmd.OutOrStdout()
	for _, p := range procs {
		fmt.Fprintln(out, proclist.Truncate(p.Line, width))
	}
	return nil
}
