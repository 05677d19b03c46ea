package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"st/internal/archive"
	"st/internal/collect"
	"st/internal/config"
	"st/internal/observ"
	"st/internal/pager"
	"st/internal/pipeline"
	"st/internal/proclist"
	"st/internal/stack"
	"st/internal/termsize"
	"st/internal/trace"
)

func init() {
	addRootFlags(rootCmd)
}

// addRootFlags registers the collection and input flags of the root command.
func addRootFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceP("pid", "p", nil, "process id to inspect (repeatable, comma separated)")
	f.StringP("core", "c", "", "core file to inspect")
	f.StringP("executable", "e", "", "executable that produced the core file")
	f.StringSliceP("file", "f", nil, "read stacks from FILE (repeatable, - for stdin)")
	f.Bool("stdin", false, "read stacks from standard input")
	f.BoolP("gdb", "G", false, "collect with gdb instead of eu-stack")
	f.BoolP("raw", "R", false, "keep gdb frame arguments and source locations")
	f.BoolP("unique", "U", false, "group threads with identical stacks")
	f.Float64P("interval", "i", 0, "seconds between samples (at least 0.1); enables sampling with --count")
	f.IntP("count", "n", 1, "number of samples per process, used with --interval")
	f.String("pattern", "", "inspect every process whose ps line matches REGEX")
	f.StringP("users", "u", "", "restrict the process listing to these users")
	f.BoolP("wide", "W", false, "do not truncate process listing lines")
	f.String("save", "", "write the collected captures to FILE")
	f.Bool("no-pager", false, "do not pipe output through a pager")
	f.String("ui", "auto", "progress display on stderr (auto|on|off)")

	cmd.MarkFlagsMutuallyExclusive("core", "pid")
	cmd.MarkFlagsMutuallyExclusive("core", "pattern")
	cmd.MarkFlagsMutuallyExclusive("stdin", "pid")
	cmd.MarkFlagsMutuallyExclusive("stdin", "core")
	cmd.MarkFlagsMutuallyExclusive("gdb", "file")
}

// rootOptions is the merged view of flags and config.
type rootOptions struct {
	pids       []int
	core       string
	executable string
	files      []string
	stdin      bool
	tool       string
	toolPath   string
	raw        bool
	unique     bool
	interval   float64
	sampled    bool // an interval was given by flag or config
	count      int
	pattern    string
	users      string
	save       string
	noPager    bool
	pagerCmd   string
	ui         uiMode
	color      colorMode
	keywords   []string
	quiet      bool
	timings    bool
}

func readRootOptions(cmd *cobra.Command, cfg *config.Config) (*rootOptions, error) {
	f := cmd.Flags()
	opts := &rootOptions{
		tool:     cfg.Collect.Tool,
		raw:      cfg.Report.Raw,
		unique:   cfg.Report.Unique,
		interval: cfg.Collect.Interval,
		count:    cfg.Collect.Count,
		pagerCmd: cfg.Report.Pager,
		keywords: cfg.Report.Keywords,
	}

	pids, err := f.GetStringSlice("pid")
	if err != nil {
		return nil, err
	}
	for _, p := range pids {
		pid, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || pid <= 0 {
			return nil, fmt.Errorf("invalid pid %q", p)
		}
		opts.pids = append(opts.pids, pid)
	}
	if opts.core, err = f.GetString("core"); err != nil {
		return nil, err
	}
	if opts.executable, err = f.GetString("executable"); err != nil {
		return nil, err
	}
	if opts.executable != "" && opts.core == "" {
		return nil, errors.New("--executable requires --core")
	}
	if opts.files, err = f.GetStringSlice("file"); err != nil {
		return nil, err
	}
	if opts.stdin, err = f.GetBool("stdin"); err != nil {
		return nil, err
	}
	if opts.stdin && len(opts.files) > 0 {
		return nil, errors.New("--stdin cannot be combined with --file (use -f - instead)")
	}
	if len(opts.files) > 0 && (len(opts.pids) > 0 || opts.core != "") {
		return nil, errors.New("--file cannot be combined with --pid or --core")
	}

	if useGDB, _ := f.GetBool("gdb"); useGDB {
		opts.tool = stack.FormatGDB
	}
	opts.toolPath = cfg.PathFor(opts.tool)
	if f.Changed("raw") {
		opts.raw, _ = f.GetBool("raw")
	}
	if f.Changed("unique") {
		opts.unique, _ = f.GetBool("unique")
	}
	opts.sampled = cfg.Collect.Interval > 0
	if f.Changed("interval") {
		opts.interval, _ = f.GetFloat64("interval")
		opts.sampled = true
	}
	if f.Changed("count") {
		opts.count, _ = f.GetInt("count")
	}
	if opts.count < 1 {
		return nil, fmt.Errorf("--count must be at least 1, got %d", opts.count)
	}
	if opts.interval < 0 {
		return nil, errors.New("--interval must not be negative")
	}
	opts.pattern, _ = f.GetString("pattern")
	opts.users, _ = f.GetString("users")
	opts.save, _ = f.GetString("save")
	opts.noPager, _ = f.GetBool("no-pager")

	uiValue, _ := f.GetString("ui")
	if opts.ui, err = readUIMode(uiValue); err != nil {
		return nil, err
	}
	colorValue, _ := cmd.Root().PersistentFlags().GetString("color")
	if !cmd.Root().PersistentFlags().Changed("color") && cfg.Report.Color != "" {
		colorValue = cfg.Report.Color
	}
	if opts.color, err = readColorMode(colorValue); err != nil {
		return nil, err
	}
	opts.quiet, _ = cmd.Root().PersistentFlags().GetBool("quiet")
	opts.timings, _ = cmd.Root().PersistentFlags().GetBool("timings")
	return opts, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := readRootOptions(cmd, cfg)
	if err != nil {
		return err
	}
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	tracer, cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	span := trace.Begin(tracer, trace.ScopeRun, "st", 0)
	ctx = trace.WithSpan(ctx, span)
	defer span.End("")

	colored := opts.color.enabled(os.Stdout)
	color.NoColor = !colored
	// the pager owns stdout afterwards
	termsize.Get()

	var timer *observ.Timer
	if opts.timings {
		timer = observ.NewTimer()
		defer printTimings(cmd.ErrOrStderr(), timer)
	}
	popts := pipeline.Options{
		Raw:      opts.raw,
		Unique:   opts.unique,
		Color:    colored,
		Keywords: opts.keywords,
		Timer:    timer,
	}

	var (
		rep      *pipeline.Report
		failures []collect.Failure
	)
	if opts.stdin || len(opts.files) > 0 {
		rep, failures, err = runFiles(ctx, cmd, opts, popts)
	} else {
		rep, failures, err = runTargets(ctx, cmd, opts, popts)
	}
	reportFailures(cmd.ErrOrStderr(), failures)
	if err != nil {
		var batch *collect.BatchError
		if errors.As(err, &batch) {
			if dumpErr := trace.Dump(tracer, cmd.ErrOrStderr()); dumpErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", dumpErr)
			}
			return &exitError{code: exitFailure, err: fmt.Errorf("all %d targets failed", len(batch.Failures))}
		}
		return err
	}

	if !opts.quiet {
		for _, w := range rep.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "IGNORE: %s\n", w)
		}
	}
	if err := writeReport(cmd, opts, rep.Text); err != nil {
		return err
	}
	if len(failures) > 0 {
		return &exitError{code: exitFailure}
	}
	return nil
}

func runFiles(ctx context.Context, cmd *cobra.Command, opts *rootOptions, popts pipeline.Options) (*pipeline.Report, []collect.Failure, error) {
	files := opts.files
	if opts.stdin {
		files = []string{"-"}
	}
	if !opts.quiet {
		if len(files) == 1 && files[0] == "-" {
			fmt.Fprintln(cmd.ErrOrStderr(), "Reading stack from STDIN.")
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Reading stack from %d file(s).\n", len(files))
		}
	}
	inputs, failures, err := readInputs(ctx, files, cmd.InOrStdin())
	if err != nil {
		return nil, failures, err
	}
	text, sampling := joinInputs(inputs)
	popts.Format = stack.FormatAuto
	popts.Sampling = sampling
	rep, err := pipeline.Process(ctx, text, popts)
	return rep, failures, err
}

func runTargets(ctx context.Context, cmd *cobra.Command, opts *rootOptions, popts pipeline.Options) (*pipeline.Report, []collect.Failure, error) {
	tool, err := collect.ToolByName(opts.tool, opts.toolPath)
	if err != nil {
		return nil, nil, err
	}
	targets, err := selectTargets(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	plan := collect.Plan{Targets: targets}
	if opts.sampled && opts.count > 1 {
		plan.Sampling = collect.NewSampling(opts.interval, opts.count)
		if !opts.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "sampling %d times every %s\n", plan.Sampling.Count, plan.Sampling.Interval)
		}
	} else if opts.count > 1 && !opts.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: sample count is ignored without an interval (--interval)")
	}
	o := &collect.Orchestrator{Tool: tool, Runner: collect.ExecRunner{}}

	var (
		rep *pipeline.Report
		res *collect.Result
	)
	if shouldUseTUI(opts.ui, len(targets)) {
		rep, res, err = runCollectWithUI(ctx, o, plan, popts)
	} else {
		rep, res, err = pipeline.Collect(ctx, o, plan, popts)
	}
	var failures []collect.Failure
	if res != nil {
		failures = res.Failures
		if !opts.quiet {
			for _, c := range res.Captures {
				if c.Warned() && strings.TrimSpace(c.Stderr) != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", c.Source, strings.TrimSpace(c.Stderr))
				}
			}
		}
		if opts.save != "" && len(res.Captures) > 0 {
			if saveErr := archive.Write(opts.save, archive.FromResult(tool, res)); saveErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to save captures: %v\n", saveErr)
			} else if !opts.quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "saved %d captures to %s\n", len(res.Captures), opts.save)
			}
		}
	}
	return rep, failures, err
}

// selectTargets builds the target list from --core, --pid or --pattern.
func selectTargets(ctx context.Context, opts *rootOptions) ([]collect.Target, error) {
	switch {
	case opts.core != "":
		return []collect.Target{collect.Core(opts.core, opts.executable)}, nil
	case len(opts.pids) > 0:
		targets := make([]collect.Target, 0, len(opts.pids))
		for _, pid := range opts.pids {
			targets = append(targets, collect.Process(pid))
		}
		return targets, nil
	case opts.pattern != "":
		procs, err := proclist.List(ctx, collect.ExecRunner{}, opts.users)
		if err != nil {
			return nil, fmt.Errorf("failed to list processes: %w", err)
		}
		pids, err := proclist.Select(procs, opts.pattern)
		if err != nil {
			return nil, err
		}
		targets := make([]collect.Target, 0, len(pids))
		for _, pid := range pids {
			targets = append(targets, collect.Process(pid))
		}
		return targets, nil
	default:
		return nil, fmt.Errorf("%w: use --pid, --core, --pattern, --file or --stdin", collect.ErrEmptySelection)
	}
}

func reportFailures(out io.Writer, failures []collect.Failure) {
	for _, f := range failures {
		fmt.Fprintf(out, "error: %v\n", f.Err)
	}
}

func writeReport(cmd *cobra.Command, opts *rootOptions, text string) error {
	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); ok {
		wanted := pager.Wanted(opts.noPager, f, os.Getenv)
		w := pager.Open(wanted, pager.Command(opts.pagerCmd, os.Getenv), f, cmd.ErrOrStderr())
		if _, err := io.WriteString(w, text+"\n"); err != nil {
			_ = w.Close() //nolint:errcheck
			return err
		}
		return w.Close()
	}
	_, err := io.WriteString(out, text+"\n")
	return err
}
