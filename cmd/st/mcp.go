package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"st/internal/collect"
	"st/internal/config"
	"st/internal/pipeline"
	"st/internal/stack"
	"st/internal/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve stack grouping and collection over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		_, cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		return server.ServeStdio(newMCPServer(cfg, collect.ExecRunner{}))
	},
}

func newMCPServer(cfg *config.Config, runner collect.Runner) *server.MCPServer {
	s := server.NewMCPServer(
		"st",
		version.Get().Version,
		server.WithLogging(),
	)

	uniquifyTool := mcp.NewTool("uniquify_stacks",
		mcp.WithDescription("Group the threads of eu-stack or gdb output that share an identical call stack, ranked by thread count. Crash-like frames are marked with <---- HERE."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw eu-stack or gdb 'thread apply all backtrace' output"),
		),
		mcp.WithString("format",
			mcp.Description("eu-stack, gdb or auto (default: auto)"),
		),
		mcp.WithBoolean("raw",
			mcp.Description("Keep gdb frame arguments and source locations (default: false)"),
		),
	)
	s.AddTool(uniquifyTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return uniquifyStacks(ctx, cfg, request)
	})

	collectTool := mcp.NewTool("collect_stacks",
		mcp.WithDescription("Run eu-stack or gdb against live processes and return their grouped, ranked call stacks."),
		mcp.WithString("pids",
			mcp.Required(),
			mcp.Description("Comma separated process ids"),
		),
		mcp.WithBoolean("gdb",
			mcp.Description("Collect with gdb instead of eu-stack (default: false)"),
		),
		mcp.WithBoolean("raw",
			mcp.Description("Keep gdb frame arguments and source locations (default: false)"),
		),
		mcp.WithNumber("interval",
			mcp.Description("Seconds between samples, at least 0.1. Sampling is off unless an interval is given"),
		),
		mcp.WithNumber("count",
			mcp.Description("Samples per process, used with interval (default: 1)"),
		),
	)
	s.AddTool(collectTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return collectStacks(ctx, cfg, runner, request)
	})

	return s
}

func uniquifyStacks(ctx context.Context, cfg *config.Config, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := pipeline.Process(ctx, text, pipeline.Options{
		Format:   request.GetString("format", stack.FormatAuto),
		Raw:      request.GetBool("raw", false),
		Unique:   true,
		Keywords: cfg.Report.Keywords,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to group stacks: %v", err)), nil
	}
	return mcp.NewToolResultText(mcpReportText(rep, nil)), nil
}

func collectStacks(ctx context.Context, cfg *config.Config, runner collect.Runner, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawPids, err := request.RequireString("pids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var targets []collect.Target
	for _, p := range strings.Split(rawPids, ",") {
		pid, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || pid <= 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid pid %q", p)), nil
		}
		targets = append(targets, collect.Process(pid))
	}

	toolName := cfg.Collect.Tool
	if request.GetBool("gdb", false) {
		toolName = stack.FormatGDB
	}
	tool, err := collect.ToolByName(toolName, cfg.PathFor(toolName))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	plan := collect.Plan{Targets: targets}
	_, hasInterval := request.GetArguments()["interval"]
	if count := int(request.GetFloat("count", float64(cfg.Collect.Count))); count > 1 && (hasInterval || cfg.Collect.Interval > 0) {
		plan.Sampling = collect.NewSampling(request.GetFloat("interval", cfg.Collect.Interval), count)
	}
	o := &collect.Orchestrator{Tool: tool, Runner: runner}
	rep, res, err := pipeline.Collect(ctx, o, plan, pipeline.Options{
		Raw:      request.GetBool("raw", false),
		Unique:   true,
		Keywords: cfg.Report.Keywords,
	})
	if err != nil {
		var batch *collect.BatchError
		if errors.As(err, &batch) {
			return mcp.NewToolResultError(batch.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to collect stacks: %v", err)), nil
	}
	return mcp.NewToolResultText(mcpReportText(rep, res.Failures)), nil
}

func mcpReportText(rep *pipeline.Report, failures []collect.Failure) string {
	var sb strings.Builder
	sb.WriteString(rep.Text)
	sb.WriteString("\n")
	for _, w := range rep.Warnings {
		fmt.Fprintf(&sb, "IGNORE: %s\n", w)
	}
	for _, f := range failures {
		fmt.Fprintf(&sb, "error: %v\n", f.Err)
	}
	return sb.String()
}
