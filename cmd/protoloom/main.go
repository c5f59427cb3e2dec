// cmd/protoloom/main.go
//
// Entry point for the protoloom CLI.
//
// Flow:
// 1. Parse the run parameters from flags
// 2. Initialize the base directory layout and load project config
// 3. Run the batch generation pipeline, with an optional live TUI
// 4. Print the per-task verification report and exit by run status

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/protoloom/protoloom/internal/config"
	"github.com/protoloom/protoloom/internal/logging"
	"github.com/protoloom/protoloom/internal/orchestrator"
	"github.com/protoloom/protoloom/internal/runstate"
	"github.com/protoloom/protoloom/internal/tui"
)

func main() {
	var (
		targetsFlag = flag.String("targets", "", "comma-separated generation targets; prefix components with component: (e.g. home,component:nav-bar)")
		stylesFlag  = flag.Int("styles", 0, "style variants per target (1-5, default from project config)")
		layoutsFlag = flag.Int("layouts", 0, "layout variants per style (1-5, default from project config)")
		baseFlag    = flag.String("base", ".", "base directory for sources, artifacts, and run records")
		watchFlag   = flag.Bool("watch", false, "show a live batch board while the run executes")
	)
	flag.Parse()

	targets := splitTargets(*targetsFlag)
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "protoloom: at least one target is required (-targets)")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(targets, *stylesFlag, *layoutsFlag, *baseFlag, *watchFlag); err != nil {
		fmt.Fprintf(os.Stderr, "protoloom: %v\n", err)
		os.Exit(1)
	}
}

func run(targets []string, styles, layouts int, base string, watch bool) error {
	if err := config.InitBaseDir(base); err != nil {
		return fmt.Errorf("initialize base directory: %w", err)
	}
	cfg, err := config.NewConfig(base)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogsDir())
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer log.Close()

	orch, err := orchestrator.New(cfg, orchestrator.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	params := orchestrator.Params{
		Targets:        targets,
		StyleVariants:  styles,
		LayoutVariants: layouts,
	}

	var report orchestrator.Report
	if watch {
		report, err = runWatched(ctx, cancel, orch, params)
	} else {
		report, err = orch.Run(ctx, params)
	}
	if err != nil {
		return err
	}

	printReport(os.Stdout, report)
	if report.Record.Status != runstate.StatusComplete {
		return fmt.Errorf("run %s finished %s", report.Record.RunID, report.Record.Status)
	}
	return nil
}

// runWatched executes the run on its own goroutine while the TUI polls the
// progress tracker. The view quits on its own once the outcome arrives.
func runWatched(ctx context.Context, cancel context.CancelFunc, orch *orchestrator.Orchestrator, params orchestrator.Params) (orchestrator.Report, error) {
	outcome := make(chan tui.RunOutcome, 1)
	go func() {
		report, err := orch.Run(ctx, params)
		outcome <- tui.RunOutcome{Report: report, Err: err}
	}()

	program := tea.NewProgram(tui.NewModel(orch.Tracker(), outcome, cancel))
	if _, err := program.Run(); err != nil {
		return orchestrator.Report{}, fmt.Errorf("run live view: %w", err)
	}

	result := <-outcome
	return result.Report, result.Err
}

func printReport(out *os.File, report orchestrator.Report) {
	fmt.Fprintf(out, "run %s: %s\n", report.Record.RunID, report.Record.Status)
	fmt.Fprintf(out, "token sources: %d consolidated, %d proposed\n", report.Sources.Consolidated, report.Sources.Proposed)
	for _, result := range report.Results {
		if result.Complete() {
			fmt.Fprintf(out, "  %-24s %d/%d artifacts\n", result.TaskID, result.FoundCount, result.ExpectedCount)
			continue
		}
		fmt.Fprintf(out, "  %-24s %d/%d artifacts, missing: %s\n",
			result.TaskID, result.FoundCount, result.ExpectedCount, strings.Join(result.MissingFiles, ", "))
	}
	if report.Cancelled {
		fmt.Fprintln(out, "run was cancelled; batches past the last barrier were not dispatched")
	}
}

func splitTargets(value string) []string {
	var targets []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			targets = append(targets, trimmed)
		}
	}
	return targets
}
