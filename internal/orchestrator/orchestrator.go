// Package orchestrator drives a full generation run: it builds the task
// matrix, resolves token sources, executes the batch loop, verifies the
// artifacts, and finalizes the persisted run record.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/protoloom/protoloom/internal/config"
	"github.com/protoloom/protoloom/internal/logging"
	"github.com/protoloom/protoloom/internal/matrix"
	"github.com/protoloom/protoloom/internal/progress"
	"github.com/protoloom/protoloom/internal/runstate"
	"github.com/protoloom/protoloom/internal/schedule"
	"github.com/protoloom/protoloom/internal/tokens"
	"github.com/protoloom/protoloom/internal/verify"
	"github.com/protoloom/protoloom/internal/worker"
)

// Params are the validated run inputs supplied by the caller (the CLI or an
// upstream parameter resolver). Zero counts fall back to project config.
type Params struct {
	Targets        []string
	StyleVariants  int
	LayoutVariants int
}

// Report is the caller-facing outcome of one run.
type Report struct {
	Record      runstate.Record
	Results     []verify.Result
	Sources     tokens.Summary
	FailedTasks []string
	Cancelled   bool
}

// Orchestrator owns all mutable run state. Workers never touch the tracker,
// the resolver cache, or the run record; only this component's goroutine does.
type Orchestrator struct {
	cfg     *config.Config
	log     *logging.Logger
	worker  worker.Invoker
	store   *runstate.Store
	tracker *progress.Tracker
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithWorker overrides the worker backend chosen from project config.
func WithWorker(w worker.Invoker) Option {
	return func(o *Orchestrator) {
		if w != nil {
			o.worker = w
		}
	}
}

// WithLogger attaches a run log.
func WithLogger(log *logging.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// New builds an orchestrator for one base path. The worker backend comes from
// project config unless WithWorker overrides it.
func New(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("orchestrator: config is required")
	}
	o := &Orchestrator{
		cfg:     cfg,
		store:   runstate.NewStore(cfg.RunsDir()),
		tracker: progress.NewTracker(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.worker == nil {
		o.worker = workerFromConfig(cfg)
	}
	if o.worker == nil {
		return nil, fmt.Errorf("orchestrator: no worker backend configured; set worker.command or worker.script in %s", cfg.ProjectConfigPath())
	}
	return o, nil
}

// Tracker exposes progress snapshots for observers like the TUI.
func (o *Orchestrator) Tracker() *progress.Tracker {
	return o.tracker
}

// Run executes the full pipeline. Configuration and token-source errors are
// fatal and returned before any worker dispatch; after dispatch begins the
// run always finishes with a finalized record, whatever the task outcomes.
func (o *Orchestrator) Run(ctx context.Context, params Params) (Report, error) {
	styleCount := params.StyleVariants
	if styleCount == 0 {
		styleCount = o.cfg.Project.Generation.StyleVariants
	}
	layoutCount := params.LayoutVariants
	if layoutCount == 0 {
		layoutCount = o.cfg.Project.Generation.LayoutVariants
	}

	targets := matrix.NormalizeTargets(params.Targets, func(msg string) {
		o.log.Warnf("%s", msg)
	})
	tasks, err := matrix.Build(targets, styleCount, layoutCount)
	if err != nil {
		return Report{}, err
	}
	o.logf("matrix: %d targets × %d styles = %d tasks", len(targets), styleCount, len(tasks))

	sources, summary, err := tokens.NewResolver(o.cfg).ResolveAll(styleCount)
	if err != nil {
		return Report{}, err
	}
	o.logf("sources: %d consolidated, %d proposed", summary.Consolidated, summary.Proposed)

	record, err := o.store.Create(o.cfg.BasePath, runstate.Parameters{
		Targets:        targetNames(targets),
		StyleVariants:  styleCount,
		LayoutVariants: layoutCount,
		MaxParallel:    o.cfg.MaxParallel(),
	}, summary)
	if err != nil {
		return Report{}, fmt.Errorf("orchestrator: persist run record: %w", err)
	}

	verifier := verify.New(o.cfg.PrototypesDir())
	runner := schedule.NewRunner(o.worker, verifier, o.tracker, o.cfg.PrototypesDir(),
		schedule.WithMaxParallel(o.cfg.MaxParallel()),
		schedule.WithLogger(o.log),
	)
	batchReport := runner.Run(ctx, tasks, sources)

	// Final full-run verification over every task that was dispatched.
	o.tracker.SetPhase(progress.PhaseVerifying)
	executed := terminalTasks(batchReport.Tasks)
	results := verifier.CheckTasks(executed)

	status := runstate.StatusFromVerification(verify.Classify(results))
	if batchReport.Cancelled {
		status = runstate.StatusCancelled
	}
	final, err := o.store.Finalize(record, status, results)
	if err != nil {
		return Report{}, fmt.Errorf("orchestrator: finalize run record: %w", err)
	}
	o.tracker.SetPhase(progress.PhaseDone)
	o.logf("run %s finished: %s", final.RunID, final.Status)

	return Report{
		Record:      final,
		Results:     results,
		Sources:     summary,
		FailedTasks: batchReport.FailedTasks,
		Cancelled:   batchReport.Cancelled,
	}, nil
}

func workerFromConfig(cfg *config.Config) worker.Invoker {
	switch {
	case cfg.Project.Worker.Command != "":
		return &worker.CommandWorker{Command: cfg.Project.Worker.Command, Dir: cfg.BasePath}
	case cfg.Project.Worker.Script != "":
		return &worker.ScriptWorker{Path: cfg.Project.Worker.Script}
	default:
		return nil
	}
}

func targetNames(targets []matrix.Target) []string {
	names := make([]string, len(targets))
	for i, target := range targets {
		names[i] = target.Name
	}
	return names
}

func terminalTasks(tasks []matrix.Task) []matrix.Task {
	out := make([]matrix.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status == matrix.TaskCompleted || task.Status == matrix.TaskFailed {
			out = append(out, task)
		}
	}
	return out
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.log != nil {
		o.log.Printf(format, args...)
	}
}
