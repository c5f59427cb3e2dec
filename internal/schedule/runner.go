package schedule

import (
	"context"
	"sync"

	"github.com/protoloom/protoloom/internal/logging"
	"github.com/protoloom/protoloom/internal/matrix"
	"github.com/protoloom/protoloom/internal/progress"
	"github.com/protoloom/protoloom/internal/tokens"
	"github.com/protoloom/protoloom/internal/verify"
	"github.com/protoloom/protoloom/internal/worker"
)

// Report aggregates the outcome of the batch loop.
type Report struct {
	// Results holds one verification result per executed task, in dispatch
	// order. Tasks in batches skipped by cancellation do not appear.
	Results []verify.Result
	// FailedTasks lists task IDs whose worker invocation reported failure.
	FailedTasks []string
	// Cancelled is set when the loop stopped before dispatching every batch.
	Cancelled bool
	// Tasks echoes the final task records with terminal statuses applied.
	Tasks []matrix.Task
}

// Runner owns task state for the duration of a run: it is the only component
// that mutates task statuses, and it advances the progress tracker strictly
// at batch boundaries.
type Runner struct {
	worker      worker.Invoker
	verifier    *verify.Verifier
	tracker     *progress.Tracker
	log         *logging.Logger
	maxParallel int
	outputDir   string
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithMaxParallel overrides the per-batch concurrency bound.
func WithMaxParallel(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxParallel = n
		}
	}
}

// WithLogger attaches a run log.
func WithLogger(log *logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = log
	}
}

// NewRunner wires a runner to a worker backend, verifier, and tracker.
func NewRunner(w worker.Invoker, v *verify.Verifier, tracker *progress.Tracker, outputDir string, opts ...RunnerOption) *Runner {
	runner := &Runner{
		worker:      w,
		verifier:    v,
		tracker:     tracker,
		maxParallel: DefaultMaxParallel,
		outputDir:   outputDir,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run executes the task list batch by batch. Within a batch every task is
// dispatched concurrently; the loop then blocks on the barrier until all of
// them reach a terminal status, verifies the batch, and only then moves on.
// A single task failure never halts the loop. Cancellation is honored between
// batches only: in-flight invocations run to completion.
func (r *Runner) Run(ctx context.Context, taskList []matrix.Task, sources map[int]tokens.StyleSource) Report {
	batches := Partition(taskList, r.maxParallel)
	plan := make([][]string, len(batches))
	for i, batch := range batches {
		plan[i] = batch.TaskIDs()
	}
	r.tracker.Init(plan)

	report := Report{}
	for bi := range batches {
		batch := &batches[bi]
		if ctx.Err() != nil {
			report.Cancelled = true
			r.logf("run cancelled before batch %d/%d", batch.Index, batch.Total)
			break
		}
		_ = r.tracker.BatchStarted(batch.Index)
		r.logf("batch %d/%d: dispatching %d tasks", batch.Index, batch.Total, len(batch.Tasks))

		results := make([]worker.Result, len(batch.Tasks))
		var wg sync.WaitGroup
		for ti := range batch.Tasks {
			task := &batch.Tasks[ti]
			task.Status = matrix.TaskDispatched
			wg.Add(1)
			go func(slot int, req worker.Request) {
				defer wg.Done()
				results[slot] = r.worker.Invoke(ctx, req)
			}(ti, r.buildRequest(*task, sources))
		}
		// Barrier: batch i+1 never starts before every task here is terminal.
		wg.Wait()

		for ti := range batch.Tasks {
			task := &batch.Tasks[ti]
			if results[ti].Status == worker.StatusCompleted {
				task.Status = matrix.TaskCompleted
				continue
			}
			task.Status = matrix.TaskFailed
			report.FailedTasks = append(report.FailedTasks, task.ID)
			r.logf("task %s failed: %s", task.ID, results[ti].Message)
		}

		report.Results = append(report.Results, r.verifier.CheckTasks(batch.Tasks)...)
		// Completed means all terminal, not all succeeded.
		_ = r.tracker.BatchCompleted(batch.Index)
		r.logf("batch %d/%d: complete", batch.Index, batch.Total)
	}

	for _, batch := range batches {
		report.Tasks = append(report.Tasks, batch.Tasks...)
	}
	return report
}

func (r *Runner) buildRequest(task matrix.Task, sources map[int]tokens.StyleSource) worker.Request {
	req := worker.Request{
		Target:      task.Target,
		StyleIndex:  task.StyleIndex,
		LayoutCount: task.LayoutCount,
		OutputDir:   r.outputDir,
	}
	if src, ok := sources[task.StyleIndex]; ok {
		req.StyleSourcePath = src.ResolvedPath
	}
	return req
}

func (r *Runner) logf(format string, args ...any) {
	if r.log != nil {
		r.log.Printf(format, args...)
	}
}
