// Package worker defines the invocation contract for the opaque artifact
// generator, plus the two built-in backends: an external command and an
// interpreted Go script. The orchestrator treats every backend as slow and
// non-preemptible; a dispatched invocation always runs to a terminal result.
package worker

import (
	"context"

	"github.com/protoloom/protoloom/internal/matrix"
)

// Request carries everything one invocation needs to generate a task's
// artifacts: layout_count × 2 files under OutputDir, using the canonical
// {target}-style-{s}-layout-{l}.html/.css names.
type Request struct {
	Target          matrix.Target
	StyleIndex      int
	StyleSourcePath string
	LayoutCount     int
	// StructuralRef optionally points at an existing artifact the worker may
	// use as a structural reference.
	StructuralRef string
	OutputDir     string
}

// Status is the terminal outcome of one invocation.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result captures the outcome of a worker invocation.
type Result struct {
	Status  Status
	Message string
}

// Invoker is implemented by every worker backend.
type Invoker interface {
	Invoke(ctx context.Context, req Request) Result
}

// Func adapts a plain function to the Invoker interface; used by tests and
// embedders that already have a generator in-process.
type Func func(ctx context.Context, req Request) Result

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, req Request) Result {
	return f(ctx, req)
}
