package worker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandWorker shells out to an external generator binary per task. The
// command receives the task on its argument list and must write the expected
// artifact files before exiting zero.
type CommandWorker struct {
	// Command is the generator executable name or path.
	Command string
	// Dir is the working directory for the command; empty means inherit.
	Dir string
}

// Invoke runs the generator command for one task. The process is not killed
// on context cancellation; workers are treated as non-preemptible and the
// scheduler simply stops dispatching new batches.
func (w *CommandWorker) Invoke(ctx context.Context, req Request) Result {
	if strings.TrimSpace(w.Command) == "" {
		return Result{Status: StatusFailed, Message: "worker: no generator command configured"}
	}
	args := BuildCommandArgs(req)
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(w.Command, args...)
	cmd.Dir = w.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return Result{
			Status:  StatusFailed,
			Message: fmt.Sprintf("%s %s failed: %s", w.Command, strings.Join(args, " "), msg),
		}
	}
	return Result{Status: StatusCompleted, Message: strings.TrimSpace(stdout.String())}
}

// BuildCommandArgs maps a request onto the generator's flag contract.
func BuildCommandArgs(req Request) []string {
	args := []string{
		"--target", req.Target.Name,
		"--kind", string(req.Target.Kind),
		"--style", strconv.Itoa(req.StyleIndex),
		"--layouts", strconv.Itoa(req.LayoutCount),
		"--tokens", req.StyleSourcePath,
		"--out", req.OutputDir,
	}
	if req.StructuralRef != "" {
		args = append(args, "--reference", req.StructuralRef)
	}
	return args
}
