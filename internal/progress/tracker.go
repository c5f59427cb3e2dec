// Package progress mirrors batch execution as a small state machine that
// external observers (the TUI, the CLI spinner) read through snapshots.
// Transitions happen only at batch boundaries; nothing mid-batch is exposed.
package progress

import (
	"fmt"
	"sync"
)

// BatchState enumerates the lifecycle of one batch.
type BatchState string

const (
	BatchPending    BatchState = "pending"
	BatchInProgress BatchState = "in_progress"
	BatchCompleted  BatchState = "completed"
)

// Phase labels what the run is currently doing, for display only.
type Phase string

const (
	PhaseResolving  Phase = "resolving-sources"
	PhaseGenerating Phase = "generating"
	PhaseVerifying  Phase = "verifying"
	PhaseDone       Phase = "done"
)

// BatchStatus is the externally visible state of one batch.
type BatchStatus struct {
	Index   int
	Total   int
	TaskIDs []string
	State   BatchState
}

// Snapshot is a consistent copy of the whole run's progress.
type Snapshot struct {
	Phase   Phase
	Batches []BatchStatus
}

// CompletedBatches counts batches that have reached their barrier.
func (s Snapshot) CompletedBatches() int {
	count := 0
	for _, b := range s.Batches {
		if b.State == BatchCompleted {
			count++
		}
	}
	return count
}

// Tracker records batch progress. Writes come only from the orchestrator
// goroutine; reads may come from any goroutine.
type Tracker struct {
	mu      sync.Mutex
	phase   Phase
	batches []BatchStatus
}

// NewTracker starts a tracker in the resolving phase with no batches.
func NewTracker() *Tracker {
	return &Tracker{phase: PhaseResolving}
}

// Init registers the batch plan. Each entry is the ordered task-ID list of
// one batch; all batches start pending.
func (t *Tracker) Init(batchTaskIDs [][]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := len(batchTaskIDs)
	t.batches = make([]BatchStatus, total)
	for i, ids := range batchTaskIDs {
		t.batches[i] = BatchStatus{
			Index:   i + 1,
			Total:   total,
			TaskIDs: append([]string(nil), ids...),
			State:   BatchPending,
		}
	}
	t.phase = PhaseGenerating
}

// BatchStarted marks batch index (1-based) in_progress.
func (t *Tracker) BatchStarted(index int) error {
	return t.transition(index, BatchPending, BatchInProgress)
}

// BatchCompleted marks batch index (1-based) completed. Completion means
// every task reached a terminal status, not that every task succeeded.
func (t *Tracker) BatchCompleted(index int) error {
	return t.transition(index, BatchInProgress, BatchCompleted)
}

// SetPhase updates the display phase.
func (t *Tracker) SetPhase(phase Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = phase
}

// Snapshot returns a deep copy of the current progress state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := Snapshot{Phase: t.phase, Batches: make([]BatchStatus, len(t.batches))}
	for i, b := range t.batches {
		copied := b
		copied.TaskIDs = append([]string(nil), b.TaskIDs...)
		out.Batches[i] = copied
	}
	return out
}

func (t *Tracker) transition(index int, from, to BatchState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 1 || index > len(t.batches) {
		return fmt.Errorf("progress: batch %d out of range 1..%d", index, len(t.batches))
	}
	batch := &t.batches[index-1]
	if batch.State != from {
		return fmt.Errorf("progress: batch %d is %s, cannot move to %s", index, batch.State, to)
	}
	batch.State = to
	return nil
}
