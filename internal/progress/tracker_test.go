package progress

import "testing"

func TestTrackerLifecycle(t *testing.T) {
	tracker := NewTracker()
	tracker.Init([][]string{{"a", "b"}, {"c"}})

	snap := tracker.Snapshot()
	if snap.Phase != PhaseGenerating {
		t.Fatalf("expected generating phase after init, got %s", snap.Phase)
	}
	if len(snap.Batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(snap.Batches))
	}
	for _, b := range snap.Batches {
		if b.State != BatchPending {
			t.Fatalf("batch %d not pending: %s", b.Index, b.State)
		}
		if b.Total != 2 {
			t.Fatalf("batch %d total mismatch: %d", b.Index, b.Total)
		}
	}

	if err := tracker.BatchStarted(1); err != nil {
		t.Fatalf("start batch 1: %v", err)
	}
	if err := tracker.BatchCompleted(1); err != nil {
		t.Fatalf("complete batch 1: %v", err)
	}
	snap = tracker.Snapshot()
	if snap.Batches[0].State != BatchCompleted || snap.Batches[1].State != BatchPending {
		t.Fatalf("unexpected states: %+v", snap.Batches)
	}
	if snap.CompletedBatches() != 1 {
		t.Fatalf("expected 1 completed batch, got %d", snap.CompletedBatches())
	}
}

func TestTrackerRejectsInvalidTransitions(t *testing.T) {
	tracker := NewTracker()
	tracker.Init([][]string{{"a"}})

	if err := tracker.BatchCompleted(1); err == nil {
		t.Fatalf("expected error completing a pending batch")
	}
	if err := tracker.BatchStarted(2); err == nil {
		t.Fatalf("expected error for out-of-range batch")
	}
	if err := tracker.BatchStarted(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tracker.BatchStarted(1); err == nil {
		t.Fatalf("expected error starting an in-progress batch twice")
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	tracker := NewTracker()
	tracker.Init([][]string{{"a", "b"}})

	snap := tracker.Snapshot()
	snap.Batches[0].State = BatchCompleted
	snap.Batches[0].TaskIDs[0] = "mutated"

	fresh := tracker.Snapshot()
	if fresh.Batches[0].State != BatchPending {
		t.Fatalf("snapshot mutation leaked into tracker state")
	}
	if fresh.Batches[0].TaskIDs[0] != "a" {
		t.Fatalf("task id mutation leaked into tracker state")
	}
}
