// Package schedule partitions the task matrix into concurrency-bounded
// batches and drives them to completion: tasks inside a batch run
// concurrently, batches themselves run strictly one after another.
package schedule

import (
	"github.com/protoloom/protoloom/internal/matrix"
)

// DefaultMaxParallel bounds concurrent worker invocations per batch. Fixed
// rather than derived from input size so resource usage stays bounded and
// progress reporting stays granular.
const DefaultMaxParallel = 6

// Batch is one bounded-size slice of the task list.
type Batch struct {
	Index int
	Total int
	Tasks []matrix.Task
}

// TaskIDs returns the ordered task IDs of the batch.
func (b Batch) TaskIDs() []string {
	ids := make([]string, len(b.Tasks))
	for i, task := range b.Tasks {
		ids[i] = task.ID
	}
	return ids
}

// Partition splits tasks into ceil(N/maxParallel) order-preserving batches.
// Every batch holds maxParallel tasks except possibly the last; the batches
// are pairwise disjoint and cover the input exactly. maxParallel values <= 0
// fall back to DefaultMaxParallel.
func Partition(tasks []matrix.Task, maxParallel int) []Batch {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	if len(tasks) == 0 {
		return nil
	}
	total := (len(tasks) + maxParallel - 1) / maxParallel
	batches := make([]Batch, 0, total)
	for start := 0; start < len(tasks); start += maxParallel {
		end := start + maxParallel
		if end > len(tasks) {
			end = len(tasks)
		}
		batches = append(batches, Batch{
			Index: len(batches) + 1,
			Total: total,
			Tasks: append([]matrix.Task(nil), tasks[start:end]...),
		})
	}
	return batches
}
