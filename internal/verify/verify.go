// Package verify checks that every artifact a task was supposed to produce
// actually exists on disk and looks structurally plausible. It never throws
// on a gap; gaps fold into the run classification.
package verify

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/protoloom/protoloom/internal/matrix"
)

// minCSSBytes is the smallest presentation file we accept as real output.
// A selector with a single rule is ~20 bytes.
const minCSSBytes = 16

var doctypeMarker = []byte("<!doctype")

// Result reports expected vs. found artifacts for one task.
type Result struct {
	TaskID        string   `json:"taskId"`
	ExpectedCount int      `json:"expectedCount"`
	FoundCount    int      `json:"foundCount"`
	MissingFiles  []string `json:"missingFiles,omitempty"`
}

// Complete reports whether every expected artifact was found.
func (r Result) Complete() bool {
	return r.FoundCount == r.ExpectedCount
}

// RunStatus classifies a whole run's verification outcome.
type RunStatus string

const (
	RunComplete          RunStatus = "complete"
	RunPartiallyComplete RunStatus = "partially_complete"
	RunFailed            RunStatus = "failed"
)

// ExpectedFiles derives the artifact filenames a task must produce, relative
// to the prototypes directory: one structural (.html) and one presentation
// (.css) file per layout. The names are the contract the worker writes to and
// must match it byte for byte.
func ExpectedFiles(task matrix.Task) []string {
	files := make([]string, 0, task.LayoutCount*2)
	for layout := 1; layout <= task.LayoutCount; layout++ {
		stem := fmt.Sprintf("%s-style-%d-layout-%d", task.Target.Name, task.StyleIndex, layout)
		files = append(files, stem+".html", stem+".css")
	}
	return files
}

// Verifier checks artifacts under one prototypes directory.
type Verifier struct {
	prototypesDir string
}

// New builds a verifier rooted at the prototypes directory.
func New(prototypesDir string) *Verifier {
	return &Verifier{prototypesDir: prototypesDir}
}

// CheckTask verifies every expected file for a task. Missing or malformed
// files land in MissingFiles; a malformed file never counts as found.
func (v *Verifier) CheckTask(task matrix.Task) Result {
	expected := ExpectedFiles(task)
	result := Result{TaskID: task.ID, ExpectedCount: len(expected)}
	for _, name := range expected {
		if v.checkFile(name) {
			result.FoundCount++
			continue
		}
		result.MissingFiles = append(result.MissingFiles, name)
	}
	return result
}

// CheckTasks verifies a set of tasks (typically one batch) in order.
func (v *Verifier) CheckTasks(tasks []matrix.Task) []Result {
	results := make([]Result, 0, len(tasks))
	for _, task := range tasks {
		results = append(results, v.CheckTask(task))
	}
	return results
}

func (v *Verifier) checkFile(name string) bool {
	path := filepath.Join(v.prototypesDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return false
	}
	switch filepath.Ext(name) {
	case ".html":
		data, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		return bytes.Contains(bytes.ToLower(data), doctypeMarker)
	case ".css":
		return info.Size() >= minCSSBytes
	default:
		return info.Size() > 0
	}
}

// Classify folds per-task results into the run-level status. It never returns
// RunComplete while any expected file is missing.
func Classify(results []Result) RunStatus {
	if len(results) == 0 {
		return RunFailed
	}
	allComplete := true
	anyFound := false
	for _, r := range results {
		if !r.Complete() {
			allComplete = false
		}
		if r.FoundCount > 0 {
			anyFound = true
		}
	}
	switch {
	case allComplete:
		return RunComplete
	case anyFound:
		return RunPartiallyComplete
	default:
		return RunFailed
	}
}
