package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/protoloom/protoloom/internal/matrix"
)

const validHTML = "<!DOCTYPE html>\n<html><body><main>home</main></body></html>\n"
const validCSS = "main { display: grid; gap: 1rem; }\n"

func testTask(name string, style, layouts int) matrix.Task {
	return matrix.Task{
		ID:          matrix.TaskID(name, style),
		Target:      matrix.Target{Raw: name, Name: name, Kind: matrix.KindPage},
		StyleIndex:  style,
		LayoutCount: layouts,
	}
}

func writeArtifacts(t *testing.T, dir string, task matrix.Task) {
	t.Helper()
	for _, name := range ExpectedFiles(task) {
		body := validCSS
		if filepath.Ext(name) == ".html" {
			body = validHTML
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestExpectedFilesNaming(t *testing.T) {
	task := testTask("home", 2, 3)
	files := ExpectedFiles(task)
	if len(files) != 6 {
		t.Fatalf("expected 6 files, got %d", len(files))
	}
	if files[0] != "home-style-2-layout-1.html" || files[1] != "home-style-2-layout-1.css" {
		t.Fatalf("unexpected first pair: %v", files[:2])
	}
	if files[4] != "home-style-2-layout-3.html" {
		t.Fatalf("unexpected last html: %s", files[4])
	}
}

func TestCheckTaskAllPresent(t *testing.T) {
	dir := t.TempDir()
	task := testTask("home", 1, 2)
	writeArtifacts(t, dir, task)

	result := New(dir).CheckTask(task)
	if result.FoundCount != result.ExpectedCount {
		t.Fatalf("expected all found, got %d/%d", result.FoundCount, result.ExpectedCount)
	}
	if len(result.MissingFiles) != 0 {
		t.Fatalf("expected no missing files, got %v", result.MissingFiles)
	}
}

func TestCheckTaskAllMissing(t *testing.T) {
	task := testTask("home", 1, 3)
	result := New(t.TempDir()).CheckTask(task)
	if result.FoundCount != 0 {
		t.Fatalf("expected zero found, got %d", result.FoundCount)
	}
	if len(result.MissingFiles) != result.ExpectedCount {
		t.Fatalf("expected %d missing, got %d", result.ExpectedCount, len(result.MissingFiles))
	}
}

func TestCheckTaskPartial(t *testing.T) {
	dir := t.TempDir()
	task := testTask("home", 1, 3)
	// Write only the first layout pair.
	files := ExpectedFiles(task)
	if err := os.WriteFile(filepath.Join(dir, files[0]), []byte(validHTML), 0644); err != nil {
		t.Fatalf("write html: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, files[1]), []byte(validCSS), 0644); err != nil {
		t.Fatalf("write css: %v", err)
	}

	result := New(dir).CheckTask(task)
	if result.FoundCount != 2 {
		t.Fatalf("expected 2 found, got %d", result.FoundCount)
	}
	if len(result.MissingFiles) != result.ExpectedCount-result.FoundCount {
		t.Fatalf("missing count mismatch: %d vs %d", len(result.MissingFiles), result.ExpectedCount-result.FoundCount)
	}
}

func TestCheckTaskRejectsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	task := testTask("home", 1, 1)
	files := ExpectedFiles(task)
	// HTML without a doctype marker and a CSS stub below the size floor.
	if err := os.WriteFile(filepath.Join(dir, files[0]), []byte("<html></html>"), 0644); err != nil {
		t.Fatalf("write html: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, files[1]), []byte("a{}"), 0644); err != nil {
		t.Fatalf("write css: %v", err)
	}

	result := New(dir).CheckTask(task)
	if result.FoundCount != 0 {
		t.Fatalf("malformed files counted as found: %+v", result)
	}
	if len(result.MissingFiles) != 2 {
		t.Fatalf("expected both files reported missing, got %v", result.MissingFiles)
	}
}

func TestCheckTaskAcceptsLowercaseDoctype(t *testing.T) {
	dir := t.TempDir()
	task := testTask("home", 1, 1)
	files := ExpectedFiles(task)
	if err := os.WriteFile(filepath.Join(dir, files[0]), []byte("<!doctype html><html></html>"), 0644); err != nil {
		t.Fatalf("write html: %v", err)
	}
	result := New(dir).CheckTask(task)
	if result.FoundCount != 1 {
		t.Fatalf("expected lowercase doctype accepted, got %+v", result)
	}
}

func TestClassify(t *testing.T) {
	full := Result{TaskID: "a", ExpectedCount: 4, FoundCount: 4}
	empty := Result{TaskID: "b", ExpectedCount: 4, FoundCount: 0, MissingFiles: []string{"x", "y", "z", "w"}}
	half := Result{TaskID: "c", ExpectedCount: 4, FoundCount: 2, MissingFiles: []string{"x", "y"}}

	if got := Classify([]Result{full, full}); got != RunComplete {
		t.Fatalf("expected complete, got %s", got)
	}
	if got := Classify([]Result{full, empty}); got != RunPartiallyComplete {
		t.Fatalf("expected partially_complete, got %s", got)
	}
	if got := Classify([]Result{half}); got != RunPartiallyComplete {
		t.Fatalf("expected partially_complete for half, got %s", got)
	}
	if got := Classify([]Result{empty, empty}); got != RunFailed {
		t.Fatalf("expected failed, got %s", got)
	}
	if got := Classify(nil); got != RunFailed {
		t.Fatalf("expected failed for empty input, got %s", got)
	}
}

func TestScenarioATotals(t *testing.T) {
	// 2 targets × 2 styles × 3 layouts × 2 files = 24 expected artifacts.
	total := 0
	for _, name := range []string{"home", "dashboard"} {
		for style := 1; style <= 2; style++ {
			total += len(ExpectedFiles(testTask(name, style, 3)))
		}
	}
	if total != 24 {
		t.Fatalf("expected 24 artifacts, got %d", total)
	}
}
