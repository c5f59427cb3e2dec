package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/protoloom/protoloom/internal/matrix"
)

func testRequest(outDir string) Request {
	return Request{
		Target:          matrix.Target{Raw: "home", Name: "home", Kind: matrix.KindPage},
		StyleIndex:      2,
		StyleSourcePath: "/tokens/design-tokens.json",
		LayoutCount:     3,
		OutputDir:       outDir,
	}
}

func TestBuildCommandArgs(t *testing.T) {
	args := BuildCommandArgs(testRequest("/out"))
	joined := strings.Join(args, " ")
	want := "--target home --kind page --style 2 --layouts 3 --tokens /tokens/design-tokens.json --out /out"
	if joined != want {
		t.Fatalf("unexpected args:\n got %s\nwant %s", joined, want)
	}
}

func TestBuildCommandArgsWithReference(t *testing.T) {
	req := testRequest("/out")
	req.StructuralRef = "/out/home-style-1-layout-1.html"
	args := BuildCommandArgs(req)
	joined := strings.Join(args, " ")
	if !strings.HasSuffix(joined, "--reference /out/home-style-1-layout-1.html") {
		t.Fatalf("expected reference flag, got %s", joined)
	}
}

func TestCommandWorkerRequiresCommand(t *testing.T) {
	w := &CommandWorker{}
	result := w.Invoke(context.Background(), testRequest(t.TempDir()))
	if result.Status != StatusFailed {
		t.Fatalf("expected failure without a command, got %s", result.Status)
	}
}

func TestScriptWorkerRunsGenerate(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "gen.go")
	src := `package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func Generate(target string, styleIndex int, tokensPath string, layoutCount int, outDir string) error {
	name := fmt.Sprintf("%s-style-%d-marker.txt", target, styleIndex)
	return os.WriteFile(filepath.Join(outDir, name), []byte(tokensPath), 0644)
}
`
	if err := os.WriteFile(script, []byte(src), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	outDir := t.TempDir()
	w := &ScriptWorker{Path: script}
	result := w.Invoke(context.Background(), testRequest(outDir))
	if result.Status != StatusCompleted {
		t.Fatalf("expected completion, got %s: %s", result.Status, result.Message)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "home-style-2-marker.txt"))
	if err != nil {
		t.Fatalf("expected marker file: %v", err)
	}
	if string(data) != "/tokens/design-tokens.json" {
		t.Fatalf("marker contents wrong: %s", data)
	}
}

func TestScriptWorkerReportsGenerateError(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "gen.go")
	src := `package main

import "errors"

func Generate(target string, styleIndex int, tokensPath string, layoutCount int, outDir string) error {
	return errors.New("renderer exploded")
}
`
	if err := os.WriteFile(script, []byte(src), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	result := (&ScriptWorker{Path: script}).Invoke(context.Background(), testRequest(t.TempDir()))
	if result.Status != StatusFailed {
		t.Fatalf("expected failure, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "renderer exploded") {
		t.Fatalf("expected generator error in message, got %s", result.Message)
	}
}

func TestScriptWorkerRejectsMistypedGenerate(t *testing.T) {
	// A mistyped Generate must fail the invocation, never panic it: the
	// runner calls workers inside batch goroutines, and a reflect.Call panic
	// there would take down the whole run.
	cases := map[string]string{
		"string params": `package main

func Generate(a, b, c, d, e string) error { return nil }
`,
		"string return": `package main

func Generate(target string, styleIndex int, tokensPath string, layoutCount int, outDir string) string {
	return ""
}
`,
		"variadic": `package main

func Generate(target string, styleIndex int, tokensPath string, layoutCount int, extra ...string) error {
	return nil
}
`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			script := filepath.Join(t.TempDir(), "gen.go")
			if err := os.WriteFile(script, []byte(src), 0644); err != nil {
				t.Fatalf("write script: %v", err)
			}
			result := (&ScriptWorker{Path: script}).Invoke(context.Background(), testRequest(t.TempDir()))
			if result.Status != StatusFailed {
				t.Fatalf("expected failure for mistyped Generate, got %s", result.Status)
			}
			if !strings.Contains(result.Message, "wrong signature") {
				t.Fatalf("expected signature error, got %s", result.Message)
			}
		})
	}
}

func TestScriptWorkerRejectsMissingGenerate(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "gen.go")
	if err := os.WriteFile(script, []byte("package main\n\nfunc Other() {}\n"), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	result := (&ScriptWorker{Path: script}).Invoke(context.Background(), testRequest(t.TempDir()))
	if result.Status != StatusFailed {
		t.Fatalf("expected failure for missing Generate, got %s", result.Status)
	}
}
