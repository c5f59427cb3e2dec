package worker

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

const scriptFuncName = "Generate"

// ScriptWorker interprets a user-supplied Go file per invocation. The script
// must define
//
//	func Generate(target string, styleIndex int, tokensPath string, layoutCount int, outDir string) error
//
// and write the task's artifact files before returning nil. A fresh
// interpreter is created per invocation; interpreter state never leaks
// between tasks and concurrent invocations stay independent.
type ScriptWorker struct {
	// Path is the Go source file to interpret.
	Path string
}

// Invoke interprets the script for one task.
func (w *ScriptWorker) Invoke(ctx context.Context, req Request) Result {
	fn, err := w.loadGenerate()
	if err != nil {
		return Result{Status: StatusFailed, Message: err.Error()}
	}
	results := fn.Call([]reflect.Value{
		reflect.ValueOf(req.Target.Name),
		reflect.ValueOf(req.StyleIndex),
		reflect.ValueOf(req.StyleSourcePath),
		reflect.ValueOf(req.LayoutCount),
		reflect.ValueOf(req.OutputDir),
	})
	if len(results) != 1 {
		return Result{Status: StatusFailed, Message: fmt.Sprintf("script: %s must return exactly one error value", scriptFuncName)}
	}
	if !results[0].IsNil() {
		if genErr, ok := results[0].Interface().(error); ok {
			return Result{Status: StatusFailed, Message: fmt.Sprintf("script: %s: %s", scriptFuncName, genErr)}
		}
		return Result{Status: StatusFailed, Message: fmt.Sprintf("script: %s returned a non-error value", scriptFuncName)}
	}
	return Result{Status: StatusCompleted}
}

func (w *ScriptWorker) loadGenerate() (reflect.Value, error) {
	code, err := os.ReadFile(w.Path)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("script: read %s: %w", w.Path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return reflect.Value{}, fmt.Errorf("script: %s is empty", w.Path)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return reflect.Value{}, fmt.Errorf("script: load stdlib symbols: %w", err)
	}
	if _, err := i.EvalPath(w.Path); err != nil {
		return reflect.Value{}, fmt.Errorf("script: interpret %s: %w", w.Path, err)
	}
	value, err := i.Eval(scriptFuncName)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("script: %s must define %s(target string, styleIndex int, tokensPath string, layoutCount int, outDir string) error: %w", w.Path, scriptFuncName, err)
	}
	if !value.IsValid() || value.Kind() != reflect.Func {
		return reflect.Value{}, fmt.Errorf("script: %s in %s is not a function", scriptFuncName, w.Path)
	}
	if !generateSignature(value.Type()) {
		return reflect.Value{}, fmt.Errorf("script: %s has wrong signature, want func(string, int, string, int, string) error", scriptFuncName)
	}
	return value, nil
}

var (
	stringType = reflect.TypeOf("")
	intType    = reflect.TypeOf(0)
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
)

// generateSignature checks parameter and return types, not just arity. A
// mistyped function must be rejected here; reflect.Call panics on a bad
// argument type and that panic would escape into the batch goroutine.
func generateSignature(fnType reflect.Type) bool {
	wantIn := []reflect.Type{stringType, intType, stringType, intType, stringType}
	if fnType.NumIn() != len(wantIn) || fnType.NumOut() != 1 || fnType.IsVariadic() {
		return false
	}
	for i, want := range wantIn {
		if fnType.In(i) != want {
			return false
		}
	}
	return fnType.Out(0) == errorType
}
