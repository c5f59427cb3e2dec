// Package matrix expands validated targets and a style count into the full
// combinatorial task list for a generation run. Building the matrix is a pure
// function of its inputs; all filesystem concerns live elsewhere.
package matrix

import (
	"fmt"
	"regexp"
	"strings"
)

// TargetKind distinguishes full pages from standalone UI components.
type TargetKind string

const (
	KindPage      TargetKind = "page"
	KindComponent TargetKind = "component"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Target is one page or component to generate prototypes for.
type Target struct {
	// Raw preserves the caller's spelling for reporting.
	Raw string
	// Name is the normalized identifier used in artifact filenames.
	Name string
	Kind TargetKind
}

// TaskStatus tracks a task through dispatch. Only the batch runner mutates it.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskDispatched TaskStatus = "dispatched"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task is one (target, style) cell of the generation matrix. Each task is
// responsible for LayoutCount layout variants, two artifact files each.
type Task struct {
	ID          string
	Target      Target
	StyleIndex  int
	LayoutCount int
	Status      TaskStatus
}

// TaskID derives the deterministic identifier for a (target, style) pair.
func TaskID(target string, styleIndex int) string {
	return fmt.Sprintf("%s-style-%d", target, styleIndex)
}

// ConfigurationError reports unusable run parameters. It is fatal and raised
// before any worker dispatch, so aborting on it has no side effects.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// NormalizeTargets validates and normalizes raw target names. Entries may be
// prefixed "component:" to mark a UI component; everything else is a page.
// Invalid entries are dropped and reported through warn, never kept silently.
func NormalizeTargets(raw []string, warn func(string)) []Target {
	if warn == nil {
		warn = func(string) {}
	}
	seen := make(map[string]struct{})
	var targets []Target
	for _, entry := range raw {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		kind := KindPage
		name := trimmed
		if rest, ok := strings.CutPrefix(trimmed, "component:"); ok {
			kind = KindComponent
			name = strings.TrimSpace(rest)
		}
		normalized := normalizeName(name)
		if !namePattern.MatchString(normalized) {
			warn(fmt.Sprintf("dropping invalid target %q", entry))
			continue
		}
		if _, dup := seen[normalized]; dup {
			warn(fmt.Sprintf("dropping duplicate target %q", entry))
			continue
		}
		seen[normalized] = struct{}{}
		targets = append(targets, Target{Raw: entry, Name: normalized, Kind: kind})
	}
	return targets
}

func normalizeName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-':
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// Build expands targets × styleCount into the ordered task list, ordered by
// (target order, style index). Every (target, style) pair appears exactly
// once. styleCount and layoutCount must be within 1..5.
func Build(targets []Target, styleCount, layoutCount int) ([]Task, error) {
	if len(targets) == 0 {
		return nil, &ConfigurationError{Reason: "no valid targets after filtering"}
	}
	if styleCount < 1 || styleCount > 5 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("style count %d out of range 1..5", styleCount)}
	}
	if layoutCount < 1 || layoutCount > 5 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("layout count %d out of range 1..5", layoutCount)}
	}
	tasks := make([]Task, 0, len(targets)*styleCount)
	for _, target := range targets {
		for style := 1; style <= styleCount; style++ {
			tasks = append(tasks, Task{
				ID:          TaskID(target.Name, style),
				Target:      target,
				StyleIndex:  style,
				LayoutCount: layoutCount,
				Status:      TaskPending,
			})
		}
	}
	return tasks, nil
}
