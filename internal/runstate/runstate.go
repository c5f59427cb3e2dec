// Package runstate persists the workflow-run record: written once when a run
// starts, finalized once when it ends, and treated as a read-only audit
// record afterwards.
package runstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/protoloom/protoloom/internal/tokens"
	"github.com/protoloom/protoloom/internal/verify"
)

// Status enumerates run outcomes. Transitions happen only at run start and
// run end, never mid-batch.
type Status string

const (
	StatusInProgress        Status = "in_progress"
	StatusComplete          Status = "complete"
	StatusPartiallyComplete Status = "partially_complete"
	StatusFailed            Status = "failed"
	StatusCancelled         Status = "cancelled"
)

// StatusFromVerification maps a verifier classification onto a run status.
func StatusFromVerification(rs verify.RunStatus) Status {
	switch rs {
	case verify.RunComplete:
		return StatusComplete
	case verify.RunPartiallyComplete:
		return StatusPartiallyComplete
	default:
		return StatusFailed
	}
}

// Parameters snapshots the run inputs for the audit record.
type Parameters struct {
	Targets        []string `json:"targets"`
	StyleVariants  int      `json:"styleVariants"`
	LayoutVariants int      `json:"layoutVariants"`
	MaxParallel    int      `json:"maxParallel"`
}

// Record models runs/{run_id}.json.
type Record struct {
	RunID      string          `json:"runId"`
	BasePath   string          `json:"basePath"`
	Parameters Parameters      `json:"parameters"`
	Status     Status          `json:"status"`
	CreatedAt  string          `json:"createdAt"`
	FinishedAt string          `json:"finishedAt,omitempty"`
	Sources    tokens.Summary  `json:"sources"`
	Tasks      []verify.Result `json:"tasks,omitempty"`
}

// Store reads and writes run records under a runs directory.
type Store struct {
	dir string
	now func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock injects a deterministic clock for tests.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewStore builds a store rooted at the runs directory.
func NewStore(dir string, opts ...StoreOption) *Store {
	store := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Create persists a fresh in-progress record and returns it.
func (s *Store) Create(basePath string, params Parameters, sources tokens.Summary) (Record, error) {
	record := Record{
		RunID:      newRunID(params.Targets),
		BasePath:   basePath,
		Parameters: params,
		Status:     StatusInProgress,
		CreatedAt:  s.now().UTC().Format(time.RFC3339),
		Sources:    sources,
	}
	if err := s.write(record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Finalize stamps the terminal status and verification results onto the
// record and persists it.
func (s *Store) Finalize(record Record, status Status, results []verify.Result) (Record, error) {
	record.Status = status
	record.FinishedAt = s.now().UTC().Format(time.RFC3339)
	record.Tasks = append([]verify.Result(nil), results...)
	if err := s.write(record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Load reads a run record by ID.
func (s *Store) Load(runID string) (Record, error) {
	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		return Record{}, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("runstate: parse %s: %w", runID, err)
	}
	return record, nil
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

func (s *Store) write(record Record) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(record.RunID), data, 0644)
}

func newRunID(targets []string) string {
	slug := "run"
	if len(targets) > 0 {
		trimmed := strings.ToLower(strings.TrimSpace(targets[0]))
		trimmed = strings.ReplaceAll(trimmed, " ", "-")
		if trimmed != "" {
			slug = trimmed
		}
	}
	return fmt.Sprintf("%s-%s", slug, uuid.NewString())
}
