// Package tokens resolves the design-token source for each style variant.
//
// Resolution walks a priority chain: a consolidated (refined) token file is
// preferred; otherwise a proposed token set from the extraction phase is
// materialized into the canonical location. Resolution is cached per run and
// the materialized copy is write-once.
package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/protoloom/protoloom/internal/config"
)

// Quality tags where a style's tokens came from.
type Quality string

const (
	QualityConsolidated Quality = "consolidated"
	QualityProposed     Quality = "proposed"
)

// StyleSource records the resolved token source for one style index.
// Immutable once resolved for a run.
type StyleSource struct {
	StyleIndex   int
	Quality      Quality
	ResolvedPath string
	OriginNote   string
}

// Summary counts resolved sources per quality tier for the run record.
type Summary struct {
	Consolidated int `json:"consolidated"`
	Proposed     int `json:"proposed"`
}

// MissingSourceError reports that neither token source exists for a style.
// Fatal and pre-dispatch; the message names both checked paths and how to fix.
type MissingSourceError struct {
	StyleIndex       int
	ConsolidatedPath string
	ProposalsPath    string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf(
		"no token source for style %d: checked %s and %s; run style refinement to produce consolidated tokens, or style extraction to produce proposals",
		e.StyleIndex, e.ConsolidatedPath, e.ProposalsPath,
	)
}

// Resolver resolves and caches style sources for a single run. It is owned by
// the orchestrator goroutine and not safe for concurrent use.
type Resolver struct {
	cfg   *config.Config
	cache map[int]StyleSource
}

// NewResolver builds a resolver rooted at the run configuration.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg, cache: make(map[int]StyleSource)}
}

// Resolve returns the token source for a style index, materializing the
// proposed fallback when needed. Resolving the same index twice within a run
// returns the cached record and touches nothing on disk.
func (r *Resolver) Resolve(styleIndex int) (StyleSource, error) {
	if src, ok := r.cache[styleIndex]; ok {
		return src, nil
	}
	src, err := r.resolve(styleIndex)
	if err != nil {
		return StyleSource{}, err
	}
	r.cache[styleIndex] = src
	return src, nil
}

// ResolveAll resolves styles 1..styleCount in order and reports tier counts.
func (r *Resolver) ResolveAll(styleCount int) (map[int]StyleSource, Summary, error) {
	sources := make(map[int]StyleSource, styleCount)
	var summary Summary
	for style := 1; style <= styleCount; style++ {
		src, err := r.Resolve(style)
		if err != nil {
			return nil, Summary{}, err
		}
		sources[style] = src
		switch src.Quality {
		case QualityConsolidated:
			summary.Consolidated++
		case QualityProposed:
			summary.Proposed++
		}
	}
	return sources, summary, nil
}

func (r *Resolver) resolve(styleIndex int) (StyleSource, error) {
	canonical := r.cfg.TokensPath(styleIndex)
	if info, err := os.Stat(canonical); err == nil && !info.IsDir() {
		return StyleSource{
			StyleIndex:   styleIndex,
			Quality:      QualityConsolidated,
			ResolvedPath: canonical,
			OriginNote:   "refined tokens from style consolidation",
		}, nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return StyleSource{}, fmt.Errorf("tokens: stat %s: %w", canonical, err)
	}

	proposal, err := r.loadProposal(styleIndex)
	if err != nil {
		return StyleSource{}, err
	}
	if proposal == nil {
		return StyleSource{}, &MissingSourceError{
			StyleIndex:       styleIndex,
			ConsolidatedPath: canonical,
			ProposalsPath:    r.cfg.ProposalsPath(),
		}
	}
	if err := r.materialize(styleIndex, canonical, proposal); err != nil {
		return StyleSource{}, err
	}
	return StyleSource{
		StyleIndex:   styleIndex,
		Quality:      QualityProposed,
		ResolvedPath: canonical,
		OriginNote:   fmt.Sprintf("unrefined proposal copied from %s", r.cfg.ProposalsPath()),
	}, nil
}

// loadProposal returns the raw token payload for a style index, or nil when
// no proposal exists. The proposals file maps style indexes to token objects.
func (r *Resolver) loadProposal(styleIndex int) (json.RawMessage, error) {
	path := r.cfg.ProposalsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("tokens: read %s: %w", path, err)
	}
	var byIndex map[string]json.RawMessage
	if err := json.Unmarshal(data, &byIndex); err != nil {
		return nil, fmt.Errorf("tokens: parse %s: %w", path, err)
	}
	proposal, ok := byIndex[strconv.Itoa(styleIndex)]
	if !ok || len(proposal) == 0 {
		return nil, nil
	}
	return proposal, nil
}

// materialize writes the proposal into the canonical tokens path, write-once.
// An existing file is reused as-is rather than rewritten.
func (r *Resolver) materialize(styleIndex int, canonical string, proposal json.RawMessage) error {
	if _, err := os.Stat(canonical); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tokens: stat %s: %w", canonical, err)
	}
	if err := os.MkdirAll(filepath.Dir(canonical), 0755); err != nil {
		return fmt.Errorf("tokens: prepare style dir: %w", err)
	}
	var pretty map[string]any
	encoded := []byte(proposal)
	if err := json.Unmarshal(proposal, &pretty); err == nil {
		if out, err := json.MarshalIndent(pretty, "", "  "); err == nil {
			encoded = out
		}
	}
	if err := os.WriteFile(canonical, encoded, 0644); err != nil {
		return fmt.Errorf("tokens: write %s: %w", canonical, err)
	}
	// Documentation for whoever opens the style dir later; failures here do
	// not fail resolution.
	_ = r.writeFallbackGuide(styleIndex, canonical)
	return nil
}

func (r *Resolver) writeFallbackGuide(styleIndex int, canonical string) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Style %d Tokens\n\n", styleIndex))
	b.WriteString("These design tokens were copied from the extraction-phase proposal\n")
	b.WriteString("and have NOT been through consolidation. Treat colors, typography,\n")
	b.WriteString("and spacing values as a fast-track draft.\n\n")
	b.WriteString(fmt.Sprintf("- source: %s\n", r.cfg.ProposalsPath()))
	b.WriteString(fmt.Sprintf("- materialized: %s\n", canonical))
	b.WriteString("- to refine: rerun style consolidation for this style index\n")
	guidePath := filepath.Join(filepath.Dir(canonical), "UNREFINED-TOKENS.md")
	return os.WriteFile(guidePath, []byte(b.String()), 0644)
}
