// internal/config/config.go
//
// This package handles configuration and the run base directory structure.
// Every generation run is rooted at a base path that holds the prototype
// artifacts, the per-style token sources, and the run records.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// PrototypesDirName holds the generated artifact files.
	PrototypesDirName = "prototypes"
	// ConsolidationDirName holds the per-style refined token sources.
	ConsolidationDirName = "style-consolidation"
	// ExtractionDirName holds extraction-phase outputs, including the
	// proposed-token file the resolver falls back to.
	ExtractionDirName = "style-extraction"
	// RunsDirName holds persisted run records and logs.
	RunsDirName = "runs"

	// TokensFileName is the canonical refined-tokens file inside a style dir.
	TokensFileName = "design-tokens.json"
	// ProposalsFileName is the extraction-phase token proposal file.
	ProposalsFileName = "token-proposals.json"

	configFileName = "protoloom.yaml"
)

const defaultProjectConfigYAML = `# protoloom project configuration
version: 1

# Worker used to generate prototype artifacts. Exactly one of command or
# script should be set; command receives the task on its argument list,
# script is a Go file interpreted per task.
worker:
  command: ""
  script: ""

generation:
  # Concurrent worker invocations per batch. Leave at 6 unless the worker
  # backend needs a tighter bound.
  max_parallel: 6
  style_variants: 3
  layout_variants: 3
`

// WorkerConfig selects the worker backend for a run.
type WorkerConfig struct {
	Command string `yaml:"command,omitempty"`
	Script  string `yaml:"script,omitempty"`
}

// GenerationConfig captures run-shaping defaults.
type GenerationConfig struct {
	MaxParallel    int `yaml:"max_parallel"`
	StyleVariants  int `yaml:"style_variants"`
	LayoutVariants int `yaml:"layout_variants"`
}

// ProjectConfig models protoloom.yaml at the base path root.
type ProjectConfig struct {
	Version    int              `yaml:"version"`
	Worker     WorkerConfig     `yaml:"worker"`
	Generation GenerationConfig `yaml:"generation"`
}

// Config holds the runtime configuration for a generation run.
type Config struct {
	// BasePath is the directory the run writes under.
	BasePath string

	Project ProjectConfig
}

// InitBaseDir creates the base directory structure for a run.
//
// Structure created:
//
//	{base}/
//	├── prototypes/          <- generated .html/.css artifacts
//	├── style-consolidation/ <- style-{n}/design-tokens.json sources
//	├── style-extraction/    <- token-proposals.json fallback source
//	└── runs/                <- run records and logs
func InitBaseDir(basePath string) error {
	dirs := []string{
		filepath.Join(basePath, PrototypesDirName),
		filepath.Join(basePath, ConsolidationDirName),
		filepath.Join(basePath, ExtractionDirName),
		filepath.Join(basePath, RunsDirName),
		filepath.Join(basePath, RunsDirName, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(basePath, configFileName))
}

// NewConfig loads (or defaults) the project configuration for a base path.
func NewConfig(basePath string) (*Config, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("config: resolve base path: %w", err)
	}
	cfg := &Config{
		BasePath: abs,
		Project:  defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PrototypesDir returns the directory that receives generated artifacts.
func (c *Config) PrototypesDir() string {
	return filepath.Join(c.BasePath, PrototypesDirName)
}

// StyleDir returns the consolidation directory for one style index.
func (c *Config) StyleDir(styleIndex int) string {
	return filepath.Join(c.BasePath, ConsolidationDirName, fmt.Sprintf("style-%d", styleIndex))
}

// TokensPath returns the canonical refined-tokens path for a style index.
func (c *Config) TokensPath(styleIndex int) string {
	return filepath.Join(c.StyleDir(styleIndex), TokensFileName)
}

// ProposalsPath returns the extraction-phase token proposal file.
func (c *Config) ProposalsPath() string {
	return filepath.Join(c.BasePath, ExtractionDirName, ProposalsFileName)
}

// RunsDir returns the directory that stores run records.
func (c *Config) RunsDir() string {
	return filepath.Join(c.BasePath, RunsDirName)
}

// LogsDir returns the directory for run logs.
func (c *Config) LogsDir() string {
	return filepath.Join(c.RunsDir(), "logs")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.BasePath, configFileName)
}

// MaxParallel returns the configured concurrency bound for a batch.
func (c *Config) MaxParallel() int {
	return c.Project.Generation.MaxParallel
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.BasePath)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Generation: GenerationConfig{
			MaxParallel:    6,
			StyleVariants:  3,
			LayoutVariants: 3,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Generation.MaxParallel == 0 {
		pc.Generation.MaxParallel = 6
	}
	if pc.Generation.StyleVariants == 0 {
		pc.Generation.StyleVariants = 3
	}
	if pc.Generation.LayoutVariants == 0 {
		pc.Generation.LayoutVariants = 3
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Worker.Command = strings.TrimSpace(pc.Worker.Command)
	pc.Worker.Script = resolvePath(base, pc.Worker.Script)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Generation.MaxParallel < 1 {
		return fmt.Errorf("generation.max_parallel must be >= 1")
	}
	if pc.Generation.StyleVariants < 1 || pc.Generation.StyleVariants > 5 {
		return fmt.Errorf("generation.style_variants must be between 1 and 5")
	}
	if pc.Generation.LayoutVariants < 1 || pc.Generation.LayoutVariants > 5 {
		return fmt.Errorf("generation.layout_variants must be between 1 and 5")
	}
	if pc.Worker.Command != "" && pc.Worker.Script != "" {
		return fmt.Errorf("worker.command and worker.script are mutually exclusive")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}
