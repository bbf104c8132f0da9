package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
)

const fileMode = 0o600

// Sentinel errors.
var (
	ErrNotFound = errors.New("no taskplan workspace found (run 'taskplan init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the workspace configuration.
type Config struct {
	Version    int            `yaml:"version"`
	Name       string         `yaml:"name"`
	TasksDir   string         `yaml:"tasks_dir"`
	JobsDir    string         `yaml:"jobs_dir"`
	TimeZone   string         `yaml:"time_zone,omitempty"`
	Actor      string         `yaml:"actor,omitempty"`
	Statuses   []string       `yaml:"statuses"`
	Priorities []string       `yaml:"priorities"`
	Efforts    []EffortConfig `yaml:"efforts"`
	Defaults   DefaultsConfig `yaml:"defaults"`
	Analysis   AnalysisConfig `yaml:"analysis"`

	// dir is the absolute path to the workspace directory (not serialized).
	dir string `yaml:"-"`
}

// EffortConfig names an effort category and its workload weight.
type EffortConfig struct {
	Name   string `yaml:"name" json:"name"`
	Weight int    `yaml:"weight" json:"weight"`
}

// DefaultsConfig holds default values for new tasks.
type DefaultsConfig struct {
	Status   string `yaml:"status"`
	Priority string `yaml:"priority"`
	Effort   string `yaml:"effort"`
}

// AnalysisConfig holds the plan sanity thresholds.
type AnalysisConfig struct {
	EffortThreshold int `yaml:"effort_threshold"`
	MaxTasksPerDay  int `yaml:"max_tasks_per_day"`
}

// Dir returns the absolute path to the workspace directory.
func (c *Config) Dir() string {
	return c.dir
}

// SetDir sets the workspace directory path on the config.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// TasksPath returns the absolute path to the tasks directory.
func (c *Config) TasksPath() string {
	return filepath.Join(c.dir, c.TasksDir)
}

// JobsPath returns the absolute path to the job progress directory.
func (c *Config) JobsPath() string {
	return filepath.Join(c.dir, c.JobsDir)
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// NewDefault creates a Config with default values.
func NewDefault(name string) *Config {
	return &Config{
		Version:    CurrentVersion,
		Name:       name,
		TasksDir:   DefaultTasksDir,
		JobsDir:    DefaultJobsDir,
		Statuses:   append([]string{}, DefaultStatuses...),
		Priorities: append([]string{}, DefaultPriorities...),
		Efforts:    append([]EffortConfig{}, DefaultEfforts...),
		Defaults: DefaultsConfig{
			Status:   DefaultStatus,
			Priority: DefaultPriority,
			Effort:   DefaultEffort,
		},
		Analysis: AnalysisConfig{
			EffortThreshold: DefaultEffortThreshold,
			MaxTasksPerDay:  DefaultMaxTasksPerDay,
		},
	}
}

// EffortNames returns the configured effort category names in order.
func (c *Config) EffortNames() []string {
	names := make([]string, len(c.Efforts))
	for i, e := range c.Efforts {
		names[i] = e.Name
	}
	return names
}

// EffortWeights returns effort weights keyed by lowercase name.
func (c *Config) EffortWeights() map[string]int {
	weights := make(map[string]int, len(c.Efforts))
	for _, e := range c.Efforts {
		weights[strings.ToLower(e.Name)] = e.Weight
	}
	return weights
}

// Location returns the configured time zone, or UTC when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time_zone %q", ErrInvalid, c.TimeZone)
	}
	return loc, nil
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if c.TasksDir == "" {
		return fmt.Errorf("%w: tasks_dir is required", ErrInvalid)
	}
	if c.JobsDir == "" {
		return fmt.Errorf("%w: jobs_dir is required", ErrInvalid)
	}
	if len(c.Statuses) < 1 {
		return fmt.Errorf("%w: at least 1 status is required", ErrInvalid)
	}
	if hasDuplicates(c.Statuses) {
		return fmt.Errorf("%w: statuses contain duplicates", ErrInvalid)
	}
	if len(c.Priorities) < 1 {
		return fmt.Errorf("%w: at least 1 priority is required", ErrInvalid)
	}
	if hasDuplicates(c.Priorities) {
		return fmt.Errorf("%w: priorities contain duplicates", ErrInvalid)
	}
	if !contains(c.Statuses, c.Defaults.Status) {
		return fmt.Errorf("%w: default status %q not in statuses list", ErrInvalid, c.Defaults.Status)
	}
	if !contains(c.Priorities, c.Defaults.Priority) {
		return fmt.Errorf("%w: default priority %q not in priorities list", ErrInvalid, c.Defaults.Priority)
	}
	if err := c.validateEfforts(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEfforts() error {
	if len(c.Efforts) == 0 {
		return fmt.Errorf("%w: at least 1 effort is required", ErrInvalid)
	}
	if hasDuplicates(c.EffortNames()) {
		return fmt.Errorf("%w: efforts contain duplicates", ErrInvalid)
	}
	for _, e := range c.Efforts {
		if e.Name == "" {
			return fmt.Errorf("%w: effort name is required", ErrInvalid)
		}
		if e.Weight < 0 {
			return fmt.Errorf("%w: effort %q weight must be >= 0", ErrInvalid, e.Name)
		}
	}
	if !contains(c.EffortNames(), c.Defaults.Effort) {
		return fmt.Errorf("%w: default effort %q not in efforts list", ErrInvalid, c.Defaults.Effort)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.EffortThreshold < 1 {
		return fmt.Errorf("%w: analysis.effort_threshold must be >= 1", ErrInvalid)
	}
	if c.Analysis.MaxTasksPerDay < 1 {
		return fmt.Errorf("%w: analysis.max_tasks_per_day must be >= 1", ErrInvalid)
	}
	return nil
}

// Init creates a new workspace in the given directory with default settings.
// It creates the workspace directory, its tasks and jobs subdirectories, and
// the config file.
func Init(dir, name string) (*Config, error) {
	const dirMode = 0o750

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault(name)
	cfg.SetDir(absDir)

	for _, p := range []string{cfg.TasksPath(), cfg.JobsPath()} {
		if err := os.MkdirAll(p, dirMode); err != nil {
			return nil, fmt.Errorf("creating %s: %w", p, err)
		}
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to its config file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// Load reads and validates a config from the given workspace directory.
// A .env file next to the workspace is loaded first; TASKPLAN_* variables
// then override the matching config values.
func Load(dir string) (*Config, error) {
	return load(dir, true)
}

// LoadFile reads and validates the config exactly as stored, without
// environment overrides. Use it when the config will be saved back.
func LoadFile(dir string) (*Config, error) {
	return load(dir, false)
}

func load(dir string, withEnv bool) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	path := filepath.Join(absDir, ConfigFileName)
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.dir = absDir

	// Migrate old config versions forward before validating.
	oldVersion := cfg.Version
	if err := migrate(&cfg); err != nil {
		return nil, err
	}

	// Persist migrated config so future loads skip re-migration.
	if cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	if withEnv {
		// Missing .env files are normal.
		_ = godotenv.Load(filepath.Join(filepath.Dir(absDir), ".env"))
		cfg.applyEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv overlays TASKPLAN_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvTimeZone); v != "" {
		c.TimeZone = v
	}
	if v := os.Getenv(EnvActor); v != "" {
		c.Actor = v
	}
}

// FindDir walks upward from startDir looking for a workspace directory
// containing config.yml. Returns the absolute path to the workspace directory.
func FindDir(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		candidate := filepath.Join(dir, DefaultDir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Join(dir, DefaultDir), nil
		}

		// Also check if we're inside the workspace directory itself.
		candidate = filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", clierr.New(clierr.WorkspaceMissing,
				"no taskplan workspace found (run 'taskplan init' to create one)")
		}
		dir = parent
	}
}

// StatusIndex returns the index of a status in the configured order, or -1.
func (c *Config) StatusIndex(status string) int {
	return IndexOf(c.Statuses, status)
}

// PriorityIndex returns the index of a priority in the configured order, or -1.
func (c *Config) PriorityIndex(priority string) int {
	return IndexOf(c.Priorities, priority)
}

// IsTerminalStatus reports whether s is the last configured status.
func (c *Config) IsTerminalStatus(s string) bool {
	if len(c.Statuses) == 0 {
		return false
	}
	return s == c.Statuses[len(c.Statuses)-1]
}

// InitialStatus returns the first configured status.
func (c *Config) InitialStatus() string {
	if len(c.Statuses) == 0 {
		return ""
	}
	return c.Statuses[0]
}

func contains(slice []string, item string) bool {
	return IndexOf(slice, item) >= 0
}

// IndexOf returns the index of item in slice, or -1 if not found.
func IndexOf(slice []string, item string) int {
	for i, s := range slice {
		if s == item {
			return i
		}
	}
	return -1
}

func hasDuplicates(slice []string) bool {
	seen := make(map[string]bool, len(slice))
	for _, s := range slice {
		if seen[s] {
			return true
		}
		seen[s] = true
	}
	return false
}
