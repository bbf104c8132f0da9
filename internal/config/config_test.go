package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
)

func newWorkspace(t *testing.T) *Config {
	t.Helper()
	cfg, err := Init(filepath.Join(t.TempDir(), DefaultDir), "test")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return cfg
}

func TestInitAndLoad(t *testing.T) {
	cfg := newWorkspace(t)

	for _, p := range []string{cfg.TasksPath(), cfg.JobsPath(), cfg.ConfigPath()} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}

	loaded, err := Load(cfg.Dir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "test" || loaded.Version != CurrentVersion {
		t.Errorf("loaded %q v%d", loaded.Name, loaded.Version)
	}
	if loaded.Analysis.EffortThreshold != DefaultEffortThreshold || loaded.Analysis.MaxTasksPerDay != DefaultMaxTasksPerDay {
		t.Errorf("analysis = %+v", loaded.Analysis)
	}
	if w := loaded.EffortWeights(); w["low"] != 1 || w["medium"] != 2 || w["high"] != 3 {
		t.Errorf("effort weights = %v", w)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(t.TempDir()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load on empty dir = %v, want ErrNotFound", err)
	}
}

func TestLoad_MigratesOldVersions(t *testing.T) {
	dir := t.TempDir()
	v1 := `version: 1
name: legacy
tasks_dir: tasks
statuses: [todo, doing, done]
priorities: [low, high]
defaults:
  status: todo
  priority: low
`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(v1), fileMode); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != CurrentVersion || cfg.JobsDir != DefaultJobsDir || cfg.Defaults.Effort != DefaultEffort {
		t.Errorf("migration incomplete: %+v", cfg)
	}
	if len(cfg.Efforts) != len(DefaultEfforts) {
		t.Errorf("efforts = %+v", cfg.Efforts)
	}

	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "version: 3") {
		t.Errorf("migrated config not persisted:\n%s", data)
	}
}

func TestLoad_RejectsNewerVersion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("version: 99\nname: x\n"), fileMode); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load = %v, want ErrInvalid", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg := newWorkspace(t)
	cfg.TimeZone = "Europe/Madrid"
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvTimeZone, "America/Bogota")
	t.Setenv(EnvActor, "bot")

	loaded, err := Load(cfg.Dir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.TimeZone != "America/Bogota" || loaded.Actor != "bot" {
		t.Errorf("env not applied: tz=%q actor=%q", loaded.TimeZone, loaded.Actor)
	}

	stored, err := LoadFile(cfg.Dir())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if stored.TimeZone != "Europe/Madrid" || stored.Actor != "" {
		t.Errorf("LoadFile applied env: tz=%q actor=%q", stored.TimeZone, stored.Actor)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing name", func(c *Config) { c.Name = "" }},
		{"duplicate statuses", func(c *Config) { c.Statuses = []string{"a", "a"} }},
		{"default status unknown", func(c *Config) { c.Defaults.Status = "nope" }},
		{"default priority unknown", func(c *Config) { c.Defaults.Priority = "nope" }},
		{"no efforts", func(c *Config) { c.Efforts = nil }},
		{"negative weight", func(c *Config) { c.Efforts[0].Weight = -1 }},
		{"default effort unknown", func(c *Config) { c.Defaults.Effort = "huge" }},
		{"zero threshold", func(c *Config) { c.Analysis.EffortThreshold = 0 }},
		{"zero max tasks", func(c *Config) { c.Analysis.MaxTasksPerDay = 0 }},
		{"bad time zone", func(c *Config) { c.TimeZone = "Mars/Olympus" }},
	}
	if err := NewDefault("ok").Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefault("ok")
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestFindDir(t *testing.T) {
	cfg := newWorkspace(t)
	root := filepath.Dir(cfg.Dir())
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatal(err)
	}

	for _, start := range []string{root, nested, cfg.Dir()} {
		got, err := FindDir(start)
		if err != nil {
			t.Fatalf("FindDir(%s): %v", start, err)
		}
		if got != cfg.Dir() {
			t.Errorf("FindDir(%s) = %s, want %s", start, got, cfg.Dir())
		}
	}

	if _, err := FindDir(t.TempDir()); !clierr.HasCode(err, clierr.WorkspaceMissing) {
		t.Errorf("FindDir outside workspace = %v", err)
	}
}
