package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Load.BatchSize != 250 {
		t.Errorf("expected default batch size 250, got %d", cfg.Load.BatchSize)
	}
	if cfg.Load.Threads < 1 {
		t.Errorf("expected at least 1 thread, got %d", cfg.Load.Threads)
	}
	if cfg.Matcher.TopNStart != 5 || cfg.Matcher.TopNMax != 100 || cfg.Matcher.TopNStep != 5 {
		t.Errorf("unexpected matcher defaults: %+v", cfg.Matcher)
	}
	if cfg.Graph.URI == "" {
		t.Error("expected a default graph URI")
	}
}

func TestLoadConfigFileCreatesDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfigFile(dir)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Load.BatchSize != 250 {
		t.Errorf("expected default batch size, got %d", cfg.Load.BatchSize)
	}

	configPath := filepath.Join(dir, ConfigFileName)
	reloaded, err := LoadConfigFile(dir)
	if err != nil {
		t.Fatalf("reloading config from %s: %v", configPath, err)
	}
	if reloaded.Load.BatchSize != cfg.Load.BatchSize {
		t.Errorf("reloaded config diverged: %+v vs %+v", reloaded.Load, cfg.Load)
	}
}

func TestLoadConfigFileRoundTripsOverrides(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Load.BatchSize = 500
	cfg.Matcher.Tolerance = 1.5
	if err := cfg.Save(filepath.Join(dir, ConfigFileName)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := LoadConfigFile(dir)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if reloaded.Load.BatchSize != 500 {
		t.Errorf("expected overridden batch size 500, got %d", reloaded.Load.BatchSize)
	}
	if reloaded.Matcher.Tolerance != 1.5 {
		t.Errorf("expected overridden tolerance 1.5, got %v", reloaded.Matcher.Tolerance)
	}
}
