// Package config provides centralized configuration for the forensic
// graph-warehouse loader: the warehouse.yaml settings (graph connection
// info, batch sizes, concurrency, matcher search bounds, log level). Some of
// these settings are stored and loaded but not read by the loaders, which
// use fixed literals instead; the field comments below say which.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Graph connection
// =============================================================================

// GraphConfig holds the Neo4j connection parameters.
type GraphConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// DefaultGraphConfig points at a local development instance.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		URI:  "bolt://localhost:7687",
		User: "neo4j",
	}
}

// =============================================================================
// Ingest/load tuning
// =============================================================================

// LoadConfig controls batch sizing and concurrency for the ingest pipeline.
type LoadConfig struct {
	// BatchSize is how many records go into each Cypher UNWIND/MERGE call.
	BatchSize int `yaml:"batch_size"`
	// Threads bounds concurrent archive processing in the V5 rescue path.
	Threads int `yaml:"threads"`
	// SleepOnFailure is stored and loaded but not read by the loaders: a
	// failed batch waits a fixed 10 seconds before the loop moves on.
	SleepOnFailure time.Duration `yaml:"sleep_on_failure"`
}

// DefaultLoadConfig mirrors the upstream loader's own constants: 250-record
// batches, one worker per logical CPU, a 10-second backoff on failure.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		BatchSize:      250,
		Threads:        runtime.NumCPU(),
		SleepOnFailure: 10 * time.Second,
	}
}

// =============================================================================
// Offline matcher tuning
// =============================================================================

// MatcherConfig controls the offline address-matching search's tolerance
// and top-N widening schedule.
type MatcherConfig struct {
	// Tolerance is the upper multiple of a seller's funding requirement a
	// deposit may still be considered an exact-seller match.
	Tolerance float64 `yaml:"tolerance"`
	// TopNStart is the first top-N cohort size tried.
	TopNStart uint64 `yaml:"top_n_start"`
	// TopNMax is stored and loaded but not read: DepthSearchByTopNAccounts
	// always widens top-N up to 100.
	TopNMax uint64 `yaml:"top_n_max"`
	// TopNStep is stored and loaded but not read: DepthSearchByTopNAccounts
	// always grows top-N by 5 between widening rounds.
	TopNStep uint64 `yaml:"top_n_step"`
}

// DefaultMatcherConfig mirrors the upstream matcher's hardcoded search
// bounds: a 20% funding tolerance, starting at the top 5 funded accounts
// and widening to 100 in steps of 5.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Tolerance: 1.2,
		TopNStart: 5,
		TopNMax:   100,
		TopNStep:  5,
	}
}

// =============================================================================
// Top-level config
// =============================================================================

// Config is the full on-disk configuration for a warehouse run.
type Config struct {
	Graph   GraphConfig   `yaml:"graph"`
	Load    LoadConfig    `yaml:"load"`
	Matcher MatcherConfig `yaml:"matcher"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns sane defaults for every section.
func DefaultConfig() *Config {
	return &Config{
		Graph:   DefaultGraphConfig(),
		Load:    DefaultLoadConfig(),
		Matcher: DefaultMatcherConfig(),
		Logging: LoggingConfig{Level: "info"},
	}
}

// ConfigFileName is the default config file name under a data directory.
const ConfigFileName = "warehouse.yaml"

// LoadConfigFile loads configuration from a YAML file under dataDir. If the
// file doesn't exist, it creates one populated with defaults so the next
// run (and the operator inspecting it) has a concrete starting point.
func LoadConfigFile(dataDir string) (*Config, error) {
	configPath := filepath.Join(dataDir, ConfigFileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating its parent
// directory if needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	header := []byte("# forensic graph-warehouse loader configuration\n# generated automatically on first run\n\n")
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
