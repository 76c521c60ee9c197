// Package config loads the settings tablekernel reads once per table at
// construction time.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LockMode selects how Table.Lock behaves.
type LockMode int

const (
	// LockModeOff disables locking entirely; Table.Lock becomes observational.
	LockModeOff LockMode = iota
	// LockModeReadCommitted grants shared locks without recording them
	// (the engine is assumed single-threaded for reads in this mode).
	LockModeReadCommitted
	// LockModeTable is standard FIFO shared/exclusive table locking.
	LockModeTable
	// LockModeTableGC additionally runs the legacy GC heuristic while waiting.
	LockModeTableGC
)

func (m LockMode) String() string {
	switch m {
	case LockModeOff:
		return "OFF"
	case LockModeReadCommitted:
		return "READ_COMMITTED"
	case LockModeTable:
		return "TABLE"
	case LockModeTableGC:
		return "TABLE_GC"
	default:
		return "UNKNOWN"
	}
}

// Config is the root configuration tree for tablekernel.
type Config struct {
	Table TableConfig `json:"table"`
	Log   LogConfig   `json:"log"`
}

// TableConfig holds the settings a Table reads once at construction.
type TableConfig struct {
	// LockMode selects the table-locking semantics.
	LockMode LockMode `json:"lock_mode"`
	// AnalyzeAuto is the initial mutation-count threshold before the first
	// automatic analyze trigger. 0 disables analyze scheduling.
	AnalyzeAuto int64 `json:"analyze_auto"`
	// MaxMemoryRows caps the in-memory batch size during an online index
	// rebuild.
	MaxMemoryRows int64 `json:"max_memory_rows"`
	// Check enables the row-count invariant check after every mutation,
	// skipped for delegate indexes.
	Check bool `json:"check"`
	// DeadlockCheckMillis is the coarse wait-granularity used by the lock
	// manager's wait loop.
	DeadlockCheckMillis int64 `json:"deadlock_check_millis"`
}

// LogConfig controls the trace sink's verbosity.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "json" or "text"
}

// DeadlockCheck returns the configured wait-granularity as a Duration.
func (c TableConfig) DeadlockCheck() time.Duration {
	if c.DeadlockCheckMillis <= 0 {
		return time.Second
	}
	return time.Duration(c.DeadlockCheckMillis) * time.Millisecond
}

// DefaultConfig returns the configuration tablekernel uses when no config
// file is present.
func DefaultConfig() *Config {
	return &Config{
		Table: TableConfig{
			LockMode:            LockModeTable,
			AnalyzeAuto:         0,
			MaxMemoryRows:       10000,
			Check:               false,
			DeadlockCheckMillis: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads configuration from a JSON file, falling back to
// DefaultConfig when configPath is empty.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfigOrDefault tries a handful of conventional locations (and the
// TABLEKERNEL_CONFIG environment variable) before falling back to defaults.
func LoadConfigOrDefault() *Config {
	if envPath := os.Getenv("TABLEKERNEL_CONFIG"); envPath != "" {
		if cfg, err := LoadConfig(envPath); err == nil {
			return cfg
		}
	}

	possiblePaths := []string{
		"config.json",
		"./config/config.json",
		"/etc/tablekernel/config.json",
	}

	for _, path := range possiblePaths {
		if absPath, err := filepath.Abs(path); err == nil {
			if cfg, err := LoadConfig(absPath); err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}

func validateConfig(cfg *Config) error {
	if cfg.Table.AnalyzeAuto < 0 {
		return fmt.Errorf("table.analyze_auto must not be negative")
	}
	if cfg.Table.MaxMemoryRows < 1 {
		return fmt.Errorf("table.max_memory_rows must be greater than 0")
	}
	if cfg.Table.DeadlockCheckMillis < 0 {
		return fmt.Errorf("table.deadlock_check_millis must not be negative")
	}
	return nil
}
