package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project config file inside a project directory.
const FileName = "pinehill.yaml"

// Config represents the top-level pinehill.yaml configuration.
type Config struct {
	Property  PropertyConfig  `yaml:"property"`
	Bank      BankConfig      `yaml:"bank"`
	Database  DatabaseConfig  `yaml:"database"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Rent      RentConfig      `yaml:"rent"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Git       GitConfig       `yaml:"git"`
}

// PropertyConfig identifies the building.
type PropertyConfig struct {
	Name   string `yaml:"name"`
	Layout string `yaml:"layout"` // default unit layout seeded on init
}

// BankConfig identifies the trusted notification channel.
type BankConfig struct {
	Name           string   `yaml:"name"`                      // e.g. "카카오뱅크"; matched against sender and "[name]" in the body
	TrustedSenders []string `yaml:"trusted_senders,omitempty"` // extra sender ids that count as the bank
}

// DatabaseConfig selects the ledger database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // sqlite file path (relative to the project dir) or postgres URL
}

// IngestConfig controls the ingestion pipeline.
type IngestConfig struct {
	Deduplicate       bool   `yaml:"deduplicate"`
	Workers           int    `yaml:"workers"`
	Timezone          string `yaml:"timezone"`
	YearRolloverGuard bool   `yaml:"year_rollover_guard"`
}

// RentConfig supplies monthly rent targets.
type RentConfig struct {
	PriceUnit int64            `yaml:"price_unit"`        // KRW per unit of a target price string, 10000 for "500-50"
	Targets   map[string]int64 `yaml:"targets,omitempty"` // unit id -> monthly rent in KRW
}

// ReconcileConfig controls the periodic reconciliation sweep.
type ReconcileConfig struct {
	SweepSchedule string `yaml:"sweep_schedule"` // cron expression; empty disables the sweep
}

// ServerConfig controls the HTTP adapter.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// GitConfig is the identity used when a project directory is kept under git.
type GitConfig struct {
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a pinehill.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadDir reads <dir>/pinehill.yaml, loads <dir>/.env if present, applies
// environment overrides and validates the result.
func LoadDir(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}

	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}
	ApplyEnv(cfg)

	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN != "" && !filepath.IsAbs(cfg.Database.DSN) && !strings.HasPrefix(cfg.Database.DSN, "file:") {
		cfg.Database.DSN = filepath.Join(dir, cfg.Database.DSN)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides config values from the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PINEHILL_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest workers must be positive, got %d", c.Ingest.Workers)
	}
	if c.Rent.PriceUnit <= 0 {
		return fmt.Errorf("rent price unit must be positive, got %d", c.Rent.PriceUnit)
	}
	for unit, amount := range c.Rent.Targets {
		if amount <= 0 {
			return fmt.Errorf("rent target for %s must be positive, got %d", unit, amount)
		}
	}
	return nil
}

// Banks returns every name that identifies the trusted channel.
func (c *Config) Banks() []string {
	var banks []string
	seen := make(map[string]bool)
	for _, b := range append([]string{c.Bank.Name}, c.Bank.TrustedSenders...) {
		key := strings.ToLower(strings.TrimSpace(b))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		banks = append(banks, strings.TrimSpace(b))
	}
	return banks
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(propertyName string) *Config {
	return &Config{
		Property: PropertyConfig{
			Name:   propertyName,
			Layout: "pinehill",
		},
		Bank: BankConfig{
			Name: "카카오뱅크",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "pinehill.db",
		},
		Ingest: IngestConfig{
			Deduplicate: true,
			Workers:     4,
			Timezone:    "Asia/Seoul",
		},
		Rent: RentConfig{
			PriceUnit: 10000,
		},
		Reconcile: ReconcileConfig{
			SweepSchedule: "@every 10m",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
		Git: GitConfig{
			AuthorName:  "Pinehill Ledger",
			AuthorEmail: "ledger@pinehill.local",
		},
	}
}
