package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/memoir/config.yaml"

// APIKeyEnv names the environment variable that supplies the classifier API
// key when the config file leaves it empty.
const APIKeyEnv = "MEMOIR_API_KEY"

// Config holds all memoir configuration.
type Config struct {
	Classifier ClassifierConfig `yaml:"classifier"`
	Cache      CacheConfig      `yaml:"cache"`
	Tasks      TasksConfig      `yaml:"tasks"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Storage    StorageConfig    `yaml:"storage"`
	Retention  RetentionConfig  `yaml:"retention"`
	Privacy    PrivacyConfig    `yaml:"privacy"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ClassifierConfig struct {
	BaseURL               string  `yaml:"base_url"`
	APIKey                string  `yaml:"api_key"`
	Model                 string  `yaml:"model"`
	TimeoutSeconds        int     `yaml:"timeout_seconds"`
	CategorizeTemperature float64 `yaml:"categorize_temperature"`
	KeywordTemperature    float64 `yaml:"keyword_temperature"`
	SummaryTemperature    float64 `yaml:"summary_temperature"`
}

// Timeout returns the per-request classifier deadline.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type CacheConfig struct {
	TTLMinutes           int     `yaml:"ttl_minutes"`
	SweepIntervalMinutes int     `yaml:"sweep_interval_minutes"`
	RefreshGrowth        float64 `yaml:"refresh_growth"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

type TasksConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type AnalyticsConfig struct {
	TimeZone    string `yaml:"time_zone"`
	TopKeywords int    `yaml:"top_keywords"`
}

// Location resolves the configured analysis time zone.
func (a AnalyticsConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", a.TimeZone, err)
	}
	return loc, nil
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

// DBPath returns the absolute path of the SQLite database file.
func (s StorageConfig) DBPath() (string, error) {
	dir, err := expandPath(s.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, s.SQLiteFile), nil
}

type RetentionConfig struct {
	Days int `yaml:"days"`
}

type PrivacyConfig struct {
	RedactDenylisted   bool     `yaml:"redact_denylisted"`
	UseDefaultDenylist bool     `yaml:"use_default_denylist"`
	DenylistDomains    []string `yaml:"denylist_domains"`
	DenylistRegex      []string `yaml:"denylist_regex"`
}

// Domains returns the effective denylist: the curated defaults when enabled,
// followed by the configured domains.
func (p PrivacyConfig) Domains() []string {
	var domains []string
	if p.UseDefaultDenylist {
		domains = append(domains, DefaultDenylistDomains()...)
	}
	return append(domains, p.DenylistDomains...)
}

type LoggingConfig struct {
	Level           string `yaml:"level"`
	Format          string `yaml:"format"`
	File            string `yaml:"file"`
	SlowThresholdMs int    `yaml:"slow_threshold_ms"`
	AuditLog        bool   `yaml:"audit_log"`
}

func (l LoggingConfig) SlowThreshold() time.Duration {
	return time.Duration(l.SlowThresholdMs) * time.Millisecond
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnv(cfg)

	return cfg, nil
}

// applyEnv fills values the file left empty from the environment.
func applyEnv(cfg *Config) {
	if cfg.Classifier.APIKey == "" {
		cfg.Classifier.APIKey = os.Getenv(APIKeyEnv)
	}
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0600); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		applyEnv(cfg)

		return cfg, nil
	}

	return Load(path)
}
