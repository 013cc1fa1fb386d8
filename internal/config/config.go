package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the glossary service configuration.
type Config struct {
	Database DatabaseConfig `json:"database" toml:"database"`
	API      APIConfig      `json:"api" toml:"api"`
	Server   ServerConfig   `json:"server" toml:"server"`
	Logging  LoggingConfig  `json:"logging" toml:"logging"`
	Cache    CacheConfig    `json:"cache" toml:"cache"`
	Export   ExportConfig   `json:"export" toml:"export"`
	Summary  SummaryConfig  `json:"summary" toml:"summary"`

	origins map[string]Source
}

// DatabaseConfig selects the database to introspect.
type DatabaseConfig struct {
	URL    string `json:"url" toml:"url"`
	Schema string `json:"schema,omitempty" toml:"schema,omitempty"`
}

// APIConfig controls the LLM endpoint and request parameters.
type APIConfig struct {
	Provider         string  `json:"provider" toml:"provider"`
	BaseURL          string  `json:"base_url" toml:"base_url"`
	APIKey           string  `json:"api_key" toml:"api_key"`
	DeploymentID     string  `json:"deployment_id" toml:"deployment_id"`
	APIVersion       string  `json:"api_version" toml:"api_version"`
	Model            string  `json:"model" toml:"model"`
	MaxTokens        int     `json:"max_tokens" toml:"max_tokens"`
	Temperature      float64 `json:"temperature" toml:"temperature"`
	TopP             float64 `json:"top_p" toml:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty" toml:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty" toml:"presence_penalty"`
	// Timeout is the per-request timeout in seconds.
	Timeout    float64 `json:"timeout" toml:"timeout"`
	MaxRetries int     `json:"max_retries" toml:"max_retries"`
	// RateLimit caps outbound requests per second. Zero disables the limiter.
	RateLimit      float64 `json:"rate_limit" toml:"rate_limit"`
	PromptTemplate string  `json:"prompt_template,omitempty" toml:"prompt_template,omitempty"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `json:"host" toml:"host"`
	Port int    `json:"port" toml:"port"`
}

// LoggingConfig controls log level and output format.
type LoggingConfig struct {
	Level  string `json:"level" toml:"level"`
	Format string `json:"format" toml:"format"`
}

// CacheConfig controls caching of generated glossaries.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" toml:"enabled"`
	Dir        string `json:"dir,omitempty" toml:"dir,omitempty"`
	TTLSeconds int    `json:"ttl_seconds" toml:"ttl_seconds"`
}

// ExportConfig controls the flattened CSV export.
type ExportConfig struct {
	Actor string `json:"actor" toml:"actor"`
}

// SummaryConfig controls the schema summary sent to the model.
type SummaryConfig struct {
	MaxColumns int `json:"max_columns" toml:"max_columns"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		API: APIConfig{
			Provider:     "azure",
			DeploymentID: "model-router",
			APIVersion:   "2025-01-01-preview",
			Model:        "model-router",
			MaxTokens:    8192,
			Temperature:  0.7,
			TopP:         0.95,
			Timeout:      60,
			MaxRetries:   3,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Cache: CacheConfig{
			TTLSeconds: 86400,
		},
		Export: ExportConfig{
			Actor: "admin",
		},
		Summary: SummaryConfig{
			MaxColumns: 10,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "glossary"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "glossary"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "glossary"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "glossary"), nil
	default:
		return filepath.Join(home, ".config", "glossary"), nil
	}
}

// ConfigPath returns the full path to the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// LoadFile reads a config file on top of the defaults. Files ending in .json
// are decoded as JSON, everything else as TOML.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := mergeFile(&cfg, path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = toml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// An empty path means the default config file, which may be absent. The
// overrides map is keyed like SetField and only non-empty values apply.
func Load(path string, overrides map[string]string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	mergeEnv(&cfg)
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	before := *cfg
	if isJSON(path) {
		err = json.Unmarshal(data, cfg)
	} else {
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	for _, s := range settings {
		if s.get(cfg) != s.get(&before) {
			cfg.setOrigin(s.key, SourceFile)
		}
	}
	return nil
}

func mergeEnv(cfg *Config) {
	for _, s := range settings {
		v, ok := os.LookupEnv(s.env)
		if !ok || v == "" {
			continue
		}
		// Unparseable numbers keep the previous value.
		if err := s.set(cfg, v); err != nil {
			continue
		}
		cfg.setOrigin(s.key, SourceEnv)
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
		cfg.setOrigin(key, SourceOverride)
	}
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	s, ok := lookup(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	return s.set(cfg, value)
}

// Keys lists every settable key in display order.
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for _, s := range settings {
		keys = append(keys, s.key)
	}
	return keys
}

// MissingError lists required settings that have no value.
type MissingError struct {
	EnvVars []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.EnvVars, ", ")
}

// Validate reports the required settings that are unset.
func (c Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	missing = append(missing, c.API.Missing()...)
	if len(missing) > 0 {
		return &MissingError{EnvVars: missing}
	}
	return nil
}

// Missing returns the env var names of required API settings that are unset.
// Only the deployment-style endpoint has no fallback; the other providers
// read their vendor key variables when API_KEY is empty.
func (a APIConfig) Missing() []string {
	if a.Provider != "azure" && a.Provider != "" {
		return nil
	}
	var missing []string
	if a.BaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}
	if a.APIKey == "" {
		missing = append(missing, "API_KEY")
	}
	return missing
}
