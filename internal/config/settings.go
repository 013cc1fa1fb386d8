package config

import (
	"fmt"
	"strconv"

	"github.com/kevinrhaas/glossary/internal/redact"
)

// Source records where a setting's effective value came from.
type Source string

const (
	SourceDefault  Source = "default_value"
	SourceFile     Source = "config_file"
	SourceEnv      Source = "environment_variable"
	SourceOverride Source = "override"
)

type setting struct {
	key string
	env string
	get func(*Config) string
	set func(*Config, string) error
}

var settings = []setting{
	str("database_url", "DATABASE_URL", func(c *Config) *string { return &c.Database.URL }),
	str("database_schema", "DATABASE_SCHEMA", func(c *Config) *string { return &c.Database.Schema }),
	str("api_provider", "API_PROVIDER", func(c *Config) *string { return &c.API.Provider }),
	str("api_base_url", "API_BASE_URL", func(c *Config) *string { return &c.API.BaseURL }),
	str("api_key", "API_KEY", func(c *Config) *string { return &c.API.APIKey }),
	str("api_deployment_id", "API_DEPLOYMENT_ID", func(c *Config) *string { return &c.API.DeploymentID }),
	str("api_version", "API_VERSION", func(c *Config) *string { return &c.API.APIVersion }),
	str("api_model", "API_MODEL", func(c *Config) *string { return &c.API.Model }),
	integer("api_max_tokens", "API_MAX_TOKENS", func(c *Config) *int { return &c.API.MaxTokens }),
	float("api_temperature", "API_TEMPERATURE", func(c *Config) *float64 { return &c.API.Temperature }),
	float("api_top_p", "API_TOP_P", func(c *Config) *float64 { return &c.API.TopP }),
	float("api_frequency_penalty", "API_FREQUENCY_PENALTY", func(c *Config) *float64 { return &c.API.FrequencyPenalty }),
	float("api_presence_penalty", "API_PRESENCE_PENALTY", func(c *Config) *float64 { return &c.API.PresencePenalty }),
	float("api_timeout", "API_TIMEOUT", func(c *Config) *float64 { return &c.API.Timeout }),
	integer("api_max_retries", "API_MAX_RETRIES", func(c *Config) *int { return &c.API.MaxRetries }),
	float("api_rate_limit", "API_RATE_LIMIT", func(c *Config) *float64 { return &c.API.RateLimit }),
	str("api_prompt_template", "API_PROMPT_TEMPLATE", func(c *Config) *string { return &c.API.PromptTemplate }),
	str("host", "HOST", func(c *Config) *string { return &c.Server.Host }),
	integer("port", "PORT", func(c *Config) *int { return &c.Server.Port }),
	str("log_level", "LOG_LEVEL", func(c *Config) *string { return &c.Logging.Level }),
	str("log_format", "LOG_FORMAT", func(c *Config) *string { return &c.Logging.Format }),
	boolean("cache_enabled", "GLOSSARY_CACHE_ENABLED", func(c *Config) *bool { return &c.Cache.Enabled }),
	str("cache_dir", "GLOSSARY_CACHE_DIR", func(c *Config) *string { return &c.Cache.Dir }),
	integer("cache_ttl_seconds", "GLOSSARY_CACHE_TTL", func(c *Config) *int { return &c.Cache.TTLSeconds }),
	str("export_actor", "GLOSSARY_EXPORT_ACTOR", func(c *Config) *string { return &c.Export.Actor }),
	integer("summary_max_columns", "SUMMARY_MAX_COLUMNS", func(c *Config) *int { return &c.Summary.MaxColumns }),
}

func lookup(key string) (setting, bool) {
	for _, s := range settings {
		if s.key == key {
			return s, true
		}
	}
	return setting{}, false
}

func str(key, env string, field func(*Config) *string) setting {
	return setting{
		key: key,
		env: env,
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			*field(c) = v
			return nil
		},
	}
}

func integer(key, env string, field func(*Config) *int) setting {
	return setting{
		key: key,
		env: env,
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s must be an integer: %w", key, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func float(key, env string, field func(*Config) *float64) setting {
	return setting{
		key: key,
		env: env,
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s must be a number: %w", key, err)
			}
			*field(c) = f
			return nil
		},
	}
}

func boolean(key, env string, field func(*Config) *bool) setting {
	return setting{
		key: key,
		env: env,
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s must be true or false: %w", key, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func (c *Config) setOrigin(key string, src Source) {
	if c.origins == nil {
		c.origins = make(map[string]Source)
	}
	c.origins[key] = src
}

// Origin reports where the value for key came from.
func (c Config) Origin(key string) Source {
	if src, ok := c.origins[key]; ok {
		return src
	}
	return SourceDefault
}

// Setting is a display row for one configuration value.
type Setting struct {
	Key    string `json:"key"`
	EnvVar string `json:"env_var"`
	Value  string `json:"value"`
	Source Source `json:"source"`
}

// Describe lists every setting with credentials masked.
func Describe(cfg Config) []Setting {
	out := make([]Setting, 0, len(settings))
	for _, s := range settings {
		out = append(out, Setting{
			Key:    s.key,
			EnvVar: s.env,
			Value:  redact.Setting(s.key, s.get(&cfg)),
			Source: cfg.Origin(s.key),
		})
	}
	return out
}

// RequiredEnvVars lists the variables a deployment must set.
func RequiredEnvVars() []string {
	return []string{"DATABASE_URL", "API_BASE_URL", "API_KEY"}
}

// OptionalEnvVars lists the remaining recognised variables.
func OptionalEnvVars() []string {
	required := map[string]bool{}
	for _, e := range RequiredEnvVars() {
		required[e] = true
	}
	var out []string
	for _, s := range settings {
		if !required[s.env] {
			out = append(out, s.env)
		}
	}
	return out
}
