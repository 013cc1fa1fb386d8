// Package config loads and merges glossary service configuration from
// multiple sources.
//
// Precedence (highest to lowest):
//  1. Per-request overrides (HTTP analyze body) or CLI flags
//  2. Environment variables (DATABASE_URL, API_BASE_URL, API_KEY, ...), with
//     a .env file loaded by [LoadDotEnv] filling in unset variables
//  3. Config file ($XDG_CONFIG_HOME/glossary/config.toml, or any .toml/.json
//     path given explicitly)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config] and [Describe] to list every setting
// with its source and credentials masked. [APIConfig.Apply] layers the
// optional "api" object of an analyze request over the configured values.
package config
