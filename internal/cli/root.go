package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kevinrhaas/glossary/internal/config"
	"github.com/kevinrhaas/glossary/internal/logging"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=".
var Version = "dev"

// Exit codes
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
	ExitInvalidShape = 5
)

var rootCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Generate business glossaries from database schemas",
	Long: "glossary reads a database schema, asks an LLM for a hierarchical business " +
		"glossary and exports it as flat records. Run \"glossary serve\" for the HTTP API.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(flattenCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// fail prints an error to stderr and records the exit code.
func fail(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	exitCode = code
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print glossary version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "glossary version %s\n", Version)
	},
}

var (
	flagConfig   string
	flagLogLevel string

	flagHost string
	flagPort int

	flagDatabaseURL string
	flagSchema      string
	flagProvider    string
	flagModel       string
	flagMaxRetries  int
	flagTemperature string
	flagActor       string

	flagFormat string
	flagOut    string
)

// buildOverrides maps the flags that were given to config keys.
func buildOverrides() map[string]string {
	m := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	set("log_level", flagLogLevel)
	set("host", flagHost)
	set("database_url", flagDatabaseURL)
	set("database_schema", flagSchema)
	set("api_provider", flagProvider)
	set("api_model", flagModel)
	set("api_temperature", flagTemperature)
	set("export_actor", flagActor)
	if flagPort > 0 {
		m["port"] = strconv.Itoa(flagPort)
	}
	if flagMaxRetries > 0 {
		m["api_max_retries"] = strconv.Itoa(flagMaxRetries)
	}
	return m
}

// loadConfig reads .env, then the config file, environment and flags.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	return config.Load(flagConfig, buildOverrides())
}

func newLogger(cfg config.Config) *logging.Logger {
	return logging.New(cfg.Logging.Level, cfg.Logging.Format)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/glossary/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}
