package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kevinrhaas/glossary/internal/config"
)

var flagJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage glossary configuration",
}

// configFilePath is the --config file, or the default location.
func configFilePath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.ConfigPath()
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFilePath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "Config file already exists at %s\n", path)
			return nil
		}

		if err := config.Save(path, config.Default()); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFilePath()
		if err != nil {
			return err
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			// If no config file, start from defaults
			cfg = config.Default()
		}

		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			return err
		}

		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		settings := config.Describe(cfg)

		if flagJSON {
			return printJSON(cmd.OutOrStdout(), settings)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tENV\tVALUE\tSOURCE")
		for _, s := range settings {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Key, s.EnvVar, s.Value, s.Source)
		}
		return tw.Flush()
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report required settings that are missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var missing *config.MissingError
		if err := cfg.Validate(); errors.As(err, &missing) {
			fmt.Fprintln(os.Stderr, "Missing required configuration:")
			for _, env := range missing.EnvVars {
				fmt.Fprintf(os.Stderr, "  - %s\n", env)
			}
			exitCode = ExitUsageError
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration OK")
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&flagJSON, "json", false, "Print settings as JSON")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configCheckCmd)
}
