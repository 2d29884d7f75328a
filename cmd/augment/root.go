package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/aellingwood/augment/internal/config"
	"github.com/aellingwood/augment/internal/logging"
	"github.com/spf13/cobra"
)

// defaultConfigPath is read when present; a missing default file means
// built-in defaults plus environment overrides.
const defaultConfigPath = "augment.yaml"

var rootCmd = &cobra.Command{
	Use:           "augment",
	Short:         "Generate randomly transformed copies of images",
	Long:          "Augment writes rotated, scaled and translated variants of every image in a directory, for training-set augmentation.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "path to config file (YAML or TOML)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the configuration for cmd and configures the default
// logger to write to cmd's error stream.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			configPath = ""
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.WithOverrides(map[string]any{"logLevel": "debug"})
	}

	logging.Configure(logging.Options{
		Level:  cfg.Log.Level,
		JSON:   cfg.Log.JSON,
		Writer: cmd.ErrOrStderr(),
	})
	return cfg, nil
}
