package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	Long:  "Print the fully resolved configuration after merging defaults, the config file and AUGMENT_* environment variables.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encoding yaml: %w", err)
			}
			return enc.Close()
		case "toml":
			if err := toml.NewEncoder(out).Encode(cfg); err != nil {
				return fmt.Errorf("encoding toml: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("unknown format %q (want yaml or toml)", format)
		}
	},
}

func init() {
	configCmd.Flags().StringP("format", "f", "yaml", "output format: yaml or toml")
	rootCmd.AddCommand(configCmd)
}
