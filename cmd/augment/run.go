package main

import (
	"fmt"

	"github.com/aellingwood/augment/internal/augment"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Augment every image in the input directory",
	Long:  "Run writes count augmented JPEG variants of each image in inputDir into outputDir. Unreadable files are skipped.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		a, err := augment.New(cfg)
		if err != nil {
			return err
		}

		sum, err := a.AugmentDir(cfg.InputDir)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"Augmented %d of %d files: %d images written to %s (seed %d)\n",
			sum.Processed-sum.Skipped, sum.Processed, sum.Written, cfg.OutputDir, a.Seed(),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
