package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aellingwood/augment/internal/augment"
	"github.com/aellingwood/augment/internal/logging"
	"github.com/aellingwood/augment/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Augment the input directory, then keep augmenting new images",
	Long:  "Watch performs a full run and then augments images as they are written to inputDir, until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load config and run the initial pass.
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := augment.New(cfg)
		if err != nil {
			return err
		}
		if _, err := a.AugmentDir(cfg.InputDir); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 2. Augment changed files as they arrive. A fatal error ends the
		// watch and is returned.
		var (
			mu     sync.Mutex
			runErr error
		)
		fail := func(err error) {
			mu.Lock()
			if runErr == nil {
				runErr = err
			}
			mu.Unlock()
			stop()
		}

		log := logging.L()
		w := watch.NewWatcher(cfg.InputDir, cfg.Watch.Debounce, log, func(paths []string) {
			for _, p := range paths {
				log.Info("processing image", "path", p)
				if _, err := a.AugmentFile(p); err != nil {
					fail(err)
					return
				}
			}
			if err := a.Flush(); err != nil {
				fail(err)
			}
		})

		errCh := make(chan error, 1)
		go func() { errCh <- w.Start() }()
		log.Info("watching for images", "dir", cfg.InputDir)

		// 3. Block until interrupted or the watcher fails.
		select {
		case <-ctx.Done():
			w.Stop()
			if err := <-errCh; err != nil {
				return fmt.Errorf("watcher: %w", err)
			}
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("watcher: %w", err)
			}
		}

		mu.Lock()
		defer mu.Unlock()
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
