package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shieldsync/shieldsync/internal/config"
	"github.com/shieldsync/shieldsync/internal/logging"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run a one-off auto-import cycle against the catalog.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport()
	},
}

func runImport() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: "import"}); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := buildServices(cfg)
	if err != nil {
		return err
	}

	importErr := deps.importer.RunOnce(ctx)
	if importErr == nil {
		return nil
	}
	if errors.Is(importErr, context.Canceled) {
		return &exitError{code: 130, err: importErr, silent: true}
	}
	return &exitError{code: 1, err: importErr, silent: false}
}
