package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shieldsync/shieldsync/internal/assetcache"
	"github.com/shieldsync/shieldsync/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and refresh the asset cache.",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <company-id>",
	Short: "Print a company's cached asset names.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCacheShow(cmd, args[0])
	},
}

var cacheSyncCmd = &cobra.Command{
	Use:   "sync <company-id>",
	Short: "Force a full cache refresh for a company.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCacheSync(cmd, args[0])
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd, cacheSyncCmd)
}

func parseCompanyArg(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid company id %q", raw)
	}
	return id, nil
}

// runCacheShow reads the persisted document directly; no platform
// credentials are needed to look at local state.
func runCacheShow(cmd *cobra.Command, raw string) error {
	id, err := parseCompanyArg(raw)
	if err != nil {
		return err
	}
	cfg, err := config.LoadOptionalPlatform()
	if err != nil {
		return err
	}
	store, err := assetcache.NewStore(cfg.CachePath)
	if err != nil {
		return err
	}
	entries, err := store.Load()
	if err != nil {
		return err
	}
	entry, ok := entries[id]
	if !ok {
		return fmt.Errorf("no cache entry for company %d", id)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "company %d: %d assets, last sync %s\n",
		id, entry.TotalCount, entry.LastSync.Format(time.RFC3339))
	for _, name := range entry.Assets {
		fmt.Fprintln(out, name)
	}
	return nil
}

func runCacheSync(cmd *cobra.Command, raw string) error {
	id, err := parseCompanyArg(raw)
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := buildServices(cfg)
	if err != nil {
		return err
	}

	res, err := deps.cache.Sync(ctx, id, true)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "synced %d assets in %s\n",
		res.Synced, res.Duration.Round(time.Millisecond))
	return nil
}
