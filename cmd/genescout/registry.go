// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genescout/internal/registry"
	"github.com/pdiddy/genescout/internal/store"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Manage the approved gene symbol registry",
}

var registryUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh the local registry snapshot from HGNC",
	Long: `Update discards the local registry cache and downloads a fresh HGNC
complete-set snapshot. Runs use the cache when present, so this is the
way to pick up newly approved symbols.`,
	RunE: runRegistryUpdate,
}

func runRegistryUpdate(cmd *cobra.Command, args []string) error {
	cfg := runConfigFromFlags(cmd)

	if err := os.Remove(cfg.Registry.CachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale cache: %w", err)
	}

	reg, err := registry.Load(context.Background(), newRegistryHTTPClient(), cfg.Registry.SourceURL, cfg.Registry.CachePath)
	if err != nil {
		return err
	}

	fmt.Printf("registry updated: %d approved symbols cached at %s\n", reg.Len(), cfg.Registry.CachePath)
	return nil
}

var registryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry and stored-result statistics",
	RunE:  runRegistryStats,
}

func runRegistryStats(cmd *cobra.Command, args []string) error {
	cfg := runConfigFromFlags(cmd)
	ctx := context.Background()

	reg, err := registry.Load(ctx, newRegistryHTTPClient(), cfg.Registry.SourceURL, cfg.Registry.CachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: registry unavailable: %v\n", err)
	}
	fmt.Printf("approved symbols: %d\n", reg.Len())

	resultsDir, _ := cmd.Flags().GetString("results-dir")
	st, err := store.NewStore(resultsDir)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("runs: %d\npapers: %d\ngene candidates: %d (approved: %d)\n",
		stats.Runs, stats.Papers, stats.Candidates, stats.ApprovedGenes)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{registryUpdateCmd, registryStatsCmd} {
		c.Flags().String("registry-url", "", "HGNC complete-set TSV URL")
		c.Flags().String("registry-cache", "", "local registry cache file")
	}
	registryStatsCmd.Flags().String("results-dir", "results", "directory for the results database")

	registryCmd.AddCommand(registryUpdateCmd)
	registryCmd.AddCommand(registryStatsCmd)
	rootCmd.AddCommand(registryCmd)
}
