// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/genescout/internal/entrez"
	"github.com/pdiddy/genescout/internal/pipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check [pmid...]",
	Short: "Check whether PMIDs are matched by the query",
	Long: `Check verifies, per PMID, whether the configured query matches it.
Useful before a long run: critical papers the query misses will be
injected, but a low hit rate usually means the query needs widening.

PMIDs come from arguments, falling back to the configured critical set.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := runConfigFromFlags(cmd)
	logger := newLogger(cmd)

	ids := args
	if len(ids) == 0 {
		ids = cfg.CriticalIDs
	}
	if len(ids) == 0 {
		return fmt.Errorf("no PMIDs to check: pass them as arguments or configure the critical set")
	}

	email := secretDefault("entrez-email", viper.GetString("entrez-email"))
	if email == "" {
		return fmt.Errorf("entrez email required: set .secrets/entrez-email or GENESCOUT_ENTREZ_EMAIL")
	}

	backend, err := entrez.New(entrez.Config{
		Email:   email,
		APIKey:  secretDefault("ncbi-api-key", viper.GetString("ncbi-api-key")),
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return err
	}

	orch, err := pipeline.New(cfg, backend, nil, nil, logger)
	if err != nil {
		return err
	}

	matched, err := orch.Check(context.Background(), ids)
	if err != nil {
		return err
	}

	sorted := make([]string, 0, len(matched))
	for id := range matched {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	missed := 0
	for _, id := range sorted {
		status := "matched"
		if !matched[id] {
			status = "missed "
			missed++
		}
		fmt.Printf("%s  %s\n", status, id)
	}
	fmt.Printf("\n%d of %d PMIDs matched by the query\n", len(sorted)-missed, len(sorted))
	return nil
}

func init() {
	checkCmd.Flags().String("query", "", "PubMed query expression (required, or set in config)")
	checkCmd.Flags().StringSlice("critical", nil, "PMIDs to check when no arguments are given")

	rootCmd.AddCommand(checkCmd)
}
