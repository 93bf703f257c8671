// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/genescout/internal/citations"
	"github.com/pdiddy/genescout/internal/entrez"
	"github.com/pdiddy/genescout/internal/genes"
	"github.com/pdiddy/genescout/internal/httputil"
	"github.com/pdiddy/genescout/internal/pipeline"
	"github.com/pdiddy/genescout/internal/registry"
	"github.com/pdiddy/genescout/internal/scholar"
	"github.com/pdiddy/genescout/internal/store"
	"github.com/pdiddy/genescout/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full curation pipeline",
	Long: `Run searches PubMed for the configured query, injects the critical paper
set, fetches titles, abstracts, and citation counts from both providers,
extracts and validates gene symbols, and saves the record set.

Provider outages degrade individual fields; only a failed search or a
missing query aborts the run.`,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := runConfigFromFlags(cmd)
	logger := newLogger(cmd)

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

	scholarClient := scholar.New(scholar.Config{
		APIKey:  secretDefault("semantic-scholar-api-key", viper.GetString("semantic-scholar-api-key")),
		Timeout: 30 * time.Second,
	})

	ctx := context.Background()

	reg, err := registry.Load(ctx, newRegistryHTTPClient(), cfg.Registry.SourceURL, cfg.Registry.CachePath)
	if err != nil {
		logger.Warn().Err(err).Msg("gene registry unavailable, validation disabled")
	}
	logger.Info().Int("approved_symbols", reg.Len()).Msg("gene registry ready")

	validator := genes.NewValidator(reg, genes.LexiconExtractor{}, cfg.ExtraBlacklist)

	orch, err := pipeline.New(cfg, backend, citations.CountFetcher(scholarClient.FetchCitationCounts), validator, logger)
	if err != nil {
		return err
	}

	result, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	resultsDir, _ := cmd.Flags().GetString("results-dir")
	st, err := store.NewStore(resultsDir)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SaveRun(ctx, result.RunID, result.Query, result.SortedRecords(), os.Stdout); err != nil {
		return err
	}
	if err := st.ExportYAML(ctx, result.RunID); err != nil {
		return err
	}

	fmt.Printf("run %s: %d records, %d partial failures\n", result.RunID, len(result.Records), len(result.Failures))
	return nil
}

// runConfigFromFlags assembles the immutable run configuration from flags
// and the viper config file. Flags win over the file. Commands register
// only the flags they use; unregistered flags read as zero values here.
func runConfigFromFlags(cmd *cobra.Command) types.RunConfig {
	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		query = viper.GetString("query")
	}
	critical, _ := cmd.Flags().GetStringSlice("critical")
	if len(critical) == 0 {
		critical = viper.GetStringSlice("critical")
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	mergePolicy, _ := cmd.Flags().GetString("merge-policy")
	registryURL, _ := cmd.Flags().GetString("registry-url")
	cachePath, _ := cmd.Flags().GetString("registry-cache")
	blacklist, _ := cmd.Flags().GetStringSlice("blacklist")
	deadline, _ := cmd.Flags().GetDuration("deadline")

	cfg := types.RunConfig{
		Search: types.SearchConfig{
			Query:      query,
			MaxResults: maxResults,
		},
		Registry: types.RegistryConfig{
			SourceURL: registryURL,
			CachePath: cachePath,
		},
		CriticalIDs:    critical,
		ExtraBlacklist: blacklist,
		MergePolicy:    types.MergePolicy(mergePolicy),
		Deadline:       deadline,
	}
	cfg.ApplyDefaults()
	return cfg
}

// newRegistryHTTPClient builds the plain HTTP client used for the HGNC
// snapshot download. The snapshot host is not rate sensitive.
func newRegistryHTTPClient() *httputil.Client {
	return httputil.NewClient(60*time.Second, 10, 10, "genescout/"+version, 2)
}

func init() {
	runCmd.Flags().String("query", "", "PubMed query expression (required, or set in config)")
	runCmd.Flags().Int("max-results", 0, "cap on search results (default 5000)")
	runCmd.Flags().StringSlice("critical", nil, "PMIDs that must appear in the final record set")
	runCmd.Flags().String("merge-policy", "", "citation merge policy: max, prefer-primary, prefer-secondary")
	runCmd.Flags().String("registry-url", "", "HGNC complete-set TSV URL")
	runCmd.Flags().String("registry-cache", "", "local registry cache file")
	runCmd.Flags().StringSlice("blacklist", nil, "extra gene-symbol blacklist entries")
	runCmd.Flags().Duration("deadline", 0, "overall run deadline (0 = none)")
	runCmd.Flags().String("results-dir", "results", "directory for the results database and exports")

	rootCmd.AddCommand(runCmd)
}
