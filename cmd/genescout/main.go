// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the genescout CLI: curated
// gene/variant literature pipeline over PubMed.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/genescout/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
// Recognized keys: entrez-email, ncbi-api-key, semantic-scholar-api-key.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the genescout CLI.
var rootCmd = &cobra.Command{
	Use:   "genescout",
	Short: "Curate gene/variant literature records from PubMed",
	Long: `genescout searches PubMed for a disease/genetics query, force-includes a
curated critical paper set, enriches each paper with citation counts from
NCBI and Semantic Scholar, extracts gene symbols and variant mentions, and
validates genes against the HGNC approved-symbol registry.

Results are stored in a local SQLite database and exported to YAML.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./genescout.yaml or ~/.config/genescout/config.yaml)")
	rootCmd.PersistentFlags().String("error-log", "genescout_errors.log", "append-only error log file")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("genescout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "genescout"))
		}
	}

	viper.SetEnvPrefix("GENESCOUT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the run logger: human-readable progress on stderr plus
// an append-only error log file for skipped and failed items. A file that
// cannot be opened degrades to console-only logging.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: os.Stderr}

	path, _ := cmd.Flags().GetString("error-log")
	if path == "" {
		return zerolog.New(console).With().Timestamp().Logger()
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open error log %s: %v\n", path, err)
		return zerolog.New(console).With().Timestamp().Logger()
	}

	errorsOnly := &zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: f},
		Level:  zerolog.WarnLevel,
	}
	return zerolog.New(zerolog.MultiLevelWriter(console, errorsOnly)).With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
