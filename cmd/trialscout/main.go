// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trialscout CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialscout/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the trialscout CLI.
var rootCmd = &cobra.Command{
	Use:   "trialscout",
	Short: "Find clinical trial numbers linked to GEO expression datasets",
	Long: `trialscout searches NCBI GEO DataSets for a keyword, follows each series to
its PubMed publications, and extracts the ClinicalTrials.gov NCT number from
each publication page.

Each stage is a subcommand (collect, links, clean, trials, filter) that reads
the previous stage's spreadsheet from the output directory and writes its
own. The run subcommand executes all five in order.`,
	SilenceUsage: true,
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

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./trialscout.yaml or ~/.config/trialscout/config.yaml)")
	pf.StringP("keyword", "k", "", "GEO DataSets search keyword (default \"Cancer\")")
	pf.StringP("output", "o", "", "output directory for stage files (default \"output\")")
	pf.String("email", "", "contact address sent to NCBI with every E-utilities request")
	pf.String("api-key", "", "NCBI API key")
	pf.Int("page-size", 0, "accession search page size (default 1000)")
	pf.Bool("ledger", false, "record runs in <output>/trialscout.db")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")

	bindFlags(viper.GetViper(), pf)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trialscout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trialscout"))
		}
	}

	viper.SetEnvPrefix("TRIALSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
