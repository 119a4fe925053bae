// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialscout/internal/ledger"
	"github.com/pdiddy/trialscout/internal/observability"
	"github.com/pdiddy/trialscout/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage from accession search to NCT filtering",
	Long: `Run executes collect, links, clean, trials, and filter in order. A failing
stage stops the run; files written by earlier stages are kept so the failed
stage can be rerun on its own.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd)
	},
}

var stageCmds = []*cobra.Command{
	{
		Use:   pipeline.StageCollect,
		Short: "Search GEO DataSets and write the distinct GSE accessions",
		Long: `Collect pages through an Entrez esearch on the gds database, fetches the
full text report for each page, and writes every distinct GSE accession
found to geo_accessions_<keyword>.xlsx.`,
	},
	{
		Use:   pipeline.StageLinks,
		Short: "Scrape each accession's GEO page for PubMed links",
		Long: `Links reads the accession file, loads each GEO accession page, and writes the
PubMed links found on it to geo_pubmed_metadata_<keyword>.xlsx. Pages that
cannot be fetched produce a row with no links.`,
	},
	{
		Use:   pipeline.StageClean,
		Short: "Derive a numeric PubMed id for each metadata row",
		Long: `Clean reads the metadata file and adds a Pubmed_ID column holding the
numeric id from the row's /pubmed/<id> link, or an empty cell when there
is none.`,
	},
	{
		Use:   pipeline.StageTrials,
		Short: "Look up the NCT number on each PubMed article page",
		Long: `Trials reads the cleaned file, skips rows without a PubMed id, and scrapes
each article page for an NCT number. Pages are requested one at a time,
spaced by trials.interval. Rows with no number are marked "NCT Not Found".`,
	},
	{
		Use:   pipeline.StageFilter,
		Short: "Keep only rows with a well-formed NCT number",
		Long: `Filter reads output_nct_<keyword>.xlsx and writes the rows whose NCT Number
is "NCT" followed by digits to output_with_valid_nct_<keyword>.xlsx.`,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	for _, c := range stageCmds {
		name := c.Use
		c.Args = cobra.NoArgs
		c.RunE = func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, name)
		}
		rootCmd.AddCommand(c)
	}
}

// runStages runs the named stages (all when none) with configuration from
// viper and prints the stage table.
func runStages(cmd *cobra.Command, names ...string) error {
	v := viper.GetViper()
	cfg := pipelineConfig(v, loadedSecrets)
	log := observability.NewLogger(loggingConfig(v), os.Stderr)
	if cfg.ContactAddress == "" {
		log.Warn().Msg("no contact address configured; NCBI asks for one (--email or .secrets/ncbi-email)")
	}

	deps := pipeline.NewDeps(cfg, log)
	if cfg.Ledger {
		led, err := ledger.Open(cfg.OutputDirectory)
		if err != nil {
			return err
		}
		defer led.Close()
		deps.Ledger = led
	}

	log.Info().Str("keyword", cfg.SearchKeyword).Str("output", cfg.OutputDirectory).Msg("starting")
	sum, err := pipeline.Run(cmd.Context(), cfg, deps, names...)
	pipeline.FormatSummary(sum, cmd.OutOrStdout())
	return err
}
