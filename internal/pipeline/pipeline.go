// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the trialscout stages in order. Each stage reads the
// spreadsheet written by the previous one and writes its own, so any stage
// can be rerun alone against the files already on disk.
//
//	collect  -> geo_accessions_<kw>.xlsx
//	links    -> geo_pubmed_metadata_<kw>.xlsx
//	clean    -> cleaned_geo_pubmed_metadata_<kw>.xlsx
//	trials   -> output_nct_<kw>.xlsx
//	filter   -> output_with_valid_nct_<kw>.xlsx
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/pdiddy/trialscout/internal/clean"
	"github.com/pdiddy/trialscout/internal/collect"
	"github.com/pdiddy/trialscout/internal/entrez"
	"github.com/pdiddy/trialscout/internal/filter"
	"github.com/pdiddy/trialscout/internal/ledger"
	"github.com/pdiddy/trialscout/internal/observability"
	"github.com/pdiddy/trialscout/internal/tabular"
	"github.com/pdiddy/trialscout/internal/trials"
	"github.com/pdiddy/trialscout/internal/xref"
	"github.com/pdiddy/trialscout/pkg/types"
)

// Stage names, in execution order.
const (
	StageCollect = "collect"
	StageLinks   = "links"
	StageClean   = "clean"
	StageTrials  = "trials"
	StageFilter  = "filter"
)

// Stages lists every stage in execution order.
var Stages = []string{StageCollect, StageLinks, StageClean, StageTrials, StageFilter}

// LinkFetcher scrapes accession pages for PubMed links.
type LinkFetcher interface {
	FetchLinks(ctx context.Context, accessions []types.AccessionRecord) (xref.Result, error)
}

// TrialResolver maps PubMed ids to trial ids.
type TrialResolver interface {
	ResolveAll(ctx context.Context, ids []int64) (trials.Result, error)
}

// Deps holds the collaborators the stages call out to.
type Deps struct {
	Search collect.Searcher
	Detail collect.DetailFetcher
	Links  LinkFetcher
	Trials TrialResolver

	// Ledger is optional.
	Ledger *ledger.Ledger

	Log zerolog.Logger
}

// NewDeps wires the production clients for cfg.
func NewDeps(cfg types.PipelineConfig, log zerolog.Logger) Deps {
	ez := entrez.NewClient(cfg)
	return Deps{
		Search: ez,
		Detail: ez,
		Links:  xref.NewFetcher(cfg, observability.WithStage(log, StageLinks)),
		Trials: trials.NewScraper(cfg, observability.WithStage(log, StageTrials)),
		Log:    log,
	}
}

// Paths names the five stage files for one keyword.
type Paths struct {
	Accessions string
	Metadata   string
	Cleaned    string
	Processed  string
	Filtered   string
}

// PathsFor returns the stage file paths under cfg.OutputDirectory.
func PathsFor(cfg types.PipelineConfig) Paths {
	kw := Slug(cfg.SearchKeyword)
	dir := cfg.OutputDirectory
	return Paths{
		Accessions: filepath.Join(dir, "geo_accessions_"+kw+".xlsx"),
		Metadata:   filepath.Join(dir, "geo_pubmed_metadata_"+kw+".xlsx"),
		Cleaned:    filepath.Join(dir, "cleaned_geo_pubmed_metadata_"+kw+".xlsx"),
		Processed:  filepath.Join(dir, "output_nct_"+kw+".xlsx"),
		Filtered:   filepath.Join(dir, "output_with_valid_nct_"+kw+".xlsx"),
	}
}

// Slug lower-cases keyword and replaces runs of other characters with "_".
func Slug(keyword string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(keyword)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	s := strings.TrimSuffix(b.String(), "_")
	if s == "" {
		return "query"
	}
	return s
}

// StageResult describes one completed (or failed) stage.
type StageResult struct {
	Name       string    `yaml:"name"`
	OutputPath string    `yaml:"output_path"`
	Rows       int       `yaml:"rows"`
	Skipped    int       `yaml:"skipped,omitempty"`
	Failures   int       `yaml:"failures,omitempty"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Error      string    `yaml:"error,omitempty"`
}

// StageFunc runs a single stage.
type StageFunc func(ctx context.Context, cfg types.PipelineConfig, deps Deps) (StageResult, error)

// Lookup returns the StageFunc for name.
func Lookup(name string) (StageFunc, error) {
	switch name {
	case StageCollect:
		return RunCollect, nil
	case StageLinks:
		return RunLinks, nil
	case StageClean:
		return RunClean, nil
	case StageTrials:
		return RunTrials, nil
	case StageFilter:
		return RunFilter, nil
	default:
		return nil, fmt.Errorf("unknown stage %q (want one of %s)", name, strings.Join(Stages, ", "))
	}
}

// RunCollect searches GEO DataSets for cfg.SearchKeyword and writes the
// distinct accessions.
func RunCollect(ctx context.Context, cfg types.PipelineConfig, deps Deps) (StageResult, error) {
	res := StageResult{Name: StageCollect, OutputPath: PathsFor(cfg).Accessions}
	c := &collect.Collector{
		Search: deps.Search,
		Detail: deps.Detail,
		Log:    observability.WithStage(deps.Log, StageCollect),
	}
	accs, err := c.Collect(ctx, cfg.SearchKeyword, cfg.PageSize)
	if err != nil {
		return res, err
	}
	if err := tabular.WriteAccessions(res.OutputPath, accs); err != nil {
		return res, err
	}
	res.Rows = len(accs)
	return res, nil
}

// RunLinks reads the accession file and writes one metadata row per
// accession.
func RunLinks(ctx context.Context, cfg types.PipelineConfig, deps Deps) (StageResult, error) {
	paths := PathsFor(cfg)
	res := StageResult{Name: StageLinks, OutputPath: paths.Metadata}
	accs, err := tabular.ReadAccessions(paths.Accessions)
	if err != nil {
		return res, err
	}
	links, err := deps.Links.FetchLinks(ctx, accs)
	if err != nil {
		return res, err
	}
	for _, r := range links.Rows {
		if _, dropped := tabular.FitMetadata(r); dropped > 0 {
			deps.Log.Warn().
				Str("stage", StageLinks).
				Str("accession", r.Accession).
				Int("links", len(r.Links)).
				Int("dropped", dropped).
				Msg("link list exceeds spreadsheet cell limit; leading links dropped")
		}
	}
	if err := tabular.WriteMetadata(res.OutputPath, links.Rows); err != nil {
		return res, err
	}
	res.Rows = len(links.Rows)
	res.Failures = links.Failures
	return res, nil
}

// RunClean reads the metadata file and adds the canonical PubMed id column.
// Rows without one are kept with an empty id and counted as skipped.
func RunClean(_ context.Context, cfg types.PipelineConfig, _ Deps) (StageResult, error) {
	paths := PathsFor(cfg)
	res := StageResult{Name: StageClean, OutputPath: paths.Cleaned}
	meta, err := tabular.ReadMetadata(paths.Metadata)
	if err != nil {
		return res, err
	}
	rows := clean.CleanRows(meta)
	if err := tabular.WriteCleaned(res.OutputPath, rows); err != nil {
		return res, err
	}
	res.Rows = len(rows)
	for _, r := range rows {
		if r.CanonicalID == nil {
			res.Skipped++
		}
	}
	return res, nil
}

// RunTrials reads the cleaned file, drops rows without a numeric PubMed id,
// and resolves each remaining id to a trial id.
func RunTrials(ctx context.Context, cfg types.PipelineConfig, deps Deps) (StageResult, error) {
	paths := PathsFor(cfg)
	res := StageResult{Name: StageTrials, OutputPath: paths.Processed}
	cleaned, err := tabular.ReadCleaned(paths.Cleaned)
	if err != nil {
		return res, err
	}
	ids := make([]int64, 0, len(cleaned))
	for _, r := range cleaned {
		if r.CanonicalID == nil {
			res.Skipped++
			continue
		}
		ids = append(ids, *r.CanonicalID)
	}
	resolved, err := deps.Trials.ResolveAll(ctx, ids)
	if err != nil {
		return res, err
	}
	if err := tabular.WriteProcessed(res.OutputPath, resolved.Rows); err != nil {
		return res, err
	}
	res.Rows = len(resolved.Rows)
	res.Failures = resolved.Failures
	return res, nil
}

// RunFilter keeps the processed rows with a well-formed NCT number.
func RunFilter(_ context.Context, cfg types.PipelineConfig, _ Deps) (StageResult, error) {
	paths := PathsFor(cfg)
	res := StageResult{Name: StageFilter, OutputPath: paths.Filtered}
	processed, err := tabular.ReadProcessed(paths.Processed)
	if err != nil {
		return res, err
	}
	kept := filter.Filter(processed)
	if err := tabular.WriteProcessed(res.OutputPath, kept); err != nil {
		return res, err
	}
	res.Rows = len(kept)
	res.Skipped = len(processed) - len(kept)
	return res, nil
}
