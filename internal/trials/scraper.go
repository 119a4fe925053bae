// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trials finds ClinicalTrials.gov identifiers in PubMed abstracts.
package trials

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/pdiddy/trialscout/internal/httputil"
	"github.com/pdiddy/trialscout/internal/throttle"
	"github.com/pdiddy/trialscout/pkg/types"
)

// DefaultBaseURL is the PubMed article page root.
const DefaultBaseURL = "https://pubmed.ncbi.nlm.nih.gov/"

// Page sections searched for a trial id, in order.
const (
	abstractSelector     = "div.abstract-content.selected"
	registrationSelector = "div.trial-registration"
)

var trialPattern = regexp.MustCompile(`NCT\d+`)

// Scraper resolves PubMed ids to trial ids one page at a time.
type Scraper struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string

	// Gate spaces page requests. Nil means no spacing.
	Gate throttle.Gate
	Log  zerolog.Logger
}

// NewScraper builds a Scraper from the pipeline configuration.
func NewScraper(cfg types.PipelineConfig, log zerolog.Logger) *Scraper {
	return &Scraper{
		HTTP:      &http.Client{Timeout: cfg.Trials.Timeout},
		BaseURL:   DefaultBaseURL,
		UserAgent: cfg.Trials.UserAgent,
		Gate:      throttle.NewInterval(cfg.Trials.Interval),
		Log:       log,
	}
}

// Result is the output of ResolveAll.
type Result struct {
	Rows []types.ProcessedRow

	// Failures counts pages that could not be fetched or parsed.
	Failures int
}

// ResolveTrialID returns the first NCT number on the PubMed page for id, or
// types.TrialNotFound when the page has none or cannot be fetched. Fetch
// failures are logged, never returned; the error is non-nil only when ctx
// ends.
func (s *Scraper) ResolveTrialID(ctx context.Context, id int64) (string, error) {
	trialID, _, err := s.resolve(ctx, id)
	return trialID, err
}

// ResolveAll resolves every id in order, one row per id.
func (s *Scraper) ResolveAll(ctx context.Context, ids []int64) (Result, error) {
	res := Result{Rows: make([]types.ProcessedRow, 0, len(ids))}
	for i, id := range ids {
		trialID, failed, err := s.resolve(ctx, id)
		if err != nil {
			return res, err
		}
		if failed {
			res.Failures++
		}
		res.Rows = append(res.Rows, types.ProcessedRow{PubmedID: id, TrialID: trialID})

		ev := s.Log.Info().Int("n", i+1).Int("of", len(ids)).Int64("pubmed_id", id)
		if trialID == types.TrialNotFound {
			ev.Msg("no NCT number found")
		} else {
			ev.Str("nct", trialID).Msg("found NCT number")
		}
	}
	return res, nil
}

func (s *Scraper) resolve(ctx context.Context, id int64) (trialID string, failed bool, err error) {
	if s.Gate != nil {
		if err := s.Gate.Wait(ctx); err != nil {
			return types.TrialNotFound, false, err
		}
	}

	o := httputil.Get(ctx, s.HTTP, s.pageURL(id), s.UserAgent)
	if httputil.IsCanceled(o) {
		return types.TrialNotFound, false, o.Err
	}
	if !o.OK() {
		s.Log.Warn().Err(o.Err).Int64("pubmed_id", id).Str("class", o.Class()).Msg("pubmed page fetch failed")
		return types.TrialNotFound, true, nil
	}

	found, err := FindTrialID(o.Body)
	if err != nil {
		s.Log.Warn().Err(err).Int64("pubmed_id", id).Msg("pubmed page parse failed")
		return types.TrialNotFound, true, nil
	}
	if found == "" {
		return types.TrialNotFound, false, nil
	}
	return found, false, nil
}

func (s *Scraper) pageURL(id int64) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + strconv.FormatInt(id, 10) + "/"
}

// FindTrialID returns the first NCT number in the page's selected abstract.
// When the abstract has none it falls back to the trial registration
// section. A page with no selected abstract yields "" whatever else it
// contains.
func FindTrialID(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	abstract := doc.Find(abstractSelector).First()
	if abstract.Length() == 0 {
		return "", nil
	}
	if m := trialPattern.FindString(abstract.Text()); m != "" {
		return m, nil
	}
	return trialPattern.FindString(doc.Find(registrationSelector).First().Text()), nil
}
