// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package xref scrapes GEO accession pages for links to PubMed records.
package xref

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/pdiddy/trialscout/internal/httputil"
	"github.com/pdiddy/trialscout/pkg/types"
)

// DefaultBaseURL is the GEO accession display page.
const DefaultBaseURL = "https://www.ncbi.nlm.nih.gov/geo/query/acc.cgi"

// linkMarker selects anchors that point at PubMed.
const linkMarker = "pubmed"

// Fetcher loads GEO accession pages and extracts their PubMed links.
type Fetcher struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string
	Log       zerolog.Logger
}

// NewFetcher builds a Fetcher from the pipeline configuration.
func NewFetcher(cfg types.PipelineConfig, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		HTTP:      &http.Client{Timeout: cfg.GEO.Timeout},
		BaseURL:   DefaultBaseURL,
		UserAgent: cfg.GEO.UserAgent,
		Log:       log,
	}
}

// Result is the output of FetchLinks.
type Result struct {
	Rows     []types.MetadataRow
	Failures int
}

// FetchLinks returns one MetadataRow per accession, in input order. A page
// that cannot be fetched or parsed is logged and produces a row with no
// links. Only context cancellation stops the loop early.
func (f *Fetcher) FetchLinks(ctx context.Context, accessions []types.AccessionRecord) (Result, error) {
	res := Result{Rows: make([]types.MetadataRow, 0, len(accessions))}
	for i, acc := range accessions {
		row := types.MetadataRow{Accession: acc}

		o := httputil.Get(ctx, f.HTTP, f.pageURL(acc), f.UserAgent)
		if httputil.IsCanceled(o) {
			return res, o.Err
		}
		if !o.OK() {
			res.Failures++
			f.Log.Warn().Err(o.Err).Str("accession", acc).Str("class", o.Class()).Msg("accession page fetch failed")
			res.Rows = append(res.Rows, row)
			continue
		}

		links, err := PubmedLinks(o.Body)
		if err != nil {
			res.Failures++
			f.Log.Warn().Err(err).Str("accession", acc).Msg("accession page parse failed")
			res.Rows = append(res.Rows, row)
			continue
		}
		row.Links = links
		for _, l := range links {
			row.LinkedIdentifiers = append(row.LinkedIdentifiers, TrailingSegment(l))
		}
		f.Log.Debug().
			Str("accession", acc).
			Int("n", i+1).
			Int("of", len(accessions)).
			Strs("pubmed_ids", row.LinkedIdentifiers).
			Msg("accession linked")
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func (f *Fetcher) pageURL(acc types.AccessionRecord) string {
	base := f.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	q := url.Values{}
	q.Set("acc", acc)
	q.Set("view", "full")
	return base + "?" + q.Encode()
}

// PubmedLinks returns, in document order, the href of every anchor whose
// href mentions PubMed.
func PubmedLinks(page []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.Contains(href, linkMarker) {
			links = append(links, href)
		}
	})
	return links, nil
}

// TrailingSegment returns the last component of href: the value after the
// final "=" when there is one, otherwise the last non-empty path segment.
//
//	https://www.ncbi.nlm.nih.gov/pubmed/1000  -> 1000
//	/entrez/query.fcgi?db=pubmed&list_uids=7  -> 7
func TrailingSegment(href string) string {
	s, _, _ := strings.Cut(href, "#")
	if i := strings.LastIndex(s, "="); i >= 0 {
		return s[i+1:]
	}
	s, _, _ = strings.Cut(s, "?")
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
