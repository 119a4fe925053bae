// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entrez queries the NCBI E-utilities for GEO DataSets records.
//
// Search wraps esearch.fcgi and returns one page of internal record ids;
// FetchText wraps efetch.fcgi and returns the full-text summary of a batch of
// ids, from which callers pattern-match accession codes.
package entrez

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/trialscout/internal/httputil"
	"github.com/pdiddy/trialscout/pkg/types"
)

// DefaultBaseURL is the E-utilities endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Database is the Entrez database searched for GEO series.
const Database = "gds"

// Client issues esearch and efetch requests.
type Client struct {
	HTTP *http.Client

	// BaseURL defaults to DefaultBaseURL. Tests point it at httptest servers.
	BaseURL string

	// Email is the contact address sent with every request.
	Email string

	Tool      string
	APIKey    string
	UserAgent string
}

// NewClient builds a Client from the pipeline configuration.
func NewClient(cfg types.PipelineConfig) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: cfg.Entrez.Timeout},
		BaseURL:   DefaultBaseURL,
		Email:     cfg.ContactAddress,
		Tool:      cfg.Entrez.Tool,
		APIKey:    cfg.Entrez.APIKey,
		UserAgent: cfg.Entrez.UserAgent,
	}
}

type eSearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	Count   int      `xml:"Count"`
	IDs     []string `xml:"IdList>Id"`
	Error   string   `xml:"ERROR"`
}

// Search returns up to retmax record ids matching term starting at retstart,
// together with the total hit count.
func (c *Client) Search(ctx context.Context, term string, retmax, retstart int) ([]string, int, error) {
	q := c.baseQuery()
	q.Set("term", term)
	q.Set("retmax", strconv.Itoa(retmax))
	q.Set("retstart", strconv.Itoa(retstart))

	o := httputil.Get(ctx, c.HTTP, c.endpoint("esearch.fcgi", q), c.UserAgent)
	if !o.OK() {
		return nil, 0, fmt.Errorf("esearch: %w", o.Err)
	}

	var res eSearchResult
	if err := xml.Unmarshal(o.Body, &res); err != nil {
		return nil, 0, fmt.Errorf("parsing esearch response: %w", err)
	}
	if res.Error != "" {
		return nil, 0, fmt.Errorf("esearch: %s", strings.TrimSpace(res.Error))
	}
	return res.IDs, res.Count, nil
}

// FetchText returns the efetch "full" text report for ids. An empty ids
// slice returns an empty string without a request. The ids travel in a POST
// form body: a page of 1000 ids makes a query string longer than front-end
// servers accept.
func (c *Client) FetchText(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	form := c.baseQuery()
	form.Set("id", strings.Join(ids, ","))
	form.Set("rettype", "full")
	form.Set("retmode", "text")

	o := httputil.PostForm(ctx, c.HTTP, c.endpoint("efetch.fcgi", nil), form, c.UserAgent)
	if !o.OK() {
		return "", fmt.Errorf("efetch: %w", o.Err)
	}
	return string(o.Body), nil
}

func (c *Client) baseQuery() url.Values {
	q := url.Values{}
	q.Set("db", Database)
	if c.Email != "" {
		q.Set("email", c.Email)
	}
	if c.Tool != "" {
		q.Set("tool", c.Tool)
	}
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
	return q
}

func (c *Client) endpoint(name string, q url.Values) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u := strings.TrimRight(base, "/") + "/" + name
	if len(q) == 0 {
		return u
	}
	return u + "?" + q.Encode()
}
