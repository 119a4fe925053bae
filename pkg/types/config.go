// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trialscout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EntrezConfig holds settings for the NCBI E-utilities search and fetch calls.
type EntrezConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional NCBI API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Tool is the tool name reported to NCBI alongside the contact address.
	Tool string `json:"tool" yaml:"tool"`
}

// TrialsConfig holds settings for the PubMed abstract scraping stage.
type TrialsConfig struct {
	HTTPConfig `yaml:",inline"`

	// Interval is the minimum spacing between PubMed page requests (default 1s).
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// PipelineConfig is the explicit configuration passed into the pipeline entry
// point. It replaces the constants the stages would otherwise hard-code.
type PipelineConfig struct {
	// ContactAddress is the e-mail address NCBI asks E-utilities clients to send.
	ContactAddress string `json:"contact_address" yaml:"contact_address"`

	// OutputDirectory receives the five stage spreadsheets, the run summary
	// and the run ledger.
	OutputDirectory string `json:"output_directory" yaml:"output_directory"`

	// SearchKeyword is the GEO DataSets search term (e.g. "Cancer").
	SearchKeyword string `json:"search_keyword" yaml:"search_keyword"`

	// PageSize is the number of search hits requested per page (default 1000).
	PageSize int `json:"page_size" yaml:"page_size"`

	Entrez EntrezConfig `json:"entrez" yaml:"entrez"`
	GEO    HTTPConfig   `json:"geo" yaml:"geo"`
	Trials TrialsConfig `json:"trials" yaml:"trials"`

	// Ledger enables the SQLite run ledger in OutputDirectory.
	Ledger bool `json:"ledger" yaml:"ledger"`
}

// Defaults used when a PipelineConfig field is left zero.
const (
	DefaultSearchKeyword   = "Cancer"
	DefaultOutputDirectory = "output"
	DefaultPageSize        = 1000
	MaxPageSize            = 10000
	DefaultHTTPTimeout     = 60 * time.Second
	DefaultTrialsTimeout   = 10 * time.Second
	DefaultTrialsInterval  = 1 * time.Second
	DefaultUserAgent       = "trialscout/0.1"
	DefaultTool            = "trialscout"

	// BrowserUserAgent is sent to pubmed.ncbi.nlm.nih.gov, which serves the
	// abstract markup only to browser-like clients.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// WithDefaults returns a copy of c with zero fields replaced by defaults.
// A negative Trials.Interval is kept and disables throttling.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.SearchKeyword == "" {
		c.SearchKeyword = DefaultSearchKeyword
	}
	if c.OutputDirectory == "" {
		c.OutputDirectory = DefaultOutputDirectory
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize > MaxPageSize {
		c.PageSize = MaxPageSize
	}
	if c.Entrez.Timeout == 0 {
		c.Entrez.Timeout = DefaultHTTPTimeout
	}
	if c.Entrez.UserAgent == "" {
		c.Entrez.UserAgent = DefaultUserAgent
	}
	if c.Entrez.Tool == "" {
		c.Entrez.Tool = DefaultTool
	}
	if c.GEO.Timeout == 0 {
		c.GEO.Timeout = DefaultHTTPTimeout
	}
	if c.GEO.UserAgent == "" {
		c.GEO.UserAgent = DefaultUserAgent
	}
	if c.Trials.Timeout == 0 {
		c.Trials.Timeout = DefaultTrialsTimeout
	}
	if c.Trials.UserAgent == "" {
		c.Trials.UserAgent = BrowserUserAgent
	}
	if c.Trials.Interval == 0 {
		c.Trials.Interval = DefaultTrialsInterval
	}
	return c
}
