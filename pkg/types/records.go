// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the row types handed between trialscout pipeline
// stages and the configuration shared by them.
//
// Each row type is produced by exactly one stage, written to a spreadsheet,
// and read back as the only input of the next stage.
package types

// AccessionRecord is a GEO series accession code such as "GSE123456".
type AccessionRecord = string

// TrialNotFound is the sentinel trial identifier recorded when a PubMed page
// could not be fetched or mentions no NCT number.
const TrialNotFound = "NCT Not Found"

// MetadataRow links one accession to the PubMed references found on its
// GEO accession page.
type MetadataRow struct {
	Accession AccessionRecord `json:"accession" yaml:"accession"`

	// LinkedIdentifiers holds the trailing path segment of every matching
	// link, in page order.
	LinkedIdentifiers []string `json:"linked_identifiers" yaml:"linked_identifiers"`

	// Links holds the matching hrefs as they appeared on the page.
	Links []string `json:"links" yaml:"links"`
}

// CleanedRow is a MetadataRow with its canonical PubMed identifier.
type CleanedRow struct {
	MetadataRow `yaml:",inline"`

	// CanonicalID is nil when no link matched the /pubmed/<digits> form.
	CanonicalID *int64 `json:"canonical_id,omitempty" yaml:"canonical_id,omitempty"`
}

// ProcessedRow pairs a PubMed identifier with the trial identifier found in
// its abstract, or TrialNotFound.
type ProcessedRow struct {
	PubmedID int64  `json:"pubmed_id" yaml:"pubmed_id"`
	TrialID  string `json:"trial_id" yaml:"trial_id"`
}

// FilteredRow is a ProcessedRow whose TrialID is a well-formed NCT number.
type FilteredRow = ProcessedRow
