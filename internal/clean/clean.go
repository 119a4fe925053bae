// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean reduces PubMed links to their numeric identifiers.
package clean

import (
	"regexp"
	"strconv"

	"github.com/pdiddy/trialscout/pkg/types"
)

var pubmedPath = regexp.MustCompile(`/pubmed/(\d+)$`)

// Clean returns the PubMed id at the end of raw, which must end in
// "/pubmed/<digits>". The bool is false when raw does not match or the
// digits overflow int64.
func Clean(raw string) (int64, bool) {
	m := pubmedPath.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// CleanRow attaches the canonical id taken from the last link in row. The
// pattern is anchored at the end of the row's joined links, so only the
// last link can supply it; an earlier /pubmed/ link does not.
func CleanRow(row types.MetadataRow) types.CleanedRow {
	out := types.CleanedRow{MetadataRow: row}
	if len(row.Links) == 0 {
		return out
	}
	if id, ok := Clean(row.Links[len(row.Links)-1]); ok {
		out.CanonicalID = &id
	}
	return out
}

// CleanRows applies CleanRow to every row, preserving order and count.
func CleanRows(rows []types.MetadataRow) []types.CleanedRow {
	out := make([]types.CleanedRow, len(rows))
	for i, r := range rows {
		out[i] = CleanRow(r)
	}
	return out
}
