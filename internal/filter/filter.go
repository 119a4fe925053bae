// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter keeps processed rows whose trial identifier is well formed.
package filter

import (
	"regexp"

	"github.com/pdiddy/trialscout/pkg/types"
)

var trialPattern = regexp.MustCompile(`^NCT\d+$`)

// Valid reports whether id is exactly "NCT" followed by one or more digits.
func Valid(id string) bool {
	return trialPattern.MatchString(id)
}

// Filter returns the rows with a valid trial identifier, in input order.
func Filter(rows []types.ProcessedRow) []types.FilteredRow {
	out := make([]types.FilteredRow, 0, len(rows))
	for _, r := range rows {
		if Valid(r.TrialID) {
			out = append(out, r)
		}
	}
	return out
}
