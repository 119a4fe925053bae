// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect pages through GEO DataSets search results and gathers the
// distinct series accession codes they mention.
package collect

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pdiddy/trialscout/pkg/types"
)

// accessionPattern matches GEO series accessions. It is unanchored on the
// right, so a longer digit run yields its first seven digits.
var accessionPattern = regexp.MustCompile(`GSE\d{6,7}`)

// Searcher returns one page of record ids for term and the total hit count.
type Searcher interface {
	Search(ctx context.Context, term string, retmax, retstart int) ([]string, int, error)
}

// DetailFetcher returns the full-text records for a batch of ids.
type DetailFetcher interface {
	FetchText(ctx context.Context, ids []string) (string, error)
}

// Collector drives pagination over a Searcher and DetailFetcher.
type Collector struct {
	Search Searcher
	Detail DetailFetcher
	Log    zerolog.Logger
}

// ExtractAccessions returns every accession code in text, duplicates included,
// in order of appearance.
func ExtractAccessions(text string) []types.AccessionRecord {
	return accessionPattern.FindAllString(text, -1)
}

// Collect returns the distinct accessions found across all result pages for
// keyword, sorted. It stops at the first page with no ids or once the cursor
// passes the reported total. A failed search or fetch aborts collection.
func (c *Collector) Collect(ctx context.Context, keyword string, pageSize int) ([]types.AccessionRecord, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	seen := make(map[types.AccessionRecord]struct{})
	for cursor := 0; ; {
		ids, total, err := c.Search.Search(ctx, keyword, pageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("searching %q at offset %d: %w", keyword, cursor, err)
		}
		if len(ids) == 0 {
			break
		}

		text, err := c.Detail.FetchText(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("fetching %d records at offset %d: %w", len(ids), cursor, err)
		}
		found := ExtractAccessions(text)
		for _, acc := range found {
			seen[acc] = struct{}{}
		}
		c.Log.Info().
			Int("offset", cursor).
			Int("ids", len(ids)).
			Int("total", total).
			Int("matches", len(found)).
			Int("distinct", len(seen)).
			Msg("collected page")

		cursor += pageSize
		if cursor >= total {
			break
		}
	}

	out := make([]types.AccessionRecord, 0, len(seen))
	for acc := range seen {
		out = append(out, acc)
	}
	sort.Strings(out)
	return out, nil
}
