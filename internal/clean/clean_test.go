// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trialscout/pkg/types"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   int64
		wantOK bool
	}{
		{"path", "/pubmed/12345", 12345, true},
		{"full url", "https://www.ncbi.nlm.nih.gov/pubmed/31000000", 31000000, true},
		{"other database", "/protein/12345", 0, false},
		{"empty", "", 0, false},
		{"bare number", "12345", 0, false},
		{"trailing slash", "/pubmed/12345/", 0, false},
		{"query form", "/entrez/query.fcgi?db=pubmed&list_uids=7", 0, false},
		{"overflow", "/pubmed/99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Clean(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanRow_LastLinkWins(t *testing.T) {
	row := types.MetadataRow{
		Accession:         "GSE123456",
		LinkedIdentifiers: []string{"1", "2"},
		Links:             []string{"/pubmed/1", "/pubmed/2"},
	}
	got := CleanRow(row)
	require.NotNil(t, got.CanonicalID)
	assert.Equal(t, int64(2), *got.CanonicalID)
	assert.Equal(t, row, got.MetadataRow)
}

func TestCleanRow_LastLinkUnmatched(t *testing.T) {
	row := types.MetadataRow{
		Accession:         "GSE123456",
		LinkedIdentifiers: []string{"1", "2", "x"},
		Links:             []string{"/pubmed/1", "/pubmed/2", "/pubmed/?term=x"},
	}
	got := CleanRow(row)
	assert.Nil(t, got.CanonicalID, "an earlier /pubmed/ link must not stand in for the last one")
	assert.Equal(t, row, got.MetadataRow)
}

func TestCleanRows(t *testing.T) {
	rows := []types.MetadataRow{
		{Accession: "GSE100001", Links: []string{"/pubmed/42"}},
		{Accession: "GSE100002"},
		{Accession: "GSE100003", Links: []string{"/protein/9"}},
	}
	got := CleanRows(rows)
	require.Len(t, got, 3)
	require.NotNil(t, got[0].CanonicalID)
	assert.Equal(t, int64(42), *got[0].CanonicalID)
	assert.Nil(t, got[1].CanonicalID)
	assert.Nil(t, got[2].CanonicalID)
	assert.Equal(t, "GSE100003", got[2].Accession)
}
