// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tabular

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/trialscout/pkg/types"
)

// Column names.
const (
	ColAccessionNumber = "GEO Accession Number"
	ColAccession       = "accession"
	ColPubmedIDs       = "pubmed_ids"
	ColPubmedLinks     = "pubmed_links"
	ColPubmedID        = "Pubmed_ID"
	ColTrialID         = "NCT Number"
)

// listSep joins multi-valued cells.
const listSep = ", "

// WriteAccessions writes one accession per row.
func WriteAccessions(path string, accs []types.AccessionRecord) error {
	rows := make([][]any, len(accs))
	for i, a := range accs {
		rows[i] = []any{a}
	}
	return Write(path, []string{ColAccessionNumber}, rows)
}

// ReadAccessions returns the non-empty accessions in file order.
func ReadAccessions(path string) ([]types.AccessionRecord, error) {
	s, err := Read(path)
	if err != nil {
		return nil, err
	}
	c, err := s.Col(ColAccessionNumber)
	if err != nil {
		return nil, err
	}
	accs := make([]types.AccessionRecord, 0, len(s.Rows))
	for r := range s.Rows {
		if v := strings.TrimSpace(s.Cell(r, c)); v != "" {
			accs = append(accs, v)
		}
	}
	return accs, nil
}

// WriteMetadata writes accession, joined identifiers and joined links.
// Lists too long for one cell are cut as FitMetadata describes.
func WriteMetadata(path string, rows []types.MetadataRow) error {
	out := make([][]any, len(rows))
	for i, r := range rows {
		fitted, _ := FitMetadata(r)
		out[i] = metadataCells(fitted)
	}
	return Write(path, []string{ColAccession, ColPubmedIDs, ColPubmedLinks}, out)
}

// ReadMetadata reads a file written by WriteMetadata.
func ReadMetadata(path string) ([]types.MetadataRow, error) {
	s, err := Read(path)
	if err != nil {
		return nil, err
	}
	return readMetadataRows(s)
}

// WriteCleaned writes the metadata columns plus Pubmed_ID, left empty when
// the row has no canonical id.
func WriteCleaned(path string, rows []types.CleanedRow) error {
	out := make([][]any, len(rows))
	for i, r := range rows {
		var id any
		if r.CanonicalID != nil {
			id = *r.CanonicalID
		}
		out[i] = append(metadataCells(r.MetadataRow), id)
	}
	return Write(path, []string{ColAccession, ColPubmedIDs, ColPubmedLinks, ColPubmedID}, out)
}

// ReadCleaned reads a file written by WriteCleaned. A Pubmed_ID that is
// empty or not a whole number reads back as nil.
func ReadCleaned(path string) ([]types.CleanedRow, error) {
	s, err := Read(path)
	if err != nil {
		return nil, err
	}
	meta, err := readMetadataRows(s)
	if err != nil {
		return nil, err
	}
	c, err := s.Col(ColPubmedID)
	if err != nil {
		return nil, err
	}
	out := make([]types.CleanedRow, len(meta))
	for r := range s.Rows {
		out[r].MetadataRow = meta[r]
		if id, ok := ParseID(s.Cell(r, c)); ok {
			out[r].CanonicalID = &id
		}
	}
	return out, nil
}

// WriteProcessed writes Pubmed_ID and NCT Number columns. Filtered rows use
// the same layout.
func WriteProcessed(path string, rows []types.ProcessedRow) error {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.PubmedID, r.TrialID}
	}
	return Write(path, []string{ColPubmedID, ColTrialID}, out)
}

// ReadProcessed reads a file written by WriteProcessed. Rows whose
// Pubmed_ID is not numeric are skipped.
func ReadProcessed(path string) ([]types.ProcessedRow, error) {
	s, err := Read(path)
	if err != nil {
		return nil, err
	}
	idCol, err := s.Col(ColPubmedID)
	if err != nil {
		return nil, err
	}
	trialCol, err := s.Col(ColTrialID)
	if err != nil {
		return nil, err
	}
	out := make([]types.ProcessedRow, 0, len(s.Rows))
	for r := range s.Rows {
		id, ok := ParseID(s.Cell(r, idCol))
		if !ok {
			continue
		}
		out = append(out, types.ProcessedRow{PubmedID: id, TrialID: s.Cell(r, trialCol)})
	}
	return out, nil
}

// ParseID coerces a cell to a PubMed id. It accepts integers and
// integer-valued decimals ("123", "123.0") and rejects everything else,
// including empty cells.
func ParseID(cell string) (int64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

// FitMetadata drops leading identifiers and links until both joined lists
// fit in MaxCellChars. The last link, which the clean stage reads, is always
// kept when it fits on its own. Identifiers and links are cut to the same
// length so the two columns stay paired. It returns the fitted row and the
// number of entries dropped.
func FitMetadata(r types.MetadataRow) (types.MetadataRow, int) {
	keep := -1
	for _, list := range [][]string{r.LinkedIdentifiers, r.Links} {
		if len(list) == 0 {
			continue
		}
		if k := fitCount(list); keep < 0 || k < keep {
			keep = k
		}
	}
	if keep < 0 {
		return r, 0
	}
	dropped := 0
	if n := len(r.LinkedIdentifiers); n > keep {
		dropped = n - keep
		r.LinkedIdentifiers = r.LinkedIdentifiers[n-keep:]
	}
	if n := len(r.Links); n > keep {
		dropped = max(dropped, n-keep)
		r.Links = r.Links[n-keep:]
	}
	return r, dropped
}

// fitCount returns how many trailing items of list join within MaxCellChars.
func fitCount(list []string) int {
	n := 0
	for i := len(list) - 1; i >= 0; i-- {
		add := utf8.RuneCountInString(list[i])
		if i < len(list)-1 {
			add += len(listSep)
		}
		if n+add > MaxCellChars {
			return len(list) - 1 - i
		}
		n += add
	}
	return len(list)
}

func metadataCells(r types.MetadataRow) []any {
	return []any{r.Accession, strings.Join(r.LinkedIdentifiers, listSep), strings.Join(r.Links, listSep)}
}

func readMetadataRows(s *Sheet) ([]types.MetadataRow, error) {
	accCol, err := s.Col(ColAccession)
	if err != nil {
		return nil, err
	}
	idsCol, err := s.Col(ColPubmedIDs)
	if err != nil {
		return nil, err
	}
	// Older files carry only pubmed_ids; links are then empty.
	linksCol, _ := s.Col(ColPubmedLinks)

	out := make([]types.MetadataRow, len(s.Rows))
	for r := range s.Rows {
		out[r] = types.MetadataRow{
			Accession:         s.Cell(r, accCol),
			LinkedIdentifiers: splitList(s.Cell(r, idsCol)),
			Links:             splitList(s.Cell(r, linksCol)),
		}
	}
	return out, nil
}

func splitList(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, listSep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
