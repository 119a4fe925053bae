// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	ids   []string
	total int
}

// fakeSearch serves pages keyed by retstart and records each call.
type fakeSearch struct {
	pages   map[int]page
	err     error
	offsets []int
}

func (f *fakeSearch) Search(_ context.Context, _ string, _ int, retstart int) ([]string, int, error) {
	f.offsets = append(f.offsets, retstart)
	if f.err != nil {
		return nil, 0, f.err
	}
	p := f.pages[retstart]
	return p.ids, p.total, nil
}

// fakeDetail returns canned text per joined id batch.
type fakeDetail struct {
	text  map[string]string
	err   error
	calls int
}

func (f *fakeDetail) FetchText(_ context.Context, ids []string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text[strings.Join(ids, ",")], nil
}

func newCollector(s *fakeSearch, d *fakeDetail) *Collector {
	return &Collector{Search: s, Detail: d, Log: zerolog.Nop()}
}

func TestExtractAccessions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"six digits", "Accession: GSE123456", []string{"GSE123456"}},
		{"seven digits", "GSE1234567 ID", []string{"GSE1234567"}},
		{"too short", "GSE12345", nil},
		{"long run truncated", "GSE123456789", []string{"GSE1234567"}},
		{"other prefixes ignored", "GDS123456 GPL123456 GSM123456", nil},
		{"duplicates kept", "GSE123456 GSE123456", []string{"GSE123456", "GSE123456"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAccessions(tt.text))
		})
	}
}

func TestCollect_SinglePageDedup(t *testing.T) {
	s := &fakeSearch{pages: map[int]page{0: {ids: []string{"1", "2"}, total: 2}}}
	d := &fakeDetail{text: map[string]string{"1,2": "GSE123456 GSE123456 GSE765432"}}

	got, err := newCollector(s, d).Collect(context.Background(), "Cancer", 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"GSE123456", "GSE765432"}, got)
	assert.Equal(t, []int{0}, s.offsets)
}

func TestCollect_MultiplePagesUnion(t *testing.T) {
	s := &fakeSearch{pages: map[int]page{
		0: {ids: []string{"1", "2"}, total: 5},
		2: {ids: []string{"3", "4"}, total: 5},
		4: {ids: []string{"5"}, total: 5},
	}}
	d := &fakeDetail{text: map[string]string{
		"1,2": "GSE100001 GSE100002",
		"3,4": "GSE100002 GSE100003",
		"5":   "GSE100001",
	}}

	got, err := newCollector(s, d).Collect(context.Background(), "Cancer", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"GSE100001", "GSE100002", "GSE100003"}, got)
	assert.Equal(t, []int{0, 2, 4}, s.offsets)
}

func TestCollect_EmptyFirstPageStops(t *testing.T) {
	// Total claims hits but the page is empty: stop rather than loop.
	s := &fakeSearch{pages: map[int]page{0: {ids: nil, total: 50}}}
	d := &fakeDetail{}

	got, err := newCollector(s, d).Collect(context.Background(), "Cancer", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []int{0}, s.offsets)
	assert.Zero(t, d.calls)
}

func TestCollect_ZeroTotal(t *testing.T) {
	s := &fakeSearch{pages: map[int]page{0: {ids: nil, total: 0}}}

	got, err := newCollector(s, &fakeDetail{}).Collect(context.Background(), "nothing", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, s.offsets, 1)
}

func TestCollect_PageWithoutMatchesContinues(t *testing.T) {
	s := &fakeSearch{pages: map[int]page{
		0: {ids: []string{"1"}, total: 2},
		1: {ids: []string{"2"}, total: 2},
	}}
	d := &fakeDetail{text: map[string]string{"1": "no accessions here", "2": "GSE222222"}}

	got, err := newCollector(s, d).Collect(context.Background(), "Cancer", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"GSE222222"}, got)
}

func TestCollect_EmptyLaterPageStops(t *testing.T) {
	s := &fakeSearch{pages: map[int]page{
		0: {ids: []string{"1"}, total: 10},
	}}
	d := &fakeDetail{text: map[string]string{"1": "GSE111111"}}

	got, err := newCollector(s, d).Collect(context.Background(), "Cancer", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"GSE111111"}, got)
	assert.Equal(t, []int{0, 1}, s.offsets)
}

func TestCollect_SearchErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	s := &fakeSearch{err: boom}

	_, err := newCollector(s, &fakeDetail{}).Collect(context.Background(), "Cancer", 10)
	assert.ErrorIs(t, err, boom)
}

func TestCollect_FetchErrorAborts(t *testing.T) {
	boom := errors.New("efetch down")
	s := &fakeSearch{pages: map[int]page{0: {ids: []string{"1"}, total: 1}}}

	_, err := newCollector(s, &fakeDetail{err: boom}).Collect(context.Background(), "Cancer", 10)
	assert.ErrorIs(t, err, boom)
}

func TestCollect_RejectsNonPositivePageSize(t *testing.T) {
	_, err := newCollector(&fakeSearch{}, &fakeDetail{}).Collect(context.Background(), "Cancer", 0)
	assert.Error(t, err)
}
