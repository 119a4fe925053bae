// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entrez

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleESearchXML = `<?xml version="1.0" encoding="UTF-8" ?>
<!DOCTYPE eSearchResult PUBLIC "-//NLM//DTD esearch 20060628//EN" "https://eutils.ncbi.nlm.nih.gov/eutils/dtd/20060628/esearch.dtd">
<eSearchResult><Count>2345</Count><RetMax>2</RetMax><RetStart>1000</RetStart><IdList>
<Id>200123456</Id>
<Id>200765432</Id>
</IdList><TranslationSet/><QueryTranslation>cancer[All Fields]</QueryTranslation></eSearchResult>`

func testClient(ts *httptest.Server) *Client {
	return &Client{
		HTTP:    ts.Client(),
		BaseURL: ts.URL,
		Email:   "someone@example.org",
		Tool:    "trialscout",
		APIKey:  "k3y",
	}
}

func TestSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/esearch.fcgi", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "gds", q.Get("db"))
		assert.Equal(t, "Cancer", q.Get("term"))
		assert.Equal(t, "2", q.Get("retmax"))
		assert.Equal(t, "1000", q.Get("retstart"))
		assert.Equal(t, "someone@example.org", q.Get("email"))
		assert.Equal(t, "trialscout", q.Get("tool"))
		assert.Equal(t, "k3y", q.Get("api_key"))
		fmt.Fprint(w, sampleESearchXML)
	}))
	defer ts.Close()

	ids, total, err := testClient(ts).Search(context.Background(), "Cancer", 2, 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"200123456", "200765432"}, ids)
	assert.Equal(t, 2345, total)
}

func TestSearch_NoHits(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<eSearchResult><Count>0</Count><RetMax>0</RetMax><RetStart>0</RetStart><IdList/></eSearchResult>`)
	}))
	defer ts.Close()

	ids, total, err := testClient(ts).Search(context.Background(), "zzzz", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Zero(t, total)
}

func TestSearch_EntrezError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<eSearchResult><ERROR>Invalid query</ERROR></eSearchResult>`)
	}))
	defer ts.Close()

	_, _, err := testClient(ts).Search(context.Background(), "(", 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid query")
}

func TestSearch_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, _, err := testClient(ts).Search(context.Background(), "Cancer", 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestFetchText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/efetch.fcgi", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		q := r.PostForm
		assert.Equal(t, "gds", q.Get("db"))
		assert.Equal(t, "1,2", q.Get("id"))
		assert.Equal(t, "full", q.Get("rettype"))
		assert.Equal(t, "text", q.Get("retmode"))
		assert.Equal(t, "someone@example.org", q.Get("email"))
		assert.Equal(t, "trialscout", q.Get("tool"))
		assert.Equal(t, "k3y", q.Get("api_key"))
		fmt.Fprint(w, "1. Tumour profiling\nSeries\t\tAccession: GSE123456\tID: 200123456\n")
	}))
	defer ts.Close()

	text, err := testClient(ts).FetchText(context.Background(), []string{"1", "2"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(text, "GSE123456"))
}

func TestFetchText_FullPageInBody(t *testing.T) {
	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = strconv.Itoa(200000000 + i)
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.URL.RawQuery, "ids must not be sent in the request line")
		assert.Less(t, len(r.RequestURI), 100)
		assert.NoError(t, r.ParseForm())
		got := strings.Split(r.PostForm.Get("id"), ",")
		assert.Len(t, got, 1000)
		assert.Equal(t, "200000999", got[999])
		assert.Equal(t, "full", r.PostForm.Get("rettype"))
		fmt.Fprint(w, "Accession: GSE123456")
	}))
	defer ts.Close()

	text, err := testClient(ts).FetchText(context.Background(), ids)
	require.NoError(t, err)
	assert.Contains(t, text, "GSE123456")
}

func TestFetchText_EmptyIDs(t *testing.T) {
	text, err := (&Client{}).FetchText(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}
