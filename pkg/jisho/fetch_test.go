package jisho

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchURL(t *testing.T) {
	assert.Equal(t, "https://jisho.org/search/%E5%A4%A7%E5%88%87", SearchURL("", "大切", 1))
	assert.Equal(t, "http://local/search/%E5%A4%A7%E5%88%87%20%23words?page=2", SearchURL("http://local", "大切", 2))
}

func TestFetcherParsesPage(t *testing.T) {
	body, err := os.ReadFile("testdata/search_page.html")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher(zerolog.Nop())
	doc, err := f.Fetch(context.Background(), SearchURL(srv.URL, "大切", 1))
	require.NoError(t, err)
	assert.Len(t, Entries(doc), 4)
}

func TestFetcherRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(zerolog.Nop()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
