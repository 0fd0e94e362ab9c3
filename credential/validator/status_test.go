package validator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-identity-sdk/revocation"
)

func TestHTTPStatusListFetcher(t *testing.T) {
	listCred, err := revocation.NewStatusListCredential(
		"https://example.com/status/1", "did:example:issuer", revocation.PurposeRevocation, 0)
	require.NoError(t, err)
	require.NoError(t, listCred.Update(func(list *revocation.StatusList2021) error {
		return list.SetEntry(42, true)
	}))

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(listCred))
	}))
	defer server.Close()

	fetcher := NewHTTPStatusListFetcher(WithStatusListCacheTTL(time.Minute))

	fetched, err := fetcher.FetchStatusList(context.Background(), server.URL)
	require.NoError(t, err)

	list, err := fetched.List()
	require.NoError(t, err)

	set, err := list.IsSet(42)
	require.NoError(t, err)
	assert.True(t, set)

	set, err = list.IsSet(41)
	require.NoError(t, err)
	assert.False(t, set)

	// Second fetch is served from cache.
	_, err = fetcher.FetchStatusList(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPStatusListFetcherErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewHTTPStatusListFetcher()

	_, err := fetcher.FetchStatusList(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-200")

	_, err = fetcher.FetchStatusList(context.Background(), "")
	assert.Error(t, err)
}
