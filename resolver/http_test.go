package resolver

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

	"github.com/pilacorp/go-identity-sdk/did"
)

func newResolverServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)

		requested, err := did.Parse(r.URL.Path[1:])
		if err != nil {
			http.Error(w, "invalid DID", http.StatusBadRequest)
			return
		}

		doc := did.NewDocument(requested)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			t.Errorf("failed to encode document: %v", err)
		}
	}))
}

func TestHTTPHandlerResolve(t *testing.T) {
	var hits int32
	server := newResolverServer(t, &hits)
	defer server.Close()

	handler := NewHTTPHandler(server.URL)

	doc, err := handler.Resolve(context.Background(), did.MustParse("did:web:example.com"))
	require.NoError(t, err)
	assert.Equal(t, "did:web:example.com", doc.ID.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPHandlerResolveSurvivesCallerCancellation(t *testing.T) {
	var hits int32
	server := newResolverServer(t, &hits)
	defer server.Close()

	handler := NewHTTPHandler(server.URL)

	// The in-flight request is shared across coalesced callers, so one
	// caller's cancellation must not abort it for the others.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc, err := handler.Resolve(ctx, did.MustParse("did:web:example.com"))
	require.NoError(t, err)
	assert.Equal(t, "did:web:example.com", doc.ID.String())
}

func TestHTTPHandlerResolveNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	handler := NewHTTPHandler(server.URL)

	_, err := handler.Resolve(context.Background(), did.MustParse("did:web:missing.example.com"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-200")
}

func TestHTTPHandlerCache(t *testing.T) {
	var hits int32
	server := newResolverServer(t, &hits)
	defer server.Close()

	handler := NewHTTPHandler(server.URL, WithCacheTTL(time.Minute))
	d := did.MustParse("did:web:cached.example.com")

	_, err := handler.Resolve(context.Background(), d)
	require.NoError(t, err)
	_, err = handler.Resolve(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second resolution must be served from cache")

	handler.Invalidate(d)

	_, err = handler.Resolve(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "invalidation must force a re-fetch")
}

func TestHTTPHandlerNoCacheByDefault(t *testing.T) {
	var hits int32
	server := newResolverServer(t, &hits)
	defer server.Close()

	handler := NewHTTPHandler(server.URL)
	d := did.MustParse("did:web:uncached.example.com")

	_, err := handler.Resolve(context.Background(), d)
	require.NoError(t, err)
	_, err = handler.Resolve(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestHTTPHandlerAsResolverHandler(t *testing.T) {
	var hits int32
	server := newResolverServer(t, &hits)
	defer server.Close()

	r := New()
	r.AttachHandler("web", NewHTTPHandler(server.URL).Resolve)

	doc, err := r.ResolveString(context.Background(), "did:web:issuer.example.com")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "did:web:issuer.example.com", doc.ID.String())
}
