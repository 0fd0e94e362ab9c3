package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/pilacorp/go-identity-sdk/did"
)

// HTTPHandler resolves DIDs through a remote DID resolver endpoint
// (GET <baseURL>/<did>). Concurrent resolutions of the same DID are coalesced
// into a single in-flight request, and resolved documents are cached until
// the TTL expires.
type HTTPHandler struct {
	baseURL string
	client  *http.Client
	group   singleflight.Group
	cache   *documentCache
}

// HTTPHandlerOpt configures an HTTPHandler.
type HTTPHandlerOpt func(*HTTPHandler)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) HTTPHandlerOpt {
	return func(h *HTTPHandler) {
		h.client = client
	}
}

// WithCacheTTL sets how long resolved documents are served from cache.
// A zero TTL disables caching.
func WithCacheTTL(ttl time.Duration) HTTPHandlerOpt {
	return func(h *HTTPHandler) {
		h.cache = newDocumentCache(ttl)
	}
}

// NewHTTPHandler creates an HTTP-backed resolution handler with a sensible
// default timeout and traced transport.
func NewHTTPHandler(baseURL string, opts ...HTTPHandlerOpt) *HTTPHandler {
	h := &HTTPHandler{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache: newDocumentCache(0),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Resolve implements Handler.
func (h *HTTPHandler) Resolve(ctx context.Context, d did.DID) (*did.Document, error) {
	key := d.String()

	if doc, ok := h.cache.get(key); ok {
		return doc, nil
	}

	// The in-flight fetch serves every coalesced caller, so it must not die
	// with the first caller's context. The client timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	result, err, _ := h.group.Do(key, func() (interface{}, error) {
		doc, err := h.fetch(fetchCtx, d)
		if err != nil {
			return nil, err
		}
		h.cache.put(key, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*did.Document), nil
}

// Invalidate drops a cached document, forcing the next Resolve to re-fetch.
func (h *HTTPHandler) Invalidate(d did.DID) {
	h.cache.delete(d.String())
}

func (h *HTTPHandler) fetch(ctx context.Context, d did.DID) (*did.Document, error) {
	apiURL := h.baseURL + "/" + url.PathEscape(d.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build DID resolver request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request to DID resolver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DID resolver API returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from DID resolver: %w", err)
	}

	var doc did.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DID document JSON: %w", err)
	}

	return &doc, nil
}
