package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pilacorp/go-identity-sdk/revocation"
)

// StatusListFetcher retrieves a status list credential by its URL. A single
// list is the source of truth for a block of indices, so implementations
// should cache: many credentials reference the same list.
type StatusListFetcher interface {
	FetchStatusList(ctx context.Context, url string) (*revocation.StatusListCredential, error)
}

// HTTPStatusListFetcher fetches status list credentials over HTTP and caches
// them for a configurable TTL.
type HTTPStatusListFetcher struct {
	client *http.Client

	mu    sync.RWMutex
	ttl   time.Duration
	cache map[string]cachedStatusList
}

type cachedStatusList struct {
	credential *revocation.StatusListCredential
	expires    time.Time
}

// StatusListFetcherOpt configures an HTTPStatusListFetcher.
type StatusListFetcherOpt func(*HTTPStatusListFetcher)

// WithStatusListHTTPClient overrides the underlying HTTP client.
func WithStatusListHTTPClient(client *http.Client) StatusListFetcherOpt {
	return func(f *HTTPStatusListFetcher) {
		f.client = client
	}
}

// WithStatusListCacheTTL sets how long fetched lists are served from cache.
// A zero TTL disables caching.
func WithStatusListCacheTTL(ttl time.Duration) StatusListFetcherOpt {
	return func(f *HTTPStatusListFetcher) {
		f.ttl = ttl
	}
}

// NewHTTPStatusListFetcher creates a status list fetcher with a sensible
// default timeout, traced transport, and a short cache.
func NewHTTPStatusListFetcher(opts ...StatusListFetcherOpt) *HTTPStatusListFetcher {
	f := &HTTPStatusListFetcher{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		ttl:   time.Minute,
		cache: make(map[string]cachedStatusList),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchStatusList implements StatusListFetcher.
func (f *HTTPStatusListFetcher) FetchStatusList(ctx context.Context, url string) (*revocation.StatusListCredential, error) {
	if url == "" {
		return nil, fmt.Errorf("statusListCredential URL is empty")
	}

	if cred, ok := f.cached(url); ok {
		return cred, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status list request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call status list credential endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status list credential API returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status list credential response body: %w", err)
	}

	var cred revocation.StatusListCredential
	if err := json.Unmarshal(body, &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status list credential JSON: %w", err)
	}
	if cred.CredentialSubject.EncodedList == "" {
		return nil, fmt.Errorf("status list credential has no encodedList")
	}

	f.store(url, &cred)
	return &cred, nil
}

func (f *HTTPStatusListFetcher) cached(url string) (*revocation.StatusListCredential, bool) {
	if f.ttl == 0 {
		return nil, false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	entry, ok := f.cache[url]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.credential, true
}

func (f *HTTPStatusListFetcher) store(url string, cred *revocation.StatusListCredential) {
	if f.ttl == 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.cache[url] = cachedStatusList{
		credential: cred,
		expires:    time.Now().Add(f.ttl),
	}
}
