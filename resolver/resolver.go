// Package resolver dispatches DID resolution to per-method handlers.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pilacorp/go-identity-sdk/did"
)

// ErrUnsupportedMethod is returned when no handler is registered for a DID's
// method.
var ErrUnsupportedMethod = errors.New("no handler registered for DID method")

// HandlerError wraps a failure from a method handler, preserving the
// underlying transport or ledger cause for callers that decide retry policy.
type HandlerError struct {
	Method string
	Cause  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler for method %q failed: %v", e.Method, e.Cause)
}

func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// Handler resolves a DID of one method to its current document. It is the
// sole extension point for adding new DID methods.
type Handler func(ctx context.Context, d did.DID) (*did.Document, error)

// Resolver maps DID method names to handlers. The registry is read-mostly:
// handlers are normally attached at startup, but attachment is safe to race
// with resolution. The resolver imposes no retry, caching or timeout on
// handler calls; those belong to the caller or the handler itself.
type Resolver struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New returns a resolver with no handlers attached.
func New() *Resolver {
	return &Resolver{handlers: make(map[string]Handler)}
}

// AttachHandler registers the handler for a method name. Re-attaching the
// same method name overwrites the previous handler (last write wins).
func (r *Resolver) AttachHandler(method string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[method] = handler
}

// Resolve dispatches on the DID's method and invokes its handler. Handler
// failures are surfaced as *HandlerError wrapping the cause.
func (r *Resolver) Resolve(ctx context.Context, d did.DID) (*did.Document, error) {
	r.mu.RLock()
	handler, ok := r.handlers[d.Method()]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, d.Method())
	}

	doc, err := handler(ctx, d)
	if err != nil {
		return nil, &HandlerError{Method: d.Method(), Cause: err}
	}
	return doc, nil
}

// ResolveString parses a raw DID string and resolves it. Parse failures are
// surfaced as DID parsing errors, distinct from handler failures.
func (r *Resolver) ResolveString(ctx context.Context, s string) (*did.Document, error) {
	d, err := did.Parse(s)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, d)
}
