// Package did implements Decentralized Identifiers and DID documents as
// defined by the W3C DID Core specification.
package did

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme is the URI scheme shared by all DIDs.
const Scheme = "did"

var (
	// ErrInvalidScheme is returned when a DID string does not start with "did:".
	ErrInvalidScheme = errors.New("invalid DID scheme, must start with 'did:'")

	// ErrInvalidMethodName is returned when the method segment is empty or
	// contains characters outside [a-z0-9].
	ErrInvalidMethodName = errors.New("invalid DID method name")

	// ErrInvalidMethodID is returned when the method-specific id is empty or
	// contains invalid characters.
	ErrInvalidMethodID = errors.New("invalid DID method-specific id")
)

// DID is a parsed Decentralized Identifier of the form
// did:<method>:<method-specific-id>. The zero value is not a valid DID;
// construct one with Parse or MustParse. DIDs are immutable value types,
// compared by their normalized string form.
type DID struct {
	method   string
	methodID string
}

// Parse parses a DID string into a DID value.
func Parse(s string) (DID, error) {
	rest, ok := strings.CutPrefix(s, Scheme+":")
	if !ok {
		return DID{}, fmt.Errorf("failed to parse DID %q: %w", s, ErrInvalidScheme)
	}

	method, methodID, ok := strings.Cut(rest, ":")
	if !ok {
		return DID{}, fmt.Errorf("failed to parse DID %q: %w", s, ErrInvalidMethodID)
	}

	if !isValidMethodName(method) {
		return DID{}, fmt.Errorf("failed to parse DID %q: %w", s, ErrInvalidMethodName)
	}
	if !isValidMethodID(methodID) {
		return DID{}, fmt.Errorf("failed to parse DID %q: %w", s, ErrInvalidMethodID)
	}

	return DID{method: method, methodID: methodID}, nil
}

// MustParse is like Parse but panics on invalid input. Intended for
// tests and package-level variables with known-good literals.
func MustParse(s string) DID {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Method returns the DID method name, e.g. "example" for "did:example:123".
func (d DID) Method() string {
	return d.method
}

// MethodID returns the method-specific identifier.
func (d DID) MethodID() string {
	return d.methodID
}

// String returns the normalized DID string form.
func (d DID) String() string {
	if d.IsZero() {
		return ""
	}
	return Scheme + ":" + d.method + ":" + d.methodID
}

// IsZero reports whether d is the zero value.
func (d DID) IsZero() bool {
	return d.method == "" && d.methodID == ""
}

// Equal reports whether two DIDs have the same normalized form.
func (d DID) Equal(other DID) bool {
	return d.method == other.method && d.methodID == other.methodID
}

// Compare orders DIDs lexicographically by their string form.
func (d DID) Compare(other DID) int {
	return strings.Compare(d.String(), other.String())
}

// MarshalJSON implements json.Marshaler.
func (d DID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// isValidMethodName reports whether s is a non-empty lowercase ASCII
// alphanumeric method name per the DID syntax.
func isValidMethodName(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// isValidMethodID reports whether s is a non-empty method-specific id made of
// idchar / ":" segments per the DID syntax. Percent-encoded triplets are
// accepted without decoding.
func isValidMethodID(s string) bool {
	if s == "" || strings.HasSuffix(s, ":") {
		return false
	}
	for _, c := range s {
		if !isIDChar(c) && c != ':' && c != '%' {
			return false
		}
	}
	return true
}

func isIDChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '.' || c == '-' || c == '_'
}
