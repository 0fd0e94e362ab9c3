package did

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPath is returned when a DID URL path does not start with '/'.
	ErrInvalidPath = errors.New("invalid DID URL path, must start with '/'")

	// ErrInvalidQuery is returned when a DID URL query does not start with '?'.
	ErrInvalidQuery = errors.New("invalid DID URL query, must start with '?'")

	// ErrInvalidFragment is returned when a DID URL fragment does not start with '#'.
	ErrInvalidFragment = errors.New("invalid DID URL fragment, must start with '#'")
)

// URL is a DID URL: a DID plus optional path, query and fragment components.
// Components are stored without their leading delimiter.
type URL struct {
	did      DID
	path     string
	query    string
	fragment string
}

// ParseURL parses a DID URL string.
func ParseURL(s string) (*URL, error) {
	rest := s
	var fragment, query, path string

	if idx := strings.Index(rest, "#"); idx >= 0 {
		fragment = rest[idx+1:]
		rest = rest[:idx]
	}
	if idx := strings.Index(rest, "?"); idx >= 0 {
		query = rest[idx+1:]
		rest = rest[:idx]
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		path = rest[idx+1:]
		rest = rest[:idx]
	}

	d, err := Parse(rest)
	if err != nil {
		return nil, err
	}

	return &URL{did: d, path: path, query: query, fragment: fragment}, nil
}

// MustParseURL is like ParseURL but panics on invalid input.
func MustParseURL(s string) *URL {
	u, err := ParseURL(s)
	if err != nil {
		panic(err)
	}
	return u
}

// NewURL returns a DID URL with no path, query or fragment components.
func NewURL(d DID) *URL {
	return &URL{did: d}
}

// DID returns the DID component.
func (u *URL) DID() DID {
	return u.did
}

// Path returns the path component without the leading '/', or "" if absent.
func (u *URL) Path() string {
	return u.path
}

// Query returns the query component without the leading '?', or "" if absent.
func (u *URL) Query() string {
	return u.query
}

// Fragment returns the fragment component without the leading '#', or "" if absent.
func (u *URL) Fragment() string {
	return u.fragment
}

// Join returns a copy of u with the delimiter-prefixed segment applied.
// Joining a segment resets every component to its right: a path clears query
// and fragment, a query clears the fragment, a fragment overwrites only the
// fragment. The segment must start with '/', '?' or '#'.
func (u *URL) Join(segment string) (*URL, error) {
	if segment == "" {
		return nil, fmt.Errorf("failed to join DID URL segment: segment is empty")
	}

	joined := *u
	switch segment[0] {
	case '/':
		joined.path = segment[1:]
		joined.query = ""
		joined.fragment = ""
	case '?':
		joined.query = segment[1:]
		joined.fragment = ""
	case '#':
		joined.fragment = segment[1:]
	default:
		return nil, fmt.Errorf("failed to join DID URL segment %q: %w", segment, ErrInvalidPath)
	}

	return &joined, nil
}

// String returns the DID URL string form.
func (u *URL) String() string {
	var b strings.Builder
	b.WriteString(u.did.String())
	if u.path != "" {
		b.WriteByte('/')
		b.WriteString(u.path)
	}
	if u.query != "" {
		b.WriteByte('?')
		b.WriteString(u.query)
	}
	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}
	return b.String()
}

// Equal reports whether two DID URLs have the same string form.
func (u *URL) Equal(other *URL) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.String() == other.String()
}

// MarshalJSON implements json.Marshaler.
func (u *URL) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *URL) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseURL(s)
	if err != nil {
		return err
	}
	*u = *parsed
	return nil
}
