// Package vp models W3C Verifiable Presentations in compact-JWT form: a
// holder-signed bundle of embedded credential JWTs.
package vp

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pilacorp/go-identity-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-identity-sdk/credential/vc"
)

// PresentationType is the JSON-LD type of a Verifiable Presentation.
const PresentationType = "VerifiablePresentation"

// PresentationContents represents the structured contents of a Presentation.
type PresentationContents struct {
	Context     []interface{}
	ID          string
	Types       []string
	Holder      string
	Credentials []string // embedded credentials, compact JWT form
}

// NewID generates a fresh urn:uuid presentation identifier.
func NewID() string {
	return "urn:uuid:" + uuid.NewString()
}

// PresentationOpt configures presentation processing options.
type PresentationOpt func(*presentationOptions)

type presentationOptions struct {
	keyFragment string
}

// WithKeyFragment sets the verification method fragment used in the JWT kid
// header (default: "key-1").
func WithKeyFragment(fragment string) PresentationOpt {
	return func(p *presentationOptions) {
		p.keyFragment = fragment
	}
}

func getOptions(opts ...PresentationOpt) *presentationOptions {
	options := &presentationOptions{
		keyFragment: "key-1",
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// serializePresentationContents serializes PresentationContents into a JSON map.
func serializePresentationContents(vpc *PresentationContents) (jsonmap.JSONMap, error) {
	if vpc == nil {
		return nil, fmt.Errorf("presentation contents is nil")
	}

	vpJSON := make(jsonmap.JSONMap)
	if len(vpc.Context) > 0 {
		vpJSON["@context"] = vpc.Context
	}
	if vpc.ID != "" {
		vpJSON["id"] = vpc.ID
	}
	if len(vpc.Types) > 0 {
		if len(vpc.Types) == 1 {
			vpJSON["type"] = vpc.Types[0]
		} else {
			vpJSON["type"] = vpc.Types
		}
	}
	if vpc.Holder != "" {
		vpJSON["holder"] = vpc.Holder
	}
	if len(vpc.Credentials) > 0 {
		creds := make([]interface{}, len(vpc.Credentials))
		for i, token := range vpc.Credentials {
			if !vc.IsJWT(token) {
				return nil, fmt.Errorf("embedded credential at index %d is not a compact JWT", i)
			}
			creds[i] = token
		}
		vpJSON["verifiableCredential"] = creds
	}
	return vpJSON, nil
}

// ContentsFromMap parses the JSON form of a presentation.
func ContentsFromMap(m jsonmap.JSONMap) (PresentationContents, error) {
	var contents PresentationContents

	if context, ok := m["@context"].([]interface{}); ok {
		contents.Context = context
	}
	if id, ok := m["id"].(string); ok {
		contents.ID = id
	}
	switch v := m["type"].(type) {
	case string:
		contents.Types = append(contents.Types, v)
	case []interface{}:
		for _, t := range v {
			if typeStr, ok := t.(string); ok {
				contents.Types = append(contents.Types, typeStr)
			}
		}
	}
	if holder, ok := m["holder"].(string); ok {
		contents.Holder = holder
	}

	switch creds := m["verifiableCredential"].(type) {
	case nil:
	case string:
		contents.Credentials = []string{creds}
	case []interface{}:
		for i, raw := range creds {
			token, ok := raw.(string)
			if !ok {
				return PresentationContents{}, fmt.Errorf("embedded credential at index %d must be a compact JWT string, got %T", i, raw)
			}
			contents.Credentials = append(contents.Credentials, token)
		}
	default:
		return PresentationContents{}, fmt.Errorf("unsupported verifiableCredential format: %T", creds)
	}
	return contents, nil
}
