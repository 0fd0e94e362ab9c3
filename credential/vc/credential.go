// Package vc models W3C Verifiable Credentials and their compact-JWT and
// embedded-proof serializations.
package vc

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// JSON-LD context and type constants for Verifiable Credentials.
const (
	ContextV1 = "https://www.w3.org/2018/credentials/v1"
	ContextV2 = "https://www.w3.org/ns/credentials/v2"

	CredentialType = "VerifiableCredential"
)

// CredentialContents represents the structured contents of a credential.
type CredentialContents struct {
	Context          []interface{} // JSON-LD contexts
	ID               string        // Credential identifier
	Types            []string      // Credential types
	Issuer           string        // Issuer DID
	ValidFrom        time.Time     // Issuance date
	ValidUntil       time.Time     // Expiration date
	CredentialStatus []Status      // Credential status entries
	Subject          []Subject     // Credential subjects
	Schemas          []Schema      // Credential schemas
	NonTransferable  bool          // Subject binding flag
}

// Status represents the credentialStatus field as per W3C Verifiable
// Credentials. StatusList2021 entries carry the statusList* fields;
// RevocationBitmap2022 entries carry revocationBitmapIndex.
type Status struct {
	ID                    string `json:"id,omitempty"`
	Type                  string `json:"type"`
	StatusPurpose         string `json:"statusPurpose,omitempty"`
	StatusListIndex       string `json:"statusListIndex,omitempty"`
	StatusListCredential  string `json:"statusListCredential,omitempty"`
	RevocationBitmapIndex string `json:"revocationBitmapIndex,omitempty"`
}

// Subject represents the credentialSubject field.
type Subject struct {
	ID           string                 // Subject identifier
	CustomFields map[string]interface{} // Additional subject data
}

// Schema represents a credential schema with an ID and type.
type Schema struct {
	ID   string // Schema identifier
	Type string // Schema type
}

// NewID generates a fresh urn:uuid credential identifier.
func NewID() string {
	return "urn:uuid:" + uuid.NewString()
}

// CredentialOpt configures credential processing options.
type CredentialOpt func(*credentialOptions)

// credentialOptions holds configuration for credential processing.
type credentialOptions struct {
	validateSchema bool
	keyFragment    string
}

// WithSchemaValidation enables credentialSchema validation during credential
// construction and parsing.
func WithSchemaValidation() CredentialOpt {
	return func(c *credentialOptions) {
		c.validateSchema = true
	}
}

// WithKeyFragment sets the verification method fragment used in the JWT kid
// header (default: "key-1").
func WithKeyFragment(fragment string) CredentialOpt {
	return func(c *credentialOptions) {
		c.keyFragment = fragment
	}
}

func getOptions(opts ...CredentialOpt) *credentialOptions {
	options := &credentialOptions{
		keyFragment: "key-1",
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// IsJWT reports whether the raw value looks like a compact JWT.
func IsJWT(s string) bool {
	regex := `^[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*$`
	match, _ := regexp.MatchString(regex, s)
	return match
}

// ParseCredential parses a credential from either its compact-JWT or its
// JSON embedded-proof form.
func ParseCredential(rawCredential []byte, opts ...CredentialOpt) (interface{}, error) {
	if len(rawCredential) == 0 {
		return nil, fmt.Errorf("credential is empty")
	}

	if json.Valid(rawCredential) {
		return ParseJSONCredential(rawCredential, opts...)
	}

	if valStr := string(rawCredential); IsJWT(valStr) {
		return ParseJWTCredential(valStr, opts...)
	}

	return nil, fmt.Errorf("failed to parse credential: not a valid JWT or embedded credential")
}
