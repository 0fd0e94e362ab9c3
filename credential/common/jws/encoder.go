package jws

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// CompactEncoder prepares the signing input for a compact JWS and assembles
// the final token once a signature is available. The encoder never signs;
// signing stays with the caller's key backend.
type CompactEncoder struct {
	protectedB64 string
	payloadPart  string
	b64          bool
}

// NewCompactEncoder validates the header and precomputes the base64url-encoded
// header and payload segments. With b64=false (RFC 7797) the payload is
// embedded raw and must not contain a '.' character.
func NewCompactEncoder(payload []byte, header Header) (*CompactEncoder, error) {
	if err := header.Validate(); err != nil {
		return nil, fmt.Errorf("failed to encode JWS: %w", err)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JWS header: %w", err)
	}

	enc := &CompactEncoder{
		protectedB64: base64.RawURLEncoding.EncodeToString(headerJSON),
		b64:          header.B64(),
	}

	if enc.b64 {
		enc.payloadPart = base64.RawURLEncoding.EncodeToString(payload)
	} else {
		if strings.ContainsRune(string(payload), '.') {
			return nil, fmt.Errorf("unencoded payload must not contain '.'")
		}
		enc.payloadPart = string(payload)
	}

	return enc, nil
}

// SigningInput returns the bytes to be signed: base64url(header) "." payload.
func (e *CompactEncoder) SigningInput() []byte {
	return []byte(e.protectedB64 + "." + e.payloadPart)
}

// IntoJWS assembles the compact serialization from the given signature.
func (e *CompactEncoder) IntoJWS(signature []byte) string {
	return e.protectedB64 + "." + e.payloadPart + "." + base64.RawURLEncoding.EncodeToString(signature)
}
