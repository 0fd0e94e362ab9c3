package jws

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSegmentCount is returned when a compact token does not have
	// exactly three dot-separated segments.
	ErrInvalidSegmentCount = errors.New("invalid JWS: expected 3 segments")

	// ErrMissingHeader is returned when the protected header segment is empty.
	ErrMissingHeader = errors.New("invalid JWS: missing protected header")
)

// Decoded is a decoded compact JWS whose signature has not yet been checked.
// Claims must not be trusted until Verify succeeds.
type Decoded struct {
	Header       Header
	Claims       []byte
	SigningInput []byte
	Signature    []byte
}

// DecodeCompact splits and decodes a compact JWS token. When expectedAlg is
// non-empty, a token with a different alg header is rejected before any
// signature work.
func DecodeCompact(token string, expectedAlg Algorithm) (*Decoded, error) {
	token = strings.Trim(token, `"`)

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSegmentCount, len(parts))
	}
	if parts[0] == "" {
		return nil, ErrMissingHeader
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWS header segment: %w", err)
	}
	header, err := decodeHeader(headerJSON)
	if err != nil {
		return nil, err
	}
	if expectedAlg != "" && header.Algorithm() != expectedAlg.String() {
		return nil, fmt.Errorf("unexpected JWS algorithm: got %q, want %q", header.Algorithm(), expectedAlg)
	}

	var claims []byte
	if header.B64() {
		claims, err = base64.RawURLEncoding.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to decode JWS payload segment: %w", err)
		}
	} else {
		claims = []byte(parts[1])
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWS signature segment: %w", err)
	}

	return &Decoded{
		Header:       header,
		Claims:       claims,
		SigningInput: []byte(parts[0] + "." + parts[1]),
		Signature:    signature,
	}, nil
}

// Verify checks the token signature against the given raw public key using
// the pluggable verifier. On success the claims may be trusted.
func (d *Decoded) Verify(verifier SignatureVerifier, publicKey []byte) error {
	alg, err := ParseAlgorithm(d.Header.Algorithm())
	if err != nil {
		return err
	}
	return verifier.Verify(alg, d.SigningInput, d.Signature, publicKey)
}
