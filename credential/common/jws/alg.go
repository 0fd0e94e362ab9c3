// Package jws implements compact JWS serialization (RFC 7515), decoding and
// pluggable signature verification for the token-based credential formats.
package jws

import "fmt"

// Algorithm identifies a JWS signature algorithm.
type Algorithm string

// Supported algorithms.
const (
	EdDSA  Algorithm = "EdDSA"
	ES256  Algorithm = "ES256"
	ES384  Algorithm = "ES384"
	ES256K Algorithm = "ES256K"
)

// ParseAlgorithm validates an alg header value.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case EdDSA, ES256, ES384, ES256K:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unsupported JWS algorithm %q", s)
	}
}

func (a Algorithm) String() string {
	return string(a)
}
