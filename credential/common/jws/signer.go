package jws

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Signer issues signed compact JWTs for verifiable documents. The validation
// engine never signs; this is the issuer-side counterpart used when building
// credentials, presentations and status list credentials.
type Signer struct {
	privKeyHex string
	keyID      string
}

// NewSigner creates an ES256K signer. keyID becomes the kid header and
// should be the DID URL of the issuer's verification method.
func NewSigner(privKeyHex, keyID string) *Signer {
	return &Signer{
		privKeyHex: privKeyHex,
		keyID:      keyID,
	}
}

// SignClaims builds and signs a JWT over the given claim set.
func (s *Signer) SignClaims(claims map[string]interface{}) (string, error) {
	token := jwtlib.NewWithClaims(MethodES256K, jwtlib.MapClaims(claims))
	token.Header["typ"] = "JWT"
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privKeyHex)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// SigningInput builds the unsigned header.payload part for the claim set,
// for callers that sign through an external key backend.
func (s *Signer) SigningInput(claims map[string]interface{}) ([]byte, error) {
	token := jwtlib.NewWithClaims(MethodES256K, jwtlib.MapClaims(claims))
	token.Header["typ"] = "JWT"
	token.Header["kid"] = s.keyID

	signingInput, err := token.SigningString()
	if err != nil {
		return nil, fmt.Errorf("failed to get signing input: %w", err)
	}

	return []byte(signingInput), nil
}

// SignString signs an already-assembled header.payload string and returns the
// base64url signature segment.
func (s *Signer) SignString(signingInput string) (string, error) {
	sig, err := MethodES256K.Sign(signingInput, s.privKeyHex)
	if err != nil {
		return "", fmt.Errorf("failed to sign signing input: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

// PublicKey returns the public key associated with this signer.
func (s *Signer) PublicKey() (*ecdsa.PublicKey, error) {
	privKeyBytes, err := hex.DecodeString(s.privKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}

	privKey, err := ethcrypto.ToECDSA(privKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &privKey.PublicKey, nil
}

// KeyID returns the kid header value used by this signer.
func (s *Signer) KeyID() string {
	return s.keyID
}
