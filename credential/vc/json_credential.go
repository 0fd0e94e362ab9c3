package vc

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pilacorp/go-identity-sdk/credential/common/crypto"
	"github.com/pilacorp/go-identity-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-identity-sdk/credential/common/proof"
)

// JSONCredential is a credential in embedded-proof (Data Integrity) form:
// the credential JSON carries its proof inline instead of being wrapped in
// a JWT.
type JSONCredential struct {
	data jsonmap.JSONMap
}

// NewJSONCredential builds an embedded-proof credential from structured
// contents. A missing credential ID is filled with a fresh urn:uuid.
func NewJSONCredential(vcc CredentialContents, opts ...CredentialOpt) (*JSONCredential, error) {
	options := getOptions(opts...)

	if vcc.ID == "" {
		vcc.ID = NewID()
	}

	m, err := serializeCredentialContents(&vcc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize credential contents: %w", err)
	}

	if options.validateSchema {
		if err := ValidateSchema(m); err != nil {
			return nil, fmt.Errorf("failed to validate credential: %w", err)
		}
	}

	return &JSONCredential{data: m}, nil
}

// ParseJSONCredential parses a JSON embedded-proof credential.
func ParseJSONCredential(raw []byte, opts ...CredentialOpt) (*JSONCredential, error) {
	options := getOptions(opts...)

	m, err := jsonmap.FromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credential JSON: %w", err)
	}

	if options.validateSchema {
		if err := ValidateSchema(m); err != nil {
			return nil, fmt.Errorf("failed to validate credential: %w", err)
		}
	}

	return &JSONCredential{data: m}, nil
}

// AddProof canonicalizes the credential, signs the digest with a secp256k1
// private key (0x-prefixed hex) and attaches an ecdsa-rdfc-2019 Data
// Integrity proof.
func (c *JSONCredential) AddProof(priv, verificationMethod string) error {
	if verificationMethod == "" {
		return fmt.Errorf("verification method is required")
	}

	keyBytes, err := crypto.KeyToBytes(priv)
	if err != nil {
		return fmt.Errorf("failed to decode private key: %w", err)
	}

	digest, err := c.data.Canonicalize()
	if err != nil {
		return fmt.Errorf("failed to canonicalize credential: %w", err)
	}

	signature, err := crypto.SignMessage(keyBytes, digest)
	if err != nil {
		return fmt.Errorf("failed to sign credential: %w", err)
	}

	p := proof.Proof{
		Type:               "DataIntegrityProof",
		Created:            time.Now().UTC().Format(time.RFC3339),
		VerificationMethod: verificationMethod,
		ProofPurpose:       "assertionMethod",
		Cryptosuite:        "ecdsa-rdfc-2019",
		ProofValue:         signature,
	}
	c.data["proof"] = proof.Serialize([]proof.Proof{p})
	return nil
}

// Verify checks the embedded proof against a 33-byte compressed secp256k1
// public key.
func (c *JSONCredential) Verify(publicKey []byte) error {
	raw, ok := c.data["proof"]
	if !ok {
		return fmt.Errorf("credential has no proof")
	}

	p, err := proof.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse proof: %w", err)
	}

	signature, err := hex.DecodeString(p.ProofValue)
	if err != nil {
		return fmt.Errorf("failed to decode proof value: %w", err)
	}

	digest, err := c.data.Canonicalize()
	if err != nil {
		return fmt.Errorf("failed to canonicalize credential: %w", err)
	}

	if !crypto.VerifySignature(publicKey, digest, signature) {
		return fmt.Errorf("credential proof verification failed")
	}
	return nil
}

// Proof returns the parsed embedded proof.
func (c *JSONCredential) Proof() (proof.Proof, error) {
	raw, ok := c.data["proof"]
	if !ok {
		return proof.Proof{}, fmt.Errorf("credential has no proof")
	}
	return proof.Parse(raw)
}

// Serialize returns the credential JSON including any proof.
func (c *JSONCredential) Serialize() ([]byte, error) {
	return c.data.ToJSON()
}

// Payload returns the credential as a JSON map.
func (c *JSONCredential) Payload() jsonmap.JSONMap {
	return c.data
}

// Contents parses the credential into its structured form.
func (c *JSONCredential) Contents() (CredentialContents, error) {
	return ContentsFromMap(c.data)
}
