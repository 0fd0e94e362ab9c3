package did

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"
)

// Verification method types registered for DID documents.
const (
	MethodTypeEd25519VerificationKey2018 = "Ed25519VerificationKey2018"
	MethodTypeEcdsaSecp256k1Key2019      = "EcdsaSecp256k1VerificationKey2019"
	MethodTypeJSONWebKey                 = "JsonWebKey"
	MethodTypeMultikey                   = "Multikey"
)

// JWK is the public part of a JSON Web Key carried by a verification method.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// VerificationMethod is a public key declaration inside a DID document.
// Exactly one key-data representation must be populated, matching Type.
type VerificationMethod struct {
	ID                 *URL   `json:"id"`
	Type               string `json:"type"`
	Controller         DID    `json:"controller"`
	PublicKeyJwk       *JWK   `json:"publicKeyJwk,omitempty"`
	PublicKeyHex       string `json:"publicKeyHex,omitempty"`
	PublicKeyBase58    string `json:"publicKeyBase58,omitempty"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}

// Validate checks the single-representation invariant and that the method id
// carries a fragment.
func (vm *VerificationMethod) Validate() error {
	if vm.ID == nil || vm.ID.Fragment() == "" {
		return fmt.Errorf("verification method id must include a fragment")
	}

	populated := 0
	if vm.PublicKeyJwk != nil {
		populated++
	}
	if vm.PublicKeyHex != "" {
		populated++
	}
	if vm.PublicKeyBase58 != "" {
		populated++
	}
	if vm.PublicKeyMultibase != "" {
		populated++
	}
	if populated != 1 {
		return fmt.Errorf("verification method %q must have exactly one key representation, got %d", vm.ID, populated)
	}
	return nil
}

// PublicKeyBytes decodes the raw public key material from whichever
// representation is populated.
func (vm *VerificationMethod) PublicKeyBytes() ([]byte, error) {
	switch {
	case vm.PublicKeyHex != "":
		raw, err := hex.DecodeString(strings.TrimPrefix(vm.PublicKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to decode publicKeyHex: %w", err)
		}
		return raw, nil
	case vm.PublicKeyBase58 != "":
		raw, err := base58.Decode(vm.PublicKeyBase58)
		if err != nil {
			return nil, fmt.Errorf("failed to decode publicKeyBase58: %w", err)
		}
		return raw, nil
	case vm.PublicKeyMultibase != "":
		_, raw, err := multibase.Decode(vm.PublicKeyMultibase)
		if err != nil {
			return nil, fmt.Errorf("failed to decode publicKeyMultibase: %w", err)
		}
		return raw, nil
	case vm.PublicKeyJwk != nil:
		return vm.PublicKeyJwk.PublicKeyBytes()
	default:
		return nil, fmt.Errorf("verification method %q has no key material", vm.ID)
	}
}

// PublicKeyBytes decodes JWK coordinates into raw key bytes: the Ed25519 key
// for OKP keys, the uncompressed SEC1 point for EC keys.
func (k *JWK) PublicKeyBytes() ([]byte, error) {
	switch k.Kty {
	case "OKP":
		raw, err := base64.RawURLEncoding.DecodeString(k.X)
		if err != nil {
			return nil, fmt.Errorf("failed to decode JWK x coordinate: %w", err)
		}
		return raw, nil
	case "EC":
		x, err := base64.RawURLEncoding.DecodeString(k.X)
		if err != nil {
			return nil, fmt.Errorf("failed to decode JWK x coordinate: %w", err)
		}
		y, err := base64.RawURLEncoding.DecodeString(k.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to decode JWK y coordinate: %w", err)
		}
		raw := make([]byte, 1+len(x)+len(y))
		raw[0] = 0x04
		copy(raw[1:], x)
		copy(raw[1+len(x):], y)
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported JWK key type %q", k.Kty)
	}
}

// MethodRelation is one entry of a verification relationship: either an
// embedded VerificationMethod or a DID URL reference to a method declared in
// the document's verificationMethod set.
type MethodRelation struct {
	Embedded  *VerificationMethod
	Reference *URL
}

// IsEmbedded reports whether the entry carries an embedded method.
func (r *MethodRelation) IsEmbedded() bool {
	return r.Embedded != nil
}

// MarshalJSON implements json.Marshaler: embedded methods serialize as
// objects, references as plain DID URL strings.
func (r MethodRelation) MarshalJSON() ([]byte, error) {
	if r.Embedded != nil {
		return json.Marshal(r.Embedded)
	}
	if r.Reference != nil {
		return json.Marshal(r.Reference.String())
	}
	return nil, fmt.Errorf("method relation has neither embedded method nor reference")
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *MethodRelation) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("method relation is empty")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		ref, err := ParseURL(s)
		if err != nil {
			return fmt.Errorf("failed to parse method reference: %w", err)
		}
		r.Reference = ref
		r.Embedded = nil
		return nil
	}
	var vm VerificationMethod
	if err := json.Unmarshal(data, &vm); err != nil {
		return fmt.Errorf("failed to parse embedded verification method: %w", err)
	}
	r.Embedded = &vm
	r.Reference = nil
	return nil
}
