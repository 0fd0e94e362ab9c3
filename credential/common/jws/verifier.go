package jws

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	_ "crypto/sha256"
	_ "crypto/sha512"
)

// ErrSignatureVerification is returned when a signature does not match the
// signing input under the given key.
var ErrSignatureVerification = errors.New("signature verification failed")

// SignatureVerifier checks a raw signature over a signing input. The codec
// never hard-codes a curve; new algorithms plug in through this interface
// without touching decode logic.
type SignatureVerifier interface {
	Verify(alg Algorithm, signingInput, signature, publicKey []byte) error
}

// EdDSAVerifier verifies Ed25519 signatures.
type EdDSAVerifier struct{}

// Verify implements SignatureVerifier.
func (EdDSAVerifier) Verify(alg Algorithm, signingInput, signature, publicKey []byte) error {
	if alg != EdDSA {
		return fmt.Errorf("eddsa: unsupported algorithm %q", alg)
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("eddsa: invalid public key size %d", len(publicKey))
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), signingInput, signature) {
		return fmt.Errorf("eddsa: %w", ErrSignatureVerification)
	}
	return nil
}

// ECDSAVerifier verifies ES256, ES384 and ES256K signatures. Signatures are
// fixed-width r||s per RFC 7518; secp256k1 signatures are low-S normalized
// before the library call.
type ECDSAVerifier struct{}

// Verify implements SignatureVerifier.
func (ECDSAVerifier) Verify(alg Algorithm, signingInput, signature, publicKey []byte) error {
	switch alg {
	case ES256:
		return verifyNIST(elliptic.P256(), crypto.SHA256, 32, signingInput, signature, publicKey)
	case ES384:
		return verifyNIST(elliptic.P384(), crypto.SHA384, 48, signingInput, signature, publicKey)
	case ES256K:
		return verifySecp256k1(signingInput, signature, publicKey)
	default:
		return fmt.Errorf("ecdsa: unsupported algorithm %q", alg)
	}
}

func verifyNIST(curve elliptic.Curve, hash crypto.Hash, keySize int, signingInput, signature, publicKey []byte) error {
	x, y := elliptic.Unmarshal(curve, publicKey)
	if x == nil {
		return fmt.Errorf("ecdsa: invalid public key bytes")
	}
	pubKey := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}

	if len(signature) != 2*keySize {
		return fmt.Errorf("ecdsa: invalid signature size %d", len(signature))
	}

	hasher := hash.New()
	if _, err := hasher.Write(signingInput); err != nil {
		return fmt.Errorf("ecdsa: hash error: %w", err)
	}
	digest := hasher.Sum(nil)

	r := new(big.Int).SetBytes(signature[:keySize])
	s := new(big.Int).SetBytes(signature[keySize:])
	if r.Sign() == 0 || s.Sign() == 0 {
		return fmt.Errorf("ecdsa: invalid signature format")
	}

	if !ecdsa.Verify(pubKey, digest, r, s) {
		return fmt.Errorf("ecdsa: %w", ErrSignatureVerification)
	}
	return nil
}

func verifySecp256k1(signingInput, signature, publicKey []byte) error {
	if len(signature) != 64 {
		return fmt.Errorf("es256k: invalid signature size %d", len(signature))
	}

	// Accept compressed (33-byte) and uncompressed (65-byte) keys; the
	// verification call takes the compressed form.
	switch len(publicKey) {
	case 33:
	case 65:
		parsed, err := btcec.ParsePubKey(publicKey)
		if err != nil {
			return fmt.Errorf("es256k: invalid public key: %w", err)
		}
		publicKey = parsed.SerializeCompressed()
	default:
		return fmt.Errorf("es256k: invalid public key size %d", len(publicKey))
	}

	digest := sha256Digest(signingInput)
	normalized := normalizeLowS(signature)

	if !ethcrypto.VerifySignature(publicKey, digest, normalized) {
		return fmt.Errorf("es256k: %w", ErrSignatureVerification)
	}
	return nil
}

// normalizeLowS maps a 64-byte r||s signature to its canonical low-S form.
// Verification libraries that enforce malleability protection reject high-S
// signatures, so both halves of the malleable pair must verify identically.
func normalizeLowS(signature []byte) []byte {
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(signature[32:]); overflow {
		return signature
	}
	if !s.IsOverHalfOrder() {
		return signature
	}

	s.Negate()
	normalized := make([]byte, 64)
	copy(normalized, signature[:32])
	sBytes := s.Bytes()
	copy(normalized[32:], sBytes[:])
	return normalized
}

func sha256Digest(data []byte) []byte {
	hasher := crypto.SHA256.New()
	hasher.Write(data)
	return hasher.Sum(nil)
}

// DefaultVerifier dispatches to the EdDSA and ECDSA verifiers by algorithm.
type DefaultVerifier struct {
	eddsa EdDSAVerifier
	ecdsa ECDSAVerifier
}

// NewDefaultVerifier returns a verifier covering every supported algorithm.
func NewDefaultVerifier() *DefaultVerifier {
	return &DefaultVerifier{}
}

// Verify implements SignatureVerifier.
func (v *DefaultVerifier) Verify(alg Algorithm, signingInput, signature, publicKey []byte) error {
	switch alg {
	case EdDSA:
		return v.eddsa.Verify(alg, signingInput, signature, publicKey)
	case ES256, ES384, ES256K:
		return v.ecdsa.Verify(alg, signingInput, signature, publicKey)
	default:
		return fmt.Errorf("unsupported JWS algorithm %q", alg)
	}
}
