// Package crypto provides the raw secp256k1 signing primitives used by the
// embedded-proof (Data Integrity) credential path.
package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// KeyToBytes converts a 0x-prefixed hex string to a byte array.
func KeyToBytes(key string) ([]byte, error) {
	if !strings.HasPrefix(key, "0x") {
		return nil, errors.New("key is not in hex format")
	}
	return hex.DecodeString(key[2:])
}

// ParsePrivateKey parses a 32-byte secp256k1 private key.
func ParsePrivateKey(privateKeyBytes []byte) (*ecdsa.PrivateKey, error) {
	if len(privateKeyBytes) != 32 {
		return nil, errors.New("private key must be 32 bytes")
	}
	return ethcrypto.ToECDSA(privateKeyBytes)
}

// SignMessage signs the SHA-256 digest of message with a secp256k1 private
// key and returns the 65-byte recoverable signature in hex.
func SignMessage(privateKey, message []byte) (string, error) {
	hash := sha256.Sum256(message)

	privKey, err := ParsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}

	signature, err := ethcrypto.Sign(hash[:], privKey)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(signature), nil
}

// VerifySignature verifies a secp256k1 signature over the SHA-256 digest of
// message against a 33-byte compressed public key. Both the 65-byte
// recoverable form and the plain 64-byte r||s form are accepted.
func VerifySignature(publicKey, message, signature []byte) bool {
	if len(publicKey) != 33 || len(message) == 0 {
		return false
	}

	hash := sha256.Sum256(message)

	if len(signature) == 64 {
		return ethcrypto.VerifySignature(publicKey, hash[:], signature)
	}
	if len(signature) != 65 {
		return false
	}

	recovered, err := ethcrypto.Ecrecover(hash[:], signature)
	if err != nil {
		return false
	}
	recoveredKey, err := ethcrypto.UnmarshalPubkey(recovered)
	if err != nil {
		return false
	}

	return bytes.Equal(ethcrypto.CompressPubkey(recoveredKey), publicKey)
}
