package jws

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderValidate(t *testing.T) {
	tests := []struct {
		name        string
		header      Header
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid minimal header",
			header: NewHeader(EdDSA),
		},
		{
			name:        "missing alg",
			header:      Header{"kid": "did:example:123#key-1"},
			expectError: true,
			errorMsg:    "unsupported JWS algorithm",
		},
		{
			name:        "unsupported alg",
			header:      Header{"alg": "HS256"},
			expectError: true,
			errorMsg:    "unsupported JWS algorithm",
		},
		{
			name:        "empty crit",
			header:      Header{"alg": "EdDSA", "crit": []interface{}{}},
			expectError: true,
			errorMsg:    "non-empty array",
		},
		{
			name:        "registered header in crit",
			header:      Header{"alg": "EdDSA", "crit": []interface{}{"alg"}},
			expectError: true,
			errorMsg:    "registered header",
		},
		{
			name:        "duplicate crit entry",
			header:      Header{"alg": "EdDSA", "b64": false, "crit": []interface{}{"b64", "b64"}},
			expectError: true,
			errorMsg:    "duplicate entry",
		},
		{
			name:        "crit entry not present",
			header:      Header{"alg": "EdDSA", "crit": []interface{}{"b64"}},
			expectError: true,
			errorMsg:    "not present",
		},
		{
			name:        "unknown critical extension",
			header:      Header{"alg": "EdDSA", "exp": 1000, "crit": []interface{}{"exp"}},
			expectError: true,
			errorMsg:    "unsupported critical extension",
		},
		{
			name:        "b64 without crit",
			header:      Header{"alg": "EdDSA", "b64": false},
			expectError: true,
			errorMsg:    "must be listed in crit",
		},
		{
			name:   "b64 listed in crit",
			header: Header{"alg": "EdDSA", "b64": false, "crit": []interface{}{"b64"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.header.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCompactRoundTripEdDSA(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	header := NewHeader(EdDSA)
	header.SetKid("did:example:123#key-1")
	payload := []byte(`{"hello":"world"}`)

	enc, err := NewCompactEncoder(payload, header)
	require.NoError(t, err)

	signature := ed25519.Sign(priv, enc.SigningInput())
	token := enc.IntoJWS(signature)

	decoded, err := DecodeCompact(token, EdDSA)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded.Claims)
	assert.Equal(t, "did:example:123#key-1", decoded.Header.Kid())

	require.NoError(t, decoded.Verify(NewDefaultVerifier(), pub))
}

func TestDecodeCompactErrors(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		errorMsg string
	}{
		{
			name:     "two segments",
			token:    "aaaa.bbbb",
			errorMsg: "expected 3 segments",
		},
		{
			name:     "four segments",
			token:    "a.b.c.d",
			errorMsg: "expected 3 segments",
		},
		{
			name:     "empty header",
			token:    ".bbbb.cccc",
			errorMsg: "missing protected header",
		},
		{
			name:     "bad base64 header",
			token:    "!!!.bbbb.cccc",
			errorMsg: "failed to decode JWS header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCompact(tt.token, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestDecodeCompactAlgMismatch(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	enc, err := NewCompactEncoder([]byte("payload"), NewHeader(EdDSA))
	require.NoError(t, err)
	token := enc.IntoJWS(ed25519.Sign(priv, enc.SigningInput()))

	_, err = DecodeCompact(token, ES256)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected JWS algorithm")
}

func TestDecodeCompactUnknownCriticalExtension(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	// A signer can mark arbitrary semantics as critical; a verifier that
	// does not implement them must reject the token rather than validate
	// it while ignoring them.
	headerJSON := []byte(`{"alg":"EdDSA","crit":["exp"],"exp":1000}`)
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"hello":"world"}`))
	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + payload
	signature := ed25519.Sign(priv, []byte(signingInput))
	token := signingInput + "." + base64.RawURLEncoding.EncodeToString(signature)

	_, err = DecodeCompact(token, EdDSA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported critical extension")
}

func TestVerifyTamperedSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	enc, err := NewCompactEncoder([]byte("payload"), NewHeader(EdDSA))
	require.NoError(t, err)

	signature := ed25519.Sign(priv, enc.SigningInput())
	signature[0] ^= 0xFF
	token := enc.IntoJWS(signature)

	decoded, err := DecodeCompact(token, EdDSA)
	require.NoError(t, err)

	err = decoded.Verify(NewDefaultVerifier(), pub)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignatureVerification)
}

func TestES256KSignVerify(t *testing.T) {
	privKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	privKeyHex := hex.EncodeToString(ethcrypto.FromECDSA(privKey))
	pubKeyCompressed := ethcrypto.CompressPubkey(&privKey.PublicKey)

	signer := NewSigner(privKeyHex, "did:example:issuer#key-1")
	token, err := signer.SignClaims(map[string]interface{}{"sub": "did:example:subject"})
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(token, ".")))

	decoded, err := DecodeCompact(token, ES256K)
	require.NoError(t, err)
	assert.Equal(t, "did:example:issuer#key-1", decoded.Header.Kid())

	require.NoError(t, decoded.Verify(NewDefaultVerifier(), pubKeyCompressed))

	// Uncompressed key form verifies too.
	pubKeyUncompressed := ethcrypto.FromECDSAPub(&privKey.PublicKey)
	require.NoError(t, decoded.Verify(NewDefaultVerifier(), pubKeyUncompressed))

	// Wrong key fails.
	otherKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	err = decoded.Verify(NewDefaultVerifier(), ethcrypto.CompressPubkey(&otherKey.PublicKey))
	assert.ErrorIs(t, err, ErrSignatureVerification)
}

func TestDetachedPayloadEncoder(t *testing.T) {
	header := Header{"alg": "EdDSA", "b64": false, "crit": []interface{}{"b64"}}

	enc, err := NewCompactEncoder([]byte("raw-payload"), header)
	require.NoError(t, err)
	assert.Contains(t, string(enc.SigningInput()), ".raw-payload")

	_, err = NewCompactEncoder([]byte("contains.dot"), header)
	assert.Error(t, err)
}
