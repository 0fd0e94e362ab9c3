package vc

import (
	"encoding/hex"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-identity-sdk/credential/common/jws"
)

func testContents() CredentialContents {
	return CredentialContents{
		Context:    []interface{}{ContextV2},
		ID:         "urn:uuid:0b1f6a5c-91b7-4c2a-bd0d-6cfb07f3a50f",
		Types:      []string{CredentialType, "UniversityDegreeCredential"},
		Issuer:     "did:example:issuer",
		ValidFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Subject: []Subject{{
			ID: "did:example:subject",
			CustomFields: map[string]interface{}{
				"degree": "Bachelor of Science",
			},
		}},
	}
}

func TestNewJWTCredential(t *testing.T) {
	cred, err := NewJWTCredential(testContents())
	require.NoError(t, err)

	claims := cred.Claims()
	assert.Equal(t, "did:example:issuer", claims["iss"])
	assert.Equal(t, "did:example:subject", claims["sub"])
	assert.Equal(t, "urn:uuid:0b1f6a5c-91b7-4c2a-bd0d-6cfb07f3a50f", claims["jti"])
	assert.Equal(t, int64(1893456000), claims["exp"])

	_, err = cred.Serialize()
	assert.Error(t, err, "unsigned credential must not serialize")
}

func TestNewJWTCredentialGeneratesID(t *testing.T) {
	vcc := testContents()
	vcc.ID = ""

	cred, err := NewJWTCredential(vcc)
	require.NoError(t, err)

	contents, err := cred.Contents()
	require.NoError(t, err)
	assert.Contains(t, contents.ID, "urn:uuid:")
}

func TestNewJWTCredentialRequiresIssuer(t *testing.T) {
	vcc := testContents()
	vcc.Issuer = ""

	_, err := NewJWTCredential(vcc)
	assert.Error(t, err)
}

func TestJWTCredentialRoundTrip(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	signer := jws.NewSigner(hex.EncodeToString(ethcrypto.FromECDSA(key)), "did:example:issuer#key-1")

	cred, err := NewJWTCredential(testContents())
	require.NoError(t, err)
	require.NoError(t, cred.Sign(signer))

	token, err := cred.Serialize()
	require.NoError(t, err)

	parsed, err := ParseJWTCredential(token)
	require.NoError(t, err)

	contents, err := parsed.Contents()
	require.NoError(t, err)
	assert.Equal(t, "did:example:issuer", contents.Issuer)
	assert.Equal(t, []string{CredentialType, "UniversityDegreeCredential"}, contents.Types)
	assert.Equal(t, "did:example:subject", contents.Subject[0].ID)
	assert.Equal(t, "Bachelor of Science", contents.Subject[0].CustomFields["degree"])
	assert.True(t, contents.ValidUntil.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseJWTCredentialInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not a JWT", raw: "hello world"},
		{name: "two segments", raw: "eyJh.eyJi"},
		{name: "payload not base64", raw: "eyJh.!!!.c2ln"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJWTCredential(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestContentsFromClaimsOverrides(t *testing.T) {
	claims := map[string]interface{}{
		"iss": "did:example:registered",
		"jti": "urn:uuid:override",
		"exp": float64(1893456000),
		"nbf": float64(1735689600),
		"vc": map[string]interface{}{
			"issuer": "did:example:embedded",
			"id":     "urn:uuid:embedded",
			"type":   "VerifiableCredential",
		},
	}

	contents, err := ContentsFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "did:example:registered", contents.Issuer, "registered claims win over the vc claim")
	assert.Equal(t, "urn:uuid:override", contents.ID)
	assert.Equal(t, int64(1893456000), contents.ValidUntil.Unix())
	assert.Equal(t, int64(1735689600), contents.ValidFrom.Unix())
}

func TestParseCredentialStatusEntries(t *testing.T) {
	vcc := testContents()
	vcc.CredentialStatus = []Status{{
		ID:                   "https://example.com/status/1#94567",
		Type:                 "StatusList2021Entry",
		StatusPurpose:        "revocation",
		StatusListIndex:      "94567",
		StatusListCredential: "https://example.com/status/1",
	}}

	cred, err := NewJWTCredential(vcc)
	require.NoError(t, err)

	contents, err := cred.Contents()
	require.NoError(t, err)
	require.Len(t, contents.CredentialStatus, 1)
	assert.Equal(t, "StatusList2021Entry", contents.CredentialStatus[0].Type)
	assert.Equal(t, "94567", contents.CredentialStatus[0].StatusListIndex)
}

func TestJSONCredentialProofRoundTrip(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	privHex := "0x" + hex.EncodeToString(ethcrypto.FromECDSA(key))
	publicKey := ethcrypto.CompressPubkey(&key.PublicKey)

	vcc := testContents()
	vcc.Context = nil // keep canonicalization offline
	cred, err := NewJSONCredential(vcc)
	require.NoError(t, err)
	require.NoError(t, cred.AddProof(privHex, "did:example:issuer#key-1"))

	raw, err := cred.Serialize()
	require.NoError(t, err)

	parsed, err := ParseJSONCredential(raw)
	require.NoError(t, err)
	require.NoError(t, parsed.Verify(publicKey))

	p, err := parsed.Proof()
	require.NoError(t, err)
	assert.Equal(t, "DataIntegrityProof", p.Type)
	assert.Equal(t, "ecdsa-rdfc-2019", p.Cryptosuite)
}

func TestJSONCredentialVerifyWrongKey(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	otherKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	vcc := testContents()
	vcc.Context = nil
	cred, err := NewJSONCredential(vcc)
	require.NoError(t, err)
	require.NoError(t, cred.AddProof("0x"+hex.EncodeToString(ethcrypto.FromECDSA(key)), "did:example:issuer#key-1"))

	err = cred.Verify(ethcrypto.CompressPubkey(&otherKey.PublicKey))
	assert.Error(t, err)
}
