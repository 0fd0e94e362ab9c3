package did

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMethod(t *testing.T, doc DID, fragment string) *VerificationMethod {
	t.Helper()
	id, err := NewURL(doc).Join("#" + fragment)
	require.NoError(t, err)
	return &VerificationMethod{
		ID:           id,
		Type:         MethodTypeEcdsaSecp256k1Key2019,
		Controller:   doc,
		PublicKeyHex: "02b97c30de767f084ce3080168ee293053ba33b235d7116a3263d29f1450936b71",
	}
}

func TestDocumentInsertMethod(t *testing.T) {
	id := MustParse("did:example:123")
	doc := NewDocument(id)

	vm := newTestMethod(t, id, "key-1")
	require.NoError(t, doc.InsertMethod(vm, RelationshipAssertionMethod))

	resolved := doc.ResolveMethod("key-1", RelationshipAssertionMethod)
	require.NotNil(t, resolved)
	assert.Equal(t, vm.ID.String(), resolved.ID.String())

	// Same fragment again must be rejected.
	dup := newTestMethod(t, id, "key-1")
	assert.Error(t, doc.InsertMethod(dup, RelationshipNone))

	// Not attached to other relationships.
	assert.Nil(t, doc.ResolveMethod("key-1", RelationshipKeyAgreement))
	assert.NotNil(t, doc.ResolveMethod("key-1", RelationshipNone))
}

func TestDocumentServices(t *testing.T) {
	id := MustParse("did:example:123")
	doc := NewDocument(id)

	svcID, err := NewURL(id).Join("#my-service")
	require.NoError(t, err)
	svc, err := NewService(svcID, "LinkedDomains", "https://example.com")
	require.NoError(t, err)

	require.NoError(t, doc.InsertService(svc))
	assert.Error(t, doc.InsertService(svc), "duplicate fragment must be rejected")

	found := doc.ResolveService("my-service")
	require.NotNil(t, found)
	assert.True(t, found.HasType("LinkedDomains"))

	assert.True(t, doc.RemoveService("my-service"))
	assert.False(t, doc.RemoveService("my-service"))
	assert.Nil(t, doc.ResolveService("my-service"))
}

func TestVerificationMethodValidate(t *testing.T) {
	id := MustParse("did:example:123")

	vm := newTestMethod(t, id, "key-1")
	require.NoError(t, vm.Validate())

	// Two representations populated.
	vm.PublicKeyBase58 = "FiCu9kvoyoqPHfgZMcZQJDwNoTWRQdTsmJXHjovFqzqc"
	assert.Error(t, vm.Validate())

	// No representation populated.
	vm.PublicKeyBase58 = ""
	vm.PublicKeyHex = ""
	assert.Error(t, vm.Validate())

	// Missing fragment.
	vm = newTestMethod(t, id, "key-1")
	vm.ID = NewURL(id)
	assert.Error(t, vm.Validate())
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	raw := []byte(`{
		"@context": "https://www.w3.org/ns/did/v1",
		"id": "did:example:123",
		"controller": "did:example:controller",
		"verificationMethod": [{
			"id": "did:example:123#key-1",
			"type": "EcdsaSecp256k1VerificationKey2019",
			"controller": "did:example:123",
			"publicKeyHex": "02b97c30de767f084ce3080168ee293053ba33b235d7116a3263d29f1450936b71"
		}],
		"authentication": [
			"did:example:123#key-1",
			{
				"id": "did:example:123#key-2",
				"type": "Ed25519VerificationKey2018",
				"controller": "did:example:123",
				"publicKeyBase58": "FiCu9kvoyoqPHfgZMcZQJDwNoTWRQdTsmJXHjovFqzqc"
			}
		],
		"service": [{
			"id": "did:example:123#files",
			"type": ["LinkedDomains", "Other"],
			"serviceEndpoint": "https://example.com"
		}],
		"customProperty": 7
	}`)

	var doc Document
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "did:example:123", doc.ID.String())
	require.Len(t, doc.Controller, 1)
	require.Len(t, doc.VerificationMethod, 1)
	require.Len(t, doc.Authentication, 2)
	assert.False(t, doc.Authentication[0].IsEmbedded())
	assert.True(t, doc.Authentication[1].IsEmbedded())
	require.Len(t, doc.Service, 1)
	assert.Equal(t, []string{"LinkedDomains", "Other"}, doc.Service[0].Types)
	assert.Equal(t, float64(7), doc.Properties["customProperty"])

	// Referenced method resolves through the relationship.
	assert.NotNil(t, doc.ResolveMethod("key-1", RelationshipAuthentication))
	// Embedded method resolves too.
	assert.NotNil(t, doc.ResolveMethod("key-2", RelationshipAuthentication))

	// Round trip.
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	var again Document
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, doc.ID.String(), again.ID.String())
	assert.Len(t, again.Authentication, 2)
}

func TestDocumentUnmarshalRejectsDanglingReference(t *testing.T) {
	raw := []byte(`{
		"id": "did:example:123",
		"assertionMethod": ["did:example:123#missing"]
	}`)

	var doc Document
	assert.Error(t, json.Unmarshal(raw, &doc))
}

func TestPublicKeyBytes(t *testing.T) {
	id := MustParse("did:example:123")

	t.Run("hex", func(t *testing.T) {
		vm := newTestMethod(t, id, "key-1")
		raw, err := vm.PublicKeyBytes()
		require.NoError(t, err)
		assert.Len(t, raw, 33)
	})

	t.Run("jwk okp", func(t *testing.T) {
		vm := newTestMethod(t, id, "key-1")
		vm.PublicKeyHex = ""
		vm.Type = MethodTypeJSONWebKey
		vm.PublicKeyJwk = &JWK{Kty: "OKP", Crv: "Ed25519", X: "MCowBQYDK2VwAyEA"}
		raw, err := vm.PublicKeyBytes()
		require.NoError(t, err)
		assert.NotEmpty(t, raw)
	})

	t.Run("no material", func(t *testing.T) {
		vm := newTestMethod(t, id, "key-1")
		vm.PublicKeyHex = ""
		_, err := vm.PublicKeyBytes()
		assert.Error(t, err)
	})
}
