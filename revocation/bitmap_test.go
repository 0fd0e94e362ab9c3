package revocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-identity-sdk/did"
)

func TestBitmapRevokeIdempotence(t *testing.T) {
	bitmap := NewBitmap()

	assert.False(t, bitmap.IsRevoked(42))
	assert.True(t, bitmap.Revoke(42), "first revoke flips the bit")
	assert.False(t, bitmap.Revoke(42), "second revoke is a no-op")
	assert.True(t, bitmap.IsRevoked(42))

	assert.True(t, bitmap.Unrevoke(42), "first unrevoke flips the bit")
	assert.False(t, bitmap.Unrevoke(42), "second unrevoke is a no-op")
	assert.False(t, bitmap.IsRevoked(42))
}

func TestBitmapLen(t *testing.T) {
	bitmap := NewBitmap()
	for _, index := range []uint32{0, 5, 5, 1024, 4294967295} {
		bitmap.Revoke(index)
	}

	n, err := bitmap.Len()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), n)
}

func TestBitmapServiceRoundTrip(t *testing.T) {
	serviceID := did.MustParseURL("did:example:issuer#revocation")

	tests := []struct {
		name    string
		indices []uint32
	}{
		{name: "empty bitmap"},
		{name: "single index", indices: []uint32{5}},
		{name: "several indices", indices: []uint32{0, 1, 42, 1000, 4294967295}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bitmap := NewBitmap()
			for _, index := range tt.indices {
				bitmap.Revoke(index)
			}

			service, err := bitmap.ToService(serviceID)
			require.NoError(t, err)
			assert.True(t, service.HasType(BitmapServiceType))

			endpoint, err := service.EndpointString()
			require.NoError(t, err)
			assert.Contains(t, endpoint, "data:application/octet-stream;base64,")

			decoded, err := BitmapFromService(service)
			require.NoError(t, err)
			assert.True(t, bitmap.Equal(decoded), "round trip must preserve the bit set exactly")
			for _, index := range tt.indices {
				assert.True(t, decoded.IsRevoked(index))
			}
			assert.False(t, decoded.IsRevoked(7))
		})
	}
}

func TestBitmapFromServiceErrors(t *testing.T) {
	serviceID := did.MustParseURL("did:example:issuer#not-revocation")

	t.Run("wrong service type", func(t *testing.T) {
		service, err := did.NewService(serviceID, "LinkedDomains", "https://example.com")
		require.NoError(t, err)

		_, err = BitmapFromService(service)
		assert.ErrorIs(t, err, ErrInvalidService)
	})

	t.Run("endpoint not a data URL", func(t *testing.T) {
		service, err := did.NewService(serviceID, BitmapServiceType, "https://example.com/bitmap")
		require.NoError(t, err)

		_, err = BitmapFromService(service)
		assert.ErrorIs(t, err, ErrInvalidService)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		service, err := did.NewService(serviceID, BitmapServiceType, "data:application/octet-stream;base64,AAAA")
		require.NoError(t, err)

		_, err = BitmapFromService(service)
		assert.Error(t, err)
	})
}
