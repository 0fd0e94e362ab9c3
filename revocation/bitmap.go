// Package revocation implements the credential status mechanisms embedded in
// DID documents: the RevocationBitmap2022 service encoding and the W3C
// StatusList2021 credential format.
package revocation

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pilacorp/go-identity-sdk/credential/common/util"
	"github.com/pilacorp/go-identity-sdk/did"
)

// BitmapServiceType is the service type carrying an embedded revocation bitmap.
const BitmapServiceType = "RevocationBitmap2022"

// bitmapEndpointPrefix is the data URL prefix of the serialized bitmap.
const bitmapEndpointPrefix = "data:application/octet-stream;base64,"

var (
	// ErrInvalidService is returned when a service is not a valid
	// RevocationBitmap2022 service.
	ErrInvalidService = errors.New("invalid RevocationBitmap2022 service")

	// ErrBitmapOverflow is returned when the revoked-bit cardinality exceeds
	// a 32-bit count.
	ErrBitmapOverflow = errors.New("revocation bitmap cardinality exceeds u32")
)

// Bitmap is a set of revoked credential indices. Mutation (Revoke/Unrevoke)
// is an issuer-side operation; validation paths only query. The type itself
// is not synchronized, matching its read-shared use once embedded in a
// resolved document.
type Bitmap struct {
	revoked map[uint32]struct{}
}

// NewBitmap returns an empty bitmap.
func NewBitmap() *Bitmap {
	return &Bitmap{revoked: make(map[uint32]struct{})}
}

// IsRevoked reports whether the credential at index is revoked.
func (b *Bitmap) IsRevoked(index uint32) bool {
	_, ok := b.revoked[index]
	return ok
}

// Revoke sets the bit at index, returning true iff it was previously clear.
func (b *Bitmap) Revoke(index uint32) bool {
	if _, ok := b.revoked[index]; ok {
		return false
	}
	b.revoked[index] = struct{}{}
	return true
}

// Unrevoke clears the bit at index, returning true iff it was previously set.
func (b *Bitmap) Unrevoke(index uint32) bool {
	if _, ok := b.revoked[index]; !ok {
		return false
	}
	delete(b.revoked, index)
	return true
}

// Len returns the number of revoked indices.
func (b *Bitmap) Len() (uint32, error) {
	if uint64(len(b.revoked)) > math.MaxUint32 {
		return 0, ErrBitmapOverflow
	}
	return uint32(len(b.revoked)), nil
}

// Equal reports bit-set equality.
func (b *Bitmap) Equal(other *Bitmap) bool {
	if len(b.revoked) != len(other.revoked) {
		return false
	}
	for index := range b.revoked {
		if _, ok := other.revoked[index]; !ok {
			return false
		}
	}
	return true
}

// ToService serializes the bitmap into a DID document service: the sorted
// index list is encoded, deflated, base64url-encoded and wrapped in a data
// URL. The exact encoding is a wire contract shared with other
// implementations, not an implementation detail.
func (b *Bitmap) ToService(serviceID *did.URL) (*did.Service, error) {
	endpoint, err := b.encodeEndpoint()
	if err != nil {
		return nil, err
	}
	return did.NewService(serviceID, BitmapServiceType, endpoint)
}

// BitmapFromService deserializes a bitmap from a RevocationBitmap2022 service.
func BitmapFromService(service *did.Service) (*Bitmap, error) {
	if !service.HasType(BitmapServiceType) {
		return nil, fmt.Errorf("%w: service type is %v", ErrInvalidService, service.Types)
	}

	endpoint, err := service.EndpointString()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidService, err)
	}

	payload, ok := strings.CutPrefix(endpoint, bitmapEndpointPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: endpoint is not an octet-stream data URL", ErrInvalidService)
	}

	raw, err := util.InflateFromBase64URL(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode revocation bitmap payload: %w", err)
	}

	return bitmapFromBytes(raw)
}

func (b *Bitmap) encodeEndpoint() (string, error) {
	encoded, err := util.DeflateToBase64URL(b.toBytes())
	if err != nil {
		return "", fmt.Errorf("failed to encode revocation bitmap: %w", err)
	}
	return bitmapEndpointPrefix + encoded, nil
}

// toBytes encodes the bitmap as a count-prefixed list of big-endian u32
// indices in ascending order.
func (b *Bitmap) toBytes() []byte {
	indices := make([]uint32, 0, len(b.revoked))
	for index := range b.revoked {
		indices = append(indices, index)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	buf := make([]byte, 4+4*len(indices))
	binary.BigEndian.PutUint32(buf, uint32(len(indices)))
	for i, index := range indices {
		binary.BigEndian.PutUint32(buf[4+4*i:], index)
	}
	return buf
}

func bitmapFromBytes(raw []byte) (*Bitmap, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("failed to parse revocation bitmap: truncated header")
	}
	count := binary.BigEndian.Uint32(raw)
	if uint64(len(raw)) != 4+4*uint64(count) {
		return nil, fmt.Errorf("failed to parse revocation bitmap: expected %d entries in %d bytes", count, len(raw))
	}

	bitmap := NewBitmap()
	for i := uint32(0); i < count; i++ {
		bitmap.revoked[binary.BigEndian.Uint32(raw[4+4*i:])] = struct{}{}
	}
	return bitmap, nil
}
