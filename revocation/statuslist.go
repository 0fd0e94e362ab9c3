package revocation

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pilacorp/go-identity-sdk/credential/common/util"
)

// StatusList2021 constants, field names per the W3C VC Status List 2021
// specification.
const (
	StatusList2021EntryType      = "StatusList2021Entry"
	StatusList2021Type           = "StatusList2021"
	StatusList2021CredentialType = "StatusList2021Credential"
)

// StatusPurpose restricts what a listed bit means.
type StatusPurpose string

const (
	PurposeRevocation StatusPurpose = "revocation"
	PurposeSuspension StatusPurpose = "suspension"
)

// ParseStatusPurpose validates a statusPurpose value.
func ParseStatusPurpose(s string) (StatusPurpose, error) {
	switch StatusPurpose(s) {
	case PurposeRevocation, PurposeSuspension:
		return StatusPurpose(s), nil
	default:
		return "", fmt.Errorf("unsupported status purpose %q", s)
	}
}

// ErrIndexOutOfRange is returned when an entry index exceeds the list capacity.
var ErrIndexOutOfRange = errors.New("status list index out of range")

// minStatusListLength is the minimum list size mandated by Status List 2021
// to resist correlation of small lists.
const minStatusListLength = 16 * 1024 * 8

// StatusList2021 is a fixed-capacity bit list. Bits are addressed LSB-first
// within each byte, matching the encodedList layout produced here and
// consumed by the status check in the validator.
type StatusList2021 struct {
	bits []byte
	size int
}

// NewStatusList2021 returns a zeroed list with at least the mandated
// minimum capacity.
func NewStatusList2021(size int) *StatusList2021 {
	if size < minStatusListLength {
		size = minStatusListLength
	}
	return &StatusList2021{
		bits: make([]byte, (size+7)/8),
		size: size,
	}
}

// Len returns the list capacity in bits.
func (l *StatusList2021) Len() int {
	return l.size
}

// SetEntry sets or clears the bit at index.
func (l *StatusList2021) SetEntry(index int, value bool) error {
	if index < 0 || index >= l.size {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, l.size)
	}
	if value {
		l.bits[index/8] |= 1 << (index % 8)
	} else {
		l.bits[index/8] &^= 1 << (index % 8)
	}
	return nil
}

// IsSet reports the bit at index.
func (l *StatusList2021) IsSet(index int) (bool, error) {
	if index < 0 || index >= l.size {
		return false, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, l.size)
	}
	return (l.bits[index/8]>>(index%8))&1 == 1, nil
}

// EncodedList compresses (GZIP) and base64url-encodes the bit list.
func (l *StatusList2021) EncodedList() (string, error) {
	encoded, err := util.CompressToBase64URL(l.bits)
	if err != nil {
		return "", fmt.Errorf("failed to encode status list: %w", err)
	}
	return encoded, nil
}

// StatusListFromEncoded decodes an encodedList payload back into a list.
// Unpadded base64url is the canonical form, but padded and standard base64
// emitted by other implementations are accepted too.
func StatusListFromEncoded(encoded string) (*StatusList2021, error) {
	compressed, err := decodeEncodedList(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode status list: %w", err)
	}
	bits, err := util.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode status list: %w", err)
	}
	return &StatusList2021{bits: bits, size: len(bits) * 8}, nil
}

func decodeEncodedList(encoded string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	}
	var err error
	for _, enc := range encodings {
		var raw []byte
		if raw, err = enc.DecodeString(encoded); err == nil {
			return raw, nil
		}
	}
	return nil, err
}

// Entry is a StatusList2021Entry: the small pointer embedded in an individual
// credential's credentialStatus, referencing one bit of a status list
// credential. Field names follow the Status List 2021 data model exactly.
type Entry struct {
	ID                   string `json:"id,omitempty"`
	Type                 string `json:"type"`
	StatusPurpose        string `json:"statusPurpose"`
	StatusListIndex      string `json:"statusListIndex"`
	StatusListCredential string `json:"statusListCredential"`
}

// Validate checks the entry's shape: the type literal must
// match exactly and the index must be a non-negative integer string.
func (e *Entry) Validate() error {
	if e.Type != StatusList2021EntryType {
		return fmt.Errorf("status entry type must be %q, got %q", StatusList2021EntryType, e.Type)
	}
	if _, err := ParseStatusPurpose(e.StatusPurpose); err != nil {
		return err
	}
	if e.StatusListCredential == "" {
		return fmt.Errorf("status entry is missing statusListCredential")
	}
	if _, err := e.Index(); err != nil {
		return err
	}
	return nil
}

// Index parses the statusListIndex field.
func (e *Entry) Index() (int, error) {
	index, err := strconv.Atoi(e.StatusListIndex)
	if err != nil || index < 0 {
		return -1, fmt.Errorf("invalid statusListIndex %q", e.StatusListIndex)
	}
	return index, nil
}

// StatusListCredentialSubject is the credentialSubject of a status list
// credential: the encoded bit list plus its purpose.
type StatusListCredentialSubject struct {
	ID            string `json:"id,omitempty"`
	Type          string `json:"type"`
	StatusPurpose string `json:"statusPurpose"`
	EncodedList   string `json:"encodedList"`
}

// StatusListCredential is a Verifiable Credential whose subject is a status
// list. It is the single source of truth for a block of indices: fetched
// once and shared by validators checking many credentials against it.
type StatusListCredential struct {
	Context           []string                    `json:"@context"`
	ID                string                      `json:"id"`
	Type              []string                    `json:"type"`
	Issuer            string                      `json:"issuer"`
	ValidFrom         string                      `json:"validFrom,omitempty"`
	ValidUntil        string                      `json:"validUntil,omitempty"`
	CredentialSubject StatusListCredentialSubject `json:"credentialSubject"`
	Proof             map[string]interface{}      `json:"proof,omitempty"`
}

// NewStatusListCredential builds a status list credential over a fresh list.
func NewStatusListCredential(subjectID, issuer string, purpose StatusPurpose, size int) (*StatusListCredential, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("status list credential subject id is required")
	}
	if issuer == "" {
		return nil, fmt.Errorf("status list credential issuer is required")
	}

	list := NewStatusList2021(size)
	encoded, err := list.EncodedList()
	if err != nil {
		return nil, err
	}

	return &StatusListCredential{
		Context: []string{
			"https://www.w3.org/2018/credentials/v1",
			"https://w3id.org/vc/status-list/2021/v1",
		},
		ID:        subjectID,
		Type:      []string{"VerifiableCredential", StatusList2021CredentialType},
		Issuer:    issuer,
		ValidFrom: time.Now().UTC().Format(time.RFC3339),
		CredentialSubject: StatusListCredentialSubject{
			ID:            subjectID + "#list",
			Type:          StatusList2021Type,
			StatusPurpose: string(purpose),
			EncodedList:   encoded,
		},
	}, nil
}

// List decodes the embedded status list.
func (c *StatusListCredential) List() (*StatusList2021, error) {
	return StatusListFromEncoded(c.CredentialSubject.EncodedList)
}

// Update gives fn scoped mutable access to the list, then re-serializes the
// subject. The credential is unchanged when fn or re-encoding fails.
func (c *StatusListCredential) Update(fn func(list *StatusList2021) error) error {
	list, err := c.List()
	if err != nil {
		return err
	}
	if err := fn(list); err != nil {
		return err
	}
	encoded, err := list.EncodedList()
	if err != nil {
		return err
	}
	c.CredentialSubject.EncodedList = encoded
	return nil
}

// Entry builds a StatusList2021Entry pointing at one index of this credential.
func (c *StatusListCredential) Entry(index int) *Entry {
	return &Entry{
		ID:                   fmt.Sprintf("%s#%d", c.ID, index),
		Type:                 StatusList2021EntryType,
		StatusPurpose:        c.CredentialSubject.StatusPurpose,
		StatusListIndex:      strconv.Itoa(index),
		StatusListCredential: c.ID,
	}
}
