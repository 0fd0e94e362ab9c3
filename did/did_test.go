package did

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantMethod  string
		wantID      string
		expectError error
	}{
		{
			name:       "valid DID",
			input:      "did:example:123456789abcdefghi",
			wantMethod: "example",
			wantID:     "123456789abcdefghi",
		},
		{
			name:       "valid DID with colons in method id",
			input:      "did:web:example.com:user:alice",
			wantMethod: "web",
			wantID:     "example.com:user:alice",
		},
		{
			name:        "missing scheme",
			input:       "example:123",
			expectError: ErrInvalidScheme,
		},
		{
			name:        "uppercase method",
			input:       "did:Example:123",
			expectError: ErrInvalidMethodName,
		},
		{
			name:        "empty method",
			input:       "did::123",
			expectError: ErrInvalidMethodName,
		},
		{
			name:        "empty method id",
			input:       "did:example",
			expectError: ErrInvalidMethodID,
		},
		{
			name:        "trailing colon",
			input:       "did:example:123:",
			expectError: ErrInvalidMethodID,
		},
		{
			name:        "invalid method id characters",
			input:       "did:example:1 3",
			expectError: ErrInvalidMethodID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.input)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, d.Method())
			assert.Equal(t, tt.wantID, d.MethodID())
			assert.Equal(t, tt.input, d.String())
		})
	}
}

func TestDIDEquality(t *testing.T) {
	a := MustParse("did:example:123")
	b := MustParse("did:example:123")
	c := MustParse("did:example:456")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, 0, a.Compare(b))
	assert.Negative(t, a.Compare(c))
	assert.Positive(t, c.Compare(a))
}

func TestDIDJSONRoundTrip(t *testing.T) {
	d := MustParse("did:example:123")

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"did:example:123"`, string(data))

	var parsed DID
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, d.Equal(parsed))

	var invalid DID
	assert.Error(t, json.Unmarshal([]byte(`"not-a-did"`), &invalid))
}
