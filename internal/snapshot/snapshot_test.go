package snapshot

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	At      time.Time       `json:"at"`
	Tags    []string        `json:"tags"`
	Enabled bool            `json:"enabled"`
}

func newSample() sample {
	return sample{
		Name:    "Bridge",
		Amount:  decimal.RequireFromString("12500.75"),
		At:      time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Tags:    []string{"civil", "phase-1"},
		Enabled: true,
	}
}

func TestCodec_AllCombinationsDecode(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		compress bool
	}{
		{"json", FormatJSON, false},
		{"json+zstd", FormatJSON, true},
		{"cbor", FormatCBOR, false},
		{"cbor+zstd", FormatCBOR, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := newSample()
			blob, err := NewCodec(tc.format, tc.compress).Encode(in)
			require.NoError(t, err)
			assert.Len(t, blob.Digest, 64)

			var out sample
			require.NoError(t, Decode(blob.Data, &out))
			assert.Equal(t, in.Name, out.Name)
			assert.True(t, in.Amount.Equal(out.Amount), "amount %s != %s", in.Amount, out.Amount)
			assert.True(t, in.At.Equal(out.At))
			assert.Equal(t, in.Tags, out.Tags)
			assert.True(t, out.Enabled)
		})
	}
}

func TestCodec_DigestIgnoresCompression(t *testing.T) {
	in := newSample()
	plain, err := NewCodec(FormatJSON, false).Encode(in)
	require.NoError(t, err)
	packed, err := NewCodec(FormatJSON, true).Encode(in)
	require.NoError(t, err)

	assert.Equal(t, plain.Digest, packed.Digest)
}

func TestCodec_DigestChangesWithContent(t *testing.T) {
	c := NewCodec(FormatCBOR, false)
	a, err := c.Encode(newSample())
	require.NoError(t, err)

	changed := newSample()
	changed.Name = "Tunnel"
	b, err := c.Encode(changed)
	require.NoError(t, err)

	assert.NotEqual(t, a.Digest, b.Digest)
}

func TestDecode_Corrupt(t *testing.T) {
	var out sample
	assert.ErrorIs(t, Decode(nil, &out), ErrCorrupt)
	assert.ErrorIs(t, Decode([]byte{0xF0, '{', '}'}, &out), ErrCorrupt)
	assert.Error(t, Decode([]byte{flagZstd, 1, 2, 3}, &out))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("CBOR")
	require.NoError(t, err)
	assert.Equal(t, FormatCBOR, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
