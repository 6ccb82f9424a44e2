// Package snapshot serializes application state for local storage. A blob
// carries a one-byte header recording how it was encoded, so readers decode
// blobs written under any past configuration.
package snapshot

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat accepts "json" or "cbor", case-insensitively. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "cbor":
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("invalid snapshot format %q (expected json or cbor)", s)
	}
}

// ErrCorrupt is returned for blobs with an unknown header.
var ErrCorrupt = errors.New("snapshot: corrupt blob")

const (
	flagCBOR byte = 1 << iota
	flagZstd
	flagMask = flagCBOR | flagZstd
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("snapshot: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("snapshot: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("snapshot: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("snapshot: zstd decoder initialization failed: " + err.Error())
	}
}

// Codec encodes values with a fixed format and compression setting.
type Codec struct {
	format   Format
	compress bool
}

func NewCodec(format Format, compress bool) *Codec {
	if format == "" {
		format = FormatJSON
	}
	return &Codec{format: format, compress: compress}
}

// Blob is an encoded value and the digest of its uncompressed payload.
type Blob struct {
	Data   []byte
	Digest string
}

func (c *Codec) Encode(v any) (Blob, error) {
	var payload []byte
	var err error
	var header byte
	switch c.format {
	case FormatCBOR:
		payload, err = encMode.Marshal(v)
		header |= flagCBOR
	default:
		payload, err = json.Marshal(v)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("encoding snapshot: %w", err)
	}

	digest := Digest(payload)
	if c.compress {
		payload = zstdEncoder.EncodeAll(payload, nil)
		header |= flagZstd
	}

	data := make([]byte, 0, len(payload)+1)
	data = append(data, header)
	data = append(data, payload...)
	return Blob{Data: data, Digest: digest}, nil
}

// Decode reads any blob produced by Encode, whatever codec wrote it.
func Decode(data []byte, v any) error {
	if len(data) == 0 || data[0]&^flagMask != 0 {
		return ErrCorrupt
	}
	header, payload := data[0], data[1:]

	if header&flagZstd != 0 {
		var err error
		payload, err = zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return fmt.Errorf("zstd decompress: %w", err)
		}
	}

	var err error
	if header&flagCBOR != 0 {
		err = decMode.Unmarshal(payload, v)
	} else {
		err = json.Unmarshal(payload, v)
	}
	if err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	return nil
}

// Digest is the hex blake3-256 hash of b.
func Digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
