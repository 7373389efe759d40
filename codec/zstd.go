package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Encoders and decoders are safe for concurrent EncodeAll/DecodeAll, so one
// pair serves every wrapped codec.
var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil)
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

type zstdCodec struct {
	inner Codec
}

// Zstd wraps inner so its output is zstd-compressed. The wrapped format is
// the inner one with a "+zstd" suffix.
func Zstd(inner Codec) Codec {
	return zstdCodec{inner: inner}
}

func (c zstdCodec) Format() Format {
	return c.inner.Format() + zstdSuffix
}

func (c zstdCodec) Marshal(v any) ([]byte, error) {
	raw, err := c.inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	enc, err := zstdEncoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func (c zstdCodec) Unmarshal(data []byte, v any) error {
	dec, err := zstdDecoder()
	if err != nil {
		return fmt.Errorf("zstd decoder: %w", err)
	}
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("zstd decode: %w", err)
	}
	return c.inner.Unmarshal(raw, v)
}
