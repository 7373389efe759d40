package codec

import (
	"github.com/bytedance/sonic"
)

type jsonCodec struct {
	indent bool
}

func (jsonCodec) Format() Format { return JSON }

func (c jsonCodec) Marshal(v any) ([]byte, error) {
	if c.indent {
		return sonic.MarshalIndent(v, "", "  ")
	}
	return sonic.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}
