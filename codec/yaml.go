package codec

import (
	"github.com/goccy/go-yaml"
)

type yamlCodec struct{}

func (yamlCodec) Format() Format { return YAML }

func (yamlCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (yamlCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}
