package codec

import "github.com/bytedance/sonic"

// JSONCodec implements Codec over bytedance/sonic, the same library the
// envelope package uses to decode queue bodies.
type JSONCodec struct {
	config sonic.API
}

// NewJSONCodec returns a Codec backed by sonic's standard-compatible config.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{config: sonic.ConfigStd}
}

func (c *JSONCodec) Marshal(v any) ([]byte, error) {
	return c.config.Marshal(v)
}

func (c *JSONCodec) Unmarshal(data []byte, _ string, into any) error {
	return c.config.Unmarshal(data, into)
}
