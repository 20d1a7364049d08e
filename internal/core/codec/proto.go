package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ProtoCodec implements Codec over google.golang.org/protobuf, mirroring the
// prototype-clone-and-unmarshal pattern used for protobuf payloads.
type ProtoCodec struct{}

// NewProtoCodec returns a Codec for protobuf-typed messages.
func NewProtoCodec() *ProtoCodec {
	return &ProtoCodec{}
}

func (c *ProtoCodec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("junglebus: codec: %T does not implement proto.Message", v)
	}
	return protojson.Marshal(msg)
}

// Unmarshal decodes data into into, which must already be a non-nil
// proto.Message (constructed by the caller's TypeRegistry factory).
func (c *ProtoCodec) Unmarshal(data []byte, typeName string, into any) error {
	msg, ok := into.(proto.Message)
	if !ok {
		return fmt.Errorf("junglebus: codec: type %q does not implement proto.Message", typeName)
	}
	return protojson.Unmarshal(data, msg)
}
