// Package codec defines the single pluggable serialization boundary
// JungleBus uses to turn a typed Go value into a wire payload and back.
package codec

// Codec turns a typed message into bytes suitable for an SNS Publish call
// and back into a value of the type registered for a given type name.
type Codec interface {
	// Marshal encodes v into its wire representation.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into a freshly constructed value of the type
	// previously registered under typeName, or reports the failure as a
	// wrapped *errs.ParseError via the caller.
	Unmarshal(data []byte, typeName string, into any) error
}
