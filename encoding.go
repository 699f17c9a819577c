package som

import (
	"encoding/json"
)

// Marshaler encodes a value to a byte slice and back. SessionObjectManager holds one
// (NewMarshaler's default), but its L2 cache reads and writes go through
// L2Cache.GetStruct/SetStruct, which encode with encoding/json themselves.
type Marshaler interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonMarshaler struct{}

// NewMarshaler returns the default Marshaler, backed by encoding/json.
func NewMarshaler() Marshaler {
	return jsonMarshaler{}
}

func (jsonMarshaler) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonMarshaler) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
