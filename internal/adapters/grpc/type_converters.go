package grpc

import (
	"bytes"
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// JSON <-> Struct helpers for the domain/protobuf boundary

func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON rejects fields the target does not declare so a misspelt
// flag fails loudly instead of being ignored
func unmarshalJSON(b []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// ToStruct converts a tagged Go value into a Struct payload
func ToStruct(v interface{}) (*structpb.Struct, error) {
	return encodeResponse(v)
}

// FromStruct converts a Struct payload into a tagged Go value
func FromStruct(in *structpb.Struct, out interface{}) error {
	if in == nil {
		return nil
	}
	b, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
