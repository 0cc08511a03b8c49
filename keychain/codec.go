package keychain

import (
	"bytes"
	"encoding"
	"encoding/gob"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// JSON stores structured values with encoding/json. The usual JSON caveats
// apply: unexported fields are skipped and numbers inside interface values
// come back as float64.
func JSON[T any]() Bridge[T] {
	return NewBridge(
		func(v T) ([]byte, error) { return json.Marshal(v) },
		func(b []byte) (T, error) {
			var v T
			err := json.Unmarshal(b, &v)
			return v, err
		},
		dataAttributes,
	)
}

// YAML stores structured values with yaml.v3.
func YAML[T any]() Bridge[T] {
	return NewBridge(
		func(v T) ([]byte, error) { return yaml.Marshal(v) },
		func(b []byte) (T, error) {
			var v T
			err := yaml.Unmarshal(b, &v)
			return v, err
		},
		dataAttributes,
	)
}

// Gob stores values in encoding/gob's self-describing archive format, for
// types that already carry gob encoders or hold interface fields registered
// with gob.Register.
func Gob[T any]() Bridge[T] {
	return NewBridge(
		func(v T) ([]byte, error) {
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		func(b []byte) (T, error) {
			var v T
			err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v)
			return v, err
		},
		dataAttributes,
	)
}

// Binary bridges any type whose pointer implements encoding.BinaryMarshaler
// and encoding.BinaryUnmarshaler.
func Binary[T any, PT interface {
	*T
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}]() Bridge[T] {
	return NewBridge(
		func(v T) ([]byte, error) { return PT(&v).MarshalBinary() },
		func(b []byte) (T, error) {
			var v T
			err := PT(&v).UnmarshalBinary(b)
			return v, err
		},
		dataAttributes,
	)
}

// Text bridges any type whose pointer implements encoding.TextMarshaler and
// encoding.TextUnmarshaler. Items are marked as passwords since the payload
// is readable text.
func Text[T any, PT interface {
	*T
	encoding.TextMarshaler
	encoding.TextUnmarshaler
}]() Bridge[T] {
	return NewBridge(
		func(v T) ([]byte, error) { return PT(&v).MarshalText() },
		func(b []byte) (T, error) {
			var v T
			err := PT(&v).UnmarshalText(b)
			return v, err
		},
		passwordAttributes,
	)
}
