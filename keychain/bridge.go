package keychain

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// Bridge converts values of one type to and from stored payloads.
//
// Decode reports ok=false, with no error, for an empty payload: an empty
// item is treated as absent. A payload of the wrong shape is an error.
// Any type becomes storable by implementing Bridge; the Keychain never
// inspects the payload itself.
type Bridge[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (v T, ok bool, err error)
	// Attributes are the defaults for items of this type. Keychain and key
	// attributes take precedence.
	Attributes() Attributes
}

// Kinds shown by Keychain Access for bridged items.
const (
	KindPassword = "application password"
	KindData     = "application data"
)

var (
	passwordAttributes = Attributes{Description: KindPassword}
	dataAttributes     = Attributes{Description: KindData}
)

// NewBridge builds a Bridge from an encode and a decode function. decode is
// never called with an empty payload.
func NewBridge[T any](encode func(T) ([]byte, error), decode func([]byte) (T, error), attrs Attributes) Bridge[T] {
	return funcBridge[T]{encode: encode, decode: decode, attrs: attrs}
}

type funcBridge[T any] struct {
	encode func(T) ([]byte, error)
	decode func([]byte) (T, error)
	attrs  Attributes
}

func (b funcBridge[T]) Encode(v T) ([]byte, error) { return b.encode(v) }

func (b funcBridge[T]) Decode(data []byte) (T, bool, error) {
	var zero T
	if len(data) == 0 {
		return zero, false, nil
	}
	v, err := b.decode(data)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (b funcBridge[T]) Attributes() Attributes { return b.attrs }

func fixedWidth(data []byte, n int) error {
	if len(data) != n {
		return fmt.Errorf("payload is %d bytes, want %d", len(data), n)
	}
	return nil
}

// Built-in bridges. Integers and floats are fixed-width little-endian;
// every one of them round-trips exactly.
var (
	// String stores UTF-8 text. The empty string encodes to an empty
	// payload and so reads back as absent.
	String Bridge[string] = NewBridge(
		func(s string) ([]byte, error) { return []byte(s), nil },
		func(b []byte) (string, error) {
			if !utf8.Valid(b) {
				return "", fmt.Errorf("payload is not valid UTF-8")
			}
			return string(b), nil
		},
		passwordAttributes,
	)

	Bytes Bridge[[]byte] = NewBridge(
		func(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil },
		func(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil },
		dataAttributes,
	)

	Int Bridge[int] = NewBridge(
		func(v int) ([]byte, error) { return binary.LittleEndian.AppendUint64(nil, uint64(v)), nil },
		func(b []byte) (int, error) {
			if err := fixedWidth(b, 8); err != nil {
				return 0, err
			}
			return int(int64(binary.LittleEndian.Uint64(b))), nil
		},
		dataAttributes,
	)

	Int64 Bridge[int64] = NewBridge(
		func(v int64) ([]byte, error) { return binary.LittleEndian.AppendUint64(nil, uint64(v)), nil },
		func(b []byte) (int64, error) {
			if err := fixedWidth(b, 8); err != nil {
				return 0, err
			}
			return int64(binary.LittleEndian.Uint64(b)), nil
		},
		dataAttributes,
	)

	Int32 Bridge[int32] = NewBridge(
		func(v int32) ([]byte, error) { return binary.LittleEndian.AppendUint32(nil, uint32(v)), nil },
		func(b []byte) (int32, error) {
			if err := fixedWidth(b, 4); err != nil {
				return 0, err
			}
			return int32(binary.LittleEndian.Uint32(b)), nil
		},
		dataAttributes,
	)

	Uint64 Bridge[uint64] = NewBridge(
		func(v uint64) ([]byte, error) { return binary.LittleEndian.AppendUint64(nil, v), nil },
		func(b []byte) (uint64, error) {
			if err := fixedWidth(b, 8); err != nil {
				return 0, err
			}
			return binary.LittleEndian.Uint64(b), nil
		},
		dataAttributes,
	)

	Float64 Bridge[float64] = NewBridge(
		func(v float64) ([]byte, error) {
			return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)), nil
		},
		func(b []byte) (float64, error) {
			if err := fixedWidth(b, 8); err != nil {
				return 0, err
			}
			return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
		},
		dataAttributes,
	)

	Float32 Bridge[float32] = NewBridge(
		func(v float32) ([]byte, error) {
			return binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)), nil
		},
		func(b []byte) (float32, error) {
			if err := fixedWidth(b, 4); err != nil {
				return 0, err
			}
			return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
		},
		dataAttributes,
	)

	Bool Bridge[bool] = NewBridge(
		func(v bool) ([]byte, error) {
			if v {
				return []byte{1}, nil
			}
			return []byte{0}, nil
		},
		func(b []byte) (bool, error) {
			if err := fixedWidth(b, 1); err != nil {
				return false, err
			}
			switch b[0] {
			case 0:
				return false, nil
			case 1:
				return true, nil
			}
			return false, fmt.Errorf("payload byte %#x is not a bool", b[0])
		},
		dataAttributes,
	)

	Duration Bridge[time.Duration] = NewBridge(
		func(d time.Duration) ([]byte, error) { return binary.LittleEndian.AppendUint64(nil, uint64(d)), nil },
		func(b []byte) (time.Duration, error) {
			if err := fixedWidth(b, 8); err != nil {
				return 0, err
			}
			return time.Duration(int64(binary.LittleEndian.Uint64(b))), nil
		},
		dataAttributes,
	)

	// Time uses time.Time's binary form. It is lossy in one respect: the
	// monotonic clock reading is dropped, so compare decoded times with
	// Equal rather than ==.
	Time Bridge[time.Time] = Binary[time.Time]()
)
