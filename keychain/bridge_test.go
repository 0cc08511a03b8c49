package keychain

import (
	"bytes"
	"errors"
	"math"
	"net/netip"
	"testing"
	"time"
)

func roundTrip[T any](t *testing.T, b Bridge[T], v T) T {
	t.Helper()
	data, err := b.Encode(v)
	if err != nil {
		t.Fatalf("Encode(%v): %v", v, err)
	}
	got, ok, err := b.Decode(data)
	if err != nil {
		t.Fatalf("Decode(%v): %v", v, err)
	}
	if !ok {
		t.Fatalf("Decode(%v): reported absent", v)
	}
	return got
}

func TestFixedWidthRoundTrip(t *testing.T) {
	t.Parallel()
	for _, v := range []int{0, 1, -1, 18, math.MaxInt64, math.MinInt64} {
		if got := roundTrip(t, Int, v); got != v {
			t.Errorf("Int: got %d, want %d", got, v)
		}
	}
	for _, v := range []int32{0, -7, math.MaxInt32} {
		if got := roundTrip(t, Int32, v); got != v {
			t.Errorf("Int32: got %d, want %d", got, v)
		}
	}
	for _, v := range []uint64{0, math.MaxUint64} {
		if got := roundTrip(t, Uint64, v); got != v {
			t.Errorf("Uint64: got %d, want %d", got, v)
		}
	}
	for _, v := range []float64{0, -0.5, math.Pi, math.Inf(1), math.SmallestNonzeroFloat64} {
		if got := roundTrip(t, Float64, v); got != v {
			t.Errorf("Float64: got %v, want %v", got, v)
		}
	}
	if got := roundTrip(t, Float32, float32(1.25)); got != 1.25 {
		t.Errorf("Float32: got %v", got)
	}
	for _, v := range []bool{true, false} {
		if got := roundTrip(t, Bool, v); got != v {
			t.Errorf("Bool: got %v, want %v", got, v)
		}
	}
	if got := roundTrip(t, Duration, 90*time.Second); got != 90*time.Second {
		t.Errorf("Duration: got %v", got)
	}
}

func TestIntEncodingIsLittleEndian(t *testing.T) {
	t.Parallel()
	data, _ := Int.Encode(18)
	want := []byte{18, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(data, want) {
		t.Errorf("Int.Encode(18) = %v, want %v", data, want)
	}
}

func TestWrongWidthIsRejected(t *testing.T) {
	t.Parallel()
	if _, _, err := Int.Decode([]byte{1, 2, 3}); err == nil {
		t.Error("Int: expected error for 3-byte payload")
	}
	if _, _, err := Float32.Decode(make([]byte, 8)); err == nil {
		t.Error("Float32: expected error for 8-byte payload")
	}
	if _, _, err := Bool.Decode([]byte{2}); err == nil {
		t.Error("Bool: expected error for byte 2")
	}
	if _, _, err := String.Decode([]byte{0xff, 0xfe}); err == nil {
		t.Error("String: expected error for invalid UTF-8")
	}
}

func TestEmptyPayloadDecodesAbsent(t *testing.T) {
	t.Parallel()
	if _, ok, err := Int.Decode(nil); ok || err != nil {
		t.Errorf("Int.Decode(nil) = ok %v, err %v", ok, err)
	}
	if _, ok, err := JSON[profile]().Decode([]byte{}); ok || err != nil {
		t.Errorf("JSON.Decode(empty) = ok %v, err %v", ok, err)
	}
}

func TestStringAndBytesRoundTrip(t *testing.T) {
	t.Parallel()
	if got := roundTrip(t, String, "héllo"); got != "héllo" {
		t.Errorf("String: got %q", got)
	}
	if got := roundTrip(t, Bytes, []byte{0, 1, 2}); !bytes.Equal(got, []byte{0, 1, 2}) {
		t.Errorf("Bytes: got %v", got)
	}
}

type profile struct {
	Name  string   `json:"name" yaml:"name"`
	Age   int      `json:"age" yaml:"age"`
	Roles []string `json:"roles" yaml:"roles"`
}

func (p profile) equal(o profile) bool {
	if p.Name != o.Name || p.Age != o.Age || len(p.Roles) != len(o.Roles) {
		return false
	}
	for i := range p.Roles {
		if p.Roles[i] != o.Roles[i] {
			return false
		}
	}
	return true
}

func TestStructuredRoundTrip(t *testing.T) {
	t.Parallel()
	want := profile{Name: "John", Age: 18, Roles: []string{"admin", "dev"}}

	for name, b := range map[string]Bridge[profile]{
		"json": JSON[profile](),
		"yaml": YAML[profile](),
		"gob":  Gob[profile](),
	} {
		if got := roundTrip(t, b, want); !got.equal(want) {
			t.Errorf("%s: got %+v, want %+v", name, got, want)
		}
	}
}

func TestStructuredRejectsGarbage(t *testing.T) {
	t.Parallel()
	if _, _, err := JSON[profile]().Decode([]byte("{not json")); err == nil {
		t.Error("JSON: expected error")
	}
	if _, _, err := Gob[profile]().Decode([]byte("not gob")); err == nil {
		t.Error("Gob: expected error")
	}
}

func TestTimeRoundTripDropsMonotonic(t *testing.T) {
	t.Parallel()
	now := time.Now()
	got := roundTrip(t, Time, now)
	if !got.Equal(now) {
		t.Errorf("Time: got %v, want %v", got, now)
	}
}

func TestTextBridge(t *testing.T) {
	t.Parallel()
	b := Text[netip.Addr]()
	want := netip.MustParseAddr("192.0.2.1")
	if got := roundTrip(t, b, want); got != want {
		t.Errorf("Text: got %v, want %v", got, want)
	}
	if b.Attributes().Description != KindPassword {
		t.Errorf("Text description = %q", b.Attributes().Description)
	}
}

type upper string

func TestCustomBridge(t *testing.T) {
	t.Parallel()
	errShape := errors.New("no prefix")
	b := NewBridge(
		func(u upper) ([]byte, error) { return []byte("U:" + string(u)), nil },
		func(data []byte) (upper, error) {
			s, ok := bytes.CutPrefix(data, []byte("U:"))
			if !ok {
				return "", errShape
			}
			return upper(s), nil
		},
		Attributes{Comment: "custom"},
	)

	if got := roundTrip(t, b, upper("ABC")); got != "ABC" {
		t.Errorf("custom: got %q", got)
	}
	if _, _, err := b.Decode([]byte("x")); !errors.Is(err, errShape) {
		t.Errorf("custom: expected shape error, got %v", err)
	}
}

func TestBridgeDefaultKinds(t *testing.T) {
	t.Parallel()
	if String.Attributes().Description != KindPassword {
		t.Errorf("String kind = %q", String.Attributes().Description)
	}
	if Int.Attributes().Description != KindData {
		t.Errorf("Int kind = %q", Int.Attributes().Description)
	}
}
