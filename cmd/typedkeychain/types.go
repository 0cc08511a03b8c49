package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/benaskins/typedkeychain/keychain"
)

// valueType moves a command-line value in and out of a typed key.
type valueType interface {
	set(kc *keychain.Keychain, name, raw string) error
	get(kc *keychain.Keychain, name string) (string, error)
	remove(kc *keychain.Keychain, name string) error
}

type typed[T any] struct {
	bridge keychain.Bridge[T]
	parse  func(string) (T, error)
	format func(T) string
}

func (t typed[T]) set(kc *keychain.Keychain, name, raw string) error {
	v, err := t.parse(raw)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", raw, err)
	}
	return keychain.Set(kc, keychain.NewKey(name, t.bridge), v)
}

func (t typed[T]) get(kc *keychain.Keychain, name string) (string, error) {
	v, err := keychain.Get(kc, keychain.NewKey(name, t.bridge))
	if err != nil {
		return "", err
	}
	return t.format(v), nil
}

func (t typed[T]) remove(kc *keychain.Keychain, name string) error {
	return keychain.Remove(kc, keychain.NewKey(name, t.bridge))
}

var valueTypes = map[string]valueType{
	"string": typed[string]{
		bridge: keychain.String,
		parse:  func(s string) (string, error) { return s, nil },
		format: func(s string) string { return s },
	},
	"int": typed[int64]{
		bridge: keychain.Int64,
		parse:  func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) },
		format: func(v int64) string { return strconv.FormatInt(v, 10) },
	},
	"float": typed[float64]{
		bridge: keychain.Float64,
		parse:  func(s string) (float64, error) { return strconv.ParseFloat(s, 64) },
		format: func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) },
	},
	"bool": typed[bool]{
		bridge: keychain.Bool,
		parse:  strconv.ParseBool,
		format: strconv.FormatBool,
	},
	"json": typed[json.RawMessage]{
		bridge: keychain.JSON[json.RawMessage](),
		parse: func(s string) (json.RawMessage, error) {
			if !json.Valid([]byte(s)) {
				return nil, fmt.Errorf("invalid JSON")
			}
			return json.RawMessage(s), nil
		},
		format: func(v json.RawMessage) string { return string(v) },
	},
}

func lookupType(name string) (valueType, error) {
	if t, ok := valueTypes[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown type %q (want one of %s)", name, typeNames())
}

func typeNames() string {
	names := make([]string, 0, len(valueTypes))
	for name := range valueTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
