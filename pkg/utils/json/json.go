// Package json routes all JSON handling through bytedance/sonic so the
// hot streaming path and the handlers agree on one codec.
package json

import (
	"github.com/bytedance/sonic"
)

var (
	// Marshal serializes v into JSON bytes.
	Marshal = sonic.Marshal
	// Unmarshal parses JSON bytes into v.
	Unmarshal = sonic.Unmarshal
	// MarshalString serializes v into a JSON string.
	MarshalString = sonic.MarshalString
	// UnmarshalString parses a JSON string into v.
	UnmarshalString = sonic.UnmarshalString
)

// MarshalIndent is shorthand for sonic's indented config.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return sonic.ConfigDefault.MarshalIndent(v, prefix, indent)
}
