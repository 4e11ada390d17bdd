package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Key identifies a cached query. It is an ordered tuple of primitive values;
// keys built from equal parts compare equal with == and can be map keys.
type Key struct {
	enc string
}

// NewKey builds a Key from strings, booleans, integers and finite floats.
// Numbers compare by value, so NewKey(1) == NewKey(1.0). Any other part,
// including NaN and infinities, is a programming error and panics.
func NewKey(parts ...any) Key {
	if parts == nil {
		parts = []any{}
	}
	for i, p := range parts {
		switch v := p.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64:
		case float32:
			mustBeFinite(i, float64(v))
		case float64:
			mustBeFinite(i, v)
		default:
			panic(fmt.Sprintf("query: key part %d has unsupported type %T", i, p))
		}
	}
	b, err := json.Marshal(parts)
	if err != nil {
		panic(fmt.Sprintf("query: encoding key: %v", err))
	}
	return Key{enc: string(b)}
}

func mustBeFinite(i int, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		panic(fmt.Sprintf("query: key part %d is not a finite number: %v", i, f))
	}
}

// String returns the canonical encoding, e.g. ["commit","abc123"].
func (k Key) String() string {
	return k.enc
}

// IsZero reports whether k was never built with NewKey.
func (k Key) IsZero() bool {
	return k.enc == ""
}

// HasPrefix reports whether the leading parts of k equal all parts of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if prefix.enc == "" || prefix.enc == "[]" {
		return true
	}
	var have, want []json.RawMessage
	if err := json.Unmarshal([]byte(k.enc), &have); err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(prefix.enc), &want); err != nil {
		return false
	}
	if len(want) > len(have) {
		return false
	}
	for i := range want {
		if !bytes.Equal(have[i], want[i]) {
			return false
		}
	}
	return true
}
