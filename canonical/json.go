package canonical

import (
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
)

var errInvalidJSON = errors.New("invalid JSON")

// FromJSON decodes a JSON document into a canonical value, preserving object
// key order. Duplicate keys keep their first position and last value.
func FromJSON(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, errInvalidJSON
	}

	return fromResult(gjson.ParseBytes(data)), nil
}

func fromResult(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(r.Raw, 10, 64); err == nil {
			return u
		}
		return r.Float()
	case gjson.String:
		return r.String()
	}

	if r.IsArray() {
		out := []any{}
		r.ForEach(func(_, v gjson.Result) bool {
			out = append(out, fromResult(v))
			return true
		})
		return out
	}

	m := NewMap()
	r.ForEach(func(k, v gjson.Result) bool {
		m.Set(k.String(), fromResult(v))
		return true
	})

	return m
}
