// Package normalize turns inconsistent upstream JSON into pedrito's canonical
// shapes. Nothing in this package returns an error for a shape mismatch: a
// missing or malformed field degrades to absent.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one decoded upstream JSON object.
type Record = map[string]any

// accessor reads one candidate value from a record. ok is false when the
// candidate is missing or null.
type accessor func(Record) (any, bool)

func key(name string) accessor {
	return func(r Record) (any, bool) {
		v, ok := r[name]
		if !ok || v == nil {
			return nil, false
		}
		return v, true
	}
}

// firstElement reads the first element of an array field.
func firstElement(name string) accessor {
	return func(r Record) (any, bool) {
		list, ok := r[name].([]any)
		if !ok || len(list) == 0 || list[0] == nil {
			return nil, false
		}
		return list[0], true
	}
}

// nonEmpty wraps an accessor so that values rendering to "" count as missing.
func nonEmpty(acc accessor) accessor {
	return func(r Record) (any, bool) {
		v, ok := acc(r)
		if !ok {
			return nil, false
		}
		if s, isText := toText(v); !isText || s == "" {
			return nil, false
		}
		return v, true
	}
}

// firstOf evaluates accessors left to right and stops at the first present value.
func firstOf(accs ...accessor) accessor {
	return func(r Record) (any, bool) {
		for _, acc := range accs {
			if v, ok := acc(r); ok {
				return v, true
			}
		}
		return nil, false
	}
}

func keys(names []string) []accessor {
	out := make([]accessor, 0, len(names))
	for _, name := range names {
		out = append(out, key(name))
	}
	return out
}

// toText renders scalar JSON values as text. Objects and arrays are not text.
func toText(v any) (string, bool) {
	switch typed := v.(type) {
	case string:
		return typed, true
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return "", false
		}
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case json.Number:
		return typed.String(), true
	case int:
		return strconv.Itoa(typed), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case bool:
		return strconv.FormatBool(typed), true
	default:
		return "", false
	}
}

func textOf(acc accessor, r Record) string {
	v, ok := acc(r)
	if !ok {
		return ""
	}
	s, _ := toText(v)
	return s
}

// ErrMalformedBody reports an upstream body that is not JSON.
var ErrMalformedBody = errors.New("malformed upstream body")

// DecodeStrict parses a JSON body and reports input that is not JSON,
// including an empty body. A valid body of any shape is returned as is.
func DecodeStrict(body []byte) (any, error) {
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return out, nil
}

// Decode parses a JSON body. Malformed input decodes to nil.
func Decode(body []byte) any {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil
	}
	return out
}
