// Package record defines the loosely-typed record shape consumed by brainless
// and the coercion rules every component shares. Records come from JSON,
// CSV, SQL drivers or hand-built maps, so a value may be any Go type; the
// helpers here decide once what counts as a number, a category key or text.
package record

import (
	"encoding/json" // For json.Number type only
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

// Record is a single row: attribute name to untyped value. Any attribute
// other than the output may be absent.
type Record map[string]interface{}

// Lookup returns the value of name and whether it is present. A key holding
// nil is treated as absent.
func (r Record) Lookup(name string) (interface{}, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToFloat coerces v to a finite float64. Numbers, numeric strings, booleans
// (1/0) and json.Number are accepted; NaN and infinities are rejected.
func ToFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case []byte:
		return ToFloat(string(n))
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToKey returns the canonical string form of v used to key categories and
// class labels. Integral floats format without a fractional part, so 1,
// int64(1) and 1.0 share a key.
func ToKey(v interface{}) string {
	if v == nil {
		return ""
	}

	switch n := v.(type) {
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case int8:
		return strconv.FormatInt(int64(n), 10)
	case int16:
		return strconv.FormatInt(int64(n), 10)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint:
		return strconv.FormatUint(uint64(n), 10)
	case uint8:
		return strconv.FormatUint(uint64(n), 10)
	case uint16:
		return strconv.FormatUint(uint64(n), 10)
	case uint32:
		return strconv.FormatUint(uint64(n), 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return n.String()
	case bool:
		return strconv.FormatBool(n)
	case []byte:
		return string(n)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToText returns v as text when it is a string (or bytes). Anything else is
// not text.
func ToText(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

// Split separates training data into its header record and data rows.
func Split(data []Record) (Record, []Record, error) {
	if len(data) == 0 {
		return nil, nil, errors.New(errors.ErrorTypeSchema, "training data is empty: the first record must be the schema header")
	}
	if data[0] == nil {
		return nil, nil, errors.New(errors.ErrorTypeSchema, "schema header is nil")
	}
	return data[0], data[1:], nil
}

// Attributes returns the sorted union of attribute names across rows.
func Attributes(rows []Record) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FromMaps converts plain maps into records without copying.
func FromMaps(maps []map[string]interface{}) []Record {
	out := make([]Record, len(maps))
	for i, m := range maps {
		out[i] = Record(m)
	}
	return out
}
