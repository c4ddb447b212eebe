package dataset

import (
	"math/big"
	"strconv"
	"strings"
	"time"
)

// normalize turns driver-specific values into the shapes record coercion
// understands: numbers, bools, strings, nil.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case time.Time:
		return x.Unix()
	case *big.Rat:
		if x == nil {
			return nil
		}
		f, _ := x.Float64()
		return f
	case *big.Int:
		if x == nil {
			return nil
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case map[string]interface{}:
		return unwrapUnion(x)
	case []interface{}:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := normalize(e).(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case interface{ String() string }:
		return x.String()
	default:
		return v
	}
}

// unwrapUnion flattens Avro's {"type": value} union encoding.
func unwrapUnion(m map[string]interface{}) interface{} {
	if len(m) == 1 {
		for _, v := range m {
			return normalize(v)
		}
	}
	return nil
}

// parseCell converts a CSV cell when type inference is on.
func parseCell(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// numericColumn reports whether a SQL column type holds numbers that some
// drivers return as text.
func numericColumn(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "DECIMAL", "NUMERIC", "NUMBER", "FIXED", "REAL", "FLOAT", "DOUBLE",
		"INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT",
		"UNSIGNED INT", "UNSIGNED BIGINT", "UNSIGNED TINYINT", "UNSIGNED SMALLINT":
		return true
	}
	return false
}
