package schema

import (
	"encoding/json" // For json.RawMessage and json.Number types only
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	jsonpool "github.com/ajitpratap0/brainless/pkg/json"
	"github.com/ajitpratap0/brainless/pkg/record"
)

// InferenceOptions tunes role suggestions.
type InferenceOptions struct {
	// MaxCategoricalCardinality is the largest distinct-value count a short
	// string column may have and still be suggested as categorical.
	MaxCategoricalCardinality int
	// MinTextTokens is the average token count at which strings are
	// considered free text.
	MinTextTokens float64
	// ConfidenceThreshold is the share of values the dominant type needs
	// before a column is treated as that type rather than mixed.
	ConfidenceThreshold float64
}

// DefaultInferenceOptions returns the options used when none are given.
func DefaultInferenceOptions() InferenceOptions {
	return InferenceOptions{
		MaxCategoricalCardinality: 50,
		MinTextTokens:             3,
		ConfidenceThreshold:       0.95,
	}
}

// TypeInferenceEngine inspects training rows and suggests column roles.
type TypeInferenceEngine struct {
	logger *zap.Logger
	opts   InferenceOptions

	datePatterns []*regexp.Regexp
	uuidPattern  *regexp.Regexp
	jsonPattern  *regexp.Regexp
}

// InferredType represents a type inference result with confidence
type InferredType struct {
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Format       string        `json:"format,omitempty"`
	Confidence   float64       `json:"confidence"`
	Nullable     bool          `json:"nullable"`
	Present      int           `json:"present"`
	Cardinality  int           `json:"cardinality"`
	Examples     []interface{} `json:"examples,omitempty"`
	NumericStats *NumericStats `json:"numeric_stats,omitempty"`
	StringStats  *StringStats  `json:"string_stats,omitempty"`
	Suggested    Role          `json:"suggested_role"`
}

// NumericStats holds statistics for numeric types
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// StringStats holds statistics for string types
type StringStats struct {
	MinLength int     `json:"min_length"`
	MaxLength int     `json:"max_length"`
	AvgLength float64 `json:"avg_length"`
	AvgTokens float64 `json:"avg_tokens"`
}

// NewTypeInferenceEngine creates a new type inference engine
func NewTypeInferenceEngine(logger *zap.Logger, opts InferenceOptions) *TypeInferenceEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultInferenceOptions()
	if opts.MaxCategoricalCardinality <= 0 {
		opts.MaxCategoricalCardinality = def.MaxCategoricalCardinality
	}
	if opts.MinTextTokens <= 0 {
		opts.MinTextTokens = def.MinTextTokens
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = def.ConfidenceThreshold
	}
	engine := &TypeInferenceEngine{
		logger: logger,
		opts:   opts,
	}
	engine.initializePatterns()
	return engine
}

// Infer suggests a role for every attribute in rows. It is a convenience
// wrapper around TypeInferenceEngine.Describe.
func Infer(rows []record.Record, opts InferenceOptions) map[string]Role {
	engine := NewTypeInferenceEngine(nil, opts)
	roles := make(map[string]Role)
	for _, it := range engine.Describe(rows) {
		roles[it.Name] = it.Suggested
	}
	return roles
}

// Describe infers the type of every attribute in rows, sorted by name.
func (e *TypeInferenceEngine) Describe(rows []record.Record) []*InferredType {
	fieldMap := make(map[string][]interface{})
	for _, row := range rows {
		for key, value := range row {
			fieldMap[key] = append(fieldMap[key], value)
		}
	}

	names := make([]string, 0, len(fieldMap))
	for name := range fieldMap {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*InferredType, 0, len(names))
	for _, name := range names {
		values := fieldMap[name]
		// Attributes missing from a row are nulls too.
		for i := len(values); i < len(rows); i++ {
			values = append(values, nil)
		}
		it := e.InferType(name, values)
		e.logger.Debug("inferred column type",
			zap.String("column", name),
			zap.String("type", it.Type),
			zap.Int("cardinality", it.Cardinality),
			zap.String("suggested_role", string(it.Suggested)))
		out = append(out, it)
	}
	return out
}

// InferType infers the type of a field from sample values
func (e *TypeInferenceEngine) InferType(fieldName string, values []interface{}) *InferredType {
	nonNull := make([]interface{}, 0, len(values))
	nullCount := 0
	for _, v := range values {
		if v == nil {
			nullCount++
		} else {
			nonNull = append(nonNull, v)
		}
	}

	if len(nonNull) == 0 {
		return &InferredType{
			Name:      fieldName,
			Type:      "unknown",
			Nullable:  true,
			Suggested: RoleIgnore,
		}
	}

	typeCounts := make(map[string]int)
	for _, value := range nonNull {
		typeCounts[e.detectValueType(value)]++
	}
	// Integers widen to floats when both appear.
	if typeCounts["integer"] > 0 && typeCounts["float"] > 0 {
		typeCounts["float"] += typeCounts["integer"]
		delete(typeCounts, "integer")
	}

	// Dominant type; ties resolve alphabetically so the result is stable.
	types := make([]string, 0, len(typeCounts))
	for typ := range typeCounts {
		types = append(types, typ)
	}
	sort.Strings(types)
	dominant, maxCount := "", 0
	for _, typ := range types {
		if typeCounts[typ] > maxCount {
			maxCount = typeCounts[typ]
			dominant = typ
		}
	}

	confidence := float64(maxCount) / float64(len(nonNull))
	if confidence < e.opts.ConfidenceThreshold && len(typeCounts) > 1 {
		dominant = "string"
	}

	unique := getUniqueValues(nonNull)
	inferred := &InferredType{
		Name:        fieldName,
		Type:        dominant,
		Confidence:  confidence,
		Nullable:    nullCount > 0,
		Present:     len(nonNull),
		Cardinality: len(unique),
	}
	if len(unique) <= 10 {
		inferred.Examples = unique
	} else {
		inferred.Examples = unique[:5]
	}

	switch dominant {
	case "integer", "float":
		inferred.NumericStats = calculateNumericStats(nonNull)
	case "string":
		inferred.StringStats = calculateStringStats(nonNull)
		inferred.Format = e.detectStringFormat(nonNull)
	}

	inferred.Suggested = e.suggestRole(inferred)
	return inferred
}

func (e *TypeInferenceEngine) suggestRole(it *InferredType) Role {
	switch it.Type {
	case "boolean":
		return RoleCategorical
	case "integer", "float":
		return RoleNumeric
	case "string":
		if it.Format == "uuid" {
			return RoleIgnore
		}
		if it.StringStats != nil && it.StringStats.AvgTokens >= e.opts.MinTextTokens {
			return RoleNLP
		}
		if it.Cardinality <= e.opts.MaxCategoricalCardinality {
			return RoleCategorical
		}
		return RoleNLP
	default:
		return RoleIgnore
	}
}

// detectValueType detects the type of a single value
func (e *TypeInferenceEngine) detectValueType(value interface{}) string {
	switch v := value.(type) {
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		if f, _ := record.ToFloat(v); f == math.Trunc(f) {
			return "integer"
		}
		return "float"
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return "integer"
		}
		return "float"
	case string:
		if e.isBoolean(v) {
			return "boolean"
		}
		if isInteger(v) {
			return "integer"
		}
		if isFloat(v) {
			return "float"
		}
		if e.isJSON(v) {
			return "json"
		}
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return "unknown"
	}
}

// detectStringFormat returns the format shared by at least 80% of values
func (e *TypeInferenceEngine) detectStringFormat(values []interface{}) string {
	counts := make(map[string]int)
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if f := e.detectFormat(s); f != "" {
			counts[f]++
		}
	}
	threshold := int(float64(len(values)) * 0.8)
	best, bestCount := "", 0
	for _, f := range []string{"date", "uuid"} {
		if c := counts[f]; c > bestCount && c >= threshold {
			best, bestCount = f, c
		}
	}
	return best
}

func (e *TypeInferenceEngine) detectFormat(value string) string {
	for _, pattern := range e.datePatterns {
		if pattern.MatchString(value) {
			return "date"
		}
	}
	if e.uuidPattern.MatchString(value) {
		return "uuid"
	}
	return ""
}

// Helper methods for type detection
func (e *TypeInferenceEngine) isBoolean(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return lower == "true" || lower == "false" || lower == "yes" || lower == "no"
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, ok := record.ToFloat(s)
	return ok
}

func (e *TypeInferenceEngine) isJSON(s string) bool {
	if !e.jsonPattern.MatchString(s) {
		return false
	}
	var js json.RawMessage
	return jsonpool.Unmarshal([]byte(s), &js) == nil
}

// initializePatterns initializes regex patterns for format detection
func (e *TypeInferenceEngine) initializePatterns() {
	e.datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),               // YYYY-MM-DD
		regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),               // MM/DD/YYYY
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}`), // ISO 8601 / SQL timestamp
	}
	e.uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	e.jsonPattern = regexp.MustCompile(`^[\{\[].*[\}\]]$`)
}

// calculateNumericStats calculates statistics for numeric values
func calculateNumericStats(values []interface{}) *NumericStats {
	numbers := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := record.ToFloat(v); ok {
			numbers = append(numbers, f)
		}
	}
	if len(numbers) == 0 {
		return nil
	}

	stats := &NumericStats{Min: numbers[0], Max: numbers[0]}
	sum := 0.0
	for _, n := range numbers {
		stats.Min = math.Min(stats.Min, n)
		stats.Max = math.Max(stats.Max, n)
		sum += n
	}
	stats.Mean = sum / float64(len(numbers))

	sq := 0.0
	for _, n := range numbers {
		sq += (n - stats.Mean) * (n - stats.Mean)
	}
	stats.StdDev = math.Sqrt(sq / float64(len(numbers)))

	sorted := append([]float64(nil), numbers...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		stats.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		stats.Median = sorted[mid]
	}
	return stats
}

// calculateStringStats calculates statistics for string values
func calculateStringStats(values []interface{}) *StringStats {
	stats := &StringStats{MinLength: int(^uint(0) >> 1)}
	totalLength, totalTokens, count := 0, 0, 0

	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		length := len([]rune(str))
		if length < stats.MinLength {
			stats.MinLength = length
		}
		if length > stats.MaxLength {
			stats.MaxLength = length
		}
		totalLength += length
		totalTokens += len(strings.FieldsFunc(str, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		count++
	}

	if count == 0 {
		stats.MinLength = 0
		return stats
	}
	stats.AvgLength = float64(totalLength) / float64(count)
	stats.AvgTokens = float64(totalTokens) / float64(count)
	return stats
}

// getUniqueValues returns unique values from a slice in first-seen order
func getUniqueValues(values []interface{}) []interface{} {
	seen := make(map[string]bool)
	unique := make([]interface{}, 0)
	for _, v := range values {
		key := record.ToKey(v)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, v)
		}
	}
	return unique
}
