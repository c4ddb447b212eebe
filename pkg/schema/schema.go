// Package schema parses the role header that accompanies training data and
// resolves it against the data rows into an ordered column list.
//
// The header is a record whose values are role names:
//
//	{"name": "output", "is_red": "categorical", "description": "nlp"}
//
// Attributes present in the rows but absent from the header are implicit
// numeric columns. The role set is fixed before any row is fit.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ajitpratap0/brainless/pkg/errors"
	"github.com/ajitpratap0/brainless/pkg/record"
)

// Role is the declared treatment of a column.
type Role string

const (
	// RoleOutput marks the single prediction target
	RoleOutput Role = "output"
	// RoleCategorical marks a column encoded one-hot with an unknown slot
	RoleCategorical Role = "categorical"
	// RoleNLP marks a free-text column encoded with TF-IDF plus text statistics
	RoleNLP Role = "nlp"
	// RoleNumeric marks a column passed through with mean imputation
	RoleNumeric Role = "numeric"
	// RoleIgnore drops the column entirely
	RoleIgnore Role = "ignore"
)

var knownRoles = map[Role]bool{
	RoleOutput:      true,
	RoleCategorical: true,
	RoleNLP:         true,
	RoleNumeric:     true,
	RoleIgnore:      true,
}

// ParseRole normalises a role string. Unknown roles return false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, knownRoles[r]
}

// Column is one resolved column.
type Column struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
	// Implicit is true for numeric columns discovered in the rows rather
	// than declared in the header.
	Implicit bool `json:"implicit,omitempty"`
}

// Schema is the parsed role map. It is immutable; Resolve and WithRoles
// return copies.
type Schema struct {
	output  string
	columns []Column
	index   map[string]int
}

// Parse validates a header record and returns the declared schema.
// Declared columns are ordered by attribute name.
func Parse(header record.Record) (*Schema, error) {
	if len(header) == 0 {
		return nil, errors.New(errors.ErrorTypeSchema, "schema header declares no attributes")
	}

	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]Column, 0, len(names))
	var outputs []string
	for _, name := range names {
		raw, ok := header[name].(string)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeSchema,
				"role for attribute %q must be a string, got %T", name, header[name]).
				WithDetail("attribute", name)
		}
		role, ok := ParseRole(raw)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeSchema,
				"unrecognized role %q for attribute %q", raw, name).
				WithDetail("attribute", name).
				WithDetail("role", raw)
		}
		if role == RoleOutput {
			outputs = append(outputs, name)
		}
		columns = append(columns, Column{Name: name, Role: role})
	}

	switch len(outputs) {
	case 0:
		return nil, errors.New(errors.ErrorTypeSchema, "schema header declares no output attribute")
	case 1:
	default:
		return nil, errors.Newf(errors.ErrorTypeSchema,
			"schema header declares %d output attributes, exactly one is required", len(outputs)).
			WithDetail("attributes", outputs)
	}

	return newSchema(outputs[0], columns), nil
}

// FromColumns rebuilds a schema from resolved columns, as stored in a
// snapshot.
func FromColumns(columns []Column) (*Schema, error) {
	output := ""
	for _, c := range columns {
		if !knownRoles[c.Role] {
			return nil, errors.Newf(errors.ErrorTypeSchema, "unrecognized role %q for attribute %q", c.Role, c.Name).
				WithDetail("attribute", c.Name)
		}
		if c.Role == RoleOutput {
			if output != "" {
				return nil, errors.New(errors.ErrorTypeSchema, "more than one output column")
			}
			output = c.Name
		}
	}
	if output == "" {
		return nil, errors.New(errors.ErrorTypeSchema, "no output column")
	}
	cp := make([]Column, len(columns))
	copy(cp, columns)
	return newSchema(output, cp), nil
}

func newSchema(output string, columns []Column) *Schema {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.Name] = i
	}
	return &Schema{output: output, columns: columns, index: index}
}

// Resolve returns a copy of the schema extended with implicit numeric
// columns for every attribute seen in rows but not declared. Implicit
// columns follow the declared ones, sorted by name.
func (s *Schema) Resolve(rows []record.Record) *Schema {
	columns := make([]Column, len(s.columns), len(s.columns)+8)
	copy(columns, s.columns)

	for _, name := range record.Attributes(rows) {
		if _, ok := s.index[name]; ok {
			continue
		}
		columns = append(columns, Column{Name: name, Role: RoleNumeric, Implicit: true})
	}
	return newSchema(s.output, columns)
}

// WithRoles returns a copy in which implicit columns named in roles take the
// suggested role. Declared columns are never changed, and output is never
// assigned this way.
func (s *Schema) WithRoles(roles map[string]Role) *Schema {
	columns := make([]Column, len(s.columns))
	copy(columns, s.columns)
	for i, c := range columns {
		if !c.Implicit {
			continue
		}
		if r, ok := roles[c.Name]; ok && r != RoleOutput && knownRoles[r] {
			columns[i].Role = r
		}
	}
	return newSchema(s.output, columns)
}

// Without returns a copy with the named columns removed. The output column
// cannot be removed.
func (s *Schema) Without(names ...string) *Schema {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if n != s.output {
			drop[n] = true
		}
	}
	columns := make([]Column, 0, len(s.columns))
	for _, c := range s.columns {
		if !drop[c.Name] {
			columns = append(columns, c)
		}
	}
	return newSchema(s.output, columns)
}

// Output returns the output attribute name.
func (s *Schema) Output() string { return s.output }

// Columns returns every column, including output and ignored ones.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Features returns the columns that produce features, in pipeline order.
func (s *Schema) Features() []Column {
	out := make([]Column, 0, len(s.columns))
	for _, c := range s.columns {
		if c.Role == RoleOutput || c.Role == RoleIgnore {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Role returns the role of name and whether it is known to the schema.
func (s *Schema) Role(name string) (Role, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.columns[i].Role, true
}

// Column returns the column called name.
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// String renders the schema for logs.
func (s *Schema) String() string {
	parts := make([]string, len(s.columns))
	for i, c := range s.columns {
		suffix := ""
		if c.Implicit {
			suffix = "*"
		}
		parts[i] = fmt.Sprintf("%s:%s%s", c.Name, c.Role, suffix)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
