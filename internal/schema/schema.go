// Package schema declares the shapes of the raw song and event documents and applies
// them to decoded JSON with a permissive, null-on-mismatch policy.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
)

// Type is the semantic type of a declared field.
type Type int

const (
	String Type = iota
	Double
	Int
	Long
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Double:
		return "double"
	case Int:
		return "int"
	case Long:
		return "long"
	default:
		return "unknown"
	}
}

// Field is one named, typed column of a schema.
type Field struct {
	Name     string
	Type     Type
	Nullable bool
}

// Schema is an ordered list of fields.
type Schema struct {
	Name   string
	Fields []Field
	index  map[string]int
}

// New builds a schema, keeping field order as declared.
func New(name string, fields ...Field) *Schema {
	s := &Schema{
		Name:   name,
		Fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Lookup returns the field with the given name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Require resolves column references up front so a bad reference fails the run before
// any row is produced.
func (s *Schema) Require(names ...string) error {
	for _, name := range names {
		if _, ok := s.index[name]; !ok {
			return apperrors.NewRead(fmt.Sprintf("column %q not found in %s schema", name, s.Name), nil)
		}
	}
	return nil
}

// Decode applies the schema to one JSON object decoded with json.Decoder.UseNumber.
// Values that cannot be coerced to the declared type become null; keys that the schema
// does not declare are dropped.
func (s *Schema) Decode(doc map[string]any) Record {
	values := make([]any, len(s.Fields))
	for i, f := range s.Fields {
		raw, ok := doc[f.Name]
		if !ok {
			continue
		}
		values[i] = coerce(f.Type, raw)
	}
	return Record{schema: s, values: values}
}

func coerce(t Type, raw any) any {
	if raw == nil {
		return nil
	}

	switch t {
	case String:
		switch v := raw.(type) {
		case string:
			return v
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil
			}
			return string(b)
		}
	case Double:
		text, ok := numericText(raw)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case Int, Long:
		text, ok := numericText(raw)
		if !ok {
			return nil
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil
		}
		if t == Int && (n < math.MinInt32 || n > math.MaxInt32) {
			return nil
		}
		return n
	}
	return nil
}

func numericText(raw any) (string, bool) {
	switch v := raw.(type) {
	case json.Number:
		return v.String(), true
	case string:
		return v, v != ""
	default:
		return "", false
	}
}

// Record is one schema-applied document. Accessors return nil for null values and for
// names outside the schema; use Schema.Require to reject unknown names.
type Record struct {
	schema *Schema
	values []any
}

// Schema returns the schema the record was decoded with.
func (r Record) Schema() *Schema {
	return r.schema
}

func (r Record) value(name string) any {
	if r.schema == nil {
		return nil
	}
	i, ok := r.schema.index[name]
	if !ok {
		return nil
	}
	return r.values[i]
}

// Text returns a string column value.
func (r Record) Text(name string) *string {
	if v, ok := r.value(name).(string); ok {
		return &v
	}
	return nil
}

// Float returns a double column value.
func (r Record) Float(name string) *float64 {
	if v, ok := r.value(name).(float64); ok {
		return &v
	}
	return nil
}

// Int returns an int or long column value.
func (r Record) Int(name string) *int64 {
	if v, ok := r.value(name).(int64); ok {
		return &v
	}
	return nil
}

// Int32 returns an int column value narrowed to 32 bits.
func (r Record) Int32(name string) *int32 {
	if v, ok := r.value(name).(int64); ok {
		n := int32(v)
		return &n
	}
	return nil
}
