// Package schema is a small declarative document schema: field paths such as
// "currency.iso" or "tags.$" map to a type, optionality, a default and
// index hints. Validation is pure; defaults and key filtering happen only in
// Clean, which callers run explicitly while deriving a record.
package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Document is a loosely typed record as it comes out of a document store.
type Document = map[string]any

type Type int

const (
	String Type = iota + 1
	Number
	Boolean
	Date
	Object
	Array
)

func (t Type) String() string {
	switch t {
	case String:
		return "String"
	case Number:
		return "Number"
	case Boolean:
		return "Boolean"
	case Date:
		return "Date"
	case Object:
		return "Object"
	case Array:
		return "Array"
	}
	return "Unknown"
}

// Field declares one path of the schema.
type Field struct {
	Type     Type
	Optional bool
	// Decimal allows fractional numbers. Without it a Number must be integral.
	Decimal bool
	// Scale caps the fractional digits of a Decimal number; 0 means no cap.
	Scale int32
	// Blackbox objects accept any keys; only declared children are checked.
	Blackbox bool
	Default  any
	// Index and Unique are hints for the destination store, never checked here.
	Index  int
	Unique bool
}

// IndexHint is a destination index derived from the schema.
type IndexHint struct {
	Key    string
	Order  int
	Unique bool
}

type Schema struct {
	fields   map[string]Field
	children map[string][]string
}

// New builds a schema from path → field declarations. Array element paths use
// "$" ("tags.$"). Parents must be declared for nested paths.
func New(fields map[string]Field) *Schema {
	s := &Schema{
		fields:   make(map[string]Field, len(fields)),
		children: map[string][]string{},
	}
	for key, f := range fields {
		s.fields[key] = f
		parent := ""
		if i := strings.LastIndex(key, "."); i >= 0 {
			parent = key[:i]
		}
		s.children[parent] = append(s.children[parent], key)
	}
	for parent := range s.children {
		sort.Strings(s.children[parent])
	}
	return s
}

func (s *Schema) Indexes() []IndexHint {
	var hints []IndexHint
	for _, key := range s.sortedKeys() {
		f := s.fields[key]
		if f.Index == 0 && !f.Unique {
			continue
		}
		order := f.Index
		if order == 0 {
			order = 1
		}
		hints = append(hints, IndexHint{Key: key, Order: order, Unique: f.Unique})
	}
	return hints
}

func (s *Schema) sortedKeys() []string {
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FieldError is one failed constraint. Name is the concrete path, with array
// positions spelled out ("tags.2").
type FieldError struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

const (
	ErrRequired       = "required"
	ErrExpectedType   = "expectedType"
	ErrNoDecimal      = "noDecimal"
	ErrMaxScale       = "maxScale"
	ErrKeyNotInSchema = "keyNotInSchema"
)

func (e FieldError) Error() string {
	switch e.Type {
	case ErrRequired:
		return fmt.Sprintf("%s is required", e.Name)
	case ErrExpectedType:
		return fmt.Sprintf("%s has an unexpected type %T", e.Name, e.Value)
	case ErrNoDecimal:
		return fmt.Sprintf("%s must be an integer", e.Name)
	case ErrMaxScale:
		return fmt.Sprintf("%s has more decimal places than allowed", e.Name)
	case ErrKeyNotInSchema:
		return fmt.Sprintf("%s is not allowed by the schema", e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Type)
}

// Validate checks doc against the schema and returns every violation. A nil
// value counts as absent. It never mutates doc.
func (s *Schema) Validate(doc Document) []FieldError {
	var errs []FieldError
	s.validateObject("", "", doc, false, &errs)
	return errs
}

func (s *Schema) validateObject(schemaPrefix, namePrefix string, obj map[string]any, blackbox bool, errs *[]FieldError) {
	declared := map[string]bool{}
	for _, key := range s.children[schemaPrefix] {
		name := lastSegment(key)
		declared[name] = true
		if name == "$" {
			continue
		}
		s.validateValue(key, joinPath(namePrefix, name), obj[name], errs)
	}
	if blackbox {
		return
	}
	extra := make([]string, 0)
	for name := range obj {
		if !declared[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		*errs = append(*errs, FieldError{Name: joinPath(namePrefix, name), Type: ErrKeyNotInSchema})
	}
}

func (s *Schema) validateValue(key, name string, v any, errs *[]FieldError) {
	f := s.fields[key]
	if isAbsent(v) {
		if !f.Optional {
			*errs = append(*errs, FieldError{Name: name, Type: ErrRequired})
		}
		return
	}
	if errType := checkType(f, v); errType != "" {
		*errs = append(*errs, FieldError{Name: name, Type: errType, Value: v})
		return
	}
	switch f.Type {
	case Object:
		obj, _ := AsObject(v)
		s.validateObject(key, name, obj, f.Blackbox, errs)
	case Array:
		if _, ok := s.fields[key+".$"]; !ok {
			return
		}
		for i, elem := range AsArray(v) {
			s.validateValue(key+".$", fmt.Sprintf("%s.%d", name, i), elem, errs)
		}
	}
}

func checkType(f Field, v any) string {
	switch f.Type {
	case String:
		if _, ok := v.(string); !ok {
			return ErrExpectedType
		}
	case Boolean:
		if _, ok := v.(bool); !ok {
			return ErrExpectedType
		}
	case Date:
		if _, ok := AsTime(v); !ok {
			return ErrExpectedType
		}
	case Number:
		d, ok := ToDecimal(v)
		if !ok {
			return ErrExpectedType
		}
		if !f.Decimal && !d.IsInteger() {
			return ErrNoDecimal
		}
		if f.Scale > 0 && !d.Equal(d.Truncate(f.Scale)) {
			return ErrMaxScale
		}
	case Object:
		if _, ok := AsObject(v); !ok {
			return ErrExpectedType
		}
	case Array:
		if !isArray(v) {
			return ErrExpectedType
		}
	}
	return ""
}

// Clean returns a copy of doc with keys unknown to the schema removed from
// every non-blackbox object, nil values dropped, and declared defaults filled
// in for absent fields whose parent object exists.
func (s *Schema) Clean(doc Document) Document {
	return s.cleanObject("", doc, false)
}

func (s *Schema) cleanObject(schemaPrefix string, obj map[string]any, blackbox bool) map[string]any {
	out := make(map[string]any, len(obj))
	if blackbox {
		for k, v := range obj {
			if !isAbsent(v) {
				out[k] = v
			}
		}
	}
	for _, key := range s.children[schemaPrefix] {
		name := lastSegment(key)
		if name == "$" {
			continue
		}
		v := obj[name]
		if isAbsent(v) {
			delete(out, name)
			if f := s.fields[key]; f.Default != nil {
				out[name] = f.Default
			}
			continue
		}
		out[name] = s.cleanValue(key, v)
	}
	return out
}

func (s *Schema) cleanValue(key string, v any) any {
	f := s.fields[key]
	switch f.Type {
	case Object:
		if obj, ok := AsObject(v); ok {
			return s.cleanObject(key, obj, f.Blackbox)
		}
	case Array:
		elem, ok := s.fields[key+".$"]
		if !ok || elem.Type != Object || !isArray(v) {
			return v
		}
		items := AsArray(v)
		cleaned := make([]any, len(items))
		for i, item := range items {
			cleaned[i] = s.cleanValue(key+".$", item)
		}
		return cleaned
	}
	return v
}

func lastSegment(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isArray(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8
}
