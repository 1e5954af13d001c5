package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Extras holds the members of a decoded object that its record type does not
// declare, keyed by wire name and kept verbatim. A record opts in by declaring
// a field of this type; Marshal never emits it.
type Extras map[string]json.RawMessage

// Has reports whether key was present in the decoded input.
func (e Extras) Has(key string) bool {
	_, ok := e[key]
	return ok
}

// Keys returns the preserved wire names in sorted order.
func (e Extras) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get decodes the preserved value for key into v.
func (e Extras) Get(key string, v any) error {
	raw, ok := e[key]
	if !ok {
		return fmt.Errorf("schema: extra field %q not present", key)
	}
	return json.Unmarshal(raw, v)
}

// Checker is implemented by types that validate their own wire shape, such as
// unions. Types implementing it must also implement json.Marshaler and
// json.Unmarshaler; the engine delegates all three to them.
type Checker interface {
	CheckJSON(data []byte) error
}

// RecordValidator is an optional hook run by Validate after a record's fields
// have been validated.
type RecordValidator interface {
	ValidateRecord() error
}

// Validator is an optional hook run by Validate for custom (Checker) types.
type Validator interface {
	Validate() error
}

// Known is implemented by enum-like string types.
type Known interface {
	IsKnown() bool
}

var (
	rawMessageType  = reflect.TypeFor[json.RawMessage]()
	extrasType      = reflect.TypeFor[Extras]()
	unmarshalerType = reflect.TypeFor[json.Unmarshaler]()
	marshalerType   = reflect.TypeFor[json.Marshaler]()
	checkerType     = reflect.TypeFor[Checker]()
)

type field struct {
	name     string
	wire     string
	index    []int
	typ      reflect.Type
	required bool
}

type record struct {
	name   string
	fields []field
	byWire map[string]int
	extras []int
	err    error
}

var records sync.Map // reflect.Type -> *record

func recordOf(t reflect.Type) (*record, error) {
	if r, ok := records.Load(t); ok {
		rec := r.(*record)
		return rec, rec.err
	}
	rec := buildRecord(t)
	actual, _ := records.LoadOrStore(t, rec)
	rec = actual.(*record)
	return rec, rec.err
}

func buildRecord(t reflect.Type) *record {
	rec := &record{name: typeName(t), byWire: make(map[string]int)}
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Type == extrasType {
			if rec.extras != nil {
				rec.err = fmt.Errorf("schema: %s declares more than one Extras field", rec.name)
				return rec
			}
			rec.extras = sf.Index
			continue
		}

		tag, hasTag := sf.Tag.Lookup("json")
		if tag == "-" {
			continue
		}
		wire, opts, _ := strings.Cut(tag, ",")
		if !hasTag || wire == "" {
			wire = sf.Name
		}
		required := false
		for _, opt := range strings.Split(opts, ",") {
			if opt == "required" {
				required = true
			}
		}
		if !required && !nilable(sf.Type.Kind()) {
			rec.err = fmt.Errorf("schema: %s.%s is optional but %s cannot represent an unset value; use a pointer",
				rec.name, sf.Name, sf.Type)
			return rec
		}
		if _, dup := rec.byWire[wire]; dup {
			rec.err = fmt.Errorf("schema: %s declares wire name %q twice", rec.name, wire)
			return rec
		}

		rec.byWire[wire] = len(rec.fields)
		rec.fields = append(rec.fields, field{
			name:     sf.Name,
			wire:     wire,
			index:    sf.Index,
			typ:      sf.Type,
			required: required,
		})
	}
	return rec
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// isCustom reports whether t describes its own wire format through Checker.
// Pointer types are unwrapped by the caller first.
func isCustom(t reflect.Type) bool {
	return t.Kind() != reflect.Pointer &&
		(t.Implements(checkerType) || reflect.PointerTo(t).Implements(checkerType))
}

// isRecord reports whether the engine walks struct type t field by field.
// Records carrying an Extras bag are always walked natively, as is the root
// value; other structs with their own UnmarshalJSON are left to it.
func isRecord(t reflect.Type, depth int) bool {
	if t.Kind() != reflect.Struct || isCustom(t) {
		return false
	}
	if depth == 0 || hasExtras(t) {
		return true
	}
	return !reflect.PointerTo(t).Implements(unmarshalerType)
}

func hasExtras(t reflect.Type) bool {
	for i := range t.NumField() {
		if t.Field(i).Type == extrasType {
			return true
		}
	}
	return false
}

func kindName(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	}
	return k.String()
}

// UnionValue is implemented by union field types through an embedded Value.
type UnionValue interface {
	Tag() string
	Payload() any
	IsZero() bool
}

// ExtrasOf returns the preserved unknown members of a decoded record, or of
// the payload held by a union. It returns nil for values without an Extras
// field.
func ExtrasOf(v any) Extras {
	if u, ok := v.(UnionValue); ok {
		if u.IsZero() {
			return nil
		}
		return ExtrasOf(u.Payload())
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
		if rv.CanInterface() {
			if u, ok := rv.Interface().(UnionValue); ok {
				return ExtrasOf(u)
			}
		}
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	for i := range rv.NumField() {
		if f := rv.Type().Field(i); f.Type == extrasType && f.IsExported() {
			return rv.Field(i).Interface().(Extras)
		}
	}
	return nil
}
