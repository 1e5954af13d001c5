package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Variant is one registered alternative of a union.
type Variant struct {
	Tag    string
	typ    reflect.Type
	decode func([]byte) (any, error)
	encode func(any) ([]byte, error)
}

// VariantOf registers record type T under tag.
func VariantOf[T any](tag string) Variant {
	return Variant{
		Tag: tag,
		typ: reflect.TypeFor[T](),
		decode: func(data []byte) (any, error) {
			var v T
			if err := Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
		encode: func(v any) ([]byte, error) {
			return Marshal(v.(T))
		},
	}
}

// Type returns the Go type registered for the variant.
func (v Variant) Type() reflect.Type {
	return v.typ
}

// Value is a decoded union: exactly one payload plus the tag of the variant
// it belongs to. The zero Value is empty and fails to encode.
type Value struct {
	tag     string
	payload any
}

// Tag returns the registered tag of the held variant.
func (v Value) Tag() string {
	return v.tag
}

// Payload returns the held variant value.
func (v Value) Payload() any {
	return v.payload
}

// IsZero reports whether v holds no variant.
func (v Value) IsZero() bool {
	return v.payload == nil
}

// As returns the payload of v if it holds a T.
func As[T any](v Value) (T, bool) {
	t, ok := v.payload.(T)
	return t, ok
}

// Registry describes one union type: its name, the discriminant member when
// the wire format carries one, and its variants in declaration order.
type Registry struct {
	name          string
	discriminator string
	variants      []Variant
	byTag         map[string]int
	byType        map[reflect.Type]int
}

// NewTagged builds a registry for a union whose wire form names its variant
// in the member field. Variant payloads do not declare that member; it is
// stripped before decoding and spliced back in when encoding.
func NewTagged(name, field string, variants ...Variant) *Registry {
	if field == "" {
		panic(fmt.Sprintf("schema: union %s: empty discriminator", name))
	}
	return newRegistry(name, field, variants)
}

// NewUntagged builds a registry for a union identified only by shape.
// Variants are probed in the given order, first rejecting unknown top-level
// members and then, if nothing matched, tolerating them. The first variant
// that accepts the payload wins; tolerated members land in its Extras.
func NewUntagged(name string, variants ...Variant) *Registry {
	return newRegistry(name, "", variants)
}

func newRegistry(name, field string, variants []Variant) *Registry {
	if len(variants) == 0 {
		panic(fmt.Sprintf("schema: union %s: no variants", name))
	}
	r := &Registry{
		name:          name,
		discriminator: field,
		variants:      variants,
		byTag:         make(map[string]int, len(variants)),
		byType:        make(map[reflect.Type]int, len(variants)),
	}
	for i, v := range variants {
		if v.Tag == "" || v.typ == nil {
			panic(fmt.Sprintf("schema: union %s: variant %d is not built with VariantOf", name, i))
		}
		if _, dup := r.byTag[v.Tag]; dup {
			panic(fmt.Sprintf("schema: union %s: duplicate tag %q", name, v.Tag))
		}
		if _, dup := r.byType[v.typ]; dup {
			panic(fmt.Sprintf("schema: union %s: type %s registered twice", name, v.typ))
		}
		r.byTag[v.Tag] = i
		r.byType[v.typ] = i
	}
	return r
}

// Name returns the union's type name.
func (r *Registry) Name() string {
	return r.name
}

// Discriminator returns the discriminant member, or "" for structural unions.
func (r *Registry) Discriminator() string {
	return r.discriminator
}

// Tags returns the registered tags in declaration order.
func (r *Registry) Tags() []string {
	tags := make([]string, len(r.variants))
	for i, v := range r.variants {
		tags[i] = v.Tag
	}
	return tags
}

// Variants returns the registered variants in declaration order.
func (r *Registry) Variants() []Variant {
	return append([]Variant(nil), r.variants...)
}

// Wrap builds a Value from a variant payload, identifying the variant by the
// payload's Go type. Pointers to a registered type are dereferenced.
func (r *Registry) Wrap(payload any) (Value, error) {
	rv := reflect.ValueOf(payload)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return Value{}, &VariantMismatchError{Union: r.name, Reason: "nil payload"}
	}
	i, ok := r.byType[rv.Type()]
	if !ok {
		return Value{}, &VariantMismatchError{Union: r.name, Reason: fmt.Sprintf("%s is not a registered variant", rv.Type())}
	}
	return Value{tag: r.variants[i].Tag, payload: rv.Interface()}, nil
}

// MustWrap is like Wrap but panics if payload is not a registered variant.
func (r *Registry) MustWrap(payload any) Value {
	v, err := r.Wrap(payload)
	if err != nil {
		panic(err)
	}
	return v
}

// Decode resolves data to exactly one registered variant.
func (r *Registry) Decode(data []byte) (Value, error) {
	if r.discriminator != "" {
		i, payload, err := r.dispatch(data)
		if err != nil {
			return Value{}, err
		}
		v, err := r.variants[i].decode(payload)
		if err != nil {
			return Value{}, err
		}
		return Value{tag: r.variants[i].Tag, payload: v}, nil
	}

	if !gjson.ValidBytes(data) {
		return Value{}, &TypeMismatchError{Type: r.name, Expected: "JSON", Got: "malformed input"}
	}
	var attempts []VariantAttempt
	for _, strict := range probePasses {
		attempts = nil
		for _, variant := range r.variants {
			if err := checkType(data, variant.typ, strict); err != nil {
				attempts = append(attempts, VariantAttempt{Tag: variant.Tag, Err: err})
				continue
			}
			v, err := variant.decode(data)
			if err != nil {
				attempts = append(attempts, VariantAttempt{Tag: variant.Tag, Err: err})
				continue
			}
			return Value{tag: variant.Tag, payload: v}, nil
		}
	}
	return Value{}, &VariantMismatchError{Union: r.name, Attempts: attempts}
}

// DecodeInto decodes data into *dst, leaving it untouched on failure.
func (r *Registry) DecodeInto(data []byte, dst *Value) error {
	v, err := r.Decode(data)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// Validate applies Decode's dispatch to data but only checks shapes.
func (r *Registry) Validate(data []byte) error {
	if r.discriminator != "" {
		i, payload, err := r.dispatch(data)
		if err != nil {
			return err
		}
		return CheckType(payload, r.variants[i].typ)
	}

	_, err := r.probe(data)
	return err
}

// Match reports which variant data would decode to, without decoding it.
func (r *Registry) Match(data []byte) (string, error) {
	if r.discriminator != "" {
		i, payload, err := r.dispatch(data)
		if err != nil {
			return "", err
		}
		if err := CheckType(payload, r.variants[i].typ); err != nil {
			return "", err
		}
		return r.variants[i].Tag, nil
	}
	i, err := r.probe(data)
	if err != nil {
		return "", err
	}
	return r.variants[i].Tag, nil
}

// probePasses are the strictness levels structural probing tries in order.
var probePasses = [...]bool{true, false}

// probe returns the index of the variant a structural union resolves data to.
// An exact shape match takes precedence over an earlier variant that would
// only accept data by setting unknown members aside.
func (r *Registry) probe(data []byte) (int, error) {
	if !gjson.ValidBytes(data) {
		return 0, &TypeMismatchError{Type: r.name, Expected: "JSON", Got: "malformed input"}
	}
	var attempts []VariantAttempt
	for _, strict := range probePasses {
		attempts = nil
		for i, variant := range r.variants {
			if err := checkType(data, variant.typ, strict); err != nil {
				attempts = append(attempts, VariantAttempt{Tag: variant.Tag, Err: err})
				continue
			}
			return i, nil
		}
	}
	return 0, &VariantMismatchError{Union: r.name, Attempts: attempts}
}

// Encode writes v in its wire form. Tagged unions gain the discriminant
// member; structural unions emit the payload unchanged.
func (r *Registry) Encode(v Value) ([]byte, error) {
	if v.IsZero() {
		return nil, &VariantMismatchError{Union: r.name, Reason: "empty union value"}
	}
	i, ok := r.byTag[v.tag]
	if !ok || reflect.TypeOf(v.payload) != r.variants[i].typ {
		return nil, &VariantMismatchError{Union: r.name, Discriminator: r.discriminatorName(), Tag: v.tag}
	}

	data, err := r.variants[i].encode(v.payload)
	if err != nil {
		return nil, err
	}
	if r.discriminator == "" {
		return data, nil
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, &TypeMismatchError{Type: r.name, Expected: "object", Got: "non-object variant " + v.tag}
	}
	return sjson.SetBytes(data, escapePath(r.discriminator), v.tag)
}

// ValidateValue checks that v holds a registered variant and that the
// payload itself validates.
func (r *Registry) ValidateValue(v Value) error {
	if v.IsZero() {
		return &VariantMismatchError{Union: r.name, Reason: "empty union value"}
	}
	i, ok := r.byTag[v.tag]
	if !ok || reflect.TypeOf(v.payload) != r.variants[i].typ {
		return &VariantMismatchError{Union: r.name, Discriminator: r.discriminatorName(), Tag: v.tag}
	}
	return Validate(v.payload)
}

// dispatch reads the discriminant and returns the matching variant index and
// the payload with the discriminant member removed.
func (r *Registry) dispatch(data []byte) (int, []byte, error) {
	if !gjson.ValidBytes(data) {
		return 0, nil, &TypeMismatchError{Type: r.name, Expected: "JSON", Got: "malformed input"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return 0, nil, &TypeMismatchError{Type: r.name, Expected: "object", Got: resultKind(root)}
	}
	path := escapePath(r.discriminator)
	occurrences := 0
	root.ForEach(func(key, _ gjson.Result) bool {
		if key.String() == r.discriminator {
			occurrences++
		}
		return true
	})
	if occurrences > 1 {
		return 0, nil, &VariantMismatchError{Union: r.name, Discriminator: r.discriminator, Reason: fmt.Sprintf("discriminator %q appears more than once", r.discriminator)}
	}
	d := root.Get(path)
	if !d.Exists() || d.Type == gjson.Null {
		return 0, nil, &MissingFieldError{Type: r.name, Field: r.discriminator}
	}
	if d.Type != gjson.String {
		return 0, nil, &TypeMismatchError{Type: r.name, Field: r.discriminator, Expected: "string", Got: resultKind(d)}
	}
	i, ok := r.byTag[d.String()]
	if !ok {
		return 0, nil, &VariantMismatchError{Union: r.name, Discriminator: r.discriminator, Tag: d.String()}
	}
	payload, err := sjson.DeleteBytes(append([]byte(nil), data...), path)
	if err != nil {
		return 0, nil, &TypeMismatchError{Type: r.name, Field: r.discriminator, Expected: "object", Got: "malformed input", Err: err}
	}
	return i, payload, nil
}

func (r *Registry) discriminatorName() string {
	if r.discriminator == "" {
		return "variant"
	}
	return r.discriminator
}

// escapePath quotes the characters gjson and sjson treat as path syntax.
func escapePath(key string) string {
	var b strings.Builder
	for _, c := range key {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
