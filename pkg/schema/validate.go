package schema

import (
	"errors"
	"fmt"
	"reflect"
)

// Validate checks an in-memory value before it is sent: required pointer
// fields must be set, enum-like values must be known, unions must hold a
// registered variant, and RecordValidator hooks must pass. Nested values are
// validated recursively.
func Validate(v any) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return fmt.Errorf("schema: Validate requires a value")
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return fmt.Errorf("schema: Validate requires a non-nil value, got nil %s", rv.Type())
	}
	var c validator
	return c.value(rv, "", 0)
}

type validator struct {
	owner string
}

func (c *validator) value(v reflect.Value, path string, depth int) error {
	t := v.Type()
	if t == rawMessageType {
		return nil
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return c.value(v.Elem(), path, depth)
	}

	if isCustom(t) {
		if hook, ok := asInterface[Validator](v); ok {
			return withPath(hook.Validate(), path, c.name(t), typeName(t))
		}
		return nil
	}
	if isRecordForEncode(t, depth) {
		return c.record(v, path, depth)
	}

	if k, ok := asInterface[Known](v); ok && !k.IsKnown() {
		return &InvalidValueError{
			Type:   c.name(t),
			Field:  path,
			Reason: fmt.Sprintf("unknown %s value %q", typeName(t), fmt.Sprint(v.Interface())),
		}
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			if err := c.value(v.Index(i), indexPath(path, i), depth+1); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := c.value(iter.Value(), joinPath(path, iter.Key().String()), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *validator) record(v reflect.Value, path string, depth int) error {
	rec, err := recordOf(v.Type())
	if err != nil {
		return err
	}
	prev := c.owner
	c.owner = rec.name
	defer func() { c.owner = prev }()

	for _, f := range rec.fields {
		fieldPath := joinPath(path, f.wire)
		fv := v.FieldByIndex(f.index)
		switch fv.Kind() {
		case reflect.Pointer, reflect.Interface:
			if fv.IsNil() {
				if f.required {
					return &MissingFieldError{Type: rec.name, Field: fieldPath}
				}
				continue
			}
		}
		if err := c.value(fv, fieldPath, depth+1); err != nil {
			return err
		}
	}

	if hook, ok := asInterface[RecordValidator](v); ok {
		if err := hook.ValidateRecord(); err != nil {
			return hookError(err, path, rec.name)
		}
	}
	return nil
}

// hookError roots a ValidateRecord failure at path. Errors outside the schema
// taxonomy become InvalidValueErrors for the record itself.
func hookError(err error, path, name string) error {
	var iv *InvalidValueError
	switch {
	case errors.As(err, &iv):
		c := *iv
		if c.Type == "" {
			c.Type = name
		}
		c.Field = joinPath(path, c.Field)
		return &c
	case isTaxonomy(err):
		return withPath(err, path, name, name)
	}
	return &InvalidValueError{Type: name, Field: path, Err: err}
}

func isTaxonomy(err error) bool {
	var missing *MissingFieldError
	var mismatch *TypeMismatchError
	var variant *VariantMismatchError
	var unknown *UnknownFieldError
	return errors.As(err, &missing) || errors.As(err, &mismatch) ||
		errors.As(err, &variant) || errors.As(err, &unknown)
}

func (c *validator) name(t reflect.Type) string {
	if c.owner != "" {
		return c.owner
	}
	return typeName(t)
}

// asInterface finds I on v or, through a copy, on *v.
func asInterface[I any](v reflect.Value) (I, bool) {
	if v.CanInterface() {
		if i, ok := v.Interface().(I); ok {
			return i, true
		}
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	i, ok := p.Interface().(I)
	return i, ok
}
