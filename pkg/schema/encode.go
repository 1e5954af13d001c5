package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Marshal encodes v under the wire names declared by its struct tags.
//
// Optional fields that are unset (nil) are omitted rather than written as
// null, required nil pointers fail with MissingFieldError, and the Extras bag
// is never written back.
func Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return []byte("null"), nil
	}
	var e encoder
	if err := e.value(rv, "", 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf   bytes.Buffer
	owner string
}

func (e *encoder) value(v reflect.Value, path string, depth int) error {
	t := v.Type()
	if t == rawMessageType {
		if v.Len() == 0 {
			e.buf.WriteString("null")
			return nil
		}
		e.buf.Write(v.Bytes())
		return nil
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.value(v.Elem(), path, depth)
	}

	switch {
	case isCustom(t):
		return e.marshaler(v, path)
	case isRecordForEncode(t, depth):
		return e.record(v, path, depth)
	case t.Implements(marshalerType) || reflect.PointerTo(t).Implements(marshalerType):
		return e.marshaler(v, path)
	}

	switch t.Kind() {
	case reflect.String:
		return e.string(v.String())
	case reflect.Bool:
		e.buf.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		e.buf.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return &TypeMismatchError{Type: e.name(t), Field: path, Expected: "finite number", Got: fmt.Sprint(v.Interface()), Err: err}
		}
		e.buf.Write(b)
	case reflect.Slice:
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		e.buf.WriteByte('[')
		for i := range v.Len() {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.value(v.Index(i), indexPath(path, i), depth+1); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("schema: %s: unsupported map key type %s", path, t.Key())
		}
		if v.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		e.buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.string(k.String()); err != nil {
				return err
			}
			e.buf.WriteByte(':')
			if err := e.value(v.MapIndex(k), joinPath(path, k.String()), depth+1); err != nil {
				return err
			}
		}
		e.buf.WriteByte('}')
	default:
		return fmt.Errorf("schema: %s: unsupported type %s", path, t)
	}
	return nil
}

func (e *encoder) record(v reflect.Value, path string, depth int) error {
	rec, err := recordOf(v.Type())
	if err != nil {
		return err
	}
	prev := e.owner
	e.owner = rec.name
	defer func() { e.owner = prev }()

	e.buf.WriteByte('{')
	first := true
	for _, f := range rec.fields {
		fieldPath := joinPath(path, f.wire)
		fv := v.FieldByIndex(f.index)
		if nilable(fv.Kind()) && fv.IsNil() {
			if !f.required {
				continue
			}
			switch fv.Kind() {
			case reflect.Slice:
				fv = reflect.MakeSlice(fv.Type(), 0, 0)
			case reflect.Map:
				fv = reflect.MakeMap(fv.Type())
			default:
				return &MissingFieldError{Type: rec.name, Field: fieldPath}
			}
		}
		if !first {
			e.buf.WriteByte(',')
		}
		first = false
		if err := e.string(f.wire); err != nil {
			return err
		}
		e.buf.WriteByte(':')
		if err := e.value(fv, fieldPath, depth+1); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) marshaler(v reflect.Value, path string) error {
	var m json.Marshaler
	if v.Type().Implements(marshalerType) {
		m = v.Interface().(json.Marshaler)
	} else {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		var ok bool
		if m, ok = p.Interface().(json.Marshaler); !ok {
			return fmt.Errorf("schema: %s implements Checker but not json.Marshaler", v.Type())
		}
	}
	b, err := m.MarshalJSON()
	if err != nil {
		if path == "" {
			return err
		}
		return withPath(err, path, e.name(v.Type()), typeName(v.Type()))
	}
	e.buf.Write(b)
	return nil
}

func (e *encoder) string(s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	e.buf.Write(b)
	return nil
}

func (e *encoder) name(t reflect.Type) string {
	if e.owner != "" {
		return e.owner
	}
	return typeName(t)
}

// isRecordForEncode mirrors isRecord for the encoding direction.
func isRecordForEncode(t reflect.Type, depth int) bool {
	if t.Kind() != reflect.Struct || isCustom(t) {
		return false
	}
	if depth == 0 || hasExtras(t) {
		return true
	}
	return !t.Implements(marshalerType) && !reflect.PointerTo(t).Implements(marshalerType)
}
