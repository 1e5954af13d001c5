package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/tidwall/gjson"
)

// Unmarshal decodes the JSON object in data into the record pointed to by v.
//
// Required fields must be present, present fields must have the declared JSON
// kind, and members the record does not declare are kept in its Extras field.
// On failure v is left untouched.
func Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("schema: Unmarshal requires a non-nil pointer, got %T", v)
	}
	t := rv.Elem().Type()
	if !gjson.ValidBytes(data) {
		return malformed(t)
	}

	tmp := reflect.New(t).Elem()
	w := walker{set: true}
	if err := w.value(gjson.ParseBytes(data), t, tmp, "", 0); err != nil {
		return err
	}
	rv.Elem().Set(tmp)
	return nil
}

// Check validates the shape of data against the type of v without
// materialising a value. v may be a value or a pointer to one.
func Check(data []byte, v any) error {
	t := reflect.TypeOf(v)
	if t == nil {
		return fmt.Errorf("schema: Check requires a typed value")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return CheckType(data, t)
}

// CheckType validates the shape of data against t without materialising a
// value.
func CheckType(data []byte, t reflect.Type) error {
	return checkType(data, t, false)
}

// checkType with strict set rejects top-level members t does not declare.
func checkType(data []byte, t reflect.Type, strict bool) error {
	if !gjson.ValidBytes(data) {
		return malformed(t)
	}
	w := walker{strict: strict}
	return w.value(gjson.ParseBytes(data), t, reflect.Value{}, "", 0)
}

func malformed(t reflect.Type) error {
	return &TypeMismatchError{Type: typeName(t), Expected: "JSON", Got: "malformed input"}
}

// walker drives both decoding and structural checking. With set false the
// target values are invalid and nothing is allocated beyond what custom
// types need to check themselves.
type walker struct {
	set    bool
	strict bool
	owner  string // innermost record, named in scalar errors
}

func (w *walker) name(t reflect.Type) string {
	if w.owner != "" {
		return w.owner
	}
	return typeName(t)
}

func (w *walker) value(res gjson.Result, t reflect.Type, v reflect.Value, path string, depth int) error {
	if t == rawMessageType {
		if w.set {
			v.SetBytes([]byte(res.Raw))
		}
		return nil
	}

	if res.Type == gjson.Null && nilable(t.Kind()) {
		return nil
	}

	if t.Kind() == reflect.Pointer {
		var elem reflect.Value
		if w.set {
			elem = reflect.New(t.Elem())
		}
		var target reflect.Value
		if w.set {
			target = elem.Elem()
		}
		if err := w.value(res, t.Elem(), target, path, depth); err != nil {
			return err
		}
		if w.set {
			v.Set(elem)
		}
		return nil
	}

	switch {
	case isCustom(t):
		return w.custom(res, t, v, path)
	case isRecord(t, depth):
		return w.record(res, t, v, path, depth)
	case reflect.PointerTo(t).Implements(unmarshalerType):
		return w.opaque(res, t, v, path)
	}

	switch t.Kind() {
	case reflect.String:
		if res.Type != gjson.String {
			return w.mismatch(t, path, res)
		}
		if w.set {
			v.SetString(res.String())
		}
	case reflect.Bool:
		if res.Type != gjson.True && res.Type != gjson.False {
			return w.mismatch(t, path, res)
		}
		if w.set {
			v.SetBool(res.Type == gjson.True)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if res.Type != gjson.Number {
			return w.mismatch(t, path, res)
		}
		n, err := strconv.ParseInt(res.Raw, 10, 64)
		if err != nil || reflect.Zero(t).OverflowInt(n) {
			return &TypeMismatchError{Type: w.name(t), Field: path, Expected: "integer", Got: "number " + res.Raw}
		}
		if w.set {
			v.SetInt(n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if res.Type != gjson.Number {
			return w.mismatch(t, path, res)
		}
		n, err := strconv.ParseUint(res.Raw, 10, 64)
		if err != nil || reflect.Zero(t).OverflowUint(n) {
			return &TypeMismatchError{Type: w.name(t), Field: path, Expected: "non-negative integer", Got: "number " + res.Raw}
		}
		if w.set {
			v.SetUint(n)
		}
	case reflect.Float32, reflect.Float64:
		if res.Type != gjson.Number {
			return w.mismatch(t, path, res)
		}
		f, err := strconv.ParseFloat(res.Raw, t.Bits())
		if err != nil {
			return &TypeMismatchError{Type: w.name(t), Field: path, Expected: "number", Got: "number " + res.Raw, Err: err}
		}
		if w.set {
			v.SetFloat(f)
		}
	case reflect.Slice:
		return w.slice(res, t, v, path, depth)
	case reflect.Map:
		return w.mapping(res, t, v, path, depth)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return fmt.Errorf("schema: %s: unsupported interface type %s", path, t)
		}
		if w.set {
			var x any
			if err := json.Unmarshal([]byte(res.Raw), &x); err != nil {
				return withPath(err, path, typeName(t), "JSON value")
			}
			if x != nil {
				v.Set(reflect.ValueOf(x))
			}
		}
	default:
		return fmt.Errorf("schema: %s: unsupported type %s", path, t)
	}
	return nil
}

func (w *walker) record(res gjson.Result, t reflect.Type, v reflect.Value, path string, depth int) error {
	rec, err := recordOf(t)
	if err != nil {
		return err
	}
	if !res.IsObject() {
		return &TypeMismatchError{Type: rec.name, Field: path, Expected: "object", Got: resultKind(res)}
	}
	prev := w.owner
	w.owner = rec.name
	defer func() { w.owner = prev }()

	members := make(map[string]gjson.Result)
	var order []string
	res.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, seen := members[k]; !seen {
			order = append(order, k)
		}
		members[k] = value
		return true
	})

	for _, f := range rec.fields {
		fieldPath := joinPath(path, f.wire)
		m, ok := members[f.wire]
		if !ok || m.Type == gjson.Null {
			if f.required {
				return &MissingFieldError{Type: rec.name, Field: fieldPath}
			}
			continue
		}
		var target reflect.Value
		if w.set {
			target = v.FieldByIndex(f.index)
		}
		if err := w.value(m, f.typ, target, fieldPath, depth+1); err != nil {
			return err
		}
	}

	var extras Extras
	for _, k := range order {
		if _, known := rec.byWire[k]; known {
			continue
		}
		if w.strict && depth == 0 {
			return &UnknownFieldError{Type: rec.name, Field: joinPath(path, k)}
		}
		if w.set && rec.extras != nil {
			if extras == nil {
				extras = make(Extras)
			}
			extras[k] = json.RawMessage(members[k].Raw)
		}
	}
	if extras != nil {
		v.FieldByIndex(rec.extras).Set(reflect.ValueOf(extras))
	}
	return nil
}

func (w *walker) slice(res gjson.Result, t reflect.Type, v reflect.Value, path string, depth int) error {
	if !res.IsArray() {
		return w.mismatch(t, path, res)
	}
	elems := res.Array()
	var out reflect.Value
	if w.set {
		out = reflect.MakeSlice(t, len(elems), len(elems))
	}
	for i, e := range elems {
		var target reflect.Value
		if w.set {
			target = out.Index(i)
		}
		if e.Type == gjson.Null && !nilable(t.Elem().Kind()) {
			return &TypeMismatchError{Type: w.name(t.Elem()), Field: indexPath(path, i), Expected: kindName(t.Elem().Kind()), Got: "null"}
		}
		if err := w.value(e, t.Elem(), target, indexPath(path, i), depth+1); err != nil {
			return err
		}
	}
	if w.set {
		v.Set(out)
	}
	return nil
}

func (w *walker) mapping(res gjson.Result, t reflect.Type, v reflect.Value, path string, depth int) error {
	if t.Key().Kind() != reflect.String {
		return fmt.Errorf("schema: %s: unsupported map key type %s", path, t.Key())
	}
	if !res.IsObject() {
		return w.mismatch(t, path, res)
	}
	var out reflect.Value
	if w.set {
		out = reflect.MakeMap(t)
	}
	var err error
	res.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		elemPath := joinPath(path, k)
		if value.Type == gjson.Null && !nilable(t.Elem().Kind()) {
			err = &TypeMismatchError{Type: w.name(t.Elem()), Field: elemPath, Expected: kindName(t.Elem().Kind()), Got: "null"}
			return false
		}
		var elem reflect.Value
		if w.set {
			elem = reflect.New(t.Elem()).Elem()
		}
		if err = w.value(value, t.Elem(), elem, elemPath, depth+1); err != nil {
			return false
		}
		if w.set {
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), elem)
		}
		return true
	})
	if err != nil {
		return err
	}
	if w.set {
		v.Set(out)
	}
	return nil
}

// custom hands the raw member to a Checker type.
func (w *walker) custom(res gjson.Result, t reflect.Type, v reflect.Value, path string) error {
	raw := []byte(res.Raw)
	if !w.set {
		c := reflect.New(t).Interface().(Checker)
		return withPath(c.CheckJSON(raw), path, typeName(t), typeName(t))
	}
	u, ok := v.Addr().Interface().(json.Unmarshaler)
	if !ok {
		return fmt.Errorf("schema: %s implements Checker but not json.Unmarshaler", t)
	}
	return withPath(u.UnmarshalJSON(raw), path, typeName(t), typeName(t))
}

// opaque hands the raw member to a type with its own UnmarshalJSON, such as
// time.Time. Checking decodes into a scratch value.
func (w *walker) opaque(res gjson.Result, t reflect.Type, v reflect.Value, path string) error {
	target := v
	if !w.set {
		target = reflect.New(t).Elem()
	}
	u := target.Addr().Interface().(json.Unmarshaler)
	if err := u.UnmarshalJSON([]byte(res.Raw)); err != nil {
		if path == "" {
			return &TypeMismatchError{Type: typeName(t), Expected: typeName(t), Got: resultKind(res), Err: err}
		}
		return withPath(err, path, typeName(t), typeName(t))
	}
	return nil
}

func (w *walker) mismatch(t reflect.Type, path string, res gjson.Result) error {
	return &TypeMismatchError{Type: w.name(t), Field: path, Expected: kindName(t.Kind()), Got: resultKind(res)}
}

func resultKind(res gjson.Result) string {
	switch res.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	case gjson.JSON:
		if res.IsArray() {
			return "array"
		}
		return "object"
	}
	return "nothing"
}
