package schema

import (
	"errors"
	"fmt"
	"strings"
)

// MissingFieldError reports a required field absent from the input, or a
// required field left unset when encoding.
type MissingFieldError struct {
	Type  string // record or union name
	Field string // wire path, e.g. "cards[0].title"
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("schema: %s: missing required field %q", e.Type, e.Field)
}

// TypeMismatchError reports a present field whose JSON kind does not match
// the declared Go type.
type TypeMismatchError struct {
	Type     string
	Field    string
	Expected string
	Got      string
	Err      error
}

func (e *TypeMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("schema: ")
	b.WriteString(e.Type)
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	fmt.Fprintf(&b, ": expected %s, got %s", e.Expected, e.Got)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TypeMismatchError) Unwrap() error {
	return e.Err
}

// VariantAttempt records why one candidate of a structural union rejected
// the payload.
type VariantAttempt struct {
	Tag string
	Err error
}

// VariantMismatchError reports a union payload that matched no registered
// variant: either the discriminant carried an unknown tag, or every
// structural candidate rejected the shape.
type VariantMismatchError struct {
	Union         string
	Field         string
	Discriminator string
	Tag           string
	Reason        string
	Attempts      []VariantAttempt
}

func (e *VariantMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("schema: ")
	b.WriteString(e.Union)
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	switch {
	case e.Reason != "":
		b.WriteString(": ")
		b.WriteString(e.Reason)
	case e.Discriminator != "":
		fmt.Fprintf(&b, ": unknown %s %q", e.Discriminator, e.Tag)
	default:
		b.WriteString(": matched no registered variant")
	}
	if len(e.Attempts) > 0 {
		b.WriteString(" (")
		for i, a := range e.Attempts {
			if i > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "%s: %v", a.Tag, a.Err)
		}
		b.WriteString(")")
	}
	return b.String()
}

// UnknownFieldError is produced only while probing structural unions, where
// unknown top-level members disqualify a candidate. It never escapes a
// successful decode; callers see it inside VariantMismatchError.Attempts.
type UnknownFieldError struct {
	Type  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("schema: %s: unknown field %q", e.Type, e.Field)
}

// InvalidValueError reports a well-typed value rejected by in-memory
// validation: an unrecognised enum value or a record's own rules.
type InvalidValueError struct {
	Type   string
	Field  string
	Reason string
	Err    error
}

func (e *InvalidValueError) Error() string {
	var b strings.Builder
	b.WriteString("schema: ")
	b.WriteString(e.Type)
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *InvalidValueError) Unwrap() error {
	return e.Err
}

// Invalid builds an InvalidValueError for field, for use by record
// validation hooks.
func Invalid(field string, err error) error {
	return &InvalidValueError{Field: field, Err: err}
}

// withPath re-roots a schema error under prefix. Errors that are not part of
// the schema taxonomy become TypeMismatchErrors naming the field.
func withPath(err error, prefix, typeName, expected string) error {
	if err == nil || prefix == "" {
		return err
	}

	var missing *MissingFieldError
	var mismatch *TypeMismatchError
	var variant *VariantMismatchError
	var unknown *UnknownFieldError
	var invalid *InvalidValueError
	switch {
	case errors.As(err, &missing):
		c := *missing
		c.Field = joinPath(prefix, c.Field)
		return &c
	case errors.As(err, &mismatch):
		c := *mismatch
		c.Field = joinPath(prefix, c.Field)
		return &c
	case errors.As(err, &variant):
		c := *variant
		c.Field = joinPath(prefix, c.Field)
		return &c
	case errors.As(err, &unknown):
		c := *unknown
		c.Field = joinPath(prefix, c.Field)
		return &c
	case errors.As(err, &invalid):
		c := *invalid
		if c.Type == "" {
			c.Type = typeName
		}
		c.Field = joinPath(prefix, c.Field)
		return &c
	}
	return &TypeMismatchError{Type: typeName, Field: prefix, Expected: expected, Got: "undecodable value", Err: err}
}

func joinPath(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	case strings.HasPrefix(field, "["):
		return prefix + field
	}
	return prefix + "." + field
}

func indexPath(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}
