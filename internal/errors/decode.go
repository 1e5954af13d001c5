package errors

import (
	stderrors "errors"
	"fmt"

	"pinnacle/pkg/schema"
)

// FromDecode translates a payload decoding or validation failure into an
// AppError carrying the offending type and field. AppErrors pass through
// unchanged; nil stays nil.
func FromDecode(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	var missing *schema.MissingFieldError
	var mismatch *schema.TypeMismatchError
	var variant *schema.VariantMismatchError
	var invalid *schema.InvalidValueError

	switch {
	case stderrors.As(err, &missing):
		return Wrap(err, ErrCodeMissingField, fmt.Sprintf("%s is missing required field %s", missing.Type, missing.Field)).
			WithContext("type", missing.Type).
			WithContext("field", missing.Field).
			WithUserMessage(fmt.Sprintf("Missing required field: %s", missing.Field))
	case stderrors.As(err, &mismatch):
		appErr := Wrap(err, ErrCodeTypeMismatch, fmt.Sprintf("%s has a malformed value", mismatch.Type)).
			WithContext("type", mismatch.Type).
			WithContext("expected", mismatch.Expected).
			WithContext("got", mismatch.Got)
		if mismatch.Field == "" {
			return appErr.WithUserMessage(fmt.Sprintf("Malformed payload: expected %s", mismatch.Expected))
		}
		return appErr.
			WithContext("field", mismatch.Field).
			WithUserMessage(fmt.Sprintf("Invalid value for field %s: expected %s", mismatch.Field, mismatch.Expected))
	case stderrors.As(err, &variant):
		appErr := Wrap(err, ErrCodeVariantMismatch, fmt.Sprintf("%s matched no registered variant", variant.Union)).
			WithContext("type", variant.Union)
		if variant.Field != "" {
			appErr = appErr.WithContext("field", variant.Field)
		}
		if variant.Tag != "" {
			return appErr.
				WithContext("tag", variant.Tag).
				WithUserMessage(fmt.Sprintf("Unsupported %s %q", variant.Discriminator, variant.Tag))
		}
		return appErr.WithUserMessage(fmt.Sprintf("Payload does not match any known %s shape", variant.Union))
	case stderrors.As(err, &invalid):
		appErr := Wrap(err, ErrCodeValidationFailed, fmt.Sprintf("%s failed validation", invalid.Type)).
			WithContext("type", invalid.Type)
		if invalid.Field != "" {
			appErr = appErr.WithContext("field", invalid.Field)
		}
		return appErr.WithUserMessage(fmt.Sprintf("Invalid %s", invalid.Type))
	}

	if appErr, ok := As(err); ok {
		return appErr
	}
	return Wrap(err, ErrCodeInvalidInput, "payload could not be decoded").
		WithUserMessage("Invalid payload")
}
