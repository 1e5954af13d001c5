package validation

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"unicode"

	"pinnacle/internal/constants"
	"pinnacle/internal/errors"
)

// ValidatePhoneNumber validates that phone is an E.164 number: a leading
// plus followed only by digits, within the ITU length bounds
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return errors.New(errors.ErrCodeInvalidInput, "phone number cannot be empty")
	}

	if !strings.HasPrefix(phone, "+") {
		return errors.New(errors.ErrCodeInvalidInput, "phone number must be in E.164 format (+15551234567)")
	}
	digits := phone[1:]

	if len(digits) < constants.MinPhoneNumberDigits {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("phone number must be at least %d digits", constants.MinPhoneNumberDigits))
	}

	if len(digits) > constants.MaxPhoneNumberDigits {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("phone number too long (max %d digits)", constants.MaxPhoneNumberDigits))
	}

	for _, char := range digits {
		if !unicode.IsDigit(char) {
			return errors.New(errors.ErrCodeInvalidInput, "phone number must contain only digits")
		}
	}

	if digits[0] == '0' {
		return errors.New(errors.ErrCodeInvalidInput, "phone number country code cannot start with 0")
	}

	return nil
}

// ValidatePhoneNumbers validates every entry of a recipient list
func ValidatePhoneNumbers(phones []string) error {
	for i, phone := range phones {
		if err := ValidatePhoneNumber(phone); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidInput, fmt.Sprintf("recipient %d is invalid", i))
		}
	}
	return nil
}

// ValidateMessageID validates message ID format and length
func ValidateMessageID(messageID string) error {
	if messageID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "message ID cannot be empty")
	}

	if len(messageID) > constants.MaxMessageIDLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("message ID too long (max %d characters)", constants.MaxMessageIDLength))
	}

	for _, char := range messageID {
		if char == '\x00' || char == '\n' || char == '\r' || char == '\t' {
			return errors.New(errors.ErrCodeInvalidInput, "message ID contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates an absolute http(s) URL such as a button target or
// webhook endpoint
func ValidateURL(raw string) error {
	if raw == "" {
		return errors.New(errors.ErrCodeInvalidInput, "URL cannot be empty")
	}

	if len(raw) > constants.MaxURLLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("URL too long (max %d characters)", constants.MaxURLLength))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "URL is malformed")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(errors.ErrCodeInvalidInput, "URL must use http or https")
	}

	if u.Host == "" {
		return errors.New(errors.ErrCodeInvalidInput, "URL must include a host")
	}

	return nil
}

// ValidateMediaURL validates a media URL and, when the path carries a file
// extension, that carriers accept that media type
func ValidateMediaURL(raw string) error {
	if err := ValidateURL(raw); err != nil {
		return err
	}

	u, _ := url.Parse(raw)
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return nil
	}
	if _, ok := constants.MediaTypes[ext]; !ok {
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unsupported media type: %s", ext))
	}

	return nil
}

// MediaContentType reports the MIME type implied by a media URL's extension
func MediaContentType(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return constants.DefaultMediaType
	}
	if mime, ok := constants.MediaTypes[strings.ToLower(path.Ext(u.Path))]; ok {
		return mime
	}
	return constants.DefaultMediaType
}

// ValidateHTTPRequestSize validates incoming HTTP request size
func ValidateHTTPRequestSize(r *http.Request, maxSizeBytes int64) error {
	if r.ContentLength < -1 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid content length")
	}

	if r.ContentLength > maxSizeBytes {
		return errors.NewPayloadTooLargeError(maxSizeBytes).
			WithContext("content_length", r.ContentLength)
	}

	return nil
}

// ValidateStringLength validates string length against bounds
func ValidateStringLength(value, fieldName string, minLength, maxLength int) error {
	n := len([]rune(value))
	if n < minLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too short (min %d characters)", fieldName, minLength))
	}

	if n > maxLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too long (max %d characters)", fieldName, maxLength))
	}

	return nil
}

// ValidateNumericRange validates numeric values against bounds
func ValidateNumericRange(value int, fieldName string, min, max int) error {
	if value < min {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too small (min %d)", fieldName, min))
	}

	if value > max {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max %d)", fieldName, max))
	}

	return nil
}

// ValidateCoordinates validates a latitude/longitude pair in degrees
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("latitude %g out of range [-90, 90]", lat))
	}

	if lng < -180 || lng > 180 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("longitude %g out of range [-180, 180]", lng))
	}

	return nil
}

// ValidateTimeout validates timeout values
func ValidateTimeout(timeoutSec int, fieldName string) error {
	if timeoutSec < 1 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s must be at least 1 second", fieldName))
	}

	if timeoutSec > 3600 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max 3600 seconds)", fieldName))
	}

	return nil
}
