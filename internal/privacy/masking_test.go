package privacy

import (
	"reflect"
	"testing"
)

func TestMaskPhoneNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Standard formats
		{"+1234567890", "+******7890"},
		{"+447712345678", "+********5678"},
		{"1234567890", "******7890"},
		{"447712345678", "********5678"},

		// Edge cases
		{"", ""},
		{"+123", "+***"},
		{"123", "***"},
		{"+1", "+*"},
		{"+", "+"},
		{"1", "*"},
		{"1234", "****"},

		// Short numbers with +
		{"+12345", "+*2345"},
		{"+123456", "+**3456"},
	}

	for _, test := range tests {
		result := MaskPhoneNumber(test.input)
		if result != test.expected {
			t.Errorf("MaskPhoneNumber(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestMaskPhoneNumbers(t *testing.T) {
	if MaskPhoneNumbers(nil) != nil {
		t.Error("MaskPhoneNumbers(nil) should return nil")
	}

	got := MaskPhoneNumbers([]string{"+15551234567", "+447712345678"})
	expected := []string{"+*******4567", "+********5678"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("MaskPhoneNumbers() = %v, expected %v", got, expected)
	}
}

func TestMaskMessageID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"msg_1234567890abcdef", "************90abcdef"},
		{"short", "*****"},
		{"12345678", "********"},
		{"", ""},
	}

	for _, test := range tests {
		result := MaskMessageID(test.input)
		if result != test.expected {
			t.Errorf("MaskMessageID(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestMaskContactID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+15551234567", "+*******4567"},
		{"15551234567", "*******4567"},
		{"co_abcdef123", "********f123"},
		{"abc", "***"},
		{"", ""},
	}

	for _, test := range tests {
		result := MaskContactID(test.input)
		if result != test.expected {
			t.Errorf("MaskContactID(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestMaskText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "[5 chars]"},
		{"héllo wörld", "[11 chars]"},
		{"", ""},
	}

	for _, test := range tests {
		result := MaskText(test.input)
		if result != test.expected {
			t.Errorf("MaskText(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1234567890", true},
		{"0", true},
		{"", false},
		{"123a", false},
		{"+123", false},
	}

	for _, test := range tests {
		if result := isNumeric(test.input); result != test.expected {
			t.Errorf("isNumeric(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestMaskSensitiveFields(t *testing.T) {
	if MaskSensitiveFields(nil) != nil {
		t.Error("MaskSensitiveFields(nil) should return nil")
	}

	input := map[string]interface{}{
		"from":        "+15551234567",
		"to":          []string{"+15557654321"},
		"phoneNumber": "+447712345678",
		"messageId":   "msg_1234567890abcdef",
		"contact_id":  "co_abcdef123",
		"text":        "secret plan",
		"event_type":  "MESSAGE.RECEIVED",
		"count":       3,
		"phone":       42,
	}

	expected := map[string]interface{}{
		"from":        "+*******4567",
		"to":          []string{"+*******4321"},
		"phoneNumber": "+********5678",
		"messageId":   "************90abcdef",
		"contact_id":  "********f123",
		"text":        "[11 chars]",
		"event_type":  "MESSAGE.RECEIVED",
		"count":       3,
		"phone":       42,
	}

	result := MaskSensitiveFields(input)
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("MaskSensitiveFields() = %v, expected %v", result, expected)
	}

	if input["from"] != "+15551234567" {
		t.Error("MaskSensitiveFields should not modify its input")
	}
}
