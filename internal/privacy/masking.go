package privacy

import (
	"strconv"
	"strings"
)

// MaskPhoneNumber masks a phone number showing only the last 4 digits
// Example: "+1234567890" -> "+******7890"
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	if strings.HasPrefix(phone, "+") {
		if len(phone) == 1 {
			return phone
		}
		if len(phone) <= 5 {
			return "+" + strings.Repeat("*", len(phone)-1)
		}
		return "+" + strings.Repeat("*", len(phone)-5) + phone[len(phone)-4:]
	}

	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// MaskPhoneNumbers masks each entry of a recipient list
func MaskPhoneNumbers(phones []string) []string {
	if phones == nil {
		return nil
	}
	masked := make([]string, len(phones))
	for i, p := range phones {
		masked[i] = MaskPhoneNumber(p)
	}
	return masked
}

// MaskMessageID masks a message ID, keeping the last 8 characters for correlation
// Example: "msg_1234567890abcdef" -> "************90abcdef"
func MaskMessageID(messageID string) string {
	return maskString(messageID, 8)
}

// MaskContactID masks a contact identifier similar to phone numbers
func MaskContactID(contactID string) string {
	if contactID == "" {
		return ""
	}

	if strings.HasPrefix(contactID, "+") || (len(contactID) >= 10 && isNumeric(contactID)) {
		return MaskPhoneNumber(contactID)
	}

	return maskString(contactID, 4)
}

// MaskText hides message bodies, keeping only their length
// Example: "hello" -> "[5 chars]"
func MaskText(text string) string {
	if text == "" {
		return ""
	}
	return "[" + strconv.Itoa(len([]rune(text))) + " chars]"
}

// maskString masks a string showing only the last n characters
func maskString(s string, keepLast int) string {
	if s == "" {
		return ""
	}

	if len(s) <= keepLast {
		return strings.Repeat("*", len(s))
	}

	return strings.Repeat("*", len(s)-keepLast) + s[len(s)-keepLast:]
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// MaskSensitiveFields applies appropriate masking to common logging fields
func MaskSensitiveFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	masked := make(map[string]interface{})
	for k, v := range fields {
		s, isString := v.(string)
		switch k {
		case "phone", "phone_number", "phoneNumber", "from", "to", "sender", "recipient":
			if isString {
				masked[k] = MaskPhoneNumber(s)
				continue
			}
			if list, ok := v.([]string); ok {
				masked[k] = MaskPhoneNumbers(list)
				continue
			}
		case "message_id", "messageId", "msg_id":
			if isString {
				masked[k] = MaskMessageID(s)
				continue
			}
		case "contact_id", "contactId":
			if isString {
				masked[k] = MaskContactID(s)
				continue
			}
		case "text", "body":
			if isString {
				masked[k] = MaskText(s)
				continue
			}
		}
		masked[k] = v
	}

	return masked
}
