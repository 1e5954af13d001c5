package types

import (
	"pinnacle/internal/validation"
	"pinnacle/pkg/schema"
)

type PhoneNumberFeatures struct {
	SMS   bool          `json:"sms,required"`
	MMS   bool          `json:"mms,required"`
	Voice bool          `json:"voice,required"`
	Extra schema.Extras `json:"-"`
}

// Supports reports whether the number offers capability c.
func (f PhoneNumberFeatures) Supports(c NumberCapability) bool {
	switch c {
	case NumberCapabilitySMS:
		return f.SMS
	case NumberCapabilityMMS:
		return f.MMS
	case NumberCapabilityVoice:
		return f.Voice
	}
	return false
}

// PhoneNumber is a number available for purchase or already owned.
type PhoneNumber struct {
	Number      string              `json:"number,required"`
	Type        *string             `json:"type"`
	Region      *string             `json:"region"`
	Features    PhoneNumberFeatures `json:"features,required"`
	MonthlyCost *float64            `json:"monthlyCost"`
	Extra       schema.Extras       `json:"-"`
}

func (n PhoneNumber) ValidateRecord() error {
	if err := validation.ValidatePhoneNumber(n.Number); err != nil {
		return schema.Invalid("number", err)
	}
	return nil
}

type PhoneNumberSearchRequest struct {
	Country    *string            `json:"country"`
	AreaCode   *string            `json:"areaCode"`
	Contains   *string            `json:"contains"`
	NumberType *string            `json:"numberType"`
	Features   []NumberCapability `json:"features"`
	Limit      *int               `json:"limit"`
	Extra      schema.Extras      `json:"-"`
}

func (r PhoneNumberSearchRequest) ValidateRecord() error {
	if r.Limit != nil {
		if err := validation.ValidateNumericRange(*r.Limit, "limit", 1, 100); err != nil {
			return schema.Invalid("limit", err)
		}
	}
	return nil
}

// Matches reports whether n offers every capability the search asks for.
func (r PhoneNumberSearchRequest) Matches(n PhoneNumber) bool {
	for _, c := range r.Features {
		if !n.Features.Supports(c) {
			return false
		}
	}
	return true
}
