package types

import (
	"time"

	"pinnacle/internal/validation"
	"pinnacle/pkg/schema"
)

type Contact struct {
	ID          string        `json:"id,required"`
	PhoneNumber string        `json:"phoneNumber,required"`
	Name        *string       `json:"name"`
	Email       *string       `json:"email"`
	Description *string       `json:"description"`
	Tags        []string      `json:"tags"`
	CreatedAt   *time.Time    `json:"createdAt"`
	Extra       schema.Extras `json:"-"`
}

func (c Contact) ValidateRecord() error {
	if err := validation.ValidatePhoneNumber(c.PhoneNumber); err != nil {
		return schema.Invalid("phoneNumber", err)
	}
	return nil
}

// CreateContactRequest keeps the endpoint's snake_case phone_number member.
type CreateContactRequest struct {
	PhoneNumber string        `json:"phone_number,required"`
	Name        *string       `json:"name"`
	Email       *string       `json:"email"`
	Description *string       `json:"description"`
	Tags        []string      `json:"tags"`
	Extra       schema.Extras `json:"-"`
}

func (r CreateContactRequest) ValidateRecord() error {
	if err := validation.ValidatePhoneNumber(r.PhoneNumber); err != nil {
		return schema.Invalid("phone_number", err)
	}
	return nil
}
