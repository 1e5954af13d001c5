package types

import (
	"errors"
	"time"

	"pinnacle/internal/validation"
	"pinnacle/pkg/schema"
)

type BrandAddress struct {
	Street     string        `json:"street,required"`
	City       string        `json:"city,required"`
	State      string        `json:"state,required"`
	PostalCode string        `json:"postalCode,required"`
	Country    string        `json:"country,required"`
	Extra      schema.Extras `json:"-"`
}

type BrandContact struct {
	Name  string        `json:"name,required"`
	Email string        `json:"email,required"`
	Phone string        `json:"phone,required"`
	Title *string       `json:"title"`
	Extra schema.Extras `json:"-"`
}

func (c BrandContact) ValidateRecord() error {
	if err := validation.ValidatePhoneNumber(c.Phone); err != nil {
		return schema.Invalid("phone", err)
	}
	return nil
}

// Brand is a registered sender identity.
type Brand struct {
	ID          int64           `json:"id,required"`
	Name        string          `json:"name,required"`
	DBA         *string         `json:"dba"`
	EntityType  BrandEntityType `json:"entityType,required"`
	EIN         *string         `json:"ein"`
	Website     string          `json:"website,required"`
	Description *string         `json:"description"`
	Sector      *string         `json:"sector"`
	Address     BrandAddress    `json:"address,required"`
	Contact     BrandContact    `json:"contact,required"`
	IsArchived  *bool           `json:"isArchived"`
	CreatedAt   *time.Time      `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt"`
	Extra       schema.Extras   `json:"-"`
}

// UpsertBrandRequest creates a brand, or updates it when ID is set.
type UpsertBrandRequest struct {
	ID          *int64          `json:"id"`
	Name        string          `json:"name,required"`
	DBA         *string         `json:"dba"`
	EntityType  BrandEntityType `json:"entityType,required"`
	EIN         *string         `json:"ein"`
	Website     string          `json:"website,required"`
	Description *string         `json:"description"`
	Sector      *string         `json:"sector"`
	Address     BrandAddress    `json:"address,required"`
	Contact     BrandContact    `json:"contact,required"`
	Extra       schema.Extras   `json:"-"`
}

func (r UpsertBrandRequest) ValidateRecord() error {
	if err := validation.ValidateURL(r.Website); err != nil {
		return schema.Invalid("website", err)
	}
	if r.EntityType != BrandEntitySoleProprietor && r.EIN == nil {
		return schema.Invalid("ein", errors.New("required unless the brand is a sole proprietor"))
	}
	return nil
}
