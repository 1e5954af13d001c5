package types

import (
	"fmt"

	"pinnacle/internal/constants"
	"pinnacle/internal/validation"
	"pinnacle/pkg/schema"
)

// RcsMedia references a hosted image, video or file.
type RcsMedia struct {
	URL         string        `json:"url,required"`
	ContentType *string       `json:"contentType"`
	Extra       schema.Extras `json:"-"`
}

func (m RcsMedia) ValidateRecord() error {
	if err := validation.ValidateMediaURL(m.URL); err != nil {
		return schema.Invalid("url", err)
	}
	return nil
}

// RcsCard is one card of a rich card or carousel message.
type RcsCard struct {
	Title    string        `json:"title,required"`
	Subtitle *string       `json:"subtitle"`
	MediaURL *string       `json:"mediaUrl"`
	Buttons  []RichButton  `json:"buttons"`
	Extra    schema.Extras `json:"-"`
}

func (c RcsCard) ValidateRecord() error {
	if c.MediaURL != nil {
		if err := validation.ValidateMediaURL(*c.MediaURL); err != nil {
			return schema.Invalid("mediaUrl", err)
		}
	}
	if len(c.Buttons) > 4 {
		return schema.Invalid("buttons", fmt.Errorf("at most 4 buttons per card, got %d", len(c.Buttons)))
	}
	return nil
}

func validateQuickReplies(replies []RichButton) error {
	if len(replies) > constants.MaxQuickReplies {
		return schema.Invalid("quickReplies",
			fmt.Errorf("at most %d quick replies, got %d", constants.MaxQuickReplies, len(replies)))
	}
	return nil
}

func validateCards(cards []RcsCard) error {
	if err := validation.ValidateNumericRange(len(cards), "cards", 1, constants.MaxCardsPerCarousel); err != nil {
		return schema.Invalid("cards", err)
	}
	return nil
}
