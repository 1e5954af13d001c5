package types

import (
	"pinnacle/internal/validation"
	"pinnacle/pkg/schema"
)

// MessageEventContent is the body of a received or stored message. The wire
// form carries no discriminant; variants are matched by shape in the order
// registered below, so a bare {"text": ...} is SMS rather than RCS text.
type MessageEventContent struct{ schema.Value }

var messageContents = schema.NewUntagged("MessageEventContent",
	schema.VariantOf[SmsContent]("sms"),
	schema.VariantOf[MmsContent]("mms"),
	schema.VariantOf[RcsTextContent]("rcsText"),
	schema.VariantOf[RcsMediaContent]("rcsMedia"),
	schema.VariantOf[RcsCardsContent]("rcsCards"),
	schema.VariantOf[RcsButtonDataContent]("rcsButtonData"),
	schema.VariantOf[RcsLocationDataContent]("rcsLocationData"),
)

type messageContentVariant interface {
	SmsContent | MmsContent | RcsTextContent | RcsMediaContent |
		RcsCardsContent | RcsButtonDataContent | RcsLocationDataContent
}

func NewMessageEventContent[T messageContentVariant](content T) MessageEventContent {
	return MessageEventContent{messageContents.MustWrap(content)}
}

func (c MessageEventContent) MarshalJSON() ([]byte, error) { return messageContents.Encode(c.Value) }

func (c *MessageEventContent) UnmarshalJSON(data []byte) error {
	return messageContents.DecodeInto(data, &c.Value)
}

func (c *MessageEventContent) CheckJSON(data []byte) error { return messageContents.Validate(data) }

func (c MessageEventContent) Validate() error { return messageContents.ValidateValue(c.Value) }

// Type reports the message channel implied by the content variant.
func (c MessageEventContent) Type() MessageType {
	switch c.Tag() {
	case "sms":
		return MessageTypeSMS
	case "mms":
		return MessageTypeMMS
	case "":
		return ""
	}
	return MessageTypeRCS
}

type SmsContent struct {
	Text  string        `json:"text,required"`
	Extra schema.Extras `json:"-"`
}

type MmsContent struct {
	MediaURLs []string      `json:"mediaUrls,required"`
	Text      *string       `json:"text"`
	Extra     schema.Extras `json:"-"`
}

func (c MmsContent) ValidateRecord() error {
	for i, u := range c.MediaURLs {
		if err := validation.ValidateMediaURL(u); err != nil {
			return schema.Invalid(indexed("mediaUrls", i), err)
		}
	}
	return nil
}

type RcsTextContent struct {
	Text         string        `json:"text,required"`
	QuickReplies []RichButton  `json:"quickReplies"`
	Extra        schema.Extras `json:"-"`
}

func (c RcsTextContent) ValidateRecord() error {
	return validateQuickReplies(c.QuickReplies)
}

type RcsMediaContent struct {
	Media        RcsMedia      `json:"media,required"`
	QuickReplies []RichButton  `json:"quickReplies"`
	Extra        schema.Extras `json:"-"`
}

func (c RcsMediaContent) ValidateRecord() error {
	return validateQuickReplies(c.QuickReplies)
}

type RcsCardsContent struct {
	Cards        []RcsCard     `json:"cards,required"`
	QuickReplies []RichButton  `json:"quickReplies"`
	Extra        schema.Extras `json:"-"`
}

func (c RcsCardsContent) ValidateRecord() error {
	if err := validateCards(c.Cards); err != nil {
		return err
	}
	return validateQuickReplies(c.QuickReplies)
}

// RcsButtonDataContent is delivered when the recipient presses a button.
type RcsButtonDataContent struct {
	Button RichButton    `json:"button,required"`
	Extra  schema.Extras `json:"-"`
}

// RcsLocationDataContent is delivered when the recipient shares a location.
type RcsLocationDataContent struct {
	Data  LocationData  `json:"data,required"`
	Extra schema.Extras `json:"-"`
}

type LocationData struct {
	Latitude  float64       `json:"latitude,required"`
	Longitude float64       `json:"longitude,required"`
	Extra     schema.Extras `json:"-"`
}

func (d LocationData) ValidateRecord() error {
	return validation.ValidateCoordinates(d.Latitude, d.Longitude)
}
