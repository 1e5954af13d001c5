package types

import (
	"errors"
	"fmt"
	"time"

	"pinnacle/internal/constants"
	"pinnacle/internal/validation"
	"pinnacle/pkg/schema"
)

// SendRequest is the body of a send call. Like MessageEventContent it is
// matched by shape, in the order SMS, MMS, RCS.
type SendRequest struct{ schema.Value }

var sendRequests = schema.NewUntagged("SendRequest",
	schema.VariantOf[SendSmsRequest]("sms"),
	schema.VariantOf[SendMmsRequest]("mms"),
	schema.VariantOf[SendRcsRequest]("rcs"),
)

type sendRequestVariant interface {
	SendSmsRequest | SendMmsRequest | SendRcsRequest
}

func NewSendRequest[T sendRequestVariant](req T) SendRequest {
	return SendRequest{sendRequests.MustWrap(req)}
}

func (r SendRequest) MarshalJSON() ([]byte, error) { return sendRequests.Encode(r.Value) }

func (r *SendRequest) UnmarshalJSON(data []byte) error {
	return sendRequests.DecodeInto(data, &r.Value)
}

func (r *SendRequest) CheckJSON(data []byte) error { return sendRequests.Validate(data) }

func (r SendRequest) Validate() error { return sendRequests.ValidateValue(r.Value) }

type SendSmsRequest struct {
	From  string        `json:"from,required"`
	To    string        `json:"to,required"`
	Text  string        `json:"text,required"`
	Extra schema.Extras `json:"-"`
}

func (r SendSmsRequest) ValidateRecord() error {
	if err := validateRoute(r.From, r.To); err != nil {
		return err
	}
	if err := validation.ValidateStringLength(r.Text, "text", 1, constants.MaxSmsTextLength); err != nil {
		return schema.Invalid("text", err)
	}
	return nil
}

type SendMmsRequest struct {
	From      string        `json:"from,required"`
	To        string        `json:"to,required"`
	MediaURLs []string      `json:"mediaUrls,required"`
	Text      *string       `json:"text"`
	Extra     schema.Extras `json:"-"`
}

func (r SendMmsRequest) ValidateRecord() error {
	if err := validateRoute(r.From, r.To); err != nil {
		return err
	}
	if err := validation.ValidateNumericRange(len(r.MediaURLs), "mediaUrls", 1, constants.MaxMediaURLs); err != nil {
		return schema.Invalid("mediaUrls", err)
	}
	for i, u := range r.MediaURLs {
		if err := validation.ValidateMediaURL(u); err != nil {
			return schema.Invalid(indexed("mediaUrls", i), err)
		}
	}
	return nil
}

// SendRcsRequest sends from an RCS agent. Exactly one of Text, Media and
// Cards must be set. Quick replies use the API's snake_case wire name.
type SendRcsRequest struct {
	From         string        `json:"from,required"`
	To           string        `json:"to,required"`
	Text         *string       `json:"text"`
	Media        *RcsMedia     `json:"media"`
	Cards        []RcsCard     `json:"cards"`
	QuickReplies []RichButton  `json:"quick_replies"`
	Extra        schema.Extras `json:"-"`
}

func (r SendRcsRequest) ValidateRecord() error {
	if r.From == "" {
		return schema.Invalid("from", errors.New("agent ID cannot be empty"))
	}
	if err := validation.ValidatePhoneNumber(r.To); err != nil {
		return schema.Invalid("to", err)
	}

	set := 0
	if r.Text != nil {
		set++
	}
	if r.Media != nil {
		set++
	}
	if r.Cards != nil {
		set++
		if err := validateCards(r.Cards); err != nil {
			return err
		}
	}
	if set != 1 {
		return schema.Invalid("", fmt.Errorf("exactly one of text, media or cards must be set, got %d", set))
	}

	if len(r.QuickReplies) > constants.MaxQuickReplies {
		return schema.Invalid("quick_replies",
			fmt.Errorf("at most %d quick replies, got %d", constants.MaxQuickReplies, len(r.QuickReplies)))
	}
	return nil
}

func validateRoute(from, to string) error {
	if err := validation.ValidatePhoneNumber(from); err != nil {
		return schema.Invalid("from", err)
	}
	if err := validation.ValidatePhoneNumber(to); err != nil {
		return schema.Invalid("to", err)
	}
	return nil
}

// MessageSegments describes how a text body is split for delivery.
type MessageSegments struct {
	Count      int           `json:"count,required"`
	Encoding   *string       `json:"encoding"`
	Characters *int          `json:"characters"`
	Extra      schema.Extras `json:"-"`
}

type SendResponse struct {
	MessageIDs []string         `json:"messageIds,required"`
	Segments   *MessageSegments `json:"segments"`
	Cost       *float64         `json:"cost"`
	Extra      schema.Extras    `json:"-"`
}

// Message is a stored inbound or outbound message.
type Message struct {
	ID          string              `json:"id,required"`
	From        string              `json:"from,required"`
	To          string              `json:"to,required"`
	Type        MessageType         `json:"type,required"`
	Status      MessageStatus       `json:"status,required"`
	Content     MessageEventContent `json:"content,required"`
	Segments    *MessageSegments    `json:"segments"`
	Cost        *float64            `json:"cost"`
	SentAt      *time.Time          `json:"sentAt"`
	DeliveredAt *time.Time          `json:"deliveredAt"`
	Error       *string             `json:"error"`
	Extra       schema.Extras       `json:"-"`
}

func (m Message) ValidateRecord() error {
	if err := validation.ValidateMessageID(m.ID); err != nil {
		return schema.Invalid("id", err)
	}
	if got := m.Content.Type(); got != "" && got != m.Type {
		return schema.Invalid("content", fmt.Errorf("%s content in a %s message", got, m.Type))
	}
	return nil
}

func indexed(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}
