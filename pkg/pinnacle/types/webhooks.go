package types

import (
	"errors"
	"fmt"
	"time"

	"pinnacle/internal/validation"
	"pinnacle/pkg/schema"
)

// WebhookEvent is a notification delivered to a subscribed endpoint.
type WebhookEvent struct{ schema.Value }

var webhookEvents = schema.NewTagged("WebhookEvent", "type",
	schema.VariantOf[MessageStatusEvent](string(WebhookEventMessageStatus)),
	schema.VariantOf[MessageReceivedEvent](string(WebhookEventMessageReceived)),
	schema.VariantOf[UserTypingEvent](string(WebhookEventUserTyping)),
)

type webhookEventVariant interface {
	MessageStatusEvent | MessageReceivedEvent | UserTypingEvent
}

func NewWebhookEvent[T webhookEventVariant](event T) WebhookEvent {
	return WebhookEvent{webhookEvents.MustWrap(event)}
}

// DecodeWebhookEvent decodes a raw webhook body.
func DecodeWebhookEvent(data []byte) (WebhookEvent, error) {
	v, err := webhookEvents.Decode(data)
	if err != nil {
		return WebhookEvent{}, err
	}
	return WebhookEvent{v}, nil
}

// Type returns the event type named by the discriminant.
func (e WebhookEvent) Type() WebhookEventType {
	return WebhookEventType(e.Tag())
}

func (e WebhookEvent) MarshalJSON() ([]byte, error) { return webhookEvents.Encode(e.Value) }

func (e *WebhookEvent) UnmarshalJSON(data []byte) error {
	return webhookEvents.DecodeInto(data, &e.Value)
}

func (e *WebhookEvent) CheckJSON(data []byte) error { return webhookEvents.Validate(data) }

func (e WebhookEvent) Validate() error { return webhookEvents.ValidateValue(e.Value) }

type MessageStatusEvent struct {
	MessageID string           `json:"messageId,required"`
	Status    MessageStatus    `json:"status,required"`
	Timestamp time.Time        `json:"timestamp,required"`
	To        *string          `json:"to"`
	Segments  *MessageSegments `json:"segments"`
	Error     *string          `json:"error"`
	Extra     schema.Extras    `json:"-"`
}

func (e MessageStatusEvent) ValidateRecord() error {
	if err := validation.ValidateMessageID(e.MessageID); err != nil {
		return schema.Invalid("messageId", err)
	}
	if e.Error != nil && e.Status != MessageStatusFailed {
		return schema.Invalid("error", fmt.Errorf("error reported with status %s", e.Status))
	}
	return nil
}

type MessageReceivedEvent struct {
	MessageID      string              `json:"messageId,required"`
	From           string              `json:"from,required"`
	To             string              `json:"to,required"`
	MessageType    MessageType         `json:"messageType,required"`
	Message        MessageEventContent `json:"message,required"`
	Timestamp      time.Time           `json:"timestamp,required"`
	ConversationID *string             `json:"conversationId"`
	Extra          schema.Extras       `json:"-"`
}

// From may be a short code or an RCS agent, so only the message ID is checked.
func (e MessageReceivedEvent) ValidateRecord() error {
	if err := validation.ValidateMessageID(e.MessageID); err != nil {
		return schema.Invalid("messageId", err)
	}
	return nil
}

type UserTypingEvent struct {
	From      string        `json:"from,required"`
	To        string        `json:"to,required"`
	Timestamp time.Time     `json:"timestamp,required"`
	Extra     schema.Extras `json:"-"`
}

// WebhookSubscription attaches an endpoint to events for a set of senders.
type WebhookSubscription struct {
	ID        string             `json:"id,required"`
	URL       string             `json:"url,required"`
	Events    []WebhookEventType `json:"events,required"`
	Senders   []string           `json:"senders"`
	CreatedAt *time.Time         `json:"createdAt"`
	Extra     schema.Extras      `json:"-"`
}

func (s WebhookSubscription) ValidateRecord() error {
	if err := validation.ValidateURL(s.URL); err != nil {
		return schema.Invalid("url", err)
	}
	if len(s.Events) == 0 {
		return schema.Invalid("events", errors.New("at least one event type is required"))
	}
	return nil
}
