package types

// MessageStatus is the delivery state reported for an outbound message.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusQueued    MessageStatus = "queued"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

func (s MessageStatus) IsKnown() bool {
	switch s {
	case MessageStatusPending, MessageStatusQueued, MessageStatusSent,
		MessageStatusDelivered, MessageStatusRead, MessageStatusFailed:
		return true
	}
	return false
}

// IsFinal reports whether no further status updates follow s.
func (s MessageStatus) IsFinal() bool {
	return s == MessageStatusDelivered || s == MessageStatusRead || s == MessageStatusFailed
}

type MessageType string

const (
	MessageTypeSMS MessageType = "SMS"
	MessageTypeMMS MessageType = "MMS"
	MessageTypeRCS MessageType = "RCS"
)

func (t MessageType) IsKnown() bool {
	switch t {
	case MessageTypeSMS, MessageTypeMMS, MessageTypeRCS:
		return true
	}
	return false
}

// BrandEntityType is the legal form a brand registers under.
type BrandEntityType string

const (
	BrandEntityPrivateProfit  BrandEntityType = "PRIVATE_PROFIT"
	BrandEntityPublicProfit   BrandEntityType = "PUBLIC_PROFIT"
	BrandEntityNonProfit      BrandEntityType = "NON_PROFIT"
	BrandEntityGovernment     BrandEntityType = "GOVERNMENT"
	BrandEntitySoleProprietor BrandEntityType = "SOLE_PROPRIETOR"
)

func (t BrandEntityType) IsKnown() bool {
	switch t {
	case BrandEntityPrivateProfit, BrandEntityPublicProfit, BrandEntityNonProfit,
		BrandEntityGovernment, BrandEntitySoleProprietor:
		return true
	}
	return false
}

// CampaignType doubles as the discriminant of CampaignSubmission.
type CampaignType string

const (
	CampaignTypeDLC      CampaignType = "DLC"
	CampaignTypeTollFree CampaignType = "TOLL_FREE"
	CampaignTypeRCS      CampaignType = "RCS"
)

func (t CampaignType) IsKnown() bool {
	switch t {
	case CampaignTypeDLC, CampaignTypeTollFree, CampaignTypeRCS:
		return true
	}
	return false
}

type NumberCapability string

const (
	NumberCapabilitySMS   NumberCapability = "sms"
	NumberCapabilityMMS   NumberCapability = "mms"
	NumberCapabilityVoice NumberCapability = "voice"
)

func (c NumberCapability) IsKnown() bool {
	switch c {
	case NumberCapabilitySMS, NumberCapabilityMMS, NumberCapabilityVoice:
		return true
	}
	return false
}

// ClickInterval is the bucket width of link click statistics.
type ClickInterval string

const (
	ClickIntervalHour  ClickInterval = "hour"
	ClickIntervalDay   ClickInterval = "day"
	ClickIntervalWeek  ClickInterval = "week"
	ClickIntervalMonth ClickInterval = "month"
)

func (i ClickInterval) IsKnown() bool {
	switch i {
	case ClickIntervalHour, ClickIntervalDay, ClickIntervalWeek, ClickIntervalMonth:
		return true
	}
	return false
}

// WebhookEventType doubles as the discriminant of WebhookEvent.
type WebhookEventType string

const (
	WebhookEventMessageStatus   WebhookEventType = "MESSAGE.STATUS"
	WebhookEventMessageReceived WebhookEventType = "MESSAGE.RECEIVED"
	WebhookEventUserTyping      WebhookEventType = "USER.TYPING"
)

func (t WebhookEventType) IsKnown() bool {
	switch t {
	case WebhookEventMessageStatus, WebhookEventMessageReceived, WebhookEventUserTyping:
		return true
	}
	return false
}
