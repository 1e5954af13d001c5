package types

import "sort"

var catalogue = map[string]func() any{
	"RichButton":                func() any { return new(RichButton) },
	"OpenURLButton":             func() any { return new(OpenURLButton) },
	"CallButton":                func() any { return new(CallButton) },
	"TriggerButton":             func() any { return new(TriggerButton) },
	"RequestUserLocationButton": func() any { return new(RequestUserLocationButton) },
	"ScheduleEventButton":       func() any { return new(ScheduleEventButton) },
	"SendLocationButton":        func() any { return new(SendLocationButton) },
	"RcsMedia":                  func() any { return new(RcsMedia) },
	"RcsCard":                   func() any { return new(RcsCard) },
	"MessageEventContent":       func() any { return new(MessageEventContent) },
	"SmsContent":                func() any { return new(SmsContent) },
	"MmsContent":                func() any { return new(MmsContent) },
	"RcsTextContent":            func() any { return new(RcsTextContent) },
	"RcsMediaContent":           func() any { return new(RcsMediaContent) },
	"RcsCardsContent":           func() any { return new(RcsCardsContent) },
	"RcsButtonDataContent":      func() any { return new(RcsButtonDataContent) },
	"RcsLocationDataContent":    func() any { return new(RcsLocationDataContent) },
	"SendRequest":               func() any { return new(SendRequest) },
	"SendSmsRequest":            func() any { return new(SendSmsRequest) },
	"SendMmsRequest":            func() any { return new(SendMmsRequest) },
	"SendRcsRequest":            func() any { return new(SendRcsRequest) },
	"SendResponse":              func() any { return new(SendResponse) },
	"Message":                   func() any { return new(Message) },
	"MessageSegments":           func() any { return new(MessageSegments) },
	"WebhookEvent":              func() any { return new(WebhookEvent) },
	"MessageStatusEvent":        func() any { return new(MessageStatusEvent) },
	"MessageReceivedEvent":      func() any { return new(MessageReceivedEvent) },
	"UserTypingEvent":           func() any { return new(UserTypingEvent) },
	"WebhookSubscription":       func() any { return new(WebhookSubscription) },
	"Brand":                     func() any { return new(Brand) },
	"UpsertBrandRequest":        func() any { return new(UpsertBrandRequest) },
	"CampaignSubmission":        func() any { return new(CampaignSubmission) },
	"DlcCampaign":               func() any { return new(DlcCampaign) },
	"TollFreeCampaign":          func() any { return new(TollFreeCampaign) },
	"RcsCampaign":               func() any { return new(RcsCampaign) },
	"CampaignStatus":            func() any { return new(CampaignStatus) },
	"Contact":                   func() any { return new(Contact) },
	"CreateContactRequest":      func() any { return new(CreateContactRequest) },
	"PhoneNumber":               func() any { return new(PhoneNumber) },
	"PhoneNumberSearchRequest":  func() any { return new(PhoneNumberSearchRequest) },
	"ShortenLinkRequest":        func() any { return new(ShortenLinkRequest) },
	"ShortLink":                 func() any { return new(ShortLink) },
	"LinkClickStats":            func() any { return new(LinkClickStats) },
}

// Lookup returns a pointer to a fresh zero value of the named public type,
// suitable as a decoding target.
func Lookup(name string) (any, bool) {
	newFn, ok := catalogue[name]
	if !ok {
		return nil, false
	}
	return newFn(), true
}

// Names lists the type names Lookup accepts, sorted.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
