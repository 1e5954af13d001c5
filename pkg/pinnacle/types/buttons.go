package types

import (
	"pinnacle/internal/constants"
	"pinnacle/internal/validation"
	"pinnacle/pkg/schema"
)

// RichButton is an interactive RCS button or quick reply. The wire form names
// the action in its "type" member.
type RichButton struct{ schema.Value }

var richButtons = schema.NewTagged("RichButton", "type",
	schema.VariantOf[OpenURLButton]("openUrl"),
	schema.VariantOf[CallButton]("call"),
	schema.VariantOf[TriggerButton]("trigger"),
	schema.VariantOf[RequestUserLocationButton]("requestUserLocation"),
	schema.VariantOf[ScheduleEventButton]("scheduleEvent"),
	schema.VariantOf[SendLocationButton]("sendLocation"),
)

type richButtonVariant interface {
	OpenURLButton | CallButton | TriggerButton |
		RequestUserLocationButton | ScheduleEventButton | SendLocationButton
}

// NewRichButton wraps one of the button variants.
func NewRichButton[T richButtonVariant](button T) RichButton {
	return RichButton{richButtons.MustWrap(button)}
}

func (b RichButton) MarshalJSON() ([]byte, error) { return richButtons.Encode(b.Value) }

func (b *RichButton) UnmarshalJSON(data []byte) error {
	return richButtons.DecodeInto(data, &b.Value)
}

func (b *RichButton) CheckJSON(data []byte) error { return richButtons.Validate(data) }

func (b RichButton) Validate() error { return richButtons.ValidateValue(b.Value) }

// OpenURLButton opens Payload in the recipient's browser.
type OpenURLButton struct {
	Title    string        `json:"title,required"`
	Payload  string        `json:"payload,required"`
	Metadata *string       `json:"metadata"`
	Extra    schema.Extras `json:"-"`
}

func (b OpenURLButton) ValidateRecord() error {
	if err := validateButtonTitle(b.Title); err != nil {
		return err
	}
	if err := validation.ValidateURL(b.Payload); err != nil {
		return schema.Invalid("payload", err)
	}
	return nil
}

// CallButton dials the E.164 number in Payload.
type CallButton struct {
	Title    string        `json:"title,required"`
	Payload  string        `json:"payload,required"`
	Metadata *string       `json:"metadata"`
	Extra    schema.Extras `json:"-"`
}

func (b CallButton) ValidateRecord() error {
	if err := validateButtonTitle(b.Title); err != nil {
		return err
	}
	if err := validation.ValidatePhoneNumber(b.Payload); err != nil {
		return schema.Invalid("payload", err)
	}
	return nil
}

// TriggerButton sends Payload back to the sender as a button press.
type TriggerButton struct {
	Title    string        `json:"title,required"`
	Payload  string        `json:"payload,required"`
	Metadata *string       `json:"metadata"`
	Extra    schema.Extras `json:"-"`
}

func (b TriggerButton) ValidateRecord() error {
	return validateButtonTitle(b.Title)
}

// RequestUserLocationButton asks the recipient to share their current location.
type RequestUserLocationButton struct {
	Title    string        `json:"title,required"`
	Metadata *string       `json:"metadata"`
	Extra    schema.Extras `json:"-"`
}

func (b RequestUserLocationButton) ValidateRecord() error {
	return validateButtonTitle(b.Title)
}

// ScheduleEventButton offers to add an event to the recipient's calendar.
// Start and end times are ISO 8601 strings as sent by the API.
type ScheduleEventButton struct {
	Title            string        `json:"title,required"`
	EventTitle       string        `json:"eventTitle,required"`
	EventStartTime   string        `json:"eventStartTime,required"`
	EventEndTime     string        `json:"eventEndTime,required"`
	EventDescription *string       `json:"eventDescription"`
	Metadata         *string       `json:"metadata"`
	Extra            schema.Extras `json:"-"`
}

func (b ScheduleEventButton) ValidateRecord() error {
	return validateButtonTitle(b.Title)
}

// SendLocationButton opens the point at LatLong in the recipient's maps app.
type SendLocationButton struct {
	Title    string        `json:"title,required"`
	LatLong  LatLong       `json:"latLong,required"`
	Label    *string       `json:"label"`
	Metadata *string       `json:"metadata"`
	Extra    schema.Extras `json:"-"`
}

func (b SendLocationButton) ValidateRecord() error {
	if err := validateButtonTitle(b.Title); err != nil {
		return err
	}
	if err := validation.ValidateCoordinates(b.LatLong.Lat, b.LatLong.Lng); err != nil {
		return schema.Invalid("latLong", err)
	}
	return nil
}

// LatLong is a coordinate pair in decimal degrees.
type LatLong struct {
	Lat   float64       `json:"lat,required"`
	Lng   float64       `json:"lng,required"`
	Extra schema.Extras `json:"-"`
}

func validateButtonTitle(title string) error {
	if err := validation.ValidateStringLength(title, "title", 1, constants.MaxButtonTitleLength); err != nil {
		return schema.Invalid("title", err)
	}
	return nil
}
