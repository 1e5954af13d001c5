package types

import (
	"fmt"
	"time"

	"pinnacle/internal/validation"
	"pinnacle/pkg/schema"
)

// CampaignSubmission registers a messaging campaign. The "type" member
// selects the registry the campaign is filed with.
type CampaignSubmission struct{ schema.Value }

var campaignSubmissions = schema.NewTagged("CampaignSubmission", "type",
	schema.VariantOf[DlcCampaign](string(CampaignTypeDLC)),
	schema.VariantOf[TollFreeCampaign](string(CampaignTypeTollFree)),
	schema.VariantOf[RcsCampaign](string(CampaignTypeRCS)),
)

type campaignVariant interface {
	DlcCampaign | TollFreeCampaign | RcsCampaign
}

func NewCampaignSubmission[T campaignVariant](campaign T) CampaignSubmission {
	return CampaignSubmission{campaignSubmissions.MustWrap(campaign)}
}

// Type returns the campaign type named by the discriminant.
func (c CampaignSubmission) Type() CampaignType {
	return CampaignType(c.Tag())
}

func (c CampaignSubmission) MarshalJSON() ([]byte, error) {
	return campaignSubmissions.Encode(c.Value)
}

func (c *CampaignSubmission) UnmarshalJSON(data []byte) error {
	return campaignSubmissions.DecodeInto(data, &c.Value)
}

func (c *CampaignSubmission) CheckJSON(data []byte) error { return campaignSubmissions.Validate(data) }

func (c CampaignSubmission) Validate() error { return campaignSubmissions.ValidateValue(c.Value) }

// DlcCampaign is a 10DLC campaign.
type DlcCampaign struct {
	Brand          int64         `json:"brand,required"`
	Name           string        `json:"name,required"`
	Description    string        `json:"description,required"`
	UseCase        string        `json:"useCase,required"`
	SampleMessages []string      `json:"sampleMessages,required"`
	MessageFlow    *string       `json:"messageFlow"`
	OptInKeywords  []string      `json:"optInKeywords"`
	OptOutKeywords []string      `json:"optOutKeywords"`
	HelpKeywords   []string      `json:"helpKeywords"`
	EmbeddedLinks  *bool         `json:"embeddedLinks"`
	AgeGated       *bool         `json:"ageGated"`
	Extra          schema.Extras `json:"-"`
}

func (c DlcCampaign) ValidateRecord() error {
	return validateSamples(c.SampleMessages)
}

type TollFreeCampaign struct {
	Brand          int64         `json:"brand,required"`
	Name           string        `json:"name,required"`
	UseCase        string        `json:"useCase,required"`
	SampleMessages []string      `json:"sampleMessages,required"`
	MonthlyVolume  *string       `json:"monthlyVolume"`
	OptInMethod    *string       `json:"optInMethod"`
	OptInURL       *string       `json:"optInUrl"`
	Extra          schema.Extras `json:"-"`
}

func (c TollFreeCampaign) ValidateRecord() error {
	if c.OptInURL != nil {
		if err := validation.ValidateURL(*c.OptInURL); err != nil {
			return schema.Invalid("optInUrl", err)
		}
	}
	return validateSamples(c.SampleMessages)
}

// RcsCampaign registers an RCS agent.
type RcsCampaign struct {
	Brand            int64         `json:"brand,required"`
	AgentName        string        `json:"agentName,required"`
	Description      string        `json:"description,required"`
	LogoURL          *string       `json:"logoUrl"`
	BannerURL        *string       `json:"bannerUrl"`
	Color            *string       `json:"color"`
	Website          *string       `json:"website"`
	PrivacyPolicyURL *string       `json:"privacyPolicyUrl"`
	TermsURL         *string       `json:"termsUrl"`
	Phones           []string      `json:"phones"`
	Extra            schema.Extras `json:"-"`
}

func (c RcsCampaign) ValidateRecord() error {
	urls := []struct {
		field string
		value *string
	}{
		{"logoUrl", c.LogoURL},
		{"bannerUrl", c.BannerURL},
		{"website", c.Website},
		{"privacyPolicyUrl", c.PrivacyPolicyURL},
		{"termsUrl", c.TermsURL},
	}
	for _, u := range urls {
		if u.value == nil {
			continue
		}
		if err := validation.ValidateURL(*u.value); err != nil {
			return schema.Invalid(u.field, err)
		}
	}
	if err := validation.ValidatePhoneNumbers(c.Phones); err != nil {
		return schema.Invalid("phones", err)
	}
	return nil
}

// CampaignStatus is the registry's verdict on a submitted campaign.
type CampaignStatus struct {
	ID        int64         `json:"id,required"`
	Type      CampaignType  `json:"type,required"`
	Status    string        `json:"status,required"`
	Errors    []string      `json:"errors"`
	UpdatedAt *time.Time    `json:"updatedAt"`
	Extra     schema.Extras `json:"-"`
}

func validateSamples(samples []string) error {
	if len(samples) < 2 {
		return schema.Invalid("sampleMessages", fmt.Errorf("at least 2 sample messages required, got %d", len(samples)))
	}
	return nil
}
