package types

import (
	"time"

	"pinnacle/internal/validation"
	"pinnacle/pkg/schema"
)

type ShortenLinkRequest struct {
	URL         string        `json:"url,required"`
	Description *string       `json:"description"`
	ExpiresAt   *time.Time    `json:"expiresAt"`
	Extra       schema.Extras `json:"-"`
}

func (r ShortenLinkRequest) ValidateRecord() error {
	if err := validation.ValidateURL(r.URL); err != nil {
		return schema.Invalid("url", err)
	}
	return nil
}

type ShortLink struct {
	ID        string        `json:"id,required"`
	URL       string        `json:"url,required"`
	ShortURL  string        `json:"shortUrl,required"`
	CreatedAt *time.Time    `json:"createdAt"`
	ExpiresAt *time.Time    `json:"expiresAt"`
	Extra     schema.Extras `json:"-"`
}

// LinkClickBucket counts clicks in the interval starting at Start.
type LinkClickBucket struct {
	Start  time.Time     `json:"start,required"`
	Clicks int           `json:"clicks,required"`
	Extra  schema.Extras `json:"-"`
}

type LinkClickStats struct {
	LinkID      string            `json:"linkId,required"`
	Interval    ClickInterval     `json:"interval,required"`
	TotalClicks int               `json:"totalClicks,required"`
	Buckets     []LinkClickBucket `json:"buckets,required"`
	Extra       schema.Extras     `json:"-"`
}

// Sum adds up the bucket counts; it equals TotalClicks for a complete range.
func (s LinkClickStats) Sum() int {
	total := 0
	for _, b := range s.Buckets {
		total += b.Clicks
	}
	return total
}
