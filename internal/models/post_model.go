package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID               int64            `db:"id" json:"id"`
	UserID           int64            `db:"user_id" json:"userId"`
	Title            string           `db:"title" json:"title"`
	Content          string           `db:"content" json:"content"`
	Hashtags         pq.StringArray   `db:"hashtags" json:"hashtags"`
	CTA              string           `db:"cta" json:"cta"`
	MediaType        string           `db:"media_type" json:"mediaType"`
	MediaURLs        pq.StringArray   `db:"media_urls" json:"mediaUrls"`
	ScheduledFor     time.Time        `db:"scheduled_for" json:"scheduledFor"`
	Status           string           `db:"status" json:"status"` // draft, scheduled, published, failed
	SelectedAccounts SelectedAccounts `db:"selected_accounts" json:"selectedAccounts"`
	Version          int64            `db:"version" json:"version"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}

// SelectedAccount is the snapshot of a target account taken when the post is
// written. It is never refreshed from social_accounts.
type SelectedAccount struct {
	ID          string `json:"id"`
	Platform    string `json:"platform"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Status      string `json:"status"` // pending, published, failed
	PublishedID string `json:"publishedId,omitempty"`
}

type SelectedAccounts []SelectedAccount

func (s SelectedAccounts) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *SelectedAccounts) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = SelectedAccounts{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return errors.New("selected_accounts: unsupported column type")
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

const (
	TargetStatusPending   = "pending"
	TargetStatusPublished = "published"
	TargetStatusFailed    = "failed"
)

const (
	MediaTypeText     = "text"
	MediaTypeImage    = "image"
	MediaTypeVideo    = "video"
	MediaTypeCarousel = "carousel"
	MediaTypeReel     = "reel"
)

func ValidMediaType(mediaType string) bool {
	switch mediaType {
	case MediaTypeText, MediaTypeImage, MediaTypeVideo, MediaTypeCarousel, MediaTypeReel:
		return true
	}
	return false
}
