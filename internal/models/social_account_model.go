package models

import (
	"time"
)

type SocialAccount struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	Platform    string    `db:"platform" json:"platform"`
	AccountName string    `db:"account_name" json:"accountName"`
	AccountID   string    `db:"account_id" json:"accountId"`
	AccessToken string    `db:"access_token" json:"-"` // AES-GCM ciphertext, empty when not linked
	PageID      string    `db:"page_id" json:"pageId,omitempty"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

const (
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformTiktok    = "tiktok"
	PlatformWhatsapp  = "whatsapp"
)

func ValidPlatform(platform string) bool {
	switch platform {
	case PlatformFacebook, PlatformInstagram, PlatformTiktok, PlatformWhatsapp:
		return true
	}
	return false
}
