package models

import "time"

type Conversation struct {
	ID             int64     `db:"id" json:"id"`
	OwnerUserID    int64     `db:"owner_user_id" json:"ownerUserId"`
	ExternalUserID string    `db:"external_user_id" json:"externalUserId"`
	Platform       string    `db:"platform" json:"platform"`
	Status         string    `db:"status" json:"status"` // active, resolved, archived
	Messages       []Message `json:"messages"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID int64     `db:"conversation_id" json:"-"`
	Text           string    `db:"text" json:"text"`
	Direction      string    `db:"direction" json:"direction"` // received, sent
	SentAt         time.Time `db:"sent_at" json:"timestamp"`
}

const (
	ConversationStatusActive   = "active"
	ConversationStatusResolved = "resolved"
	ConversationStatusArchived = "archived"
)

const (
	DirectionReceived = "received"
	DirectionSent     = "sent"
)

func ValidConversationStatus(status string) bool {
	switch status {
	case ConversationStatusActive, ConversationStatusResolved, ConversationStatusArchived:
		return true
	}
	return false
}
