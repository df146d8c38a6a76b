package transfer

// InboundMessage is a message received from a platform user.
type InboundMessage struct {
	Platform       string
	RecipientID    string // page or account id that received the message
	ExternalUserID string // platform sender id
	Text           string
}

type ReplyRequest struct {
	Text string `json:"text"`
}

type ConversationStatusUpdate struct {
	Status string `json:"status"`
}

// WebhookEvent is the Messenger/Instagram webhook envelope.
type WebhookEvent struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID        string             `json:"id"`
	Time      int64              `json:"time"`
	Messaging []WebhookMessaging `json:"messaging"`
}

type WebhookMessaging struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Timestamp int64 `json:"timestamp"`
	Message   *struct {
		MID    string `json:"mid"`
		Text   string `json:"text"`
		IsEcho bool   `json:"is_echo"`
	} `json:"message"`
}
