package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/socialdesk/configs"
	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/service"
	"github.com/maheshrc27/socialdesk/internal/transfer"
)

// WebhookHandler receives Messenger and Instagram direct messages and feeds
// them into the conversation store.
type WebhookHandler struct {
	cfg config.Webhook
	ps  service.PlatformService
	cs  service.ConversationService
}

func NewWebhookHandler(cfg config.Webhook, ps service.PlatformService, cs service.ConversationService) *WebhookHandler {
	return &WebhookHandler{cfg: cfg, ps: ps, cs: cs}
}

// Verify answers the platform's subscription challenge.
func (h *WebhookHandler) Verify(c *fiber.Ctx) error {
	if h.cfg.VerifyToken == "" ||
		c.Query("hub.mode") != "subscribe" ||
		c.Query("hub.verify_token") != h.cfg.VerifyToken {
		return c.SendStatus(fiber.StatusForbidden)
	}
	return c.SendString(c.Query("hub.challenge"))
}

func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	body := c.Body()
	if h.cfg.AppSecret != "" && !validSignature(h.cfg.AppSecret, body, c.Get("X-Hub-Signature-256")) {
		slog.Info("webhook signature mismatch")
		return c.SendStatus(fiber.StatusForbidden)
	}

	var event transfer.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return badRequest(c, "Invalid request body")
	}

	platform := webhookPlatform(event.Object)
	if platform == "" {
		slog.Info("ignoring webhook object", "object", event.Object)
		return c.SendString("EVENT_RECEIVED")
	}

	for _, entry := range event.Entry {
		for _, m := range entry.Messaging {
			if m.Message == nil || m.Message.IsEcho || strings.TrimSpace(m.Message.Text) == "" {
				continue
			}
			h.ingest(c, platform, entry.ID, m)
		}
	}

	return c.SendString("EVENT_RECEIVED")
}

func (h *WebhookHandler) ingest(c *fiber.Ctx, platform, entryID string, m transfer.WebhookMessaging) {
	recipient := m.Recipient.ID
	if recipient == "" {
		recipient = entryID
	}

	account, err := h.ps.FindOwner(c.Context(), platform, recipient)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			slog.Info("no connected account for webhook recipient", "platform", platform, "recipient", recipient)
		} else {
			slog.Error(err.Error())
		}
		return
	}

	_, err = h.cs.Ingest(c.Context(), account.UserID, transfer.InboundMessage{
		Platform:       platform,
		RecipientID:    recipient,
		ExternalUserID: m.Sender.ID,
		Text:           m.Message.Text,
	})
	if err != nil {
		slog.Error("unable to ingest message", "platform", platform, "sender", m.Sender.ID, "error", err)
	}
}

func webhookPlatform(object string) string {
	switch object {
	case "page":
		return models.PlatformFacebook
	case "instagram":
		return models.PlatformInstagram
	}
	return ""
}

func validSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
