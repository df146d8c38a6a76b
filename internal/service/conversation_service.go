package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/socialdesk/internal/metrics"
	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/repository"
	"github.com/maheshrc27/socialdesk/internal/transfer"
)

type ConversationService interface {
	List(ctx context.Context, userID int64) ([]*models.Conversation, error)
	FindOrCreate(ctx context.Context, ownerUserID int64, externalUserID, platform string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID int64, msg models.Message) (*models.Conversation, error)
	Reply(ctx context.Context, userID, conversationID int64, text string) (*models.Conversation, error)
	SetStatus(ctx context.Context, userID, conversationID int64, status string) (*models.Conversation, error)
	Ingest(ctx context.Context, ownerUserID int64, in transfer.InboundMessage) (*models.Conversation, error)
}

type conversationService struct {
	tx        repository.Transactor
	cr        repository.ConversationRepository
	completer Completer
	timeout   time.Duration
	clock     Clock
	ids       IDGenerator
}

func NewConversationService(
	tx repository.Transactor,
	cr repository.ConversationRepository,
	completer Completer,
	timeout time.Duration,
	clock Clock,
	ids IDGenerator) ConversationService {
	if completer == nil {
		completer = noopCompleter{}
	}
	if clock == nil {
		clock = RealClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &conversationService{
		tx:        tx,
		cr:        cr,
		completer: completer,
		timeout:   timeout,
		clock:     clock,
		ids:       ids,
	}
}

func (s *conversationService) List(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	conversations, err := s.cr.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing conversations: %w", err)
	}
	return conversations, nil
}

func (s *conversationService) FindOrCreate(ctx context.Context, ownerUserID int64, externalUserID, platform string) (*models.Conversation, error) {
	externalUserID = strings.TrimSpace(externalUserID)
	if externalUserID == "" {
		return nil, validationf("external user id is required")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		platform = models.PlatformFacebook
	}

	c, err := s.cr.FindOrCreate(ctx, nil, ownerUserID, externalUserID, platform)
	if err != nil {
		return nil, fmt.Errorf("error finding conversation: %w", err)
	}
	return c, nil
}

// AppendMessage adds msg to the end of the thread. Existing messages are
// never rewritten.
func (s *conversationService) AppendMessage(ctx context.Context, conversationID int64, msg models.Message) (*models.Conversation, error) {
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		c, err := s.cr.Lock(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		return s.append(ctx, tx, conversationID, msg)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, conversationID)
}

func (s *conversationService) append(ctx context.Context, tx *sql.Tx, conversationID int64, msg models.Message) error {
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return validationf("message text is required")
	}
	if msg.Direction != models.DirectionReceived && msg.Direction != models.DirectionSent {
		return validationf("Invalid direction: %s", msg.Direction)
	}

	msg.ID = s.ids.New()
	msg.ConversationID = conversationID
	msg.SentAt = s.clock.Now()
	return s.cr.AppendMessage(ctx, tx, &msg)
}

func (s *conversationService) Reply(ctx context.Context, userID, conversationID int64, text string) (*models.Conversation, error) {
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		c, err := s.cr.LockOwned(ctx, tx, conversationID, userID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		return s.append(ctx, tx, conversationID, models.Message{Text: text, Direction: models.DirectionSent})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, conversationID)
}

func (s *conversationService) SetStatus(ctx context.Context, userID, conversationID int64, status string) (*models.Conversation, error) {
	if !models.ValidConversationStatus(status) {
		return nil, validationf("Invalid status: %s", status)
	}

	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		c, err := s.cr.LockOwned(ctx, tx, conversationID, userID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		return s.cr.SetStatus(ctx, tx, conversationID, status)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, conversationID)
}

// Ingest stores an inbound platform message and appends an automatic reply.
// A failing completer falls back to FallbackReply; it never fails the ingest.
func (s *conversationService) Ingest(ctx context.Context, ownerUserID int64, in transfer.InboundMessage) (*models.Conversation, error) {
	c, err := s.FindOrCreate(ctx, ownerUserID, in.ExternalUserID, in.Platform)
	if err != nil {
		return nil, err
	}

	var history []models.Message
	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.cr.Lock(ctx, tx, c.ID); err != nil {
			return err
		}
		recent, err := s.cr.RecentMessages(ctx, tx, c.ID, replyContextSize)
		if err != nil {
			return err
		}
		history = recent
		return s.append(ctx, tx, c.ID, models.Message{Text: in.Text, Direction: models.DirectionReceived})
	})
	if err != nil {
		return nil, err
	}

	reply, err := completeWithTimeout(ctx, s.completer, s.timeout, buildReplyPrompt(history, strings.TrimSpace(in.Text)))
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errEmptyReply
	}
	if err != nil {
		slog.Warn("auto-reply unavailable, sending fallback", "conversation_id", c.ID, "error", err)
		reply = FallbackReply
	}
	metrics.RecordAutoReply(err != nil)

	return s.AppendMessage(ctx, c.ID, models.Message{Text: reply, Direction: models.DirectionSent})
}

func (s *conversationService) load(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	c, err := s.cr.GetWithMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error loading conversation: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}
