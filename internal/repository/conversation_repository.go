package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/socialdesk/internal/models"
)

type ConversationRepository interface {
	FindOrCreate(ctx context.Context, tx *sql.Tx, ownerUserID int64, externalUserID, platform string) (*models.Conversation, error)
	Lock(ctx context.Context, tx *sql.Tx, id int64) (*models.Conversation, error)
	LockOwned(ctx context.Context, tx *sql.Tx, id, ownerUserID int64) (*models.Conversation, error)
	AppendMessage(ctx context.Context, tx *sql.Tx, msg *models.Message) error
	RecentMessages(ctx context.Context, tx *sql.Tx, conversationID int64, limit int) ([]models.Message, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id int64, status string) error
	GetWithMessages(ctx context.Context, id int64) (*models.Conversation, error)
	ListByOwner(ctx context.Context, ownerUserID int64) ([]*models.Conversation, error)
	Count(ctx context.Context) (int64, error)
}

type conversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

const conversationColumns = `id, owner_user_id, external_user_id, platform, status, created_at, updated_at`

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.OwnerUserID, &c.ExternalUserID, &c.Platform, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Messages = []models.Message{}
	return &c, nil
}

func (r *conversationRepository) FindOrCreate(ctx context.Context, tx *sql.Tx, ownerUserID int64, externalUserID, platform string) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (owner_user_id, external_user_id, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_user_id, external_user_id, platform)
		DO UPDATE SET platform = EXCLUDED.platform
		RETURNING ` + conversationColumns

	c, err := scanConversation(pick(r.db, tx).QueryRowContext(ctx, query, ownerUserID, externalUserID, platform))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return c, nil
}

func (r *conversationRepository) Lock(ctx context.Context, tx *sql.Tx, id int64) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 FOR UPDATE`
	return r.getOne(pick(r.db, tx).QueryRowContext(ctx, query, id))
}

func (r *conversationRepository) LockOwned(ctx context.Context, tx *sql.Tx, id, ownerUserID int64) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 AND owner_user_id = $2 FOR UPDATE`
	return r.getOne(pick(r.db, tx).QueryRowContext(ctx, query, id, ownerUserID))
}

func (r *conversationRepository) getOne(row *sql.Row) (*models.Conversation, error) {
	c, err := scanConversation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return c, nil
}

// AppendMessage inserts msg and moves the conversation's updated_at to the
// message timestamp. Messages are never updated or deleted.
func (r *conversationRepository) AppendMessage(ctx context.Context, tx *sql.Tx, msg *models.Message) error {
	q := pick(r.db, tx)

	insertQuery := `
		INSERT INTO conversation_messages (id, conversation_id, text, direction, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := q.ExecContext(ctx, insertQuery, msg.ID, msg.ConversationID, msg.Text, msg.Direction, msg.SentAt); err != nil {
		slog.Info(err.Error())
		return err
	}

	touchQuery := `UPDATE conversations SET updated_at = $1 WHERE id = $2`
	if _, err := q.ExecContext(ctx, touchQuery, msg.SentAt, msg.ConversationID); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// RecentMessages returns the last limit messages, oldest first.
func (r *conversationRepository) RecentMessages(ctx context.Context, tx *sql.Tx, conversationID int64, limit int) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, text, direction, sent_at FROM (
			SELECT id, conversation_id, text, direction, sent_at, seq
			FROM conversation_messages
			WHERE conversation_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC
	`

	rows, err := pick(r.db, tx).QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Text, &m.Direction, &m.SentAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return messages, nil
}

func (r *conversationRepository) SetStatus(ctx context.Context, tx *sql.Tx, id int64, status string) error {
	query := `
		UPDATE conversations
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := pick(r.db, tx).ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *conversationRepository) GetWithMessages(ctx context.Context, id int64) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	c, err := r.getOne(r.db.QueryRowContext(ctx, query, id))
	if err != nil || c == nil {
		return nil, err
	}

	if err := r.attachMessages(ctx, []*models.Conversation{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *conversationRepository) ListByOwner(ctx context.Context, ownerUserID int64) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE owner_user_id = $1 ORDER BY updated_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerUserID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	conversations := []*models.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := r.attachMessages(ctx, conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *conversationRepository) attachMessages(ctx context.Context, conversations []*models.Conversation) error {
	if len(conversations) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Conversation, len(conversations))
	ids := make([]int64, 0, len(conversations))
	for _, c := range conversations {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	query := `
		SELECT id, conversation_id, text, direction, sent_at
		FROM conversation_messages
		WHERE conversation_id = ANY($1)
		ORDER BY conversation_id, seq
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Text, &m.Direction, &m.SentAt); err != nil {
			slog.Info(err.Error())
			return err
		}
		if c, ok := byID[m.ConversationID]; ok {
			c.Messages = append(c.Messages, m)
		}
	}
	return rows.Err()
}

func (r *conversationRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversations").Scan(&n); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}
