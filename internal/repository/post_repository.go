package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialdesk/internal/models"
)

// ErrStaleVersion is returned when a post changed between read and write.
var ErrStaleVersion = errors.New("post was modified concurrently")

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	GetOwned(ctx context.Context, id, userID int64) (*models.Post, error)
	LockOwned(ctx context.Context, tx *sql.Tx, id, userID int64) (*models.Post, error)
	Lock(ctx context.Context, tx *sql.Tx, id int64) (*models.Post, error)
	Update(ctx context.Context, tx *sql.Tx, post *models.Post) error
	Remove(ctx context.Context, tx *sql.Tx, id int64) error
	Count(ctx context.Context) (int64, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, title, content, hashtags, cta, media_type, media_urls, scheduled_for, status, selected_accounts, version, created_at, updated_at`

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.Title, &post.Content, &post.Hashtags, &post.CTA,
		&post.MediaType, &post.MediaURLs, &post.ScheduledFor, &post.Status, &post.SelectedAccounts,
		&post.Version, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, title, content, hashtags, cta, media_type, media_urls, scheduled_for, status, selected_accounts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, version, created_at, updated_at
	`

	err := pick(r.db, tx).QueryRowContext(ctx, query,
		post.UserID,
		post.Title,
		post.Content,
		post.Hashtags,
		post.CTA,
		post.MediaType,
		post.MediaURLs,
		post.ScheduledFor,
		post.Status,
		post.SelectedAccounts,
	).Scan(&post.ID, &post.Version, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return post.ID, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return r.getOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postRepository) GetOwned(ctx context.Context, id, userID int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND user_id = $2`
	return r.getOne(r.db.QueryRowContext(ctx, query, id, userID))
}

// LockOwned reads the post with a row lock held until tx ends.
func (r *postRepository) LockOwned(ctx context.Context, tx *sql.Tx, id, userID int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return r.getOne(pick(r.db, tx).QueryRowContext(ctx, query, id, userID))
}

func (r *postRepository) Lock(ctx context.Context, tx *sql.Tx, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 FOR UPDATE`
	return r.getOne(pick(r.db, tx).QueryRowContext(ctx, query, id))
}

func (r *postRepository) getOne(row *sql.Row) (*models.Post, error) {
	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY scheduled_for ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// Update writes every mutable column and bumps version. The stored version
// must still equal post.Version.
func (r *postRepository) Update(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $1,
			content = $2,
			hashtags = $3,
			cta = $4,
			media_type = $5,
			media_urls = $6,
			scheduled_for = $7,
			status = $8,
			selected_accounts = $9,
			version = version + 1,
			updated_at = $10
		WHERE id = $11 AND version = $12
		RETURNING version, updated_at
	`

	err := pick(r.db, tx).QueryRowContext(ctx, query,
		post.Title,
		post.Content,
		post.Hashtags,
		post.CTA,
		post.MediaType,
		post.MediaURLs,
		post.ScheduledFor,
		post.Status,
		post.SelectedAccounts,
		time.Now(),
		post.ID,
		post.Version,
	).Scan(&post.Version, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrStaleVersion
		}
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := pick(r.db, tx).ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&n); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}
