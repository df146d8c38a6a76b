package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postCols = []string{"id", "user_id", "title", "content", "hashtags", "cta", "media_type", "media_urls",
	"scheduled_for", "status", "selected_accounts", "version", "created_at", "updated_at"}

func TestPostRepositoryCreate(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	when := now.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO posts")).
		WithArgs(int64(1), "Launch", "Hello world", sqlmock.AnyArg(), "", "text", sqlmock.AnyArg(),
			when, "scheduled", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "created_at", "updated_at"}).AddRow(10, 1, now, now))

	post := &models.Post{
		UserID:       1,
		Title:        "Launch",
		Content:      "Hello world",
		Hashtags:     []string{},
		MediaType:    models.MediaTypeText,
		MediaURLs:    []string{},
		ScheduledFor: when,
		Status:       models.PostStatusScheduled,
		SelectedAccounts: models.SelectedAccounts{
			{ID: "fb1", Platform: "Facebook", Name: "Page 1", Status: models.TargetStatusPending},
		},
	}
	id, err := NewPostRepository(db).Create(context.Background(), nil, post)
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)
	assert.Equal(t, int64(1), post.Version)
}

func TestPostRepositoryGetByUserIDOrdersBySchedule(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows(postCols).
		AddRow(1, 1, "a", "b", []byte("{launch,promo}"), "", "image", []byte("{https://cdn/x.png}"),
			now.Add(time.Hour), "scheduled", []byte(`[{"id":"fb1","platform":"facebook","name":"Page","status":"pending"}]`), 1, now, now).
		AddRow(2, 1, "c", "d", []byte("{}"), "", "text", []byte("{}"),
			now.Add(2*time.Hour), "draft", []byte(`[]`), 3, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts WHERE user_id = $1 ORDER BY scheduled_for ASC, id ASC")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	posts, err := NewPostRepository(db).GetByUserID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, []string{"launch", "promo"}, []string(posts[0].Hashtags))
	assert.Equal(t, []string{"https://cdn/x.png"}, []string(posts[0].MediaURLs))
	require.Len(t, posts[0].SelectedAccounts, 1)
	assert.Equal(t, "fb1", posts[0].SelectedAccounts[0].ID)
	assert.Empty(t, posts[1].Hashtags)
	assert.Equal(t, int64(3), posts[1].Version)
}

func TestPostRepositoryLockOwnedMissing(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts WHERE id = $1 AND user_id = $2 FOR UPDATE")).
		WithArgs(int64(5), int64(2)).
		WillReturnRows(sqlmock.NewRows(postCols))

	post, err := NewPostRepository(db).LockOwned(context.Background(), nil, 5, 2)
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestPostRepositoryUpdateStaleVersion(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE posts")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}))

	post := &models.Post{ID: 4, Version: 2, Status: models.PostStatusScheduled}
	err := NewPostRepository(db).Update(context.Background(), nil, post)
	assert.ErrorIs(t, err, ErrStaleVersion)
}

func TestPostRepositoryUpdateBumpsVersion(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $11 AND version = $12")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}).AddRow(3, now))

	post := &models.Post{ID: 4, Version: 2, Status: models.PostStatusScheduled}
	require.NoError(t, NewPostRepository(db).Update(context.Background(), nil, post))
	assert.Equal(t, int64(3), post.Version)
}
