package models

import "time"

// PostingHistory records one publish attempt of a post against one of its
// selected accounts, as reported by the external publisher.
type PostingHistory struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"userId"`
	PostID       int64     `db:"post_id" json:"postId"`
	AccountRef   string    `db:"account_ref" json:"accountRef"`
	Platform     string    `db:"platform" json:"platform"`
	Status       string    `db:"status" json:"status"`
	PublishedID  string    `db:"published_id" json:"publishedId"`
	ErrorMessage string    `db:"error_message" json:"errorMessage"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
