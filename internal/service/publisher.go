package service

import (
	"context"
	"time"

	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/transfer"
)

// Publisher delivers a post to its target platforms. No implementation lives
// in this repository; an external worker supplies one.
type Publisher interface {
	Publish(ctx context.Context, post *models.Post) (transfer.PublishResult, error)
}

// PublishScheduler notifies the external worker when a post should go out.
type PublishScheduler interface {
	Schedule(ctx context.Context, postID int64, at time.Time) error
	Cancel(ctx context.Context, postID int64) error
}

type noopScheduler struct{}

func NewNoopScheduler() PublishScheduler {
	return noopScheduler{}
}

func (noopScheduler) Schedule(ctx context.Context, postID int64, at time.Time) error { return nil }

func (noopScheduler) Cancel(ctx context.Context, postID int64) error { return nil }
