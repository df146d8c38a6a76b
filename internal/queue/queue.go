package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypePublishPost = "post:publish"
	defaultQueue        = "default"
)

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}

func taskID(postID int64) string {
	return fmt.Sprintf("post:%d", postID)
}

// NewPublishTask builds the task that fires at the post's scheduled time.
func NewPublishTask(postID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePublishPost, payload), nil
}

// Scheduler keeps exactly one pending publish task per scheduled post.
type Scheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
}

func NewScheduler(redisURI string) (*Scheduler, error) {
	opt, err := asynq.ParseRedisURI(redisURI)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		queue:     defaultQueue,
	}, nil
}

func (s *Scheduler) Schedule(ctx context.Context, postID int64, at time.Time) error {
	if err := s.Cancel(ctx, postID); err != nil {
		return err
	}

	task, err := NewPublishTask(postID)
	if err != nil {
		return err
	}

	info, err := s.client.EnqueueContext(ctx, task,
		asynq.TaskID(taskID(postID)),
		asynq.ProcessAt(at),
		asynq.Queue(s.queue),
	)
	if err != nil {
		return err
	}

	slog.Info("publish task scheduled", "post_id", postID, "task_id", info.ID, "process_at", at)
	return nil
}

func (s *Scheduler) Cancel(ctx context.Context, postID int64) error {
	err := s.inspector.DeleteTask(s.queue, taskID(postID))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return err
}

func (s *Scheduler) Close() error {
	if err := s.inspector.Close(); err != nil {
		return err
	}
	return s.client.Close()
}
