package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/repository"
	"github.com/maheshrc27/socialdesk/internal/service"
	"github.com/maheshrc27/socialdesk/internal/transfer"
)

// Worker runs publish tasks. It is mounted by an external process that
// supplies a Publisher; the API server only schedules.
type Worker struct {
	pr        repository.PostRepository
	posts     service.PostService
	publisher service.Publisher
	clock     service.Clock
}

func NewWorker(pr repository.PostRepository, posts service.PostService, publisher service.Publisher, clock service.Clock) *Worker {
	if clock == nil {
		clock = service.RealClock{}
	}
	return &Worker{
		pr:        pr,
		posts:     posts,
		publisher: publisher,
		clock:     clock,
	}
}

// notDueError is returned for a task that fired before its post's scheduled
// time, e.g. a stale task left behind when a reschedule could not cancel it.
type notDueError struct {
	at time.Time
}

func (e *notDueError) Error() string {
	return fmt.Sprintf("post is not due until %s", e.at.Format(time.RFC3339))
}

// ServerConfig returns the asynq server config the worker expects: tasks that
// are not due yet come back at the scheduled time without using up retries.
func (w *Worker) ServerConfig(concurrency int) asynq.Config {
	return asynq.Config{
		Concurrency:    concurrency,
		Queues:         map[string]int{defaultQueue: 1},
		RetryDelayFunc: w.RetryDelay,
		IsFailure:      IsFailure,
	}
}

func (w *Worker) RetryDelay(n int, err error, task *asynq.Task) time.Duration {
	var nd *notDueError
	if errors.As(err, &nd) {
		if d := nd.at.Sub(w.clock.Now()); d > time.Second {
			return d
		}
		return time.Second
	}
	return asynq.DefaultRetryDelayFunc(n, err, task)
}

func IsFailure(err error) bool {
	var nd *notDueError
	return !errors.As(err, &nd)
}

// Mux routes publish tasks to the worker.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypePublishPost, w.HandlePublishTask)
	return mux
}

func (w *Worker) HandlePublishTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	post, err := w.pr.GetByID(ctx, payload.PostID)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Info("publish task for missing post", "post_id", payload.PostID)
		return nil
	}
	if post.Status != models.PostStatusScheduled {
		slog.Info("post is no longer scheduled", "post_id", post.ID, "status", post.Status)
		return nil
	}
	if w.clock.Now().Before(post.ScheduledFor) {
		slog.Info("publish task fired early, deferring", "post_id", post.ID, "scheduled_for", post.ScheduledFor)
		return &notDueError{at: post.ScheduledFor}
	}

	result, err := w.publisher.Publish(ctx, post)
	if err != nil {
		slog.Warn("publish failed", "post_id", post.ID, "error", err)
		result = failAll(post, err)
	}

	if _, err := w.posts.ApplyPublishResult(ctx, post.ID, result); err != nil {
		if service.IsValidation(err) {
			slog.Info(err.Error())
			return nil
		}
		return err
	}
	return nil
}

func failAll(post *models.Post, cause error) transfer.PublishResult {
	result := transfer.PublishResult{Targets: make([]transfer.TargetResult, 0, len(post.SelectedAccounts))}
	for _, a := range post.SelectedAccounts {
		result.Targets = append(result.Targets, transfer.TargetResult{AccountRef: a.ID, Error: cause.Error()})
	}
	return result
}
