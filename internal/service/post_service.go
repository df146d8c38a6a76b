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

type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	History(ctx context.Context, postID, userID int64) ([]*models.PostingHistory, error)
	Update(ctx context.Context, postID, userID int64, patch *transfer.PostPatch) (*models.Post, error)
	Remove(ctx context.Context, postID, userID int64) error
	ApplyPublishResult(ctx context.Context, postID int64, result transfer.PublishResult) (*models.Post, error)
}

type postService struct {
	tx    repository.Transactor
	pr    repository.PostRepository
	ph    repository.PostingHistoryRepository
	sched PublishScheduler
	clock Clock
}

func NewPostService(
	tx repository.Transactor,
	pr repository.PostRepository,
	ph repository.PostingHistoryRepository,
	sched PublishScheduler,
	clock Clock) PostService {
	if sched == nil {
		sched = NewNoopScheduler()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &postService{
		tx:    tx,
		pr:    pr,
		ph:    ph,
		sched: sched,
		clock: clock,
	}
}

func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil {
		return nil, validationf("Missing required fields: title, content, mediaType, scheduledFor")
	}

	var missing []string
	if strings.TrimSpace(pc.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(pc.Content) == "" {
		missing = append(missing, "content")
	}
	if pc.MediaType == "" {
		missing = append(missing, "mediaType")
	}
	if strings.TrimSpace(pc.ScheduledFor) == "" {
		missing = append(missing, "scheduledFor")
	}
	if len(missing) > 0 {
		return nil, validationf("Missing required fields: %s", strings.Join(missing, ", "))
	}

	if !models.ValidMediaType(pc.MediaType) {
		return nil, validationf("Invalid mediaType: %s", pc.MediaType)
	}

	scheduledFor, err := s.futureTime(pc.ScheduledFor)
	if err != nil {
		return nil, err
	}

	accounts, err := snapshotAccounts(pc.SelectedAccounts)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:           userID,
		Title:            strings.TrimSpace(pc.Title),
		Content:          pc.Content,
		Hashtags:         NormalizeHashtags(pc.Hashtags),
		CTA:              strings.TrimSpace(pc.CTA),
		MediaType:        pc.MediaType,
		MediaURLs:        normalizeMediaURLs(pc.MediaType, pc.MediaURLs),
		ScheduledFor:     scheduledFor,
		Status:           models.PostStatusScheduled,
		SelectedAccounts: accounts,
	}

	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := s.pr.Create(ctx, tx, post)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	metrics.RecordPostWrite("create")

	s.syncSchedule(ctx, post)
	return post, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	if postID == 0 || userID == 0 {
		return nil, ErrNotFound
	}

	post, err := s.pr.GetOwned(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *postService) History(ctx context.Context, postID, userID int64) ([]*models.PostingHistory, error) {
	if _, err := s.PostInfo(ctx, postID, userID); err != nil {
		return nil, err
	}

	history, err := s.ph.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting posting history: %w", err)
	}
	return history, nil
}

// Update holds the row lock from the status check until commit, so a post
// cannot become published between the check and the write.
func (s *postService) Update(ctx context.Context, postID, userID int64, patch *transfer.PostPatch) (*models.Post, error) {
	if patch == nil {
		return nil, validationf("Empty update")
	}

	var updated *models.Post
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		post, err := s.pr.LockOwned(ctx, tx, postID, userID)
		if err != nil {
			return err
		}
		if post == nil {
			return ErrNotFound
		}
		if post.Status == models.PostStatusPublished {
			return ErrImmutable
		}

		if err := s.applyPatch(post, patch); err != nil {
			return err
		}

		if err := s.pr.Update(ctx, tx, post); err != nil {
			return err
		}
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordPostWrite("update")

	s.syncSchedule(ctx, updated)
	return updated, nil
}

func (s *postService) applyPatch(post *models.Post, patch *transfer.PostPatch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return validationf("title cannot be empty")
		}
		post.Title = title
	}

	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return validationf("content cannot be empty")
		}
		post.Content = *patch.Content
	}

	if patch.Hashtags != nil {
		post.Hashtags = NormalizeHashtags(*patch.Hashtags)
	}

	if patch.CTA != nil {
		post.CTA = strings.TrimSpace(*patch.CTA)
	}

	if patch.MediaType != nil {
		if !models.ValidMediaType(*patch.MediaType) {
			return validationf("Invalid mediaType: %s", *patch.MediaType)
		}
		post.MediaType = *patch.MediaType
	}

	if patch.MediaURLs != nil {
		post.MediaURLs = normalizeMediaURLs(post.MediaType, *patch.MediaURLs)
	} else if post.MediaType == models.MediaTypeText {
		post.MediaURLs = []string{}
	}

	scheduleChanged := false
	if patch.ScheduledFor != nil {
		scheduledFor, err := s.futureTime(*patch.ScheduledFor)
		if err != nil {
			return err
		}
		post.ScheduledFor = scheduledFor
		scheduleChanged = true
	}

	if patch.Status != nil {
		switch *patch.Status {
		case models.PostStatusDraft, models.PostStatusScheduled:
		default:
			return validationf("status can only be set to draft or scheduled")
		}
		if *patch.Status == models.PostStatusScheduled && post.Status != models.PostStatusScheduled &&
			!scheduleChanged && !post.ScheduledFor.After(s.clock.Now()) {
			return validationf("Scheduled time must be in the future")
		}
		post.Status = *patch.Status
	}

	if patch.SelectedAccounts != nil {
		accounts, err := snapshotAccounts(*patch.SelectedAccounts)
		if err != nil {
			return err
		}
		post.SelectedAccounts = accounts
	}

	return nil
}

func (s *postService) Remove(ctx context.Context, postID, userID int64) error {
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		post, err := s.pr.LockOwned(ctx, tx, postID, userID)
		if err != nil {
			return err
		}
		if post == nil {
			return ErrNotFound
		}
		if post.Status == models.PostStatusPublished {
			return ErrImmutable
		}
		return s.pr.Remove(ctx, tx, postID)
	})
	if err != nil {
		return err
	}
	metrics.RecordPostWrite("remove")

	if err := s.sched.Cancel(ctx, postID); err != nil {
		slog.Warn("unable to cancel publish task", "post_id", postID, "error", err)
	}
	return nil
}

// ApplyPublishResult moves a scheduled post to published or failed on behalf
// of the external publisher and records one history row per target. Targets
// the result does not mention are marked failed; a result that mentions none
// of the post's targets is rejected.
func (s *postService) ApplyPublishResult(ctx context.Context, postID int64, result transfer.PublishResult) (*models.Post, error) {
	var updated *models.Post
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		post, err := s.pr.Lock(ctx, tx, postID)
		if err != nil {
			return err
		}
		if post == nil {
			return ErrNotFound
		}
		if post.Status != models.PostStatusScheduled {
			return validationf("post %d is %s, not scheduled", postID, post.Status)
		}

		byRef := make(map[string]transfer.TargetResult, len(result.Targets))
		for _, t := range result.Targets {
			byRef[t.AccountRef] = t
		}

		matched := 0
		for _, target := range post.SelectedAccounts {
			if _, ok := byRef[target.ID]; ok {
				matched++
			}
		}
		if matched == 0 {
			return validationf("publish result for post %d matches no selected account", postID)
		}

		published := false
		for i := range post.SelectedAccounts {
			target := &post.SelectedAccounts[i]
			res, ok := byRef[target.ID]
			if !ok {
				res = transfer.TargetResult{AccountRef: target.ID, Error: "no result reported"}
			}

			history := &models.PostingHistory{
				UserID:       post.UserID,
				PostID:       post.ID,
				AccountRef:   target.ID,
				Platform:     target.Platform,
				PublishedID:  res.PublishedID,
				ErrorMessage: res.Error,
			}
			if res.Error != "" {
				target.Status = models.TargetStatusFailed
				history.Status = models.TargetStatusFailed
			} else {
				published = true
				target.Status = models.TargetStatusPublished
				target.PublishedID = res.PublishedID
				history.Status = models.TargetStatusPublished
			}

			if _, err := s.ph.Create(ctx, tx, history); err != nil {
				return err
			}
		}

		if published {
			post.Status = models.PostStatusPublished
		} else {
			post.Status = models.PostStatusFailed
		}

		if err := s.pr.Update(ctx, tx, post); err != nil {
			return err
		}
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *postService) futureTime(value string) (t time.Time, err error) {
	t, err = parseScheduledTime(strings.TrimSpace(value))
	if err != nil {
		return t, validationf("Invalid scheduledFor: %s", value)
	}
	if !t.After(s.clock.Now()) {
		return t, validationf("Scheduled time must be in the future")
	}
	return t, nil
}

func (s *postService) syncSchedule(ctx context.Context, post *models.Post) {
	var err error
	if post.Status == models.PostStatusScheduled {
		err = s.sched.Schedule(ctx, post.ID, post.ScheduledFor)
	} else {
		err = s.sched.Cancel(ctx, post.ID)
	}
	if err != nil {
		slog.Warn("unable to sync publish task", "post_id", post.ID, "error", err)
	}
}

// NormalizeHashtags trims entries, drops empty ones and keeps the first
// occurrence of duplicates.
func NormalizeHashtags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func normalizeMediaURLs(mediaType string, urls []string) []string {
	out := []string{}
	if mediaType == models.MediaTypeText {
		return out
	}
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func snapshotAccounts(selected []transfer.SelectedAccountData) (models.SelectedAccounts, error) {
	if len(selected) == 0 {
		return nil, validationf("No platforms or accounts selected")
	}

	accounts := make(models.SelectedAccounts, 0, len(selected))
	for _, a := range selected {
		id := strings.TrimSpace(a.ID)
		if id == "" {
			return nil, validationf("Selected account is missing an id")
		}
		accounts = append(accounts, models.SelectedAccount{
			ID:       id,
			Platform: strings.TrimSpace(a.Platform),
			Name:     strings.TrimSpace(a.Name),
			Type:     strings.TrimSpace(a.Type),
			Status:   models.TargetStatusPending,
		})
	}
	return accounts, nil
}
