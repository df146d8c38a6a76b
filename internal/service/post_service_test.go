package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/testutil"
	"github.com/maheshrc27/socialdesk/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScheduler struct {
	mu        sync.Mutex
	scheduled map[int64]time.Time
	canceled  []int64
}

func newRecordingScheduler() *recordingScheduler {
	return &recordingScheduler{scheduled: map[int64]time.Time{}}
}

func (r *recordingScheduler) Schedule(ctx context.Context, postID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled[postID] = at
	return nil
}

func (r *recordingScheduler) Cancel(ctx context.Context, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scheduled, postID)
	r.canceled = append(r.canceled, postID)
	return nil
}

type postFixture struct {
	svc   PostService
	store *testutil.Store
	clock *testutil.StubClock
	sched *recordingScheduler
}

func newPostFixture() *postFixture {
	clock := testutil.FixedClock()
	store := testutil.NewStore(clock)
	sched := newRecordingScheduler()
	svc := NewPostService(&testutil.Transactor{}, store.Posts(), store.History(), sched, clock)
	return &postFixture{svc: svc, store: store, clock: clock, sched: sched}
}

func launchPost(clock *testutil.StubClock) *transfer.PostCreation {
	return &transfer.PostCreation{
		Title:        "Launch",
		Content:      "Hello",
		Hashtags:     transfer.Hashtags{" #go ", "#launch", "", "#go"},
		MediaType:    models.MediaTypeImage,
		MediaURLs:    []string{"http://localhost:5000/uploads/a.png", " "},
		ScheduledFor: clock.Now().Add(24 * time.Hour).Format(time.RFC3339),
		SelectedAccounts: []transfer.SelectedAccountData{
			{ID: "fb-1", Platform: "facebook", Name: "Page", Type: "page"},
			{ID: "ig-1", Platform: "instagram", Name: "Brand", Type: "business"},
		},
	}
}

func TestCreatePost(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	assert.NotZero(t, post.ID)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.Equal(t, []string{"#go", "#launch"}, []string(post.Hashtags))
	assert.Equal(t, []string{"http://localhost:5000/uploads/a.png"}, []string(post.MediaURLs))
	require.Len(t, post.SelectedAccounts, 2)
	for _, a := range post.SelectedAccounts {
		assert.Equal(t, models.TargetStatusPending, a.Status)
	}
	assert.Equal(t, post.ScheduledFor, f.sched.scheduled[post.ID])

	posts, err := f.svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Launch", posts[0].Title)
}

func TestCreatePostValidation(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(pc *transfer.PostCreation)
		msg    string
	}{
		{"missing fields", func(pc *transfer.PostCreation) { pc.Title = ""; pc.ScheduledFor = "" }, "Missing required fields: title, scheduledFor"},
		{"bad media type", func(pc *transfer.PostCreation) { pc.MediaType = "gif" }, "Invalid mediaType: gif"},
		{"past time", func(pc *transfer.PostCreation) {
			pc.ScheduledFor = f.clock.Now().Add(-time.Minute).Format(time.RFC3339)
		}, "Scheduled time must be in the future"},
		{"now is not future", func(pc *transfer.PostCreation) { pc.ScheduledFor = f.clock.Now().Format(time.RFC3339) }, "Scheduled time must be in the future"},
		{"unparseable time", func(pc *transfer.PostCreation) { pc.ScheduledFor = "tomorrow" }, "Invalid scheduledFor: tomorrow"},
		{"no accounts", func(pc *transfer.PostCreation) { pc.SelectedAccounts = nil }, "No platforms or accounts selected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := launchPost(f.clock)
			tt.mutate(pc)
			_, err := f.svc.Create(ctx, 1, pc)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}

	posts, err := f.svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreatePostAcceptsDatetimeLocal(t *testing.T) {
	f := newPostFixture()
	pc := launchPost(f.clock)
	pc.ScheduledFor = f.clock.Now().Add(2 * time.Hour).Format("2006-01-02T15:04")

	post, err := f.svc.Create(context.Background(), 1, pc)
	require.NoError(t, err)
	assert.True(t, post.ScheduledFor.Equal(f.clock.Now().Add(2*time.Hour)))
}

func TestCreateTextPostDropsMedia(t *testing.T) {
	f := newPostFixture()
	pc := launchPost(f.clock)
	pc.MediaType = models.MediaTypeText

	post, err := f.svc.Create(context.Background(), 1, pc)
	require.NoError(t, err)
	assert.Empty(t, post.MediaURLs)
}

func TestListPostsOrderedBySchedule(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	later := launchPost(f.clock)
	later.Title = "Later"
	later.ScheduledFor = f.clock.Now().Add(48 * time.Hour).Format(time.RFC3339)
	_, err := f.svc.Create(ctx, 1, later)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, 2, launchPost(f.clock))
	require.NoError(t, err)

	posts, err := f.svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Launch", posts[0].Title)
	assert.Equal(t, "Later", posts[1].Title)
}

func TestPostInfoOtherUser(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	_, err = f.svc.PostInfo(ctx, post.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePost(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	title := "Launch day"
	tags := transfer.Hashtags{"#new"}
	updated, err := f.svc.Update(ctx, post.ID, 1, &transfer.PostPatch{Title: &title, Hashtags: &tags})
	require.NoError(t, err)

	assert.Equal(t, "Launch day", updated.Title)
	assert.Equal(t, []string{"#new"}, []string(updated.Hashtags))
	assert.Equal(t, "Hello", updated.Content)
	assert.Equal(t, post.Version+1, updated.Version)
}

func TestUpdatePostToTextClearsMedia(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	text := models.MediaTypeText
	updated, err := f.svc.Update(ctx, post.ID, 1, &transfer.PostPatch{MediaType: &text})
	require.NoError(t, err)
	assert.Empty(t, updated.MediaURLs)
}

func TestUpdatePostStatus(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	draft := models.PostStatusDraft
	updated, err := f.svc.Update(ctx, post.ID, 1, &transfer.PostPatch{Status: &draft})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, updated.Status)
	assert.NotContains(t, f.sched.scheduled, post.ID)

	published := models.PostStatusPublished
	_, err = f.svc.Update(ctx, post.ID, 1, &transfer.PostPatch{Status: &published})
	assert.True(t, IsValidation(err))
}

func TestPublishedPostIsImmutable(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)
	f.store.SetPostStatus(post.ID, models.PostStatusPublished)

	title := "Changed"
	_, err = f.svc.Update(ctx, post.ID, 1, &transfer.PostPatch{Title: &title})
	assert.ErrorIs(t, err, ErrImmutable)

	err = f.svc.Remove(ctx, post.ID, 1)
	assert.ErrorIs(t, err, ErrImmutable)

	posts, err := f.svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Launch", posts[0].Title)
}

func TestRemovePost(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Remove(ctx, post.ID, 2), ErrNotFound)
	require.NoError(t, f.svc.Remove(ctx, post.ID, 1))
	assert.Contains(t, f.sched.canceled, post.ID)

	_, err = f.svc.PostInfo(ctx, post.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	title := "New title"
	content := "New content"
	patches := []*transfer.PostPatch{{Title: &title}, {Content: &content}}

	var wg sync.WaitGroup
	errs := make([]error, len(patches))
	for i, p := range patches {
		wg.Add(1)
		go func(i int, p *transfer.PostPatch) {
			defer wg.Done()
			_, errs[i] = f.svc.Update(ctx, post.ID, 1, p)
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	final, err := f.svc.PostInfo(ctx, post.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "New title", final.Title)
	assert.Equal(t, "New content", final.Content)
	assert.Equal(t, post.Version+2, final.Version)
}

func TestApplyPublishResult(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	updated, err := f.svc.ApplyPublishResult(ctx, post.ID, transfer.PublishResult{Targets: []transfer.TargetResult{
		{AccountRef: "fb-1", PublishedID: "fb-post-9"},
		{AccountRef: "ig-1", Error: "token expired"},
	}})
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPublished, updated.Status)
	assert.Equal(t, models.TargetStatusPublished, updated.SelectedAccounts[0].Status)
	assert.Equal(t, "fb-post-9", updated.SelectedAccounts[0].PublishedID)
	assert.Equal(t, models.TargetStatusFailed, updated.SelectedAccounts[1].Status)

	history, err := f.svc.History(ctx, post.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "token expired", history[1].ErrorMessage)

	_, err = f.svc.ApplyPublishResult(ctx, post.ID, transfer.PublishResult{})
	assert.True(t, IsValidation(err))
}

func TestApplyPublishResultIgnoresUnknownTargets(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	_, err = f.svc.ApplyPublishResult(ctx, post.ID, transfer.PublishResult{Targets: []transfer.TargetResult{
		{AccountRef: "bogus", PublishedID: "x"},
	}})
	assert.True(t, IsValidation(err))

	stored, err := f.svc.PostInfo(ctx, post.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, stored.Status)
	for _, a := range stored.SelectedAccounts {
		assert.Equal(t, models.TargetStatusPending, a.Status)
	}

	history, err := f.svc.History(ctx, post.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestApplyPublishResultMarksUnreportedTargetsFailed(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	updated, err := f.svc.ApplyPublishResult(ctx, post.ID, transfer.PublishResult{Targets: []transfer.TargetResult{
		{AccountRef: "bogus", PublishedID: "x"},
		{AccountRef: "ig-1", Error: "token expired"},
	}})
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusFailed, updated.Status)
	assert.Equal(t, models.TargetStatusFailed, updated.SelectedAccounts[0].Status)
	assert.Equal(t, models.TargetStatusFailed, updated.SelectedAccounts[1].Status)

	history, err := f.svc.History(ctx, post.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "no result reported", history[0].ErrorMessage)
}

func TestApplyPublishResultAllFailed(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, 1, launchPost(f.clock))
	require.NoError(t, err)

	updated, err := f.svc.ApplyPublishResult(ctx, post.ID, transfer.PublishResult{Targets: []transfer.TargetResult{
		{AccountRef: "fb-1", Error: "rate limited"},
	}})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, updated.Status)

	// failed posts can be rescheduled
	next := f.clock.Now().Add(time.Hour).Format(time.RFC3339)
	scheduled := models.PostStatusScheduled
	updated, err = f.svc.Update(ctx, post.ID, 1, &transfer.PostPatch{ScheduledFor: &next, Status: &scheduled})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, updated.Status)
}
