package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/testutil"
	"github.com/maheshrc27/socialdesk/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	delay   time.Duration
	prompts []string
}

func (c *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.reply, c.err
}

func newConversationService(completer Completer, timeout time.Duration) (ConversationService, *testutil.StubClock) {
	clock := testutil.FixedClock()
	store := testutil.NewStore(clock)
	return NewConversationService(&testutil.Transactor{}, store.Conversations(), completer, timeout, clock, testutil.NewStubIDGenerator()), clock
}

func inbound(text string) transfer.InboundMessage {
	return transfer.InboundMessage{Platform: "facebook", RecipientID: "page-1", ExternalUserID: "psid-42", Text: text}
}

func TestIngestFallsBackWhenCompleterFails(t *testing.T) {
	svc, _ := newConversationService(&stubCompleter{err: errors.New("503")}, time.Second)

	c, err := svc.Ingest(context.Background(), 1, inbound("Do you ship to Canada?"))
	require.NoError(t, err)

	require.Len(t, c.Messages, 2)
	assert.Equal(t, models.DirectionReceived, c.Messages[0].Direction)
	assert.Equal(t, "Do you ship to Canada?", c.Messages[0].Text)
	assert.Equal(t, models.DirectionSent, c.Messages[1].Direction)
	assert.Equal(t, FallbackReply, c.Messages[1].Text)
	assert.Equal(t, models.ConversationStatusActive, c.Status)
}

func TestIngestFallsBackOnEmptyReply(t *testing.T) {
	svc, _ := newConversationService(&stubCompleter{reply: "   "}, time.Second)

	c, err := svc.Ingest(context.Background(), 1, inbound("hi"))
	require.NoError(t, err)
	require.Len(t, c.Messages, 2)
	assert.Equal(t, FallbackReply, c.Messages[1].Text)
}

func TestIngestFallsBackOnTimeout(t *testing.T) {
	svc, _ := newConversationService(&stubCompleter{reply: "late", delay: time.Second}, 10*time.Millisecond)

	c, err := svc.Ingest(context.Background(), 1, inbound("hi"))
	require.NoError(t, err)
	require.Len(t, c.Messages, 2)
	assert.Equal(t, FallbackReply, c.Messages[1].Text)
}

func TestIngestUsesCompletion(t *testing.T) {
	completer := &stubCompleter{reply: "Yes, we ship worldwide."}
	svc, _ := newConversationService(completer, time.Second)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, 1, inbound("Hello"))
	require.NoError(t, err)

	second, err := svc.Ingest(ctx, 1, inbound("Do you ship to Canada?"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Messages, 4)
	assert.Equal(t, "Hello", second.Messages[0].Text)
	assert.Equal(t, "Yes, we ship worldwide.", second.Messages[3].Text)

	require.Len(t, completer.prompts, 2)
	assert.Contains(t, completer.prompts[1], "Customer: Hello")
	assert.Contains(t, completer.prompts[1], "Assistant: Yes, we ship worldwide.")
	assert.Contains(t, completer.prompts[1], "Customer: Do you ship to Canada?\nAssistant:")

	ids := map[string]bool{}
	for _, m := range second.Messages {
		assert.False(t, ids[m.ID], "duplicate message id %s", m.ID)
		ids[m.ID] = true
	}
}

func TestIngestSeparatesOwners(t *testing.T) {
	svc, _ := newConversationService(nil, time.Second)
	ctx := context.Background()

	a, err := svc.Ingest(ctx, 1, inbound("hi"))
	require.NoError(t, err)
	b, err := svc.Ingest(ctx, 2, inbound("hi"))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestReplyAndStatus(t *testing.T) {
	svc, clock := newConversationService(nil, time.Second)
	ctx := context.Background()

	c, err := svc.Ingest(ctx, 1, inbound("hi"))
	require.NoError(t, err)

	_, err = svc.Reply(ctx, 2, c.ID, "not yours")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Reply(ctx, 1, c.ID, "  ")
	assert.True(t, IsValidation(err))

	clock.Advance(time.Minute)
	c, err = svc.Reply(ctx, 1, c.ID, "An agent will follow up.")
	require.NoError(t, err)
	require.Len(t, c.Messages, 3)
	last := c.Messages[2]
	assert.Equal(t, models.DirectionSent, last.Direction)
	assert.Equal(t, clock.Now(), last.SentAt)
	assert.Equal(t, clock.Now(), c.UpdatedAt)

	_, err = svc.SetStatus(ctx, 1, c.ID, "closed")
	assert.True(t, IsValidation(err))

	c, err = svc.SetStatus(ctx, 1, c.ID, models.ConversationStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusResolved, c.Status)
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	svc, _ := newConversationService(nil, time.Second)

	_, err := svc.AppendMessage(context.Background(), 99, models.Message{Text: "x", Direction: models.DirectionSent})
	assert.ErrorIs(t, err, ErrNotFound)
}
