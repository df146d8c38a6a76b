package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/socialdesk/configs"
	"github.com/maheshrc27/socialdesk/internal/models"
)

// FallbackReply is appended whenever the completer cannot produce a reply.
const FallbackReply = "Thanks for your message! We'll get back to you shortly."

// replyContextSize is how many prior messages are sent to the completer.
const replyContextSize = 5

var (
	ErrCompleterDisabled = errors.New("auto-reply is not configured")
	errEmptyReply        = errors.New("completion response is empty")
)

// Completer turns a prompt into a reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type noopCompleter struct{}

func (noopCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return "", ErrCompleterDisabled
}

// NewCompleter returns an OpenAI-compatible completer, or a disabled one when
// no API key is configured.
func NewCompleter(cfg config.OpenAI) Completer {
	if cfg.APIKey == "" {
		return noopCompleter{}
	}
	return &openAICompleter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type openAICompleter struct {
	cfg    config.OpenAI
	client *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *openAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a friendly social media customer support assistant. Reply briefly."},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 150,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completion request failed: %s: %s", resp.Status, msg)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}

	reply := strings.TrimSpace(out.Choices[0].Message.Content)
	if reply == "" {
		return "", errEmptyReply
	}
	return reply, nil
}

// buildReplyPrompt renders the recent history followed by the new message.
func buildReplyPrompt(history []models.Message, inbound string) string {
	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, m := range history {
		who := "Customer"
		if m.Direction == models.DirectionSent {
			who = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, m.Text)
	}
	fmt.Fprintf(&b, "Customer: %s\nAssistant:", inbound)
	return b.String()
}

func completeWithTimeout(ctx context.Context, c Completer, timeout time.Duration, prompt string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.Complete(ctx, prompt)
}
