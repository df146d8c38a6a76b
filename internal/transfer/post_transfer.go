package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// PostCreation is the body of POST /api/posts.
type PostCreation struct {
	Title            string                `json:"title"`
	Content          string                `json:"content"`
	Hashtags         Hashtags              `json:"hashtags"`
	CTA              string                `json:"cta"`
	MediaType        string                `json:"mediaType"`
	MediaURLs        []string              `json:"mediaUrls"`
	ScheduledFor     string                `json:"scheduledFor"`
	SelectedAccounts []SelectedAccountData `json:"selectedAccounts"`
}

// PostPatch is the body of PUT /api/posts/:id. Nil fields are left unchanged.
type PostPatch struct {
	Title            *string                `json:"title"`
	Content          *string                `json:"content"`
	Hashtags         *Hashtags              `json:"hashtags"`
	CTA              *string                `json:"cta"`
	MediaType        *string                `json:"mediaType"`
	MediaURLs        *[]string              `json:"mediaUrls"`
	ScheduledFor     *string                `json:"scheduledFor"`
	Status           *string                `json:"status"`
	SelectedAccounts *[]SelectedAccountData `json:"selectedAccounts"`
}

type SelectedAccountData struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Name     string `json:"name"`
	Type     string `json:"type"`
}

// Hashtags accepts either a JSON array of strings or one comma-separated string.
type Hashtags []string

func (h *Hashtags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*h = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = strings.Split(s, ",")
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.New("hashtags must be a string or an array of strings")
	}
	*h = list
	return nil
}

// PublishResult is what an external publisher reports for a post.
type PublishResult struct {
	Targets []TargetResult `json:"targets"`
}

type TargetResult struct {
	AccountRef  string `json:"accountRef"`
	PublishedID string `json:"publishedId"`
	Error       string `json:"error"`
}
