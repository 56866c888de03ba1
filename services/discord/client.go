// Package discord implements the direct-message delivery collaborator: look
// up a user's DM channel and post the episode notice into it. Only success or
// failure matters to callers.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"followarr/models"
)

const defaultBaseURL = "https://discord.com/api/v10"

// Client handles Discord REST API interactions for direct messages.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a new Discord API client. baseURL is overridable for
// tests; pass "" for the real API.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

type dmChannel struct {
	ID string `json:"id"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedImage struct {
	URL string `json:"url"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Thumbnail   *embedImage  `json:"thumbnail,omitempty"`
}

type messagePayload struct {
	Embeds []embed `json:"embeds"`
}

// SendDirect opens (or reuses) the DM channel for the user and posts the
// notice as an embed. Blocked DMs and deleted users surface as plain errors.
func (c *Client) SendDirect(ctx context.Context, userID string, notice models.EpisodeNotice) error {
	channel, err := c.createDMChannel(ctx, userID)
	if err != nil {
		return fmt.Errorf("open dm channel for user %s: %w", userID, err)
	}
	if err := c.postMessage(ctx, channel.ID, noticeEmbed(notice)); err != nil {
		return fmt.Errorf("send dm to user %s: %w", userID, err)
	}
	return nil
}

func (c *Client) createDMChannel(ctx context.Context, userID string) (*dmChannel, error) {
	var channel dmChannel
	body := map[string]string{"recipient_id": userID}
	if err := c.doJSON(ctx, http.MethodPost, "/users/@me/channels", body, &channel); err != nil {
		return nil, err
	}
	if channel.ID == "" {
		return nil, fmt.Errorf("no channel id in response")
	}
	return &channel, nil
}

func (c *Client) postMessage(ctx context.Context, channelID string, e embed) error {
	return c.doJSON(ctx, http.MethodPost, "/channels/"+channelID+"/messages", messagePayload{Embeds: []embed{e}}, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func noticeEmbed(notice models.EpisodeNotice) embed {
	e := embed{
		Title:       fmt.Sprintf("New Episode Added: %s", notice.ShowTitle),
		Description: "A new episode has been added to your media server!",
		Fields: []embedField{
			{Name: "Episode", Value: fmt.Sprintf("%s - %s", notice.EpisodeCode(), notice.EpisodeTitle)},
		},
	}
	if notice.Summary != "" {
		e.Fields = append(e.Fields, embedField{Name: "Summary", Value: truncate(notice.Summary, 1024)})
	} else if notice.Overview != "" {
		e.Fields = append(e.Fields, embedField{Name: "Overview", Value: truncate(notice.Overview, 1024)})
	}
	if notice.AirDate != "" {
		e.Fields = append(e.Fields, embedField{Name: "Air Date", Value: notice.AirDate, Inline: true})
	}
	if notice.Network != "" {
		e.Fields = append(e.Fields, embedField{Name: "Network", Value: notice.Network, Inline: true})
	}
	if notice.ThumbnailRef != "" {
		e.Thumbnail = &embedImage{URL: notice.ThumbnailRef}
	}
	return e
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
