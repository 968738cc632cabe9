// Package slack delivers pipeline event messages to a team channel via
// the Slack chat.postMessage API.
//
// Delivery is best-effort and synchronous with a bounded timeout. The
// caller decides whether a failed notification fails the operation;
// this package only reports the failure and never retries.
package slack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const postMessageURL = "https://slack.com/api/chat.postMessage"

// For testing: allow overriding the endpoint and HTTP client.
var (
	endpoint   = postMessageURL
	httpClient = &http.Client{Timeout: 20 * time.Second}
)

// Client posts messages to one preconfigured channel.
type Client struct {
	token   string
	channel string
}

// New creates a Client for the given channel, authenticated with a
// bot token supplied out of band.
func New(token, channel string) *Client {
	return &Client{token: token, channel: channel}
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Post sends one plain-text message to the configured channel. A
// transport failure and an application-level rejection (HTTP 200 with
// ok=false) are both surfaced as errors.
func (c *Client) Post(text string) error {
	body, err := json.Marshal(postMessageRequest{Channel: c.channel, Text: text})
	if err != nil {
		return fmt.Errorf("slack: encoding message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack: posting message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack: chat.postMessage returned %d", resp.StatusCode)
	}

	var parsed postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("slack: parsing response: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("slack: chat.postMessage rejected: %s", parsed.Error)
	}
	return nil
}
