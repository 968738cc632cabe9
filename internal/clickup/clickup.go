// Package clickup creates tracker tasks for new projects via the
// ClickUp v2 API.
//
// Calls are synchronous with a bounded timeout and carry no idempotency
// key: a retried create would produce a duplicate remote task, so
// callers must invoke CreateTask at most once per kickoff.
package clickup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const apiBaseURL = "https://api.clickup.com/api/v2"

// For testing: allow overriding the API base and HTTP client.
var (
	baseURL    = apiBaseURL
	httpClient = &http.Client{Timeout: 25 * time.Second}
)

// Client creates tasks using a static API token. Unlike Slack, ClickUp
// expects the raw token in the Authorization header, not Bearer-prefixed.
type Client struct {
	token string
}

// New creates a Client authenticated with the given API token.
func New(token string) *Client {
	return &Client{token: token}
}

type createTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type createTaskResponse struct {
	ID string `json:"id"`
}

// CreateTask creates one task in the given list and returns its
// assigned external id. Transport errors and non-2xx responses
// propagate to the caller unrecovered.
func (c *Client) CreateTask(listID, name, description string) (string, error) {
	body, err := json.Marshal(createTaskRequest{
		Name:        name,
		Description: description,
		Status:      "to do",
	})
	if err != nil {
		return "", fmt.Errorf("clickup: encoding task: %w", err)
	}

	url := fmt.Sprintf("%s/list/%s/task", baseURL, listID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("clickup: creating request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("clickup: creating task: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("clickup: task create returned %d", resp.StatusCode)
	}

	var parsed createTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("clickup: parsing response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("clickup: response missing task id")
	}
	return parsed.ID, nil
}
