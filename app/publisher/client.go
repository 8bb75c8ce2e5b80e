package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"postline/app/schedule"
)

// Client delivers post content to a single platform endpoint.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewClient(endpoint EndpointConfig, timeout time.Duration) *Client {
	return &Client{
		url:   endpoint.URL,
		token: endpoint.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type publishRequest struct {
	Content string `json:"content"`
}

type publishResponse struct {
	ID string `json:"id"`
}

// Publish posts the content and returns the platform-assigned post id.
// Errors are *schedule.PublishError classified for the retry policy.
func (c *Client) Publish(ctx context.Context, content string) (string, error) {
	reqBody, err := json.Marshal(publishRequest{Content: content})
	if err != nil {
		return "", &schedule.PublishError{Kind: schedule.FailureInvalidContent, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", &schedule.PublishError{Kind: schedule.FailureRejected, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := schedule.FailureNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = schedule.FailureTimeout
		}
		return "", &schedule.PublishError{Kind: kind, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &schedule.PublishError{
			Kind:    classifyStatus(resp.StatusCode),
			Message: fmt.Sprintf("unexpected status code: %d body=%q", resp.StatusCode, truncateBody(body)),
		}
	}

	var pr publishResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", &schedule.PublishError{
			Kind:    schedule.FailureServerError,
			Message: fmt.Sprintf("failed to decode response: %v body=%q", err, truncateBody(body)),
		}
	}
	if pr.ID == "" {
		return "", &schedule.PublishError{
			Kind:    schedule.FailureServerError,
			Message: fmt.Sprintf("missing id in response body=%q", truncateBody(body)),
		}
	}

	return pr.ID, nil
}

func classifyStatus(code int) schedule.FailureKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return schedule.FailureAuthRevoked
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return schedule.FailureInvalidContent
	case code == http.StatusTooManyRequests:
		return schedule.FailureRateLimited
	case code == http.StatusRequestTimeout:
		return schedule.FailureTimeout
	case code >= 500:
		return schedule.FailureServerError
	default:
		return schedule.FailureRejected
	}
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
