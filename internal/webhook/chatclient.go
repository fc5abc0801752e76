package webhook

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ChatClient calls the chat relay webhook.
type ChatClient struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// NewChat creates a client with a configurable timeout. With skip set the
// client answers with canned replies and never touches the network.
func NewChat(baseURL string, timeout time.Duration, skip bool) *ChatClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatClient{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Send relays one user message and returns the normalized reply. The text
// travels as a query parameter; the webhook answers with whatever shape the
// workflow happens to produce.
func (c *ChatClient) Send(ctx context.Context, userID, text string) (string, error) {
	if c.Skip {
		return "You said: " + text, nil
	}

	q := url.Values{}
	q.Set("message", text)
	q.Set("userId", userID)
	reqURL := c.BaseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}
	return ExtractReply(body), nil
}

// Healthy probes the webhook with a canned greeting, mirroring what the
// widget does on mount. Connectivity is boolean and never gates sending.
func (c *ChatClient) Healthy(ctx context.Context) bool {
	if c.Skip {
		return true
	}
	_, err := c.Send(ctx, "test", "Hello")
	return err == nil
}
