// Package gateway is the thin HTTP wrapper around the two webhook
// calls: send message and send feedback.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tdsoft/chat-assistente/internal/domain"
	"github.com/tdsoft/chat-assistente/internal/observability"
)

// Client talks to an n8n-style webhook pair.
type Client struct {
	webhookURL  string
	feedbackURL string
	http        *http.Client
}

// NewClient builds a gateway client. timeout bounds every outbound
// call; zero means no client-side timeout.
func NewClient(webhookURL, feedbackURL string, timeout time.Duration) *Client {
	return &Client{
		webhookURL:  webhookURL,
		feedbackURL: feedbackURL,
		http:        &http.Client{Timeout: timeout},
	}
}

// SendMessage POSTs the payload as JSON. A non-success status yields an
// error carrying the status code and the response body (or a generic
// message when the body is empty). A success body that is not valid
// JSON is wrapped as a response whose resposta is the raw text.
func (c *Client) SendMessage(ctx context.Context, payload *domain.MessagePayload) (*domain.MessageResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(text)
		if msg == "" {
			msg = "Falha na requisição"
		}
		return nil, fmt.Errorf("Erro %d: %s", resp.StatusCode, msg)
	}

	var out domain.MessageResponse
	if err := json.Unmarshal(text, &out); err != nil {
		return &domain.MessageResponse{Resposta: string(text)}, nil
	}
	return &out, nil
}

// SendFeedback issues the fire-and-forget GET. The response is opaque:
// status and body are discarded, and only transport failures are
// returned (callers log them, the user never sees them).
func (c *Client) SendFeedback(ctx context.Context, fb *domain.Feedback) error {
	params := url.Values{}
	params.Set("sessionId", string(fb.SessionID))
	params.Set("pergunta", fb.Question)
	params.Set("resposta", fb.Answer)
	params.Set("feedback", string(fb.Kind))
	params.Set("dataHora", fb.At.Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedbackURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	observability.LoggerFromContext(ctx).Info("feedback sent", "feedback", string(fb.Kind))
	return nil
}
