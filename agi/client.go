// ABOUTME: HTTP client for the AGI agent session API: create, message, status, results, delete.
// ABOUTME: Every primitive is wrapped by the retry policy and reports an Outcome for the state log.

package agi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Session status values reported by the agent service. The set is
// remote-defined; only Finished and Error are semantically significant
// (both terminal).
const (
	StatusQueued   = "queued"
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusError    = "error"
)

// MessageTypeDone marks the terminal message in a session's message list.
// Its content carries the task result.
const MessageTypeDone = "DONE"

// Config holds connection settings for the agent service.
type Config struct {
	BaseURL   string
	APIKey    string
	AgentName string        // agent profile to request at session creation (default "agi-0")
	Timeout   time.Duration // per-request HTTP timeout (default 60s)
	Retry     RetryPolicy   // retry policy for every primitive
}

// Client issues the session primitives against the agent service. All
// methods are safe for sequential use; the orchestrator never calls them
// concurrently for the same session.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a session client. Zero-value config fields get defaults.
func NewClient(cfg Config) *Client {
	if cfg.AgentName == "" {
		cfg.AgentName = "agi-0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateSession asks the agent service for a new session and returns its
// identifier. The identifier is opaque; the service owns its format.
func (c *Client) CreateSession(ctx context.Context) (string, Outcome) {
	return Do(ctx, c.cfg.Retry, "create_session", func() (string, error) {
		var resp struct {
			SessionID string `json:"session_id"`
		}
		body := map[string]string{"agent_name": c.cfg.AgentName}
		if err := c.doJSON(ctx, http.MethodPost, "/sessions", body, &resp); err != nil {
			return "", err
		}
		if resp.SessionID == "" {
			return "", &ParseError{ClientError{Message: "create_session: response missing session_id"}}
		}
		return resp.SessionID, nil
	})
}

// SendMessage posts a free-text instruction to the session. The message is
// the task's entire program: it names the target endpoint, the inputs, and
// the exact JSON shape the agent must return.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) Outcome {
	_, outcome := Do(ctx, c.cfg.Retry, "send_message", func() (struct{}, error) {
		body := map[string]string{"message": message}
		path := fmt.Sprintf("/sessions/%s/message", sessionID)
		return struct{}{}, c.doJSON(ctx, http.MethodPost, path, body, nil)
	})
	return outcome
}

// Status fetches the session's current status string.
func (c *Client) Status(ctx context.Context, sessionID string) (string, Outcome) {
	return Do(ctx, c.cfg.Retry, "poll_status", func() (string, error) {
		var resp struct {
			Status string `json:"status"`
		}
		path := fmt.Sprintf("/sessions/%s/status", sessionID)
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return "", err
		}
		return resp.Status, nil
	})
}

// Results fetches the session's message list and returns the content of the
// first DONE message. The content may be an already-structured JSON value or
// a string that itself needs a JSON decode; ParsePayload handles both.
// Returns nil content (with a successful Outcome) when no DONE message exists.
func (c *Client) Results(ctx context.Context, sessionID string) (any, Outcome) {
	return Do(ctx, c.cfg.Retry, "fetch_results", func() (any, error) {
		var resp struct {
			Messages []struct {
				Type    string          `json:"type"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		path := fmt.Sprintf("/sessions/%s/messages", sessionID)
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		for _, msg := range resp.Messages {
			if msg.Type != MessageTypeDone {
				continue
			}
			var content any
			if err := json.Unmarshal(msg.Content, &content); err != nil {
				// Raw content that is not even valid JSON text: surface it
				// as a string so ParsePayload reports the parse failure.
				return string(msg.Content), nil
			}
			return content, nil
		}
		return nil, nil
	})
}

// DeleteSession tears the session down. Callers log failed outcomes but
// never let them fail the surrounding step.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) Outcome {
	_, outcome := Do(ctx, c.cfg.Retry, "cleanup_session", func() (struct{}, error) {
		path := fmt.Sprintf("/sessions/%s", sessionID)
		return struct{}{}, c.doJSON(ctx, http.MethodDelete, path, nil, nil)
	})
	return outcome
}

// ParsePayload normalizes DONE-message content into a field map. String
// content gets a second JSON decode (agents often return the result JSON as
// a quoted string). Anything that is not an object after decoding is a
// ParseError, never a panic.
func ParsePayload(content any) (map[string]any, error) {
	switch v := content.(type) {
	case nil:
		return nil, &ParseError{ClientError{Message: "empty result content"}}
	case map[string]any:
		return v, nil
	case string:
		var payload map[string]any
		if err := json.Unmarshal([]byte(v), &payload); err != nil {
			return nil, &ParseError{ClientError{Message: "result content is not valid JSON", Cause: err}}
		}
		return payload, nil
	default:
		return nil, &ParseError{ClientError{Message: fmt.Sprintf("unexpected result content type %T", content)}}
	}
}

// doJSON performs one HTTP round trip with bearer auth and JSON bodies.
// Non-2xx responses and network failures both come back as TransportError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{
			ClientError: ClientError{Message: method + " " + path + " failed", Cause: err},
			Retryable:   true,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return errorFromStatusCode(resp.StatusCode, method+" "+path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ParseError{ClientError{Message: method + " " + path + ": malformed response body", Cause: err}}
	}
	return nil
}
