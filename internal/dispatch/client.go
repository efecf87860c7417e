// Package dispatch owns the request/response boundary to the task
// decomposition service.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskdesk/internal/task"
)

const (
	chatPath   = "/api/chat"
	healthPath = "/api/health"

	// DefaultFinalText replaces an absent chat_response.
	DefaultFinalText = "Task completed."

	maxErrorBody = 240
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	TaskID       string       `json:"task_id"`
	Status       string       `json:"status"`
	ChatResponse *string      `json:"chat_response"`
	Subtasks     []rawSubtask `json:"subtasks"`
}

type rawSubtask struct {
	Agent  string          `json:"agent"`
	Action string          `json:"action"`
	Result json.RawMessage `json:"result"`
}

type rawResult struct {
	Status  *string `json:"status"`
	Message string  `json:"message"`
}

// Health is the service's answer to a liveness probe.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type Client struct {
	BaseURL string
	// Timeout bounds a single Submit call. Zero means no bound.
	Timeout time.Duration
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: timeout,
		HTTP:    &http.Client{},
	}
}

// Submit performs exactly one POST /api/chat and normalizes the reply.
// Every failure is a *TransportError; nothing is retried.
func (c *Client) Submit(ctx context.Context, text string) (task.Outcome, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	endpoint, err := c.resolve(chatPath)
	if err != nil {
		return task.Outcome{}, &TransportError{Op: "submit", Err: err}
	}
	payload, err := json.Marshal(chatRequest{Message: text})
	if err != nil {
		return task.Outcome{}, &TransportError{Op: "submit", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return task.Outcome{}, &TransportError{Op: "submit", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	body, err := c.do("submit", req)
	if err != nil {
		slog.Warn("dispatch failed", "endpoint", endpoint, "error", err, "elapsed", time.Since(started))
		return task.Outcome{}, err
	}
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return task.Outcome{}, &TransportError{Op: "submit", Err: fmt.Errorf("malformed payload: %w", err)}
	}
	outcome := normalize(parsed)
	slog.Info("dispatch completed",
		"task_id", outcome.TaskID,
		"subtasks", len(outcome.Subtasks),
		"elapsed", time.Since(started),
	)
	return outcome, nil
}

// Health calls GET /api/health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	endpoint, err := c.resolve(healthPath)
	if err != nil {
		return Health{}, &TransportError{Op: "health", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Health{}, &TransportError{Op: "health", Err: err}
	}
	body, err := c.do("health", req)
	if err != nil {
		return Health{}, err
	}
	var out Health
	if err := json.Unmarshal(body, &out); err != nil {
		return Health{}, &TransportError{Op: "health", Err: fmt.Errorf("malformed payload: %w", err)}
	}
	return out, nil
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(compactBody(body)),
		}
	}
	return body, nil
}

func (c *Client) resolve(path string) (string, error) {
	base, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil {
		return "", err
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid service url %q", c.BaseURL)
	}
	rel, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}

func normalize(resp chatResponse) task.Outcome {
	outcome := task.Outcome{
		TaskID:    resp.TaskID,
		Status:    resp.Status,
		FinalText: DefaultFinalText,
		Subtasks:  make([]task.Subtask, 0, len(resp.Subtasks)),
	}
	if resp.ChatResponse != nil {
		outcome.FinalText = *resp.ChatResponse
	}
	for _, raw := range resp.Subtasks {
		outcome.Subtasks = append(outcome.Subtasks, task.Subtask{
			Agent:  raw.Agent,
			Action: raw.Action,
			Result: normalizeResult(raw.Result),
		})
	}
	return outcome
}

// normalizeResult returns nil for anything that is not an object carrying a
// status string, so the renderer falls back to a generic success.
func normalizeResult(raw json.RawMessage) *task.Result {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var parsed rawResult
	if err := json.Unmarshal(trimmed, &parsed); err != nil || parsed.Status == nil {
		return nil
	}
	status := task.StatusFailure
	if strings.EqualFold(strings.TrimSpace(*parsed.Status), string(task.StatusSuccess)) {
		status = task.StatusSuccess
	}
	return &task.Result{Status: status, Message: parsed.Message}
}

func compactBody(body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")
	if text == "" {
		return "empty response body"
	}
	if len(text) > maxErrorBody {
		return text[:maxErrorBody-3] + "..."
	}
	return text
}
