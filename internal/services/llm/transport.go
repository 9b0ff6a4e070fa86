package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      responseMessage `json:"message"`
		Delta        responseMessage `json:"delta"`
		Text         string          `json:"text"`
		FinishReason string          `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type responseMessage struct {
	Content   string `json:"content"`
	Refusal   string `json:"refusal"`
	ToolCalls []struct {
		Function struct {
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

// StatusError reports a non-2xx response from the endpoint.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, snippet(e.Body))
}

// errEmptyContent marks a well-formed response that carried no content.
var errEmptyContent = errors.New("empty content")

// content returns the first non-empty payload across the response shapes
// providers use (message, streaming delta, legacy text, tool arguments).
func (r chatResponse) content() (string, string) {
	var finish, refusal string
	for _, choice := range r.Choices {
		finish = cmpOr(finish, strings.TrimSpace(choice.FinishReason))
		refusal = cmpOr(refusal, strings.TrimSpace(choice.Message.Refusal))
		for _, candidate := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if text := strings.TrimSpace(candidate); text != "" {
				return text, ""
			}
		}
		for _, call := range append(choice.Message.ToolCalls, choice.Delta.ToolCalls...) {
			if args := strings.TrimSpace(call.Function.Arguments); args != "" {
				return args, ""
			}
		}
	}
	return "", fmt.Sprintf("finish_reason=%q refusal=%q", finish, refusal)
}

func (c *Client) complete(ctx context.Context, op string, payload chatRequest) (string, error) {
	attempts := max(c.attempts, 1)
	var lastErr error
	tried := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		tried = attempt
		resp, err := c.send(ctx, payload)
		if err == nil {
			text, detail := resp.content()
			if text != "" {
				return text, nil
			}
			err = fmt.Errorf("%w (%s)", errEmptyContent, detail)
		}
		lastErr = err

		delay, retry := c.retryDelay(ctx, err, attempt)
		if !retry || attempt == attempts {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	if tried > 1 {
		return "", fmt.Errorf("%s: failed after %d attempts: %w", op, tried, lastErr)
	}
	return "", fmt.Errorf("%s: %w", op, lastErr)
}

func (c *Client) send(ctx context.Context, payload chatRequest) (chatResponse, error) {
	var out chatResponse
	body, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return out, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("llm request: decode response: %w", err)
	}
	if out.Error != nil {
		return out, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(out.Error.Message))
	}
	return out, nil
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var statusErr *StatusError
	switch {
	case errors.Is(err, errEmptyContent):
		return c.backoff(attempt), true
	case errors.As(err, &statusErr):
		code := statusErr.StatusCode
		if code != http.StatusRequestTimeout && code != http.StatusTooManyRequests && code < http.StatusInternalServerError {
			return 0, false
		}
		if statusErr.RetryAfter > 0 {
			if c.maxDelay > 0 {
				return min(statusErr.RetryAfter, c.maxDelay), true
			}
			return statusErr.RetryAfter, true
		}
		return c.backoff(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoff(attempt), true
	}
	return 0, false
}

// backoff doubles baseDelay per attempt, capped at maxDelay.
func (c *Client) backoff(attempt int) time.Duration {
	if c.baseDelay <= 0 {
		return 0
	}
	delay := c.baseDelay
	for i := 1; i < attempt && delay < c.maxDelay; i++ {
		delay *= 2
	}
	if c.maxDelay > 0 {
		delay = min(delay, c.maxDelay)
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}

func cmpOr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
