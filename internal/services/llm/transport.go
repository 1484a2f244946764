package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	roleSystem = "system"
	roleUser   = "user"

	jsonObjectFormat = "json_object"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
		Refusal string `json:"refusal"`
	} `json:"message"`
	// Some servers answer non-streaming calls with the streaming delta shape.
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// content returns the first non-blank choice text with its finish reason.
func (r chatResponse) content() (string, string) {
	for _, choice := range r.Choices {
		for _, text := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if text = strings.TrimSpace(text); text != "" {
				return text, choice.FinishReason
			}
		}
	}
	if len(r.Choices) > 0 {
		return "", r.Choices[0].FinishReason
	}
	return "", ""
}

func (r chatResponse) refusal() string {
	for _, choice := range r.Choices {
		if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

// statusError is a non-2xx answer from the endpoint.
type statusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, e.Body)
}

func (e *statusError) retryable() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// emptyResponseError is a 2xx answer without usable text.
type emptyResponseError struct {
	op           string
	finishReason string
	refusal      string
	snippet      string
}

func (e *emptyResponseError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.op, e.finishReason, e.refusal, e.snippet)
}

// completeJSON sends messages in JSON mode and returns the model's text,
// retrying transient failures per the client's policy.
func (c *Client) completeJSON(ctx context.Context, op string, messages ...message) (string, error) {
	req := chatRequest{
		Model:          c.cfg.Model,
		Messages:       messages,
		ResponseFormat: responseFormat{Type: jsonObjectFormat},
	}
	attempts := c.retry.maxAttempts()
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var content string
		content, err = c.completeOnce(ctx, op, req)
		if err == nil {
			return content, nil
		}
		delay, again := c.retry.next(err, attempt)
		if !again || ctx.Err() != nil {
			if attempt > 1 {
				return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, err)
			}
			return "", err
		}
		if waitErr := c.retry.wait(ctx, delay); waitErr != nil {
			return "", waitErr
		}
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, err)
}

func (c *Client) completeOnce(ctx context.Context, op string, req chatRequest) (string, error) {
	resp, body, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}
	content, finishReason := resp.content()
	if content == "" {
		return "", &emptyResponseError{
			op:           op,
			finishReason: finishReason,
			refusal:      resp.refusal(),
			snippet:      snippet(string(body)),
		}
	}
	return content, nil
}

func (c *Client) post(ctx context.Context, payload chatRequest) (chatResponse, []byte, error) {
	var out chatResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return out, nil, fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return out, nil, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, nil, fmt.Errorf("llm request (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, nil, fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, body, &statusError{
			StatusCode: resp.StatusCode,
			Body:       snippet(string(body)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, body, fmt.Errorf("llm request: decode response: %w (body: %s)", err, snippet(string(body)))
	}
	if out.Error != nil && strings.TrimSpace(out.Error.Message) != "" {
		return out, body, fmt.Errorf("llm request: api error: %s", strings.TrimSpace(out.Error.Message))
	}
	return out, body, nil
}
