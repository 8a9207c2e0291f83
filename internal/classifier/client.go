// Package classifier adapts an OpenAI-compatible chat-completions endpoint
// into page categories, keyword frequencies and day summaries.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"
	DefaultTimeout = 30 * time.Second

	DefaultCategorizeTemperature = 0.2
	DefaultKeywordTemperature    = 0.3
	DefaultSummaryTemperature    = 0.3

	completionsPath = "/chat/completions"

	// maxErrorBody bounds how much of a failed response is kept for logs.
	maxErrorBody = 512
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	// Timeout bounds each classifier call.
	Timeout time.Duration

	CategorizeTemperature float64
	KeywordTemperature    float64
	SummaryTemperature    float64

	// Redactor hides denylisted pages before they are sent. Optional.
	Redactor *Redactor
}

// Client talks to the classifier. It never retries.
type Client struct {
	cfg  Config
	http Doer
	log  *slog.Logger
}

// NewClient creates a Client. A nil doer uses a plain *http.Client; the
// per-call deadline comes from cfg.Timeout.
func NewClient(cfg Config, doer Doer, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CategorizeTemperature <= 0 {
		cfg.CategorizeTemperature = DefaultCategorizeTemperature
	}
	if cfg.KeywordTemperature <= 0 {
		cfg.KeywordTemperature = DefaultKeywordTemperature
	}
	if cfg.SummaryTemperature <= 0 {
		cfg.SummaryTemperature = DefaultSummaryTemperature
	}
	if doer == nil {
		doer = &http.Client{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg:  cfg,
		http: doer,
		log:  log.With("component", "classifier"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete sends one system + user message pair and returns the content of
// the first choice.
func (c *Client) complete(ctx context.Context, op, system, user string,
	temperature float64) (string, error) {

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", &Error{Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	c.log.Debug("Calling classifier",
		"op", op, "model", c.cfg.Model, "request_bytes", len(body),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn("Classifier returned non-200",
			"op", op, "status", resp.StatusCode, "body", string(snippet),
		)
		return "", opError(op, ErrClassifierUnavailable,
			"status %d", resp.StatusCode)
	}

	var envelope chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if ctx.Err() != nil {
			return "", c.transportError(ctx, op, err)
		}
		return "", opError(op, ErrClassifierMalformed,
			"decode envelope: %v", err)
	}

	if len(envelope.Choices) == 0 {
		return "", opError(op, ErrClassifierMalformed, "no choices")
	}

	content := strings.TrimSpace(envelope.Choices[0].Message.Content)
	if content == "" {
		return "", opError(op, ErrClassifierMalformed, "empty content")
	}

	c.log.Debug("Classifier replied",
		"op", op, "elapsed", time.Since(start), "content_bytes", len(content),
	)

	return content, nil
}

func (c *Client) transportError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) {

		return opError(op, ErrClassifierTimeout, "no reply within %s",
			c.cfg.Timeout)
	}
	return opError(op, ErrClassifierUnavailable, "%v", err)
}
