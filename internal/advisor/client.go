package advisor

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

	"github.com/doralyyyyy/Restaurant-Platform/internal/metrics"
)

const (
	MsgNotConfigured = "当前系统未配置 GPT_API_KEY，无法使用智能问答功能。"
	MsgUnavailable   = "智能问答服务暂时不可用，请稍后再试。"
)

// Completer answers a user message under a system prompt. Implementations
// never fail; problems are reported as a readable answer.
type Completer interface {
	Complete(ctx context.Context, system, user string) string
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to any OpenAI compatible /chat/completions endpoint.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewClient(cfg Config, m *metrics.Metrics, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     &http.Client{Timeout: cfg.Timeout},
		metrics:  m,
		log:      log,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, system, user string) string {
	if c.apiKey == "" {
		c.metrics.ObserveAdvisor("disabled", 0)
		return MsgNotConfigured
	}
	start := time.Now()
	answer, err := c.complete(ctx, system, user)
	if err != nil {
		c.metrics.ObserveAdvisor("error", time.Since(start))
		c.log.Error("advisor completion failed", "model", c.model, "err", err)
		return MsgUnavailable
	}
	c.metrics.ObserveAdvisor("ok", time.Since(start))
	return answer
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, c.endpoint, string(respBody))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}
