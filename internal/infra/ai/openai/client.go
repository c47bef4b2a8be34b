package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/analysis"
)

const (
	defaultMaxTokens   = 4096
	defaultVisionModel = "google/gemini-2.5-flash"
	defaultTimeout     = 30 * time.Second
)

// Options configures the OpenAI-compatible gateway.
type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client is the vision analyzer. One call per request, never retried.
type Client struct {
	*openai.Client
	Model     string
	maxTokens int
	timeout   time.Duration
	log       *zap.Logger
}

func NewClient(opts Options, log *zap.Logger) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	model := opts.Model
	if model == "" {
		model = defaultVisionModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		Client:    openai.NewClientWithConfig(cfg),
		Model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		log:       log,
	}
}

// Analyze sends the system prompt plus photo (and optional style reference)
// and returns the assistant text.
func (c *Client) Analyze(ctx context.Context, in ai.VisionRequest) (string, error) {
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: in.UserPrompt},
		imagePart(in.ImageURL),
	}
	if ref := strings.TrimSpace(in.ReferenceURL); ref != "" {
		parts = append(parts,
			openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: analysis.ReferenceLabel},
			imagePart(ref),
		)
	}

	req := openai.ChatCompletionRequest{
		Model:     c.Model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: in.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.log.Warn("vision analysis returned no content", zap.String("model", c.Model))
		return "", ai.ErrEmptyResponse
	}
	c.log.Info("vision analysis done",
		zap.String("model", c.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// classify maps provider failures onto the domain sentinels.
func (c *Client) classify(err error) error {
	status := statusCode(err)
	switch status {
	case http.StatusTooManyRequests:
		c.log.Warn("vision analysis rate limited", zap.String("model", c.Model))
		return fmt.Errorf("%w: %v", ai.ErrRateLimited, err)
	case http.StatusPaymentRequired:
		c.log.Warn("vision analysis quota exhausted", zap.String("model", c.Model))
		return fmt.Errorf("%w: %v", ai.ErrQuotaExhausted, err)
	}
	c.log.Error("vision analysis failed",
		zap.String("model", c.Model),
		zap.Int("status", status),
		zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %v", ai.ErrUpstream, err)
}

// statusCode digs the HTTP status out of go-openai errors, 0 for transport errors.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func imagePart(url string) openai.ChatMessagePart {
	return openai.ChatMessagePart{
		Type:     openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{URL: url},
	}
}

var _ ai.VisionAnalyzer = (*Client)(nil)
