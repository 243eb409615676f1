package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/alex-wang101/Quiry/internal/domain"
	"github.com/alex-wang101/Quiry/internal/metrics"
)

// Answerer generates answers through an OpenAI-compatible chat API.
type Answerer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	provider    string
	logger      *zap.Logger
}

// AnswererConfig holds the answer provider settings.
type AnswererConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Provider    string
	Logger      *zap.Logger
}

// NewAnswerer creates an OpenAI-compatible chat answerer.
func NewAnswerer(cfg *AnswererConfig) *Answerer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Answerer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.Answerer. The prompt is sent as a single user
// message; the first choice's content is returned verbatim.
func (a *Answerer) Generate(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		metrics.AnswerRequestsTotal.WithLabelValues(a.provider, a.model, "error").Inc()
		return "", fmt.Errorf("chat completion: %w: %w", domain.ErrAnswerProviderError, err)
	}

	if len(resp.Choices) == 0 {
		metrics.AnswerRequestsTotal.WithLabelValues(a.provider, a.model, "error").Inc()
		return "", fmt.Errorf("empty chat response: %w", domain.ErrAnswerProviderError)
	}

	metrics.AnswerRequestsTotal.WithLabelValues(a.provider, a.model, "success").Inc()

	if resp.Usage.TotalTokens > 0 {
		a.logger.Debug("answer generated",
			zap.String("model", a.model),
			zap.Int("total_tokens", resp.Usage.TotalTokens),
		)
	}

	return resp.Choices[0].Message.Content, nil
}
