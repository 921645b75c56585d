package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jobscout/jobscout/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

// OpenAIClient wraps the OpenAI API client. Sampling parameters are fixed
// at construction; callers only supply messages.
type OpenAIClient struct {
	client      *openai.Client
	breaker     *gobreaker.CircuitBreaker[openai.ChatCompletionResponse]
	model       string
	temperature float32
	maxTokens   int
	logger      logger.Logger
}

// Config for OpenAI client
type Config struct {
	APIKey      string
	BaseURL     string        // default: https://api.openai.com/v1
	Model       string        // default: gpt-4o-mini
	Temperature float32       // default: 0.7
	MaxTokens   int           // default: 1500
	Timeout     time.Duration // default: 60s

	// Breaker opens after this many consecutive failures (default 5)
	BreakerFailures int
	// Breaker stays open this long before a trial request (default 30s)
	BreakerTimeout time.Duration
}

// BreakerStateObserver is notified when the breaker changes state
type BreakerStateObserver func(name, from, to string)

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg Config, log logger.Logger, observe BreakerStateObserver) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "openai")

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	failures := uint32(cfg.BreakerFailures)
	breaker := gobreaker.NewCircuitBreaker[openai.ChatCompletionResponse](gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// caller cancellations say nothing about the service's health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			if observe != nil {
				observe(name, from.String(), to.String())
			}
		},
	})

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		breaker:     breaker,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      log,
	}
}

// Model returns the configured model identifier
func (c *OpenAIClient) Model() string {
	return c.model
}

// Chat sends a chat completion request to OpenAI
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (openai.ChatCompletionResponse, error) {
		return c.client.CreateChatCompletion(ctx, chatReq)
	})
	duration := time.Since(start)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("openai chat rejected by circuit breaker", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		c.logger.Error("openai chat failed", "error", err, "duration_ms", duration.Milliseconds())
		return nil, fmt.Errorf("openai chat failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	c.logger.Info("openai chat completed",
		"model", c.model,
		"tokens", resp.Usage.TotalTokens,
		"duration_ms", duration.Milliseconds(),
	)

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return &ChatResponse{
		Message:      resp.Choices[0].Message.Content,
		Model:        model,
		TokensUsed:   resp.Usage.TotalTokens,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}
