package openai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/querent/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Answerer implements ai.Answerer using OpenAI-compatible chat APIs.
type Answerer struct {
	client          llms.Model
	timeout         time.Duration
	maxContextChars int
	logger          *slog.Logger
}

// newAnswerer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnswerer(config *ai.Config) (*Answerer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Answerer{
		client:          client,
		timeout:         config.RequestTimeout,
		maxContextChars: config.MaxContextChars,
		logger:          slog.Default().With("component", "openai-answerer"),
	}, nil
}

// NewAnswerer creates a new answer generator using the provided configuration.
//
// Returns ai.Answerer interface to enforce abstraction.
func NewAnswerer(config *ai.Config) (ai.Answerer, error) {
	return newAnswerer(config)
}

// Answer generates an answer for the question from the supplied context text.
// The context is truncated to the configured character budget before the call.
func (a *Answerer) Answer(ctx context.Context, role, question, contextText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if len(contextText) > a.maxContextChars {
		contextText = contextText[:a.maxContextChars]
	}

	var sb strings.Builder
	sb.WriteString("Context:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(role)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(sb.String())},
		},
	}

	response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.1))
	if err != nil {
		a.logger.Error("failed to generate answer", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		a.logger.Warn("no choices returned from model")
		return "", ai.ErrUnparsable
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
