package openai

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/querent/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// RelevanceJudge implements ai.RelevanceJudge using OpenAI-compatible chat APIs.
type RelevanceJudge struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newRelevanceJudge is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRelevanceJudge(config *ai.Config) (*RelevanceJudge, error) {
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

	return &RelevanceJudge{
		client:  client,
		timeout: config.RequestTimeout,
		logger:  slog.Default().With("component", "openai-judge"),
	}, nil
}

// NewRelevanceJudge creates a new relevance judge using the provided configuration.
//
// Returns ai.RelevanceJudge interface to enforce abstraction.
func NewRelevanceJudge(config *ai.Config) (ai.RelevanceJudge, error) {
	return newRelevanceJudge(config)
}

// JudgeRelevance asks the model which previews directly answer the question.
// Returns ai.ErrUnparsable when the response cannot be read as an index list.
func (j *RelevanceJudge) JudgeRelevance(ctx context.Context, question string, previews []string) ([]int, error) {
	if len(previews) == 0 {
		return []int{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	var sb strings.Builder
	sb.WriteString(judgePromptHeader)
	sb.WriteString("\nQuestion:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nChunks:\n")
	for i, preview := range previews {
		fmt.Fprintf(&sb, "[%d] %s\n", i, preview)
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(judgeRole)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(sb.String())},
		},
	}

	response, err := j.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		j.logger.Error("failed to generate relevance judgment", "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		j.logger.Warn("no choices returned from model")
		return nil, ai.ErrUnparsable
	}

	indices, err := parseIndexList(response.Choices[0].Content, len(previews))
	if err != nil {
		j.logger.Warn("unparsable judgment response", "response", response.Choices[0].Content)
		return nil, err
	}

	j.logger.Debug("judged relevance", "candidates", len(previews), "selected", len(indices))
	return indices, nil
}

var indexRe = regexp.MustCompile(`-?\d+`)

// parseIndexList reads a model response as a list of candidate indices.
// Accepted forms: comma-separated integers mixed with arbitrary separators,
// or a lone -1 meaning "none are relevant". Responses with no numeric
// content at all are unparsable; the caller must fail open. Out-of-range
// indices are dropped rather than guessed at.
func parseIndexList(raw string, count int) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ai.ErrUnparsable
	}

	matches := indexRe.FindAllString(raw, -1)
	if len(matches) == 0 {
		return nil, ai.ErrUnparsable
	}

	nums := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			return nil, ai.ErrUnparsable
		}
		nums = append(nums, n)
	}

	// A lone -1 is a valid judgment: nothing is relevant.
	if len(nums) == 1 && nums[0] == -1 {
		return []int{}, nil
	}

	indices := make([]int, 0, len(nums))
	for _, n := range nums {
		if n >= 0 && n < count {
			indices = append(indices, n)
		}
	}
	return indices, nil
}
