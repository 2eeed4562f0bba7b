// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


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

// QueryRewriter implements ai.QueryRewriter using OpenAI-compatible chat APIs.
type QueryRewriter struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newQueryRewriter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newQueryRewriter(config *ai.Config) (*QueryRewriter, error) {
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

	return &QueryRewriter{
		client:  client,
		timeout: config.RequestTimeout,
		logger:  slog.Default().With("component", "openai-rewriter"),
	}, nil
}

// NewQueryRewriter creates a new query rewriter using the provided configuration.
//
// Returns ai.QueryRewriter interface to enforce abstraction.
func NewQueryRewriter(config *ai.Config) (ai.QueryRewriter, error) {
	return newQueryRewriter(config)
}

// RewriteQuery asks the model for up to n alternative search queries.
// The original question is never part of the result; duplicates of it are
// dropped here so the caller only merges genuinely new phrasings.
func (r *QueryRewriter) RewriteQuery(ctx context.Context, question string, n int) ([]string, error) {
	if n < 1 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(rewriteRole)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(question)},
		},
	}

	response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		r.logger.Error("failed to generate rewrites", "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		r.logger.Debug("no choices returned from model")
		return []string{}, nil
	}

	raw := response.Choices[0].Content
	rewrites := make([]string, 0, n)
	for _, line := range strings.Split(raw, "\n") {
		q := strings.Trim(line, " -\t\r")
		if q == "" || strings.EqualFold(q, question) {
			continue
		}
		rewrites = append(rewrites, q)
		if len(rewrites) == n {
			break
		}
	}

	r.logger.Debug("rewrote query", "question", question, "rewrites", len(rewrites))
	return rewrites, nil
}
