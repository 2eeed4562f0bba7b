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

// Package pipeline implements workspace-scoped question answering over
// stored chunks.
//
// A run moves through five stages:
//
//  1. Plan: normalize the question and, in custom mode, expand it into
//     alternative phrasings via the query rewriter.
//  2. Retrieve: run semantic and lexical search for every planned query and
//     fuse all ranked lists into a single candidate pool with reciprocal
//     rank fusion. Boilerplate chunks are filtered out unless that would
//     empty the pool.
//  3. Focus: when the question carries distinctive terms (quoted phrases,
//     binomial names, hyphenated identifiers), keep only candidates that
//     mention at least one of them.
//  4. Gate: ask the relevance judge which candidates bear on the question,
//     always keeping a base set of top candidates, then reject the whole
//     pool if even the best candidate barely overlaps the question's terms.
//  5. Assemble: order the survivors and cut the final evidence window.
//
// The outcome is a Decision: either answerable evidence or an explicit
// refusal. AnswerQuestion wraps a run with mode-specific answer generation
// and never surfaces generator failures to the caller.
//
// Usage:
//
//	p, err := pipeline.NewPipeline(chunkRepo, provider, pipeline.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer p.Release()
//
//	answer, err := p.AnswerQuestion(ctx, "research", "What is Hypericum perforatum used for?", pipeline.ModeReference, "")
package pipeline
