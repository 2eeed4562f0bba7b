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


// Package ai provides abstractions for the AI capabilities consumed by the
// answer pipeline.
//
// This package defines interfaces for text embeddings, query rewriting,
// relevance judgment, and answer generation. It follows the dependency
// inversion principle: the pipeline and storage layers depend on these
// abstractions, never on a concrete model client.
//
// # Design Principles
//
// The package is designed around five key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - QueryRewriter: Rewrites a question into alternative search queries
//   - RelevanceJudge: Selects which candidate previews answer a question
//   - Answerer: Generates the final answer from question plus context
//   - AIProvider: Aggregates the capabilities for convenient initialization
//
// Every capability is assumed fallible and latent. Callers never rely on a
// call succeeding: the pipeline documents a fallback for each capability
// (original question for a failed rewrite, unfiltered candidates for a
// failed judgment) and a bounded timeout for every call.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockJudge, etc.)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, function fields, Reset).
//
//	mockJudge := mock.NewMockRelevanceJudge()   // returns *mock.MockRelevanceJudge
//	mockJudge.JudgeRelevanceFunc = ...          // needs concrete type
//	count := mockJudge.CallCount()              // test assertion
package ai
