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


package pipeline

import "fmt"

// NoiseConfig holds the thresholds of the structural noise classifier.
// Every heuristic is independently tunable.
type NoiseConfig struct {
	// MinChars is the minimum trimmed length below which text is noise.
	MinChars int

	// ShortLineLength is the length at or under which a line counts as short.
	ShortLineLength int

	// ShortLineRatio is the short-line fraction at or above which text looks
	// list-like.
	ShortLineRatio float64

	// DigitRatio is the numeric character density at or above which text
	// looks catalog-like.
	DigitRatio float64

	// CommaRatio is the comma density above which unpunctuated multi-line
	// text looks like an enumeration.
	CommaRatio float64

	// MinListLines is the minimum line count for the enumeration and
	// uniform-line heuristics to apply.
	MinListLines int

	// UniformLineSlack is the maximum spread of line lengths, in characters,
	// under which a multi-line block counts as repeated header/footer noise.
	UniformLineSlack int
}

// Config holds every tunable of the question-answering pipeline.
// All toggles are explicit fields; nothing is read from the environment at
// call time.
type Config struct {
	// ContextK is the evidence budget handed to the answer generator.
	ContextK int

	// FanoutK is the per-query semantic fan-out limit.
	FanoutK int

	// LexicalK is the per-query lexical fan-out limit.
	LexicalK int

	// RRFK is the reciprocal rank fusion constant. Each rank r contributes
	// 1/(RRFK+r) to the fused score.
	RRFK int

	// MinKeepFocus is the floor below which the focus filter falls back to
	// its unfiltered input.
	MinKeepFocus int

	// CoverageThreshold is the minimum best question-term overlap ratio the
	// gated candidates must reach, or the whole result is rejected.
	CoverageThreshold float64

	// CoverageWindow is how many top candidates the coverage gate inspects.
	CoverageWindow int

	// RewriteN is the query rewrite budget for custom mode.
	RewriteN int

	// RewriteEnabled toggles query rewriting in custom mode.
	RewriteEnabled bool

	// JudgeEnabled selects the LLM-backed relevance selector; when false the
	// deterministic keyword-overlap selector is used instead.
	JudgeEnabled bool

	// PreviewChars is how much of each candidate the relevance judge sees.
	PreviewChars int

	// Noise holds the noise classifier thresholds.
	Noise NoiseConfig
}

// DefaultNoiseConfig returns the reference noise thresholds.
func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{
		MinChars:         120,
		ShortLineLength:  40,
		ShortLineRatio:   0.70,
		DigitRatio:       0.12,
		CommaRatio:       0.03,
		MinListLines:     6,
		UniformLineSlack: 2,
	}
}

// DefaultConfig returns a configuration with the reference values.
// The coverage threshold and fusion constant are empirically chosen;
// validate them against your own corpus before trusting them.
func DefaultConfig() *Config {
	return &Config{
		ContextK:          8,
		FanoutK:           20,
		LexicalK:          50,
		RRFK:              60,
		MinKeepFocus:      3,
		CoverageThreshold: 0.20,
		CoverageWindow:    10,
		RewriteN:          3,
		RewriteEnabled:    true,
		JudgeEnabled:      true,
		PreviewChars:      300,
		Noise:             DefaultNoiseConfig(),
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.ContextK < 1 {
		return fmt.Errorf("%w: ContextK must be at least 1", ErrInvalidConfig)
	}
	if c.FanoutK < 1 {
		return fmt.Errorf("%w: FanoutK must be at least 1", ErrInvalidConfig)
	}
	if c.LexicalK < 1 {
		return fmt.Errorf("%w: LexicalK must be at least 1", ErrInvalidConfig)
	}
	if c.RRFK < 1 {
		return fmt.Errorf("%w: RRFK must be at least 1", ErrInvalidConfig)
	}
	if c.MinKeepFocus < 1 {
		return fmt.Errorf("%w: MinKeepFocus must be at least 1", ErrInvalidConfig)
	}
	if c.CoverageThreshold < 0 || c.CoverageThreshold > 1 {
		return fmt.Errorf("%w: CoverageThreshold must be between 0 and 1", ErrInvalidConfig)
	}
	if c.CoverageWindow < 1 {
		return fmt.Errorf("%w: CoverageWindow must be at least 1", ErrInvalidConfig)
	}
	if c.RewriteN < 0 {
		return fmt.Errorf("%w: RewriteN must not be negative", ErrInvalidConfig)
	}
	if c.PreviewChars < 1 {
		return fmt.Errorf("%w: PreviewChars must be at least 1", ErrInvalidConfig)
	}
	if c.Noise.MinChars < 1 {
		return fmt.Errorf("%w: Noise.MinChars must be at least 1", ErrInvalidConfig)
	}
	return nil
}
