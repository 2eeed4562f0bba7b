package pipeline

import (
	"regexp"
	"strings"
)

// Boilerplate section headers that mark a chunk as structural noise when
// anchored at the start of the text.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*table of contents\b`),
	regexp.MustCompile(`^\s*contents\b`),
	regexp.MustCompile(`^\s*introduction\b`),
	regexp.MustCompile(`^\s*abstract\b`),
	regexp.MustCompile(`^\s*references\b`),
	regexp.MustCompile(`^\s*bibliography\b`),
	regexp.MustCompile(`^\s*literature\b`),
	regexp.MustCompile(`^\s*acknowledg(e)?ments\b`),
	regexp.MustCompile(`^\s*appendix\b`),
	regexp.MustCompile(`^\s*index\b`),
}

// IsNoise reports whether a chunk of text is structural noise: boilerplate
// sections, tables, lists, or repeated headers rather than prose evidence.
//
// The classifier is pure and conservative. It looks only at the shape of the
// text, never its vocabulary, and biases toward keeping ambiguous prose:
// noise that slips through can still be filtered downstream, but evidence
// discarded here is gone for good.
func IsNoise(text string, config NoiseConfig) bool {
	if text == "" {
		return true
	}

	t := strings.TrimSpace(text)
	if len(t) < config.MinChars {
		return true
	}

	lower := strings.ToLower(t)
	for _, pattern := range noisePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}

	var lines []string
	for _, line := range strings.Split(t, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return true
	}

	shortLines := 0
	for _, line := range lines {
		if len(line) <= config.ShortLineLength {
			shortLines++
		}
	}
	shortRatio := float64(shortLines) / float64(len(lines))

	// Sentence punctuation, deliberately excluding the period so that
	// decimal-heavy tables do not pass as prose.
	punct := strings.Count(t, "?") + strings.Count(t, "!") +
		strings.Count(t, ";") + strings.Count(t, ":")

	digits := 0
	for _, ch := range t {
		if ch >= '0' && ch <= '9' {
			digits++
		}
	}
	digitRatio := float64(digits) / float64(len(t))
	commaRatio := float64(strings.Count(t, ",")) / float64(len(t))

	if (shortRatio >= config.ShortLineRatio || digitRatio >= config.DigitRatio) && punct <= 1 {
		return true
	}

	if commaRatio > config.CommaRatio && punct == 0 && len(lines) >= config.MinListLines {
		return true
	}

	// Near-uniform line lengths signal repeated headers or footers.
	if len(lines) >= config.MinListLines && punct <= 1 {
		minLen, maxLen := len(lines[0]), len(lines[0])
		for _, line := range lines[1:] {
			if len(line) < minLen {
				minLen = len(line)
			}
			if len(line) > maxLen {
				maxLen = len(line)
			}
		}
		if maxLen-minLen <= config.UniformLineSlack {
			return true
		}
	}

	return false
}
