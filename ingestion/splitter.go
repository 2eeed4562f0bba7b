package ingestion

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 600

	// DefaultChunkOverlap is how many characters adjacent chunks share.
	DefaultChunkOverlap = 120
)

// chunkSeparators orders the split preferences: paragraph breaks first,
// then line breaks, sentence ends, words, and finally raw characters.
var chunkSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// splitText breaks document text into overlapping chunks and drops
// whitespace-only fragments.
func splitText(text string, chunkSize, chunkOverlap int) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(chunkSeparators),
	)

	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, part)
	}
	return chunks, nil
}
