package pipeline

import (
	"strings"
	"testing"
)

func TestIsNoiseEmptyAndShort(t *testing.T) {
	config := DefaultNoiseConfig()

	if !IsNoise("", config) {
		t.Error("empty text must be noise")
	}
	if !IsNoise("   \n\t  ", config) {
		t.Error("whitespace-only text must be noise")
	}
	if !IsNoise("Too short to carry evidence.", config) {
		t.Error("text under the minimum length must be noise")
	}
}

func TestIsNoiseKeepsProse(t *testing.T) {
	config := DefaultNoiseConfig()

	prose := []string{
		hypericumText,
		lavenderText,
		soilText,
	}
	for _, text := range prose {
		if IsNoise(text, config) {
			t.Errorf("prose misclassified as noise: %q", text[:40])
		}
	}
}

func TestIsNoiseBoilerplateHeaders(t *testing.T) {
	config := DefaultNoiseConfig()
	filler := strings.Repeat("Some chapter body text follows the heading here. ", 4)

	headers := []string{
		"Table of Contents",
		"Contents",
		"Introduction",
		"Abstract",
		"References",
		"Bibliography",
		"Literature",
		"Acknowledgements",
		"Acknowledgments",
		"Appendix",
		"Index",
	}
	for _, header := range headers {
		text := header + "\n" + filler
		if !IsNoise(text, config) {
			t.Errorf("section starting with %q must be noise", header)
		}
	}

	// The same words mid-text do not trigger the header patterns.
	if IsNoise(filler+" The appendix covers dosage tables; the index lists species names.", config) {
		t.Error("header vocabulary inside prose must not trigger the classifier")
	}
}

func TestIsNoiseNumericTable(t *testing.T) {
	config := DefaultNoiseConfig()

	table := strings.Repeat("12.4\t8.13\t199.2\t44.5\t0.931\n", 6)
	if !IsNoise(table, config) {
		t.Error("a numeric table must be noise")
	}
}

func TestIsNoiseShortLineList(t *testing.T) {
	config := DefaultNoiseConfig()

	list := strings.Repeat("hypericin content\nflavonoid assay\nextraction yield\n", 4)
	if !IsNoise(list, config) {
		t.Error("a list of short lines must be noise")
	}
}

func TestIsNoiseUniformLines(t *testing.T) {
	config := DefaultNoiseConfig()

	line := "the quick brown fox jumped over the lazy dogs"
	uniform := strings.Repeat(line+"\n", 6)
	if !IsNoise(uniform, config) {
		t.Error("repeated near-identical lines must be noise")
	}
}

func TestIsNoiseIsPureAndWhitespaceStable(t *testing.T) {
	config := DefaultNoiseConfig()

	for _, text := range []string{hypericumText, "Table of Contents\n" + hypericumText} {
		first := IsNoise(text, config)
		for i := 0; i < 3; i++ {
			if IsNoise(text, config) != first {
				t.Fatal("classification must be deterministic")
			}
		}
		if IsNoise("  "+text+"\n\n", config) != first {
			t.Error("surrounding whitespace must not change the classification")
		}
	}
}
