package pipeline

import (
	"math"
	"strings"
	"testing"
)

func TestFactDensityScoreFloor(t *testing.T) {
	for _, text := range []string{"", "   ", "Short fragment."} {
		if !math.IsInf(FactDensityScore(text), -1) {
			t.Errorf("expected negative infinity for %q", text)
		}
	}
}

func TestFactDensityScorePreferProse(t *testing.T) {
	prose := FactDensityScore(hypericumText)
	if math.IsInf(prose, -1) {
		t.Fatal("prose must score above the floor")
	}

	bibliography := FactDensityScore(
		"Smith, J. (1998). Constituents of Hypericum perforatum. Journal of Natural " +
			"Products, vol. 61, pp. 391-396. See https://example.org/hypericum for the " +
			"full text and the 2001 follow-up study in Phytomedicine, vol. 8, pp. 51-58.")
	if bibliography >= prose {
		t.Errorf("bibliography (%.3f) must score below prose (%.3f)", bibliography, prose)
	}

	list := FactDensityScore(strings.Repeat("hypericin assay\nflavonoid yield\nextraction notes\n", 4))
	if list >= prose {
		t.Errorf("short-line list (%.3f) must score below prose (%.3f)", list, prose)
	}
}

func TestFactDensityScoreDeterministic(t *testing.T) {
	first := FactDensityScore(soilText)
	for i := 0; i < 3; i++ {
		if FactDensityScore(soilText) != first {
			t.Fatal("scoring must be deterministic")
		}
	}
}
