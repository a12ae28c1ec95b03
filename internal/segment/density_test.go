package segment

import (
	"strings"
	"testing"
)

// TestEstimateDensity_Empty verifies empty text gets the medium default.
func TestEstimateDensity_Empty(t *testing.T) {
	sizes := DefaultSizes()
	if got := EstimateDensity("", sizes); got != sizes.Medium {
		t.Errorf("Expected medium size %d for empty text, got %d", sizes.Medium, got)
	}
}

// TestEstimateDensity_SparseProse verifies long sentences classify as sparse
// and get the large chunk size.
func TestEstimateDensity_SparseProse(t *testing.T) {
	sizes := DefaultSizes()
	// One 30-word sentence: avg words per sentence > 25.
	text := strings.Repeat("word ", 30) + "end."
	if got := EstimateDensity(text, sizes); got != sizes.Large {
		t.Errorf("Expected large size %d, got %d", sizes.Large, got)
	}
}

// TestEstimateDensity_LowPunctuation verifies text with almost no special
// characters also classifies as sparse.
func TestEstimateDensity_LowPunctuation(t *testing.T) {
	sizes := DefaultSizes()
	text := strings.Repeat("plain words without any punctuation at all ", 10)
	if got := EstimateDensity(text, sizes); got != sizes.Large {
		t.Errorf("Expected large size %d, got %d", sizes.Large, got)
	}
}

// TestEstimateDensity_DenseText verifies short, punctuation-heavy text gets
// the small chunk size.
func TestEstimateDensity_DenseText(t *testing.T) {
	sizes := DefaultSizes()
	text := strings.Repeat("x=1; y=2; z(3)! a[4]? b{5}. ", 10)
	if got := EstimateDensity(text, sizes); got != sizes.Small {
		t.Errorf("Expected small size %d, got %d", sizes.Small, got)
	}
}

// TestEstimateDensity_Medium verifies ordinary prose lands on the default.
func TestEstimateDensity_Medium(t *testing.T) {
	sizes := DefaultSizes()
	// ~15 words per sentence, punctuation ratio between the thresholds.
	text := strings.Repeat(
		"The system reads (some) files, splits them into parts; each part is stored. ", 8)
	if got := EstimateDensity(text, sizes); got != sizes.Medium {
		t.Errorf("Expected medium size %d, got %d", sizes.Medium, got)
	}
}

// TestEstimateDensity_Total verifies the estimate always returns one of the
// three configured tiers.
func TestEstimateDensity_Total(t *testing.T) {
	sizes := DefaultSizes()
	inputs := []string{
		"",
		".",
		"!!!???...",
		"a",
		"word",
		strings.Repeat("abc. ", 500),
		"no terminators whatsoever in this line of text",
		"短句。中文文本！",
	}
	for _, in := range inputs {
		got := EstimateDensity(in, sizes)
		if got != sizes.Small && got != sizes.Medium && got != sizes.Large {
			t.Errorf("EstimateDensity(%q) = %d, not a configured tier", in, got)
		}
	}
}

// TestEstimateDensity_MultiByteRatio verifies the punctuation ratio counts
// characters, not bytes: two-byte letters must not dilute the denominator
// and push ordinary prose into the sparse tier.
func TestEstimateDensity_MultiByteRatio(t *testing.T) {
	sizes := DefaultSizes()
	// 15 words per sentence, 5 punctuation marks per 65 characters. Counted
	// in bytes the ratio would fall under the sparse threshold.
	text := strings.Repeat("ééé ééé ééé ééé ééé, ééé ééé ééé ééé ééé; ééé ééé ééé ééé (ééé). ", 5)
	if got := EstimateDensity(text, sizes); got != sizes.Medium {
		t.Errorf("Expected medium size %d, got %d", sizes.Medium, got)
	}
}

// TestEstimateDensity_RunTerminators verifies a run like "..." counts as a
// single sentence end.
func TestEstimateDensity_RunTerminators(t *testing.T) {
	sizes := DefaultSizes()
	// 30 words followed by an ellipsis: one sentence, avg 30 > 25 -> large.
	text := strings.Repeat("w ", 30) + "..."
	if got := EstimateDensity(text, sizes); got != sizes.Large {
		t.Errorf("Expected large size %d (single terminator run), got %d", sizes.Large, got)
	}
}
