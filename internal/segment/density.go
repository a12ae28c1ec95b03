// Package segment implements adaptive text segmentation: chunk size is
// chosen from a density estimate of the input, and the text is split on
// sentence boundaries with a configurable overlap between chunks.
package segment

import "unicode"

// Sizes holds the chunk size tiers used by the density estimate, in
// characters. Tiers are runtime-tunable through configuration.
type Sizes struct {
	Small  int
	Medium int
	Large  int
}

// DefaultSizes returns the standard 300/500/800 tiers.
func DefaultSizes() Sizes {
	return Sizes{Small: 300, Medium: 500, Large: 800}
}

// EstimateDensity classifies text as dense, sparse or medium and returns the
// matching chunk size. Long sentences or low punctuation mean sparse prose
// (large chunks); short sentences or punctuation-heavy text mean dense
// content like tables or code (small chunks). Empty text gets the medium
// default without scanning.
func EstimateDensity(text string, sizes Sizes) int {
	if text == "" {
		return sizes.Medium
	}

	wordCount := 0
	inWord := false
	sentenceCount := 0
	inTerminatorRun := false
	specialCount := 0
	runeCount := 0

	for _, r := range text {
		runeCount++
		switch {
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				wordCount++
				inWord = true
			}
		}

		if r == '.' || r == '!' || r == '?' {
			// A run of terminators counts as one sentence end.
			if !inTerminatorRun {
				sentenceCount++
				inTerminatorRun = true
			}
		} else {
			inTerminatorRun = false
		}

		if !isWordChar(r) && !unicode.IsSpace(r) {
			specialCount++
		}
	}

	if sentenceCount == 0 {
		sentenceCount = 1
	}

	avgWordsPerSentence := float64(wordCount) / float64(sentenceCount)
	// Ratio over runes, not bytes, so multi-byte letters are not
	// over-weighted in the denominator.
	specialCharRatio := float64(specialCount) / float64(runeCount)

	switch {
	case avgWordsPerSentence > 25 || specialCharRatio < 0.05:
		return sizes.Large
	case avgWordsPerSentence < 10 || specialCharRatio > 0.15:
		return sizes.Small
	default:
		return sizes.Medium
	}
}

// isWordChar reports whether r is a letter, digit or underscore.
func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
