package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
)

// TruncationMarker is appended to any text cut at the character ceiling.
// Truncation happens before hashing so identical long texts still share one
// cache entry.
const TruncationMarker = "…[truncated]"

var foldCaser = cases.Fold()

// Truncate deterministically cuts text to at most maxChars runes and appends
// the truncation marker. Texts at or below the ceiling pass through unchanged.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	return string(runes[:maxChars]) + TruncationMarker
}

// Normalize trims surrounding whitespace and case-folds the text so
// case-insensitive duplicates map to the same cache key
func Normalize(text string) string {
	return foldCaser.String(strings.TrimSpace(text))
}

// ContentHash returns the hex-encoded SHA-256 digest of the normalized text
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}
