// Package dedup identifies and removes duplicate internship postings using
// content hashing and fuzzy string similarity.
package dedup

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// stopWords are common words that carry no signal for matching.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
}

// Normalize canonicalizes free text for comparison and hashing: lowercase,
// collapse whitespace, strip punctuation, drop stop words. It is a pure
// function and idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = nonWordRe.ReplaceAllString(text, "")

	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopWords[w]; !stop {
			kept = append(kept, w)
		}
	}

	return strings.Join(kept, " ")
}
