// Package classifier implements the job-relevance classifier: a TF-IDF
// feature pipeline over subject+body text with a logistic decision
// boundary, combined with rule-based strong signals for obviously
// job-related mail.
package classifier

import (
	"regexp"
	"strings"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	tokenPattern      = regexp.MustCompile(`[a-z0-9]+`)
)

// CleanText collapses whitespace and strips URLs so link-heavy HTML dumps
// don't dominate the feature space.
func CleanText(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Tokenize splits cleaned text into feature tokens. Single-character
// tokens carry no signal and are dropped.
func Tokenize(text string) []string {
	tokens := tokenPattern.FindAllString(CleanText(text), -1)
	out := tokens[:0]
	for _, tok := range tokens {
		if len(tok) >= 2 {
			out = append(out, tok)
		}
	}
	return out
}

// termCounts returns raw term frequencies for a document.
func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}
	return counts
}
