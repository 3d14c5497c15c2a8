package resolver

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Corporate suffixes stripped during company normalization so "Initech"
// and "Initech, Inc." share a bucket.
var corporateSuffixes = []string{
	"inc", "inc.", "incorporated",
	"llc", "llc.", "l.l.c.",
	"ltd", "ltd.", "limited",
	"corp", "corp.", "corporation",
	"co", "co.", "company",
	"gmbh", "plc", "pte",
}

var foldCaser = cases.Fold()

// NormalizeCompany canonicalizes a company name into a bucket key:
// Unicode NFKC normalization, case folding, whitespace collapsing, and
// corporate suffix stripping. Returns "" for names with no usable content.
func NormalizeCompany(name string) string {
	name = norm.NFKC.String(name)
	name = foldCaser.String(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case ',', ';', '"', '\'', '(', ')':
			return -1
		}
		return r
	}, name)

	words := strings.Fields(name)
	for len(words) > 0 {
		last := words[len(words)-1]
		if !isCorporateSuffix(last) {
			break
		}
		words = words[:len(words)-1]
	}

	return strings.Join(words, " ")
}

// NormalizePosition canonicalizes a job title for comparison without
// destroying its display value: NFKC plus whitespace collapsing.
func NormalizePosition(title string) string {
	title = norm.NFKC.String(title)
	return strings.Join(strings.Fields(title), " ")
}

func isCorporateSuffix(word string) bool {
	for _, suffix := range corporateSuffixes {
		if word == suffix {
			return true
		}
	}
	return false
}
