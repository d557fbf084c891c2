package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// foldTag canonicalizes a tag for comparison: NFC composition, Unicode case folding, trimmed.
// A new Caser is built per call since Casers carry state.
func foldTag(s string) string {
	return strings.TrimSpace(cases.Fold().String(norm.NFC.String(s)))
}

// foldTags folds and de-duplicates, dropping empty entries. Order of first occurrence is kept.
func foldTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		folded := foldTag(tag)
		if folded == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, folded)
	}
	return out
}

func tagsOverlap(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

func containsFold(list []string, value string) bool {
	target := foldTag(value)
	if target == "" {
		return false
	}
	for _, item := range list {
		if foldTag(item) == target {
			return true
		}
	}
	return false
}

// jaccardSimilarity compares two tag sets case-insensitively. Exact matches are paired
// first, then substring containment, each tag pairing at most once.
func jaccardSimilarity(a, b []string) float64 {
	left := foldTags(a)
	right := foldTags(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	usedLeft := make([]bool, len(left))
	usedRight := make([]bool, len(right))
	matches := 0

	pair := func(match func(x, y string) bool) {
		for i, x := range left {
			if usedLeft[i] {
				continue
			}
			for j, y := range right {
				if usedRight[j] || !match(x, y) {
					continue
				}
				usedLeft[i], usedRight[j] = true, true
				matches++
				break
			}
		}
	}
	pair(func(x, y string) bool { return x == y })
	pair(tagsOverlap)

	union := len(left) + len(right) - matches
	return float64(matches) / float64(union)
}
