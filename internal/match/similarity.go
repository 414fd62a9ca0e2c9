package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// suffixes carry no meaning when comparing member names: "CustomerID" is a
// good replacement for "Customer".
var suffixes = []string{"ids", "id", "at", "utc"}

// Levenshtein returns the edit distance between a and b in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	row := make([]int, len(ra)+1)
	for i := range row {
		row[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		diag := row[0]
		row[0] = j

		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			next := min(row[i]+1, row[i-1]+1, diag+cost)
			diag, row[i] = row[i], next
		}
	}

	return row[len(ra)]
}

// Similarity maps the edit distance of a and b to [0, 1], 1 meaning equal.
func Similarity(a, b string) float64 {
	n := max(len([]rune(a)), len([]rune(b)))
	if n == 0 {
		return 1
	}

	return 1 - float64(Levenshtein(a, b))/float64(n)
}

// NormalizeIdent folds an identifier for fuzzy comparison: NFC, lower case,
// word separators removed. "order_id", "OrderID" and "orderId" are equal.
func NormalizeIdent(s string) string {
	var sb strings.Builder

	for _, r := range norm.NFC.String(s) {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			continue
		}

		sb.WriteRune(unicode.ToLower(r))
	}

	return sb.String()
}

// StripSuffix removes one trailing suffix such as "id" or "at" from a
// normalized identifier, unless nothing would be left.
func StripSuffix(s string) string {
	for _, suffix := range suffixes {
		if len(s) > len(suffix) && strings.HasSuffix(s, suffix) {
			return strings.TrimSuffix(s, suffix)
		}
	}

	return s
}

// NameScore rates b as a replacement for the name a. Both the plain and the
// suffix-stripped forms are compared and the better score wins.
func NameScore(a, b string) float64 {
	na, nb := NormalizeIdent(a), NormalizeIdent(b)

	return max(Similarity(na, nb), Similarity(StripSuffix(na), StripSuffix(nb)))
}
