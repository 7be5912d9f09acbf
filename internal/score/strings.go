package score

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/plumsage/ledgerlink/internal/normalize"
)

// Ratio returns a normalized edit-distance similarity in [0,1].
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}

	return 1.0 - float64(dist)/float64(longest)
}

// TokenSortRatio compares two token lists after sorting, so word order
// differences ("sarah rhea" vs "rhea sarah") do not reduce similarity.
func TokenSortRatio(a, b []string) float64 {
	return Ratio(joinSorted(a), joinSorted(b))
}

// TokenSetRatio compares the shared token set against each side's full
// token set, giving full credit when one name is a subset of the other.
func TokenSetRatio(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	var inter, onlyA, onlyB []string
	for tok := range setA {
		if setB[tok] {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			onlyB = append(onlyB, tok)
		}
	}

	base := joinSorted(inter)
	combA := strings.TrimSpace(base + " " + joinSorted(onlyA))
	combB := strings.TrimSpace(base + " " + joinSorted(onlyB))

	best := Ratio(combA, combB)
	if base != "" {
		if r := Ratio(base, combA); r > best {
			best = r
		}
		if r := Ratio(base, combB); r > best {
			best = r
		}
	}

	return best
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

func joinSorted(tokens []string) string {
	return strings.Join(normalize.SortedTokens(tokens), " ")
}
