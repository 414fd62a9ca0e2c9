package match

import (
	"sort"

	"projection-generator/expr"
	"projection-generator/internal/analyze"
)

// Candidate is a possible replacement for a name that could not be resolved.
type Candidate struct {
	Name string

	// Scoring components
	NameScore  float64                 // Similarity of the normalized names (0-1)
	TypeCompat TypeCompatibilityResult // Only set by RankFields

	// Combined score for ranking (higher is better)
	CombinedScore float64
}

// CandidateList is a list of candidates with ranking functionality.
type CandidateList []Candidate

// DefaultMinScore is the lowest combined score still worth suggesting.
const DefaultMinScore = 0.5

// Suggest returns up to limit names from candidates that look like name,
// best first.
func Suggest(name string, candidates []string, limit int) []string {
	var list CandidateList

	for _, c := range candidates {
		score := NameScore(name, c)
		list = append(list, Candidate{Name: c, NameScore: score, CombinedScore: score})
	}

	sort.Sort(list)

	return list.AboveThreshold(DefaultMinScore).Top(limit).Names()
}

// RankFields ranks the fields of a declared output type as replacements for a
// property named name whose inferred type is value.
func RankFields(name string, value *expr.Type, fields []analyze.FieldInfo) CandidateList {
	var list CandidateList

	for i := range fields {
		f := &fields[i]

		// Skip unexported fields
		if !f.Exported {
			continue
		}

		score := NameScore(name, f.Name)
		compat := Compatible(value, analyze.ExprType(f.Type))

		list = append(list, Candidate{
			Name:          f.Name,
			NameScore:     score,
			TypeCompat:    compat,
			CombinedScore: calculateCombinedScore(score, compat.Compatibility),
		})
	}

	// Sort by combined score (descending), then by name for determinism
	sort.Sort(list)

	return list
}

// calculateCombinedScore computes a combined score from name similarity and type compatibility.
// Weights:
//   - Name similarity: 70% (0.0-0.7)
//   - Type compatibility: 30% (0.0-0.3)
func calculateCombinedScore(nameScore float64, typeCompat TypeCompatibility) float64 {
	const (
		nameWeight = 0.7
		typeWeight = 0.3
	)

	// Normalize type compatibility to 0-1 range
	var typeScore float64
	switch typeCompat {
	case TypeIdentical:
		typeScore = 1.0
	case TypeAssignable:
		typeScore = 0.9
	case TypeConvertible:
		typeScore = 0.5
	case TypeIncompatible:
		typeScore = 0.0
	}

	return nameScore*nameWeight + typeScore*typeWeight
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
// Sorts by combined score descending, then by name for determinism.
func (c CandidateList) Less(i, j int) bool {
	// Higher score comes first
	if c[i].CombinedScore != c[j].CombinedScore {
		return c[i].CombinedScore > c[j].CombinedScore
	}
	// Tie-breaker: alphabetical by name
	return c[i].Name < c[j].Name
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}
	return c[:n]
}

// AboveThreshold returns candidates with combined score above the threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var result CandidateList
	for _, cand := range c {
		if cand.CombinedScore >= threshold {
			result = append(result, cand)
		}
	}
	return result
}

// Names returns the candidate names in order.
func (c CandidateList) Names() []string {
	if len(c) == 0 {
		return nil
	}

	names := make([]string, len(c))
	for i, cand := range c {
		names[i] = cand.Name
	}

	return names
}
