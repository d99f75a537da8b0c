package faceid

import (
	"math"
	"sort"
)

// Candidate pairs a student id with their stored template.
type Candidate struct {
	StudentID string
	Template  Template
}

// Match is a scored candidate. Confidence is in [0, 1]; 1.0 means the query
// template is identical to the stored one.
type Match struct {
	StudentID  string
	Confidence float64
}

// Rank scores every candidate against the query template and returns them
// sorted by descending confidence. The sort is stable so candidates with
// equal scores keep their roster order. Rank is threshold-agnostic; the
// caller decides what confidence is good enough.
func Rank(query Template, candidates []Candidate) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, Match{
			StudentID:  c.StudentID,
			Confidence: Confidence(query, c.Template),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// Best returns the top-ranked match. When the two best scores are numerically
// identical for different students the match is ambiguous and the caller must
// treat it as no confident match: a false accept is worse than a false reject
// for attendance.
func Best(matches []Match) (Match, bool, bool) {
	if len(matches) == 0 {
		return Match{}, false, false
	}
	top := matches[0]
	ambiguous := len(matches) > 1 &&
		matches[1].Confidence == top.Confidence &&
		matches[1].StudentID != top.StudentID
	return top, true, ambiguous
}

// Confidence maps the cosine similarity of two templates to [0, 1].
// Identical templates score 1.0; orthogonal or anti-correlated templates
// (and the zero vector from a flat crop) score 0. Mismatched lengths score 0,
// which covers templates produced by an older extraction scheme.
func Confidence(a, b Template) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity > 1 {
		similarity = 1
	}
	if similarity < 0 {
		similarity = 0
	}
	return similarity
}
