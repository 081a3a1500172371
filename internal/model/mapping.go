package model

// MappingSource records which path produced a mapping.
type MappingSource string

// Mapping source constants.
const (
	SourceFuzzy MappingSource = "fuzzy"
	SourceAI    MappingSource = "ai"
)

// MatchCandidate pairs a catalog category with a similarity-derived
// confidence in [0,1].
type MatchCandidate struct {
	Category   Category
	Confidence float64
}

// MappingResult is the unit exchanged with callers. Suggested is nil when no
// candidate cleared the accept threshold; Confidence still reflects the best
// raw score found, which is informative even below the threshold. A nil
// Suggested is the expected "no match" outcome, not an error, on both paths.
// Reasoning is populated only on the AI path. Results are never mutated
// after construction.
type MappingResult struct {
	XMLCategory  string
	Suggested    *Category
	Confidence   float64
	Alternatives []MatchCandidate
	Reasoning    string
	Source       MappingSource
}
