package matcher

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	// maxEditBudget caps the edit-distance tolerance for token comparison.
	// The effective budget is a third of the longer token, so short
	// unrelated words cannot spend the whole budget and still score.
	maxEditBudget = 3
	// relevanceFloor drops scores too weak to be meaningful candidates.
	relevanceFloor = 0.2
	// tokenScoreScale keeps reassembled token scores below containment scores.
	tokenScoreScale = 0.9
)

// span marks the matched byte range within a normalized field.
type span struct {
	start int
	end   int
}

// fieldScore rates how well a normalized query matches one normalized field,
// returning a similarity in [0,1] and the matched span. Exact matches score
// 1.0, substring containment scores high, and everything else falls back to
// order-insensitive token matching with an edit-distance budget.
func fieldScore(query string, queryTokens []string, field string, fieldTokens []string) (float64, span) {
	if len(query) < minMatchChars || field == "" {
		return 0, span{}
	}

	if query == field {
		return 1, span{0, len(field)}
	}

	// Whole query contained in the field: score by how much of the field it
	// covers, so "sutyen" ranks "sutyen" above "sutyen ve ic giyim".
	if i := strings.Index(field, query); i >= 0 {
		coverage := float64(len(query)) / float64(len(field))
		return 0.7 + 0.25*coverage, span{i, i + len(query)}
	}

	// Whole field contained in the query ("spor ayakkabi erkek" vs "spor
	// ayakkabi").
	if strings.Contains(query, field) {
		coverage := float64(len(field)) / float64(len(query))
		return 0.6 + 0.3*coverage, span{0, len(field)}
	}

	return tokenSetScore(queryTokens, field, fieldTokens)
}

// tokenSetScore compares token sets, tolerating reordering and typos. Each
// query token is matched against its closest field token; contributions are
// weighted by token length so short filler words cannot dominate.
func tokenSetScore(queryTokens []string, field string, fieldTokens []string) (float64, span) {
	offsets := tokenOffsets(field, fieldTokens)

	var total, weight float64
	best := span{}
	bestContribution := 0.0

	for _, qt := range queryTokens {
		if len(qt) < minMatchChars {
			continue
		}
		tokenBest := 0.0
		tokenSpan := span{}
		for i, ft := range fieldTokens {
			if len(ft) < minMatchChars {
				continue
			}
			s := tokenSimilarity(qt, ft)
			if s > tokenBest {
				tokenBest = s
				tokenSpan = offsets[i]
			}
		}
		w := float64(len(qt))
		total += tokenBest * w
		weight += w
		if tokenBest*w > bestContribution {
			bestContribution = tokenBest * w
			best = tokenSpan
		}
	}

	if weight == 0 {
		return 0, span{}
	}
	score := total / weight * tokenScoreScale
	if score < relevanceFloor {
		return 0, span{}
	}
	return score, best
}

// tokenSimilarity scores two tokens in [0,1]. Beyond the edit budget only a
// shared prefix rescues a partial score.
func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	budget := longest / 3
	if budget > maxEditBudget {
		budget = maxEditBudget
	}
	d := levenshtein.ComputeDistance(a, b)
	if d <= budget {
		return 1 - float64(d)/float64(longest)
	}
	if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
		shortest := len(a) + len(b) - longest
		return float64(shortest) / float64(longest) * tokenScoreScale
	}
	return 0
}

func tokenOffsets(field string, tokens []string) []span {
	offsets := make([]span, len(tokens))
	pos := 0
	for i, tok := range tokens {
		idx := strings.Index(field[pos:], tok)
		if idx < 0 {
			continue
		}
		start := pos + idx
		offsets[i] = span{start, start + len(tok)}
		pos = start + len(tok)
	}
	return offsets
}
