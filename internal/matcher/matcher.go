// Package matcher provides approximate multi-field search over a category
// catalog. Matching is case-insensitive, diacritic-folded, and tolerant of
// typos, word reordering, and substring containment.
package matcher

import (
	"sort"
	"strings"
	"sync"

	"catmatch/internal/model"
	"catmatch/internal/normalize"
)

// Field identifies which catalog field produced a match.
type Field string

// Match provenance fields.
const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
)

const (
	// descriptionWeight discounts description matches relative to name matches.
	descriptionWeight = 0.3
	// maxResults bounds how many ranked candidates a single query retrieves.
	maxResults = 5
	// alternativeCount is how many runner-up candidates a mapping carries.
	alternativeCount = 2
	// minMatchChars rejects spurious single-letter matches.
	minMatchChars = 2
	// defaultAcceptThreshold is the confidence above which the top candidate
	// is auto-accepted.
	defaultAcceptThreshold = 0.6
)

// Options tunes the matcher. Zero values fall back to defaults.
type Options struct {
	// AcceptThreshold is the minimum confidence, exclusive, for the top
	// candidate to be returned as the suggested category.
	AcceptThreshold float64
}

type indexEntry struct {
	category   model.Category
	name       string
	desc       string
	nameTokens []string
	descTokens []string
}

// Matcher ranks catalog categories against external feed labels. Find and
// its variants never fail: absence of a match is data, not an error. Lookups
// may run concurrently; UpdateCategories serializes against them.
type Matcher struct {
	mu      sync.RWMutex
	entries []indexEntry
	accept  float64
}

// New builds a matcher over a catalog snapshot.
func New(categories []model.Category, opts Options) *Matcher {
	accept := opts.AcceptThreshold
	if accept <= 0 {
		accept = defaultAcceptThreshold
	}
	m := &Matcher{accept: accept}
	m.UpdateCategories(categories)
	return m
}

// UpdateCategories rebuilds the index in place for a new catalog snapshot
// without changing the matcher identity held by callers.
func (m *Matcher) UpdateCategories(categories []model.Category) {
	entries := make([]indexEntry, 0, len(categories))
	for _, c := range categories {
		e := indexEntry{
			category: c,
			name:     normalize.Normalize(c.Name),
			desc:     normalize.Normalize(c.Description),
		}
		e.nameTokens = strings.Fields(e.name)
		e.descTokens = strings.Fields(e.desc)
		entries = append(entries, e)
	}

	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()
}

// RankedCandidate is one scored catalog category with match provenance for
// UI explainability.
type RankedCandidate struct {
	Category   model.Category
	Confidence float64
	Field      Field
	// Matched is the normalized substring of the field that matched.
	Matched string
}

// Find returns the best candidate for one external label. The top match is
// suggested only when its confidence clears the accept threshold; below it
// the suggestion is nil but Confidence still reflects the best raw score.
// Alternatives are the second and third ranked candidates regardless of
// threshold.
func (m *Matcher) Find(label string) model.MappingResult {
	result := model.MappingResult{
		XMLCategory: label,
		Source:      model.SourceFuzzy,
	}

	ranked := m.rank(label, maxResults)
	if len(ranked) == 0 {
		return result
	}

	result.Confidence = ranked[0].Confidence
	if ranked[0].Confidence > m.accept {
		category := ranked[0].Category
		result.Suggested = &category
	}
	for _, r := range ranked[1:] {
		if len(result.Alternatives) == alternativeCount {
			break
		}
		result.Alternatives = append(result.Alternatives, model.MatchCandidate{
			Category:   r.Category,
			Confidence: r.Confidence,
		})
	}
	return result
}

// AutoMap maps every label in input order. Duplicates are processed
// independently.
func (m *Matcher) AutoMap(labels []string) []model.MappingResult {
	results := make([]model.MappingResult, len(labels))
	for i, label := range labels {
		results[i] = m.Find(label)
	}
	return results
}

// FindMultiple returns up to limit ranked candidates with provenance.
func (m *Matcher) FindMultiple(label string, limit int) []RankedCandidate {
	if limit <= 0 {
		return nil
	}
	return m.rank(label, limit)
}

func (m *Matcher) rank(label string, limit int) []RankedCandidate {
	query := normalize.Normalize(label)
	if len(query) < minMatchChars {
		return nil
	}
	queryTokens := strings.Fields(query)

	m.mu.RLock()
	candidates := make([]RankedCandidate, 0, len(m.entries))
	for i := range m.entries {
		e := &m.entries[i]

		nameScore, nameSpan := fieldScore(query, queryTokens, e.name, e.nameTokens)
		descScore, descSpan := fieldScore(query, queryTokens, e.desc, e.descTokens)
		descScore *= descriptionWeight

		confidence, field, span, source := nameScore, FieldName, nameSpan, e.name
		if descScore > confidence {
			confidence, field, span, source = descScore, FieldDescription, descSpan, e.desc
		}
		if confidence <= 0 {
			continue
		}
		candidates = append(candidates, RankedCandidate{
			Category:   e.category,
			Confidence: confidence,
			Field:      field,
			Matched:    substring(source, span),
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Category.Name < candidates[j].Category.Name
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func substring(s string, sp span) string {
	if sp.end <= sp.start || sp.end > len(s) {
		return ""
	}
	return s[sp.start:sp.end]
}
