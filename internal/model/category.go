// Package model defines the core domain types exchanged between the matcher,
// the AI classifier, and callers.
package model

// Category is one entry of the internal catalog. Catalog snapshots are
// read-only to this module; IDs are unique within a snapshot.
type Category struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// CategoriesByID builds a lookup table over a catalog snapshot.
func CategoriesByID(categories []Category) map[string]Category {
	byID := make(map[string]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID
}
