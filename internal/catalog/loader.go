// Package catalog loads catalog snapshots and external label lists from
// files for the command layer. The persistence of mapping results stays
// with callers; this package only reads inputs.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"catmatch/internal/model"
)

// LoadCategories reads a catalog snapshot from a JSON or YAML file holding
// a list of categories.
func LoadCategories(path string) ([]model.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var categories []model.Category
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &categories); err != nil {
			return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &categories); err != nil {
			return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
		}
	}

	if err := validate(categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// LoadLabels reads external labels from a file: JSON or YAML string arrays
// by extension, otherwise plain text with one label per line. Blank lines
// and #-comments are skipped; duplicates are kept.
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var labels []string
		if err := json.Unmarshal(data, &labels); err != nil {
			return nil, fmt.Errorf("failed to parse label JSON: %w", err)
		}
		return labels, nil
	case ".yaml", ".yml":
		var labels []string
		if err := yaml.Unmarshal(data, &labels); err != nil {
			return nil, fmt.Errorf("failed to parse label YAML: %w", err)
		}
		return labels, nil
	default:
		var labels []string
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			labels = append(labels, line)
		}
		return labels, nil
	}
}

func validate(categories []model.Category) error {
	seen := make(map[string]bool, len(categories))
	for i, c := range categories {
		if c.ID == "" {
			return fmt.Errorf("catalog entry %d has no id", i)
		}
		if c.Name == "" {
			return fmt.Errorf("catalog entry %d (%s) has no name", i, c.ID)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate catalog id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
