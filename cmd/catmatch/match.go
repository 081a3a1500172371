package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"catmatch/internal/catalog"
	"catmatch/internal/config"
	"catmatch/internal/matcher"
	"catmatch/internal/model"
)

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Map feed labels with the deterministic fuzzy matcher",
		Long: `Match runs every label through the fuzzy matcher and prints the
results grouped by confidence bucket. No network calls are made; labels
that end up in the low or noMatch buckets are candidates for the
classify command.`,
		RunE: runMatch,
	}

	cmd.Flags().String("catalog", "", "catalog file (json or yaml)")
	cmd.Flags().String("labels", "", "label file (one per line, json or yaml)")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("labels")

	return cmd
}

func runMatch(cmd *cobra.Command, _ []string) error {
	catalogPath, _ := cmd.Flags().GetString("catalog")
	labelsPath, _ := cmd.Flags().GetString("labels")

	categories, labels, err := loadInputs(catalogPath, labelsPath)
	if err != nil {
		return err
	}

	cfg := config.Load()
	m := matcher.New(categories, matcher.Options{AcceptThreshold: cfg.Thresholds.Accept})

	results := m.AutoMap(labels)
	printBuckets(cmd, model.BucketByConfidence(results))
	return nil
}

func loadInputs(catalogPath, labelsPath string) ([]model.Category, []string, error) {
	categories, err := catalog.LoadCategories(catalogPath)
	if err != nil {
		return nil, nil, err
	}
	labels, err := catalog.LoadLabels(labelsPath)
	if err != nil {
		return nil, nil, err
	}
	return categories, labels, nil
}

func printBuckets(cmd *cobra.Command, buckets model.ConfidenceBuckets) {
	sections := []struct {
		title   string
		results []model.MappingResult
	}{
		{"High confidence (>0.8)", buckets.High},
		{"Medium confidence (0.6-0.8)", buckets.Medium},
		{"Low confidence (0.4-0.6)", buckets.Low},
		{"No match (<=0.4)", buckets.NoMatch},
	}

	for _, section := range sections {
		if len(section.results) == 0 {
			continue
		}
		cmd.Printf("\n%s: %d\n", section.title, len(section.results))
		for _, r := range section.results {
			suggested := "-"
			if r.Suggested != nil {
				suggested = fmt.Sprintf("%s [%s]", r.Suggested.Name, r.Suggested.ID)
			}
			cmd.Printf("  %-40s -> %-30s %.2f", r.XMLCategory, suggested, r.Confidence)
			if r.Reasoning != "" {
				cmd.Printf("  (%s)", r.Reasoning)
			}
			cmd.Println()
		}
	}
	cmd.Printf("\nTotal: %d\n", buckets.Total())
}
