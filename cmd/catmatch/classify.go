package main

import (
	"errors"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"catmatch/internal/common"
	"catmatch/internal/config"
	"catmatch/internal/engine"
	"catmatch/internal/llm"
	"catmatch/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Map feed labels with the AI batch classifier",
		Long: `Classify submits labels to the configured model in bounded batches,
with retries, model fallback, and backoff between attempts. Results
carry the model's reasoning and are printed grouped by confidence
bucket.`,
		RunE: runClassify,
	}

	cmd.Flags().String("catalog", "", "catalog file (json or yaml)")
	cmd.Flags().String("labels", "", "label file (one per line, json or yaml)")
	cmd.Flags().String("model", "", "model identifier for the first attempt (overrides config)")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("labels")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	catalogPath, _ := cmd.Flags().GetString("catalog")
	labelsPath, _ := cmd.Flags().GetString("labels")
	modelOverride, _ := cmd.Flags().GetString("model")

	categories, labels, err := loadInputs(catalogPath, labelsPath)
	if err != nil {
		return err
	}

	cfg := config.Load()
	if modelOverride != "" {
		cfg.Orchestration.Model = modelOverride
	}

	classifier, err := llm.NewClassifier(cmd.Context(), cfg.LLM, slog.Default())
	if err != nil {
		if errors.Is(err, common.ErrNotConfigured) {
			return common.NewUserError("set llm.api_key in the config file or the provider's API key environment variable", err)
		}
		return err
	}

	chunkSize := cfg.Orchestration.ChunkSize
	if chunkSize <= 0 {
		chunkSize = engine.DefaultChunkSize
	}
	bar := progressbar.NewOptions((len(labels)+chunkSize-1)/chunkSize,
		progressbar.OptionSetDescription("classifying"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionClearOnFinish(),
	)
	cfg.Orchestration.OnChunk = func(int, int) { _ = bar.Add(1) }

	orchestrator := engine.New(classifier, slog.Default(), cfg.Orchestration)

	results, err := orchestrator.MapAll(cmd.Context(), labels, categories)
	if err != nil {
		return err
	}

	printBuckets(cmd, model.BucketByConfidence(results))
	return nil
}
