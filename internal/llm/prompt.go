package llm

import (
	"fmt"
	"strings"

	"catmatch/internal/model"
)

// buildPrompt embeds one batch of external labels and the complete internal
// catalog. The catalog is never batched: the model needs full context to
// pick the most specific category rather than a generic parent.
func buildPrompt(labels []string, catalog []model.Category, highConfidenceHint float64) string {
	var labelList strings.Builder
	for i, label := range labels {
		fmt.Fprintf(&labelList, "%d. %s\n", i+1, label)
	}

	var catalogList strings.Builder
	for i, c := range catalog {
		fmt.Fprintf(&catalogList, "%d. [%s] %s\n", i+1, c.ID, c.Name)
	}

	return fmt.Sprintf(`You are reconciling product feed categories with an internal category catalog. Map each external category below to the best internal category.

External categories:
%s
Internal catalog ([id] name):
%s
Instructions:
1. Prefer an exact name match when one exists.
2. Otherwise pick the closest semantic or lexical match.
3. When several candidates fit, choose the most specific (least generic) category.
4. If nothing fits, use null for suggestedCategoryId instead of forcing a weak match.
5. Reserve confidence values above %.2f for very strong matches.

Respond with ONLY a JSON object in this exact shape, one entry per external category, in the same order:
{"mappings": [{"xmlCategory": "<external category>", "suggestedCategoryId": "<id or null>", "confidence": <0.0-1.0>, "reasoning": "<one short sentence>"}]}`,
		labelList.String(),
		catalogList.String(),
		highConfidenceHint)
}
