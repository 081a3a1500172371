package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"catmatch/internal/common"
	"catmatch/internal/model"
)

type batchResponse struct {
	Mappings []mappingEntry `json:"mappings"`
}

type mappingEntry struct {
	XMLCategory         string  `json:"xmlCategory"`
	SuggestedCategoryID *string `json:"suggestedCategoryId"`
	Confidence          float64 `json:"confidence"`
	Reasoning           string  `json:"reasoning"`
}

// stripCodeFence removes markdown code fence wrappers that models sometimes
// add despite instructions.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// parseBatchResponse validates one structured model reply and converts it to
// mapping results aligned with the input labels. Unknown or null category
// IDs resolve to a nil suggestion; confidence is clamped into [0,1] and
// reasoning truncated to reasoningLimit characters. A reply that is not
// valid JSON after fence stripping is ErrMalformedResponse.
func parseBatchResponse(content string, labels []string, byID map[string]model.Category, reasoningLimit int) ([]model.MappingResult, error) {
	content = stripCodeFence(content)

	var response batchResponse
	if err := json.Unmarshal([]byte(content), &response); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	if response.Mappings == nil {
		return nil, fmt.Errorf("%w: missing mappings field", common.ErrMalformedResponse)
	}

	// Queue entries per label so duplicate labels each consume their own
	// entry and misordered replies still line up.
	queues := make(map[string][]mappingEntry, len(response.Mappings))
	for _, entry := range response.Mappings {
		queues[entry.XMLCategory] = append(queues[entry.XMLCategory], entry)
	}

	results := make([]model.MappingResult, len(labels))
	for i, label := range labels {
		result := model.MappingResult{
			XMLCategory: label,
			Source:      model.SourceAI,
		}

		queue := queues[label]
		if len(queue) == 0 {
			// The model skipped this label; treat it as "nothing suitable".
			results[i] = result
			continue
		}
		entry := queue[0]
		queues[label] = queue[1:]

		result.Confidence = clamp(entry.Confidence)
		result.Reasoning = truncate(entry.Reasoning, reasoningLimit)
		if entry.SuggestedCategoryID != nil {
			if category, ok := byID[*entry.SuggestedCategoryID]; ok {
				result.Suggested = &category
			}
		}
		results[i] = result
	}
	return results, nil
}

func clamp(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		limit = DefaultReasoningLimit
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
