package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catmatch/internal/common"
	"catmatch/internal/model"
)

func catalogByID() map[string]model.Category {
	return model.CategoriesByID([]model.Category{
		{ID: "1", Name: "Sütyen"},
		{ID: "2", Name: "Spor Ayakkabı"},
	})
}

func TestParseBatchResponse(t *testing.T) {
	content := `{"mappings": [
		{"xmlCategory": "Sütyen Modelleri", "suggestedCategoryId": "1", "confidence": 0.95, "reasoning": "Exact product family"},
		{"xmlCategory": "Bilinmeyen", "suggestedCategoryId": null, "confidence": 0.1, "reasoning": "No suitable category"}
	]}`

	results, err := parseBatchResponse(content, []string{"Sütyen Modelleri", "Bilinmeyen"}, catalogByID(), 200)
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.NotNil(t, results[0].Suggested)
	assert.Equal(t, "1", results[0].Suggested.ID)
	assert.InDelta(t, 0.95, results[0].Confidence, 0.001)
	assert.Equal(t, "Exact product family", results[0].Reasoning)
	assert.Equal(t, model.SourceAI, results[0].Source)

	assert.Nil(t, results[1].Suggested, "model returning null is data, not an error")
	assert.InDelta(t, 0.1, results[1].Confidence, 0.001)
}

func TestParseBatchResponseStripsCodeFences(t *testing.T) {
	fenced := "```json\n{\"mappings\": [{\"xmlCategory\": \"Sütyen\", \"suggestedCategoryId\": \"1\", \"confidence\": 0.9, \"reasoning\": \"ok\"}]}\n```"

	results, err := parseBatchResponse(fenced, []string{"Sütyen"}, catalogByID(), 200)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Suggested)
	assert.Equal(t, "1", results[0].Suggested.ID)
}

func TestParseBatchResponseMalformed(t *testing.T) {
	for _, content := range []string{
		"not json at all",
		"```\nstill not json\n```",
		`{"something": "else"}`,
		"",
	} {
		_, err := parseBatchResponse(content, []string{"Sütyen"}, catalogByID(), 200)
		require.Error(t, err, "content %q", content)
		assert.ErrorIs(t, err, common.ErrMalformedResponse)
	}
}

func TestParseBatchResponseClampsConfidence(t *testing.T) {
	content := `{"mappings": [
		{"xmlCategory": "a", "suggestedCategoryId": "1", "confidence": 1.7, "reasoning": "x"},
		{"xmlCategory": "b", "suggestedCategoryId": "2", "confidence": -0.3, "reasoning": "y"}
	]}`

	results, err := parseBatchResponse(content, []string{"a", "b"}, catalogByID(), 200)
	require.NoError(t, err)
	assert.Equal(t, 1.0, results[0].Confidence)
	assert.Equal(t, 0.0, results[1].Confidence)
}

func TestParseBatchResponseTruncatesReasoning(t *testing.T) {
	long := strings.Repeat("gerekçe ", 100)
	content := `{"mappings": [{"xmlCategory": "a", "suggestedCategoryId": "1", "confidence": 0.8, "reasoning": "` + long + `"}]}`

	results, err := parseBatchResponse(content, []string{"a"}, catalogByID(), 200)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(results[0].Reasoning)), 200)
}

func TestParseBatchResponseUnknownCategoryID(t *testing.T) {
	content := `{"mappings": [{"xmlCategory": "a", "suggestedCategoryId": "999", "confidence": 0.8, "reasoning": "x"}]}`

	results, err := parseBatchResponse(content, []string{"a"}, catalogByID(), 200)
	require.NoError(t, err)
	assert.Nil(t, results[0].Suggested, "unresolvable id must not invent a category")
	assert.InDelta(t, 0.8, results[0].Confidence, 0.001)
}

func TestParseBatchResponseSkippedLabel(t *testing.T) {
	content := `{"mappings": [{"xmlCategory": "a", "suggestedCategoryId": "1", "confidence": 0.8, "reasoning": "x"}]}`

	results, err := parseBatchResponse(content, []string{"a", "b"}, catalogByID(), 200)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[1].XMLCategory)
	assert.Nil(t, results[1].Suggested)
	assert.Zero(t, results[1].Confidence)
}

func TestParseBatchResponseDuplicateLabels(t *testing.T) {
	content := `{"mappings": [
		{"xmlCategory": "a", "suggestedCategoryId": "1", "confidence": 0.9, "reasoning": "first"},
		{"xmlCategory": "a", "suggestedCategoryId": "2", "confidence": 0.5, "reasoning": "second"}
	]}`

	results, err := parseBatchResponse(content, []string{"a", "a"}, catalogByID(), 200)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].Suggested.ID)
	assert.Equal(t, "2", results[1].Suggested.ID)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
}
