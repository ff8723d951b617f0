package chatbot

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/r1cksync/skycast/internal/llm"
	"github.com/r1cksync/skycast/internal/models"
	"github.com/r1cksync/skycast/internal/observability"
)

// CityUnknown is the sentinel the extraction step emits when no city can be
// resolved from the user's message. It signals absence, not an error.
const CityUnknown = "unknown"

const extractInstruction = `You are a helpful assistant that extracts city names from weather-related queries. Return ONLY the city name, nothing else. If no city is mentioned, return "unknown".`

// Extraction uses low temperature and a small token ceiling: the answer is a
// single short name and should be as deterministic as the model allows.
const (
	extractTemperature = 0.3
	extractMaxTokens   = 50
)

// ExtractCity resolves the city named in a free-text query, or CityUnknown.
// Adapter failures degrade to CityUnknown; extraction must never fail the
// chat turn.
func (o *Orchestrator) ExtractCity(ctx context.Context, query string) string {
	out, err := o.completer.Complete(ctx, llm.CompletionRequest{
		Messages: []models.ConversationTurn{
			{Role: models.RoleSystem, Content: extractInstruction},
			{Role: models.RoleUser, Content: query},
		},
		Temperature: extractTemperature,
		MaxTokens:   extractMaxTokens,
	})
	if err != nil {
		observability.LLMCallsTotal.WithLabelValues("extract", "error").Inc()
		o.logger.Warn("city extraction failed", zap.Error(err))
		return CityUnknown
	}
	observability.LLMCallsTotal.WithLabelValues("extract", "success").Inc()

	city := strings.TrimSpace(out)
	if city == "" {
		return CityUnknown
	}
	return city
}
