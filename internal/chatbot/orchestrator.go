// Package chatbot orchestrates one conversational weather turn: extract a
// city from the message, ground the reply in live weather data when possible,
// and compose a completion over bounded conversation context.
package chatbot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/r1cksync/skycast/internal/llm"
	"github.com/r1cksync/skycast/internal/models"
	"github.com/r1cksync/skycast/internal/observability"
	"github.com/r1cksync/skycast/internal/weather"
)

// historyWindow is how many caller-supplied turns are forwarded to the model.
const historyWindow = 5

const (
	chatTemperature = 0.7
	chatMaxTokens   = 1024
)

const assistantInstruction = `You are a helpful weather assistant. You provide accurate weather information based on real-time data.
When answering:
- Be friendly and conversational
- Use the weather data provided to give accurate information
- If asked about future weather beyond 5 days, explain that forecasts are available for up to 5 days
- Include temperatures in Celsius but mention Fahrenheit equivalents when relevant
- Give helpful context about weather conditions
- If no city is mentioned, ask the user which city they want to know about`

// WeatherSource is the slice of the weather gateway the orchestrator needs:
// the two chained fetches behind a snapshot.
type WeatherSource interface {
	CurrentByCity(ctx context.Context, city, units string) (models.CurrentWeather, error)
	ForecastByCity(ctx context.Context, city, units string) (models.Forecast, error)
}

var _ WeatherSource = (weather.Gateway)(nil)

// Orchestrator is stateless across requests; all state is the input payload.
type Orchestrator struct {
	completer llm.Completer
	weather   WeatherSource
	logger    *zap.Logger
}

// New creates an Orchestrator.
func New(completer llm.Completer, weather WeatherSource, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{completer: completer, weather: weather, logger: logger}
}

// Reply is the outcome of one chat turn. City is nil iff no city could be
// extracted from the message.
type Reply struct {
	Response string  `json:"response"`
	City     *string `json:"city"`
}

// groundingKind tags what kind of weather context a turn carries. Modeling
// the degradation chain as an explicit result keeps the fallback handling in
// one place instead of scattered through the pipeline.
type groundingKind int

const (
	groundingNone    groundingKind = iota // no city extracted
	groundingData                         // live weather summary
	groundingApology                      // lookup failed for a named city
)

type grounding struct {
	kind groundingKind
	text string
}

func (g grounding) outcome() string {
	switch g.kind {
	case groundingData:
		return "answered"
	case groundingApology:
		return "weather_unavailable"
	default:
		return "no_city"
	}
}

// Chat runs the full pipeline for one message. Extraction and weather-lookup
// failures degrade (no-city follow-up, apology string); only a failure of the
// final completion call is terminal.
func (o *Orchestrator) Chat(ctx context.Context, message string, history []models.ConversationTurn) (Reply, error) {
	city := o.ExtractCity(ctx, message)
	g := o.buildGrounding(ctx, city)

	reply, err := o.completer.Complete(ctx, llm.CompletionRequest{
		Messages:    composeMessages(g, history, message),
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		observability.LLMCallsTotal.WithLabelValues("chat", "error").Inc()
		observability.ChatRequestsTotal.WithLabelValues("failed").Inc()
		return Reply{}, fmt.Errorf("chat completion: %w", err)
	}
	observability.LLMCallsTotal.WithLabelValues("chat", "success").Inc()
	observability.ChatRequestsTotal.WithLabelValues(g.outcome()).Inc()

	out := Reply{Response: reply}
	if city != CityUnknown {
		out.City = &city
	}
	return out, nil
}

// buildGrounding turns the extracted city into weather context. Lookup
// failures degrade to an apology naming the unresolved city rather than
// failing the turn.
func (o *Orchestrator) buildGrounding(ctx context.Context, city string) grounding {
	if city == CityUnknown {
		return grounding{kind: groundingNone}
	}
	snap, err := o.buildSnapshot(ctx, city)
	if err != nil {
		o.logger.Warn("weather lookup failed for chat", zap.String("city", city), zap.Error(err))
		return grounding{
			kind: groundingApology,
			text: fmt.Sprintf("I couldn't find weather data for %q. Please make sure the city name is correct.", city),
		}
	}
	return grounding{kind: groundingData, text: renderSummary(snap)}
}

// composeMessages builds the model input: a freshly synthesized system turn
// embedding the grounding, the most recent historyWindow caller turns, and
// the new user message. Caller-supplied system turns in history are carried
// as inert context only; the leading system turn is always ours.
func composeMessages(g grounding, history []models.ConversationTurn, message string) []models.ConversationTurn {
	system := assistantInstruction + "\n\n"
	if g.kind == groundingNone {
		system += "No specific weather data loaded yet. Ask the user which city they want to know about."
	} else {
		system += "Weather data available:\n" + g.text
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	msgs := make([]models.ConversationTurn, 0, len(history)+2)
	msgs = append(msgs, models.ConversationTurn{Role: models.RoleSystem, Content: system})
	msgs = append(msgs, history...)
	msgs = append(msgs, models.ConversationTurn{Role: models.RoleUser, Content: message})
	return msgs
}
