// Package skills holds the pluggable handlers the engine routes to. Every
// skill implements the same capability: process a query with session context
// and return a response. Domain content (weather data, joke text, task
// templates) is either static data or lives behind a collaborator interface.
package skills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"buddy-agent/internal/conversation"
	"buddy-agent/internal/domain"
)

// PrefLocation is the session preference key for the last-used weather
// location.
const PrefLocation = "location"

// Conditions is a current-weather observation.
type Conditions struct {
	Description string
	TempCelsius float64
}

// WeatherProvider supplies weather data for a location. Implementations own
// their retry/backoff behavior; the engine only bounds total dispatch time.
type WeatherProvider interface {
	Current(ctx context.Context, location string) (Conditions, error)
	Forecast(ctx context.Context, location string, days int) (string, error)
}

// WeatherSkill answers current-conditions queries. A location found in the
// query is remembered as the session default for later location-less queries.
type WeatherSkill struct {
	provider WeatherProvider
}

func NewWeatherSkill(p WeatherProvider) (*WeatherSkill, error) {
	if p == nil {
		return nil, errors.New("skills: weather provider must not be nil")
	}
	return &WeatherSkill{provider: p}, nil
}

func (s *WeatherSkill) Process(ctx context.Context, q domain.NormalizedQuery, view *conversation.View) (domain.Response, error) {
	location, ok := resolveLocation(q, view)
	if !ok {
		return domain.Response{
			Text:   "Which city would you like the weather for?",
			Source: "weather",
		}, nil
	}

	cond, err := s.provider.Current(ctx, location)
	if err != nil {
		return domain.Response{}, fmt.Errorf("skills: weather lookup for %q: %w", location, err)
	}
	view.SetPreference(PrefLocation, location)

	return domain.Response{
		Text:     fmt.Sprintf("It's %s and %.0f°C in %s right now.", cond.Description, cond.TempCelsius, title(location)),
		Source:   "weather",
		Metadata: map[string]string{"location": location},
	}, nil
}

// ForecastSkill answers multi-day outlook queries via the same provider.
type ForecastSkill struct {
	provider WeatherProvider
	days     int
}

func NewForecastSkill(p WeatherProvider, days int) (*ForecastSkill, error) {
	if p == nil {
		return nil, errors.New("skills: weather provider must not be nil")
	}
	if days <= 0 {
		days = 3
	}
	return &ForecastSkill{provider: p, days: days}, nil
}

func (s *ForecastSkill) Process(ctx context.Context, q domain.NormalizedQuery, view *conversation.View) (domain.Response, error) {
	location, ok := resolveLocation(q, view)
	if !ok {
		return domain.Response{
			Text:   "Which city would you like the forecast for?",
			Source: "forecast",
		}, nil
	}

	outlook, err := s.provider.Forecast(ctx, location, s.days)
	if err != nil {
		return domain.Response{}, fmt.Errorf("skills: forecast lookup for %q: %w", location, err)
	}
	view.SetPreference(PrefLocation, location)

	return domain.Response{
		Text:     fmt.Sprintf("Forecast for %s: %s", title(location), outlook),
		Source:   "forecast",
		Metadata: map[string]string{"location": location},
	}, nil
}

func resolveLocation(q domain.NormalizedQuery, view *conversation.View) (string, bool) {
	if loc := ExtractLocation(q); loc != "" {
		return loc, true
	}
	if loc, ok := view.Preference(PrefLocation); ok {
		return loc, true
	}
	return "", false
}

// locationStopwords are tokens that end a location phrase; they show up when
// the preposition belongs to the question, not the place ("in the morning").
var locationStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "my": true, "this": true, "that": true,
	"morning": true, "evening": true, "afternoon": true, "tonight": true,
	"today": true, "tomorrow": true, "week": true, "now": true, "it": true,
	"there": true, "here": true,
}

// ExtractLocation pulls a location phrase out of a normalized query: the
// tokens following the last "in", "for" or "at". Exported for the scorer-free
// tests that pin down the original extraction behavior.
func ExtractLocation(q domain.NormalizedQuery) string {
	last := -1
	for i, tok := range q.Tokens {
		if tok == "in" || tok == "for" || tok == "at" {
			last = i
		}
	}
	if last < 0 || last == len(q.Tokens)-1 {
		return ""
	}

	var parts []string
	for _, tok := range q.Tokens[last+1:] {
		if locationStopwords[tok] {
			break
		}
		parts = append(parts, tok)
	}
	return strings.Join(parts, " ")
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
