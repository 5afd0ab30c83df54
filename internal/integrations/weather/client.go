// Package weather supplies simulated weather data. Conditions are derived
// deterministically from the location and date, so the same question gets the
// same answer within a day without any upstream dependency.
package weather

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"buddy-agent/internal/skills"
)

var descriptions = []string{
	"sunny",
	"partly cloudy",
	"cloudy",
	"light rain",
	"rainy",
	"windy",
	"foggy",
	"clear",
}

// Client implements skills.WeatherProvider with simulated data.
type Client struct {
	now func() time.Time
}

func New() *Client {
	return &Client{now: time.Now}
}

// Current returns the simulated conditions for location today.
func (c *Client) Current(_ context.Context, location string) (skills.Conditions, error) {
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return skills.Conditions{}, errors.New("weather: location must not be empty")
	}
	return conditionsFor(location, c.now().UTC(), 0), nil
}

// Forecast returns a one-line outlook covering the next days.
func (c *Client) Forecast(_ context.Context, location string, days int) (string, error) {
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return "", errors.New("weather: location must not be empty")
	}
	if days <= 0 {
		days = 3
	}

	now := c.now().UTC()
	parts := make([]string, 0, days)
	for i := 1; i <= days; i++ {
		cond := conditionsFor(location, now, i)
		day := now.AddDate(0, 0, i).Format("Monday")
		parts = append(parts, fmt.Sprintf("%s %s, %.0f°C", day, cond.Description, cond.TempCelsius))
	}
	return strings.Join(parts, "; "), nil
}

// conditionsFor derives stable pseudo-conditions from the location and date.
// dayOffset shifts the date for forecast days.
func conditionsFor(location string, now time.Time, dayOffset int) skills.Conditions {
	date := now.AddDate(0, 0, dayOffset).Format("2006-01-02")

	h := fnv.New32a()
	_, _ = h.Write([]byte(location))
	_, _ = h.Write([]byte(date))
	sum := h.Sum32()

	desc := descriptions[sum%uint32(len(descriptions))]
	// Temperature in a -5..29 range, seasonless but stable per location+date.
	temp := float64((sum>>8)%35) - 5
	return skills.Conditions{Description: desc, TempCelsius: temp}
}
