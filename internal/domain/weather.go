package domain

import (
	"context"
	"fmt"
	"time"
)

// GeocodeMatch is a candidate city returned by a name search.
type GeocodeMatch struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DisplayName formats the match as "Name, Region, Country", omitting the
// region when the provider did not report one.
func (m GeocodeMatch) DisplayName() string {
	if m.Admin1 != "" {
		return fmt.Sprintf("%s, %s, %s", m.Name, m.Admin1, m.Country)
	}
	return fmt.Sprintf("%s, %s", m.Name, m.Country)
}

// CurrentConditions holds the instantaneous readings for a coordinate.
type CurrentConditions struct {
	TemperatureC  float64 `json:"temperature_c"`
	WeatherCode   int     `json:"weather_code"`
	Precipitation float64 `json:"precipitation"`
	Timezone      string  `json:"timezone,omitempty"`
}

// WeatherQueryResult is what a successful search exposes to consumers.
type WeatherQueryResult struct {
	CityName    string            `json:"city_name"`
	DisplayName string            `json:"display_name"`
	Country     string            `json:"country"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Conditions  CurrentConditions `json:"conditions"`
	Category    WeatherCategory   `json:"category"`
	RetrievedAt time.Time         `json:"retrieved_at"`
}

// NewWeatherQueryResult classifies the conditions and stamps the result with
// the package clock.
func NewWeatherQueryResult(match GeocodeMatch, cond CurrentConditions) WeatherQueryResult {
	return WeatherQueryResult{
		CityName:    match.Name,
		DisplayName: match.DisplayName(),
		Country:     match.Country,
		Latitude:    match.Latitude,
		Longitude:   match.Longitude,
		Conditions:  cond,
		Category:    Classify(cond.WeatherCode),
		RetrievedAt: clock.Now().UTC(),
	}
}

// TemperatureLabel renders the temperature rounded to whole degrees Celsius.
func (r WeatherQueryResult) TemperatureLabel() string {
	return fmt.Sprintf("%.0f°C", r.Conditions.TemperatureC)
}

// PrecipitationLabel renders the precipitation reading for display.
func (r WeatherQueryResult) PrecipitationLabel() string {
	return fmt.Sprintf("Rain: %.0f%%", r.Conditions.Precipitation)
}

// WeatherGateway resolves cities and their current weather from a provider.
// Implementations issue exactly one request per step and never retry.
type WeatherGateway interface {
	SearchCity(ctx context.Context, query string) ([]GeocodeMatch, error)
	FetchConditions(ctx context.Context, lat, lon float64) (CurrentConditions, error)
	ResolveWeatherForCity(ctx context.Context, query string) (GeocodeMatch, CurrentConditions, error)
}
