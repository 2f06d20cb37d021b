package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestGeocodeMatch_DisplayName(t *testing.T) {
	withRegion := GeocodeMatch{Name: "Paris", Admin1: "Île-de-France", Country: "France"}
	assert.Equal(t, "Paris, Île-de-France, France", withRegion.DisplayName())

	noRegion := GeocodeMatch{Name: "Monaco", Country: "Monaco"}
	assert.Equal(t, "Monaco, Monaco", noRegion.DisplayName())
}

func TestNewWeatherQueryResult(t *testing.T) {
	fixed := time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	match := GeocodeMatch{ID: 2988507, Name: "Paris", Admin1: "Île-de-France", Country: "France", Latitude: 48.8566, Longitude: 2.3522}
	cond := CurrentConditions{TemperatureC: 12.4, WeatherCode: 61, Precipitation: 0.6, Timezone: "Europe/Paris"}

	r := NewWeatherQueryResult(match, cond)

	assert.Equal(t, "Paris", r.CityName)
	assert.Equal(t, "Paris, Île-de-France, France", r.DisplayName)
	assert.Equal(t, "France", r.Country)
	assert.Equal(t, 48.8566, r.Latitude)
	assert.Equal(t, 2.3522, r.Longitude)
	assert.Equal(t, CategoryRain, r.Category)
	assert.Equal(t, cond, r.Conditions)
	assert.Equal(t, fixed, r.RetrievedAt)
	assert.Equal(t, "12°C", r.TemperatureLabel())
	assert.Equal(t, "Rain: 1%", r.PrecipitationLabel())
}
