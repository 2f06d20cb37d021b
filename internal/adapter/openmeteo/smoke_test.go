//go:build openmeteo

package openmeteo

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the public Open-Meteo API.
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func smokeClient() *Client {
	return NewClient(Options{Timeout: 10 * time.Second}, observability.NewMetricsForTesting(), discardLogger())
}

func TestSmoke_SearchCity(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	matches, err := smokeClient().SearchCity(ctx, "Paris")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.LessOrEqual(t, len(matches), 5)
	assert.Equal(t, "France", matches[0].Country)
	assert.InDelta(t, 48.85, matches[0].Latitude, 0.1)
}

func TestSmoke_SearchCity_NotFound(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := smokeClient().SearchCity(ctx, "Zzzzqxqzzq")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSmoke_ResolveWeatherForCity(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	city, cond, err := smokeClient().ResolveWeatherForCity(ctx, "Reykjavik")
	require.NoError(t, err)
	assert.Equal(t, "Iceland", city.Country)
	assert.NotEmpty(t, cond.Timezone)
	t.Logf("%s: %.1f°C code=%d category=%s", city.DisplayName(), cond.TemperatureC, cond.WeatherCode, domain.Classify(cond.WeatherCode))
}
