package openmeteo

import "github.com/couchcryptid/weathernow-service/internal/domain"

// Open-Meteo API response types. Pointer fields distinguish a missing value
// from a legitimate zero (latitude 0, weather code 0).

type geocodingResponse struct {
	Results []geocodingResult `json:"results" validate:"dive"`
}

type geocodingResult struct {
	ID        *int     `json:"id" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Country   string   `json:"country" validate:"required"`
	Admin1    string   `json:"admin1"`
}

func (r geocodingResult) toDomain() domain.GeocodeMatch {
	return domain.GeocodeMatch{
		ID:        *r.ID,
		Name:      r.Name,
		Country:   r.Country,
		Admin1:    r.Admin1,
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
	}
}

type forecastResponse struct {
	Latitude  *float64       `json:"latitude" validate:"required"`
	Longitude *float64       `json:"longitude" validate:"required"`
	Timezone  string         `json:"timezone"`
	Current   *currentValues `json:"current" validate:"required"`
}

type currentValues struct {
	Temperature2m *float64 `json:"temperature_2m" validate:"required"`
	WeatherCode   *int     `json:"weather_code" validate:"required"`
	Precipitation *float64 `json:"precipitation" validate:"required"`
}

func (r forecastResponse) toDomain() domain.CurrentConditions {
	return domain.CurrentConditions{
		TemperatureC:  *r.Current.Temperature2m,
		WeatherCode:   *r.Current.WeatherCode,
		Precipitation: *r.Current.Precipitation,
		Timezone:      r.Timezone,
	}
}
