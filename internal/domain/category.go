package domain

import (
	"fmt"
	"strings"
)

// WeatherCategory is one of the four weather buckets a photo can be assigned to.
// The string value is the canonical name used as the persisted map key.
type WeatherCategory string

const (
	CategoryClear WeatherCategory = "Clear"
	CategoryRain  WeatherCategory = "Rain"
	CategorySnow  WeatherCategory = "Snow"
	CategoryFog   WeatherCategory = "Fog"
)

// AllCategories returns every category in canonical order.
func AllCategories() []WeatherCategory {
	return []WeatherCategory{CategoryClear, CategoryRain, CategorySnow, CategoryFog}
}

// Valid reports whether c is one of the four known categories.
func (c WeatherCategory) Valid() bool {
	switch c {
	case CategoryClear, CategoryRain, CategorySnow, CategoryFog:
		return true
	}
	return false
}

// Icon returns the symbol name presentation layers use for the category.
func (c WeatherCategory) Icon() string {
	switch c {
	case CategoryRain:
		return "cloud.rain.fill"
	case CategorySnow:
		return "cloud.snow.fill"
	case CategoryFog:
		return "cloud.fog.fill"
	default:
		return "sun.max.fill"
	}
}

// ParseCategory matches s against the canonical names, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (WeatherCategory, error) {
	s = strings.TrimSpace(s)
	for _, c := range AllCategories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", &Error{Kind: KindInvalidInput, Op: "parse category", Err: fmt.Errorf("unknown weather category %q", s)}
}

// Classify maps an Open-Meteo WMO weather code to a category.
// Unknown codes fall back to Clear so rendering is never blocked.
func Classify(code int) WeatherCategory {
	switch code {
	case 0, 1, 2, 3:
		return CategoryClear
	case 45, 48:
		return CategoryFog
	case 51, 53, 55, 56, 57, // drizzle, freezing drizzle
		61, 63, 65, 66, 67, // rain, freezing rain
		80, 81, 82, // rain showers
		95, 96, 99: // thunderstorm
		return CategoryRain
	case 71, 73, 75, 77, 85, 86:
		return CategorySnow
	default:
		return CategoryClear
	}
}
