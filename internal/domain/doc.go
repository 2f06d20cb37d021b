// Package domain models the weather side of WeatherNow: weather categories and
// the classifier that derives them, the city and conditions types returned by
// the weather provider, and the classified error kinds every search can fail with.
//
// # Weather codes
//
// Conditions carry a WMO weather interpretation code as reported by Open-Meteo.
// [Classify] folds them into four categories:
//
//	Clear: 0-3 (clear sky, mainly clear, partly cloudy, overcast)
//	Fog:   45, 48
//	Rain:  drizzle 51-57, rain 61-67, showers 80-82, thunderstorm 95-99
//	Snow:  71-77, snow showers 85-86
//
// Any other code is treated as Clear so a new or unexpected code never blocks
// rendering.
//
// # Errors
//
// Failures are reported as [*Error] values with one of four kinds. Callers test
// them with errors.Is against [ErrInvalidInput], [ErrNotFound],
// [ErrMalformedResponse] and [ErrTransport], or read the kind with [KindOf].
package domain
