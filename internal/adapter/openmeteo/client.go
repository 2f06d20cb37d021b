package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/observability"
	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker/v2"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com"
	DefaultForecastURL  = "https://api.open-meteo.com"

	stepGeocode  = "geocode"
	stepForecast = "forecast"

	maxCandidates = 5
	maxBodyBytes  = 1 << 20
	maxErrorBody  = 512
)

// Options configures a Client. Zero values fall back to the public Open-Meteo hosts.
type Options struct {
	GeocodingURL   string
	ForecastURL    string
	Timeout        time.Duration
	BreakerEnabled bool
}

// Client implements domain.WeatherGateway against the Open-Meteo geocoding and
// forecast APIs. Each step issues exactly one request; nothing is retried.
type Client struct {
	httpClient   *http.Client
	geocodingURL string
	forecastURL  string
	geocodeCB    *gobreaker.CircuitBreaker[*http.Response]
	forecastCB   *gobreaker.CircuitBreaker[*http.Response]
	validate     *validator.Validate
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates an Open-Meteo client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if opts.GeocodingURL == "" {
		opts.GeocodingURL = DefaultGeocodingURL
	}
	if opts.ForecastURL == "" {
		opts.ForecastURL = DefaultForecastURL
	}
	c := &Client{
		httpClient:   &http.Client{Timeout: opts.Timeout},
		geocodingURL: strings.TrimRight(opts.GeocodingURL, "/"),
		forecastURL:  strings.TrimRight(opts.ForecastURL, "/"),
		validate:     validator.New(),
		metrics:      metrics,
		logger:       logger.With("component", "openmeteo"),
	}
	if opts.BreakerEnabled {
		c.geocodeCB = newBreaker("openmeteo-geocoding", c.logger)
		c.forecastCB = newBreaker("openmeteo-forecast", c.logger)
	}
	return c
}

// SearchCity looks up at most five candidate cities for query, in provider
// relevance order.
func (c *Client) SearchCity(ctx context.Context, query string) ([]domain.GeocodeMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.Error{Kind: domain.KindInvalidInput, Op: "search city", Err: domain.ErrEmptyQuery}
	}

	params := url.Values{
		"name":     {query},
		"count":    {strconv.Itoa(maxCandidates)},
		"language": {"en"},
		"format":   {"json"},
	}

	var payload geocodingResponse
	if err := c.get(ctx, stepGeocode, c.geocodeCB, c.geocodingURL+"/v1/search?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	if len(payload.Results) == 0 {
		c.record(stepGeocode, "not_found")
		return nil, &domain.Error{Kind: domain.KindNotFound, Op: "search city", Err: fmt.Errorf("no match for %q", query)}
	}

	matches := make([]domain.GeocodeMatch, len(payload.Results))
	for i, r := range payload.Results {
		matches[i] = r.toDomain()
	}
	c.record(stepGeocode, "success")
	return matches, nil
}

// FetchConditions returns the current temperature, weather code and
// precipitation for a coordinate.
func (c *Client) FetchConditions(ctx context.Context, lat, lon float64) (domain.CurrentConditions, error) {
	params := url.Values{
		"latitude":         {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":        {strconv.FormatFloat(lon, 'f', -1, 64)},
		"current":          {"temperature_2m,weather_code,precipitation"},
		"temperature_unit": {"celsius"},
		"timezone":         {"auto"},
	}

	var payload forecastResponse
	if err := c.get(ctx, stepForecast, c.forecastCB, c.forecastURL+"/v1/forecast?"+params.Encode(), &payload); err != nil {
		return domain.CurrentConditions{}, err
	}

	c.record(stepForecast, "success")
	return payload.toDomain(), nil
}

// ResolveWeatherForCity searches for query, takes the first candidate and
// fetches its current conditions. Errors from either step are returned as is.
func (c *Client) ResolveWeatherForCity(ctx context.Context, query string) (domain.GeocodeMatch, domain.CurrentConditions, error) {
	matches, err := c.SearchCity(ctx, query)
	if err != nil {
		return domain.GeocodeMatch{}, domain.CurrentConditions{}, err
	}
	city := matches[0]

	cond, err := c.FetchConditions(ctx, city.Latitude, city.Longitude)
	if err != nil {
		return domain.GeocodeMatch{}, domain.CurrentConditions{}, err
	}

	c.logger.Debug("resolved weather",
		"query", query,
		"city", city.DisplayName(),
		"weather_code", cond.WeatherCode,
		"candidates", len(matches),
	)
	return city, cond, nil
}

// get performs one GET request, decodes the JSON body into dst and checks it
// against its validate tags. All failures come back as *domain.Error.
func (c *Client) get(ctx context.Context, step string, cb *gobreaker.CircuitBreaker[*http.Response], fullURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return c.fail(step, "transport", &domain.Error{Kind: domain.KindTransport, Op: step, Err: fmt.Errorf("create request: %w", err)})
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.execute(cb, req)
	c.metrics.ProviderDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return c.fail(step, "malformed", &domain.Error{Kind: domain.KindMalformedResponse, Op: step, Err: se})
		}
		return c.fail(step, "transport", &domain.Error{Kind: domain.KindTransport, Op: step, Err: err})
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return c.fail(step, "malformed", &domain.Error{Kind: domain.KindMalformedResponse, Op: step, Err: fmt.Errorf("decode response: %w", err)})
	}
	if err := c.validate.Struct(dst); err != nil {
		return c.fail(step, "malformed", &domain.Error{Kind: domain.KindMalformedResponse, Op: step, Err: fmt.Errorf("unexpected response shape: %w", err)})
	}
	return nil
}

// execute sends req, through the breaker when one is configured. Non-2xx
// responses are drained, closed and returned as *statusError.
func (c *Client) execute(cb *gobreaker.CircuitBreaker[*http.Response], req *http.Request) (*http.Response, error) {
	do := func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
		}
		return resp, nil
	}
	if cb == nil {
		return do()
	}
	return cb.Execute(do)
}

func (c *Client) fail(step, outcome string, err *domain.Error) error {
	c.record(step, outcome)
	c.logger.Warn("open-meteo request failed", "step", step, "kind", err.Kind, "error", err.Err)
	return err
}

func (c *Client) record(step, outcome string) {
	c.metrics.ProviderRequests.WithLabelValues(step, outcome).Inc()
}

// statusError reports a non-2xx response from the provider.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("open-meteo API error: status %d", e.code)
	}
	return fmt.Sprintf("open-meteo API error: status %d: %s", e.code, e.body)
}

var _ domain.WeatherGateway = (*Client)(nil)
