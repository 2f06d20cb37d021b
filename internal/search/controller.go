// Package search drives a weather search through its idle, loading, result
// and error phases.
//
// A Controller runs at most one provider call at a time. Every submission
// takes a new sequence number and a completion is applied only if its number
// is still current, so a slow response from a search abandoned by Reset can
// never overwrite the outcome of a newer one.
package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/observability"
)

// Phase is the controller's position in the search state machine.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseResult  Phase = "result"
	PhaseError   Phase = "error"
)

// State is an immutable snapshot of a Controller.
type State struct {
	Phase   Phase                      `json:"phase"`
	Query   string                     `json:"query"`
	Result  *domain.WeatherQueryResult `json:"result,omitempty"`
	Message string                     `json:"message,omitempty"`
	Kind    domain.ErrorKind           `json:"kind,omitempty"`
	Err     error                      `json:"-"`
	Seq     uint64                     `json:"seq"`
}

// Listener receives every state transition in order. Listeners run on the
// goroutine that caused the transition and must not call back into the
// Controller's mutating methods.
type Listener func(State)

// Controller owns the search state for one user session.
type Controller struct {
	gateway domain.WeatherGateway
	metrics *observability.Metrics
	logger  *slog.Logger

	mu        sync.Mutex
	state     State
	seq       uint64
	listeners map[int]Listener
	nextID    int

	// notifyMu is taken before mu is released so listeners see transitions
	// in the order they were applied.
	notifyMu sync.Mutex
}

// New creates a Controller in the idle phase.
func New(gateway domain.WeatherGateway, metrics *observability.Metrics, logger *slog.Logger) *Controller {
	return &Controller{
		gateway:   gateway,
		metrics:   metrics,
		logger:    logger.With("component", "search"),
		state:     State{Phase: PhaseIdle},
		listeners: make(map[int]Listener),
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetQuery replaces the held query text. It does not change the phase.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = q
}

// Subscribe registers fn for future transitions and returns a function that
// removes it.
func (c *Controller) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Submit searches for the held query and blocks until the provider answers.
// It returns the state as of completion, which may belong to a newer search
// if this one was superseded. A Submit while another search is loading is a
// no-op that returns the current state.
func (c *Controller) Submit(ctx context.Context) State {
	c.mu.Lock()
	if c.state.Phase == PhaseLoading {
		s := c.state
		c.mu.Unlock()
		c.logger.Debug("submit ignored, search already in flight", "seq", s.Seq)
		return s
	}

	c.seq++
	seq := c.seq
	query := strings.TrimSpace(c.state.Query)

	if query == "" {
		err := &domain.Error{Kind: domain.KindInvalidInput, Op: "submit", Err: domain.ErrEmptyQuery}
		c.state = errorState(c.state.Query, seq, err)
		s := c.state
		c.transitionLocked()
		c.metrics.Searches.WithLabelValues("error").Inc()
		return s
	}

	c.state = State{Phase: PhaseLoading, Query: c.state.Query, Seq: seq}
	c.transitionLocked()

	c.metrics.SearchesInFlight.Inc()
	start := time.Now()
	match, cond, err := c.gateway.ResolveWeatherForCity(ctx, query)
	c.metrics.SearchesInFlight.Dec()
	c.metrics.SearchDuration.Observe(time.Since(start).Seconds())

	return c.complete(seq, query, match, cond, err)
}

// Retry re-submits the held query. It is a no-op while loading.
func (c *Controller) Retry(ctx context.Context) State {
	return c.Submit(ctx)
}

// Reset clears any result or error and returns to idle. A search still in
// flight is not cancelled; its completion is discarded.
func (c *Controller) Reset() State {
	c.mu.Lock()
	c.seq++
	c.state = State{Phase: PhaseIdle, Query: c.state.Query, Seq: c.seq}
	s := c.state
	c.transitionLocked()
	return s
}

func (c *Controller) complete(seq uint64, query string, match domain.GeocodeMatch, cond domain.CurrentConditions, err error) State {
	c.mu.Lock()
	if seq != c.seq {
		s := c.state
		c.mu.Unlock()
		c.metrics.StaleCompletions.Inc()
		c.logger.Debug("discarding stale search completion", "query", query, "seq", seq, "current_seq", s.Seq)
		return s
	}

	if err != nil {
		if domain.KindOf(err) == "" {
			err = &domain.Error{Kind: domain.KindTransport, Op: "resolve weather", Err: err}
		}
		c.state = errorState(c.state.Query, seq, err)
		c.logger.Warn("weather search failed", "query", query, "kind", c.state.Kind, "error", err)
		c.metrics.Searches.WithLabelValues("error").Inc()
	} else {
		result := domain.NewWeatherQueryResult(match, cond)
		c.state = State{Phase: PhaseResult, Query: c.state.Query, Result: &result, Seq: seq}
		c.logger.Info("weather search completed",
			"query", query,
			"city", result.DisplayName,
			"category", result.Category,
			"weather_code", cond.WeatherCode,
		)
		c.metrics.Searches.WithLabelValues("result").Inc()
	}

	s := c.state
	c.transitionLocked()
	return s
}

// transitionLocked delivers the current state to listeners and releases mu.
// The caller must hold mu.
func (c *Controller) transitionLocked() {
	s := c.state
	listeners := make([]Listener, 0, len(c.listeners))
	for _, id := range c.sortedListenerIDs() {
		listeners = append(listeners, c.listeners[id])
	}

	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func (c *Controller) sortedListenerIDs() []int {
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func errorState(query string, seq uint64, err error) State {
	return State{
		Phase:   PhaseError,
		Query:   query,
		Message: domain.UserMessage(err),
		Kind:    domain.KindOf(err),
		Err:     err,
		Seq:     seq,
	}
}
