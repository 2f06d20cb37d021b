package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/weathernow-service/internal/config"
	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/observability"
	"github.com/couchcryptid/weathernow-service/internal/search"
	kafkago "github.com/segmentio/kafka-go"
)

// TransitionEvent is the message value published for each finished search.
type TransitionEvent struct {
	Phase     search.Phase               `json:"phase"`
	Query     string                     `json:"query"`
	Seq       uint64                     `json:"seq"`
	Result    *domain.WeatherQueryResult `json:"result,omitempty"`
	Kind      domain.ErrorKind           `json:"kind,omitempty"`
	Message   string                     `json:"message,omitempty"`
	EmittedAt time.Time                  `json:"emitted_at"`
}

// Publisher writes Result and Error transitions of a search.Controller to a
// Kafka topic. Writes are asynchronous so a slow broker never holds up the
// controller; delivery failures are logged.
type Publisher struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	logger = logger.With("component", "kafka")
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Async:        true,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				logger.Error("publish search transitions failed", "messages", len(msgs), "error", err)
			}
		},
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// Handle is a search.Listener. Idle and Loading transitions are ignored.
func (p *Publisher) Handle(s search.State) {
	if s.Phase != search.PhaseResult && s.Phase != search.PhaseError {
		return
	}
	msg, err := serializeToMessage(s, domain.Now().UTC())
	if err != nil {
		p.logger.Error("serialize search transition", "error", err)
		return
	}
	// Async writers return immediately; errors surface through Completion.
	if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
		p.logger.Error("enqueue search transition", "error", err)
		return
	}
	p.metrics.TransitionsPublished.WithLabelValues(string(s.Phase)).Inc()
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a search state into a Kafka message keyed by
// query, so transitions for the same city land on the same partition.
func serializeToMessage(s search.State, emittedAt time.Time) (kafkago.Message, error) {
	event := TransitionEvent{
		Phase:     s.Phase,
		Query:     s.Query,
		Seq:       s.Seq,
		Result:    s.Result,
		Kind:      s.Kind,
		Message:   s.Message,
		EmittedAt: emittedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize search transition: %w", err)
	}

	headers := []kafkago.Header{
		{Key: "phase", Value: []byte(s.Phase)},
		{Key: "seq", Value: []byte(strconv.FormatUint(s.Seq, 10))},
	}
	if s.Result != nil {
		headers = append(headers, kafkago.Header{Key: "category", Value: []byte(s.Result.Category)})
	}
	headers = append(headers, kafkago.Header{Key: "emitted_at", Value: []byte(emittedAt.Format(time.RFC3339))})

	return kafkago.Message{
		Key:     []byte(s.Query),
		Value:   data,
		Headers: headers,
	}, nil
}
