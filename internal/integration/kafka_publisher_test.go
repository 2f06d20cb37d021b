//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkaadapter "github.com/couchcryptid/weathernow-service/internal/adapter/kafka"
	"github.com/couchcryptid/weathernow-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/weathernow-service/internal/config"
	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/observability"
	"github.com/couchcryptid/weathernow-service/internal/search"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "weather-search-results-test"

// TestSearchTransitionsPublished drives a search against a fake provider and
// reads the published Result transition back from Kafka.
func TestSearchTransitionsPublished(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	brokers := startKafka(ctx, t)
	createTopic(t, brokers[0], testTopic)

	metrics := observability.NewMetricsForTesting()
	logger := discardLogger()
	provider := fakeOpenMeteo(t, 73)

	cfg := &config.Config{KafkaBrokers: brokers, KafkaTopic: testTopic}
	publisher := kafkaadapter.NewPublisher(cfg, metrics, logger)

	gateway := openmeteo.NewClient(openmeteo.Options{
		GeocodingURL: provider.URL,
		ForecastURL:  provider.URL,
		Timeout:      5 * time.Second,
	}, metrics, logger)
	controller := search.New(gateway, metrics, logger)
	controller.Subscribe(publisher.Handle)

	controller.SetQuery("Paris")
	st := controller.Submit(ctx)
	require.Equal(t, search.PhaseResult, st.Phase)

	controller.SetQuery("   ")
	st = controller.Submit(ctx)
	require.Equal(t, search.PhaseError, st.Phase)

	// Close flushes the async writer.
	require.NoError(t, publisher.Close())

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   brokers,
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer consumer.Close()

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read result transition")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "Paris", string(msg.Key))
	assert.Equal(t, "result", headers["phase"])
	assert.Equal(t, "Snow", headers["category"])
	assert.Equal(t, "1", headers["seq"])

	var event kafkaadapter.TransitionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	require.NotNil(t, event.Result)
	assert.Equal(t, "Paris, Île-de-France, France", event.Result.DisplayName)
	assert.Equal(t, domain.CategorySnow, event.Result.Category)

	msg, err = consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read error transition")

	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, search.PhaseError, event.Phase)
	assert.Equal(t, domain.KindInvalidInput, event.Kind)
	assert.Equal(t, "empty query", event.Message)
}
