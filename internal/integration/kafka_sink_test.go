//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	kafkaadapter "github.com/agridata/quickstats-etl/internal/adapter/kafka"
	"github.com/agridata/quickstats-etl/internal/adapter/quickstats"
	"github.com/agridata/quickstats-etl/internal/domain"
	"github.com/agridata/quickstats-etl/internal/observability"
	"github.com/agridata/quickstats-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "county-irrigation-test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-broker Kafka container and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("quickstats-etl-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestKafkaSinkRoundTrip runs a full pipeline cycle against a stub Quick
// Stats API and real Kafka, then reads the sink topic back and verifies the
// published rows.
func TestKafkaSinkRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	apiStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[
			{"agg_level_desc":"COUNTY","unit_desc":"ACRES","domaincat_desc":"AREA OPERATED: (2,000 OR MORE ACRES)","Value":"12,500","state_fips_code":"31","county_code":"001","county_name":"ADAMS","year":"2007","prodn_practice_desc":"IRRIGATED"},
			{"agg_level_desc":"COUNTY","unit_desc":"ACRES","domaincat_desc":"AREA OPERATED: (2,000 OR MORE ACRES)","Value":"50,000","state_fips_code":"31","county_code":"001","county_name":"ADAMS","year":"2007","prodn_practice_desc":"ALL PRODUCTION PRACTICES"}
		]}`)
	}))
	defer apiStub.Close()

	client, err := quickstats.NewClient("integration-key", apiStub.URL, 10*time.Second, discardLogger())
	require.NoError(t, err)

	writer := kafkaadapter.NewWriter([]string{broker}, testSinkTopic, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(
		client,
		[]pipeline.Loader{writer},
		domain.Query{Commodity: "CORN", MinYear: 2007},
		domain.NormalizeOptions{DomainCategory: "AREA OPERATED: (2,000 OR MORE ACRES)"},
		0,
		discardLogger(),
		observability.NewMetricsForTesting(),
	)
	require.NoError(t, p.Run(ctx))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	assert.Equal(t, []byte("31001"), msg.Key)

	var row domain.CountyIrrigation
	require.NoError(t, json.Unmarshal(msg.Value, &row))
	assert.Equal(t, "31001", row.RegionID)
	assert.Equal(t, 2007, row.Year)
	assert.Equal(t, 12500.0, row.IrrigatedAcres)
	assert.Equal(t, 50000.0, row.TotalAcres)
	assert.Equal(t, 25.0, row.PercentIrrigated)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "2007", headers["year"])
	_, err = time.Parse(time.RFC3339, headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")
}
