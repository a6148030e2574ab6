//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/couchcryptid/xco2-etl/internal/adapter/netcdf"
)

const (
	postgisImage = "postgis/postgis:16-3.4"
	kafkaImage   = "confluentinc/confluent-local:7.5.0"
)

// Longitudes stay within ±90 so PostGIS does not coerce the second ordinate
// of the lat-first geography literal.
var fixtureRows = []netcdf.FixtureRow{
	{Latitude: 12.5, Longitude: -45.25, XCO2: 398.5, Date: [7]int16{2015, 3, 1, 18, 2, 11, 400}},
	{Latitude: -33.75, Longitude: 60.125, XCO2: 401.25, Date: [7]int16{2015, 3, 1, 18, 2, 12, 0}},
	{Latitude: 0.5, Longitude: 0.25, XCO2: 399, Date: [7]int16{2015, 3, 1, 18, 2, 13, 999}},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oco2_LtCO2_150301_it.nc4")
	require.NoError(t, netcdf.WriteFixture(path, fixtureRows, map[string]string{"title": "integration"}))
	return path
}

// startPostGIS starts a PostGIS container and returns its connection string.
func startPostGIS(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := postgres.Run(ctx,
		postgisImage,
		postgres.WithUsername("etl"),
		postgres.WithPassword("etl"),
		postgres.WithDatabase("gis"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgis")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// startKafka starts a single-node Kafka container and returns a broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("xco2-it"))
	require.NoError(t, err, "start kafka")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
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
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}
