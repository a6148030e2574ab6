package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/xco2-etl/internal/domain"
)

type fakeWriter struct {
	batches [][]kafkago.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, msgs)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var publishedAt = time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

func testRecord() domain.Record {
	return domain.NewRecord(domain.Point{
		Timestamp: time.Date(2015, 3, 1, 18, 2, 11, 0, time.UTC),
		XCO2:      398.5,
		Latitude:  12.5,
		Longitude: -97.25,
	})
}

func newTestWriter(fw *fakeWriter) *Writer {
	return &Writer{writer: fw, logger: slog.Default(), runID: "run-1", now: func() time.Time { return publishedAt }}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(testRecord(), "run-1", publishedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("2015-03-01T18:02:11Z|SRID=4326;POINT(12.5 -97.25)"), msg.Key)

	var got domain.Record
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, testRecord(), got)
	assert.Contains(t, string(msg.Value), `"pixels":"SRID=3857;POINT(12.5 -97.25)"`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, "published_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(publishedAt.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestWriter_CommitPublishesStaged(t *testing.T) {
	fw := &fakeWriter{}
	w := newTestWriter(fw)
	ctx := context.Background()

	require.NoError(t, w.Add(ctx, testRecord()))
	require.NoError(t, w.Commit(ctx))
	require.Len(t, fw.batches, 1)
	assert.Len(t, fw.batches[0], 1)

	require.NoError(t, w.Commit(ctx))
	assert.Len(t, fw.batches, 1, "empty commit publishes nothing")
}

func TestWriter_CommitError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	w := newTestWriter(fw)
	ctx := context.Background()

	require.NoError(t, w.Add(ctx, testRecord()))
	err := w.Commit(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish 1 records")

	fw.err = nil
	require.NoError(t, w.Commit(ctx))
	assert.Empty(t, fw.batches, "failed commit clears staged records")
}

func TestWriter_CommitLogsOutcome(t *testing.T) {
	var logs bytes.Buffer
	fw := &fakeWriter{}
	w := newTestWriter(fw)
	w.logger = slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	require.NoError(t, w.Add(ctx, testRecord()))
	require.NoError(t, w.Commit(ctx))
	assert.Contains(t, logs.String(), `"msg":"records published","records":1`)

	fw.err = errors.New("leader not available")
	require.NoError(t, w.Add(ctx, testRecord()))
	require.Error(t, w.Commit(ctx))
	assert.Contains(t, logs.String(), `"msg":"kafka publish failed","records":1,"error":"leader not available"`)
}

func TestWriter_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, newTestWriter(fw).Close())
	assert.True(t, fw.closed)
}
