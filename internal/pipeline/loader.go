package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/xco2-etl/internal/domain"
	"github.com/couchcryptid/xco2-etl/internal/observability"
)

// PointSource is a pull-based sequence of points, such as *domain.Points.
type PointSource interface {
	Next() bool
	Point() domain.Point
	Err() error
}

// Loader drains a point sequence into a session, one commit per record.
// Records are never batched into a shared transaction: when a record fails,
// every record before it is already durable and stays so.
type Loader struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewLoader creates a Loader. A nil clock uses the real clock.
func NewLoader(logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Loader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loader{logger: logger, metrics: metrics, clock: clock}
}

// Load pulls points until the source is exhausted, adding and committing
// each one. It returns the number of committed records and stops at the
// first extraction, add or commit error, returning it unchanged in the chain.
func (l *Loader) Load(ctx context.Context, session domain.Session, points PointSource) (int, error) {
	loaded := 0
	for points.Next() {
		l.metrics.PointsExtracted.Inc()
		rec := domain.NewRecord(points.Point())

		start := l.clock.Now()
		if err := session.Add(ctx, rec); err != nil {
			return loaded, fmt.Errorf("add record %d (%s): %w", loaded, rec.Coordinates, err)
		}
		if err := session.Commit(ctx); err != nil {
			return loaded, fmt.Errorf("commit record %d (%s at %s): %w",
				loaded, rec.Coordinates, rec.Timestamp.Format("2006-01-02T15:04:05"), err)
		}
		l.metrics.CommitDuration.Observe(l.clock.Since(start).Seconds())
		l.metrics.PointsLoaded.Inc()
		loaded++
	}
	if err := points.Err(); err != nil {
		return loaded, err
	}
	l.logger.Debug("point sequence exhausted", "points", loaded)
	return loaded, nil
}
