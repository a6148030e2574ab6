package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/xco2-etl/internal/domain"
	"github.com/couchcryptid/xco2-etl/internal/observability"
)

// Dataset is an opened dataset file.
type Dataset interface {
	domain.Dataset
	io.Closer
}

// DatasetOpener opens dataset files by path.
type DatasetOpener interface {
	Open(path string) (Dataset, error)
}

// OpenFunc adapts a function to DatasetOpener.
type OpenFunc func(path string) (Dataset, error)

func (f OpenFunc) Open(path string) (Dataset, error) { return f(path) }

// Summary reports what a run ingested.
type Summary struct {
	Files    int
	Points   int
	Duration time.Duration
}

// Progress is a snapshot of an ingestion run.
type Progress struct {
	Running     bool   `json:"running"`
	CurrentFile string `json:"current_file,omitempty"`
	FilesTotal  int    `json:"files_total"`
	FilesDone   int    `json:"files_done"`
	Points      int64  `json:"points_committed"`
	LastError   string `json:"last_error,omitempty"`
}

// Pipeline ingests dataset files into a session, file by file.
type Pipeline struct {
	opener    DatasetOpener
	session   domain.Session
	loader    *Loader
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	limit     int
	committed atomic.Int64

	mu       sync.Mutex
	progress Progress
}

// New creates a Pipeline. limit caps the records read per file; pass
// domain.NoLimit to read every record. A nil clock uses the real clock.
func New(opener DatasetOpener, session domain.Session, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, limit int) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	p := &Pipeline{
		opener:  opener,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
		limit:   limit,
		loader:  NewLoader(logger, metrics, clock),
	}
	p.session = &countingSession{Session: session, committed: &p.committed}
	return p
}

// CheckReadiness returns nil once at least one record has been committed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.committed.Load() == 0 {
		return errors.New("pipeline has not committed any records yet")
	}
	return nil
}

// Progress returns the current state of the run. It is safe to call while
// Run is in progress.
func (p *Pipeline) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr := p.progress
	pr.Points = p.committed.Load()
	return pr
}

func (p *Pipeline) update(fn func(*Progress)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.progress)
}

// Run ingests the files in order and stops at the first error. Records
// committed before the error remain in the sink.
func (p *Pipeline) Run(ctx context.Context, paths []string) (Summary, error) {
	p.logger.Info("pipeline started", "files", len(paths), "limit", p.limit)
	p.metrics.PipelineRunning.Set(1)
	p.update(func(pr *Progress) {
		*pr = Progress{Running: true, FilesTotal: len(paths)}
	})
	defer func() {
		p.metrics.PipelineRunning.Set(0)
		p.update(func(pr *Progress) {
			pr.Running = false
			pr.CurrentFile = ""
		})
	}()

	start := p.clock.Now()
	var sum Summary
	for _, path := range paths {
		n, err := p.IngestFile(ctx, path)
		sum.Points += n
		if err != nil {
			sum.Duration = p.clock.Since(start)
			p.update(func(pr *Progress) { pr.LastError = err.Error() })
			return sum, err
		}
		sum.Files++
		p.update(func(pr *Progress) { pr.FilesDone++ })
	}
	sum.Duration = p.clock.Since(start)
	p.logger.Info("pipeline finished", "files", sum.Files, "points", sum.Points, "duration", sum.Duration)
	return sum, nil
}

// IngestFile opens one dataset, loads its points and closes it on every exit
// path. A close failure is reported alongside any load error.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (n int, err error) {
	start := p.clock.Now()
	logger := p.logger.With("file", path)
	p.update(func(pr *Progress) { pr.CurrentFile = path })

	ds, err := p.opener.Open(path)
	if err != nil {
		p.metrics.LoadErrors.Inc()
		return 0, err
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close dataset %s: %w", path, cerr))
		}
		if err != nil {
			p.metrics.LoadErrors.Inc()
			logger.Error("file ingestion failed", "points", n, "error", err)
		}
	}()

	points, err := domain.Extract(ds, p.limit)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("ingesting file", "records", points.Len())

	n, err = p.loader.Load(ctx, p.session, points)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}

	elapsed := p.clock.Since(start)
	p.metrics.FilesProcessed.Inc()
	p.metrics.FileIngestDuration.Observe(elapsed.Seconds())
	logger.Info("file ingested", "points", n, "duration", elapsed)
	return n, nil
}

// countingSession counts successful commits. The loader commits once per
// record, so the count is the number of records made durable.
type countingSession struct {
	domain.Session
	committed *atomic.Int64
}

func (s *countingSession) Commit(ctx context.Context) error {
	if err := s.Session.Commit(ctx); err != nil {
		return err
	}
	s.committed.Add(1)
	return nil
}
