package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/xco2-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/xco2-etl/internal/adapter/kafka"
	"github.com/couchcryptid/xco2-etl/internal/adapter/netcdf"
	"github.com/couchcryptid/xco2-etl/internal/adapter/postgres"
	"github.com/couchcryptid/xco2-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/xco2-etl/internal/config"
	"github.com/couchcryptid/xco2-etl/internal/domain"
	"github.com/couchcryptid/xco2-etl/internal/observability"
	"github.com/couchcryptid/xco2-etl/internal/pipeline"
)

var ingestFlags struct {
	limit int
	sink  string
}

// newMetrics is swapped in tests to keep the default registry clean.
var newMetrics = observability.NewMetrics

var ingestCmd = &cobra.Command{
	Use:   "ingest [FILE...]",
	Short: "Load soundings from dataset files into the configured sink",
	Long: `Load soundings from the given netCDF files, in order. Without arguments the
files matching DATASET_PATTERN in DATA_DIR are ingested in lexical order.

Each record is added and committed on its own. The run stops at the first
malformed record or persistence error; rows committed before it stay.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestFlags.limit, "limit", config.NoLimit, "records to read per file (default all; overrides RECORD_LIMIT)")
	ingestCmd.Flags().StringVar(&ingestFlags.sink, "sink", "", "postgres, sqlite or kafka (overrides SINK)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("limit") {
		if ingestFlags.limit < 0 {
			return fmt.Errorf("--limit must be non-negative, got %d", ingestFlags.limit)
		}
		cfg.RecordLimit = ingestFlags.limit
	}
	if cmd.Flags().Changed("sink") {
		cfg.Sink = strings.ToLower(ingestFlags.sink)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	paths := args
	if len(paths) == 0 {
		paths, err = netcdf.DiscoverFiles(cfg.DataDir, cfg.DatasetPattern)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no files matching %q in %s", cfg.DatasetPattern, cfg.DataDir)
		}
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, closeSink, err := openSink(ctx, cfg, runID, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSink(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}()

	p := pipeline.New(datasetOpener, session, logger, newMetrics(), nil, cfg.RecordLimit)

	if cfg.HTTPAddr != "" {
		stopServer, err := httpadapter.NewServer(cfg.HTTPAddr, p, logger).Serve(cfg.ShutdownTimeout)
		if err != nil {
			return err
		}
		defer stopServer()
	}

	sum, err := p.Run(ctx, paths)
	fmt.Fprintf(cmd.OutOrStdout(), "%d points from %d of %d files committed to %s in %s\n",
		sum.Points, sum.Files, len(paths), cfg.Sink, sum.Duration.Round(time.Millisecond))
	return err
}

var datasetOpener = pipeline.OpenFunc(func(path string) (pipeline.Dataset, error) {
	ds, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	return ds, nil
})

// openSink returns the session for the configured sink and a function
// releasing its resources.
func openSink(ctx context.Context, cfg *config.Config, runID string, logger *slog.Logger) (domain.Session, func() error, error) {
	switch cfg.Sink {
	case config.SinkPostgres:
		pool, err := postgres.Connect(ctx, cfg.TargetDSN(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("database %s: %w", cfg.TargetDatabase, err)
		}
		logger.Info("writing to postgres", "database", cfg.TargetDatabase)
		return postgres.NewSession(pool), func() error { pool.Close(); return nil }, nil
	case config.SinkSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("writing to sqlite", "path", store.Path())
		return store.NewSession(), store.Close, nil
	case config.SinkKafka:
		w := kafkaadapter.NewWriter(cfg, runID, logger)
		logger.Info("writing to kafka", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
		return w, w.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}
