package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Sinks a run can write to.
const (
	SinkPostgres = "postgres"
	SinkSQLite   = "sqlite"
	SinkKafka    = "kafka"
)

// NoLimit means every record of a file is ingested.
const NoLimit = -1

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir        string
	DatasetPattern string
	RecordLimit    int

	Sink           string
	Databases      map[string]string // name -> DSN
	TargetDatabase string
	SQLitePath     string

	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	limit, err := parseRecordLimit()
	if err != nil {
		return nil, err
	}

	databases, err := loadDatabases()
	if err != nil {
		return nil, err
	}

	httpAddr := ":8080"
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		httpAddr = strings.TrimSpace(v)
	}

	cfg := &Config{
		DataDir:        sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		DatasetPattern: sharedcfg.EnvOrDefault("DATASET_PATTERN", "*.nc4"),
		RecordLimit:    limit,

		Sink:           strings.ToLower(sharedcfg.EnvOrDefault("SINK", SinkPostgres)),
		Databases:      databases,
		TargetDatabase: sharedcfg.EnvOrDefault("TARGET_DATABASE", "gis"),
		SQLitePath:     sharedcfg.EnvOrDefault("SQLITE_PATH", "xco2.db"),

		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "xco2-points"),

		HTTPAddr:        httpAddr,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that depend on the selected sink.
func (c *Config) Validate() error {
	switch c.Sink {
	case SinkPostgres:
		if _, ok := c.Databases[c.TargetDatabase]; !ok {
			return fmt.Errorf("TARGET_DATABASE %q is not configured (have %s)", c.TargetDatabase, strings.Join(c.DatabaseNames(), ", "))
		}
	case SinkSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite sink")
		}
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka sink")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_SINK_TOPIC is required for the kafka sink")
		}
	default:
		return fmt.Errorf("unknown SINK %q (want %s, %s or %s)", c.Sink, SinkPostgres, SinkSQLite, SinkKafka)
	}
	if c.RecordLimit < NoLimit {
		return fmt.Errorf("invalid RECORD_LIMIT %d", c.RecordLimit)
	}
	return nil
}

// DatabaseNames returns the configured database names, sorted.
func (c *Config) DatabaseNames() []string {
	names := make([]string, 0, len(c.Databases))
	for name := range c.Databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TargetDSN returns the connection string of the target database.
func (c *Config) TargetDSN() string {
	return c.Databases[c.TargetDatabase]
}

func parseRecordLimit() (int, error) {
	s := strings.TrimSpace(os.Getenv("RECORD_LIMIT"))
	if s == "" {
		return NoLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid RECORD_LIMIT: must be a non-negative integer")
	}
	return n, nil
}
