package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/xco2-etl/internal/adapter/postgres"
	"github.com/couchcryptid/xco2-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/xco2-etl/internal/config"
)

var createTablesFlags struct {
	database string
}

var createTablesCmd = &cobra.Command{
	Use:   "createtables",
	Short: "Create the t_co2 table and its spatial indexes",
	Long: `Create the PostGIS extension, the t_co2 table, its GiST indexes and the
uix_time_coords unique constraint in every configured database, or in the
one named by --database. With SINK=sqlite the table is created in SQLITE_PATH.
Existing tables are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runCreateTables,
}

func init() {
	createTablesCmd.Flags().StringVar(&createTablesFlags.database, "database", "", "only this named database")
	rootCmd.AddCommand(createTablesCmd)
}

func runCreateTables(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	switch cfg.Sink {
	case config.SinkSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "t_co2 ready in %s\n", store.Path())
		return store.Close()
	case config.SinkKafka:
		return fmt.Errorf("createtables needs a database sink, SINK is %s", cfg.Sink)
	}

	names := cfg.DatabaseNames()
	if createTablesFlags.database != "" {
		if _, ok := cfg.Databases[createTablesFlags.database]; !ok {
			return fmt.Errorf("database %q is not configured", createTablesFlags.database)
		}
		names = []string{createTablesFlags.database}
	}

	for _, name := range names {
		pool, err := postgres.Connect(ctx, cfg.Databases[name], logger)
		if err != nil {
			return fmt.Errorf("database %s: %w", name, err)
		}
		err = postgres.EnsureSchema(ctx, pool)
		pool.Close()
		if err != nil {
			return fmt.Errorf("database %s: %w", name, err)
		}
		logger.Info("table created", "database", name, "table", postgres.TableName)
		fmt.Fprintf(cmd.OutOrStdout(), "t_co2 ready in %s\n", name)
	}
	return nil
}
