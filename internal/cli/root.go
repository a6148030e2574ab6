// Package cli implements the xco2-etl command line.
package cli

import (
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/xco2-etl/internal/config"
	"github.com/couchcryptid/xco2-etl/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "xco2-etl",
	Short: "Load OCO-2 XCO2 soundings from netCDF files into PostGIS",
	Long: `xco2-etl reads column-averaged CO2 soundings (latitude, longitude, xco2,
date) from OCO-2 Lite netCDF files and writes one row per sounding to the
t_co2 table, with the position stored as a geography (SRID 4326) and a
geometry (SRID 3857) point. Every row is committed on its own.

Configuration comes from the environment and an optional .env file in the
working directory. See "xco2-etl ingest --help".`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment (ignored if missing)")
}

// loadConfig loads the dotenv file named by --env-file, then the
// configuration, and builds a logger writing to w.
func loadConfig(cmd *cobra.Command, w io.Writer) (*config.Config, *slog.Logger, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		envFile = ".env"
	}
	// Existing environment variables take precedence over the file.
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, observability.NewLogger(cfg, w), nil
}
