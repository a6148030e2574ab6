package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const databaseEnvPrefix = "DATABASE_URL_"

// DefaultDatabases are used when neither DATABASES_FILE nor any
// DATABASE_URL_<NAME> variable names a database.
var DefaultDatabases = map[string]string{
	"gis":  "postgres://localhost:5432/gis?sslmode=disable",
	"test": "postgres://localhost:5432/test?sslmode=disable",
}

// loadDatabases builds the named database map by layering, low to high:
//  1. the "databases" section of the YAML file in DATABASES_FILE, if set
//  2. env vars DATABASE_URL_<NAME>, lowercased to <name>
func loadDatabases() (map[string]string, error) {
	k := koanf.New(".")

	if path := os.Getenv("DATABASES_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load DATABASES_FILE: %w", err)
		}
	}

	envProvider := env.Provider(databaseEnvPrefix, ".", func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, databaseEnvPrefix))
		return "databases." + name
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load %s* env: %w", databaseEnvPrefix, err)
	}

	dbs := k.StringMap("databases")
	for name, dsn := range dbs {
		if strings.TrimSpace(dsn) == "" {
			delete(dbs, name)
		}
	}
	if len(dbs) == 0 {
		dbs = make(map[string]string, len(DefaultDatabases))
		for name, dsn := range DefaultDatabases {
			dbs[name] = dsn
		}
	}
	return dbs, nil
}
