package main

import (
	"os"

	"github.com/couchcryptid/xco2-etl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
