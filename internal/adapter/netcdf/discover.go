package netcdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultPattern matches OCO-2 Lite file names.
const DefaultPattern = "*.nc4"

// DiscoverFiles lists the files in dir whose names match pattern, sorted by
// name. Subdirectories are not searched.
func DiscoverFiles(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("discover datasets: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discover datasets: %s is not a directory", dir)
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("discover datasets: %w", err)
	}
	files := matches[:0]
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("discover datasets: %w", err)
		}
		if fi.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
