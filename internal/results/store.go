// Package results persists finished result sets as pretty-printed JSON.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nbenliogludev/go-research-agent/internal/taskspec"
)

// Store writes result sets under a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes rs as indented JSON and returns the path written. An empty
// filename gets a timestamped default.
func (s *Store) Save(rs *taskspec.ResultSet, filename string) (string, error) {
	if filename == "" {
		filename = fmt.Sprintf("research_%s.json", time.Now().Format("20060102_150405"))
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}

	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}
