package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Clean removes every build output directory named <prefix>* in dir and
// returns the removed paths.
func Clean(dir, prefix string) ([]string, error) {
	if prefix == "" {
		return nil, &StageError{Stage: StageClean, Code: 1, Err: fmt.Errorf("empty build directory prefix")}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &StageError{Stage: StageClean, Code: 1, Err: err}
	}

	var removed []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			return removed, &StageError{Stage: StageClean, Code: 1, Err: fmt.Errorf("failed to remove %s: %w", path, err)}
		}
		removed = append(removed, path)
	}

	return removed, nil
}
