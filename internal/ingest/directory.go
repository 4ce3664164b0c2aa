package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// IndexDirectory walks root and maps each usable PDF's file name to its path.
// Hidden entries are skipped when requested; files under minPDFSize are counted as skipped.
func IndexDirectory(root string, skipHidden bool) (map[string]string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("pdf directory is required")
	}

	index := map[string]string{}
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			stats.Failed++
			return nil
		}
		if info.Size() < minPDFSize {
			stats.Skipped++
			return nil
		}
		stats.Matched++
		index[filepath.Base(path)] = path
		return nil
	})

	if err != nil {
		return index, stats, fmt.Errorf("walk: %w", err)
	}
	return index, stats, nil
}
