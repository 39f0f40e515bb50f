// Package scanner walks a source directory tree and reports the files
// matching a glob pattern, along with their mtime/size fingerprint.
package scanner

import (
	"os"
	"path/filepath"
)

// FileStat is the fingerprint recorded for a scanned file.
type FileStat struct {
	Mtime float64 // seconds since epoch
	Size  int64
}

// Scan recursively walks sourceFolder and returns, for every regular file
// whose base name matches pattern, its relative path and fingerprint.
// An empty pattern defaults to "*"; a whitespace-only pattern is used as is. Files that fail to stat are
// silently skipped. A missing sourceFolder yields an empty map, not an
// error. Map iteration order is not meaningful to callers.
func Scan(sourceFolder, pattern string) (map[string]FileStat, error) {
	if pattern == "" {
		pattern = "*"
	}

	result := make(map[string]FileStat)

	if _, err := os.Stat(sourceFolder); err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, nil
	}

	err := filepath.WalkDir(sourceFolder, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Skip entries we can't read; scanning continues elsewhere.
			return nil
		}
		if d.IsDir() {
			return nil
		}

		matched, matchErr := filepath.Match(pattern, d.Name())
		if matchErr != nil || !matched {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}

		rel, relErr := filepath.Rel(sourceFolder, path)
		if relErr != nil {
			return nil
		}

		result[filepath.ToSlash(rel)] = FileStat{
			Mtime: float64(info.ModTime().UnixNano()) / 1e9,
			Size:  info.Size(),
		}
		return nil
	})
	if err != nil {
		return result, nil
	}

	return result, nil
}
