package library

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/llehouerou/ripple/internal/player"
)

// discoverFiles walks the given source directories and returns all music files found,
// plus a path->source map of them.
func discoverFiles(ctx context.Context, sources []string, report func(ScanProgress)) (files []fileInfo, discovered map[string]string) {
	for _, src := range sources {
		_ = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Skip any walk errors - intentionally continuing to scan other paths
			if walkErr != nil {
				return nil //nolint:nilerr // intentionally skipping errors
			}
			if d.IsDir() || !player.IsMusicFile(path) {
				return nil
			}

			info, infoErr := d.Info()
			if infoErr != nil {
				return nil //nolint:nilerr // intentionally skipping errors
			}

			files = append(files, fileInfo{
				path:   path,
				mtime:  info.ModTime().Unix(),
				source: src,
			})

			if len(files)%100 == 0 {
				report(ScanProgress{Phase: "scanning", Current: len(files)})
			}
			return nil
		})
	}

	discovered = make(map[string]string, len(files))
	for _, f := range files {
		discovered[f.path] = f.source
	}
	return files, discovered
}

// relativePath returns the path relative to the source, or the full path if not under source.
func relativePath(source, path string) string {
	rel, err := filepath.Rel(source, path)
	if err != nil {
		return path
	}
	return rel
}
