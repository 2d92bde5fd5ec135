package library

import (
	"context"
	"strings"
)

const numWorkers = 8

// ScanProgress reports the progress of a library scan.
type ScanProgress struct {
	Phase       string // "scanning", "processing", "cleaning", "done"
	Current     int
	Total       int
	CurrentFile string
	Stats       *ScanStats // Only populated when Phase == "done"
}

// ScanStats holds statistics for a completed scan.
type ScanStats struct {
	BySource map[string]*SourceStats // keyed by source path
}

// SourceStats holds per-source scan statistics.
type SourceStats struct {
	Added   []string // relative paths of added tracks
	Removed []string // relative paths of removed tracks
	Updated []string // relative paths of updated tracks (mtime changed)
}

// fileInfo holds information about a discovered music file.
type fileInfo struct {
	path   string
	mtime  int64
	source string // source path this file belongs to
}

// trackResult holds the result of processing a music file.
type trackResult struct {
	file  fileInfo
	info  trackInfo
	isNew bool // true if new track, false if updated
}

// Refresh performs an incremental scan of the given source directories.
// progress may be nil; otherwise it is closed when the scan returns.
func (l *Library) Refresh(ctx context.Context, sources []string, progress chan<- ScanProgress) error {
	return l.refresh(ctx, sources, progress, false)
}

// FullRefresh rescans all files, ignoring modification times.
func (l *Library) FullRefresh(ctx context.Context, sources []string, progress chan<- ScanProgress) error {
	return l.refresh(ctx, sources, progress, true)
}

func (l *Library) refresh(ctx context.Context, sources []string, progress chan<- ScanProgress, forceRescan bool) error {
	report := func(p ScanProgress) {
		if progress != nil {
			progress <- p
		}
	}
	if progress != nil {
		defer close(progress)
	}

	stats := &ScanStats{
		BySource: make(map[string]*SourceStats),
	}
	for _, src := range sources {
		stats.BySource[src] = &SourceStats{}
	}

	// Phase 1: Scan directories for music files
	report(ScanProgress{Phase: "scanning"})
	files, discovered := discoverFiles(ctx, sources, report)
	if err := ctx.Err(); err != nil {
		return err
	}

	// Phase 2: Get existing tracks from DB (only from sources being scanned)
	existing, err := l.existingTracks(ctx, sources)
	if err != nil {
		return err
	}

	toProcess := make([]fileInfo, 0, len(files))
	isNew := make(map[string]bool)
	for _, f := range files {
		mtime, ok := existing[f.path]
		if ok && mtime == f.mtime && !forceRescan {
			continue
		}
		isNew[f.path] = !ok
		toProcess = append(toProcess, f)
	}

	// Phase 3: Process new/modified files in parallel
	if len(toProcess) > 0 {
		if err := l.processFiles(ctx, toProcess, isNew, stats, report); err != nil {
			return err
		}
	}

	// Phase 4: Clean up deleted files
	report(ScanProgress{Phase: "cleaning"})
	for path := range existing {
		if _, ok := discovered[path]; ok {
			continue
		}
		if err := l.deleteTrackByPath(ctx, path); err != nil {
			l.logger.Warn("remove vanished track", "path", path, "err", err)
			continue
		}
		for src, s := range stats.BySource {
			if strings.HasPrefix(path, src) {
				s.Removed = append(s.Removed, relativePath(src, path))
				break
			}
		}
	}

	l.logger.Info("library refreshed", "files", len(files), "processed", len(toProcess))
	report(ScanProgress{Phase: "done", Current: len(files), Total: len(files), Stats: stats})
	return nil
}
