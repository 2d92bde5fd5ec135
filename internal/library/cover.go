package library

import (
	"os"
	"path/filepath"
	"strings"
)

// coverNames lists album art file names in priority order. Matching
// ignores case, so Cover.JPG and FOLDER.png are found too.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"album.jpg", "album.png", "album.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

// FindAlbumArt returns the album art file next to trackPath, or "" when
// the directory has none.
func FindAlbumArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	byName := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		if _, seen := byName[lower]; !seen {
			byName[lower] = e.Name()
		}
	}

	for _, name := range coverNames {
		if actual, ok := byName[name]; ok {
			return filepath.Join(dir, actual)
		}
	}
	return ""
}
