package library

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindAlbumArt(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"no art", []string{"track.mp3"}, ""},
		{"cover", []string{"track.mp3", "cover.jpg"}, "cover.jpg"},
		{"priority", []string{"folder.jpg", "cover.png"}, "cover.png"},
		{"case insensitive", []string{"Folder.JPG"}, "Folder.JPG"},
		{"unrelated image", []string{"scan.jpg"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			want := ""
			if tt.want != "" {
				want = filepath.Join(dir, tt.want)
			}
			if got := FindAlbumArt(filepath.Join(dir, "track.mp3")); got != want {
				t.Errorf("FindAlbumArt() = %q, want %q", got, want)
			}
		})
	}
}

func TestFindAlbumArt_MissingDir(t *testing.T) {
	if got := FindAlbumArt("/nonexistent/dir/track.mp3"); got != "" {
		t.Errorf("FindAlbumArt() = %q, want empty", got)
	}
}
