package cli

import (
	"path/filepath"
	"testing"

	"github.com/mydehq/mediasort/internal/config"
)

func TestSourceFor(t *testing.T) {
	short := config.ScanSource{Path: filepath.Join("/data", "a"), Transfer: "copy"}
	long := config.ScanSource{Path: filepath.Join("/data", "ab"), Transfer: "symlink"}
	sources := []config.ScanSource{short, long}

	tests := []struct {
		name string
		file string
		want string
	}{
		{
			name: "file under the short path",
			file: filepath.Join("/data", "a", "Heat.1995.mkv"),
			want: "copy",
		},
		{
			name: "prefix of another source path is not a match",
			file: filepath.Join("/data", "ab", "Heat.1995.mkv"),
			want: "symlink",
		},
		{
			name: "unmatched file falls back to the first source",
			file: filepath.Join("/elsewhere", "Heat.1995.mkv"),
			want: "copy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sourceFor(sources, tt.file)
			if got.Transfer != tt.want {
				t.Errorf("sourceFor(%q) picked the %q source; want %q", tt.file, got.Transfer, tt.want)
			}
		})
	}
}
