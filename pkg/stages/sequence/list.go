package sequence

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/user/timelapse/pkg/ports"
)

// Extensions lists the accepted input file extensions, lower case.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// IsImagePath reports whether the file name carries an accepted extension.
// The comparison ignores case.
func IsImagePath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ListImages returns the image files directly inside dir, sorted by
// byte-wise path order. Subdirectories are not descended into.
func ListImages(fsys ports.FileSystem, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsImagePath(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
