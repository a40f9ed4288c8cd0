// Package wallpapers enumerates candidate wallpaper files.
package wallpapers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

var extensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".bmp":  {},
	".gif":  {},
}

// Supported reports whether name has a wallpaper image extension.
func Supported(name string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// List returns absolute paths of the image files directly inside dir,
// sorted by case-folded file name. A missing directory yields no entries.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list wallpapers: %w", err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	fold := cases.Fold()
	type item struct {
		path string
		sort string
	}
	items := make([]item, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !Supported(entry.Name()) {
			continue
		}
		items = append(items, item{
			path: filepath.Join(dir, entry.Name()),
			sort: fold.String(entry.Name()),
		})
	}
	slices.SortStableFunc(items, func(a, b item) int {
		if c := strings.Compare(a.sort, b.sort); c != 0 {
			return c
		}
		return strings.Compare(a.path, b.path)
	})

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.path
	}
	return out, nil
}

// Batches splits paths into consecutive slices of at most size entries.
func Batches(paths []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var out [][]string
	for start := 0; start < len(paths); start += size {
		out = append(out, paths[start:min(start+size, len(paths))])
	}
	return out
}
