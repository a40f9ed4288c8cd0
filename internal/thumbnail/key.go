package thumbnail

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Key identifies one rendered thumbnail. Equal keys produce byte-identical
// output; editing the source changes ModTimeNS or Size and therefore the key.
type Key struct {
	Path      string
	ModTimeNS int64
	Size      int64
	// Stat is false when the source could not be stat'ed.
	Stat   bool
	Width  int
	Height int
}

// NewKey builds a key for path at the target dimensions. The path is made
// absolute; a stat failure still yields a usable key so that rendering can
// report the real error.
func NewKey(path string, width, height int) Key {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	key := Key{Path: path, Width: width, Height: height}
	if info, err := os.Stat(path); err == nil {
		key.Stat = true
		key.ModTimeNS = info.ModTime().UnixNano()
		key.Size = info.Size()
	}
	return key
}

func (k Key) String() string {
	stat := "nostat"
	if k.Stat {
		stat = fmt.Sprintf("%d-%d", k.ModTimeNS, k.Size)
	}
	return fmt.Sprintf("%s-%s-%dx%d", k.Path, stat, k.Width, k.Height)
}

// Digest is the hex SHA-256 of the key string and names the cache file.
func (k Key) Digest() string {
	sum := sha256.Sum256([]byte(k.String()))
	return hex.EncodeToString(sum[:])
}
