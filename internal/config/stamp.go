package config

import (
	"errors"
	"io/fs"
	"os"
)

// FileStamp fingerprints a config file by modification time and size. The
// zero value means the file does not exist.
type FileStamp struct {
	ModTimeNS int64
	Size      int64
}

// Stamp returns the current fingerprint of path. A missing file yields the
// zero stamp and no error so that creation and deletion both register as
// changes.
func Stamp(path string) (FileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileStamp{}, nil
		}
		return FileStamp{}, err
	}
	return FileStamp{ModTimeNS: info.ModTime().UnixNano(), Size: info.Size()}, nil
}
