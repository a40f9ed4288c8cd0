// Package pidfile records process identifiers for the daemon and the UI and
// answers whether a recorded process is still alive.
//
// A PID file that points at a dead process is stale and is deleted the first
// time it is observed. Liveness uses signal 0; a process owned by another user
// (EPERM) counts as alive.
package pidfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"matuwall/internal/fileutil"
)

// ErrNoPID reports a missing, empty or unparsable PID file.
var ErrNoPID = errors.New("no pid recorded")

// procRoot is overridden in tests.
var procRoot = "/proc"

// File is a single PID file on disk.
type File struct {
	path string
}

// New returns a handle for the PID file at path.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Write records pid followed by a newline.
func (f *File) Write(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("write pid file %s: invalid pid %d", f.path, pid)
	}
	if err := fileutil.WriteFileAtomic(f.path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write pid file %s: %w", f.path, err)
	}
	return nil
}

// Read returns the recorded pid or ErrNoPID.
func (f *File) Read() (int, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNoPID
		}
		return 0, fmt.Errorf("read pid file %s: %w", f.path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, ErrNoPID
	}
	return pid, nil
}

// Remove deletes the file; a missing file is not an error.
func (f *File) Remove() error {
	return fileutil.RemoveIfExists(f.path)
}

// Live returns the recorded pid when that process is alive. A stale or
// unparsable file is removed and ErrNoPID returned.
func (f *File) Live() (int, error) {
	return f.LiveMatching()
}

// LiveMatching is Live with an additional identity check: when markers are
// given, every marker must appear as an argument in the process command line.
// A live process that fails the check is treated as a recycled pid.
func (f *File) LiveMatching(markers ...string) (int, error) {
	pid, err := f.Read()
	if err != nil {
		if errors.Is(err, ErrNoPID) {
			_ = f.Remove()
		}
		return 0, err
	}
	if !Alive(pid) || !cmdlineMatches(pid, markers) {
		_ = f.Remove()
		return 0, ErrNoPID
	}
	return pid, nil
}

// Alive reports whether a process with pid exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func cmdlineMatches(pid int, markers []string) bool {
	if len(markers) == 0 {
		return true
	}
	data, err := os.ReadFile(filepath.Join(procRoot, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return false
	}
	args := bytes.Split(bytes.TrimRight(data, "\x00"), []byte{0})
	for _, marker := range markers {
		found := false
		for _, arg := range args {
			if bytes.Contains(arg, []byte(marker)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
