package pidfile

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "daemon.pid"))
	if err := f.Write(4242); err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "4242\n" {
		t.Fatalf("file content = %q", raw)
	}
	pid, err := f.Read()
	if err != nil || pid != 4242 {
		t.Fatalf("Read = %d, %v", pid, err)
	}
}

func TestReadMissingAndGarbage(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(filepath.Join(dir, "missing.pid")).Read(); !errors.Is(err, ErrNoPID) {
		t.Fatalf("missing file: expected ErrNoPID, got %v", err)
	}
	garbage := filepath.Join(dir, "garbage.pid")
	if err := os.WriteFile(garbage, []byte("not-a-pid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(garbage).Read(); !errors.Is(err, ErrNoPID) {
		t.Fatalf("garbage file: expected ErrNoPID, got %v", err)
	}
}

func TestLiveReportsCurrentProcess(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "daemon.pid"))
	if err := f.Write(os.Getpid()); err != nil {
		t.Fatal(err)
	}
	pid, err := f.Live()
	if err != nil {
		t.Fatalf("Live: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("Live pid = %d, want %d", pid, os.Getpid())
	}
}

func TestLiveRemovesStaleFile(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "ui.pid"))
	if err := f.Write(deadPID(t)); err != nil {
		t.Fatal(err)
	}

	if _, err := f.Live(); !errors.Is(err, ErrNoPID) {
		t.Fatalf("expected ErrNoPID for dead pid, got %v", err)
	}
	if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
		t.Fatalf("stale pid file should be removed, stat err=%v", err)
	}
}

func TestLiveMatchingChecksCmdline(t *testing.T) {
	root := t.TempDir()
	old := procRoot
	procRoot = root
	t.Cleanup(func() { procRoot = old })

	pid := os.Getpid()
	procDir := filepath.Join(root, strconv.Itoa(pid))
	if err := os.MkdirAll(procDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cmdline := []byte("/usr/bin/matuwall\x00--ui\x00")
	if err := os.WriteFile(filepath.Join(procDir, "cmdline"), cmdline, 0o644); err != nil {
		t.Fatal(err)
	}

	f := New(filepath.Join(t.TempDir(), "ui.pid"))
	if err := f.Write(pid); err != nil {
		t.Fatal(err)
	}
	if got, err := f.LiveMatching("matuwall", "--ui"); err != nil || got != pid {
		t.Fatalf("LiveMatching = %d, %v", got, err)
	}

	if _, err := f.LiveMatching("matuwall", "--daemon"); !errors.Is(err, ErrNoPID) {
		t.Fatalf("expected mismatch to be treated as stale, got %v", err)
	}
	if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
		t.Fatal("mismatched pid file should be removed")
	}
}

func TestAlive(t *testing.T) {
	if !Alive(os.Getpid()) {
		t.Fatal("current process should be alive")
	}
	if Alive(0) || Alive(-1) {
		t.Fatal("non-positive pids are never alive")
	}
	if Alive(deadPID(t)) {
		t.Fatal("reaped child should not be alive")
	}
}

// deadPID returns the pid of a child that has already exited and been reaped.
func deadPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run child: %v", err)
	}
	return cmd.Process.Pid
}
