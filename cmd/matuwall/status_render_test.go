package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"matuwall/internal/daemonctl"
	"matuwall/internal/deps"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "stopped", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] stopped")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestStatusLines(t *testing.T) {
	lines := statusLines(daemonctl.Status{
		RuntimeDir:    "/run/user/1000/matuwall",
		SocketPath:    "/run/user/1000/matuwall/ipc.sock",
		SocketState:   daemonctl.SocketStale,
		DaemonRunning: true,
		DaemonPID:     42,
	}, false)
	if len(lines) != 6 {
		t.Fatalf("expected header plus 4 lines, got %d: %q", len(lines), lines)
	}
	checks := []string{
		"[INFO] /run/user/1000/matuwall",
		"[ERROR] /run/user/1000/matuwall/ipc.sock (stale)",
		"[OK] running (pid: 42)",
		"[INFO] stopped (pid: n/a)",
	}
	for i, want := range checks {
		if !strings.Contains(lines[i+2], want) {
			t.Fatalf("line %d = %q, want %q", i+2, lines[i+2], want)
		}
	}
}

func TestDependencyLines(t *testing.T) {
	lines := dependencyLines([]deps.Status{
		{Name: "matugen", Detail: `binary "matugen" not found`, Description: "generates themes"},
		{Name: "gtk4-layer-shell", Optional: true, Available: true, Location: "/usr/lib/libgtk4-layer-shell.so"},
	}, false)
	if len(lines) != 5 {
		t.Fatalf("expected header, 2 dependencies and summary, got %q", lines)
	}
	if !strings.Contains(lines[2], `[ERROR] binary "matugen" not found; generates themes`) {
		t.Fatalf("missing dependency line = %q", lines[2])
	}
	if !strings.Contains(lines[3], "[OK] Ready (/usr/lib/libgtk4-layer-shell.so)") {
		t.Fatalf("ready dependency line = %q", lines[3])
	}
	if !strings.Contains(lines[4], "[ERROR] matugen") {
		t.Fatalf("summary line = %q", lines[4])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
