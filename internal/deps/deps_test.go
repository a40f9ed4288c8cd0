package deps

import (
	"os"
	"path/filepath"
	"testing"

	"matuwall/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset"},
	}

	results := Check(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Location != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %#v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for empty requirement: %#v", results[2])
	}
	if got := Missing(results); len(got) != 2 {
		t.Fatalf("Missing = %v", got)
	}
}

func TestCheckLibraryPaths(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "libgtk4-layer-shell.so")
	if err := os.WriteFile(lib, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	results := Check(Defaults([]string{filepath.Join(dir, "absent.so"), dir, lib}))
	layer := results[1]
	if !layer.Available || layer.Location != lib {
		t.Fatalf("layer-shell status = %#v", layer)
	}

	results = Check(Defaults([]string{filepath.Join(dir, "absent.so")}))
	if results[1].Available || !results[1].Optional {
		t.Fatalf("missing optional library = %#v", results[1])
	}
	for _, name := range Missing(results) {
		if name == "gtk4-layer-shell" {
			t.Fatal("optional dependency reported as missing")
		}
	}
}

func TestDefaultsFindStubbedMatugen(t *testing.T) {
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := Check(Defaults(nil))
	if !results[0].Available || filepath.Base(results[0].Location) != "matugen" {
		t.Fatalf("matugen status = %#v", results[0])
	}
	if results[1].Available || results[1].Detail != "command not configured" {
		t.Fatalf("layer-shell without candidates = %#v", results[1])
	}
	if missing := Missing(results); len(missing) != 0 {
		t.Fatalf("Missing = %v", missing)
	}
}
