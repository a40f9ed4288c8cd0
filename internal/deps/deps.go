// Package deps reports whether the external tools and libraries matuwall
// relies on are installed.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency. Exactly one of Command or
// Paths is normally set: a binary looked up on PATH, or a file probed at
// fixed locations.
type Requirement struct {
	Name        string
	Command     string
	Paths       []string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Location is the resolved binary or file path when available.
	Location string
	Detail   string
}

// Defaults lists matuwall's runtime dependencies. libraryPaths are the
// layer-shell preload candidates.
func Defaults(libraryPaths []string) []Requirement {
	return []Requirement{
		{
			Name:        "matugen",
			Command:     "matugen",
			Description: "generates the color theme for a selected wallpaper",
		},
		{
			Name:        "gtk4-layer-shell",
			Paths:       libraryPaths,
			Description: "anchors the picker to a screen edge in panel mode",
			Optional:    true,
		},
	}
}

// Check evaluates the provided requirements and reports availability.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd != "":
			resolved, err := exec.LookPath(cmd)
			if err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
				break
			}
			status.Available = true
			status.Location = resolved
		case len(req.Paths) > 0:
			for _, path := range req.Paths {
				if info, err := os.Stat(path); err == nil && !info.IsDir() {
					status.Available = true
					status.Location = path
					break
				}
			}
			if !status.Available {
				status.Detail = fmt.Sprintf("not found in %s", strings.Join(req.Paths, ", "))
			}
		default:
			status.Detail = "command not configured"
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the names of unavailable required dependencies.
func Missing(statuses []Status) []string {
	var out []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s.Name)
		}
	}
	return out
}
