package supervisor

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPreloadCandidates are probed in order for the layer-shell library.
var DefaultPreloadCandidates = []string{
	"/usr/lib/libgtk4-layer-shell.so",
	"/usr/lib64/libgtk4-layer-shell.so",
}

// EnvOptions controls UI environment preparation.
type EnvOptions struct {
	// RuntimeDir is the session runtime directory used when XDG_RUNTIME_DIR
	// is unset and as the search root for Wayland and D-Bus sockets.
	RuntimeDir        string
	Panel             bool
	PreloadCandidates []string
}

// EnvResult is the prepared environment plus what discovery found.
type EnvResult struct {
	Env            []string
	WaylandDisplay string
	Preload        string
}

// PrepareEnv derives the UI child's environment from base without mutating
// it. Values already present in base always win over discovered ones.
func PrepareEnv(base []string, opts EnvOptions) EnvResult {
	env := newEnvList(base)

	runtimeDir := env.get("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = opts.RuntimeDir
		if runtimeDir != "" {
			env.set("XDG_RUNTIME_DIR", runtimeDir)
		}
	}

	display := env.get("WAYLAND_DISPLAY")
	if display == "" && runtimeDir != "" {
		display = discoverWaylandDisplay(runtimeDir)
		if display != "" {
			env.set("WAYLAND_DISPLAY", display)
		}
	}
	if display != "" {
		if env.get("XDG_SESSION_TYPE") == "" {
			env.set("XDG_SESSION_TYPE", "wayland")
		}
		env.set("GDK_BACKEND", withWaylandBackend(env.get("GDK_BACKEND")))
	}

	if env.get("DBUS_SESSION_BUS_ADDRESS") == "" && runtimeDir != "" {
		bus := filepath.Join(runtimeDir, "bus")
		if _, err := os.Stat(bus); err == nil {
			env.set("DBUS_SESSION_BUS_ADDRESS", "unix:path="+bus)
		}
	}

	result := EnvResult{WaylandDisplay: display}
	if opts.Panel {
		candidates := opts.PreloadCandidates
		if candidates == nil {
			candidates = DefaultPreloadCandidates
		}
		for _, lib := range candidates {
			if _, err := os.Stat(lib); err != nil {
				continue
			}
			result.Preload = lib
			env.set("LD_PRELOAD", appendPreload(env.get("LD_PRELOAD"), lib))
			break
		}
	}

	result.Env = env.list()
	return result
}

func discoverWaylandDisplay(runtimeDir string) string {
	matches, err := filepath.Glob(filepath.Join(runtimeDir, "wayland-*"))
	if err != nil {
		return ""
	}
	sort.Strings(matches)
	for _, match := range matches {
		name := filepath.Base(match)
		if strings.HasSuffix(name, ".lock") {
			continue
		}
		return name
	}
	return ""
}

func withWaylandBackend(current string) string {
	current = strings.TrimSpace(current)
	if current == "" {
		return "wayland"
	}
	for _, item := range strings.Split(current, ",") {
		if strings.TrimSpace(item) == "wayland" {
			return current
		}
	}
	return "wayland," + current
}

func appendPreload(current, lib string) string {
	if current == "" {
		return lib
	}
	for _, entry := range strings.FieldsFunc(current, func(r rune) bool { return r == ':' || r == ' ' }) {
		if entry == lib {
			return current
		}
	}
	return current + ":" + lib
}

// envList keeps the original ordering of base while allowing overrides.
type envList struct {
	keys   []string
	values map[string]string
}

func newEnvList(base []string) *envList {
	e := &envList{values: make(map[string]string, len(base))}
	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		e.set(key, value)
	}
	return e
}

func (e *envList) get(key string) string {
	return e.values[key]
}

func (e *envList) set(key, value string) {
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = value
}

func (e *envList) list() []string {
	out := make([]string, 0, len(e.keys))
	for _, key := range e.keys {
		out = append(out, key+"="+e.values[key])
	}
	return out
}
