package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"matuwall/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains wallpaper, cache and log directory configuration.
type Paths struct {
	WallpaperDir string `toml:"wallpaper_dir"`
	CacheDir     string `toml:"cache_dir"`
	LogDir       string `toml:"log_dir"`
}

// UI contains configuration for the picker process lifecycle.
type UI struct {
	// KeepAlive keeps the UI process resident between show/hide cycles and
	// drives it with signals instead of respawning it.
	KeepAlive bool `toml:"keep_alive"`
	// PanelMode anchors the window to a screen edge through the layer-shell
	// preload library.
	PanelMode bool   `toml:"panel_mode"`
	PanelEdge string `toml:"panel_edge"`
}

// Thumbnails contains configuration for the thumbnail cache and renderer.
type Thumbnails struct {
	Size      int    `toml:"size"`
	Shape     string `toml:"shape"`
	Workers   int    `toml:"workers"`
	BatchSize int    `toml:"batch_size"`
}

// Theme contains configuration passed to the color-theming tool.
type Theme struct {
	MatugenMode string `toml:"matugen_mode"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// RetentionDays prunes per-run daemon logs older than this many days.
	// Zero keeps every log.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for matuwall.
//
// Configuration sections by subsystem:
//   - Paths: wallpaper source, thumbnail cache and log directories
//   - UI: keep-alive and panel placement of the picker process
//   - Thumbnails: rendered card geometry and worker pool size
//   - Theme: color-theming mode
//   - Logging: log format, level and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	UI         UI         `toml:"ui"`
	Thumbnails Thumbnails `toml:"thumbnails"`
	Theme      Theme      `toml:"theme"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/matuwall/config.toml, falling
// back to ~/.config when the variable is unset.
func DefaultConfigPath() (string, error) {
	return expandPath(filepath.Join(configHome(), "matuwall", "config.toml"))
}

// Load reads the config at path, or at DefaultConfigPath when path is empty.
// A missing file yields the defaults. It returns the config, the resolved
// path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = filepath.Join(configHome(), "matuwall", "config.toml")
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return expanded, false, nil
	case err != nil:
		return "", false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// EnsureDirectories creates the cache and log directories. The wallpaper
// directory belongs to the user and is never created.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ThumbnailDimensions returns the card width and height derived from the
// configured size and shape.
func (c *Config) ThumbnailDimensions() (int, int) {
	width := c.Thumbnails.Size
	if c.Thumbnails.Shape == ShapeSquare {
		return width, width
	}
	return width, width * 9 / 16
}

// ExpandPath resolves a leading ~ and returns a clean absolute path. The
// empty string is returned unchanged.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value[1:], "/"))
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}

func configHome() string {
	if base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); base != "" {
		return base
	}
	return "~/.config"
}

func defaultCacheDir() string {
	if base := strings.TrimSpace(os.Getenv("XDG_CACHE_HOME")); base != "" {
		return filepath.Join(base, "matuwall", "thumbnails")
	}
	return "~/.cache/matuwall/thumbnails"
}

// CreateSample writes the annotated sample configuration to path, creating
// parent directories as needed.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
