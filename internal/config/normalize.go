package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeUI()
	c.normalizeThumbnails()
	c.Theme.MatugenMode = strings.ToLower(strings.TrimSpace(c.Theme.MatugenMode))
	if c.Theme.MatugenMode == "" {
		c.Theme.MatugenMode = defaultMatugenMode
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WallpaperDir) == "" {
		c.Paths.WallpaperDir = defaultWallpaperDir
	}
	if c.Paths.WallpaperDir, err = expandPath(c.Paths.WallpaperDir); err != nil {
		return fmt.Errorf("paths.wallpaper_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeUI() {
	c.UI.PanelEdge = strings.ToLower(strings.TrimSpace(c.UI.PanelEdge))
	if c.UI.PanelEdge == "" {
		c.UI.PanelEdge = defaultPanelEdge
	}
}

func (c *Config) normalizeThumbnails() {
	c.Thumbnails.Size = clamp(c.Thumbnails.Size, 1, MaxThumbnailSize)
	c.Thumbnails.Shape = strings.ToLower(strings.TrimSpace(c.Thumbnails.Shape))
	if c.Thumbnails.Shape == "" {
		c.Thumbnails.Shape = ShapeLandscape
	}
	if c.Thumbnails.Workers == 0 {
		c.Thumbnails.Workers = defaultThumbnailWorkers
	}
	if c.Thumbnails.BatchSize <= 0 {
		c.Thumbnails.BatchSize = defaultThumbnailBatchSize
	}
	c.Thumbnails.BatchSize = clamp(c.Thumbnails.BatchSize, 1, maxBatchSize)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.RetentionDays = max(c.Logging.RetentionDays, 0)
}

func clamp(value, low, high int) int {
	return max(low, min(high, value))
}
