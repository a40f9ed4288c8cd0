package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if err := c.validateUI(); err != nil {
		return err
	}
	if err := c.validateThumbnails(); err != nil {
		return err
	}
	switch c.Theme.MatugenMode {
	case "dark", "light":
	default:
		return fmt.Errorf("theme.matugen_mode must be dark or light, got %q", c.Theme.MatugenMode)
	}
	return nil
}

func (c *Config) validateUI() error {
	switch c.UI.PanelEdge {
	case "left", "right", "top", "bottom":
		return nil
	default:
		return fmt.Errorf("ui.panel_edge must be one of left, right, top, bottom; got %q", c.UI.PanelEdge)
	}
}

func (c *Config) validateThumbnails() error {
	if c.Thumbnails.Size < 1 || c.Thumbnails.Size > MaxThumbnailSize {
		return fmt.Errorf("thumbnails.size must be between 1 and %d", MaxThumbnailSize)
	}
	switch c.Thumbnails.Shape {
	case ShapeLandscape, ShapeSquare:
	default:
		return fmt.Errorf("thumbnails.shape must be landscape or square, got %q", c.Thumbnails.Shape)
	}
	if c.Thumbnails.Workers < 1 || c.Thumbnails.Workers > MaxThumbnailWorkers {
		return fmt.Errorf("thumbnails.workers must be between 1 and %d", MaxThumbnailWorkers)
	}
	return nil
}
