package config

const (
	defaultWallpaperDir       = "~/Pictures/Wallpapers"
	defaultLogDir             = "~/.local/share/matuwall/logs"
	defaultPanelEdge          = "left"
	defaultThumbnailSize      = 256
	defaultThumbnailWorkers   = 2
	defaultThumbnailBatchSize = 16
	defaultMatugenMode        = "dark"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 14

	// MaxThumbnailSize bounds the configured card width.
	MaxThumbnailSize = 1000
	// MaxThumbnailWorkers bounds the render pool.
	MaxThumbnailWorkers = 8
	maxBatchSize        = 128

	ShapeLandscape = "landscape"
	ShapeSquare    = "square"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WallpaperDir: defaultWallpaperDir,
			CacheDir:     defaultCacheDir(),
			LogDir:       defaultLogDir,
		},
		UI: UI{
			PanelEdge: defaultPanelEdge,
		},
		Thumbnails: Thumbnails{
			Size:      defaultThumbnailSize,
			Shape:     ShapeLandscape,
			Workers:   defaultThumbnailWorkers,
			BatchSize: defaultThumbnailBatchSize,
		},
		Theme: Theme{
			MatugenMode: defaultMatugenMode,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
