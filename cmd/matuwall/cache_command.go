package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"matuwall/internal/thumbnail"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the thumbnail cache",
	}

	cacheCmd.AddCommand(newCacheInfoCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show thumbnail cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := thumbnailCache(ctx)
			if err != nil {
				return err
			}
			stats, err := cache.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderKeyValueTable("Thumbnail cache", [][2]string{
				{"Directory", cache.Dir()},
				{"Entries", strconv.Itoa(stats.Entries)},
				{"Size", humanBytes(stats.Bytes)},
			}))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached thumbnails",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := thumbnailCache(ctx)
			if err != nil {
				return err
			}
			removed, err := cache.Clear()
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d thumbnails from %s\n", removed, cache.Dir())
			return nil
		},
	}
}

func thumbnailCache(ctx *commandContext) (*thumbnail.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return thumbnail.NewCache(cfg.Paths.CacheDir), nil
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}
