package thumbnail

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"matuwall/internal/fileutil"
)

// ErrEmptyOutput reports a render that left no usable file behind.
var ErrEmptyOutput = errors.New("thumbnail save produced empty file")

// Cover scales src to fill width x height and center-crops the overflow.
// When rounding leaves the scaled image short in either dimension the
// result is stretched to the exact size instead.
func Cover(src image.Image, width, height int) image.Image {
	width = max(1, width)
	height = max(1, height)
	srcBounds := src.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()
	if srcW == 0 || srcH == 0 {
		return image.NewRGBA(image.Rect(0, 0, width, height))
	}

	scale := math.Max(float64(width)/float64(srcW), float64(height)/float64(srcH))
	scaledW := max(1, int(math.Ceil(float64(srcW)*scale)))
	scaledH := max(1, int(math.Ceil(float64(srcH)*scale)))

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), src, srcBounds, xdraw.Src, nil)

	if scaledW == width && scaledH == height {
		return scaled
	}
	if scaledW < width || scaledH < height {
		stretched := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.BiLinear.Scale(stretched, stretched.Bounds(), scaled, scaled.Bounds(), xdraw.Src, nil)
		return stretched
	}

	offset := image.Pt((scaledW-width)/2, (scaledH-height)/2)
	cropped := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Copy(cropped, image.Point{}, scaled, image.Rectangle{Min: offset, Max: offset.Add(image.Pt(width, height))}, xdraw.Src, nil)
	return cropped
}

// RenderFile decodes srcPath, covers it to the target size and writes a PNG
// to dstPath atomically. Missing or zero-byte output is removed and
// reported as an error.
func RenderFile(srcPath, dstPath string, width, height int) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	src, _, err := image.Decode(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", srcPath, err)
	}

	thumb := Cover(src, width, height)
	err = fileutil.WriteAtomic(dstPath, 0o644, func(w io.Writer) error {
		return png.Encode(w, thumb)
	})
	if err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}

	info, err := os.Stat(dstPath)
	if err != nil {
		return fmt.Errorf("thumbnail save produced no file: %w", err)
	}
	if info.Size() == 0 {
		_ = fileutil.RemoveIfExists(dstPath)
		return ErrEmptyOutput
	}
	return nil
}
