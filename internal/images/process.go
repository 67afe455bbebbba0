package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"avshelf/internal/fileutil"
)

// screenshotHeadroom lets screenshots exceed the resize bounds by this factor
// before they are scaled down.
const screenshotHeadroom = 1.5

// CodecsAvailable reports whether the decoders processing depends on are
// registered with the image package.
func CodecsAvailable() bool {
	pixel := image.NewGray(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	if err := png.Encode(&buf, pixel); err != nil {
		return false
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes())); err != nil || format != "png" {
		return false
	}
	buf.Reset()
	if err := jpeg.Encode(&buf, pixel, nil); err != nil {
		return false
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	return err == nil && format == "jpeg"
}

func (d *Downloader) outputFormat(target string) Format {
	if d.opts.Format != FormatAuto {
		return d.opts.Format
	}
	switch strings.ToLower(filepath.Ext(target)) {
	case ".png":
		return FormatPNG
	case ".webp":
		return FormatWEBP
	default:
		return FormatJPEG
	}
}

// process re-encodes fetched bytes for target. On error the caller stores
// the original bytes.
func (d *Downloader) process(data []byte, target string, kind ImageType) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	out := d.outputFormat(target)
	img := src
	resized := false
	if d.needsResize(src.Bounds(), kind) {
		img = fit(src, d.opts.MaxWidth, d.opts.MaxHeight)
		resized = true
	}
	// Auto-mode webp sources pass through untouched unless they need scaling.
	if out == FormatWEBP && d.opts.Format == FormatAuto && !resized {
		return data, nil
	}
	encoded, err := d.encode(img, out)
	if err != nil {
		return nil, err
	}
	if resized {
		d.stats.resized.Add(1)
	}
	d.stats.processed.Add(1)
	if len(encoded) != len(data) {
		d.stats.converted.Add(1)
	}
	return encoded, nil
}

func (d *Downloader) needsResize(bounds image.Rectangle, kind ImageType) bool {
	if !d.opts.Resize {
		return false
	}
	maxW, maxH := float64(d.opts.MaxWidth), float64(d.opts.MaxHeight)
	if kind == Screenshot {
		maxW *= screenshotHeadroom
		maxH *= screenshotHeadroom
	}
	return float64(bounds.Dx()) > maxW || float64(bounds.Dy()) > maxH
}

func (d *Downloader) encode(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: d.opts.JPEGQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case FormatWEBP:
		if err := nativewebp.Encode(&buf, img, nil); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return buf.Bytes(), nil
}

// fit scales src down to fit within maxW x maxH keeping its aspect ratio.
// Images already inside the bounds are returned as is.
func fit(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || (w <= maxW && h <= maxH) {
		return src
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// flatten composites src over white so transparent regions do not turn
// black in formats without alpha.
func flatten(src image.Image) image.Image {
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, src, b.Min, draw.Over)
	return dst
}

func (d *Downloader) createThumbnail(imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	format := FormatJPEG
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".png":
		format = FormatPNG
	case ".webp":
		format = FormatWEBP
	}
	encoded, err := d.encode(fit(src, d.opts.ThumbnailWidth, d.opts.ThumbnailHeight), format)
	if err != nil {
		return "", err
	}
	path := ThumbnailPath(imagePath)
	if err := fileutil.WriteFileAtomic(path, encoded, 0o644); err != nil {
		return "", err
	}
	d.stats.thumbnails.Add(1)
	return path, nil
}
