package imageio

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

const DefaultExt = ".jpeg"

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Load decodes the image at src, which is either a local path or an http(s) URL.
// URLs are fetched through f; a nil f falls back to a default fetcher.
func Load(ctx context.Context, src string, f *Fetcher) (image.Image, error) {
	if IsURL(src) {
		if f == nil {
			f = defaultFetcher
		}
		return f.Fetch(ctx, src)
	}
	return Open(src)
}

// IsURL reports whether src names an http or https resource.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Open decodes a JPEG, PNG, GIF or BMP file.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// Save encodes img to path in the format selected by its extension and returns the
// path written. A path without extension gets DefaultExt.
// quality applies to JPEG only.
// The file at path is replaced only once encoding has succeeded.
func Save(path string, img image.Image, quality int) (string, error) {
	if filepath.Ext(path) == "" {
		path += DefaultExt
	}
	format, err := formatOf(filepath.Ext(path))
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if err := f.Chmod(0644); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := encode(f, format, img, quality); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// Encode writes img in the format named by ext (".png", ".jpg", ...).
func Encode(w io.Writer, ext string, img image.Image, quality int) error {
	format, err := formatOf(ext)
	if err != nil {
		return err
	}
	return encode(w, format, img, quality)
}

func formatOf(ext string) (string, error) {
	switch e := strings.ToLower(ext); e {
	case ".jpg", ".jpeg":
		return "jpeg", nil
	case ".png", ".bmp", ".gif":
		return e[1:], nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

func encode(w io.Writer, format string, img image.Image, quality int) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "gif":
		return gif.Encode(w, grayPaletted(img), nil)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Fit scales img to the largest size that fits inside frameW x frameH while keeping
// its aspect ratio.
func Fit(img image.Image, frameW, frameH int) image.Image {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	fw, fh := float64(frameW), float64(frameH)
	if w == 0 || h == 0 || fw <= 0 || fh <= 0 {
		return img
	}

	var wResize, hResize int
	if h/w > fh/fw {
		wResize = int(fh * (w / h))
		hResize = frameH
	} else {
		hResize = int(fw * (h / w))
		wResize = frameW
	}
	rect := image.Rect(0, 0, max(1, wResize), max(1, hResize))

	var dist draw.Image
	if _, ok := img.(*image.Gray); ok {
		dist = image.NewGray(rect)
	} else {
		dist = image.NewRGBA(rect)
	}
	draw.CatmullRom.Scale(dist, rect, img, b, draw.Src, nil)
	return dist
}

func grayPaletted(img image.Image) *image.Paletted {
	palette := make(color.Palette, 256)
	for i := range palette {
		palette[i] = color.Gray{Y: uint8(i)}
	}
	dist := image.NewPaletted(img.Bounds(), palette)
	draw.Draw(dist, dist.Bounds(), img, img.Bounds().Min, draw.Src)
	return dist
}
