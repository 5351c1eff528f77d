package imageio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetGray(x, y, color.Gray{Y: uint8(x*200/max(1, w-1) + y*50/max(1, h-1))})
		}
	}
	return img
}

func grayPix(t *testing.T, img image.Image) []uint8 {
	t.Helper()
	b := img.Bounds()
	pix := make([]uint8, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pix = append(pix, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	return pix
}

func TestSaveOpen(t *testing.T) {
	src := gradient(32, 24)
	dir := t.TempDir()

	t.Run("lossless", func(t *testing.T) {
		for _, ext := range []string{".png", ".bmp", ".gif", ".PNG"} {
			t.Run(ext, func(t *testing.T) {
				path, err := Save(filepath.Join(dir, "out"+ext), src, 90)
				require.NoError(t, err)
				got, err := Open(path)
				require.NoError(t, err)
				assert.Equal(t, src.Bounds(), got.Bounds())
				assert.Equal(t, src.Pix, grayPix(t, got))
			})
		}
	})

	t.Run("jpeg", func(t *testing.T) {
		for _, ext := range []string{".jpg", ".jpeg"} {
			path, err := Save(filepath.Join(dir, "out"+ext), src, 100)
			require.NoError(t, err)
			got, err := Open(path)
			require.NoError(t, err)
			assert.Equal(t, src.Bounds(), got.Bounds())

			pix := grayPix(t, got)
			for i := range src.Pix {
				assert.InDelta(t, float64(src.Pix[i]), float64(pix[i]), 8, "pixel %d", i)
			}
		}
	})

	t.Run("default_extension", func(t *testing.T) {
		path, err := Save(filepath.Join(dir, "noext"), src, 90)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "noext"+DefaultExt), path)
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("unsupported", func(t *testing.T) {
		path := filepath.Join(dir, "out.tiff")
		_, err := Save(path, src, 90)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "failed save should not leave a file")
	})

	t.Run("rejected_save_keeps_existing_file", func(t *testing.T) {
		dir := t.TempDir()
		keep := filepath.Join(dir, "keep.tiff")
		require.NoError(t, os.WriteFile(keep, []byte("precious"), 0644))
		_, err := Save(keep, src, 90)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
		data, err := os.ReadFile(keep)
		require.NoError(t, err)
		assert.Equal(t, "precious", string(data))

		// an encoder failure leaves the previous image and no temporary file
		prev := filepath.Join(dir, "prev.png")
		_, err = Save(prev, src, 90)
		require.NoError(t, err)
		before, err := os.ReadFile(prev)
		require.NoError(t, err)
		_, err = Save(prev, image.NewGray(image.Rect(0, 0, 0, 0)), 90)
		assert.Error(t, err)
		after, err := os.ReadFile(prev)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "over.png")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
		_, err := Save(path, src, 90)
		require.NoError(t, err)
		got, err := Open(path)
		require.NoError(t, err)
		assert.Equal(t, src.Pix, grayPix(t, got))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "missing.png"))
		assert.Error(t, err)
	})

	t.Run("not_an_image", func(t *testing.T) {
		path := filepath.Join(dir, "text.png")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
		_, err := Open(path)
		assert.Error(t, err)
	})
}

func TestFit(t *testing.T) {
	test := []struct {
		name         string
		w, h, fw, fh int
		expW, expH   int
	}{
		{"tall_into_wide_frame", 100, 200, 400, 300, 150, 300},
		{"wide_into_tall_frame", 200, 100, 300, 400, 300, 150},
		{"same_ratio", 40, 30, 80, 60, 80, 60},
		{"shrink", 1000, 500, 100, 100, 100, 50},
		{"tiny_result", 1000, 1, 10, 10, 10, 1},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(gradient(tt.w, tt.h), tt.fw, tt.fh)
			assert.Equal(t, image.Rect(0, 0, tt.expW, tt.expH), got.Bounds())
			_, isGray := got.(*image.Gray)
			assert.True(t, isGray)
		})
	}

	t.Run("rgba", func(t *testing.T) {
		got := Fit(image.NewRGBA(image.Rect(0, 0, 10, 10)), 5, 5)
		assert.IsType(t, &image.RGBA{}, got)
		assert.Equal(t, image.Rect(0, 0, 5, 5), got.Bounds())
	})

	t.Run("degenerate_frame", func(t *testing.T) {
		src := gradient(4, 4)
		assert.Same(t, src, Fit(src, 0, 10))
	})
}

func TestFetch(t *testing.T) {
	src := gradient(8, 6)
	var body bytes.Buffer
	require.NoError(t, png.Encode(&body, src))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body.Bytes())
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), time.Millisecond)
	ctx := context.Background()

	img, err := Load(ctx, srv.URL+"/img.png", f)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, grayPix(t, img))

	_, err = Load(ctx, srv.URL+"/missing.png", f)
	assert.Error(t, err)

	path, err := f.CachedPath(srv.URL + "/img.png")
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}

func TestThrottle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	th := &throttle{interval: 50 * time.Millisecond}
	get := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := th.Do(req)
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}

	start := time.Now()
	require.NoError(t, get(context.Background()))
	require.NoError(t, get(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	t.Run("canceled_while_waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, get(ctx), context.Canceled)
	})
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("http://example.com/a.png"))
	assert.True(t, IsURL("https://example.com/a.png"))
	assert.False(t, IsURL("/tmp/a.png"))
	assert.False(t, IsURL("ftp://example.com/a.png"))
}
