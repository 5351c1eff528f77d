package main

import (
	"context"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/svdimage"
	"github.com/yyyoichi/svdimage/internal/db"
	"github.com/yyyoichi/svdimage/internal/imageio"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	img := image.NewGray(image.Rect(0, 0, 16, 10))
	for y := range 10 {
		for x := range 16 {
			img.SetGray(x, y, color.Gray{Y: uint8((x*x*3 + y*y*5 + x*y) % 256)})
		}
	}
	src, err := imageio.Save(filepath.Join(dir, "src.png"), img, 100)
	require.NoError(t, err)

	p := params{
		Input:    src,
		DB:       filepath.Join(dir, "sweep.db"),
		Ranks:    []int{1, 4, 50},
		Energies: []float64{90, 100},
		OutDir:   filepath.Join(dir, "out"),
		Chart:    filepath.Join(dir, "sweep.html"),
		Quality:  90,
	}
	require.NoError(t, run(ctx, p, nil))

	assert.FileExists(t, filepath.Join(p.OutDir, "RANK_4.png"))
	assert.FileExists(t, filepath.Join(p.OutDir, "ERROR_90.png"))
	assert.FileExists(t, p.Chart)

	store, err := db.Open(p.DB)
	require.NoError(t, err)
	defer store.Close()

	imageID, err := store.InsertImage(&db.Image{Path: src})
	require.NoError(t, err)
	stored, err := store.GetImage(imageID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.K)

	runs, err := store.ListRuns(imageID)
	require.NoError(t, err)
	require.Len(t, runs, 5)
	assert.Equal(t, 1, runs[0].Components)
	for i := 1; i < len(runs); i++ {
		assert.GreaterOrEqual(t, runs[i].Components, runs[i-1].Components)
	}
	last := runs[len(runs)-1]
	assert.Equal(t, 10, last.Components)
	assert.True(t, math.IsInf(last.PSNR, 1), "full reconstruction is lossless")
	assert.InDelta(t, 1, last.SSIM, 1e-9)

	// running again updates the same rows
	p.OutDir, p.Chart = "", ""
	require.NoError(t, run(ctx, p, nil))
	n, err := store.CountRuns()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRunStrictRank(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 6, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 9)
	}
	src, err := imageio.Save(filepath.Join(dir, "src.png"), img, 100)
	require.NoError(t, err)

	p := params{
		Input:      src,
		DB:         filepath.Join(dir, "strict.db"),
		Ranks:      []int{2, 5},
		StrictRank: true,
	}
	assert.ErrorIs(t, run(ctx, p, nil), svdimage.ErrInvalidParameter)
	_, err = os.Stat(p.DB)
	assert.ErrorIs(t, err, os.ErrNotExist)

	p.Ranks = []int{2, 4}
	require.NoError(t, run(ctx, p, nil))

	// clamped by default
	p.Ranks, p.StrictRank = []int{5}, false
	require.NoError(t, run(ctx, p, nil))
}

func TestRunInvalid(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	test := []params{
		{Input: "x.png", Ranks: []int{0}},
		{Input: "x.png", Energies: []float64{150}},
		{Input: "x.png"},
	}
	for i, p := range test {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			p.DB = filepath.Join(dir, "sweep.db")
			assert.ErrorIs(t, run(ctx, p, nil), svdimage.ErrInvalidParameter)
		})
	}
	_, err := os.Stat(filepath.Join(dir, "sweep.db"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseList(t *testing.T) {
	ranks, err := parseList("1, 2,,10", strconv.Atoi)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 10}, ranks)

	_, err = parseList("1,x", strconv.Atoi)
	assert.Error(t, err)
}
