package chart

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpectrum(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Spectrum(&buf, "lena.png", []float64{10, 5, 1, 0.1}))
	html := buf.String()
	assert.Contains(t, html, "lena.png")
	assert.Contains(t, html, "Cumulative energy (%)")
	assert.Contains(t, html, "echarts")

	t.Run("zero_spectrum", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, Spectrum(&buf, "zeros", []float64{0, 0}))
	})
}

func TestSweep(t *testing.T) {
	var buf bytes.Buffer
	points := []Point{
		{Label: "rank 1", Components: 1, PSNR: 18.2, SSIM: 0.41},
		{Label: "rank 10", Components: 10, PSNR: 31.5, SSIM: 0.93},
		{Label: "error 100", Components: 64, PSNR: math.Inf(1), SSIM: 1},
	}
	require.NoError(t, Sweep(&buf, "sweep", points))
	html := buf.String()
	assert.Contains(t, html, "PSNR (dB)")
	assert.Contains(t, html, "SSIM")
}
