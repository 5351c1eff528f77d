// Package metrics measures how far a reconstruction is from its source.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Peak is the largest 8-bit intensity.
const Peak = 255.0

// Frobenius returns ||a - b||_F.
func Frobenius(a, b mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	return mat.Norm(&diff, 2)
}

// MSE returns the mean squared element difference of a and b.
func MSE(a, b mat.Matrix) float64 {
	r, c := a.Dims()
	if r*c == 0 {
		return 0
	}
	f := Frobenius(a, b)
	return f * f / float64(r*c)
}

func RMSE(a, b mat.Matrix) float64 {
	return math.Sqrt(MSE(a, b))
}

// PSNR returns the peak signal-to-noise ratio in dB; +Inf when a equals b.
func PSNR(a, b mat.Matrix) float64 {
	mse := MSE(a, b)
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(Peak*Peak/mse)
}

// SSIM computes a single-window structural similarity index over the whole matrix.
func SSIM(a, b mat.Matrix) float64 {
	const (
		k1 = 0.01
		k2 = 0.03
	)
	c1 := (k1 * Peak) * (k1 * Peak)
	c2 := (k2 * Peak) * (k2 * Peak)

	x, y := flatten(a), flatten(b)
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}

	muX := stat.Mean(x, nil)
	muY := stat.Mean(y, nil)
	var sigmaX, sigmaY, sigmaXY float64
	// variance is undefined for a single sample
	if len(x) > 1 {
		sigmaX = stat.Variance(x, nil)
		sigmaY = stat.Variance(y, nil)
		sigmaXY = stat.Covariance(x, y, nil)
	}

	num := (2*muX*muY + c1) * (2*sigmaXY + c2)
	den := (muX*muX + muY*muY + c1) * (sigmaX + sigmaY + c2)
	return num / den
}

// EnergyRetained returns the share of squared singular value energy held by the
// first t values of s, in [0, 1]. A zero spectrum counts as fully retained.
func EnergyRetained(s []float64, t int) float64 {
	t = max(0, min(t, len(s)))
	total := floats.Dot(s, s)
	if total == 0 {
		return 1
	}
	return floats.Dot(s[:t], s[:t]) / total
}

// StorageRatio is the number of values needed to store t components of an
// m x n matrix (t columns of U and V plus t singular values) relative to m*n.
func StorageRatio(m, n, t int) float64 {
	if m*n == 0 {
		return 0
	}
	return float64(t*(m+n+1)) / float64(m*n)
}

func flatten(a mat.Matrix) []float64 {
	r, c := a.Dims()
	data := make([]float64, 0, r*c)
	for i := range r {
		for j := range c {
			data = append(data, a.At(i, j))
		}
	}
	return data
}
