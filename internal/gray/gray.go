package gray

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ITU-R 601-2 luma weights in 16-bit fixed point; they sum to 1<<16.
const (
	yr = 19595
	yg = 38470
	yb = 7471
)

// ToMatrix converts src into a height x width matrix of 8-bit luma intensities.
// Alpha is ignored.
func ToMatrix(src image.Image) *mat.Dense {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	data := make([]float64, width*height)

	if g, ok := src.(*image.Gray); ok {
		idx := 0
		for y := range height {
			row := g.Pix[y*g.Stride : y*g.Stride+width]
			for x := range width {
				data[idx] = float64(row[x])
				idx++
			}
		}
		return newDense(height, width, data)
	}

	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			data[idx] = luma(src.At(x, y))
			idx++
		}
	}
	return newDense(height, width, data)
}

// ToImage rounds and clamps every element of m into an 8-bit gray pixel.
func ToImage(m mat.Matrix) *image.Gray {
	rows, cols := m.Dims()
	dist := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := range rows {
		row := dist.Pix[y*dist.Stride : y*dist.Stride+cols]
		for x := range cols {
			row[x] = clip8(m.At(y, x))
		}
	}
	return dist
}

// luma rounds L = 0.299R + 0.587G + 0.114B of the 8-bit channels to an
// integer intensity.
func luma(c color.Color) float64 {
	r32, g32, b32, _ := c.RGBA()
	r, g, b := r32>>8, g32>>8, b32>>8
	return float64((yr*r + yg*g + yb*b + 1<<15) >> 16)
}

func clip8(v float64) uint8 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// newDense avoids the zero-length panic of mat.NewDense for empty images.
func newDense(rows, cols int, data []float64) *mat.Dense {
	if rows == 0 || cols == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(rows, cols, data)
}
