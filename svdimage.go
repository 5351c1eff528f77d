package svdimage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/yyyoichi/svdimage/internal/gray"
	"github.com/yyyoichi/svdimage/internal/metrics"
	"github.com/yyyoichi/svdimage/internal/svd"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidMode      = errors.New("invalid mode")
	ErrNoInputLoaded    = errors.New("no input image loaded")
	ErrNumericalFailure = errors.New("numerical failure")
)

// Compress approximates src with the specified options.
// This is a convenience function that creates a Compressor instance and calls its Compress method.
func Compress(ctx context.Context, src image.Image, mode Mode, value float64, opts ...Option) (*Result, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return c.Compress(ctx, src, mode, value)
}

// RankTruncate rebuilds m from its top rank singular components.
// A rank above min(rows, cols) uses every component.
func RankTruncate(rank int, m mat.Matrix) (*mat.Dense, error) {
	res, err := svd.RankTruncate(rank, m)
	return res, translate(err)
}

// EnergyTruncate rebuilds m from the fewest leading singular components holding
// percent% of the squared singular value energy. At least one component is kept.
func EnergyTruncate(percent float64, m mat.Matrix) (*mat.Dense, error) {
	res, err := svd.EnergyTruncate(percent, m)
	return res, translate(err)
}

// Result is one reconstruction of a source image.
type Result struct {
	// Image is Matrix rounded and clamped to 8-bit pixels.
	Image  *image.Gray
	Matrix *mat.Dense

	Mode  Mode
	Value float64

	// Components is the number of singular components kept, out of K.
	Components int
	K          int
	// Energy is the fraction of squared singular value energy kept, in [0, 1].
	Energy float64
}

type Compressor struct {
	strictRank bool
}

// New initializes a compressor.
// By default a rank above the number of singular values is clamped;
// see WithStrictRank.
func New(opts ...Option) (*Compressor, error) {
	c := new(Compressor)
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Compress approximates the luma of src.
//
// Process:
//  1. Converts the image to a matrix of 8-bit luma intensities.
//  2. Factorizes the matrix with a full singular value decomposition.
//  3. Selects a leading prefix of components by rank or by retained energy.
//  4. Rebuilds the matrix from that prefix and rounds it into a gray image.
//
// Parameters are validated before any decomposition.
func (c *Compressor) Compress(ctx context.Context, src image.Image, mode Mode, value float64) (*Result, error) {
	if src == nil {
		return nil, ErrNoInputLoaded
	}
	if err := Validate(mode, value); err != nil {
		return nil, err
	}
	return c.compress(ctx, gray.ToMatrix(src), mode, value)
}

// CompressMatrix is Compress for an already converted luma matrix.
func (c *Compressor) CompressMatrix(ctx context.Context, m mat.Matrix, mode Mode, value float64) (*Result, error) {
	if m == nil {
		return nil, ErrNoInputLoaded
	}
	if err := Validate(mode, value); err != nil {
		return nil, err
	}
	return c.compress(ctx, m, mode, value)
}

// Rank keeps the top rank components of src.
func (c *Compressor) Rank(ctx context.Context, src image.Image, rank int) (*Result, error) {
	return c.Compress(ctx, src, ModeRank, float64(rank))
}

// Energy keeps the fewest leading components of src holding percent% of its energy.
func (c *Compressor) Energy(ctx context.Context, src image.Image, percent float64) (*Result, error) {
	return c.Compress(ctx, src, ModeError, percent)
}

func (c *Compressor) compress(ctx context.Context, m mat.Matrix, mode Mode, value float64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := svd.Decompose(m)
	if err != nil {
		return nil, translate(err)
	}

	var t int
	switch mode {
	case ModeRank:
		rank := int(math.Min(value, math.MaxInt32))
		if c.strictRank && rank > d.Len() {
			return nil, fmt.Errorf("%w: rank %d exceeds %d singular values", ErrInvalidParameter, rank, d.Len())
		}
		t = d.RankPrefix(rank)
	case ModeError:
		t = d.EnergyPrefix(value)
	}

	rebuilt := d.Reconstruct(t)
	return &Result{
		Image:      gray.ToImage(rebuilt),
		Matrix:     rebuilt,
		Mode:       mode,
		Value:      value,
		Components: t,
		K:          d.Len(),
		Energy:     metrics.EnergyRetained(d.Values(), t),
	}, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, svd.ErrInvalidRank), errors.Is(err, svd.ErrInvalidPercent):
		return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	case errors.Is(err, svd.ErrEmptyMatrix):
		return fmt.Errorf("%w: %w", ErrNoInputLoaded, err)
	case errors.Is(err, svd.ErrFactorize):
		return fmt.Errorf("%w: %w", ErrNumericalFailure, err)
	}
	return err
}
