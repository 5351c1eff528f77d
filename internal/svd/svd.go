package svd

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrFactorize      = errors.New("cannot factorize")
	ErrEmptyMatrix    = errors.New("empty matrix")
	ErrInvalidRank    = errors.New("rank must be positive")
	ErrInvalidPercent = errors.New("percent must be in (0, 100]")
)

// Decomposition holds the thin singular value decomposition A = U * diag(S) * V^T
// of an m x n matrix. U is m x k, V is n x k and S has k = min(m, n) values sorted
// in descending order.
type Decomposition struct {
	m, n int
	u, v mat.Dense
	s    []float64
}

// Decompose factorizes a into all of its min(m, n) components.
func Decompose(a mat.Matrix) (*Decomposition, error) {
	if a == nil {
		return nil, ErrEmptyMatrix
	}
	m, n := a.Dims()
	if m == 0 || n == 0 {
		return nil, ErrEmptyMatrix
	}
	var result mat.SVD
	if ok := result.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: %dx%d matrix", ErrFactorize, m, n)
	}
	d := &Decomposition{m: m, n: n}
	d.s = result.Values(nil)
	result.UTo(&d.u)
	result.VTo(&d.v)
	return d, nil
}

// Len returns the number of singular values k.
func (d *Decomposition) Len() int { return len(d.s) }

// Dims returns the shape of the decomposed matrix.
func (d *Decomposition) Dims() (m, n int) { return d.m, d.n }

// Values returns a copy of the singular values.
func (d *Decomposition) Values() []float64 {
	s := make([]float64, len(d.s))
	copy(s, d.s)
	return s
}

// Factors returns copies of U (m x k), S and V^T (k x n).
func (d *Decomposition) Factors() (u *mat.Dense, s []float64, vt *mat.Dense) {
	u = mat.DenseCopyOf(&d.u)
	vt = mat.DenseCopyOf(d.v.T())
	return u, d.Values(), vt
}

// Energy returns the sum of squared singular values, accumulated from the
// largest in the same order as EnergyPrefix.
func (d *Decomposition) Energy() float64 {
	var total float64
	for _, v := range d.s {
		total += v * v
	}
	return total
}

// RankPrefix returns the number of components used for rank, clamped to [1, k].
func (d *Decomposition) RankPrefix(rank int) int {
	return max(1, min(rank, len(d.s)))
}

// EnergyPrefix returns the length of the shortest leading run of singular values
// whose squared sum reaches percent% of Energy.
// The first component is always taken, even when the target is zero.
func (d *Decomposition) EnergyPrefix(percent float64) int {
	// percent/100 is exactly 1 for 100, so the full sum always reaches the target.
	target := d.Energy() * (percent / 100)
	var energy float64
	t := 0
	for t < len(d.s) && (t == 0 || energy < target) {
		energy += d.s[t] * d.s[t]
		t++
	}
	return t
}

// Reconstruct returns U[:, :t] * diag(S[:t]) * V[:, :t]^T.
// t is clamped to [1, k].
func (d *Decomposition) Reconstruct(t int) *mat.Dense {
	t = d.RankPrefix(t)
	sigma := make([]float64, t)
	copy(sigma, d.s[:t])

	var res mat.Dense
	res.Product(
		d.u.Slice(0, d.m, 0, t),
		mat.NewDiagDense(t, sigma),
		d.v.Slice(0, d.n, 0, t).T(),
	)
	return &res
}

// RankTruncate rebuilds a from its top rank components.
// A rank larger than min(m, n) is clamped to min(m, n).
func RankTruncate(rank int, a mat.Matrix) (*mat.Dense, error) {
	if rank <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRank, rank)
	}
	d, err := Decompose(a)
	if err != nil {
		return nil, err
	}
	return d.Reconstruct(rank), nil
}

// EnergyTruncate rebuilds a from the fewest leading components that retain
// percent% of the squared singular value energy.
func EnergyTruncate(percent float64, a mat.Matrix) (*mat.Dense, error) {
	if err := ValidPercent(percent); err != nil {
		return nil, err
	}
	d, err := Decompose(a)
	if err != nil {
		return nil, err
	}
	return d.Reconstruct(d.EnergyPrefix(percent)), nil
}

// ValidPercent reports whether percent is in (0, 100].
func ValidPercent(percent float64) error {
	// NaN fails both comparisons
	if !(percent > 0 && percent <= 100) {
		return fmt.Errorf("%w: got %g", ErrInvalidPercent, percent)
	}
	return nil
}
