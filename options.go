package svdimage

type Option func(*Compressor) error

// WithStrictRank rejects a rank above the number of singular values with
// ErrInvalidParameter instead of clamping it.
// The check needs the decomposition, so it runs after factorization.
func WithStrictRank() Option {
	return func(c *Compressor) error {
		c.strictRank = true
		return nil
	}
}
