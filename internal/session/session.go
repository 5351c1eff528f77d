// Package session keeps the interactive state of one user: the loaded source
// image and the bounded history of reconstructions made from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/yyyoichi/svdimage"
	"github.com/yyyoichi/svdimage/internal/gray"
	"gonum.org/v1/gonum/mat"
)

const DefaultHistoryLimit = 16

var (
	ErrNoResult     = errors.New("no reconstructed image")
	ErrOutOfHistory = errors.New("history index out of range")
)

// Source is the loaded input image.
type Source struct {
	Name   string
	Image  image.Image
	Matrix *mat.Dense
}

// Entry is one reconstruction kept in the history.
type Entry struct {
	ID        string
	CreatedAt time.Time
	*svdimage.Result
}

type Session struct {
	compressor *svdimage.Compressor
	limit      int
	now        func() time.Time

	source  *Source
	history []*Entry
	current int
}

// New creates an empty session. limit bounds the history; values below 1 use
// DefaultHistoryLimit.
func New(c *svdimage.Compressor, limit int) *Session {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &Session{
		compressor: c,
		limit:      limit,
		now:        time.Now,
		current:    -1,
	}
}

// Load replaces the source image. The history is kept: it belongs to the
// previous source but stays selectable and exportable.
func (s *Session) Load(name string, img image.Image) {
	s.source = &Source{
		Name:   name,
		Image:  img,
		Matrix: gray.ToMatrix(img),
	}
}

func (s *Session) Loaded() bool { return s.source != nil }

func (s *Session) Source() (*Source, error) {
	if s.source == nil {
		return nil, svdimage.ErrNoInputLoaded
	}
	return s.source, nil
}

// Apply reconstructs the source with mode and value and makes the result current.
// On error the history and the current entry are left as they were.
func (s *Session) Apply(ctx context.Context, mode svdimage.Mode, value float64) (*Entry, error) {
	if s.source == nil {
		return nil, svdimage.ErrNoInputLoaded
	}
	res, err := s.compressor.CompressMatrix(ctx, s.source.Matrix, mode, value)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		ID:        uuid.New().String(),
		CreatedAt: s.now(),
		Result:    res,
	}
	s.history = append(s.history, e)
	if over := len(s.history) - s.limit; over > 0 {
		// drop the oldest entries
		s.history = append(s.history[:0], s.history[over:]...)
	}
	s.current = len(s.history) - 1
	return e, nil
}

// Current returns the selected entry, the latest one unless Select was called.
func (s *Session) Current() (*Entry, error) {
	if s.current < 0 {
		return nil, ErrNoResult
	}
	return s.history[s.current], nil
}

// CurrentIndex returns the index of the selected entry, or -1.
func (s *Session) CurrentIndex() int { return s.current }

// History returns the entries, oldest first.
func (s *Session) History() []*Entry {
	out := make([]*Entry, len(s.history))
	copy(out, s.history)
	return out
}

// Select makes history entry i current.
func (s *Session) Select(i int) (*Entry, error) {
	if i < 0 || i >= len(s.history) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfHistory, i, len(s.history))
	}
	s.current = i
	return s.history[i], nil
}

// Reset drops the source and the history.
func (s *Session) Reset() {
	s.source = nil
	s.history = nil
	s.current = -1
}
