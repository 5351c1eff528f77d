package svdimage

import (
	"fmt"
	"math"
	"strings"

	"github.com/yyyoichi/svdimage/internal/svd"
)

// Mode selects how many singular components a reconstruction keeps.
type Mode int

const (
	// ModeRank keeps a fixed number of components.
	ModeRank Mode = iota + 1
	// ModeError keeps the fewest components retaining a percentage of the energy.
	ModeError
)

func (m Mode) String() string {
	switch m {
	case ModeRank:
		return "RANK"
	case ModeError:
		return "ERROR"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "rank", "error" and its alias "energy", in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RANK":
		return ModeRank, nil
	case "ERROR", "ENERGY":
		return ModeError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Validate checks value against mode before any decomposition runs.
//
// value must be positive and finite. ModeRank requires a whole number;
// ModeError requires value <= 100.
func Validate(mode Mode, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: value must be a finite number", ErrInvalidParameter)
	}
	if value <= 0 {
		return fmt.Errorf("%w: value must be positive", ErrInvalidParameter)
	}
	switch mode {
	case ModeRank:
		if value != math.Trunc(value) {
			return fmt.Errorf("%w: rank must be a whole number, got %g", ErrInvalidParameter, value)
		}
	case ModeError:
		if err := svd.ValidPercent(value); err != nil {
			return fmt.Errorf("%w: error must be between 0 and 100%%: %w", ErrInvalidParameter, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}
	return nil
}
