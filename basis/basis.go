package basis

import (
	"errors"
	"fmt"
	"math"
)

// Family identifies the transform family of a basis
type Family uint8

const (
	Chebyshev Family = iota // First-kind Chebyshev polynomials on a bounded interval
	Fourier                 // Complex exponentials on a periodic interval
)

func (f Family) String() string {
	switch f {
	case Chebyshev:
		return "Chebyshev"
	case Fourier:
		return "Fourier"
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// compoundable reports whether bases of this family may be joined into a
// CompoundBasis. Only families whose grids exclude interval endpoints and
// admit interface continuity constraints qualify.
func (f Family) compoundable() bool {
	return f == Chebyshev
}

// Interval is a bounded coordinate range with Left < Right
type Interval struct {
	Left  float64
	Right float64
}

// Center returns the interval midpoint
func (iv Interval) Center() float64 { return 0.5 * (iv.Left + iv.Right) }

// Radius returns half the interval length
func (iv Interval) Radius() float64 { return 0.5 * (iv.Right - iv.Left) }

// Length returns the interval length
func (iv Interval) Length() float64 { return iv.Right - iv.Left }

// Basis is a named 1-D functional basis over an interval. Implementations
// are immutable after construction; Grid is a pure function of the basis
// parameters and the requested scale.
type Basis interface {
	Name() string
	Modes() int
	Interval() Interval
	Dealias() float64
	Family() Family

	// GridSize returns the number of grid points at the given scale:
	// round(Modes*scale), rounding half away from zero.
	GridSize(scale float64) int

	// Grid returns the ascending grid node coordinates at the given scale.
	// The scale must be positive; ErrInvalidScale otherwise.
	Grid(scale float64) ([]float64, error)
}

// Error categories. Concrete failures wrap one of these so callers can
// match on the class with errors.Is.
var (
	// ErrGeometry indicates invalid basis geometry detected at construction.
	ErrGeometry = errors.New("invalid basis geometry")

	// ErrRange indicates an argument outside its legal range.
	ErrRange = errors.New("argument out of range")

	// ErrInvalidScale indicates a non-positive grid scale.
	ErrInvalidScale = fmt.Errorf("grid scale must be positive: %w", ErrRange)

	// ErrNonContiguousInterval indicates compound sub-bases whose intervals
	// are not exactly adjacent.
	ErrNonContiguousInterval = fmt.Errorf("sub-basis intervals are not contiguous: %w", ErrGeometry)

	// ErrMixedFamily indicates compound sub-bases of incompatible families.
	ErrMixedFamily = fmt.Errorf("sub-bases are not of a compatible family: %w", ErrGeometry)
)

// gridSize implements the shared rounding rule from mode count and scale
func gridSize(modes int, scale float64) int {
	return int(math.Floor(float64(modes)*scale + 0.5))
}

func checkScale(scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidScale, scale)
	}
	return nil
}

// validateParams checks the shared construction parameters for a basis
func validateParams(name string, modes int, iv Interval, dealias float64) error {
	if name == "" {
		return fmt.Errorf("basis name must be non-empty: %w", ErrGeometry)
	}
	if modes <= 0 {
		return fmt.Errorf("basis %q: mode count must be positive, got %d: %w", name, modes, ErrGeometry)
	}
	if !(iv.Left < iv.Right) {
		return fmt.Errorf("basis %q: interval left %g must be below right %g: %w",
			name, iv.Left, iv.Right, ErrGeometry)
	}
	if dealias < 1 {
		return fmt.Errorf("basis %q: dealias scale must be >= 1, got %g: %w", name, dealias, ErrGeometry)
	}
	return nil
}
