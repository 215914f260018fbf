package basis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CompoundBasis joins two or more adjacent bases of the same compoundable
// family into a single logical basis. Its grid is the concatenation of the
// sub-grids in interval order; continuity across the interior interfaces is
// a transform-time constraint expressed by InterfaceConstraints, not a
// storage-time one.
type CompoundBasis struct {
	name string
	subs []Basis
}

// NewCompound constructs a compound basis from sub-bases ordered by
// interval position. The sub-bases must share a compoundable family and
// their intervals must be exactly adjacent.
func NewCompound(name string, subs ...Basis) (*CompoundBasis, error) {
	if name == "" {
		return nil, fmt.Errorf("compound basis name must be non-empty: %w", ErrGeometry)
	}
	if len(subs) < 2 {
		return nil, fmt.Errorf("compound basis %q: need at least 2 sub-bases, got %d: %w",
			name, len(subs), ErrGeometry)
	}
	family := subs[0].Family()
	if !family.compoundable() {
		return nil, fmt.Errorf("compound basis %q: family %s: %w", name, family, ErrMixedFamily)
	}
	for i, sb := range subs {
		// Compounding needs the concrete endpoint evaluation rows, so
		// sub-bases must be plain Chebyshev bases, not nested compounds.
		if _, ok := sb.(*ChebyshevBasis); !ok {
			return nil, fmt.Errorf("compound basis %q: sub-basis %q cannot be compounded: %w",
				name, sb.Name(), ErrMixedFamily)
		}
		if sb.Family() != family {
			return nil, fmt.Errorf("compound basis %q: sub-basis %q is %s, expected %s: %w",
				name, sb.Name(), sb.Family(), family, ErrMixedFamily)
		}
		if i == 0 {
			continue
		}
		prev := subs[i-1].Interval()
		cur := sb.Interval()
		if prev.Right != cur.Left {
			return nil, fmt.Errorf("compound basis %q: gap between %q ending at %g and %q starting at %g: %w",
				name, subs[i-1].Name(), prev.Right, sb.Name(), cur.Left, ErrNonContiguousInterval)
		}
	}
	cb := &CompoundBasis{name: name, subs: make([]Basis, len(subs))}
	copy(cb.subs, subs)
	return cb, nil
}

func (b *CompoundBasis) Name() string   { return b.name }
func (b *CompoundBasis) Family() Family { return b.subs[0].Family() }

// Modes returns the total mode count across all sub-bases
func (b *CompoundBasis) Modes() int {
	total := 0
	for _, sb := range b.subs {
		total += sb.Modes()
	}
	return total
}

// Interval returns the union of the sub-intervals
func (b *CompoundBasis) Interval() Interval {
	return Interval{
		Left:  b.subs[0].Interval().Left,
		Right: b.subs[len(b.subs)-1].Interval().Right,
	}
}

// Dealias returns the largest dealias factor among the sub-bases, the
// factor that satisfies every sub-expansion's dealiasing requirement.
func (b *CompoundBasis) Dealias() float64 {
	d := b.subs[0].Dealias()
	for _, sb := range b.subs[1:] {
		if sb.Dealias() > d {
			d = sb.Dealias()
		}
	}
	return d
}

// SubBases returns the sub-bases in interval order
func (b *CompoundBasis) SubBases() []Basis {
	subs := make([]Basis, len(b.subs))
	copy(subs, b.subs)
	return subs
}

func (b *CompoundBasis) GridSize(scale float64) int {
	total := 0
	for _, sb := range b.subs {
		total += sb.GridSize(scale)
	}
	return total
}

// Grid returns the concatenation of each sub-basis grid at the given scale,
// in interval order. Root grids exclude endpoints, so the result is strictly
// ascending with no duplicated interface points.
func (b *CompoundBasis) Grid(scale float64) ([]float64, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}
	g := make([]float64, 0, b.GridSize(scale))
	for _, sb := range b.subs {
		sg, err := sb.Grid(scale)
		if err != nil {
			return nil, fmt.Errorf("compound basis %q: sub-basis %q: %w", b.name, sb.Name(), err)
		}
		g = append(g, sg...)
	}
	return g, nil
}

// InterfaceConstraints returns the continuity constraint rows the transform
// kernel must enforce at the interior interfaces: a [2(k-1) x Modes] matrix
// whose rows evaluate the jump in value and in first derivative across each
// interface. A coefficient vector c is interface-continuous iff every row
// dotted with c is zero.
func (b *CompoundBasis) InterfaceConstraints() *mat.Dense {
	k := len(b.subs)
	c := mat.NewDense(2*(k-1), b.Modes(), nil)

	offset := 0
	for i := 0; i < k-1; i++ {
		left := b.subs[i].(*ChebyshevBasis)
		right := b.subs[i+1].(*ChebyshevBasis)
		leftOff := offset
		rightOff := offset + left.Modes()

		// Value match: left expansion at its right endpoint minus right
		// expansion at its left endpoint.
		setRowSegment(c, 2*i, leftOff, left.endpointRow(true), 1)
		setRowSegment(c, 2*i, rightOff, right.endpointRow(false), -1)

		// First-derivative match at the same interface.
		setRowSegment(c, 2*i+1, leftOff, left.endpointDerivRow(true), 1)
		setRowSegment(c, 2*i+1, rightOff, right.endpointDerivRow(false), -1)

		offset = rightOff
	}
	return c
}

func setRowSegment(m *mat.Dense, row, col int, vals []float64, sign float64) {
	for j, v := range vals {
		m.Set(row, col+j, sign*v)
	}
}
