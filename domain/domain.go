// Package domain combines an ordered list of bases with a grid data type
// and a process mesh, and exposes distributed grid construction.
package domain

import (
	"errors"
	"fmt"

	"github.com/pdekit/speclayout/basis"
	"github.com/pdekit/speclayout/layout"
	"github.com/pdekit/speclayout/mesh"
)

// ErrRange indicates an axis index or scale argument outside its legal
// range.
var ErrRange = errors.New("domain argument out of range")

// Dtype selects the element type of grid-space field data
type Dtype uint8

const (
	Float64 Dtype = iota
	Complex128
)

func (t Dtype) String() string {
	if t == Float64 {
		return "float64"
	}
	return "complex128"
}

// Domain is the top-level configuration object: one basis per dimension, a
// grid data type, and a process mesh. It owns its distributor and layout
// chain for its lifetime and is immutable once constructed; changing the
// mesh means constructing a new Domain.
type Domain struct {
	Bases []basis.Basis
	Dtype Dtype
	Dist  *layout.Distributor
}

// New constructs a domain from the viewpoint of one rank among procs
// processes. A nil mesh selects the default degenerate mesh placing all
// processes along the first distributable axis. Rank and process count are
// passed explicitly rather than read from ambient process state, so any
// mesh shape can be exercised against a fixed logical rank.
func New(bases []basis.Basis, dtype Dtype, m *mesh.ProcessMesh, rank, procs int) (*Domain, error) {
	if len(bases) == 0 {
		return nil, fmt.Errorf("domain needs at least one basis: %w", mesh.ErrConfig)
	}
	for i, b := range bases {
		if b == nil {
			return nil, fmt.Errorf("basis %d is nil: %w", i, mesh.ErrConfig)
		}
	}
	if m == nil {
		var err error
		if m, err = mesh.Default(procs); err != nil {
			return nil, err
		}
	} else if m.Procs() != procs {
		return nil, fmt.Errorf("mesh built for %d processes, domain given %d: %w",
			m.Procs(), procs, mesh.ErrSizeMismatch)
	}

	dist, err := layout.NewDistributor(len(bases), m, rank)
	if err != nil {
		return nil, err
	}

	d := &Domain{
		Bases: make([]basis.Basis, len(bases)),
		Dtype: dtype,
		Dist:  dist,
	}
	copy(d.Bases, bases)
	return d, nil
}

// Dim returns the domain dimensionality
func (d *Domain) Dim() int { return len(d.Bases) }

// CoeffShape returns the global per-axis extents in coefficient space
func (d *Domain) CoeffShape() []int {
	shape := make([]int, len(d.Bases))
	for a, b := range d.Bases {
		shape[a] = b.Modes()
	}
	return shape
}

// GridShape returns the global per-axis extents in grid space at the given
// per-axis scales.
func (d *Domain) GridShape(scales []float64) ([]int, error) {
	if len(scales) != len(d.Bases) {
		return nil, fmt.Errorf("got %d scales for %d axes: %w", len(scales), len(d.Bases), ErrRange)
	}
	shape := make([]int, len(d.Bases))
	for a, b := range d.Bases {
		if scales[a] <= 0 {
			return nil, fmt.Errorf("axis %d: %w", a, basis.ErrInvalidScale)
		}
		shape[a] = b.GridSize(scales[a])
	}
	return shape, nil
}

// GlobalShape returns the global per-axis extents under a layout: grid
// extents for axes already in grid space, coefficient extents otherwise.
func (d *Domain) GlobalShape(l *layout.Layout, scales []float64) ([]int, error) {
	grid, err := d.GridShape(scales)
	if err != nil {
		return nil, err
	}
	shape := d.CoeffShape()
	for a := range shape {
		if l.GridSpace[a] {
			shape[a] = grid[a]
		}
	}
	return shape, nil
}

// resolveScales normalizes the variadic scale argument: none means 1
// everywhere, a single value broadcasts to all axes, and a full-length
// sequence applies per axis.
func (d *Domain) resolveScales(scales []float64) ([]float64, error) {
	n := len(d.Bases)
	out := make([]float64, n)
	switch len(scales) {
	case 0:
		for a := range out {
			out[a] = 1
		}
	case 1:
		for a := range out {
			out[a] = scales[0]
		}
	case n:
		copy(out, scales)
	default:
		return nil, fmt.Errorf("got %d scales for %d axes, want 1 or %d: %w",
			len(scales), n, n, ErrRange)
	}
	for a, s := range out {
		if s <= 0 {
			return nil, fmt.Errorf("axis %d: %w", a, basis.ErrInvalidScale)
		}
	}
	return out, nil
}

// GridChunk is the process-local slice of one axis grid, oriented for
// broadcasting: the requested axis carries the local grid points and every
// other axis has unit extent.
type GridChunk struct {
	Shape []int
	Data  []float64
}

// Len returns the number of grid points in the chunk
func (c *GridChunk) Len() int { return len(c.Data) }

// Grid returns this rank's slice of the global grid along the given axis
// under the terminal (pure grid space) layout. Scales follow resolveScales:
// absent means 1, one value broadcasts, N values apply per axis.
func (d *Domain) Grid(axis int, scales ...float64) (*GridChunk, error) {
	if axis < 0 || axis >= len(d.Bases) {
		return nil, fmt.Errorf("axis %d outside [0,%d): %w", axis, len(d.Bases), ErrRange)
	}
	sc, err := d.resolveScales(scales)
	if err != nil {
		return nil, err
	}

	full, err := d.Bases[axis].Grid(sc[axis])
	if err != nil {
		return nil, fmt.Errorf("axis %d: %w", axis, err)
	}

	gl := d.Dist.GridLayout()
	start, stop := d.Dist.LocalSlice(gl, axis, len(full))

	chunk := &GridChunk{
		Shape: make([]int, len(d.Bases)),
		Data:  make([]float64, stop-start),
	}
	for a := range chunk.Shape {
		chunk.Shape[a] = 1
	}
	chunk.Shape[axis] = stop - start
	copy(chunk.Data, full[start:stop])
	return chunk, nil
}

// Grids returns the broadcast-oriented local grid chunks for every axis at
// the given scales, ready for elementwise composition.
func (d *Domain) Grids(scales ...float64) ([]*GridChunk, error) {
	chunks := make([]*GridChunk, len(d.Bases))
	for a := range d.Bases {
		c, err := d.Grid(a, scales...)
		if err != nil {
			return nil, err
		}
		chunks[a] = c
	}
	return chunks, nil
}
