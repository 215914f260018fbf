// Package mesh describes the logical arrangement of parallel worker
// processes along the distributable axes of a domain.
package mesh

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig indicates an invalid process mesh configuration.
	ErrConfig = errors.New("invalid process mesh configuration")

	// ErrSizeMismatch indicates a mesh whose cell count does not equal the
	// available process count.
	ErrSizeMismatch = fmt.Errorf("mesh size mismatch: %w", ErrConfig)

	// ErrRange indicates a rank, coordinate, or dimension outside the mesh.
	ErrRange = errors.New("mesh argument out of range")
)

// ProcessMesh is a validated shape arranging a fixed number of processes
// along distributable dimensions. Ranks map to mesh coordinates row-major,
// with the last dimension varying fastest. Immutable after construction.
type ProcessMesh struct {
	shape []int
	procs int
}

// New constructs a mesh from a shape vector and the available process
// count. The product of the shape entries must equal the process count.
func New(shape []int, procs int) (*ProcessMesh, error) {
	if procs <= 0 {
		return nil, fmt.Errorf("process count must be positive, got %d: %w", procs, ErrConfig)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("mesh shape must be non-empty: %w", ErrConfig)
	}
	cells := 1
	for d, n := range shape {
		if n <= 0 {
			return nil, fmt.Errorf("mesh dimension %d has non-positive size %d: %w", d, n, ErrConfig)
		}
		cells *= n
	}
	if cells != procs {
		return nil, fmt.Errorf("mesh %v has %d cells for %d processes: %w",
			shape, cells, procs, ErrSizeMismatch)
	}
	m := &ProcessMesh{shape: make([]int, len(shape)), procs: procs}
	copy(m.shape, shape)
	return m, nil
}

// Default returns the degenerate 1-D mesh placing all processes along a
// single dimension.
func Default(procs int) (*ProcessMesh, error) {
	return New([]int{procs}, procs)
}

// Shape returns a copy of the mesh shape vector
func (m *ProcessMesh) Shape() []int {
	s := make([]int, len(m.shape))
	copy(s, m.shape)
	return s
}

// Len returns the number of mesh dimensions
func (m *ProcessMesh) Len() int { return len(m.shape) }

// Dim returns the size of mesh dimension d
func (m *ProcessMesh) Dim(d int) int { return m.shape[d] }

// Procs returns the total process count
func (m *ProcessMesh) Procs() int { return m.procs }

// Coords returns the mesh coordinates of a rank
func (m *ProcessMesh) Coords(rank int) ([]int, error) {
	if rank < 0 || rank >= m.procs {
		return nil, fmt.Errorf("rank %d outside [0,%d): %w", rank, m.procs, ErrRange)
	}
	coords := make([]int, len(m.shape))
	for d := len(m.shape) - 1; d >= 0; d-- {
		coords[d] = rank % m.shape[d]
		rank /= m.shape[d]
	}
	return coords, nil
}

// Rank returns the rank at the given mesh coordinates
func (m *ProcessMesh) Rank(coords []int) (int, error) {
	if len(coords) != len(m.shape) {
		return 0, fmt.Errorf("got %d coordinates for %d mesh dimensions: %w",
			len(coords), len(m.shape), ErrRange)
	}
	rank := 0
	for d, c := range coords {
		if c < 0 || c >= m.shape[d] {
			return 0, fmt.Errorf("coordinate %d outside mesh dimension %d of size %d: %w",
				c, d, m.shape[d], ErrRange)
		}
		rank = rank*m.shape[d] + c
	}
	return rank, nil
}

// Group returns the communication group of a rank along mesh dimension d:
// the ranks sharing every coordinate except d, ordered by their coordinate
// along d. Every collective exchange for a transpose over dimension d
// happens within such a group.
func (m *ProcessMesh) Group(d, rank int) ([]int, error) {
	if d < 0 || d >= len(m.shape) {
		return nil, fmt.Errorf("mesh dimension %d outside [0,%d): %w", d, len(m.shape), ErrRange)
	}
	coords, err := m.Coords(rank)
	if err != nil {
		return nil, err
	}
	group := make([]int, m.shape[d])
	for c := range group {
		coords[d] = c
		r, err := m.Rank(coords)
		if err != nil {
			return nil, err
		}
		group[c] = r
	}
	return group, nil
}
