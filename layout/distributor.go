package layout

import (
	"errors"
	"fmt"

	"github.com/pdekit/speclayout/mesh"
)

// ErrRankMismatch indicates a process mesh with too many dimensions for
// the domain's dimensionality.
var ErrRankMismatch = fmt.Errorf("mesh rank mismatch: %w", mesh.ErrConfig)

// ErrRange indicates a layout index or axis outside the chain.
var ErrRange = errors.New("layout argument out of range")

// Distributor owns the ordered layout chain for one (dimensionality,
// ProcessMesh) pair and the per-rank chunk geometry derived from it. It is
// built once and never mutated; every process in an SPMD group builds the
// identical chain from the shared configuration, so all processes agree on
// the order of transform and transpose steps by construction.
type Distributor struct {
	// Dimensionality of the domain
	Dim int

	// Process arrangement along the distributable axes
	Mesh *mesh.ProcessMesh

	// This process's rank and mesh coordinates
	Rank   int
	Coords []int

	// The chain, index 0 = pure coefficient space
	Layouts []*Layout

	// Steps[i] connects Layouts[i] to Layouts[i+1], stated in the forward
	// (toward grid space) direction.
	Steps []Op
}

// NewDistributor builds the layout chain for a domain of the given
// dimensionality over the given mesh, from the viewpoint of one rank.
// Size-1 mesh dimensions split nothing and are squeezed out before axis
// assignment; the mesh may carry at most dim-1 active (size > 1)
// dimensions. Axes beyond the active mesh dimensions stay local
// throughout, the last axis always among them.
func NewDistributor(dim int, m *mesh.ProcessMesh, rank int) (*Distributor, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimensionality must be positive, got %d: %w", dim, mesh.ErrConfig)
	}
	if m == nil {
		return nil, fmt.Errorf("nil process mesh: %w", mesh.ErrConfig)
	}
	if active := activeDims(m); len(active) > dim-1 {
		return nil, fmt.Errorf("mesh %v has %d active dimensions for a %d-dimensional domain, need at most %d: %w",
			m.Shape(), len(active), dim, dim-1, ErrRankMismatch)
	}
	coords, err := m.Coords(rank)
	if err != nil {
		return nil, err
	}

	d := &Distributor{
		Dim:    dim,
		Mesh:   m,
		Rank:   rank,
		Coords: coords,
	}
	d.Layouts, d.Steps = buildChain(dim, m)
	return d, nil
}

// activeDims returns the mesh dimensions of size > 1, in order
func activeDims(m *mesh.ProcessMesh) []int {
	var active []int
	for d := 0; d < m.Len(); d++ {
		if m.Dim(d) > 1 {
			active = append(active, d)
		}
	}
	return active
}

// buildChain constructs the layout sequence from pure coefficient space to
// pure grid space. In coefficient space, axis i is split by the i-th
// active mesh dimension; the remaining axes are local. Axes are then
// processed from last to first: a local axis is transformed in place, while
// a split axis is first made local by a transpose that hands its mesh
// dimension to the neighboring (already transformed) axis.
func buildChain(dim int, m *mesh.ProcessMesh) ([]*Layout, []Op) {
	active := activeDims(m)
	cur := &Layout{
		Index:     0,
		GridSpace: make([]bool, dim),
		Local:     make([]bool, dim),
		MeshDims:  make([]int, dim),
	}
	for a := 0; a < dim; a++ {
		if a < len(active) {
			cur.Local[a] = false
			cur.MeshDims[a] = active[a]
		} else {
			cur.Local[a] = true
			cur.MeshDims[a] = -1
		}
	}

	layouts := []*Layout{cur}
	var steps []Op

	for axis := dim - 1; axis >= 0; axis-- {
		if !cur.Local[axis] {
			// Transpose: axis becomes local; the neighbor above, already
			// transformed and local, takes over its mesh dimension.
			next := cur.clone(cur.Index + 1)
			md := cur.MeshDims[axis]
			next.Local[axis] = true
			next.MeshDims[axis] = -1
			next.Local[axis+1] = false
			next.MeshDims[axis+1] = md
			steps = append(steps, Op{Kind: Transpose, Axis: axis, MeshDim: md, Forward: true})
			layouts = append(layouts, next)
			cur = next
		}

		// Transform: the axis is local; flip it to grid space.
		next := cur.clone(cur.Index + 1)
		next.GridSpace[axis] = true
		steps = append(steps, Op{Kind: Transform, Axis: axis, Forward: true})
		layouts = append(layouts, next)
		cur = next
	}

	return layouts, steps
}

// CoeffLayout returns the pure coefficient space layout
func (d *Distributor) CoeffLayout() *Layout { return d.Layouts[0] }

// GridLayout returns the pure grid space layout
func (d *Distributor) GridLayout() *Layout { return d.Layouts[len(d.Layouts)-1] }

// Path returns the ordered operations moving data from layout index from
// to layout index to. Forward paths (from < to) head toward grid space;
// backward paths return the same steps reversed with Forward cleared. The
// chain is a total order, so no path ever oscillates.
func (d *Distributor) Path(from, to int) ([]Op, error) {
	last := len(d.Layouts) - 1
	if from < 0 || from > last {
		return nil, fmt.Errorf("from index %d outside [0,%d]: %w", from, last, ErrRange)
	}
	if to < 0 || to > last {
		return nil, fmt.Errorf("to index %d outside [0,%d]: %w", to, last, ErrRange)
	}

	if from <= to {
		ops := make([]Op, to-from)
		copy(ops, d.Steps[from:to])
		return ops, nil
	}

	ops := make([]Op, 0, from-to)
	for i := from - 1; i >= to; i-- {
		op := d.Steps[i]
		op.Forward = false
		ops = append(ops, op)
	}
	return ops, nil
}

// LocalSlice returns the half-open index range of the global extent along
// one axis held by this rank under layout l. Local axes hold the full
// extent; split axes hold a contiguous block, with trailing ranks clipped
// (possibly to an empty range) when the extent does not divide evenly.
func (d *Distributor) LocalSlice(l *Layout, axis, extent int) (start, stop int) {
	if l.Local[axis] {
		return 0, extent
	}
	md := l.MeshDims[axis]
	block := ceilDiv(extent, d.Mesh.Dim(md))
	start = d.Coords[md] * block
	stop = start + block
	if start > extent {
		start = extent
	}
	if stop > extent {
		stop = extent
	}
	return start, stop
}

// blockSlice is LocalSlice for an arbitrary coordinate along the splitting
// mesh dimension, used when planning exchanges with group peers.
func blockSlice(extent, meshSize, coord int) (start, stop int) {
	block := ceilDiv(extent, meshSize)
	start = coord * block
	stop = start + block
	if start > extent {
		start = extent
	}
	if stop > extent {
		stop = extent
	}
	return start, stop
}

// LocalShape returns this rank's chunk extents under layout l, given the
// global per-axis extents.
func (d *Distributor) LocalShape(l *Layout, global []int) ([]int, error) {
	if len(global) != d.Dim {
		return nil, fmt.Errorf("got %d global extents for %d axes: %w", len(global), d.Dim, ErrRange)
	}
	shape := make([]int, d.Dim)
	for a := 0; a < d.Dim; a++ {
		start, stop := d.LocalSlice(l, a, global[a])
		shape[a] = stop - start
	}
	return shape, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
