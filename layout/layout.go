// Package layout builds and walks the chain of data layouts connecting
// pure-coefficient space to pure-grid space for a distributed
// multi-dimensional field.
package layout

// Layout is an immutable snapshot of per-axis state for a field's data at
// one position in the chain. Index 0 is pure coefficient space; the last
// index is pure grid space.
type Layout struct {
	// Position in the chain
	Index int

	// GridSpace[a] is true once axis a has been transformed to grid
	// representation.
	GridSpace []bool

	// Local[a] is true if axis a is not split across the mesh in this
	// layout.
	Local []bool

	// MeshDims[a] is the mesh dimension splitting axis a, or -1 when the
	// axis is local. Consistent with Local: MeshDims[a] == -1 iff Local[a].
	MeshDims []int
}

// clone copies the layout with a new index
func (l *Layout) clone(index int) *Layout {
	c := &Layout{
		Index:     index,
		GridSpace: make([]bool, len(l.GridSpace)),
		Local:     make([]bool, len(l.Local)),
		MeshDims:  make([]int, len(l.MeshDims)),
	}
	copy(c.GridSpace, l.GridSpace)
	copy(c.Local, l.Local)
	copy(c.MeshDims, l.MeshDims)
	return c
}

// AllGrid reports whether every axis is in grid space
func (l *Layout) AllGrid() bool {
	for _, g := range l.GridSpace {
		if !g {
			return false
		}
	}
	return true
}

// AllLocal reports whether every axis is local
func (l *Layout) AllLocal() bool {
	for _, loc := range l.Local {
		if !loc {
			return false
		}
	}
	return true
}

// OpKind distinguishes the two chain-step operations
type OpKind uint8

const (
	// Transform is a process-local basis transform along one axis
	Transform OpKind = iota
	// Transpose is a collective redistribution over one mesh dimension
	Transpose
)

func (k OpKind) String() string {
	if k == Transform {
		return "transform"
	}
	return "transpose"
}

// Op is one step between adjacent layouts in the chain. For a Transform,
// Axis is the axis transformed. For a Transpose, Axis is the axis that
// becomes local moving forward and MeshDim is the mesh dimension whose
// communication groups perform the exchange.
type Op struct {
	Kind    OpKind
	Axis    int
	MeshDim int

	// Forward is true when the op moves toward grid space (ascending
	// chain index). A backward Transform is the inverse basis transform;
	// a backward Transpose is the inverse redistribution.
	Forward bool
}
