package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/pdekit/speclayout/basis"
	"github.com/pdekit/speclayout/mesh"
)

func chebBases(t *testing.T, modes ...int) []basis.Basis {
	t.Helper()
	bases := make([]basis.Basis, len(modes))
	for a, n := range modes {
		b, err := basis.NewChebyshev(string(rune('x'+a)), n, basis.Interval{Left: -1, Right: 1}, 1)
		if err != nil {
			t.Fatalf("basis %d: %v", a, err)
		}
		bases[a] = b
	}
	return bases
}

func mustMesh(t *testing.T, shape []int, procs int) *mesh.ProcessMesh {
	t.Helper()
	m, err := mesh.New(shape, procs)
	if err != nil {
		t.Fatalf("mesh %v/%d: %v", shape, procs, err)
	}
	return m
}

func TestSerialDomain(t *testing.T) {
	d, err := New(chebBases(t, 8, 8, 8), Float64, mustMesh(t, []int{1}, 1), 0, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if d.Dim() != 3 {
		t.Errorf("Dim() = %d, want 3", d.Dim())
	}
	if got := len(d.Dist.Layouts); got != 4 {
		t.Errorf("serial chain has %d layouts, want 4", got)
	}
	for _, l := range d.Dist.Layouts {
		if !l.AllLocal() {
			t.Errorf("layout %d not fully local in serial run: %v", l.Index, l.Local)
		}
	}
}

func TestDefaultMesh(t *testing.T) {
	d, err := New(chebBases(t, 8, 8), Float64, nil, 2, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if shape := d.Dist.Mesh.Shape(); len(shape) != 1 || shape[0] != 4 {
		t.Errorf("default mesh shape = %v, want [4]", shape)
	}
}

func TestConstructionErrors(t *testing.T) {
	bases := chebBases(t, 8, 8, 8)

	t.Run("MeshProcsMismatch", func(t *testing.T) {
		d, err := New(bases, Float64, mustMesh(t, []int{4, 2}, 8), 0, 4)
		if !errors.Is(err, mesh.ErrSizeMismatch) {
			t.Fatalf("expected size mismatch, got %v", err)
		}
		if d != nil {
			t.Error("expected nil domain on configuration error")
		}
	})

	t.Run("MeshRankMismatch", func(t *testing.T) {
		d, err := New(chebBases(t, 8, 8), Float64, mustMesh(t, []int{2, 2}, 4), 0, 4)
		if !errors.Is(err, mesh.ErrConfig) {
			t.Fatalf("expected configuration error, got %v", err)
		}
		if d != nil {
			t.Error("expected nil domain on configuration error")
		}
	})

	t.Run("NoBases", func(t *testing.T) {
		if _, err := New(nil, Float64, nil, 0, 1); !errors.Is(err, mesh.ErrConfig) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("BadRank", func(t *testing.T) {
		if _, err := New(bases, Float64, nil, 4, 4); !errors.Is(err, mesh.ErrRange) {
			t.Fatalf("expected range error, got %v", err)
		}
	})
}

func TestGridBroadcastOrientation(t *testing.T) {
	// Mesh [4,2]: in grid space axis 0 is fully local, axis 1 is split
	// over the size-4 dimension and axis 2 over the size-2 dimension.
	testCases := []struct {
		name      string
		rank      int
		axis      int
		wantShape []int
		wantSlice [2]int
	}{
		{"axis0_full", 0, 0, []int{8, 1, 1}, [2]int{0, 8}},
		{"axis0_any_rank", 7, 0, []int{8, 1, 1}, [2]int{0, 8}},
		{"axis1_rank0", 0, 1, []int{1, 2, 1}, [2]int{0, 2}},
		{"axis1_rank7", 7, 1, []int{1, 2, 1}, [2]int{6, 8}},
		{"axis2_rank0", 0, 2, []int{1, 1, 4}, [2]int{0, 4}},
		{"axis2_rank7", 7, 2, []int{1, 1, 4}, [2]int{4, 8}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := New(chebBases(t, 8, 8, 8), Float64, mustMesh(t, []int{4, 2}, 8), tc.rank, 8)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			chunk, err := d.Grid(tc.axis)
			if err != nil {
				t.Fatalf("Grid(%d): %v", tc.axis, err)
			}

			for a := range chunk.Shape {
				if chunk.Shape[a] != tc.wantShape[a] {
					t.Fatalf("shape = %v, want %v", chunk.Shape, tc.wantShape)
				}
			}
			if chunk.Len() != tc.wantShape[tc.axis] {
				t.Errorf("Len() = %d, want %d", chunk.Len(), tc.wantShape[tc.axis])
			}

			full, err := d.Bases[tc.axis].Grid(1)
			if err != nil {
				t.Fatalf("full grid: %v", err)
			}
			want := full[tc.wantSlice[0]:tc.wantSlice[1]]
			for i := range want {
				if chunk.Data[i] != want[i] {
					t.Errorf("value %d = %g, want %g", i, chunk.Data[i], want[i])
				}
			}
		})
	}
}

func TestGridScales(t *testing.T) {
	d, err := New(chebBases(t, 8, 8, 8), Float64, mustMesh(t, []int{1}, 1), 0, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Run("Broadcast", func(t *testing.T) {
		chunk, err := d.Grid(0, 1.5)
		if err != nil {
			t.Fatalf("Grid: %v", err)
		}
		if chunk.Len() != 12 {
			t.Errorf("Len() = %d, want 12", chunk.Len())
		}
	})

	t.Run("PerAxis", func(t *testing.T) {
		chunk, err := d.Grid(1, 1, 2, 1)
		if err != nil {
			t.Fatalf("Grid: %v", err)
		}
		if chunk.Len() != 16 {
			t.Errorf("Len() = %d, want 16", chunk.Len())
		}
	})

	t.Run("WrongCount", func(t *testing.T) {
		if _, err := d.Grid(0, 1, 2); !errors.Is(err, ErrRange) {
			t.Errorf("expected range error, got %v", err)
		}
	})

	t.Run("NonPositive", func(t *testing.T) {
		if _, err := d.Grid(0, -1.0); !errors.Is(err, basis.ErrInvalidScale) {
			t.Errorf("expected invalid scale error, got %v", err)
		}
	})

	t.Run("BadAxis", func(t *testing.T) {
		if _, err := d.Grid(3); !errors.Is(err, ErrRange) {
			t.Errorf("expected range error, got %v", err)
		}
		if _, err := d.Grid(-1); !errors.Is(err, ErrRange) {
			t.Errorf("expected range error, got %v", err)
		}
	})
}

func TestGrids(t *testing.T) {
	d, err := New(chebBases(t, 4, 6), Float64, mustMesh(t, []int{1}, 1), 0, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	chunks, err := d.Grids()
	if err != nil {
		t.Fatalf("Grids: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Shape[0] != 4 || chunks[0].Shape[1] != 1 {
		t.Errorf("axis 0 chunk shape = %v, want [4 1]", chunks[0].Shape)
	}
	if chunks[1].Shape[0] != 1 || chunks[1].Shape[1] != 6 {
		t.Errorf("axis 1 chunk shape = %v, want [1 6]", chunks[1].Shape)
	}
}

func TestGlobalShape(t *testing.T) {
	d, err := New(chebBases(t, 8, 8, 8), Float64, mustMesh(t, []int{4, 2}, 8), 0, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	scales := []float64{1.5, 1.5, 1.5}

	// Mixed layout: last axis transformed, others still in coefficients
	l := d.Dist.Layouts[1]
	shape, err := d.GlobalShape(l, scales)
	if err != nil {
		t.Fatalf("GlobalShape: %v", err)
	}
	want := []int{8, 8, 12}
	for a := range want {
		if shape[a] != want[a] {
			t.Fatalf("shape = %v, want %v", shape, want)
		}
	}

	shape, err = d.GlobalShape(d.Dist.GridLayout(), scales)
	if err != nil {
		t.Fatalf("GlobalShape: %v", err)
	}
	for a := range shape {
		if shape[a] != 12 {
			t.Fatalf("grid shape = %v, want all 12", shape)
		}
	}
}

func TestGridWithCompoundBasis(t *testing.T) {
	xb1, err := basis.NewChebyshev("x1", 16, basis.Interval{Left: 0, Right: 2}, 1)
	if err != nil {
		t.Fatalf("basis: %v", err)
	}
	xb2, err := basis.NewChebyshev("x2", 32, basis.Interval{Left: 2, Right: 8}, 1)
	if err != nil {
		t.Fatalf("basis: %v", err)
	}
	xb3, err := basis.NewChebyshev("x3", 16, basis.Interval{Left: 8, Right: 10}, 1)
	if err != nil {
		t.Fatalf("basis: %v", err)
	}
	cb, err := basis.NewCompound("x", xb1, xb2, xb3)
	if err != nil {
		t.Fatalf("compound: %v", err)
	}
	yb, err := basis.NewFourier("y", 16, basis.Interval{Left: 0, Right: 2 * math.Pi}, 1)
	if err != nil {
		t.Fatalf("basis: %v", err)
	}

	d, err := New([]basis.Basis{cb, yb}, Float64, mustMesh(t, []int{2}, 2), 1, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Terminal layout: axis 0 local, axis 1 split over 2 processes
	chunk, err := d.Grid(0)
	if err != nil {
		t.Fatalf("Grid(0): %v", err)
	}
	if chunk.Len() != 64 {
		t.Errorf("compound axis chunk has %d points, want 64", chunk.Len())
	}

	chunk, err = d.Grid(1)
	if err != nil {
		t.Fatalf("Grid(1): %v", err)
	}
	if chunk.Len() != 8 {
		t.Errorf("split axis chunk has %d points, want 8", chunk.Len())
	}
}

func TestDtype(t *testing.T) {
	d, err := New(chebBases(t, 4, 4), Complex128, nil, 0, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Dtype != Complex128 {
		t.Errorf("Dtype = %v, want complex128", d.Dtype)
	}
	if Float64.String() != "float64" || Complex128.String() != "complex128" {
		t.Error("unexpected Dtype string forms")
	}
}
