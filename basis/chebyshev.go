package basis

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ChebyshevBasis expands functions in first-kind Chebyshev polynomials over
// a bounded interval. Its grid is the interior-root (Gauss-Chebyshev) grid,
// which excludes the interval endpoints.
type ChebyshevBasis struct {
	name    string
	modes   int
	iv      Interval
	dealias float64
}

// NewChebyshev constructs a Chebyshev basis. A dealias factor of 0 selects
// the default of 1; otherwise it must be >= 1.
func NewChebyshev(name string, modes int, iv Interval, dealias float64) (*ChebyshevBasis, error) {
	if dealias == 0 {
		dealias = 1
	}
	if err := validateParams(name, modes, iv, dealias); err != nil {
		return nil, err
	}
	return &ChebyshevBasis{name: name, modes: modes, iv: iv, dealias: dealias}, nil
}

func (b *ChebyshevBasis) Name() string       { return b.name }
func (b *ChebyshevBasis) Modes() int         { return b.modes }
func (b *ChebyshevBasis) Interval() Interval { return b.iv }
func (b *ChebyshevBasis) Dealias() float64   { return b.dealias }
func (b *ChebyshevBasis) Family() Family     { return Chebyshev }

func (b *ChebyshevBasis) GridSize(scale float64) int {
	return gridSize(b.modes, scale)
}

// Grid returns the interior-root grid mapped onto the basis interval,
// ascending. Node i of an m-point grid sits at the i-th root of T_m on the
// native interval [-1, 1].
func (b *ChebyshevBasis) Grid(scale float64) ([]float64, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}
	m := b.GridSize(scale)
	center, radius := b.iv.Center(), b.iv.Radius()
	g := make([]float64, m)
	for i := range g {
		theta := math.Pi * (float64(i) + 0.5) / float64(m)
		g[i] = center - radius*math.Cos(theta)
	}
	return g, nil
}

// Synthesis returns the coefficient-to-grid evaluation matrix at the given
// scale: an [m x modes] dense matrix V with V[i,j] = T_j(t_i), where t_i is
// grid node i on the native interval. Multiplying a coefficient vector by V
// evaluates the expansion on the grid.
func (b *ChebyshevBasis) Synthesis(scale float64) (*mat.Dense, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}
	m := b.GridSize(scale)
	v := mat.NewDense(m, b.modes, nil)
	for i := 0; i < m; i++ {
		theta := math.Pi * (float64(i) + 0.5) / float64(m)
		// T_j(cos θ) = cos(jθ); the grid is reversed to ascend, so use π−θ
		for j := 0; j < b.modes; j++ {
			v.Set(i, j, math.Cos(float64(j)*(math.Pi-theta)))
		}
	}
	return v, nil
}

// endpointRow writes the coefficients that evaluate the expansion value at
// the native endpoint t = ±1 into row of length modes: T_j(±1) = (±1)^j.
func (b *ChebyshevBasis) endpointRow(right bool) []float64 {
	row := make([]float64, b.modes)
	for j := range row {
		if right || j%2 == 0 {
			row[j] = 1
		} else {
			row[j] = -1
		}
	}
	return row
}

// endpointDerivRow writes the coefficients that evaluate the expansion's
// first derivative at the native endpoint, scaled to interval coordinates:
// T'_j(±1) = (±1)^(j+1) j², times dt/dx = 1/radius.
func (b *ChebyshevBasis) endpointDerivRow(right bool) []float64 {
	row := make([]float64, b.modes)
	scale := 1 / b.iv.Radius()
	for j := range row {
		d := float64(j*j) * scale
		if !right && j%2 == 0 {
			d = -d
		}
		row[j] = d
	}
	return row
}
