package basis

import "math"

// FourierBasis expands functions in complex exponentials over a periodic
// interval. Its grid is uniformly spaced, including the left endpoint and
// excluding the right (which aliases to the left under periodicity).
type FourierBasis struct {
	name    string
	modes   int
	iv      Interval
	dealias float64
}

// NewFourier constructs a Fourier basis. A dealias factor of 0 selects the
// default of 1; otherwise it must be >= 1.
func NewFourier(name string, modes int, iv Interval, dealias float64) (*FourierBasis, error) {
	if dealias == 0 {
		dealias = 1
	}
	if err := validateParams(name, modes, iv, dealias); err != nil {
		return nil, err
	}
	return &FourierBasis{name: name, modes: modes, iv: iv, dealias: dealias}, nil
}

func (b *FourierBasis) Name() string       { return b.name }
func (b *FourierBasis) Modes() int         { return b.modes }
func (b *FourierBasis) Interval() Interval { return b.iv }
func (b *FourierBasis) Dealias() float64   { return b.dealias }
func (b *FourierBasis) Family() Family     { return Fourier }

func (b *FourierBasis) GridSize(scale float64) int {
	return gridSize(b.modes, scale)
}

// Grid returns the uniform periodic grid at the given scale, ascending.
func (b *FourierBasis) Grid(scale float64) ([]float64, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}
	m := b.GridSize(scale)
	step := b.iv.Length() / float64(m)
	g := make([]float64, m)
	for i := range g {
		g[i] = b.iv.Left + step*float64(i)
	}
	return g, nil
}

// Wavenumbers returns the signed wavenumbers of the expansion modes in
// standard FFT ordering: non-negative frequencies first, then negative.
func (b *FourierBasis) Wavenumbers() []float64 {
	k0 := 2 * math.Pi / b.iv.Length()
	ks := make([]float64, b.modes)
	for j := range ks {
		freq := j
		if j > b.modes/2 {
			freq = j - b.modes
		}
		ks[j] = k0 * float64(freq)
	}
	return ks
}
