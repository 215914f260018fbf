// Command layoutchain prints the layout chain a domain configuration
// produces, one line per layout, as seen from a single rank. It is a
// debugging aid for checking how a mesh shape distributes a field.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/pdekit/speclayout/basis"
	"github.com/pdekit/speclayout/domain"
	"github.com/pdekit/speclayout/layout"
	"github.com/pdekit/speclayout/mesh"
)

type config struct {
	Rank  int   `env:"RANK" envDefault:"0"`
	Procs int   `env:"PROCS" envDefault:"1"`
	Mesh  []int `env:"MESH" envSeparator:","`
	Modes []int `env:"MODES" envSeparator:"," envDefault:"8,8,8"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("parse env", "err", err)
		os.Exit(1)
	}

	var m *mesh.ProcessMesh
	if len(cfg.Mesh) > 0 {
		var err error
		if m, err = mesh.New(cfg.Mesh, cfg.Procs); err != nil {
			logger.Error("build mesh", "err", err)
			os.Exit(1)
		}
	}

	bases := make([]basis.Basis, len(cfg.Modes))
	for a, n := range cfg.Modes {
		b, err := basis.NewChebyshev(fmt.Sprintf("x%d", a), n, basis.Interval{Left: -1, Right: 1}, 1)
		if err != nil {
			logger.Error("build basis", "axis", a, "err", err)
			os.Exit(1)
		}
		bases[a] = b
	}

	dom, err := domain.New(bases, domain.Float64, m, cfg.Rank, cfg.Procs)
	if err != nil {
		logger.Error("build domain", "err", err)
		os.Exit(1)
	}

	logger.Info("layout chain",
		"dim", dom.Dim(),
		"mesh", dom.Dist.Mesh.Shape(),
		"rank", cfg.Rank,
		"layouts", len(dom.Dist.Layouts))

	for _, l := range dom.Dist.Layouts {
		global, err := dom.GlobalShape(l, ones(dom.Dim()))
		if err != nil {
			logger.Error("global shape", "layout", l.Index, "err", err)
			os.Exit(1)
		}
		local, err := dom.Dist.LocalShape(l, global)
		if err != nil {
			logger.Error("local shape", "layout", l.Index, "err", err)
			os.Exit(1)
		}
		fmt.Printf("layout %d: grid_space=%s local=%s chunk=%v\n",
			l.Index, flags(l.GridSpace), flags(l.Local), local)
	}

	ops, err := dom.Dist.Path(0, len(dom.Dist.Layouts)-1)
	if err != nil {
		logger.Error("path", "err", err)
		os.Exit(1)
	}
	for i, op := range ops {
		if op.Kind == layout.Transpose {
			fmt.Printf("step %d: transpose mesh_dim=%d axis=%d\n", i, op.MeshDim, op.Axis)
		} else {
			fmt.Printf("step %d: transform axis=%d\n", i, op.Axis)
		}
	}
}

func ones(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

func flags(bs []bool) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, b := range bs {
		if i > 0 {
			sb.WriteByte(',')
		}
		if b {
			sb.WriteByte('T')
		} else {
			sb.WriteByte('F')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
