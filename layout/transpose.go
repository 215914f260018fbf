package layout

import (
	"fmt"
)

// TransposePlan describes the collective exchange realizing one transpose
// step for one rank: which peers participate, how many values go to and
// come from each, and how local chunks pack into the contiguous exchange
// buffers. Counts are in scalar values; a complex field exchanges its
// interleaved components through the same plan with doubled extents.
type TransposePlan struct {
	// Mesh dimension whose communication groups perform the exchange
	MeshDim int

	// Participating ranks in coordinate order along MeshDim, and this
	// rank's position among them.
	Group      []int
	GroupIndex int

	// Local chunk extents before and after the step
	SrcShape []int
	DstShape []int

	// Per-peer buffer segmentation, indexed by group position
	SendCounts  []int
	SendOffsets []int
	RecvCounts  []int
	RecvOffsets []int

	// scatterAxis is full in the source chunk and split in the
	// destination; gatherAxis is the reverse. Ranges select each peer's
	// block along the respective axis.
	scatterAxis int
	gatherAxis  int
	sendRanges  [][2]int
	recvRanges  [][2]int
}

// TotalSend returns the required send buffer length
func (p *TransposePlan) TotalSend() int {
	n := len(p.SendCounts)
	return p.SendOffsets[n-1] + p.SendCounts[n-1]
}

// TotalRecv returns the required receive buffer length
func (p *TransposePlan) TotalRecv() int {
	n := len(p.RecvCounts)
	return p.RecvOffsets[n-1] + p.RecvCounts[n-1]
}

// PlanTranspose builds the exchange plan for one transpose op from this
// rank's viewpoint, given the global per-axis extents (which are identical
// on both sides of a transpose, since no axis changes space). The op must
// be one of the chain's transpose steps.
func (d *Distributor) PlanTranspose(op Op, global []int) (*TransposePlan, error) {
	if op.Kind != Transpose {
		return nil, fmt.Errorf("op %s(axis=%d) is not a transpose: %w", op.Kind, op.Axis, ErrRange)
	}
	idx := -1
	for i, s := range d.Steps {
		if s.Kind == Transpose && s.Axis == op.Axis && s.MeshDim == op.MeshDim {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("transpose over mesh dimension %d at axis %d is not in the chain: %w",
			op.MeshDim, op.Axis, ErrRange)
	}
	if len(global) != d.Dim {
		return nil, fmt.Errorf("got %d global extents for %d axes: %w", len(global), d.Dim, ErrRange)
	}

	src, dst := d.Layouts[idx], d.Layouts[idx+1]
	scatter, gather := op.Axis+1, op.Axis
	if !op.Forward {
		src, dst = dst, src
		scatter, gather = gather, scatter
	}

	group, err := d.Mesh.Group(op.MeshDim, d.Rank)
	if err != nil {
		return nil, err
	}

	srcShape, err := d.LocalShape(src, global)
	if err != nil {
		return nil, err
	}
	dstShape, err := d.LocalShape(dst, global)
	if err != nil {
		return nil, err
	}

	p := &TransposePlan{
		MeshDim:     op.MeshDim,
		Group:       group,
		GroupIndex:  d.Coords[op.MeshDim],
		SrcShape:    srcShape,
		DstShape:    dstShape,
		SendCounts:  make([]int, len(group)),
		SendOffsets: make([]int, len(group)),
		RecvCounts:  make([]int, len(group)),
		RecvOffsets: make([]int, len(group)),
		scatterAxis: scatter,
		gatherAxis:  gather,
		sendRanges:  make([][2]int, len(group)),
		recvRanges:  make([][2]int, len(group)),
	}

	// Volume per unit of the moving axis, on each side
	sendUnit := 1
	for a, n := range srcShape {
		if a != scatter {
			sendUnit *= n
		}
	}
	recvUnit := 1
	for a, n := range dstShape {
		if a != gather {
			recvUnit *= n
		}
	}

	meshSize := d.Mesh.Dim(op.MeshDim)
	sendOff, recvOff := 0, 0
	for c := 0; c < meshSize; c++ {
		slo, shi := blockSlice(global[scatter], meshSize, c)
		p.sendRanges[c] = [2]int{slo, shi}
		p.SendCounts[c] = (shi - slo) * sendUnit
		p.SendOffsets[c] = sendOff
		sendOff += p.SendCounts[c]

		rlo, rhi := blockSlice(global[gather], meshSize, c)
		p.recvRanges[c] = [2]int{rlo, rhi}
		p.RecvCounts[c] = (rhi - rlo) * recvUnit
		p.RecvOffsets[c] = recvOff
		recvOff += p.RecvCounts[c]
	}

	return p, nil
}

// Pack gathers the per-peer blocks of the source chunk into the contiguous
// send buffer, peer by peer in group order, each block in row-major order
// of the source chunk.
func (p *TransposePlan) Pack(src, buf []float64) error {
	if len(src) != volume(p.SrcShape) {
		return fmt.Errorf("source chunk has %d values, chunk shape %v needs %d: %w",
			len(src), p.SrcShape, volume(p.SrcShape), ErrRange)
	}
	if len(buf) < p.TotalSend() {
		return fmt.Errorf("send buffer has %d values, plan needs %d: %w",
			len(buf), p.TotalSend(), ErrRange)
	}
	for c := range p.Group {
		k := p.SendOffsets[c]
		forEachBlock(p.SrcShape, p.scatterAxis, p.sendRanges[c][0], p.sendRanges[c][1],
			func(flat int) {
				buf[k] = src[flat]
				k++
			})
	}
	return nil
}

// Unpack scatters the received buffer into the destination chunk, the
// mirror of each peer's Pack ordering.
func (p *TransposePlan) Unpack(buf, dst []float64) error {
	if len(dst) != volume(p.DstShape) {
		return fmt.Errorf("destination chunk has %d values, chunk shape %v needs %d: %w",
			len(dst), p.DstShape, volume(p.DstShape), ErrRange)
	}
	if len(buf) < p.TotalRecv() {
		return fmt.Errorf("receive buffer has %d values, plan needs %d: %w",
			len(buf), p.TotalRecv(), ErrRange)
	}
	for c := range p.Group {
		k := p.RecvOffsets[c]
		forEachBlock(p.DstShape, p.gatherAxis, p.recvRanges[c][0], p.recvRanges[c][1],
			func(flat int) {
				dst[flat] = buf[k]
				k++
			})
	}
	return nil
}

// RunTranspose executes one transpose step for this rank's chunk: pack,
// collective exchange, unpack. Blocks until every rank in the group has
// exchanged its data.
func (d *Distributor) RunTranspose(plan *TransposePlan, src []float64, ex Exchanger) ([]float64, error) {
	sendBuf := make([]float64, plan.TotalSend())
	if err := plan.Pack(src, sendBuf); err != nil {
		return nil, err
	}
	recvBuf := make([]float64, plan.TotalRecv())
	if err := ex.Exchange(plan, sendBuf, recvBuf); err != nil {
		return nil, err
	}
	dst := make([]float64, volume(plan.DstShape))
	if err := plan.Unpack(recvBuf, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// forEachBlock visits, in row-major order, every flat index of an array of
// the given shape whose coordinate along axis lies in [lo, hi).
func forEachBlock(shape []int, axis, lo, hi int, fn func(flat int)) {
	if hi <= lo {
		return
	}
	n := len(shape)
	for _, s := range shape {
		if s == 0 {
			return
		}
	}

	strides := make([]int, n)
	s := 1
	for i := n - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}

	idx := make([]int, n)
	idx[axis] = lo
	flat := lo * strides[axis]
	for {
		fn(flat)

		// Odometer increment with the axis restricted to [lo, hi)
		i := n - 1
		for ; i >= 0; i-- {
			low, high := 0, shape[i]
			if i == axis {
				low, high = lo, hi
			}
			idx[i]++
			flat += strides[i]
			if idx[i] < high {
				break
			}
			flat -= (idx[i] - low) * strides[i]
			idx[i] = low
		}
		if i < 0 {
			return
		}
	}
}

func volume(shape []int) int {
	v := 1
	for _, n := range shape {
		v *= n
	}
	return v
}
