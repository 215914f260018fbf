package layout

import (
	"fmt"
)

// Exchanger performs the blocking collective exchange for one transpose
// step. Every rank in the plan's group must call Exchange with the same
// step in the same chain order; the call does not return until this rank's
// sends and receives for the step are complete.
type Exchanger interface {
	Exchange(plan *TransposePlan, send, recv []float64) error
}

// ChannelExchanger is an in-process Exchanger backed by buffered channels,
// one logical rank per goroutine. It lets a single test process run the
// full SPMD protocol for any mesh shape without a multi-process runtime.
type ChannelExchanger struct {
	procs int
	chans [][]chan []float64 // [from][to], each buffered one message deep
}

// NewChannelExchanger creates an exchanger connecting the given number of
// logical ranks. The same instance must be shared by all rank goroutines.
func NewChannelExchanger(procs int) *ChannelExchanger {
	e := &ChannelExchanger{
		procs: procs,
		chans: make([][]chan []float64, procs),
	}
	for i := range e.chans {
		e.chans[i] = make([]chan []float64, procs)
		for j := range e.chans[i] {
			e.chans[i][j] = make(chan []float64, 1)
		}
	}
	return e
}

// Exchange posts this rank's outgoing segments to every group peer, then
// blocks collecting the incoming segments. A count disagreement between
// sender and receiver means the group has diverged on chain position and
// is reported as an error; the exchange cannot be repaired at this layer.
func (e *ChannelExchanger) Exchange(plan *TransposePlan, send, recv []float64) error {
	me := plan.Group[plan.GroupIndex]
	if me < 0 || me >= e.procs {
		return fmt.Errorf("rank %d outside exchanger size %d: %w", me, e.procs, ErrRange)
	}

	for c, peer := range plan.Group {
		seg := make([]float64, plan.SendCounts[c])
		copy(seg, send[plan.SendOffsets[c]:plan.SendOffsets[c]+plan.SendCounts[c]])
		e.chans[me][peer] <- seg
	}

	for c, peer := range plan.Group {
		seg := <-e.chans[peer][me]
		if len(seg) != plan.RecvCounts[c] {
			return fmt.Errorf("rank %d received %d values from rank %d, expected %d: collective desynchronized",
				me, len(seg), peer, plan.RecvCounts[c])
		}
		copy(recv[plan.RecvOffsets[c]:], seg)
	}
	return nil
}
