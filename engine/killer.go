package engine

import "github.com/XapioBroke/aichessbot/position"

// Deeper plies than this keep no killers.
const maxKillerPly = 64

// killerTable remembers, per ply, the last two quiet moves that caused a beta
// cutoff. Siblings try them right after the captures.
type killerTable [maxKillerPly][2]position.Move

func (k *killerTable) insert(m position.Move, ply int) {
	if ply >= maxKillerPly || m.Same(k[ply][0]) {
		return
	}
	k[ply][1] = k[ply][0]
	k[ply][0] = m
}

// rank returns 2 for the primary killer at ply, 1 for the secondary and 0
// otherwise.
func (k *killerTable) rank(m position.Move, ply int) uint16 {
	if ply >= maxKillerPly {
		return 0
	}
	switch {
	case !k[ply][0].IsZero() && m.Same(k[ply][0]):
		return 2
	case !k[ply][1].IsZero() && m.Same(k[ply][1]):
		return 1
	}
	return 0
}
