package engine

import "github.com/rs/zerolog"

// SearchStats collects counters for one search call.
type SearchStats struct {
	Nodes       uint64
	Leaves      uint64
	BetaCutoffs uint64
}

func (s *SearchStats) add(o SearchStats) {
	s.Nodes += o.Nodes
	s.Leaves += o.Leaves
	s.BetaCutoffs += o.BetaCutoffs
}

// MarshalZerologObject lets stats be attached to a log line with Object.
func (s SearchStats) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("nodes", s.Nodes).
		Uint64("leaves", s.Leaves).
		Uint64("cutoffs", s.BetaCutoffs)
}
