package position

// Perft counts leaf nodes of the legal move tree to the given depth, walking
// the tree with MakeMove/UnmakeMove on p itself.
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := p.GenerateMoves(make([]Move, 0, 48))
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		st := p.MakeMove(m)
		nodes += p.Perft(depth - 1)
		p.UnmakeMove(st)
	}
	return nodes
}

// PerftDivide returns per-root-move node counts keyed by UCI string.
func (p *Position) PerftDivide(depth int) map[string]uint64 {
	out := make(map[string]uint64)
	if depth <= 0 {
		return out
	}
	for _, m := range p.GenerateMoves(nil) {
		st := p.MakeMove(m)
		out[m.String()] = p.Perft(depth - 1)
		p.UnmakeMove(st)
	}
	return out
}
