package engine

import (
	"github.com/XapioBroke/aichessbot/position"
)

// Search runs a fixed-depth minimax with alpha-beta pruning from p and
// returns the White-positive score. White maximizes and Black minimizes
// whoever is asking. p is walked with make/unmake and is unchanged on return.
func Search(p *position.Position, depth int) Score {
	s := newSearcher(p)
	return s.minimax(depth, 0, -infinity, infinity)
}

type searcher struct {
	pos     *position.Position
	stats   SearchStats
	killers killerTable
}

func newSearcher(p *position.Position) *searcher {
	return &searcher{pos: p}
}

func (s *searcher) minimax(depth, ply int, alpha, beta Score) Score {
	s.stats.Nodes++

	if depth <= 0 {
		s.stats.Leaves++
		return mateDistance(Evaluate(s.pos), ply)
	}
	if ply > 0 && (s.pos.IsDrawBy50() || s.pos.IsThreefold() || s.pos.IsInsufficientMaterial()) {
		s.stats.Leaves++
		return DrawScore
	}
	moves := s.pos.GenerateMoves(make([]position.Move, 0, 48))
	if len(moves) == 0 {
		s.stats.Leaves++
		return mateDistance(Evaluate(s.pos), ply)
	}

	list := scoreMoves(s.pos, moves, &s.killers, ply)
	maximizing := s.pos.SideToMove() == position.White
	best := infinity
	if maximizing {
		best = -infinity
	}

	for i := range list.moves {
		orderNextMove(i, &list)
		st := s.pos.MakeMove(list.moves[i].move)
		score := s.minimax(depth-1, ply+1, alpha, beta)
		s.pos.UnmakeMove(st)

		if maximizing {
			if score > best {
				best = score
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if score < best {
				best = score
			}
			if best < beta {
				beta = best
			}
		}
		if beta <= alpha {
			s.stats.BetaCutoffs++
			if m := list.moves[i].move; !m.Capture && m.Promotion == position.NoPieceType {
				s.killers.insert(m, ply)
			}
			break
		}
	}
	return best
}

// rootScores searches each root move to depth-1 and returns the best score
// for the side to move together with every move that reaches it. Moves that
// cannot tie the running best are searched with a narrowed window.
func (s *searcher) rootScores(moves []position.Move, depth int) (Score, []position.Move) {
	maximizing := s.pos.SideToMove() == position.White
	best := infinity
	if maximizing {
		best = -infinity
	}
	var tied []position.Move

	for _, m := range orderedMoves(s.pos, moves) {
		st := s.pos.MakeMove(m)
		var score Score
		if maximizing {
			score = s.minimax(depth-1, 1, best-1, infinity)
		} else {
			score = s.minimax(depth-1, 1, -infinity, best+1)
		}
		s.pos.UnmakeMove(st)

		switch {
		case score == best:
			tied = append(tied, m)
		case maximizing && score > best, !maximizing && score < best:
			best = score
			tied = append(tied[:0], m)
		}
	}
	return best, tied
}

// mateDistance shortens mate scores by ply so nearer mates rank higher.
func mateDistance(score Score, ply int) Score {
	switch {
	case score >= MateThreshold:
		return score - Score(ply)
	case score <= -MateThreshold:
		return score + Score(ply)
	}
	return score
}
