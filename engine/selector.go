package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/XapioBroke/aichessbot/position"
)

// SelectMove chooses a move for the side to move in pos according to the
// difficulty policy. legal, when non-empty, restricts the choice and must
// contain only legal moves of pos; when empty the legal moves are generated.
// pos itself is never modified.
//
// Only one SelectMove runs per Engine at a time; a concurrent call returns
// ErrBusy immediately.
func (e *Engine) SelectMove(ctx context.Context, pos *position.Position, legal []position.Move, d Difficulty) (position.Move, error) {
	if !e.busy.TryLock() {
		return position.Move{}, ErrBusy
	}
	defer e.busy.Unlock()

	cfg, err := e.Tier(d)
	if err != nil {
		return position.Move{}, err
	}
	p := pos.Clone()
	if p.IsTerminal() {
		return position.Move{}, ErrNoLegalMoves
	}
	moves, err := candidateMoves(p, legal)
	if err != nil {
		return position.Move{}, err
	}

	start := time.Now()
	e.lastStats = SearchStats{}
	var m position.Move
	var how string
	switch d {
	case Novice:
		m, how = e.pickNovice(moves, cfg)
	case Intermediate:
		m, how = e.pickIntermediate(p, moves, cfg)
	default:
		m, how = e.pickAdvanced(ctx, p, moves, cfg)
	}

	e.log.Debug().
		Str("fen", pos.FEN()).
		Str("difficulty", d.String()).
		Str("move", m.String()).
		Str("policy", how).
		Object("stats", e.lastStats).
		Dur("elapsed", time.Since(start)).
		Msg("selected move")
	return m, nil
}

func candidateMoves(p *position.Position, legal []position.Move) ([]position.Move, error) {
	all := p.LegalMoves()
	if len(all) == 0 {
		return nil, ErrNoLegalMoves
	}
	if len(legal) == 0 {
		return all, nil
	}
	out := make([]position.Move, 0, len(legal))
	for _, want := range legal {
		found := false
		for _, m := range all {
			if m.Same(want) {
				out = append(out, m)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s in %s", ErrIllegalMove, want, p.FEN())
		}
	}
	return out, nil
}

func (e *Engine) pickNovice(moves []position.Move, cfg TierConfig) (position.Move, string) {
	if e.rng.Float64() < cfg.RandomWeight {
		return e.uniform(moves), "random"
	}
	return e.capturePreferring(moves), "capture-preferring"
}

func (e *Engine) pickIntermediate(p *position.Position, moves []position.Move, cfg TierConfig) (position.Move, string) {
	if e.rng.Float64() < cfg.RandomWeight {
		return e.uniform(moves), "blunder"
	}
	return e.searchBest(p, moves, cfg.Depth), "search"
}

func (e *Engine) pickAdvanced(ctx context.Context, p *position.Position, moves []position.Move, cfg TierConfig) (position.Move, string) {
	if m, ok := mateInOne(p, moves); ok {
		return m, "mate-in-one"
	}
	if e.remote != nil && e.delegate {
		m, err := e.remoteMove(ctx, p, moves)
		if err == nil {
			return m, "remote"
		}
		e.log.Warn().Err(err).Str("fen", p.FEN()).Msg("remote move failed, falling back")
		return e.capturePreferring(moves), "fallback"
	}
	if e.rng.Float64() < cfg.RandomWeight {
		return e.uniform(moves), "blunder"
	}
	return e.searchBest(p, moves, cfg.Depth), "search"
}

// searchBest searches every move and picks uniformly among those tied at the
// best score for the mover.
func (e *Engine) searchBest(p *position.Position, moves []position.Move, depth int) position.Move {
	if depth < 1 {
		depth = 1
	}
	s := newSearcher(p)
	_, tied := s.rootScores(moves, depth)
	e.lastStats.add(s.stats)
	return e.uniform(tied)
}

// mateInOne returns a move that checkmates immediately, if there is one.
func mateInOne(p *position.Position, moves []position.Move) (position.Move, bool) {
	for _, m := range moves {
		if !m.Check {
			continue
		}
		st := p.MakeMove(m)
		mate := !p.HasLegalMoves()
		p.UnmakeMove(st)
		if mate {
			return m, true
		}
	}
	return position.Move{}, false
}

// remoteMove asks the remote evaluator for a best move under the configured
// timeout and accepts it only if it is one of moves.
func (e *Engine) remoteMove(ctx context.Context, p *position.Position, moves []position.Move) (position.Move, error) {
	ctx, cancel := context.WithTimeout(ctx, e.remoteTimeout)
	defer cancel()

	line, err := e.remote.EvaluateFEN(ctx, p.FEN())
	if err != nil {
		return position.Move{}, fmt.Errorf("%w: %v", ErrEvaluatorUnavailable, err)
	}
	if line.BestMove == "" {
		return position.Move{}, fmt.Errorf("%w: no best move for %s", ErrEvaluatorUnavailable, p.FEN())
	}
	want, err := position.ParseUCI(line.BestMove)
	if err != nil {
		return position.Move{}, fmt.Errorf("%w: %v", ErrEvaluatorUnavailable, err)
	}
	for _, m := range moves {
		if m.Same(want) {
			return m, nil
		}
	}
	return position.Move{}, fmt.Errorf("%w: suggested %s is not a candidate", ErrEvaluatorUnavailable, line.BestMove)
}

// capturePreferring draws uniformly from the captures, or from all moves when
// there are none. It is also the fallback when a remote lookup fails.
func (e *Engine) capturePreferring(moves []position.Move) position.Move {
	captures := make([]position.Move, 0, len(moves))
	for _, m := range moves {
		if m.Capture {
			captures = append(captures, m)
		}
	}
	if len(captures) > 0 {
		return e.uniform(captures)
	}
	return e.uniform(moves)
}

func (e *Engine) uniform(moves []position.Move) position.Move {
	return moves[e.rng.Intn(len(moves))]
}
