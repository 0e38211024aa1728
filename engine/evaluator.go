package engine

import (
	"context"

	"github.com/XapioBroke/aichessbot/position"
)

// LineEval is what an evaluator knows about one position. Every field is
// optional: remote services omit what they have not computed.
type LineEval struct {
	CP       *int   // White-positive centipawns
	Mate     *int   // moves to mate, positive when White mates
	BestMove string // UCI
	Depth    int
}

// Score folds the line into a Score. ok is false when neither a centipawn
// nor a mate value is present.
func (l LineEval) Score() (s Score, ok bool) {
	switch {
	case l.Mate != nil:
		m := *l.Mate
		if m < 0 {
			return MateIn(-m, false), true
		}
		return MateIn(m, true), true
	case l.CP != nil:
		return Score(*l.CP), true
	}
	return 0, false
}

// LineEvaluator evaluates positions given as FEN. Implementations may be
// remote and fail; LocalEvaluator never does.
type LineEvaluator interface {
	EvaluateFEN(ctx context.Context, fen string) (LineEval, error)
}

// LocalEvaluator answers with the built-in search at a fixed depth.
type LocalEvaluator struct {
	Depth int
}

func (l LocalEvaluator) EvaluateFEN(ctx context.Context, fen string) (LineEval, error) {
	if err := ctx.Err(); err != nil {
		return LineEval{}, err
	}
	p, err := position.ParseFEN(fen)
	if err != nil {
		return LineEval{}, err
	}
	score, best := l.evaluate(p)
	cp := int(score)
	out := LineEval{CP: &cp, Depth: l.Depth}
	// A side already mated has no distance to report and keeps the raw
	// sentinel in CP.
	if score.IsMate() && score.MatePlies() > 0 {
		moves := (score.MatePlies() + 1) / 2
		if score < 0 {
			moves = -moves
		}
		out.CP, out.Mate = nil, &moves
	}
	if !best.IsZero() {
		out.BestMove = best.String()
	}
	return out, nil
}

// evaluate returns the searched score and the first best move in search
// order, or the static score for terminal positions and depth zero.
func (l LocalEvaluator) evaluate(p *position.Position) (Score, position.Move) {
	moves := p.GenerateMoves(nil)
	if l.Depth <= 0 || len(moves) == 0 {
		return Evaluate(p), position.Move{}
	}
	s := newSearcher(p)
	score, tied := s.rootScores(moves, l.Depth)
	return score, tied[0]
}
