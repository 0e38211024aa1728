package engine

import (
	"context"
	"testing"

	"github.com/XapioBroke/aichessbot/position"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func mustFEN(t *testing.T, fen string) *position.Position {
	t.Helper()
	p, err := position.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return p
}

func mustSquare(t *testing.T, s string) position.Square {
	t.Helper()
	sq, err := position.ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return sq
}

func replay(t *testing.T, moves ...string) *position.Position {
	t.Helper()
	p := position.New()
	for _, text := range moves {
		m, err := p.ParseMove(text)
		if err != nil {
			t.Fatalf("ParseMove(%q) in %s: %v", text, p.FEN(), err)
		}
		if _, err := p.Play(m); err != nil {
			t.Fatalf("Play(%s): %v", m, err)
		}
	}
	return p
}

// evalFunc adapts a function to LineEvaluator.
type evalFunc func(ctx context.Context, fen string) (LineEval, error)

func (f evalFunc) EvaluateFEN(ctx context.Context, fen string) (LineEval, error) {
	return f(ctx, fen)
}

func cp(v int) *int { return &v }
