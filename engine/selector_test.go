package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/XapioBroke/aichessbot/position"
)

// playSamples asks e for n moves starting from fen, playing each one and
// restarting when a game ends, and fails on any move Play rejects.
func playSamples(t *testing.T, e *Engine, d Difficulty, fen string, n int) {
	t.Helper()
	ctx := context.Background()
	start := mustFEN(t, fen)
	p := start.Clone()
	for i := 0; i < n; i++ {
		if p.IsTerminal() || p.Ply() > 60 {
			p = start.Clone()
		}
		m, err := e.SelectMove(ctx, p, nil, d)
		if err != nil {
			t.Fatalf("%s sample %d in %s: %v", d, i, p.FEN(), err)
		}
		if !p.IsLegal(m) {
			t.Fatalf("%s sample %d: %s is not legal in %s", d, i, m, p.FEN())
		}
		if _, err := p.Play(m); err != nil {
			t.Fatalf("%s sample %d: Play(%s): %v", d, i, m, err)
		}
	}
}

func sampleCount(full int) int {
	if testing.Short() {
		return full / 10
	}
	return full
}

func TestSelectMoveAlwaysLegal(t *testing.T) {
	e := New(
		WithSeed(7),
		WithTier(Intermediate, TierConfig{Depth: 2, RandomWeight: 0.3}),
		WithTier(Advanced, TierConfig{Depth: 2}),
	)
	n := sampleCount(1000)
	playSamples(t, e, Novice, position.StartFEN, n)
	playSamples(t, e, Intermediate, position.StartFEN, n)
	// Rook and pawns each keep the advanced samples cheap.
	playSamples(t, e, Advanced, "4k3/ppp2r2/8/8/8/8/PPP2R2/4K3 w - - 0 1", n)
}

func TestSelectMoveDoesNotModifyPosition(t *testing.T) {
	p := mustFEN(t, kiwipete)
	e := New(WithSeed(1), WithTier(Advanced, TierConfig{Depth: 2}))
	for _, d := range []Difficulty{Novice, Intermediate, Advanced} {
		if _, err := e.SelectMove(context.Background(), p, nil, d); err != nil {
			t.Fatalf("%s: %v", d, err)
		}
		if p.FEN() != kiwipete {
			t.Fatalf("%s modified the position: %s", d, p.FEN())
		}
	}
}

func TestSelectMoveSeededIsReproducible(t *testing.T) {
	p := replay(t, "e4", "e5", "Nf3")
	var first []string
	for run := 0; run < 2; run++ {
		e := New(WithSeed(42))
		var got []string
		for i := 0; i < 20; i++ {
			m, err := e.SelectMove(context.Background(), p, nil, Novice)
			if err != nil {
				t.Fatalf("SelectMove: %v", err)
			}
			got = append(got, m.String())
		}
		if run == 0 {
			first = got
			continue
		}
		for i := range got {
			if got[i] != first[i] {
				t.Fatalf("sample %d differs between seeded runs: %s vs %s", i, first[i], got[i])
			}
		}
	}
}

func TestAdvancedPlaysMateInOne(t *testing.T) {
	p := mustFEN(t, mateInOneFEN)
	e := New(WithSeed(3))
	for i := 0; i < 20; i++ {
		m, err := e.SelectMove(context.Background(), p, nil, Advanced)
		if err != nil {
			t.Fatalf("SelectMove: %v", err)
		}
		q := p.Clone()
		if _, err := q.Play(m); err != nil {
			t.Fatalf("Play(%s): %v", m, err)
		}
		if !q.IsCheckmate() {
			t.Fatalf("advanced tier played %s instead of mating", m)
		}
	}
}

func TestIntermediateAvoidsHangingMate(t *testing.T) {
	p := replay(t, "e4", "e5", "Qh5", "Nc6", "Bc4")
	e := New(WithSeed(5), WithTier(Intermediate, TierConfig{Depth: 3}))
	for i := 0; i < 5; i++ {
		m, err := e.SelectMove(context.Background(), p, nil, Intermediate)
		if err != nil {
			t.Fatalf("SelectMove: %v", err)
		}
		q := p.Clone()
		if _, err := q.Play(m); err != nil {
			t.Fatalf("Play(%s): %v", m, err)
		}
		for _, reply := range q.LegalMoves() {
			st := q.MakeMove(reply)
			mated := q.IsCheckmate()
			q.UnmakeMove(st)
			if mated {
				t.Fatalf("intermediate tier played %s allowing %s mate", m, reply)
			}
		}
	}
}

func TestNoviceWithoutRandomnessPrefersCaptures(t *testing.T) {
	p := replay(t, "e4", "d5")
	e := New(WithSeed(9), WithTier(Novice, TierConfig{Depth: 1, RandomWeight: 0}))
	for i := 0; i < 50; i++ {
		m, err := e.SelectMove(context.Background(), p, nil, Novice)
		if err != nil {
			t.Fatalf("SelectMove: %v", err)
		}
		if m.String() != "e4d5" {
			t.Fatalf("expected the only capture e4d5, got %s", m)
		}
	}
}

func TestSelectMoveRestrictedToLegalList(t *testing.T) {
	p := position.New()
	want, err := p.ParseMove("g1f3")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	e := New(WithSeed(11))
	m, err := e.SelectMove(context.Background(), p, []position.Move{want}, Advanced)
	if err != nil {
		t.Fatalf("SelectMove: %v", err)
	}
	if !m.Same(want) {
		t.Fatalf("expected %s from a single-move list, got %s", want, m)
	}
}

func TestSelectMoveErrors(t *testing.T) {
	ctx := context.Background()
	e := New(WithSeed(13))

	mated := replay(t, "f3", "e5", "g4", "Qh4#")
	if _, err := e.SelectMove(ctx, mated, nil, Novice); !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("terminal position: expected ErrNoLegalMoves, got %v", err)
	}

	bogus, err := position.ParseUCI("e2e5")
	if err != nil {
		t.Fatalf("ParseUCI: %v", err)
	}
	if _, err := e.SelectMove(ctx, position.New(), []position.Move{bogus}, Novice); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("illegal candidate: expected ErrIllegalMove, got %v", err)
	}

	if _, err := e.SelectMove(ctx, position.New(), nil, Difficulty(9)); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("bad difficulty: expected ErrUnknownDifficulty, got %v", err)
	}
}

func TestSelectMoveRejectsConcurrentCall(t *testing.T) {
	e := New(WithSeed(17))
	e.busy.Lock()
	_, err := e.SelectMove(context.Background(), position.New(), nil, Novice)
	e.busy.Unlock()
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := e.SelectMove(context.Background(), position.New(), nil, Novice); err != nil {
		t.Fatalf("engine should be usable once released: %v", err)
	}
}

func TestAdvancedDelegatesToRemote(t *testing.T) {
	remote := evalFunc(func(ctx context.Context, fen string) (LineEval, error) {
		return LineEval{CP: cp(20), BestMove: "g1f3"}, nil
	})
	e := New(WithSeed(19), WithRemote(remote, true))
	m, err := e.SelectMove(context.Background(), position.New(), nil, Advanced)
	if err != nil {
		t.Fatalf("SelectMove: %v", err)
	}
	if m.String() != "g1f3" {
		t.Fatalf("expected the remote suggestion g1f3, got %s", m)
	}
}

func TestAdvancedFallsBackWhenRemoteFails(t *testing.T) {
	// White's only capture after 1.e4 d5 is exd5.
	p := replay(t, "e4", "d5")
	cases := map[string]LineEvaluator{
		"error": evalFunc(func(ctx context.Context, fen string) (LineEval, error) {
			return LineEval{}, errors.New("connection refused")
		}),
		"illegal suggestion": evalFunc(func(ctx context.Context, fen string) (LineEval, error) {
			return LineEval{BestMove: "e2e5"}, nil
		}),
		"timeout": evalFunc(func(ctx context.Context, fen string) (LineEval, error) {
			<-ctx.Done()
			return LineEval{}, ctx.Err()
		}),
	}
	for name, remote := range cases {
		e := New(WithSeed(23), WithRemote(remote, true), WithRemoteTimeout(20*time.Millisecond))
		start := time.Now()
		m, err := e.SelectMove(context.Background(), p, nil, Advanced)
		if err != nil {
			t.Fatalf("%s: SelectMove: %v", name, err)
		}
		if m.String() != "e4d5" {
			t.Fatalf("%s: expected capture-preferring fallback e4d5, got %s", name, m)
		}
		if time.Since(start) > 2*time.Second {
			t.Fatalf("%s: fallback took %s", name, time.Since(start))
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := map[string]Difficulty{
		"novice": Novice, "Easy": Novice, "medium": Intermediate,
		"intermediate": Intermediate, "HARD": Advanced, " advanced ": Advanced,
	}
	for in, want := range cases {
		got, err := ParseDifficulty(in)
		if err != nil || got != want {
			t.Fatalf("ParseDifficulty(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDifficulty("grandmaster"); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("expected ErrUnknownDifficulty, got %v", err)
	}
}
