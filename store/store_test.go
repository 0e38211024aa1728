package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestNextRating(t *testing.T) {
	cases := []struct {
		current int
		outcome Outcome
		want    int
	}{
		{1200, Win, 1232},
		{1200, Loss, 1168},
		{1200, Draw, 1200},
		{2990, Win, MaxRating},
		{MaxRating, Win, MaxRating},
		{110, Loss, MinRating},
		{MinRating, Loss, MinRating},
	}
	for _, tc := range cases {
		if got := NextRating(tc.current, tc.outcome); got != tc.want {
			t.Fatalf("NextRating(%d, %s) = %d, want %d", tc.current, tc.outcome, got, tc.want)
		}
	}
}

func TestStatsRecord(t *testing.T) {
	st := NewStats().Record(Win).Record(Win).Record(Loss).Record(Draw)
	want := Stats{TotalGames: 4, Wins: 2, Losses: 1, Draws: 1, Rating: 1232}
	if st != want {
		t.Fatalf("got %+v, want %+v", st, want)
	}
}

func TestParseOutcome(t *testing.T) {
	if o, err := ParseOutcome(" WIN "); err != nil || o != Win {
		t.Fatalf("ParseOutcome(WIN) = %q, %v", o, err)
	}
	if _, err := ParseOutcome("resigned"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

// exerciseSink runs the behavior every Sink must share.
func exerciseSink(t *testing.T, s Sink, prefix string) {
	t.Helper()
	ctx := context.Background()
	alice, bob := prefix+"alice", prefix+"bob"

	if _, err := s.SaveGame(ctx, "", GameSummary{Result: Win}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing user: expected ErrInvalid, got %v", err)
	}
	if _, err := s.SaveGame(ctx, alice, GameSummary{Result: "abandoned"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("bad result: expected ErrInvalid, got %v", err)
	}
	if _, err := s.Stats(ctx, alice); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user: expected ErrNotFound, got %v", err)
	}

	for i, r := range []Outcome{Win, Win, Loss} {
		g, err := s.SaveGame(ctx, alice, GameSummary{
			Moves:       []string{"e4", "e5", fmt.Sprintf("game%d", i)},
			Result:      r,
			Difficulty:  "advanced",
			PlayerColor: "white",
			Duration:    90 * time.Second,
			FEN:         "4k3/8/8/8/8/8/8/4K3 w - - 0 1",
		})
		if err != nil {
			t.Fatalf("SaveGame: %v", err)
		}
		if g.ID == "" || g.UserID != alice || g.CreatedAt.IsZero() {
			t.Fatalf("stored game missing identity: %+v", g)
		}
	}
	if _, err := s.SaveGame(ctx, bob, GameSummary{Result: Win}); err != nil {
		t.Fatalf("SaveGame: %v", err)
	}

	st, err := s.Stats(ctx, alice)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if want := (Stats{TotalGames: 3, Wins: 2, Losses: 1, Rating: 1232}); st != want {
		t.Fatalf("alice stats %+v, want %+v", st, want)
	}

	games, err := s.UserGames(ctx, alice, 2)
	if err != nil {
		t.Fatalf("UserGames: %v", err)
	}
	if len(games) != 2 || games[0].Moves[2] != "game2" || games[1].Moves[2] != "game1" {
		t.Fatalf("expected the two newest games first, got %+v", games)
	}
	if games[0].Duration != 90*time.Second || games[0].Result != Loss {
		t.Fatalf("game fields not preserved: %+v", games[0])
	}

	board, err := s.Leaderboard(ctx, 1000)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	ai, bi := -1, -1
	for i, row := range board {
		switch row.UserID {
		case alice:
			ai = i
		case bob:
			bi = i
		}
	}
	if ai < 0 || bi < 0 || ai > bi {
		t.Fatalf("expected alice (1232) ahead of bob (1232) by id, got %+v", board)
	}
}

func TestMemorySink(t *testing.T) {
	m := NewMemory()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	exerciseSink(t, m, "")
}

func TestMemoryLeaderboardLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i, r := range []Outcome{Win, Loss, Draw} {
		if _, err := m.SaveGame(ctx, fmt.Sprintf("user%d", i), GameSummary{Result: r}); err != nil {
			t.Fatalf("SaveGame: %v", err)
		}
	}
	board, err := m.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 2 || board[0].UserID != "user0" || board[1].UserID != "user2" {
		t.Fatalf("expected user0 then user2, got %+v", board)
	}
}

func TestPostgresSink(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	p, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer p.Close()
	exerciseSink(t, p, fmt.Sprintf("test%d-", time.Now().UnixNano()))
}
