// Package store persists finished games and the per-user statistics and
// rating derived from them.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Outcome is a game result from the human player's side.
type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Draw Outcome = "draw"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(strings.ToLower(strings.TrimSpace(s))); o {
	case Win, Loss, Draw:
		return o, nil
	}
	return "", fmt.Errorf("%w: outcome %q", ErrInvalid, s)
}

const (
	InitialRating = 1200
	RatingStep    = 32
	MinRating     = 100
	MaxRating     = 3000
)

var (
	ErrInvalid  = errors.New("invalid game record")
	ErrNotFound = errors.New("not found")
)

// GameSummary is what the client reports when a game ends.
type GameSummary struct {
	PGN         string        `json:"pgn"`
	Moves       []string      `json:"moves"`
	Result      Outcome       `json:"result"`
	Difficulty  string        `json:"difficulty"`
	PlayerColor string        `json:"playerColor"`
	Duration    time.Duration `json:"-"`
	FEN         string        `json:"fen"`
}

// Game is a stored GameSummary.
type Game struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	GameSummary
}

type Stats struct {
	TotalGames int `json:"totalGames"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Draws      int `json:"draws"`
	Rating     int `json:"rating"`
}

// NewStats returns the stats of a user with no games.
func NewStats() Stats {
	return Stats{Rating: InitialRating}
}

// Record folds one result into s.
func (s Stats) Record(o Outcome) Stats {
	s.TotalGames++
	switch o {
	case Win:
		s.Wins++
	case Loss:
		s.Losses++
	case Draw:
		s.Draws++
	}
	s.Rating = NextRating(s.Rating, o)
	return s
}

// NextRating moves a rating a fixed step per decisive game, clamped to
// [MinRating, MaxRating]. Draws leave it unchanged.
func NextRating(current int, o Outcome) int {
	switch o {
	case Win:
		return min(current+RatingStep, MaxRating)
	case Loss:
		return max(current-RatingStep, MinRating)
	}
	return current
}

// Standing is one leaderboard row.
type Standing struct {
	UserID string `json:"userId"`
	Stats
}

// Sink stores games. Saving a game also updates the user's stats.
type Sink interface {
	SaveGame(ctx context.Context, userID string, g GameSummary) (Game, error)
	UserGames(ctx context.Context, userID string, limit int) ([]Game, error)
	Stats(ctx context.Context, userID string) (Stats, error)
	Leaderboard(ctx context.Context, limit int) ([]Standing, error)
	Close() error
}

func validate(userID string, g GameSummary) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalid)
	}
	if _, err := ParseOutcome(string(g.Result)); err != nil {
		return err
	}
	if g.Duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalid)
	}
	return nil
}
