package engine

import (
	"fmt"
	"math"
)

// Score is a White-positive evaluation in centipawns.
type Score int32

const (
	// MateScore is the saturating value of a side that has been checkmated
	// at the current ply. Mates found deeper in the tree lose one point per ply.
	MateScore Score = 100000
	// Scores at or beyond the threshold are forced mates.
	MateThreshold Score = MateScore - 1000
	DrawScore     Score = 0

	infinity Score = MateScore + 1
)

// IsMate reports whether s encodes a forced mate.
func (s Score) IsMate() bool {
	return s >= MateThreshold || s <= -MateThreshold
}

// MatePlies returns the distance to mate in plies, or 0 for ordinary scores.
func (s Score) MatePlies() int {
	switch {
	case s >= MateThreshold:
		return int(MateScore - s)
	case s <= -MateThreshold:
		return int(MateScore + s)
	}
	return 0
}

// Pawns converts to pawn units. Mates saturate at ±99 pawns.
func (s Score) Pawns() float64 {
	switch {
	case s >= MateThreshold:
		return 99
	case s <= -MateThreshold:
		return -99
	}
	return float64(s) / 100
}

// String renders "cp N" or "mate N" the way UCI info lines do.
func (s Score) String() string {
	if s.IsMate() {
		mateInN := (s.MatePlies() + 1) / 2
		if s < 0 {
			mateInN = -mateInN
		}
		return fmt.Sprintf("mate %d", mateInN)
	}
	return fmt.Sprintf("cp %d", int32(s))
}

// ScoreFromPawns converts a pawn value back to centipawns, clamping below the
// mate range.
func ScoreFromPawns(p float64) Score {
	cp := math.Round(p * 100)
	limit := float64(MateThreshold - 1)
	if cp > limit {
		cp = limit
	} else if cp < -limit {
		cp = -limit
	}
	return Score(cp)
}

// MateIn returns the score for side white (true) mating in the given number
// of moves.
func MateIn(moves int, white bool) Score {
	plies := moves*2 - 1
	if plies < 0 {
		plies = 0
	}
	s := MateScore - Score(plies)
	if !white {
		s = -s
	}
	return s
}
