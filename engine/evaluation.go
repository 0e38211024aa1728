package engine

import (
	"math/bits"

	"github.com/XapioBroke/aichessbot/position"
	"github.com/dylhunn/dragontoothmg"
)

// Piece values in centipawns, indexed by position.PieceType.
var PieceValue = [7]Score{0, 100, 320, 330, 500, 900, 20000}

const (
	MobilityWeight   Score = 5
	DevelopmentBonus Score = 10
	// Development counts only while fewer plies than this have been played.
	OpeningPlies = 10
)

// Square tables from White's point of view, a1 first. Black reads them
// through FlipView.
var PawnTable = [64]Score{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, -20, -20, 10, 10, 5,
	5, -5, -10, 0, 0, -10, -5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, 5, 10, 25, 25, 10, 5, 5,
	10, 10, 20, 30, 30, 20, 10, 10,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var KnightTable = [64]Score{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

// FlipView maps a square to its mirror across the horizontal midline.
var FlipView [64]int

func init() {
	for sq := 0; sq < 64; sq++ {
		FlipView[sq] = sq ^ 56
	}
}

// home squares of the minor pieces
const (
	whiteMinorHome uint64 = 1<<1 | 1<<2 | 1<<5 | 1<<6
	blackMinorHome uint64 = whiteMinorHome << 56
)

// Evaluate scores p statically. Positive favors White. Checkmate yields the
// mate sentinel against the side to move; stalemate and automatic draws
// score zero.
func Evaluate(p *position.Position) Score {
	stm := p.SideToMove()
	ownMoves := p.MoveCount(stm)
	if ownMoves == 0 {
		if !p.InCheck() {
			return DrawScore
		}
		if stm == position.White {
			return -MateScore
		}
		return MateScore
	}
	if p.IsDrawBy50() || p.IsInsufficientMaterial() || p.IsThreefold() {
		return DrawScore
	}

	white, black := p.Bitboards(position.White), p.Bitboards(position.Black)
	score := material(&white, false) - material(&black, true)

	oppMoves := p.MoveCount(stm.Other())
	mobility := ownMoves - oppMoves
	if stm == position.Black {
		mobility = -mobility
	}
	score += Score(mobility) * MobilityWeight

	if p.Ply() < OpeningPlies {
		wDev := bits.OnesCount64((white.Knights | white.Bishops) &^ whiteMinorHome)
		bDev := bits.OnesCount64((black.Knights | black.Bishops) &^ blackMinorHome)
		score += Score(wDev-bDev) * DevelopmentBonus
	}
	return score
}

// material sums piece values and square-table bonuses for one side.
func material(bb *dragontoothmg.Bitboards, flip bool) Score {
	var score Score
	score += Score(bits.OnesCount64(bb.Bishops)) * PieceValue[position.Bishop]
	score += Score(bits.OnesCount64(bb.Rooks)) * PieceValue[position.Rook]
	score += Score(bits.OnesCount64(bb.Queens)) * PieceValue[position.Queen]
	score += Score(bits.OnesCount64(bb.Kings)) * PieceValue[position.King]

	for x := bb.Pawns; x != 0; x &= x - 1 {
		sq := bits.TrailingZeros64(x)
		if flip {
			sq = FlipView[sq]
		}
		score += PieceValue[position.Pawn] + PawnTable[sq]
	}
	for x := bb.Knights; x != 0; x &= x - 1 {
		sq := bits.TrailingZeros64(x)
		if flip {
			sq = FlipView[sq]
		}
		score += PieceValue[position.Knight] + KnightTable[sq]
	}
	return score
}
