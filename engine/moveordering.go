package engine

import (
	"github.com/XapioBroke/aichessbot/position"
)

type scoredMove struct {
	move  position.Move
	score uint16
}

type moveList struct {
	moves []scoredMove
}

// Most Valuable Victim - Least Valuable Aggressor; used to score & sort captures
var mvvLva [7][7]uint16 = [7][7]uint16{
	{0, 0, 0, 0, 0, 0, 0},
	{0, 14, 13, 12, 11, 10, 0}, // victim Pawn
	{0, 24, 23, 22, 21, 20, 0}, // victim Knight
	{0, 34, 33, 32, 31, 30, 0}, // victim Bishop
	{0, 44, 43, 42, 41, 40, 0}, // victim Rook
	{0, 54, 53, 52, 51, 50, 0}, // victim Queen
	{0, 0, 0, 0, 0, 0, 0},      // victim King
}

// Captures always sort ahead of quiet moves; promotions lead the quiet moves,
// then killers.
var captureOffset uint16 = 15000
var promotionOffset uint16 = 10000
var killerOffset uint16 = 5000

// scoreMoves ranks moves for ordering. killers may be nil.
func scoreMoves(p *position.Position, moves []position.Move, killers *killerTable, ply int) (list moveList) {
	list.moves = make([]scoredMove, len(moves))
	for i, m := range moves {
		var eval uint16
		if m.Capture {
			victim := p.PieceAt(m.To).Type
			if victim == position.NoPieceType {
				victim = position.Pawn // en passant
			}
			attacker := p.PieceAt(m.From).Type
			eval = captureOffset + mvvLva[victim][attacker]
			if m.Promotion != position.NoPieceType {
				eval += uint16(m.Promotion)
			}
		} else if m.Promotion != position.NoPieceType {
			eval = promotionOffset + uint16(m.Promotion)
		} else if killers != nil {
			if r := killers.rank(m, ply); r > 0 {
				eval = killerOffset + r
			}
		}
		list.moves[i] = scoredMove{move: m, score: eval}
	}
	return list
}

// Ordering the moves one at a time, at index given. Equal scores keep their
// generation order so the search stays deterministic.
func orderNextMove(currIndex int, moves *moveList) {
	bestIndex := currIndex
	bestScore := moves.moves[bestIndex].score

	for index := bestIndex + 1; index < len(moves.moves); index++ {
		if moves.moves[index].score > bestScore {
			bestIndex = index
			bestScore = moves.moves[index].score
		}
	}

	tempMove := moves.moves[currIndex]
	moves.moves[currIndex] = moves.moves[bestIndex]
	moves.moves[bestIndex] = tempMove
}

// orderedMoves returns moves sorted captures first.
func orderedMoves(p *position.Position, moves []position.Move) []position.Move {
	list := scoreMoves(p, moves, nil, 0)
	out := make([]position.Move, len(moves))
	for i := range list.moves {
		orderNextMove(i, &list)
		out[i] = list.moves[i].move
	}
	return out
}
