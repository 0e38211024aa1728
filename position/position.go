// Package position adapts the dragontoothmg move generator into the board
// model used by the engine: validated FEN handling, legal move lists with
// capture and check flags, reversible make/unmake and game-end predicates.
package position

import (
	"github.com/dylhunn/dragontoothmg"
)

// Position is one mutable board state. It is not safe for concurrent use.
type Position struct {
	board    dragontoothmg.Board
	castling CastlingRights
	ep       Square
	history  []State
}

// Clone returns an independent copy, history included.
func (p *Position) Clone() *Position {
	c := &Position{
		board:    p.board,
		castling: p.castling,
		ep:       p.ep,
	}
	c.history = make([]State, len(p.history), len(p.history)+32)
	copy(c.history, p.history)
	return c
}

func (p *Position) SideToMove() Color {
	if p.board.Wtomove {
		return White
	}
	return Black
}

func (p *Position) CastlingRights() CastlingRights { return p.castling }

// EnPassant returns the en-passant target square, or NoSquare.
func (p *Position) EnPassant() Square { return p.ep }

func (p *Position) HalfmoveClock() int { return int(p.board.Halfmoveclock) }

func (p *Position) FullmoveNumber() int { return int(p.board.Fullmoveno) }

// Ply is the number of half-moves played since the start of the game implied
// by the fullmove counter.
func (p *Position) Ply() int {
	ply := (p.FullmoveNumber() - 1) * 2
	if p.SideToMove() == Black {
		ply++
	}
	return ply
}

// PieceAt returns the occupant of sq.
func (p *Position) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	if pt := pieceTypeOn(&p.board.White, sq); pt != NoPieceType {
		return Piece{pt, White}
	}
	if pt := pieceTypeOn(&p.board.Black, sq); pt != NoPieceType {
		return Piece{pt, Black}
	}
	return NoPiece
}

// Occupied returns the bitboard of all squares holding a piece of color c.
func (p *Position) Occupied(c Color) uint64 {
	return bitboardsFor(&p.board, c).All
}

// Bitboards exposes the per-piece bitboards for color c.
func (p *Position) Bitboards(c Color) dragontoothmg.Bitboards {
	return *bitboardsFor(&p.board, c)
}

// Squares lists the squares holding pieces of color c in ascending order.
func (p *Position) Squares(c Color) []Square {
	bb := p.Occupied(c)
	out := make([]Square, 0, 16)
	for sq := Square(0); sq < NoSquare; sq++ {
		if bb&sq.bit() != 0 {
			out = append(out, sq)
		}
	}
	return out
}

// sideInCheck reports whether the king of c is attacked.
func (p *Position) sideInCheck(c Color) bool {
	if c == p.SideToMove() {
		return p.board.OurKingInCheck()
	}
	p.board.Wtomove = !p.board.Wtomove
	inCheck := p.board.OurKingInCheck()
	p.board.Wtomove = !p.board.Wtomove
	return inCheck
}
