package position

import "math/bits"

const fiftyMoveLimit = 100

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.board.OurKingInCheck()
}

func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

func (p *Position) IsDrawBy50() bool {
	return int(p.board.Halfmoveclock) >= fiftyMoveLimit
}

// IsThreefold reports a third occurrence of the current position.
func (p *Position) IsThreefold() bool {
	return p.repetitions() >= 2
}

// IsInsufficientMaterial covers the bare-king endings: K v K and K+minor v K.
func (p *Position) IsInsufficientMaterial() bool {
	w, b := &p.board.White, &p.board.Black
	if w.Pawns|b.Pawns|w.Rooks|b.Rooks|w.Queens|b.Queens != 0 {
		return false
	}
	minors := bits.OnesCount64(w.Knights | w.Bishops | b.Knights | b.Bishops)
	return minors <= 1
}

// IsDraw covers stalemate and the automatic draw rules.
func (p *Position) IsDraw() bool {
	return p.IsStalemate() || p.IsDrawBy50() || p.IsInsufficientMaterial() || p.IsThreefold()
}

// IsTerminal reports whether play has ended.
func (p *Position) IsTerminal() bool {
	return !p.HasLegalMoves() || p.IsDrawBy50() || p.IsInsufficientMaterial() || p.IsThreefold()
}

// Result is the final state of a game.
type Result uint8

const (
	Ongoing Result = iota
	WhiteWins
	BlackWins
	Drawn
)

func (r Result) String() string {
	switch r {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Drawn:
		return "1/2-1/2"
	}
	return "*"
}

// Method says how a game ended.
type Method uint8

const (
	NoMethod Method = iota
	Checkmate
	Stalemate
	FiftyMoveRule
	ThreefoldRepetition
	InsufficientMaterial
)

var methodNames = [...]string{"", "checkmate", "stalemate", "fifty-move rule", "threefold repetition", "insufficient material"}

func (m Method) String() string {
	return methodNames[m]
}

// Outcome classifies the position.
func (p *Position) Outcome() (Result, Method) {
	if !p.HasLegalMoves() {
		if !p.InCheck() {
			return Drawn, Stalemate
		}
		if p.SideToMove() == White {
			return BlackWins, Checkmate
		}
		return WhiteWins, Checkmate
	}
	switch {
	case p.IsDrawBy50():
		return Drawn, FiftyMoveRule
	case p.IsThreefold():
		return Drawn, ThreefoldRepetition
	case p.IsInsufficientMaterial():
		return Drawn, InsufficientMaterial
	}
	return Ongoing, NoMethod
}
