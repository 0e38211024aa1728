package position

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

// ErrIllegalMove is returned when a move is not legal in the position it is
// applied to.
var ErrIllegalMove = errors.New("illegal move")

// Move is a legal move in one specific Position. Capture is always set by the
// generator; Check only by LegalMoves.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
	Capture   bool
	Check     bool

	raw dragontoothmg.Move
}

// String renders the move in UCI long algebraic form, e.g. "e7e8q".
func (m Move) String() string {
	if m.From >= NoSquare || m.To >= NoSquare {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPieceType {
		s += string("?pnbrqk"[m.Promotion])
	}
	return s
}

func (m Move) IsZero() bool {
	return m.From == m.To
}

// Same reports whether both moves describe the same from, to and promotion.
func (m Move) Same(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

// ParseUCI reads a coordinate move ("e2e4", "a7a8q") without reference to a
// position. The result carries no flags and must be resolved with Resolve.
func ParseUCI(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrBadNotation, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrBadNotation, s)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrBadNotation, s)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		switch s[4] {
		case 'n':
			m.Promotion = Knight
		case 'b':
			m.Promotion = Bishop
		case 'r':
			m.Promotion = Rook
		case 'q':
			m.Promotion = Queen
		default:
			return Move{}, fmt.Errorf("%w: %q", ErrBadNotation, s)
		}
	}
	return m, nil
}

func (p *Position) wrap(dm dragontoothmg.Move) Move {
	m := Move{
		From:      Square(dm.From()),
		To:        Square(dm.To()),
		Promotion: PieceType(dm.Promote()),
		raw:       dm,
	}
	opp := bitboardsFor(&p.board, p.SideToMove().Other())
	if opp.All&m.To.bit() != 0 {
		m.Capture = true
	} else if own := bitboardsFor(&p.board, p.SideToMove()); own.Pawns&m.From.bit() != 0 && m.From.File() != m.To.File() {
		// en passant
		m.Capture = true
	}
	return m
}

// GenerateMoves appends the legal moves of the side to move to dst. Check
// flags are not computed.
func (p *Position) GenerateMoves(dst []Move) []Move {
	for _, dm := range p.board.GenerateLegalMoves() {
		dst = append(dst, p.wrap(dm))
	}
	return dst
}

// LegalMoves returns every legal move with capture and check flags set.
func (p *Position) LegalMoves() []Move {
	moves := p.GenerateMoves(make([]Move, 0, 48))
	for i := range moves {
		unapply := p.board.Apply(moves[i].raw)
		moves[i].Check = p.board.OurKingInCheck()
		unapply()
	}
	return moves
}

// LegalMovesFrom returns the legal moves of the piece on sq.
func (p *Position) LegalMovesFrom(sq Square) []Move {
	var out []Move
	for _, m := range p.LegalMoves() {
		if m.From == sq {
			out = append(out, m)
		}
	}
	return out
}

// MoveCount returns how many legal moves c would have if it were c's turn.
func (p *Position) MoveCount(c Color) int {
	if c == p.SideToMove() {
		return len(p.board.GenerateLegalMoves())
	}
	if p.ep == NoSquare {
		p.board.Wtomove = !p.board.Wtomove
		n := len(p.board.GenerateLegalMoves())
		p.board.Wtomove = !p.board.Wtomove
		return n
	}
	h, err := p.WithSideToMove(c)
	if err != nil {
		return 0
	}
	return len(h.board.GenerateLegalMoves())
}

// HasLegalMoves reports whether the side to move can move at all.
func (p *Position) HasLegalMoves() bool {
	return len(p.board.GenerateLegalMoves()) > 0
}

// Resolve finds the legal move matching m's from, to and promotion.
func (p *Position) Resolve(m Move) (Move, error) {
	for _, lm := range p.LegalMoves() {
		if lm.Same(m) {
			return lm, nil
		}
	}
	return Move{}, fmt.Errorf("%w: %s in %s", ErrIllegalMove, m, p.FEN())
}

// IsLegal reports whether m is legal here.
func (p *Position) IsLegal(m Move) bool {
	_, err := p.Resolve(m)
	return err == nil
}
