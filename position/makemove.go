package position

import "github.com/dylhunn/dragontoothmg"

// MoveState is the undo record for one MakeMove. It stores only what the move
// changed so the same Position can be walked forward and back during search.
type MoveState struct {
	Move          Move
	Moved         Piece
	Captured      Piece
	PrevCastling  CastlingRights
	PrevEnPassant Square

	unapply func()
}

// MakeMove plays m, which must have been produced by this position's move
// generator, and returns the record needed to take it back.
func (p *Position) MakeMove(m Move) MoveState {
	st := MoveState{
		Move:          m,
		Moved:         p.PieceAt(m.From),
		Captured:      p.PieceAt(m.To),
		PrevCastling:  p.castling,
		PrevEnPassant: p.ep,
	}
	if st.Moved.Type == Pawn && m.To == p.ep {
		st.Captured = Piece{Pawn, st.Moved.Color.Other()}
	}

	st.unapply = p.board.Apply(m.raw)

	if st.Moved.Type == King || st.Moved.Type == Rook || !st.Captured.IsEmpty() {
		for _, cs := range castlingSquares {
			if cs.sq == m.From || cs.sq == m.To {
				p.castling &^= cs.right
			}
		}
	}

	p.ep = NoSquare
	if st.Moved.Type == Pawn {
		if diff := int(m.To) - int(m.From); diff == 16 || diff == -16 {
			p.ep = Square((int(m.From) + int(m.To)) / 2)
		}
	}

	p.history = append(p.history, p.state())
	return st
}

// UnmakeMove restores the position to before st's move. Records must be
// unwound in reverse order.
func (p *Position) UnmakeMove(st MoveState) {
	st.unapply()
	p.castling = st.PrevCastling
	p.ep = st.PrevEnPassant
	if len(p.history) > 1 {
		p.history = p.history[:len(p.history)-1]
	}
}

// Play validates m against the legal moves and makes it permanently.
func (p *Position) Play(m Move) (Move, error) {
	lm, err := p.Resolve(m)
	if err != nil {
		return Move{}, err
	}
	p.MakeMove(lm)
	return lm, nil
}

// State is one entry of the repetition history.
type State struct {
	Key    Key
	Rule50 int
}

// Key identifies a position for repetition purposes.
type Key struct {
	White, Black dragontoothmg.Bitboards
	WhiteToMove  bool
	Castling     CastlingRights
	EnPassant    Square
}

func (p *Position) key() Key {
	return Key{
		White:       p.board.White,
		Black:       p.board.Black,
		WhiteToMove: p.board.Wtomove,
		Castling:    p.castling,
		EnPassant:   p.ep,
	}
}

// Key returns the repetition key of the current position.
func (p *Position) Key() Key {
	return p.key()
}

func (p *Position) state() State {
	return State{Key: p.key(), Rule50: int(p.board.Halfmoveclock)}
}

// repetitions counts earlier occurrences of the current position since the
// last irreversible move.
func (p *Position) repetitions() int {
	if len(p.history) <= 1 {
		return 0
	}
	curr := p.history[len(p.history)-1]
	start := len(p.history) - 1 - curr.Rule50
	if start < 0 {
		start = 0
	}
	count := 0
	for i := len(p.history) - 2; i >= start; i-- {
		if p.history[i].Key == curr.Key {
			count++
		}
	}
	return count
}
