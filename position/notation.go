package position

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// ErrBadNotation reports move text that cannot be read in the given position.
var ErrBadNotation = errors.New("bad move notation")

// ParseMove reads a move in UCI ("g1f3") or standard algebraic ("Nf3")
// notation and resolves it against the legal moves.
func (p *Position) ParseMove(text string) (Move, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Move{}, fmt.Errorf("%w: empty move", ErrBadNotation)
	}
	if m, err := ParseUCI(text); err == nil {
		return p.Resolve(m)
	}

	cp, err := p.notnilPosition()
	if err != nil {
		return Move{}, err
	}
	mv, err := chess.AlgebraicNotation{}.Decode(cp, text)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q in %s", ErrBadNotation, text, p.FEN())
	}
	m, err := ParseUCI(chess.UCINotation{}.Encode(cp, mv))
	if err != nil {
		return Move{}, err
	}
	return p.Resolve(m)
}

// SAN renders a legal move in standard algebraic notation, with the check or
// mate suffix. Moves the notation library does not list fall back to UCI.
func (p *Position) SAN(m Move) string {
	cp, err := p.notnilPosition()
	if err != nil {
		return m.String()
	}
	// only generated moves carry the check tags the suffix is read from
	want := m.String()
	for _, mv := range cp.ValidMoves() {
		if (chess.UCINotation{}).Encode(cp, mv) == want {
			return chess.AlgebraicNotation{}.Encode(cp, mv)
		}
	}
	return want
}

func (p *Position) notnilPosition() (*chess.Position, error) {
	opt, err := chess.FEN(p.FEN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFEN, err)
	}
	return chess.NewGame(opt).Position(), nil
}
