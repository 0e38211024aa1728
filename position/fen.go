package position

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrMalformedFEN reports a FEN that does not describe a well-formed position.
var ErrMalformedFEN = errors.New("malformed FEN")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFEN, fmt.Sprintf(format, args...))
}

type fenFields struct {
	grid      [64]Piece
	side      Color
	castling  CastlingRights
	ep        Square
	halfmove  int
	fullmove  int
	placement string
}

// ParseFEN validates fen and builds a Position from it. Four to six fields are
// accepted; missing counters default to "0 1".
func ParseFEN(fen string) (*Position, error) {
	f, err := splitFEN(fen)
	if err != nil {
		return nil, err
	}
	p, err := fromFields(f)
	if err != nil {
		return nil, err
	}
	if p.sideInCheck(p.SideToMove().Other()) {
		return nil, malformed("side not to move is in check")
	}
	return p, nil
}

// MustParseFEN is ParseFEN for known-good constants.
func MustParseFEN(fen string) *Position {
	p, err := ParseFEN(fen)
	if err != nil {
		panic(err)
	}
	return p
}

// New returns the initial position.
func New() *Position {
	return MustParseFEN(StartFEN)
}

func splitFEN(fen string) (fenFields, error) {
	var f fenFields
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return f, malformed("expected 4 to 6 fields, got %d", len(fields))
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return f, malformed("incorrect number of ranks")
	}
	var kings [2]int
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(rankStr); j++ {
			ch := rankStr[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pc, ok := pieceFromChar(ch)
			if !ok {
				return f, malformed("unrecognized piece %q", ch)
			}
			if file >= 8 {
				return f, malformed("too many squares in rank %d", rank+1)
			}
			if pc.Type == Pawn && (rank == 0 || rank == 7) {
				return f, malformed("pawn on back rank")
			}
			if pc.Type == King {
				kings[pc.Color]++
			}
			f.grid[NewSquare(file, rank)] = pc
			file++
		}
		if file != 8 {
			return f, malformed("rank %d does not have 8 files", rank+1)
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return f, malformed("each side needs exactly one king")
	}
	f.placement = fields[0]

	switch fields[1] {
	case "w":
		f.side = White
	case "b":
		f.side = Black
	default:
		return f, malformed("side to move %q", fields[1])
	}

	if fields[2] != "-" {
		for i := 0; i < len(fields[2]); i++ {
			idx := strings.IndexByte("KQkq", fields[2][i])
			if idx < 0 || f.castling&(1<<idx) != 0 {
				return f, malformed("castling field %q", fields[2])
			}
			f.castling |= 1 << idx
		}
	}
	if err := checkCastlingPieces(&f); err != nil {
		return f, err
	}

	f.ep = NoSquare
	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return f, malformed("en-passant square %q", fields[3])
		}
		wantRank := 5
		if f.side == Black {
			wantRank = 2
		}
		if sq.Rank() != wantRank {
			return f, malformed("en-passant square %s on wrong rank", sq)
		}
		// the pawn that just pushed two squares sits past the target, with the
		// target and its start square empty
		pushed, origin := sq+8, sq-8
		if f.side == White {
			pushed, origin = sq-8, sq+8
		}
		if f.grid[pushed] != (Piece{Pawn, f.side.Other()}) || !f.grid[sq].IsEmpty() || !f.grid[origin].IsEmpty() {
			return f, malformed("en-passant square %s without a double-pushed pawn", sq)
		}
		f.ep = sq
	}

	f.halfmove, f.fullmove = 0, 1
	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 || n > 255 {
			return f, malformed("halfmove clock %q", fields[4])
		}
		f.halfmove = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 || n > 65535 {
			return f, malformed("fullmove number %q", fields[5])
		}
		f.fullmove = n
	}
	return f, nil
}

func checkCastlingPieces(f *fenFields) error {
	need := []struct {
		right CastlingRights
		king  Square
		rook  Square
		color Color
	}{
		{WhiteKingside, 4, 7, White},
		{WhiteQueenside, 4, 0, White},
		{BlackKingside, 60, 63, Black},
		{BlackQueenside, 60, 56, Black},
	}
	for _, n := range need {
		if f.castling&n.right == 0 {
			continue
		}
		if f.grid[n.king] != (Piece{King, n.color}) || f.grid[n.rook] != (Piece{Rook, n.color}) {
			return malformed("castling right %s without king and rook at home", n.right)
		}
	}
	return nil
}

func (f fenFields) String() string {
	return fmt.Sprintf("%s %s %s %s %d %d", f.placement, sideChar(f.side), f.castling, f.ep, f.halfmove, f.fullmove)
}

func sideChar(c Color) string {
	if c == White {
		return "w"
	}
	return "b"
}

// fromFields hands validated fields to dragontoothmg and checks that the board
// it built matches what was asked for.
func fromFields(f fenFields) (p *Position, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, malformed("rules engine rejected position: %v", r)
		}
	}()
	p = &Position{
		board:    dragontoothmg.ParseFen(f.String()),
		castling: f.castling,
		ep:       f.ep,
	}
	if got := p.placement(); got != f.placement {
		return nil, malformed("placement %q read back as %q", f.placement, got)
	}
	if p.SideToMove() != f.side {
		return nil, malformed("side to move read back incorrectly")
	}
	p.history = append(p.history, p.state())
	return p, nil
}

func (p *Position) placement() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.PieceAt(NewSquare(file, rank))
			if pc.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pc.Char())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// FEN renders the position in Forsyth-Edwards notation.
func (p *Position) FEN() string {
	f := fenFields{
		placement: p.placement(),
		side:      p.SideToMove(),
		castling:  p.castling,
		ep:        p.ep,
		halfmove:  int(p.board.Halfmoveclock),
		fullmove:  int(p.board.Fullmoveno),
	}
	return f.String()
}

// WithSideToMove returns a hypothetical copy with side as the side to move and
// no en-passant target. The copy is not checked for legality: the side that
// is not to move may be in check.
func (p *Position) WithSideToMove(side Color) (*Position, error) {
	if side == p.SideToMove() && p.ep == NoSquare {
		return p.Clone(), nil
	}
	f := fenFields{
		placement: p.placement(),
		side:      side,
		castling:  p.castling,
		ep:        NoSquare,
		halfmove:  int(p.board.Halfmoveclock),
		fullmove:  int(p.board.Fullmoveno),
	}
	return fromFields(f)
}
