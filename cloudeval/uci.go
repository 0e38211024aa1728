package cloudeval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/XapioBroke/aichessbot/engine"
	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"github.com/rs/zerolog"
)

var errEngineClosed = errors.New("uci engine closed")

// UCI evaluates positions with an external engine process such as
// Stockfish. One search runs at a time.
type UCI struct {
	mu       sync.Mutex
	eng      *uci.Engine
	depth    int
	moveTime time.Duration
	log      zerolog.Logger
}

type UCIOption func(*UCI)

// WithDepth searches to a fixed depth instead of a fixed time.
func WithDepth(depth int) UCIOption {
	return func(u *UCI) { u.depth = depth }
}

func WithMoveTime(d time.Duration) UCIOption {
	return func(u *UCI) { u.moveTime = d }
}

func WithUCILogger(log zerolog.Logger) UCIOption {
	return func(u *UCI) { u.log = log }
}

// NewUCI starts the engine binary at path and runs the handshake.
func NewUCI(path string, opts ...UCIOption) (*UCI, error) {
	u := &UCI{moveTime: 500 * time.Millisecond, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(u)
	}
	eng, err := uci.New(path)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, fmt.Errorf("uci handshake: %w", err)
	}
	u.eng = eng
	u.log.Info().Str("path", path).Msg("uci engine started")
	return u, nil
}

// EvaluateFEN runs one search on fen. When ctx expires first the call
// returns its error and the search is left to finish in the background;
// the next call waits for it.
func (u *UCI) EvaluateFEN(ctx context.Context, fen string) (engine.LineEval, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return engine.LineEval{}, err
	}
	pos := chess.NewGame(opt).Position()
	cmdGo := u.goCommand(ctx)

	type result struct {
		line engine.LineEval
		err  error
	}
	done := make(chan result, 1)
	go func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.eng == nil {
			done <- result{err: errEngineClosed}
			return
		}
		if err := u.eng.Run(uci.CmdPosition{Position: pos}, cmdGo); err != nil {
			done <- result{err: err}
			return
		}
		res := u.eng.SearchResults()
		line := fromInfo(res.Info, pos.Turn() == chess.Black)
		if res.BestMove != nil {
			line.BestMove = chess.UCINotation{}.Encode(pos, res.BestMove)
		}
		done <- result{line: line}
	}()

	select {
	case <-ctx.Done():
		return engine.LineEval{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return engine.LineEval{}, r.err
		}
		u.log.Debug().Str("fen", fen).Str("best", r.line.BestMove).Int("depth", r.line.Depth).Msg("uci eval")
		return r.line, nil
	}
}

// goCommand bounds the search by the context deadline when that is shorter
// than the configured move time.
func (u *UCI) goCommand(ctx context.Context) uci.CmdGo {
	if u.depth > 0 {
		return uci.CmdGo{Depth: u.depth}
	}
	mt := u.moveTime
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl) / 2; left > 0 && left < mt {
			mt = left
		}
	}
	return uci.CmdGo{MoveTime: mt}
}

// fromInfo converts an engine score, which is relative to the side to move,
// to White's point of view.
func fromInfo(info uci.Info, blackToMove bool) engine.LineEval {
	sign := 1
	if blackToMove {
		sign = -1
	}
	out := engine.LineEval{Depth: info.Depth}
	if info.Score.Mate != 0 {
		m := info.Score.Mate * sign
		out.Mate = &m
	} else {
		cp := info.Score.CP * sign
		out.CP = &cp
	}
	return out
}

func (u *UCI) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.eng == nil {
		return nil
	}
	u.eng.Close()
	u.eng = nil
	return nil
}
