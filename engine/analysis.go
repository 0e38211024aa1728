package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/XapioBroke/aichessbot/position"
)

type Severity uint8

const (
	Mistake Severity = iota
	Blunder
)

func (s Severity) String() string {
	if s == Blunder {
		return "blunder"
	}
	return "mistake"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "mistake":
		*s = Mistake
	case "blunder":
		*s = Blunder
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// MistakeRecord describes one human move whose evaluation swing crossed the
// mistake threshold.
type MistakeRecord struct {
	Ply        int      `json:"ply"` // 1-based index into the move list
	MoveNumber int      `json:"moveNumber"`
	Notation   string   `json:"notation"`
	EvalBefore Score    `json:"evalBefore"`
	EvalAfter  Score    `json:"evalAfter"`
	Loss       float64  `json:"loss"` // pawns
	Better     string   `json:"better,omitempty"`
	Severity   Severity `json:"severity"`
}

// Report is the result of one analysis pass. Incomplete is set when the
// evaluator failed before the last human move was scored; Mistakes then holds
// everything found up to that point.
type Report struct {
	Mistakes   []MistakeRecord `json:"mistakes"`
	Analyzed   int             `json:"analyzed"`
	Incomplete bool            `json:"incomplete"`
}

// AnalyzeGame replays moves (SAN or UCI) from the initial position and
// scores every move played by human with the analysis evaluator. The
// evaluation swing across a move is absolute and measured in pawns, with
// mates saturating at 99.
func (e *Engine) AnalyzeGame(ctx context.Context, moves []string, human position.Color) (Report, error) {
	report := Report{Mistakes: []MistakeRecord{}}
	if len(moves) == 0 {
		return report, nil
	}
	start := time.Now()
	a := analyzer{ev: e.analysis, cache: make(map[string]LineEval)}
	limit := e.threshold.Pawns()
	blunder := BlunderThreshold.Pawns()

	p := position.New()
	for i, text := range moves {
		m, err := p.ParseMove(text)
		if err != nil {
			if !errors.Is(err, ErrIllegalMove) {
				err = fmt.Errorf("%w: %v", ErrIllegalMove, err)
			}
			return report, fmt.Errorf("move %d: %w", i+1, err)
		}
		if p.SideToMove() != human {
			p.MakeMove(m)
			continue
		}

		before := p.Clone()
		beforeLine, beforeScore, err := a.evaluate(ctx, before.FEN())
		if err != nil {
			report.Incomplete = true
			return report, err
		}
		p.MakeMove(m)
		_, afterScore, err := a.evaluate(ctx, p.FEN())
		if err != nil {
			report.Incomplete = true
			return report, err
		}
		report.Analyzed++

		swing := math.Abs(afterScore.Pawns() - beforeScore.Pawns())
		if swing <= limit {
			continue
		}
		rec := MistakeRecord{
			Ply:        i + 1,
			MoveNumber: before.FullmoveNumber(),
			Notation:   before.SAN(m),
			EvalBefore: beforeScore,
			EvalAfter:  afterScore,
			Loss:       math.Round(swing*100) / 100,
			Better:     betterMove(before, beforeLine.BestMove, m),
		}
		if swing >= blunder {
			rec.Severity = Blunder
		}
		report.Mistakes = append(report.Mistakes, rec)
	}

	e.log.Info().
		Int("moves", len(moves)).
		Int("analyzed", report.Analyzed).
		Int("mistakes", len(report.Mistakes)).
		Dur("elapsed", time.Since(start)).
		Msg("game analyzed")
	return report, nil
}

// analyzer memoizes evaluations by FEN for one pass so repeated positions
// are fetched once.
type analyzer struct {
	ev    LineEvaluator
	cache map[string]LineEval
}

func (a *analyzer) evaluate(ctx context.Context, fen string) (LineEval, Score, error) {
	line, ok := a.cache[fen]
	if !ok {
		var err error
		line, err = a.ev.EvaluateFEN(ctx, fen)
		if err != nil {
			return LineEval{}, 0, fmt.Errorf("%w: %v", ErrEvaluatorUnavailable, err)
		}
		a.cache[fen] = line
	}
	s, ok := line.Score()
	if !ok {
		return LineEval{}, 0, fmt.Errorf("%w: no score for %s", ErrEvaluatorUnavailable, fen)
	}
	return line, s, nil
}

// betterMove renders the evaluator's suggestion in SAN when it is legal in p
// and differs from the move actually played.
func betterMove(p *position.Position, best string, played position.Move) string {
	if best == "" {
		return ""
	}
	want, err := position.ParseUCI(best)
	if err != nil || want.Same(played) {
		return ""
	}
	m, err := p.Resolve(want)
	if err != nil {
		return ""
	}
	return p.SAN(m)
}
