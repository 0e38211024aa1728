package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/XapioBroke/aichessbot/engine"
	"github.com/XapioBroke/aichessbot/position"
	"github.com/XapioBroke/aichessbot/store"
	"github.com/gin-gonic/gin"
)

// acquireTimeout bounds how long a request waits for a free engine.
const acquireTimeout = 2 * time.Second

var (
	errTerminal     = errors.New("game is over")
	errMissingField = errors.New("missing field")
)

type positionRequest struct {
	// FEN of the starting position; empty means the initial position.
	FEN string `json:"fen"`
	// Moves played from FEN, in SAN or UCI.
	Moves []string `json:"moves"`
}

func (r positionRequest) build() (*position.Position, error) {
	p := position.New()
	if r.FEN != "" {
		var err error
		if p, err = position.ParseFEN(r.FEN); err != nil {
			return nil, err
		}
	}
	for i, text := range r.Moves {
		m, err := p.ParseMove(text)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		p.MakeMove(m)
	}
	return p, nil
}

type moveRequest struct {
	positionRequest
	Legal      []string           `json:"legal"`
	Difficulty *engine.Difficulty `json:"difficulty"`
}

func (r moveRequest) difficulty() (engine.Difficulty, error) {
	if r.Difficulty == nil {
		return 0, fmt.Errorf("%w: difficulty", errMissingField)
	}
	return *r.Difficulty, nil
}

type outcomeDTO struct {
	Result string `json:"result"`
	Method string `json:"method,omitempty"`
}

func outcomeOf(p *position.Position) outcomeDTO {
	r, m := p.Outcome()
	return outcomeDTO{Result: r.String(), Method: m.String()}
}

type moveResponse struct {
	Move    string     `json:"move"`
	SAN     string     `json:"san"`
	FEN     string     `json:"fen"`
	Check   bool       `json:"check"`
	Outcome outcomeDTO `json:"outcome"`
}

// Move answers with the engine's reply in the requested position.
func (s *Server) Move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	p, err := req.build()
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	var legal []position.Move
	for _, text := range req.Legal {
		m, err := p.ParseMove(text)
		if err != nil {
			s.fail(c, statusFor(err), err)
			return
		}
		legal = append(legal, m)
	}
	d, err := req.difficulty()
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), acquireTimeout)
	eng, err := s.pool.Acquire(ctx)
	cancel()
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	m, err := eng.SelectMove(c.Request.Context(), p, legal, d)
	s.pool.Release(eng)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	san := p.SAN(m)
	p.MakeMove(m)
	c.JSON(http.StatusOK, moveResponse{
		Move:    m.String(),
		SAN:     san,
		FEN:     p.FEN(),
		Check:   p.InCheck(),
		Outcome: outcomeOf(p),
	})
}

type threatsRequest struct {
	positionRequest
	// Defending defaults to the side to move.
	Defending *position.Color `json:"defending"`
}

type threatsResponse struct {
	Defending position.Color        `json:"defending"`
	Threats   []engine.ThreatRecord `json:"threats"`
	Squares   []position.Square     `json:"squares"`
}

func (s *Server) Threats(c *gin.Context) {
	var req threatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	p, err := req.build()
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	defending := p.SideToMove()
	if req.Defending != nil {
		defending = *req.Defending
	}
	threats := engine.DetectThreats(p, defending)
	c.JSON(http.StatusOK, threatsResponse{
		Defending: defending,
		Threats:   threats,
		Squares:   nonNil(engine.ThreatenedSquares(threats)),
	})
}

func nonNil(squares []position.Square) []position.Square {
	if squares == nil {
		return []position.Square{}
	}
	return squares
}

type analyzeRequest struct {
	Moves       []string        `json:"moves"`
	PlayerColor *position.Color `json:"playerColor"`
}

type analyzeResponse struct {
	engine.Report
	Error string `json:"error,omitempty"`
}

// Analyze runs the mistake scan over a finished game. An evaluator failure
// still returns what was found, with status 502.
func (s *Server) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if req.PlayerColor == nil {
		err := fmt.Errorf("%w: playerColor", errMissingField)
		s.fail(c, statusFor(err), err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), acquireTimeout)
	eng, err := s.pool.Acquire(ctx)
	cancel()
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	report, err := eng.AnalyzeGame(c.Request.Context(), req.Moves, *req.PlayerColor)
	s.pool.Release(eng)
	if err != nil {
		status := statusFor(err)
		s.log.Warn().Err(err).Int("status", status).Msg("analysis failed")
		c.JSON(status, analyzeResponse{Report: report, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, analyzeResponse{Report: report})
}

type saveGameRequest struct {
	UserID      string   `json:"userId" binding:"required"`
	PGN         string   `json:"pgn"`
	Moves       []string `json:"moves"`
	Result      string   `json:"result" binding:"required"`
	Difficulty  string   `json:"difficulty"`
	PlayerColor string   `json:"playerColor"`
	// Duration in seconds.
	Duration int    `json:"duration"`
	FEN      string `json:"fen"`
}

type gameDTO struct {
	store.Game
	Duration int `json:"duration"`
}

func toGameDTO(g store.Game) gameDTO {
	return gameDTO{Game: g, Duration: int(g.Duration / time.Second)}
}

func (s *Server) SaveGame(c *gin.Context) {
	var req saveGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	result, err := store.ParseOutcome(req.Result)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if req.FEN != "" {
		if _, err := position.ParseFEN(req.FEN); err != nil {
			s.fail(c, http.StatusBadRequest, err)
			return
		}
	}
	game, err := s.sink.SaveGame(c.Request.Context(), req.UserID, store.GameSummary{
		PGN:         req.PGN,
		Moves:       req.Moves,
		Result:      result,
		Difficulty:  req.Difficulty,
		PlayerColor: req.PlayerColor,
		Duration:    time.Duration(req.Duration) * time.Second,
		FEN:         req.FEN,
	})
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	stats, err := s.sink.Stats(c.Request.Context(), req.UserID)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"game": toGameDTO(game), "stats": stats})
}

func (s *Server) UserGames(c *gin.Context) {
	limit := queryLimit(c, 10)
	games, err := s.sink.UserGames(c.Request.Context(), c.Param("user"), limit)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	out := make([]gameDTO, 0, len(games))
	for _, g := range games {
		out = append(out, toGameDTO(g))
	}
	c.JSON(http.StatusOK, gin.H{"games": out})
}

func (s *Server) Stats(c *gin.Context) {
	stats, err := s.sink.Stats(c.Request.Context(), c.Param("user"))
	if errors.Is(err, store.ErrNotFound) {
		stats, err = store.NewStats(), nil
	}
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) Leaderboard(c *gin.Context) {
	rows, err := s.sink.Leaderboard(c.Request.Context(), queryLimit(c, 100))
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	if rows == nil {
		rows = []store.Standing{}
	}
	c.JSON(http.StatusOK, gin.H{"rankings": rows})
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "engines": s.pool.Size()})
}

func queryLimit(c *gin.Context, def int) int {
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 1000 {
		return v
	}
	return def
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, position.ErrIllegalMove),
		errors.Is(err, position.ErrBadNotation),
		errors.Is(err, position.ErrMalformedFEN),
		errors.Is(err, engine.ErrUnknownDifficulty),
		errors.Is(err, errMissingField),
		errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, engine.ErrNoLegalMoves), errors.Is(err, errTerminal):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrEvaluatorUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
