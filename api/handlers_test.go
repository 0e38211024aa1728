package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XapioBroke/aichessbot/engine"
	"github.com/XapioBroke/aichessbot/position"
	"github.com/XapioBroke/aichessbot/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, opts ...engine.Option) (*Server, *store.Memory) {
	t.Helper()
	sink := store.NewMemory()
	seed := int64(0)
	pool := NewSessionPool(2, func() *engine.Engine {
		seed++
		return engine.New(append([]engine.Option{
			engine.WithSeed(seed),
			engine.WithTier(engine.Advanced, engine.TierConfig{Depth: 2}),
		}, opts...)...)
	})
	return NewServer(pool, sink, zerolog.Nop()), sink
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Router(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestMoveEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()

	w := do(t, r, http.MethodPost, "/api/move", gin.H{"moves": []string{"e4", "e5"}, "difficulty": "hard"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp moveResponse
	decode(t, w, &resp)
	p := position.New()
	for _, text := range []string{"e4", "e5", resp.Move} {
		m, err := p.ParseMove(text)
		if err != nil {
			t.Fatalf("reply %q is not playable: %v", resp.Move, err)
		}
		p.MakeMove(m)
	}
	if resp.FEN != p.FEN() || resp.Outcome.Result != "*" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestMoveEndpointMateInOne(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Router(), http.MethodPost, "/api/move", gin.H{
		"fen":        "7k/6pp/6Q1/8/8/2B5/8/6K1 w - - 0 1",
		"difficulty": "advanced",
	})
	var resp moveResponse
	decode(t, w, &resp)
	if w.Code != http.StatusOK || resp.Outcome.Result != "1-0" || resp.Outcome.Method != "checkmate" {
		t.Fatalf("expected a mating reply, got %d %+v", w.Code, resp)
	}
}

func TestMoveEndpointErrors(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()
	cases := map[string]struct {
		body any
		want int
	}{
		"malformed json": {"{", http.StatusBadRequest},
		"bad fen":        {gin.H{"fen": "8/8/8/8/8/8/8/8 w - - 0 1"}, http.StatusBadRequest},
		"illegal move":   {gin.H{"moves": []string{"e2e5"}}, http.StatusBadRequest},
		"bad notation":   {gin.H{"moves": []string{"Zz9"}}, http.StatusBadRequest},
		"illegal legal":  {gin.H{"legal": []string{"e2e5"}}, http.StatusBadRequest},
		"bad difficulty": {gin.H{"difficulty": "grandmaster"}, http.StatusBadRequest},
		"no difficulty":  {gin.H{"moves": []string{"e4"}}, http.StatusBadRequest},
		"terminal":       {gin.H{"moves": []string{"f3", "e5", "g4", "Qh4#"}, "difficulty": "novice"}, http.StatusUnprocessableEntity},
	}
	for name, tc := range cases {
		w := do(t, r, http.MethodPost, "/api/move", tc.body)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestMoveEndpointBusy(t *testing.T) {
	s, _ := newTestServer(t)
	// Drain the pool so the request cannot get an engine.
	var held []*engine.Engine
	for i := 0; i < s.pool.Size(); i++ {
		e, err := s.pool.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		held = append(held, e)
	}
	defer func() {
		for _, e := range held {
			s.pool.Release(e)
		}
	}()
	w := do(t, s.Router(), http.MethodPost, "/api/move", gin.H{"difficulty": "novice"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestThreatsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Router(), http.MethodPost, "/api/threats", gin.H{
		"fen":       "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2",
		"defending": "black",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Defending string `json:"defending"`
		Threats   []struct {
			From     string `json:"from"`
			Attacker struct {
				Type  string `json:"type"`
				Color string `json:"color"`
			} `json:"attacker"`
			Targets []string `json:"targets"`
		} `json:"threats"`
		Squares []string `json:"squares"`
	}
	decode(t, w, &resp)
	if resp.Defending != "black" || len(resp.Threats) != 1 {
		t.Fatalf("unexpected response %s", w.Body.String())
	}
	th := resp.Threats[0]
	if th.From != "f3" || th.Attacker.Type != "knight" || th.Attacker.Color != "white" || len(th.Targets) != 1 || th.Targets[0] != "e5" {
		t.Fatalf("unexpected threat %+v", th)
	}

	w = do(t, s.Router(), http.MethodPost, "/api/threats", gin.H{})
	decode(t, w, &resp)
	if w.Code != http.StatusOK || resp.Threats == nil || len(resp.Threats) != 0 || resp.Squares == nil {
		t.Fatalf("initial position should give empty lists, got %s", w.Body.String())
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()

	w := do(t, r, http.MethodPost, "/api/analyze", gin.H{"moves": []string{}, "playerColor": "white"})
	if w.Code != http.StatusOK {
		t.Fatalf("empty game: expected 200, got %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/analyze", gin.H{
		"moves":       []string{"e4", "e5", "Qh5", "Nc6", "Qxf7+", "Kxf7"},
		"playerColor": "w",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp analyzeResponse
	decode(t, w, &resp)
	if resp.Analyzed != 3 || len(resp.Mistakes) == 0 {
		t.Fatalf("expected the queen sacrifice to be flagged, got %s", w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/analyze", gin.H{"moves": []string{"e4", "Ke7"}, "playerColor": "white"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("illegal move: expected 400, got %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/analyze", gin.H{"moves": []string{"e4", "e5"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing playerColor: expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAnalyzeEndpointPartialOnEvaluatorFailure(t *testing.T) {
	calls := 0
	failing := evalFunc(func(ctx context.Context, fen string) (engine.LineEval, error) {
		calls++
		if calls > 2 {
			return engine.LineEval{}, errors.New("service unavailable")
		}
		cp := 0
		if calls == 2 {
			cp = -400
		}
		return engine.LineEval{CP: &cp}, nil
	})
	s, _ := newTestServer(t, engine.WithAnalysisEvaluator(failing))
	w := do(t, s.Router(), http.MethodPost, "/api/analyze", gin.H{
		"moves":       []string{"e4", "e5", "Nf3", "Nc6"},
		"playerColor": "white",
	})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
	var resp analyzeResponse
	decode(t, w, &resp)
	if !resp.Incomplete || len(resp.Mistakes) != 1 || resp.Error == "" {
		t.Fatalf("expected a flagged partial report, got %s", w.Body.String())
	}
}

func TestGamesAndLeaderboard(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()

	for _, g := range []gin.H{
		{"userId": "ana", "result": "win", "moves": []string{"e4"}, "duration": 300, "difficulty": "novice", "playerColor": "w"},
		{"userId": "ana", "result": "win"},
		{"userId": "ben", "result": "loss"},
	} {
		w := do(t, r, http.MethodPost, "/api/games", g)
		if w.Code != http.StatusCreated {
			t.Fatalf("save %v: expected 201, got %d: %s", g, w.Code, w.Body.String())
		}
	}
	if w := do(t, r, http.MethodPost, "/api/games", gin.H{"userId": "ana", "result": "abandoned"}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad result: expected 400, got %d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/api/games", gin.H{"result": "win"}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing user: expected 400, got %d", w.Code)
	}

	w := do(t, r, http.MethodGet, "/api/leaderboard?limit=10", nil)
	var board struct {
		Rankings []store.Standing `json:"rankings"`
	}
	decode(t, w, &board)
	if len(board.Rankings) != 2 || board.Rankings[0].UserID != "ana" || board.Rankings[0].Rating != 1264 || board.Rankings[1].Rating != 1168 {
		t.Fatalf("unexpected leaderboard %s", w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/games/ana", nil)
	var games struct {
		Games []gameDTO `json:"games"`
	}
	decode(t, w, &games)
	if len(games.Games) != 2 || games.Games[1].Duration != 300 {
		t.Fatalf("unexpected games %s", w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/stats/nobody", nil)
	var st store.Stats
	decode(t, w, &st)
	if w.Code != http.StatusOK || st.Rating != store.InitialRating || st.TotalGames != 0 {
		t.Fatalf("unknown user should get fresh stats, got %s", w.Body.String())
	}
}

type evalFunc func(ctx context.Context, fen string) (engine.LineEval, error)

func (f evalFunc) EvaluateFEN(ctx context.Context, fen string) (engine.LineEval, error) {
	return f(ctx, fen)
}
