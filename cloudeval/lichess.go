// Package cloudeval provides remote position evaluators: the Lichess cloud
// evaluation API and any local UCI engine binary.
package cloudeval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/XapioBroke/aichessbot/engine"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const DefaultLichessURL = "https://lichess.org"

// ErrNoEvaluation means the service has no stored evaluation for the position.
var ErrNoEvaluation = errors.New("no cloud evaluation for position")

// Lichess queries /api/cloud-eval. Requests are rate limited on the client
// side; lichess answers 429 to clients that hammer it.
type Lichess struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

type LichessOption func(*Lichess)

func WithHTTPClient(c *http.Client) LichessOption {
	return func(l *Lichess) { l.client = c }
}

// WithRateLimit allows perSecond requests with the given burst. A
// non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) LichessOption {
	return func(l *Lichess) {
		if perSecond <= 0 {
			l.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithLichessLogger(log zerolog.Logger) LichessOption {
	return func(l *Lichess) { l.log = log }
}

func NewLichess(baseURL string, opts ...LichessOption) *Lichess {
	if baseURL == "" {
		baseURL = DefaultLichessURL
	}
	l := &Lichess{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type cloudEvalResponse struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
	PVs   []struct {
		Moves string `json:"moves"`
		CP    *int   `json:"cp"`
		Mate  *int   `json:"mate"`
	} `json:"pvs"`
}

// EvaluateFEN fetches the principal variation for fen. Lichess reports
// scores from White's point of view, which is what LineEval expects.
func (l *Lichess) EvaluateFEN(ctx context.Context, fen string) (engine.LineEval, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return engine.LineEval{}, err
	}

	q := url.Values{}
	q.Set("fen", fen)
	q.Set("multiPv", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/api/cloud-eval?"+q.Encode(), nil)
	if err != nil {
		return engine.LineEval{}, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return engine.LineEval{}, err
	}
	defer resp.Body.Close()

	l.log.Debug().
		Str("fen", fen).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("lichess cloud-eval")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return engine.LineEval{}, ErrNoEvaluation
	case resp.StatusCode != http.StatusOK:
		return engine.LineEval{}, fmt.Errorf("lichess cloud-eval: status %d", resp.StatusCode)
	}

	var body cloudEvalResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return engine.LineEval{}, fmt.Errorf("lichess cloud-eval: decode: %w", err)
	}
	if len(body.PVs) == 0 {
		return engine.LineEval{}, ErrNoEvaluation
	}
	pv := body.PVs[0]
	out := engine.LineEval{CP: pv.CP, Mate: pv.Mate, Depth: body.Depth}
	if fields := strings.Fields(pv.Moves); len(fields) > 0 {
		out.BestMove = fields[0]
	}
	return out, nil
}
