// Package engine holds the decision logic: static evaluation, fixed-depth
// alpha-beta search, difficulty-tiered move selection, threat detection and
// post-game mistake analysis.
package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultRemoteTimeout    = 3 * time.Second
	DefaultAnalysisDepth    = 2
	DefaultMistakeThreshold = Score(150)
	// Swings of this size or more are blunders rather than mistakes.
	BlunderThreshold = Score(300)
)

// Engine is one playing/analysis session. Engines share nothing, so separate
// games use separate Engines. SelectMove admits one caller at a time.
type Engine struct {
	tiers         [3]TierConfig
	rng           *rand.Rand
	log           zerolog.Logger
	remote        LineEvaluator
	delegate      bool
	remoteTimeout time.Duration
	analysis      LineEvaluator
	threshold     Score

	busy      sync.Mutex
	lastStats SearchStats
}

type Option func(*Engine)

// WithRand injects the random source used for blunders and tie breaks.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSeed is WithRand with a fresh source seeded by seed.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithTier overrides the configuration of one difficulty.
func WithTier(d Difficulty, cfg TierConfig) Option {
	return func(e *Engine) {
		if int(d) < len(e.tiers) {
			e.tiers[d] = cfg
		}
	}
}

// WithRemote installs a remote evaluator. When delegate is set, the advanced
// tier asks it for a move before searching locally.
func WithRemote(ev LineEvaluator, delegate bool) Option {
	return func(e *Engine) {
		e.remote = ev
		e.delegate = delegate
	}
}

func WithRemoteTimeout(d time.Duration) Option {
	return func(e *Engine) { e.remoteTimeout = d }
}

// WithAnalysisEvaluator sets the evaluator used by AnalyzeGame.
func WithAnalysisEvaluator(ev LineEvaluator) Option {
	return func(e *Engine) { e.analysis = ev }
}

// WithMistakeThreshold sets the minimum swing recorded as a mistake.
func WithMistakeThreshold(s Score) Option {
	return func(e *Engine) { e.threshold = s }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		tiers:         DefaultTiers,
		log:           zerolog.Nop(),
		remoteTimeout: DefaultRemoteTimeout,
		analysis:      LocalEvaluator{Depth: DefaultAnalysisDepth},
		threshold:     DefaultMistakeThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// Tier returns the configuration bound to d.
func (e *Engine) Tier(d Difficulty) (TierConfig, error) {
	if int(d) >= len(e.tiers) {
		return TierConfig{}, ErrUnknownDifficulty
	}
	return e.tiers[d], nil
}

// LastStats reports the counters of the most recent SelectMove search.
func (e *Engine) LastStats() SearchStats {
	e.busy.Lock()
	defer e.busy.Unlock()
	return e.lastStats
}
