// Package config reads the service configuration from the environment. A
// .env file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Logs      LogConfig
	HTTPAddr  string
	Evaluator EvaluatorConfig
	Engine    EngineConfig
	// DatabaseURL selects the Postgres store; empty keeps games in memory.
	DatabaseURL string
}

type LogConfig struct {
	Style string // json or console
	Level string
}

type EvaluatorConfig struct {
	Kind          string // local, lichess or uci
	LichessURL    string
	LichessRate   float64
	UCIPath       string
	RemoteTimeout time.Duration
}

type EngineConfig struct {
	// PoolSize is the number of engines serving HTTP requests.
	PoolSize         int
	AnalysisDepth    int
	MistakeThreshold int
	DelegateAdvanced bool
	RandomSeed       int64
}

const (
	EvaluatorLocal   = "local"
	EvaluatorLichess = "lichess"
	EvaluatorUCI     = "uci"
)

// Load builds a Config from the process environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	e := env{getenv: getenv}
	cfg := &Config{
		Logs: LogConfig{
			Style: e.str("LOG_STYLE", "json"),
			Level: e.str("LOG_LEVEL", "info"),
		},
		HTTPAddr: e.str("HTTP_ADDR", ":8080"),
		Evaluator: EvaluatorConfig{
			Kind:          strings.ToLower(e.str("EVALUATOR", EvaluatorLocal)),
			LichessURL:    e.str("LICHESS_URL", "https://lichess.org"),
			LichessRate:   e.float("LICHESS_RATE", 1),
			UCIPath:       e.str("UCI_PATH", "stockfish"),
			RemoteTimeout: e.duration("REMOTE_TIMEOUT", 3*time.Second),
		},
		Engine: EngineConfig{
			PoolSize:         e.integer("ENGINE_POOL", 4),
			AnalysisDepth:    e.integer("ANALYSIS_DEPTH", 2),
			MistakeThreshold: e.integer("MISTAKE_THRESHOLD", 150),
			DelegateAdvanced: e.boolean("DELEGATE_ADVANCED", false),
			RandomSeed:       int64(e.integer("RANDOM_SEED", 0)),
		},
		DatabaseURL: e.str("DATABASE_URL", ""),
	}
	if e.err != nil {
		return nil, e.err
	}

	switch cfg.Evaluator.Kind {
	case EvaluatorLocal, EvaluatorLichess, EvaluatorUCI:
	default:
		return nil, fmt.Errorf("EVALUATOR: unknown evaluator %q", cfg.Evaluator.Kind)
	}
	if cfg.Engine.PoolSize < 1 {
		return nil, fmt.Errorf("ENGINE_POOL: must be at least 1")
	}
	if cfg.Engine.AnalysisDepth < 0 {
		return nil, fmt.Errorf("ANALYSIS_DEPTH: must not be negative")
	}
	if cfg.Evaluator.RemoteTimeout <= 0 {
		return nil, fmt.Errorf("REMOTE_TIMEOUT: must be positive")
	}
	return cfg, nil
}

// env reads typed values and keeps the first parse error.
type env struct {
	getenv func(string) string
	err    error
}

func (e *env) lookup(key string) (string, bool) {
	v := strings.TrimSpace(e.getenv(key))
	return v, v != ""
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func (e *env) integer(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return f
}

func (e *env) boolean(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return b
}

// duration accepts Go durations ("3s") or a bare number of milliseconds.
func (e *env) duration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *env) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%s: %w", key, err)
	}
}
