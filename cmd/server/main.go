package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/XapioBroke/aichessbot/api"
	"github.com/XapioBroke/aichessbot/cloudeval"
	"github.com/XapioBroke/aichessbot/config"
	"github.com/XapioBroke/aichessbot/engine"
	"github.com/XapioBroke/aichessbot/store"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := config.NewLogger(cfg.Logs)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	sink, err := openStore(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer sink.Close()

	remote, closeRemote, err := openEvaluator(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("evaluator", cfg.Evaluator.Kind).Msg("start evaluator")
	}
	defer closeRemote()

	// websocket connections build engines concurrently
	var seed atomic.Int64
	seed.Store(cfg.Engine.RandomSeed)
	pool := api.NewSessionPool(cfg.Engine.PoolSize, func() *engine.Engine {
		opts := []engine.Option{
			engine.WithLogger(log.With().Str("component", "engine").Logger()),
			engine.WithRemoteTimeout(cfg.Evaluator.RemoteTimeout),
			engine.WithMistakeThreshold(engine.Score(cfg.Engine.MistakeThreshold)),
		}
		if cfg.Engine.RandomSeed != 0 {
			opts = append(opts, engine.WithSeed(seed.Add(1)))
		}
		if remote != nil {
			opts = append(opts,
				engine.WithRemote(remote, cfg.Engine.DelegateAdvanced),
				engine.WithAnalysisEvaluator(remote))
		} else {
			opts = append(opts, engine.WithAnalysisEvaluator(engine.LocalEvaluator{Depth: cfg.Engine.AnalysisDepth}))
		}
		return engine.New(opts...)
	})

	srv := api.NewServer(pool, sink, log)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Router(),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("evaluator", cfg.Evaluator.Kind).
		Int("engines", cfg.Engine.PoolSize).
		Msg("listening")
	select {
	case <-sigCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			log.Error().Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = server.Close()
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Sink, error) {
	if cfg.DatabaseURL == "" {
		log.Info().Msg("no DATABASE_URL, keeping games in memory")
		return store.NewMemory(), nil
	}
	pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("connected to postgres")
	return pg, nil
}

// openEvaluator returns the configured remote evaluator, or nil for the
// built-in search.
func openEvaluator(cfg *config.Config, log zerolog.Logger) (engine.LineEvaluator, func(), error) {
	noop := func() {}
	switch cfg.Evaluator.Kind {
	case config.EvaluatorLichess:
		l := cloudeval.NewLichess(cfg.Evaluator.LichessURL,
			cloudeval.WithRateLimit(cfg.Evaluator.LichessRate, 1),
			cloudeval.WithLichessLogger(log.With().Str("component", "lichess").Logger()))
		// lichess only knows positions someone has analysed
		local := engine.LocalEvaluator{Depth: cfg.Engine.AnalysisDepth}
		return cloudeval.Chain{Primary: l, Fallback: local}, noop, nil
	case config.EvaluatorUCI:
		u, err := cloudeval.NewUCI(cfg.Evaluator.UCIPath,
			cloudeval.WithUCILogger(log.With().Str("component", "uci").Logger()))
		if err != nil {
			return nil, noop, err
		}
		return u, func() { _ = u.Close() }, nil
	}
	return nil, noop, nil
}
