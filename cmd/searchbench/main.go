package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/XapioBroke/aichessbot/config"
	"github.com/XapioBroke/aichessbot/engine"
	"github.com/XapioBroke/aichessbot/position"
)

func main() {
	depthFlag := flag.Int("depth", 4, "search depth in plies")
	repeatFlag := flag.Int("repeat", 1, "number of searches to run")
	fenFlag := flag.String("fen", position.StartFEN, "FEN to search")
	difficultyFlag := flag.String("difficulty", "advanced", "tier used for move selection")
	seedFlag := flag.Int64("seed", 1, "random seed for tie breaks")
	cpuProfile := flag.String("cpuprofile", "", "write CPU profile to file")
	memProfile := flag.String("memprofile", "", "write memory profile (heap) to file")
	flag.Parse()

	log := config.NewLogger(config.LogConfig{Level: "debug", Style: "console"})
	if *depthFlag <= 0 {
		log.Fatal().Int("depth", *depthFlag).Msg("depth must be positive")
	}
	d, err := engine.ParseDifficulty(*difficultyFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("bad difficulty")
	}
	p, err := position.ParseFEN(*fenFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("bad fen")
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
		}()
	}

	// Every tier searches at the requested depth so timings compare.
	tier := engine.DefaultTiers[d]
	tier.Depth = *depthFlag
	e := engine.New(
		engine.WithSeed(*seedFlag),
		engine.WithTier(d, tier),
		engine.WithLogger(log),
	)

	fmt.Printf("searchbench: fen=%q depth=%d difficulty=%s repeat=%d\n", p.FEN(), *depthFlag, d, *repeatFlag)

	startAll := time.Now()
	for i := 0; i < *repeatFlag; i++ {
		iterStart := time.Now()
		score := engine.Search(p, *depthFlag)
		searchElapsed := time.Since(iterStart)

		m, err := e.SelectMove(context.Background(), p, nil, d)
		if err != nil {
			log.Fatal().Err(err).Msg("select move")
		}
		st := e.LastStats()
		fmt.Printf("iteration %d: score %s search=%v bestmove %s nodes=%d cutoffs=%d time=%v\n",
			i+1, score, searchElapsed, m, st.Nodes, st.BetaCutoffs, time.Since(iterStart))
	}
	fmt.Printf("total time: %v\n", time.Since(startAll))

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create memory profile")
		}
		defer f.Close()

		runtime.GC() // get up-to-date heap info
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not write memory profile")
		}
	}
}
