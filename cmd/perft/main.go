package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	goosemg "github.com/Oliverans/GooseEngineMG/goosemg"
	"github.com/XapioBroke/aichessbot/position"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func main() {
	fen := flag.String("fen", position.StartFEN, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	repeat := flag.Int("repeat", 1, "Repeat perft N times and report aggregate (for steadier timings)")
	label := flag.String("label", "", "Optional label prefix for one-line output")
	cpuProf := flag.String("cpuprofile", "", "Write CPU profile to file during run")
	memProf := flag.String("memprofile", "", "Write heap profile to file after run")
	check := flag.Bool("check", false, "Compare per-move counts against the goosemg move generator")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		os.Exit(2)
	}

	p, err := position.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParseFEN error: %v\n", err)
		os.Exit(2)
	}

	if *check {
		diffs, err := crossCheck(*fen, *depth)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cross-check: %v\n", err)
			os.Exit(2)
		}
		for _, d := range diffs {
			fmt.Println(d)
		}
		if len(diffs) > 0 {
			os.Exit(1)
		}
		fmt.Println("ok")
		return
	}

	if *divide {
		div := p.PerftDivide(*depth)
		moves := maps.Keys(div)
		slices.Sort(moves)
		var sum uint64
		for _, m := range moves {
			fmt.Printf("%s: %d\n", m, div[m])
			sum += div[m]
		}
		fmt.Printf("Total: %d\n", sum)
		return
	}

	if *cpuProf != "" {
		f, err := os.Create(*cpuProf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "creating cpuprofile: %v\n", err)
			os.Exit(2)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "start cpu profile: %v\n", err)
			os.Exit(2)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	var totalNodes uint64
	start := time.Now()
	for i := 0; i < *repeat; i++ {
		totalNodes += p.Perft(*depth)
	}
	elapsed := time.Since(start)
	nps := float64(totalNodes) / elapsed.Seconds()

	// Single line: Depth Nodes Time NPS
	fmt.Printf("%s \t%d \t\t%d \t\t%s \t%.0f\n", *label, *depth, totalNodes, elapsed, nps)

	if *memProf != "" {
		f, err := os.Create(*memProf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "creating memprofile: %v\n", err)
			os.Exit(2)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "write heap profile: %v\n", err)
			os.Exit(2)
		}
		_ = f.Close()
	}
}

// crossCheck runs perft divide on fen with both generators and lists every
// root move whose counts disagree, sorted by move.
func crossCheck(fen string, depth int) ([]string, error) {
	p, err := position.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	board, err := goosemg.ParseFEN(fen)
	if err != nil {
		return nil, fmt.Errorf("goosemg: %w", err)
	}
	ours := p.PerftDivide(depth)
	theirs := make(map[string]uint64)
	for m, n := range goosemg.PerftDivide(board, depth) {
		theirs[m.String()] = n
	}

	all := maps.Keys(ours)
	for m := range theirs {
		if _, ok := ours[m]; !ok {
			all = append(all, m)
		}
	}
	slices.Sort(all)
	var diffs []string
	for _, m := range all {
		a, okA := ours[m]
		b, okB := theirs[m]
		switch {
		case !okB:
			diffs = append(diffs, fmt.Sprintf("%s: %d, missing from goosemg", m, a))
		case !okA:
			diffs = append(diffs, fmt.Sprintf("%s: missing, goosemg %d", m, b))
		case a != b:
			diffs = append(diffs, fmt.Sprintf("%s: %d, goosemg %d", m, a, b))
		}
	}
	return diffs, nil
}
