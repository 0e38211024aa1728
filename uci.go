package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/XapioBroke/aichessbot/config"
	"github.com/XapioBroke/aichessbot/engine"
	"github.com/XapioBroke/aichessbot/position"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	// logs go to stderr; stdout carries the protocol
	log := config.NewLogger(cfg.Logs)
	opts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMistakeThreshold(engine.Score(cfg.Engine.MistakeThreshold)),
		engine.WithAnalysisEvaluator(engine.LocalEvaluator{Depth: cfg.Engine.AnalysisDepth}),
	}
	if cfg.Engine.RandomSeed != 0 {
		opts = append(opts, engine.WithSeed(cfg.Engine.RandomSeed))
	}
	u := newUCI(os.Stdout, engine.New(opts...))
	u.loop(os.Stdin)
}

// uciSession holds the state of one protocol conversation: the current
// position, the moves that led to it from the initial position, and the
// difficulty used when "go" carries no depth.
type uciSession struct {
	out        io.Writer
	eng        *engine.Engine
	pos        *position.Position
	history    []string
	fromStart  bool
	difficulty engine.Difficulty
}

func newUCI(out io.Writer, eng *engine.Engine) *uciSession {
	return &uciSession{
		out:        out,
		eng:        eng,
		pos:        position.New(),
		fromStart:  true,
		difficulty: engine.Advanced,
	}
}

func (u *uciSession) println(args ...any) {
	fmt.Fprintln(u.out, args...)
}

// loop reads commands until quit or end of input.
func (u *uciSession) loop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 { // ignore blank lines
			continue
		}
		if !u.handle(tokens) {
			return
		}
	}
}

// handle runs one command and reports whether the loop should continue.
func (u *uciSession) handle(tokens []string) bool {
	switch strings.ToLower(tokens[0]) {
	case "uci":
		u.println("id name aichessbot")
		u.println("id author aichessbot")
		u.println("option name Difficulty type combo default advanced var novice var intermediate var advanced")
		u.println("uciok")
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.pos, u.history, u.fromStart = position.New(), nil, true
	case "quit":
		return false
	case "stop":
		// searches are synchronous and fixed-depth
	case "position":
		u.position(tokens[1:])
	case "go":
		u.goCommand(tokens[1:])
	case "setoption":
		u.setOption(tokens[1:])
	case "threats":
		u.threats(tokens[1:])
	case "eval":
		u.println("info string eval", engine.Evaluate(u.pos).String())
	case "analyze":
		u.analyze(tokens[1:])
	case "d":
		u.println("info string fen", u.pos.FEN())
	default:
		u.println("info string Unknown command:", strings.Join(tokens, " "))
	}
	return true
}

// position handles "startpos|fen <fen> [moves ...]". A bad FEN or move leaves
// the previous position in place.
func (u *uciSession) position(args []string) {
	if len(args) == 0 {
		u.println("info string Malformed position command")
		return
	}
	var (
		p         *position.Position
		fromStart bool
		rest      []string
	)
	switch strings.ToLower(args[0]) {
	case "startpos":
		p, fromStart, rest = position.New(), true, args[1:]
	case "fen":
		end := len(args)
		for i, tok := range args[1:] {
			if strings.ToLower(tok) == "moves" {
				end = i + 1
				break
			}
		}
		var err error
		p, err = position.ParseFEN(strings.Join(args[1:end], " "))
		if err != nil {
			u.println("info string Invalid fen position:", err)
			return
		}
		rest = args[end:]
	default:
		u.println("info string Invalid position subcommand")
		return
	}

	var history []string
	if len(rest) > 0 && strings.ToLower(rest[0]) == "moves" {
		for _, text := range rest[1:] {
			m, err := p.ParseMove(text)
			if err != nil {
				u.println("info string Move", text, "not found for position", p.FEN())
				return
			}
			p.MakeMove(m)
			history = append(history, m.String())
		}
	}
	u.pos, u.history, u.fromStart = p, history, fromStart
}

// goCommand searches to "depth N" when given, otherwise lets the move
// selector choose at the session difficulty.
func (u *uciSession) goCommand(args []string) {
	depth := 0
	for i := 0; i < len(args); i++ {
		switch strings.ToLower(args[i]) {
		case "depth":
			if i+1 >= len(args) {
				u.println("info string Malformed go command option depth")
				return
			}
			v, err := strconv.Atoi(args[i+1])
			if err != nil || v < 1 {
				u.println("info string Malformed go command option; could not convert depth")
				return
			}
			depth = v
			i++
		case "wtime", "btime", "winc", "binc", "movestogo", "movetime", "nodes":
			i++ // time controls do not apply to fixed-depth play
		case "infinite":
		default:
			u.println("info string Unknown go subcommand", args[i])
		}
	}

	if u.pos.IsTerminal() {
		u.println("bestmove 0000")
		return
	}
	if depth > 0 {
		line, err := engine.LocalEvaluator{Depth: depth}.EvaluateFEN(context.Background(), u.pos.FEN())
		if err != nil {
			u.println("info string", err)
			u.println("bestmove 0000")
			return
		}
		if s, ok := line.Score(); ok {
			u.println(fmt.Sprintf("info depth %d score %s", depth, u.moverScore(s)))
		}
		u.println("bestmove", line.BestMove)
		return
	}

	m, err := u.eng.SelectMove(context.Background(), u.pos, nil, u.difficulty)
	if err != nil {
		u.println("info string", err)
		u.println("bestmove 0000")
		return
	}
	st := u.eng.LastStats()
	u.println(fmt.Sprintf("info string %s nodes %d", u.difficulty, st.Nodes))
	u.println("bestmove", m)
}

// moverScore converts a White-positive score to the side-to-move view UCI
// info lines use.
func (u *uciSession) moverScore(s engine.Score) engine.Score {
	if u.pos.SideToMove() == position.Black {
		return -s
	}
	return s
}

// setOption handles "name <name> value <value>".
func (u *uciSession) setOption(args []string) {
	var name, value []string
	target := &name
	for _, tok := range args {
		switch strings.ToLower(tok) {
		case "name":
			target = &name
			continue
		case "value":
			target = &value
			continue
		}
		*target = append(*target, tok)
	}
	switch strings.ToLower(strings.Join(name, " ")) {
	case "difficulty":
		d, err := engine.ParseDifficulty(strings.Join(value, " "))
		if err != nil {
			u.println("info string", err)
			return
		}
		u.difficulty = d
	default:
		u.println("info string Unknown option", strings.Join(name, " "))
	}
}

// threats prints one line per attacker threatening the given side, the side
// to move by default.
func (u *uciSession) threats(args []string) {
	defending := u.pos.SideToMove()
	if len(args) > 0 {
		c, err := position.ParseColor(args[0])
		if err != nil {
			u.println("info string", err)
			return
		}
		defending = c
	}
	threats := engine.DetectThreats(u.pos, defending)
	for _, t := range threats {
		targets := make([]string, len(t.Targets))
		for i, sq := range t.Targets {
			targets[i] = sq.String()
		}
		u.println("info string threat", t.From, t.Attacker.Type, strings.Join(targets, " "))
	}
	u.println("info string threats", len(threats))
}

// analyze reviews the moves given with the last "position startpos" for the
// given human color, white by default.
func (u *uciSession) analyze(args []string) {
	if !u.fromStart {
		u.println("info string analyze needs a position set from startpos")
		return
	}
	human := position.White
	if len(args) > 0 {
		c, err := position.ParseColor(args[0])
		if err != nil {
			u.println("info string", err)
			return
		}
		human = c
	}
	report, err := u.eng.AnalyzeGame(context.Background(), u.history, human)
	for _, m := range report.Mistakes {
		u.println(fmt.Sprintf("info string %s %d %s loss %.2f better %s", m.Severity, m.MoveNumber, m.Notation, m.Loss, m.Better))
	}
	if err != nil {
		u.println("info string", err)
	}
	u.println("info string analyzed", report.Analyzed, "mistakes", len(report.Mistakes))
}
