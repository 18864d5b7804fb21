// Package uci speaks the Universal Chess Interface: it parses GUI commands
// from a reader, drives the engine, and prints responses to a writer.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/chessmind/internal/board"
	"github.com/hailam/chessmind/internal/engine"
)

// UCI is the protocol handler. One search runs at a time, on its own
// goroutine, so the loop stays responsive to "stop" and "isready".
type UCI struct {
	eng *engine.Engine
	out io.Writer

	pos     *board.Position
	history []uint64

	searchDone chan struct{}
}

// New wires a protocol handler to the engine. Search info lines are
// forwarded to the writer as they arrive.
func New(eng *engine.Engine, out io.Writer) *UCI {
	u := &UCI{
		eng: eng,
		out: out,
		pos: board.NewPosition(),
	}
	eng.OnInfo = u.sendInfo
	return u
}

// Run reads commands until "quit" or EOF.
func (u *UCI) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Fprintln(u.out, "readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.stopSearch()
		case "quit":
			u.stopSearch()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands, not part of the protocol but every GUI-less
		// session wants them.
		case "d":
			fmt.Fprintln(u.out, u.pos.String())
		case "perft":
			u.handlePerft(args)
		}
	}
	return scanner.Err()
}

func (u *UCI) handleUCI() {
	fmt.Fprintln(u.out, "id name ChessMind")
	fmt.Fprintln(u.out, "id author the ChessMind developers")
	fmt.Fprintln(u.out)
	fmt.Fprintln(u.out, "option name Hash type spin default 64 min 1 max 4096")
	fmt.Fprintln(u.out, "option name Threads type spin default 1 min 1 max 256")
	fmt.Fprintln(u.out, "option name OwnBook type check default false")
	fmt.Fprintln(u.out, "option name BookFile type string default <empty>")
	fmt.Fprintln(u.out, "option name MoveOverhead type spin default 10 min 0 max 5000")
	fmt.Fprintln(u.out, "uciok")
}

func (u *UCI) handleNewGame() {
	u.stopSearch()
	u.eng.Clear()
	u.pos = board.NewPosition()
	u.history = u.history[:0]
}

// handlePosition sets up a position. Formats:
//   - position startpos [moves e2e4 e7e5 ...]
//   - position fen <fen> [moves e2e4 ...]
//
// The hash of every position before the final one is kept so the search
// can score repetitions against the actual game.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var pos *board.Position
	rest := args[1:]
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		fenEnd := len(args)
		for i, a := range args {
			if a == "moves" {
				fenEnd = i
				break
			}
		}
		p, err := board.ParseFEN(strings.Join(args[1:fenEnd], " "))
		if err != nil {
			fmt.Fprintf(u.out, "info string invalid fen: %v\n", err)
			return
		}
		pos = p
		rest = args[fenEnd:]
	default:
		return
	}

	history := u.history[:0]
	if len(rest) > 0 && rest[0] == "moves" {
		for _, s := range rest[1:] {
			m, ok := pos.MoveFromCoord(s)
			if !ok {
				fmt.Fprintf(u.out, "info string illegal move %q ignored\n", s)
				break
			}
			history = append(history, pos.Hash)
			pos.MakeMove(m)
		}
	}
	u.pos, u.history = pos, history
}

func (u *UCI) handleGo(args []string) {
	u.stopSearch()

	limits := parseGoLimits(args)
	pos := u.pos.Copy()
	history := append([]uint64(nil), u.history...)

	done := make(chan struct{})
	u.searchDone = done
	go func() {
		defer close(done)
		res, err := u.eng.BestMove(context.Background(), pos, history, limits)
		if err != nil {
			fmt.Fprintln(u.out, "bestmove 0000")
			return
		}
		fmt.Fprintf(u.out, "bestmove %s\n", res.Move)
	}()
}

func parseGoLimits(args []string) engine.Limits {
	var limits engine.Limits
	ms := func(s string) time.Duration {
		n, _ := strconv.Atoi(s)
		return time.Duration(n) * time.Millisecond
	}
	for i := 0; i < len(args); i++ {
		var val string
		if i+1 < len(args) {
			val = args[i+1]
		}
		switch args[i] {
		case "infinite":
			limits.Infinite = true
			continue
		case "depth":
			limits.Depth, _ = strconv.Atoi(val)
		case "nodes":
			limits.Nodes, _ = strconv.ParseUint(val, 10, 64)
		case "movetime":
			limits.MoveTime = ms(val)
		case "wtime":
			limits.Time[board.White] = ms(val)
		case "btime":
			limits.Time[board.Black] = ms(val)
		case "winc":
			limits.Inc[board.White] = ms(val)
		case "binc":
			limits.Inc[board.Black] = ms(val)
		case "movestogo":
			limits.MovesToGo, _ = strconv.Atoi(val)
		default:
			continue
		}
		i++
	}
	return limits
}

// stopSearch halts any running search and waits for its bestmove line.
// Harmless when the search already finished on its own.
func (u *UCI) stopSearch() {
	if u.searchDone != nil {
		u.eng.Stop()
		<-u.searchDone
		u.searchDone = nil
	}
}

func (u *UCI) handleSetOption(args []string) {
	// setoption name <name> value <value>, both possibly multi-word.
	var name, value string
	target := (*string)(nil)
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target == nil {
				continue
			}
			if *target != "" {
				*target += " "
			}
			*target += arg
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		if mb, err := strconv.Atoi(value); err == nil && mb > 0 {
			u.eng.ResizeHash(mb)
		}
	case "threads":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			u.eng.SetThreads(n)
		}
	case "ownbook":
		u.eng.SetOwnBook(strings.EqualFold(value, "true"))
	case "bookfile":
		if err := u.eng.LoadBook(value); err != nil {
			fmt.Fprintf(u.out, "info string opening book: %v\n", err)
		}
	case "moveoverhead":
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			u.eng.SetMoveOverhead(time.Duration(n) * time.Millisecond)
		}
	default:
		fmt.Fprintf(u.out, "info string unknown option %q\n", name)
	}
}

func (u *UCI) sendInfo(info engine.Info) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d seldepth %d score %s nodes %d nps %d time %d",
		info.Depth, info.SelDepth, engine.ScoreToString(info.Score),
		info.Nodes, info.NPS, info.Time.Milliseconds())
	if info.HashFull > 0 {
		fmt.Fprintf(&sb, " hashfull %d", info.HashFull)
	}
	if len(info.PV) > 0 {
		sb.WriteString(" pv")
		for _, m := range info.PV {
			sb.WriteByte(' ')
			sb.WriteString(m.String())
		}
	}
	fmt.Fprintln(u.out, sb.String())
}

func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			depth = n
		}
	}

	start := time.Now()
	entries, total := board.PerftDivide(u.pos, depth)
	elapsed := time.Since(start)

	for _, e := range entries {
		fmt.Fprintf(u.out, "%s: %d\n", e.Move, e.Nodes)
	}
	fmt.Fprintf(u.out, "\nNodes: %d\n", total)
	fmt.Fprintf(u.out, "Time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Fprintf(u.out, "NPS: %.0f\n", float64(total)/elapsed.Seconds())
	}
}
