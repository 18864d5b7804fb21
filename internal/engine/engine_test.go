package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hailam/chessmind/internal/board"
)

const kiwipeteFEN = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func newTestEngine() *Engine {
	return NewEngine(Options{HashMB: 16, Threads: 1})
}

func TestSearchFindsMateInOne(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/4R2K w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	res, err := newTestEngine().BestMove(context.Background(), pos, nil, Limits{Depth: 4})
	if err != nil {
		t.Fatal(err)
	}
	if res.Move.String() != "e1e8" {
		t.Errorf("best move = %s, want e1e8", res.Move)
	}
	if res.Score != MateScore-1 {
		t.Errorf("score = %d, want %d", res.Score, MateScore-1)
	}
	if MateIn(res.Score) != 1 {
		t.Errorf("MateIn(%d) = %d, want 1", res.Score, MateIn(res.Score))
	}
}

func TestSearchFindsMateInTwo(t *testing.T) {
	// Rook ladder: 1.Ra7 Kg8 2.Rb8#.
	pos, err := board.ParseFEN("7k/8/8/8/8/8/R7/1R5K w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	res, err := newTestEngine().BestMove(context.Background(), pos, nil, Limits{Depth: 6})
	if err != nil {
		t.Fatal(err)
	}
	if !IsMateScore(res.Score) {
		t.Fatalf("score = %d, want a mate score", res.Score)
	}
	if MateIn(res.Score) != 2 {
		t.Errorf("MateIn(%d) = %d, want 2", res.Score, MateIn(res.Score))
	}
	t.Logf("mate line: %v", res.PV)
}

func TestBestMoveOnFinishedGame(t *testing.T) {
	cases := []struct {
		name string
		fen  string
	}{
		{"checkmate", "7k/5KQ1/8/8/8/8/8/8 b - - 0 1"},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := board.ParseFEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			_, err = newTestEngine().BestMove(context.Background(), pos, nil, Limits{Depth: 2})
			if !errors.Is(err, ErrNoLegalMoves) {
				t.Errorf("err = %v, want ErrNoLegalMoves", err)
			}
		})
	}
}

func TestBestMoveSingleReply(t *testing.T) {
	// The only legal move is bxa3: the king is boxed in and every other
	// pawn is blocked. The search must answer without burning the clock.
	pos, err := board.ParseFEN("k5r1/8/8/8/8/pp5p/1P5P/7K w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	res, err := newTestEngine().BestMove(context.Background(), pos, nil, Limits{MoveTime: 2 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if res.Move.String() != "b2a3" {
		t.Errorf("best move = %s, want b2a3", res.Move)
	}
	if res.Depth != 1 {
		t.Errorf("depth = %d, want the single-reply shortcut", res.Depth)
	}
}

func TestBestMoveContextCancel(t *testing.T) {
	pos, err := board.ParseFEN(kiwipeteFEN)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res, err := newTestEngine().BestMove(ctx, pos, nil, Limits{Infinite: true})
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("search ran %v after cancellation", elapsed)
	}
	if res.Move == board.NoMove {
		t.Error("cancelled search must still produce a legal move")
	}
}

func TestBestMoveRespectsMoveTime(t *testing.T) {
	pos, err := board.ParseFEN(kiwipeteFEN)
	if err != nil {
		t.Fatal(err)
	}

	res, err := newTestEngine().BestMove(context.Background(), pos, nil, Limits{MoveTime: 200 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if res.Time > time.Second {
		t.Errorf("search took %v against a 200ms budget", res.Time)
	}
	if res.Move == board.NoMove {
		t.Error("no move produced")
	}
	t.Logf("depth %d in %v, %d nodes", res.Depth, res.Time, res.Nodes)
}

func TestBestMoveNodeLimit(t *testing.T) {
	pos, err := board.ParseFEN(kiwipeteFEN)
	if err != nil {
		t.Fatal(err)
	}

	res, err := newTestEngine().BestMove(context.Background(), pos, nil, Limits{Nodes: 5000})
	if err != nil {
		t.Fatal(err)
	}
	if res.Nodes == 0 {
		t.Error("no nodes searched")
	}
	// The limit is polled, so allow overshoot but not a runaway.
	if res.Nodes > 500000 {
		t.Errorf("searched %d nodes against a 5000 node limit", res.Nodes)
	}
}

func TestSearchScoresRepetitionAsDraw(t *testing.T) {
	pos, err := board.ParseFEN("k7/8/8/8/8/8/8/K6R w - - 8 20")
	if err != nil {
		t.Fatal(err)
	}

	var stop atomic.Bool
	var tm TimeManager

	// The current hash two plies back in the history marks a repetition.
	s := newSearcher(0, pos, []uint64{pos.Hash, 0xDEAD}, NewTranspositionTable(1), &stop, &tm)
	if got := s.negamax(3, 1, -Infinity, Infinity, true, true, board.NoMove); got != 0 {
		t.Errorf("repeated position scored %d, want 0", got)
	}

	fresh := newSearcher(0, pos, nil, NewTranspositionTable(1), &stop, &tm)
	if got := fresh.negamax(3, 1, -Infinity, Infinity, true, true, board.NoMove); got < 200 {
		t.Errorf("fresh position scored %d, want a rook-sized advantage", got)
	}
}

func TestSearchReportsProgress(t *testing.T) {
	pos, err := board.ParseFEN(kiwipeteFEN)
	if err != nil {
		t.Fatal(err)
	}

	e := newTestEngine()
	var depths []int
	e.OnInfo = func(info Info) {
		depths = append(depths, info.Depth)
		if info.Nodes == 0 {
			t.Error("info with zero nodes")
		}
		if len(info.PV) == 0 {
			t.Error("info with empty pv")
		}
	}

	res, err := e.BestMove(context.Background(), pos, nil, Limits{Depth: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(depths) == 0 {
		t.Fatal("no info callbacks")
	}
	for i := 1; i < len(depths); i++ {
		if depths[i] <= depths[i-1] {
			t.Errorf("depths not increasing: %v", depths)
		}
	}
	if depths[len(depths)-1] != res.Depth {
		t.Errorf("last reported depth %d, result depth %d", depths[len(depths)-1], res.Depth)
	}
}

func TestEngineSurvivesBadBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.bin")
	if err := os.WriteFile(path, []byte("short"), 0644); err != nil {
		t.Fatal(err)
	}

	// A book that fails to load is logged and skipped; the search runs.
	eng := NewEngine(Options{HashMB: 16, BookPath: path, OwnBook: true})
	res, err := eng.BestMove(context.Background(), board.NewPosition(), nil, Limits{Depth: 2})
	if err != nil {
		t.Fatalf("BestMove: %v", err)
	}
	if res.Book {
		t.Error("move flagged as book move with no loadable book")
	}
	if res.Move == board.NoMove {
		t.Error("no move returned")
	}

	if err := eng.LoadBook(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("LoadBook on a missing file returned nil")
	}
}

func TestApplyMove(t *testing.T) {
	pos := board.NewPosition()

	m, err := ApplyMove(pos, "e2e4")
	if err != nil {
		t.Fatal(err)
	}
	if m.String() != "e2e4" {
		t.Errorf("applied %s, want e2e4", m)
	}
	if pos.SideToMove != board.Black {
		t.Error("side to move did not flip")
	}

	if _, err := ApplyMove(pos, "e7e4"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("err = %v, want ErrIllegalMove", err)
	}
}

func TestLegalMovesCount(t *testing.T) {
	if n := len(LegalMoves(board.NewPosition())); n != 20 {
		t.Errorf("start position has %d moves, want 20", n)
	}
}

func TestScoreToString(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{35, "cp 35"},
		{-120, "cp -120"},
		{MateScore - 1, "mate 1"},
		{MateScore - 3, "mate 2"},
		{-(MateScore - 4), "mate -2"},
	}
	for _, tc := range cases {
		if got := ScoreToString(tc.score); got != tc.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
