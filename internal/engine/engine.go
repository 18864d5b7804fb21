// Package engine implements the search: tapered evaluation, a shared
// transposition table, iterative deepening with aspiration windows and
// lazy-SMP workers, plus opening book probing and time management.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessmind/internal/board"
	"github.com/hailam/chessmind/internal/book"
)

var (
	// ErrIllegalMove reports a move that is not legal in the position.
	ErrIllegalMove = errors.New("illegal move")
	// ErrNoLegalMoves reports a search request on a finished game.
	ErrNoLegalMoves = errors.New("no legal moves")
)

// Limits bounds a search. Zero values mean unbounded.
type Limits struct {
	Time      [2]time.Duration // remaining clock per color
	Inc       [2]time.Duration // increment per color
	MovesToGo int
	MoveTime  time.Duration
	Depth     int
	Nodes     uint64
	Infinite  bool
}

// Info reports progress after each completed iteration.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	NPS      uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int
}

// Result is the outcome of a search.
type Result struct {
	Move  board.Move
	Score int
	Depth int
	Nodes uint64
	Time  time.Duration
	PV    []board.Move
	Book  bool
}

// Options configures a new Engine.
type Options struct {
	HashMB       int
	Threads      int
	BookPath     string
	OwnBook      bool
	MoveOverhead time.Duration
}

// Engine searches positions. One search runs at a time; concurrent BestMove
// calls are serialized. OnInfo, when set, receives a report after every
// completed depth.
type Engine struct {
	OnInfo func(Info)

	mu      sync.Mutex
	tt      *TranspositionTable
	tm      TimeManager
	stop    atomic.Bool
	threads int
	book    *book.Book
	ownBook bool
}

// NewEngine creates an engine. A book that fails to load is logged and
// skipped, the engine plays on without it.
func NewEngine(opts Options) *Engine {
	if opts.HashMB <= 0 {
		opts.HashMB = 64
	}
	e := &Engine{
		tt:      NewTranspositionTable(opts.HashMB),
		threads: clampThreads(opts.Threads),
		ownBook: opts.OwnBook,
	}
	e.tm.SetOverhead(opts.MoveOverhead)
	if opts.BookPath != "" {
		if err := e.LoadBook(opts.BookPath); err != nil {
			log.Printf("opening book %s: %v", opts.BookPath, err)
		}
	}
	return e
}

func clampThreads(n int) int {
	if n <= 0 {
		n = 1
	}
	if max := runtime.NumCPU(); n > max {
		n = max
	}
	return n
}

// SetThreads sets the number of search workers for subsequent searches.
func (e *Engine) SetThreads(n int) {
	e.mu.Lock()
	e.threads = clampThreads(n)
	e.mu.Unlock()
}

// ResizeHash replaces the transposition table with one of the given size.
func (e *Engine) ResizeHash(sizeMB int) {
	if sizeMB <= 0 {
		sizeMB = 64
	}
	e.mu.Lock()
	e.tt = NewTranspositionTable(sizeMB)
	e.mu.Unlock()
}

// SetMoveOverhead adjusts the latency allowance of the clock.
func (e *Engine) SetMoveOverhead(d time.Duration) {
	e.mu.Lock()
	e.tm.SetOverhead(d)
	e.mu.Unlock()
}

// LoadBook replaces the opening book.
func (e *Engine) LoadBook(path string) error {
	b, err := book.LoadPolyglot(path)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.book = b
	e.mu.Unlock()
	return nil
}

// SetOwnBook toggles book probing.
func (e *Engine) SetOwnBook(on bool) {
	e.mu.Lock()
	e.ownBook = on
	e.mu.Unlock()
}

// Stop aborts the running search, which then returns the best move found so
// far.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Clear wipes the transposition table, for a fresh game.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.tt.Clear()
	e.mu.Unlock()
}

// BestMove searches pos within limits and returns the move to play. history
// holds the Zobrist keys of the earlier game positions, oldest first, so
// repetitions across the game boundary are seen. The book is consulted
// first. A search cut short before depth one completes still returns a legal
// move. On a finished game it returns ErrNoLegalMoves.
func (e *Engine) BestMove(ctx context.Context, pos *board.Position, history []uint64, limits Limits) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	root := pos.Copy()
	var ml board.MoveList
	root.GenerateLegalMoves(&ml)
	if ml.Len() == 0 {
		return Result{}, ErrNoLegalMoves
	}

	e.stop.Store(false)
	e.tm.Start(limits, root.SideToMove)
	e.tt.NewSearch()

	if e.ownBook && e.book != nil && !limits.Infinite {
		if m, ok := e.book.Probe(root); ok {
			return Result{Move: m, Book: true, Time: e.tm.Elapsed()}, nil
		}
	}
	if ml.Len() == 1 && e.tm.Limited() {
		return Result{Move: ml.Get(0), Depth: 1, PV: []board.Move{ml.Get(0)}, Time: e.tm.Elapsed()}, nil
	}

	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth >= MaxPly {
		maxDepth = MaxPly - 1
	}

	main := newSearcher(0, root, history, e.tt, &e.stop, &e.tm)
	searchers := []*searcher{main}
	var g errgroup.Group
	for i := 1; i < e.threads; i++ {
		h := newSearcher(i, root, history, e.tt, &e.stop, &e.tm)
		searchers = append(searchers, h)
		g.Go(func() error {
			h.iterate(maxDepth)
			return nil
		})
	}

	totalNodes := func() uint64 {
		var n uint64
		for _, s := range searchers {
			n += s.nodes.Load()
		}
		return n
	}

	watchDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.stop.Store(true)
				return
			case <-watchDone:
				return
			case <-ticker.C:
				if limits.Nodes > 0 && totalNodes() >= limits.Nodes {
					e.stop.Store(true)
					return
				}
			}
		}
	}()

	res := Result{Move: ml.Get(0)}
	prevScore := 0
	for depth := 1; depth <= maxDepth; depth++ {
		iterStart := time.Now()
		score, aborted := main.searchDepth(depth, prevScore)
		if aborted {
			break
		}

		moveChanged := false
		if line := main.pv.Line(); len(line) > 0 {
			moveChanged = res.Depth > 0 && line[0] != res.Move
			res.Move = line[0]
			res.PV = append(res.PV[:0], line...)
		}
		res.Score = score
		res.Depth = depth

		if e.OnInfo != nil {
			elapsed := e.tm.Elapsed()
			nodes := totalNodes()
			info := Info{
				Depth:    depth,
				SelDepth: main.seldepth,
				Score:    score,
				Nodes:    nodes,
				Time:     elapsed,
				PV:       res.PV,
				HashFull: e.tt.HashFull(),
			}
			if elapsed > 0 {
				info.NPS = nodes * uint64(time.Second) / uint64(elapsed)
			}
			e.OnInfo(info)
		}

		// An unstable root, a sharp drop or a new best move, means the
		// previous choice just got refuted. Buy time to settle before
		// committing.
		if depth > 3 && (prevScore-score >= panicDropMargin || moveChanged) {
			e.tm.AddPanicTime()
		}
		prevScore = score

		if e.tm.SoftExpired() {
			break
		}
		// The next iteration costs more than the last one did. Starting
		// it with less than that on the clock just burns time.
		if time.Since(iterStart) > e.tm.SoftRemaining() {
			break
		}
		if limits.Nodes > 0 && totalNodes() >= limits.Nodes {
			break
		}
	}

	e.stop.Store(true)
	close(watchDone)
	_ = g.Wait()

	res.Nodes = totalNodes()
	res.Time = e.tm.Elapsed()
	return res, nil
}

// LegalMoves lists the legal moves in pos.
func LegalMoves(pos *board.Position) []board.Move {
	var ml board.MoveList
	pos.GenerateLegalMoves(&ml)
	return ml.Slice()
}

// ApplyMove plays a coordinate-notation move on pos if it is legal.
func ApplyMove(pos *board.Position, coord string) (board.Move, error) {
	m, ok := pos.MoveFromCoord(coord)
	if !ok {
		return board.NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, coord)
	}
	pos.MakeMove(m)
	return m, nil
}

// ScoreToString formats a score the way UCI wants it, centipawns or moves to
// mate.
func ScoreToString(score int) string {
	if IsMateScore(score) {
		return fmt.Sprintf("mate %d", MateIn(score))
	}
	return fmt.Sprintf("cp %d", score)
}
