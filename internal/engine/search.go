package engine

import (
	"sync/atomic"

	"github.com/hailam/chessmind/internal/board"
)

// Search bounds. Mate scores are encoded as MateScore minus the distance in
// plies, so anything beyond MateScore-MaxPly is a forced mate.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Pruning and reduction tuning.
const (
	aspirationWindow      = 30
	aspirationMinDepth    = 5
	panicDropMargin       = 30
	reverseFutilityMargin = 80
	nullMoveReduction     = 2
	deltaMargin           = 200
)

// futilityMargins is indexed by remaining depth. Quiet moves at a node whose
// static eval sits this far below alpha are skipped after the first move.
var futilityMargins = [...]int{0, 100, 160, 220, 280, 340}

// IsMateScore reports whether score encodes a forced mate.
func IsMateScore(score int) bool {
	if score < 0 {
		score = -score
	}
	return score > MateScore-MaxPly
}

// MateIn converts a mate score into full moves until mate, negative when the
// side to move is being mated.
func MateIn(score int) int {
	if score > 0 {
		return (MateScore - score + 1) / 2
	}
	return -(MateScore + score + 1) / 2
}

// pvTable holds the principal variation triangularly, one line per ply.
type pvTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

func (pv *pvTable) truncate(ply int) {
	pv.length[ply] = ply
}

// set records m as the best move at ply and pulls up the child line.
func (pv *pvTable) set(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	child := pv.length[ply+1]
	copy(pv.moves[ply][ply+1:child], pv.moves[ply+1][ply+1:child])
	pv.length[ply] = child
}

// Line returns the variation found from the root.
func (pv *pvTable) Line() []board.Move {
	return pv.moves[0][:pv.length[0]]
}

// searcher carries the state of one search goroutine. Workers share the
// transposition table and the stop flag; everything else is private so the
// hot path takes no locks.
type searcher struct {
	id    int
	pos   *board.Position
	tt    *TranspositionTable
	pawns *PawnTable
	stop  *atomic.Bool
	tm    *TimeManager

	ord      orderer
	pv       pvTable
	history  []uint64
	nodes    atomic.Uint64
	seldepth int
	aborted  bool
}

func newSearcher(id int, pos *board.Position, history []uint64, tt *TranspositionTable, stop *atomic.Bool, tm *TimeManager) *searcher {
	s := &searcher{
		id:    id,
		pos:   pos.Copy(),
		tt:    tt,
		pawns: NewPawnTable(defaultPawnTableMB),
		stop:  stop,
		tm:    tm,
	}
	s.history = append(make([]uint64, 0, len(history)+MaxPly+8), history...)
	return s
}

// stopped checks the shared stop flag on every node and the clock every 4096
// nodes. Once it fires the whole stack unwinds with meaningless scores, so
// callers must discard the iteration.
func (s *searcher) stopped() bool {
	if s.aborted {
		return true
	}
	if s.stop.Load() {
		s.aborted = true
		return true
	}
	if s.nodes.Load()&4095 == 0 && s.tm.HardExpired() {
		s.stop.Store(true)
		s.aborted = true
		return true
	}
	return false
}

// iterate runs plain iterative deepening. Helper workers use it; the main
// worker drives its own loop so it can report and manage time.
func (s *searcher) iterate(maxDepth int) {
	prev := 0
	for depth := 1; depth <= maxDepth; depth++ {
		score, aborted := s.searchDepth(depth, prev)
		if aborted {
			return
		}
		prev = score
	}
}

// searchDepth searches the root to the given depth inside an aspiration
// window around the previous score, widening the failed bound to infinity
// and repeating until the score fits.
func (s *searcher) searchDepth(depth, prevScore int) (int, bool) {
	s.seldepth = 0
	alpha, beta := -Infinity, Infinity
	if depth >= aspirationMinDepth {
		alpha, beta = prevScore-aspirationWindow, prevScore+aspirationWindow
	}
	for {
		score := s.negamax(depth, 0, alpha, beta, true, true, board.NoMove)
		if s.aborted {
			return 0, true
		}
		switch {
		case score <= alpha:
			alpha = -Infinity
		case score >= beta:
			beta = Infinity
		default:
			return score, false
		}
	}
}

func (s *searcher) negamax(depth, ply, alpha, beta int, isPV, canNull bool, prev board.Move) int {
	s.nodes.Add(1)
	if s.stopped() {
		return 0
	}
	s.pv.truncate(ply)
	if ply > s.seldepth {
		s.seldepth = ply
	}
	if ply >= MaxPly {
		return EvaluateWithPawnTable(s.pos, s.pawns)
	}

	inCheck := s.pos.InCheck()

	if ply > 0 && s.isDraw(inCheck) {
		return 0
	}

	// Being in check is too sharp to stand on a static eval.
	if inCheck {
		depth++
	}
	if depth <= 0 {
		return s.quiescence(ply, alpha, beta, prev)
	}

	ttMove := board.NoMove
	if entry, ok := s.tt.Probe(s.pos.Hash); ok {
		ttMove = entry.Move
		if !isPV && int(entry.Depth) >= depth {
			score := scoreFromTT(int(entry.Score), ply)
			switch entry.Bound {
			case BoundExact:
				return score
			case BoundLower:
				if score > alpha {
					alpha = score
				}
			case BoundUpper:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	futile := false
	if !isPV && !inCheck {
		staticEval := EvaluateWithPawnTable(s.pos, s.pawns)

		if !IsMateScore(beta) && staticEval-reverseFutilityMargin*depth > beta {
			return staticEval - reverseFutilityMargin*depth
		}

		if canNull && depth >= 3 && staticEval >= beta && s.pos.HasNonPawnMaterial() {
			hash := s.pos.Hash
			u := s.pos.MakeNullMove()
			s.pushHash(hash)
			score := -s.negamax(depth-1-nullMoveReduction, ply+1, -beta, -beta+1, false, false, board.NoMove)
			s.popHash()
			s.pos.UnmakeNullMove(u)
			if s.aborted {
				return 0
			}
			if score >= beta {
				if IsMateScore(score) {
					return beta
				}
				return score
			}
			// Doing nothing gets us mated: something is hanging, look
			// one ply deeper.
			if score <= -(MateScore - MaxPly) {
				depth++
			}
		}

		if depth < len(futilityMargins) && !IsMateScore(alpha) &&
			staticEval+futilityMargins[depth] <= alpha {
			futile = true
		}
	}

	var ml board.MoveList
	s.pos.GenerateLegalMoves(&ml)
	if ml.Len() == 0 {
		if inCheck {
			return ply - MateScore
		}
		return 0
	}

	scores := s.ord.scoreMoves(s.pos, &ml, ply, ttMove, prev)

	var quietsBuf [64]board.Move
	quiets := quietsBuf[:0]

	origAlpha := alpha
	bestScore := -Infinity
	bestMove := board.NoMove
	analyzed := 0

	for i := 0; i < ml.Len(); i++ {
		pickMove(&ml, scores, i)
		m := ml.Get(i)

		isPawnMove := s.pos.PieceAt(m.From()).Type() == board.Pawn
		isKiller := s.ord.isKiller(m, ply)

		hash := s.pos.Hash
		u := s.pos.MakeMove(m)
		s.pushHash(hash)

		givesCheck := s.pos.InCheck()
		tactical := inCheck || givesCheck || m.IsCapture() || m.IsPromotion() || isPawnMove || isKiller

		if futile && analyzed > 0 && !tactical {
			s.popHash()
			s.pos.UnmakeMove(m, u)
			continue
		}

		var score int
		if analyzed == 0 {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha, isPV, true, m)
		} else {
			// Late quiet moves start reduced and only get the full
			// window back if they surprise us.
			red := 0
			if !isPV && !tactical && depth >= 3 {
				red = 2 + (analyzed-1)/5
				if red > depth-2 {
					red = depth - 2
				}
			}
			score = -s.negamax(depth-1-red, ply+1, -alpha-1, -alpha, false, true, m)
			if score > alpha && red > 0 {
				score = -s.negamax(depth-1, ply+1, -alpha-1, -alpha, false, true, m)
			}
			if score > alpha && score < beta && isPV {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha, true, true, m)
			}
		}

		s.popHash()
		s.pos.UnmakeMove(m, u)
		if s.aborted {
			return 0
		}
		analyzed++

		if m.IsQuiet() && len(quiets) < cap(quiets) {
			quiets = append(quiets, m)
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if score > alpha {
				alpha = score
				if isPV {
					s.pv.set(ply, m)
				}
				if alpha >= beta {
					if m.IsQuiet() {
						s.ord.updateQuietStats(s.pos.SideToMove, m, quiets, depth, ply)
					}
					break
				}
			}
		}
	}

	var bound Bound
	switch {
	case bestScore >= beta:
		bound = BoundLower
	case bestScore <= origAlpha:
		bound = BoundUpper
	default:
		bound = BoundExact
	}
	s.tt.Store(s.pos.Hash, bestMove, scoreToTT(bestScore, ply), depth, bound)

	return bestScore
}

// quiescence resolves captures and promotions until the position is quiet
// enough for the static eval to be trusted.
func (s *searcher) quiescence(ply, alpha, beta int, prev board.Move) int {
	s.nodes.Add(1)
	if s.stopped() {
		return 0
	}
	s.pv.truncate(ply)
	if ply > s.seldepth {
		s.seldepth = ply
	}

	standPat := EvaluateWithPawnTable(s.pos, s.pawns)
	if ply >= MaxPly {
		return standPat
	}
	if standPat >= beta {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}
	// Even a clean queen grab cannot lift this back to alpha.
	if standPat+QueenValue < alpha {
		return standPat
	}

	inCheck := s.pos.InCheck()

	var ml board.MoveList
	s.pos.GenerateNoisy(&ml)
	pinned := s.pos.ComputePinned()
	scores := s.ord.scoreMoves(s.pos, &ml, ply, board.NoMove, prev)

	best := standPat
	for i := 0; i < ml.Len(); i++ {
		pickMove(&ml, scores, i)
		m := ml.Get(i)

		// Delta pruning: skip captures whose material gain cannot
		// reach alpha even with a margin on top.
		if !inCheck {
			gain := pieceValues[s.pos.PieceAt(m.To()).Type()]
			if m.IsEnPassant() {
				gain = PawnValue
			}
			if m.IsPromotion() {
				gain += QueenValue - PawnValue
			}
			if standPat+gain+deltaMargin < alpha {
				continue
			}
		}
		if !s.pos.IsLegal(m, pinned) {
			continue
		}

		u := s.pos.MakeMove(m)
		score := -s.quiescence(ply+1, -beta, -alpha, m)
		s.pos.UnmakeMove(m, u)
		if s.aborted {
			return 0
		}

		if score > best {
			best = score
			if score > alpha {
				alpha = score
				if alpha >= beta {
					break
				}
			}
		}
	}
	return best
}

// isDraw covers repetition, the fifty-move rule and dead material. A single
// earlier occurrence already counts as a draw inside the search: if the
// opponent can force it back once, the third time is free.
func (s *searcher) isDraw(inCheck bool) bool {
	if s.pos.InsufficientMaterial() {
		return true
	}
	// Mate on the hundredth half-move outranks the counter.
	if s.pos.FiftyMoveDraw() && !inCheck {
		return true
	}
	return s.pos.Repetitions(s.history) >= 1
}

func (s *searcher) pushHash(h uint64) {
	s.history = append(s.history, h)
}

func (s *searcher) popHash() {
	s.history = s.history[:len(s.history)-1]
}
