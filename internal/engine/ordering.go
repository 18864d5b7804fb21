package engine

import (
	"github.com/hailam/chessmind/internal/board"
)

// Move ordering score bands, from best to worst: the table move, a recapture
// on the square the opponent just moved to, captures by MVV-LVA, killer
// moves, then quiet moves by history score.
const (
	scoreTTMove    = 1 << 30
	scoreRecapture = scoreTTMove - 1
	scoreCapture   = 1 << 24
	scoreKiller1   = scoreCapture - 1
	scoreKiller2   = scoreCapture - 2
	maxHistory     = scoreCapture / 2
)

// orderer holds per-searcher move ordering state. Killers are quiet moves
// that produced a beta cutoff at the same ply; history is a per-color
// from/to table of cutoff bonuses.
type orderer struct {
	killers [MaxPly + 2][2]board.Move
	history [2][64][64]int
}

func (o *orderer) clear() {
	for i := range o.killers {
		o.killers[i][0] = board.NoMove
		o.killers[i][1] = board.NoMove
	}
	for c := range o.history {
		for f := range o.history[c] {
			for t := range o.history[c][f] {
				o.history[c][f][t] /= 2
			}
		}
	}
}

func (o *orderer) isKiller(m board.Move, ply int) bool {
	return o.killers[ply][0] == m || o.killers[ply][1] == m
}

// scoreMoves rates every move in ml for lazy selection with pickMove.
func (o *orderer) scoreMoves(pos *board.Position, ml *board.MoveList, ply int, ttMove, prevMove board.Move) []int {
	scores := make([]int, ml.Len())
	for i := 0; i < ml.Len(); i++ {
		scores[i] = o.scoreMove(pos, ml.Get(i), ply, ttMove, prevMove)
	}
	return scores
}

func (o *orderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove, prevMove board.Move) int {
	if m == ttMove {
		return scoreTTMove
	}

	if m.IsCapture() {
		if prevMove != board.NoMove && m.To() == prevMove.To() {
			return scoreRecapture
		}
		victim := board.Pawn
		if !m.IsEnPassant() {
			victim = pos.PieceAt(m.To()).Type()
		}
		attacker := pos.PieceAt(m.From()).Type()
		s := scoreCapture + pieceValues[victim] - pieceValues[attacker]/10
		if m.IsPromotion() {
			s += pieceValues[m.Promotion()]
		}
		return s
	}

	if m.IsPromotion() {
		return scoreCapture + pieceValues[m.Promotion()] - PawnValue
	}

	if m == o.killers[ply][0] {
		return scoreKiller1
	}
	if m == o.killers[ply][1] {
		return scoreKiller2
	}
	return o.history[pos.SideToMove][m.From()][m.To()]
}

// pickMove swaps the best-scored remaining move into position i. Sorting
// lazily this way avoids paying for a full sort when an early cutoff ends
// the node after a move or two.
func pickMove(ml *board.MoveList, scores []int, i int) {
	best := i
	for j := i + 1; j < ml.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != i {
		ml.Swap(i, best)
		scores[i], scores[best] = scores[best], scores[i]
	}
}

// updateQuietStats rewards the quiet move that caused a cutoff and penalizes
// the quiet moves searched before it, so the same position type orders
// better next time.
func (o *orderer) updateQuietStats(c board.Color, best board.Move, quiets []board.Move, depth, ply int) {
	bonus := depth * depth

	o.addHistory(c, best, bonus)
	for _, m := range quiets {
		if m != best {
			o.addHistory(c, m, -bonus)
		}
	}

	if o.killers[ply][0] != best {
		o.killers[ply][1] = o.killers[ply][0]
		o.killers[ply][0] = best
	}
}

func (o *orderer) addHistory(c board.Color, m board.Move, bonus int) {
	v := o.history[c][m.From()][m.To()] + bonus
	o.history[c][m.From()][m.To()] = v
	if v > maxHistory || v < -maxHistory {
		for f := range o.history[c] {
			for t := range o.history[c][f] {
				o.history[c][f][t] /= 2
			}
		}
	}
}
