package engine

import (
	"github.com/hailam/chessmind/internal/board"
)

// Piece values in centipawns.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Game phase runs from maxPhase (all pieces on the board) down to 0 (bare
// kings and pawns). Minor pieces count 1, rooks 2, queens 4.
const maxPhase = 24

var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

// Passed pawn bonus indexed by the pawn's relative rank.
var passedPawnBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

const (
	passedConnectedBonus = 20
	passedProtectedBonus = 15
	passedFreePathBonus  = 30
	passedUnstoppable    = 200
)

// Endgame bonus for keeping the enemy king away from a passed pawn,
// indexed by Chebyshev distance.
var kingDistanceBonus = [8]int{0, 0, 10, 20, 30, 40, 50, 60}

// Mobility weights per piece type (pawns and kings excluded).
var (
	mobilityMg = [6]int{0, 4, 5, 2, 1, 0}
	mobilityEg = [6]int{0, 3, 4, 4, 2, 0}
)

// King safety weights per attacker type.
var attackerWeight = [6]int{0, 20, 20, 40, 80, 0}

const (
	pawnShieldBonus      = 10
	pawnShieldMissing    = -15
	openFileNearKing     = -20
	semiOpenFileNearKing = -10
)

const (
	bishopPairMg = 20
	bishopPairEg = 60
)

const (
	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15
	rookOnSeventhMg    = 30
	rookOnSeventhEg    = 40
)

const (
	doubledPawnMg  = -15
	doubledPawnEg  = -20
	isolatedPawnMg = -20
	isolatedPawnEg = -25
)

const tempoBonus = 10

// Piece-square tables, written from White's perspective with rank 8 first.
// White pieces index them with sq.Flip(), black pieces with sq directly.

var pawnSquares = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightSquares = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopSquares = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookSquares = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenSquares = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingSquaresMid = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingSquaresEnd = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var pieceSquares = [5][64]int{
	pawnSquares, knightSquares, bishopSquares, rookSquares, queenSquares,
}

// Masks built once at startup.
var (
	adjacentFiles [8]board.Bitboard
	passedMask    [2][64]board.Bitboard
	frontSpan     [2][64]board.Bitboard
)

func init() {
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentFiles[f] |= board.FileMasks[f-1]
		}
		if f < 7 {
			adjacentFiles[f] |= board.FileMasks[f+1]
		}
	}
	for sq := board.A1; sq <= board.H8; sq++ {
		f, r := sq.File(), sq.Rank()
		span := board.FileMasks[f]
		wide := span | adjacentFiles[f]

		var ahead, behind board.Bitboard
		for rr := r + 1; rr < 8; rr++ {
			ahead |= board.RankMasks[rr]
		}
		for rr := 0; rr < r; rr++ {
			behind |= board.RankMasks[rr]
		}

		frontSpan[board.White][sq] = span & ahead
		frontSpan[board.Black][sq] = span & behind
		passedMask[board.White][sq] = wide & ahead
		passedMask[board.Black][sq] = wide & behind
	}
}

// Evaluate returns the static evaluation of the position in centipawns from
// the perspective of the side to move.
func Evaluate(pos *board.Position) int {
	return evaluate(pos, nil)
}

// EvaluateWithPawnTable is Evaluate with pawn structure scores cached in pt,
// keyed by the position's pawn hash.
func EvaluateWithPawnTable(pos *board.Position, pt *PawnTable) int {
	return evaluate(pos, pt)
}

func evaluate(pos *board.Position, pt *PawnTable) int {
	var mg, eg int

	m, e := materialAndSquares(pos)
	mg += m
	eg += e

	if pt != nil {
		if pm, pe, ok := pt.Probe(pos.PawnKey); ok {
			mg += pm
			eg += pe
		} else {
			pm, pe = pawnStructure(pos)
			pt.Store(pos.PawnKey, pm, pe)
			mg += pm
			eg += pe
		}
	} else {
		pm, pe := pawnStructure(pos)
		mg += pm
		eg += pe
	}

	m, e = passedPawnExtras(pos)
	mg += m
	eg += e

	m, e = mobility(pos)
	mg += m
	eg += e

	m, e = rooks(pos)
	mg += m
	eg += e

	mg += kingSafety(pos, board.White) - kingSafety(pos, board.Black)

	if pos.PieceBB(board.Bishop, board.White).PopCount() >= 2 {
		mg += bishopPairMg
		eg += bishopPairEg
	}
	if pos.PieceBB(board.Bishop, board.Black).PopCount() >= 2 {
		mg -= bishopPairMg
		eg -= bishopPairEg
	}

	phase := gamePhase(pos)
	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase

	if pos.SideToMove == board.Black {
		score = -score
	}
	return score + tempoBonus
}

// EvaluateMaterial returns a material-only score from the perspective of the
// side to move. Used as a cheap bound in quiescence.
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt <= board.Queen; pt++ {
		score += pieceValues[pt] * (pos.PieceBB(pt, board.White).PopCount() -
			pos.PieceBB(pt, board.Black).PopCount())
	}
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

func gamePhase(pos *board.Position) int {
	phase := 0
	for pt := board.Knight; pt <= board.Queen; pt++ {
		n := (pos.PieceBB(pt, board.White) | pos.PieceBB(pt, board.Black)).PopCount()
		phase += n * phaseWeight[pt]
	}
	if phase > maxPhase {
		phase = maxPhase
	}
	return phase
}

func materialAndSquares(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.PieceBB(pt, c)
			for bb != 0 {
				sq := bb.PopLSB()
				idx := sq
				if c == board.White {
					idx = sq.Flip()
				}
				if pt == board.King {
					mg += sign * kingSquaresMid[idx]
					eg += sign * kingSquaresEnd[idx]
					continue
				}
				v := pieceValues[pt] + pieceSquares[pt][idx]
				mg += sign * v
				eg += sign * v
			}
		}
	}
	return mg, eg
}

// pawnStructure scores doubled, isolated and passed pawns using only the two
// pawn bitboards, so the result is cacheable by pawn hash.
func pawnStructure(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		ours := pos.PieceBB(board.Pawn, c)
		theirs := pos.PieceBB(board.Pawn, c.Other())

		for f := 0; f < 8; f++ {
			if n := (ours & board.FileMasks[f]).PopCount(); n > 1 {
				mg += sign * doubledPawnMg * (n - 1)
				eg += sign * doubledPawnEg * (n - 1)
			}
		}

		bb := ours
		for bb != 0 {
			sq := bb.PopLSB()

			if adjacentFiles[sq.File()]&ours == 0 {
				mg += sign * isolatedPawnMg
				eg += sign * isolatedPawnEg
			}

			if passedMask[c][sq]&theirs == 0 && frontSpan[c][sq]&ours == 0 {
				bonus := passedPawnBonus[sq.RelativeRank(c)]
				if board.PawnAttacks(c.Other(), sq)&ours != 0 {
					bonus += passedProtectedBonus
				}
				r := sq.Rank()
				connected := adjacentFiles[sq.File()] & ours &
					(board.RankMasks[r] | rankBehind(r, c))
				if connected != 0 {
					bonus += passedConnectedBonus
				}
				mg += sign * bonus / 2
				eg += sign * bonus
			}
		}
	}
	return mg, eg
}

func rankBehind(r int, c board.Color) board.Bitboard {
	if c == board.White {
		if r > 0 {
			return board.RankMasks[r-1]
		}
	} else if r < 7 {
		return board.RankMasks[r+1]
	}
	return 0
}

// passedPawnExtras scores the parts of passed pawn evaluation that depend on
// more than the pawn bitboards: a clear path ahead and king proximity.
func passedPawnExtras(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		them := c.Other()
		ours := pos.PieceBB(board.Pawn, c)
		theirs := pos.PieceBB(board.Pawn, them)
		enemyKing := pos.KingSquare(them)

		bb := ours
		for bb != 0 {
			sq := bb.PopLSB()
			if passedMask[c][sq]&theirs != 0 || frontSpan[c][sq]&ours != 0 {
				continue
			}

			if frontSpan[c][sq]&pos.Occupied == 0 {
				mg += sign * passedFreePathBonus
				eg += sign * passedFreePathBonus
			}

			eg += sign * kingDistanceBonus[chebyshev(enemyKing, sq)]

			// Square of the pawn: an unassisted enemy king that cannot
			// reach the promotion square loses the race.
			if !hasNonPawnMaterial(pos, them) {
				promo := board.NewSquare(sq.File(), promotionRank(c))
				if chebyshev(enemyKing, promo) > 7-sq.RelativeRank(c) {
					eg += sign * passedUnstoppable
				}
			}
		}
	}
	return mg, eg
}

func promotionRank(c board.Color) int {
	if c == board.White {
		return 7
	}
	return 0
}

func hasNonPawnMaterial(pos *board.Position, c board.Color) bool {
	return pos.ByColor[c]&^(pos.PieceBB(board.Pawn, c)|pos.PieceBB(board.King, c)) != 0
}

func chebyshev(a, b board.Square) int {
	df := a.File() - b.File()
	if df < 0 {
		df = -df
	}
	dr := a.Rank() - b.Rank()
	if dr < 0 {
		dr = -dr
	}
	if df > dr {
		return df
	}
	return dr
}

// pawnAttackSet returns every square attacked by c's pawns.
func pawnAttackSet(pos *board.Position, c board.Color) board.Bitboard {
	pawns := pos.PieceBB(board.Pawn, c)
	if c == board.White {
		return pawns.NorthEast() | pawns.NorthWest()
	}
	return pawns.SouthEast() | pawns.SouthWest()
}

// mobility counts attacked squares per piece, excluding squares occupied by
// friendly pieces or covered by enemy pawns.
func mobility(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		area := ^pos.ByColor[c] &^ pawnAttackSet(pos, c.Other())

		for pt := board.Knight; pt <= board.Queen; pt++ {
			bb := pos.PieceBB(pt, c)
			for bb != 0 {
				sq := bb.PopLSB()
				n := (board.AttacksOf(pt, c, sq, pos.Occupied) & area).PopCount()
				mg += sign * n * mobilityMg[pt]
				eg += sign * n * mobilityEg[pt]
			}
		}
	}
	return mg, eg
}

func rooks(pos *board.Position) (mg, eg int) {
	allPawns := pos.PieceBB(board.Pawn, board.White) | pos.PieceBB(board.Pawn, board.Black)

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		ourPawns := pos.PieceBB(board.Pawn, c)
		them := c.Other()

		bb := pos.PieceBB(board.Rook, c)
		for bb != 0 {
			sq := bb.PopLSB()
			file := board.FileMasks[sq.File()]

			if allPawns&file == 0 {
				mg += sign * rookOpenFileMg
				eg += sign * rookOpenFileEg
			} else if ourPawns&file == 0 {
				mg += sign * rookSemiOpenFileMg
				eg += sign * rookSemiOpenFileEg
			}

			if sq.RelativeRank(c) == 6 {
				seventh := board.RankMasks[sq.Rank()]
				if pos.PieceBB(board.Pawn, them)&seventh != 0 ||
					pos.KingSquare(them).RelativeRank(c) == 7 {
					mg += sign * rookOnSeventhMg
					eg += sign * rookOnSeventhEg
				}
			}
		}
	}
	return mg, eg
}

// kingSafety returns a middlegame-only safety score for c's king: pawn
// shield, open files next to the king, and weighted attacks on the king zone.
func kingSafety(pos *board.Position, c board.Color) int {
	ksq := pos.KingSquare(c)
	them := c.Other()
	score := 0

	ring := board.KingAttacks(ksq)
	zone := ring | board.SquareBB(ksq)
	if c == board.White {
		zone |= ring.North()
	} else {
		zone |= ring.South()
	}

	weight, attackers := 0, 0
	for pt := board.Knight; pt <= board.Queen; pt++ {
		bb := pos.PieceBB(pt, them)
		for bb != 0 {
			sq := bb.PopLSB()
			hits := board.AttacksOf(pt, them, sq, pos.Occupied) & zone
			if hits != 0 {
				attackers++
				weight += attackerWeight[pt] * hits.PopCount()
			}
		}
	}
	// A lone attacker rarely mates.
	if attackers > 1 {
		score -= weight
	} else {
		score -= weight / 2
	}

	ourPawns := pos.PieceBB(board.Pawn, c)
	kf := ksq.File()
	lo, hi := kf-1, kf+1
	if lo < 0 {
		lo = 0
	}
	if hi > 7 {
		hi = 7
	}
	allPawns := ourPawns | pos.PieceBB(board.Pawn, them)

	for f := lo; f <= hi; f++ {
		file := board.FileMasks[f]
		shield := file & shieldRanks(ksq, c)
		if ourPawns&shield != 0 {
			score += pawnShieldBonus
		} else {
			score += pawnShieldMissing
		}

		if allPawns&file == 0 {
			score += openFileNearKing
		} else if ourPawns&file == 0 {
			score += semiOpenFileNearKing
		}
	}
	return score
}

// shieldRanks covers the two ranks directly in front of the king.
func shieldRanks(ksq board.Square, c board.Color) board.Bitboard {
	r := ksq.Rank()
	var mask board.Bitboard
	if c == board.White {
		for rr := r + 1; rr <= r+2 && rr < 8; rr++ {
			mask |= board.RankMasks[rr]
		}
	} else {
		for rr := r - 1; rr >= r-2 && rr >= 0; rr-- {
			mask |= board.RankMasks[rr]
		}
	}
	return mask
}
