package board

// Precomputed attack sets shared read-only by every search thread. Built
// once at package init, never mutated afterwards.
var (
	pawnAttackTable   [2][64]Bitboard
	knightAttackTable [64]Bitboard
	kingAttackTable   [64]Bitboard

	// betweenTable[a][b] holds the squares strictly between two aligned
	// squares, lineTable[a][b] the whole line through them including both
	// endpoints. Empty when the squares do not share a rank, file or
	// diagonal.
	betweenTable [64][64]Bitboard
	lineTable    [64][64]Bitboard
)

func init() {
	initLeaperAttacks()
	initMagics()
	initLines()
}

func initLeaperAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		pawnAttackTable[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttackTable[Black][sq] = bb.SouthEast() | bb.SouthWest()

		knightAttackTable[sq] = bb<<17&^FileABB | bb<<15&^FileHBB |
			bb>>17&^FileHBB | bb>>15&^FileABB |
			bb<<10&^(FileABB|FileBBB) | bb<<6&^(FileGBB|FileHBB) |
			bb>>10&^(FileGBB|FileHBB) | bb>>6&^(FileABB|FileBBB)

		kingAttackTable[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()
	}
}

func initLines() {
	for a := A1; a <= H8; a++ {
		for b := A1; b <= H8; b++ {
			if a == b {
				continue
			}
			switch {
			case lookupRook(a, 0).Has(b):
				betweenTable[a][b] = slidingAttacks(a, SquareBB(b), rookDeltas) &
					slidingAttacks(b, SquareBB(a), rookDeltas)
				lineTable[a][b] = (lookupRook(a, 0) & lookupRook(b, 0)) |
					SquareBB(a) | SquareBB(b)
			case lookupBishop(a, 0).Has(b):
				betweenTable[a][b] = slidingAttacks(a, SquareBB(b), bishopDeltas) &
					slidingAttacks(b, SquareBB(a), bishopDeltas)
				lineTable[a][b] = (lookupBishop(a, 0) & lookupBishop(b, 0)) |
					SquareBB(a) | SquareBB(b)
			}
		}
	}
}

// PawnAttacks returns the capture targets of a pawn of color c on sq.
func PawnAttacks(c Color, sq Square) Bitboard {
	return pawnAttackTable[c][sq]
}

// KnightAttacks returns the knight attack set for sq.
func KnightAttacks(sq Square) Bitboard {
	return knightAttackTable[sq]
}

// KingAttacks returns the king attack set for sq.
func KingAttacks(sq Square) Bitboard {
	return kingAttackTable[sq]
}

// BishopAttacks returns the bishop attack set for sq under the given
// occupancy.
func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	return lookupBishop(sq, occ)
}

// RookAttacks returns the rook attack set for sq under the given occupancy.
func RookAttacks(sq Square, occ Bitboard) Bitboard {
	return lookupRook(sq, occ)
}

// QueenAttacks returns the queen attack set for sq under the given
// occupancy.
func QueenAttacks(sq Square, occ Bitboard) Bitboard {
	return lookupBishop(sq, occ) | lookupRook(sq, occ)
}

// AttacksOf dispatches to the table for the given piece type. The color
// only matters for pawns.
func AttacksOf(pt PieceType, c Color, sq Square, occ Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return pawnAttackTable[c][sq]
	case Knight:
		return knightAttackTable[sq]
	case Bishop:
		return lookupBishop(sq, occ)
	case Rook:
		return lookupRook(sq, occ)
	case Queen:
		return lookupBishop(sq, occ) | lookupRook(sq, occ)
	case King:
		return kingAttackTable[sq]
	}
	return 0
}

// Between returns the squares strictly between two aligned squares.
func Between(a, b Square) Bitboard {
	return betweenTable[a][b]
}

// Line returns the full line through two aligned squares.
func Line(a, b Square) Bitboard {
	return lineTable[a][b]
}

// Aligned reports whether c lies on the line through a and b.
func Aligned(a, b, c Square) bool {
	return lineTable[a][b].Has(c)
}
