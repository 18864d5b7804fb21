package board

// Zobrist keys for incremental position hashing. One random 64-bit constant
// per (piece, square) feature plus castling-rights, en-passant-file and
// side-to-move constants; the position hash is the XOR of the constants for
// every feature present. Keys come from a fixed-seed PRNG so hashes are
// stable across runs.
var (
	zobristPiece     [12][64]uint64
	zobristCastling  [16]uint64
	zobristEPFile    [8]uint64
	zobristSideBlack uint64
)

// xorshift64star is the generator used to fill the key tables. Deliberately
// tiny; quality is plenty for hashing features that are XORed together.
type xorshift64star struct {
	state uint64
}

func (x *xorshift64star) next() uint64 {
	x.state ^= x.state >> 12
	x.state ^= x.state << 25
	x.state ^= x.state >> 27
	return x.state * 0x2545F4914F6CDD1D
}

func init() {
	rng := xorshift64star{state: 0x41D8B2E6A3F07C19}

	for pc := WhitePawn; pc <= BlackKing; pc++ {
		for sq := A1; sq <= H8; sq++ {
			zobristPiece[pc][sq] = rng.next()
		}
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	for f := range zobristEPFile {
		zobristEPFile[f] = rng.next()
	}
	zobristSideBlack = rng.next()
}

// ZobristPiece returns the hash constant for a piece standing on sq.
func ZobristPiece(pc Piece, sq Square) uint64 {
	return zobristPiece[pc][sq]
}

// ZobristCastling returns the hash constant for a castling-rights mask.
func ZobristCastling(cr CastlingRights) uint64 {
	return zobristCastling[cr]
}

// ZobristEnPassant returns the hash constant for an en-passant target file.
func ZobristEnPassant(file int) uint64 {
	return zobristEPFile[file]
}

// ZobristSide returns the hash constant XORed in while black is to move.
func ZobristSide() uint64 {
	return zobristSideBlack
}

// computeHash rebuilds the full Zobrist key from scratch. Used when setting
// up a position and by tests to cross-check the incremental updates.
func (p *Position) computeHash() uint64 {
	var h uint64
	for pc := WhitePawn; pc <= BlackKing; pc++ {
		bb := p.Pieces[pc]
		for bb != 0 {
			h ^= zobristPiece[pc][bb.PopLSB()]
		}
	}
	h ^= zobristCastling[p.Castling]
	if p.EnPassant != NoSquare {
		h ^= zobristEPFile[p.EnPassant.File()]
	}
	if p.SideToMove == Black {
		h ^= zobristSideBlack
	}
	return h
}

// computePawnKey rebuilds the pawn-structure key, hashing pawns only. The
// evaluator's pawn cache is keyed by it.
func (p *Position) computePawnKey() uint64 {
	var h uint64
	for _, pc := range [...]Piece{WhitePawn, BlackPawn} {
		bb := p.Pieces[pc]
		for bb != 0 {
			h ^= zobristPiece[pc][bb.PopLSB()]
		}
	}
	return h
}
