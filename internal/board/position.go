package board

import "strings"

// CastlingRights is a 4-bit mask of the castling moves still available.
type CastlingRights uint8

const (
	WhiteOO CastlingRights = 1 << iota
	WhiteOOO
	BlackOO
	BlackOOO

	NoCastling  CastlingRights = 0
	AllCastling CastlingRights = WhiteOO | WhiteOOO | BlackOO | BlackOOO
)

// String renders the rights in FEN form ("KQkq", "-" when none remain).
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// castleRightsMask[sq] holds the rights that survive a move touching sq.
// Moving or capturing on a king or rook home square strips the matching
// bits; every other square leaves the mask untouched.
var castleRightsMask [64]CastlingRights

func init() {
	for sq := A1; sq <= H8; sq++ {
		castleRightsMask[sq] = AllCastling
	}
	castleRightsMask[E1] &^= WhiteOO | WhiteOOO
	castleRightsMask[H1] &^= WhiteOO
	castleRightsMask[A1] &^= WhiteOOO
	castleRightsMask[E8] &^= BlackOO | BlackOOO
	castleRightsMask[H8] &^= BlackOO
	castleRightsMask[A8] &^= BlackOOO
}

// Position is the full board state. The twelve piece bitboards are the
// source of truth; the mailbox, occupancy boards, king squares, checkers
// and both hash keys are caches maintained incrementally by make/unmake.
type Position struct {
	Pieces   [12]Bitboard // indexed by Piece
	ByColor  [2]Bitboard  // occupancy per color
	Occupied Bitboard     // all pieces

	SideToMove Color
	Castling   CastlingRights
	EnPassant  Square // capture target square, NoSquare when unavailable
	HalfMove   int    // plies since the last pawn move or capture
	FullMove   int    // starts at 1, increments after black moves

	Hash    uint64 // Zobrist key of the full position
	PawnKey uint64 // Zobrist key of the pawns only

	Checkers Bitboard // opposing pieces currently checking the mover

	board  [64]Piece
	kingSq [2]Square
}

// Undo carries the irreversible part of the pre-move state. Everything else
// is recomputed by inverting the move itself.
type Undo struct {
	Captured  Piece
	Castling  CastlingRights
	EnPassant Square
	HalfMove  int
	Hash      uint64
	PawnKey   uint64
	Checkers  Bitboard
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, _ := ParseFEN(StartFEN)
	return p
}

// Copy returns an independent copy of the position.
func (p *Position) Copy() *Position {
	q := *p
	return &q
}

// PieceAt returns the piece standing on sq, NoPiece for an empty square.
func (p *Position) PieceAt(sq Square) Piece {
	return p.board[sq]
}

// PieceBB returns the bitboard of one piece kind for one side.
func (p *Position) PieceBB(pt PieceType, c Color) Bitboard {
	return p.Pieces[NewPiece(pt, c)]
}

// KingSquare returns the square of c's king.
func (p *Position) KingSquare(c Color) Square {
	return p.kingSq[c]
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

func (p *Position) putPiece(pc Piece, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[pc] |= bb
	p.ByColor[pc.Color()] |= bb
	p.Occupied |= bb
	p.board[sq] = pc
	if pc.Type() == King {
		p.kingSq[pc.Color()] = sq
	}
}

func (p *Position) removePiece(pc Piece, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[pc] &^= bb
	p.ByColor[pc.Color()] &^= bb
	p.Occupied &^= bb
	p.board[sq] = NoPiece
}

func (p *Position) movePiece(pc Piece, from, to Square) {
	bb := SquareBB(from) | SquareBB(to)
	p.Pieces[pc] ^= bb
	p.ByColor[pc.Color()] ^= bb
	p.Occupied ^= bb
	p.board[from] = NoPiece
	p.board[to] = pc
	if pc.Type() == King {
		p.kingSq[pc.Color()] = to
	}
}

// attackers returns the pieces of color c attacking sq under the given
// occupancy. Passing an occupancy different from p.Occupied lets callers
// look through removed pieces (x-ray).
func (p *Position) attackers(c Color, sq Square, occ Bitboard) Bitboard {
	return PawnAttacks(c.Other(), sq)&p.Pieces[NewPiece(Pawn, c)] |
		KnightAttacks(sq)&p.Pieces[NewPiece(Knight, c)] |
		KingAttacks(sq)&p.Pieces[NewPiece(King, c)] |
		BishopAttacks(sq, occ)&(p.Pieces[NewPiece(Bishop, c)]|p.Pieces[NewPiece(Queen, c)]) |
		RookAttacks(sq, occ)&(p.Pieces[NewPiece(Rook, c)]|p.Pieces[NewPiece(Queen, c)])
}

// IsSquareAttacked reports whether any piece of byColor attacks sq.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.attackers(byColor, sq, p.Occupied) != 0
}

// computeCheckers refreshes the checkers cache for the side to move.
func (p *Position) computeCheckers() {
	us := p.SideToMove
	p.Checkers = p.attackers(us.Other(), p.kingSq[us], p.Occupied)
}

// ComputePinned returns the side to move's pieces that are pinned against
// their own king. A piece is pinned when it is the single blocker between
// the king and an enemy slider on the same ray.
func (p *Position) ComputePinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.kingSq[us]

	var pinned Bitboard
	snipers := RookAttacks(ksq, 0)&(p.Pieces[NewPiece(Rook, them)]|p.Pieces[NewPiece(Queen, them)]) |
		BishopAttacks(ksq, 0)&(p.Pieces[NewPiece(Bishop, them)]|p.Pieces[NewPiece(Queen, them)])
	for snipers != 0 {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq) & p.Occupied
		if !blockers.Several() && blockers&p.ByColor[us] != 0 {
			pinned |= blockers
		}
	}
	return pinned
}

// MakeMove applies m and returns the record needed to take it back. The
// move must come from this position's move generator (or have passed the
// same legality filter); only en-passant candidates under legality probing
// may leave the mover in check, and their callers unwind immediately.
func (p *Position) MakeMove(m Move) Undo {
	u := Undo{
		Captured:  NoPiece,
		Castling:  p.Castling,
		EnPassant: p.EnPassant,
		HalfMove:  p.HalfMove,
		Hash:      p.Hash,
		PawnKey:   p.PawnKey,
		Checkers:  p.Checkers,
	}

	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	pc := p.board[from]

	p.Hash ^= zobristSideBlack
	p.Hash ^= zobristCastling[p.Castling]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEPFile[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	if m.IsEnPassant() {
		capSq := to - 8
		if us == Black {
			capSq = to + 8
		}
		cap := NewPiece(Pawn, them)
		p.removePiece(cap, capSq)
		p.Hash ^= zobristPiece[cap][capSq]
		p.PawnKey ^= zobristPiece[cap][capSq]
		u.Captured = cap
	} else if m.IsCapture() {
		cap := p.board[to]
		p.removePiece(cap, to)
		p.Hash ^= zobristPiece[cap][to]
		if cap.Type() == Pawn {
			p.PawnKey ^= zobristPiece[cap][to]
		}
		u.Captured = cap
	}

	p.movePiece(pc, from, to)
	p.Hash ^= zobristPiece[pc][from] ^ zobristPiece[pc][to]
	if pc.Type() == Pawn {
		p.PawnKey ^= zobristPiece[pc][from] ^ zobristPiece[pc][to]
	}

	switch {
	case m.IsPromotion():
		promo := NewPiece(m.Promotion(), us)
		p.removePiece(pc, to)
		p.putPiece(promo, to)
		p.Hash ^= zobristPiece[pc][to] ^ zobristPiece[promo][to]
		p.PawnKey ^= zobristPiece[pc][to]
	case m.IsCastle():
		rookFrom, rookTo := rookCastleSquares(m)
		rook := NewPiece(Rook, us)
		p.movePiece(rook, rookFrom, rookTo)
		p.Hash ^= zobristPiece[rook][rookFrom] ^ zobristPiece[rook][rookTo]
	case m.IsDoublePush():
		ep := Square((int(from) + int(to)) / 2)
		p.EnPassant = ep
		p.Hash ^= zobristEPFile[ep.File()]
	}

	p.Castling &= castleRightsMask[from] & castleRightsMask[to]
	p.Hash ^= zobristCastling[p.Castling]

	if pc.Type() == Pawn || u.Captured != NoPiece {
		p.HalfMove = 0
	} else {
		p.HalfMove++
	}
	if us == Black {
		p.FullMove++
	}

	p.SideToMove = them
	p.computeCheckers()

	return u
}

// UnmakeMove reverts m, restoring the position bit for bit, hash included.
func (p *Position) UnmakeMove(m Move, u Undo) {
	us := p.SideToMove.Other()
	from, to := m.From(), m.To()

	p.SideToMove = us
	p.Castling = u.Castling
	p.EnPassant = u.EnPassant
	p.HalfMove = u.HalfMove
	p.Hash = u.Hash
	p.PawnKey = u.PawnKey
	p.Checkers = u.Checkers
	if us == Black {
		p.FullMove--
	}

	if m.IsPromotion() {
		p.removePiece(p.board[to], to)
		p.putPiece(NewPiece(Pawn, us), from)
	} else {
		p.movePiece(p.board[to], to, from)
	}

	if m.IsCastle() {
		rookFrom, rookTo := rookCastleSquares(m)
		p.movePiece(NewPiece(Rook, us), rookTo, rookFrom)
	}

	if m.IsEnPassant() {
		capSq := to - 8
		if us == Black {
			capSq = to + 8
		}
		p.putPiece(u.Captured, capSq)
	} else if u.Captured != NoPiece {
		p.putPiece(u.Captured, to)
	}
}

// rookCastleSquares returns the rook's hop for a castling move.
func rookCastleSquares(m Move) (from, to Square) {
	rank := m.From().Rank()
	if m.Flag() == CastleKingside {
		return NewSquare(7, rank), NewSquare(5, rank)
	}
	return NewSquare(0, rank), NewSquare(3, rank)
}

// NullUndo is the undo record of a null move.
type NullUndo struct {
	EnPassant Square
	Hash      uint64
	Checkers  Bitboard
}

// MakeNullMove passes the turn without moving, for null-move pruning. Must
// not be called while in check.
func (p *Position) MakeNullMove() NullUndo {
	u := NullUndo{EnPassant: p.EnPassant, Hash: p.Hash, Checkers: p.Checkers}

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEPFile[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSideBlack
	p.computeCheckers()
	return u
}

// UnmakeNullMove reverts a null move.
func (p *Position) UnmakeNullMove(u NullUndo) {
	p.SideToMove = p.SideToMove.Other()
	p.EnPassant = u.EnPassant
	p.Hash = u.Hash
	p.Checkers = u.Checkers
}

// HasNonPawnMaterial reports whether the side to move still has pieces
// besides pawns and the king. Null-move pruning is unsound without them.
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.ByColor[us]&^(p.Pieces[NewPiece(Pawn, us)]|p.Pieces[NewPiece(King, us)]) != 0
}

// FiftyMoveDraw reports whether the fifty-move rule has been reached.
func (p *Position) FiftyMoveDraw() bool {
	return p.HalfMove >= 100
}

// InsufficientMaterial reports whether neither side can possibly deliver
// mate: bare kings, or king and at most one minor piece against a bare
// king.
func (p *Position) InsufficientMaterial() bool {
	if p.Pieces[WhitePawn]|p.Pieces[BlackPawn]|
		p.Pieces[WhiteRook]|p.Pieces[BlackRook]|
		p.Pieces[WhiteQueen]|p.Pieces[BlackQueen] != 0 {
		return false
	}
	whiteMinors := (p.Pieces[WhiteKnight] | p.Pieces[WhiteBishop]).PopCount()
	blackMinors := (p.Pieces[BlackKnight] | p.Pieces[BlackBishop]).PopCount()
	return whiteMinors+blackMinors <= 1
}

// Repetitions counts how often the current position already appears in the
// supplied Zobrist history, newest entry last. Only plies since the last
// irreversible move can repeat, and only every other entry shares the side
// to move.
func (p *Position) Repetitions(history []uint64) int {
	n := 0
	limit := len(history) - p.HalfMove
	if limit < 0 {
		limit = 0
	}
	for i := len(history) - 2; i >= limit; i -= 2 {
		if history[i] == p.Hash {
			n++
		}
	}
	return n
}

// String renders the board with game state, for debug dumps.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		sb.WriteByte(' ')
		for file := 0; file < 8; file++ {
			sb.WriteString(" " + p.board[NewSquare(file, rank)].String())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h\n")
	sb.WriteString("fen: " + p.FEN() + "\n")
	return sb.String()
}
