package board

// GenerateLegalMoves fills ml with every strictly legal move for the side
// to move. ml is cleared first.
func (p *Position) GenerateLegalMoves(ml *MoveList) {
	p.GenerateMoves(ml)
	p.filterLegal(ml)
}

// GenerateMoves fills ml with all pseudo-legal moves: every move is
// well-formed but may leave the mover's king in check. Callers filter with
// IsLegal. ml is cleared first.
func (p *Position) GenerateMoves(ml *MoveList) {
	ml.Clear()
	p.generatePawnMoves(ml, false)
	p.generatePieceMoves(ml, Knight, false)
	p.generatePieceMoves(ml, Bishop, false)
	p.generatePieceMoves(ml, Rook, false)
	p.generatePieceMoves(ml, Queen, false)
	p.generatePieceMoves(ml, King, false)
	p.generateCastlingMoves(ml)
}

// GenerateNoisy fills ml with pseudo-legal captures and promotions, the
// move set searched by quiescence. ml is cleared first.
func (p *Position) GenerateNoisy(ml *MoveList) {
	ml.Clear()
	p.generatePawnMoves(ml, true)
	p.generatePieceMoves(ml, Knight, true)
	p.generatePieceMoves(ml, Bishop, true)
	p.generatePieceMoves(ml, Rook, true)
	p.generatePieceMoves(ml, Queen, true)
	p.generatePieceMoves(ml, King, true)
}

// generatePawnMoves emits pawn moves setwise: whole-board shifts produce
// the target sets, and the origin square is recovered from the shift
// delta. Promotions are emitted queen first.
func (p *Position) generatePawnMoves(ml *MoveList, noisyOnly bool) {
	us := p.SideToMove
	pawns := p.Pieces[NewPiece(Pawn, us)]
	enemies := p.ByColor[us.Other()]
	empty := ^p.Occupied

	var push1, push2, capW, capE Bitboard
	var up, dw, de int
	if us == White {
		up, dw, de = 8, 7, 9
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3BB).North() & empty
		capW = pawns.NorthWest() & enemies
		capE = pawns.NorthEast() & enemies
	} else {
		up, dw, de = -8, -9, -7
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6BB).South() & empty
		capW = pawns.SouthWest() & enemies
		capE = pawns.SouthEast() & enemies
	}

	if !noisyOnly {
		addPawnTargets(ml, push1&^promoRanks, up, Quiet)
		addPawnTargets(ml, push2, 2*up, DoublePush)
	}
	addPawnTargets(ml, push1&promoRanks, up, Quiet)
	addPawnTargets(ml, capW, dw, Capture)
	addPawnTargets(ml, capE, de, Capture)

	if ep := p.EnPassant; ep != NoSquare {
		from := pawns & PawnAttacks(us.Other(), ep)
		for from != 0 {
			ml.Add(NewMove(from.PopLSB(), ep, EnPassantCapture))
		}
	}
}

const promoRanks = Rank1BB | Rank8BB

// addPawnTargets turns a target set into moves, expanding back-rank
// targets into the four promotions.
func addPawnTargets(ml *MoveList, targets Bitboard, delta int, flag MoveFlag) {
	for targets != 0 {
		to := targets.PopLSB()
		from := Square(int(to) - delta)
		if SquareBB(to)&promoRanks != 0 {
			capture := flag == Capture
			ml.Add(NewPromotion(from, to, Queen, capture))
			ml.Add(NewPromotion(from, to, Rook, capture))
			ml.Add(NewPromotion(from, to, Bishop, capture))
			ml.Add(NewPromotion(from, to, Knight, capture))
			continue
		}
		ml.Add(NewMove(from, to, flag))
	}
}

func (p *Position) generatePieceMoves(ml *MoveList, pt PieceType, noisyOnly bool) {
	us := p.SideToMove
	enemies := p.ByColor[us.Other()]
	pieces := p.Pieces[NewPiece(pt, us)]
	for pieces != 0 {
		from := pieces.PopLSB()
		attacks := AttacksOf(pt, us, from, p.Occupied) &^ p.ByColor[us]
		for caps := attacks & enemies; caps != 0; {
			ml.Add(NewMove(from, caps.PopLSB(), Capture))
		}
		if noisyOnly {
			continue
		}
		for quiets := attacks &^ enemies; quiets != 0; {
			ml.Add(NewMove(from, quiets.PopLSB(), Quiet))
		}
	}
}

// generateCastlingMoves emits only fully legal castles: rights intact,
// path empty, and neither the crossed nor the landing square attacked.
// Castling out of check is never generated.
func (p *Position) generateCastlingMoves(ml *MoveList) {
	if p.Checkers != 0 {
		return
	}
	them := p.SideToMove.Other()
	occ := p.Occupied

	if p.SideToMove == White {
		if p.Castling&WhiteOO != 0 &&
			occ&(SquareBB(F1)|SquareBB(G1)) == 0 &&
			!p.IsSquareAttacked(F1, them) && !p.IsSquareAttacked(G1, them) {
			ml.Add(NewMove(E1, G1, CastleKingside))
		}
		if p.Castling&WhiteOOO != 0 &&
			occ&(SquareBB(B1)|SquareBB(C1)|SquareBB(D1)) == 0 &&
			!p.IsSquareAttacked(D1, them) && !p.IsSquareAttacked(C1, them) {
			ml.Add(NewMove(E1, C1, CastleQueenside))
		}
		return
	}
	if p.Castling&BlackOO != 0 &&
		occ&(SquareBB(F8)|SquareBB(G8)) == 0 &&
		!p.IsSquareAttacked(F8, them) && !p.IsSquareAttacked(G8, them) {
		ml.Add(NewMove(E8, G8, CastleKingside))
	}
	if p.Castling&BlackOOO != 0 &&
		occ&(SquareBB(B8)|SquareBB(C8)|SquareBB(D8)) == 0 &&
		!p.IsSquareAttacked(D8, them) && !p.IsSquareAttacked(C8, them) {
		ml.Add(NewMove(E8, C8, CastleQueenside))
	}
}

// filterLegal compacts ml down to its legal moves, preserving order.
func (p *Position) filterLegal(ml *MoveList) {
	pinned := p.ComputePinned()
	n := 0
	for i := 0; i < ml.Len(); i++ {
		if m := ml.Get(i); p.IsLegal(m, pinned) {
			ml.Set(n, m)
			n++
		}
	}
	ml.Truncate(n)
}

// IsLegal reports whether the pseudo-legal move m leaves the mover's king
// safe. pinned must be p.ComputePinned(); callers testing many moves
// compute it once. Most moves are decided without touching the board; only
// en passant plays the move out, because the capture clears two squares at
// once and can expose the king along a rank holding both pawns and an
// enemy slider.
func (p *Position) IsLegal(m Move, pinned Bitboard) bool {
	us := p.SideToMove
	ksq := p.kingSq[us]
	from, to := m.From(), m.To()

	if from == ksq {
		if m.IsCastle() {
			// legality was established at generation time
			return true
		}
		occ := p.Occupied &^ SquareBB(from)
		return p.attackers(us.Other(), to, occ) == 0
	}

	if m.IsEnPassant() {
		return p.isLegalEnPassant(m)
	}

	if p.Checkers != 0 {
		if p.Checkers.Several() {
			// double check, only the king can move
			return false
		}
		// capture the checker or block its ray, with an unpinned piece
		mask := p.Checkers | Between(p.Checkers.LSB(), ksq)
		return mask&SquareBB(to) != 0 && pinned&SquareBB(from) == 0
	}

	return pinned&SquareBB(from) == 0 || Aligned(from, to, ksq)
}

func (p *Position) isLegalEnPassant(m Move) bool {
	u := p.MakeMove(m)
	mover := p.SideToMove.Other()
	safe := !p.IsSquareAttacked(p.kingSq[mover], p.SideToMove)
	p.UnmakeMove(m, u)
	return safe
}

// HasLegalMoves reports whether the side to move has any legal move,
// stopping at the first one found.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateMoves(&ml)
	pinned := p.ComputePinned()
	for i := 0; i < ml.Len(); i++ {
		if p.IsLegal(ml.Get(i), pinned) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.Checkers != 0 && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move is stalemated.
func (p *Position) IsStalemate() bool {
	return p.Checkers == 0 && !p.HasLegalMoves()
}

// MoveFromCoord resolves a move in coordinate notation ("e2e4", "e7e8q")
// against the legal moves of p. The second return is false when the string
// does not parse or no legal move matches it.
func (p *Position) MoveFromCoord(s string) (Move, bool) {
	from, to, promo, err := ParseCoord(s)
	if err != nil {
		return NoMove, false
	}
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if m.IsPromotion() {
			if m.Promotion() == promo {
				return m, true
			}
			continue
		}
		if promo == NoPieceType {
			return m, true
		}
	}
	return NoMove, false
}
