package board

import "strings"

// SAN renders a legal move in Standard Algebraic Notation, including
// disambiguation and check or mate suffixes.
func (p *Position) SAN(m Move) string {
	if m == NoMove {
		return "-"
	}
	if m.IsCastle() {
		return p.withCheckSuffix(m, castleSAN(m))
	}

	from, to := m.From(), m.To()
	pt := p.board[from].Type()
	var sb strings.Builder

	if pt == Pawn {
		if m.IsCapture() {
			sb.WriteByte('a' + byte(from.File()))
			sb.WriteByte('x')
		}
	} else {
		sb.WriteByte("PNBRQK"[pt])
		sb.WriteString(p.disambiguate(m, pt))
		if m.IsCapture() {
			sb.WriteByte('x')
		}
	}

	sb.WriteString(to.String())
	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte("PNBRQK"[m.Promotion()])
	}
	return p.withCheckSuffix(m, sb.String())
}

func castleSAN(m Move) string {
	if m.Flag() == CastleKingside {
		return "O-O"
	}
	return "O-O-O"
}

// withCheckSuffix appends "+" or "#" by playing the move out.
func (p *Position) withCheckSuffix(m Move, san string) string {
	u := p.MakeMove(m)
	defer p.UnmakeMove(m, u)
	switch {
	case p.IsCheckmate():
		return san + "#"
	case p.InCheck():
		return san + "+"
	}
	return san
}

// disambiguate returns the origin-square fragment needed when several
// pieces of the same type can reach the move's target: the file when it
// suffices, the rank when the file does not, both otherwise.
func (p *Position) disambiguate(m Move, pt PieceType) string {
	from, to := m.From(), m.To()
	others := p.Pieces[NewPiece(pt, p.SideToMove)] &^ SquareBB(from)

	var ml MoveList
	p.GenerateLegalMoves(&ml)
	sameFile, sameRank, any := false, false, false
	for i := 0; i < ml.Len(); i++ {
		c := ml.Get(i)
		if c.To() != to || others&SquareBB(c.From()) == 0 {
			continue
		}
		any = true
		if c.From().File() == from.File() {
			sameFile = true
		}
		if c.From().Rank() == from.Rank() {
			sameRank = true
		}
	}

	switch {
	case !any:
		return ""
	case !sameFile:
		return string([]byte{'a' + byte(from.File())})
	case !sameRank:
		return string([]byte{'1' + byte(from.Rank())})
	default:
		return from.String()
	}
}

// ParseSAN resolves a move written in Standard Algebraic Notation against
// the legal moves of p. Check and mate suffixes are accepted and ignored.
// The second return is false when nothing legal matches.
func (p *Position) ParseSAN(s string) (Move, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), "+#")

	switch s {
	case "O-O", "0-0":
		return p.findCastle(CastleKingside)
	case "O-O-O", "0-0-0":
		return p.findCastle(CastleQueenside)
	}

	promo := NoPieceType
	if i := strings.IndexByte(s, '='); i >= 0 && i+1 < len(s) {
		switch s[i+1] {
		case 'N':
			promo = Knight
		case 'B':
			promo = Bishop
		case 'R':
			promo = Rook
		case 'Q':
			promo = Queen
		default:
			return NoMove, false
		}
		s = s[:i]
	}

	capture := strings.ContainsRune(s, 'x')
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'B' && s[0] <= 'R' {
		switch s[0] {
		case 'N':
			pt = Knight
		case 'B':
			pt = Bishop
		case 'R':
			pt = Rook
		case 'Q':
			pt = Queen
		case 'K':
			pt = King
		}
		if pt != Pawn {
			s = s[1:]
		}
	}

	if len(s) < 2 {
		return NoMove, false
	}
	to, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, false
	}
	s = s[:len(s)-2]

	fromFile, fromRank := -1, -1
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'h':
			fromFile = int(c - 'a')
		case c >= '1' && c <= '8':
			fromRank = int(c - '1')
		default:
			return NoMove, false
		}
	}

	var ml MoveList
	p.GenerateLegalMoves(&ml)
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if m.To() != to || m.IsCastle() {
			continue
		}
		from := m.From()
		if p.board[from].Type() != pt {
			continue
		}
		if fromFile >= 0 && from.File() != fromFile {
			continue
		}
		if fromRank >= 0 && from.Rank() != fromRank {
			continue
		}
		if capture && !m.IsCapture() {
			continue
		}
		if promo != NoPieceType {
			if !m.IsPromotion() || m.Promotion() != promo {
				continue
			}
		} else if m.IsPromotion() {
			continue
		}
		return m, true
	}
	return NoMove, false
}

func (p *Position) findCastle(flag MoveFlag) (Move, bool) {
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	for i := 0; i < ml.Len(); i++ {
		if m := ml.Get(i); m.Flag() == flag {
			return m, true
		}
	}
	return NoMove, false
}
