package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// MalformedFenError reports a FEN string that could not be parsed or that
// describes an impossible position. The original input and the first
// problem found are retained for error messages.
type MalformedFenError struct {
	FEN    string
	Reason string
}

func (e *MalformedFenError) Error() string {
	return fmt.Sprintf("malformed FEN %q: %s", e.FEN, e.Reason)
}

func malformed(fen, format string, args ...any) error {
	return &MalformedFenError{FEN: fen, Reason: fmt.Sprintf(format, args...)}
}

// ParseFEN parses a FEN string into a Position. The clock fields are
// optional and default to "0 1". All errors are *MalformedFenError.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, malformed(fen, "need at least 4 fields, got %d", len(parts))
	}

	p := &Position{EnPassant: NoSquare, FullMove: 1}
	for i := range p.board {
		p.board[i] = NoPiece
	}

	if err := p.parsePlacement(fen, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return nil, malformed(fen, "bad side to move %q", parts[1])
	}

	if parts[2] != "-" {
		for i := 0; i < len(parts[2]); i++ {
			switch parts[2][i] {
			case 'K':
				p.Castling |= WhiteOO
			case 'Q':
				p.Castling |= WhiteOOO
			case 'k':
				p.Castling |= BlackOO
			case 'q':
				p.Castling |= BlackOOO
			default:
				return nil, malformed(fen, "bad castling flag %q", parts[2][i])
			}
		}
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, malformed(fen, "bad en passant square %q", parts[3])
		}
		wantRank := 5
		if p.SideToMove == Black {
			wantRank = 2
		}
		if sq.Rank() != wantRank {
			return nil, malformed(fen, "en passant square %s unreachable for %v", sq, p.SideToMove)
		}
		p.EnPassant = sq
	}

	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil || n < 0 {
			return nil, malformed(fen, "bad halfmove clock %q", parts[4])
		}
		p.HalfMove = n
	}
	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil || n < 1 {
			return nil, malformed(fen, "bad fullmove number %q", parts[5])
		}
		p.FullMove = n
	}

	if err := p.validate(fen); err != nil {
		return nil, err
	}

	p.Hash = p.computeHash()
	p.PawnKey = p.computePawnKey()
	p.computeCheckers()
	return p, nil
}

// parsePlacement fills the board from the first FEN field.
func (p *Position) parsePlacement(fen, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return malformed(fen, "need 8 ranks, got %d", len(ranks))
	}
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			pc := PieceFromChar(c)
			if pc == NoPiece {
				return malformed(fen, "bad piece %q", c)
			}
			if file > 7 {
				return malformed(fen, "rank %d overflows", rank+1)
			}
			p.putPiece(pc, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return malformed(fen, "rank %d has %d files", rank+1, file)
		}
	}
	return nil
}

// validate rejects positions no legal game can produce.
func (p *Position) validate(fen string) error {
	for c := White; c <= Black; c++ {
		if n := p.Pieces[NewPiece(King, c)].PopCount(); n != 1 {
			return malformed(fen, "%v has %d kings", c, n)
		}
	}
	if (p.Pieces[WhitePawn]|p.Pieces[BlackPawn])&(Rank1BB|Rank8BB) != 0 {
		return malformed(fen, "pawn on a back rank")
	}
	them := p.SideToMove.Other()
	if p.IsSquareAttacked(p.kingSq[them], p.SideToMove) {
		return malformed(fen, "side not to move is in check")
	}
	return nil
}

// FEN renders the position as a six-field FEN string. Parsing it back
// yields an identical position.
func (p *Position) FEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(p.Castling.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMove))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMove))
	return sb.String()
}
