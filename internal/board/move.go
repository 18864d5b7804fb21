package board

import "fmt"

// Move packs a move into 16 bits:
//
//	bits 0-5   origin square
//	bits 6-11  destination square
//	bits 12-15 flag
//
// The flag carries everything make/unmake needs to know about the move's
// shape, so captures and special moves are recognized without consulting
// the position.
type Move uint16

// MoveFlag classifies a move. Bit 2 marks captures, bit 3 promotions; the
// low two bits of a promotion flag select the piece (knight through queen).
type MoveFlag uint16

const (
	Quiet MoveFlag = iota
	DoublePush
	CastleKingside
	CastleQueenside
	Capture
	EnPassantCapture
	_
	_
	PromoKnight
	PromoBishop
	PromoRook
	PromoQueen
	PromoCaptureKnight
	PromoCaptureBishop
	PromoCaptureRook
	PromoCaptureQueen
)

// NoMove is the zero Move, used as a sentinel.
const NoMove Move = 0

// NewMove builds a move from its components.
func NewMove(from, to Square, flag MoveFlag) Move {
	return Move(from) | Move(to)<<6 | Move(flag)<<12
}

// NewPromotion builds a promotion move for the given target piece type.
func NewPromotion(from, to Square, promo PieceType, capture bool) Move {
	flag := PromoKnight + MoveFlag(promo-Knight)
	if capture {
		flag += 4
	}
	return NewMove(from, to, flag)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square(m >> 6 & 0x3F)
}

// Flag returns the move's classification.
func (m Move) Flag() MoveFlag {
	return MoveFlag(m >> 12)
}

// IsCapture reports whether the move takes a piece, including en passant.
func (m Move) IsCapture() bool {
	return m&(1<<14) != 0
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m&(1<<15) != 0
}

// IsEnPassant reports whether the move is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == EnPassantCapture
}

// IsCastle reports whether the move castles either side.
func (m Move) IsCastle() bool {
	f := m.Flag()
	return f == CastleKingside || f == CastleQueenside
}

// IsDoublePush reports whether the move is a two-square pawn advance.
func (m Move) IsDoublePush() bool {
	return m.Flag() == DoublePush
}

// IsQuiet reports whether the move is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return m&(0b11<<14) == 0
}

// Promotion returns the promoted-to piece type. Only meaningful when
// IsPromotion is true.
func (m Move) Promotion() PieceType {
	return Knight + PieceType(m.Flag()&3)
}

// String renders the move in coordinate notation ("e2e4", "e7e8q"),
// "0000" for NoMove.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().PromoChar())
	}
	return s
}

// ParseCoord splits a coordinate-notation move string into its components
// without validating it against any position. promo is NoPieceType when the
// string carries no promotion letter.
func ParseCoord(s string) (from, to Square, promo PieceType, err error) {
	promo = NoPieceType
	if len(s) != 4 && len(s) != 5 {
		return NoSquare, NoSquare, promo, fmt.Errorf("invalid move %q", s)
	}
	if from, err = ParseSquare(s[0:2]); err != nil {
		return NoSquare, NoSquare, promo, fmt.Errorf("invalid move %q", s)
	}
	if to, err = ParseSquare(s[2:4]); err != nil {
		return NoSquare, NoSquare, promo, fmt.Errorf("invalid move %q", s)
	}
	if len(s) == 5 {
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoSquare, NoSquare, promo, fmt.Errorf("invalid promotion in %q", s)
		}
	}
	return from, to, promo, nil
}

// MoveList collects generated moves in a fixed backing array so move
// generation never allocates. 256 comfortably exceeds the maximum number of
// moves in any legal position.
type MoveList struct {
	moves [256]Move
	count int
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of stored moves.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set overwrites the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Truncate shortens the list to n moves.
func (ml *MoveList) Truncate(n int) {
	ml.count = n
}

// Swap exchanges two entries, for in-place ordering.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list for reuse.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the stored moves backed by the list's array.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
