package board

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = 0
	Black Color = 1
)

// Other returns the opposing color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// PieceType is one of the six chess piece kinds.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

func (pt PieceType) String() string {
	if pt >= NoPieceType {
		return "none"
	}
	return [...]string{"pawn", "knight", "bishop", "rook", "queen", "king"}[pt]
}

// PromoChar returns the lowercase letter used for the piece type in
// coordinate move notation ("q" in "e7e8q").
func (pt PieceType) PromoChar() byte {
	return "pnbrqk."[pt]
}

// Piece packs a PieceType and Color into one value: type<<1 | color.
// White pieces are even, black pieces odd, so Piece indexes the position's
// 12 piece bitboards directly.
type Piece uint8

const (
	WhitePawn   Piece = Piece(Pawn)<<1 | Piece(White)
	BlackPawn   Piece = Piece(Pawn)<<1 | Piece(Black)
	WhiteKnight Piece = Piece(Knight)<<1 | Piece(White)
	BlackKnight Piece = Piece(Knight)<<1 | Piece(Black)
	WhiteBishop Piece = Piece(Bishop)<<1 | Piece(White)
	BlackBishop Piece = Piece(Bishop)<<1 | Piece(Black)
	WhiteRook   Piece = Piece(Rook)<<1 | Piece(White)
	BlackRook   Piece = Piece(Rook)<<1 | Piece(Black)
	WhiteQueen  Piece = Piece(Queen)<<1 | Piece(White)
	BlackQueen  Piece = Piece(Queen)<<1 | Piece(Black)
	WhiteKing   Piece = Piece(King)<<1 | Piece(White)
	BlackKing   Piece = Piece(King)<<1 | Piece(Black)
	NoPiece     Piece = 12
)

// NewPiece combines a piece type and color.
func NewPiece(pt PieceType, c Color) Piece {
	return Piece(pt)<<1 | Piece(c)
}

// Type returns the piece kind, NoPieceType for NoPiece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p >> 1)
}

// Color returns the piece color. Only meaningful for real pieces.
func (p Piece) Color() Color {
	return Color(p & 1)
}

// String returns the FEN letter for the piece, uppercase for white.
func (p Piece) String() string {
	if p >= NoPiece {
		return "."
	}
	return string("PpNnBbRrQqKk"[p])
}

// PieceFromChar converts a FEN letter into a Piece, NoPiece if unknown.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'P':
		return WhitePawn
	case 'N':
		return WhiteKnight
	case 'B':
		return WhiteBishop
	case 'R':
		return WhiteRook
	case 'Q':
		return WhiteQueen
	case 'K':
		return WhiteKing
	case 'p':
		return BlackPawn
	case 'n':
		return BlackKnight
	case 'b':
		return BlackBishop
	case 'r':
		return BlackRook
	case 'q':
		return BlackQueen
	case 'k':
		return BlackKing
	}
	return NoPiece
}
