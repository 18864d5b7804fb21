package board

import "testing"

// testFENs cover the tactical special cases: castling both ways, en
// passant, promotions, pins and checks.
var testFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbqkbnr/ppp1pppp/8/8/3pP3/5N2/PPPP1PPP/RNBQKB1R b KQkq e3 0 3",
	"8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1",
}

func TestMakeUnmakeRestoresPosition(t *testing.T) {
	for _, fen := range testFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		before := *pos

		var ml MoveList
		pos.GenerateLegalMoves(&ml)
		for i := 0; i < ml.Len(); i++ {
			m := ml.Get(i)
			u := pos.MakeMove(m)
			pos.UnmakeMove(m, u)
			if *pos != before {
				t.Errorf("%q: %v did not unmake cleanly\nbefore: %s\nafter:  %s",
					fen, m, before.FEN(), pos.FEN())
			}
		}
	}
}

func TestMakeUnmakeDeep(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	before := *pos

	// Walk every line three plies deep and unwind it again.
	var walk func(depth int)
	var ml [4]MoveList
	walk = func(depth int) {
		if depth == 0 {
			return
		}
		pos.GenerateLegalMoves(&ml[depth])
		for i := 0; i < ml[depth].Len(); i++ {
			m := ml[depth].Get(i)
			u := pos.MakeMove(m)
			walk(depth - 1)
			pos.UnmakeMove(m, u)
		}
	}
	walk(3)

	if *pos != before {
		t.Errorf("position changed after full walk\nbefore: %s\nafter:  %s",
			before.FEN(), pos.FEN())
	}
}

func TestIncrementalHashMatchesRecompute(t *testing.T) {
	for _, fen := range testFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}

		var ml MoveList
		pos.GenerateLegalMoves(&ml)
		for i := 0; i < ml.Len(); i++ {
			m := ml.Get(i)
			u := pos.MakeMove(m)
			if pos.Hash != pos.computeHash() {
				t.Errorf("%q: hash drifted after %v", fen, m)
			}
			if pos.PawnKey != pos.computePawnKey() {
				t.Errorf("%q: pawn key drifted after %v", fen, m)
			}
			pos.UnmakeMove(m, u)
		}
	}
}

func TestHashTransposition(t *testing.T) {
	play := func(moves ...string) *Position {
		pos := NewPosition()
		for _, s := range moves {
			m, ok := pos.MoveFromCoord(s)
			if !ok {
				t.Fatalf("illegal move %q", s)
			}
			pos.MakeMove(m)
		}
		return pos
	}

	a := play("e2e4", "d7d5", "g1f3")
	b := play("g1f3", "d7d5", "e2e4")
	if a.Hash != b.Hash {
		t.Errorf("transposed lines disagree: %x vs %x", a.Hash, b.Hash)
	}

	// Knights out and back: the position matches the start, and so must
	// the key, clocks aside.
	c := play("g1f3", "g8f6", "f3g1", "f6g8")
	if c.Hash != NewPosition().Hash {
		t.Errorf("returning to start changed the key: %x", c.Hash)
	}
}

func TestEnPassantSquareLifetime(t *testing.T) {
	pos := NewPosition()
	m, _ := pos.MoveFromCoord("e2e4")
	pos.MakeMove(m)
	if pos.EnPassant != E3 {
		t.Fatalf("EnPassant = %v after double push, want e3", pos.EnPassant)
	}
	m, _ = pos.MoveFromCoord("g8f6")
	pos.MakeMove(m)
	if pos.EnPassant != NoSquare {
		t.Errorf("EnPassant = %v after reply, want none", pos.EnPassant)
	}
}

func TestCastlingMoveMovesRook(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	m, ok := pos.MoveFromCoord("e1g1")
	if !ok {
		t.Fatal("e1g1 not legal")
	}
	u := pos.MakeMove(m)
	if pos.PieceAt(F1) != WhiteRook || pos.PieceAt(G1) != WhiteKing {
		t.Errorf("after O-O: f1=%v g1=%v", pos.PieceAt(F1), pos.PieceAt(G1))
	}
	if pos.Castling&(WhiteOO|WhiteOOO) != 0 {
		t.Errorf("white rights survived castling: %v", pos.Castling)
	}
	pos.UnmakeMove(m, u)
	if pos.PieceAt(H1) != WhiteRook || pos.PieceAt(E1) != WhiteKing {
		t.Errorf("unmake left rook on %v", pos.PieceAt(H1))
	}

	// A rook capture on h8 must strip black's kingside right.
	m, ok = pos.MoveFromCoord("h1h8")
	if !ok {
		t.Fatal("h1h8 not legal")
	}
	pos.MakeMove(m)
	if pos.Castling&BlackOO != 0 {
		t.Errorf("black kingside right survived rook capture: %v", pos.Castling)
	}
}

func TestPromotionMakeUnmake(t *testing.T) {
	pos, err := ParseFEN("3r4/2P4k/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	before := *pos

	m, ok := pos.MoveFromCoord("c7d8n")
	if !ok {
		t.Fatal("c7d8n not legal")
	}
	u := pos.MakeMove(m)
	if pos.PieceAt(D8) != WhiteKnight {
		t.Errorf("d8 = %v, want white knight", pos.PieceAt(D8))
	}
	if pos.Pieces[WhitePawn] != 0 {
		t.Errorf("pawn bitboard not cleared: %v", pos.Pieces[WhitePawn])
	}
	pos.UnmakeMove(m, u)
	if *pos != before {
		t.Errorf("promotion unmake mismatch: %s", pos.FEN())
	}
}

func TestNullMoveRoundTrip(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/ppp1pppp/8/8/3pP3/5N2/PPPP1PPP/RNBQKB1R b KQkq e3 0 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	before := *pos

	u := pos.MakeNullMove()
	if pos.SideToMove != White {
		t.Errorf("side = %v after null, want white", pos.SideToMove)
	}
	if pos.EnPassant != NoSquare {
		t.Errorf("en passant survived null move")
	}
	pos.UnmakeNullMove(u)
	if *pos != before {
		t.Errorf("null move round trip mismatch: %s", pos.FEN())
	}
}

func TestRepetitions(t *testing.T) {
	pos := NewPosition()
	var history []uint64

	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	for round := 1; round <= 2; round++ {
		for _, s := range shuffle {
			m, ok := pos.MoveFromCoord(s)
			if !ok {
				t.Fatalf("illegal move %q", s)
			}
			history = append(history, pos.Hash)
			pos.MakeMove(m)
		}
		if got := pos.Repetitions(history); got != round {
			t.Errorf("after %d rounds: repetitions = %d, want %d", round, got, round)
		}
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"8/8/4k3/8/8/3K4/8/8 w - - 0 1", true},
		{"8/8/4k3/8/8/3KB3/8/8 w - - 0 1", true},
		{"8/8/4k3/8/8/3KN3/8/8 b - - 0 1", true},
		{"8/8/4k3/8/8/2NKN3/8/8 b - - 0 1", false},
		{"8/8/4k3/8/8/3KP3/8/8 w - - 0 1", false},
		{"8/8/4k3/8/8/3KR3/8/8 w - - 0 1", false},
		{"8/8/2q1k3/8/8/3K4/8/8 w - - 0 1", false},
	}
	for _, tc := range tests {
		pos, err := ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
		}
		if got := pos.InsufficientMaterial(); got != tc.want {
			t.Errorf("%q: insufficient = %v, want %v", tc.fen, got, tc.want)
		}
	}
}

func TestFiftyMoveClock(t *testing.T) {
	pos, err := ParseFEN("8/8/4k3/8/8/3KR3/8/8 w - - 99 80")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.FiftyMoveDraw() {
		t.Error("draw claimed at 99 half moves")
	}
	m, ok := pos.MoveFromCoord("e3e4")
	if !ok {
		t.Fatal("e3e4 not legal")
	}
	pos.MakeMove(m)
	if !pos.FiftyMoveDraw() {
		t.Error("no draw at 100 half moves")
	}
}

func TestPieceQueries(t *testing.T) {
	pos := NewPosition()
	if got := pos.PieceAt(E1); got != WhiteKing {
		t.Errorf("PieceAt(e1) = %v", got)
	}
	if got := pos.PieceAt(E4); got != NoPiece {
		t.Errorf("PieceAt(e4) = %v", got)
	}
	if got := pos.KingSquare(Black); got != E8 {
		t.Errorf("KingSquare(black) = %v", got)
	}
	if got := pos.PieceBB(Pawn, White).PopCount(); got != 8 {
		t.Errorf("white pawns = %d", got)
	}
	if pos.InCheck() {
		t.Error("start position reported in check")
	}
}
