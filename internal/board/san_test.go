package board

import "testing"

func TestSANEncoding(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		want string
	}{
		{"pawn push", StartFEN, "e2e4", "e4"},
		{"knight develop", StartFEN, "g1f3", "Nf3"},
		{"pawn capture", "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", "e4d5", "exd5"},
		{"file disambiguation", "R6R/8/8/8/8/8/8/1k4K1 w - - 0 1", "a8d8", "Rad8"},
		{"rank disambiguation", "1k6/8/8/R7/8/8/8/R3K3 w - - 0 1", "a5a3", "R5a3"},
		{"castle short", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"castle long", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8c8", "O-O-O"},
		{"promotion", "3r4/2P4k/8/8/8/8/8/K7 w - - 0 1", "c7c8q", "c8=Q"},
		{"capture promotion check", "3r3k/2P5/8/8/8/8/8/K7 w - - 0 1", "c7d8q", "cxd8=Q+"},
		{"mate suffix", "7k/6pp/8/8/8/8/8/K3R3 w - - 0 1", "e1e8", "Re8#"},
		{"en passant", "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3", "e5f6", "exf6"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			m, ok := pos.MoveFromCoord(tc.move)
			if !ok {
				t.Fatalf("%s not legal in %s", tc.move, tc.fen)
			}
			if got := pos.SAN(m); got != tc.want {
				t.Errorf("SAN(%s) = %q, want %q", tc.move, got, tc.want)
			}
		})
	}
}

// Every legal move must survive an encode/parse round trip, including the
// ambiguous ones.
func TestSANRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"R6R/8/8/8/8/8/8/1k4K1 w - - 0 1",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		var ml MoveList
		pos.GenerateLegalMoves(&ml)
		for i := 0; i < ml.Len(); i++ {
			m := ml.Get(i)
			san := pos.SAN(m)
			got, ok := pos.ParseSAN(san)
			if !ok {
				t.Errorf("%q: ParseSAN(%q) failed", fen, san)
				continue
			}
			if got != m {
				t.Errorf("%q: %q parsed to %v, want %v", fen, san, got, m)
			}
		}
	}
}

func TestParseSANRejects(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"", "Qxe9", "Nf6", "O-O", "e5", "axb3", "Ke2"} {
		if m, ok := pos.ParseSAN(s); ok {
			t.Errorf("ParseSAN(%q) = %v, want rejection", s, m)
		}
	}
}
