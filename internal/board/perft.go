package board

// Perft counts the leaf nodes of the legal move tree at the given depth.
// The standard correctness check for move generation: known positions have
// published node counts, and any generator bug shifts them.
func Perft(p *Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}
	var nodes uint64
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		u := p.MakeMove(m)
		nodes += Perft(p, depth-1)
		p.UnmakeMove(m, u)
	}
	return nodes
}

// DivideEntry is one root move with its subtree size.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// PerftDivide splits the perft count by root move, the usual way to narrow
// a node-count mismatch down to the move that causes it.
func PerftDivide(p *Position, depth int) ([]DivideEntry, uint64) {
	var ml MoveList
	p.GenerateLegalMoves(&ml)

	entries := make([]DivideEntry, 0, ml.Len())
	var total uint64
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		u := p.MakeMove(m)
		n := Perft(p, depth-1)
		p.UnmakeMove(m, u)
		entries = append(entries, DivideEntry{Move: m, Nodes: n})
		total += n
	}
	return entries, total
}
