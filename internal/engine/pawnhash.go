package engine

// defaultPawnTableMB sizes the per-worker pawn hash. Workers do not share
// it, so it stays small.
const defaultPawnTableMB = 2

// pawnEntry caches the pawn structure score for one pawn hash key.
type pawnEntry struct {
	key uint64
	mg  int16
	eg  int16
}

// PawnTable caches pawn structure evaluation keyed by Position.PawnKey.
// Pawn structure changes rarely between nodes, so hit rates are high.
type PawnTable struct {
	entries []pawnEntry
	mask    uint64
}

// NewPawnTable creates a pawn hash table of the given size in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	const entrySize = 16
	n := sizeMB * 1024 * 1024 / entrySize
	size := 1
	for size*2 <= n {
		size *= 2
	}
	return &PawnTable{
		entries: make([]pawnEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe returns the cached middlegame and endgame pawn scores for key.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, ok bool) {
	e := &pt.entries[key&pt.mask]
	if e.key != key {
		return 0, 0, false
	}
	return int(e.mg), int(e.eg), true
}

// Store saves the pawn scores for key, always replacing.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	e := &pt.entries[key&pt.mask]
	e.key = key
	e.mg = int16(mg)
	e.eg = int16(eg)
}

// Clear drops all cached entries.
func (pt *PawnTable) Clear() {
	for i := range pt.entries {
		pt.entries[i] = pawnEntry{}
	}
}
