package engine

import (
	"sync"
	"sync/atomic"

	"github.com/hailam/chessmind/internal/board"
)

// Bound describes how a stored score relates to the true score.
type Bound uint8

const (
	BoundExact Bound = iota
	BoundLower       // score failed high (beta cutoff)
	BoundUpper       // score failed low (no move improved alpha)
)

// Entry is one transposition table slot. The full key is kept so that index
// collisions are detected on probe; a stale or colliding entry is simply a
// miss, never an error.
type Entry struct {
	Key   uint64
	Move  board.Move
	Score int16
	Depth int8
	Bound Bound
	age   uint8
}

// Shard count for the lock array. Must be a power of two.
const ttShards = 256

// TranspositionTable caches search results keyed by Zobrist hash. It is
// shared by all search workers; access is guarded by sharded RWMutexes so
// that parallel probes of different regions do not contend.
type TranspositionTable struct {
	entries []Entry
	locks   [ttShards]sync.RWMutex
	mask    uint64
	age     atomic.Uint32

	probes atomic.Uint64
	hits   atomic.Uint64
}

// NewTranspositionTable allocates a table of the given size in MB, rounded
// down to a power of two entries.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	const entrySize = 16
	n := uint64(sizeMB) * 1024 * 1024 / entrySize
	size := uint64(1)
	for size*2 <= n {
		size *= 2
	}
	return &TranspositionTable{
		entries: make([]Entry, size),
		mask:    size - 1,
	}
}

// Probe looks up hash. A hit requires the stored key to match exactly;
// entries left over from other positions that happen to share an index are
// treated as misses.
func (tt *TranspositionTable) Probe(hash uint64) (Entry, bool) {
	tt.probes.Add(1)

	idx := hash & tt.mask
	lock := &tt.locks[idx&(ttShards-1)]

	lock.RLock()
	e := tt.entries[idx]
	lock.RUnlock()

	if e.Key != hash || e.Depth == 0 {
		return Entry{}, false
	}
	tt.hits.Add(1)
	return e, true
}

// Store writes a result. An existing entry is kept only when it comes from
// the current search generation and is deeper than the new one.
func (tt *TranspositionTable) Store(hash uint64, move board.Move, score, depth int, bound Bound) {
	idx := hash & tt.mask
	lock := &tt.locks[idx&(ttShards-1)]
	age := uint8(tt.age.Load())
	if depth > 127 {
		depth = 127
	}

	lock.Lock()
	e := &tt.entries[idx]
	if e.age != age || depth >= int(e.Depth) {
		e.Key = hash
		e.Move = move
		e.Score = int16(score)
		e.Depth = int8(depth)
		e.Bound = bound
		e.age = age
	}
	lock.Unlock()
}

// NewSearch starts a new generation, aging out entries from earlier searches
// in replacement decisions.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// Clear wipes the table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = Entry{}
	}
	tt.age.Store(0)
	tt.probes.Store(0)
	tt.hits.Store(0)
}

// Size returns the number of entries.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.entries))
}

// HashFull estimates table occupancy in permille, sampling the first entries
// the way UCI engines report hashfull.
func (tt *TranspositionTable) HashFull() int {
	sample := 1000
	if uint64(sample) > tt.Size() {
		sample = int(tt.Size())
	}
	if sample == 0 {
		return 0
	}
	age := uint8(tt.age.Load())
	used := 0
	for i := 0; i < sample; i++ {
		lock := &tt.locks[uint64(i)&(ttShards-1)]
		lock.RLock()
		if tt.entries[i].Depth > 0 && tt.entries[i].age == age {
			used++
		}
		lock.RUnlock()
	}
	return used * 1000 / sample
}

// HitRate reports probe hits as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	p := tt.probes.Load()
	if p == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(p) * 100
}

// Mate scores are stored relative to the current node so that a cached mate
// keeps the right distance when found again at another ply.

func scoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}
