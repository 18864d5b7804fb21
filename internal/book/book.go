// Package book reads Polyglot opening books: flat files of 16-byte
// big-endian records {key u64, move u16, weight u16, learn u32}, sorted
// ascending by key, where key is the Polyglot Zobrist hash of the position.
package book

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/hailam/chessmind/internal/board"
)

// ErrCorruptBook reports a book file that cannot be used. Callers are
// expected to log it and play on without a book.
var ErrCorruptBook = errors.New("corrupt opening book")

const entrySize = 16

// bookEntry is one raw record. The move stays in Polyglot encoding until
// probe time, when the position is available to resolve castling and flags.
type bookEntry struct {
	key    uint64
	move   uint16
	weight uint16
}

// Entry is a decoded book move with its weight, as returned by ProbeAll.
type Entry struct {
	Move   board.Move
	Weight uint16
}

// Book holds a parsed opening book in memory.
type Book struct {
	entries []bookEntry

	mu  sync.Mutex
	rng *rand.Rand
}

// LoadPolyglot loads a Polyglot format opening book from a file.
func LoadPolyglot(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBook, err)
	}
	defer file.Close()

	return LoadPolyglotReader(file)
}

// LoadPolyglotReader loads a Polyglot format book from a reader.
func LoadPolyglotReader(r io.Reader) (*Book, error) {
	var entries []bookEntry
	var raw [entrySize]byte

	for {
		_, err := io.ReadFull(r, raw[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			// A short final record means a truncated file.
			return nil, fmt.Errorf("%w: %v", ErrCorruptBook, err)
		}
		entries = append(entries, bookEntry{
			key:    binary.BigEndian.Uint64(raw[0:8]),
			move:   binary.BigEndian.Uint16(raw[8:10]),
			weight: binary.BigEndian.Uint16(raw[10:12]),
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrCorruptBook)
	}
	sorted := sort.SliceIsSorted(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})
	if !sorted {
		return nil, fmt.Errorf("%w: records out of order", ErrCorruptBook)
	}

	return &Book{
		entries: entries,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// SetRandom replaces the move-picking RNG, for deterministic tests.
func (b *Book) SetRandom(r *rand.Rand) {
	b.mu.Lock()
	b.rng = r
	b.mu.Unlock()
}

// Size returns the number of records in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Probe looks up the position and returns a move chosen randomly with
// probability proportional to the recorded weights. Records that do not
// match a legal move are skipped, so a key collision can never inject an
// illegal move into the game.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	candidates := b.legalEntries(pos)
	if len(candidates) == 0 {
		return board.NoMove, false
	}

	total := 0
	for _, e := range candidates {
		total += weightOf(e)
	}

	b.mu.Lock()
	r := b.rng.Intn(total)
	b.mu.Unlock()

	for _, e := range candidates {
		r -= weightOf(e)
		if r < 0 {
			return e.Move, true
		}
	}
	return candidates[len(candidates)-1].Move, true
}

// ProbeBest looks up the position and returns the highest-weighted move.
func (b *Book) ProbeBest(pos *board.Position) (board.Move, bool) {
	candidates := b.legalEntries(pos)
	if len(candidates) == 0 {
		return board.NoMove, false
	}
	return candidates[0].Move, true
}

// ProbeAll returns every legal book move for the position, sorted by weight,
// highest first.
func (b *Book) ProbeAll(pos *board.Position) []Entry {
	return b.legalEntries(pos)
}

// weightOf keeps zero-weight records selectable.
func weightOf(e Entry) int {
	if e.Weight == 0 {
		return 1
	}
	return int(e.Weight)
}

func (b *Book) legalEntries(pos *board.Position) []Entry {
	if b == nil || len(b.entries) == 0 {
		return nil
	}

	key := pos.PolyglotKey()
	lo := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].key >= key
	})
	hi := lo
	for hi < len(b.entries) && b.entries[hi].key == key {
		hi++
	}
	if lo == hi {
		return nil
	}

	var ml board.MoveList
	pos.GenerateLegalMoves(&ml)

	out := make([]Entry, 0, hi-lo)
	for _, e := range b.entries[lo:hi] {
		if m, ok := decodeMove(pos, &ml, e.move); ok {
			out = append(out, Entry{Move: m, Weight: e.weight})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return out
}

// decodeMove translates a Polyglot move field into one of the legal moves in
// ml. Polyglot packs to-file, to-rank, from-file, from-rank and the
// promotion piece into three-bit groups, and encodes castling as
// king-takes-own-rook.
func decodeMove(pos *board.Position, ml *board.MoveList, bits uint16) (board.Move, bool) {
	to := board.NewSquare(int(bits&7), int(bits>>3&7))
	from := board.NewSquare(int(bits>>6&7), int(bits>>9&7))

	if pos.PieceAt(from).Type() == board.King {
		switch {
		case from == board.E1 && to == board.H1:
			to = board.G1
		case from == board.E1 && to == board.A1:
			to = board.C1
		case from == board.E8 && to == board.H8:
			to = board.G8
		case from == board.E8 && to == board.A8:
			to = board.C8
		}
	}

	var promo board.PieceType
	hasPromo := true
	switch bits >> 12 & 7 {
	case 0:
		hasPromo = false
	case 1:
		promo = board.Knight
	case 2:
		promo = board.Bishop
	case 3:
		promo = board.Rook
	case 4:
		promo = board.Queen
	default:
		return board.NoMove, false
	}

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if m.IsPromotion() != hasPromo {
			continue
		}
		if hasPromo && m.Promotion() != promo {
			continue
		}
		return m, true
	}
	return board.NoMove, false
}
