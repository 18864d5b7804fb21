package server

import (
	"fmt"

	"github.com/hailam/chessmind/internal/board"
	"github.com/hailam/chessmind/internal/storage"
)

// Game status strings are part of the wire format.
const (
	statusInProgress   = "in_progress"
	statusCheckmate    = "checkmate"
	statusStalemate    = "stalemate"
	statusRepetition   = "draw_repetition"
	statusFiftyMoves   = "draw_fifty_moves"
	statusInsufficient = "draw_insufficient_material"
)

// TurnInfo describes a game from the side to move: whose turn it is,
// what they can play, and whether the game is already decided.
type TurnInfo struct {
	TurnNumber int      `json:"turn_number"`
	Color      string   `json:"color"`
	Moves      []string `json:"moves"`
	InCheck    bool     `json:"in_check"`
	FEN        string   `json:"fen"`
	Status     string   `json:"status"`
}

// session is a stored game replayed into a live position. history holds
// the Zobrist hash of every earlier position, oldest first, so draws by
// repetition score against the real game.
type session struct {
	game    *storage.Game
	pos     *board.Position
	history []uint64
}

// loadSession fetches and replays a stored game. A record that no
// longer replays cleanly is reported as an internal error, not a 404.
func (s *Server) loadSession(key string) (*session, error) {
	g, err := s.store.GetGame(key)
	if err != nil {
		return nil, err
	}
	pos, err := board.ParseFEN(g.StartFEN)
	if err != nil {
		return nil, fmt.Errorf("stored game %s: %w", key, err)
	}
	history := make([]uint64, 0, len(g.Moves)+8)
	for _, c := range g.Moves {
		m, ok := pos.MoveFromCoord(c)
		if !ok {
			return nil, fmt.Errorf("stored game %s: move %q does not replay", key, c)
		}
		history = append(history, pos.Hash)
		pos.MakeMove(m)
	}
	return &session{game: g, pos: pos, history: history}, nil
}

// turnInfo snapshots the session. Finished games report an empty move
// list so clients need no separate game-over probe.
func (sess *session) turnInfo() TurnInfo {
	pos := sess.pos
	info := TurnInfo{
		TurnNumber: pos.FullMove,
		Color:      pos.SideToMove.String(),
		Moves:      []string{},
		InCheck:    pos.InCheck(),
		FEN:        pos.FEN(),
		Status:     sess.status(),
	}
	if info.Status != statusInProgress {
		return info
	}
	var ml board.MoveList
	pos.GenerateLegalMoves(&ml)
	info.Moves = make([]string, ml.Len())
	for i := 0; i < ml.Len(); i++ {
		info.Moves[i] = pos.SAN(ml.Get(i))
	}
	return info
}

// status classifies the position. Checkmate is checked before the
// fifty-move counter: mate on the hundredth half-move still wins.
// Repetition needs two earlier occurrences, the claimable threefold.
func (sess *session) status() string {
	pos := sess.pos
	switch {
	case pos.IsCheckmate():
		return statusCheckmate
	case pos.IsStalemate():
		return statusStalemate
	case pos.Repetitions(sess.history) >= 2:
		return statusRepetition
	case pos.FiftyMoveDraw():
		return statusFiftyMoves
	case pos.InsufficientMaterial():
		return statusInsufficient
	}
	return statusInProgress
}
