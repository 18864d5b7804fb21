package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	chess "github.com/corentings/chess/v2"
	"github.com/gorilla/mux"

	"github.com/hailam/chessmind/internal/board"
	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/storage"
)

const (
	defaultSuggestTime = time.Second
	maxSuggestMS       = 30000
)

type createResponse struct {
	Key      string   `json:"key"`
	TurnInfo TurnInfo `json:"turn_info"`
}

type turnInfoResponse struct {
	TurnInfo TurnInfo `json:"turn_info"`
}

type suggestionResponse struct {
	Move string `json:"move"`
	Eval string `json:"eval"`
}

// handleCreate starts a game, from the standard position or a FEN in
// the body. 201 carries the key the client uses from then on.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FEN string `json:"fen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}

	fen := req.FEN
	if fen == "" {
		fen = board.StartFEN
	}
	if _, err := board.ParseFEN(fen); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	g := &storage.Game{StartFEN: fen, CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	g.Key = s.newKey()
	err := s.store.PutGame(g)
	s.mu.Unlock()
	if err != nil {
		s.log.Error("game create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sess, err := s.loadSession(g.Key)
	if err != nil {
		s.gameError(w, g.Key, err)
		return
	}
	s.log.Info("game created", "key", g.Key, "fen", fen)
	writeJSON(w, http.StatusCreated, createResponse{Key: g.Key, TurnInfo: sess.turnInfo()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.Keys()
	if err != nil {
		s.log.Error("game list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"games": keys})
}

func (s *Server) handleTurnInfo(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["id"]
	sess, err := s.loadSession(key)
	if err != nil {
		s.gameError(w, key, err)
		return
	}
	writeJSON(w, http.StatusOK, turnInfoResponse{TurnInfo: sess.turnInfo()})
}

// handleMove plays a move for the side to move. Coordinate and SAN
// forms are both accepted; anything outside the legal set is a 400.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["id"]

	var req struct {
		Move string `json:"move"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Move) == "" {
		writeError(w, http.StatusBadRequest, "missing move")
		return
	}
	input := strings.TrimSpace(req.Move)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.loadSession(key)
	if err != nil {
		s.gameError(w, key, err)
		return
	}
	if sess.status() != statusInProgress {
		writeError(w, http.StatusBadRequest, "Game is over")
		return
	}

	m, ok := sess.pos.MoveFromCoord(strings.ToLower(input))
	if !ok {
		m, ok = sess.pos.ParseSAN(input)
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Illegal move")
		return
	}

	sess.game.Moves = append(sess.game.Moves, m.String())
	sess.game.UpdatedAt = time.Now()
	if err := s.store.PutGame(sess.game); err != nil {
		s.log.Error("move persist failed", "key", key, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sess.history = append(sess.history, sess.pos.Hash)
	sess.pos.MakeMove(m)

	info := sess.turnInfo()
	s.broadcast(key, info)
	s.log.Info("move played", "key", key, "move", m.String(), "status", info.Status)
	writeJSON(w, http.StatusOK, turnInfoResponse{TurnInfo: info})
}

// handleSuggestion asks the engine for a move. The ?ms= query bounds
// the think time; the client going away cancels the search.
func (s *Server) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["id"]
	sess, err := s.loadSession(key)
	if err != nil {
		s.gameError(w, key, err)
		return
	}

	budget := defaultSuggestTime
	if raw := r.URL.Query().Get("ms"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid ms")
			return
		}
		if n > maxSuggestMS {
			n = maxSuggestMS
		}
		budget = time.Duration(n) * time.Millisecond
	}

	res, err := s.eng.BestMove(r.Context(), sess.pos, sess.history, engine.Limits{MoveTime: budget})
	if errors.Is(err, engine.ErrNoLegalMoves) {
		writeError(w, http.StatusBadRequest, "No moves available")
		return
	}
	if err != nil {
		s.log.Error("suggestion failed", "key", key, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.log.Info("suggestion", "key", key, "move", res.Move.String(),
		"depth", res.Depth, "book", res.Book)
	writeJSON(w, http.StatusOK, suggestionResponse{
		Move: res.Move.String(),
		Eval: engine.ScoreToString(res.Score),
	})
}

// handlePGN exports the game as PGN text by replaying the stored moves
// through the chess library's game model.
func (s *Server) handlePGN(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["id"]
	g, err := s.store.GetGame(key)
	if err != nil {
		s.gameError(w, key, err)
		return
	}

	var opts []func(*chess.Game)
	if g.StartFEN != board.StartFEN {
		fenOpt, err := chess.FEN(g.StartFEN)
		if err != nil {
			s.log.Error("pgn export failed", "key", key, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		opts = append(opts, fenOpt)
	}

	game := chess.NewGame(opts...)
	for _, c := range g.Moves {
		m, err := chess.UCINotation{}.Decode(game.Position(), c)
		if err == nil {
			san := chess.AlgebraicNotation{}.Encode(game.Position(), m)
			err = game.PushMove(san, &chess.PushMoveOptions{ForceMainline: true})
		}
		if err != nil {
			s.log.Error("pgn export failed", "key", key, "move", c, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	w.Header().Set("Content-Type", "application/x-chess-pgn")
	fmt.Fprintln(w, strings.TrimSpace(game.String()))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["id"]

	s.mu.Lock()
	err := s.store.DeleteGame(key)
	s.mu.Unlock()
	if err != nil {
		s.gameError(w, key, err)
		return
	}

	s.closeWatchers(key)
	s.log.Info("game deleted", "key", key)
	w.WriteHeader(http.StatusNoContent)
}
