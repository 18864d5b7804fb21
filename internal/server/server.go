// Package server exposes game sessions and the engine over HTTP: a JSON
// REST surface for playing and a websocket stream for watching.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/storage"
)

const (
	keyLength  = 15
	keyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Server holds the pieces every handler needs. Game mutations serialize
// on mu; reads go straight to the store.
type Server struct {
	store *storage.Store
	eng   *engine.Engine
	log   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand

	wmu      sync.Mutex
	watchers map[string]map[chan TurnInfo]struct{}

	upgrader websocket.Upgrader
}

// New wires a server to its store and engine. A nil logger falls back
// to slog's default.
func New(store *storage.Store, eng *engine.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		store:    store,
		eng:      eng,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		watchers: make(map[string]map[chan TurnInfo]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/games", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/games", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/games/{id}", s.handleTurnInfo).Methods(http.MethodGet)
	r.HandleFunc("/games/{id}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/games/{id}/move", s.handleMove).Methods(http.MethodPost)
	r.HandleFunc("/games/{id}/move_suggestion", s.handleSuggestion).Methods(http.MethodGet)
	r.HandleFunc("/games/{id}/pgn", s.handlePGN).Methods(http.MethodGet)
	r.HandleFunc("/games/{id}/watch", s.handleWatch).Methods(http.MethodGet)
	return r
}

// newKey draws a fresh game key. Callers hold mu for the rng.
func (s *Server) newKey() string {
	b := make([]byte, keyLength)
	for i := range b {
		b[i] = keyCharset[s.rng.Intn(len(keyCharset))]
	}
	return string(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// gameError maps a load failure to 404 for unknown keys and 500 for
// everything else.
func (s *Server) gameError(w http.ResponseWriter, key string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}
	s.log.Error("game lookup failed", "key", key, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
