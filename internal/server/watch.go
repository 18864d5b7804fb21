package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// handleWatch streams turn_info over a websocket: one snapshot on
// connect, then an update after every move. The stream closes when the
// game is deleted or the peer goes away.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["id"]
	sess, err := s.loadSession(key)
	if err != nil {
		s.gameError(w, key, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "key", key, "err", err)
		return
	}
	defer conn.Close()

	ch := s.subscribe(key)
	defer s.unsubscribe(key, ch)
	s.log.Info("watcher connected", "key", key)

	if err := conn.WriteJSON(sess.turnInfo()); err != nil {
		return
	}

	// Reads only notice the peer leaving; watchers never send data.
	peerGone := make(chan struct{})
	go func() {
		defer close(peerGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case info, ok := <-ch:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game deleted")
				conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
			if err := conn.WriteJSON(info); err != nil {
				return
			}
		case <-peerGone:
			return
		}
	}
}

func (s *Server) subscribe(key string) chan TurnInfo {
	ch := make(chan TurnInfo, 8)
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.watchers[key] == nil {
		s.watchers[key] = make(map[chan TurnInfo]struct{})
	}
	s.watchers[key][ch] = struct{}{}
	return ch
}

func (s *Server) unsubscribe(key string, ch chan TurnInfo) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if set, ok := s.watchers[key]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(s.watchers, key)
		}
	}
}

// broadcast fans an update out to every watcher of a game. A watcher
// whose buffer is full skips the update rather than stalling the move.
func (s *Server) broadcast(key string, info TurnInfo) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	for ch := range s.watchers[key] {
		select {
		case ch <- info:
		default:
		}
	}
}

// closeWatchers ends every stream for a deleted game.
func (s *Server) closeWatchers(key string) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	for ch := range s.watchers[key] {
		close(ch)
	}
	delete(s.watchers, key)
}
