package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hailam/chessmind/internal/board"
	"github.com/hailam/chessmind/internal/engine"
	"github.com/hailam/chessmind/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	eng := engine.NewEngine(engine.Options{HashMB: 8})
	srv := New(store, eng, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, data
}

func createGame(t *testing.T, ts *httptest.Server, fen string) (string, TurnInfo) {
	t.Helper()
	var body any
	if fen != "" {
		body = map[string]string{"fen": fen}
	}
	status, data := doJSON(t, http.MethodPost, ts.URL+"/games", body)
	if status != http.StatusCreated {
		t.Fatalf("create game: status %d, body %s", status, data)
	}
	var resp createResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.Key, resp.TurnInfo
}

func playMove(t *testing.T, ts *httptest.Server, key, move string) TurnInfo {
	t.Helper()
	status, data := doJSON(t, http.MethodPost, ts.URL+"/games/"+key+"/move", map[string]string{"move": move})
	if status != http.StatusOK {
		t.Fatalf("move %s: status %d, body %s", move, status, data)
	}
	var resp turnInfoResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode move response: %v", err)
	}
	return resp.TurnInfo
}

func TestCreateGame(t *testing.T) {
	ts := newTestServer(t)

	key, info := createGame(t, ts, "")
	if len(key) != keyLength {
		t.Errorf("key %q: length %d, want %d", key, len(key), keyLength)
	}
	if info.FEN != board.StartFEN {
		t.Errorf("fen = %s, want start position", info.FEN)
	}
	if info.Color != "white" || info.TurnNumber != 1 || info.InCheck {
		t.Errorf("turn_info = %+v, want white to move at turn 1", info)
	}
	if len(info.Moves) != 20 {
		t.Errorf("got %d legal moves, want 20", len(info.Moves))
	}
	if info.Status != statusInProgress {
		t.Errorf("status = %s, want %s", info.Status, statusInProgress)
	}
}

func TestCreateGameFromFEN(t *testing.T) {
	ts := newTestServer(t)

	const fen = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	_, info := createGame(t, ts, fen)
	if info.FEN != fen {
		t.Errorf("fen = %s, want %s", info.FEN, fen)
	}
	if info.Color != "black" {
		t.Errorf("color = %s, want black", info.Color)
	}
}

func TestCreateGameRejectsBadFEN(t *testing.T) {
	ts := newTestServer(t)

	status, data := doJSON(t, http.MethodPost, ts.URL+"/games", map[string]string{"fen": "not a position"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s, want 400", status, data)
	}
}

func TestGameNotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		status, _ := doJSON(t, method, ts.URL+"/games/AAAAAAAAAAAAAAA", nil)
		if status != http.StatusNotFound {
			t.Errorf("%s unknown game: status %d, want 404", method, status)
		}
	}
}

func TestPlayMoves(t *testing.T) {
	ts := newTestServer(t)
	key, _ := createGame(t, ts, "")

	info := playMove(t, ts, key, "e2e4")
	if info.Color != "black" || info.TurnNumber != 1 {
		t.Errorf("after e2e4: %+v, want black to move at turn 1", info)
	}

	// SAN is accepted alongside coordinate notation.
	info = playMove(t, ts, key, "Nf6")
	if info.Color != "white" || info.TurnNumber != 2 {
		t.Errorf("after Nf6: %+v, want white to move at turn 2", info)
	}

	status, data := doJSON(t, http.MethodPost, ts.URL+"/games/"+key+"/move", map[string]string{"move": "e2e4"})
	if status != http.StatusBadRequest {
		t.Errorf("illegal move: status %d, body %s, want 400", status, data)
	}

	// Reloading the game replays the stored moves.
	status, data = doJSON(t, http.MethodGet, ts.URL+"/games/"+key, nil)
	if status != http.StatusOK {
		t.Fatalf("turn info: status %d", status)
	}
	var resp turnInfoResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode turn info: %v", err)
	}
	if resp.TurnInfo.Color != "white" || resp.TurnInfo.TurnNumber != 2 {
		t.Errorf("reloaded turn_info = %+v", resp.TurnInfo)
	}
}

func TestCheckmateEndsGame(t *testing.T) {
	ts := newTestServer(t)
	key, _ := createGame(t, ts, "")

	for _, m := range []string{"f2f3", "e7e5", "g2g4"} {
		playMove(t, ts, key, m)
	}
	info := playMove(t, ts, key, "d8h4")
	if info.Status != statusCheckmate {
		t.Fatalf("status = %s, want %s", info.Status, statusCheckmate)
	}
	if !info.InCheck {
		t.Error("checkmated side not reported in check")
	}
	if len(info.Moves) != 0 {
		t.Errorf("finished game lists %d moves, want none", len(info.Moves))
	}

	status, data := doJSON(t, http.MethodPost, ts.URL+"/games/"+key+"/move", map[string]string{"move": "a2a3"})
	if status != http.StatusBadRequest {
		t.Errorf("move after mate: status %d, body %s, want 400", status, data)
	}
}

func TestListAndDelete(t *testing.T) {
	ts := newTestServer(t)

	k1, _ := createGame(t, ts, "")
	k2, _ := createGame(t, ts, "")

	status, data := doJSON(t, http.MethodGet, ts.URL+"/games", nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	var list struct {
		Games []string `json:"games"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Games) != 2 {
		t.Fatalf("list = %v, want both keys", list.Games)
	}

	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/games/"+k1, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete: status %d, want 204", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/games/"+k1, nil)
	if status != http.StatusNotFound {
		t.Errorf("deleted game still served: status %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/games/"+k2, nil)
	if status != http.StatusOK {
		t.Errorf("surviving game: status %d", status)
	}
}

func TestMoveSuggestion(t *testing.T) {
	ts := newTestServer(t)
	key, _ := createGame(t, ts, "")

	status, data := doJSON(t, http.MethodGet, ts.URL+"/games/"+key+"/move_suggestion?ms=50", nil)
	if status != http.StatusOK {
		t.Fatalf("suggestion: status %d, body %s", status, data)
	}
	var resp suggestionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode suggestion: %v", err)
	}
	pos, err := board.ParseFEN(board.StartFEN)
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if _, ok := pos.MoveFromCoord(resp.Move); !ok {
		t.Errorf("suggested move %q is not legal", resp.Move)
	}
	if !strings.HasPrefix(resp.Eval, "cp ") && !strings.HasPrefix(resp.Eval, "mate ") {
		t.Errorf("eval = %q, want cp or mate form", resp.Eval)
	}
	t.Logf("suggestion: %s (%s)", resp.Move, resp.Eval)

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/games/"+key+"/move_suggestion?ms=abc", nil)
	if status != http.StatusBadRequest {
		t.Errorf("bad ms: status %d, want 400", status)
	}
}

func TestSuggestionOnFinishedGame(t *testing.T) {
	ts := newTestServer(t)
	// Fool's mate, white to move and mated.
	key, _ := createGame(t, ts, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")

	status, data := doJSON(t, http.MethodGet, ts.URL+"/games/"+key+"/move_suggestion", nil)
	if status != http.StatusBadRequest {
		t.Errorf("suggestion on mated game: status %d, body %s, want 400", status, data)
	}
}

func TestPGNExport(t *testing.T) {
	ts := newTestServer(t)
	key, _ := createGame(t, ts, "")
	playMove(t, ts, key, "e2e4")
	playMove(t, ts, key, "e7e5")
	playMove(t, ts, key, "g1f3")

	resp, err := http.Get(ts.URL + "/games/" + key + "/pgn")
	if err != nil {
		t.Fatalf("GET pgn: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pgn: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-chess-pgn" {
		t.Errorf("content type = %q", ct)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read pgn: %v", err)
	}
	pgn := string(data)
	for _, san := range []string{"e4", "e5", "Nf3"} {
		if !strings.Contains(pgn, san) {
			t.Errorf("pgn missing %s:\n%s", san, pgn)
		}
	}
	t.Logf("pgn: %s", strings.TrimSpace(pgn))
}

func TestWatchStream(t *testing.T) {
	ts := newTestServer(t)
	key, _ := createGame(t, ts, "")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/games/" + key + "/watch"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()
	if resp != nil {
		resp.Body.Close()
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var snap TurnInfo
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("initial snapshot: %v", err)
	}
	if snap.Color != "white" || snap.Status != statusInProgress {
		t.Errorf("snapshot = %s/%s, want white/%s", snap.Color, snap.Status, statusInProgress)
	}

	playMove(t, ts, key, "e2e4")

	var update TurnInfo
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("update after move: %v", err)
	}
	if update.Color != "black" {
		t.Errorf("update color = %s, want black", update.Color)
	}

	// Deleting the game closes the stream with a normal close frame.
	status, _ := doJSON(t, http.MethodDelete, ts.URL+"/games/"+key, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete: status %d", status)
	}
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("read after delete: %v, want normal close", err)
	}
}
