package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"foundry/internal/sim"
)

// watchEvent is the envelope pushed to watchers whenever a game's turn
// is persisted.
type watchEvent struct {
	Type    string        `json:"type"`
	GameID  string        `json:"game_id"`
	Quarter int           `json:"quarter"`
	State   sim.GameState `json:"state"`
}

// watcher is one websocket subscriber to a single game.
type watcher struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans freshly persisted game states out to websocket watchers,
// grouped by game id. Watchers are read-only; anything they send is
// discarded.
type Hub struct {
	log *slog.Logger

	mu    sync.Mutex
	rooms map[string]map[*watcher]bool
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:   log,
		rooms: map[string]map[*watcher]bool{},
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWatch upgrades the request and subscribes the connection to the
// game's state pushes until the client goes away.
func (h *Hub) ServeWatch(gameID string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "game_id", gameID, "err", err)
		return
	}

	c := &watcher{conn: conn, send: make(chan []byte, 16)}
	h.register(gameID, c)
	h.log.Info("watcher connected", "game_id", gameID)

	go c.writePump()
	c.readPump(func() {
		h.unregister(gameID, c)
		h.log.Info("watcher disconnected", "game_id", gameID)
	})
}

// BroadcastState pushes the new state to every watcher of the game. A
// watcher whose buffer is full is assumed dead and dropped.
func (h *Hub) BroadcastState(gameID string, st sim.GameState) {
	payload, err := json.Marshal(watchEvent{
		Type:    "quarter_advanced",
		GameID:  gameID,
		Quarter: st.Metadata.CurrentQuarter,
		State:   st,
	})
	if err != nil {
		h.log.Error("marshal watch event", "game_id", gameID, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[gameID] {
		select {
		case c.send <- payload:
		default:
			close(c.send)
			delete(h.rooms[gameID], c)
		}
	}
}

func (h *Hub) register(gameID string, c *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[gameID] == nil {
		h.rooms[gameID] = map[*watcher]bool{}
	}
	h.rooms[gameID][c] = true
}

func (h *Hub) unregister(gameID string, c *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[gameID]
	if room == nil {
		return
	}
	if _, ok := room[c]; ok {
		delete(room, c)
		close(c.send)
	}
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
}

// readPump drains (and ignores) client messages so pings are answered
// and closure is noticed. done runs exactly once, on disconnect.
func (c *watcher) readPump(done func()) {
	defer func() {
		done()
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *watcher) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
