package relay

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shorelink/internal/protocol"
	"shorelink/internal/util"
)

// writeWait bounds one subscriber write; a subscriber that cannot take the
// frame in time is dropped rather than allowed to stall the fan-out.
const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub accepts WebSocket subscribers on /telemetry and fans every decoded
// packet out to all of them.
type Hub struct {
	listener net.Listener

	mu   sync.Mutex
	subs map[string]*websocket.Conn
}

// NewHub creates an empty hub; Start brings up the listener.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*websocket.Conn)}
}

// Start begins serving on addr and returns the bound address, so callers
// may pass ":0" and read back the assigned port.
func (h *Hub) Start(addr string) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start relay: %w", err)
	}
	h.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", h.handleWS)

	go func() {
		_ = http.Serve(listener, mux)
	}()

	util.LogInfo("遥测转发已启动: ws://%s/telemetry", listener.Addr())
	return listener.Addr().String(), nil
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	key := conn.RemoteAddr().String()

	h.mu.Lock()
	h.subs[key] = conn
	n := len(h.subs)
	h.mu.Unlock()
	util.LogInfo("遥测订阅端已接入: %s (当前 %d)", key, n)

	// Subscribers never send anything we use; the read loop only notices
	// the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(key)
				return
			}
		}
	}()
}

// Subscribers reports how many connections are currently attached.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// HandleStatus forwards a platform status report to every subscriber.
func (h *Hub) HandleStatus(st *protocol.Status) error {
	return h.publish(&Message{Kind: KindStatus, Source: st.Header.Sender, Data: st})
}

// HandleContacts forwards a surface contact report to every subscriber.
func (h *Hub) HandleContacts(batch *protocol.ContactBatch) error {
	return h.publish(&Message{Kind: KindContacts, Source: batch.Header.Sender, Data: batch})
}

func (h *Hub) publish(msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode relay message: %w", err)
	}

	h.mu.Lock()
	conns := make(map[string]*websocket.Conn, len(h.subs))
	for key, conn := range h.subs {
		conns[key] = conn
	}
	h.mu.Unlock()

	for key, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			util.LogWarning("遥测订阅端写入失败, 断开: %s", key)
			h.drop(key)
		}
	}
	return nil
}

func (h *Hub) drop(key string) {
	h.mu.Lock()
	conn, ok := h.subs[key]
	if ok {
		delete(h.subs, key)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		conn.Close()
		util.LogInfo("遥测订阅端已断开: %s (当前 %d)", key, n)
	}
}

// Close shuts down the listener and disconnects every subscriber.
func (h *Hub) Close() {
	if h.listener != nil {
		h.listener.Close()
	}

	h.mu.Lock()
	conns := h.subs
	h.subs = make(map[string]*websocket.Conn)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		conn.Close()
	}
}
