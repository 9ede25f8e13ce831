package handler

import (
	"log"
	"net/http"
	"sync"
	"time"

	"ImmichDrop/internal/hub"
	"ImmichDrop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsKeepalive = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// same-origin is not meaningful for a relay reached from shared
	// invite links
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsChannel adapts one websocket connection to the hub. Writes are
// serialized because gorilla permits one concurrent writer.
type wsChannel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsChannel) Send(ev hub.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteJSON(ev)
}

func (w *wsChannel) Close() error {
	return w.conn.Close()
}

func (w *wsChannel) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// WS upgrades the connection and subscribes it to the session named in
// the first client message. Everything after that is server push.
func WS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	var hello struct {
		SessionID string `json:"session_id"`
	}
	conn.SetReadDeadline(time.Now().Add(wsKeepalive))
	if err := conn.ReadJSON(&hello); err != nil || hello.SessionID == "" {
		conn.Close()
		return
	}

	ch := &wsChannel{conn: conn}
	if hub.Default.Subscribe(hello.SessionID, ch) {
		// a brand new browser session may follow album changes made
		// since the last resolution
		service.Remote.ResetAlbumCache()
	}
	defer func() {
		hub.Default.Unsubscribe(hello.SessionID, ch)
		conn.Close()
	}()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(2 * wsKeepalive))
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			// drain client frames so pongs and closes are processed
			conn.SetReadDeadline(time.Now().Add(2 * wsKeepalive))
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsKeepalive)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := ch.ping(); err != nil {
				return
			}
		}
	}
}
