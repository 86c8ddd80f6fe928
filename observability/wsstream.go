package observability

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"
)

// upgrader is shared by every websocket connection. CheckOrigin is
// permissive since this endpoint only ever serves read-only round progress.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 5 * time.Second

// WebsocketHandler upgrades the connection and streams every ProgressEvent
// published on hub as a JSON text frame until the client disconnects.
func WebsocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("observability: websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		ch, unsubscribe := hub.subscribe()
		defer unsubscribe()

		go drainClient(conn)

		for ev := range ch {
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// drainClient reads and discards frames so the client's close control
// message is observed and the connection's read deadline never trips.
func drainClient(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
