package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/poalrom/big-web-quiz/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsMessage struct {
	ID   uint64          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// serveWS streams the participant channel over a websocket: the same
// id/delta contract as the long-poll endpoint, without re-polling. The
// client sends nothing; its read side only signals disconnect.
func (h *Handlers) serveWS(w http.ResponseWriter, r *http.Request, user domain.User) {
	lastSeen := parseEventID(r.URL.Query().Get("lastEventId"))
	sub, err := h.participants.Subscribe(identity(user), lastSeen)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	defer sub.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.WriteJSON(wsMessage{ID: msg.ID, Data: msg.Data}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
