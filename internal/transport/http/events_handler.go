package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/poalrom/big-web-quiz/internal/broadcast"
	"github.com/poalrom/big-web-quiz/internal/domain"
)

// presentationSSE streams presentation state over server-sent events. On
// connect the client's Last-Event-ID is compared with the channel's; a
// mismatch queues one full rolling-state message before any delta. The
// subscription is closed exactly once whether the handler returns normally
// or the transport drops.
func (h *Handlers) presentationSSE(w http.ResponseWriter, r *http.Request, user domain.User) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	lastSeen := parseEventID(r.Header.Get("Last-Event-ID"))
	sub, err := h.presentation.Subscribe(identity(user), lastSeen)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	// Advisory reconnect interval for the EventSource client.
	fmt.Fprint(w, "retry: 100\n")
	flusher.Flush()

	for {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			fmt.Fprintf(w, "id: %d\ndata: %s\n\n", msg.ID, msg.Data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

type pollResponse struct {
	ID   uint64          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// longPoll holds the participant request open until one message is
// available, which is immediate for clients presenting a stale event id.
// No idle timeout: the connection lives until data or client disconnect.
func (h *Handlers) longPoll(w http.ResponseWriter, r *http.Request, user domain.User) {
	lastSeen := parseEventID(r.URL.Query().Get("lastEventId"))
	sub, err := h.participants.Subscribe(identity(user), lastSeen)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	defer sub.Close()

	select {
	case msg, ok := <-sub.C():
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, pollResponse{ID: msg.ID, Data: msg.Data})
	case <-r.Context().Done():
	}
}

func identity(user domain.User) broadcast.Identity {
	return broadcast.Identity{UserID: user.ID, Admin: user.Admin}
}

func parseEventID(raw string) uint64 {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
