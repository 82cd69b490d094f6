package collab

import (
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxDisplayName = 64

// ServeWS upgrades requests on a route with a {mapId} variable and joins
// the caller to that map's room. Peers are anonymous: a ?user= id is kept
// so reconnects keep their colour, otherwise one is generated.
func (h *Hub) ServeWS(originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mapID := mux.Vars(r)["mapId"]
		if mapID == "" {
			http.Error(w, "missing map id", http.StatusBadRequest)
			return
		}

		q := r.URL.Query()
		userID := q.Get("user")
		if userID == "" {
			userID = "anon-" + uuid.New().String()[:8]
		}
		displayName := strings.TrimSpace(q.Get("name"))
		if displayName == "" {
			displayName = "Anonymous"
		}
		if r := []rune(displayName); len(r) > maxDisplayName {
			displayName = string(r[:maxDisplayName])
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			h.log.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(h, conn, userID, displayName, mapID, uuid.New().String())
		if !h.Register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}
