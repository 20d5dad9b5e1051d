package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"nido/services/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Sessions already gate this route and the app is same-origin only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsHandler streams live collection snapshots over a websocket. Each
// message is the full collection after a committed change; the first message
// is the current state.
type EventsHandler struct {
	Store *store.Store
}

func NewEventsHandler(st *store.Store) *EventsHandler {
	return &EventsHandler{Store: st}
}

func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	collection := strings.TrimSpace(mux.Vars(r)["collection"])
	switch collection {
	case store.CollectionWatchItems, store.CollectionPlans, store.CollectionGoals:
	default:
		http.Error(w, "unknown collection", http.StatusNotFound)
		return
	}

	snapshots, cancel, err := h.Store.Subscribe(r.Context(), collection)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Reads are discarded; a read error is how we learn the client left.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
