package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/Adithyan-b-raj/Anonchat/internal/chat"
	"github.com/Adithyan-b-raj/Anonchat/internal/repository"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub          *chat.Hub
	store        repository.Store
	historyLimit int
	upgrader     *websocket.Upgrader
}

func NewHandler(hub *chat.Hub, store repository.Store, historyLimit int) *Handler {
	return &Handler{
		hub:          hub,
		store:        store,
		historyLimit: historyLimit,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferPool: &sync.Pool{},
		},
	}
}

func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handleError(w, err)
		return
	}

	client := chat.NewClient(h.hub, conn, r.RemoteAddr)
	h.hub.ServeClient(r.Context(), client)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.RecentMessages(r.Context(), h.historyLimit)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(messages)
}

func (h *Handler) handleActiveUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ActiveUsers(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	resp := &ActiveUsersResponse{
		Count: len(users),
		Users: users,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(200)
	w.Write([]byte("ok"))
}
