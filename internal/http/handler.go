// Package http exposes the queue over a small JSON API.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reeler/internal/logger"
	"reeler/internal/queue"
	"reeler/internal/store"
)

type Handler struct {
	Queue *queue.Service
	Store *store.DB
	Log   *logger.Logger
}

func NewHandler(q *queue.Service, db *store.DB, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Queue: q,
		Store: db,
		Log:   log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/queue", h.GetQueue)
		r.Delete("/queue/{id}", h.RemoveQueueItem)
		r.Post("/queue/{id}/grab", h.GrabQueueItem)
		r.Get("/queue/track-match", h.TrackMatch)
		r.Get("/blacklist", h.GetBlacklist)
		r.Get("/history", h.GetHistory)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Warn("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
