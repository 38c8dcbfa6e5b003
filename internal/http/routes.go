package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"reeler/internal/clients"
	"reeler/internal/constants"
	"reeler/internal/queue"
)

func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Queue.List())
}

func (h *Handler) RemoveQueueItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid queue id")
		return
	}
	blacklist := r.URL.Query().Get("blacklist") == "true"

	result, err := h.Queue.Remove(r.Context(), id, blacklist)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, result)
	case errors.Is(err, queue.ErrPartialRemoval):
		// Internal cleanup applied; the caller gets the step results as
		// warnings rather than a failure.
		h.writeJSON(w, http.StatusOK, result)
	case errors.Is(err, queue.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, clients.ErrClientGone):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) GrabQueueItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid queue id")
		return
	}

	downloadID, err := h.Queue.Grab(r.Context(), id)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, map[string]string{"download_id": downloadID})
	case errors.Is(err, queue.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, clients.ErrNoClients), errors.Is(err, clients.ErrClientGone):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) TrackMatch(w http.ResponseWriter, r *http.Request) {
	artistID := r.URL.Query().Get("artist_id")
	albumID := r.URL.Query().Get("album_id")
	title := r.URL.Query().Get("title")
	if artistID == "" || albumID == "" || title == "" {
		h.writeError(w, http.StatusBadRequest, "artist_id, album_id and title are required")
		return
	}

	track, err := h.Queue.FindTrackByTitle(r.Context(), artistID, albumID, title)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"track": track})
}

func (h *Handler) GetBlacklist(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListBlacklist(constants.MaxBlacklistItems)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.Store.ListEvents(constants.MaxHistoryItems)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}
