package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakanhub/listing/internal/geo"
)

type coordinatesRequest struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// DragMarker handles POST /api/v1/sessions/{id}/map/marker. The dropped
// coordinates stick even when the reverse geocode fails; only the address
// refresh is lost.
func (h *Handler) DragMarker(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req coordinatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry.sess.Lock()
	err = entry.mapSync.DragMarker(r.Context(), req.Latitude, req.Longitude)
	entry.sess.Unlock()
	if err != nil {
		slog.Warn("reverse geocode failed", "session_id", entry.sess.ID, "error", err)
	}

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

// SearchPlace handles POST /api/v1/sessions/{id}/map/search.
func (h *Handler) SearchPlace(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	entry.sess.Lock()
	_, err = entry.mapSync.SelectPlace(r.Context(), req.Query)
	entry.sess.Unlock()
	if err != nil {
		if errors.Is(err, geo.ErrNoResults) {
			writeError(w, http.StatusNotFound, "no places found")
			return
		}
		writeError(w, http.StatusBadGateway, "place search failed")
		return
	}

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

// UseCurrentLocation handles POST /api/v1/sessions/{id}/map/locate. The body
// carries the device reading; the address field is left alone on this path.
func (h *Handler) UseCurrentLocation(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req coordinatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry.sess.Lock()
	err = entry.mapSync.UseCurrentLocation(r.Context(), geo.StaticLocator{Lat: req.Latitude, Lng: req.Longitude})
	entry.sess.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}
