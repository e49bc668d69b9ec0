package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"

	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/submit"
)

// SubmitResponse carries the navigation target alongside the final session
// view.
type SubmitResponse struct {
	Outcome *submit.Outcome `json:"outcome"`
	Session SessionResponse `json:"session"`
}

// Submit handles POST /api/v1/sessions/{id}/submit.
//
//	@Summary		Submit the property
//	@Description	Validates, uploads staged media and creates or updates the property record
//	@Tags			submit
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	SubmitResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		422	{object}	SessionResponse
//	@Router			/api/v1/sessions/{id}/submit [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req struct {
		Publish bool `json:"publish"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.orchestrator.Submit(r.Context(), entry.sess, req.Publish)
	h.finishSubmit(w, r, entry, outcome, err)
}

// CompleteDraft handles POST /api/v1/sessions/{id}/complete-draft.
func (h *Handler) CompleteDraft(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	outcome, err := h.orchestrator.CompleteDraft(r.Context(), entry.sess)
	h.finishSubmit(w, r, entry, outcome, err)
}

func (h *Handler) finishSubmit(w http.ResponseWriter, r *http.Request, entry *sessionEntry, outcome *submit.Outcome, err error) {
	if err != nil {
		switch {
		case errors.Is(err, submit.ErrAuthRequired):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, submit.ErrSubmitInFlight):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, submit.ErrValidationFailed):
			// Field errors already landed on the session.
			h.writeJSON(w, http.StatusUnprocessableEntity, sessionResponse(entry))
		default:
			var apiErr *backend.APIError
			if errors.As(err, &apiErr) {
				h.writeJSON(w, http.StatusUnprocessableEntity, sessionResponse(entry))
				return
			}
			slog.Error("submission failed", "session_id", entry.sess.ID, "error", err)
			writeError(w, http.StatusBadGateway, "submission failed, please retry")
		}
		return
	}

	// The record now lives on the backend; the snapshot has served its
	// purpose.
	if h.store != nil {
		if derr := h.store.Delete(r.Context(), entry.sess.ID); derr != nil {
			slog.Warn("failed to drop session snapshot", "session_id", entry.sess.ID, "error", derr)
		}
	}
	h.writeJSON(w, http.StatusOK, SubmitResponse{Outcome: outcome, Session: sessionResponse(entry)})
}

// PreviewDescription handles GET /api/v1/sessions/{id}/description/preview:
// the markdown description rendered to sanitized HTML.
func (h *Handler) PreviewDescription(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	entry.sess.Lock()
	description := entry.sess.Data.Description
	entry.sess.Unlock()

	rendered := blackfriday.Run([]byte(description))
	safe := bluemonday.UGCPolicy().SanitizeBytes(rendered)

	h.writeJSON(w, http.StatusOK, map[string]string{"html": string(safe)})
}
