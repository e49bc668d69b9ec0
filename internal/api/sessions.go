package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/form"
	"github.com/sakanhub/listing/internal/geo"
	"github.com/sakanhub/listing/internal/loader"
	"github.com/sakanhub/listing/internal/model"
	"github.com/sakanhub/listing/internal/sessionstore"
	"github.com/sakanhub/listing/internal/upload"
)

type createSessionRequest struct {
	Mode       model.Mode `json:"mode"`
	PropertyID int64      `json:"property_id"`
	IsDraft    bool       `json:"is_draft"`
	ResumeID   string     `json:"resume_id,omitempty"`
}

// CreateSession handles POST /api/v1/sessions.
//
//	@Summary		Open a form session
//	@Description	Creates an editing session: a fresh default record for add mode, or the normalized backend record for edit mode
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	SessionResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Router			/api/v1/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Mode == "" {
		req.Mode = model.ModeAdd
	}
	switch req.Mode {
	case model.ModeAdd, model.ModeEdit, model.ModeEditDraft:
	default:
		writeError(w, http.StatusBadRequest, "invalid mode")
		return
	}
	if req.Mode != model.ModeAdd && req.PropertyID == 0 && req.ResumeID == "" {
		writeError(w, http.StatusBadRequest, "property_id is required for edit mode")
		return
	}

	var res *loader.Result
	if req.ResumeID != "" {
		restored, err := h.resume(r, &req)
		if err != nil {
			writeError(w, http.StatusNotFound, "no saved session to resume")
			return
		}
		res = restored
	} else {
		loaded, err := h.loader.Load(r.Context(), req.Mode, req.PropertyID, req.IsDraft)
		if err != nil {
			if errors.Is(err, backend.ErrNotFound) {
				writeError(w, http.StatusNotFound, "property not found")
				return
			}
			// Record-fetch failure blocks the edit session; the client
			// shows a retry affordance.
			slog.Error("record load failed", "property_id", req.PropertyID, "error", err)
			writeError(w, http.StatusBadGateway, "failed to load property, please retry")
			return
		}
		res = loaded
	}

	sess := form.NewSession(req.Mode, req.PropertyID, req.IsDraft, res, h.prober)
	entry := &sessionEntry{
		sess:    sess,
		mapSync: geo.NewSync(sess, h.geocoder, h.defaultZoom, h.searchZoom),
	}

	h.mu.Lock()
	h.sessions[sess.ID] = entry
	h.mu.Unlock()

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusCreated, sessionResponse(entry))
}

// resume rebuilds a loader result from an autosaved snapshot.
func (h *Handler) resume(r *http.Request, req *createSessionRequest) (*loader.Result, error) {
	if h.store == nil {
		return nil, errors.New("autosave disabled")
	}
	id, err := uuid.Parse(req.ResumeID)
	if err != nil {
		return nil, err
	}
	snap, err := h.store.Load(r.Context(), id)
	if err != nil {
		return nil, err
	}

	var payload snapshotPayload
	if err := json.Unmarshal(snap.Payload, &payload); err != nil {
		return nil, err
	}

	req.Mode = model.Mode(snap.Mode)
	req.PropertyID = snap.PropertyID
	req.IsDraft = snap.IsDraft
	return &loader.Result{
		Data:         payload.Data,
		Previews:     payload.Previews,
		VideoPreview: payload.VideoPreview,
		Issues:       payload.Issues,
	}, nil
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

// CloseSession handles DELETE /api/v1/sessions/{id}. Teardown revokes every
// local preview handle and drops the autosaved snapshot.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	h.mu.Lock()
	delete(h.sessions, entry.sess.ID)
	h.mu.Unlock()

	entry.sess.Close()
	if h.store != nil {
		if err := h.store.Delete(r.Context(), entry.sess.ID); err != nil {
			slog.Warn("failed to drop session snapshot", "session_id", entry.sess.ID, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// PatchFields handles PATCH /api/v1/sessions/{id}/fields. Editing a field
// clears its pending validation error.
func (h *Handler) PatchFields(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry.sess.Lock()
	for key, value := range fields {
		if err := entry.sess.SetField(key, value); err != nil {
			entry.sess.Unlock()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	entry.sess.Unlock()

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

// ToggleSection handles POST /api/v1/sessions/{id}/sections/{name}/toggle.
func (h *Handler) ToggleSection(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "section name is required")
		return
	}

	entry.sess.Lock()
	entry.sess.ToggleSection(name)
	entry.sess.Unlock()

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

// AddFeature handles POST /api/v1/sessions/{id}/features.
func (h *Handler) AddFeature(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req struct {
		Feature string `json:"feature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry.sess.Lock()
	entry.sess.AddFeature(req.Feature)
	entry.sess.Unlock()

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

// RemoveFeature handles DELETE /api/v1/sessions/{id}/features/{index}.
func (h *Handler) RemoveFeature(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid feature index")
		return
	}

	entry.sess.Lock()
	err = entry.sess.RemoveFeature(index)
	entry.sess.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

type faqRequest struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	DisplayOnPage bool   `json:"display_on_page"`
}

// AddFAQ handles POST /api/v1/sessions/{id}/faqs.
func (h *Handler) AddFAQ(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req faqRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry.sess.Lock()
	entry.sess.AddFAQ(req.Question, req.Answer, req.DisplayOnPage)
	entry.sess.Unlock()

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

// UpdateFAQ handles PATCH /api/v1/sessions/{id}/faqs/{faqID}.
func (h *Handler) UpdateFAQ(w http.ResponseWriter, r *http.Request) {
	h.faqOp(w, r, func(s *form.Session, id int64, req faqRequest) error {
		return s.UpdateFAQ(id, req.Question, req.Answer)
	})
}

// ToggleFAQ handles POST /api/v1/sessions/{id}/faqs/{faqID}/toggle.
func (h *Handler) ToggleFAQ(w http.ResponseWriter, r *http.Request) {
	h.faqOp(w, r, func(s *form.Session, id int64, _ faqRequest) error {
		return s.ToggleFAQ(id)
	})
}

// RemoveFAQ handles DELETE /api/v1/sessions/{id}/faqs/{faqID}.
func (h *Handler) RemoveFAQ(w http.ResponseWriter, r *http.Request) {
	h.faqOp(w, r, func(s *form.Session, id int64, _ faqRequest) error {
		return s.RemoveFAQ(id)
	})
}

func (h *Handler) faqOp(w http.ResponseWriter, r *http.Request, op func(*form.Session, int64, faqRequest) error) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	faqID, err := strconv.ParseInt(r.PathValue("faqID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid faq id")
		return
	}

	var req faqRequest
	if r.Body != nil {
		// Toggle and delete carry no body; decode errors are fine there.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	entry.sess.Lock()
	err = op(entry.sess, faqID, req)
	entry.sess.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

// autosave persists a best-effort snapshot after each mutation. Failures
// are logged, never surfaced; autosave is a convenience, not a gate.
func (h *Handler) autosave(r *http.Request, entry *sessionEntry) {
	if h.store == nil {
		return
	}
	s := entry.sess
	videoPreview := s.VideoPreview
	if upload.IsLocal(videoPreview) {
		videoPreview = ""
	}
	payload, err := json.Marshal(snapshotPayload{
		Data:         s.Data,
		Previews:     persistedPreviews(s.Previews),
		VideoPreview: videoPreview,
		Issues:       s.Issues,
	})
	if err != nil {
		slog.Warn("failed to encode session snapshot", "session_id", s.ID, "error", err)
		return
	}
	snap := &sessionstore.Snapshot{
		ID:         s.ID,
		Mode:       string(s.Mode),
		PropertyID: s.PropertyID,
		IsDraft:    s.IsDraft,
		Payload:    payload,
	}
	if err := h.store.Save(r.Context(), snap); err != nil {
		slog.Warn("session autosave failed", "session_id", s.ID, "error", err)
	}
}

// persistedPreviews drops transient local handles from a snapshot; staged
// binaries cannot outlive the session that minted them.
func persistedPreviews(p model.Previews) model.Previews {
	keepSingle := func(v string) string {
		if upload.IsLocal(v) {
			return ""
		}
		return v
	}
	keepList := func(items []string) []string {
		return lo.Filter(items, func(item string, _ int) bool {
			return !upload.IsLocal(item)
		})
	}
	return model.Previews{
		Thumbnail:  keepSingle(p.Thumbnail),
		Gallery:    keepList(p.Gallery),
		FloorPlans: keepList(p.FloorPlans),
		DeedImage:  keepSingle(p.DeedImage),
	}
}
