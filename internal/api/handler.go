package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/form"
	"github.com/sakanhub/listing/internal/geo"
	"github.com/sakanhub/listing/internal/loader"
	"github.com/sakanhub/listing/internal/refdata"
	"github.com/sakanhub/listing/internal/sessionstore"
	"github.com/sakanhub/listing/internal/submit"
	"github.com/sakanhub/listing/internal/upload"
)

// Handler drives form sessions over a thin JSON API. It owns the live
// session registry; every other component is injected.
type Handler struct {
	client       *backend.Client
	loader       *loader.Loader
	reference    *refdata.Data
	geocoder     geo.Geocoder
	prober       upload.DurationProber
	orchestrator *submit.Orchestrator
	store        *sessionstore.Store // nil disables autosave

	defaultZoom int
	searchZoom  int

	bufferPool *sync.Pool

	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
}

type sessionEntry struct {
	sess    *form.Session
	mapSync *geo.Sync
}

// New creates the API handler. The session store may be nil.
func New(client *backend.Client, ldr *loader.Loader, reference *refdata.Data, geocoder geo.Geocoder, prober upload.DurationProber, orchestrator *submit.Orchestrator, store *sessionstore.Store, defaultZoom, searchZoom int) (*Handler, error) {
	if client == nil {
		return nil, errors.New("backend client is required")
	}
	if ldr == nil {
		return nil, errors.New("record loader is required")
	}
	if orchestrator == nil {
		return nil, errors.New("submit orchestrator is required")
	}
	if geocoder == nil {
		return nil, errors.New("geocoder is required")
	}
	return &Handler{
		client:       client,
		loader:       ldr,
		reference:    reference,
		geocoder:     geocoder,
		prober:       prober,
		orchestrator: orchestrator,
		store:        store,
		defaultZoom:  defaultZoom,
		searchZoom:   searchZoom,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
		sessions: make(map[uuid.UUID]*sessionEntry),
	}, nil
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/reference", h.Reference)

	mux.HandleFunc("POST /api/v1/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.CloseSession)
	mux.HandleFunc("PATCH /api/v1/sessions/{id}/fields", h.PatchFields)

	mux.HandleFunc("POST /api/v1/sessions/{id}/sections/{name}/toggle", h.ToggleSection)

	mux.HandleFunc("POST /api/v1/sessions/{id}/features", h.AddFeature)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/features/{index}", h.RemoveFeature)

	mux.HandleFunc("POST /api/v1/sessions/{id}/faqs", h.AddFAQ)
	mux.HandleFunc("PATCH /api/v1/sessions/{id}/faqs/{faqID}", h.UpdateFAQ)
	mux.HandleFunc("POST /api/v1/sessions/{id}/faqs/{faqID}/toggle", h.ToggleFAQ)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/faqs/{faqID}", h.RemoveFAQ)

	mux.HandleFunc("POST /api/v1/sessions/{id}/media/{slot}", h.StageMedia)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/media/{slot}", h.RemoveMedia)
	mux.HandleFunc("POST /api/v1/sessions/{id}/video", h.StageVideo)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/video", h.RemoveVideo)

	mux.HandleFunc("POST /api/v1/sessions/{id}/map/marker", h.DragMarker)
	mux.HandleFunc("POST /api/v1/sessions/{id}/map/search", h.SearchPlace)
	mux.HandleFunc("POST /api/v1/sessions/{id}/map/locate", h.UseCurrentLocation)

	mux.HandleFunc("GET /api/v1/sessions/{id}/description/preview", h.PreviewDescription)

	mux.HandleFunc("POST /api/v1/sessions/{id}/submit", h.Submit)
	mux.HandleFunc("POST /api/v1/sessions/{id}/complete-draft", h.CompleteDraft)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	buf := h.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		h.bufferPool.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, `{"error":"internal server error","code":500}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Code: status})
}

// entry resolves the {id} path segment to a live session.
func (h *Handler) entry(r *http.Request) (*sessionEntry, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return nil, errors.New("invalid session id")
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.sessions[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	return entry, nil
}

// Reference handles GET /api/v1/reference.
//
//	@Summary		Reference data
//	@Description	Returns the lookup lists that populate form choices
//	@Tags			reference
//	@Produce		json
//	@Success		200	{object}	refdata.Data
//	@Router			/api/v1/reference [get]
func (h *Handler) Reference(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.reference)
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
