package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/sakanhub/listing/internal/model"
	"github.com/sakanhub/listing/internal/upload"
)

// maxUploadMemory bounds multipart parsing; bigger parts spill to disk.
const maxUploadMemory = 64 << 20

// MediaResponse wraps the session view with batch-acceptance info for the
// list slots.
type MediaResponse struct {
	Session  SessionResponse `json:"session"`
	Accepted int             `json:"accepted"`
	Warning  string          `json:"warning,omitempty"`
}

func readPart(header *multipart.FileHeader) (*model.File, error) {
	part, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	return &model.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        data,
	}, nil
}

// StageMedia handles POST /api/v1/sessions/{id}/media/{slot}. Single slots
// take one "file" part; list slots take repeated "files" parts and accept
// the valid subset of a batch.
func (h *Handler) StageMedia(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	slot := model.MediaSlot(r.PathValue("slot"))
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	if model.ListSlots[slot] {
		h.stageBatch(w, r, entry, slot)
		return
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	file, err := readPart(headers[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry.sess.Lock()
	switch slot {
	case model.SlotThumbnail:
		err = entry.sess.StageThumbnail(file)
	case model.SlotDeedImage:
		err = entry.sess.Uploads.StageDeedImage(file)
	default:
		err = fmt.Errorf("unknown media slot %q", slot)
	}
	entry.sess.Unlock()
	if err != nil {
		writeError(w, uploadStatus(err), err.Error())
		return
	}

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, MediaResponse{Session: sessionResponse(entry), Accepted: 1})
}

func (h *Handler) stageBatch(w http.ResponseWriter, r *http.Request, entry *sessionEntry, slot model.MediaSlot) {
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "missing files part")
		return
	}

	files := make([]*model.File, 0, len(headers))
	for _, header := range headers {
		file, err := readPart(header)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		files = append(files, file)
	}

	entry.sess.Lock()
	var accepted int
	var err error
	if slot == model.SlotGallery {
		accepted, err = entry.sess.Uploads.StageGallery(files)
	} else {
		accepted, err = entry.sess.Uploads.StageFloorPlans(files)
	}
	entry.sess.Unlock()

	res := MediaResponse{Session: sessionResponse(entry), Accepted: accepted}
	if errors.Is(err, upload.ErrBatchTruncated) {
		res.Warning = "بعض الملفات لم يتم قبولها"
	}

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, res)
}

// RemoveMedia handles DELETE /api/v1/sessions/{id}/media/{slot}. List slots
// take an index query parameter.
func (h *Handler) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	slot := model.MediaSlot(r.PathValue("slot"))
	index := 0
	if raw := r.URL.Query().Get("index"); raw != "" {
		index, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid index")
			return
		}
	}

	entry.sess.Lock()
	err = entry.sess.Uploads.RemoveImage(slot, index)
	entry.sess.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

// StageVideo handles POST /api/v1/sessions/{id}/video. Acceptance blocks on
// the duration probe; the file is not staged until it passes.
func (h *Handler) StageVideo(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	headers := r.MultipartForm.File["video"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "missing video part")
		return
	}
	file, err := readPart(headers[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry.sess.Lock()
	err = entry.sess.Uploads.StageVideo(r.Context(), file)
	entry.sess.Unlock()
	if err != nil {
		writeError(w, uploadStatus(err), err.Error())
		return
	}

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

// RemoveVideo handles DELETE /api/v1/sessions/{id}/video.
func (h *Handler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entry(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	entry.sess.Lock()
	entry.sess.Uploads.RemoveVideo()
	entry.sess.Unlock()

	h.autosave(r, entry)
	h.writeJSON(w, http.StatusOK, sessionResponse(entry))
}

func uploadStatus(err error) int {
	switch {
	case errors.Is(err, upload.ErrInvalidType),
		errors.Is(err, upload.ErrTooLarge),
		errors.Is(err, upload.ErrTooLong),
		errors.Is(err, upload.ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
