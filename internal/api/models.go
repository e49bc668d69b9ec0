package api

import (
	"github.com/sakanhub/listing/internal/geo"
	"github.com/sakanhub/listing/internal/model"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// SessionResponse is the full session view returned after every mutation so
// clients can re-render without extra round trips.
type SessionResponse struct {
	ID           string                 `json:"id"`
	Mode         model.Mode             `json:"mode"`
	PropertyID   int64                  `json:"property_id,omitempty"`
	IsDraft      bool                   `json:"is_draft"`
	Data         model.FormData         `json:"data"`
	Previews     model.Previews         `json:"previews"`
	VideoPreview string                 `json:"video_preview,omitempty"`
	Facilities   []string               `json:"facilities"`
	Errors       model.ValidationErrors `json:"errors"`
	Conflicts    []string               `json:"conflicts,omitempty"`
	Issues       *model.DraftIssues     `json:"issues,omitempty"`
	OpenSections map[string]bool        `json:"open_sections"`
	Map          geo.MapState           `json:"map"`
}

func sessionResponse(e *sessionEntry) SessionResponse {
	s := e.sess
	return SessionResponse{
		ID:           s.ID.String(),
		Mode:         s.Mode,
		PropertyID:   s.PropertyID,
		IsDraft:      s.IsDraft,
		Data:         s.Data,
		Previews:     s.Previews,
		VideoPreview: s.VideoPreview,
		Facilities:   s.ActiveFacilities(),
		Errors:       s.Errors,
		Conflicts:    s.Conflicts,
		Issues:       s.Issues,
		OpenSections: s.OpenSections,
		Map:          e.mapSync.Map,
	}
}

// snapshotPayload is what autosave persists: enough to resume editing.
// Staged binaries are deliberately excluded; they cannot outlive a session.
type snapshotPayload struct {
	Data         model.FormData     `json:"data"`
	Previews     model.Previews     `json:"previews"`
	VideoPreview string             `json:"video_preview,omitempty"`
	Issues       *model.DraftIssues `json:"issues,omitempty"`
}
