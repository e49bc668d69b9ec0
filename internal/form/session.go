package form

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakanhub/listing/internal/loader"
	"github.com/sakanhub/listing/internal/model"
	"github.com/sakanhub/listing/internal/upload"
)

// Session is the single owner of one form-editing session's mutable state:
// the canonical record, staged files, previews, validation errors and UI
// flags. It is created at view entry and closed at view exit; Close releases
// every local preview handle.
type Session struct {
	ID         uuid.UUID
	Mode       model.Mode
	PropertyID int64
	IsDraft    bool

	mu           sync.Mutex
	Data         model.FormData
	Images       model.Images
	Previews     model.Previews
	Video        *model.File
	VideoPreview string
	Errors       model.ValidationErrors
	Conflicts    []string
	Issues       *model.DraftIssues
	OpenSections map[string]bool

	Registry *upload.Registry
	Uploads  *upload.Manager

	submitting bool
}

// NewSession builds a session from a loaded record. List-slot images get a
// nil placeholder per persisted preview so Images and Previews stay
// equal-length and index-aligned from the start.
func NewSession(mode model.Mode, propertyID int64, isDraft bool, res *loader.Result, prober upload.DurationProber) *Session {
	s := &Session{
		ID:           uuid.New(),
		Mode:         mode,
		PropertyID:   propertyID,
		IsDraft:      isDraft,
		Data:         res.Data,
		Previews:     res.Previews,
		VideoPreview: res.VideoPreview,
		Errors:       model.ValidationErrors{},
		Issues:       res.Issues,
		OpenSections: map[string]bool{"basic": true},
		Registry:     upload.NewRegistry(),
	}
	s.Images.Gallery = make([]*model.File, len(s.Previews.Gallery))
	s.Images.FloorPlans = make([]*model.File, len(s.Previews.FloorPlans))
	s.Uploads = upload.NewManager(&s.Images, &s.Previews, &s.Video, &s.VideoPreview, s.Registry, prober)
	return s
}

// Lock serializes access for multi-step operations. All backend calls are
// asynchronous but never race: the session is the sole serialization point.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// SetField writes one field by key and clears its pending validation error.
func (s *Session) SetField(key, value string) error {
	if !s.Data.SetField(key, value) {
		return fmt.Errorf("unknown field %q", key)
	}
	delete(s.Errors, key)
	return nil
}

// StageThumbnail stages the thumbnail and clears its pending validation
// error, same contract as SetField.
func (s *Session) StageThumbnail(f *model.File) error {
	if err := s.Uploads.StageThumbnail(f); err != nil {
		return err
	}
	delete(s.Errors, "thumbnail")
	return nil
}

// Coordinates implements the location store consumed by the map sync.
func (s *Session) Coordinates() (float64, float64) {
	return s.Data.Latitude, s.Data.Longitude
}

// SetCoordinates writes the shared latitude/longitude output.
func (s *Session) SetCoordinates(lat, lng float64) {
	s.Data.Latitude = lat
	s.Data.Longitude = lng
}

// SetAddress overwrites the free-text address field and clears its error.
func (s *Session) SetAddress(address string) {
	s.Data.Address = address
	delete(s.Errors, "address")
}

// AddFeature appends a feature, ignoring blanks.
func (s *Session) AddFeature(feature string) {
	if feature == "" {
		return
	}
	s.Data.Features = append(s.Data.Features, feature)
}

// RemoveFeature drops the feature at index.
func (s *Session) RemoveFeature(index int) error {
	if index < 0 || index >= len(s.Data.Features) {
		return fmt.Errorf("feature index %d out of range", index)
	}
	s.Data.Features = append(s.Data.Features[:index], s.Data.Features[index+1:]...)
	return nil
}

// AddFAQ creates an entry with a clock-minted id.
func (s *Session) AddFAQ(question, answer string, display bool) model.FAQ {
	faq := model.FAQ{
		ID:            time.Now().UnixMilli(),
		Question:      question,
		Answer:        answer,
		DisplayOnPage: display,
	}
	s.Data.FAQs = append(s.Data.FAQs, faq)
	return faq
}

// UpdateFAQ edits question/answer of an existing entry.
func (s *Session) UpdateFAQ(id int64, question, answer string) error {
	for i := range s.Data.FAQs {
		if s.Data.FAQs[i].ID == id {
			s.Data.FAQs[i].Question = question
			s.Data.FAQs[i].Answer = answer
			return nil
		}
	}
	return fmt.Errorf("faq %d not found", id)
}

// ToggleFAQ flips the display-on-page flag.
func (s *Session) ToggleFAQ(id int64) error {
	for i := range s.Data.FAQs {
		if s.Data.FAQs[i].ID == id {
			s.Data.FAQs[i].DisplayOnPage = !s.Data.FAQs[i].DisplayOnPage
			return nil
		}
	}
	return fmt.Errorf("faq %d not found", id)
}

// RemoveFAQ deletes an entry.
func (s *Session) RemoveFAQ(id int64) error {
	for i := range s.Data.FAQs {
		if s.Data.FAQs[i].ID == id {
			s.Data.FAQs = append(s.Data.FAQs[:i], s.Data.FAQs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("faq %d not found", id)
}

// ToggleSection flips a UI open/closed flag.
func (s *Session) ToggleSection(name string) {
	s.OpenSections[name] = !s.OpenSections[name]
}

// ActiveFacilities recomputes the derived facility selection.
func (s *Session) ActiveFacilities() []string {
	return ActiveFacilities(s.Data)
}

// BeginSubmit marks the session busy. Submissions are mutually exclusive
// per session; a second submit while one is in flight is refused.
func (s *Session) BeginSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return false
	}
	s.submitting = true
	return true
}

// EndSubmit clears the busy flag.
func (s *Session) EndSubmit() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

// Close tears the session down and revokes every local preview handle.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Registry.Close()
}
