package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/form"
	"github.com/sakanhub/listing/internal/model"
	"github.com/sakanhub/listing/internal/validate"
)

var (
	// ErrAuthRequired blocks submission before any network call when the
	// client carries no session token.
	ErrAuthRequired = errors.New("authentication required")

	// ErrValidationFailed is the blocking summary raised when local
	// validation rejects the record; field errors land on the session.
	ErrValidationFailed = errors.New("الرجاء تعبئة الحقول المطلوبة")

	// ErrSubmitInFlight refuses a second submit while one is running.
	ErrSubmitInFlight = errors.New("submission already in progress")
)

// listingPath is where both successful paths navigate: the main properties
// listing, even after completing a draft.
const listingPath = "/properties"

// Outcome tells the caller where to navigate after a successful submit.
type Outcome struct {
	Navigate string `json:"navigate"`
}

// Orchestrator sequences validation, formatting, persistence and error
// mapping. Submission is not cancellable once started and is never retried;
// failures surface to the user for manual resubmission.
type Orchestrator struct {
	client     *backend.Client
	formatter  *Formatter
	translator *backend.Translator
}

// NewOrchestrator wires the submit pipeline.
func NewOrchestrator(client *backend.Client, formatter *Formatter, translator *backend.Translator) *Orchestrator {
	return &Orchestrator{client: client, formatter: formatter, translator: translator}
}

// Submit runs the full pipeline: validate, format+upload, create or update,
// stamped with the publish status from the explicit user action.
func (o *Orchestrator) Submit(ctx context.Context, s *form.Session, publish bool) (*Outcome, error) {
	if !o.client.HasToken() {
		return nil, ErrAuthRequired
	}
	if !s.BeginSubmit() {
		return nil, ErrSubmitInFlight
	}
	defer s.EndSubmit()

	// The session lock is held across the whole pipeline: field edits wait
	// until the submit settles rather than racing the formatter.
	s.Lock()
	defer s.Unlock()

	if errs := validate.Validate(s.Data, s.Images, s.Previews, s.Mode); len(errs) > 0 {
		mergeErrors(s, errs)
		return nil, ErrValidationFailed
	}

	payload, err := o.formatter.Format(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("format submission: %w", err)
	}

	status := 0
	if publish {
		status = 1
	}
	payload.Status = &status

	if s.Mode == model.ModeAdd {
		err = o.client.CreateProperty(ctx, payload)
	} else {
		err = o.client.UpdateProperty(ctx, s.PropertyID, payload)
	}
	if err != nil {
		o.surfaceError(s, err)
		return nil, err
	}

	slog.Info("property submitted", "session_id", s.ID, "mode", s.Mode, "publish", publish)
	return &Outcome{Navigate: listingPath}, nil
}

// CompleteDraft runs the narrower draft-completion path with its reduced
// payload. The legacy purpose value "sold" goes out as "sale".
func (o *Orchestrator) CompleteDraft(ctx context.Context, s *form.Session) (*Outcome, error) {
	if !o.client.HasToken() {
		return nil, ErrAuthRequired
	}
	if !s.BeginSubmit() {
		return nil, ErrSubmitInFlight
	}
	defer s.EndSubmit()

	s.Lock()
	defer s.Unlock()

	if errs := validate.Validate(s.Data, s.Images, s.Previews, s.Mode); len(errs) > 0 {
		mergeErrors(s, errs)
		return nil, ErrValidationFailed
	}

	purpose := s.Data.Purpose
	if purpose == "sold" {
		purpose = "sale"
	}

	payload := &backend.CompleteDraftPayload{
		Title:       s.Data.Title,
		Description: s.Data.Description,
		Address:     s.Data.Address,
		City:        s.Data.City,
		District:    s.Data.District,
		CategoryID:  coerceInt(s.Data.CategoryID),
		Purpose:     purpose,
		Price:       coerceNumber(s.Data.Price),
		Latitude:    s.Data.Latitude,
		Longitude:   s.Data.Longitude,
	}

	if err := o.client.CompleteDraft(ctx, s.PropertyID, payload); err != nil {
		o.surfaceError(s, err)
		return nil, err
	}

	slog.Info("draft completed", "session_id", s.ID, "property_id", s.PropertyID)
	return &Outcome{Navigate: listingPath}, nil
}

// surfaceError maps a structured backend rejection into the same field-keyed
// error map local validation uses, and its conflicts into a flat message
// list. Other failures pass through for the transport layer to report.
func (o *Orchestrator) surfaceError(s *form.Session, err error) {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		return
	}
	mergeErrors(s, apiErr.FieldErrors(o.translator))
	s.Conflicts = apiErr.ConflictMessages(o.translator)
}

func mergeErrors(s *form.Session, errs map[string]string) {
	for field, msg := range errs {
		s.Errors[field] = msg
	}
}
