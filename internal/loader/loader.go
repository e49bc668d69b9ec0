package loader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/model"
)

// Loader fetches one property record and normalizes it into the canonical
// FormData shape, regardless of whether it came from the draft endpoint or
// the published endpoint.
type Loader struct {
	client      *backend.Client
	fallbackLat float64
	fallbackLng float64
}

// Result is a normalized record with its pre-populated previews. Issues is
// non-nil only for drafts and carries the server's own missing-field and
// validation-error lists, passed through untouched for UI highlighting.
type Result struct {
	Data         model.FormData
	Previews     model.Previews
	VideoPreview string
	Issues       *model.DraftIssues
}

// New creates a loader.
func New(client *backend.Client, fallbackLat, fallbackLng float64) *Loader {
	return &Loader{client: client, fallbackLat: fallbackLat, fallbackLng: fallbackLng}
}

// Load returns the record for the session. Add mode returns the built-in
// default record without touching the network. Edit mode fetches exactly one
// resource, selected by isDraft, then resolves the project match with a
// second, strictly sequential projects fetch.
func (l *Loader) Load(ctx context.Context, mode model.Mode, id int64, isDraft bool) (*Result, error) {
	if mode == model.ModeAdd {
		return &Result{Data: model.DefaultFormData(l.fallbackLat, l.fallbackLng)}, nil
	}

	var (
		record *backend.Property
		err    error
	)
	if isDraft {
		record, err = l.client.Draft(ctx, id)
	} else {
		record, err = l.client.Property(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load property %d: %w", id, err)
	}

	res := l.normalize(record, isDraft)

	// The project match needs the projects list; it must complete before
	// the matched project can be written.
	if err := l.resolveProject(ctx, &res.Data); err != nil {
		slog.Warn("project match skipped", "property_id", id, "error", err)
	}

	return res, nil
}

func (l *Loader) normalize(p *backend.Property, isDraft bool) *Result {
	data := model.DefaultFormData(l.fallbackLat, l.fallbackLng)

	data.Title = localizedField(p, "title")
	data.Address = localizedField(p, "address")
	data.Description = localizedField(p, "description")
	data.City = localizedField(p, "city")
	data.District = localizedField(p, "district")

	for _, m := range charMappings {
		if v := m.resolve(p); v != "" {
			data.Characteristics[m.key] = v
		}
	}

	data.CategoryID = p.Top("category_id")
	data.ProjectID = p.Top("project_id")
	data.BuildingID = p.Top("building_id")
	data.FacadeID = p.Top("facade_id")
	data.Purpose = p.Top("purpose")
	data.PaymentMethod = p.Top("payment_method")
	data.AdvertisingLicense = p.Top("advertising_license")
	data.OwnerNumber = p.Top("owner_number")
	data.VirtualTourURL = p.Top("virtual_tour_url")
	data.Price = p.Top("price")
	data.PropertyType = resolvePropertyType(p)

	if lat, ok := p.TopFloat("latitude"); ok {
		data.Latitude = lat
	}
	if lng, ok := p.TopFloat("longitude"); ok {
		data.Longitude = lng
	}

	if features := normalizeFeatures(p); features != nil {
		data.Features = features
	}
	data.FAQs = normalizeFAQs(p.FAQs())

	res := &Result{
		Data:         data,
		Previews:     normalizePreviews(p),
		VideoPreview: p.Top("video_url"),
	}

	if isDraft {
		res.Issues = &model.DraftIssues{
			MissingFields:    p.DraftStrings("missing_fields"),
			MissingFieldsAr:  p.DraftStrings("missing_fields_ar"),
			ValidationErrors: p.DraftStrings("validation_errors"),
		}
	}

	return res
}

// resolveProject keeps the record's project id only when it matches one of
// the user's projects.
func (l *Loader) resolveProject(ctx context.Context, data *model.FormData) error {
	if data.ProjectID == "" {
		return nil
	}
	projects, err := l.client.Projects(ctx)
	if err != nil {
		data.ProjectID = ""
		return fmt.Errorf("fetch projects: %w", err)
	}
	for _, project := range projects {
		if fmt.Sprintf("%d", project.ID) == data.ProjectID {
			return nil
		}
	}
	data.ProjectID = ""
	return nil
}
