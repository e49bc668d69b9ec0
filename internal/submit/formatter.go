package submit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/form"
	"github.com/sakanhub/listing/internal/model"
)

// Formatter turns the canonical record plus staged files into the backend
// payload: staged binaries are uploaded first and the returned references
// substituted; untouched slots fall back to their existing previews so a
// re-save never wipes them.
type Formatter struct {
	client       *backend.Client
	uploadOrigin string
	sanitizer    *bluemonday.Policy
}

// NewFormatter creates a formatter. uploadOrigin is the prefix stripped from
// asset paths in create payloads.
func NewFormatter(client *backend.Client, uploadOrigin string) *Formatter {
	return &Formatter{
		client:       client,
		uploadOrigin: uploadOrigin,
		sanitizer:    bluemonday.UGCPolicy(),
	}
}

// assetRef picks how an uploaded asset is addressed. Create payloads carry
// the origin-stripped path, update payloads the absolute URL as returned.
// The two endpoints intentionally address assets differently.
func (f *Formatter) assetRef(res *backend.UploadResult, mode model.Mode) string {
	if mode == model.ModeAdd {
		if res.Path != "" {
			return strings.TrimPrefix(res.Path, f.uploadOrigin)
		}
		return strings.TrimPrefix(res.URL, f.uploadOrigin)
	}
	if res.URL != "" {
		return res.URL
	}
	return res.Path
}

// Format builds the create/update payload for the session. Status is left
// unset; the caller stamps it from the explicit user action.
func (f *Formatter) Format(ctx context.Context, s *form.Session) (*backend.PropertyPayload, error) {
	mode := s.Mode
	data := s.Data

	payload := &backend.PropertyPayload{
		Title:              data.Title,
		Description:        f.sanitizer.Sanitize(data.Description),
		Address:            data.Address,
		City:               data.City,
		District:           data.District,
		CategoryID:         coerceInt(data.CategoryID),
		ProjectID:          coerceInt(data.ProjectID),
		BuildingID:         coerceInt(data.BuildingID),
		FacadeID:           coerceInt(data.FacadeID),
		Purpose:            data.Purpose,
		PropertyType:       string(data.PropertyType),
		PaymentMethod:      data.PaymentMethod,
		AdvertisingLicense: data.AdvertisingLicense,
		OwnerNumber:        data.OwnerNumber,
		VirtualTourURL:     data.VirtualTourURL,
		Price:              coerceNumber(data.Price),
		Latitude:           data.Latitude,
		Longitude:          data.Longitude,
		Characteristics:    coerceCharacteristics(data.Characteristics),
	}

	// Create serializes features to a comma-joined string; update keeps the
	// list form. Mirrors the backend's two endpoints.
	if mode == model.ModeAdd {
		payload.Features = strings.Join(data.Features, ",")
	} else {
		payload.Features = data.Features
	}

	payload.FAQs = lo.Map(data.FAQs, func(faq model.FAQ, _ int) backend.WireFAQ2 {
		return backend.WireFAQ2{
			ID:            faq.ID,
			Question:      faq.Question,
			Answer:        faq.Answer,
			DisplayOnPage: faq.DisplayOnPage,
		}
	})

	if err := f.attachMedia(ctx, s, payload); err != nil {
		return nil, err
	}

	return payload, nil
}

func (f *Formatter) attachMedia(ctx context.Context, s *form.Session, payload *backend.PropertyPayload) error {
	mode := s.Mode

	if s.Images.Thumbnail != nil {
		res, err := f.client.UploadImage(ctx, s.Images.Thumbnail)
		if err != nil {
			return fmt.Errorf("upload thumbnail: %w", err)
		}
		payload.FeaturedImage = f.assetRef(res, mode)
	} else {
		payload.FeaturedImage = s.Previews.Thumbnail
	}

	gallery, err := f.resolveList(ctx, s.Images.Gallery, s.Previews.Gallery, mode)
	if err != nil {
		return fmt.Errorf("upload gallery: %w", err)
	}
	payload.Gallery = gallery

	floorPlans, err := f.resolveList(ctx, s.Images.FloorPlans, s.Previews.FloorPlans, mode)
	if err != nil {
		return fmt.Errorf("upload floor plans: %w", err)
	}
	payload.FloorPlanningImage = floorPlans

	if s.Images.DeedImage != nil {
		res, err := f.client.UploadDeedImage(ctx, s.Images.DeedImage)
		if err != nil {
			return fmt.Errorf("upload deed image: %w", err)
		}
		payload.DeedImage = f.assetRef(res, mode)
	} else {
		payload.DeedImage = s.Previews.DeedImage
	}

	if s.Video != nil {
		res, err := f.client.UploadVideo(ctx, s.Video)
		if err != nil {
			return fmt.Errorf("upload video: %w", err)
		}
		payload.VideoURL = f.assetRef(res, mode)
	} else {
		payload.VideoURL = s.VideoPreview
	}

	return nil
}

// resolveList uploads the staged entries of a list slot in one batch and
// splices the results back in order; persisted entries (nil file) keep
// their preview value.
func (f *Formatter) resolveList(ctx context.Context, files []*model.File, previews []string, mode model.Mode) ([]string, error) {
	staged := lo.Filter(files, func(file *model.File, _ int) bool { return file != nil })

	var results []backend.UploadResult
	if len(staged) > 0 {
		var err error
		results, err = f.client.UploadImages(ctx, staged)
		if err != nil {
			return nil, err
		}
		if len(results) != len(staged) {
			return nil, backend.ErrUnexpectedResponse
		}
	}

	out := make([]string, 0, len(previews))
	next := 0
	for i, preview := range previews {
		if i < len(files) && files[i] != nil {
			out = append(out, f.assetRef(&results[next], mode))
			next++
			continue
		}
		if preview != "" {
			out = append(out, preview)
		}
	}
	return out, nil
}

// coerceNumber parses a characteristic's string form, defaulting to 0 on
// failure. The lenient default is deliberate; validation never gates these.
func coerceNumber(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

func coerceInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func coerceCharacteristics(chars map[string]string) map[string]float64 {
	out := make(map[string]float64, len(model.CharacteristicKeys))
	for _, key := range model.CharacteristicKeys {
		out[key] = coerceNumber(chars[key])
	}
	return out
}
