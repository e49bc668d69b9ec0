package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakanhub/listing/internal/model"
)

const (
	// MaxImageSize is the image limit; a file of exactly this size is
	// rejected (the check is size >= MaxImageSize).
	MaxImageSize = 10 * 1024 * 1024

	// MaxVideoSize is the video size limit, same strict boundary.
	MaxVideoSize = 50 * 1024 * 1024

	// MaxVideoDuration is the video length limit; exactly 300s is
	// accepted (the check is duration > MaxVideoDuration). The operator
	// asymmetry against the size checks is intentional.
	MaxVideoDuration = 300 * time.Second
)

var (
	ErrInvalidType = errors.New("unsupported file type")
	ErrTooLarge    = errors.New("file too large")
	ErrTooLong     = errors.New("video too long")
	ErrDecode      = errors.New("could not read media metadata")

	// ErrBatchTruncated tells the caller a batch was only partially
	// accepted; valid files were still staged.
	ErrBatchTruncated = errors.New("some files were rejected")
)

// DurationProber reads the decoded duration of a video. Staging blocks on
// it; a file is not treated as staged until the probe passes.
type DurationProber interface {
	Duration(ctx context.Context, f *model.File) (time.Duration, error)
}

// Manager validates and stages binary assets for one form session, keeping
// the Images and Previews maps index-aligned and managing the preview
// handle lifecycle.
type Manager struct {
	images       *model.Images
	previews     *model.Previews
	video        **model.File
	videoPreview *string
	registry     *Registry
	prober       DurationProber
}

// NewManager wires a manager to one session's media state.
func NewManager(images *model.Images, previews *model.Previews, video **model.File, videoPreview *string, registry *Registry, prober DurationProber) *Manager {
	return &Manager{
		images:       images,
		previews:     previews,
		video:        video,
		videoPreview: videoPreview,
		registry:     registry,
		prober:       prober,
	}
}

func validateImage(f *model.File) error {
	if !strings.HasPrefix(f.ContentType, "image/") {
		return fmt.Errorf("%s: %w", f.Name, ErrInvalidType)
	}
	if f.Size >= MaxImageSize {
		return fmt.Errorf("%s: %w", f.Name, ErrTooLarge)
	}
	return nil
}

// StageThumbnail validates and stages the thumbnail, replacing and revoking
// any prior local preview for the slot.
func (m *Manager) StageThumbnail(f *model.File) error {
	if err := validateImage(f); err != nil {
		return err
	}
	m.images.Thumbnail = f
	m.replaceSingle(&m.previews.Thumbnail, f)
	return nil
}

// StageDeedImage validates and stages the deed image.
func (m *Manager) StageDeedImage(f *model.File) error {
	if err := validateImage(f); err != nil {
		return err
	}
	m.images.DeedImage = f
	m.replaceSingle(&m.previews.DeedImage, f)
	return nil
}

// StageGallery appends the valid files of a batch to the gallery; invalid
// files are dropped. Returns the number accepted and ErrBatchTruncated when
// the input was not fully accepted.
func (m *Manager) StageGallery(files []*model.File) (int, error) {
	return m.stageList(&m.images.Gallery, &m.previews.Gallery, files)
}

// StageFloorPlans appends the valid files of a batch to the floor plans.
func (m *Manager) StageFloorPlans(files []*model.File) (int, error) {
	return m.stageList(&m.images.FloorPlans, &m.previews.FloorPlans, files)
}

func (m *Manager) stageList(images *[]*model.File, previews *[]string, files []*model.File) (int, error) {
	accepted := 0
	for _, f := range files {
		if err := validateImage(f); err != nil {
			continue
		}
		*images = append(*images, f)
		*previews = append(*previews, m.registry.Create(f))
		accepted++
	}
	if accepted < len(files) {
		return accepted, ErrBatchTruncated
	}
	return accepted, nil
}

// StageVideo validates type, size and decoded duration before committing.
// The duration probe blocks acceptance; on failure nothing is staged.
func (m *Manager) StageVideo(ctx context.Context, f *model.File) error {
	if !strings.HasPrefix(f.ContentType, "video/") {
		return fmt.Errorf("%s: %w", f.Name, ErrInvalidType)
	}
	if f.Size >= MaxVideoSize {
		return fmt.Errorf("%s: %w", f.Name, ErrTooLarge)
	}
	duration, err := m.prober.Duration(ctx, f)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", f.Name, ErrDecode, err)
	}
	if duration > MaxVideoDuration {
		return fmt.Errorf("%s: %w", f.Name, ErrTooLong)
	}

	*m.video = f
	m.replaceSingle(m.videoPreview, f)
	return nil
}

func (m *Manager) replaceSingle(preview *string, f *model.File) {
	if IsLocal(*preview) {
		m.registry.Revoke(*preview)
	}
	*preview = m.registry.Create(f)
}

// RemoveImage clears a single slot, or removes one entry of a list slot
// while preserving index alignment between Images and Previews.
func (m *Manager) RemoveImage(slot model.MediaSlot, index int) error {
	switch slot {
	case model.SlotThumbnail:
		m.clearSingle(&m.images.Thumbnail, &m.previews.Thumbnail)
	case model.SlotDeedImage:
		m.clearSingle(&m.images.DeedImage, &m.previews.DeedImage)
	case model.SlotGallery:
		return m.removeAt(&m.images.Gallery, &m.previews.Gallery, index)
	case model.SlotFloorPlans:
		return m.removeAt(&m.images.FloorPlans, &m.previews.FloorPlans, index)
	default:
		return fmt.Errorf("unknown media slot %q", slot)
	}
	return nil
}

func (m *Manager) clearSingle(file **model.File, preview *string) {
	m.registry.Revoke(*preview)
	*file = nil
	*preview = ""
}

// removeAt removes the entry at index from both parallel lists. Persisted
// entries hold a nil file placeholder, so the lists always stay equal-length
// and index-aligned.
func (m *Manager) removeAt(images *[]*model.File, previews *[]string, index int) error {
	if index < 0 || index >= len(*previews) {
		return fmt.Errorf("media index %d out of range", index)
	}
	m.registry.Revoke((*previews)[index])
	*previews = append((*previews)[:index], (*previews)[index+1:]...)
	*images = append((*images)[:index], (*images)[index+1:]...)
	return nil
}

// RemoveVideo clears the staged video and its preview.
func (m *Manager) RemoveVideo() {
	m.registry.Revoke(*m.videoPreview)
	*m.video = nil
	*m.videoPreview = ""
}
