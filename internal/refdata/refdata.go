package refdata

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sakanhub/listing/internal/backend"
	"github.com/sakanhub/listing/internal/model"
)

// Data holds the read-only lookup lists that populate form choices.
type Data struct {
	Categories []model.Option `json:"categories"`
	Facades    []model.Option `json:"facades"`
	Projects   []model.Option `json:"projects"`
	Buildings  []model.Option `json:"buildings"`
	FAQPrompts []string       `json:"faq_prompts"`
}

// Loader fetches reference data from the backend.
type Loader struct {
	client *backend.Client
}

// New creates a reference data loader.
func New(client *backend.Client) *Loader {
	return &Loader{client: client}
}

// Load fires the lookups concurrently; completion order does not matter
// since each writes a disjoint slice of the result. A failed lookup
// degrades its list to empty rather than blocking the form, so Load never
// returns an error.
func (l *Loader) Load(ctx context.Context) *Data {
	data := &Data{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if data.Categories, err = l.client.Categories(ctx); err != nil {
			slog.Warn("categories lookup failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if data.Facades, err = l.client.Facades(ctx); err != nil {
			slog.Warn("facades lookup failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if data.Projects, err = l.client.Projects(ctx); err != nil {
			slog.Warn("projects lookup failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if data.Buildings, err = l.client.Buildings(ctx); err != nil {
			slog.Warn("buildings lookup failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if data.FAQPrompts, err = l.client.FAQPrompts(ctx); err != nil {
			slog.Warn("faq prompts lookup failed", "error", err)
		}
		return nil
	})

	_ = g.Wait()
	return data
}
