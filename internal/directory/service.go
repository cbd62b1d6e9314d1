// Package directory serves the public, denylist-filtered view of the log.
package directory

import (
	"context"

	"github.com/starford/torlist/internal/logstore"
	"github.com/starford/torlist/internal/metrics"
	"github.com/starford/torlist/internal/models"
	"github.com/starford/torlist/internal/redact"
)

// DenylistSource supplies the hashes currently denied.
type DenylistSource interface {
	Hashes(ctx context.Context) ([]string, error)
}

// Service reads listings and hides denylisted ones.
type Service struct {
	store    logstore.Store
	denylist DenylistSource
}

// NewService creates a Service.
func NewService(store logstore.Store, denylist DenylistSource) *Service {
	return &Service{store: store, denylist: denylist}
}

// ListAll returns every visible listing in log order.
func (s *Service) ListAll(ctx context.Context) ([]models.Listing, error) {
	records, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	return s.filter(ctx, records)
}

// ListByCategory returns the visible listings filed under category. An
// unknown category simply matches nothing.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]models.Listing, error) {
	records, err := s.store.Query(ctx, func(r logstore.Record) bool {
		return r[models.FieldCategory] == category
	})
	if err != nil {
		return nil, err
	}
	return s.filter(ctx, records)
}

// ListRaw returns every listing, denylisted or not.
func (s *Service) ListRaw(ctx context.Context) ([]models.Listing, error) {
	records, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	return toListings(records), nil
}

func (s *Service) filter(ctx context.Context, records []logstore.Record) ([]models.Listing, error) {
	listings := toListings(records)
	if len(listings) == 0 {
		return listings, nil
	}
	denied, err := s.denylist.Hashes(ctx)
	if err != nil {
		return nil, err
	}
	visible := redact.Filter(listings, denied)
	if n := redact.Removed(listings, visible); n > 0 {
		metrics.ListingsRedacted.Add(float64(n))
	}
	return visible, nil
}

func toListings(records []logstore.Record) []models.Listing {
	out := make([]models.Listing, len(records))
	for i, r := range records {
		out[i] = models.ListingFromRecord(r)
	}
	return out
}
