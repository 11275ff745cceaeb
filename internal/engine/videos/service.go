package videos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_travel/internal/engine"
)

// Service is the ingestion collaborator: it turns raw search hits into
// persisted videos, one store write per record.
type Service struct {
	store Store
}

// NewService wraps store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// SaveFromAPI saves records tagged with category.
func (s *Service) SaveFromAPI(ctx context.Context, records []engine.RawVideoRecord, category string) (engine.BatchResult, error) {
	return s.save(ctx, records, Tag{Category: category})
}

// SaveByRegionAndCity saves records tagged with region and city.
func (s *Service) SaveByRegionAndCity(ctx context.Context, records []engine.RawVideoRecord, region, city string) (engine.BatchResult, error) {
	return s.save(ctx, records, Tag{Region: region, City: city})
}

// save writes each record on its own. A failed record is counted and its error
// joined into the result; the remaining records are still written.
func (s *Service) save(ctx context.Context, records []engine.RawVideoRecord, tag Tag) (engine.BatchResult, error) {
	if err := tag.validate(); err != nil {
		return engine.BatchResult{}, err
	}

	res := engine.BatchResult{Received: len(records)}
	var errs []error
	for _, rec := range records {
		if rec.ExternalID == "" {
			res.Failed++
			errs = append(errs, fmt.Errorf("%w: record %q has no external id", engine.ErrPersistence, rec.Title))
			continue
		}
		created, err := s.store.SaveVideo(ctx, rec, tag)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("%w: video %s: %w", engine.ErrPersistence, rec.ExternalID, err))
			slog.Warn("videos: save failed",
				slog.String("external_id", rec.ExternalID),
				slog.String("tag", tag.String()),
				slog.Any("error", err))
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, errors.Join(errs...)
}

// List returns stored videos matching f, most recently updated first.
func (s *Service) List(ctx context.Context, f VideoFilter) ([]Video, error) {
	return s.store.ListVideos(ctx, f)
}

// Count returns the number of stored videos.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.CountVideos(ctx)
}
