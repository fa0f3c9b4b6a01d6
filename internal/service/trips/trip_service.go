package trips

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vkirilenko/busbooker/internal/domain"
	"github.com/vkirilenko/busbooker/internal/repository"
)

type TripUseCase interface {
	Search(ctx context.Context, origin, destination string, date *time.Time) ([]domain.Trip, error)
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
}

type TripCache interface {
	GetTrips(ctx context.Context, searchKey string) ([]domain.Trip, error)
	SetTrips(ctx context.Context, searchKey string, trips []domain.Trip) error
}

type TripService struct {
	repo  repository.TripRepository
	cache TripCache
}

func NewTripService(repo repository.TripRepository, cache TripCache) *TripService {
	return &TripService{repo: repo, cache: cache}
}

// Search is cache-aside per search key; seat availability in cached results
// may lag by up to the cache TTL.
func (s *TripService) Search(ctx context.Context, origin, destination string, date *time.Time) ([]domain.Trip, error) {
	key := searchKey(origin, destination, date)
	if s.cache != nil {
		if cached, err := s.cache.GetTrips(ctx, key); err == nil && cached != nil {
			return cached, nil
		}
	}

	trips, err := s.repo.Search(ctx, origin, destination, date)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetTrips(ctx, key, trips)
	}
	return trips, nil
}

func (s *TripService) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	return s.repo.GetByID(ctx, id)
}

func searchKey(origin, destination string, date *time.Time) string {
	day := "any"
	if date != nil {
		day = date.Format("2006-01-02")
	}
	return fmt.Sprintf("%s:%s:%s", strings.ToLower(origin), strings.ToLower(destination), day)
}

var _ TripUseCase = (*TripService)(nil)
