package cache

import (
	"context"

	"github.com/Baaaki/pet-adoption/internal/models"
)

// ListingCache holds a snapshot of the available listings. It is a read
// optimisation only; the database stays the source of truth.
//
// Every Invalidate bumps a generation counter. A reader takes the generation
// before querying the database and hands it back to SetAvailable, which drops
// the snapshot if an invalidation happened in between.
type ListingCache interface {
	// GetAvailable reports ok=false on a miss.
	GetAvailable(ctx context.Context) (pets []models.Pet, ok bool, err error)
	Generation(ctx context.Context) (int64, error)
	SetAvailable(ctx context.Context, generation int64, pets []models.Pet) error
	Invalidate(ctx context.Context) error
	Close() error
}

// NoopCache always misses. Used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) GetAvailable(context.Context) ([]models.Pet, bool, error) { return nil, false, nil }
func (NoopCache) Generation(context.Context) (int64, error)                { return 0, nil }
func (NoopCache) SetAvailable(context.Context, int64, []models.Pet) error  { return nil }
func (NoopCache) Invalidate(context.Context) error                         { return nil }
func (NoopCache) Close() error                                             { return nil }
