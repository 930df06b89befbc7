package cache

import (
	"context"
	"time"

	"github.com/rzpsarthak13/mgmt-repository/internal/repository"
	"github.com/rzpsarthak13/mgmt-repository/pkg/model"
)

// ApiRepository caches FindByID of the wrapped repository.
type ApiRepository struct {
	next  repository.ApiRepository
	cache *entityCache[model.Api]
}

var _ repository.ApiRepository = (*ApiRepository)(nil)

// NewApiRepository wraps next, caching entries for ttl (zero keeps them until evicted).
func NewApiRepository(next repository.ApiRepository, inv *Invalidator, ttl time.Duration) *ApiRepository {
	return &ApiRepository{
		next:  next,
		cache: newEntityCache[model.Api](inv, repository.ApiTable, ttl),
	}
}

// FindByID serves the API from the cache, loading it from next on a miss.
func (r *ApiRepository) FindByID(ctx context.Context, id string) (*model.Api, error) {
	return r.cache.get(ctx, id, r.next.FindByID)
}

// FindAll is not cached.
func (r *ApiRepository) FindAll(ctx context.Context) ([]*model.Api, error) {
	return r.next.FindAll(ctx)
}

// FindByVisibility is not cached.
func (r *ApiRepository) FindByVisibility(ctx context.Context, visibility model.Visibility) ([]*model.Api, error) {
	return r.next.FindByVisibility(ctx, visibility)
}

// FindByIDs is not cached.
func (r *ApiRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Api, error) {
	return r.next.FindByIDs(ctx, ids)
}

// FindByGroups is not cached.
func (r *ApiRepository) FindByGroups(ctx context.Context, groupIDs []string) ([]*model.Api, error) {
	return r.next.FindByGroups(ctx, groupIDs)
}

// Create evicts any stale entry left for the new id.
func (r *ApiRepository) Create(ctx context.Context, api *model.Api) (*model.Api, error) {
	created, err := r.next.Create(ctx, api)
	if api != nil {
		r.cache.evict(ctx, api.ID)
	}
	return created, err
}

// Update evicts the entry even when the update fails, since a failed
// sequence of statements may have changed some rows.
func (r *ApiRepository) Update(ctx context.Context, api *model.Api) (*model.Api, error) {
	updated, err := r.next.Update(ctx, api)
	if api != nil {
		r.cache.evict(ctx, api.ID)
	}
	return updated, err
}

// Delete evicts the entry.
func (r *ApiRepository) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.cache.evict(ctx, id)
	return err
}
