package cache

import (
	"context"
	"time"

	"github.com/rzpsarthak13/mgmt-repository/internal/repository"
	"github.com/rzpsarthak13/mgmt-repository/pkg/model"
)

// IdentityProviderRepository caches FindByID of the wrapped repository.
type IdentityProviderRepository struct {
	next  repository.IdentityProviderRepository
	cache *entityCache[model.IdentityProvider]
}

var _ repository.IdentityProviderRepository = (*IdentityProviderRepository)(nil)

// NewIdentityProviderRepository wraps next, caching entries for ttl.
func NewIdentityProviderRepository(next repository.IdentityProviderRepository, inv *Invalidator, ttl time.Duration) *IdentityProviderRepository {
	return &IdentityProviderRepository{
		next:  next,
		cache: newEntityCache[model.IdentityProvider](inv, repository.IdentityProviderTable, ttl),
	}
}

// FindByID serves the identity provider from the cache, loading it from next on a miss.
func (r *IdentityProviderRepository) FindByID(ctx context.Context, id string) (*model.IdentityProvider, error) {
	return r.cache.get(ctx, id, r.next.FindByID)
}

// FindAll is not cached.
func (r *IdentityProviderRepository) FindAll(ctx context.Context) ([]*model.IdentityProvider, error) {
	return r.next.FindAll(ctx)
}

// Create evicts any stale entry left for the new id.
func (r *IdentityProviderRepository) Create(ctx context.Context, idp *model.IdentityProvider) (*model.IdentityProvider, error) {
	created, err := r.next.Create(ctx, idp)
	if idp != nil {
		r.cache.evict(ctx, idp.ID)
	}
	return created, err
}

// Update evicts the entry, whether or not the update succeeds.
func (r *IdentityProviderRepository) Update(ctx context.Context, idp *model.IdentityProvider) (*model.IdentityProvider, error) {
	updated, err := r.next.Update(ctx, idp)
	if idp != nil {
		r.cache.evict(ctx, idp.ID)
	}
	return updated, err
}

// Delete evicts the entry.
func (r *IdentityProviderRepository) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.cache.evict(ctx, id)
	return err
}
