package changefeed

import (
	"context"
	"log"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/repository"
	"github.com/rzpsarthak13/mgmt-repository/pkg/model"
)

// Publisher enqueues change events. A failed enqueue is logged and never
// reported to the writer.
type Publisher struct {
	queue core.ChangeQueue
}

// NewPublisher creates a Publisher enqueueing on queue.
func NewPublisher(queue core.ChangeQueue) *Publisher {
	return &Publisher{queue: queue}
}

// Publish enqueues a change of entity under key.
func (p *Publisher) Publish(ctx context.Context, entity string, operation core.OperationType, key string) {
	event := NewEvent(entity, operation, key)
	if err := p.queue.Enqueue(ctx, event); err != nil {
		log.Printf("[CHANGEFEED] ERROR: Failed to publish %s %s/%s: %v", operation, entity, key, err)
		return
	}
	core.Debugf("[CHANGEFEED] Published %s %s/%s (%s)", operation, entity, key, event.ID)
}

// ApiRepository publishes the successful writes of the wrapped repository.
type ApiRepository struct {
	repository.ApiRepository
	publisher *Publisher
}

// NewApiRepository wraps next, publishing a change event after every successful write.
func NewApiRepository(next repository.ApiRepository, publisher *Publisher) *ApiRepository {
	return &ApiRepository{ApiRepository: next, publisher: publisher}
}

// Create publishes CREATE for the stored API.
func (r *ApiRepository) Create(ctx context.Context, api *model.Api) (*model.Api, error) {
	created, err := r.ApiRepository.Create(ctx, api)
	if err == nil && api != nil {
		r.publisher.Publish(ctx, repository.ApiTable, core.OperationCreate, api.ID)
	}
	return created, err
}

// Update publishes UPDATE for the stored API.
func (r *ApiRepository) Update(ctx context.Context, api *model.Api) (*model.Api, error) {
	updated, err := r.ApiRepository.Update(ctx, api)
	if err == nil && api != nil {
		r.publisher.Publish(ctx, repository.ApiTable, core.OperationUpdate, api.ID)
	}
	return updated, err
}

// Delete publishes DELETE for id.
func (r *ApiRepository) Delete(ctx context.Context, id string) error {
	err := r.ApiRepository.Delete(ctx, id)
	if err == nil {
		r.publisher.Publish(ctx, repository.ApiTable, core.OperationDelete, id)
	}
	return err
}

// IdentityProviderRepository publishes the successful writes of the wrapped
// repository.
type IdentityProviderRepository struct {
	repository.IdentityProviderRepository
	publisher *Publisher
}

// NewIdentityProviderRepository wraps next, publishing a change event after every successful write.
func NewIdentityProviderRepository(next repository.IdentityProviderRepository, publisher *Publisher) *IdentityProviderRepository {
	return &IdentityProviderRepository{IdentityProviderRepository: next, publisher: publisher}
}

// Create publishes CREATE for the stored identity provider.
func (r *IdentityProviderRepository) Create(ctx context.Context, idp *model.IdentityProvider) (*model.IdentityProvider, error) {
	created, err := r.IdentityProviderRepository.Create(ctx, idp)
	if err == nil && idp != nil {
		r.publisher.Publish(ctx, repository.IdentityProviderTable, core.OperationCreate, idp.ID)
	}
	return created, err
}

// Update publishes UPDATE for the stored identity provider.
func (r *IdentityProviderRepository) Update(ctx context.Context, idp *model.IdentityProvider) (*model.IdentityProvider, error) {
	updated, err := r.IdentityProviderRepository.Update(ctx, idp)
	if err == nil && idp != nil {
		r.publisher.Publish(ctx, repository.IdentityProviderTable, core.OperationUpdate, idp.ID)
	}
	return updated, err
}

// Delete publishes DELETE for id.
func (r *IdentityProviderRepository) Delete(ctx context.Context, id string) error {
	err := r.IdentityProviderRepository.Delete(ctx, id)
	if err == nil {
		r.publisher.Publish(ctx, repository.IdentityProviderTable, core.OperationDelete, id)
	}
	return err
}
