package management

import (
	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/repository"
	"github.com/rzpsarthak13/mgmt-repository/pkg/model"
)

var (
	// ErrTechnical matches every failure of the database or the mapping.
	ErrTechnical = core.ErrTechnical

	// ErrNotFound is returned by Update when the entity does not exist.
	ErrNotFound = core.ErrNotFound

	// ErrInvalidEntity is returned for nil entities or missing ids.
	ErrInvalidEntity = core.ErrInvalidEntity
)

// TechnicalError carries the failed operation and the class of failure.
type TechnicalError = core.TechnicalError

// ErrorKind classifies a TechnicalError.
type ErrorKind = core.ErrorKind

const (
	KindUnknown       = core.KindUnknown
	KindConnectivity  = core.KindConnectivity
	KindConstraint    = core.KindConstraint
	KindStatement     = core.KindStatement
	KindSerialization = core.KindSerialization
	KindMapping       = core.KindMapping
)

// KindOf returns the kind of the TechnicalError in err's chain.
func KindOf(err error) ErrorKind {
	return core.KindOf(err)
}

// ApiRepository stores APIs with their labels, groups and views.
type ApiRepository = repository.ApiRepository

// IdentityProviderRepository stores identity providers.
type IdentityProviderRepository = repository.IdentityProviderRepository

// ChangeEvent describes one successful write.
type ChangeEvent = core.ChangeEvent

// OperationType is the kind of write of a ChangeEvent.
type OperationType = core.OperationType

const (
	OperationCreate = core.OperationCreate
	OperationUpdate = core.OperationUpdate
	OperationDelete = core.OperationDelete
)

// Visibility controls who can see an API on the portal.
type Visibility = model.Visibility
