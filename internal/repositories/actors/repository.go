// Package actors provides repository interface and types for actor documents
package actors

import (
	"context"

	"github.com/aequall/aequall-api/internal/entities"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=actorsmock github.com/aequall/aequall-api/internal/repositories/actors Repository

// GetInput contains parameters for retrieving an actor
type GetInput struct {
	ActorID string
}

// GetOutput contains the retrieved actor
type GetOutput struct {
	Actor *entities.Actor
}

// DeleteInput contains parameters for deleting an actor
type DeleteInput struct {
	ActorID string
}

// ListInput contains parameters for listing actor documents
type ListInput struct{}

// ListOutput contains every stored actor, ordered by ID
type ListOutput struct {
	Actors []*entities.Actor
}

// Repository defines the interface for actor document storage
type Repository interface {
	// Get retrieves an actor by ID
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Save stores a single actor, replacing any previous document
	Save(ctx context.Context, actor *entities.Actor) error

	// SaveAll stores every given actor in one atomic commit: either all
	// documents are written or none are. A write to any of the touched keys
	// between the start of the commit and its execution aborts it; reads
	// performed before calling SaveAll are not guarded.
	SaveAll(ctx context.Context, actorsToSave ...*entities.Actor) error

	// List returns every stored actor
	List(ctx context.Context, input ListInput) (*ListOutput, error)

	// Delete removes an actor document
	Delete(ctx context.Context, input DeleteInput) error
}
