// Package turnstate provides the per-combatant flag store backing the turn
// economy: one TurnState document per combatant per combat, replaced
// wholesale at each turn start.
package turnstate

import (
	"context"
	"time"

	"github.com/aequall/aequall-api/internal/entities"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=turnstatemock github.com/aequall/aequall-api/internal/repositories/turnstate Repository

// SetInput contains parameters for replacing a combatant's turn state
type SetInput struct {
	CombatID    string
	CombatantID string
	State       entities.TurnState
	TTL         time.Duration // defaults to the repository's TTL when zero
}

// GetInput contains parameters for reading a combatant's turn state
type GetInput struct {
	CombatID    string
	CombatantID string
}

// GetOutput contains the retrieved turn state
type GetOutput struct {
	State     *entities.TurnState
	UpdatedAt time.Time
}

// ClearInput contains parameters for removing a combatant's turn state
type ClearInput struct {
	CombatID    string
	CombatantID string
}

// Repository defines the interface for turn-state storage
type Repository interface {
	// Set replaces the stored state wholesale. Previous flags never survive.
	Set(ctx context.Context, input SetInput) error

	// Get retrieves the current state for a combatant
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Clear removes the state, ending the combatant's participation
	Clear(ctx context.Context, input ClearInput) error
}
