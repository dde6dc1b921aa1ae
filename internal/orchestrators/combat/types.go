package combat

import (
	"math"

	"github.com/aequall/aequall-api/internal/entities"
)

// Combatant is one participant in an encounter
type Combatant struct {
	// ActorID identifies the actor document fighting this slot
	ActorID string

	// ControllerID is the user session allowed to spend this combatant's
	// turn budget
	ControllerID string
}

// Measurer computes grid distance between two points. The host grid decides
// the metric; combat only compares the result against the movement cap.
type Measurer interface {
	Distance(from, to entities.Point) float64
}

// EuclideanGrid measures straight-line distance scaled by meters per grid unit
type EuclideanGrid struct {
	MetersPerUnit float64
}

// Distance implements Measurer
func (g EuclideanGrid) Distance(from, to entities.Point) float64 {
	scale := g.MetersPerUnit
	if scale == 0 {
		scale = 1
	}
	return math.Hypot(to.X-from.X, to.Y-from.Y) * scale
}

// StartCombatInput contains parameters for starting an encounter
type StartCombatInput struct {
	Combatants []Combatant
}

// StartCombatOutput contains the result of starting an encounter
type StartCombatOutput struct {
	CombatID  string
	Round     int
	CurrentID string
}

// NextTurnInput contains parameters for advancing the turn
type NextTurnInput struct {
	CombatID string
}

// NextTurnOutput contains the result of advancing the turn
type NextTurnOutput struct {
	CurrentID string
	Round     int
}

// RequestMoveInput is a proposed position change for the active combatant
type RequestMoveInput struct {
	CombatID    string
	CombatantID string
	RequesterID string
	From        entities.Point
	To          entities.Point
}

// RequestMoveOutput reports whether the position change may be applied
type RequestMoveOutput struct {
	Allowed  bool
	Distance float64
	Reason   string
}

// ExecuteActionInput contains parameters for spending the action slot
type ExecuteActionInput struct {
	CombatID    string
	ActorID     string
	RequesterID string
	ItemID      string
	TargetID    string
}

// ExecuteActionOutput contains the result of an executed action
type ExecuteActionOutput struct {
	Executed bool
	Reason   string

	// Weapon results; zero-valued for consumables
	Hit      bool
	Damage   int
	TargetHP int
}

// AdjustHPInput contains parameters for an hp:adjust request
type AdjustHPInput struct {
	SourceActorID string
	TargetActorID string
	RequesterID   string
	Delta         int
}

// AdjustHPOutput contains the resulting hit points
type AdjustHPOutput struct {
	HP entities.HitPoints
}

// GetTurnStateInput contains parameters for querying a combatant's budget
type GetTurnStateInput struct {
	CombatID    string
	CombatantID string
}

// GetTurnStateOutput is the HUD view of a combatant's budget
type GetTurnStateOutput struct {
	State         entities.TurnState
	HasActed      bool
	HasMoved      bool
	RemainingMove float64
}

// EndCombatInput contains parameters for ending an encounter
type EndCombatInput struct {
	CombatID string
}

// EndCombatOutput contains the result of ending an encounter
type EndCombatOutput struct {
	Rounds int
}
