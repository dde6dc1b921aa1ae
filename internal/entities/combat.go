package entities

// Movement budget per turn, in meters, and the float tolerance applied when
// comparing measured grid distance against it.
const (
	MoveCapMeters = 9.0
	MoveEpsilon   = 1e-6
)

// TurnState is the action/movement budget of one combatant for the current
// turn. It is replaced wholesale at every turn start, never merged.
type TurnState struct {
	ActionUsed    bool    `json:"action_used"`
	MoveUsed      bool    `json:"move_used"`
	MoveRemaining float64 `json:"move_remaining"`
}

// NewTurnState returns the fresh budget granted at turn start
func NewTurnState() TurnState {
	return TurnState{
		ActionUsed:    false,
		MoveUsed:      false,
		MoveRemaining: MoveCapMeters,
	}
}

// Point is a position on the scene grid
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
