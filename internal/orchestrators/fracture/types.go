package fracture

// Pool geometry and table constants
const (
	// PoolSize is the number of dice in a round
	PoolSize = 4

	// DieSize is the number of faces per die
	DieSize = 6

	// HotFace is the value that permanently locks a die for the round
	HotFace = 5

	// ThrowSoftCap is the advisory limit on throws per round, the opening
	// roll included. The engine reports it via CanReroll but does not
	// enforce it; the table's UI disables the control.
	ThrowSoftCap = 3
)

// State is the round lifecycle phase
type State string

// Round states
const (
	StateBetting  State = "betting"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// Die is one die in the pool as the player sees it
type Die struct {
	Value int

	// Locked dice are excluded from rerolls. Hot dice are locked and cannot
	// be unlocked.
	Locked bool
	Hot    bool
}

// PlaceBetInput contains parameters for staking a wager
type PlaceBetInput struct {
	ActorID string

	// StakeGold is the wager, debited immediately
	StakeGold int
}

// PlaceBetOutput contains the opening roll
type PlaceBetOutput struct {
	State State
	Dice  []Die
}

// RerollInput contains parameters for rerolling unlocked dice
type RerollInput struct {
	ActorID string
}

// RerollOutput contains the pool after the reroll
type RerollOutput struct {
	Dice []Die

	// Rolls counts throws this round, the opening roll included
	Rolls     int
	CanReroll bool
}

// ToggleLockInput contains parameters for toggling one die's lock
type ToggleLockInput struct {
	ActorID  string
	DieIndex int
}

// ToggleLockOutput contains the pool after the toggle
type ToggleLockOutput struct {
	Dice []Die
}

// StopInput contains parameters for stopping and settling the round
type StopInput struct {
	ActorID string
}

// StopOutput contains the evaluated hand and settlement
type StopOutput struct {
	State State
	Hand  Hand

	// NetGold is the round's total effect on the purse, stake included.
	// Positive on a win, negative on a loss.
	NetGold int
}

// ResetInput contains parameters for returning a table to Betting
type ResetInput struct {
	ActorID string
}

// ResetOutput contains the reset table state
type ResetOutput struct {
	State State
}

// GetTableInput contains parameters for reading a table's current state
type GetTableInput struct {
	ActorID string
}

// GetTableOutput is the HUD view of a table
type GetTableOutput struct {
	State     State
	StakeGold int
	Dice      []Die
	Rolls     int
	CanReroll bool
}

// CloseTableInput contains parameters for tearing down a table session
type CloseTableInput struct {
	ActorID string
}

// CloseTableOutput contains the result of the teardown
type CloseTableOutput struct {
	Existed bool
}
