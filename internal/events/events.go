// Package events provides the in-process event bus the orchestrators publish
// state transitions on. Payloads are concrete types, and delivery is
// synchronous: Publish invokes every subscriber for the event's type, in
// subscription order, before it returns. A turn-start reset published before
// an action request is therefore fully observed by every subscriber before
// that request is processed.
package events

// Event type identifiers
const (
	TypeTurnStarted        = "combat.turn_started"
	TypeCombatUpdated      = "combat.updated"
	TypeMoveAccepted       = "combat.move_accepted"
	TypeActionExecuted     = "combat.action_executed"
	TypeHPChanged          = "actor.hp_changed"
	TypeTransactionApplied = "merchant.transaction_applied"
	TypeWagerSettled       = "fracture.wager_settled"
	TypeRefreshHUD         = "hud.refresh"
)

// Event is implemented by every payload published on the bus
type Event interface {
	EventType() string
}

// TurnStarted fires after a combatant's turn state has been reset wholesale
type TurnStarted struct {
	CombatID    string
	CombatantID string
	Round       int
}

// EventType implements Event
func (TurnStarted) EventType() string { return TypeTurnStarted }

// CombatUpdated fires when the encounter roster or round changes
type CombatUpdated struct {
	CombatID  string
	Round     int
	CurrentID string
}

// EventType implements Event
func (CombatUpdated) EventType() string { return TypeCombatUpdated }

// MoveAccepted fires after a movement request passed the turn gate
type MoveAccepted struct {
	CombatID    string
	CombatantID string
	Distance    float64
}

// EventType implements Event
func (MoveAccepted) EventType() string { return TypeMoveAccepted }

// ActionExecuted fires after an action slot was spent
type ActionExecuted struct {
	CombatID string
	ActorID  string
	ItemID   string
	TargetID string
	Hit      bool
	Damage   int
}

// EventType implements Event
func (ActionExecuted) EventType() string { return TypeActionExecuted }

// HPChanged fires after an actor's hit points were adjusted
type HPChanged struct {
	ActorID string
	Old     int
	New     int
}

// EventType implements Event
func (HPChanged) EventType() string { return TypeHPChanged }

// TransactionApplied fires after the authoritative side committed a trade
type TransactionApplied struct {
	Kind        string
	ShopID      string
	BuyerID     string
	ItemName    string
	PriceCopper int
}

// EventType implements Event
func (TransactionApplied) EventType() string { return TypeTransactionApplied }

// WagerSettled fires after a dice wager was evaluated and paid out
type WagerSettled struct {
	ActorID string
	Hand    string
	NetGold int
}

// EventType implements Event
func (WagerSettled) EventType() string { return TypeWagerSettled }

// RefreshHUD asks any observing combat HUD to re-render
type RefreshHUD struct {
	Reason string
}

// EventType implements Event
func (RefreshHUD) EventType() string { return TypeRefreshHUD }
