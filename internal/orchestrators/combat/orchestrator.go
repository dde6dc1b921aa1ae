// Package combat implements the turn economy engine: one action and one
// movement per combatant per turn, with a per-turn movement distance cap.
package combat

//go:generate mockgen -destination=mock/mock_service.go -package=combatmock github.com/aequall/aequall-api/internal/orchestrators/combat Service

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/aequall/aequall-api/internal/entities"
	"github.com/aequall/aequall-api/internal/errors"
	"github.com/aequall/aequall-api/internal/events"
	"github.com/aequall/aequall-api/internal/pkg/idgen"
	"github.com/aequall/aequall-api/internal/repositories/actors"
	"github.com/aequall/aequall-api/internal/repositories/turnstate"
)

// Gate rejection and no-op reasons surfaced to the HUD
const (
	ReasonNotYourTurn   = "not the active combatant"
	ReasonNotController = "request not from the combatant's controller"
	ReasonMoveUsed      = "movement already used this turn"
	ReasonMoveTooFar    = "movement exceeds the per-turn cap"
	ReasonActionUsed    = "action already used this turn"
)

// Regex for weapon damage formulas like "1d6" or "2d4"
var damageNotationRegex = regexp.MustCompile(`^(\d+)d(\d+)$`)

// Service defines the interface for combat operations
type Service interface {
	// StartCombat opens an encounter and grants the first combatant a turn
	StartCombat(ctx context.Context, input *StartCombatInput) (*StartCombatOutput, error)

	// NextTurn advances to the next combatant, resetting their budget
	NextTurn(ctx context.Context, input *NextTurnInput) (*NextTurnOutput, error)

	// RequestMove gates a proposed position change for the active combatant
	RequestMove(ctx context.Context, input *RequestMoveInput) (*RequestMoveOutput, error)

	// ExecuteAction spends the action slot and runs the item's effect
	ExecuteAction(ctx context.Context, input *ExecuteActionInput) (*ExecuteActionOutput, error)

	// AdjustHP applies a relayed hp:adjust request
	AdjustHP(ctx context.Context, input *AdjustHPInput) (*AdjustHPOutput, error)

	// GetTurnState returns the budget view the HUD renders
	GetTurnState(ctx context.Context, input *GetTurnStateInput) (*GetTurnStateOutput, error)

	// EndCombat closes the encounter and clears all turn state
	EndCombat(ctx context.Context, input *EndCombatInput) (*EndCombatOutput, error)
}

// Config holds the dependencies for the combat orchestrator
type Config struct {
	TurnStateRepo turnstate.Repository
	ActorRepo     actors.Repository
	IDGenerator   idgen.Generator
	EventBus      *events.Bus
	DiceRoller    dice.Roller
	Measurer      Measurer
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.TurnStateRepo == nil {
		vb.RequiredField("TurnStateRepo")
	}
	if c.ActorRepo == nil {
		vb.RequiredField("ActorRepo")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.EventBus == nil {
		vb.RequiredField("EventBus")
	}
	if c.DiceRoller == nil {
		vb.RequiredField("DiceRoller")
	}
	if c.Measurer == nil {
		vb.RequiredField("Measurer")
	}

	return vb.Build()
}

// combatState is one live encounter. Budget flags live in the turn-state
// repository; only the roster and turn pointer live here.
type combatState struct {
	combatants []Combatant
	index      int
	round      int

	// gates serialize same-combatant requests for the same slot, closing the
	// double-spend window between check and flag write
	gates map[string]*sync.Mutex
}

func (s *combatState) current() Combatant {
	return s.combatants[s.index]
}

func (s *combatState) find(actorID string) (Combatant, bool) {
	for _, c := range s.combatants {
		if c.ActorID == actorID {
			return c, true
		}
	}
	return Combatant{}, false
}

type orchestrator struct {
	turnStateRepo turnstate.Repository
	actorRepo     actors.Repository
	idGen         idgen.Generator
	bus           *events.Bus
	roller        dice.Roller
	measurer      Measurer

	mu      sync.RWMutex
	combats map[string]*combatState
}

// NewOrchestrator creates a new combat orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		turnStateRepo: cfg.TurnStateRepo,
		actorRepo:     cfg.ActorRepo,
		idGen:         cfg.IDGenerator,
		bus:           cfg.EventBus,
		roller:        cfg.DiceRoller,
		measurer:      cfg.Measurer,
		combats:       make(map[string]*combatState),
	}, nil
}

// StartCombat opens an encounter and grants the first combatant a turn
func (o *orchestrator) StartCombat(ctx context.Context, input *StartCombatInput) (*StartCombatOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if len(input.Combatants) == 0 {
		return nil, errors.InvalidArgument("at least one combatant is required")
	}

	combatID := o.idGen.Generate()

	state := &combatState{
		combatants: append([]Combatant(nil), input.Combatants...),
		index:      0,
		round:      1,
		gates:      make(map[string]*sync.Mutex, len(input.Combatants)),
	}
	for _, c := range state.combatants {
		state.gates[c.ActorID] = &sync.Mutex{}
	}

	// Grant the opening turn before anyone can act on it
	first := state.current()
	if err := o.resetTurn(ctx, combatID, first.ActorID); err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.combats[combatID] = state
	o.mu.Unlock()

	slog.Info("Combat started",
		"combat_id", combatID,
		"combatants", len(state.combatants),
		"current", first.ActorID,
	)

	o.bus.Publish(events.CombatUpdated{CombatID: combatID, Round: 1, CurrentID: first.ActorID})
	o.bus.Publish(events.TurnStarted{CombatID: combatID, CombatantID: first.ActorID, Round: 1})
	o.bus.Publish(events.RefreshHUD{Reason: "combat started"})

	return &StartCombatOutput{
		CombatID:  combatID,
		Round:     1,
		CurrentID: first.ActorID,
	}, nil
}

// NextTurn advances to the next combatant. The new combatant's budget is
// replaced wholesale and persisted before TurnStarted is published, so no
// request processed after this call can observe the previous turn's flags.
func (o *orchestrator) NextTurn(ctx context.Context, input *NextTurnInput) (*NextTurnOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	o.mu.Lock()
	state, exists := o.combats[input.CombatID]
	if !exists {
		o.mu.Unlock()
		return nil, errors.NotFound("combat not found")
	}

	state.index++
	if state.index >= len(state.combatants) {
		state.index = 0
		state.round++
	}
	current := state.current()
	round := state.round
	o.mu.Unlock()

	if err := o.resetTurn(ctx, input.CombatID, current.ActorID); err != nil {
		return nil, err
	}

	slog.Info("Turn advanced",
		"combat_id", input.CombatID,
		"current", current.ActorID,
		"round", round,
	)

	o.bus.Publish(events.TurnStarted{CombatID: input.CombatID, CombatantID: current.ActorID, Round: round})
	o.bus.Publish(events.CombatUpdated{CombatID: input.CombatID, Round: round, CurrentID: current.ActorID})
	o.bus.Publish(events.RefreshHUD{Reason: "turn changed"})

	return &NextTurnOutput{
		CurrentID: current.ActorID,
		Round:     round,
	}, nil
}

// resetTurn replaces the combatant's budget wholesale
func (o *orchestrator) resetTurn(ctx context.Context, combatID, combatantID string) error {
	err := o.turnStateRepo.Set(ctx, turnstate.SetInput{
		CombatID:    combatID,
		CombatantID: combatantID,
		State:       entities.NewTurnState(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to reset turn state")
	}
	return nil
}

// RequestMove gates a proposed position change. Requests for a combatant
// other than the active one, or not originating from its controller, are
// ignored as no-ops. Spent or over-cap moves are rejected with
// FailedPrecondition and the position change must not be applied.
func (o *orchestrator) RequestMove(ctx context.Context, input *RequestMoveInput) (*RequestMoveOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	o.mu.RLock()
	state, exists := o.combats[input.CombatID]
	o.mu.RUnlock()
	if !exists {
		return nil, errors.NotFound("combat not found")
	}

	o.mu.RLock()
	current := state.current()
	combatant, known := state.find(input.CombatantID)
	gate := state.gates[input.CombatantID]
	o.mu.RUnlock()

	if !known || current.ActorID != input.CombatantID {
		return &RequestMoveOutput{Allowed: false, Reason: ReasonNotYourTurn}, nil
	}
	// Only the initiating client's own request is honored; relayed position
	// updates from observers must not spend the budget.
	if input.RequesterID != combatant.ControllerID {
		return &RequestMoveOutput{Allowed: false, Reason: ReasonNotController}, nil
	}

	gate.Lock()
	defer gate.Unlock()

	getOut, err := o.turnStateRepo.Get(ctx, turnstate.GetInput{
		CombatID:    input.CombatID,
		CombatantID: input.CombatantID,
	})
	if err != nil {
		if errors.IsNotFound(err) {
			// No budget recorded for this turn: the gate stands aside and
			// the move passes through unmetered.
			return &RequestMoveOutput{Allowed: true}, nil
		}
		return nil, errors.Wrap(err, "failed to read turn state")
	}
	ts := *getOut.State

	if ts.MoveUsed {
		return nil, errors.FailedPrecondition(ReasonMoveUsed)
	}

	distance := o.measurer.Distance(input.From, input.To)
	if distance > entities.MoveCapMeters+entities.MoveEpsilon {
		return nil, errors.FailedPreconditionf("%s: %.1fm > %.0fm", ReasonMoveTooFar, distance, entities.MoveCapMeters)
	}

	ts.MoveUsed = true
	ts.MoveRemaining = 0
	err = o.turnStateRepo.Set(ctx, turnstate.SetInput{
		CombatID:    input.CombatID,
		CombatantID: input.CombatantID,
		State:       ts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist turn state")
	}

	slog.Info("Move accepted",
		"combat_id", input.CombatID,
		"combatant_id", input.CombatantID,
		"distance", distance,
	)

	o.bus.Publish(events.MoveAccepted{CombatID: input.CombatID, CombatantID: input.CombatantID, Distance: distance})
	o.bus.Publish(events.RefreshHUD{Reason: "move accepted"})

	return &RequestMoveOutput{
		Allowed:  true,
		Distance: distance,
	}, nil
}

// ExecuteAction spends the action slot and runs the item's effect. The spent
// flag is persisted before any side effect executes, and the per-combatant
// gate serializes concurrent requests for the same slot.
func (o *orchestrator) ExecuteAction(ctx context.Context, input *ExecuteActionInput) (*ExecuteActionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.ItemID == "" {
		return nil, errors.InvalidArgument("item ID is required")
	}

	o.mu.RLock()
	state, exists := o.combats[input.CombatID]
	o.mu.RUnlock()
	if !exists {
		return nil, errors.NotFound("combat not found")
	}

	o.mu.RLock()
	current := state.current()
	combatant, known := state.find(input.ActorID)
	gate := state.gates[input.ActorID]
	o.mu.RUnlock()

	if !known || current.ActorID != input.ActorID {
		return &ExecuteActionOutput{Executed: false, Reason: ReasonNotYourTurn}, nil
	}
	if input.RequesterID != combatant.ControllerID {
		return &ExecuteActionOutput{Executed: false, Reason: ReasonNotController}, nil
	}

	if err := o.spendActionSlot(ctx, gate, input.CombatID, input.ActorID); err != nil {
		return nil, err
	}

	// Slot is committed; side effects run after the flag write so a second
	// request cannot double-spend it.
	out, err := o.performAction(ctx, input)
	if err != nil {
		return nil, err
	}

	o.bus.Publish(events.ActionExecuted{
		CombatID: input.CombatID,
		ActorID:  input.ActorID,
		ItemID:   input.ItemID,
		TargetID: input.TargetID,
		Hit:      out.Hit,
		Damage:   out.Damage,
	})
	o.bus.Publish(events.RefreshHUD{Reason: "action executed"})

	return out, nil
}

// spendActionSlot atomically checks and sets the action flag
func (o *orchestrator) spendActionSlot(ctx context.Context, gate *sync.Mutex, combatID, actorID string) error {
	gate.Lock()
	defer gate.Unlock()

	ts := entities.NewTurnState()
	getOut, err := o.turnStateRepo.Get(ctx, turnstate.GetInput{
		CombatID:    combatID,
		CombatantID: actorID,
	})
	if err != nil && !errors.IsNotFound(err) {
		return errors.Wrap(err, "failed to read turn state")
	}
	if err == nil {
		ts = *getOut.State
	}

	if ts.ActionUsed {
		return errors.FailedPrecondition(ReasonActionUsed)
	}

	ts.ActionUsed = true
	err = o.turnStateRepo.Set(ctx, turnstate.SetInput{
		CombatID:    combatID,
		CombatantID: actorID,
		State:       ts,
	})
	if err != nil {
		return errors.Wrap(err, "failed to persist turn state")
	}
	return nil
}

// performAction runs the item effect after the slot has been spent
func (o *orchestrator) performAction(ctx context.Context, input *ExecuteActionInput) (*ExecuteActionOutput, error) {
	actorOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: input.ActorID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load acting actor")
	}
	actor := actorOut.Actor

	item := actor.Item(input.ItemID)
	if item == nil {
		return nil, errors.NotFoundf("item not found: %s", input.ItemID)
	}

	switch item.Kind {
	case entities.ItemKindWeapon:
		return o.performAttack(ctx, input, actor, item)
	case entities.ItemKindGear:
		return o.consumeItem(ctx, actor, item)
	default:
		return nil, errors.InvalidArgumentf("item kind %q cannot be used as an action", item.Kind)
	}
}

// performAttack rolls 1d20 + attack against the target's defense and applies
// clamped damage on a hit
func (o *orchestrator) performAttack(ctx context.Context, input *ExecuteActionInput, actor *entities.Actor, item *entities.Item) (*ExecuteActionOutput, error) {
	if input.TargetID == "" {
		return nil, errors.InvalidArgument("weapon actions require a target")
	}

	targetOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: input.TargetID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load target actor")
	}
	target := targetOut.Actor

	attackDie, err := o.roller.Roll(20)
	if err != nil {
		return nil, errors.Wrap(err, "attack roll failed")
	}
	attackTotal := attackDie + actor.Attributes.Attack

	out := &ExecuteActionOutput{
		Executed: true,
		TargetHP: target.HP.Value,
	}

	if attackTotal < target.Attributes.Defense {
		slog.Info("Attack missed",
			"actor_id", actor.ID,
			"target_id", target.ID,
			"attack", attackTotal,
			"defense", target.Attributes.Defense,
		)
		return out, nil
	}

	damage, err := o.rollDamage(item.Damage)
	if err != nil {
		return nil, err
	}

	oldHP := target.HP.Value
	target.HP.Value = oldHP - damage
	if target.HP.Value < 0 {
		target.HP.Value = 0
	}

	if err := o.actorRepo.Save(ctx, target); err != nil {
		return nil, errors.Wrap(err, "failed to save target actor")
	}

	slog.Info("Attack hit",
		"actor_id", actor.ID,
		"target_id", target.ID,
		"damage", damage,
		"target_hp", target.HP.Value,
	)

	o.bus.Publish(events.HPChanged{ActorID: target.ID, Old: oldHP, New: target.HP.Value})

	out.Hit = true
	out.Damage = damage
	out.TargetHP = target.HP.Value
	return out, nil
}

// consumeItem spends one charge of a consumable
func (o *orchestrator) consumeItem(ctx context.Context, actor *entities.Actor, item *entities.Item) (*ExecuteActionOutput, error) {
	if item.Quantity <= 0 {
		return nil, errors.FailedPrecondition("no charges remaining")
	}

	item.Quantity--
	if err := o.actorRepo.Save(ctx, actor); err != nil {
		return nil, errors.Wrap(err, "failed to save actor")
	}

	slog.Info("Consumable used",
		"actor_id", actor.ID,
		"item_id", item.ID,
		"remaining", item.Quantity,
	)

	return &ExecuteActionOutput{Executed: true}, nil
}

// rollDamage evaluates a damage formula: "NdM" notation or a flat integer
func (o *orchestrator) rollDamage(formula string) (int, error) {
	if formula == "" {
		return 1, nil
	}

	if matches := damageNotationRegex.FindStringSubmatch(formula); len(matches) == 3 {
		count, _ := strconv.Atoi(matches[1])
		size, _ := strconv.Atoi(matches[2])
		if count <= 0 || size <= 0 {
			return 0, errors.InvalidArgumentf("invalid damage formula: %s", formula)
		}

		rolls, err := o.roller.RollN(count, size)
		if err != nil {
			return 0, errors.Wrap(err, "damage roll failed")
		}

		total := 0
		for _, r := range rolls {
			total += r
		}
		return total, nil
	}

	if flat, err := strconv.Atoi(formula); err == nil && flat >= 0 {
		return flat, nil
	}

	return 0, errors.InvalidArgumentf("invalid damage formula: %s", formula)
}

// AdjustHP applies a relayed hp:adjust request. The requester must own the
// source actor; the target's hit points are clamped into [0, max].
func (o *orchestrator) AdjustHP(ctx context.Context, input *AdjustHPInput) (*AdjustHPOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Delta == 0 {
		return nil, errors.InvalidArgument("delta must be non-zero")
	}

	sourceOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: input.SourceActorID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load source actor")
	}
	if !sourceOut.Actor.OwnedBy(input.RequesterID) {
		return nil, errors.PermissionDenied("requester does not own the source actor")
	}

	targetOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: input.TargetActorID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load target actor")
	}
	target := targetOut.Actor

	oldHP := target.HP.Value
	newHP := oldHP + input.Delta
	if newHP < 0 {
		newHP = 0
	}
	if newHP > target.HP.Max {
		newHP = target.HP.Max
	}
	target.HP.Value = newHP

	if err := o.actorRepo.Save(ctx, target); err != nil {
		return nil, errors.Wrap(err, "failed to save target actor")
	}

	slog.Info("HP adjusted",
		"target_id", target.ID,
		"delta", input.Delta,
		"hp", newHP,
	)

	o.bus.Publish(events.HPChanged{ActorID: target.ID, Old: oldHP, New: newHP})
	o.bus.Publish(events.RefreshHUD{Reason: "hp changed"})

	return &AdjustHPOutput{HP: target.HP}, nil
}

// GetTurnState returns the budget view the HUD renders
func (o *orchestrator) GetTurnState(ctx context.Context, input *GetTurnStateInput) (*GetTurnStateOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	getOut, err := o.turnStateRepo.Get(ctx, turnstate.GetInput{
		CombatID:    input.CombatID,
		CombatantID: input.CombatantID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read turn state")
	}

	ts := *getOut.State
	return &GetTurnStateOutput{
		State:         ts,
		HasActed:      ts.ActionUsed,
		HasMoved:      ts.MoveUsed,
		RemainingMove: ts.MoveRemaining,
	}, nil
}

// EndCombat closes the encounter and clears all turn state
func (o *orchestrator) EndCombat(ctx context.Context, input *EndCombatInput) (*EndCombatOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	o.mu.Lock()
	state, exists := o.combats[input.CombatID]
	if exists {
		delete(o.combats, input.CombatID)
	}
	o.mu.Unlock()

	if !exists {
		return nil, errors.NotFound("combat not found")
	}

	for _, c := range state.combatants {
		err := o.turnStateRepo.Clear(ctx, turnstate.ClearInput{
			CombatID:    input.CombatID,
			CombatantID: c.ActorID,
		})
		if err != nil {
			slog.Warn("Failed to clear turn state",
				"combat_id", input.CombatID,
				"combatant_id", c.ActorID,
				"error", err,
			)
		}
	}

	o.bus.Publish(events.CombatUpdated{CombatID: input.CombatID, Round: state.round})
	o.bus.Publish(events.RefreshHUD{Reason: "combat ended"})

	return &EndCombatOutput{Rounds: state.round}, nil
}
