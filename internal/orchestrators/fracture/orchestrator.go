// Package fracture implements the single-player dice wager table: stake a
// bet, roll a four-die pool, reroll with locks, stop, and settle against a
// fixed ranked table of hands. One table session exists per actor, held in a
// create-or-reuse registry with explicit teardown.
package fracture

import (
	"context"
	"log/slog"
	"sync"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/aequall/aequall-api/internal/entities"
	"github.com/aequall/aequall-api/internal/errors"
	"github.com/aequall/aequall-api/internal/events"
	"github.com/aequall/aequall-api/internal/pkg/registry"
	"github.com/aequall/aequall-api/internal/repositories/actors"
)

// Service defines the interface for dice table operations
type Service interface {
	// PlaceBet stakes a wager and rolls the opening pool
	PlaceBet(ctx context.Context, input *PlaceBetInput) (*PlaceBetOutput, error)

	// Reroll rerolls every unlocked die
	Reroll(ctx context.Context, input *RerollInput) (*RerollOutput, error)

	// ToggleLock toggles a non-hot die's lock between rolls
	ToggleLock(ctx context.Context, input *ToggleLockInput) (*ToggleLockOutput, error)

	// Stop evaluates the pool and settles the wager
	Stop(ctx context.Context, input *StopInput) (*StopOutput, error)

	// Reset returns a finished table to Betting with fresh dice
	Reset(ctx context.Context, input *ResetInput) (*ResetOutput, error)

	// GetTable reads a table's current state for the HUD
	GetTable(ctx context.Context, input *GetTableInput) (*GetTableOutput, error)

	// CloseTable tears down an actor's table session
	CloseTable(ctx context.Context, input *CloseTableInput) (*CloseTableOutput, error)
}

// Config holds the dependencies for the fracture orchestrator
type Config struct {
	ActorRepo  actors.Repository
	EventBus   *events.Bus
	DiceRoller dice.Roller
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.ActorRepo == nil {
		vb.RequiredField("ActorRepo")
	}
	if c.EventBus == nil {
		vb.RequiredField("EventBus")
	}
	if c.DiceRoller == nil {
		vb.RequiredField("DiceRoller")
	}

	return vb.Build()
}

// table is one actor's session. All transitions run under its mutex.
type table struct {
	mu        sync.Mutex
	state     State
	stakeGold int
	dice      [PoolSize]Die

	// rolls counts throws this round, the opening roll included
	rolls int
}

type orchestrator struct {
	actorRepo actors.Repository
	bus       *events.Bus
	roller    dice.Roller
	tables    *registry.Registry[*table]
}

// NewOrchestrator creates a new fracture orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		actorRepo: cfg.ActorRepo,
		bus:       cfg.EventBus,
		roller:    cfg.DiceRoller,
		tables:    registry.New[*table](),
	}, nil
}

func (o *orchestrator) tableFor(actorID string) *table {
	t, _ := o.tables.GetOrCreate(actorID, func() *table {
		return &table{state: StateBetting}
	})
	return t
}

// PlaceBet debits the stake and rolls the opening pool
func (o *orchestrator) PlaceBet(ctx context.Context, input *PlaceBetInput) (*PlaceBetOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.StakeGold <= 0 {
		return nil, errors.InvalidArgument("stake must be positive")
	}

	t := o.tableFor(input.ActorID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateBetting {
		return nil, errors.FailedPreconditionf("table is not accepting bets: %s", t.state)
	}

	actorOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: input.ActorID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load actor")
	}
	actor := actorOut.Actor

	stakeCopper := input.StakeGold * entities.CopperPerGold
	balance := actor.Currency.ToCopper()
	if balance < stakeCopper {
		return nil, errors.FailedPreconditionf("insufficient gold for stake: have %d copper, need %d", balance, stakeCopper)
	}

	actor.Currency = entities.FromCopper(balance - stakeCopper)
	if err := o.actorRepo.Save(ctx, actor); err != nil {
		return nil, errors.Wrap(err, "failed to debit stake")
	}

	t.stakeGold = input.StakeGold
	for i := range t.dice {
		t.dice[i] = Die{}
	}
	if err := o.rollUnlocked(t); err != nil {
		return nil, err
	}
	t.rolls = 1
	t.state = StatePlaying

	slog.Info("Wager staked",
		"actor_id", input.ActorID,
		"stake_gold", input.StakeGold,
	)

	return &PlaceBetOutput{
		State: t.state,
		Dice:  poolView(t),
	}, nil
}

// Reroll rerolls every unlocked die. The soft cap is reported, not enforced.
func (o *orchestrator) Reroll(ctx context.Context, input *RerollInput) (*RerollOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	t := o.tableFor(input.ActorID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StatePlaying {
		return nil, errors.FailedPreconditionf("no round in progress: %s", t.state)
	}

	if err := o.rollUnlocked(t); err != nil {
		return nil, err
	}
	t.rolls++

	return &RerollOutput{
		Dice:      poolView(t),
		Rolls:     t.rolls,
		CanReroll: t.rolls < ThrowSoftCap,
	}, nil
}

// ToggleLock flips one die's lock. Hot dice stay locked.
func (o *orchestrator) ToggleLock(ctx context.Context, input *ToggleLockInput) (*ToggleLockOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.DieIndex < 0 || input.DieIndex >= PoolSize {
		return nil, errors.InvalidArgumentf("die index out of range: %d", input.DieIndex)
	}

	t := o.tableFor(input.ActorID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StatePlaying {
		return nil, errors.FailedPreconditionf("no round in progress: %s", t.state)
	}
	if t.dice[input.DieIndex].Hot {
		return nil, errors.FailedPrecondition("hot dice cannot be unlocked")
	}

	t.dice[input.DieIndex].Locked = !t.dice[input.DieIndex].Locked

	return &ToggleLockOutput{Dice: poolView(t)}, nil
}

// Stop evaluates the pool against the ranked table and settles the wager
func (o *orchestrator) Stop(ctx context.Context, input *StopInput) (*StopOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	t := o.tableFor(input.ActorID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StatePlaying {
		return nil, errors.FailedPreconditionf("no round in progress: %s", t.state)
	}

	values := make([]int, PoolSize)
	for i, d := range t.dice {
		values[i] = d.Value
	}
	hand := Evaluate(values)

	netGold, err := o.settle(ctx, input.ActorID, hand, t.stakeGold)
	if err != nil {
		return nil, err
	}

	t.state = StateFinished

	slog.Info("Wager settled",
		"actor_id", input.ActorID,
		"hand", hand,
		"stake_gold", t.stakeGold,
		"net_gold", netGold,
	)

	o.bus.Publish(events.WagerSettled{
		ActorID: input.ActorID,
		Hand:    string(hand),
		NetGold: netGold,
	})
	o.bus.Publish(events.RefreshHUD{Reason: "wager settled"})

	return &StopOutput{
		State:   t.state,
		Hand:    hand,
		NetGold: netGold,
	}, nil
}

// Reset returns the table to Betting with a fresh pool
func (o *orchestrator) Reset(ctx context.Context, input *ResetInput) (*ResetOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	t := o.tableFor(input.ActorID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StatePlaying {
		return nil, errors.FailedPrecondition("round in progress, stop it first")
	}

	t.state = StateBetting
	t.stakeGold = 0
	t.rolls = 0
	for i := range t.dice {
		t.dice[i] = Die{}
	}

	return &ResetOutput{State: t.state}, nil
}

// GetTable reads the table state for the HUD
func (o *orchestrator) GetTable(ctx context.Context, input *GetTableInput) (*GetTableOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	t := o.tableFor(input.ActorID)
	t.mu.Lock()
	defer t.mu.Unlock()

	return &GetTableOutput{
		State:     t.state,
		StakeGold: t.stakeGold,
		Dice:      poolView(t),
		Rolls:     t.rolls,
		CanReroll: t.state == StatePlaying && t.rolls < ThrowSoftCap,
	}, nil
}

// CloseTable tears down the actor's session and clears the registry entry
func (o *orchestrator) CloseTable(ctx context.Context, input *CloseTableInput) (*CloseTableOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	_, existed := o.tables.Get(input.ActorID)
	o.tables.Remove(input.ActorID)

	return &CloseTableOutput{Existed: existed}, nil
}

// rollUnlocked rerolls every unlocked die and locks any die landing on the
// hot face. Caller holds the table mutex.
func (o *orchestrator) rollUnlocked(t *table) error {
	for i := range t.dice {
		if t.dice[i].Locked {
			continue
		}

		v, err := o.roller.Roll(DieSize)
		if err != nil {
			return errors.Wrap(err, "failed to roll die")
		}

		t.dice[i].Value = v
		if v == HotFace {
			t.dice[i].Locked = true
			t.dice[i].Hot = true
		}
	}
	return nil
}

// settle applies the hand's payout to the actor's purse. The stake was
// debited at PlaceBet, so a win credits stake plus stake times the
// multiplier, Surcharge debits a second stake floored at zero, and a losing
// hand leaves the purse as is.
func (o *orchestrator) settle(ctx context.Context, actorID string, hand Hand, stakeGold int) (int, error) {
	actorOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: actorID})
	if err != nil {
		return 0, errors.Wrap(err, "failed to load actor")
	}
	actor := actorOut.Actor

	balance := actor.Currency.ToCopper()
	stakeCopper := stakeGold * entities.CopperPerGold

	var netCopper int
	switch hand {
	case HandSurcharge:
		penalty := stakeCopper
		if penalty > balance {
			penalty = balance
		}
		actor.Currency = entities.FromCopper(balance - penalty)
		netCopper = -(stakeCopper + penalty)
	case HandNothing:
		netCopper = -stakeCopper
	default:
		payout := stakeCopper + stakeCopper*hand.Multiplier()
		actor.Currency = entities.FromCopper(balance + payout)
		netCopper = stakeCopper * hand.Multiplier()
	}

	if err := o.actorRepo.Save(ctx, actor); err != nil {
		return 0, errors.Wrap(err, "failed to settle wager")
	}

	return netCopper / entities.CopperPerGold, nil
}

func poolView(t *table) []Die {
	out := make([]Die, PoolSize)
	copy(out, t.dice[:])
	return out
}
