// Package merchant implements the two-party trade protocol: any participant
// may propose a buy or sell, only the authoritative session applies it, and
// the applier re-derives every price and re-checks every balance and
// ownership claim before mutating either ledger.
package merchant

//go:generate mockgen -destination=mock/mock_service.go -package=merchantmock github.com/aequall/aequall-api/internal/orchestrators/merchant Service

import (
	"context"
	"log/slog"
	"math"

	"github.com/aequall/aequall-api/internal/entities"
	"github.com/aequall/aequall-api/internal/errors"
	"github.com/aequall/aequall-api/internal/events"
	"github.com/aequall/aequall-api/internal/messaging"
	"github.com/aequall/aequall-api/internal/pkg/idgen"
	"github.com/aequall/aequall-api/internal/repositories/actors"
)

// Service defines the interface for merchant operations
type Service interface {
	// OpenShop announces a shop session pairing a shop with a buyer
	OpenShop(ctx context.Context, input *OpenShopInput) (*OpenShopOutput, error)

	// ListCandidates returns the actors a shop session can pair up
	ListCandidates(ctx context.Context, input *ListCandidatesInput) (*ListCandidatesOutput, error)

	// ListWares returns a shop's tradable stock with effective prices
	ListWares(ctx context.Context, input *ListWaresInput) (*ListWaresOutput, error)

	// SubmitTrade publishes a trade proposal on the messaging channel
	SubmitTrade(ctx context.Context, input *SubmitTradeInput) (*SubmitTradeOutput, error)

	// Apply validates and commits a proposal. Authoritative side only.
	Apply(ctx context.Context, input *ApplyInput) (*ApplyOutput, error)
}

// Config holds the dependencies for the merchant orchestrator
type Config struct {
	ActorRepo   actors.Repository
	IDGenerator idgen.Generator
	EventBus    *events.Bus
	Publisher   messaging.Publisher

	// AuthoritativeUserID is the single user allowed to open shops and to
	// have proposals applied on its session
	AuthoritativeUserID string
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.ActorRepo == nil {
		vb.RequiredField("ActorRepo")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.EventBus == nil {
		vb.RequiredField("EventBus")
	}
	if c.Publisher == nil {
		vb.RequiredField("Publisher")
	}
	if c.AuthoritativeUserID == "" {
		vb.RequiredField("AuthoritativeUserID")
	}

	return vb.Build()
}

type orchestrator struct {
	actorRepo actors.Repository
	idGen     idgen.Generator
	bus       *events.Bus
	publisher messaging.Publisher
	gmUserID  string
}

// NewOrchestrator creates a new merchant orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		actorRepo: cfg.ActorRepo,
		idGen:     cfg.IDGenerator,
		bus:       cfg.EventBus,
		publisher: cfg.Publisher,
		gmUserID:  cfg.AuthoritativeUserID,
	}, nil
}

// OpenShop announces a shop session. GM only; the session itself is not
// persisted, it lives in the announcement and the buyer's UI.
func (o *orchestrator) OpenShop(ctx context.Context, input *OpenShopInput) (*OpenShopOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.RequesterID != o.gmUserID {
		return nil, errors.PermissionDenied("only the authoritative user may open a shop")
	}

	shopOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: input.ShopID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load shop actor")
	}
	buyerOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: input.BuyerID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load buyer actor")
	}

	env, err := messaging.NewEnvelope(
		messaging.KindMerchantOpen,
		o.idGen.Generate(),
		input.RequesterID,
		messaging.OpenShopPayload{
			ShopID:               input.ShopID,
			BuyerID:              input.BuyerID,
			PriceModifierPercent: input.PriceModifierPercent,
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build announcement")
	}

	if err := o.publisher.Publish(ctx, env); err != nil {
		return nil, errors.Wrap(err, "failed to announce shop session")
	}

	slog.Info("Shop session announced",
		"shop_id", input.ShopID,
		"buyer_id", input.BuyerID,
		"price_modifier_percent", input.PriceModifierPercent,
	)

	return &OpenShopOutput{
		ShopName:  shopOut.Actor.Name,
		BuyerName: buyerOut.Actor.Name,
	}, nil
}

// ListCandidates returns the actors a shop session can be configured from.
// GM only, like OpenShop; NPCs are offered as shops and characters as buyers.
func (o *orchestrator) ListCandidates(ctx context.Context, input *ListCandidatesInput) (*ListCandidatesOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.RequesterID != o.gmUserID {
		return nil, errors.PermissionDenied("only the authoritative user may configure a shop session")
	}

	listOut, err := o.actorRepo.List(ctx, actors.ListInput{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list actors")
	}

	output := &ListCandidatesOutput{}
	for _, actor := range listOut.Actors {
		candidate := Candidate{ActorID: actor.ID, Name: actor.Name}
		switch actor.Kind {
		case entities.ActorKindNPC:
			output.Shops = append(output.Shops, candidate)
		case entities.ActorKindCharacter:
			output.Buyers = append(output.Buyers, candidate)
		}
	}

	return output, nil
}

// ListWares returns a shop's tradable stock with the session's price
// modifier applied
func (o *orchestrator) ListWares(ctx context.Context, input *ListWaresInput) (*ListWaresOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	shopOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: input.ShopID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load shop actor")
	}
	shop := shopOut.Actor

	wares := make([]Ware, 0, len(shop.Inventory))
	for i := range shop.Inventory {
		item := &shop.Inventory[i]
		if !item.Tradable() {
			continue
		}
		wares = append(wares, Ware{
			ItemID:         item.ID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			EffectivePrice: effectivePriceCopper(item.UnitPrice, input.PriceModifierPercent),
		})
	}

	return &ListWaresOutput{
		ShopName: shop.Name,
		Gold:     shop.Currency,
		Wares:    wares,
	}, nil
}

// SubmitTrade publishes a trade proposal on the messaging channel. Nothing
// is mutated locally; the authoritative session applies or silently drops
// the proposal.
func (o *orchestrator) SubmitTrade(ctx context.Context, input *SubmitTradeInput) (*SubmitTradeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	if input.ShopID == "" {
		vb.RequiredField("ShopID")
	}
	if input.BuyerID == "" {
		vb.RequiredField("BuyerID")
	}
	if input.ItemID == "" {
		vb.RequiredField("ItemID")
	}
	if input.RequesterID == "" {
		vb.RequiredField("RequesterID")
	}
	if input.Kind != KindBuy && input.Kind != KindSell {
		vb.InvalidField("Kind", "must be buy or sell")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	kind := messaging.KindMerchantBuy
	if input.Kind == KindSell {
		kind = messaging.KindMerchantSell
	}

	requestID := o.idGen.Generate()
	env, err := messaging.NewEnvelope(kind, requestID, input.RequesterID, messaging.TradePayload{
		ShopID:               input.ShopID,
		BuyerID:              input.BuyerID,
		ItemID:               input.ItemID,
		PriceModifierPercent: input.PriceModifierPercent,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build trade proposal")
	}

	if err := o.publisher.Publish(ctx, env); err != nil {
		return nil, errors.Wrap(err, "failed to submit trade proposal")
	}

	slog.Info("Trade proposed",
		"kind", input.Kind,
		"request_id", requestID,
		"shop_id", input.ShopID,
		"buyer_id", input.BuyerID,
		"item_id", input.ItemID,
	)

	return &SubmitTradeOutput{RequestID: requestID}, nil
}

// txPlan is the fully validated outcome of a proposal: one unit of item
// moves source -> dest while price moves payer -> payee. Both kinds of
// transaction reduce to this shape, and settle commits it atomically.
type txPlan struct {
	shop  *entities.Actor
	buyer *entities.Actor

	item   entities.Item
	price  int // copper-equivalent
	payer  *entities.Actor
	payee  *entities.Actor
	source *entities.Actor
	dest   *entities.Actor
}

// Apply validates and commits a proposal. Only the authoritative session
// calls this; nothing here trusts any client-declared value except the
// session's price modifier, which the GM announced.
func (o *orchestrator) Apply(ctx context.Context, input *ApplyInput) (*ApplyOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	req := input.Request

	shopOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: req.ShopID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load shop actor")
	}
	buyerOut, err := o.actorRepo.Get(ctx, actors.GetInput{ActorID: req.BuyerID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load buyer actor")
	}
	shop, buyer := shopOut.Actor, buyerOut.Actor

	// Reject impersonation before anything else: the requester must control
	// the inventory it claims to trade for.
	if !buyer.OwnedBy(req.RequesterID) && req.RequesterID != o.gmUserID {
		return nil, errors.PermissionDenied("requester does not own the buyer actor")
	}

	var plan *txPlan
	switch req.Kind {
	case KindBuy:
		plan, err = buildBuyPlan(shop, buyer, req)
	case KindSell:
		plan, err = buildSellPlan(shop, buyer, req)
	default:
		return nil, errors.InvalidArgumentf("unknown transaction kind: %s", req.Kind)
	}
	if err != nil {
		return nil, err
	}

	if err := o.settle(ctx, plan); err != nil {
		return nil, err
	}

	slog.Info("Transaction applied",
		"kind", req.Kind,
		"request_id", req.RequestID,
		"shop_id", shop.ID,
		"buyer_id", buyer.ID,
		"item", plan.item.Name,
		"price_copper", plan.price,
	)

	o.bus.Publish(events.TransactionApplied{
		Kind:        string(req.Kind),
		ShopID:      shop.ID,
		BuyerID:     buyer.ID,
		ItemName:    plan.item.Name,
		PriceCopper: plan.price,
	})

	return &ApplyOutput{
		ItemName:    plan.item.Name,
		PriceCopper: plan.price,
	}, nil
}

// buildBuyPlan validates a buy: the item must be in the shop's stock and the
// buyer must afford the modifier-adjusted price
func buildBuyPlan(shop, buyer *entities.Actor, req TransactionRequest) (*txPlan, error) {
	item := shop.Item(req.ItemID)
	if item == nil {
		return nil, errors.NotFoundf("shop does not stock item: %s", req.ItemID)
	}

	return &txPlan{
		shop:   shop,
		buyer:  buyer,
		item:   *item,
		price:  effectivePriceCopper(item.UnitPrice, req.PriceModifierPercent),
		payer:  buyer,
		payee:  shop,
		source: shop,
		dest:   buyer,
	}, nil
}

// buildSellPlan validates a sell: the item must currently sit in the claimed
// buyer's own inventory, must have positive value, and the shop must afford
// the 50% buy-back price
func buildSellPlan(shop, buyer *entities.Actor, req TransactionRequest) (*txPlan, error) {
	item := buyer.Item(req.ItemID)
	if item == nil {
		return nil, errors.NotFoundf("item not owned by buyer: %s", req.ItemID)
	}
	if item.UnitPrice <= 0 {
		return nil, errors.FailedPrecondition("item has no resale value")
	}

	return &txPlan{
		shop:   shop,
		buyer:  buyer,
		item:   *item,
		price:  int(math.Round(item.UnitPrice * sellRate * entities.CopperPerGold)),
		payer:  shop,
		payee:  buyer,
		source: buyer,
		dest:   shop,
	}, nil
}

// settle commits a validated plan: debit, credit, and the single-unit item
// move, all in one atomic batch. An insolvent payer aborts with both parties
// untouched.
func (o *orchestrator) settle(ctx context.Context, plan *txPlan) error {
	payerCopper := plan.payer.Currency.ToCopper()
	if payerCopper < plan.price {
		return errors.FailedPreconditionf("insufficient funds: have %d copper, need %d", payerCopper, plan.price)
	}

	plan.payer.Currency = entities.FromCopper(payerCopper - plan.price)
	plan.payee.Currency = entities.FromCopper(plan.payee.Currency.ToCopper() + plan.price)

	unit, ok := plan.source.RemoveOne(plan.item.ID)
	if !ok {
		return errors.FailedPrecondition("item is out of stock")
	}
	plan.dest.AddOne(unit, o.idGen.Generate())

	if err := o.actorRepo.SaveAll(ctx, plan.shop, plan.buyer); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// effectivePriceCopper applies the session modifier to a listed gold price
// and rounds to the nearest copper
func effectivePriceCopper(unitPriceGold float64, modifierPercent int) int {
	mult := 1 + float64(modifierPercent)/100
	return int(math.Round(unitPriceGold * mult * entities.CopperPerGold))
}
