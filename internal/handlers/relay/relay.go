// Package relay is the authoritative applier: it consumes the shared message
// topic and routes mutation requests into the orchestrators. Only the
// authoritative (GM) session applies anything; every other session drops the
// stream unread. A failed request degrades to "it did not happen" and is
// logged, never propagated.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aequall/aequall-api/internal/errors"
	"github.com/aequall/aequall-api/internal/messaging"
	"github.com/aequall/aequall-api/internal/orchestrators/combat"
	"github.com/aequall/aequall-api/internal/orchestrators/merchant"
)

// Config holds the dependencies for the relay
type Config struct {
	Merchant   merchant.Service
	Combat     combat.Service
	Subscriber messaging.Subscriber

	// LocalUserID identifies this session. The relay applies envelopes only
	// when it equals AuthoritativeUserID.
	LocalUserID         string
	AuthoritativeUserID string
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Merchant == nil {
		vb.RequiredField("Merchant")
	}
	if c.Combat == nil {
		vb.RequiredField("Combat")
	}
	if c.Subscriber == nil {
		vb.RequiredField("Subscriber")
	}
	if c.LocalUserID == "" {
		vb.RequiredField("LocalUserID")
	}
	if c.AuthoritativeUserID == "" {
		vb.RequiredField("AuthoritativeUserID")
	}

	return vb.Build()
}

// Relay routes inbound envelopes to the orchestrators
type Relay struct {
	merchant   merchant.Service
	combat     combat.Service
	subscriber messaging.Subscriber
	localID    string
	gmID       string
}

// New creates a relay with the provided dependencies
func New(cfg *Config) (*Relay, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Relay{
		merchant:   cfg.Merchant,
		combat:     cfg.Combat,
		subscriber: cfg.Subscriber,
		localID:    cfg.LocalUserID,
		gmID:       cfg.AuthoritativeUserID,
	}, nil
}

// Run consumes the subscriber stream until the context is canceled or the
// stream closes
func (r *Relay) Run(ctx context.Context) error {
	inbound, err := r.subscriber.Subscribe(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to subscribe")
	}

	slog.Info("Relay started",
		"local_user_id", r.localID,
		"authoritative", r.localID == r.gmID,
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-inbound:
			if !ok {
				return nil
			}
			r.Handle(ctx, env)
		}
	}
}

// Handle applies a single envelope. Non-authoritative sessions drop
// everything; errors are logged and swallowed.
func (r *Relay) Handle(ctx context.Context, env messaging.Envelope) {
	if r.localID != r.gmID {
		return
	}

	switch env.Kind {
	case messaging.KindMerchantBuy:
		r.applyTrade(ctx, env, merchant.KindBuy)
	case messaging.KindMerchantSell:
		r.applyTrade(ctx, env, merchant.KindSell)
	case messaging.KindHPAdjust:
		r.applyHPAdjust(ctx, env)
	case messaging.KindMerchantOpen:
		// Shop announcements are consumed by the buyer's UI, nothing to apply
	default:
		slog.Warn("Dropping envelope of unknown kind",
			"kind", env.Kind,
			"request_id", env.RequestID,
		)
	}
}

func (r *Relay) applyTrade(ctx context.Context, env messaging.Envelope, kind merchant.TransactionKind) {
	var payload messaging.TradePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		slog.Warn("Dropping malformed trade request",
			"kind", env.Kind,
			"request_id", env.RequestID,
			"error", err,
		)
		return
	}

	_, err := r.merchant.Apply(ctx, &merchant.ApplyInput{
		Request: merchant.TransactionRequest{
			Kind:                 kind,
			ShopID:               payload.ShopID,
			BuyerID:              payload.BuyerID,
			ItemID:               payload.ItemID,
			PriceModifierPercent: payload.PriceModifierPercent,
			RequesterID:          env.RequesterID,
			RequestID:            env.RequestID,
		},
	})
	if err != nil {
		slog.Warn("Trade request rejected",
			"kind", env.Kind,
			"request_id", env.RequestID,
			"requester_id", env.RequesterID,
			"error", err,
		)
	}
}

func (r *Relay) applyHPAdjust(ctx context.Context, env messaging.Envelope) {
	var payload messaging.HPAdjustPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		slog.Warn("Dropping malformed hp adjust request",
			"request_id", env.RequestID,
			"error", err,
		)
		return
	}

	_, err := r.combat.AdjustHP(ctx, &combat.AdjustHPInput{
		SourceActorID: payload.SourceActorID,
		TargetActorID: payload.TargetActorID,
		RequesterID:   env.RequesterID,
		Delta:         payload.Delta,
	})
	if err != nil {
		slog.Warn("HP adjust request rejected",
			"request_id", env.RequestID,
			"requester_id", env.RequesterID,
			"error", err,
		)
	}
}
