package relay_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/aequall/aequall-api/internal/entities"
	"github.com/aequall/aequall-api/internal/handlers/relay"
	"github.com/aequall/aequall-api/internal/messaging"
	"github.com/aequall/aequall-api/internal/orchestrators/combat"
	"github.com/aequall/aequall-api/internal/orchestrators/merchant"
)

// Minimal implementations recording the calls the relay routes

type stubMerchant struct {
	merchant.Service
	applied []merchant.TransactionRequest
	err     error
}

func (s *stubMerchant) Apply(_ context.Context, input *merchant.ApplyInput) (*merchant.ApplyOutput, error) {
	s.applied = append(s.applied, input.Request)
	if s.err != nil {
		return nil, s.err
	}
	return &merchant.ApplyOutput{}, nil
}

type stubCombat struct {
	combat.Service
	adjusted []combat.AdjustHPInput
}

func (s *stubCombat) AdjustHP(_ context.Context, input *combat.AdjustHPInput) (*combat.AdjustHPOutput, error) {
	s.adjusted = append(s.adjusted, *input)
	return &combat.AdjustHPOutput{HP: entities.HitPoints{Value: 5, Max: 10}}, nil
}

type stubSubscriber struct {
	inbound chan messaging.Envelope
}

func (s *stubSubscriber) Subscribe(_ context.Context) (<-chan messaging.Envelope, error) {
	return s.inbound, nil
}

func (s *stubSubscriber) Close() error {
	close(s.inbound)
	return nil
}

type RelayTestSuite struct {
	suite.Suite
	merchantStub *stubMerchant
	combatStub   *stubCombat
	subscriber   *stubSubscriber
	ctx          context.Context
}

func (s *RelayTestSuite) SetupTest() {
	s.merchantStub = &stubMerchant{}
	s.combatStub = &stubCombat{}
	s.subscriber = &stubSubscriber{inbound: make(chan messaging.Envelope, 8)}
	s.ctx = context.Background()
}

func (s *RelayTestSuite) newRelay(localUserID string) *relay.Relay {
	r, err := relay.New(&relay.Config{
		Merchant:            s.merchantStub,
		Combat:              s.combatStub,
		Subscriber:          s.subscriber,
		LocalUserID:         localUserID,
		AuthoritativeUserID: "user-gm",
	})
	s.Require().NoError(err)
	return r
}

func envelope(s *RelayTestSuite, kind string, payload any) messaging.Envelope {
	env, err := messaging.NewEnvelope(kind, "req-1", "user-alys", payload)
	s.Require().NoError(err)
	return env
}

func (s *RelayTestSuite) TestRoutesBuyRequest() {
	r := s.newRelay("user-gm")

	r.Handle(s.ctx, envelope(s, messaging.KindMerchantBuy, messaging.TradePayload{
		ShopID:               "shop-1",
		BuyerID:              "pc-alys",
		ItemID:               "sword-1",
		PriceModifierPercent: 20,
	}))

	s.Require().Len(s.merchantStub.applied, 1)
	req := s.merchantStub.applied[0]
	s.Equal(merchant.KindBuy, req.Kind)
	s.Equal("shop-1", req.ShopID)
	s.Equal("pc-alys", req.BuyerID)
	s.Equal("sword-1", req.ItemID)
	s.Equal(20, req.PriceModifierPercent)
	// Identity comes from the envelope, never the payload
	s.Equal("user-alys", req.RequesterID)
	s.Equal("req-1", req.RequestID)
}

func (s *RelayTestSuite) TestRoutesSellRequest() {
	r := s.newRelay("user-gm")

	r.Handle(s.ctx, envelope(s, messaging.KindMerchantSell, messaging.TradePayload{
		ShopID:  "shop-1",
		BuyerID: "pc-alys",
		ItemID:  "dagger-1",
	}))

	s.Require().Len(s.merchantStub.applied, 1)
	s.Equal(merchant.KindSell, s.merchantStub.applied[0].Kind)
}

func (s *RelayTestSuite) TestRoutesHPAdjust() {
	r := s.newRelay("user-gm")

	r.Handle(s.ctx, envelope(s, messaging.KindHPAdjust, messaging.HPAdjustPayload{
		SourceActorID: "pc-alys",
		TargetActorID: "npc-ghoul",
		Delta:         -4,
	}))

	s.Require().Len(s.combatStub.adjusted, 1)
	adj := s.combatStub.adjusted[0]
	s.Equal("pc-alys", adj.SourceActorID)
	s.Equal("npc-ghoul", adj.TargetActorID)
	s.Equal(-4, adj.Delta)
	s.Equal("user-alys", adj.RequesterID)
}

func (s *RelayTestSuite) TestNonAuthoritativeSessionDropsEverything() {
	r := s.newRelay("user-alys")

	r.Handle(s.ctx, envelope(s, messaging.KindMerchantBuy, messaging.TradePayload{ShopID: "shop-1"}))
	r.Handle(s.ctx, envelope(s, messaging.KindHPAdjust, messaging.HPAdjustPayload{Delta: -1}))

	s.Empty(s.merchantStub.applied)
	s.Empty(s.combatStub.adjusted)
}

func (s *RelayTestSuite) TestUnknownKindDropped() {
	r := s.newRelay("user-gm")

	r.Handle(s.ctx, envelope(s, "merchant:haggle", messaging.TradePayload{}))

	s.Empty(s.merchantStub.applied)
}

func (s *RelayTestSuite) TestMalformedPayloadDropped() {
	r := s.newRelay("user-gm")

	r.Handle(s.ctx, messaging.Envelope{
		Kind:        messaging.KindMerchantBuy,
		RequestID:   "req-1",
		RequesterID: "user-alys",
		Payload:     []byte(`{"shop_id": 42`),
	})

	s.Empty(s.merchantStub.applied)
}

func (s *RelayTestSuite) TestRejectedTradeIsSwallowed() {
	s.merchantStub.err = context.DeadlineExceeded
	r := s.newRelay("user-gm")

	// Handle never panics or propagates orchestrator errors
	r.Handle(s.ctx, envelope(s, messaging.KindMerchantBuy, messaging.TradePayload{ShopID: "shop-1"}))

	s.Require().Len(s.merchantStub.applied, 1)
}

func (s *RelayTestSuite) TestRunConsumesStreamUntilClosed() {
	r := s.newRelay("user-gm")

	s.subscriber.inbound <- envelope(s, messaging.KindMerchantBuy, messaging.TradePayload{ShopID: "shop-1"})
	s.subscriber.inbound <- envelope(s, messaging.KindHPAdjust, messaging.HPAdjustPayload{Delta: -2})
	require.NoError(s.T(), s.subscriber.Close())

	err := r.Run(s.ctx)

	s.Require().NoError(err)
	s.Len(s.merchantStub.applied, 1)
	s.Len(s.combatStub.adjusted, 1)
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelayTestSuite))
}
