package messaging_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/aequall/aequall-api/internal/messaging"
	redisclient "github.com/aequall/aequall-api/internal/redis"
	"github.com/aequall/aequall-api/internal/testutils"
)

type ChannelTestSuite struct {
	suite.Suite
	client     redisclient.Client
	publisher  *messaging.Channel
	subscriber *messaging.Channel
	cleanup    func()
	ctx        context.Context
	cancel     context.CancelFunc
}

func (s *ChannelTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.client = client
	s.cleanup = cleanup

	pub, err := messaging.NewChannel(&messaging.Config{Client: client})
	s.Require().NoError(err)
	s.publisher = pub

	sub, err := messaging.NewChannel(&messaging.Config{Client: client})
	s.Require().NoError(err)
	s.subscriber = sub
}

func (s *ChannelTestSuite) TearDownTest() {
	s.cancel()
	s.Require().NoError(s.subscriber.Close())
	s.cleanup()
}

func (s *ChannelTestSuite) receive(inbound <-chan messaging.Envelope) messaging.Envelope {
	select {
	case env, ok := <-inbound:
		require.True(s.T(), ok, "stream closed before a frame arrived")
		return env
	case <-time.After(2 * time.Second):
		s.T().Fatal("timed out waiting for envelope")
		return messaging.Envelope{}
	}
}

func (s *ChannelTestSuite) TestPublishSubscribeRoundTrip() {
	inbound, err := s.subscriber.Subscribe(s.ctx)
	s.Require().NoError(err)

	env, err := messaging.NewEnvelope(messaging.KindMerchantBuy, "req-1", "user-alys", messaging.TradePayload{
		ShopID:               "shop-1",
		BuyerID:              "pc-alys",
		ItemID:               "sword-1",
		PriceModifierPercent: 20,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.publisher.Publish(s.ctx, env))

	got := s.receive(inbound)
	s.Equal(messaging.KindMerchantBuy, got.Kind)
	s.Equal("req-1", got.RequestID)
	s.Equal("user-alys", got.RequesterID)
	s.JSONEq(string(env.Payload), string(got.Payload))
}

func (s *ChannelTestSuite) TestOrderPreservedPerPublisher() {
	inbound, err := s.subscriber.Subscribe(s.ctx)
	s.Require().NoError(err)

	for _, id := range []string{"req-1", "req-2", "req-3"} {
		env, envErr := messaging.NewEnvelope(messaging.KindHPAdjust, id, "user-alys", messaging.HPAdjustPayload{Delta: -1})
		s.Require().NoError(envErr)
		s.Require().NoError(s.publisher.Publish(s.ctx, env))
	}

	s.Equal("req-1", s.receive(inbound).RequestID)
	s.Equal("req-2", s.receive(inbound).RequestID)
	s.Equal("req-3", s.receive(inbound).RequestID)
}

func (s *ChannelTestSuite) TestMalformedFrameDropped() {
	inbound, err := s.subscriber.Subscribe(s.ctx)
	s.Require().NoError(err)

	// Raw junk on the topic is skipped, the next good frame still arrives
	s.Require().NoError(s.client.Publish(s.ctx, messaging.DefaultTopic, `{"kind": 42`).Err())

	env, err := messaging.NewEnvelope(messaging.KindMerchantSell, "req-2", "user-alys", messaging.TradePayload{})
	s.Require().NoError(err)
	s.Require().NoError(s.publisher.Publish(s.ctx, env))

	got := s.receive(inbound)
	s.Equal("req-2", got.RequestID)
}

func (s *ChannelTestSuite) TestStreamClosesOnCancel() {
	inbound, err := s.subscriber.Subscribe(s.ctx)
	s.Require().NoError(err)

	s.cancel()

	select {
	case _, ok := <-inbound:
		s.False(ok, "stream should close after cancel")
	case <-time.After(2 * time.Second):
		s.T().Fatal("stream did not close after cancel")
	}
}

func TestChannelSuite(t *testing.T) {
	suite.Run(t, new(ChannelTestSuite))
}
