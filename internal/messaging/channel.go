// Package messaging carries tagged request envelopes between client sessions
// over a single logical topic. Any session may publish; only the
// authoritative session's relay consumes and applies. Payloads are untrusted
// until the authoritative side re-validates them.
package messaging

import (
	"context"
	"encoding/json"
)

//go:generate mockgen -destination=mock/mock_channel.go -package=messagingmock github.com/aequall/aequall-api/internal/messaging Publisher

// DefaultTopic is the single logical topic every session shares
const DefaultTopic = "aequall.system"

// Envelope kinds
const (
	KindMerchantOpen = "merchant:open"
	KindMerchantBuy  = "merchant:buy"
	KindMerchantSell = "merchant:sell"
	KindHPAdjust     = "hp:adjust"
)

// Envelope is the wire frame for one request. RequesterID identifies the
// submitting user session and is the identity every permission check runs
// against.
type Envelope struct {
	Kind        string          `json:"kind"`
	RequestID   string          `json:"request_id"`
	RequesterID string          `json:"requester_id"`
	Payload     json.RawMessage `json:"payload"`
}

// OpenShopPayload announces a shop session to the buyer's client
type OpenShopPayload struct {
	ShopID               string `json:"shop_id"`
	BuyerID              string `json:"buyer_id"`
	PriceModifierPercent int    `json:"price_modifier_percent"`
}

// TradePayload is the body of merchant:buy and merchant:sell requests.
// Declared values are proposals only; the applier re-derives prices and
// re-checks ownership and balances.
type TradePayload struct {
	ShopID               string `json:"shop_id"`
	BuyerID              string `json:"buyer_id"`
	ItemID               string `json:"item_id"`
	PriceModifierPercent int    `json:"price_modifier_percent"`
}

// HPAdjustPayload is the body of hp:adjust requests
type HPAdjustPayload struct {
	SourceActorID string `json:"source_actor_id"`
	TargetActorID string `json:"target_actor_id"`
	Delta         int    `json:"delta"`
}

// Publisher sends envelopes to the shared topic
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Subscriber receives envelopes from the shared topic
type Subscriber interface {
	// Subscribe returns a channel of inbound envelopes. The channel closes
	// when the context is canceled or the subscriber is closed.
	Subscribe(ctx context.Context) (<-chan Envelope, error)

	// Close tears down the subscription
	Close() error
}

// NewEnvelope marshals a payload into an envelope of the given kind
func NewEnvelope(kind, requestID, requesterID string, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		Kind:        kind,
		RequestID:   requestID,
		RequesterID: requesterID,
		Payload:     body,
	}, nil
}
