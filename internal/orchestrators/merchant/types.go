package merchant

import "github.com/aequall/aequall-api/internal/entities"

// TransactionKind discriminates the two trade directions
type TransactionKind string

// Transaction kinds
const (
	KindBuy  TransactionKind = "buy"
	KindSell TransactionKind = "sell"
)

// Buy-back rate applied when a shop purchases from a player
const sellRate = 0.5

// TransactionRequest is the untrusted proposal submitted by any participant.
// Every field is re-validated by the authoritative applier; declared
// modifiers are honored but prices and balances are always re-derived.
type TransactionRequest struct {
	Kind                 TransactionKind
	ShopID               string
	BuyerID              string
	ItemID               string
	PriceModifierPercent int
	RequesterID          string
	RequestID            string
}

// OpenShopInput contains parameters for announcing a shop session
type OpenShopInput struct {
	ShopID               string
	BuyerID              string
	PriceModifierPercent int
	RequesterID          string
}

// OpenShopOutput describes the announced session
type OpenShopOutput struct {
	ShopName  string
	BuyerName string
}

// SubmitTradeInput contains parameters for proposing a trade
type SubmitTradeInput struct {
	Kind                 TransactionKind
	ShopID               string
	BuyerID              string
	ItemID               string
	PriceModifierPercent int
	RequesterID          string
}

// SubmitTradeOutput contains the request ID assigned to the proposal
type SubmitTradeOutput struct {
	RequestID string
}

// ApplyInput contains the proposal to validate and apply authoritatively
type ApplyInput struct {
	Request TransactionRequest
}

// ApplyOutput describes the committed trade
type ApplyOutput struct {
	ItemName    string
	PriceCopper int
}

// Ware is one shop listing with its effective price applied
type Ware struct {
	ItemID         string
	Name           string
	Quantity       int
	EffectivePrice int // copper-equivalent, modifier applied
}

// Candidate is one actor offered in the session-configuration pickers
type Candidate struct {
	ActorID string
	Name    string
}

// ListCandidatesInput contains parameters for listing configurable actors
type ListCandidatesInput struct {
	RequesterID string
}

// ListCandidatesOutput contains the actors a session can be built from:
// NPCs as shops, characters as buyers
type ListCandidatesOutput struct {
	Shops  []Candidate
	Buyers []Candidate
}

// ListWaresInput contains parameters for listing a shop's stock
type ListWaresInput struct {
	ShopID               string
	PriceModifierPercent int
}

// ListWaresOutput contains the tradable stock with effective prices
type ListWaresOutput struct {
	ShopName string
	Gold     entities.Currency
	Wares    []Ware
}
