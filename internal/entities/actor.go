// Package entities defines the typed records the orchestrators operate on:
// actors with inventories and purses, items, and per-turn combat state.
// Fields are explicit and validated at compile time; nothing reads or writes
// dynamic key paths.
package entities

import (
	"github.com/KirkDiggler/rpg-toolkit/core"
)

// Actor kinds
const (
	ActorKindCharacter = "character"
	ActorKindNPC       = "npc"
)

// HitPoints is current and maximum HP for an actor
type HitPoints struct {
	Value int `json:"value"`
	Max   int `json:"max"`
}

// Attributes holds the derived combat numbers an action roll consults
type Attributes struct {
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
}

// Actor is a character or NPC document: identity, ownership, vitals, purse,
// and inventory. The inventory records are owned exclusively by this actor.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`

	// OwnerUserID is the user permitted to act as this actor. Empty for
	// GM-only actors (shops, monsters).
	OwnerUserID string `json:"owner_user_id,omitempty"`

	HP         HitPoints  `json:"hp"`
	Attributes Attributes `json:"attributes"`
	Currency   Currency   `json:"currency"`
	Inventory  []Item     `json:"inventory"`
}

// GetID implements core.Entity
func (a *Actor) GetID() string {
	return a.ID
}

// GetType implements core.Entity
func (a *Actor) GetType() string {
	return a.Kind
}

// Compile-time check that Actor satisfies the toolkit entity contract
var _ core.Entity = (*Actor)(nil)

// OwnedBy reports whether userID may act as this actor
func (a *Actor) OwnedBy(userID string) bool {
	return a.OwnerUserID != "" && a.OwnerUserID == userID
}

// Item returns a pointer into the inventory for the record with the given ID
func (a *Actor) Item(itemID string) *Item {
	for i := range a.Inventory {
		if a.Inventory[i].ID == itemID {
			return &a.Inventory[i]
		}
	}
	return nil
}

// RemoveOne takes a single unit of the identified record out of the
// inventory: stacks larger than one are decremented, a last unit deletes the
// record. Returns a one-unit copy of the item, or false when the record does
// not exist or is empty.
func (a *Actor) RemoveOne(itemID string) (Item, bool) {
	for i := range a.Inventory {
		if a.Inventory[i].ID != itemID {
			continue
		}
		if a.Inventory[i].Quantity < 1 {
			return Item{}, false
		}

		unit := a.Inventory[i]
		unit.Quantity = 1

		if a.Inventory[i].Quantity > 1 {
			a.Inventory[i].Quantity--
		} else {
			a.Inventory = append(a.Inventory[:i], a.Inventory[i+1:]...)
		}
		return unit, true
	}
	return Item{}, false
}

// AddOne puts a single unit into the inventory: an existing stack of the same
// name and kind is incremented, otherwise a new single-quantity record is
// created under newID.
func (a *Actor) AddOne(unit Item, newID string) {
	for i := range a.Inventory {
		if a.Inventory[i].Name == unit.Name && a.Inventory[i].Kind == unit.Kind {
			a.Inventory[i].Quantity++
			return
		}
	}

	unit.ID = newID
	unit.Quantity = 1
	a.Inventory = append(a.Inventory, unit)
}
