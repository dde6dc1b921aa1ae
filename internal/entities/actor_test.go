package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aequall/aequall-api/internal/entities"
)

func TestActorOwnedBy(t *testing.T) {
	owned := &entities.Actor{ID: "pc-alys", OwnerUserID: "user-alys"}
	assert.True(t, owned.OwnedBy("user-alys"))
	assert.False(t, owned.OwnedBy("user-mallory"))

	// GM-only actors have no owner; nobody matches, not even empty identity
	unowned := &entities.Actor{ID: "shop-1"}
	assert.False(t, unowned.OwnedBy(""))
	assert.False(t, unowned.OwnedBy("user-alys"))
}

func TestActorRemoveOneDecrementsStack(t *testing.T) {
	actor := &entities.Actor{
		Inventory: []entities.Item{
			{ID: "arrow-1", Name: "Arrow", Kind: entities.ItemKindGear, Quantity: 3, UnitPrice: 0.1},
		},
	}

	unit, ok := actor.RemoveOne("arrow-1")

	require.True(t, ok)
	assert.Equal(t, 1, unit.Quantity)
	assert.Equal(t, "Arrow", unit.Name)
	assert.Equal(t, 2, actor.Item("arrow-1").Quantity)
}

func TestActorRemoveOneDeletesLastUnit(t *testing.T) {
	actor := &entities.Actor{
		Inventory: []entities.Item{
			{ID: "sword-1", Name: "Longsword", Kind: entities.ItemKindWeapon, Quantity: 1},
			{ID: "arrow-1", Name: "Arrow", Kind: entities.ItemKindGear, Quantity: 3},
		},
	}

	_, ok := actor.RemoveOne("sword-1")

	require.True(t, ok)
	assert.Nil(t, actor.Item("sword-1"))
	assert.Len(t, actor.Inventory, 1)
}

func TestActorRemoveOneMissing(t *testing.T) {
	actor := &entities.Actor{}

	_, ok := actor.RemoveOne("ghost-1")

	assert.False(t, ok)
}

func TestActorAddOneMergesMatchingStack(t *testing.T) {
	actor := &entities.Actor{
		Inventory: []entities.Item{
			{ID: "arrow-1", Name: "Arrow", Kind: entities.ItemKindGear, Quantity: 3},
		},
	}

	actor.AddOne(entities.Item{ID: "arrow-other", Name: "Arrow", Kind: entities.ItemKindGear, Quantity: 1}, "new-id")

	require.Len(t, actor.Inventory, 1)
	assert.Equal(t, 4, actor.Inventory[0].Quantity)
	// The existing record keeps its own ID
	assert.Equal(t, "arrow-1", actor.Inventory[0].ID)
}

func TestActorAddOneCreatesRecordUnderNewID(t *testing.T) {
	actor := &entities.Actor{}

	actor.AddOne(entities.Item{ID: "sword-shop", Name: "Longsword", Kind: entities.ItemKindWeapon, Quantity: 5}, "sword-new")

	require.Len(t, actor.Inventory, 1)
	assert.Equal(t, "sword-new", actor.Inventory[0].ID)
	assert.Equal(t, 1, actor.Inventory[0].Quantity)
}

func TestItemTradable(t *testing.T) {
	assert.True(t, (&entities.Item{Kind: entities.ItemKindWeapon}).Tradable())
	assert.True(t, (&entities.Item{Kind: entities.ItemKindArmor}).Tradable())
	assert.True(t, (&entities.Item{Kind: entities.ItemKindGear}).Tradable())
	assert.False(t, (&entities.Item{Kind: "note"}).Tradable())
}
