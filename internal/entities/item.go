package entities

// Item kinds. Only tradable kinds appear in shop listings.
const (
	ItemKindWeapon = "weapon"
	ItemKindArmor  = "armor"
	ItemKindGear   = "item"
)

// TradableKinds lists the item kinds a merchant will stock or buy back
var TradableKinds = []string{ItemKindWeapon, ItemKindArmor, ItemKindGear}

// Item is a single inventory record. A record belongs to exactly one actor's
// inventory; trades move units between inventories, never copy them.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`

	// Quantity is the stack size, always >= 0
	Quantity int `json:"quantity"`

	// UnitPrice is the listed value of one unit, in gold. Fractional prices
	// are legal (0.5 gold = 5 silver).
	UnitPrice float64 `json:"unit_price"`

	// Damage is the roll formula for weapons, e.g. "1d6"
	Damage string `json:"damage,omitempty"`
}

// Tradable reports whether the item kind can be bought or sold
func (i *Item) Tradable() bool {
	for _, k := range TradableKinds {
		if i.Kind == k {
			return true
		}
	}
	return false
}
