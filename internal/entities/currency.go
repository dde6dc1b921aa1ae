package entities

// Currency conversion bases: 1 gold = 10 silver = 100 copper.
const (
	CopperPerSilver = 10
	CopperPerGold   = 100
)

// Currency is a purse in the three denominations. All arithmetic happens in
// copper-equivalent integers; FromCopper produces the canonical minimal
// breakdown (at most 9 copper and 9 silver).
type Currency struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Copper int `json:"copper"`
}

// ToCopper converts the purse to copper-equivalent units
func (c Currency) ToCopper() int {
	return c.Gold*CopperPerGold + c.Silver*CopperPerSilver + c.Copper
}

// FromCopper converts copper-equivalent units back to the canonical
// denomination breakdown. Negative input clamps to an empty purse; balances
// are never allowed to go negative upstream.
func FromCopper(copper int) Currency {
	if copper < 0 {
		copper = 0
	}
	return Currency{
		Gold:   copper / CopperPerGold,
		Silver: (copper % CopperPerGold) / CopperPerSilver,
		Copper: copper % CopperPerSilver,
	}
}
