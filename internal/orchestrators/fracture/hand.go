package fracture

// Hand identifies one row of the ranked payout table
type Hand string

// Hands, strongest first. Surcharge overrides every other pattern.
const (
	HandSurcharge  Hand = "surcharge"
	HandHarmonie   Hand = "harmonie"
	HandPantheon   Hand = "pantheon"
	HandFracture   Hand = "fracture"
	HandTriumvirat Hand = "triumvirat"
	HandNothing    Hand = "nothing"
)

// Multiplier returns the payout multiplier for winning hands, zero otherwise.
// A winning stop returns the stake plus stake times the multiplier.
func (h Hand) Multiplier() int {
	switch h {
	case HandHarmonie:
		return 5
	case HandPantheon:
		return 3
	case HandFracture:
		return 2
	case HandTriumvirat:
		return 1
	default:
		return 0
	}
}

// Evaluate ranks a four-die multiset against the fixed payout table. Three or
// more hot faces always evaluate to Surcharge, even when a stronger pattern
// is also present.
func Evaluate(values []int) Hand {
	counts := make(map[int]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	if counts[HotFace] >= 3 {
		return HandSurcharge
	}
	if counts[6] == PoolSize {
		return HandHarmonie
	}
	for _, c := range counts {
		if c == PoolSize {
			return HandPantheon
		}
	}
	if counts[1] == 1 && counts[2] == 1 && counts[3] == 1 && counts[4] == 1 {
		return HandFracture
	}
	for _, c := range counts {
		if c >= 3 {
			return HandTriumvirat
		}
	}
	return HandNothing
}
