package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aequall/aequall-api/internal/entities"
)

func TestCurrencyToCopper(t *testing.T) {
	tests := []struct {
		name  string
		purse entities.Currency
		want  int
	}{
		{"empty purse", entities.Currency{}, 0},
		{"gold only", entities.Currency{Gold: 15}, 1500},
		{"mixed", entities.Currency{Gold: 3, Silver: 4, Copper: 7}, 347},
		{"non-canonical purse still converts", entities.Currency{Silver: 25, Copper: 130}, 380},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.purse.ToCopper())
		})
	}
}

func TestFromCopper(t *testing.T) {
	tests := []struct {
		name   string
		copper int
		want   entities.Currency
	}{
		{"zero", 0, entities.Currency{}},
		{"copper only", 9, entities.Currency{Copper: 9}},
		{"exact silver", 10, entities.Currency{Silver: 1}},
		{"exact gold", 100, entities.Currency{Gold: 1}},
		{"mixed", 347, entities.Currency{Gold: 3, Silver: 4, Copper: 7}},
		{"negative clamps to empty", -50, entities.Currency{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entities.FromCopper(tt.copper))
		})
	}
}

func TestCurrencyRoundTrip(t *testing.T) {
	for c := 0; c <= 5000; c++ {
		purse := entities.FromCopper(c)

		assert.Equal(t, c, purse.ToCopper(), "copper %d does not round-trip", c)
		assert.GreaterOrEqual(t, purse.Silver, 0)
		assert.LessOrEqual(t, purse.Silver, 9)
		assert.GreaterOrEqual(t, purse.Copper, 0)
		assert.LessOrEqual(t, purse.Copper, 9)
	}
}
