package fracture_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aequall/aequall-api/internal/orchestrators/fracture"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   fracture.Hand
	}{
		{"three hot faces", []int{5, 5, 5, 2}, fracture.HandSurcharge},
		{"four hot faces beat four of a kind", []int{5, 5, 5, 5}, fracture.HandSurcharge},
		{"four sixes", []int{6, 6, 6, 6}, fracture.HandHarmonie},
		{"four of a kind", []int{3, 3, 3, 3}, fracture.HandPantheon},
		{"ascending run", []int{1, 2, 3, 4}, fracture.HandFracture},
		{"run in any order", []int{4, 1, 3, 2}, fracture.HandFracture},
		{"three of a kind", []int{2, 2, 2, 6}, fracture.HandTriumvirat},
		{"two pair is nothing", []int{2, 2, 6, 6}, fracture.HandNothing},
		{"broken run is nothing", []int{1, 2, 3, 6}, fracture.HandNothing},
		{"pair of hot faces is not a penalty", []int{5, 5, 1, 2}, fracture.HandNothing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fracture.Evaluate(tt.values))
		})
	}
}

func TestHandMultiplier(t *testing.T) {
	assert.Equal(t, 5, fracture.HandHarmonie.Multiplier())
	assert.Equal(t, 3, fracture.HandPantheon.Multiplier())
	assert.Equal(t, 2, fracture.HandFracture.Multiplier())
	assert.Equal(t, 1, fracture.HandTriumvirat.Multiplier())
	assert.Equal(t, 0, fracture.HandSurcharge.Multiplier())
	assert.Equal(t, 0, fracture.HandNothing.Multiplier())
}
