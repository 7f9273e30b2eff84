package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsmith/app/services/planner/internal/engine/condition"
	"tripsmith/app/services/planner/internal/engine/geo"
)

var (
	rome     = geo.Place{Name: "Rome", Lat: 41.9028, Lng: 12.4964}
	florence = geo.Place{Name: "Florence", Lat: 43.7696, Lng: 11.2558}
	london   = geo.Place{Name: "London", Lat: 51.5074, Lng: -0.1278}
)

func TestComposeAlwaysPairsPrimaryWithDivergentBackup(t *testing.T) {
	c := NewComposer(DefaultWeights())
	leg, cond := c.Compose(rome, florence, 2)

	require.Nil(t, cond)
	require.NotEmpty(t, leg.Primary.Segments)
	require.NotNil(t, leg.Backup, "every leg needs a fallback route")
	assert.False(t, leg.SingleRouteRisk)
	assert.True(t, diverges(leg.Primary, *leg.Backup),
		"backup must differ in mode or provider, got %v vs %v", leg.Primary, leg.Backup)
}

func TestComposeSingleStrategyFlagsRisk(t *testing.T) {
	c := NewComposer(DefaultWeights(), StrategyMostReliable)
	leg, cond := c.Compose(rome, florence, 1)

	require.NotNil(t, cond)
	assert.Equal(t, condition.SingleRouteRisk, cond.Code)
	assert.True(t, leg.SingleRouteRisk)
	assert.Nil(t, leg.Backup)
	assert.NotEmpty(t, leg.Primary.Segments, "primary still returned under risk")
}

func TestStrategyShapes(t *testing.T) {
	dist := geo.Distance(rome, london)
	require.Greater(t, dist, 300.0)

	c := NewComposer(DefaultWeights())
	tests := []struct {
		strategy  Strategy
		to        geo.Place
		wantMode  Mode
		wantLegs  int
		transfers int
	}{
		{StrategyFastest, london, ModeFlight, 1, 0},
		{StrategyCheapest, florence, ModeBus, 1, 0},
		{StrategyMostReliable, london, ModeTrain, 1, 0},
		{StrategyFewestTransfers, florence, ModeCar, 1, 0},
		{StrategyPublicTransport, london, ModeTrain, 2, 1},
		{StrategyHybrid, london, ModeTrain, 2, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			r, ok := c.build(tt.strategy, rome, tt.to, geo.Distance(rome, tt.to), 1)
			require.True(t, ok)
			assert.Len(t, r.Segments, tt.wantLegs)
			assert.Equal(t, tt.transfers, r.Transfers)
			assert.Equal(t, tt.wantMode, r.primaryMode())
			assert.Greater(t, r.CostCents, int64(0))
			assert.Greater(t, r.DurationMinutes, 0)
		})
	}
}

func TestFastestFallsBackToTrainOnShortHops(t *testing.T) {
	c := NewComposer(DefaultWeights())
	dist := geo.Distance(rome, florence)
	require.Less(t, dist, 300.0, "rome-florence is below the flight threshold")

	r, ok := c.build(StrategyFastest, rome, florence, dist, 1)
	require.True(t, ok)
	assert.Equal(t, ModeTrain, r.primaryMode())
}

func TestWeightsShiftTheWinner(t *testing.T) {
	costOnly := NewComposer(Weights{Cost: 1})
	leg, cond := costOnly.Compose(rome, florence, 1)
	require.Nil(t, cond)
	assert.Equal(t, ModeBus, leg.Primary.primaryMode(),
		"with cost the only concern, the bus wins")

	timeOnly := NewComposer(Weights{Time: 1})
	leg, cond = timeOnly.Compose(rome, london, 1)
	require.Nil(t, cond)
	assert.Equal(t, ModeFlight, leg.Primary.primaryMode(),
		"with time the only concern, the flight wins")
}

func TestCostScalesWithTravelers(t *testing.T) {
	c := NewComposer(DefaultWeights(), StrategyMostReliable)
	solo, _ := c.Compose(rome, florence, 1)
	pair, _ := c.Compose(rome, florence, 2)
	assert.Equal(t, 2*solo.Primary.CostCents, pair.Primary.CostCents)
}
