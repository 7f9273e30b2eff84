package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsmith/app/services/planner/internal/engine/condition"
	"tripsmith/app/services/planner/internal/engine/geo"
	"tripsmith/app/services/planner/internal/engine/offers"
)

func TestAllocateSplitsExactly(t *testing.T) {
	tests := []struct {
		name       string
		totalCents int64
		nights     int
		wantAcc    int64
		wantAct    int64
		wantFood   int64
		wantPerN   int64
	}{
		{"round total", 200000, 7, 110000, 60000, 30000, 15714},
		{"odd total keeps sum exact", 99999, 3, 54999 + 2, 29999, 14999, 18333},
		{"single night", 10000, 1, 5500, 3000, 1500, 5500},
		{"tiny budget", 7, 2, 3 + 1, 2, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Allocate(tt.totalCents, tt.nights)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAcc, a.AccommodationCents)
			assert.Equal(t, tt.wantAct, a.ActivitiesCents)
			assert.Equal(t, tt.wantFood, a.FoodCents)
			assert.Equal(t, tt.wantPerN, a.PerNightCeilingCents)
			assert.Equal(t, tt.totalCents, a.AccommodationCents+a.ActivitiesCents+a.FoodCents,
				"categories must sum to the total")
		})
	}
}

func TestAllocateRejectsBadInput(t *testing.T) {
	_, err := Allocate(0, 5)
	assert.Error(t, err)
	_, err = Allocate(10000, 0)
	assert.Error(t, err)
}

func hotel(id string, price int64, rating, dLat float64) offers.Offer {
	return offers.Offer{
		ID: id, Domain: offers.DomainHotels, Name: id,
		PriceCents: price, Rating: rating,
		Lat: 41.9028 + dLat, Lng: 12.4964,
		Score: rating * 10,
	}
}

var rome = geo.Place{Name: "Rome", Lat: 41.9028, Lng: 12.4964}

func TestSelectAccommodationStrictPick(t *testing.T) {
	alloc, err := Allocate(200000, 7) // ceiling 15714
	require.NoError(t, err)

	sel, cond := SelectAccommodation(SelectionInput{
		Candidates: []offers.Offer{
			hotel("cheap-near", 9000, 4.0, 0.01),
			hotel("over-ceiling", 20000, 4.8, 0.01),
		},
		Center:     rome,
		Allocation: alloc,
	}, nil)
	require.Nil(t, cond)
	assert.Equal(t, "cheap-near", sel.Hotel.ID)
	assert.Empty(t, sel.Relaxations)
	assert.Equal(t, alloc, sel.Allocation, "allocation untouched when no ceiling raise was needed")
}

func TestSelectAccommodationLadderOrder(t *testing.T) {
	alloc, err := Allocate(200000, 7)
	require.NoError(t, err)
	ceiling := alloc.PerNightCeilingCents // 15714

	t.Run("raised ceiling funds overshoot from activities", func(t *testing.T) {
		var steps []string
		sel, cond := SelectAccommodation(SelectionInput{
			Candidates: []offers.Offer{hotel("slightly-over", ceiling+1000, 4.0, 0.01)},
			Center:     rome,
			Allocation: alloc,
		}, func(step, _ string) { steps = append(steps, step) })
		require.Nil(t, cond)
		assert.Equal(t, []string{"raise_ceiling"}, sel.Relaxations)
		assert.Equal(t, []string{"raise_ceiling"}, steps)
		extra := int64(1000 * 7)
		assert.Equal(t, alloc.AccommodationCents+extra, sel.Allocation.AccommodationCents)
		assert.Equal(t, alloc.ActivitiesCents-extra, sel.Allocation.ActivitiesCents)
		assert.Equal(t, alloc.TotalCents,
			sel.Allocation.AccommodationCents+sel.Allocation.ActivitiesCents+sel.Allocation.FoodCents)
	})

	t.Run("radius widens before rating drops", func(t *testing.T) {
		var steps []string
		// ~7 km north of center: outside 5 km, inside 8 km
		sel, cond := SelectAccommodation(SelectionInput{
			Candidates: []offers.Offer{hotel("far-hotel", 9000, 4.0, 0.063)},
			Center:     rome,
			Allocation: alloc,
		}, func(step, _ string) { steps = append(steps, step) })
		require.Nil(t, cond)
		assert.Equal(t, "far-hotel", sel.Hotel.ID)
		assert.Equal(t, []string{"raise_ceiling", "widen_radius"}, steps)
	})

	t.Run("rating floor is the last resort", func(t *testing.T) {
		sel, cond := SelectAccommodation(SelectionInput{
			Candidates: []offers.Offer{hotel("low-rated", 9000, 2.6, 0.01)},
			Center:     rome,
			Allocation: alloc,
		}, nil)
		require.Nil(t, cond)
		assert.Contains(t, sel.Relaxations, "lower_rating")
		assert.InDelta(t, 2.5, sel.MinRating, 0.001)
	})
}

func TestSelectAccommodationExhaustedLadder(t *testing.T) {
	alloc, err := Allocate(200000, 7)
	require.NoError(t, err)

	_, cond := SelectAccommodation(SelectionInput{
		Candidates: []offers.Offer{hotel("way-over", 50000, 4.9, 0.01)},
		Center:     rome,
		Allocation: alloc,
	}, nil)
	require.NotNil(t, cond)
	assert.Equal(t, condition.NoFeasibleAccommodation, cond.Code)
	assert.NotEmpty(t, cond.Suggestion)
}
