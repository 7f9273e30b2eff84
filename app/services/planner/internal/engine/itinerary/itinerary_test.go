package itinerary

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsmith/app/services/planner/internal/engine/condition"
	"tripsmith/app/services/planner/internal/engine/geo"
	"tripsmith/app/services/planner/internal/engine/offers"
	"tripsmith/app/services/planner/internal/engine/transfer"
)

func italyCities(t *testing.T) (rome, florence, venice geo.City) {
	t.Helper()
	cat := geo.NewCatalog()
	var ok bool
	rome, ok = cat.CityIn("Rome", "Italy")
	require.True(t, ok)
	florence, ok = cat.CityIn("Florence", "Italy")
	require.True(t, ok)
	venice, ok = cat.CityIn("Venice", "Italy")
	require.True(t, ok)
	return
}

func TestSequenceNearestNeighbor(t *testing.T) {
	rome, florence, venice := italyCities(t)

	start := rome.Place()
	order, eff := Sequence([]geo.City{venice, florence, rome}, &start)

	require.Len(t, order, 3)
	assert.Equal(t, "Rome", order[0].Name, "start at the point nearest the origin")
	assert.Equal(t, "Florence", order[1].Name)
	assert.Equal(t, "Venice", order[2].Name)
	assert.Greater(t, eff, 0.0)
	assert.LessOrEqual(t, eff, 100.0)
}

func TestSequenceSingleCity(t *testing.T) {
	rome, _, _ := italyCities(t)
	order, eff := Sequence([]geo.City{rome}, nil)
	assert.Len(t, order, 1)
	assert.Equal(t, 100.0, eff)
}

func TestAllocateNights(t *testing.T) {
	rome, florence, venice := italyCities(t)
	cities := []geo.City{rome, florence, venice}

	t.Run("covers every city and sums to the total", func(t *testing.T) {
		nights, cond := AllocateNights(cities, 7, []string{"food", "history"})
		require.Nil(t, cond)
		require.Len(t, nights, 3)
		total := 0
		for i, n := range nights {
			assert.GreaterOrEqual(t, n, 1, "city %d must keep at least one night", i)
			total += n
		}
		assert.Equal(t, 7, total)
		// Rome matches both interests, Venice neither
		assert.GreaterOrEqual(t, nights[0], nights[2])
	})

	t.Run("too few nights is reported, not squeezed", func(t *testing.T) {
		nights, cond := AllocateNights(cities, 2, nil)
		require.NotNil(t, cond)
		assert.Nil(t, nights)
		assert.Equal(t, condition.DurationInsufficient, cond.Code)
		assert.Equal(t, 3, cond.Meta["minimalNights"])
	})
}

func cityActivity(city geo.City, i int, price int64, dLat float64, tags ...string) offers.Offer {
	return offers.Offer{
		ID: fmt.Sprintf("act-%s-%d", city.Name, i), Domain: offers.DomainActivities,
		Name: fmt.Sprintf("%s activity %d", city.Name, i),
		City: city.Name, Lat: city.Lat + dLat, Lng: city.Lng,
		PriceCents: price, Rating: 4.0, Tags: tags, DurationMinutes: 90 + i,
	}
}

func cityRestaurant(city geo.City, i int, tags ...string) offers.Offer {
	return offers.Offer{
		ID: fmt.Sprintf("rest-%s-%d", city.Name, i), Domain: offers.DomainRestaurants,
		Name: fmt.Sprintf("%s table %d", city.Name, i),
		City: city.Name, Lat: city.Lat, Lng: city.Lng,
		PriceCents: 3000, Rating: 4.2, Tags: tags,
	}
}

func testStay(t *testing.T, nights int, first, last bool) []Day {
	t.Helper()
	rome, _, _ := italyCities(t)
	hotel := offers.Offer{
		ID: "hotel-1", Domain: offers.DomainHotels, Name: "Trastevere Rooms",
		City: rome.Name, Lat: rome.Lat, Lng: rome.Lng, PriceCents: 12000, Rating: 4.1,
	}
	var acts []offers.Offer
	for i := 0; i < 10; i++ {
		acts = append(acts, cityActivity(rome, i, 1500, 0.01, "history"))
	}
	start := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	return NewGenerator().Stay(StayInput{
		City:   rome,
		Hotel:  &hotel,
		Nights: nights,
		Activities: acts,
		Restaurants: []offers.Offer{
			cityRestaurant(rome, 1), cityRestaurant(rome, 2),
		},
		Interests:           []string{"history"},
		Travelers:           2,
		StartIndex:          1,
		StartDate:           &start,
		First:               first,
		Last:                last,
		ActivityBudgetCents: 60000,
	})
}

func TestStayTemplates(t *testing.T) {
	days := testStay(t, 4, true, true)
	require.Len(t, days, 4)

	arrival := days[0]
	require.NotNil(t, arrival.Morning)
	assert.Contains(t, arrival.Morning.Title, "check in", "arrival day starts with check-in")
	assert.NotNil(t, arrival.Afternoon)
	assert.NotNil(t, arrival.Evening)

	interior := days[1]
	require.NotNil(t, interior.Morning)
	require.NotNil(t, interior.Afternoon)
	require.NotNil(t, interior.Evening)
	assert.NotNil(t, interior.Morning.Activity)
	assert.NotNil(t, interior.Afternoon.Activity)

	departure := days[3]
	require.NotNil(t, departure.Afternoon)
	assert.Contains(t, departure.Afternoon.Title, "depart")
	assert.Nil(t, departure.Evening)

	for i, d := range days {
		assert.Equal(t, i+1, d.Index)
		assert.Equal(t, "Rome", d.City)
		require.NotNil(t, d.Date)
		assert.Equal(t, 4+i, d.Date.Day())
	}
}

func TestStayIntermediateCityChecksInByTransfer(t *testing.T) {
	days := testStay(t, 3, false, true)
	require.NotNil(t, days[0].Morning)
	assert.Contains(t, days[0].Morning.Title, "Transfer and check in")

	days = testStay(t, 3, true, true)
	assert.Contains(t, days[0].Morning.Title, "Arrive and check in")
}

func TestStayChargesEveryNight(t *testing.T) {
	days := testStay(t, 3, true, true)
	require.Len(t, days, 3)
	for _, d := range days {
		assert.GreaterOrEqual(t, d.CostCents, int64(12000), "day %d must carry its hotel night", d.Index)
	}
}

func TestStayNeverRepeatsActivities(t *testing.T) {
	days := testStay(t, 4, true, false)
	seen := map[string]bool{}
	for _, d := range days {
		for _, s := range []*Slot{d.Morning, d.Afternoon} {
			if s == nil || s.Activity == nil {
				continue
			}
			assert.False(t, seen[s.Activity.ID], "activity %s scheduled twice", s.Activity.ID)
			seen[s.Activity.ID] = true
		}
	}
	assert.NotEmpty(t, seen)
}

func TestStayRespectsProximity(t *testing.T) {
	rome, _, _ := italyCities(t)
	hotel := offers.Offer{ID: "h", Name: "Hotel", Lat: rome.Lat, Lng: rome.Lng, PriceCents: 10000}
	// one activity in reach, one ~55 km away
	near := cityActivity(rome, 1, 1000, 0.02, "history")
	far := cityActivity(rome, 2, 1000, 0.5, "history")

	days := NewGenerator().Stay(StayInput{
		City: rome, Hotel: &hotel, Nights: 3,
		Activities: []offers.Offer{near, far},
		Travelers:  1, StartIndex: 1, First: true,
		ActivityBudgetCents: 100000,
	})
	for _, d := range days {
		for _, s := range []*Slot{d.Morning, d.Afternoon} {
			if s == nil || s.Activity == nil {
				continue
			}
			dist := geo.Distance(geo.Place{Lat: hotel.Lat, Lng: hotel.Lng}, geo.Place{Lat: s.Activity.Lat, Lng: s.Activity.Lng})
			assert.LessOrEqual(t, dist, relaxedRadiusKm, "scheduled %s outside reach", s.Activity.ID)
		}
	}
	// the far activity cannot be scheduled, so the single in-reach one is
	// used once and later days get flagged
	flagged := 0
	for _, d := range days {
		if d.Flagged {
			flagged++
			assert.NotEmpty(t, d.FlagReason)
		}
	}
	assert.Greater(t, flagged, 0, "exhausted pool must flag days instead of leaving them silently empty")
}

func TestChecklistCoversBookables(t *testing.T) {
	rome, _, _ := italyCities(t)
	hotel := offers.Offer{ID: "h1", Name: "Forum Stay", PriceCents: 11000, Rating: 4.0}
	items := Checklist(
		[]StaySummary{
			{City: "Rome", Nights: 4, Hotel: &hotel},
			{City: "Florence", Nights: 2, Hotel: nil},
		},
		nil, nil, 2,
		[]Day{{
			City: rome.Name,
			Morning: &Slot{Activity: &offers.Offer{
				ID: "hot-ticket", Name: "Vault Tour", Rating: 4.8,
			}, CostCents: 5200},
		}},
	)

	require.Len(t, items, 3)
	assert.Contains(t, items[0].Item, "Forum Stay")
	assert.Equal(t, "high", items[0].Priority)
	assert.Equal(t, int64(44000), items[0].EstimatedCostCents)
	assert.Contains(t, items[1].Item, "Find accommodation in Florence")
	assert.Contains(t, items[2].Item, "Vault Tour")
}

func TestChecklistUsesFlightOffersForFlightLegs(t *testing.T) {
	flightLeg := transfer.Leg{
		From: "London", To: "Rome",
		Primary: transfer.Route{
			Strategy:  transfer.StrategyFastest,
			Segments:  []transfer.Segment{{Mode: transfer.ModeFlight, From: "London", To: "Rome", Provider: "skybridge"}},
			CostCents: 60000,
		},
		Backup: &transfer.Route{Strategy: transfer.StrategyMostReliable},
	}
	flights := []offers.Offer{
		{ID: "flt-1", Domain: offers.DomainFlights, Name: "London → Rome", Provider: "Meridian Wings", PriceCents: 9000},
		{ID: "flt-2", Domain: offers.DomainFlights, Name: "London → Rome", Provider: "SkyBridge Air", PriceCents: 7500},
		{ID: "flt-3", Domain: offers.DomainFlights, Name: "Rome → London", Provider: "Atlas Regional", PriceCents: 8000},
	}

	items := Checklist(nil, []transfer.Leg{flightLeg}, flights, 2, nil)

	require.Len(t, items, 1)
	assert.Equal(t, "Book flight London → Rome with SkyBridge Air (backup ready)", items[0].Item)
	assert.Equal(t, int64(15000), items[0].EstimatedCostCents, "cheapest fare for the route, per traveler")
	assert.Equal(t, "high", items[0].Priority)
}

func TestChecklistFlagsSingleRouteLegs(t *testing.T) {
	risky := transfer.Leg{
		From: "Rome", To: "Florence",
		Primary: transfer.Route{
			Strategy:  transfer.StrategyCheapest,
			Segments:  []transfer.Segment{{Mode: transfer.ModeBus, From: "Rome", To: "Florence", Provider: "coachly"}},
			CostCents: 4000,
		},
		SingleRouteRisk: true,
	}

	items := Checklist(nil, []transfer.Leg{risky}, nil, 1, nil)

	require.Len(t, items, 1)
	assert.Contains(t, items[0].Item, "single route, no backup")
	assert.NotContains(t, items[0].Item, "backup ready")
}
