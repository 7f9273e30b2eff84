// Package itinerary turns a city sequence, an accommodation pick and offer
// pools into fully populated days: arrival and departure templates at the
// edges, morning/afternoon/evening slots in between. Days that cannot be
// filled honestly are flagged, never left silently empty.
package itinerary

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"tripsmith/app/services/planner/internal/engine/geo"
	"tripsmith/app/services/planner/internal/engine/offers"
)

// Slot is one scheduled block of a day. Title always describes the block;
// Activity is set when an offer backs it.
type Slot struct {
	Title     string        `json:"title"`
	Activity  *offers.Offer `json:"activity,omitempty"`
	CostCents int64         `json:"costCents"`
}

type Day struct {
	Index      int        `json:"index"` // 1-based across the whole trip
	Date       *time.Time `json:"date,omitempty"`
	City       string     `json:"city"`
	Morning    *Slot      `json:"morning,omitempty"`
	Afternoon  *Slot      `json:"afternoon,omitempty"`
	Evening    *Slot      `json:"evening,omitempty"`
	CostCents  int64      `json:"costCents"`
	Flagged    bool       `json:"flagged,omitempty"`
	FlagReason string     `json:"flagReason,omitempty"`
}

const (
	defaultRadiusKm = 8.0
	relaxedRadiusKm = 12.0
)

type Generator struct {
	radiusKm  float64
	relaxedKm float64
}

func NewGenerator() *Generator {
	return &Generator{radiusKm: defaultRadiusKm, relaxedKm: relaxedRadiusKm}
}

// StayInput is everything needed to lay out the days of one city stay.
type StayInput struct {
	City        geo.City
	Hotel       *offers.Offer // nil when accommodation selection failed
	Nights      int
	Activities  []offers.Offer
	Restaurants []offers.Offer
	Interests   []string
	Dietary     []string
	Travelers   int

	StartIndex int        // trip-wide 1-based index of this stay's first day
	StartDate  *time.Time // nil when dates were given as a bare night count
	First      bool       // trip starts here: day one gets the arrival template
	Last       bool       // trip ends here: final day gets the departure template

	ActivityBudgetCents int64 // this city's share, spent greedily
}

// Stay builds one day per night of the stay. No activity repeats within a
// city, every scheduled activity sits within reach of the hotel, and the
// remaining activity budget caps what gets booked.
func (g *Generator) Stay(in StayInput) []Day {
	if in.Travelers <= 0 {
		in.Travelers = 1
	}
	center := in.City.Place()
	if in.Hotel != nil {
		center = geo.Place{Name: in.Hotel.Name, Lat: in.Hotel.Lat, Lng: in.Hotel.Lng}
	}
	used := make(map[string]bool)
	budgetLeft := in.ActivityBudgetCents
	meals := newMealRotation(in.Restaurants, in.Dietary)

	days := make([]Day, 0, in.Nights)
	for i := 0; i < in.Nights; i++ {
		day := Day{Index: in.StartIndex + i, City: in.City.Name}
		if in.StartDate != nil {
			d := in.StartDate.Add(time.Duration(i) * 24 * time.Hour)
			day.Date = &d
		}
		arrival := i == 0
		departure := in.Last && i == in.Nights-1

		switch {
		case arrival && departure:
			// single-night stay at the end of the trip
			day.Morning = checkInSlot(in.Hotel, in.First)
			g.fill(&day, "Afternoon", center, in, used, &budgetLeft, true)
			day.Evening = meals.next(center, in.Travelers)
		case arrival:
			day.Morning = checkInSlot(in.Hotel, in.First)
			g.fill(&day, "Afternoon", center, in, used, &budgetLeft, true)
			day.Evening = meals.next(center, in.Travelers)
		case departure:
			g.fill(&day, "Morning", center, in, used, &budgetLeft, true)
			day.Afternoon = &Slot{Title: "Check out and depart"}
		default:
			g.fill(&day, "Morning", center, in, used, &budgetLeft, false)
			g.fill(&day, "Afternoon", center, in, used, &budgetLeft, false)
			day.Evening = meals.next(center, in.Travelers)
		}

		// each day carries exactly one hotel night, departure day included,
		// so per-day sums agree with nights × rate
		if in.Hotel != nil {
			day.CostCents += in.Hotel.PriceCents
		}
		for _, s := range []*Slot{day.Morning, day.Afternoon, day.Evening} {
			if s != nil {
				day.CostCents += s.CostCents
			}
		}
		days = append(days, day)
	}
	return days
}

// fill places one activity into the named slot, or flags the day when the
// pool near the hotel is exhausted. light prefers short, nearby options
// for arrival and departure days.
func (g *Generator) fill(day *Day, slot string, center geo.Place, in StayInput, used map[string]bool, budgetLeft *int64, light bool) {
	pick, ok := g.pick(center, in, used, budgetLeft, light)
	if !ok {
		day.Flagged = true
		day.FlagReason = fmt.Sprintf("not enough activities within %.0f km of the stay in %s", g.relaxedKm, in.City.Name)
		return
	}
	used[pick.ID] = true
	cost := pick.PriceCents * int64(in.Travelers)
	*budgetLeft -= cost
	s := &Slot{Title: pick.Name, Activity: &pick, CostCents: cost}
	switch slot {
	case "Morning":
		day.Morning = s
	case "Afternoon":
		day.Afternoon = s
	}
}

func (g *Generator) pick(center geo.Place, in StayInput, used map[string]bool, budgetLeft *int64, light bool) (offers.Offer, bool) {
	candidates := g.within(center, in.Activities, used, g.radiusKm)
	if len(candidates) == 0 {
		candidates = g.within(center, in.Activities, used, g.relaxedKm)
	}
	if len(candidates) == 0 {
		return offers.Offer{}, false
	}
	affordable := lo.Filter(candidates, func(o offers.Offer, _ int) bool {
		return o.PriceCents*int64(in.Travelers) <= *budgetLeft
	})
	if len(affordable) > 0 {
		candidates = affordable
	} else {
		// budget exhausted: fall back to the cheapest remaining option so
		// the day is still honest about its cost
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].PriceCents < candidates[j].PriceCents })
		return candidates[0], true
	}
	sort.Slice(candidates, func(i, j int) bool {
		mi, mj := interestOverlap(candidates[i].Tags, in.Interests), interestOverlap(candidates[j].Tags, in.Interests)
		if mi != mj {
			return mi > mj
		}
		if light && candidates[i].DurationMinutes != candidates[j].DurationMinutes {
			return candidates[i].DurationMinutes < candidates[j].DurationMinutes
		}
		if candidates[i].Rating != candidates[j].Rating {
			return candidates[i].Rating > candidates[j].Rating
		}
		return candidates[i].PriceCents < candidates[j].PriceCents
	})
	return candidates[0], true
}

func (g *Generator) within(center geo.Place, pool []offers.Offer, used map[string]bool, radiusKm float64) []offers.Offer {
	return lo.Filter(pool, func(o offers.Offer, _ int) bool {
		if used[o.ID] {
			return false
		}
		return geo.Distance(center, geo.Place{Lat: o.Lat, Lng: o.Lng}) <= radiusKm
	})
}

// checkInSlot opens a city stay. Only the trip's first city gets the
// arrival wording; later cities arrive by transfer.
func checkInSlot(hotel *offers.Offer, tripStart bool) *Slot {
	verb := "Transfer"
	if tripStart {
		verb = "Arrive"
	}
	if hotel == nil {
		return &Slot{Title: verb + " and settle in"}
	}
	return &Slot{Title: verb + " and check in at " + hotel.Name}
}

// mealRotation cycles dinner spots without immediate repeats, honoring
// dietary preferences when the pool allows it.
type mealRotation struct {
	pool      []offers.Offer
	cursor    int
	travelers int
}

func newMealRotation(restaurants []offers.Offer, dietary []string) *mealRotation {
	pool := restaurants
	if len(dietary) > 0 {
		matching := lo.Filter(restaurants, func(o offers.Offer, _ int) bool {
			return interestOverlap(o.Tags, dietary) > 0
		})
		if len(matching) > 0 {
			pool = matching
		}
	}
	sorted := make([]offers.Offer, len(pool))
	copy(sorted, pool)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rating > sorted[j].Rating })
	return &mealRotation{pool: sorted}
}

func (m *mealRotation) next(center geo.Place, travelers int) *Slot {
	if len(m.pool) == 0 {
		return &Slot{Title: "Dinner at leisure"}
	}
	o := m.pool[m.cursor%len(m.pool)]
	m.cursor++
	cost := o.PriceCents * int64(travelers)
	return &Slot{Title: "Dinner at " + o.Name, Activity: &o, CostCents: cost}
}
