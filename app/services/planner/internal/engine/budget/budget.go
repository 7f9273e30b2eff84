// Package budget allocates a trip budget across categories and picks
// accommodation under the per-night ceiling, loosening constraints through
// a fixed relaxation ladder when nothing qualifies.
package budget

import (
	"fmt"

	"tripsmith/app/services/planner/internal/engine/condition"
	"tripsmith/app/services/planner/internal/engine/geo"
	"tripsmith/app/services/planner/internal/engine/offers"
)

// Category split: accommodation 55%, activities 30%, food 15%.
const (
	accommodationPct = 55
	activitiesPct    = 30
	foodPct          = 15
)

type Allocation struct {
	TotalCents           int64 `json:"totalCents"`
	AccommodationCents   int64 `json:"accommodationCents"`
	ActivitiesCents      int64 `json:"activitiesCents"`
	FoodCents            int64 `json:"foodCents"`
	Nights               int   `json:"nights"`
	PerNightCeilingCents int64 `json:"perNightCeilingCents"`
}

// Allocate splits a total budget over the fixed category weights. The sum
// of the three categories always equals the total exactly: integer
// remainders are reconciled into the largest category.
func Allocate(totalCents int64, nights int) (Allocation, error) {
	if totalCents <= 0 {
		return Allocation{}, fmt.Errorf("total budget must be positive, got %d", totalCents)
	}
	if nights <= 0 {
		return Allocation{}, fmt.Errorf("nights must be positive, got %d", nights)
	}
	a := Allocation{
		TotalCents:         totalCents,
		AccommodationCents: totalCents * accommodationPct / 100,
		ActivitiesCents:    totalCents * activitiesPct / 100,
		FoodCents:          totalCents * foodPct / 100,
		Nights:             nights,
	}
	remainder := totalCents - a.AccommodationCents - a.ActivitiesCents - a.FoodCents
	a.AccommodationCents += remainder
	a.PerNightCeilingCents = a.AccommodationCents / int64(nights)
	return a, nil
}

// Recorder receives every relaxation step for the trip's decision log.
type Recorder func(step, detail string)

// SelectionInput are the strict bounds accommodation selection starts from.
type SelectionInput struct {
	Candidates    []offers.Offer
	Center        geo.Place
	Allocation    Allocation
	RadiusKm      float64 // 0 means the 5 km default
	MinRating     float64 // 0 means the 3.0 default
	Accommodation string  // preferred type tag, optional
}

// Selection is a successful pick plus the bounds that were active when the
// candidate qualified.
type Selection struct {
	Hotel         offers.Offer
	PerNightCents int64
	Allocation    Allocation
	Relaxations   []string
	RadiusKm      float64
	MinRating     float64
}

const (
	defaultRadiusKm  = 5.0
	widenedRadiusKm  = 8.0
	defaultMinRating = 3.0
	ratingFloor      = 2.5
)

// SelectAccommodation walks the relaxation ladder in order: (1) raise the
// per-night ceiling by up to 15%, funded from the activities allocation;
// (2) widen the search radius 5 km → 8 km; (3) drop the minimum rating by
// 0.5 down to the 2.5 floor. If the ladder is exhausted it reports
// no_feasible_accommodation instead of fabricating a result.
func SelectAccommodation(in SelectionInput, rec Recorder) (Selection, *condition.Condition) {
	if rec == nil {
		rec = func(string, string) {}
	}
	radius := in.RadiusKm
	if radius <= 0 {
		radius = defaultRadiusKm
	}
	minRating := in.MinRating
	if minRating <= 0 {
		minRating = defaultMinRating
	}
	alloc := in.Allocation
	ceiling := alloc.PerNightCeilingCents

	type stage struct {
		ceiling   int64
		radius    float64
		minRating float64
		step      string
	}
	raised := ceiling + ceiling*15/100
	stages := []stage{
		{ceiling, radius, minRating, ""},
		{raised, radius, minRating, "raise_ceiling"},
		{raised, widenedRadiusKm, minRating, "widen_radius"},
		{raised, widenedRadiusKm, maxF(minRating-0.5, ratingFloor), "lower_rating"},
	}

	var relaxations []string
	for _, st := range stages {
		if st.step != "" {
			relaxations = append(relaxations, st.step)
			rec(st.step, stageDetail(st.step, st.ceiling, st.radius, st.minRating))
		}
		best, ok := bestCandidate(in, st.ceiling, st.radius, st.minRating)
		if !ok {
			continue
		}
		sel := Selection{
			Hotel:         best,
			PerNightCents: best.PriceCents,
			Allocation:    alloc,
			Relaxations:   relaxations,
			RadiusKm:      st.radius,
			MinRating:     st.minRating,
		}
		if best.PriceCents > ceiling {
			// the overshoot is pulled from activities, keeping the sum exact
			extra := (best.PriceCents - ceiling) * int64(alloc.Nights)
			sel.Allocation.AccommodationCents += extra
			sel.Allocation.ActivitiesCents -= extra
			sel.Allocation.PerNightCeilingCents = best.PriceCents
		}
		return sel, nil
	}

	cond := condition.New(condition.NoFeasibleAccommodation,
		fmt.Sprintf("no stay at or below %.2f per night near %s", float64(raised)/100, in.Center.Name)).
		WithSuggestion("raise the budget, shorten the stay, or allow a lower rating").
		WithMeta("perNightCeilingCents", ceiling).
		WithMeta("relaxationsTried", relaxations)
	return Selection{}, &cond
}

// bestCandidate returns the top-scored offer inside the given bounds,
// preferring the requested accommodation type when one was stated.
func bestCandidate(in SelectionInput, ceiling int64, radiusKm, minRating float64) (offers.Offer, bool) {
	var best offers.Offer
	var bestRank float64 = -1
	for _, o := range in.Candidates {
		if o.PriceCents > ceiling || o.Rating < minRating {
			continue
		}
		if geo.Distance(in.Center, geo.Place{Lat: o.Lat, Lng: o.Lng}) > radiusKm {
			continue
		}
		rank := o.Score
		if in.Accommodation != "" && hasTag(o, in.Accommodation) {
			rank += 25
		}
		if rank > bestRank {
			best, bestRank = o, rank
		}
	}
	return best, bestRank >= 0
}

func hasTag(o offers.Offer, tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func stageDetail(step string, ceiling int64, radius, minRating float64) string {
	switch step {
	case "raise_ceiling":
		return fmt.Sprintf("per-night ceiling raised to %.2f (funded from activities)", float64(ceiling)/100)
	case "widen_radius":
		return fmt.Sprintf("search radius widened to %.0f km", radius)
	case "lower_rating":
		return fmt.Sprintf("minimum rating lowered to %.1f", minRating)
	}
	return ""
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
