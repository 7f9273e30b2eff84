package itinerary

import (
	"fmt"
	"sort"

	"tripsmith/app/services/planner/internal/engine/condition"
	"tripsmith/app/services/planner/internal/engine/geo"
)

// Sequence orders cities by nearest-neighbor from the start point (the
// traveler's origin when known, otherwise the first mentioned city) and
// returns the order plus a routing efficiency percentage: the ratio of a
// cheap lower bound on total distance to the distance actually traveled.
func Sequence(cities []geo.City, start *geo.Place) ([]geo.City, float64) {
	if len(cities) <= 1 {
		return cities, 100
	}
	remaining := make([]geo.City, len(cities))
	copy(remaining, cities)

	var order []geo.City
	var cur geo.Place
	if start != nil {
		cur = *start
	} else {
		order = append(order, remaining[0])
		cur = remaining[0].Place()
		remaining = remaining[1:]
	}

	var actual float64
	for len(remaining) > 0 {
		best := 0
		bestDist := geo.Distance(cur, remaining[0].Place())
		for i := 1; i < len(remaining); i++ {
			d := geo.Distance(cur, remaining[i].Place())
			if d < bestDist-1e-9 || (equalKm(d, bestDist) && remaining[i].Popularity > remaining[best].Popularity) {
				best, bestDist = i, d
			}
		}
		actual += bestDist
		cur = remaining[best].Place()
		order = append(order, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	if actual <= 0 {
		return order, 100
	}
	eff := lowerBound(cities, start) / actual * 100
	if eff > 100 {
		eff = 100
	}
	return order, eff
}

// lowerBound sums the n-1 shortest edges over the visited node set. Any
// path must use at least that much distance, so efficiency never exceeds 100.
func lowerBound(cities []geo.City, start *geo.Place) float64 {
	places := make([]geo.Place, 0, len(cities)+1)
	if start != nil {
		places = append(places, *start)
	}
	for _, c := range cities {
		places = append(places, c.Place())
	}
	var edges []float64
	for i := 0; i < len(places); i++ {
		for j := i + 1; j < len(places); j++ {
			edges = append(edges, geo.Distance(places[i], places[j]))
		}
	}
	sort.Float64s(edges)
	need := len(places) - 1
	var sum float64
	for i := 0; i < need && i < len(edges); i++ {
		sum += edges[i]
	}
	return sum
}

func equalKm(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

// AllocateNights splits the trip's nights across cities in proportion to
// how well each city's highlights match the traveler's interests, with a
// floor of one night per city. Fewer nights than cities is not silently
// squeezed: it reports duration_insufficient with the minimum that works.
func AllocateNights(cities []geo.City, totalNights int, interests []string) ([]int, *condition.Condition) {
	n := len(cities)
	if n == 0 {
		return nil, nil
	}
	if totalNights < n {
		cond := condition.New(condition.DurationInsufficient,
			fmt.Sprintf("%d nights cannot cover %d cities", totalNights, n)).
			WithSuggestion(fmt.Sprintf("extend the trip to at least %d nights or drop a city", n)).
			WithMeta("minimalNights", n)
		return nil, &cond
	}

	weights := make([]float64, n)
	var sum float64
	for i, c := range cities {
		weights[i] = 1 + float64(interestOverlap(c.Highlights, interests))
		sum += weights[i]
	}

	// every city starts at the one-night floor; the rest is shared by
	// weight using largest remainders
	nights := make([]int, n)
	spare := totalNights - n
	fractions := make([]float64, n)
	assigned := 0
	for i := range cities {
		nights[i] = 1
		share := float64(spare) * weights[i] / sum
		extra := int(share)
		nights[i] += extra
		assigned += extra
		fractions[i] = share - float64(extra)
	}
	for assigned < spare {
		best := 0
		for i := 1; i < n; i++ {
			if fractions[i] > fractions[best] {
				best = i
			}
		}
		nights[best]++
		fractions[best] = -1
		assigned++
	}
	return nights, nil
}

func interestOverlap(highlights, interests []string) int {
	count := 0
	for _, h := range highlights {
		for _, want := range interests {
			if h == want {
				count++
				break
			}
		}
	}
	return count
}
