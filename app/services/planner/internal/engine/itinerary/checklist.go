package itinerary

import (
	"fmt"

	"tripsmith/app/services/planner/internal/engine/offers"
	"tripsmith/app/services/planner/internal/engine/transfer"
)

type ChecklistItem struct {
	Item               string `json:"item"`
	Priority           string `json:"priority"` // high, medium, low
	Deadline           string `json:"deadline"`
	EstimatedCostCents int64  `json:"estimatedCostCents"`
}

// StaySummary is the per-city slice of the plan the checklist needs.
type StaySummary struct {
	City   string
	Nights int
	Hotel  *offers.Offer
}

// Checklist lists everything worth booking ahead: stays, inter-city
// transfers (with the concrete flight offer when one was searched), and
// the popular timed activities that sell out.
func Checklist(stays []StaySummary, legs []transfer.Leg, flights []offers.Offer, travelers int, days []Day) []ChecklistItem {
	if travelers <= 0 {
		travelers = 1
	}
	var items []ChecklistItem
	for _, s := range stays {
		if s.Hotel == nil {
			items = append(items, ChecklistItem{
				Item:     fmt.Sprintf("Find accommodation in %s (%d nights)", s.City, s.Nights),
				Priority: "high",
				Deadline: "before committing to the plan",
			})
			continue
		}
		items = append(items, ChecklistItem{
			Item:               fmt.Sprintf("Book %s in %s (%d nights)", s.Hotel.Name, s.City, s.Nights),
			Priority:           "high",
			Deadline:           "30 days before arrival",
			EstimatedCostCents: s.Hotel.PriceCents * int64(s.Nights),
		})
	}
	for _, leg := range legs {
		priority := "medium"
		deadline := "14 days before travel"
		if leg.Primary.Strategy == transfer.StrategyFastest || hasFlight(leg.Primary) {
			priority = "high"
			deadline = "45 days before travel"
		}
		backup := "backup ready"
		if leg.SingleRouteRisk {
			backup = "single route, no backup"
		}
		item := fmt.Sprintf("Book %s → %s (%s, %s)", leg.From, leg.To, legMode(leg), backup)
		cost := leg.Primary.CostCents
		if hasFlight(leg.Primary) {
			if offer, ok := cheapestFlight(flights, leg.From, leg.To); ok {
				item = fmt.Sprintf("Book flight %s → %s with %s (%s)", leg.From, leg.To, offer.Provider, backup)
				cost = offer.PriceCents * int64(travelers)
			}
		}
		items = append(items, ChecklistItem{
			Item:               item,
			Priority:           priority,
			Deadline:           deadline,
			EstimatedCostCents: cost,
		})
	}
	seen := make(map[string]bool)
	for _, d := range days {
		for _, s := range []*Slot{d.Morning, d.Afternoon} {
			if s == nil || s.Activity == nil || s.Activity.Rating < 4.5 || seen[s.Activity.ID] {
				continue
			}
			seen[s.Activity.ID] = true
			items = append(items, ChecklistItem{
				Item:               fmt.Sprintf("Reserve %s in %s (popular, sells out)", s.Activity.Name, d.City),
				Priority:           "medium",
				Deadline:           "7 days before the visit",
				EstimatedCostCents: s.CostCents,
			})
		}
	}
	return items
}

// cheapestFlight picks the lowest fare among the searched offers for one
// route. Offer names follow the provider's "From → To" convention.
func cheapestFlight(flights []offers.Offer, from, to string) (offers.Offer, bool) {
	route := from + " → " + to
	var best offers.Offer
	found := false
	for _, f := range flights {
		if f.Name != route {
			continue
		}
		if !found || f.PriceCents < best.PriceCents {
			best, found = f, true
		}
	}
	return best, found
}

func hasFlight(r transfer.Route) bool {
	for _, s := range r.Segments {
		if s.Mode == transfer.ModeFlight {
			return true
		}
	}
	return false
}

func legMode(leg transfer.Leg) string {
	modes := ""
	for i, s := range leg.Primary.Segments {
		if i > 0 {
			modes += "+"
		}
		modes += string(s.Mode)
	}
	return modes
}
