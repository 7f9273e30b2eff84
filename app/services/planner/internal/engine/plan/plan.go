// Package plan orchestrates a full planning pass: it fans out offer
// searches per city, allocates budget and nights, picks accommodation,
// composes transfers and assembles the day-by-day itinerary into a single
// Proposal. Data problems surface as conditions on the proposal;
// a Go error means infrastructure failed.
package plan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/mr"

	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/budget"
	"tripsmith/app/services/planner/internal/engine/condition"
	"tripsmith/app/services/planner/internal/engine/geo"
	"tripsmith/app/services/planner/internal/engine/itinerary"
	"tripsmith/app/services/planner/internal/engine/offers"
	"tripsmith/app/services/planner/internal/engine/transfer"
)

// SearchRecorder observes every provider fetch that actually hit the
// provider, so the caller can persist the search request and its offers.
type SearchRecorder func(domain offers.Domain, params offers.Params, result []offers.Offer)

// DecisionRecorder receives notable planning decisions for the audit log.
type DecisionRecorder func(event, message string, meta map[string]any)

type Options struct {
	ProviderTimeout  time.Duration // per-domain fetch budget, default 3s
	Weights          transfer.Weights
	MaxCountryCities int // cities picked for a country-level destination, default 3
}

type Planner struct {
	catalog  *geo.Catalog
	cache    *offers.Cache
	provider offers.Provider
	gen      *itinerary.Generator
	opts     Options
	now      func() time.Time
}

func New(catalog *geo.Catalog, cache *offers.Cache, provider offers.Provider, opts Options) *Planner {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 3 * time.Second
	}
	if opts.MaxCountryCities <= 0 {
		opts.MaxCountryCities = 3
	}
	return &Planner{
		catalog:  catalog,
		cache:    cache,
		provider: provider,
		gen:      itinerary.NewGenerator(),
		opts:     opts,
		now:      time.Now,
	}
}

// WithClock pins the generated-at timestamp for tests.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

// Stay is the per-city slice of a proposal.
type Stay struct {
	City          string             `json:"city"`
	Country       string             `json:"country"`
	Nights        int                `json:"nights"`
	Hotel         *offers.Offer      `json:"hotel,omitempty"`
	PerNightCents int64              `json:"perNightCents,omitempty"`
	Relaxations   []string           `json:"relaxations,omitempty"`
	Allocation    *budget.Allocation `json:"allocation,omitempty"`
}

// Proposal is one complete planning pass over a frozen brief version.
type Proposal struct {
	TripID       string `json:"tripId"`
	BriefVersion int64  `json:"briefVersion"`
	Currency     string `json:"currency"`

	Cities        []string          `json:"cities"`
	EfficiencyPct float64           `json:"efficiencyPct"`
	Allocation    budget.Allocation `json:"allocation"`

	Stays     []Stay                    `json:"stays"`
	Legs      []transfer.Leg            `json:"legs,omitempty"`
	Days      []itinerary.Day           `json:"days,omitempty"`
	Checklist []itinerary.ChecklistItem `json:"checklist,omitempty"`

	TotalCostCents int64            `json:"totalCostCents"`
	CategoryTotals map[string]int64 `json:"categoryTotals,omitempty"`

	SearchesTriggered []string              `json:"searchesTriggered,omitempty"`
	Conditions        []condition.Condition `json:"conditions,omitempty"`
	GeneratedAt       time.Time             `json:"generatedAt"`
}

type cityOffers struct {
	hotels      []offers.Offer
	activities  []offers.Offer
	restaurants []offers.Offer
}

// Build runs one planning pass. The brief must have every required slot
// ready; BriefVersion is stamped so callers can reject a stale proposal
// before committing it.
func (p *Planner) Build(ctx context.Context, b *brief.TripBrief, search SearchRecorder, decide DecisionRecorder) (*Proposal, error) {
	if !b.RequiredReady() {
		return nil, fmt.Errorf("trip %s: required slots not ready: %v", b.TripID, b.MissingSlots())
	}
	if decide == nil {
		decide = func(string, string, map[string]any) {}
	}

	prop := &Proposal{
		TripID:       b.TripID,
		BriefVersion: b.Version,
		Currency:     b.Budget.Value.Currency,
		GeneratedAt:  p.now(),
	}

	cities, cond := p.resolveCities(b)
	if cond != nil {
		prop.Conditions = append(prop.Conditions, *cond)
		return prop, nil
	}

	nightsTotal := b.Dates.Value.Normalized().Nights
	ordered, efficiency := itinerary.Sequence(cities, p.originPlace(b))
	prop.EfficiencyPct = efficiency
	for _, c := range ordered {
		prop.Cities = append(prop.Cities, c.Name)
	}
	decide("sequencing", fmt.Sprintf("visit order %s (%.0f%% routing efficiency)",
		strings.Join(prop.Cities, " → "), efficiency), nil)

	nights, cond := itinerary.AllocateNights(ordered, nightsTotal, b.Preferences.Value.Interests)
	if cond != nil {
		prop.Conditions = append(prop.Conditions, *cond)
		return prop, nil
	}

	pools, flights := p.fetchOffers(ctx, b, ordered, prop, search)

	alloc, err := budget.Allocate(b.Budget.Value.AmountCents, nightsTotal)
	if err != nil {
		return nil, err
	}
	prop.Allocation = alloc

	p.buildStays(b, ordered, nights, pools, prop, decide)
	p.buildLegs(b, ordered, prop, decide)
	p.buildDays(b, ordered, nights, pools, prop)
	p.tally(prop, flights, b.Travelers.Value.Adults)
	return prop, nil
}

// resolveCities maps the destination slot to concrete catalog cities. A
// country destination becomes its most popular cities, capped both by
// configuration and by the number of nights available.
func (p *Planner) resolveCities(b *brief.TripBrief) ([]geo.City, *condition.Condition) {
	dest := b.Destination.Value
	switch dest.Type {
	case brief.DestMultiCity:
		var out []geo.City
		for _, name := range dest.DetectedCities {
			if c, ok := p.lookupCity(name, dest.Country); ok {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			return nil, unknownDestination(dest.Render())
		}
		return out, nil
	case brief.DestCountry:
		_, cities, ok := p.catalog.FindCountry(dest.Primary)
		if !ok || len(cities) == 0 {
			return nil, unknownDestination(dest.Primary)
		}
		sort.Slice(cities, func(i, j int) bool { return cities[i].Popularity > cities[j].Popularity })
		limit := p.opts.MaxCountryCities
		if n := b.Dates.Value.Normalized().Nights; n > 0 && n < limit {
			limit = n
		}
		if limit < 1 {
			limit = 1
		}
		if len(cities) > limit {
			cities = cities[:limit]
		}
		return cities, nil
	default:
		if c, ok := p.lookupCity(dest.Primary, dest.Country); ok {
			return []geo.City{c}, nil
		}
		return nil, unknownDestination(dest.Render())
	}
}

func (p *Planner) lookupCity(name, country string) (geo.City, bool) {
	if country != "" {
		if c, ok := p.catalog.CityIn(name, country); ok {
			return c, true
		}
	}
	if ms := p.catalog.FindCity(name); len(ms) > 0 {
		return ms[0].City, true
	}
	return geo.City{}, false
}

func (p *Planner) originPlace(b *brief.TripBrief) *geo.Place {
	if !b.Origin.Filled {
		return nil
	}
	if ms := p.catalog.FindCity(b.Origin.Value); len(ms) > 0 {
		pl := ms[0].City.Place()
		return &pl
	}
	return nil
}

// fetchOffers fans out one cached fetch per city and domain, each under its
// own timeout. Provider failures degrade the proposal (the domain is simply
// absent, with a condition attached) instead of failing the pass. Flight
// offers for the arrival and return routes come back separately.
func (p *Planner) fetchOffers(ctx context.Context, b *brief.TripBrief, cities []geo.City, prop *Proposal, search SearchRecorder) (map[string]*cityOffers, []offers.Offer) {
	pools := make(map[string]*cityOffers, len(cities))
	for _, c := range cities {
		pools[c.Name] = &cityOffers{}
	}
	var flights []offers.Offer

	var mu sync.Mutex
	provider := p.provider
	if search != nil {
		inner := p.provider
		provider = offers.ProviderFunc(func(ctx context.Context, d offers.Domain, params offers.Params) ([]offers.Offer, error) {
			result, err := inner.Search(ctx, d, params)
			if err == nil {
				search(d, params, result)
			}
			return result, err
		})
	}

	type fetch struct {
		city   geo.City
		domain offers.Domain
		params offers.Params
	}
	var fetches []fetch
	prefs := b.Preferences.Value
	for _, c := range cities {
		fetches = append(fetches,
			fetch{c, offers.DomainHotels, offers.Params{
				"city": c.Name, "country": c.Country,
				"travelers": fmt.Sprint(b.Travelers.Value.Adults),
				"style":     b.Style.Value,
			}},
			fetch{c, offers.DomainActivities, offers.Params{
				"city": c.Name, "country": c.Country,
				"interests": strings.Join(prefs.Interests, ","),
			}},
			fetch{c, offers.DomainRestaurants, offers.Params{
				"city": c.Name, "country": c.Country,
				"dietary": strings.Join(prefs.Dietary, ","),
			}},
		)
	}
	if origin := p.originPlace(b); origin != nil && len(cities) > 0 {
		trav := fmt.Sprint(b.Travelers.Value.Adults)
		first, last := cities[0], cities[len(cities)-1]
		fetches = append(fetches,
			fetch{first, offers.DomainFlights, offers.Params{
				"origin": origin.Name, "city": first.Name, "travelers": trav,
			}},
			fetch{geo.City{Name: origin.Name}, offers.DomainFlights, offers.Params{
				"origin": last.Name, "city": origin.Name, "travelers": trav,
			}},
		)
	}

	fns := make([]func() error, 0, len(fetches))
	for _, f := range fetches {
		f := f
		fns = append(fns, func() error {
			fctx, cancel := context.WithTimeout(ctx, p.opts.ProviderTimeout)
			defer cancel()
			set, err := p.cache.GetOrFetch(fctx, f.domain, f.params, provider)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				prop.Conditions = append(prop.Conditions, fetchCondition(f.domain, f.city.Name, err))
				return nil
			}
			prop.SearchesTriggered = append(prop.SearchesTriggered, string(f.domain)+":"+f.city.Name)
			switch f.domain {
			case offers.DomainHotels:
				pools[f.city.Name].hotels = set.Offers
			case offers.DomainActivities:
				pools[f.city.Name].activities = set.Offers
			case offers.DomainRestaurants:
				pools[f.city.Name].restaurants = set.Offers
			case offers.DomainFlights:
				flights = append(flights, set.Offers...)
			}
			return nil
		})
	}
	// fetch errors are folded into conditions above, so Finish cannot fail
	_ = mr.Finish(fns...)
	sort.Strings(prop.SearchesTriggered)
	return pools, flights
}

func fetchCondition(domain offers.Domain, city string, err error) condition.Condition {
	if errors.Is(err, context.DeadlineExceeded) {
		return condition.New(condition.ProviderTimeout,
			fmt.Sprintf("%s search for %s timed out", domain, city)).
			WithSuggestion("the plan omits this domain; retry the turn to fill it in").
			WithMeta("domain", string(domain)).
			WithMeta("city", city)
	}
	return condition.New(condition.ProviderError,
		fmt.Sprintf("%s search for %s failed: %v", domain, city, err)).
		WithMeta("domain", string(domain)).
		WithMeta("city", city)
}

// buildStays splits the trip budget across cities by their night share and
// runs accommodation selection per city, recording relaxation steps.
func (p *Planner) buildStays(b *brief.TripBrief, cities []geo.City, nights []int, pools map[string]*cityOffers, prop *Proposal, decide DecisionRecorder) {
	totalNights := 0
	for _, n := range nights {
		totalNights += n
	}
	total := b.Budget.Value.AmountCents
	spent := int64(0)
	for i, c := range cities {
		cityBudget := total * int64(nights[i]) / int64(totalNights)
		if i == len(cities)-1 {
			cityBudget = total - spent // last city absorbs the split remainder
		}
		spent += cityBudget

		stay := Stay{City: c.Name, Country: c.Country, Nights: nights[i]}
		alloc, err := budget.Allocate(cityBudget, nights[i])
		if err == nil {
			sel, cond := budget.SelectAccommodation(budget.SelectionInput{
				Candidates:    pools[c.Name].hotels,
				Center:        c.Place(),
				Allocation:    alloc,
				Accommodation: b.Preferences.Value.Accommodation,
			}, func(step, detail string) {
				decide("budget_relaxation", detail, map[string]any{"city": c.Name, "step": step})
			})
			if cond != nil {
				prop.Conditions = append(prop.Conditions, *cond)
				stay.Allocation = &alloc
			} else {
				h := sel.Hotel
				stay.Hotel = &h
				stay.PerNightCents = sel.PerNightCents
				stay.Relaxations = sel.Relaxations
				stay.Allocation = &sel.Allocation
				decide("accommodation", fmt.Sprintf("%s in %s at %.2f/night", h.Name, c.Name, float64(h.PriceCents)/100),
					map[string]any{"offerId": h.ID, "relaxations": sel.Relaxations})
			}
		}
		prop.Stays = append(prop.Stays, stay)
	}
}

// buildLegs composes two-route transfers between consecutive cities, plus
// the arrival and return legs when the origin resolves to a known city.
func (p *Planner) buildLegs(b *brief.TripBrief, cities []geo.City, prop *Proposal, decide DecisionRecorder) {
	composer := transfer.NewComposer(p.opts.Weights)
	travelers := b.Travelers.Value.Adults

	var pairs [][2]geo.Place
	if origin := p.originPlace(b); origin != nil && len(cities) > 0 {
		pairs = append(pairs, [2]geo.Place{*origin, cities[0].Place()})
	}
	for i := 0; i+1 < len(cities); i++ {
		pairs = append(pairs, [2]geo.Place{cities[i].Place(), cities[i+1].Place()})
	}
	if origin := p.originPlace(b); origin != nil && len(cities) > 0 {
		pairs = append(pairs, [2]geo.Place{cities[len(cities)-1].Place(), *origin})
	}

	for _, pr := range pairs {
		leg, cond := composer.Compose(pr[0], pr[1], travelers)
		if cond != nil {
			prop.Conditions = append(prop.Conditions, *cond)
		}
		if len(leg.Primary.Segments) == 0 {
			continue
		}
		prop.Legs = append(prop.Legs, leg)
		decide("transfer", fmt.Sprintf("%s → %s via %s", leg.From, leg.To, leg.Primary.Strategy),
			map[string]any{"singleRouteRisk": leg.SingleRouteRisk})
	}
}

func (p *Planner) buildDays(b *brief.TripBrief, cities []geo.City, nights []int, pools map[string]*cityOffers, prop *Proposal) {
	prefs := b.Preferences.Value
	start := b.Dates.Value.Normalized().Start
	dayIndex := 1
	for i, c := range cities {
		stay := prop.Stays[i]
		var dayStart *time.Time
		if start != nil {
			d := start.Add(time.Duration(dayIndex-1) * 24 * time.Hour)
			dayStart = &d
		}
		var activityBudget int64
		if stay.Allocation != nil {
			activityBudget = stay.Allocation.ActivitiesCents
		}
		days := p.gen.Stay(itinerary.StayInput{
			City:                c,
			Hotel:               stay.Hotel,
			Nights:              nights[i],
			Activities:          pools[c.Name].activities,
			Restaurants:         pools[c.Name].restaurants,
			Interests:           prefs.Interests,
			Dietary:             prefs.Dietary,
			Travelers:           b.Travelers.Value.Adults,
			StartIndex:          dayIndex,
			StartDate:           dayStart,
			First:               i == 0,
			Last:                i == len(cities)-1,
			ActivityBudgetCents: activityBudget,
		})
		prop.Days = append(prop.Days, days...)
		dayIndex += nights[i]
	}
}

// tally sums the plan's real cost by category and builds the checklist.
func (p *Planner) tally(prop *Proposal, flights []offers.Offer, travelers int) {
	totals := map[string]int64{}
	var summaries []itinerary.StaySummary
	for _, s := range prop.Stays {
		summaries = append(summaries, itinerary.StaySummary{City: s.City, Nights: s.Nights, Hotel: s.Hotel})
		if s.Hotel != nil {
			totals["accommodation"] += s.Hotel.PriceCents * int64(s.Nights)
		}
	}
	for _, d := range prop.Days {
		for _, s := range []*itinerary.Slot{d.Morning, d.Afternoon} {
			if s != nil && s.Activity != nil {
				totals["activities"] += s.CostCents
			}
		}
		if d.Evening != nil {
			totals["food"] += d.Evening.CostCents
		}
	}
	for _, leg := range prop.Legs {
		totals["transfers"] += leg.Primary.CostCents
	}
	prop.CategoryTotals = totals
	for _, v := range totals {
		prop.TotalCostCents += v
	}
	prop.Checklist = itinerary.Checklist(summaries, prop.Legs, flights, travelers, prop.Days)
}

func unknownDestination(name string) *condition.Condition {
	c := condition.New(condition.ExtractionAmbiguous,
		fmt.Sprintf("%q is not a destination the catalog can plan for", name)).
		WithSuggestion("try a nearby major city")
	return &c
}
