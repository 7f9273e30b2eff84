// Package transfer builds inter-city legs. Every leg carries a primary and
// a backup route so a single provider hiccup never strands the traveler;
// when only one viable route exists the leg is flagged instead.
package transfer

import (
	"fmt"
	"math"

	"tripsmith/app/services/planner/internal/engine/condition"
	"tripsmith/app/services/planner/internal/engine/geo"
)

type Mode string

const (
	ModeTrain  Mode = "train"
	ModeBus    Mode = "bus"
	ModeFlight Mode = "flight"
	ModeCar    Mode = "car"
)

type Strategy string

const (
	StrategyFastest         Strategy = "fastest"
	StrategyCheapest        Strategy = "cheapest"
	StrategyMostReliable    Strategy = "most_reliable"
	StrategyFewestTransfers Strategy = "fewest_transfers"
	StrategyPublicTransport Strategy = "public_transport"
	StrategyHybrid          Strategy = "hybrid"
)

// AllStrategies is the default candidate set a Composer evaluates.
var AllStrategies = []Strategy{
	StrategyFastest,
	StrategyCheapest,
	StrategyMostReliable,
	StrategyFewestTransfers,
	StrategyPublicTransport,
	StrategyHybrid,
}

// Weights tune route scoring. Callers supply their own; zero values fall
// back to DefaultWeights.
type Weights struct {
	Time        float64 `json:"time"`
	Cost        float64 `json:"cost"`
	Reliability float64 `json:"reliability"`
	Convenience float64 `json:"convenience"`
}

func DefaultWeights() Weights {
	return Weights{Time: 0.35, Cost: 0.30, Reliability: 0.20, Convenience: 0.15}
}

func (w Weights) orDefault() Weights {
	if w.Time == 0 && w.Cost == 0 && w.Reliability == 0 && w.Convenience == 0 {
		return DefaultWeights()
	}
	return w
}

// Segment is one ride on one mode.
type Segment struct {
	Mode            Mode   `json:"mode"`
	From            string `json:"from"`
	To              string `json:"to"`
	Provider        string `json:"provider"`
	DurationMinutes int    `json:"durationMinutes"`
	CostCents       int64  `json:"costCents"`
}

// Route is a complete path between two cities under one strategy.
type Route struct {
	Strategy        Strategy  `json:"strategy"`
	Segments        []Segment `json:"segments"`
	DurationMinutes int       `json:"durationMinutes"`
	CostCents       int64     `json:"costCents"`
	Reliability     float64   `json:"reliability"`
	Transfers       int       `json:"transfers"`
	Score           float64   `json:"score"`
}

func (r Route) primaryMode() Mode {
	if len(r.Segments) == 0 {
		return ""
	}
	// the longest segment defines the route for backup-diversity purposes
	best := r.Segments[0]
	for _, s := range r.Segments[1:] {
		if s.DurationMinutes > best.DurationMinutes {
			best = s
		}
	}
	return best.Mode
}

func (r Route) providers() map[string]bool {
	set := make(map[string]bool, len(r.Segments))
	for _, s := range r.Segments {
		set[s.Provider] = true
	}
	return set
}

// Leg pairs a primary route with a backup between two cities.
type Leg struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	DistanceKm      float64 `json:"distanceKm"`
	Primary         Route   `json:"primary"`
	Backup          *Route  `json:"backup,omitempty"`
	SingleRouteRisk bool    `json:"singleRouteRisk"`
}

// modeProfile is the static cost/speed model behind route synthesis.
type modeProfile struct {
	speedKmh        float64
	centsPerKm      int64
	baseCents       int64
	overheadMinutes int // boarding, security, station access
	reliability     float64
	provider        string
	minKm, maxKm    float64
}

var profiles = map[Mode]modeProfile{
	ModeTrain:  {speedKmh: 140, centsPerKm: 18, baseCents: 700, overheadMinutes: 30, reliability: 0.90, provider: "railside", minKm: 0, maxKm: 1500},
	ModeBus:    {speedKmh: 75, centsPerKm: 8, baseCents: 500, overheadMinutes: 20, reliability: 0.80, provider: "coachly", minKm: 0, maxKm: 900},
	ModeFlight: {speedKmh: 750, centsPerKm: 16, baseCents: 4500, overheadMinutes: 150, reliability: 0.75, provider: "skybridge", minKm: 300, maxKm: math.MaxFloat64},
	ModeCar:    {speedKmh: 90, centsPerKm: 24, baseCents: 3000, overheadMinutes: 10, reliability: 0.85, provider: "drivepool", minKm: 0, maxKm: 600},
}

// Composer synthesizes and scores candidate routes.
type Composer struct {
	weights    Weights
	strategies []Strategy
}

// NewComposer builds a composer over the given strategy set; with none
// given it evaluates all of them.
func NewComposer(w Weights, strategies ...Strategy) *Composer {
	if len(strategies) == 0 {
		strategies = AllStrategies
	}
	return &Composer{weights: w.orDefault(), strategies: strategies}
}

// Compose builds the leg between two places: it generates one route per
// strategy, scores them under the composer's weights, picks the best as
// primary and the best remaining route that differs in mode or provider as
// backup. A leg with no viable backup gets SingleRouteRisk plus a
// condition rather than an invented alternative.
func (c *Composer) Compose(from, to geo.Place, travelers int) (Leg, *condition.Condition) {
	if travelers <= 0 {
		travelers = 1
	}
	dist := geo.Distance(from, to)
	leg := Leg{From: from.Name, To: to.Name, DistanceKm: dist}

	var routes []Route
	seen := make(map[string]bool)
	for _, st := range c.strategies {
		r, ok := c.build(st, from, to, dist, travelers)
		if !ok {
			continue
		}
		key := routeKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		routes = append(routes, r)
	}
	if len(routes) == 0 {
		cond := condition.New(condition.ProviderError,
			fmt.Sprintf("no transfer route between %s and %s", from.Name, to.Name)).
			WithMeta("distanceKm", dist)
		return leg, &cond
	}

	score(routes, c.weights)
	best := 0
	for i := range routes {
		if routes[i].Score > routes[best].Score {
			best = i
		}
	}
	leg.Primary = routes[best]

	backup := -1
	for i := range routes {
		if i == best || !diverges(routes[best], routes[i]) {
			continue
		}
		if backup < 0 || routes[i].Score > routes[backup].Score {
			backup = i
		}
	}
	if backup < 0 {
		leg.SingleRouteRisk = true
		cond := condition.New(condition.SingleRouteRisk,
			fmt.Sprintf("only one viable route between %s and %s", from.Name, to.Name)).
			WithSuggestion("build slack around this transfer; no independent fallback exists").
			WithMeta("mode", string(leg.Primary.primaryMode()))
		return leg, &cond
	}
	r := routes[backup]
	leg.Backup = &r
	return leg, nil
}

// diverges reports whether b is an acceptable backup for a: it must differ
// in dominant mode or use a disjoint provider set.
func diverges(a, b Route) bool {
	if a.primaryMode() != b.primaryMode() {
		return true
	}
	ap, bp := a.providers(), b.providers()
	for p := range bp {
		if ap[p] {
			return false
		}
	}
	return true
}

func (c *Composer) build(st Strategy, from, to geo.Place, dist float64, travelers int) (Route, bool) {
	switch st {
	case StrategyFastest:
		if seg, ok := segment(ModeFlight, from.Name, to.Name, dist, travelers); ok {
			return route(st, seg), true
		}
		return direct(st, ModeTrain, from, to, dist, travelers)
	case StrategyCheapest:
		return direct(st, ModeBus, from, to, dist, travelers)
	case StrategyMostReliable:
		return direct(st, ModeTrain, from, to, dist, travelers)
	case StrategyFewestTransfers:
		return direct(st, ModeCar, from, to, dist, travelers)
	case StrategyPublicTransport:
		// rail for the bulk of the distance, a regional bus for the rest
		railSeg, ok := segment(ModeTrain, from.Name, "transfer hub", dist*0.85, travelers)
		if !ok {
			return Route{}, false
		}
		busSeg, ok := segment(ModeBus, "transfer hub", to.Name, dist*0.15, travelers)
		if !ok {
			return Route{}, false
		}
		return route(st, railSeg, busSeg), true
	case StrategyHybrid:
		busSeg, ok := segment(ModeBus, from.Name, "transfer hub", dist*0.25, travelers)
		if !ok {
			return Route{}, false
		}
		railSeg, ok := segment(ModeTrain, "transfer hub", to.Name, dist*0.75, travelers)
		if !ok {
			return Route{}, false
		}
		return route(st, busSeg, railSeg), true
	}
	return Route{}, false
}

func direct(st Strategy, m Mode, from, to geo.Place, dist float64, travelers int) (Route, bool) {
	seg, ok := segment(m, from.Name, to.Name, dist, travelers)
	if !ok {
		return Route{}, false
	}
	return route(st, seg), true
}

func segment(m Mode, from, to string, dist float64, travelers int) (Segment, bool) {
	p := profiles[m]
	if dist < p.minKm || dist > p.maxKm {
		return Segment{}, false
	}
	minutes := int(math.Ceil(dist/p.speedKmh*60)) + p.overheadMinutes
	cost := (p.baseCents + int64(math.Ceil(dist))*p.centsPerKm) * int64(travelers)
	return Segment{
		Mode:            m,
		From:            from,
		To:              to,
		Provider:        p.provider,
		DurationMinutes: minutes,
		CostCents:       cost,
	}, true
}

func route(st Strategy, segs ...Segment) Route {
	r := Route{Strategy: st, Segments: segs, Transfers: len(segs) - 1, Reliability: 1}
	for _, s := range segs {
		r.DurationMinutes += s.DurationMinutes
		r.CostCents += s.CostCents
		r.Reliability *= profiles[s.Mode].reliability
	}
	return r
}

func routeKey(r Route) string {
	key := ""
	for _, s := range r.Segments {
		key += string(s.Mode) + "/" + s.Provider + ";"
	}
	return key
}

// score normalizes time and cost across the candidate set and blends the
// four weighted terms onto a 0-100 scale.
func score(routes []Route, w Weights) {
	minT, maxT := routes[0].DurationMinutes, routes[0].DurationMinutes
	minC, maxC := routes[0].CostCents, routes[0].CostCents
	for _, r := range routes[1:] {
		if r.DurationMinutes < minT {
			minT = r.DurationMinutes
		}
		if r.DurationMinutes > maxT {
			maxT = r.DurationMinutes
		}
		if r.CostCents < minC {
			minC = r.CostCents
		}
		if r.CostCents > maxC {
			maxC = r.CostCents
		}
	}
	total := w.Time + w.Cost + w.Reliability + w.Convenience
	for i := range routes {
		r := &routes[i]
		timeTerm := 1.0
		if maxT > minT {
			timeTerm = 1 - float64(r.DurationMinutes-minT)/float64(maxT-minT)
		}
		costTerm := 1.0
		if maxC > minC {
			costTerm = 1 - float64(r.CostCents-minC)/float64(maxC-minC)
		}
		convTerm := 1 / float64(1+r.Transfers)
		r.Score = (w.Time*timeTerm + w.Cost*costTerm + w.Reliability*r.Reliability + w.Convenience*convTerm) / total * 100
	}
}
