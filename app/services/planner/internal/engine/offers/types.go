// Package offers holds the search/offer cache and the provider-adapter
// contract. The cache is shared across trips but keyed per fingerprint, so
// trips only contend when they issue identical queries.
package offers

import (
	"fmt"
	"time"
)

type Domain string

const (
	DomainHotels      Domain = "hotels"
	DomainActivities  Domain = "activities"
	DomainRestaurants Domain = "restaurants"
	DomainFlights     Domain = "flights"
	DomainTransfers   Domain = "transfers"
)

var AllDomains = []Domain{DomainHotels, DomainActivities, DomainRestaurants, DomainFlights, DomainTransfers}

// Params are the normalized search parameters a fingerprint is built from.
type Params map[string]string

// Offer is one scored candidate from a provider. PriceCents is per night
// for hotels and per person otherwise.
type Offer struct {
	ID              string   `json:"id"`
	Domain          Domain   `json:"domain"`
	Name            string   `json:"name"`
	City            string   `json:"city"`
	Lat             float64  `json:"lat"`
	Lng             float64  `json:"lng"`
	PriceCents      int64    `json:"priceCents"`
	Rating          float64  `json:"rating"`
	Tags            []string `json:"tags,omitempty"`
	Provider        string   `json:"provider"`
	DurationMinutes int      `json:"durationMinutes,omitempty"`
	Score           float64  `json:"score"`
}

type OfferSet struct {
	Fingerprint string    `json:"fingerprint"`
	Domain      Domain    `json:"domain"`
	Params      Params    `json:"params"`
	Offers      []Offer   `json:"offers"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

type FailKind string

const (
	FailRateLimited FailKind = "rate_limited"
	FailNoResults   FailKind = "no_results"
	FailUpstream    FailKind = "upstream_error"
	FailTimeout     FailKind = "timeout"
)

// ProviderError is the typed failure every provider adapter reports
// through. The planning pass treats all providers identically by kind.
type ProviderError struct {
	Kind     FailKind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }
