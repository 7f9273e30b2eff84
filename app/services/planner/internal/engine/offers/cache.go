package offers

import (
	"context"
	"strings"
	"sync"
	"time"

	"tripsmith/app/services/planner/internal/engine/brief"

	gocache "github.com/patrickmn/go-cache"
	"github.com/zeromicro/go-zero/core/syncx"
)

// slotDomains is the dependency map invalidation walks: a changed slot
// evicts every cached offer set in the domains that were searched with it.
var slotDomains = map[brief.SlotName][]Domain{
	brief.SlotDestination: {DomainHotels, DomainActivities, DomainRestaurants, DomainFlights},
	brief.SlotDates:       {DomainHotels, DomainActivities, DomainRestaurants, DomainFlights, DomainTransfers},
	brief.SlotTravelers:   {DomainHotels, DomainFlights},
	brief.SlotBudget:      {DomainHotels, DomainFlights},
	brief.SlotStyle:       {DomainHotels},
	brief.SlotPreferences: {DomainActivities, DomainRestaurants},
	brief.SlotOrigin:      {DomainFlights, DomainTransfers},
}

// DomainsFor returns the offer domains downstream of a slot.
func DomainsFor(slot brief.SlotName) []Domain {
	return slotDomains[slot]
}

type entryMeta struct {
	domain Domain
	params Params
}

// Cache is the shared fingerprint → OfferSet arena. Entries live in an
// expiring in-process store; a single-flight group guarantees at most one
// in-flight fetch per fingerprint while independent fingerprints proceed
// concurrently.
type Cache struct {
	store  *gocache.Cache
	flight syncx.SingleFlight

	mu    sync.Mutex
	index map[string]entryMeta
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Cache{
		store:  gocache.New(ttl, 2*ttl),
		flight: syncx.NewSingleFlight(),
		index:  make(map[string]entryMeta),
	}
}

// Get returns the cached set for (domain, params), if any.
func (c *Cache) Get(domain Domain, params Params) (*OfferSet, bool) {
	if v, ok := c.store.Get(Fingerprint(domain, params)); ok {
		return v.(*OfferSet), true
	}
	return nil, false
}

// GetOrFetch returns the cached set or runs the provider exactly once per
// fingerprint, however many callers arrive at the same moment.
func (c *Cache) GetOrFetch(ctx context.Context, domain Domain, params Params, p Provider) (*OfferSet, error) {
	fp := Fingerprint(domain, params)
	if v, ok := c.store.Get(fp); ok {
		return v.(*OfferSet), nil
	}
	v, err := c.flight.Do(fp, func() (any, error) {
		if cached, ok := c.store.Get(fp); ok {
			return cached, nil
		}
		found, err := p.Search(ctx, domain, params)
		if err != nil {
			return nil, err
		}
		set := &OfferSet{
			Fingerprint: fp,
			Domain:      domain,
			Params:      params,
			Offers:      found,
			FetchedAt:   time.Now(),
		}
		c.store.SetDefault(fp, set)
		c.mu.Lock()
		c.index[fp] = entryMeta{domain: domain, params: params}
		c.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*OfferSet), nil
}

// Invalidate drops every cached set in the slot's downstream domains whose
// parameters were built from oldValue, and returns those domains so the
// caller can mark them for re-search.
func (c *Cache) Invalidate(slot brief.SlotName, oldValue string) []Domain {
	domains := DomainsFor(slot)
	if len(domains) == 0 {
		return nil
	}
	want := make(map[Domain]bool, len(domains))
	for _, d := range domains {
		want[d] = true
	}
	tokens := valueTokens(oldValue)

	c.mu.Lock()
	defer c.mu.Unlock()
	for fp, meta := range c.index {
		if !want[meta.domain] {
			continue
		}
		if len(tokens) == 0 || paramsMatch(meta.params, tokens) {
			c.store.Delete(fp)
			delete(c.index, fp)
		}
	}
	return domains
}

// Len reports how many sets are currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// valueTokens splits a rendered slot value ("Rome, Italy", "Rome + Paris",
// "2026-06-12 → 2026-06-19 (7 nights)") into comparable components.
func valueTokens(rendered string) []string {
	rendered = strings.ToLower(rendered)
	fields := strings.FieldsFunc(rendered, func(r rune) bool {
		switch r {
		case ',', '+', '(', ')', '→', ' ':
			return true
		}
		return false
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func paramsMatch(params Params, tokens []string) bool {
	for _, v := range params {
		lv := strings.ToLower(v)
		for _, t := range tokens {
			if lv == t || strings.Contains(lv, t) {
				return true
			}
		}
	}
	return false
}
