package offers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/geo"
)

func TestFingerprintIsParamOrderInsensitive(t *testing.T) {
	a := Fingerprint(DomainHotels, Params{"city": "Rome", "travelers": "2", "style": "mid-range"})
	b := Fingerprint(DomainHotels, Params{"style": "mid-range", "city": "Rome", "travelers": "2"})
	assert.Equal(t, a, b)
}

func TestFingerprintSeparatesDomainsAndValues(t *testing.T) {
	base := Fingerprint(DomainHotels, Params{"city": "Rome"})
	assert.NotEqual(t, base, Fingerprint(DomainActivities, Params{"city": "Rome"}))
	assert.NotEqual(t, base, Fingerprint(DomainHotels, Params{"city": "Paris"}))
}

func TestFingerprintNormalizesCase(t *testing.T) {
	assert.Equal(t,
		Fingerprint(DomainHotels, Params{"city": "Rome"}),
		Fingerprint(DomainHotels, Params{"city": "rome"}))
}

func TestGetOrFetchSingleFlight(t *testing.T) {
	cache := NewCache(time.Minute)
	var calls int32
	p := ProviderFunc(func(ctx context.Context, d Domain, params Params) ([]Offer, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return []Offer{{ID: "o1", Domain: d}}, nil
	})

	params := Params{"city": "Rome"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := cache.GetOrFetch(context.Background(), DomainHotels, params, p)
			assert.NoError(t, err)
			assert.Len(t, set.Offers, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "identical fingerprints must share one fetch")

	// a later call hits the cache
	_, err := cache.GetOrFetch(context.Background(), DomainHotels, params, p)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvalidateDropsOnlyMatchingEntries(t *testing.T) {
	cache := NewCache(time.Minute)
	p := ProviderFunc(func(ctx context.Context, d Domain, params Params) ([]Offer, error) {
		return []Offer{{ID: "x", Domain: d}}, nil
	})

	ctx := context.Background()
	_, err := cache.GetOrFetch(ctx, DomainHotels, Params{"city": "Rome", "travelers": "2"}, p)
	require.NoError(t, err)
	_, err = cache.GetOrFetch(ctx, DomainHotels, Params{"city": "Paris", "travelers": "2"}, p)
	require.NoError(t, err)
	require.Equal(t, 2, cache.Len())

	domains := cache.Invalidate(brief.SlotDestination, "Rome, Italy")
	assert.Contains(t, domains, DomainHotels)

	_, romeHit := cache.Get(DomainHotels, Params{"city": "Rome", "travelers": "2"})
	assert.False(t, romeHit, "entries built from the superseded value must be gone")
	_, parisHit := cache.Get(DomainHotels, Params{"city": "Paris", "travelers": "2"})
	assert.True(t, parisHit, "unrelated entries survive")
}

func TestDomainsForMapsSlotDependencies(t *testing.T) {
	assert.Contains(t, DomainsFor(brief.SlotDestination), DomainHotels)
	assert.Contains(t, DomainsFor(brief.SlotDates), DomainTransfers)
	assert.Contains(t, DomainsFor(brief.SlotBudget), DomainFlights)
	assert.NotContains(t, DomainsFor(brief.SlotStyle), DomainFlights)
}

func TestStaticProviderIsDeterministic(t *testing.T) {
	p := NewStaticProvider(geo.NewCatalog())
	ctx := context.Background()
	params := Params{"city": "Rome"}

	first, err := p.Search(ctx, DomainHotels, params)
	require.NoError(t, err)
	second, err := p.Search(ctx, DomainHotels, params)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same fingerprint must yield the same offers")
	assert.NotEmpty(t, first)
	for _, o := range first {
		assert.Equal(t, "Rome", o.City)
		assert.Greater(t, o.PriceCents, int64(0))
	}
}

func TestStaticProviderUnknownCity(t *testing.T) {
	p := NewStaticProvider(geo.NewCatalog())
	_, err := p.Search(context.Background(), DomainHotels, Params{"city": "Atlantis"})
	require.Error(t, err)
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, FailNoResults, perr.Kind)
}
