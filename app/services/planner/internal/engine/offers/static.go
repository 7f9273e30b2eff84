package offers

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"

	"tripsmith/app/services/planner/internal/engine/geo"
)

// StaticProvider serves deterministic offers derived from the place
// catalog. It backs local development and tests; production wires real
// adapters behind the same contract.
type StaticProvider struct {
	catalog *geo.Catalog
}

func NewStaticProvider(catalog *geo.Catalog) *StaticProvider {
	return &StaticProvider{catalog: catalog}
}

func (p *StaticProvider) Search(ctx context.Context, domain Domain, params Params) ([]Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ProviderError{Kind: FailTimeout, Provider: "static", Err: err}
	}
	city, ok := p.resolveCity(params["city"])
	if !ok && domain != DomainFlights {
		return nil, &ProviderError{Kind: FailNoResults, Provider: "static"}
	}
	// one rng per fingerprint keeps results stable across calls
	rng := rand.New(rand.NewSource(seedFor(domain, params)))

	switch domain {
	case DomainHotels:
		return p.hotels(city, rng), nil
	case DomainActivities:
		return p.activities(city, rng), nil
	case DomainRestaurants:
		return p.restaurants(city, rng), nil
	case DomainFlights:
		return p.flights(params, rng), nil
	case DomainTransfers:
		return nil, &ProviderError{Kind: FailNoResults, Provider: "static"}
	}
	return nil, &ProviderError{Kind: FailNoResults, Provider: "static"}
}

func (p *StaticProvider) resolveCity(name string) (geo.City, bool) {
	ms := p.catalog.FindCity(name)
	if len(ms) == 0 {
		return geo.City{}, false
	}
	return ms[0].City, true
}

var hotelNames = []string{
	"Grand %s Palace", "%s Central Inn", "The %s Courtyard", "Hotel Stazione %s",
	"%s Riverside Rooms", "Casa %s", "%s Garden Suites", "The Old %s House",
	"%s Plaza Hotel", "Pension %s", "%s Boutique Stay", "%s Backpackers Hub",
}

func (p *StaticProvider) hotels(city geo.City, rng *rand.Rand) []Offer {
	out := make([]Offer, 0, len(hotelNames))
	for i, tmpl := range hotelNames {
		lat, lng := jitter(city, rng, 9.0)
		rating := 2.5 + rng.Float64()*2.5
		price := int64(4000 + rng.Intn(26000)) // 40–300 per night
		out = append(out, Offer{
			ID:         fmt.Sprintf("htl-%s-%d", slug(city.Name), i),
			Domain:     DomainHotels,
			Name:       fmt.Sprintf(tmpl, city.Name),
			City:       city.Name,
			Lat:        lat,
			Lng:        lng,
			PriceCents: price,
			Rating:     round1(rating),
			Tags:       hotelTags(i),
			Provider:   "staybank",
			Score:      scoreOffer(rating, price, 30000),
		})
	}
	return out
}

var activityNames = []string{
	"%s Old Town Walking Tour", "%s Food Market Tasting", "Museum Quarter of %s",
	"%s River Cruise", "Hidden Courtyards of %s", "%s Cathedral Climb",
	"Street Art Walk %s", "%s Cooking Class", "Sunset Viewpoint %s",
	"%s Bike Loop", "Artisan Quarter of %s", "%s Night Tour",
	"Day Trip from %s", "%s Botanical Gardens",
}

func (p *StaticProvider) activities(city geo.City, rng *rand.Rand) []Offer {
	genericTags := []string{"history", "food", "art", "nature", "architecture", "nightlife", "family", "romance"}
	out := make([]Offer, 0, len(activityNames))
	for i, tmpl := range activityNames {
		lat, lng := jitter(city, rng, 10.0)
		rating := 3.0 + rng.Float64()*2.0
		price := int64(rng.Intn(6000)) // up to 60 per person
		tags := []string{genericTags[rng.Intn(len(genericTags))]}
		if len(city.Highlights) > 0 {
			tags = append(tags, city.Highlights[i%len(city.Highlights)])
		}
		out = append(out, Offer{
			ID:              fmt.Sprintf("act-%s-%d", slug(city.Name), i),
			Domain:          DomainActivities,
			Name:            fmt.Sprintf(tmpl, city.Name),
			City:            city.Name,
			Lat:             lat,
			Lng:             lng,
			PriceCents:      price,
			Rating:          round1(rating),
			Tags:            tags,
			Provider:        "localista",
			DurationMinutes: 60 + rng.Intn(180),
			Score:           scoreOffer(rating, price, 6000),
		})
	}
	return out
}

var restaurantNames = []string{
	"Trattoria %s", "%s Market Kitchen", "Bistro %s", "%s Harvest Table",
	"Osteria del %s", "%s Street Eats", "The %s Cellar", "Cafe %s",
}

func (p *StaticProvider) restaurants(city geo.City, rng *rand.Rand) []Offer {
	dietary := []string{"vegetarian", "vegan", "gluten-free", "halal", ""}
	out := make([]Offer, 0, len(restaurantNames))
	for i, tmpl := range restaurantNames {
		lat, lng := jitter(city, rng, 6.0)
		rating := 3.0 + rng.Float64()*2.0
		price := int64(1500 + rng.Intn(5500))
		var tags []string
		if d := dietary[rng.Intn(len(dietary))]; d != "" {
			tags = append(tags, d)
		}
		out = append(out, Offer{
			ID:         fmt.Sprintf("rst-%s-%d", slug(city.Name), i),
			Domain:     DomainRestaurants,
			Name:       fmt.Sprintf(tmpl, city.Name),
			City:       city.Name,
			Lat:        lat,
			Lng:        lng,
			PriceCents: price,
			Rating:     round1(rating),
			Tags:       tags,
			Provider:   "tableround",
			Score:      scoreOffer(rating, price, 7000),
		})
	}
	return out
}

func (p *StaticProvider) flights(params Params, rng *rand.Rand) []Offer {
	origin := params["origin"]
	dest := params["city"]
	if origin == "" || dest == "" {
		return nil
	}
	carriers := []string{"SkyBridge Air", "Meridian Wings", "Atlas Regional"}
	out := make([]Offer, 0, len(carriers))
	for i, carrier := range carriers {
		price := int64(5000 + rng.Intn(25000))
		out = append(out, Offer{
			ID:              fmt.Sprintf("flt-%s-%s-%d", slug(origin), slug(dest), i),
			Domain:          DomainFlights,
			Name:            fmt.Sprintf("%s → %s", origin, dest),
			City:            dest,
			PriceCents:      price,
			Rating:          3.5 + rng.Float64(),
			Provider:        carrier,
			DurationMinutes: 60 + rng.Intn(240),
			Score:           scoreOffer(4, price, 30000),
		})
	}
	return out
}

func hotelTags(i int) []string {
	switch {
	case i%4 == 0:
		return []string{"hotel"}
	case i%4 == 1:
		return []string{"apartment"}
	case i%4 == 2:
		return []string{"hostel"}
	default:
		return []string{"bed_and_breakfast"}
	}
}

// jitter places an offer within maxKm of the city center. A degree of
// latitude is ~111 km.
func jitter(city geo.City, rng *rand.Rand, maxKm float64) (float64, float64) {
	dKm := rng.Float64() * maxKm
	angle := rng.Float64() * 6.283185
	dLat := dKm / 111.0
	dLng := dKm / 75.0 // rough at mid latitudes
	return city.Lat + dLat*math.Cos(angle), city.Lng + dLng*math.Sin(angle)
}

func scoreOffer(rating float64, price, priceCeiling int64) float64 {
	pricePart := 1 - float64(price)/float64(priceCeiling)
	if pricePart < 0 {
		pricePart = 0
	}
	return round1(rating*14 + pricePart*30)
}

func seedFor(domain Domain, params Params) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(Fingerprint(domain, params)))
	return int64(h.Sum64())
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
