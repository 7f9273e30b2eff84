package geo

import "strings"

// City is one catalog entry. Highlights are the interest tags the itinerary
// generator matches traveler preferences against. Popularity breaks ties
// between equally good name matches.
type City struct {
	Name       string
	Country    string
	Aliases    []string
	Lat        float64
	Lng        float64
	Highlights []string
	Popularity int
}

func (c City) Place() Place {
	return Place{Name: c.Name, Lat: c.Lat, Lng: c.Lng}
}

// Match is a catalog hit with a 0-100 confidence.
type Match struct {
	City       City
	Confidence int
}

// Catalog resolves free-text place names to cities and countries.
type Catalog struct {
	cities    []City
	byCountry map[string][]int
}

func NewCatalog() *Catalog {
	c := &Catalog{cities: defaultCities}
	c.byCountry = make(map[string][]int)
	for i, city := range c.cities {
		key := normalizeName(city.Country)
		c.byCountry[key] = append(c.byCountry[key], i)
	}
	return c
}

// Cities returns every catalog city. The slice is shared; callers must not
// mutate it.
func (c *Catalog) Cities() []City {
	return c.cities
}

// FindCity returns every city whose name or alias matches the given token,
// best match first. An exact name match scores 95, an alias 90.
func (c *Catalog) FindCity(name string) []Match {
	key := normalizeName(name)
	if key == "" {
		return nil
	}
	var out []Match
	for _, city := range c.cities {
		switch {
		case normalizeName(city.Name) == key:
			out = append(out, Match{City: city, Confidence: 95})
		case hasAlias(city, key):
			out = append(out, Match{City: city, Confidence: 90})
		}
	}
	sortMatches(out)
	return out
}

// FindCountry reports whether the token names a country the catalog covers,
// and returns that country's cities ordered by popularity.
func (c *Catalog) FindCountry(name string) (string, []City, bool) {
	key := normalizeName(name)
	idx, ok := c.byCountry[key]
	if !ok || key == "" {
		return "", nil, false
	}
	cities := make([]City, 0, len(idx))
	for _, i := range idx {
		cities = append(cities, c.cities[i])
	}
	for i := 0; i < len(cities); i++ {
		for j := i + 1; j < len(cities); j++ {
			if cities[j].Popularity > cities[i].Popularity {
				cities[i], cities[j] = cities[j], cities[i]
			}
		}
	}
	return cities[0].Country, cities, true
}

// CityIn narrows a city name to one country, for disambiguation against a
// brief that already pinned the country down.
func (c *Catalog) CityIn(name, country string) (City, bool) {
	for _, m := range c.FindCity(name) {
		if normalizeName(m.City.Country) == normalizeName(country) {
			return m.City, true
		}
	}
	return City{}, false
}

func hasAlias(city City, key string) bool {
	for _, a := range city.Aliases {
		if normalizeName(a) == key {
			return true
		}
	}
	return false
}

func sortMatches(ms []Match) {
	for i := 0; i < len(ms); i++ {
		for j := i + 1; j < len(ms); j++ {
			if ms[j].Confidence > ms[i].Confidence ||
				(ms[j].Confidence == ms[i].Confidence && ms[j].City.Popularity > ms[i].City.Popularity) {
				ms[i], ms[j] = ms[j], ms[i]
			}
		}
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var defaultCities = []City{
	{Name: "Rome", Country: "Italy", Aliases: []string{"roma"}, Lat: 41.9028, Lng: 12.4964, Highlights: []string{"history", "art", "food", "architecture"}, Popularity: 98},
	{Name: "Florence", Country: "Italy", Aliases: []string{"firenze"}, Lat: 43.7696, Lng: 11.2558, Highlights: []string{"art", "history", "food", "romance"}, Popularity: 92},
	{Name: "Venice", Country: "Italy", Aliases: []string{"venezia"}, Lat: 45.4408, Lng: 12.3155, Highlights: []string{"romance", "art", "architecture"}, Popularity: 93},
	{Name: "Milan", Country: "Italy", Aliases: []string{"milano"}, Lat: 45.4642, Lng: 9.19, Highlights: []string{"shopping", "art", "nightlife"}, Popularity: 85},
	{Name: "Naples", Country: "Italy", Aliases: []string{"napoli"}, Lat: 40.8518, Lng: 14.2681, Highlights: []string{"food", "history", "beach"}, Popularity: 80},
	{Name: "Paris", Country: "France", Aliases: []string{"city of light"}, Lat: 48.8566, Lng: 2.3522, Highlights: []string{"art", "food", "romance", "shopping"}, Popularity: 99},
	{Name: "Paris", Country: "United States", Aliases: []string{"paris texas"}, Lat: 33.6609, Lng: -95.5555, Highlights: []string{"history"}, Popularity: 12},
	{Name: "Lyon", Country: "France", Lat: 45.764, Lng: 4.8357, Highlights: []string{"food", "history"}, Popularity: 70},
	{Name: "Nice", Country: "France", Lat: 43.7102, Lng: 7.262, Highlights: []string{"beach", "nature", "food"}, Popularity: 75},
	{Name: "London", Country: "United Kingdom", Lat: 51.5074, Lng: -0.1278, Highlights: []string{"history", "art", "nightlife", "shopping"}, Popularity: 99},
	{Name: "Edinburgh", Country: "United Kingdom", Lat: 55.9533, Lng: -3.1883, Highlights: []string{"history", "nature", "architecture"}, Popularity: 78},
	{Name: "Manchester", Country: "United Kingdom", Lat: 53.4808, Lng: -2.2426, Highlights: []string{"nightlife", "shopping"}, Popularity: 65},
	{Name: "Barcelona", Country: "Spain", Aliases: []string{"barna"}, Lat: 41.3851, Lng: 2.1734, Highlights: []string{"architecture", "beach", "food", "nightlife"}, Popularity: 96},
	{Name: "Madrid", Country: "Spain", Lat: 40.4168, Lng: -3.7038, Highlights: []string{"art", "food", "nightlife"}, Popularity: 88},
	{Name: "Seville", Country: "Spain", Aliases: []string{"sevilla"}, Lat: 37.3891, Lng: -5.9845, Highlights: []string{"history", "architecture", "food"}, Popularity: 74},
	{Name: "Lisbon", Country: "Portugal", Aliases: []string{"lisboa"}, Lat: 38.7223, Lng: -9.1393, Highlights: []string{"food", "history", "beach"}, Popularity: 86},
	{Name: "Porto", Country: "Portugal", Lat: 41.1579, Lng: -8.6291, Highlights: []string{"food", "history", "architecture"}, Popularity: 72},
	{Name: "Amsterdam", Country: "Netherlands", Lat: 52.3676, Lng: 4.9041, Highlights: []string{"art", "nightlife", "architecture"}, Popularity: 90},
	{Name: "Berlin", Country: "Germany", Lat: 52.52, Lng: 13.405, Highlights: []string{"history", "nightlife", "art"}, Popularity: 89},
	{Name: "Munich", Country: "Germany", Aliases: []string{"muenchen", "münchen"}, Lat: 48.1351, Lng: 11.582, Highlights: []string{"food", "history", "family"}, Popularity: 77},
	{Name: "Prague", Country: "Czechia", Aliases: []string{"praha"}, Lat: 50.0755, Lng: 14.4378, Highlights: []string{"history", "architecture", "nightlife"}, Popularity: 87},
	{Name: "Vienna", Country: "Austria", Aliases: []string{"wien"}, Lat: 48.2082, Lng: 16.3738, Highlights: []string{"art", "history", "architecture"}, Popularity: 84},
	{Name: "Budapest", Country: "Hungary", Lat: 47.4979, Lng: 19.0402, Highlights: []string{"history", "nightlife", "architecture"}, Popularity: 82},
	{Name: "Athens", Country: "Greece", Aliases: []string{"athina"}, Lat: 37.9838, Lng: 23.7275, Highlights: []string{"history", "food", "beach"}, Popularity: 81},
	{Name: "Dublin", Country: "Ireland", Lat: 53.3498, Lng: -6.2603, Highlights: []string{"nightlife", "history", "nature"}, Popularity: 76},
	{Name: "Brussels", Country: "Belgium", Lat: 50.8503, Lng: 4.3517, Highlights: []string{"food", "art", "history"}, Popularity: 68},
	{Name: "Zurich", Country: "Switzerland", Aliases: []string{"zürich"}, Lat: 47.3769, Lng: 8.5417, Highlights: []string{"nature", "shopping"}, Popularity: 66},
	{Name: "Copenhagen", Country: "Denmark", Aliases: []string{"københavn"}, Lat: 55.6761, Lng: 12.5683, Highlights: []string{"food", "architecture", "family"}, Popularity: 79},
	{Name: "Stockholm", Country: "Sweden", Lat: 59.3293, Lng: 18.0686, Highlights: []string{"nature", "architecture", "family"}, Popularity: 73},
}
