package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/geo"
)

func newExtractor() *Extractor {
	return New(geo.NewCatalog(), 60).WithClock(func() time.Time {
		return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	})
}

func findingFor(t *testing.T, ex brief.Extraction, slot brief.SlotName) brief.Finding {
	t.Helper()
	for _, f := range ex.Findings {
		if f.Slot == slot {
			return f
		}
	}
	t.Fatalf("no finding for slot %s in %+v", slot, ex.Findings)
	return brief.Finding{}
}

func TestExtractDestinationCity(t *testing.T) {
	ex := newExtractor().Extract("I want to go to Rome", nil)

	f := findingFor(t, ex, brief.SlotDestination)
	assert.Equal(t, brief.VariantSingle, f.Variant)
	require.Len(t, f.Candidates, 1)
	d := f.Candidates[0].Destination
	require.NotNil(t, d)
	assert.Equal(t, brief.DestCity, d.Type)
	assert.Equal(t, "Rome", d.Primary)
	assert.Equal(t, "Italy", d.Country)
}

func TestExtractCountryDestination(t *testing.T) {
	ex := newExtractor().Extract("somewhere in Italy", nil)

	f := findingFor(t, ex, brief.SlotDestination)
	require.Len(t, f.Candidates, 1)
	d := f.Candidates[0].Destination
	require.NotNil(t, d)
	assert.Equal(t, brief.DestCountry, d.Type)
	assert.Equal(t, "Italy", d.Primary)
}

func TestExtractMultiCity(t *testing.T) {
	ex := newExtractor().Extract("Rome, Florence and Venice please", nil)

	f := findingFor(t, ex, brief.SlotDestination)
	require.Len(t, f.Candidates, 1)
	d := f.Candidates[0].Destination
	require.NotNil(t, d)
	assert.Equal(t, brief.DestMultiCity, d.Type)
	assert.Equal(t, []string{"Rome", "Florence", "Venice"}, d.DetectedCities)
	assert.Equal(t, "Italy", d.Country)
}

func TestExtractAmbiguousCity(t *testing.T) {
	ex := newExtractor().Extract("take me to Paris", nil)

	f := findingFor(t, ex, brief.SlotDestination)
	assert.Equal(t, brief.VariantAmbiguous, f.Variant)
	require.Len(t, f.Options, 2)
	assert.Equal(t, "Paris, France", f.Options[0])
	assert.Equal(t, "Paris, United States", f.Options[1])
	assert.Len(t, f.Candidates, 2)
}

func TestExtractCityNarrowedByKnownCountry(t *testing.T) {
	b := brief.New("t1")
	b.Destination.Filled = true
	b.Destination.Value = brief.Destination{Type: brief.DestCountry, Primary: "France", Country: "France"}

	ex := newExtractor().Extract("what about paris", b)

	f := findingFor(t, ex, brief.SlotDestination)
	assert.Equal(t, brief.VariantSingle, f.Variant)
	require.Len(t, f.Candidates, 1)
	assert.Equal(t, "France", f.Candidates[0].Destination.Country)
}

func TestAmbiguityResolvedByReply(t *testing.T) {
	e := newExtractor()
	first := e.Extract("paris", nil)
	f := findingFor(t, first, brief.SlotDestination)
	require.Equal(t, brief.VariantAmbiguous, f.Variant)

	b := brief.New("t1")
	b.Pending = &brief.Pending{
		Kind:       brief.PendingAmbiguity,
		Slot:       brief.SlotDestination,
		Candidates: f.Candidates,
		Options:    f.Options,
	}

	for reply, want := range map[string]string{
		"france":         "France",
		"the second one": "United States",
		"paris, france":  "France",
	} {
		ex := e.Extract(reply, b)
		rf := findingFor(t, ex, brief.SlotDestination)
		assert.Equal(t, brief.VariantSingle, rf.Variant, reply)
		require.Len(t, rf.Candidates, 1, reply)
		assert.Equal(t, want, rf.Candidates[0].Destination.Country, reply)
	}
}

func TestExtractOriginMarkers(t *testing.T) {
	t.Run("from marker", func(t *testing.T) {
		ex := newExtractor().Extract("flying from London to Rome", nil)
		origin := findingFor(t, ex, brief.SlotOrigin)
		require.Len(t, origin.Candidates, 1)
		assert.Equal(t, "London", *origin.Candidates[0].Origin)
		dest := findingFor(t, ex, brief.SlotDestination)
		assert.Equal(t, "Rome", dest.Candidates[0].Destination.Primary)
	})
	t.Run("a to b pair", func(t *testing.T) {
		ex := newExtractor().Extract("london to rome", nil)
		origin := findingFor(t, ex, brief.SlotOrigin)
		assert.Equal(t, "London", *origin.Candidates[0].Origin)
	})
}

func TestExtractDuration(t *testing.T) {
	cases := map[string]int{
		"7 nights":       7,
		"seven nights":   7,
		"two weeks":      14,
		"a week":         7,
		"5 days in june": 5,
	}
	for utterance, nights := range cases {
		ex := newExtractor().Extract(utterance, nil)
		f := findingFor(t, ex, brief.SlotDates)
		require.Len(t, f.Candidates, 1, utterance)
		assert.Equal(t, nights, f.Candidates[0].Dates.Nights, utterance)
	}
}

func TestExtractExplicitDateRange(t *testing.T) {
	ex := newExtractor().Extract("from 2026-06-12 to 2026-06-19", nil)

	f := findingFor(t, ex, brief.SlotDates)
	dr := f.Candidates[0].Dates
	require.NotNil(t, dr.Start)
	require.NotNil(t, dr.End)
	assert.Equal(t, 7, dr.Nights)
	assert.Equal(t, time.June, dr.Start.Month())
}

func TestExtractYearlessDateRollsForward(t *testing.T) {
	// clock is pinned to 2026-03-01, so a January date lands in 2027
	ex := newExtractor().Extract("arriving january 10th", nil)

	f := findingFor(t, ex, brief.SlotDates)
	dr := f.Candidates[0].Dates
	require.NotNil(t, dr.Start)
	assert.Equal(t, 2027, dr.Start.Year())
}

func TestExtractTravelers(t *testing.T) {
	cases := []struct {
		utterance string
		adults    int
		group     string
	}{
		{"2 adults", 2, "couple"},
		{"family of four", 4, "family"},
		{"there are 5 of us", 5, "group"},
		{"travelling solo", 1, "solo"},
		{"me and my partner", 2, "couple"},
	}
	for _, c := range cases {
		ex := newExtractor().Extract(c.utterance, nil)
		f := findingFor(t, ex, brief.SlotTravelers)
		require.Len(t, f.Candidates, 1, c.utterance)
		tv := f.Candidates[0].Travelers
		assert.Equal(t, c.adults, tv.Adults, c.utterance)
		assert.Equal(t, c.group, tv.GroupType, c.utterance)
	}
}

func TestExtractMoney(t *testing.T) {
	cases := []struct {
		utterance string
		cents     int64
		currency  string
	}{
		{"2000 euros", 200000, "EUR"},
		{"around £1.5k total", 150000, "GBP"},
		{"$800", 80000, "USD"},
		{"budget is eur 950", 95000, "EUR"},
		{"2,500 dollars", 250000, "USD"},
	}
	for _, c := range cases {
		ex := newExtractor().Extract(c.utterance, nil)
		f := findingFor(t, ex, brief.SlotBudget)
		assert.Equal(t, brief.VariantSingle, f.Variant, c.utterance)
		require.Len(t, f.Candidates, 1, c.utterance)
		bd := f.Candidates[0].Budget
		assert.Equal(t, c.cents, bd.AmountCents, c.utterance)
		assert.Equal(t, c.currency, bd.Currency, c.utterance)
	}
}

func TestBareNumberInterpretation(t *testing.T) {
	e := newExtractor()

	t.Run("reads as nights before dates are known", func(t *testing.T) {
		b := brief.New("t1")
		ex := e.Extract("7", b)
		f := findingFor(t, ex, brief.SlotDates)
		assert.Equal(t, 7, f.Candidates[0].Dates.Nights)
		assert.Equal(t, brief.SourceInferred, f.Candidates[0].Source)
	})

	t.Run("reads as headcount once dates are set", func(t *testing.T) {
		b := brief.New("t1")
		b.Dates.Filled = true
		b.Dates.Value = brief.DateRange{Nights: 7}
		ex := e.Extract("3", b)
		f := findingFor(t, ex, brief.SlotTravelers)
		assert.Equal(t, 3, f.Candidates[0].Travelers.Adults)
	})

	t.Run("large amount becomes a unit-less budget", func(t *testing.T) {
		b := brief.New("t1")
		ex := e.Extract("2500", b)
		f := findingFor(t, ex, brief.SlotBudget)
		assert.Equal(t, brief.VariantPendingUnit, f.Variant)
		bd := f.Candidates[0].Budget
		assert.Equal(t, int64(250000), bd.AmountCents)
		assert.Equal(t, brief.CurrencyPending, bd.Currency)
	})
}

func TestCurrencyOnlyReply(t *testing.T) {
	e := newExtractor()
	for reply, code := range map[string]string{
		"in euros": "EUR",
		"pounds":   "GBP",
		"gbp":      "GBP",
		"usd":      "USD",
	} {
		ex := e.Extract(reply, nil)
		assert.Equal(t, code, ex.CurrencyOnly, reply)
		assert.Empty(t, ex.Findings, reply)
	}
}

func TestDetectReply(t *testing.T) {
	e := newExtractor()

	ex := e.Extract("yes", nil)
	assert.True(t, ex.Affirmed)
	assert.False(t, ex.Denied)

	ex = e.Extract("no, change that", nil)
	assert.True(t, ex.Denied)

	// affirmation followed by a correction still carries the new value
	ex = e.Extract("yes but make it 5 nights", nil)
	assert.True(t, ex.Affirmed)
	f := findingFor(t, ex, brief.SlotDates)
	assert.Equal(t, 5, f.Candidates[0].Dates.Nights)

	// "no more than X" is a constraint, not a denial
	ex = e.Extract("no more than 2000 euros", nil)
	assert.False(t, ex.Denied)
	findingFor(t, ex, brief.SlotBudget)
}

func TestExtractStyleAndPreferences(t *testing.T) {
	ex := newExtractor().Extract("we love food and history, vegetarian, mid-range hotels please", nil)

	style := findingFor(t, ex, brief.SlotStyle)
	assert.Equal(t, "mid-range", *style.Candidates[0].Style)

	prefs := findingFor(t, ex, brief.SlotPreferences)
	p := prefs.Candidates[0].Preferences
	assert.Equal(t, []string{"food", "history"}, p.Interests)
	assert.Equal(t, []string{"vegetarian"}, p.Dietary)
	assert.Equal(t, "hotel", p.Accommodation)
}

func TestExtractNothing(t *testing.T) {
	ex := newExtractor().Extract("hmm let me think about it", nil)
	assert.Empty(t, ex.Findings)
	assert.False(t, ex.Affirmed)
	assert.False(t, ex.Denied)
	assert.Empty(t, ex.CurrencyOnly)
}
