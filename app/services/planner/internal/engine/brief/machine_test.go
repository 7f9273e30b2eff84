package brief

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsmith/app/services/planner/internal/engine/condition"
)

var testClock = func() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func newTestMachine() *Machine {
	return NewMachine(60).WithClock(testClock)
}

func single(c Candidate) Extraction {
	return Extraction{Findings: []Finding{{Slot: c.Slot, Variant: VariantSingle, Candidates: []Candidate{c}}}}
}

func destCand(name, country string, conf int) Candidate {
	return Candidate{
		Slot:        SlotDestination,
		Destination: &Destination{Type: DestCity, Primary: name, Country: country},
		Confidence:  conf, Source: SourceExplicit,
	}
}

func datesCand(nights int) Candidate {
	return Candidate{Slot: SlotDates, Dates: &DateRange{Nights: nights}, Confidence: 90, Source: SourceExplicit}
}

func travelersCand(adults int) Candidate {
	return Candidate{Slot: SlotTravelers, Travelers: &Travelers{Adults: adults, GroupType: "couple"}, Confidence: 90, Source: SourceExplicit}
}

func budgetCand(cents int64, currency string) Candidate {
	return Candidate{Slot: SlotBudget, Budget: &Budget{AmountCents: cents, Currency: currency}, Confidence: 92, Source: SourceExplicit}
}

func lockedConstraint[T any](v T) Constraint[T] {
	t := testClock()
	return Constraint[T]{Value: v, Confidence: 95, Source: SourceExplicit, Filled: true, LockedAt: &t}
}

func TestFillThenConfirmLocks(t *testing.T) {
	m := newTestMachine()
	b := New("t1")

	out := m.Apply(b, single(destCand("Rome", "Italy", 95)))
	require.Len(t, out.Changes, 1)
	assert.Equal(t, OpFill, out.Changes[0].Op)
	assert.False(t, out.Changes[0].Locked)
	assert.True(t, b.Destination.Filled)
	assert.False(t, b.Destination.Ready())
	assert.Equal(t, int64(1), b.Version)
	assert.Equal(t, SlotDestination, out.NextSlot)
	assert.Contains(t, out.Prompt, "Rome, Italy")

	out = m.Apply(b, Extraction{Affirmed: true})
	require.Len(t, out.Changes, 1)
	assert.Equal(t, OpConfirm, out.Changes[0].Op)
	assert.True(t, out.Changes[0].Locked)
	assert.True(t, b.Destination.Ready())
	assert.Equal(t, int64(2), b.Version)
	assert.Equal(t, SlotDates, out.NextSlot)
}

func TestLowConfidenceCandidateIgnored(t *testing.T) {
	m := newTestMachine()
	b := New("t1")

	out := m.Apply(b, single(destCand("Rome", "Italy", 40)))
	assert.Empty(t, out.Changes)
	assert.False(t, b.Destination.Filled)
	assert.Equal(t, int64(0), b.Version)
}

func TestReapplySameValueIsNoOp(t *testing.T) {
	m := newTestMachine()
	b := New("t1")
	m.Apply(b, single(destCand("Rome", "Italy", 95)))
	m.Apply(b, Extraction{Affirmed: true})
	v := b.Version

	out := m.Apply(b, single(destCand("Rome", "Italy", 95)))
	assert.Empty(t, out.Changes)
	assert.Nil(t, b.Pending, "same value against a locked slot must not open a relock")
	assert.Equal(t, v, b.Version)
}

func TestDenyAtConfirmationClearsSlot(t *testing.T) {
	m := newTestMachine()
	b := New("t1")
	m.Apply(b, single(destCand("Rome", "Italy", 95)))

	out := m.Apply(b, Extraction{Denied: true})
	require.Len(t, out.Changes, 1)
	assert.Equal(t, OpDiscard, out.Changes[0].Op)
	assert.False(t, b.Destination.Filled)
	require.Len(t, b.Destination.History, 1)
	assert.Equal(t, "Rome, Italy", b.Destination.History[0].Value)
	assert.Equal(t, SlotDestination, out.NextSlot)
}

func TestRelockRequiresConfirmation(t *testing.T) {
	m := newTestMachine()
	b := New("t1")
	b.Destination = lockedConstraint(Destination{Type: DestCity, Primary: "Rome", Country: "Italy"})
	b.Status = StatusPlanned

	out := m.Apply(b, single(destCand("Paris", "France", 95)))
	assert.Empty(t, out.Changes, "a locked slot never changes without explicit confirmation")
	require.NotNil(t, b.Pending)
	assert.Equal(t, PendingRelock, b.Pending.Kind)
	assert.Equal(t, "Rome, Italy", b.Destination.Value.Render())
	assert.Contains(t, out.Prompt, "Switch to Paris, France")

	out = m.Apply(b, Extraction{Affirmed: true})
	require.Len(t, out.Changes, 1)
	assert.Equal(t, OpRelock, out.Changes[0].Op)
	assert.Equal(t, "Paris, France", b.Destination.Value.Render())
	require.Len(t, out.Evictions, 1)
	assert.Equal(t, Eviction{Slot: SlotDestination, OldValue: "Rome, Italy"}, out.Evictions[0])
	assert.Equal(t, StatusReadyToPlan, b.Status, "an existing plan is stale once a locked input moves")
	require.Len(t, b.Destination.History, 1)
	assert.Nil(t, b.Pending)
}

func TestRelockDeniedKeepsOldValue(t *testing.T) {
	m := newTestMachine()
	b := New("t1")
	b.Destination = lockedConstraint(Destination{Type: DestCity, Primary: "Rome", Country: "Italy"})

	m.Apply(b, single(destCand("Paris", "France", 95)))
	out := m.Apply(b, Extraction{Denied: true})

	require.Len(t, out.Changes, 1)
	assert.Equal(t, OpDiscard, out.Changes[0].Op)
	assert.Equal(t, "Rome, Italy", b.Destination.Value.Render())
	assert.Empty(t, out.Evictions)
	assert.Nil(t, b.Pending)
	assert.Contains(t, out.Prompt, "keeping")
}

func TestPendingCurrencyFlow(t *testing.T) {
	m := newTestMachine()
	b := New("t1")

	cand := budgetCand(250000, CurrencyPending)
	out := m.Apply(b, Extraction{Findings: []Finding{{
		Slot: SlotBudget, Variant: VariantPendingUnit, Candidates: []Candidate{cand},
	}}})
	require.NotNil(t, b.Pending)
	assert.Equal(t, PendingCurrency, b.Pending.Kind)
	assert.True(t, b.Budget.Filled)
	require.Len(t, out.Conditions, 1)
	assert.Equal(t, condition.PendingClarification, out.Conditions[0].Code)
	assert.Contains(t, out.Prompt, "which currency")

	// a bare affirmation cannot confirm a budget with no currency
	out = m.Apply(b, Extraction{Affirmed: true})
	assert.Empty(t, out.Changes)
	require.NotNil(t, b.Pending)

	out = m.Apply(b, Extraction{CurrencyOnly: "EUR"})
	assert.Nil(t, b.Pending)
	assert.Equal(t, "EUR", b.Budget.Value.Currency)
	assert.Equal(t, int64(250000), b.Budget.Value.AmountCents)
	require.Len(t, out.Changes, 1)
	assert.Equal(t, "currency clarified", out.Changes[0].Reason)
	assert.Equal(t, SlotBudget, out.NextSlot, "resolved budget still needs its confirmation")
}

func TestBareAmountRevisionKeepsLockedCurrency(t *testing.T) {
	m := newTestMachine()
	b := New("t1")
	b.Budget = lockedConstraint(Budget{AmountCents: 200000, Currency: "GBP"})
	b.Status = StatusPlanned

	cand := budgetCand(250000, CurrencyPending)
	out := m.Apply(b, Extraction{Findings: []Finding{{
		Slot: SlotBudget, Variant: VariantPendingUnit, Candidates: []Candidate{cand},
	}}})
	assert.Empty(t, out.Changes)
	require.NotNil(t, b.Pending)
	assert.Equal(t, PendingRelock, b.Pending.Kind)
	assert.Equal(t, "GBP", b.Pending.Proposed.Budget.Currency, "revision inherits the settled currency")
	assert.Equal(t, "GBP 2000.00", b.Budget.Value.Render())

	out = m.Apply(b, Extraction{Affirmed: true})
	require.Len(t, out.Changes, 1)
	assert.Equal(t, OpRelock, out.Changes[0].Op)
	assert.Equal(t, int64(250000), b.Budget.Value.AmountCents)
	assert.Equal(t, "GBP", b.Budget.Value.Currency)
	assert.True(t, b.Budget.Ready())
	assert.Equal(t, StatusReadyToPlan, b.Status)
	require.Len(t, out.Evictions, 1)
	assert.Equal(t, "GBP 2000.00", out.Evictions[0].OldValue)
}

func TestRelockNeverLocksPendingCurrency(t *testing.T) {
	m := newTestMachine()
	b := New("t1")
	b.Budget = lockedConstraint(Budget{AmountCents: 200000, Currency: "GBP"})
	cand := budgetCand(250000, CurrencyPending)
	b.Pending = &Pending{Kind: PendingRelock, Slot: SlotBudget, Proposed: &cand, AskedAt: testClock()}

	out := m.Apply(b, Extraction{Affirmed: true})
	assert.Empty(t, out.Changes)
	assert.Equal(t, "GBP 2000.00", b.Budget.Value.Render(), "old value stays until the unit resolves")
	require.NotNil(t, b.Pending)
	assert.Equal(t, PendingCurrency, b.Pending.Kind)
	require.Len(t, out.Conditions, 1)
	assert.Equal(t, condition.PendingClarification, out.Conditions[0].Code)
	assert.Contains(t, out.Prompt, "which currency")

	out = m.Apply(b, Extraction{CurrencyOnly: "EUR"})
	assert.Nil(t, b.Pending)
	assert.Equal(t, Budget{AmountCents: 250000, Currency: "EUR"}, b.Budget.Value)
	assert.True(t, b.Budget.Ready())
	require.Len(t, out.Changes, 1)
	assert.Equal(t, OpRelock, out.Changes[0].Op)
	require.Len(t, out.Evictions, 1)
	assert.Equal(t, "GBP 2000.00", out.Evictions[0].OldValue)
}

func TestAmbiguitySetsPendingThenResolves(t *testing.T) {
	m := newTestMachine()
	b := New("t1")
	paris := []Candidate{destCand("Paris", "France", 95), destCand("Paris", "United States", 95)}
	options := []string{"Paris, France", "Paris, United States"}

	out := m.Apply(b, Extraction{Findings: []Finding{{
		Slot: SlotDestination, Variant: VariantAmbiguous, Candidates: paris, Options: options,
	}}})
	require.NotNil(t, b.Pending)
	assert.Equal(t, PendingAmbiguity, b.Pending.Kind)
	assert.False(t, b.Destination.Filled)
	require.Len(t, out.Conditions, 1)
	assert.Equal(t, condition.ExtractionAmbiguous, out.Conditions[0].Code)
	assert.Contains(t, out.Prompt, "Which one did you mean")

	out = m.Apply(b, single(paris[0]))
	assert.Nil(t, b.Pending)
	assert.True(t, b.Destination.Filled)
	assert.Equal(t, "France", b.Destination.Value.Country)
	require.Len(t, out.Changes, 1)
	assert.Equal(t, OpFill, out.Changes[0].Op)
}

func TestReadyDefaultsStyle(t *testing.T) {
	m := newTestMachine()
	b := New("t1")
	b.Destination = lockedConstraint(Destination{Type: DestCity, Primary: "Rome", Country: "Italy"})
	b.Dates = lockedConstraint(DateRange{Nights: 7})
	b.Travelers = lockedConstraint(Travelers{Adults: 2, GroupType: "couple"})

	m.Apply(b, single(budgetCand(200000, "EUR")))
	out := m.Apply(b, Extraction{Affirmed: true})

	assert.True(t, out.Ready)
	assert.Equal(t, StatusReadyToPlan, b.Status)
	assert.True(t, b.Budget.Ready())
	assert.True(t, b.Style.Ready())
	assert.Equal(t, "mid-range", b.Style.Value)
	assert.Equal(t, SourceDefault, b.Style.Source)

	var defaulted bool
	for _, ch := range out.Changes {
		if ch.Slot == SlotStyle && ch.Op == OpDefault {
			defaulted = true
		}
	}
	assert.True(t, defaulted, "missing style must be defaulted, not asked about")
}

func TestStatedStyleSurvivesReadiness(t *testing.T) {
	m := newTestMachine()
	b := New("t1")
	b.Destination = lockedConstraint(Destination{Type: DestCity, Primary: "Rome", Country: "Italy"})
	b.Dates = lockedConstraint(DateRange{Nights: 7})
	b.Travelers = lockedConstraint(Travelers{Adults: 2, GroupType: "couple"})

	style := "luxury"
	m.Apply(b, single(Candidate{Slot: SlotStyle, Style: &style, Confidence: 85, Source: SourceExplicit}))
	m.Apply(b, single(budgetCand(500000, "EUR")))

	// budget confirms first, then the stated style gets its own confirmation
	out := m.Apply(b, Extraction{Affirmed: true})
	assert.Equal(t, SlotStyle, out.NextSlot)
	out = m.Apply(b, Extraction{Affirmed: true})

	assert.True(t, out.Ready)
	assert.Equal(t, "luxury", b.Style.Value)
	assert.True(t, b.Style.Ready())
}

func TestOriginAndPreferencesAutoLock(t *testing.T) {
	m := newTestMachine()
	b := New("t1")

	origin := "London"
	out := m.Apply(b, single(Candidate{Slot: SlotOrigin, Origin: &origin, Confidence: 95, Source: SourceExplicit}))
	require.Len(t, out.Changes, 1)
	assert.True(t, out.Changes[0].Locked)
	assert.True(t, b.Origin.Ready())

	out = m.Apply(b, single(Candidate{
		Slot:        SlotPreferences,
		Preferences: &Preferences{Interests: []string{"food"}},
		Confidence:  80, Source: SourceExplicit,
	}))
	require.Len(t, out.Changes, 1)
	assert.True(t, out.Changes[0].Locked)
	assert.True(t, b.Preferences.Ready())
}

func TestArchivedBriefRejectsTurns(t *testing.T) {
	m := newTestMachine()
	b := New("t1")
	b.Status = StatusArchived

	out := m.Apply(b, single(destCand("Rome", "Italy", 95)))
	assert.Empty(t, out.Changes)
	assert.False(t, b.Destination.Filled)
	assert.Contains(t, out.Prompt, "archived")
}

func TestEmptyExtractionReasksNextQuestion(t *testing.T) {
	m := newTestMachine()
	b := New("t1")

	out := m.Apply(b, Extraction{})
	assert.Equal(t, SlotDestination, out.NextSlot)
	assert.Contains(t, out.Prompt, "didn't catch anything usable")
}

func TestMergePreferences(t *testing.T) {
	base := Preferences{Interests: []string{"food"}, Dietary: []string{"vegan"}}
	merged := mergePreferences(base, Preferences{
		Interests:     []string{"food", "history"},
		Accommodation: "hotel",
	})
	assert.Equal(t, []string{"food", "history"}, merged.Interests)
	assert.Equal(t, []string{"vegan"}, merged.Dietary)
	assert.Equal(t, "hotel", merged.Accommodation)
}
