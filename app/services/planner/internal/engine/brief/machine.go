package brief

import (
	"fmt"
	"strings"
	"time"

	"tripsmith/app/services/planner/internal/engine/condition"

	"github.com/samber/lo"
)

type ChangeOp string

const (
	OpFill    ChangeOp = "fill"
	OpConfirm ChangeOp = "confirm"
	OpDiscard ChangeOp = "discard"
	OpRelock  ChangeOp = "relock"
	OpDefault ChangeOp = "default"
)

// SlotChange is one committed transition, handed to the persistence layer.
type SlotChange struct {
	Slot     SlotName `json:"slot"`
	Op       ChangeOp `json:"op"`
	Rendered string   `json:"rendered"`
	Filled   bool     `json:"filled"`
	Locked   bool     `json:"locked"`
	Reason   string   `json:"reason,omitempty"`
}

// Eviction names a locked slot whose value changed, so downstream cached
// offers built from OldValue can be dropped.
type Eviction struct {
	Slot     SlotName `json:"slot"`
	OldValue string   `json:"oldValue"`
}

// Outcome is everything one turn produced. The machine mutates the brief
// in memory; the caller persists Changes and applies Evictions.
type Outcome struct {
	Changes    []SlotChange
	Evictions  []Eviction
	Conditions []condition.Condition
	Prompt     string
	NextSlot   SlotName
	Ready      bool
}

// Machine drives the normalize→confirm→lock lifecycle. It is the sole
// owner of slot transitions.
type Machine struct {
	minConfidence int
	now           func() time.Time
}

func NewMachine(minConfidence int) *Machine {
	return &Machine{minConfidence: minConfidence, now: time.Now}
}

// WithClock overrides the machine clock.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Apply advances the brief by one utterance worth of extraction.
func (m *Machine) Apply(b *TripBrief, ex Extraction) Outcome {
	var out Outcome
	if b.Status == StatusArchived {
		out.Prompt = "This trip has been archived; start a new one to keep planning."
		return out
	}
	now := m.now()

	m.resolvePending(b, &ex, &out, now)
	m.resolveConfirmation(b, ex, &out, now)
	m.applyFindings(b, ex, &out, now)
	m.choosePrompt(b, ex, &out, now)
	return out
}

// resolvePending handles the open clarification, if any, before new facts
// are applied.
func (m *Machine) resolvePending(b *TripBrief, ex *Extraction, out *Outcome, now time.Time) {
	p := b.Pending
	if p == nil {
		return
	}
	switch p.Kind {
	case PendingRelock:
		switch {
		case ex.Affirmed:
			m.commitRelock(b, out, now)
			// the affirmation is spent on the relock
			ex.Affirmed = false
		case ex.Denied:
			kept := b.RenderSlot(p.Slot)
			b.Pending = nil
			out.Changes = append(out.Changes, SlotChange{
				Slot: p.Slot, Op: OpDiscard, Rendered: kept,
				Filled: true, Locked: true,
				Reason: fmt.Sprintf("kept %s, rejected %s", kept, p.Proposed.Render()),
			})
			out.Prompt = fmt.Sprintf("Understood, keeping %s as %s.", p.Slot, kept)
			ex.Denied = false
		}
	case PendingCurrency:
		if ex.CurrencyOnly != "" {
			amount := b.Budget.Value.AmountCents
			if p.Proposed != nil && p.Proposed.Budget != nil {
				amount = p.Proposed.Budget.AmountCents
			}
			resolved := Budget{AmountCents: amount, Currency: ex.CurrencyOnly}
			old := b.RenderSlot(SlotBudget)
			if b.Budget.Locked() {
				// the clarified amount replaces a locked budget: full relock
				b.Budget.relock(resolved, old, 90, SourceExplicit, now, "currency clarified")
				b.Pending = nil
				b.Version++
				if b.Status == StatusPlanned {
					b.Status = StatusReadyToPlan
				}
				out.Changes = append(out.Changes, SlotChange{
					Slot: SlotBudget, Op: OpRelock, Rendered: resolved.Render(), Filled: true, Locked: true,
					Reason: "currency clarified",
				})
				out.Evictions = append(out.Evictions, Eviction{Slot: SlotBudget, OldValue: old})
				out.Prompt = fmt.Sprintf("Done — budget is now %s. I'll refresh anything that depended on the old value.", resolved.Render())
				return
			}
			if err := b.Budget.set(resolved, old, 90, SourceExplicit, KindHard, now, "currency clarified"); err == nil {
				b.Pending = nil
				b.Version++
				out.Changes = append(out.Changes, SlotChange{
					Slot: SlotBudget, Op: OpFill, Rendered: resolved.Render(), Filled: true,
					Reason: "currency clarified",
				})
			}
		} else if f, ok := findingFor(*ex, SlotBudget); ok && f.Variant == VariantSingle &&
			f.Candidates[0].Budget != nil && f.Candidates[0].Budget.Currency != CurrencyPending {
			// a complete budget restatement supersedes the clarification
			b.Pending = nil
		}
	case PendingAmbiguity:
		if f, ok := findingFor(*ex, p.Slot); ok && f.Variant == VariantSingle {
			// the extractor resolved the ambiguity against the options
			b.Pending = nil
		}
	}
}

// resolveConfirmation locks or discards the slot currently awaiting a
// yes/no, when the reply carries one.
func (m *Machine) resolveConfirmation(b *TripBrief, ex Extraction, out *Outcome, now time.Time) {
	if b.Pending != nil || (!ex.Affirmed && !ex.Denied) {
		return
	}
	slot, ok := b.AwaitingConfirmation()
	if !ok {
		return
	}
	if ex.Affirmed {
		m.lockSlot(b, slot, now)
		b.Version++
		out.Changes = append(out.Changes, SlotChange{
			Slot: slot, Op: OpConfirm, Rendered: b.RenderSlot(slot), Filled: true, Locked: true,
		})
		return
	}
	old := b.RenderSlot(slot)
	m.clearSlot(b, slot, old, now, "rejected at confirmation")
	b.Version++
	out.Changes = append(out.Changes, SlotChange{
		Slot: slot, Op: OpDiscard, Rendered: "", Reason: "rejected " + old,
	})
}

func (m *Machine) applyFindings(b *TripBrief, ex Extraction, out *Outcome, now time.Time) {
	findings := sortFindings(ex.Findings)
	for _, f := range findings {
		switch f.Variant {
		case VariantAmbiguous:
			b.Pending = &Pending{
				Kind: PendingAmbiguity, Slot: f.Slot,
				Candidates: f.Candidates, Options: f.Options, AskedAt: now,
			}
			out.Conditions = append(out.Conditions,
				condition.New(condition.ExtractionAmbiguous,
					fmt.Sprintf("more than one match for %s", f.Slot)).
					WithMeta("options", f.Options))
			out.Prompt = fmt.Sprintf("Which one did you mean: %s?", strings.Join(f.Options, " or "))
			out.NextSlot = f.Slot
		case VariantPendingUnit:
			cand := f.Candidates[0]
			old := b.RenderSlot(SlotBudget)
			if b.Budget.Locked() {
				// a bare amount revising a settled budget keeps its currency
				c := cand
				c.Budget = &Budget{AmountCents: cand.Budget.AmountCents, Currency: b.Budget.Value.Currency}
				m.proposeRelock(b, c, out, now)
				continue
			}
			if err := b.Budget.set(*cand.Budget, old, cand.Confidence, cand.Source, KindHard, now, "revised before confirmation"); err != nil {
				continue
			}
			b.Version++
			b.Pending = &Pending{Kind: PendingCurrency, Slot: SlotBudget, Proposed: &cand, AskedAt: now}
			out.Changes = append(out.Changes, SlotChange{
				Slot: SlotBudget, Op: OpFill, Rendered: cand.Render(), Filled: true,
				Reason: "amount without currency",
			})
			out.Conditions = append(out.Conditions,
				condition.New(condition.PendingClarification, "budget amount arrived without a currency").
					WithSuggestion("ask which currency the amount is in"))
			out.Prompt = fmt.Sprintf("Got %d as your budget — which currency is that in?", cand.Budget.AmountCents/100)
			out.NextSlot = SlotBudget
		case VariantSingle:
			cand := f.Candidates[0]
			if cand.Confidence < m.minConfidence {
				continue
			}
			m.applyCandidate(b, cand, out, now)
		}
	}
}

// applyCandidate routes one accepted candidate through the per-state rules:
// empty fills, filled revises, locked re-enters confirmation.
func (m *Machine) applyCandidate(b *TripBrief, cand Candidate, out *Outcome, now time.Time) {
	current := b.RenderSlot(cand.Slot)
	if current == cand.Render() && current != "" {
		// idempotent: same value again is a no-op, locked or not
		return
	}
	if lockedAt := b.slotLockedAt(cand.Slot); lockedAt != nil {
		m.proposeRelock(b, cand, out, now)
		return
	}
	if err := m.setSlot(b, cand, current, now); err != nil {
		return
	}
	b.Version++
	autoLock := cand.Slot == SlotOrigin || cand.Slot == SlotPreferences
	if autoLock {
		m.lockSlot(b, cand.Slot, now)
	}
	out.Changes = append(out.Changes, SlotChange{
		Slot: cand.Slot, Op: OpFill, Rendered: b.RenderSlot(cand.Slot),
		Filled: true, Locked: autoLock,
	})
}

// proposeRelock parks a candidate against a locked slot. Nothing is
// overwritten until the user explicitly confirms.
func (m *Machine) proposeRelock(b *TripBrief, cand Candidate, out *Outcome, now time.Time) {
	c := cand
	b.Pending = &Pending{Kind: PendingRelock, Slot: cand.Slot, Proposed: &c, AskedAt: now}
	out.Prompt = fmt.Sprintf("You already settled %s as %s. Switch to %s?",
		cand.Slot, b.RenderSlot(cand.Slot), cand.Render())
	out.NextSlot = cand.Slot
}

func (m *Machine) commitRelock(b *TripBrief, out *Outcome, now time.Time) {
	p := b.Pending
	if p == nil || p.Proposed == nil {
		return
	}
	cand := *p.Proposed
	old := b.RenderSlot(p.Slot)
	switch p.Slot {
	case SlotDestination:
		b.Destination.relock(*cand.Destination, old, cand.Confidence, cand.Source, now, "relocked after confirmation")
	case SlotOrigin:
		b.Origin.relock(*cand.Origin, old, cand.Confidence, cand.Source, now, "relocked after confirmation")
	case SlotDates:
		b.Dates.relock(cand.Dates.Normalized(), old, cand.Confidence, cand.Source, now, "relocked after confirmation")
	case SlotTravelers:
		b.Travelers.relock(*cand.Travelers, old, cand.Confidence, cand.Source, now, "relocked after confirmation")
	case SlotBudget:
		if cand.Budget.Currency == CurrencyPending {
			// never lock an amount without a unit: reopen the clarification
			b.Pending = &Pending{Kind: PendingCurrency, Slot: SlotBudget, Proposed: &cand, AskedAt: now}
			out.Conditions = append(out.Conditions,
				condition.New(condition.PendingClarification, "budget amount arrived without a currency").
					WithSuggestion("ask which currency the amount is in"))
			out.Prompt = fmt.Sprintf("Before I switch the budget to %d — which currency is that in?", cand.Budget.AmountCents/100)
			out.NextSlot = SlotBudget
			return
		}
		b.Budget.relock(*cand.Budget, old, cand.Confidence, cand.Source, now, "relocked after confirmation")
	case SlotStyle:
		b.Style.relock(*cand.Style, old, cand.Confidence, cand.Source, now, "relocked after confirmation")
	case SlotPreferences:
		b.Preferences.relock(*cand.Preferences, old, cand.Confidence, cand.Source, now, "relocked after confirmation")
	}
	b.Pending = nil
	b.Version++
	if b.Status == StatusPlanned {
		// the plan was built against the old value
		b.Status = StatusReadyToPlan
	}
	out.Changes = append(out.Changes, SlotChange{
		Slot: p.Slot, Op: OpRelock, Rendered: cand.Render(), Filled: true, Locked: true,
		Reason: "replaced " + old,
	})
	out.Evictions = append(out.Evictions, Eviction{Slot: p.Slot, OldValue: old})
	out.Prompt = fmt.Sprintf("Done — %s is now %s. I'll refresh anything that depended on the old value.",
		p.Slot, cand.Render())
}

func (m *Machine) choosePrompt(b *TripBrief, ex Extraction, out *Outcome, now time.Time) {
	if b.Pending != nil {
		out.NextSlot = b.Pending.Slot
		if out.Prompt == "" {
			out.Prompt = pendingReminder(b.Pending)
		}
		return
	}
	if slot, ok := b.AwaitingConfirmation(); ok {
		out.NextSlot = slot
		if out.Prompt == "" {
			out.Prompt = fmt.Sprintf("I have %s down as %s — shall I lock that in?", slot, b.RenderSlot(slot))
		}
		return
	}
	if b.RequiredReady() {
		if !b.Style.Ready() {
			m.defaultStyle(b, out, now)
		}
		if b.Status == StatusCollecting {
			b.Status = StatusReadyToPlan
		}
		out.Ready = true
		out.NextSlot = ""
		if out.Prompt == "" {
			out.Prompt = "Everything I need is locked in — let me put a plan together."
		}
		return
	}
	slot, _ := b.NextQuestion()
	out.NextSlot = slot
	if out.Prompt == "" {
		if len(ex.Findings) == 0 && !ex.Affirmed && !ex.Denied {
			out.Prompt = "I didn't catch anything usable there. " + questionFor(slot)
		} else {
			out.Prompt = questionFor(slot)
		}
	}
}

// defaultStyle fills mid-range when every required slot is confirmed and
// the traveler never stated a style.
func (m *Machine) defaultStyle(b *TripBrief, out *Outcome, now time.Time) {
	if b.Style.Filled {
		// stated but unconfirmed: lock it rather than override
		m.lockSlot(b, SlotStyle, now)
		b.Version++
		out.Changes = append(out.Changes, SlotChange{
			Slot: SlotStyle, Op: OpConfirm, Rendered: b.RenderSlot(SlotStyle), Filled: true, Locked: true,
		})
		return
	}
	_ = b.Style.set("mid-range", "", 50, SourceDefault, KindSoft, now, "")
	m.lockSlot(b, SlotStyle, now)
	b.Version++
	out.Changes = append(out.Changes, SlotChange{
		Slot: SlotStyle, Op: OpDefault, Rendered: "mid-range", Filled: true, Locked: true,
		Reason: "defaulted to mid-range",
	})
}

func (m *Machine) setSlot(b *TripBrief, cand Candidate, oldRendered string, now time.Time) error {
	const reason = "revised before confirmation"
	switch cand.Slot {
	case SlotDestination:
		return b.Destination.set(*cand.Destination, oldRendered, cand.Confidence, cand.Source, KindHard, now, reason)
	case SlotOrigin:
		return b.Origin.set(*cand.Origin, oldRendered, cand.Confidence, cand.Source, KindSoft, now, reason)
	case SlotDates:
		return b.Dates.set(cand.Dates.Normalized(), oldRendered, cand.Confidence, cand.Source, KindHard, now, reason)
	case SlotTravelers:
		return b.Travelers.set(*cand.Travelers, oldRendered, cand.Confidence, cand.Source, KindHard, now, reason)
	case SlotBudget:
		return b.Budget.set(*cand.Budget, oldRendered, cand.Confidence, cand.Source, KindHard, now, reason)
	case SlotStyle:
		return b.Style.set(*cand.Style, oldRendered, cand.Confidence, cand.Source, KindSoft, now, reason)
	case SlotPreferences:
		merged := mergePreferences(b.Preferences.Value, *cand.Preferences)
		return b.Preferences.set(merged, oldRendered, cand.Confidence, cand.Source, KindSoft, now, reason)
	}
	return fmt.Errorf("unknown slot %q", cand.Slot)
}

func (m *Machine) lockSlot(b *TripBrief, name SlotName, now time.Time) {
	switch name {
	case SlotDestination:
		b.Destination.lock(now)
	case SlotOrigin:
		b.Origin.lock(now)
	case SlotDates:
		b.Dates.lock(now)
	case SlotTravelers:
		b.Travelers.lock(now)
	case SlotBudget:
		b.Budget.lock(now)
	case SlotStyle:
		b.Style.lock(now)
	case SlotPreferences:
		b.Preferences.lock(now)
	}
}

func (m *Machine) clearSlot(b *TripBrief, name SlotName, oldRendered string, now time.Time, reason string) {
	switch name {
	case SlotDestination:
		b.Destination.clear(oldRendered, now, reason)
	case SlotOrigin:
		b.Origin.clear(oldRendered, now, reason)
	case SlotDates:
		b.Dates.clear(oldRendered, now, reason)
	case SlotTravelers:
		b.Travelers.clear(oldRendered, now, reason)
	case SlotBudget:
		b.Budget.clear(oldRendered, now, reason)
	case SlotStyle:
		b.Style.clear(oldRendered, now, reason)
	case SlotPreferences:
		b.Preferences.clear(oldRendered, now, reason)
	}
}

// mergePreferences accumulates tags across turns instead of replacing them.
func mergePreferences(base, incoming Preferences) Preferences {
	out := base
	if incoming.Accommodation != "" {
		out.Accommodation = incoming.Accommodation
	}
	out.Dietary = lo.Uniq(append(out.Dietary, incoming.Dietary...))
	out.Interests = lo.Uniq(append(out.Interests, incoming.Interests...))
	return out
}

func sortFindings(fs []Finding) []Finding {
	rank := func(s SlotName) int {
		for i, n := range questionOrder {
			if n == s {
				return i
			}
		}
		return len(questionOrder)
	}
	sorted := make([]Finding, len(fs))
	copy(sorted, fs)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if rank(sorted[j].Slot) < rank(sorted[i].Slot) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	return sorted
}

func findingFor(ex Extraction, slot SlotName) (Finding, bool) {
	for _, f := range ex.Findings {
		if f.Slot == slot {
			return f, true
		}
	}
	return Finding{}, false
}

func pendingReminder(p *Pending) string {
	switch p.Kind {
	case PendingCurrency:
		return "Still need the currency for that budget — pounds, euros, dollars?"
	case PendingAmbiguity:
		return fmt.Sprintf("Still not sure which you meant: %s?", strings.Join(p.Options, " or "))
	case PendingRelock:
		return fmt.Sprintf("Do you want to switch %s to %s? A yes or no settles it.", p.Slot, p.Proposed.Render())
	}
	return ""
}

func questionFor(slot SlotName) string {
	switch slot {
	case SlotDestination:
		return "Where would you like to go?"
	case SlotDates:
		return "When are you traveling, and for how long?"
	case SlotTravelers:
		return "Who's coming along — how many travelers?"
	case SlotBudget:
		return "What's your total budget for the trip?"
	case SlotStyle:
		return "Any preference on style — budget, mid-range or luxury?"
	}
	return "Tell me more about your trip."
}
