// Package brief owns the trip brief: one constraint record per trip slot,
// and the state machine that is the only writer of slot transitions. Every
// other component reads a snapshot and hands back proposed changes.
package brief

import (
	"fmt"
	"strings"
	"time"
)

type SlotName string

const (
	SlotDestination SlotName = "destination"
	SlotOrigin      SlotName = "origin"
	SlotDates       SlotName = "date_range"
	SlotTravelers   SlotName = "travelers"
	SlotBudget      SlotName = "budget"
	SlotStyle       SlotName = "style"
	SlotPreferences SlotName = "preferences"
)

// questionOrder is the fixed priority the machine walks when picking the
// next question. Origin and preferences are optional and never asked for.
var questionOrder = []SlotName{SlotDestination, SlotDates, SlotTravelers, SlotBudget, SlotStyle}

// requiredSlots must all be confirmed before a trip is ready to plan.
var requiredSlots = []SlotName{SlotDestination, SlotDates, SlotTravelers, SlotBudget}

type Kind string

const (
	KindHard Kind = "hard"
	KindSoft Kind = "soft"
)

type Source string

const (
	SourceExplicit Source = "explicit"
	SourceInferred Source = "inferred"
	SourceDefault  Source = "default"
)

type Status string

const (
	StatusCollecting  Status = "collecting"
	StatusReadyToPlan Status = "ready_to_plan"
	StatusPlanned     Status = "planned"
	StatusArchived    Status = "archived"
)

type DestinationType string

const (
	DestCountry   DestinationType = "country"
	DestCity      DestinationType = "city"
	DestMultiCity DestinationType = "multi_city"
)

type Destination struct {
	Type           DestinationType `json:"type"`
	Primary        string          `json:"primary"`
	Country        string          `json:"country,omitempty"`
	DetectedCities []string        `json:"detectedCities,omitempty"`
}

func (d Destination) Render() string {
	switch d.Type {
	case DestMultiCity:
		return strings.Join(d.DetectedCities, " + ")
	case DestCountry:
		return d.Primary
	default:
		if d.Country != "" {
			return d.Primary + ", " + d.Country
		}
		return d.Primary
	}
}

type DateRange struct {
	Start  *time.Time `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`
	Nights int        `json:"nights"`
}

// Normalized keeps start, end and nights mutually consistent: explicit
// start+end wins, then start+nights derives the end date.
func (d DateRange) Normalized() DateRange {
	if d.Start != nil && d.End != nil {
		d.Nights = int(d.End.Sub(*d.Start).Hours() / 24)
	} else if d.Start != nil && d.Nights > 0 {
		end := d.Start.Add(time.Duration(d.Nights) * 24 * time.Hour)
		d.End = &end
	}
	return d
}

func (d DateRange) Render() string {
	if d.Start != nil && d.End != nil {
		return fmt.Sprintf("%s → %s (%d nights)",
			d.Start.Format("2006-01-02"), d.End.Format("2006-01-02"), d.Nights)
	}
	return fmt.Sprintf("%d nights", d.Nights)
}

type Travelers struct {
	Adults    int    `json:"adults"`
	GroupType string `json:"groupType,omitempty"`
}

func (t Travelers) Render() string {
	if t.GroupType != "" {
		return fmt.Sprintf("%d adults (%s)", t.Adults, t.GroupType)
	}
	return fmt.Sprintf("%d adults", t.Adults)
}

// CurrencyPending marks a budget amount that arrived without a unit.
// The machine must ask a follow-up before the slot can be confirmed.
const CurrencyPending = "PENDING"

type Budget struct {
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

func (b Budget) Render() string {
	return fmt.Sprintf("%s %.2f", b.Currency, float64(b.AmountCents)/100)
}

type Preferences struct {
	Accommodation string   `json:"accommodation,omitempty"`
	Dietary       []string `json:"dietary,omitempty"`
	Interests     []string `json:"interests,omitempty"`
}

func (p Preferences) Render() string {
	parts := make([]string, 0, 3)
	if p.Accommodation != "" {
		parts = append(parts, "stay:"+p.Accommodation)
	}
	if len(p.Dietary) > 0 {
		parts = append(parts, "diet:"+strings.Join(p.Dietary, "/"))
	}
	if len(p.Interests) > 0 {
		parts = append(parts, "likes:"+strings.Join(p.Interests, "/"))
	}
	return strings.Join(parts, " ")
}

// Candidate is one extracted fact proposed for a slot. Exactly one of the
// typed value fields is set, matching Slot.
type Candidate struct {
	Slot        SlotName     `json:"slot"`
	Destination *Destination `json:"destination,omitempty"`
	Origin      *string      `json:"origin,omitempty"`
	Dates       *DateRange   `json:"dates,omitempty"`
	Travelers   *Travelers   `json:"travelers,omitempty"`
	Budget      *Budget      `json:"budget,omitempty"`
	Style       *string      `json:"style,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
	Confidence  int          `json:"confidence"`
	Source      Source       `json:"source"`
}

func (c Candidate) Render() string {
	switch c.Slot {
	case SlotDestination:
		if c.Destination != nil {
			return c.Destination.Render()
		}
	case SlotOrigin:
		if c.Origin != nil {
			return *c.Origin
		}
	case SlotDates:
		if c.Dates != nil {
			return c.Dates.Render()
		}
	case SlotTravelers:
		if c.Travelers != nil {
			return c.Travelers.Render()
		}
	case SlotBudget:
		if c.Budget != nil {
			return c.Budget.Render()
		}
	case SlotStyle:
		if c.Style != nil {
			return *c.Style
		}
	case SlotPreferences:
		if c.Preferences != nil {
			return c.Preferences.Render()
		}
	}
	return ""
}

// Variant is the tagged outcome of extraction for one slot, so machine
// handling is exhaustive per case instead of branching over raw text.
type Variant string

const (
	VariantNoCandidate Variant = "no_candidate"
	VariantSingle      Variant = "single_candidate"
	VariantAmbiguous   Variant = "ambiguous"
	VariantPendingUnit Variant = "pending_unit"
)

type Finding struct {
	Slot       SlotName    `json:"slot"`
	Variant    Variant     `json:"variant"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Options    []string    `json:"options,omitempty"`
}

// Extraction is everything one utterance yielded, plus the reply
// classification the confirmation flow runs on.
type Extraction struct {
	Findings []Finding `json:"findings,omitempty"`
	Affirmed bool      `json:"affirmed,omitempty"`
	Denied   bool      `json:"denied,omitempty"`
	// CurrencyOnly is set when the utterance is just a currency unit,
	// resolving an earlier pending_clarification.
	CurrencyOnly string `json:"currencyOnly,omitempty"`
}

type PendingKind string

const (
	PendingCurrency  PendingKind = "currency"
	PendingAmbiguity PendingKind = "ambiguity"
	PendingRelock    PendingKind = "relock"
)

// Pending is an open clarification. At most one exists per trip; it is
// persisted with the brief so it survives turns.
type Pending struct {
	Kind       PendingKind `json:"kind"`
	Slot       SlotName    `json:"slot"`
	Proposed   *Candidate  `json:"proposed,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Options    []string    `json:"options,omitempty"`
	AskedAt    time.Time   `json:"askedAt"`
}
