package brief

import "time"

// TripBrief is the living document for one trip. It is exclusively owned by
// its trip and mutated only through the Machine. Version increments on every
// committed slot change; planning passes use it for staleness checks.
type TripBrief struct {
	TripID  string `json:"tripId"`
	Status  Status `json:"status"`
	Version int64  `json:"version"`

	Destination Constraint[Destination] `json:"destination"`
	Origin      Constraint[string]      `json:"origin"`
	Dates       Constraint[DateRange]   `json:"dateRange"`
	Travelers   Constraint[Travelers]   `json:"travelers"`
	Budget      Constraint[Budget]      `json:"budget"`
	Style       Constraint[string]      `json:"style"`
	Preferences Constraint[Preferences] `json:"preferences"`

	Pending *Pending `json:"pending,omitempty"`
}

func New(tripID string) *TripBrief {
	return &TripBrief{TripID: tripID, Status: StatusCollecting}
}

func (b *TripBrief) SlotFilled(name SlotName) bool {
	switch name {
	case SlotDestination:
		return b.Destination.Filled
	case SlotOrigin:
		return b.Origin.Filled
	case SlotDates:
		return b.Dates.Filled
	case SlotTravelers:
		return b.Travelers.Filled
	case SlotBudget:
		return b.Budget.Filled
	case SlotStyle:
		return b.Style.Filled
	case SlotPreferences:
		return b.Preferences.Filled
	}
	return false
}

func (b *TripBrief) SlotReady(name SlotName) bool {
	switch name {
	case SlotDestination:
		return b.Destination.Ready()
	case SlotOrigin:
		return b.Origin.Ready()
	case SlotDates:
		return b.Dates.Ready()
	case SlotTravelers:
		return b.Travelers.Ready()
	case SlotBudget:
		return b.Budget.Ready()
	case SlotStyle:
		return b.Style.Ready()
	case SlotPreferences:
		return b.Preferences.Ready()
	}
	return false
}

// RenderSlot renders the current value for prompts, history and eviction
// keys. Empty slots render "".
func (b *TripBrief) RenderSlot(name SlotName) string {
	if !b.SlotFilled(name) {
		return ""
	}
	switch name {
	case SlotDestination:
		return b.Destination.Value.Render()
	case SlotOrigin:
		return b.Origin.Value
	case SlotDates:
		return b.Dates.Value.Render()
	case SlotTravelers:
		return b.Travelers.Value.Render()
	case SlotBudget:
		return b.Budget.Value.Render()
	case SlotStyle:
		return b.Style.Value
	case SlotPreferences:
		return b.Preferences.Value.Render()
	}
	return ""
}

// AwaitingConfirmation returns the highest-priority slot sitting in
// filled(unconfirmed), the one the machine asked the user to affirm.
func (b *TripBrief) AwaitingConfirmation() (SlotName, bool) {
	for _, name := range questionOrder {
		if b.SlotFilled(name) && !b.SlotReady(name) {
			// a budget with a pending unit cannot be confirmed yet
			if name == SlotBudget && b.Budget.Value.Currency == CurrencyPending {
				continue
			}
			return name, true
		}
	}
	return "", false
}

// NextQuestion walks the fixed priority order and returns the first slot
// that is not yet confirmed.
func (b *TripBrief) NextQuestion() (SlotName, bool) {
	for _, name := range questionOrder {
		if !b.SlotReady(name) {
			return name, true
		}
	}
	return "", false
}

// RequiredReady reports whether every required slot is confirmed.
func (b *TripBrief) RequiredReady() bool {
	for _, name := range requiredSlots {
		if !b.SlotReady(name) {
			return false
		}
	}
	return true
}

// MissingSlots lists the required slots that are not yet confirmed.
func (b *TripBrief) MissingSlots() []SlotName {
	var out []SlotName
	for _, name := range requiredSlots {
		if !b.SlotReady(name) {
			out = append(out, name)
		}
	}
	return out
}

func (b *TripBrief) slotLockedAt(name SlotName) *time.Time {
	switch name {
	case SlotDestination:
		return b.Destination.LockedAt
	case SlotOrigin:
		return b.Origin.LockedAt
	case SlotDates:
		return b.Dates.LockedAt
	case SlotTravelers:
		return b.Travelers.LockedAt
	case SlotBudget:
		return b.Budget.LockedAt
	case SlotStyle:
		return b.Style.LockedAt
	case SlotPreferences:
		return b.Preferences.LockedAt
	}
	return nil
}
