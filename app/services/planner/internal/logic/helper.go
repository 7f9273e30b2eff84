package logic

import (
	"time"

	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/types"
)

func toBriefView(b *brief.TripBrief) *types.BriefView {
	view := &types.BriefView{
		TripId:  b.TripID,
		Status:  string(b.Status),
		Version: b.Version,
		Slots:   make(map[string]types.SlotView, 7),
	}
	addSlot(view, brief.SlotDestination, b.RenderSlot(brief.SlotDestination),
		b.Destination.Filled, b.Destination.Locked(), b.Destination.Confidence, b.Destination.Source, b.Destination.History)
	addSlot(view, brief.SlotOrigin, b.Origin.Value,
		b.Origin.Filled, b.Origin.Locked(), b.Origin.Confidence, b.Origin.Source, b.Origin.History)
	addSlot(view, brief.SlotDates, b.RenderSlot(brief.SlotDates),
		b.Dates.Filled, b.Dates.Locked(), b.Dates.Confidence, b.Dates.Source, b.Dates.History)
	addSlot(view, brief.SlotTravelers, b.RenderSlot(brief.SlotTravelers),
		b.Travelers.Filled, b.Travelers.Locked(), b.Travelers.Confidence, b.Travelers.Source, b.Travelers.History)
	addSlot(view, brief.SlotBudget, b.RenderSlot(brief.SlotBudget),
		b.Budget.Filled, b.Budget.Locked(), b.Budget.Confidence, b.Budget.Source, b.Budget.History)
	addSlot(view, brief.SlotStyle, b.Style.Value,
		b.Style.Filled, b.Style.Locked(), b.Style.Confidence, b.Style.Source, b.Style.History)
	addSlot(view, brief.SlotPreferences, b.RenderSlot(brief.SlotPreferences),
		b.Preferences.Filled, b.Preferences.Locked(), b.Preferences.Confidence, b.Preferences.Source, b.Preferences.History)

	for _, s := range b.MissingSlots() {
		view.MissingSlots = append(view.MissingSlots, string(s))
	}
	if b.Pending != nil {
		view.Pending = &types.PendingView{
			Kind:    string(b.Pending.Kind),
			Slot:    string(b.Pending.Slot),
			Options: b.Pending.Options,
		}
	}
	return view
}

func addSlot(view *types.BriefView, name brief.SlotName, value string, filled, locked bool, confidence int, src brief.Source, history []brief.Revision) {
	if !filled {
		value = ""
	}
	sv := types.SlotView{
		Value:      value,
		Filled:     filled,
		Locked:     locked,
		Confidence: confidence,
		Source:     string(src),
	}
	for _, rev := range history {
		sv.History = append(sv.History, types.HistoryView{
			Value:  rev.Value,
			Reason: rev.Reason,
			At:     rev.At.Format(time.RFC3339),
		})
	}
	view.Slots[string(name)] = sv
}
