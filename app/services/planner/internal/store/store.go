// Package store persists trip state: the brief and its slots, the
// decision log, search requests and their offers, generated plans and
// turn idempotency records.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/offers"
	"tripsmith/app/services/planner/internal/engine/plan"
)

var (
	ErrTripNotFound = errors.New("trip not found")
	ErrPlanNotFound = errors.New("no plan generated for trip")
	// ErrStaleBrief means the brief changed underneath an optimistic write.
	ErrStaleBrief = errors.New("brief version is stale")
)

// TurnRecord is one processed conversational turn, keyed by the client's
// turn token for replay protection.
type TurnRecord struct {
	Token     string
	TripID    string
	Response  []byte
	CreatedAt time.Time
}

type TripStore interface {
	CreateTrip(ctx context.Context, tripID, userID string) error
	// LoadTripState rebuilds the brief from the trip row and its slots.
	LoadTripState(ctx context.Context, tripID string) (b *brief.TripBrief, archived bool, err error)
	// SaveBrief writes status, version and pending with an optimistic
	// version guard; fromVersion is what the caller loaded.
	SaveBrief(ctx context.Context, b *brief.TripBrief, fromVersion int64) error
	UpsertSlot(ctx context.Context, tripID string, slot brief.SlotName, payload []byte, filled, locked bool) error
	LockSlot(ctx context.Context, tripID string, slot brief.SlotName) error

	AppendDecisionLog(ctx context.Context, tripID, eventType, message string, meta map[string]any) error

	CreateSearchRequest(ctx context.Context, tripID string, domain offers.Domain, params offers.Params) (string, error)
	SaveSearchOffers(ctx context.Context, requestID string, result []offers.Offer) error

	SavePlan(ctx context.Context, tripID string, p *plan.Proposal) error
	LoadPlan(ctx context.Context, tripID string) (*plan.Proposal, error)

	RecordTurn(ctx context.Context, rec *TurnRecord) error
	// FindTurn returns nil when the token has not been seen.
	FindTurn(ctx context.Context, token string) (*TurnRecord, error)

	ArchiveTrip(ctx context.Context, tripID string) error
}

// DecisionMirror receives a copy of every decision-log append, typically
// backed by a message broker for downstream analytics. Mirror failures
// never fail the write.
type DecisionMirror interface {
	Publish(ctx context.Context, tripID, eventType string, payload []byte) error
}

// MarshalSlot serializes one slot's constraint for persistence.
func MarshalSlot(b *brief.TripBrief, slot brief.SlotName) ([]byte, error) {
	switch slot {
	case brief.SlotDestination:
		return json.Marshal(b.Destination)
	case brief.SlotOrigin:
		return json.Marshal(b.Origin)
	case brief.SlotDates:
		return json.Marshal(b.Dates)
	case brief.SlotTravelers:
		return json.Marshal(b.Travelers)
	case brief.SlotBudget:
		return json.Marshal(b.Budget)
	case brief.SlotStyle:
		return json.Marshal(b.Style)
	case brief.SlotPreferences:
		return json.Marshal(b.Preferences)
	}
	return nil, fmt.Errorf("unknown slot %q", slot)
}

// UnmarshalSlot restores one persisted constraint into the brief.
func UnmarshalSlot(b *brief.TripBrief, slot brief.SlotName, payload []byte) error {
	switch slot {
	case brief.SlotDestination:
		return json.Unmarshal(payload, &b.Destination)
	case brief.SlotOrigin:
		return json.Unmarshal(payload, &b.Origin)
	case brief.SlotDates:
		return json.Unmarshal(payload, &b.Dates)
	case brief.SlotTravelers:
		return json.Unmarshal(payload, &b.Travelers)
	case brief.SlotBudget:
		return json.Unmarshal(payload, &b.Budget)
	case brief.SlotStyle:
		return json.Unmarshal(payload, &b.Style)
	case brief.SlotPreferences:
		return json.Unmarshal(payload, &b.Preferences)
	}
	return fmt.Errorf("unknown slot %q", slot)
}
