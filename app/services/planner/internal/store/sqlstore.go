package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/zeromicro/go-zero/core/logx"

	"tripsmith/app/common/snowflake"
	"tripsmith/app/dal/trip"
	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/offers"
	"tripsmith/app/services/planner/internal/engine/plan"
)

var _ TripStore = (*SqlStore)(nil)

// SqlStore is the MySQL-backed TripStore over the trip dal models.
type SqlStore struct {
	trips    trip.TripsModel
	slots    trip.TripSlotsModel
	log      trip.DecisionLogModel
	searches trip.SearchRequestsModel
	plans    trip.TripPlansModel
	turns    trip.TripTurnsModel
	mirror   DecisionMirror
}

func NewSqlStore(
	trips trip.TripsModel,
	slots trip.TripSlotsModel,
	log trip.DecisionLogModel,
	searches trip.SearchRequestsModel,
	plans trip.TripPlansModel,
	turns trip.TripTurnsModel,
	mirror DecisionMirror,
) *SqlStore {
	return &SqlStore{
		trips:    trips,
		slots:    slots,
		log:      log,
		searches: searches,
		plans:    plans,
		turns:    turns,
		mirror:   mirror,
	}
}

func (s *SqlStore) CreateTrip(ctx context.Context, tripID, userID string) error {
	_, err := s.trips.Insert(ctx, &trip.Trips{
		TripId: tripID,
		UserId: userID,
		Status: string(brief.StatusCollecting),
	})
	return err
}

func (s *SqlStore) LoadTripState(ctx context.Context, tripID string) (*brief.TripBrief, bool, error) {
	row, err := s.trips.FindOne(ctx, tripID)
	if err != nil {
		if errors.Is(err, trip.ErrNotFound) {
			return nil, false, ErrTripNotFound
		}
		return nil, false, err
	}

	b := brief.New(tripID)
	b.Status = brief.Status(row.Status)
	b.Version = row.Version
	if row.Pending.Valid && row.Pending.String != "" {
		var p brief.Pending
		if err := json.Unmarshal([]byte(row.Pending.String), &p); err != nil {
			return nil, false, err
		}
		b.Pending = &p
	}

	slots, err := s.slots.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, false, err
	}
	for _, row := range slots {
		if err := UnmarshalSlot(b, brief.SlotName(row.Slot), []byte(row.Payload)); err != nil {
			return nil, false, err
		}
	}
	return b, row.Archived != 0, nil
}

func (s *SqlStore) SaveBrief(ctx context.Context, b *brief.TripBrief, fromVersion int64) error {
	pending := sql.NullString{}
	if b.Pending != nil {
		data, err := json.Marshal(b.Pending)
		if err != nil {
			return err
		}
		pending = sql.NullString{String: string(data), Valid: true}
	}
	err := s.trips.UpdateState(ctx, b.TripID, string(b.Status), fromVersion, b.Version, pending)
	if errors.Is(err, trip.ErrRowsAffectedIsZero) {
		return ErrStaleBrief
	}
	return err
}

func (s *SqlStore) UpsertSlot(ctx context.Context, tripID string, slot brief.SlotName, payload []byte, filled, locked bool) error {
	return s.slots.Upsert(ctx, &trip.TripSlots{
		TripId:  tripID,
		Slot:    string(slot),
		Payload: string(payload),
		Filled:  boolInt(filled),
		Locked:  boolInt(locked),
	})
}

func (s *SqlStore) LockSlot(ctx context.Context, tripID string, slot brief.SlotName) error {
	return s.slots.Lock(ctx, tripID, string(slot))
}

func (s *SqlStore) AppendDecisionLog(ctx context.Context, tripID, eventType, message string, meta map[string]any) error {
	metadata := sql.NullString{}
	var payload []byte
	if len(meta) > 0 {
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		metadata = sql.NullString{String: string(data), Valid: true}
		payload = data
	}
	_, err := s.log.Append(ctx, &trip.DecisionLog{
		Id:        snowflake.NextString(),
		TripId:    tripID,
		EventType: eventType,
		Message:   message,
		Metadata:  metadata,
	})
	if err != nil {
		return err
	}
	if s.mirror != nil {
		event, _ := json.Marshal(map[string]any{
			"tripId":    tripID,
			"eventType": eventType,
			"message":   message,
			"meta":      json.RawMessage(orEmptyObject(payload)),
		})
		if err := s.mirror.Publish(ctx, tripID, eventType, event); err != nil {
			logx.WithContext(ctx).Errorw("decision log mirror publish failed",
				logx.Field("tripId", tripID), logx.Field("err", err))
		}
	}
	return nil
}

func (s *SqlStore) CreateSearchRequest(ctx context.Context, tripID string, domain offers.Domain, params offers.Params) (string, error) {
	paramsJson, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	id := snowflake.NextString()
	_, err = s.searches.Insert(ctx, &trip.SearchRequests{
		Id:          id,
		TripId:      tripID,
		Domain:      string(domain),
		Fingerprint: offers.Fingerprint(domain, params),
		Params:      string(paramsJson),
		Status:      trip.SearchStatusPending,
	})
	return id, err
}

func (s *SqlStore) SaveSearchOffers(ctx context.Context, requestID string, result []offers.Offer) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.searches.SaveOffers(ctx, requestID, string(data))
}

func (s *SqlStore) SavePlan(ctx context.Context, tripID string, p *plan.Proposal) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.plans.Insert(ctx, &trip.TripPlans{
		Id:           snowflake.NextString(),
		TripId:       tripID,
		BriefVersion: p.BriefVersion,
		Payload:      string(payload),
	})
	return err
}

func (s *SqlStore) LoadPlan(ctx context.Context, tripID string) (*plan.Proposal, error) {
	row, err := s.plans.FindLatest(ctx, tripID)
	if err != nil {
		if errors.Is(err, trip.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	var p plan.Proposal
	if err := json.Unmarshal([]byte(row.Payload), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SqlStore) RecordTurn(ctx context.Context, rec *TurnRecord) error {
	_, err := s.turns.Insert(ctx, &trip.TripTurns{
		TurnToken: rec.Token,
		TripId:    rec.TripID,
		Response:  string(rec.Response),
	})
	return err
}

func (s *SqlStore) FindTurn(ctx context.Context, token string) (*TurnRecord, error) {
	row, err := s.turns.FindOne(ctx, token)
	if err != nil {
		if errors.Is(err, trip.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &TurnRecord{
		Token:     row.TurnToken,
		TripID:    row.TripId,
		Response:  []byte(row.Response),
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *SqlStore) ArchiveTrip(ctx context.Context, tripID string) error {
	err := s.trips.Archive(ctx, tripID)
	if errors.Is(err, trip.ErrRowsAffectedIsZero) {
		return ErrTripNotFound
	}
	return err
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func orEmptyObject(b []byte) []byte {
	if len(b) == 0 {
		return []byte("{}")
	}
	return b
}
