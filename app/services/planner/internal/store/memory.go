package store

import (
	"context"
	"sync"
	"time"

	"tripsmith/app/common/snowflake"
	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/offers"
	"tripsmith/app/services/planner/internal/engine/plan"
)

var _ TripStore = (*MemoryStore)(nil)

// MemoryStore keeps everything in maps. It backs tests and local runs
// without a database; semantics mirror SqlStore including the optimistic
// version guard.
type MemoryStore struct {
	mu       sync.RWMutex
	trips    map[string]*memTrip
	turns    map[string]*TurnRecord
	plans    map[string][]*plan.Proposal
	searches map[string]*memSearch
	// Decisions is exposed for assertions in tests.
	Decisions map[string][]DecisionEntry
}

type DecisionEntry struct {
	EventType string
	Message   string
	Meta      map[string]any
}

type memTrip struct {
	userID   string
	status   brief.Status
	version  int64
	pending  *brief.Pending
	archived bool
	slots    map[brief.SlotName]memSlot
}

type memSlot struct {
	payload []byte
	filled  bool
	locked  bool
}

type memSearch struct {
	tripID string
	domain offers.Domain
	params offers.Params
	offers []offers.Offer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:     make(map[string]*memTrip),
		turns:     make(map[string]*TurnRecord),
		plans:     make(map[string][]*plan.Proposal),
		searches:  make(map[string]*memSearch),
		Decisions: make(map[string][]DecisionEntry),
	}
}

func (s *MemoryStore) CreateTrip(_ context.Context, tripID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[tripID] = &memTrip{
		userID: userID,
		status: brief.StatusCollecting,
		slots:  make(map[brief.SlotName]memSlot),
	}
	return nil
}

func (s *MemoryStore) LoadTripState(_ context.Context, tripID string) (*brief.TripBrief, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trips[tripID]
	if !ok {
		return nil, false, ErrTripNotFound
	}
	b := brief.New(tripID)
	b.Status = t.status
	b.Version = t.version
	b.Pending = t.pending
	for slot, row := range t.slots {
		if err := UnmarshalSlot(b, slot, row.payload); err != nil {
			return nil, false, err
		}
	}
	return b, t.archived, nil
}

func (s *MemoryStore) SaveBrief(_ context.Context, b *brief.TripBrief, fromVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[b.TripID]
	if !ok {
		return ErrTripNotFound
	}
	if t.version != fromVersion {
		return ErrStaleBrief
	}
	t.status = b.Status
	t.version = b.Version
	t.pending = b.Pending
	return nil
}

func (s *MemoryStore) UpsertSlot(_ context.Context, tripID string, slot brief.SlotName, payload []byte, filled, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[tripID]
	if !ok {
		return ErrTripNotFound
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	t.slots[slot] = memSlot{payload: cp, filled: filled, locked: locked}
	return nil
}

func (s *MemoryStore) LockSlot(_ context.Context, tripID string, slot brief.SlotName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[tripID]
	if !ok {
		return ErrTripNotFound
	}
	row := t.slots[slot]
	row.locked = true
	t.slots[slot] = row
	return nil
}

func (s *MemoryStore) AppendDecisionLog(_ context.Context, tripID, eventType, message string, meta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Decisions[tripID] = append(s.Decisions[tripID], DecisionEntry{EventType: eventType, Message: message, Meta: meta})
	return nil
}

func (s *MemoryStore) CreateSearchRequest(_ context.Context, tripID string, domain offers.Domain, params offers.Params) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := snowflake.NextString()
	s.searches[id] = &memSearch{tripID: tripID, domain: domain, params: params}
	return id, nil
}

func (s *MemoryStore) SaveSearchOffers(_ context.Context, requestID string, result []offers.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.searches[requestID]
	if !ok {
		return ErrTripNotFound
	}
	req.offers = result
	return nil
}

func (s *MemoryStore) SavePlan(_ context.Context, tripID string, p *plan.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[tripID] = append(s.plans[tripID], p)
	return nil
}

func (s *MemoryStore) LoadPlan(_ context.Context, tripID string) (*plan.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps := s.plans[tripID]
	if len(ps) == 0 {
		return nil, ErrPlanNotFound
	}
	return ps[len(ps)-1], nil
}

func (s *MemoryStore) RecordTurn(_ context.Context, rec *TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.turns[rec.Token] = &cp
	return nil
}

func (s *MemoryStore) FindTurn(_ context.Context, token string) (*TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.turns[token]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (s *MemoryStore) ArchiveTrip(_ context.Context, tripID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[tripID]
	if !ok {
		return ErrTripNotFound
	}
	t.archived = true
	return nil
}

// SearchCount reports how many search requests were recorded, for tests.
func (s *MemoryStore) SearchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.searches)
}
