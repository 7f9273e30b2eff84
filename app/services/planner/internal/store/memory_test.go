package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/plan"
)

func TestBriefRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.CreateTrip(ctx, "t1", "u1"))

	b := brief.New("t1")
	b.Version = 3
	b.Status = brief.StatusCollecting
	b.Destination.Value = brief.Destination{Type: brief.DestCity, Primary: "Rome", Country: "Italy"}
	b.Destination.Filled = true
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	b.Destination.LockedAt = &now
	b.Destination.Confidence = 95
	b.Destination.Source = brief.SourceExplicit
	b.Pending = &brief.Pending{Kind: brief.PendingCurrency, Slot: brief.SlotBudget, AskedAt: now}

	payload, err := MarshalSlot(b, brief.SlotDestination)
	require.NoError(t, err)
	require.NoError(t, st.UpsertSlot(ctx, "t1", brief.SlotDestination, payload, true, true))
	require.NoError(t, st.SaveBrief(ctx, b, 0))

	got, archived, err := st.LoadTripState(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, archived)
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, "Rome, Italy", got.Destination.Value.Render())
	assert.True(t, got.Destination.Ready(), "lock state must survive persistence")
	assert.Equal(t, 95, got.Destination.Confidence)
	require.NotNil(t, got.Pending)
	assert.Equal(t, brief.PendingCurrency, got.Pending.Kind)
}

func TestSaveBriefVersionGuard(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.CreateTrip(ctx, "t1", "u1"))

	b := brief.New("t1")
	b.Version = 1
	require.NoError(t, st.SaveBrief(ctx, b, 0))

	// a writer that loaded version 0 lost the race
	stale := brief.New("t1")
	stale.Version = 1
	assert.ErrorIs(t, st.SaveBrief(ctx, stale, 0), ErrStaleBrief)

	b.Version = 2
	assert.NoError(t, st.SaveBrief(ctx, b, 1))
}

func TestLoadPlanReturnsLatest(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, err := st.LoadPlan(ctx, "t1")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	require.NoError(t, st.SavePlan(ctx, "t1", &plan.Proposal{TripID: "t1", BriefVersion: 4}))
	require.NoError(t, st.SavePlan(ctx, "t1", &plan.Proposal{TripID: "t1", BriefVersion: 7}))

	p, err := st.LoadPlan(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.BriefVersion)
}

func TestArchiveTrip(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	assert.ErrorIs(t, st.ArchiveTrip(ctx, "nope"), ErrTripNotFound)

	require.NoError(t, st.CreateTrip(ctx, "t1", "u1"))
	require.NoError(t, st.ArchiveTrip(ctx, "t1"))
	_, archived, err := st.LoadTripState(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, archived)
}

func TestFindTurnMissingIsNil(t *testing.T) {
	st := NewMemoryStore()
	rec, err := st.FindTurn(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, st.RecordTurn(context.Background(), &TurnRecord{Token: "tok", TripID: "t1", Response: []byte(`{}`)}))
	rec, err = st.FindTurn(context.Background(), "tok")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "t1", rec.TripID)
}
