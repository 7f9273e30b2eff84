// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package logic

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/x/errors"

	"tripsmith/app/common/consts/errno"
	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/offers"
	"tripsmith/app/services/planner/internal/mq"
	"tripsmith/app/services/planner/internal/planops"
	"tripsmith/app/services/planner/internal/store"
	"tripsmith/app/services/planner/internal/svc"
	"tripsmith/app/services/planner/internal/types"
)

type TurnLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewTurnLogic(ctx context.Context, svcCtx *svc.ServiceContext) *TurnLogic {
	return &TurnLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Turn processes one utterance: extract facts, drive the slot machine,
// persist what changed, invalidate offers evicted by relocks, and plan
// when the brief is ready. A replayed turn token returns the stored
// response without re-running any of it.
func (l *TurnLogic) Turn(req *types.TurnRequest) (*types.TurnResponse, error) {
	if req.TripId == "" || req.TurnToken == "" || strings.TrimSpace(req.Message) == "" {
		return nil, errors.New(int(errno.InvalidParam), "tripId, turnToken and message are required")
	}

	unlock := l.svcCtx.TripLocks.Lock(req.TripId)
	defer unlock()

	if resp, err := l.replayedTurn(req); resp != nil || err != nil {
		return resp, err
	}

	b, archived, err := l.svcCtx.Store.LoadTripState(l.ctx, req.TripId)
	if err != nil {
		if stderrors.Is(err, store.ErrTripNotFound) {
			return nil, errors.New(int(errno.TripNotFound), "trip not found")
		}
		l.Logger.Errorw("load trip state failed", logx.Field("tripId", req.TripId), logx.Field("err", err))
		return nil, errors.New(int(errno.PersistenceUnavailable), "could not load trip")
	}
	if archived {
		return nil, errors.New(int(errno.TripArchived), "trip is archived")
	}

	fromVersion := b.Version
	statusBefore := b.Status
	pendingBefore := b.Pending

	extraction := l.svcCtx.Extractor.Extract(req.Message, b)
	outcome := l.svcCtx.Machine.Apply(b, extraction)

	data := &types.TurnData{
		TripId:   req.TripId,
		Prompt:   outcome.Prompt,
		NextSlot: string(outcome.NextSlot),
		Ready:    outcome.Ready,
	}

	if err := l.persistChanges(req.TripId, b, outcome.Changes, data); err != nil {
		return nil, err
	}
	l.applyEvictions(req.TripId, outcome.Evictions, data)
	for _, c := range outcome.Conditions {
		data.Conditions = append(data.Conditions, types.ConditionView{
			Code: string(c.Code), Message: c.Message, Suggestion: c.Suggestion,
		})
		l.logDecision(req.TripId, "condition", c.Message, map[string]any{"code": string(c.Code)})
	}

	dirty := b.Version != fromVersion || b.Status != statusBefore || b.Pending != pendingBefore
	if dirty {
		if err := l.saveBrief(b, fromVersion); err != nil {
			return nil, err
		}
	}

	if b.Pending == nil && b.RequiredReady() && b.Status == brief.StatusReadyToPlan {
		prop, err := planops.Run(l.ctx, l.svcCtx, b)
		if err != nil {
			l.Logger.Errorw("planning pass failed", logx.Field("tripId", req.TripId), logx.Field("err", err))
			return nil, errors.New(int(errno.InternalError), "planning failed")
		}
		if prop != nil {
			data.PlanGenerated = true
			data.SearchesTriggered = prop.SearchesTriggered
			for _, c := range prop.Conditions {
				data.Conditions = append(data.Conditions, types.ConditionView{
					Code: string(c.Code), Message: c.Message, Suggestion: c.Suggestion,
				})
			}
			b.Status = brief.StatusPlanned
			if err := l.saveBrief(b, b.Version); err != nil {
				return nil, err
			}
		}
	}

	data.Status = string(b.Status)
	data.Version = b.Version
	data.Brief = toBriefView(b)

	l.recordTurn(req, data)
	return &types.TurnResponse{
		StatusCode: int32(errno.StatusOK),
		StatusMsg:  "success",
		Data:       data,
	}, nil
}

// replayedTurn returns the stored response when the turn token was already
// processed for this trip.
func (l *TurnLogic) replayedTurn(req *types.TurnRequest) (*types.TurnResponse, error) {
	rec, err := l.svcCtx.Store.FindTurn(l.ctx, req.TurnToken)
	if err != nil {
		l.Logger.Errorw("turn lookup failed", logx.Field("turnToken", req.TurnToken), logx.Field("err", err))
		return nil, errors.New(int(errno.PersistenceUnavailable), "could not check turn token")
	}
	if rec == nil {
		return nil, nil
	}
	if rec.TripID != req.TripId {
		return nil, errors.New(int(errno.InvalidParam), "turn token belongs to another trip")
	}
	var data types.TurnData
	if err := json.Unmarshal(rec.Response, &data); err != nil {
		l.Logger.Errorw("stored turn response unreadable", logx.Field("turnToken", req.TurnToken), logx.Field("err", err))
		return nil, errors.New(int(errno.InternalError), "stored turn response unreadable")
	}
	return &types.TurnResponse{
		StatusCode: int32(errno.StatusOK),
		StatusMsg:  "success",
		Data:       &data,
	}, nil
}

func (l *TurnLogic) persistChanges(tripID string, b *brief.TripBrief, changes []brief.SlotChange, data *types.TurnData) error {
	for _, ch := range changes {
		payload, err := store.MarshalSlot(b, ch.Slot)
		if err != nil {
			l.Logger.Errorw("marshal slot failed", logx.Field("slot", string(ch.Slot)), logx.Field("err", err))
			continue
		}
		if err := l.svcCtx.Store.UpsertSlot(l.ctx, tripID, ch.Slot, payload, ch.Filled, ch.Locked); err != nil {
			l.Logger.Errorw("upsert slot failed", logx.Field("slot", string(ch.Slot)), logx.Field("err", err))
			return errors.New(int(errno.PersistenceUnavailable), "could not persist slot change")
		}
		if ch.Op == brief.OpConfirm || ch.Op == brief.OpRelock {
			if err := l.svcCtx.Store.LockSlot(l.ctx, tripID, ch.Slot); err != nil {
				l.Logger.Errorw("lock slot failed", logx.Field("slot", string(ch.Slot)), logx.Field("err", err))
			}
		}
		meta := map[string]any{"value": ch.Rendered}
		if ch.Reason != "" {
			meta["reason"] = ch.Reason
		}
		l.logDecision(tripID, "slot_"+string(ch.Op), string(ch.Slot)+" = "+ch.Rendered, meta)
		data.Changes = append(data.Changes, types.SlotChangeView{
			Slot: string(ch.Slot), Op: string(ch.Op), Value: ch.Rendered,
		})
	}
	return nil
}

// applyEvictions drops cached offers built from superseded values and
// schedules a deferred re-search for the affected domains.
func (l *TurnLogic) applyEvictions(tripID string, evictions []brief.Eviction, data *types.TurnData) {
	for _, ev := range evictions {
		dropped := l.svcCtx.Offers.Invalidate(ev.Slot, ev.OldValue)
		domains := make([]string, 0, len(dropped))
		for _, d := range dropped {
			domains = append(domains, string(d))
		}
		if len(domains) == 0 {
			for _, d := range offers.DomainsFor(ev.Slot) {
				domains = append(domains, string(d))
			}
		}
		l.logDecision(tripID, "offers_invalidated", string(ev.Slot)+" superseded "+ev.OldValue,
			map[string]any{"domains": domains})
		data.Evictions = append(data.Evictions, types.EvictionView{
			Slot: string(ev.Slot), OldValue: ev.OldValue, Domains: domains,
		})

		if l.svcCtx.AsynqClient == nil {
			continue
		}
		payload, err := json.Marshal(mq.ResearchPayload{TripId: tripID, Slot: string(ev.Slot), Domains: domains})
		if err != nil {
			continue
		}
		task := asynq.NewTask(mq.TaskResearchDomains, payload)
		if _, err := l.svcCtx.AsynqClient.Enqueue(task, asynq.ProcessIn(5*time.Second)); err != nil {
			l.Logger.Errorw("enqueue research task failed", logx.Field("tripId", tripID), logx.Field("err", err))
		}
	}
}

func (l *TurnLogic) saveBrief(b *brief.TripBrief, fromVersion int64) error {
	err := l.svcCtx.Store.SaveBrief(l.ctx, b, fromVersion)
	if err == nil {
		return nil
	}
	if stderrors.Is(err, store.ErrStaleBrief) {
		return errors.New(int(errno.TurnOutOfOrder), "trip changed during this turn, retry")
	}
	l.Logger.Errorw("save brief failed", logx.Field("tripId", b.TripID), logx.Field("err", err))
	return errors.New(int(errno.PersistenceUnavailable), "could not persist brief")
}

func (l *TurnLogic) recordTurn(req *types.TurnRequest, data *types.TurnData) {
	payload, err := json.Marshal(data)
	if err != nil {
		l.Logger.Errorw("marshal turn response failed", logx.Field("err", err))
		return
	}
	rec := &store.TurnRecord{Token: req.TurnToken, TripID: req.TripId, Response: payload}
	if err := l.svcCtx.Store.RecordTurn(l.ctx, rec); err != nil {
		l.Logger.Errorw("record turn failed", logx.Field("turnToken", req.TurnToken), logx.Field("err", err))
	}
}

func (l *TurnLogic) logDecision(tripID, event, message string, meta map[string]any) {
	if err := l.svcCtx.Store.AppendDecisionLog(l.ctx, tripID, event, message, meta); err != nil {
		l.Logger.Errorw("decision log append failed", logx.Field("tripId", tripID), logx.Field("err", err))
	}
}
