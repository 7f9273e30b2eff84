package mq

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/zeromicro/go-zero/core/logx"

	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/planops"
	"tripsmith/app/services/planner/internal/store"
	"tripsmith/app/services/planner/internal/svc"
)

func NewAsynqMux(sc *svc.ServiceContext) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskResearchDomains, newResearchHandler(sc))
	return mux
}

// newResearchHandler re-runs planning after an eviction dropped cached
// offers. The run itself refetches whatever the plan needs; stale and
// archived trips are skipped without retry.
func newResearchHandler(sc *svc.ServiceContext) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var p ResearchPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			logx.WithContext(ctx).Errorw("research task payload unreadable", logx.Field("err", err))
			return nil
		}
		logger := logx.WithContext(ctx)

		unlock := sc.TripLocks.Lock(p.TripId)
		defer unlock()

		b, archived, err := sc.Store.LoadTripState(ctx, p.TripId)
		if err != nil {
			if errors.Is(err, store.ErrTripNotFound) {
				return nil
			}
			return err
		}
		if archived || !b.RequiredReady() || b.Pending != nil {
			return nil
		}

		prop, err := planops.Run(ctx, sc, b)
		if err != nil {
			return err
		}
		if prop == nil {
			return nil
		}
		if b.Status != brief.StatusPlanned {
			b.Status = brief.StatusPlanned
			if err := sc.Store.SaveBrief(ctx, b, b.Version); err != nil && !errors.Is(err, store.ErrStaleBrief) {
				return err
			}
		}
		logger.Infow("deferred re-search completed",
			logx.Field("tripId", p.TripId), logx.Field("slot", p.Slot), logx.Field("domains", p.Domains))
		return nil
	}
}
