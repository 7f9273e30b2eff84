// Package planops runs a full planning pass against the persistence layer.
// Both the turn path and the deferred re-search worker go through Run so
// planning always records searches and decisions the same way.
package planops

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"tripsmith/app/services/planner/internal/engine/brief"
	"tripsmith/app/services/planner/internal/engine/offers"
	"tripsmith/app/services/planner/internal/engine/plan"
	"tripsmith/app/services/planner/internal/svc"
)

// Run builds a proposal for the brief and persists it. The proposal is
// discarded (nil, nil) when the stored brief moved past the version the
// pass was built from.
func Run(ctx context.Context, sc *svc.ServiceContext, b *brief.TripBrief) (*plan.Proposal, error) {
	logger := logx.WithContext(ctx)

	search := func(domain offers.Domain, params offers.Params, result []offers.Offer) {
		id, err := sc.Store.CreateSearchRequest(ctx, b.TripID, domain, params)
		if err != nil {
			logger.Errorw("record search request failed",
				logx.Field("tripId", b.TripID), logx.Field("domain", string(domain)), logx.Field("err", err))
			return
		}
		if err := sc.Store.SaveSearchOffers(ctx, id, result); err != nil {
			logger.Errorw("save search offers failed",
				logx.Field("requestId", id), logx.Field("err", err))
		}
	}
	decide := func(event, message string, meta map[string]any) {
		if err := sc.Store.AppendDecisionLog(ctx, b.TripID, event, message, meta); err != nil {
			logger.Errorw("decision log append failed",
				logx.Field("tripId", b.TripID), logx.Field("err", err))
		}
	}

	prop, err := sc.Planner.Build(ctx, b, search, decide)
	if err != nil {
		return nil, err
	}

	// the brief may have moved while offers were fetched; a stale pass is
	// dropped, never committed
	current, _, err := sc.Store.LoadTripState(ctx, b.TripID)
	if err != nil {
		return nil, err
	}
	if current.Version != prop.BriefVersion {
		decide("plan_discarded", "brief changed during planning, proposal dropped",
			map[string]any{"builtFor": prop.BriefVersion, "current": current.Version})
		return nil, nil
	}

	if err := sc.Store.SavePlan(ctx, b.TripID, prop); err != nil {
		return nil, err
	}
	decide("plan_generated", "proposal committed", map[string]any{
		"briefVersion":   prop.BriefVersion,
		"cities":         prop.Cities,
		"totalCostCents": prop.TotalCostCents,
		"conditions":     len(prop.Conditions),
	})
	return prop, nil
}
