// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package logic

import (
	"context"
	stderrors "errors"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/x/errors"

	"tripsmith/app/common/consts/errno"
	"tripsmith/app/services/planner/internal/store"
	"tripsmith/app/services/planner/internal/svc"
	"tripsmith/app/services/planner/internal/types"
)

type ArchiveTripLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewArchiveTripLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ArchiveTripLogic {
	return &ArchiveTripLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// ArchiveTrip marks the trip read-only. Archiving twice is not an error to
// retry; the second call reports the trip as already archived.
func (l *ArchiveTripLogic) ArchiveTrip(req *types.ArchiveTripRequest) (*types.ArchiveTripResponse, error) {
	if req.TripId == "" {
		return nil, errors.New(int(errno.InvalidParam), "tripId is required")
	}

	unlock := l.svcCtx.TripLocks.Lock(req.TripId)
	defer unlock()

	err := l.svcCtx.Store.ArchiveTrip(l.ctx, req.TripId)
	if err != nil {
		if stderrors.Is(err, store.ErrTripNotFound) {
			if _, archived, lerr := l.svcCtx.Store.LoadTripState(l.ctx, req.TripId); lerr == nil && archived {
				return nil, errors.New(int(errno.TripArchived), "trip is already archived")
			}
			return nil, errors.New(int(errno.TripNotFound), "trip not found")
		}
		l.Logger.Errorw("archive trip failed", logx.Field("tripId", req.TripId), logx.Field("err", err))
		return nil, errors.New(int(errno.PersistenceUnavailable), "could not archive trip")
	}
	if err := l.svcCtx.Store.AppendDecisionLog(l.ctx, req.TripId, "trip_archived", "trip archived", nil); err != nil {
		l.Logger.Errorw("decision log append failed", logx.Field("tripId", req.TripId), logx.Field("err", err))
	}
	return &types.ArchiveTripResponse{
		StatusCode: int32(errno.StatusOK),
		StatusMsg:  "success",
	}, nil
}
