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

type GetBriefLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetBriefLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetBriefLogic {
	return &GetBriefLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetBriefLogic) GetBrief(req *types.GetBriefRequest) (*types.GetBriefResponse, error) {
	if req.TripId == "" {
		return nil, errors.New(int(errno.InvalidParam), "tripId is required")
	}
	b, _, err := l.svcCtx.Store.LoadTripState(l.ctx, req.TripId)
	if err != nil {
		if stderrors.Is(err, store.ErrTripNotFound) {
			return nil, errors.New(int(errno.TripNotFound), "trip not found")
		}
		l.Logger.Errorw("load trip state failed", logx.Field("tripId", req.TripId), logx.Field("err", err))
		return nil, errors.New(int(errno.PersistenceUnavailable), "could not load trip")
	}
	return &types.GetBriefResponse{
		StatusCode: int32(errno.StatusOK),
		StatusMsg:  "success",
		Data:       toBriefView(b),
	}, nil
}
