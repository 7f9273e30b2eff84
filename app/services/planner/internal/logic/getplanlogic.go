// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package logic

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/x/errors"

	"tripsmith/app/common/consts/errno"
	"tripsmith/app/services/planner/internal/store"
	"tripsmith/app/services/planner/internal/svc"
	"tripsmith/app/services/planner/internal/types"
)

type GetPlanLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetPlanLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetPlanLogic {
	return &GetPlanLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetPlanLogic) GetPlan(req *types.GetPlanRequest) (*types.GetPlanResponse, error) {
	if req.TripId == "" {
		return nil, errors.New(int(errno.InvalidParam), "tripId is required")
	}
	p, err := l.svcCtx.Store.LoadPlan(l.ctx, req.TripId)
	if err != nil {
		if stderrors.Is(err, store.ErrPlanNotFound) {
			return nil, errors.New(int(errno.PlanNotFound), "no plan generated yet")
		}
		l.Logger.Errorw("load plan failed", logx.Field("tripId", req.TripId), logx.Field("err", err))
		return nil, errors.New(int(errno.PersistenceUnavailable), "could not load plan")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, errors.New(int(errno.InternalError), "plan payload unreadable")
	}
	return &types.GetPlanResponse{
		StatusCode: int32(errno.StatusOK),
		StatusMsg:  "success",
		Data:       payload,
	}, nil
}
