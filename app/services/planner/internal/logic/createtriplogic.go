// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/x/errors"

	"tripsmith/app/common/consts/errno"
	"tripsmith/app/common/snowflake"
	"tripsmith/app/services/planner/internal/svc"
	"tripsmith/app/services/planner/internal/types"
)

type CreateTripLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCreateTripLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateTripLogic {
	return &CreateTripLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CreateTripLogic) CreateTrip(req *types.CreateTripRequest) (*types.CreateTripResponse, error) {
	tripID := snowflake.NextString()
	if err := l.svcCtx.Store.CreateTrip(l.ctx, tripID, req.UserId); err != nil {
		l.Logger.Errorw("create trip failed", logx.Field("err", err))
		return nil, errors.New(int(errno.PersistenceUnavailable), "could not create trip")
	}
	if err := l.svcCtx.Store.AppendDecisionLog(l.ctx, tripID, "trip_created", "trip created", nil); err != nil {
		l.Logger.Errorw("decision log append failed", logx.Field("tripId", tripID), logx.Field("err", err))
	}
	return &types.CreateTripResponse{
		StatusCode: int32(errno.StatusOK),
		StatusMsg:  "success",
		TripId:     tripID,
		Prompt:     "Where would you like to go?",
	}, nil
}
