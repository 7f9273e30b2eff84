// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"tripsmith/app/services/planner/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodPost,
				Path:    "/api/trip",
				Handler: CreateTripHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/api/trip/turn",
				Handler: TurnHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/trip/:tripId/brief",
				Handler: GetBriefHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/trip/:tripId/plan",
				Handler: GetPlanHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/api/trip/:tripId/archive",
				Handler: ArchiveTripHandler(serverCtx),
			},
		},
	)
}
