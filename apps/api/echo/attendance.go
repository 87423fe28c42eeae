package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/risk"
)

type attendanceApi struct {
	svc  attendance.Service
	risk risk.Scorer
}

func registerAttendanceAPI(g *echo.Group, deps *Deps) {
	api := attendanceApi{svc: deps.Attendance, risk: deps.Risk}

	rg := g.Group("/rollcalls")
	rg.PUT("/:sessionId", api.record)
	rg.GET("/:sessionId", api.retrieve)
}

// Handlers

// record upserts the whole roll-call of a session; the path wins over the body session_id.
func (api *attendanceApi) record(ctx echo.Context) error {
	var data attendance.NewRollCall
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRollCall")
	}
	data.SessionID = ctx.Param("sessionId")
	rc, err := api.svc.RecordRollCall(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording roll-call")
	}
	api.risk.Invalidate(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, rc)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	rc, err := api.svc.GetRollCall(ctx.Request().Context(), ctx.Param("sessionId"))
	if err != nil {
		return errors.Wrap(err, "getting roll-call")
	}
	return ctx.JSON(http.StatusOK, rc)
}
