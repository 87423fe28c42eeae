package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/discipline"
	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/risk"
	"github.com/trezcool/ecole/core/standing"
	"github.com/trezcool/ecole/core/student"
)

type studentApi struct {
	students   student.Service
	attendance attendance.Service
	ledger     payment.Ledger
	discipline discipline.Service
	engine     standing.Engine
	risk       risk.Scorer
}

type standingResponse struct {
	StudentID string `json:"student_id"`
	attendance.Standing
}

func registerStudentAPI(g *echo.Group, deps *Deps) {
	api := studentApi{
		students:   deps.Students,
		attendance: deps.Attendance,
		ledger:     deps.Ledger,
		discipline: deps.Discipline,
		engine:     deps.Engine,
		risk:       deps.Risk,
	}

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.GET("/:id/standing", api.standing)
	sg.GET("/:id/payments", api.payments)
	sg.GET("/:id/discipline", api.disciplineRecords)
	sg.POST("/:id/unban", api.unban, adminMiddleware(RolePrincipal, RoleAccountant))
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.students.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := api.students.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) standing(ctx echo.Context) error {
	id := ctx.Param("id")
	st, err := api.attendance.Standing(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "computing standing")
	}
	return ctx.JSON(http.StatusOK, standingResponse{StudentID: id, Standing: st})
}

func (api *studentApi) payments(ctx echo.Context) error {
	st, err := api.students.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	recs, err := api.ledger.ListRecords(ctx.Request().Context(), st.ID)
	if err != nil {
		return errors.Wrap(err, "listing payment records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *studentApi) disciplineRecords(ctx echo.Context) error {
	st, err := api.students.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	recs, err := api.discipline.List(ctx.Request().Context(), st.ID)
	if err != nil {
		return errors.Wrap(err, "listing discipline records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *studentApi) unban(ctx echo.Context) error {
	st, err := api.engine.Unban(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "unbanning student")
	}
	api.risk.Invalidate(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, st)
}
