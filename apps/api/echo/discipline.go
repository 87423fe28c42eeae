package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/discipline"
)

type disciplineApi struct {
	svc discipline.Service
}

func registerDisciplineAPI(g *echo.Group, deps *Deps) {
	api := disciplineApi{svc: deps.Discipline}

	dg := g.Group("/discipline")
	dg.POST("", api.create)
	dg.DELETE("/:id", api.destroy, adminMiddleware())
}

// Handlers

func (api *disciplineApi) create(ctx echo.Context) error {
	var data discipline.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	rec, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "filing discipline record")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *disciplineApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting discipline record")
	}
	return ctx.NoContent(http.StatusNoContent)
}
