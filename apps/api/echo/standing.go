package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/risk"
	"github.com/trezcool/ecole/core/standing"
)

type standingApi struct {
	engine standing.Engine
	risk   risk.Scorer
}

func registerStandingAPI(g *echo.Group, deps *Deps) {
	api := standingApi{engine: deps.Engine, risk: deps.Risk}

	sg := g.Group("/standing", adminMiddleware())
	sg.POST("/deadline-sweep", api.sweep(api.engine.RunDeadlineBan))
	sg.POST("/arrears-sweep", api.sweep(api.engine.RunArrearsBan))
}

// Handlers

func (api *standingApi) sweep(run func(context.Context) (standing.BatchReport, error)) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		report, err := run(ctx.Request().Context())
		if err != nil {
			return errors.Wrap(err, "running sweep")
		}
		if report.Banned > 0 {
			api.risk.Invalidate(ctx.Request().Context())
		}
		return ctx.JSON(http.StatusOK, report)
	}
}
