package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/risk"
)

type riskApi struct {
	scorer risk.Scorer
}

type (
	PassRateRequest struct {
		Grades []float64 `json:"grades" validate:"required,min=1,dive,gte=0"`
		Cutoff float64   `json:"cutoff" validate:"gte=0"`
	}

	PassRateResponse struct {
		Total    int `json:"total"`
		PassRate int `json:"pass_rate"` // percent
	}
)

func (r *PassRateRequest) Validate() error {
	return core.Validate.Struct(r)
}

func registerRiskAPI(g *echo.Group, deps *Deps) {
	api := riskApi{scorer: deps.Risk}

	rg := g.Group("/risk")
	rg.GET("/attendance", api.attendance)
	rg.GET("/payment", api.payment)
	rg.POST("/pass-rate", api.passRate)
}

// Handlers

func (api *riskApi) attendance(ctx echo.Context) error {
	risks, err := api.scorer.AtRiskAttendance(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "scoring attendance risk")
	}
	return ctx.JSON(http.StatusOK, risks)
}

func (api *riskApi) payment(ctx echo.Context) error {
	risks, err := api.scorer.AtRiskPayment(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "scoring payment risk")
	}
	return ctx.JSON(http.StatusOK, risks)
}

func (api *riskApi) passRate(ctx echo.Context) error {
	var data PassRateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PassRateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, PassRateResponse{
		Total:    len(data.Grades),
		PassRate: risk.PassRate(data.Grades, data.Cutoff),
	})
}
