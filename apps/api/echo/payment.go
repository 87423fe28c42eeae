package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/risk"
)

type paymentApi struct {
	ledger payment.Ledger
	risk   risk.Scorer
}

func registerPaymentAPI(g *echo.Group, deps *Deps) {
	api := paymentApi{ledger: deps.Ledger, risk: deps.Risk}

	pg := g.Group("/payments")
	pg.POST("", api.create)
	pg.GET("/:id", api.retrieve)
	pg.POST("/:id/versements", api.addVersement)
}

// Handlers

func (api *paymentApi) create(ctx echo.Context) error {
	var data payment.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	rec, err := api.ledger.CreateMonthlyRecord(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating payment record")
	}
	api.risk.Invalidate(ctx.Request().Context())
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	rec, err := api.ledger.GetRecord(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting payment record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *paymentApi) addVersement(ctx echo.Context) error {
	var data payment.NewVersement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVersement")
	}
	rec, err := api.ledger.RecordPayment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	api.risk.Invalidate(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, rec)
}
