package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/audit"
	"github.com/yardimel/yardimel/core/finance"
)

type financeApi struct {
	svc      finance.Service
	rec      auditRecorder
	validate *validator.Validate
}

func registerFinanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc finance.Service, rec auditRecorder, validate *validator.Validate) {
	api := financeApi{
		svc:      svc,
		rec:      rec,
		validate: validate,
	}

	fg := g.Group("/finance", jwt, financeMiddleware())

	fg.GET("/cash-aids", api.queryCashAids)
	fg.POST("/cash-aids", api.createCashAid)
	fg.GET("/cash-aids/:id", api.retrieveCashAid)
	fg.PUT("/cash-aids/:id/approve", api.approveCashAid)
	fg.PUT("/cash-aids/:id/reject", api.rejectCashAid)
	fg.PUT("/cash-aids/:id/pay", api.payCashAid)
	fg.PUT("/cash-aids/:id/cancel", api.cancelCashAid)

	fg.GET("/invoices", api.queryInvoices)
	fg.POST("/invoices", api.createInvoice)
	fg.GET("/invoices/:id", api.retrieveInvoice)
	fg.PUT("/invoices/:id/reserve", api.reserveInvoice)
	fg.PUT("/invoices/:id/release", api.releaseInvoice)
	fg.PUT("/invoices/:id/use", api.useInvoice)
	fg.POST("/invoices/expire", api.expireInvoices)

	fg.GET("/transactions", api.queryTransactions)
	fg.POST("/transactions", api.recordTransaction)
	fg.GET("/transactions/:id", api.retrieveTransaction)
	fg.GET("/summary", api.summary)

	fg.GET("/budgets", api.queryBudgets)
	fg.POST("/budgets", api.createBudget)
	fg.GET("/budgets/:id", api.retrieveBudget)
	fg.GET("/budgets/:id/usage", api.budgetUsage)
	fg.DELETE("/budgets/:id", api.archiveBudget)
}

// Cash aids

func (api *financeApi) createCashAid(ctx echo.Context) error {
	var data finance.NewCashAid
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCashAid")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ca, err := api.svc.CreateCashAid(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating cash aid")
	}
	api.rec.record(ctx, audit.ActionCreate, "cash_aid", ca.ID, nil)

	return ctx.JSON(http.StatusCreated, ca)
}

func (api *financeApi) queryCashAids(ctx echo.Context) error {
	var filter finance.CashAidQueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []finance.CashAid{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	cas, err := api.svc.QueryCashAids(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying cash aids")
	}
	if cas == nil {
		cas = []finance.CashAid{}
	}
	return ctx.JSON(http.StatusOK, cas)
}

func (api *financeApi) retrieveCashAid(ctx echo.Context) error {
	ca, err := api.svc.GetCashAid(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding cash aid by ID")
	}
	return ctx.JSON(http.StatusOK, ca)
}

func (api *financeApi) approveCashAid(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ca, err := api.svc.ApproveCashAid(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "approving cash aid")
	}
	api.rec.record(ctx, audit.ActionApprove, "cash_aid", ca.ID, echo.Map{"status": ca.Status})

	return ctx.JSON(http.StatusOK, ca)
}

func (api *financeApi) rejectCashAid(ctx echo.Context) error {
	var data ReasonRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReasonRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ca, err := api.svc.RejectCashAid(ctx.Request().Context(), ctx.Param("id"), data.Reason, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "rejecting cash aid")
	}
	api.rec.record(ctx, audit.ActionReject, "cash_aid", ca.ID, echo.Map{"status": ca.Status})

	return ctx.JSON(http.StatusOK, ca)
}

func (api *financeApi) payCashAid(ctx echo.Context) error {
	var data finance.PayCashAid
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PayCashAid")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ca, err := api.svc.PayCashAid(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "paying cash aid")
	}
	api.rec.record(ctx, audit.ActionUpdate, "cash_aid", ca.ID, echo.Map{"status": ca.Status})

	return ctx.JSON(http.StatusOK, ca)
}

func (api *financeApi) cancelCashAid(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ca, err := api.svc.CancelCashAid(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "cancelling cash aid")
	}
	api.rec.record(ctx, audit.ActionUpdate, "cash_aid", ca.ID, echo.Map{"status": ca.Status})

	return ctx.JSON(http.StatusOK, ca)
}

// Pending invoices

func (api *financeApi) createInvoice(ctx echo.Context) error {
	var data finance.NewPendingInvoice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPendingInvoice")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	inv, err := api.svc.CreateInvoice(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating invoice")
	}
	api.rec.record(ctx, audit.ActionCreate, "pending_invoice", inv.ID, nil)

	return ctx.JSON(http.StatusCreated, inv)
}

func (api *financeApi) queryInvoices(ctx echo.Context) error {
	var filter finance.InvoiceQueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []finance.PendingInvoice{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	invs, err := api.svc.QueryInvoices(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}
	if invs == nil {
		invs = []finance.PendingInvoice{}
	}
	return ctx.JSON(http.StatusOK, invs)
}

func (api *financeApi) retrieveInvoice(ctx echo.Context) error {
	inv, err := api.svc.GetInvoice(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding invoice by ID")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *financeApi) reserveInvoice(ctx echo.Context) error {
	var data ReserveInvoiceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReserveInvoiceRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	inv, err := api.svc.ReserveInvoice(ctx.Request().Context(), ctx.Param("id"), data.FamilyID, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "reserving invoice")
	}
	api.rec.record(ctx, audit.ActionUpdate, "pending_invoice", inv.ID, echo.Map{"status": inv.Status})

	return ctx.JSON(http.StatusOK, inv)
}

func (api *financeApi) releaseInvoice(ctx echo.Context) error {
	inv, err := api.svc.ReleaseInvoice(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "releasing invoice")
	}
	api.rec.record(ctx, audit.ActionUpdate, "pending_invoice", inv.ID, echo.Map{"status": inv.Status})

	return ctx.JSON(http.StatusOK, inv)
}

func (api *financeApi) useInvoice(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	inv, err := api.svc.UseInvoice(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "using invoice")
	}
	api.rec.record(ctx, audit.ActionUpdate, "pending_invoice", inv.ID, echo.Map{"status": inv.Status})

	return ctx.JSON(http.StatusOK, inv)
}

func (api *financeApi) expireInvoices(ctx echo.Context) error {
	n, err := api.svc.ExpireInvoices(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "expiring invoices")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"expired": n})
}

// Transactions

func (api *financeApi) recordTransaction(ctx echo.Context) error {
	var data finance.NewTransaction
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTransaction")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	txn, err := api.svc.RecordTransaction(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "recording transaction")
	}
	api.rec.record(ctx, audit.ActionCreate, "transaction", txn.ID, nil)

	return ctx.JSON(http.StatusCreated, txn)
}

func (api *financeApi) queryTransactions(ctx echo.Context) error {
	var filter finance.TransactionQueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []finance.Transaction{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	txns, err := api.svc.QueryTransactions(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	if txns == nil {
		txns = []finance.Transaction{}
	}
	return ctx.JSON(http.StatusOK, txns)
}

func (api *financeApi) retrieveTransaction(ctx echo.Context) error {
	txn, err := api.svc.GetTransaction(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding transaction by ID")
	}
	return ctx.JSON(http.StatusOK, txn)
}

func (api *financeApi) summary(ctx echo.Context) error {
	from, err := parseTimeParam(ctx, "from")
	if err != nil {
		return err
	}
	to, err := parseTimeParam(ctx, "to")
	if err != nil {
		return err
	}

	sum, err := api.svc.Summarize(ctx.Request().Context(), from, to)
	if err != nil {
		return errors.Wrap(err, "summarizing transactions")
	}
	return ctx.JSON(http.StatusOK, sum)
}

// Budgets

func (api *financeApi) createBudget(ctx echo.Context) error {
	var data finance.NewBudget
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBudget")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	bgt, err := api.svc.CreateBudget(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating budget")
	}
	api.rec.record(ctx, audit.ActionCreate, "budget", bgt.ID, nil)

	return ctx.JSON(http.StatusCreated, bgt)
}

func (api *financeApi) queryBudgets(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	bgts, err := api.svc.QueryBudgets(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying budgets")
	}
	if bgts == nil {
		bgts = []finance.Budget{}
	}
	return ctx.JSON(http.StatusOK, bgts)
}

func (api *financeApi) retrieveBudget(ctx echo.Context) error {
	bgt, err := api.svc.GetBudget(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding budget by ID")
	}
	return ctx.JSON(http.StatusOK, bgt)
}

func (api *financeApi) budgetUsage(ctx echo.Context) error {
	bgt, spent, err := api.svc.BudgetUsage(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing budget usage")
	}
	return ctx.JSON(http.StatusOK, BudgetUsageResponse{Budget: bgt, SpentAmount: spent})
}

func (api *financeApi) archiveBudget(ctx echo.Context) error {
	if err := api.svc.ArchiveBudget(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "archiving budget")
	}
	api.rec.record(ctx, audit.ActionDelete, "budget", ctx.Param("id"), nil)
	return ctx.NoContent(http.StatusNoContent)
}

func parseTimeParam(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be a valid RFC3339 timestamp"})
	}
	return t, nil
}

type (
	ReasonRequest struct {
		Reason string `json:"reason"`
	}

	ReserveInvoiceRequest struct {
		FamilyID string `json:"family_id" validate:"required,uuid4"`
	}

	BudgetUsageResponse struct {
		Budget      finance.Budget `json:"budget"`
		SpentAmount int64          `json:"spent_amount"`
	}
)
