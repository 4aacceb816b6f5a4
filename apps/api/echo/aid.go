package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core/aid"
	"github.com/yardimel/yardimel/core/audit"
)

type aidApi struct {
	svc      aid.Service
	rec      auditRecorder
	validate *validator.Validate
}

func registerAidAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc aid.Service, rec auditRecorder, validate *validator.Validate) {
	api := aidApi{
		svc:      svc,
		rec:      rec,
		validate: validate,
	}

	ag := g.Group("/aid", jwt)

	ag.GET("/requests", api.queryRequests)
	ag.POST("/requests", api.createRequest, familyEditorMiddleware())
	ag.GET("/requests/:id", api.retrieveRequest)
	ag.PUT("/requests/:id/approve", api.approveRequest, aidApproverMiddleware())
	ag.PUT("/requests/:id/reject", api.rejectRequest, aidApproverMiddleware())
	ag.PUT("/requests/:id/prepare", api.prepareRequest, familyEditorMiddleware())
	ag.PUT("/requests/:id/distribute", api.distributeRequest, familyEditorMiddleware())
	ag.PUT("/requests/:id/cancel", api.cancelRequest, aidApproverMiddleware())

	ag.GET("/distributions", api.queryDistributions)
	ag.POST("/distributions", api.createDistribution, managerMiddleware())
	ag.GET("/distributions/:id", api.retrieveDistribution)
	ag.PUT("/distributions/:id/complete", api.completeDistribution, managerMiddleware())
}

// Requests

func (api *aidApi) createRequest(ctx echo.Context) error {
	var data aid.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	req, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating aid request")
	}
	api.rec.record(ctx, audit.ActionCreate, "aid_request", req.ID, nil)

	return ctx.JSON(http.StatusCreated, req)
}

func (api *aidApi) queryRequests(ctx echo.Context) error {
	var filter aid.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []aid.Request{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	reqs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying aid requests")
	}
	if reqs == nil {
		reqs = []aid.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *aidApi) retrieveRequest(ctx echo.Context) error {
	req, items, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding aid request by ID")
	}
	if items == nil {
		items = []aid.RequestItem{}
	}
	return ctx.JSON(http.StatusOK, RequestResponse{Request: req, Items: items})
}

func (api *aidApi) approveRequest(ctx echo.Context) error {
	var data aid.ApproveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ApproveRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	req, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "approving aid request")
	}
	api.rec.record(ctx, audit.ActionApprove, "aid_request", req.ID, echo.Map{"status": req.Status})

	return ctx.JSON(http.StatusOK, req)
}

func (api *aidApi) rejectRequest(ctx echo.Context) error {
	var data aid.RejectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RejectRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	req, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "rejecting aid request")
	}
	api.rec.record(ctx, audit.ActionReject, "aid_request", req.ID, echo.Map{"status": req.Status})

	return ctx.JSON(http.StatusOK, req)
}

func (api *aidApi) prepareRequest(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	req, err := api.svc.Prepare(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "preparing aid request")
	}
	api.rec.record(ctx, audit.ActionUpdate, "aid_request", req.ID, echo.Map{"status": req.Status})

	return ctx.JSON(http.StatusOK, req)
}

func (api *aidApi) distributeRequest(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	req, err := api.svc.Distribute(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "distributing aid request")
	}
	api.rec.record(ctx, audit.ActionUpdate, "aid_request", req.ID, echo.Map{"status": req.Status})

	return ctx.JSON(http.StatusOK, req)
}

func (api *aidApi) cancelRequest(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	req, err := api.svc.Cancel(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "cancelling aid request")
	}
	api.rec.record(ctx, audit.ActionUpdate, "aid_request", req.ID, echo.Map{"status": req.Status})

	return ctx.JSON(http.StatusOK, req)
}

// Distributions

func (api *aidApi) createDistribution(ctx echo.Context) error {
	var data aid.NewDistribution
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDistribution")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	dist, err := api.svc.CreateDistribution(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating distribution")
	}
	api.rec.record(ctx, audit.ActionCreate, "distribution", dist.ID, nil)

	return ctx.JSON(http.StatusCreated, dist)
}

func (api *aidApi) queryDistributions(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	dists, err := api.svc.QueryDistributions(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying distributions")
	}
	if dists == nil {
		dists = []aid.Distribution{}
	}
	return ctx.JSON(http.StatusOK, dists)
}

func (api *aidApi) retrieveDistribution(ctx echo.Context) error {
	dist, err := api.svc.GetDistribution(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding distribution by ID")
	}
	return ctx.JSON(http.StatusOK, dist)
}

func (api *aidApi) completeDistribution(ctx echo.Context) error {
	dist, err := api.svc.CompleteDistribution(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing distribution")
	}
	api.rec.record(ctx, audit.ActionUpdate, "distribution", dist.ID, echo.Map{"is_completed": dist.IsCompleted})

	return ctx.JSON(http.StatusOK, dist)
}

type RequestResponse struct {
	Request aid.Request       `json:"request"`
	Items   []aid.RequestItem `json:"items"`
}
