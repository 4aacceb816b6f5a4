package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core/audit"
)

// auditRecorder attaches a trail entry to mutating handlers. Failures are
// logged by the audit service and never surface to the caller.
type auditRecorder struct {
	svc audit.Service
}

func (rec auditRecorder) record(ctx echo.Context, action, entity, objectID string, changes interface{}) {
	if rec.svc == nil {
		return
	}
	var userID string
	if claims, err := getContextClaims(ctx); err == nil {
		userID = claims.Subject
	}
	_, _ = rec.svc.Record(
		ctx.Request().Context(),
		userID, action, entity, objectID, changes,
		ctx.RealIP(), ctx.Request().UserAgent(),
	)
}

type auditApi struct {
	svc audit.Service
}

func registerAuditAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc audit.Service) {
	api := auditApi{svc: svc}

	ag := g.Group("/audit", jwt, adminMiddleware())
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
}

func (api *auditApi) query(ctx echo.Context) error {
	var filter audit.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []audit.Entry{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying audit entries")
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *auditApi) retrieve(ctx echo.Context) error {
	entry, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding audit entry by ID")
	}
	return ctx.JSON(http.StatusOK, entry)
}
