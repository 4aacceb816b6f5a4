package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core/audit"
	"github.com/yardimel/yardimel/core/inventory"
)

type inventoryApi struct {
	svc      inventory.Service
	rec      auditRecorder
	validate *validator.Validate
}

func registerInventoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc inventory.Service, rec auditRecorder, validate *validator.Validate) {
	api := inventoryApi{
		svc:      svc,
		rec:      rec,
		validate: validate,
	}

	ig := g.Group("/inventory", jwt)

	ig.GET("/categories", api.queryCategories)
	ig.POST("/categories", api.createCategory, managerMiddleware())
	ig.DELETE("/categories/:id", api.archiveCategory, managerMiddleware())

	ig.GET("/items", api.queryItems)
	ig.POST("/items", api.createItem, managerMiddleware())
	ig.GET("/items/:id", api.retrieveItem)
	ig.PUT("/items/:id", api.updateItem, managerMiddleware())
	ig.DELETE("/items/:id", api.archiveItem, managerMiddleware())

	ig.GET("/donors", api.queryDonors)
	ig.POST("/donors", api.createDonor, managerMiddleware())
	ig.GET("/donors/:id", api.retrieveDonor)
	ig.DELETE("/donors/:id", api.archiveDonor, managerMiddleware())

	ig.GET("/movements", api.queryMovements)
	ig.POST("/movements", api.recordMovement, managerMiddleware())

	ig.GET("/counts", api.queryCounts)
	ig.POST("/counts", api.createCount, managerMiddleware())
	ig.GET("/counts/:id", api.retrieveCount)
	ig.POST("/counts/:id/items", api.addCountItem, managerMiddleware())
	ig.PUT("/counts/:id/complete", api.completeCount, managerMiddleware())
	ig.PUT("/counts/:id/cancel", api.cancelCount, managerMiddleware())
}

// Categories

func (api *inventoryApi) queryCategories(ctx echo.Context) error {
	cats, err := api.svc.Categories(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	if cats == nil {
		cats = []inventory.Category{}
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *inventoryApi) createCategory(ctx echo.Context) error {
	var data inventory.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	cat, err := api.svc.CreateCategory(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	api.rec.record(ctx, audit.ActionCreate, "inventory_category", cat.ID, nil)

	return ctx.JSON(http.StatusCreated, cat)
}

func (api *inventoryApi) archiveCategory(ctx echo.Context) error {
	cat, err := api.svc.ArchiveCategory(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "archiving category")
	}
	api.rec.record(ctx, audit.ActionDelete, "inventory_category", cat.ID, nil)
	return ctx.NoContent(http.StatusNoContent)
}

// Items

func (api *inventoryApi) queryItems(ctx echo.Context) error {
	filter := new(inventory.ItemQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []inventory.Item{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.svc.QueryItems(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying items")
	}
	if items == nil {
		items = []inventory.Item{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *inventoryApi) createItem(ctx echo.Context) error {
	var data inventory.NewItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewItem")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	itm, err := api.svc.CreateItem(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating item")
	}
	api.rec.record(ctx, audit.ActionCreate, "inventory_item", itm.ID, nil)

	return ctx.JSON(http.StatusCreated, itm)
}

func (api *inventoryApi) retrieveItem(ctx echo.Context) error {
	itm, err := api.svc.GetItem(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding item by ID")
	}
	return ctx.JSON(http.StatusOK, itm)
}

func (api *inventoryApi) updateItem(ctx echo.Context) error {
	itm, err := api.svc.GetItem(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding item by ID")
	}

	var data inventory.UpdateItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateItem")
	}
	if err := data.Validate(itm, api.validate, api.svc); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	itm, err = api.svc.UpdateItem(ctx.Request().Context(), itm.ID, data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "updating item")
	}
	api.rec.record(ctx, audit.ActionUpdate, "inventory_item", itm.ID, data)

	return ctx.JSON(http.StatusOK, itm)
}

func (api *inventoryApi) archiveItem(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	itm, err := api.svc.ArchiveItem(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "archiving item")
	}
	api.rec.record(ctx, audit.ActionDelete, "inventory_item", itm.ID, nil)
	return ctx.NoContent(http.StatusNoContent)
}

// Donors

func (api *inventoryApi) queryDonors(ctx echo.Context) error {
	filter := new(inventory.DonorQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []inventory.Donor{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	donors, err := api.svc.QueryDonors(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying donors")
	}
	if donors == nil {
		donors = []inventory.Donor{}
	}
	return ctx.JSON(http.StatusOK, donors)
}

func (api *inventoryApi) createDonor(ctx echo.Context) error {
	var data inventory.NewDonor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDonor")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	donor, err := api.svc.CreateDonor(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating donor")
	}
	api.rec.record(ctx, audit.ActionCreate, "donor", donor.ID, nil)

	return ctx.JSON(http.StatusCreated, donor)
}

func (api *inventoryApi) retrieveDonor(ctx echo.Context) error {
	donor, err := api.svc.GetDonor(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding donor by ID")
	}
	return ctx.JSON(http.StatusOK, donor)
}

func (api *inventoryApi) archiveDonor(ctx echo.Context) error {
	donor, err := api.svc.ArchiveDonor(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "archiving donor")
	}
	api.rec.record(ctx, audit.ActionDelete, "donor", donor.ID, nil)
	return ctx.NoContent(http.StatusNoContent)
}

// Movements

func (api *inventoryApi) queryMovements(ctx echo.Context) error {
	filter := new(inventory.MovementQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []inventory.Movement{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	movements, err := api.svc.QueryMovements(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying movements")
	}
	if movements == nil {
		movements = []inventory.Movement{}
	}
	return ctx.JSON(http.StatusOK, movements)
}

func (api *inventoryApi) recordMovement(ctx echo.Context) error {
	var data inventory.NewMovement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMovement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	mv, err := api.svc.RecordMovement(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "recording movement")
	}
	api.rec.record(ctx, audit.ActionCreate, "stock_movement", mv.ID, nil)

	return ctx.JSON(http.StatusCreated, mv)
}

// Counts

func (api *inventoryApi) queryCounts(ctx echo.Context) error {
	counts, err := api.svc.QueryCounts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying counts")
	}
	if counts == nil {
		counts = []inventory.Count{}
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *inventoryApi) createCount(ctx echo.Context) error {
	var data inventory.NewCount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cnt, err := api.svc.CreateCount(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating count")
	}
	api.rec.record(ctx, audit.ActionCreate, "stock_count", cnt.ID, nil)

	return ctx.JSON(http.StatusCreated, cnt)
}

func (api *inventoryApi) retrieveCount(ctx echo.Context) error {
	cnt, items, err := api.svc.GetCount(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding count by ID")
	}
	if items == nil {
		items = []inventory.CountItem{}
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: cnt, Items: items})
}

func (api *inventoryApi) addCountItem(ctx echo.Context) error {
	var data inventory.NewCountItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCountItem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ci, err := api.svc.AddCountItem(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding count item")
	}
	api.rec.record(ctx, audit.ActionCreate, "stock_count_item", ci.ID, nil)

	return ctx.JSON(http.StatusCreated, ci)
}

func (api *inventoryApi) completeCount(ctx echo.Context) error {
	cnt, err := api.svc.CompleteCount(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing count")
	}
	api.rec.record(ctx, audit.ActionUpdate, "stock_count", cnt.ID, echo.Map{"status": cnt.Status})
	return ctx.JSON(http.StatusOK, cnt)
}

func (api *inventoryApi) cancelCount(ctx echo.Context) error {
	cnt, err := api.svc.CancelCount(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "cancelling count")
	}
	api.rec.record(ctx, audit.ActionUpdate, "stock_count", cnt.ID, echo.Map{"status": cnt.Status})
	return ctx.JSON(http.StatusOK, cnt)
}

type CountResponse struct {
	Count inventory.Count       `json:"count"`
	Items []inventory.CountItem `json:"items"`
}
