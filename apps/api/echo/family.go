package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core/audit"
	"github.com/yardimel/yardimel/core/family"
)

type familyApi struct {
	svc      family.Service
	rec      auditRecorder
	validate *validator.Validate
}

func registerFamilyAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc family.Service, rec auditRecorder, validate *validator.Validate) {
	api := familyApi{
		svc:      svc,
		rec:      rec,
		validate: validate,
	}

	fg := g.Group("/families", jwt)
	fg.GET("", api.query)
	fg.POST("", api.create, familyEditorMiddleware())
	fg.GET("/:id", api.retrieve)
	fg.PUT("/:id", api.update, familyEditorMiddleware())
	fg.PUT("/:id/status", api.setStatus, managerMiddleware())
	fg.DELETE("/:id", api.archive, managerMiddleware())

	fg.GET("/:id/members", api.queryMembers)
	fg.POST("/:id/members", api.addMember, familyEditorMiddleware())
	fg.PUT("/:id/members/:memberID", api.updateMember, familyEditorMiddleware())
	fg.DELETE("/:id/members/:memberID", api.removeMember, familyEditorMiddleware())

	fg.GET("/:id/documents", api.queryDocuments)
	fg.POST("/:id/documents", api.addDocument, familyEditorMiddleware())
	fg.DELETE("/:id/documents/:documentID", api.removeDocument, familyEditorMiddleware())
}

func (api *familyApi) create(ctx echo.Context) error {
	var data family.NewFamily
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFamily")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	fam, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating family")
	}
	api.rec.record(ctx, audit.ActionCreate, "family", fam.ID, nil)

	return ctx.JSON(http.StatusCreated, fam)
}

func (api *familyApi) query(ctx echo.Context) error {
	filter := new(family.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []family.Family{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	fams, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying families")
	}
	if fams == nil {
		fams = []family.Family{}
	}
	return ctx.JSON(http.StatusOK, fams)
}

func (api *familyApi) retrieve(ctx echo.Context) error {
	fam, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding family by ID")
	}
	return ctx.JSON(http.StatusOK, fam)
}

func (api *familyApi) update(ctx echo.Context) error {
	fam, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding family by ID")
	}

	var data family.UpdateFamily
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateFamily")
	}
	if err := data.Validate(fam, api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	fam, err = api.svc.Update(ctx.Request().Context(), fam.ID, data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "updating family")
	}
	api.rec.record(ctx, audit.ActionUpdate, "family", fam.ID, data)

	return ctx.JSON(http.StatusOK, fam)
}

func (api *familyApi) setStatus(ctx echo.Context) error {
	var data StatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	fam, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "setting family status")
	}
	api.rec.record(ctx, audit.ActionUpdate, "family", fam.ID, data)

	return ctx.JSON(http.StatusOK, fam)
}

func (api *familyApi) archive(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	fam, err := api.svc.Archive(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "archiving family")
	}
	api.rec.record(ctx, audit.ActionDelete, "family", fam.ID, nil)

	return ctx.NoContent(http.StatusNoContent)
}

// Members

func (api *familyApi) queryMembers(ctx echo.Context) error {
	members, err := api.svc.Members(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying family members")
	}
	if members == nil {
		members = []family.Member{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *familyApi) addMember(ctx echo.Context) error {
	var data family.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mbr, err := api.svc.AddMember(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding family member")
	}
	api.rec.record(ctx, audit.ActionCreate, "family_member", mbr.ID, nil)

	return ctx.JSON(http.StatusCreated, mbr)
}

func (api *familyApi) updateMember(ctx echo.Context) error {
	orig, err := api.findMember(ctx)
	if err != nil {
		return err
	}

	var data family.UpdateMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMember")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	mbr, err := api.svc.UpdateMember(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating family member")
	}
	api.rec.record(ctx, audit.ActionUpdate, "family_member", mbr.ID, data)

	return ctx.JSON(http.StatusOK, mbr)
}

func (api *familyApi) removeMember(ctx echo.Context) error {
	mbr, err := api.findMember(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.RemoveMember(ctx.Request().Context(), mbr.ID); err != nil {
		return errors.Wrap(err, "removing family member")
	}
	api.rec.record(ctx, audit.ActionDelete, "family_member", mbr.ID, nil)

	return ctx.NoContent(http.StatusNoContent)
}

// findMember resolves :memberID within the family addressed by :id.
func (api *familyApi) findMember(ctx echo.Context) (family.Member, error) {
	members, err := api.svc.Members(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return family.Member{}, errors.Wrap(err, "querying family members")
	}
	for _, mbr := range members {
		if mbr.ID == ctx.Param("memberID") {
			return mbr, nil
		}
	}
	return family.Member{}, family.ErrMemberNotFound
}

// Documents

func (api *familyApi) queryDocuments(ctx echo.Context) error {
	docs, err := api.svc.Documents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying family documents")
	}
	if docs == nil {
		docs = []family.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *familyApi) addDocument(ctx echo.Context) error {
	var data family.NewDocument
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDocument")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	doc, err := api.svc.AddDocument(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "adding family document")
	}
	api.rec.record(ctx, audit.ActionCreate, "family_document", doc.ID, nil)

	return ctx.JSON(http.StatusCreated, doc)
}

func (api *familyApi) removeDocument(ctx echo.Context) error {
	docs, err := api.svc.Documents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying family documents")
	}
	for _, doc := range docs {
		if doc.ID == ctx.Param("documentID") {
			if err := api.svc.RemoveDocument(ctx.Request().Context(), doc.ID); err != nil {
				return errors.Wrap(err, "removing family document")
			}
			api.rec.record(ctx, audit.ActionDelete, "family_document", doc.ID, nil)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return family.ErrDocumentNotFound
}

type StatusRequest struct {
	Status string `json:"status"`
}
