package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core/audit"
	"github.com/yardimel/yardimel/core/cms"
)

type cmsApi struct {
	svc      cms.Service
	rec      auditRecorder
	validate *validator.Validate
}

func registerCMSAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc cms.Service, rec auditRecorder, validate *validator.Validate) {
	api := cmsApi{
		svc:      svc,
		rec:      rec,
		validate: validate,
	}

	// public site endpoints; no auth
	pg := g.Group("/public")
	pg.GET("/news", api.publicNews)
	pg.GET("/news/:slug", api.readNews)
	pg.GET("/pages/:slug", api.readPage)
	pg.GET("/galleries", api.publicGalleries)
	pg.GET("/galleries/:slug", api.readGallery)
	pg.GET("/faqs", api.publicFAQs)
	pg.GET("/testimonials", api.publicTestimonials)
	pg.GET("/settings", api.publicSettings)
	pg.POST("/contact", api.submitContactMessage)

	// staff endpoints
	cg := g.Group("/cms", jwt, managerMiddleware())

	cg.GET("/news-categories", api.queryNewsCategories)
	cg.POST("/news-categories", api.createNewsCategory)
	cg.DELETE("/news-categories/:id", api.archiveNewsCategory)

	cg.GET("/news", api.queryNews)
	cg.POST("/news", api.createNews)
	cg.GET("/news/:id", api.retrieveNews)
	cg.PUT("/news/:id", api.updateNews)
	cg.PUT("/news/:id/publish", api.publishNews)
	cg.PUT("/news/:id/unpublish", api.unpublishNews)
	cg.DELETE("/news/:id", api.archiveNews)

	cg.GET("/pages", api.queryPages)
	cg.POST("/pages", api.createPage)
	cg.GET("/pages/:id", api.retrievePage)
	cg.PUT("/pages/:id/publish", api.publishPage)
	cg.DELETE("/pages/:id", api.archivePage)

	cg.GET("/galleries", api.queryGalleries)
	cg.POST("/galleries", api.createGallery)
	cg.GET("/galleries/:id", api.retrieveGallery)
	cg.PUT("/galleries/:id/publish", api.publishGallery)
	cg.DELETE("/galleries/:id", api.archiveGallery)
	cg.POST("/galleries/:id/photos", api.addGalleryPhoto)
	cg.DELETE("/galleries/:id/photos/:photoID", api.removeGalleryPhoto)

	cg.GET("/faqs", api.queryFAQs)
	cg.POST("/faqs", api.createFAQ)
	cg.DELETE("/faqs/:id", api.archiveFAQ)

	cg.GET("/testimonials", api.queryTestimonials)
	cg.POST("/testimonials", api.createTestimonial)
	cg.DELETE("/testimonials/:id", api.archiveTestimonial)

	cg.GET("/messages", api.queryContactMessages)
	cg.GET("/messages/:id", api.retrieveContactMessage)
	cg.PUT("/messages/:id/read", api.markMessageRead)
	cg.PUT("/messages/:id/reply", api.markMessageReplied)

	cg.GET("/settings", api.retrieveSettings)
	cg.PUT("/settings", api.updateSettings)
}

// Public handlers

func (api *cmsApi) publicNews(ctx echo.Context) error {
	var filter cms.NewsQueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []cms.News{})
	}
	filter.Clean()
	filter.Status = cms.NewsPublished

	posts, err := api.svc.QueryNews(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying news")
	}
	if posts == nil {
		posts = []cms.News{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *cmsApi) readNews(ctx echo.Context) error {
	post, err := api.svc.ReadNews(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "reading news post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *cmsApi) readPage(ctx echo.Context) error {
	page, err := api.svc.ReadPage(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "reading page")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *cmsApi) publicGalleries(ctx echo.Context) error {
	galleries, err := api.svc.QueryGalleries(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying galleries")
	}
	public := make([]cms.Gallery, 0, len(galleries))
	for _, gal := range galleries {
		if gal.IsPublished {
			public = append(public, gal)
		}
	}
	return ctx.JSON(http.StatusOK, public)
}

func (api *cmsApi) readGallery(ctx echo.Context) error {
	gal, photos, err := api.svc.ReadGallery(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "reading gallery")
	}
	if photos == nil {
		photos = []cms.GalleryPhoto{}
	}
	return ctx.JSON(http.StatusOK, GalleryResponse{Gallery: gal, Photos: photos})
}

func (api *cmsApi) publicFAQs(ctx echo.Context) error {
	faqs, err := api.svc.QueryFAQs(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying faqs")
	}
	public := make([]cms.FAQ, 0, len(faqs))
	for _, faq := range faqs {
		if faq.IsActive == nil || *faq.IsActive {
			public = append(public, faq)
		}
	}
	return ctx.JSON(http.StatusOK, public)
}

func (api *cmsApi) publicTestimonials(ctx echo.Context) error {
	tms, err := api.svc.QueryTestimonials(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying testimonials")
	}
	public := make([]cms.Testimonial, 0, len(tms))
	for _, tm := range tms {
		if tm.IsActive == nil || *tm.IsActive {
			public = append(public, tm)
		}
	}
	return ctx.JSON(http.StatusOK, public)
}

func (api *cmsApi) publicSettings(ctx echo.Context) error {
	ss, err := api.svc.GetSiteSettings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting site settings")
	}
	return ctx.JSON(http.StatusOK, ss)
}

func (api *cmsApi) submitContactMessage(ctx echo.Context) error {
	var data cms.NewContactMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContactMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.svc.SubmitContactMessage(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting contact message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

// News categories

func (api *cmsApi) queryNewsCategories(ctx echo.Context) error {
	cats, err := api.svc.QueryNewsCategories(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying news categories")
	}
	if cats == nil {
		cats = []cms.NewsCategory{}
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *cmsApi) createNewsCategory(ctx echo.Context) error {
	var data cms.NewNewsCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNewsCategory")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.CreateNewsCategory(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating news category")
	}
	api.rec.record(ctx, audit.ActionCreate, "news_category", cat.ID, nil)

	return ctx.JSON(http.StatusCreated, cat)
}

func (api *cmsApi) archiveNewsCategory(ctx echo.Context) error {
	if err := api.svc.ArchiveNewsCategory(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "archiving news category")
	}
	api.rec.record(ctx, audit.ActionDelete, "news_category", ctx.Param("id"), nil)
	return ctx.NoContent(http.StatusNoContent)
}

// News

func (api *cmsApi) queryNews(ctx echo.Context) error {
	var filter cms.NewsQueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []cms.News{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	posts, err := api.svc.QueryNews(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying news")
	}
	if posts == nil {
		posts = []cms.News{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *cmsApi) createNews(ctx echo.Context) error {
	var data cms.NewNews
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNews")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	post, err := api.svc.CreateNews(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating news post")
	}
	api.rec.record(ctx, audit.ActionCreate, "news", post.ID, nil)

	return ctx.JSON(http.StatusCreated, post)
}

func (api *cmsApi) retrieveNews(ctx echo.Context) error {
	post, err := api.svc.GetNews(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding news post by ID")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *cmsApi) updateNews(ctx echo.Context) error {
	post, err := api.svc.GetNews(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding news post by ID")
	}

	var data cms.UpdateNews
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNews")
	}
	if err := data.Validate(api.validate, api.svc, post); err != nil {
		return err
	}

	post, err = api.svc.UpdateNews(ctx.Request().Context(), post.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating news post")
	}
	api.rec.record(ctx, audit.ActionUpdate, "news", post.ID, data)

	return ctx.JSON(http.StatusOK, post)
}

func (api *cmsApi) publishNews(ctx echo.Context) error {
	post, err := api.svc.PublishNews(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "publishing news post")
	}
	api.rec.record(ctx, audit.ActionUpdate, "news", post.ID, echo.Map{"is_published": true})
	return ctx.JSON(http.StatusOK, post)
}

func (api *cmsApi) unpublishNews(ctx echo.Context) error {
	post, err := api.svc.UnpublishNews(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "unpublishing news post")
	}
	api.rec.record(ctx, audit.ActionUpdate, "news", post.ID, echo.Map{"is_published": false})
	return ctx.JSON(http.StatusOK, post)
}

func (api *cmsApi) archiveNews(ctx echo.Context) error {
	if err := api.svc.ArchiveNews(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "archiving news post")
	}
	api.rec.record(ctx, audit.ActionDelete, "news", ctx.Param("id"), nil)
	return ctx.NoContent(http.StatusNoContent)
}

// Pages

func (api *cmsApi) queryPages(ctx echo.Context) error {
	pages, err := api.svc.QueryPages(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying pages")
	}
	if pages == nil {
		pages = []cms.Page{}
	}
	return ctx.JSON(http.StatusOK, pages)
}

func (api *cmsApi) createPage(ctx echo.Context) error {
	var data cms.NewPage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	page, err := api.svc.CreatePage(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating page")
	}
	api.rec.record(ctx, audit.ActionCreate, "page", page.ID, nil)

	return ctx.JSON(http.StatusCreated, page)
}

func (api *cmsApi) retrievePage(ctx echo.Context) error {
	page, err := api.svc.GetPage(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding page by ID")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *cmsApi) publishPage(ctx echo.Context) error {
	page, err := api.svc.PublishPage(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "publishing page")
	}
	api.rec.record(ctx, audit.ActionUpdate, "page", page.ID, echo.Map{"is_published": true})
	return ctx.JSON(http.StatusOK, page)
}

func (api *cmsApi) archivePage(ctx echo.Context) error {
	if err := api.svc.ArchivePage(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "archiving page")
	}
	api.rec.record(ctx, audit.ActionDelete, "page", ctx.Param("id"), nil)
	return ctx.NoContent(http.StatusNoContent)
}

// Galleries

func (api *cmsApi) queryGalleries(ctx echo.Context) error {
	galleries, err := api.svc.QueryGalleries(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying galleries")
	}
	if galleries == nil {
		galleries = []cms.Gallery{}
	}
	return ctx.JSON(http.StatusOK, galleries)
}

func (api *cmsApi) createGallery(ctx echo.Context) error {
	var data cms.NewGallery
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGallery")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	gal, err := api.svc.CreateGallery(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating gallery")
	}
	api.rec.record(ctx, audit.ActionCreate, "gallery", gal.ID, nil)

	return ctx.JSON(http.StatusCreated, gal)
}

func (api *cmsApi) retrieveGallery(ctx echo.Context) error {
	gal, photos, err := api.svc.GetGallery(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding gallery by ID")
	}
	if photos == nil {
		photos = []cms.GalleryPhoto{}
	}
	return ctx.JSON(http.StatusOK, GalleryResponse{Gallery: gal, Photos: photos})
}

func (api *cmsApi) publishGallery(ctx echo.Context) error {
	gal, err := api.svc.PublishGallery(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "publishing gallery")
	}
	api.rec.record(ctx, audit.ActionUpdate, "gallery", gal.ID, echo.Map{"is_published": true})
	return ctx.JSON(http.StatusOK, gal)
}

func (api *cmsApi) archiveGallery(ctx echo.Context) error {
	if err := api.svc.ArchiveGallery(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "archiving gallery")
	}
	api.rec.record(ctx, audit.ActionDelete, "gallery", ctx.Param("id"), nil)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *cmsApi) addGalleryPhoto(ctx echo.Context) error {
	var data cms.NewGalleryPhoto
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGalleryPhoto")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	photo, err := api.svc.AddGalleryPhoto(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding gallery photo")
	}
	api.rec.record(ctx, audit.ActionCreate, "gallery_photo", photo.ID, nil)

	return ctx.JSON(http.StatusCreated, photo)
}

func (api *cmsApi) removeGalleryPhoto(ctx echo.Context) error {
	if err := api.svc.RemoveGalleryPhoto(ctx.Request().Context(), ctx.Param("id"), ctx.Param("photoID")); err != nil {
		return errors.Wrap(err, "removing gallery photo")
	}
	api.rec.record(ctx, audit.ActionDelete, "gallery_photo", ctx.Param("photoID"), nil)
	return ctx.NoContent(http.StatusNoContent)
}

// FAQs

func (api *cmsApi) queryFAQs(ctx echo.Context) error {
	faqs, err := api.svc.QueryFAQs(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying faqs")
	}
	if faqs == nil {
		faqs = []cms.FAQ{}
	}
	return ctx.JSON(http.StatusOK, faqs)
}

func (api *cmsApi) createFAQ(ctx echo.Context) error {
	var data cms.NewFAQ
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFAQ")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	faq, err := api.svc.CreateFAQ(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating faq")
	}
	api.rec.record(ctx, audit.ActionCreate, "faq", faq.ID, nil)

	return ctx.JSON(http.StatusCreated, faq)
}

func (api *cmsApi) archiveFAQ(ctx echo.Context) error {
	if err := api.svc.ArchiveFAQ(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "archiving faq")
	}
	api.rec.record(ctx, audit.ActionDelete, "faq", ctx.Param("id"), nil)
	return ctx.NoContent(http.StatusNoContent)
}

// Testimonials

func (api *cmsApi) queryTestimonials(ctx echo.Context) error {
	tms, err := api.svc.QueryTestimonials(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying testimonials")
	}
	if tms == nil {
		tms = []cms.Testimonial{}
	}
	return ctx.JSON(http.StatusOK, tms)
}

func (api *cmsApi) createTestimonial(ctx echo.Context) error {
	var data cms.NewTestimonial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTestimonial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tm, err := api.svc.CreateTestimonial(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating testimonial")
	}
	api.rec.record(ctx, audit.ActionCreate, "testimonial", tm.ID, nil)

	return ctx.JSON(http.StatusCreated, tm)
}

func (api *cmsApi) archiveTestimonial(ctx echo.Context) error {
	if err := api.svc.ArchiveTestimonial(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "archiving testimonial")
	}
	api.rec.record(ctx, audit.ActionDelete, "testimonial", ctx.Param("id"), nil)
	return ctx.NoContent(http.StatusNoContent)
}

// Contact messages

func (api *cmsApi) queryContactMessages(ctx echo.Context) error {
	var filter cms.MessageQueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []cms.ContactMessage{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	msgs, err := api.svc.QueryContactMessages(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying contact messages")
	}
	if msgs == nil {
		msgs = []cms.ContactMessage{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *cmsApi) retrieveContactMessage(ctx echo.Context) error {
	msg, err := api.svc.GetContactMessage(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding contact message by ID")
	}
	return ctx.JSON(http.StatusOK, msg)
}

func (api *cmsApi) markMessageRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	msg, err := api.svc.MarkMessageRead(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "marking message read")
	}
	api.rec.record(ctx, audit.ActionUpdate, "contact_message", msg.ID, echo.Map{"status": msg.Status})

	return ctx.JSON(http.StatusOK, msg)
}

func (api *cmsApi) markMessageReplied(ctx echo.Context) error {
	var data ReplyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReplyRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	msg, err := api.svc.MarkMessageReplied(ctx.Request().Context(), ctx.Param("id"), data.Note, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "marking message replied")
	}
	api.rec.record(ctx, audit.ActionUpdate, "contact_message", msg.ID, echo.Map{"status": msg.Status})

	return ctx.JSON(http.StatusOK, msg)
}

// Site settings

func (api *cmsApi) retrieveSettings(ctx echo.Context) error {
	ss, err := api.svc.GetSiteSettings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting site settings")
	}
	return ctx.JSON(http.StatusOK, ss)
}

func (api *cmsApi) updateSettings(ctx echo.Context) error {
	var data cms.UpdateSiteSettings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSiteSettings")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ss, err := api.svc.UpdateSiteSettings(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "updating site settings")
	}
	api.rec.record(ctx, audit.ActionUpdate, "site_settings", ss.ID, data)

	return ctx.JSON(http.StatusOK, ss)
}

type (
	ReplyRequest struct {
		Note string `json:"note"`
	}

	GalleryResponse struct {
		Gallery cms.Gallery        `json:"gallery"`
		Photos  []cms.GalleryPhoto `json:"photos"`
	}
)
