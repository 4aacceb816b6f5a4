package cms

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core"
)

var (
	ErrNewsNotFound        = errors.New("news post not found")
	ErrCategoryNotFound    = errors.New("news category not found")
	ErrPageNotFound        = errors.New("page not found")
	ErrGalleryNotFound     = errors.New("gallery not found")
	ErrPhotoNotFound       = errors.New("gallery photo not found")
	ErrFAQNotFound         = errors.New("faq not found")
	ErrTestimonialNotFound = errors.New("testimonial not found")
	ErrMessageNotFound     = errors.New("contact message not found")
	ErrSlugExists          = errors.New("a record with this slug already exists")
)

type (
	Repository interface {
		CreateNewsCategory(ctx context.Context, cat NewsCategory) (NewsCategory, error)
		GetNewsCategoryByID(ctx context.Context, id string) (NewsCategory, error)
		GetAllNewsCategories(ctx context.Context, ordering []core.DBOrdering) ([]NewsCategory, error)
		UpdateNewsCategory(ctx context.Context, cat NewsCategory) (NewsCategory, error)

		CheckNewsSlugUniqueness(ctx context.Context, slug string, excluded ...News) error
		CreateNews(ctx context.Context, n News) (News, error)
		GetNewsByID(ctx context.Context, id string) (News, error)
		GetNewsBySlug(ctx context.Context, slug string) (News, error)
		FilterNews(ctx context.Context, filter NewsQueryFilter, ordering []core.DBOrdering) ([]News, error)
		UpdateNews(ctx context.Context, n News) (News, error)
		IncrementNewsViewCount(ctx context.Context, id string) error

		CreatePage(ctx context.Context, p Page) (Page, error)
		GetPageByID(ctx context.Context, id string) (Page, error)
		GetPageBySlug(ctx context.Context, slug string) (Page, error)
		GetAllPages(ctx context.Context, ordering []core.DBOrdering) ([]Page, error)
		UpdatePage(ctx context.Context, p Page) (Page, error)

		CreateGallery(ctx context.Context, g Gallery) (Gallery, error)
		GetGalleryByID(ctx context.Context, id string) (Gallery, error)
		GetGalleryBySlug(ctx context.Context, slug string) (Gallery, error)
		GetAllGalleries(ctx context.Context, ordering []core.DBOrdering) ([]Gallery, error)
		UpdateGallery(ctx context.Context, g Gallery) (Gallery, error)
		CreateGalleryPhoto(ctx context.Context, ph GalleryPhoto) (GalleryPhoto, error)
		GetGalleryPhotos(ctx context.Context, galleryID string) ([]GalleryPhoto, error)
		DeleteGalleryPhoto(ctx context.Context, id string) error

		CreateFAQ(ctx context.Context, f FAQ) (FAQ, error)
		GetFAQByID(ctx context.Context, id string) (FAQ, error)
		GetAllFAQs(ctx context.Context, ordering []core.DBOrdering) ([]FAQ, error)
		UpdateFAQ(ctx context.Context, f FAQ) (FAQ, error)

		CreateTestimonial(ctx context.Context, t Testimonial) (Testimonial, error)
		GetTestimonialByID(ctx context.Context, id string) (Testimonial, error)
		GetAllTestimonials(ctx context.Context, ordering []core.DBOrdering) ([]Testimonial, error)
		UpdateTestimonial(ctx context.Context, t Testimonial) (Testimonial, error)

		CreateContactMessage(ctx context.Context, msg ContactMessage) (ContactMessage, error)
		GetContactMessageByID(ctx context.Context, id string) (ContactMessage, error)
		FilterContactMessages(ctx context.Context, filter MessageQueryFilter, ordering []core.DBOrdering) ([]ContactMessage, error)
		UpdateContactMessage(ctx context.Context, msg ContactMessage) (ContactMessage, error)

		GetSiteSettings(ctx context.Context) (SiteSettings, error)
		SaveSiteSettings(ctx context.Context, ss SiteSettings) (SiteSettings, error)
	}

	Service interface {
		CreateNewsCategory(ctx context.Context, nnc NewNewsCategory) (NewsCategory, error)
		QueryNewsCategories(ctx context.Context, ordering ...core.DBOrdering) ([]NewsCategory, error)
		ArchiveNewsCategory(ctx context.Context, id string) error

		CheckNewsSlugUniqueness(slug string, excluded ...News) error
		CreateNews(ctx context.Context, nn NewNews, byUserID string) (News, error)
		GetNews(ctx context.Context, id string) (News, error)
		QueryNews(ctx context.Context, filter NewsQueryFilter, ordering ...core.DBOrdering) ([]News, error)
		UpdateNews(ctx context.Context, id string, un UpdateNews) (News, error)
		PublishNews(ctx context.Context, id string) (News, error)
		UnpublishNews(ctx context.Context, id string) (News, error)
		ArchiveNews(ctx context.Context, id string) error
		// ReadNews is the public read path: published posts only, bumps the
		// view counter.
		ReadNews(ctx context.Context, slug string) (News, error)

		CreatePage(ctx context.Context, np NewPage) (Page, error)
		GetPage(ctx context.Context, id string) (Page, error)
		ReadPage(ctx context.Context, slug string) (Page, error)
		QueryPages(ctx context.Context, ordering ...core.DBOrdering) ([]Page, error)
		PublishPage(ctx context.Context, id string) (Page, error)
		ArchivePage(ctx context.Context, id string) error

		CreateGallery(ctx context.Context, ng NewGallery) (Gallery, error)
		GetGallery(ctx context.Context, id string) (Gallery, []GalleryPhoto, error)
		ReadGallery(ctx context.Context, slug string) (Gallery, []GalleryPhoto, error)
		QueryGalleries(ctx context.Context, ordering ...core.DBOrdering) ([]Gallery, error)
		PublishGallery(ctx context.Context, id string) (Gallery, error)
		ArchiveGallery(ctx context.Context, id string) error
		AddGalleryPhoto(ctx context.Context, galleryID string, ngp NewGalleryPhoto) (GalleryPhoto, error)
		RemoveGalleryPhoto(ctx context.Context, galleryID, photoID string) error

		CreateFAQ(ctx context.Context, nf NewFAQ) (FAQ, error)
		QueryFAQs(ctx context.Context, ordering ...core.DBOrdering) ([]FAQ, error)
		ArchiveFAQ(ctx context.Context, id string) error

		CreateTestimonial(ctx context.Context, nt NewTestimonial) (Testimonial, error)
		QueryTestimonials(ctx context.Context, ordering ...core.DBOrdering) ([]Testimonial, error)
		ArchiveTestimonial(ctx context.Context, id string) error

		SubmitContactMessage(ctx context.Context, ncm NewContactMessage) (ContactMessage, error)
		GetContactMessage(ctx context.Context, id string) (ContactMessage, error)
		QueryContactMessages(ctx context.Context, filter MessageQueryFilter, ordering ...core.DBOrdering) ([]ContactMessage, error)
		MarkMessageRead(ctx context.Context, id string, byUserID string) (ContactMessage, error)
		MarkMessageReplied(ctx context.Context, id, replyNote string, byUserID string) (ContactMessage, error)

		GetSiteSettings(ctx context.Context) (SiteSettings, error)
		UpdateSiteSettings(ctx context.Context, uss UpdateSiteSettings, byUserID string) (SiteSettings, error)
	}

	service struct {
		conf    *core.Config
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService) Service {
	return &service{conf: conf, repo: repo, mailSvc: mailSvc}
}

// ---------- news categories ----------

func (svc *service) CreateNewsCategory(ctx context.Context, nnc NewNewsCategory) (NewsCategory, error) {
	cat := NewsCategory{Name: nnc.Name, Slug: nnc.Slug}
	cat.SetActive(true)
	return svc.repo.CreateNewsCategory(ctx, cat)
}

func (svc *service) QueryNewsCategories(ctx context.Context, ordering ...core.DBOrdering) ([]NewsCategory, error) {
	return svc.repo.GetAllNewsCategories(ctx, ordering)
}

func (svc *service) ArchiveNewsCategory(ctx context.Context, id string) error {
	cat, err := svc.repo.GetNewsCategoryByID(ctx, id)
	if err != nil {
		return err
	}
	cat.SetActive(false)
	_, err = svc.repo.UpdateNewsCategory(ctx, cat)
	return err
}

// ---------- news ----------

func (svc *service) CheckNewsSlugUniqueness(slug string, excluded ...News) error {
	return svc.repo.CheckNewsSlugUniqueness(context.Background(), slug, excluded...)
}

func (svc *service) CreateNews(ctx context.Context, nn NewNews, byUserID string) (News, error) {
	n := News{
		CategoryID: nn.CategoryID,
		Title:      nn.Title,
		Slug:       nn.Slug,
		Summary:    nn.Summary,
		Content:    nn.Content,
		CoverImage: nn.CoverImage,
		Tags:       nn.Tags,
		Status:     NewsDraft,
		Featured:   nn.Featured,
		Location:   nn.Location,
		EventDate:  nn.EventDate,
		CreatedBy:  byUserID,
	}
	n.SetActive(true)
	return svc.repo.CreateNews(ctx, n)
}

func (svc *service) GetNews(ctx context.Context, id string) (News, error) {
	return svc.repo.GetNewsByID(ctx, id)
}

func (svc *service) QueryNews(ctx context.Context, filter NewsQueryFilter, ordering ...core.DBOrdering) ([]News, error) {
	filter.Clean()
	return svc.repo.FilterNews(ctx, filter, ordering)
}

func (svc *service) UpdateNews(ctx context.Context, id string, un UpdateNews) (News, error) {
	n, err := svc.repo.GetNewsByID(ctx, id)
	if err != nil {
		return News{}, err
	}
	if un.CategoryID != "" {
		n.CategoryID = un.CategoryID
	}
	if un.Title != "" {
		n.Title = un.Title
	}
	if un.Slug != "" {
		n.Slug = un.Slug
	}
	if un.Summary != "" {
		n.Summary = un.Summary
	}
	if un.Content != "" {
		n.Content = un.Content
	}
	if un.CoverImage != "" {
		n.CoverImage = un.CoverImage
	}
	if un.Tags != "" {
		n.Tags = un.Tags
	}
	if un.Featured != nil {
		n.Featured = *un.Featured
	}
	if un.Location != "" {
		n.Location = un.Location
	}
	if un.EventDate != nil {
		n.EventDate = un.EventDate
	}
	return svc.repo.UpdateNews(ctx, n)
}

func (svc *service) PublishNews(ctx context.Context, id string) (News, error) {
	n, err := svc.repo.GetNewsByID(ctx, id)
	if err != nil {
		return News{}, err
	}
	if n.Status != NewsPublished {
		now := time.Now().UTC()
		n.Status = NewsPublished
		n.PublishedAt = &now
	}
	return svc.repo.UpdateNews(ctx, n)
}

func (svc *service) UnpublishNews(ctx context.Context, id string) (News, error) {
	n, err := svc.repo.GetNewsByID(ctx, id)
	if err != nil {
		return News{}, err
	}
	n.Status = NewsDraft
	return svc.repo.UpdateNews(ctx, n)
}

func (svc *service) ArchiveNews(ctx context.Context, id string) error {
	n, err := svc.repo.GetNewsByID(ctx, id)
	if err != nil {
		return err
	}
	n.SetActive(false)
	n.Status = NewsArchived
	_, err = svc.repo.UpdateNews(ctx, n)
	return err
}

func (svc *service) ReadNews(ctx context.Context, slug string) (News, error) {
	n, err := svc.repo.GetNewsBySlug(ctx, slug)
	if err != nil {
		return News{}, err
	}
	if !n.IsPublished() {
		return News{}, ErrNewsNotFound
	}
	if err = svc.repo.IncrementNewsViewCount(ctx, n.ID); err != nil {
		return News{}, err
	}
	n.ViewCount++
	return n, nil
}

// ---------- pages ----------

func (svc *service) CreatePage(ctx context.Context, np NewPage) (Page, error) {
	p := Page{Title: np.Title, Slug: np.Slug, Content: np.Content, Order: np.Order}
	p.SetActive(true)
	return svc.repo.CreatePage(ctx, p)
}

func (svc *service) GetPage(ctx context.Context, id string) (Page, error) {
	return svc.repo.GetPageByID(ctx, id)
}

func (svc *service) ReadPage(ctx context.Context, slug string) (Page, error) {
	p, err := svc.repo.GetPageBySlug(ctx, slug)
	if err != nil {
		return Page{}, err
	}
	if !p.IsPublished {
		return Page{}, ErrPageNotFound
	}
	return p, nil
}

func (svc *service) QueryPages(ctx context.Context, ordering ...core.DBOrdering) ([]Page, error) {
	return svc.repo.GetAllPages(ctx, ordering)
}

func (svc *service) PublishPage(ctx context.Context, id string) (Page, error) {
	p, err := svc.repo.GetPageByID(ctx, id)
	if err != nil {
		return Page{}, err
	}
	p.IsPublished = true
	return svc.repo.UpdatePage(ctx, p)
}

func (svc *service) ArchivePage(ctx context.Context, id string) error {
	p, err := svc.repo.GetPageByID(ctx, id)
	if err != nil {
		return err
	}
	p.SetActive(false)
	p.IsPublished = false
	_, err = svc.repo.UpdatePage(ctx, p)
	return err
}

// ---------- galleries ----------

func (svc *service) CreateGallery(ctx context.Context, ng NewGallery) (Gallery, error) {
	g := Gallery{Title: ng.Title, Slug: ng.Slug, Description: ng.Description}
	g.SetActive(true)
	return svc.repo.CreateGallery(ctx, g)
}

func (svc *service) GetGallery(ctx context.Context, id string) (Gallery, []GalleryPhoto, error) {
	g, err := svc.repo.GetGalleryByID(ctx, id)
	if err != nil {
		return Gallery{}, nil, err
	}
	photos, err := svc.repo.GetGalleryPhotos(ctx, g.ID)
	if err != nil {
		return Gallery{}, nil, err
	}
	return g, photos, nil
}

func (svc *service) ReadGallery(ctx context.Context, slug string) (Gallery, []GalleryPhoto, error) {
	g, err := svc.repo.GetGalleryBySlug(ctx, slug)
	if err != nil {
		return Gallery{}, nil, err
	}
	if !g.IsPublished {
		return Gallery{}, nil, ErrGalleryNotFound
	}
	photos, err := svc.repo.GetGalleryPhotos(ctx, g.ID)
	if err != nil {
		return Gallery{}, nil, err
	}
	return g, photos, nil
}

func (svc *service) QueryGalleries(ctx context.Context, ordering ...core.DBOrdering) ([]Gallery, error) {
	return svc.repo.GetAllGalleries(ctx, ordering)
}

func (svc *service) PublishGallery(ctx context.Context, id string) (Gallery, error) {
	g, err := svc.repo.GetGalleryByID(ctx, id)
	if err != nil {
		return Gallery{}, err
	}
	g.IsPublished = true
	return svc.repo.UpdateGallery(ctx, g)
}

func (svc *service) ArchiveGallery(ctx context.Context, id string) error {
	g, err := svc.repo.GetGalleryByID(ctx, id)
	if err != nil {
		return err
	}
	g.SetActive(false)
	g.IsPublished = false
	_, err = svc.repo.UpdateGallery(ctx, g)
	return err
}

func (svc *service) AddGalleryPhoto(ctx context.Context, galleryID string, ngp NewGalleryPhoto) (GalleryPhoto, error) {
	if _, err := svc.repo.GetGalleryByID(ctx, galleryID); err != nil {
		return GalleryPhoto{}, err
	}
	ph := GalleryPhoto{
		GalleryID: galleryID,
		Image:     ngp.Image,
		Caption:   ngp.Caption,
		Order:     ngp.Order,
	}
	return svc.repo.CreateGalleryPhoto(ctx, ph)
}

func (svc *service) RemoveGalleryPhoto(ctx context.Context, galleryID, photoID string) error {
	photos, err := svc.repo.GetGalleryPhotos(ctx, galleryID)
	if err != nil {
		return err
	}
	for _, ph := range photos {
		if ph.ID == photoID {
			return svc.repo.DeleteGalleryPhoto(ctx, photoID)
		}
	}
	return ErrPhotoNotFound
}

// ---------- faqs ----------

func (svc *service) CreateFAQ(ctx context.Context, nf NewFAQ) (FAQ, error) {
	f := FAQ{Question: nf.Question, Answer: nf.Answer, Order: nf.Order}
	f.SetActive(true)
	return svc.repo.CreateFAQ(ctx, f)
}

func (svc *service) QueryFAQs(ctx context.Context, ordering ...core.DBOrdering) ([]FAQ, error) {
	return svc.repo.GetAllFAQs(ctx, ordering)
}

func (svc *service) ArchiveFAQ(ctx context.Context, id string) error {
	f, err := svc.repo.GetFAQByID(ctx, id)
	if err != nil {
		return err
	}
	f.SetActive(false)
	_, err = svc.repo.UpdateFAQ(ctx, f)
	return err
}

// ---------- testimonials ----------

func (svc *service) CreateTestimonial(ctx context.Context, nt NewTestimonial) (Testimonial, error) {
	rating := nt.Rating
	if rating == 0 {
		rating = 5
	}
	t := Testimonial{
		Name:     nt.Name,
		Title:    nt.Title,
		Quote:    nt.Quote,
		Photo:    nt.Photo,
		Rating:   rating,
		Featured: nt.Featured,
		Order:    nt.Order,
	}
	t.SetActive(true)
	return svc.repo.CreateTestimonial(ctx, t)
}

func (svc *service) QueryTestimonials(ctx context.Context, ordering ...core.DBOrdering) ([]Testimonial, error) {
	return svc.repo.GetAllTestimonials(ctx, ordering)
}

func (svc *service) ArchiveTestimonial(ctx context.Context, id string) error {
	t, err := svc.repo.GetTestimonialByID(ctx, id)
	if err != nil {
		return err
	}
	t.SetActive(false)
	_, err = svc.repo.UpdateTestimonial(ctx, t)
	return err
}

// ---------- contact messages ----------

// SubmitContactMessage stores the message and notifies the association inbox.
func (svc *service) SubmitContactMessage(ctx context.Context, ncm NewContactMessage) (ContactMessage, error) {
	msg := ContactMessage{
		Name:    ncm.Name,
		Email:   ncm.Email,
		Phone:   ncm.Phone,
		Subject: ncm.Subject,
		Message: ncm.Message,
		Status:  MessageNew,
	}
	msg, err := svc.repo.CreateContactMessage(ctx, msg)
	if err != nil {
		return ContactMessage{}, err
	}
	go svc.sendContactMessageMail(msg)
	return msg, nil
}

func (svc *service) sendContactMessageMail(msg ContactMessage) {
	email := &core.EmailMessage{
		To:           []mail.Address{{Address: svc.conf.ContactEmail}},
		Subject:      fmt.Sprintf("İletişim formu: %s", msg.Subject),
		TemplateName: "contact-message",
		TemplateData: msg,
	}
	svc.mailSvc.SendMessages(email)
}

func (svc *service) GetContactMessage(ctx context.Context, id string) (ContactMessage, error) {
	return svc.repo.GetContactMessageByID(ctx, id)
}

func (svc *service) QueryContactMessages(ctx context.Context, filter MessageQueryFilter, ordering ...core.DBOrdering) ([]ContactMessage, error) {
	filter.Clean()
	return svc.repo.FilterContactMessages(ctx, filter, ordering)
}

func (svc *service) MarkMessageRead(ctx context.Context, id string, byUserID string) (ContactMessage, error) {
	msg, err := svc.repo.GetContactMessageByID(ctx, id)
	if err != nil {
		return ContactMessage{}, err
	}
	if msg.Status == MessageNew {
		now := time.Now().UTC()
		msg.Status = MessageRead
		msg.ReadBy = byUserID
		msg.ReadAt = &now
	}
	return svc.repo.UpdateContactMessage(ctx, msg)
}

func (svc *service) MarkMessageReplied(ctx context.Context, id, replyNote string, byUserID string) (ContactMessage, error) {
	msg, err := svc.repo.GetContactMessageByID(ctx, id)
	if err != nil {
		return ContactMessage{}, err
	}
	if msg.ReadAt == nil {
		now := time.Now().UTC()
		msg.ReadBy = byUserID
		msg.ReadAt = &now
	}
	msg.Status = MessageReplied
	msg.ReplyNote = core.CleanString(replyNote)
	return svc.repo.UpdateContactMessage(ctx, msg)
}

// ---------- site settings ----------

func (svc *service) GetSiteSettings(ctx context.Context) (SiteSettings, error) {
	return svc.repo.GetSiteSettings(ctx)
}

func (svc *service) UpdateSiteSettings(ctx context.Context, uss UpdateSiteSettings, byUserID string) (SiteSettings, error) {
	ss, err := svc.repo.GetSiteSettings(ctx)
	if err != nil {
		return SiteSettings{}, err
	}
	if uss.SiteName != "" {
		ss.SiteName = uss.SiteName
	}
	if uss.SiteDescription != "" {
		ss.SiteDescription = uss.SiteDescription
	}
	if uss.Logo != "" {
		ss.Logo = uss.Logo
	}
	if uss.Email != "" {
		ss.Email = uss.Email
	}
	if uss.Phone != "" {
		ss.Phone = uss.Phone
	}
	if uss.Address != "" {
		ss.Address = uss.Address
	}
	if uss.FacebookURL != "" {
		ss.FacebookURL = uss.FacebookURL
	}
	if uss.TwitterURL != "" {
		ss.TwitterURL = uss.TwitterURL
	}
	if uss.InstagramURL != "" {
		ss.InstagramURL = uss.InstagramURL
	}
	if uss.YoutubeURL != "" {
		ss.YoutubeURL = uss.YoutubeURL
	}
	if uss.IBAN != "" {
		ss.IBAN = uss.IBAN
	}
	if uss.BankName != "" {
		ss.BankName = uss.BankName
	}
	if uss.BankAccountOwner != "" {
		ss.BankAccountOwner = uss.BankAccountOwner
	}
	if uss.MaintenanceMode != nil {
		ss.MaintenanceMode = *uss.MaintenanceMode
	}
	ss.UpdatedBy = byUserID
	return svc.repo.SaveSiteSettings(ctx, ss)
}
