package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/cms"
)

type newsCategoryRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Slug      string    `db:"slug"`
	IsActive  null.Bool `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *newsCategoryRow) load(cat cms.NewsCategory) {
	r.ID = cat.ID
	r.Name = cat.Name
	r.Slug = cat.Slug
	r.IsActive = null.BoolFromPtr(cat.IsActive)
	r.CreatedAt = cat.CreatedAt.UTC()
	r.UpdatedAt = cat.UpdatedAt.UTC()
}

func (r *newsCategoryRow) category() cms.NewsCategory {
	return cms.NewsCategory{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		IsActive:  r.IsActive.Ptr(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type newsRow struct {
	ID          string    `db:"id"`
	CategoryID  string    `db:"category_id"`
	Title       string    `db:"title"`
	Slug        string    `db:"slug"`
	Summary     string    `db:"summary"`
	Content     string    `db:"content"`
	CoverImage  string    `db:"cover_image"`
	Tags        string    `db:"tags"`
	Status      string    `db:"status"`
	Featured    bool      `db:"featured"`
	Location    string    `db:"location"`
	EventDate   null.Time `db:"event_date"`
	PublishedAt null.Time `db:"published_at"`
	ViewCount   int64     `db:"view_count"`
	IsActive    null.Bool `db:"is_active"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *newsRow) load(n cms.News) {
	r.ID = n.ID
	r.CategoryID = n.CategoryID
	r.Title = n.Title
	r.Slug = n.Slug
	r.Summary = n.Summary
	r.Content = n.Content
	r.CoverImage = n.CoverImage
	r.Tags = n.Tags
	r.Status = n.Status
	r.Featured = n.Featured
	r.Location = n.Location
	r.EventDate = timePtrToNull(n.EventDate)
	r.PublishedAt = timePtrToNull(n.PublishedAt)
	r.ViewCount = n.ViewCount
	r.IsActive = null.BoolFromPtr(n.IsActive)
	r.CreatedBy = n.CreatedBy
	r.CreatedAt = n.CreatedAt.UTC()
	r.UpdatedAt = n.UpdatedAt.UTC()
}

func (r *newsRow) news() cms.News {
	return cms.News{
		ID:          r.ID,
		CategoryID:  r.CategoryID,
		Title:       r.Title,
		Slug:        r.Slug,
		Summary:     r.Summary,
		Content:     r.Content,
		CoverImage:  r.CoverImage,
		Tags:        r.Tags,
		Status:      r.Status,
		Featured:    r.Featured,
		Location:    r.Location,
		EventDate:   nullToTimePtr(r.EventDate),
		PublishedAt: nullToTimePtr(r.PublishedAt),
		ViewCount:   r.ViewCount,
		IsActive:    r.IsActive.Ptr(),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type pageRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Slug        string    `db:"slug"`
	Content     string    `db:"content"`
	IsPublished bool      `db:"is_published"`
	Order       int       `db:"order"`
	IsActive    null.Bool `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *pageRow) load(p cms.Page) {
	r.ID = p.ID
	r.Title = p.Title
	r.Slug = p.Slug
	r.Content = p.Content
	r.IsPublished = p.IsPublished
	r.Order = p.Order
	r.IsActive = null.BoolFromPtr(p.IsActive)
	r.CreatedAt = p.CreatedAt.UTC()
	r.UpdatedAt = p.UpdatedAt.UTC()
}

func (r *pageRow) page() cms.Page {
	return cms.Page{
		ID:          r.ID,
		Title:       r.Title,
		Slug:        r.Slug,
		Content:     r.Content,
		IsPublished: r.IsPublished,
		Order:       r.Order,
		IsActive:    r.IsActive.Ptr(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type galleryRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	IsPublished bool      `db:"is_published"`
	IsActive    null.Bool `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *galleryRow) load(g cms.Gallery) {
	r.ID = g.ID
	r.Title = g.Title
	r.Slug = g.Slug
	r.Description = g.Description
	r.IsPublished = g.IsPublished
	r.IsActive = null.BoolFromPtr(g.IsActive)
	r.CreatedAt = g.CreatedAt.UTC()
	r.UpdatedAt = g.UpdatedAt.UTC()
}

func (r *galleryRow) gallery() cms.Gallery {
	return cms.Gallery{
		ID:          r.ID,
		Title:       r.Title,
		Slug:        r.Slug,
		Description: r.Description,
		IsPublished: r.IsPublished,
		IsActive:    r.IsActive.Ptr(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type galleryPhotoRow struct {
	ID        string    `db:"id"`
	GalleryID string    `db:"gallery_id"`
	Image     string    `db:"image"`
	Caption   string    `db:"caption"`
	Order     int       `db:"order"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *galleryPhotoRow) photo() cms.GalleryPhoto {
	return cms.GalleryPhoto{
		ID:        r.ID,
		GalleryID: r.GalleryID,
		Image:     r.Image,
		Caption:   r.Caption,
		Order:     r.Order,
		CreatedAt: r.CreatedAt,
	}
}

type faqRow struct {
	ID        string    `db:"id"`
	Question  string    `db:"question"`
	Answer    string    `db:"answer"`
	Order     int       `db:"order"`
	IsActive  null.Bool `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *faqRow) faq() cms.FAQ {
	return cms.FAQ{
		ID:        r.ID,
		Question:  r.Question,
		Answer:    r.Answer,
		Order:     r.Order,
		IsActive:  r.IsActive.Ptr(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type testimonialRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Title     string    `db:"title"`
	Quote     string    `db:"quote"`
	Photo     string    `db:"photo"`
	Rating    int       `db:"rating"`
	Featured  bool      `db:"featured"`
	Order     int       `db:"order"`
	IsActive  null.Bool `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *testimonialRow) testimonial() cms.Testimonial {
	return cms.Testimonial{
		ID:        r.ID,
		Name:      r.Name,
		Title:     r.Title,
		Quote:     r.Quote,
		Photo:     r.Photo,
		Rating:    r.Rating,
		Featured:  r.Featured,
		Order:     r.Order,
		IsActive:  r.IsActive.Ptr(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type contactMessageRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Subject   string    `db:"subject"`
	Message   string    `db:"message"`
	Status    string    `db:"status"`
	ReadBy    string    `db:"read_by"`
	ReadAt    null.Time `db:"read_at"`
	ReplyNote string    `db:"reply_note"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *contactMessageRow) load(msg cms.ContactMessage) {
	r.ID = msg.ID
	r.Name = msg.Name
	r.Email = msg.Email
	r.Phone = msg.Phone
	r.Subject = msg.Subject
	r.Message = msg.Message
	r.Status = msg.Status
	r.ReadBy = msg.ReadBy
	r.ReadAt = timePtrToNull(msg.ReadAt)
	r.ReplyNote = msg.ReplyNote
	r.CreatedAt = msg.CreatedAt.UTC()
	r.UpdatedAt = msg.UpdatedAt.UTC()
}

func (r *contactMessageRow) message() cms.ContactMessage {
	return cms.ContactMessage{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Subject:   r.Subject,
		Message:   r.Message,
		Status:    r.Status,
		ReadBy:    r.ReadBy,
		ReadAt:    nullToTimePtr(r.ReadAt),
		ReplyNote: r.ReplyNote,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type siteSettingsRow struct {
	ID               string    `db:"id"`
	SiteName         string    `db:"site_name"`
	SiteDescription  string    `db:"site_description"`
	Logo             string    `db:"logo"`
	Email            string    `db:"email"`
	Phone            string    `db:"phone"`
	Address          string    `db:"address"`
	FacebookURL      string    `db:"facebook_url"`
	TwitterURL       string    `db:"twitter_url"`
	InstagramURL     string    `db:"instagram_url"`
	YoutubeURL       string    `db:"youtube_url"`
	IBAN             string    `db:"iban"`
	BankName         string    `db:"bank_name"`
	BankAccountOwner string    `db:"bank_account_owner"`
	MaintenanceMode  bool      `db:"maintenance_mode"`
	UpdatedBy        string    `db:"updated_by"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r *siteSettingsRow) load(ss cms.SiteSettings) {
	r.ID = ss.ID
	r.SiteName = ss.SiteName
	r.SiteDescription = ss.SiteDescription
	r.Logo = ss.Logo
	r.Email = ss.Email
	r.Phone = ss.Phone
	r.Address = ss.Address
	r.FacebookURL = ss.FacebookURL
	r.TwitterURL = ss.TwitterURL
	r.InstagramURL = ss.InstagramURL
	r.YoutubeURL = ss.YoutubeURL
	r.IBAN = ss.IBAN
	r.BankName = ss.BankName
	r.BankAccountOwner = ss.BankAccountOwner
	r.MaintenanceMode = ss.MaintenanceMode
	r.UpdatedBy = ss.UpdatedBy
	r.UpdatedAt = ss.UpdatedAt.UTC()
}

func (r *siteSettingsRow) settings() cms.SiteSettings {
	return cms.SiteSettings{
		ID:               r.ID,
		SiteName:         r.SiteName,
		SiteDescription:  r.SiteDescription,
		Logo:             r.Logo,
		Email:            r.Email,
		Phone:            r.Phone,
		Address:          r.Address,
		FacebookURL:      r.FacebookURL,
		TwitterURL:       r.TwitterURL,
		InstagramURL:     r.InstagramURL,
		YoutubeURL:       r.YoutubeURL,
		IBAN:             r.IBAN,
		BankName:         r.BankName,
		BankAccountOwner: r.BankAccountOwner,
		MaintenanceMode:  r.MaintenanceMode,
		UpdatedBy:        r.UpdatedBy,
		UpdatedAt:        r.UpdatedAt,
	}
}

type cmsRepository struct {
	db *sqlx.DB
}

var _ cms.Repository = (*cmsRepository)(nil) // interface compliance check

func NewCMSRepository(db *sqlx.DB) *cmsRepository {
	return &cmsRepository{db: db}
}

func (repo cmsRepository) trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// ---------- news categories ----------

func (repo cmsRepository) CreateNewsCategory(ctx context.Context, cat cms.NewsCategory) (cms.NewsCategory, error) {
	cat.ID = uuid.New().String()
	now := time.Now().UTC()
	cat.CreatedAt, cat.UpdatedAt = now, now
	if cat.IsActive == nil {
		cat.SetActive(true)
	}

	var row newsCategoryRow
	row.load(cat)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO news_categories (id, name, slug, is_active, created_at, updated_at)
		VALUES (:id, :name, :slug, :is_active, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return cms.NewsCategory{}, errors.Wrap(err, "inserting news category")
	}
	return row.category(), nil
}

func (repo cmsRepository) GetNewsCategoryByID(ctx context.Context, id string) (cms.NewsCategory, error) {
	var row newsCategoryRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM news_categories WHERE id = ?"), id); err != nil {
		return cms.NewsCategory{}, repo.trapNoRowsErr(err, cms.ErrCategoryNotFound, "finding news category")
	}
	return row.category(), nil
}

func (repo cmsRepository) GetAllNewsCategories(ctx context.Context, ordering []core.DBOrdering) ([]cms.NewsCategory, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	var rows []newsCategoryRow
	query := "SELECT * FROM news_categories" + orderClause(ordering)
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying news categories")
	}
	cats := make([]cms.NewsCategory, 0, len(rows))
	for i := range rows {
		cats = append(cats, rows[i].category())
	}
	return cats, nil
}

func (repo cmsRepository) UpdateNewsCategory(ctx context.Context, cat cms.NewsCategory) (cms.NewsCategory, error) {
	cat.UpdatedAt = time.Now().UTC()
	var row newsCategoryRow
	row.load(cat)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE news_categories SET name = :name, slug = :slug, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return cms.NewsCategory{}, errors.Wrap(err, "updating news category")
	}
	return repo.GetNewsCategoryByID(ctx, cat.ID)
}

// ---------- news ----------

func (repo cmsRepository) CheckNewsSlugUniqueness(ctx context.Context, slug string, excluded ...cms.News) error {
	query := "SELECT slug FROM news WHERE LOWER(slug) = ?"
	args := []interface{}{strings.ToLower(slug)}
	if len(excluded) > 0 {
		ids := make([]interface{}, 0, len(excluded))
		for _, n := range excluded {
			ids = append(ids, n.ID)
		}
		query += " AND id NOT IN (" + placeholders(len(ids)) + ")"
		args = append(args, ids...)
	}

	var existing string
	err := repo.db.GetContext(ctx, &existing, repo.db.Rebind(query), args...)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking news slug uniqueness")
	}
	return cms.ErrSlugExists
}

func (repo cmsRepository) CreateNews(ctx context.Context, n cms.News) (cms.News, error) {
	n.ID = uuid.New().String()
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	if n.IsActive == nil {
		n.SetActive(true)
	}

	var row newsRow
	row.load(n)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO news (id, category_id, title, slug, summary, content, cover_image, tags, status,
			featured, location, event_date, published_at, view_count, is_active, created_by, created_at, updated_at)
		VALUES (:id, :category_id, :title, :slug, :summary, :content, :cover_image, :tags, :status,
			:featured, :location, :event_date, :published_at, :view_count, :is_active, :created_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return cms.News{}, errors.Wrap(err, "inserting news")
	}
	return row.news(), nil
}

func (repo cmsRepository) GetNewsByID(ctx context.Context, id string) (cms.News, error) {
	if _, err := uuid.Parse(id); err != nil {
		return cms.News{}, cms.ErrNewsNotFound
	}
	var row newsRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM news WHERE id = ?"), id); err != nil {
		return cms.News{}, repo.trapNoRowsErr(err, cms.ErrNewsNotFound, "finding news")
	}
	return row.news(), nil
}

func (repo cmsRepository) GetNewsBySlug(ctx context.Context, slug string) (cms.News, error) {
	var row newsRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM news WHERE slug = ?"), slug); err != nil {
		return cms.News{}, repo.trapNoRowsErr(err, cms.ErrNewsNotFound, "finding news by slug")
	}
	return row.news(), nil
}

func (repo cmsRepository) FilterNews(ctx context.Context, filter cms.NewsQueryFilter, ordering []core.DBOrdering) ([]cms.News, error) {
	query := "SELECT * FROM news WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		query += " AND (LOWER(title) LIKE ? OR LOWER(summary) LIKE ?)"
		kw := contains(filter.Search)
		args = append(args, kw, kw)
	}
	if filter.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, filter.CategoryID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Featured != nil {
		query += " AND featured = ?"
		args = append(args, *filter.Featured)
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	query += orderClause(ordering)

	var rows []newsRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying news")
	}
	posts := make([]cms.News, 0, len(rows))
	for i := range rows {
		posts = append(posts, rows[i].news())
	}
	return posts, nil
}

func (repo cmsRepository) UpdateNews(ctx context.Context, n cms.News) (cms.News, error) {
	n.UpdatedAt = time.Now().UTC()
	var row newsRow
	row.load(n)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE news SET category_id = :category_id, title = :title, slug = :slug, summary = :summary,
			content = :content, cover_image = :cover_image, tags = :tags, status = :status,
			featured = :featured, location = :location, event_date = :event_date,
			published_at = :published_at, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return cms.News{}, errors.Wrap(err, "updating news")
	}
	return repo.GetNewsByID(ctx, n.ID)
}

func (repo cmsRepository) IncrementNewsViewCount(ctx context.Context, id string) error {
	query := repo.db.Rebind("UPDATE news SET view_count = view_count + 1 WHERE id = ?")
	if _, err := repo.db.ExecContext(ctx, query, id); err != nil {
		return errors.Wrap(err, "incrementing news view count")
	}
	return nil
}

// ---------- pages ----------

func (repo cmsRepository) CreatePage(ctx context.Context, p cms.Page) (cms.Page, error) {
	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.IsActive == nil {
		p.SetActive(true)
	}

	var row pageRow
	row.load(p)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO pages (id, title, slug, content, is_published, "order", is_active, created_at, updated_at)
		VALUES (:id, :title, :slug, :content, :is_published, :order, :is_active, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return cms.Page{}, errors.Wrap(err, "inserting page")
	}
	return row.page(), nil
}

func (repo cmsRepository) GetPageByID(ctx context.Context, id string) (cms.Page, error) {
	if _, err := uuid.Parse(id); err != nil {
		return cms.Page{}, cms.ErrPageNotFound
	}
	var row pageRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM pages WHERE id = ?"), id); err != nil {
		return cms.Page{}, repo.trapNoRowsErr(err, cms.ErrPageNotFound, "finding page")
	}
	return row.page(), nil
}

func (repo cmsRepository) GetPageBySlug(ctx context.Context, slug string) (cms.Page, error) {
	var row pageRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM pages WHERE slug = ?"), slug); err != nil {
		return cms.Page{}, repo.trapNoRowsErr(err, cms.ErrPageNotFound, "finding page by slug")
	}
	return row.page(), nil
}

func (repo cmsRepository) GetAllPages(ctx context.Context, ordering []core.DBOrdering) ([]cms.Page, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: `"order"`, Ascending: true}}
	}
	var rows []pageRow
	query := "SELECT * FROM pages" + orderClause(ordering)
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying pages")
	}
	pages := make([]cms.Page, 0, len(rows))
	for i := range rows {
		pages = append(pages, rows[i].page())
	}
	return pages, nil
}

func (repo cmsRepository) UpdatePage(ctx context.Context, p cms.Page) (cms.Page, error) {
	p.UpdatedAt = time.Now().UTC()
	var row pageRow
	row.load(p)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE pages SET title = :title, slug = :slug, content = :content, is_published = :is_published,
			"order" = :order, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return cms.Page{}, errors.Wrap(err, "updating page")
	}
	return repo.GetPageByID(ctx, p.ID)
}

// ---------- galleries ----------

func (repo cmsRepository) CreateGallery(ctx context.Context, g cms.Gallery) (cms.Gallery, error) {
	g.ID = uuid.New().String()
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now
	if g.IsActive == nil {
		g.SetActive(true)
	}

	var row galleryRow
	row.load(g)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO galleries (id, title, slug, description, is_published, is_active, created_at, updated_at)
		VALUES (:id, :title, :slug, :description, :is_published, :is_active, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return cms.Gallery{}, errors.Wrap(err, "inserting gallery")
	}
	return row.gallery(), nil
}

func (repo cmsRepository) GetGalleryByID(ctx context.Context, id string) (cms.Gallery, error) {
	if _, err := uuid.Parse(id); err != nil {
		return cms.Gallery{}, cms.ErrGalleryNotFound
	}
	var row galleryRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM galleries WHERE id = ?"), id); err != nil {
		return cms.Gallery{}, repo.trapNoRowsErr(err, cms.ErrGalleryNotFound, "finding gallery")
	}
	return row.gallery(), nil
}

func (repo cmsRepository) GetGalleryBySlug(ctx context.Context, slug string) (cms.Gallery, error) {
	var row galleryRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM galleries WHERE slug = ?"), slug); err != nil {
		return cms.Gallery{}, repo.trapNoRowsErr(err, cms.ErrGalleryNotFound, "finding gallery by slug")
	}
	return row.gallery(), nil
}

func (repo cmsRepository) GetAllGalleries(ctx context.Context, ordering []core.DBOrdering) ([]cms.Gallery, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	var rows []galleryRow
	query := "SELECT * FROM galleries" + orderClause(ordering)
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying galleries")
	}
	galleries := make([]cms.Gallery, 0, len(rows))
	for i := range rows {
		galleries = append(galleries, rows[i].gallery())
	}
	return galleries, nil
}

func (repo cmsRepository) UpdateGallery(ctx context.Context, g cms.Gallery) (cms.Gallery, error) {
	g.UpdatedAt = time.Now().UTC()
	var row galleryRow
	row.load(g)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE galleries SET title = :title, slug = :slug, description = :description,
			is_published = :is_published, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return cms.Gallery{}, errors.Wrap(err, "updating gallery")
	}
	return repo.GetGalleryByID(ctx, g.ID)
}

func (repo cmsRepository) CreateGalleryPhoto(ctx context.Context, ph cms.GalleryPhoto) (cms.GalleryPhoto, error) {
	ph.ID = uuid.New().String()
	ph.CreatedAt = time.Now().UTC()

	row := galleryPhotoRow{
		ID:        ph.ID,
		GalleryID: ph.GalleryID,
		Image:     ph.Image,
		Caption:   ph.Caption,
		Order:     ph.Order,
		CreatedAt: ph.CreatedAt,
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO gallery_photos (id, gallery_id, image, caption, "order", created_at)
		VALUES (:id, :gallery_id, :image, :caption, :order, :created_at)`,
		&row,
	)
	if err != nil {
		return cms.GalleryPhoto{}, errors.Wrap(err, "inserting gallery photo")
	}
	return row.photo(), nil
}

func (repo cmsRepository) GetGalleryPhotos(ctx context.Context, galleryID string) ([]cms.GalleryPhoto, error) {
	var rows []galleryPhotoRow
	query := `SELECT * FROM gallery_photos WHERE gallery_id = ? ORDER BY "order" ASC, created_at ASC`
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), galleryID); err != nil {
		return nil, errors.Wrap(err, "querying gallery photos")
	}
	photos := make([]cms.GalleryPhoto, 0, len(rows))
	for i := range rows {
		photos = append(photos, rows[i].photo())
	}
	return photos, nil
}

func (repo cmsRepository) DeleteGalleryPhoto(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM gallery_photos WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting gallery photo")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cms.ErrPhotoNotFound
	}
	return nil
}

// ---------- faqs ----------

func (repo cmsRepository) CreateFAQ(ctx context.Context, f cms.FAQ) (cms.FAQ, error) {
	f.ID = uuid.New().String()
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	if f.IsActive == nil {
		f.SetActive(true)
	}

	row := faqRow{
		ID:        f.ID,
		Question:  f.Question,
		Answer:    f.Answer,
		Order:     f.Order,
		IsActive:  null.BoolFromPtr(f.IsActive),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO faqs (id, question, answer, "order", is_active, created_at, updated_at)
		VALUES (:id, :question, :answer, :order, :is_active, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return cms.FAQ{}, errors.Wrap(err, "inserting faq")
	}
	return row.faq(), nil
}

func (repo cmsRepository) GetFAQByID(ctx context.Context, id string) (cms.FAQ, error) {
	var row faqRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM faqs WHERE id = ?"), id); err != nil {
		return cms.FAQ{}, repo.trapNoRowsErr(err, cms.ErrFAQNotFound, "finding faq")
	}
	return row.faq(), nil
}

func (repo cmsRepository) GetAllFAQs(ctx context.Context, ordering []core.DBOrdering) ([]cms.FAQ, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: `"order"`, Ascending: true}}
	}
	var rows []faqRow
	query := "SELECT * FROM faqs" + orderClause(ordering)
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying faqs")
	}
	faqs := make([]cms.FAQ, 0, len(rows))
	for i := range rows {
		faqs = append(faqs, rows[i].faq())
	}
	return faqs, nil
}

func (repo cmsRepository) UpdateFAQ(ctx context.Context, f cms.FAQ) (cms.FAQ, error) {
	f.UpdatedAt = time.Now().UTC()
	row := faqRow{
		ID:        f.ID,
		Question:  f.Question,
		Answer:    f.Answer,
		Order:     f.Order,
		IsActive:  null.BoolFromPtr(f.IsActive),
		UpdatedAt: f.UpdatedAt,
	}
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE faqs SET question = :question, answer = :answer, "order" = :order,
			is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return cms.FAQ{}, errors.Wrap(err, "updating faq")
	}
	return repo.GetFAQByID(ctx, f.ID)
}

// ---------- testimonials ----------

func (repo cmsRepository) CreateTestimonial(ctx context.Context, t cms.Testimonial) (cms.Testimonial, error) {
	t.ID = uuid.New().String()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.IsActive == nil {
		t.SetActive(true)
	}

	row := testimonialRow{
		ID:        t.ID,
		Name:      t.Name,
		Title:     t.Title,
		Quote:     t.Quote,
		Photo:     t.Photo,
		Rating:    t.Rating,
		Featured:  t.Featured,
		Order:     t.Order,
		IsActive:  null.BoolFromPtr(t.IsActive),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO testimonials (id, name, title, quote, photo, rating, featured, "order", is_active, created_at, updated_at)
		VALUES (:id, :name, :title, :quote, :photo, :rating, :featured, :order, :is_active, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return cms.Testimonial{}, errors.Wrap(err, "inserting testimonial")
	}
	return row.testimonial(), nil
}

func (repo cmsRepository) GetTestimonialByID(ctx context.Context, id string) (cms.Testimonial, error) {
	var row testimonialRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM testimonials WHERE id = ?"), id); err != nil {
		return cms.Testimonial{}, repo.trapNoRowsErr(err, cms.ErrTestimonialNotFound, "finding testimonial")
	}
	return row.testimonial(), nil
}

func (repo cmsRepository) GetAllTestimonials(ctx context.Context, ordering []core.DBOrdering) ([]cms.Testimonial, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: `"order"`, Ascending: true}}
	}
	var rows []testimonialRow
	query := "SELECT * FROM testimonials" + orderClause(ordering)
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying testimonials")
	}
	ts := make([]cms.Testimonial, 0, len(rows))
	for i := range rows {
		ts = append(ts, rows[i].testimonial())
	}
	return ts, nil
}

func (repo cmsRepository) UpdateTestimonial(ctx context.Context, t cms.Testimonial) (cms.Testimonial, error) {
	t.UpdatedAt = time.Now().UTC()
	row := testimonialRow{
		ID:        t.ID,
		Name:      t.Name,
		Title:     t.Title,
		Quote:     t.Quote,
		Photo:     t.Photo,
		Rating:    t.Rating,
		Featured:  t.Featured,
		Order:     t.Order,
		IsActive:  null.BoolFromPtr(t.IsActive),
		UpdatedAt: t.UpdatedAt,
	}
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE testimonials SET name = :name, title = :title, quote = :quote, photo = :photo,
			rating = :rating, featured = :featured, "order" = :order, is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return cms.Testimonial{}, errors.Wrap(err, "updating testimonial")
	}
	return repo.GetTestimonialByID(ctx, t.ID)
}

// ---------- contact messages ----------

func (repo cmsRepository) CreateContactMessage(ctx context.Context, msg cms.ContactMessage) (cms.ContactMessage, error) {
	msg.ID = uuid.New().String()
	now := time.Now().UTC()
	msg.CreatedAt, msg.UpdatedAt = now, now

	var row contactMessageRow
	row.load(msg)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, phone, subject, message, status, read_by, read_at,
			reply_note, created_at, updated_at)
		VALUES (:id, :name, :email, :phone, :subject, :message, :status, :read_by, :read_at,
			:reply_note, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return cms.ContactMessage{}, errors.Wrap(err, "inserting contact message")
	}
	return row.message(), nil
}

func (repo cmsRepository) GetContactMessageByID(ctx context.Context, id string) (cms.ContactMessage, error) {
	if _, err := uuid.Parse(id); err != nil {
		return cms.ContactMessage{}, cms.ErrMessageNotFound
	}
	var row contactMessageRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM contact_messages WHERE id = ?"), id); err != nil {
		return cms.ContactMessage{}, repo.trapNoRowsErr(err, cms.ErrMessageNotFound, "finding contact message")
	}
	return row.message(), nil
}

func (repo cmsRepository) FilterContactMessages(ctx context.Context, filter cms.MessageQueryFilter, ordering []core.DBOrdering) ([]cms.ContactMessage, error) {
	query := "SELECT * FROM contact_messages WHERE 1=1"
	var args []interface{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	query += orderClause(ordering)

	var rows []contactMessageRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying contact messages")
	}
	msgs := make([]cms.ContactMessage, 0, len(rows))
	for i := range rows {
		msgs = append(msgs, rows[i].message())
	}
	return msgs, nil
}

func (repo cmsRepository) UpdateContactMessage(ctx context.Context, msg cms.ContactMessage) (cms.ContactMessage, error) {
	msg.UpdatedAt = time.Now().UTC()
	var row contactMessageRow
	row.load(msg)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE contact_messages SET status = :status, read_by = :read_by, read_at = :read_at,
			reply_note = :reply_note, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return cms.ContactMessage{}, errors.Wrap(err, "updating contact message")
	}
	return repo.GetContactMessageByID(ctx, msg.ID)
}

// ---------- site settings ----------

// GetSiteSettings returns the singleton settings row, or a zero-ID value when
// none was saved yet.
func (repo cmsRepository) GetSiteSettings(ctx context.Context) (cms.SiteSettings, error) {
	var row siteSettingsRow
	err := repo.db.GetContext(ctx, &row, "SELECT * FROM site_settings LIMIT 1")
	if err == sql.ErrNoRows {
		return cms.SiteSettings{}, nil
	}
	if err != nil {
		return cms.SiteSettings{}, errors.Wrap(err, "finding site settings")
	}
	return row.settings(), nil
}

func (repo cmsRepository) SaveSiteSettings(ctx context.Context, ss cms.SiteSettings) (cms.SiteSettings, error) {
	ss.UpdatedAt = time.Now().UTC()
	if ss.ID == "" {
		ss.ID = uuid.New().String()
		var row siteSettingsRow
		row.load(ss)
		_, err := repo.db.NamedExecContext(ctx, `
			INSERT INTO site_settings (id, site_name, site_description, logo, email, phone, address,
				facebook_url, twitter_url, instagram_url, youtube_url, iban, bank_name,
				bank_account_owner, maintenance_mode, updated_by, updated_at)
			VALUES (:id, :site_name, :site_description, :logo, :email, :phone, :address,
				:facebook_url, :twitter_url, :instagram_url, :youtube_url, :iban, :bank_name,
				:bank_account_owner, :maintenance_mode, :updated_by, :updated_at)`,
			&row,
		)
		if err != nil {
			return cms.SiteSettings{}, errors.Wrap(err, "inserting site settings")
		}
		return row.settings(), nil
	}

	var row siteSettingsRow
	row.load(ss)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE site_settings SET site_name = :site_name, site_description = :site_description, logo = :logo,
			email = :email, phone = :phone, address = :address, facebook_url = :facebook_url,
			twitter_url = :twitter_url, instagram_url = :instagram_url, youtube_url = :youtube_url,
			iban = :iban, bank_name = :bank_name, bank_account_owner = :bank_account_owner,
			maintenance_mode = :maintenance_mode, updated_by = :updated_by, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return cms.SiteSettings{}, errors.Wrap(err, "updating site settings")
	}
	return repo.GetSiteSettings(ctx)
}
