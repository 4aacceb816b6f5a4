package cms

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yardimel/yardimel/core"
)

// Contact message statuses
const (
	MessageNew     = "new"
	MessageRead    = "read"
	MessageReplied = "replied"
)

// News statuses
const (
	NewsDraft     = "draft"
	NewsPublished = "published"
	NewsArchived  = "archived"
)

// NewsCategory groups news posts on the public site.
type NewsCategory struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (nc *NewsCategory) SetActive(active bool) { nc.IsActive = &active }

// News is a public news post or event announcement. Only published posts
// are visible outside the staff area.
type News struct {
	ID          string     `json:"id"`
	CategoryID  string     `json:"category_id,omitempty"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Summary     string     `json:"summary,omitempty"`
	Content     string     `json:"content"`
	CoverImage  string     `json:"cover_image,omitempty"`
	Tags        string     `json:"tags,omitempty"` // comma-separated
	Status      string     `json:"status"`
	Featured    bool       `json:"featured"`
	Location    string     `json:"location,omitempty"`
	EventDate   *time.Time `json:"event_date,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ViewCount   int64      `json:"view_count"`
	IsActive    *bool      `json:"is_active"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (n *News) SetActive(active bool) { n.IsActive = &active }

func (n *News) IsPublished() bool { return n.Status == NewsPublished }

// Page is a static content page (about us, bylaws, privacy).
type Page struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	IsPublished bool      `json:"is_published"`
	Order       int       `json:"order"`
	IsActive    *bool     `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Page) SetActive(active bool) { p.IsActive = &active }

// Gallery is a photo album.
type Gallery struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsPublished bool      `json:"is_published"`
	IsActive    *bool     `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (g *Gallery) SetActive(active bool) { g.IsActive = &active }

// GalleryPhoto is one photo in a gallery; Image is the stored file name.
type GalleryPhoto struct {
	ID        string    `json:"id"`
	GalleryID string    `json:"gallery_id"`
	Image     string    `json:"image"`
	Caption   string    `json:"caption,omitempty"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

type FAQ struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Order     int       `json:"order"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *FAQ) SetActive(active bool) { f.IsActive = &active }

type Testimonial struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title,omitempty"`
	Quote     string    `json:"quote"`
	Photo     string    `json:"photo,omitempty"`
	Rating    int       `json:"rating"` // 1..5
	Featured  bool      `json:"featured"`
	Order     int       `json:"order"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Testimonial) SetActive(active bool) { t.IsActive = &active }

// ContactMessage is a message sent through the public contact form.
type ContactMessage struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Subject   string     `json:"subject"`
	Message   string     `json:"message"`
	Status    string     `json:"status"`
	ReadBy    string     `json:"read_by,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	ReplyNote string     `json:"reply_note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SiteSettings is the singleton row holding the public site's identity and
// contact details.
type SiteSettings struct {
	ID               string    `json:"id"`
	SiteName         string    `json:"site_name"`
	SiteDescription  string    `json:"site_description,omitempty"`
	Logo             string    `json:"logo,omitempty"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Address          string    `json:"address,omitempty"`
	FacebookURL      string    `json:"facebook_url,omitempty"`
	TwitterURL       string    `json:"twitter_url,omitempty"`
	InstagramURL     string    `json:"instagram_url,omitempty"`
	YoutubeURL       string    `json:"youtube_url,omitempty"`
	IBAN             string    `json:"iban,omitempty"`
	BankName         string    `json:"bank_name,omitempty"`
	BankAccountOwner string    `json:"bank_account_owner,omitempty"`
	MaintenanceMode  bool      `json:"maintenance_mode"`
	UpdatedBy        string    `json:"updated_by,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Request payloads

type NewNewsCategory struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"required,slug,max=100"`
}

func (nnc *NewNewsCategory) Validate(validate *validator.Validate) error {
	nnc.Name = core.CleanString(nnc.Name)
	nnc.Slug = core.CleanString(nnc.Slug, true /* lower */)
	return validate.Struct(nnc)
}

type NewNews struct {
	CategoryID string     `json:"category_id" validate:"omitempty,uuid4"`
	Title      string     `json:"title" validate:"required,max=200"`
	Slug       string     `json:"slug" validate:"required,slug,max=200"`
	Summary    string     `json:"summary" validate:"omitempty,max=500"`
	Content    string     `json:"content" validate:"required"`
	CoverImage string     `json:"cover_image" validate:"omitempty,max=255"`
	Tags       string     `json:"tags" validate:"omitempty,max=200"`
	Featured   bool       `json:"featured"`
	Location   string     `json:"location" validate:"omitempty,max=200"`
	EventDate  *time.Time `json:"event_date"`
}

func (nn *NewNews) Validate(validate *validator.Validate, svc Service) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Slug = core.CleanString(nn.Slug, true /* lower */)
	if err := validate.Struct(nn); err != nil {
		return err
	}
	return svc.CheckNewsSlugUniqueness(nn.Slug)
}

type UpdateNews struct {
	CategoryID string     `json:"category_id" validate:"omitempty,uuid4"`
	Title      string     `json:"title" validate:"omitempty,max=200"`
	Slug       string     `json:"slug" validate:"omitempty,slug,max=200"`
	Summary    string     `json:"summary" validate:"omitempty,max=500"`
	Content    string     `json:"content"`
	CoverImage string     `json:"cover_image" validate:"omitempty,max=255"`
	Tags       string     `json:"tags" validate:"omitempty,max=200"`
	Featured   *bool      `json:"featured"`
	Location   string     `json:"location" validate:"omitempty,max=200"`
	EventDate  *time.Time `json:"event_date"`
}

func (un *UpdateNews) Validate(validate *validator.Validate, svc Service, orig News) error {
	un.Title = core.CleanString(un.Title)
	un.Slug = core.CleanString(un.Slug, true /* lower */)
	if err := validate.Struct(un); err != nil {
		return err
	}
	if un.Slug == "" || un.Slug == orig.Slug {
		return nil
	}
	return svc.CheckNewsSlugUniqueness(un.Slug)
}

type NewPage struct {
	Title   string `json:"title" validate:"required,max=200"`
	Slug    string `json:"slug" validate:"required,slug,max=200"`
	Content string `json:"content" validate:"required"`
	Order   int    `json:"order" validate:"omitempty,gte=0"`
}

func (np *NewPage) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Slug = core.CleanString(np.Slug, true /* lower */)
	return validate.Struct(np)
}

type NewGallery struct {
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,slug,max=200"`
	Description string `json:"description"`
}

func (ng *NewGallery) Validate(validate *validator.Validate) error {
	ng.Title = core.CleanString(ng.Title)
	ng.Slug = core.CleanString(ng.Slug, true /* lower */)
	return validate.Struct(ng)
}

type NewGalleryPhoto struct {
	Image   string `json:"image" validate:"required,max=255"`
	Caption string `json:"caption" validate:"omitempty,max=255"`
	Order   int    `json:"order" validate:"omitempty,gte=0"`
}

func (ngp *NewGalleryPhoto) Validate(validate *validator.Validate) error {
	return validate.Struct(ngp)
}

type NewFAQ struct {
	Question string `json:"question" validate:"required,max=500"`
	Answer   string `json:"answer" validate:"required"`
	Order    int    `json:"order" validate:"omitempty,gte=0"`
}

func (nf *NewFAQ) Validate(validate *validator.Validate) error {
	nf.Question = core.CleanString(nf.Question)
	return validate.Struct(nf)
}

type NewTestimonial struct {
	Name     string `json:"name" validate:"required,max=100"`
	Title    string `json:"title" validate:"omitempty,max=100"`
	Quote    string `json:"quote" validate:"required,max=1000"`
	Photo    string `json:"photo" validate:"omitempty,max=255"`
	Rating   int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Featured bool   `json:"featured"`
	Order    int    `json:"order" validate:"omitempty,gte=0"`
}

func (nt *NewTestimonial) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	return validate.Struct(nt)
}

type NewContactMessage struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (ncm *NewContactMessage) Validate(validate *validator.Validate) error {
	ncm.Name = core.CleanString(ncm.Name)
	ncm.Email = core.CleanString(ncm.Email, true /* lower */)
	ncm.Subject = core.CleanString(ncm.Subject)
	return validate.Struct(ncm)
}

type UpdateSiteSettings struct {
	SiteName         string `json:"site_name" validate:"omitempty,max=100"`
	SiteDescription  string `json:"site_description" validate:"omitempty,max=500"`
	Logo             string `json:"logo" validate:"omitempty,max=255"`
	Email            string `json:"email" validate:"omitempty,email"`
	Phone            string `json:"phone" validate:"omitempty,max=20"`
	Address          string `json:"address" validate:"omitempty,max=500"`
	FacebookURL      string `json:"facebook_url" validate:"omitempty,url"`
	TwitterURL       string `json:"twitter_url" validate:"omitempty,url"`
	InstagramURL     string `json:"instagram_url" validate:"omitempty,url"`
	YoutubeURL       string `json:"youtube_url" validate:"omitempty,url"`
	IBAN             string `json:"iban" validate:"omitempty,max=34"`
	BankName         string `json:"bank_name" validate:"omitempty,max=100"`
	BankAccountOwner string `json:"bank_account_owner" validate:"omitempty,max=100"`
	MaintenanceMode  *bool  `json:"maintenance_mode"`
}

func (uss *UpdateSiteSettings) Validate(validate *validator.Validate) error {
	uss.Email = core.CleanString(uss.Email, true /* lower */)
	return validate.Struct(uss)
}

type NewsQueryFilter struct {
	Search     string `query:"search"`
	CategoryID string `query:"category_id"`
	Status     string `query:"status"`
	Featured   *bool  `query:"featured"`
}

func (qf *NewsQueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
}

type MessageQueryFilter struct {
	Status string `query:"status"`
}

func (qf *MessageQueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
