package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/cms"
)

type cmsRepository struct {
	db *cmsTable
}

var _ cms.Repository = (*cmsRepository)(nil) // interface compliance check

func NewCMSRepository(db *DB) cms.Repository {
	return &cmsRepository{db: db.cms}
}

// ---------- news categories ----------

func (repo *cmsRepository) CreateNewsCategory(ctx context.Context, cat cms.NewsCategory) (cms.NewsCategory, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cat.ID = uuid.New().String()
	now := time.Now().UTC()
	cat.CreatedAt, cat.UpdatedAt = now, now
	if cat.IsActive == nil {
		cat.SetActive(true)
	}
	repo.db.newsCategories[cat.ID] = &cat
	return cat, nil
}

func (repo *cmsRepository) GetNewsCategoryByID(ctx context.Context, id string) (cms.NewsCategory, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cat, ok := repo.db.newsCategories[id]; ok {
		return *cat, nil
	}
	return cms.NewsCategory{}, cms.ErrCategoryNotFound
}

func (repo *cmsRepository) GetAllNewsCategories(ctx context.Context, ordering []core.DBOrdering) ([]cms.NewsCategory, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cats := make([]cms.NewsCategory, 0, len(repo.db.newsCategories))
	for _, cat := range repo.db.newsCategories {
		cats = append(cats, *cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (repo *cmsRepository) UpdateNewsCategory(ctx context.Context, cat cms.NewsCategory) (cms.NewsCategory, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.newsCategories[cat.ID]; !ok {
		return cms.NewsCategory{}, cms.ErrCategoryNotFound
	}
	cat.UpdatedAt = time.Now().UTC()
	repo.db.newsCategories[cat.ID] = &cat
	return cat, nil
}

// ---------- news ----------

func (repo *cmsRepository) CheckNewsSlugUniqueness(ctx context.Context, slug string, excluded ...cms.News) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excl := make(map[string]bool, len(excluded))
	for _, n := range excluded {
		excl[n.ID] = true
	}
	for _, n := range repo.db.news {
		if strings.EqualFold(n.Slug, slug) && !excl[n.ID] {
			return cms.ErrSlugExists
		}
	}
	return nil
}

func (repo *cmsRepository) CreateNews(ctx context.Context, n cms.News) (cms.News, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = uuid.New().String()
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	if n.IsActive == nil {
		n.SetActive(true)
	}
	repo.db.news[n.ID] = &n
	return n, nil
}

func (repo *cmsRepository) GetNewsByID(ctx context.Context, id string) (cms.News, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.news[id]; ok {
		return *n, nil
	}
	return cms.News{}, cms.ErrNewsNotFound
}

func (repo *cmsRepository) GetNewsBySlug(ctx context.Context, slug string) (cms.News, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, n := range repo.db.news {
		if n.Slug == slug {
			return *n, nil
		}
	}
	return cms.News{}, cms.ErrNewsNotFound
}

func (repo *cmsRepository) FilterNews(ctx context.Context, filter cms.NewsQueryFilter, ordering []core.DBOrdering) ([]cms.News, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var posts []cms.News
	for _, n := range repo.db.news {
		if filter.Search != "" {
			kw := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(n.Title), kw) &&
				!strings.Contains(strings.ToLower(n.Summary), kw) {
				continue
			}
		}
		if filter.CategoryID != "" && n.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		if filter.Featured != nil && n.Featured != *filter.Featured {
			continue
		}
		posts = append(posts, *n)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (repo *cmsRepository) UpdateNews(ctx context.Context, n cms.News) (cms.News, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.news[n.ID]
	if !ok {
		return cms.News{}, cms.ErrNewsNotFound
	}
	n.ViewCount = orig.ViewCount
	n.UpdatedAt = time.Now().UTC()
	repo.db.news[n.ID] = &n
	return n, nil
}

func (repo *cmsRepository) IncrementNewsViewCount(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n, ok := repo.db.news[id]; ok {
		n.ViewCount++
		return nil
	}
	return cms.ErrNewsNotFound
}

// ---------- pages ----------

func (repo *cmsRepository) CreatePage(ctx context.Context, p cms.Page) (cms.Page, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.IsActive == nil {
		p.SetActive(true)
	}
	repo.db.pages[p.ID] = &p
	return p, nil
}

func (repo *cmsRepository) GetPageByID(ctx context.Context, id string) (cms.Page, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.pages[id]; ok {
		return *p, nil
	}
	return cms.Page{}, cms.ErrPageNotFound
}

func (repo *cmsRepository) GetPageBySlug(ctx context.Context, slug string) (cms.Page, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.pages {
		if p.Slug == slug {
			return *p, nil
		}
	}
	return cms.Page{}, cms.ErrPageNotFound
}

func (repo *cmsRepository) GetAllPages(ctx context.Context, ordering []core.DBOrdering) ([]cms.Page, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pages := make([]cms.Page, 0, len(repo.db.pages))
	for _, p := range repo.db.pages {
		pages = append(pages, *p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Order < pages[j].Order })
	return pages, nil
}

func (repo *cmsRepository) UpdatePage(ctx context.Context, p cms.Page) (cms.Page, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.pages[p.ID]; !ok {
		return cms.Page{}, cms.ErrPageNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	repo.db.pages[p.ID] = &p
	return p, nil
}

// ---------- galleries ----------

func (repo *cmsRepository) CreateGallery(ctx context.Context, g cms.Gallery) (cms.Gallery, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	g.ID = uuid.New().String()
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now
	if g.IsActive == nil {
		g.SetActive(true)
	}
	repo.db.galleries[g.ID] = &g
	return g, nil
}

func (repo *cmsRepository) GetGalleryByID(ctx context.Context, id string) (cms.Gallery, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.galleries[id]; ok {
		return *g, nil
	}
	return cms.Gallery{}, cms.ErrGalleryNotFound
}

func (repo *cmsRepository) GetGalleryBySlug(ctx context.Context, slug string) (cms.Gallery, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, g := range repo.db.galleries {
		if g.Slug == slug {
			return *g, nil
		}
	}
	return cms.Gallery{}, cms.ErrGalleryNotFound
}

func (repo *cmsRepository) GetAllGalleries(ctx context.Context, ordering []core.DBOrdering) ([]cms.Gallery, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	galleries := make([]cms.Gallery, 0, len(repo.db.galleries))
	for _, g := range repo.db.galleries {
		galleries = append(galleries, *g)
	}
	sort.Slice(galleries, func(i, j int) bool { return galleries[i].CreatedAt.After(galleries[j].CreatedAt) })
	return galleries, nil
}

func (repo *cmsRepository) UpdateGallery(ctx context.Context, g cms.Gallery) (cms.Gallery, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.galleries[g.ID]; !ok {
		return cms.Gallery{}, cms.ErrGalleryNotFound
	}
	g.UpdatedAt = time.Now().UTC()
	repo.db.galleries[g.ID] = &g
	return g, nil
}

func (repo *cmsRepository) CreateGalleryPhoto(ctx context.Context, ph cms.GalleryPhoto) (cms.GalleryPhoto, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ph.ID = uuid.New().String()
	ph.CreatedAt = time.Now().UTC()
	repo.db.galleryPhotos[ph.ID] = &ph
	return ph, nil
}

func (repo *cmsRepository) GetGalleryPhotos(ctx context.Context, galleryID string) ([]cms.GalleryPhoto, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var photos []cms.GalleryPhoto
	for _, ph := range repo.db.galleryPhotos {
		if ph.GalleryID == galleryID {
			photos = append(photos, *ph)
		}
	}
	sort.Slice(photos, func(i, j int) bool {
		if photos[i].Order != photos[j].Order {
			return photos[i].Order < photos[j].Order
		}
		return photos[i].CreatedAt.Before(photos[j].CreatedAt)
	})
	return photos, nil
}

func (repo *cmsRepository) DeleteGalleryPhoto(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.galleryPhotos[id]; !ok {
		return cms.ErrPhotoNotFound
	}
	delete(repo.db.galleryPhotos, id)
	return nil
}

// ---------- faqs ----------

func (repo *cmsRepository) CreateFAQ(ctx context.Context, f cms.FAQ) (cms.FAQ, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	f.ID = uuid.New().String()
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	if f.IsActive == nil {
		f.SetActive(true)
	}
	repo.db.faqs[f.ID] = &f
	return f, nil
}

func (repo *cmsRepository) GetFAQByID(ctx context.Context, id string) (cms.FAQ, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if f, ok := repo.db.faqs[id]; ok {
		return *f, nil
	}
	return cms.FAQ{}, cms.ErrFAQNotFound
}

func (repo *cmsRepository) GetAllFAQs(ctx context.Context, ordering []core.DBOrdering) ([]cms.FAQ, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	faqs := make([]cms.FAQ, 0, len(repo.db.faqs))
	for _, f := range repo.db.faqs {
		faqs = append(faqs, *f)
	}
	sort.Slice(faqs, func(i, j int) bool { return faqs[i].Order < faqs[j].Order })
	return faqs, nil
}

func (repo *cmsRepository) UpdateFAQ(ctx context.Context, f cms.FAQ) (cms.FAQ, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.faqs[f.ID]; !ok {
		return cms.FAQ{}, cms.ErrFAQNotFound
	}
	f.UpdatedAt = time.Now().UTC()
	repo.db.faqs[f.ID] = &f
	return f, nil
}

// ---------- testimonials ----------

func (repo *cmsRepository) CreateTestimonial(ctx context.Context, t cms.Testimonial) (cms.Testimonial, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.New().String()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.IsActive == nil {
		t.SetActive(true)
	}
	repo.db.testimonials[t.ID] = &t
	return t, nil
}

func (repo *cmsRepository) GetTestimonialByID(ctx context.Context, id string) (cms.Testimonial, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.testimonials[id]; ok {
		return *t, nil
	}
	return cms.Testimonial{}, cms.ErrTestimonialNotFound
}

func (repo *cmsRepository) GetAllTestimonials(ctx context.Context, ordering []core.DBOrdering) ([]cms.Testimonial, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ts := make([]cms.Testimonial, 0, len(repo.db.testimonials))
	for _, t := range repo.db.testimonials {
		ts = append(ts, *t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Order < ts[j].Order })
	return ts, nil
}

func (repo *cmsRepository) UpdateTestimonial(ctx context.Context, t cms.Testimonial) (cms.Testimonial, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.testimonials[t.ID]; !ok {
		return cms.Testimonial{}, cms.ErrTestimonialNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	repo.db.testimonials[t.ID] = &t
	return t, nil
}

// ---------- contact messages ----------

func (repo *cmsRepository) CreateContactMessage(ctx context.Context, msg cms.ContactMessage) (cms.ContactMessage, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	msg.ID = uuid.New().String()
	now := time.Now().UTC()
	msg.CreatedAt, msg.UpdatedAt = now, now
	repo.db.messages[msg.ID] = &msg
	return msg, nil
}

func (repo *cmsRepository) GetContactMessageByID(ctx context.Context, id string) (cms.ContactMessage, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if msg, ok := repo.db.messages[id]; ok {
		return *msg, nil
	}
	return cms.ContactMessage{}, cms.ErrMessageNotFound
}

func (repo *cmsRepository) FilterContactMessages(ctx context.Context, filter cms.MessageQueryFilter, ordering []core.DBOrdering) ([]cms.ContactMessage, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var msgs []cms.ContactMessage
	for _, msg := range repo.db.messages {
		if filter.Status != "" && msg.Status != filter.Status {
			continue
		}
		msgs = append(msgs, *msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.After(msgs[j].CreatedAt) })
	return msgs, nil
}

func (repo *cmsRepository) UpdateContactMessage(ctx context.Context, msg cms.ContactMessage) (cms.ContactMessage, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.messages[msg.ID]; !ok {
		return cms.ContactMessage{}, cms.ErrMessageNotFound
	}
	msg.UpdatedAt = time.Now().UTC()
	repo.db.messages[msg.ID] = &msg
	return msg, nil
}

// ---------- site settings ----------

func (repo *cmsRepository) GetSiteSettings(ctx context.Context) (cms.SiteSettings, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.settings == nil {
		return cms.SiteSettings{}, nil
	}
	return *repo.db.settings, nil
}

func (repo *cmsRepository) SaveSiteSettings(ctx context.Context, ss cms.SiteSettings) (cms.SiteSettings, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if ss.ID == "" {
		ss.ID = uuid.New().String()
	}
	ss.UpdatedAt = time.Now().UTC()
	repo.db.settings = &ss
	return ss, nil
}
