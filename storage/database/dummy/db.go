// Package dummydb provides in-memory repositories for tests.
package dummydb

import (
	"sync"

	"github.com/yardimel/yardimel/core/aid"
	"github.com/yardimel/yardimel/core/audit"
	"github.com/yardimel/yardimel/core/cms"
	"github.com/yardimel/yardimel/core/family"
	"github.com/yardimel/yardimel/core/finance"
	"github.com/yardimel/yardimel/core/inventory"
	"github.com/yardimel/yardimel/core/user"
)

type (
	DB struct {
		user      *userTable
		family    *familyTable
		inventory *inventoryTable
		aid       *aidTable
		finance   *financeTable
		cms       *cmsTable
		audit     *auditTable
	}

	userTable struct {
		sync.RWMutex
		users map[string]*user.User
	}

	familyTable struct {
		sync.RWMutex
		families  map[string]*family.Family
		members   map[string]*family.Member
		documents map[string]*family.Document
	}

	inventoryTable struct {
		sync.RWMutex
		categories map[string]*inventory.Category
		items      map[string]*inventory.Item
		donors     map[string]*inventory.Donor
		movements  map[string]*inventory.Movement
		counts     map[string]*inventory.Count
		countItems map[string]*inventory.CountItem
	}

	aidTable struct {
		sync.RWMutex
		requests      map[string]*aid.Request
		requestItems  map[string]*aid.RequestItem
		distributions map[string]*aid.Distribution
	}

	financeTable struct {
		sync.RWMutex
		cashAids     map[string]*finance.CashAid
		invoices     map[string]*finance.PendingInvoice
		transactions map[string]*finance.Transaction
		budgets      map[string]*finance.Budget
	}

	cmsTable struct {
		sync.RWMutex
		newsCategories map[string]*cms.NewsCategory
		news           map[string]*cms.News
		pages          map[string]*cms.Page
		galleries      map[string]*cms.Gallery
		galleryPhotos  map[string]*cms.GalleryPhoto
		faqs           map[string]*cms.FAQ
		testimonials   map[string]*cms.Testimonial
		messages       map[string]*cms.ContactMessage
		settings       *cms.SiteSettings
	}

	auditTable struct {
		sync.RWMutex
		entries map[string]*audit.Entry
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{users: make(map[string]*user.User)},
		family: &familyTable{
			families:  make(map[string]*family.Family),
			members:   make(map[string]*family.Member),
			documents: make(map[string]*family.Document),
		},
		inventory: &inventoryTable{
			categories: make(map[string]*inventory.Category),
			items:      make(map[string]*inventory.Item),
			donors:     make(map[string]*inventory.Donor),
			movements:  make(map[string]*inventory.Movement),
			counts:     make(map[string]*inventory.Count),
			countItems: make(map[string]*inventory.CountItem),
		},
		aid: &aidTable{
			requests:      make(map[string]*aid.Request),
			requestItems:  make(map[string]*aid.RequestItem),
			distributions: make(map[string]*aid.Distribution),
		},
		finance: &financeTable{
			cashAids:     make(map[string]*finance.CashAid),
			invoices:     make(map[string]*finance.PendingInvoice),
			transactions: make(map[string]*finance.Transaction),
			budgets:      make(map[string]*finance.Budget),
		},
		cms: &cmsTable{
			newsCategories: make(map[string]*cms.NewsCategory),
			news:           make(map[string]*cms.News),
			pages:          make(map[string]*cms.Page),
			galleries:      make(map[string]*cms.Gallery),
			galleryPhotos:  make(map[string]*cms.GalleryPhoto),
			faqs:           make(map[string]*cms.FAQ),
			testimonials:   make(map[string]*cms.Testimonial),
			messages:       make(map[string]*cms.ContactMessage),
		},
		audit: &auditTable{entries: make(map[string]*audit.Entry)},
	}
	return db, nil
}

// Reset drops all rows so each test starts from a clean slate.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.users = make(map[string]*user.User)
	db.user.Unlock()

	db.family.Lock()
	db.family.families = make(map[string]*family.Family)
	db.family.members = make(map[string]*family.Member)
	db.family.documents = make(map[string]*family.Document)
	db.family.Unlock()

	db.inventory.Lock()
	db.inventory.categories = make(map[string]*inventory.Category)
	db.inventory.items = make(map[string]*inventory.Item)
	db.inventory.donors = make(map[string]*inventory.Donor)
	db.inventory.movements = make(map[string]*inventory.Movement)
	db.inventory.counts = make(map[string]*inventory.Count)
	db.inventory.countItems = make(map[string]*inventory.CountItem)
	db.inventory.Unlock()

	db.aid.Lock()
	db.aid.requests = make(map[string]*aid.Request)
	db.aid.requestItems = make(map[string]*aid.RequestItem)
	db.aid.distributions = make(map[string]*aid.Distribution)
	db.aid.Unlock()

	db.finance.Lock()
	db.finance.cashAids = make(map[string]*finance.CashAid)
	db.finance.invoices = make(map[string]*finance.PendingInvoice)
	db.finance.transactions = make(map[string]*finance.Transaction)
	db.finance.budgets = make(map[string]*finance.Budget)
	db.finance.Unlock()

	db.cms.Lock()
	db.cms.newsCategories = make(map[string]*cms.NewsCategory)
	db.cms.news = make(map[string]*cms.News)
	db.cms.pages = make(map[string]*cms.Page)
	db.cms.galleries = make(map[string]*cms.Gallery)
	db.cms.galleryPhotos = make(map[string]*cms.GalleryPhoto)
	db.cms.faqs = make(map[string]*cms.FAQ)
	db.cms.testimonials = make(map[string]*cms.Testimonial)
	db.cms.messages = make(map[string]*cms.ContactMessage)
	db.cms.settings = nil
	db.cms.Unlock()

	db.audit.Lock()
	db.audit.entries = make(map[string]*audit.Entry)
	db.audit.Unlock()
}
