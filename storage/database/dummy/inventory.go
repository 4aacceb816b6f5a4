package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/inventory"
)

type inventoryRepository struct {
	db *inventoryTable
}

var _ inventory.Repository = (*inventoryRepository)(nil) // interface compliance check

func NewInventoryRepository(db *DB) inventory.Repository {
	return &inventoryRepository{db: db.inventory}
}

// ---------- categories ----------

func (repo *inventoryRepository) CheckCategoryNameUniqueness(ctx context.Context, name string, excluded ...inventory.Category) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excl := make(map[string]bool, len(excluded))
	for _, c := range excluded {
		excl[c.ID] = true
	}
	for _, cat := range repo.db.categories {
		if strings.EqualFold(cat.Name, name) && !excl[cat.ID] {
			return inventory.ErrCategoryExists
		}
	}
	return nil
}

func (repo *inventoryRepository) CreateCategory(ctx context.Context, cat inventory.Category) (inventory.Category, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cat.ID = uuid.New().String()
	now := time.Now().UTC()
	cat.CreatedAt, cat.UpdatedAt = now, now
	repo.db.categories[cat.ID] = &cat
	return cat, nil
}

func (repo *inventoryRepository) GetCategoryByID(ctx context.Context, id string) (inventory.Category, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cat, ok := repo.db.categories[id]; ok {
		return *cat, nil
	}
	return inventory.Category{}, inventory.ErrCategoryNotFound
}

func (repo *inventoryRepository) QueryCategories(ctx context.Context) ([]inventory.Category, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cats := make([]inventory.Category, 0, len(repo.db.categories))
	for _, cat := range repo.db.categories {
		cats = append(cats, *cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].DisplayOrder != cats[j].DisplayOrder {
			return cats[i].DisplayOrder < cats[j].DisplayOrder
		}
		return cats[i].Name < cats[j].Name
	})
	return cats, nil
}

func (repo *inventoryRepository) UpdateCategory(ctx context.Context, cat inventory.Category) (inventory.Category, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.categories[cat.ID]; !ok {
		return inventory.Category{}, inventory.ErrCategoryNotFound
	}
	cat.UpdatedAt = time.Now().UTC()
	repo.db.categories[cat.ID] = &cat
	return cat, nil
}

// ---------- items ----------

func (repo *inventoryRepository) CheckItemCodeUniqueness(ctx context.Context, barcode, sku string, excluded ...inventory.Item) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excl := make(map[string]bool, len(excluded))
	for _, i := range excluded {
		excl[i.ID] = true
	}
	for _, itm := range repo.db.items {
		if excl[itm.ID] {
			continue
		}
		if barcode != "" && itm.Barcode == barcode {
			return inventory.ErrBarcodeExists
		}
		if sku != "" && itm.SKU == sku {
			return inventory.ErrSKUExists
		}
	}
	return nil
}

func (repo *inventoryRepository) CreateItem(ctx context.Context, itm inventory.Item) (inventory.Item, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	itm.ID = uuid.New().String()
	now := time.Now().UTC()
	itm.CreatedAt, itm.UpdatedAt = now, now
	repo.db.items[itm.ID] = &itm
	return itm, nil
}

func (repo *inventoryRepository) GetItemByID(ctx context.Context, id string) (inventory.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if itm, ok := repo.db.items[id]; ok {
		return *itm, nil
	}
	return inventory.Item{}, inventory.ErrItemNotFound
}

func (repo *inventoryRepository) FilterItems(ctx context.Context, filter inventory.ItemQueryFilter, ordering []core.DBOrdering) ([]inventory.Item, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]inventory.Item, 0, len(repo.db.items))
	for _, itm := range repo.db.items {
		items = append(items, *itm)
	}

	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		var filtered []inventory.Item
		for _, i := range items {
			if strings.Contains(strings.ToLower(i.Name), kw) ||
				strings.Contains(strings.ToLower(i.Barcode), kw) ||
				strings.Contains(strings.ToLower(i.SKU), kw) {
				filtered = append(filtered, i)
			}
		}
		items = filtered
	}
	if items != nil && filter.Type != "" {
		var filtered []inventory.Item
		for _, i := range items {
			if i.Type == filter.Type {
				filtered = append(filtered, i)
			}
		}
		items = filtered
	}
	if items != nil && filter.CategoryID != "" {
		var filtered []inventory.Item
		for _, i := range items {
			if i.CategoryID == filter.CategoryID {
				filtered = append(filtered, i)
			}
		}
		items = filtered
	}
	if items != nil && filter.LowStock != nil {
		var filtered []inventory.Item
		for _, i := range items {
			if i.IsLowStock() == *filter.LowStock {
				filtered = append(filtered, i)
			}
		}
		items = filtered
	}
	if items != nil && filter.IsActive != nil {
		var filtered []inventory.Item
		for _, i := range items {
			active := i.IsActive != nil && *i.IsActive
			if active == *filter.IsActive {
				filtered = append(filtered, i)
			}
		}
		items = filtered
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (repo *inventoryRepository) UpdateItem(ctx context.Context, itm inventory.Item) (inventory.Item, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.items[itm.ID]; !ok {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	itm.UpdatedAt = time.Now().UTC()
	repo.db.items[itm.ID] = &itm
	return itm, nil
}

// ---------- donors ----------

func (repo *inventoryRepository) CreateDonor(ctx context.Context, dnr inventory.Donor) (inventory.Donor, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	dnr.ID = uuid.New().String()
	now := time.Now().UTC()
	dnr.CreatedAt, dnr.UpdatedAt = now, now
	repo.db.donors[dnr.ID] = &dnr
	return dnr, nil
}

func (repo *inventoryRepository) GetDonorByID(ctx context.Context, id string) (inventory.Donor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if dnr, ok := repo.db.donors[id]; ok {
		return *dnr, nil
	}
	return inventory.Donor{}, inventory.ErrDonorNotFound
}

func (repo *inventoryRepository) FilterDonors(ctx context.Context, filter inventory.DonorQueryFilter, ordering []core.DBOrdering) ([]inventory.Donor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	donors := make([]inventory.Donor, 0, len(repo.db.donors))
	for _, dnr := range repo.db.donors {
		donors = append(donors, *dnr)
	}

	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		var filtered []inventory.Donor
		for _, d := range donors {
			if strings.Contains(strings.ToLower(d.Name), kw) ||
				strings.Contains(strings.ToLower(d.Phone), kw) ||
				strings.Contains(strings.ToLower(d.Email), kw) {
				filtered = append(filtered, d)
			}
		}
		donors = filtered
	}
	if donors != nil && filter.Type != "" {
		var filtered []inventory.Donor
		for _, d := range donors {
			if d.Type == filter.Type {
				filtered = append(filtered, d)
			}
		}
		donors = filtered
	}
	if donors != nil && filter.IsActive != nil {
		var filtered []inventory.Donor
		for _, d := range donors {
			active := d.IsActive != nil && *d.IsActive
			if active == *filter.IsActive {
				filtered = append(filtered, d)
			}
		}
		donors = filtered
	}
	sort.Slice(donors, func(i, j int) bool { return donors[i].Name < donors[j].Name })
	return donors, nil
}

func (repo *inventoryRepository) UpdateDonor(ctx context.Context, dnr inventory.Donor) (inventory.Donor, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.donors[dnr.ID]; !ok {
		return inventory.Donor{}, inventory.ErrDonorNotFound
	}
	dnr.UpdatedAt = time.Now().UTC()
	repo.db.donors[dnr.ID] = &dnr
	return dnr, nil
}

// ---------- movements ----------

func (repo *inventoryRepository) ApplyMovement(ctx context.Context, mv inventory.Movement) (inventory.Movement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	itm, ok := repo.db.items[mv.ItemID]
	if !ok {
		return inventory.Movement{}, inventory.ErrItemNotFound
	}
	if itm.StockAmount != mv.StockBefore {
		return inventory.Movement{}, inventory.ErrInsufficientStock
	}
	itm.StockAmount = mv.StockAfter
	itm.UpdatedAt = time.Now().UTC()

	mv.ID = uuid.New().String()
	mv.CreatedAt = time.Now().UTC()
	repo.db.movements[mv.ID] = &mv
	return mv, nil
}

func (repo *inventoryRepository) FilterMovements(ctx context.Context, filter inventory.MovementQueryFilter, ordering []core.DBOrdering) ([]inventory.Movement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var movements []inventory.Movement
	for _, mv := range repo.db.movements {
		if filter.ItemID != "" && mv.ItemID != filter.ItemID {
			continue
		}
		if filter.Type != "" && mv.Type != filter.Type {
			continue
		}
		if filter.DonorID != "" && mv.DonorID != filter.DonorID {
			continue
		}
		if filter.FamilyID != "" && mv.FamilyID != filter.FamilyID {
			continue
		}
		if filter.AidRequestID != "" && mv.AidRequestID != filter.AidRequestID {
			continue
		}
		movements = append(movements, *mv)
	}
	sort.Slice(movements, func(i, j int) bool { return movements[i].CreatedAt.After(movements[j].CreatedAt) })
	return movements, nil
}

// ---------- stock counts ----------

func (repo *inventoryRepository) CreateCount(ctx context.Context, cnt inventory.Count) (inventory.Count, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cnt.ID = uuid.New().String()
	now := time.Now().UTC()
	cnt.CreatedAt, cnt.UpdatedAt = now, now
	repo.db.counts[cnt.ID] = &cnt
	return cnt, nil
}

func (repo *inventoryRepository) GetCountByID(ctx context.Context, id string) (inventory.Count, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cnt, ok := repo.db.counts[id]; ok {
		return *cnt, nil
	}
	return inventory.Count{}, inventory.ErrCountNotFound
}

func (repo *inventoryRepository) QueryCounts(ctx context.Context) ([]inventory.Count, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make([]inventory.Count, 0, len(repo.db.counts))
	for _, cnt := range repo.db.counts {
		counts = append(counts, *cnt)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].CountDate.After(counts[j].CountDate) })
	return counts, nil
}

func (repo *inventoryRepository) UpdateCount(ctx context.Context, cnt inventory.Count) (inventory.Count, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.counts[cnt.ID]; !ok {
		return inventory.Count{}, inventory.ErrCountNotFound
	}
	cnt.UpdatedAt = time.Now().UTC()
	repo.db.counts[cnt.ID] = &cnt
	return cnt, nil
}

func (repo *inventoryRepository) CreateCountItem(ctx context.Context, ci inventory.CountItem) (inventory.CountItem, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.countItems {
		if existing.CountID == ci.CountID && existing.ItemID == ci.ItemID {
			return inventory.CountItem{}, inventory.ErrCountItemExists
		}
	}
	ci.ID = uuid.New().String()
	ci.CreatedAt = time.Now().UTC()
	repo.db.countItems[ci.ID] = &ci
	return ci, nil
}

func (repo *inventoryRepository) GetCountItems(ctx context.Context, countID string) ([]inventory.CountItem, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var items []inventory.CountItem
	for _, ci := range repo.db.countItems {
		if ci.CountID == countID {
			items = append(items, *ci)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}
