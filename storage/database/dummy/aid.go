package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/aid"
)

type aidRepository struct {
	db *aidTable
}

var _ aid.Repository = (*aidRepository)(nil) // interface compliance check

func NewAidRepository(db *DB) aid.Repository {
	return &aidRepository{db: db.aid}
}

func (repo *aidRepository) CreateRequest(ctx context.Context, req aid.Request, items ...aid.RequestItem) (aid.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	req.ID = uuid.New().String()
	now := time.Now().UTC()
	req.CreatedAt, req.UpdatedAt = now, now
	repo.db.requests[req.ID] = &req

	for _, item := range items {
		item.ID = uuid.New().String()
		item.RequestID = req.ID
		item.CreatedAt, item.UpdatedAt = now, now
		itemCopy := item
		repo.db.requestItems[item.ID] = &itemCopy
	}
	return req, nil
}

func (repo *aidRepository) GetRequestByID(ctx context.Context, id string) (aid.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if req, ok := repo.db.requests[id]; ok {
		return *req, nil
	}
	return aid.Request{}, aid.ErrNotFound
}

func (repo *aidRepository) FilterRequests(ctx context.Context, filter aid.QueryFilter, ordering []core.DBOrdering) ([]aid.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var reqs []aid.Request
	for _, req := range repo.db.requests {
		if filter.FamilyID != "" && req.FamilyID != filter.FamilyID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.Type != "" && req.Type != filter.Type {
			continue
		}
		if filter.Priority != "" && req.Priority != filter.Priority {
			continue
		}
		reqs = append(reqs, *req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs, nil
}

func (repo *aidRepository) UpdateRequest(ctx context.Context, req aid.Request) (aid.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.requests[req.ID]; !ok {
		return aid.Request{}, aid.ErrNotFound
	}
	req.UpdatedAt = time.Now().UTC()
	repo.db.requests[req.ID] = &req
	return req, nil
}

func (repo *aidRepository) GetRequestItems(ctx context.Context, requestID string) ([]aid.RequestItem, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var items []aid.RequestItem
	for _, item := range repo.db.requestItems {
		if item.RequestID == requestID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (repo *aidRepository) GetRequestItemByID(ctx context.Context, id string) (aid.RequestItem, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if item, ok := repo.db.requestItems[id]; ok {
		return *item, nil
	}
	return aid.RequestItem{}, aid.ErrItemNotFound
}

func (repo *aidRepository) UpdateRequestItem(ctx context.Context, item aid.RequestItem) (aid.RequestItem, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.requestItems[item.ID]; !ok {
		return aid.RequestItem{}, aid.ErrItemNotFound
	}
	item.UpdatedAt = time.Now().UTC()
	repo.db.requestItems[item.ID] = &item
	return item, nil
}

func (repo *aidRepository) CreateDistribution(ctx context.Context, dist aid.Distribution) (aid.Distribution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	dist.ID = uuid.New().String()
	now := time.Now().UTC()
	dist.CreatedAt, dist.UpdatedAt = now, now
	repo.db.distributions[dist.ID] = &dist
	return dist, nil
}

func (repo *aidRepository) GetDistributionByID(ctx context.Context, id string) (aid.Distribution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if dist, ok := repo.db.distributions[id]; ok {
		return *dist, nil
	}
	return aid.Distribution{}, aid.ErrDistributionNotFound
}

func (repo *aidRepository) GetAllDistributions(ctx context.Context, ordering []core.DBOrdering) ([]aid.Distribution, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	dists := make([]aid.Distribution, 0, len(repo.db.distributions))
	for _, dist := range repo.db.distributions {
		dists = append(dists, *dist)
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].Date.After(dists[j].Date) })
	return dists, nil
}

func (repo *aidRepository) UpdateDistribution(ctx context.Context, dist aid.Distribution) (aid.Distribution, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.distributions[dist.ID]; !ok {
		return aid.Distribution{}, aid.ErrDistributionNotFound
	}
	dist.UpdatedAt = time.Now().UTC()
	repo.db.distributions[dist.ID] = &dist
	return dist, nil
}
