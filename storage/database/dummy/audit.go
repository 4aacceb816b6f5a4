package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/audit"
)

type auditRepository struct {
	db *auditTable
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) audit.Repository {
	return &auditRepository{db: db.audit}
}

func (repo *auditRepository) CreateEntry(ctx context.Context, entry audit.Entry) (audit.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now().UTC()
	repo.db.entries[entry.ID] = &entry
	return entry, nil
}

func (repo *auditRepository) GetEntryByID(ctx context.Context, id string) (audit.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if entry, ok := repo.db.entries[id]; ok {
		return *entry, nil
	}
	return audit.Entry{}, audit.ErrNotFound
}

func (repo *auditRepository) FilterEntries(ctx context.Context, filter audit.QueryFilter, ordering []core.DBOrdering) ([]audit.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var entries []audit.Entry
	for _, entry := range repo.db.entries {
		if filter.UserID != "" && entry.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.Entity != "" && entry.Entity != filter.Entity {
			continue
		}
		if filter.ObjectID != "" && entry.ObjectID != filter.ObjectID {
			continue
		}
		if filter.From != nil && entry.CreatedAt.Before(filter.From.UTC()) {
			continue
		}
		if filter.To != nil && entry.CreatedAt.After(filter.To.UTC()) {
			continue
		}
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}
