package audit

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core"
)

var ErrNotFound = errors.New("audit entry not found")

type (
	Repository interface {
		CreateEntry(ctx context.Context, entry Entry) (Entry, error)
		GetEntryByID(ctx context.Context, id string) (Entry, error)
		FilterEntries(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Entry, error)
	}

	Service interface {
		// Record appends an entry; changes may be any JSON-marshallable value
		// (typically a map of field -> new value) and may be nil.
		Record(ctx context.Context, userID, action, entity, objectID string, changes interface{}, ip, userAgent string) (Entry, error)
		GetByID(ctx context.Context, id string) (Entry, error)
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Entry, error)
	}

	service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (svc *service) Record(ctx context.Context, userID, action, entity, objectID string, changes interface{}, ip, userAgent string) (Entry, error) {
	entry := Entry{
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		ObjectID:  objectID,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			return Entry{}, errors.Wrap(err, "audit: marshal changes")
		}
		entry.Changes = raw
	}
	entry, err := svc.repo.CreateEntry(ctx, entry)
	if err != nil {
		// the trail must never break a user-facing operation
		svc.logger.Error("audit: failed to record entry", err)
		return Entry{}, err
	}
	return entry, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntryByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Entry, error) {
	filter.Clean()
	return svc.repo.FilterEntries(ctx, filter, ordering)
}
