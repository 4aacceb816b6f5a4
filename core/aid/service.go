package aid

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/family"
	"github.com/yardimel/yardimel/core/inventory"
)

var (
	ErrNotFound             = errors.New("aid request not found")
	ErrItemNotFound         = errors.New("aid request item not found")
	ErrDistributionNotFound = errors.New("distribution not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrDistributionClosed   = errors.New("distribution is completed")
)

type (
	Repository interface {
		CreateRequest(ctx context.Context, req Request, items ...RequestItem) (Request, error)
		GetRequestByID(ctx context.Context, id string) (Request, error)
		FilterRequests(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Request, error)
		UpdateRequest(ctx context.Context, req Request) (Request, error)

		GetRequestItems(ctx context.Context, requestID string) ([]RequestItem, error)
		GetRequestItemByID(ctx context.Context, id string) (RequestItem, error)
		UpdateRequestItem(ctx context.Context, item RequestItem) (RequestItem, error)

		CreateDistribution(ctx context.Context, dist Distribution) (Distribution, error)
		GetDistributionByID(ctx context.Context, id string) (Distribution, error)
		GetAllDistributions(ctx context.Context, ordering []core.DBOrdering) ([]Distribution, error)
		UpdateDistribution(ctx context.Context, dist Distribution) (Distribution, error)
	}

	Service interface {
		Create(ctx context.Context, nr NewRequest, byUserID string) (Request, error)
		GetByID(ctx context.Context, id string) (Request, []RequestItem, error)
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Request, error)

		Approve(ctx context.Context, id string, ar ApproveRequest, byUserID string) (Request, error)
		Reject(ctx context.Context, id string, rr RejectRequest, byUserID string) (Request, error)
		Prepare(ctx context.Context, id string, byUserID string) (Request, error)
		Distribute(ctx context.Context, id string, byUserID string) (Request, error)
		Cancel(ctx context.Context, id string, byUserID string) (Request, error)

		CreateDistribution(ctx context.Context, nd NewDistribution, byUserID string) (Distribution, error)
		GetDistribution(ctx context.Context, id string) (Distribution, error)
		QueryDistributions(ctx context.Context, ordering ...core.DBOrdering) ([]Distribution, error)
		CompleteDistribution(ctx context.Context, id string) (Distribution, error)
	}

	service struct {
		repo    Repository
		famRepo family.Repository
		invSvc  inventory.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, famRepo family.Repository, invSvc inventory.Service) Service {
	return &service{repo: repo, famRepo: famRepo, invSvc: invSvc}
}

func (svc *service) Create(ctx context.Context, nr NewRequest, byUserID string) (Request, error) {
	if _, err := svc.famRepo.GetFamilyByID(ctx, nr.FamilyID); err != nil {
		return Request{}, err
	}
	req := Request{
		FamilyID:                nr.FamilyID,
		Type:                    nr.Type,
		Status:                  StatusPending,
		Priority:                nr.Priority,
		CashAmount:              nr.CashAmount,
		Reason:                  nr.Reason,
		Notes:                   nr.Notes,
		PlannedDistributionDate: nr.PlannedDistributionDate,
		CreatedBy:               byUserID,
		UpdatedBy:               byUserID,
	}
	req.SetActive(true)

	items := make([]RequestItem, 0, len(nr.Items))
	for _, it := range nr.Items {
		if _, err := svc.invSvc.GetItem(ctx, it.ItemID); err != nil {
			return Request{}, err
		}
		items = append(items, RequestItem{
			ItemID:       it.ItemID,
			RequestedQty: it.RequestedQty,
			Notes:        it.Notes,
		})
	}
	return svc.repo.CreateRequest(ctx, req, items...)
}

func (svc *service) GetByID(ctx context.Context, id string) (Request, []RequestItem, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, nil, err
	}
	items, err := svc.repo.GetRequestItems(ctx, id)
	if err != nil {
		return Request{}, nil, err
	}
	return req, items, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Request, error) {
	filter.Clean()
	return svc.repo.FilterRequests(ctx, filter, ordering)
}

func (svc *service) Approve(ctx context.Context, id string, ar ApproveRequest, byUserID string) (Request, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, transitionError(req.Status, StatusApproved)
	}

	if len(ar.ApprovedQtys) > 0 {
		items, err := svc.repo.GetRequestItems(ctx, id)
		if err != nil {
			return Request{}, err
		}
		byID := make(map[string]RequestItem, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		for itemID, qty := range ar.ApprovedQtys {
			it, ok := byID[itemID]
			if !ok {
				return Request{}, ErrItemNotFound
			}
			qty := qty
			it.ApprovedQty = &qty
			if _, err = svc.repo.UpdateRequestItem(ctx, it); err != nil {
				return Request{}, err
			}
		}
	}

	now := time.Now().UTC()
	req.Status = StatusApproved
	req.ApprovedBy = byUserID
	req.ApprovedAt = &now
	req.ApprovalNotes = ar.Notes
	req.UpdatedBy = byUserID
	return svc.repo.UpdateRequest(ctx, req)
}

func (svc *service) Reject(ctx context.Context, id string, rr RejectRequest, byUserID string) (Request, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, transitionError(req.Status, StatusRejected)
	}
	now := time.Now().UTC()
	req.Status = StatusRejected
	req.ApprovedBy = byUserID
	req.ApprovedAt = &now
	req.ApprovalNotes = rr.Reason
	req.UpdatedBy = byUserID
	return svc.repo.UpdateRequest(ctx, req)
}

func (svc *service) Prepare(ctx context.Context, id string, byUserID string) (Request, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusApproved {
		return Request{}, transitionError(req.Status, StatusPrepared)
	}

	// every in-kind line must be coverable by current stock before the
	// request is marked ready for pickup
	items, err := svc.repo.GetRequestItems(ctx, id)
	if err != nil {
		return Request{}, err
	}
	for _, it := range items {
		if err = svc.invSvc.CanFulfil(ctx, it.ItemID, it.EffectiveQty()); err != nil {
			return Request{}, err
		}
	}

	now := time.Now().UTC()
	req.Status = StatusPrepared
	req.PreparedBy = byUserID
	req.PreparedAt = &now
	req.UpdatedBy = byUserID
	return svc.repo.UpdateRequest(ctx, req)
}

// Distribute hands the aid out: each in-kind line becomes an outgoing stock
// movement and the line's distributed quantity is stamped.
func (svc *service) Distribute(ctx context.Context, id string, byUserID string) (Request, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPrepared {
		return Request{}, transitionError(req.Status, StatusDistributed)
	}

	items, err := svc.repo.GetRequestItems(ctx, id)
	if err != nil {
		return Request{}, err
	}
	// stock may have moved since Prepare; verify every outstanding line is
	// still coverable before deducting any of them
	for _, it := range items {
		if it.DistributedQty != nil {
			continue
		}
		if err = svc.invSvc.CanFulfil(ctx, it.ItemID, it.EffectiveQty()); err != nil {
			return Request{}, err
		}
	}
	for _, it := range items {
		// lines stamped by an earlier attempt are done; re-deducting them
		// would hand the family the goods twice
		if it.DistributedQty != nil {
			continue
		}
		qty := it.EffectiveQty()
		if qty <= 0 {
			continue
		}
		nm := inventory.NewMovement{
			ItemID:       it.ItemID,
			Type:         inventory.MovementOut,
			Quantity:     qty,
			FamilyID:     req.FamilyID,
			AidRequestID: req.ID,
			Description:  fmt.Sprintf("aid distribution for request %s", req.ID),
		}
		if _, err = svc.invSvc.RecordMovement(ctx, nm, byUserID); err != nil {
			return Request{}, err
		}
		it.DistributedQty = &qty
		if _, err = svc.repo.UpdateRequestItem(ctx, it); err != nil {
			return Request{}, err
		}
	}

	now := time.Now().UTC()
	req.Status = StatusDistributed
	req.DistributedBy = byUserID
	req.DistributedAt = &now
	req.UpdatedBy = byUserID
	return svc.repo.UpdateRequest(ctx, req)
}

func (svc *service) Cancel(ctx context.Context, id string, byUserID string) (Request, error) {
	req, err := svc.repo.GetRequestByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	switch req.Status {
	case StatusPending, StatusApproved, StatusPrepared:
	default:
		return Request{}, transitionError(req.Status, StatusCancelled)
	}
	req.Status = StatusCancelled
	req.UpdatedBy = byUserID
	return svc.repo.UpdateRequest(ctx, req)
}

func (svc *service) CreateDistribution(ctx context.Context, nd NewDistribution, byUserID string) (Distribution, error) {
	for _, reqID := range nd.RequestIDs {
		if _, err := svc.repo.GetRequestByID(ctx, reqID); err != nil {
			return Distribution{}, err
		}
	}
	dist := Distribution{
		Name:            nd.Name,
		Date:            nd.Date,
		Type:            nd.Type,
		Zone:            nd.Zone,
		Description:     nd.Description,
		RequestIDs:      nd.RequestIDs,
		ResponsibleUser: nd.ResponsibleUser,
		CreatedBy:       byUserID,
	}
	return svc.repo.CreateDistribution(ctx, dist)
}

func (svc *service) GetDistribution(ctx context.Context, id string) (Distribution, error) {
	return svc.repo.GetDistributionByID(ctx, id)
}

func (svc *service) QueryDistributions(ctx context.Context, ordering ...core.DBOrdering) ([]Distribution, error) {
	return svc.repo.GetAllDistributions(ctx, ordering)
}

func (svc *service) CompleteDistribution(ctx context.Context, id string) (Distribution, error) {
	dist, err := svc.repo.GetDistributionByID(ctx, id)
	if err != nil {
		return Distribution{}, err
	}
	if dist.IsCompleted {
		return Distribution{}, ErrDistributionClosed
	}
	now := time.Now().UTC()
	dist.IsCompleted = true
	dist.CompletedAt = &now
	return svc.repo.UpdateDistribution(ctx, dist)
}

func transitionError(from, to string) error {
	return errors.Wrapf(ErrInvalidTransition, "%s -> %s", from, to)
}
