package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/aid"
)

type aidRequestRow struct {
	ID                      string    `db:"id"`
	FamilyID                string    `db:"family_id"`
	Type                    string    `db:"type"`
	Status                  string    `db:"status"`
	Priority                string    `db:"priority"`
	CashAmount              int64     `db:"cash_amount"`
	Reason                  string    `db:"reason"`
	Notes                   string    `db:"notes"`
	ApprovedBy              string    `db:"approved_by"`
	ApprovedAt              null.Time `db:"approved_at"`
	ApprovalNotes           string    `db:"approval_notes"`
	PreparedBy              string    `db:"prepared_by"`
	PreparedAt              null.Time `db:"prepared_at"`
	DistributedBy           string    `db:"distributed_by"`
	DistributedAt           null.Time `db:"distributed_at"`
	PlannedDistributionDate null.Time `db:"planned_distribution_date"`
	IsActive                null.Bool `db:"is_active"`
	CreatedBy               string    `db:"created_by"`
	UpdatedBy               string    `db:"updated_by"`
	CreatedAt               time.Time `db:"created_at"`
	UpdatedAt               time.Time `db:"updated_at"`
}

func timePtrToNull(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func nullToTimePtr(nt null.Time) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func (r *aidRequestRow) load(req aid.Request) {
	r.ID = req.ID
	r.FamilyID = req.FamilyID
	r.Type = req.Type
	r.Status = req.Status
	r.Priority = req.Priority
	r.CashAmount = req.CashAmount
	r.Reason = req.Reason
	r.Notes = req.Notes
	r.ApprovedBy = req.ApprovedBy
	r.ApprovedAt = timePtrToNull(req.ApprovedAt)
	r.ApprovalNotes = req.ApprovalNotes
	r.PreparedBy = req.PreparedBy
	r.PreparedAt = timePtrToNull(req.PreparedAt)
	r.DistributedBy = req.DistributedBy
	r.DistributedAt = timePtrToNull(req.DistributedAt)
	r.PlannedDistributionDate = timePtrToNull(req.PlannedDistributionDate)
	r.IsActive = null.BoolFromPtr(req.IsActive)
	r.CreatedBy = req.CreatedBy
	r.UpdatedBy = req.UpdatedBy
	r.CreatedAt = req.CreatedAt.UTC()
	r.UpdatedAt = req.UpdatedAt.UTC()
}

func (r *aidRequestRow) request() aid.Request {
	return aid.Request{
		ID:                      r.ID,
		FamilyID:                r.FamilyID,
		Type:                    r.Type,
		Status:                  r.Status,
		Priority:                r.Priority,
		CashAmount:              r.CashAmount,
		Reason:                  r.Reason,
		Notes:                   r.Notes,
		ApprovedBy:              r.ApprovedBy,
		ApprovedAt:              nullToTimePtr(r.ApprovedAt),
		ApprovalNotes:           r.ApprovalNotes,
		PreparedBy:              r.PreparedBy,
		PreparedAt:              nullToTimePtr(r.PreparedAt),
		DistributedBy:           r.DistributedBy,
		DistributedAt:           nullToTimePtr(r.DistributedAt),
		PlannedDistributionDate: nullToTimePtr(r.PlannedDistributionDate),
		IsActive:                r.IsActive.Ptr(),
		CreatedBy:               r.CreatedBy,
		UpdatedBy:               r.UpdatedBy,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
	}
}

type aidRequestItemRow struct {
	ID             string       `db:"id"`
	RequestID      string       `db:"request_id"`
	ItemID         string       `db:"item_id"`
	RequestedQty   float64      `db:"requested_quantity"`
	ApprovedQty    null.Float64 `db:"approved_quantity"`
	DistributedQty null.Float64 `db:"distributed_quantity"`
	Notes          string       `db:"notes"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (r *aidRequestItemRow) load(item aid.RequestItem) {
	r.ID = item.ID
	r.RequestID = item.RequestID
	r.ItemID = item.ItemID
	r.RequestedQty = item.RequestedQty
	r.ApprovedQty = null.Float64FromPtr(item.ApprovedQty)
	r.DistributedQty = null.Float64FromPtr(item.DistributedQty)
	r.Notes = item.Notes
	r.CreatedAt = item.CreatedAt.UTC()
	r.UpdatedAt = item.UpdatedAt.UTC()
}

func (r *aidRequestItemRow) requestItem() aid.RequestItem {
	return aid.RequestItem{
		ID:             r.ID,
		RequestID:      r.RequestID,
		ItemID:         r.ItemID,
		RequestedQty:   r.RequestedQty,
		ApprovedQty:    r.ApprovedQty.Ptr(),
		DistributedQty: r.DistributedQty.Ptr(),
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type distributionRow struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Date            time.Time `db:"distribution_date"`
	Type            string    `db:"distribution_type"`
	Zone            string    `db:"zone"`
	Description     string    `db:"description"`
	ResponsibleUser string    `db:"responsible_user"`
	IsCompleted     bool      `db:"is_completed"`
	CompletedAt     null.Time `db:"completed_at"`
	CreatedBy       string    `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r *distributionRow) load(dist aid.Distribution) {
	r.ID = dist.ID
	r.Name = dist.Name
	r.Date = dist.Date.UTC()
	r.Type = dist.Type
	r.Zone = dist.Zone
	r.Description = dist.Description
	r.ResponsibleUser = dist.ResponsibleUser
	r.IsCompleted = dist.IsCompleted
	r.CompletedAt = timePtrToNull(dist.CompletedAt)
	r.CreatedBy = dist.CreatedBy
	r.CreatedAt = dist.CreatedAt.UTC()
	r.UpdatedAt = dist.UpdatedAt.UTC()
}

func (r *distributionRow) distribution() aid.Distribution {
	return aid.Distribution{
		ID:              r.ID,
		Name:            r.Name,
		Date:            r.Date,
		Type:            r.Type,
		Zone:            r.Zone,
		Description:     r.Description,
		ResponsibleUser: r.ResponsibleUser,
		IsCompleted:     r.IsCompleted,
		CompletedAt:     nullToTimePtr(r.CompletedAt),
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type aidRepository struct {
	db *sqlx.DB
}

var _ aid.Repository = (*aidRepository)(nil) // interface compliance check

func NewAidRepository(db *sqlx.DB) *aidRepository {
	return &aidRepository{db: db}
}

func (repo aidRepository) trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// CreateRequest inserts the request together with its item lines in one
// transaction.
func (repo aidRepository) CreateRequest(ctx context.Context, req aid.Request, items ...aid.RequestItem) (aid.Request, error) {
	req.ID = uuid.New().String()
	now := time.Now().UTC()
	req.CreatedAt, req.UpdatedAt = now, now

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return aid.Request{}, errors.Wrap(err, "starting aid request transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var row aidRequestRow
	row.load(req)
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO aid_requests (id, family_id, type, status, priority, cash_amount, reason, notes,
			approved_by, approved_at, approval_notes, prepared_by, prepared_at, distributed_by, distributed_at,
			planned_distribution_date, is_active, created_by, updated_by, created_at, updated_at)
		VALUES (:id, :family_id, :type, :status, :priority, :cash_amount, :reason, :notes,
			:approved_by, :approved_at, :approval_notes, :prepared_by, :prepared_at, :distributed_by, :distributed_at,
			:planned_distribution_date, :is_active, :created_by, :updated_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return aid.Request{}, errors.Wrap(err, "inserting aid request")
	}

	for _, item := range items {
		item.ID = uuid.New().String()
		item.RequestID = req.ID
		item.CreatedAt, item.UpdatedAt = now, now

		var itemRow aidRequestItemRow
		itemRow.load(item)
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO aid_request_items (id, request_id, item_id, requested_quantity, approved_quantity, distributed_quantity, notes, created_at, updated_at)
			VALUES (:id, :request_id, :item_id, :requested_quantity, :approved_quantity, :distributed_quantity, :notes, :created_at, :updated_at)`,
			&itemRow,
		)
		if err != nil {
			return aid.Request{}, errors.Wrap(err, "inserting aid request item")
		}
	}

	if err = tx.Commit(); err != nil {
		return aid.Request{}, errors.Wrap(err, "committing aid request")
	}
	return row.request(), nil
}

func (repo aidRepository) GetRequestByID(ctx context.Context, id string) (aid.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return aid.Request{}, aid.ErrNotFound
	}
	var row aidRequestRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM aid_requests WHERE id = ?"), id); err != nil {
		return aid.Request{}, repo.trapNoRowsErr(err, aid.ErrNotFound, "finding aid request")
	}
	return row.request(), nil
}

func (repo aidRepository) FilterRequests(ctx context.Context, filter aid.QueryFilter, ordering []core.DBOrdering) ([]aid.Request, error) {
	query := "SELECT * FROM aid_requests WHERE 1=1"
	var args []interface{}

	if filter.FamilyID != "" {
		query += " AND family_id = ?"
		args = append(args, filter.FamilyID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Priority != "" {
		query += " AND priority = ?"
		args = append(args, filter.Priority)
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	query += orderClause(ordering)

	var rows []aidRequestRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying aid requests")
	}
	reqs := make([]aid.Request, 0, len(rows))
	for i := range rows {
		reqs = append(reqs, rows[i].request())
	}
	return reqs, nil
}

func (repo aidRepository) UpdateRequest(ctx context.Context, req aid.Request) (aid.Request, error) {
	req.UpdatedAt = time.Now().UTC()
	var row aidRequestRow
	row.load(req)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE aid_requests SET status = :status, priority = :priority, cash_amount = :cash_amount,
			reason = :reason, notes = :notes, approved_by = :approved_by, approved_at = :approved_at,
			approval_notes = :approval_notes, prepared_by = :prepared_by, prepared_at = :prepared_at,
			distributed_by = :distributed_by, distributed_at = :distributed_at,
			planned_distribution_date = :planned_distribution_date, is_active = :is_active,
			updated_by = :updated_by, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return aid.Request{}, errors.Wrap(err, "updating aid request")
	}
	return repo.GetRequestByID(ctx, req.ID)
}

func (repo aidRepository) GetRequestItems(ctx context.Context, requestID string) ([]aid.RequestItem, error) {
	var rows []aidRequestItemRow
	query := "SELECT * FROM aid_request_items WHERE request_id = ? ORDER BY created_at ASC"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), requestID); err != nil {
		return nil, errors.Wrap(err, "querying aid request items")
	}
	items := make([]aid.RequestItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].requestItem())
	}
	return items, nil
}

func (repo aidRepository) GetRequestItemByID(ctx context.Context, id string) (aid.RequestItem, error) {
	var row aidRequestItemRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM aid_request_items WHERE id = ?"), id); err != nil {
		return aid.RequestItem{}, repo.trapNoRowsErr(err, aid.ErrItemNotFound, "finding aid request item")
	}
	return row.requestItem(), nil
}

func (repo aidRepository) UpdateRequestItem(ctx context.Context, item aid.RequestItem) (aid.RequestItem, error) {
	item.UpdatedAt = time.Now().UTC()
	var row aidRequestItemRow
	row.load(item)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE aid_request_items SET approved_quantity = :approved_quantity,
			distributed_quantity = :distributed_quantity, notes = :notes, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return aid.RequestItem{}, errors.Wrap(err, "updating aid request item")
	}
	return repo.GetRequestItemByID(ctx, item.ID)
}

func (repo aidRepository) CreateDistribution(ctx context.Context, dist aid.Distribution) (aid.Distribution, error) {
	dist.ID = uuid.New().String()
	now := time.Now().UTC()
	dist.CreatedAt, dist.UpdatedAt = now, now

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return aid.Distribution{}, errors.Wrap(err, "starting distribution transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var row distributionRow
	row.load(dist)
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO aid_distributions (id, name, distribution_date, distribution_type, zone, description,
			responsible_user, is_completed, completed_at, created_by, created_at, updated_at)
		VALUES (:id, :name, :distribution_date, :distribution_type, :zone, :description,
			:responsible_user, :is_completed, :completed_at, :created_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return aid.Distribution{}, errors.Wrap(err, "inserting distribution")
	}

	for _, reqID := range dist.RequestIDs {
		_, err = tx.ExecContext(ctx, tx.Rebind("INSERT INTO aid_distribution_requests (distribution_id, request_id) VALUES (?, ?)"), dist.ID, reqID)
		if err != nil {
			return aid.Distribution{}, errors.Wrap(err, "linking distribution request")
		}
	}

	if err = tx.Commit(); err != nil {
		return aid.Distribution{}, errors.Wrap(err, "committing distribution")
	}
	return dist, nil
}

func (repo aidRepository) getDistributionRequestIDs(ctx context.Context, distributionID string) ([]string, error) {
	var ids []string
	query := "SELECT request_id FROM aid_distribution_requests WHERE distribution_id = ?"
	if err := repo.db.SelectContext(ctx, &ids, repo.db.Rebind(query), distributionID); err != nil {
		return nil, errors.Wrap(err, "querying distribution requests")
	}
	return ids, nil
}

func (repo aidRepository) GetDistributionByID(ctx context.Context, id string) (aid.Distribution, error) {
	var row distributionRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM aid_distributions WHERE id = ?"), id); err != nil {
		return aid.Distribution{}, repo.trapNoRowsErr(err, aid.ErrDistributionNotFound, "finding distribution")
	}
	dist := row.distribution()
	ids, err := repo.getDistributionRequestIDs(ctx, dist.ID)
	if err != nil {
		return aid.Distribution{}, err
	}
	dist.RequestIDs = ids
	return dist, nil
}

func (repo aidRepository) GetAllDistributions(ctx context.Context, ordering []core.DBOrdering) ([]aid.Distribution, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "distribution_date", Ascending: false}}
	}
	var rows []distributionRow
	query := "SELECT * FROM aid_distributions" + orderClause(ordering)
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying distributions")
	}
	dists := make([]aid.Distribution, 0, len(rows))
	for i := range rows {
		dist := rows[i].distribution()
		ids, err := repo.getDistributionRequestIDs(ctx, dist.ID)
		if err != nil {
			return nil, err
		}
		dist.RequestIDs = ids
		dists = append(dists, dist)
	}
	return dists, nil
}

func (repo aidRepository) UpdateDistribution(ctx context.Context, dist aid.Distribution) (aid.Distribution, error) {
	dist.UpdatedAt = time.Now().UTC()
	var row distributionRow
	row.load(dist)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE aid_distributions SET name = :name, distribution_date = :distribution_date,
			distribution_type = :distribution_type, zone = :zone, description = :description,
			responsible_user = :responsible_user, is_completed = :is_completed, completed_at = :completed_at,
			updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return aid.Distribution{}, errors.Wrap(err, "updating distribution")
	}
	return repo.GetDistributionByID(ctx, dist.ID)
}
