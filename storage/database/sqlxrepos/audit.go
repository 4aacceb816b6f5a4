package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/audit"
)

type auditEntryRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Action    string    `db:"action"`
	Entity    string    `db:"entity"`
	ObjectID  string    `db:"object_id"`
	Changes   string    `db:"changes"`
	IPAddress string    `db:"ip_address"`
	UserAgent string    `db:"user_agent"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *auditEntryRow) load(e audit.Entry) {
	r.ID = e.ID
	r.UserID = e.UserID
	r.Action = e.Action
	r.Entity = e.Entity
	r.ObjectID = e.ObjectID
	r.Changes = string(e.Changes)
	r.IPAddress = e.IPAddress
	r.UserAgent = e.UserAgent
	r.CreatedAt = e.CreatedAt.UTC()
}

func (r *auditEntryRow) entry() audit.Entry {
	e := audit.Entry{
		ID:        r.ID,
		UserID:    r.UserID,
		Action:    r.Action,
		Entity:    r.Entity,
		ObjectID:  r.ObjectID,
		IPAddress: r.IPAddress,
		UserAgent: r.UserAgent,
		CreatedAt: r.CreatedAt,
	}
	if r.Changes != "" {
		e.Changes = json.RawMessage(r.Changes)
	}
	return e
}

type auditRepository struct {
	db *sqlx.DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *sqlx.DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo auditRepository) CreateEntry(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()

	var row auditEntryRow
	row.load(e)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO audit_logs (id, user_id, action, entity, object_id, changes, ip_address, user_agent, created_at)
		VALUES (:id, :user_id, :action, :entity, :object_id, :changes, :ip_address, :user_agent, :created_at)`,
		&row,
	)
	if err != nil {
		return audit.Entry{}, errors.Wrap(err, "inserting audit entry")
	}
	return row.entry(), nil
}

func (repo auditRepository) GetEntryByID(ctx context.Context, id string) (audit.Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return audit.Entry{}, audit.ErrNotFound
	}
	var row auditEntryRow
	err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM audit_logs WHERE id = ?"), id)
	if err == sql.ErrNoRows {
		return audit.Entry{}, audit.ErrNotFound
	}
	if err != nil {
		return audit.Entry{}, errors.Wrap(err, "finding audit entry")
	}
	return row.entry(), nil
}

func (repo auditRepository) FilterEntries(ctx context.Context, filter audit.QueryFilter, ordering []core.DBOrdering) ([]audit.Entry, error) {
	query := "SELECT * FROM audit_logs WHERE 1=1"
	var args []interface{}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if filter.Entity != "" {
		query += " AND entity = ?"
		args = append(args, filter.Entity)
	}
	if filter.ObjectID != "" {
		query += " AND object_id = ?"
		args = append(args, filter.ObjectID)
	}
	if filter.From != nil {
		query += " AND created_at >= ?"
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		query += " AND created_at <= ?"
		args = append(args, filter.To.UTC())
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	query += orderClause(ordering)

	var rows []auditEntryRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying audit entries")
	}
	entries := make([]audit.Entry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].entry())
	}
	return entries, nil
}
