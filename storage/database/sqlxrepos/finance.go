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
	"github.com/yardimel/yardimel/core/finance"
)

type cashAidRow struct {
	ID            string    `db:"id"`
	FamilyID      string    `db:"family_id"`
	AidRequestID  string    `db:"aid_request_id"`
	Amount        int64     `db:"amount"`
	Status        string    `db:"status"`
	PaymentMethod string    `db:"payment_method"`
	Reason        string    `db:"reason"`
	Notes         string    `db:"notes"`
	AccountItemID string    `db:"account_item_id"`
	ApprovedBy    string    `db:"approved_by"`
	ApprovedAt    null.Time `db:"approved_at"`
	PaidBy        string    `db:"paid_by"`
	PaidAt        null.Time `db:"paid_at"`
	TransactionID string    `db:"transaction_id"`
	CreatedBy     string    `db:"created_by"`
	UpdatedBy     string    `db:"updated_by"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *cashAidRow) load(ca finance.CashAid) {
	r.ID = ca.ID
	r.FamilyID = ca.FamilyID
	r.AidRequestID = ca.AidRequestID
	r.Amount = ca.Amount
	r.Status = ca.Status
	r.PaymentMethod = ca.PaymentMethod
	r.Reason = ca.Reason
	r.Notes = ca.Notes
	r.AccountItemID = ca.AccountItemID
	r.ApprovedBy = ca.ApprovedBy
	r.ApprovedAt = timePtrToNull(ca.ApprovedAt)
	r.PaidBy = ca.PaidBy
	r.PaidAt = timePtrToNull(ca.PaidAt)
	r.TransactionID = ca.TransactionID
	r.CreatedBy = ca.CreatedBy
	r.UpdatedBy = ca.UpdatedBy
	r.CreatedAt = ca.CreatedAt.UTC()
	r.UpdatedAt = ca.UpdatedAt.UTC()
}

func (r *cashAidRow) cashAid() finance.CashAid {
	return finance.CashAid{
		ID:            r.ID,
		FamilyID:      r.FamilyID,
		AidRequestID:  r.AidRequestID,
		Amount:        r.Amount,
		Status:        r.Status,
		PaymentMethod: r.PaymentMethod,
		Reason:        r.Reason,
		Notes:         r.Notes,
		AccountItemID: r.AccountItemID,
		ApprovedBy:    r.ApprovedBy,
		ApprovedAt:    nullToTimePtr(r.ApprovedAt),
		PaidBy:        r.PaidBy,
		PaidAt:        nullToTimePtr(r.PaidAt),
		TransactionID: r.TransactionID,
		CreatedBy:     r.CreatedBy,
		UpdatedBy:     r.UpdatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type pendingInvoiceRow struct {
	ID            string    `db:"id"`
	Type          string    `db:"invoice_type"`
	Status        string    `db:"status"`
	Amount        int64     `db:"amount"`
	SubscriberNo  string    `db:"subscriber_no"`
	Provider      string    `db:"provider"`
	DueDate       time.Time `db:"due_date"`
	DonorID       string    `db:"donor_id"`
	FamilyID      string    `db:"family_id"`
	Notes         string    `db:"notes"`
	ReservedBy    string    `db:"reserved_by"`
	ReservedAt    null.Time `db:"reserved_at"`
	UsedAt        null.Time `db:"used_at"`
	TransactionID string    `db:"transaction_id"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *pendingInvoiceRow) load(inv finance.PendingInvoice) {
	r.ID = inv.ID
	r.Type = inv.Type
	r.Status = inv.Status
	r.Amount = inv.Amount
	r.SubscriberNo = inv.SubscriberNo
	r.Provider = inv.Provider
	r.DueDate = inv.DueDate.UTC()
	r.DonorID = inv.DonorID
	r.FamilyID = inv.FamilyID
	r.Notes = inv.Notes
	r.ReservedBy = inv.ReservedBy
	r.ReservedAt = timePtrToNull(inv.ReservedAt)
	r.UsedAt = timePtrToNull(inv.UsedAt)
	r.TransactionID = inv.TransactionID
	r.CreatedBy = inv.CreatedBy
	r.CreatedAt = inv.CreatedAt.UTC()
	r.UpdatedAt = inv.UpdatedAt.UTC()
}

func (r *pendingInvoiceRow) invoice() finance.PendingInvoice {
	return finance.PendingInvoice{
		ID:            r.ID,
		Type:          r.Type,
		Status:        r.Status,
		Amount:        r.Amount,
		SubscriberNo:  r.SubscriberNo,
		Provider:      r.Provider,
		DueDate:       r.DueDate,
		DonorID:       r.DonorID,
		FamilyID:      r.FamilyID,
		Notes:         r.Notes,
		ReservedBy:    r.ReservedBy,
		ReservedAt:    nullToTimePtr(r.ReservedAt),
		UsedAt:        nullToTimePtr(r.UsedAt),
		TransactionID: r.TransactionID,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type transactionRow struct {
	ID            string    `db:"id"`
	Type          string    `db:"type"`
	Category      string    `db:"category"`
	Amount        int64     `db:"amount"`
	Date          time.Time `db:"date"`
	Description   string    `db:"description"`
	DonorID       string    `db:"donor_id"`
	FamilyID      string    `db:"family_id"`
	ReferenceNo   string    `db:"reference_no"`
	PaymentMethod string    `db:"payment_method"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *transactionRow) load(trx finance.Transaction) {
	r.ID = trx.ID
	r.Type = trx.Type
	r.Category = trx.Category
	r.Amount = trx.Amount
	r.Date = trx.Date.UTC()
	r.Description = trx.Description
	r.DonorID = trx.DonorID
	r.FamilyID = trx.FamilyID
	r.ReferenceNo = trx.ReferenceNo
	r.PaymentMethod = trx.PaymentMethod
	r.CreatedBy = trx.CreatedBy
	r.CreatedAt = trx.CreatedAt.UTC()
	r.UpdatedAt = trx.UpdatedAt.UTC()
}

func (r *transactionRow) transaction() finance.Transaction {
	return finance.Transaction{
		ID:            r.ID,
		Type:          r.Type,
		Category:      r.Category,
		Amount:        r.Amount,
		Date:          r.Date,
		Description:   r.Description,
		DonorID:       r.DonorID,
		FamilyID:      r.FamilyID,
		ReferenceNo:   r.ReferenceNo,
		PaymentMethod: r.PaymentMethod,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type budgetRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Category  string    `db:"category"`
	Period    string    `db:"period"`
	Amount    int64     `db:"amount"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Notes     string    `db:"notes"`
	IsActive  null.Bool `db:"is_active"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *budgetRow) load(b finance.Budget) {
	r.ID = b.ID
	r.Name = b.Name
	r.Category = b.Category
	r.Period = b.Period
	r.Amount = b.Amount
	r.StartDate = b.StartDate.UTC()
	r.EndDate = b.EndDate.UTC()
	r.Notes = b.Notes
	r.IsActive = null.BoolFromPtr(b.IsActive)
	r.CreatedBy = b.CreatedBy
	r.CreatedAt = b.CreatedAt.UTC()
	r.UpdatedAt = b.UpdatedAt.UTC()
}

func (r *budgetRow) budget() finance.Budget {
	return finance.Budget{
		ID:        r.ID,
		Name:      r.Name,
		Category:  r.Category,
		Period:    r.Period,
		Amount:    r.Amount,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Notes:     r.Notes,
		IsActive:  r.IsActive.Ptr(),
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type financeRepository struct {
	db *sqlx.DB
}

var _ finance.Repository = (*financeRepository)(nil) // interface compliance check

func NewFinanceRepository(db *sqlx.DB) *financeRepository {
	return &financeRepository{db: db}
}

func (repo financeRepository) trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// ---------- cash aids ----------

func (repo financeRepository) CreateCashAid(ctx context.Context, ca finance.CashAid) (finance.CashAid, error) {
	ca.ID = uuid.New().String()
	now := time.Now().UTC()
	ca.CreatedAt, ca.UpdatedAt = now, now

	var row cashAidRow
	row.load(ca)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO cash_aids (id, family_id, aid_request_id, amount, status, payment_method, reason, notes,
			account_item_id, approved_by, approved_at, paid_by, paid_at, transaction_id,
			created_by, updated_by, created_at, updated_at)
		VALUES (:id, :family_id, :aid_request_id, :amount, :status, :payment_method, :reason, :notes,
			:account_item_id, :approved_by, :approved_at, :paid_by, :paid_at, :transaction_id,
			:created_by, :updated_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return finance.CashAid{}, errors.Wrap(err, "inserting cash aid")
	}
	return row.cashAid(), nil
}

func (repo financeRepository) GetCashAidByID(ctx context.Context, id string) (finance.CashAid, error) {
	if _, err := uuid.Parse(id); err != nil {
		return finance.CashAid{}, finance.ErrCashAidNotFound
	}
	var row cashAidRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM cash_aids WHERE id = ?"), id); err != nil {
		return finance.CashAid{}, repo.trapNoRowsErr(err, finance.ErrCashAidNotFound, "finding cash aid")
	}
	return row.cashAid(), nil
}

func (repo financeRepository) FilterCashAids(ctx context.Context, filter finance.CashAidQueryFilter, ordering []core.DBOrdering) ([]finance.CashAid, error) {
	query := "SELECT * FROM cash_aids WHERE 1=1"
	var args []interface{}

	if filter.FamilyID != "" {
		query += " AND family_id = ?"
		args = append(args, filter.FamilyID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	query += orderClause(ordering)

	var rows []cashAidRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying cash aids")
	}
	cas := make([]finance.CashAid, 0, len(rows))
	for i := range rows {
		cas = append(cas, rows[i].cashAid())
	}
	return cas, nil
}

func (repo financeRepository) UpdateCashAid(ctx context.Context, ca finance.CashAid) (finance.CashAid, error) {
	ca.UpdatedAt = time.Now().UTC()
	var row cashAidRow
	row.load(ca)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE cash_aids SET status = :status, payment_method = :payment_method, reason = :reason,
			notes = :notes, account_item_id = :account_item_id, approved_by = :approved_by,
			approved_at = :approved_at, paid_by = :paid_by, paid_at = :paid_at,
			transaction_id = :transaction_id, updated_by = :updated_by, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return finance.CashAid{}, errors.Wrap(err, "updating cash aid")
	}
	return repo.GetCashAidByID(ctx, ca.ID)
}

// ---------- pending invoices ----------

func (repo financeRepository) CreateInvoice(ctx context.Context, inv finance.PendingInvoice) (finance.PendingInvoice, error) {
	inv.ID = uuid.New().String()
	now := time.Now().UTC()
	inv.CreatedAt, inv.UpdatedAt = now, now

	var row pendingInvoiceRow
	row.load(inv)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO pending_invoices (id, invoice_type, status, amount, subscriber_no, provider, due_date,
			donor_id, family_id, notes, reserved_by, reserved_at, used_at, transaction_id,
			created_by, created_at, updated_at)
		VALUES (:id, :invoice_type, :status, :amount, :subscriber_no, :provider, :due_date,
			:donor_id, :family_id, :notes, :reserved_by, :reserved_at, :used_at, :transaction_id,
			:created_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return finance.PendingInvoice{}, errors.Wrap(err, "inserting pending invoice")
	}
	return row.invoice(), nil
}

func (repo financeRepository) GetInvoiceByID(ctx context.Context, id string) (finance.PendingInvoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		return finance.PendingInvoice{}, finance.ErrInvoiceNotFound
	}
	var row pendingInvoiceRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM pending_invoices WHERE id = ?"), id); err != nil {
		return finance.PendingInvoice{}, repo.trapNoRowsErr(err, finance.ErrInvoiceNotFound, "finding pending invoice")
	}
	return row.invoice(), nil
}

func (repo financeRepository) FilterInvoices(ctx context.Context, filter finance.InvoiceQueryFilter, ordering []core.DBOrdering) ([]finance.PendingInvoice, error) {
	query := "SELECT * FROM pending_invoices WHERE 1=1"
	var args []interface{}

	if filter.Type != "" {
		query += " AND invoice_type = ?"
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.FamilyID != "" {
		query += " AND family_id = ?"
		args = append(args, filter.FamilyID)
	}
	if filter.DonorID != "" {
		query += " AND donor_id = ?"
		args = append(args, filter.DonorID)
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "due_date", Ascending: true}}
	}
	query += orderClause(ordering)

	var rows []pendingInvoiceRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying pending invoices")
	}
	invs := make([]finance.PendingInvoice, 0, len(rows))
	for i := range rows {
		invs = append(invs, rows[i].invoice())
	}
	return invs, nil
}

func (repo financeRepository) UpdateInvoice(ctx context.Context, inv finance.PendingInvoice) (finance.PendingInvoice, error) {
	inv.UpdatedAt = time.Now().UTC()
	var row pendingInvoiceRow
	row.load(inv)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE pending_invoices SET status = :status, amount = :amount, subscriber_no = :subscriber_no,
			provider = :provider, due_date = :due_date, donor_id = :donor_id, family_id = :family_id,
			notes = :notes, reserved_by = :reserved_by, reserved_at = :reserved_at, used_at = :used_at,
			transaction_id = :transaction_id, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return finance.PendingInvoice{}, errors.Wrap(err, "updating pending invoice")
	}
	return repo.GetInvoiceByID(ctx, inv.ID)
}

// ---------- transactions ----------

func (repo financeRepository) CreateTransaction(ctx context.Context, trx finance.Transaction) (finance.Transaction, error) {
	trx.ID = uuid.New().String()
	now := time.Now().UTC()
	trx.CreatedAt, trx.UpdatedAt = now, now

	var row transactionRow
	row.load(trx)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO transactions (id, type, category, amount, date, description, donor_id, family_id,
			reference_no, payment_method, created_by, created_at, updated_at)
		VALUES (:id, :type, :category, :amount, :date, :description, :donor_id, :family_id,
			:reference_no, :payment_method, :created_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return finance.Transaction{}, errors.Wrap(err, "inserting transaction")
	}
	return row.transaction(), nil
}

func (repo financeRepository) GetTransactionByID(ctx context.Context, id string) (finance.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return finance.Transaction{}, finance.ErrTransactionNotFound
	}
	var row transactionRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM transactions WHERE id = ?"), id); err != nil {
		return finance.Transaction{}, repo.trapNoRowsErr(err, finance.ErrTransactionNotFound, "finding transaction")
	}
	return row.transaction(), nil
}

func (repo financeRepository) FilterTransactions(ctx context.Context, filter finance.TransactionQueryFilter, ordering []core.DBOrdering) ([]finance.Transaction, error) {
	query := "SELECT * FROM transactions WHERE 1=1"
	var args []interface{}

	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.FamilyID != "" {
		query += " AND family_id = ?"
		args = append(args, filter.FamilyID)
	}
	if filter.DonorID != "" {
		query += " AND donor_id = ?"
		args = append(args, filter.DonorID)
	}
	if filter.DateFrom != nil {
		query += " AND date >= ?"
		args = append(args, filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		query += " AND date <= ?"
		args = append(args, filter.DateTo.UTC())
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "date", Ascending: false}}
	}
	query += orderClause(ordering)

	var rows []transactionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying transactions")
	}
	trxs := make([]finance.Transaction, 0, len(rows))
	for i := range rows {
		trxs = append(trxs, rows[i].transaction())
	}
	return trxs, nil
}

// ---------- budgets ----------

func (repo financeRepository) CreateBudget(ctx context.Context, b finance.Budget) (finance.Budget, error) {
	b.ID = uuid.New().String()
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	if b.IsActive == nil {
		b.SetActive(true)
	}

	var row budgetRow
	row.load(b)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO budgets (id, name, category, period, amount, start_date, end_date, notes, is_active,
			created_by, created_at, updated_at)
		VALUES (:id, :name, :category, :period, :amount, :start_date, :end_date, :notes, :is_active,
			:created_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return finance.Budget{}, errors.Wrap(err, "inserting budget")
	}
	return row.budget(), nil
}

func (repo financeRepository) GetBudgetByID(ctx context.Context, id string) (finance.Budget, error) {
	if _, err := uuid.Parse(id); err != nil {
		return finance.Budget{}, finance.ErrBudgetNotFound
	}
	var row budgetRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM budgets WHERE id = ?"), id); err != nil {
		return finance.Budget{}, repo.trapNoRowsErr(err, finance.ErrBudgetNotFound, "finding budget")
	}
	return row.budget(), nil
}

func (repo financeRepository) GetAllBudgets(ctx context.Context, ordering []core.DBOrdering) ([]finance.Budget, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "start_date", Ascending: false}}
	}
	var rows []budgetRow
	query := "SELECT * FROM budgets" + orderClause(ordering)
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying budgets")
	}
	budgets := make([]finance.Budget, 0, len(rows))
	for i := range rows {
		budgets = append(budgets, rows[i].budget())
	}
	return budgets, nil
}

func (repo financeRepository) UpdateBudget(ctx context.Context, b finance.Budget) (finance.Budget, error) {
	b.UpdatedAt = time.Now().UTC()
	var row budgetRow
	row.load(b)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE budgets SET name = :name, category = :category, period = :period, amount = :amount,
			start_date = :start_date, end_date = :end_date, notes = :notes, is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return finance.Budget{}, errors.Wrap(err, "updating budget")
	}
	return repo.GetBudgetByID(ctx, b.ID)
}
