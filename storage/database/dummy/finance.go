package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/finance"
)

type financeRepository struct {
	db *financeTable
}

var _ finance.Repository = (*financeRepository)(nil) // interface compliance check

func NewFinanceRepository(db *DB) finance.Repository {
	return &financeRepository{db: db.finance}
}

func (repo *financeRepository) CreateCashAid(ctx context.Context, ca finance.CashAid) (finance.CashAid, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ca.ID = uuid.New().String()
	now := time.Now().UTC()
	ca.CreatedAt, ca.UpdatedAt = now, now
	repo.db.cashAids[ca.ID] = &ca
	return ca, nil
}

func (repo *financeRepository) GetCashAidByID(ctx context.Context, id string) (finance.CashAid, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ca, ok := repo.db.cashAids[id]; ok {
		return *ca, nil
	}
	return finance.CashAid{}, finance.ErrCashAidNotFound
}

func (repo *financeRepository) FilterCashAids(ctx context.Context, filter finance.CashAidQueryFilter, ordering []core.DBOrdering) ([]finance.CashAid, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cas []finance.CashAid
	for _, ca := range repo.db.cashAids {
		if filter.FamilyID != "" && ca.FamilyID != filter.FamilyID {
			continue
		}
		if filter.Status != "" && ca.Status != filter.Status {
			continue
		}
		cas = append(cas, *ca)
	}
	sort.Slice(cas, func(i, j int) bool { return cas[i].CreatedAt.After(cas[j].CreatedAt) })
	return cas, nil
}

func (repo *financeRepository) UpdateCashAid(ctx context.Context, ca finance.CashAid) (finance.CashAid, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.cashAids[ca.ID]; !ok {
		return finance.CashAid{}, finance.ErrCashAidNotFound
	}
	ca.UpdatedAt = time.Now().UTC()
	repo.db.cashAids[ca.ID] = &ca
	return ca, nil
}

func (repo *financeRepository) CreateInvoice(ctx context.Context, inv finance.PendingInvoice) (finance.PendingInvoice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	inv.ID = uuid.New().String()
	now := time.Now().UTC()
	inv.CreatedAt, inv.UpdatedAt = now, now
	repo.db.invoices[inv.ID] = &inv
	return inv, nil
}

func (repo *financeRepository) GetInvoiceByID(ctx context.Context, id string) (finance.PendingInvoice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inv, ok := repo.db.invoices[id]; ok {
		return *inv, nil
	}
	return finance.PendingInvoice{}, finance.ErrInvoiceNotFound
}

func (repo *financeRepository) FilterInvoices(ctx context.Context, filter finance.InvoiceQueryFilter, ordering []core.DBOrdering) ([]finance.PendingInvoice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var invs []finance.PendingInvoice
	for _, inv := range repo.db.invoices {
		if filter.Type != "" && inv.Type != filter.Type {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.FamilyID != "" && inv.FamilyID != filter.FamilyID {
			continue
		}
		if filter.DonorID != "" && inv.DonorID != filter.DonorID {
			continue
		}
		invs = append(invs, *inv)
	}
	sort.Slice(invs, func(i, j int) bool { return invs[i].DueDate.Before(invs[j].DueDate) })
	return invs, nil
}

func (repo *financeRepository) UpdateInvoice(ctx context.Context, inv finance.PendingInvoice) (finance.PendingInvoice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.invoices[inv.ID]; !ok {
		return finance.PendingInvoice{}, finance.ErrInvoiceNotFound
	}
	inv.UpdatedAt = time.Now().UTC()
	repo.db.invoices[inv.ID] = &inv
	return inv, nil
}

func (repo *financeRepository) CreateTransaction(ctx context.Context, trx finance.Transaction) (finance.Transaction, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	trx.ID = uuid.New().String()
	now := time.Now().UTC()
	trx.CreatedAt, trx.UpdatedAt = now, now
	repo.db.transactions[trx.ID] = &trx
	return trx, nil
}

func (repo *financeRepository) GetTransactionByID(ctx context.Context, id string) (finance.Transaction, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if trx, ok := repo.db.transactions[id]; ok {
		return *trx, nil
	}
	return finance.Transaction{}, finance.ErrTransactionNotFound
}

func (repo *financeRepository) FilterTransactions(ctx context.Context, filter finance.TransactionQueryFilter, ordering []core.DBOrdering) ([]finance.Transaction, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var trxs []finance.Transaction
	for _, trx := range repo.db.transactions {
		if filter.Type != "" && trx.Type != filter.Type {
			continue
		}
		if filter.Category != "" && trx.Category != filter.Category {
			continue
		}
		if filter.FamilyID != "" && trx.FamilyID != filter.FamilyID {
			continue
		}
		if filter.DonorID != "" && trx.DonorID != filter.DonorID {
			continue
		}
		if filter.DateFrom != nil && trx.Date.Before(filter.DateFrom.UTC()) {
			continue
		}
		if filter.DateTo != nil && trx.Date.After(filter.DateTo.UTC()) {
			continue
		}
		trxs = append(trxs, *trx)
	}
	sort.Slice(trxs, func(i, j int) bool { return trxs[i].Date.After(trxs[j].Date) })
	return trxs, nil
}

func (repo *financeRepository) CreateBudget(ctx context.Context, b finance.Budget) (finance.Budget, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	b.ID = uuid.New().String()
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	if b.IsActive == nil {
		b.SetActive(true)
	}
	repo.db.budgets[b.ID] = &b
	return b, nil
}

func (repo *financeRepository) GetBudgetByID(ctx context.Context, id string) (finance.Budget, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b, ok := repo.db.budgets[id]; ok {
		return *b, nil
	}
	return finance.Budget{}, finance.ErrBudgetNotFound
}

func (repo *financeRepository) GetAllBudgets(ctx context.Context, ordering []core.DBOrdering) ([]finance.Budget, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	budgets := make([]finance.Budget, 0, len(repo.db.budgets))
	for _, b := range repo.db.budgets {
		budgets = append(budgets, *b)
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].StartDate.After(budgets[j].StartDate) })
	return budgets, nil
}

func (repo *financeRepository) UpdateBudget(ctx context.Context, b finance.Budget) (finance.Budget, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.budgets[b.ID]; !ok {
		return finance.Budget{}, finance.ErrBudgetNotFound
	}
	b.UpdatedAt = time.Now().UTC()
	repo.db.budgets[b.ID] = &b
	return b, nil
}
