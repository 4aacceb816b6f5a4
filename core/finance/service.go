package finance

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
	ErrCashAidNotFound     = errors.New("cash aid not found")
	ErrInvoiceNotFound     = errors.New("pending invoice not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvoiceNotAvailable = errors.New("invoice is not available")
	ErrInvoiceNotReserved  = errors.New("invoice is not reserved")
)

type (
	Repository interface {
		CreateCashAid(ctx context.Context, ca CashAid) (CashAid, error)
		GetCashAidByID(ctx context.Context, id string) (CashAid, error)
		FilterCashAids(ctx context.Context, filter CashAidQueryFilter, ordering []core.DBOrdering) ([]CashAid, error)
		UpdateCashAid(ctx context.Context, ca CashAid) (CashAid, error)

		CreateInvoice(ctx context.Context, inv PendingInvoice) (PendingInvoice, error)
		GetInvoiceByID(ctx context.Context, id string) (PendingInvoice, error)
		FilterInvoices(ctx context.Context, filter InvoiceQueryFilter, ordering []core.DBOrdering) ([]PendingInvoice, error)
		UpdateInvoice(ctx context.Context, inv PendingInvoice) (PendingInvoice, error)

		CreateTransaction(ctx context.Context, trx Transaction) (Transaction, error)
		GetTransactionByID(ctx context.Context, id string) (Transaction, error)
		FilterTransactions(ctx context.Context, filter TransactionQueryFilter, ordering []core.DBOrdering) ([]Transaction, error)

		CreateBudget(ctx context.Context, b Budget) (Budget, error)
		GetBudgetByID(ctx context.Context, id string) (Budget, error)
		GetAllBudgets(ctx context.Context, ordering []core.DBOrdering) ([]Budget, error)
		UpdateBudget(ctx context.Context, b Budget) (Budget, error)
	}

	Service interface {
		CreateCashAid(ctx context.Context, nca NewCashAid, byUserID string) (CashAid, error)
		GetCashAid(ctx context.Context, id string) (CashAid, error)
		QueryCashAids(ctx context.Context, filter CashAidQueryFilter, ordering ...core.DBOrdering) ([]CashAid, error)
		ApproveCashAid(ctx context.Context, id string, byUserID string) (CashAid, error)
		RejectCashAid(ctx context.Context, id, reason string, byUserID string) (CashAid, error)
		PayCashAid(ctx context.Context, id string, pca PayCashAid, byUserID string) (CashAid, error)
		CancelCashAid(ctx context.Context, id string, byUserID string) (CashAid, error)

		CreateInvoice(ctx context.Context, npi NewPendingInvoice, byUserID string) (PendingInvoice, error)
		GetInvoice(ctx context.Context, id string) (PendingInvoice, error)
		QueryInvoices(ctx context.Context, filter InvoiceQueryFilter, ordering ...core.DBOrdering) ([]PendingInvoice, error)
		ReserveInvoice(ctx context.Context, id, familyID string, byUserID string) (PendingInvoice, error)
		ReleaseInvoice(ctx context.Context, id string) (PendingInvoice, error)
		UseInvoice(ctx context.Context, id string, byUserID string) (PendingInvoice, error)
		ExpireInvoices(ctx context.Context) (int, error)

		RecordTransaction(ctx context.Context, nt NewTransaction, byUserID string) (Transaction, error)
		GetTransaction(ctx context.Context, id string) (Transaction, error)
		QueryTransactions(ctx context.Context, filter TransactionQueryFilter, ordering ...core.DBOrdering) ([]Transaction, error)
		Summarize(ctx context.Context, from, to time.Time) (Summary, error)

		CreateBudget(ctx context.Context, nb NewBudget, byUserID string) (Budget, error)
		GetBudget(ctx context.Context, id string) (Budget, error)
		QueryBudgets(ctx context.Context, ordering ...core.DBOrdering) ([]Budget, error)
		ArchiveBudget(ctx context.Context, id string) error
		BudgetUsage(ctx context.Context, id string) (Budget, int64, error)
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

// ---------- cash aid ----------

func (svc *service) CreateCashAid(ctx context.Context, nca NewCashAid, byUserID string) (CashAid, error) {
	if _, err := svc.famRepo.GetFamilyByID(ctx, nca.FamilyID); err != nil {
		return CashAid{}, err
	}
	if nca.AccountItemID != "" {
		if _, err := svc.invSvc.GetItem(ctx, nca.AccountItemID); err != nil {
			return CashAid{}, err
		}
	}
	ca := CashAid{
		FamilyID:      nca.FamilyID,
		AidRequestID:  nca.AidRequestID,
		Amount:        nca.Amount,
		Status:        CashAidPending,
		Reason:        nca.Reason,
		Notes:         nca.Notes,
		AccountItemID: nca.AccountItemID,
		CreatedBy:     byUserID,
		UpdatedBy:     byUserID,
	}
	return svc.repo.CreateCashAid(ctx, ca)
}

func (svc *service) GetCashAid(ctx context.Context, id string) (CashAid, error) {
	return svc.repo.GetCashAidByID(ctx, id)
}

func (svc *service) QueryCashAids(ctx context.Context, filter CashAidQueryFilter, ordering ...core.DBOrdering) ([]CashAid, error) {
	filter.Clean()
	return svc.repo.FilterCashAids(ctx, filter, ordering)
}

func (svc *service) ApproveCashAid(ctx context.Context, id string, byUserID string) (CashAid, error) {
	ca, err := svc.repo.GetCashAidByID(ctx, id)
	if err != nil {
		return CashAid{}, err
	}
	if ca.Status != CashAidPending {
		return CashAid{}, transitionError(ca.Status, CashAidApproved)
	}
	now := time.Now().UTC()
	ca.Status = CashAidApproved
	ca.ApprovedBy = byUserID
	ca.ApprovedAt = &now
	ca.UpdatedBy = byUserID
	return svc.repo.UpdateCashAid(ctx, ca)
}

func (svc *service) RejectCashAid(ctx context.Context, id, reason string, byUserID string) (CashAid, error) {
	ca, err := svc.repo.GetCashAidByID(ctx, id)
	if err != nil {
		return CashAid{}, err
	}
	if ca.Status != CashAidPending {
		return CashAid{}, transitionError(ca.Status, CashAidRejected)
	}
	ca.Status = CashAidRejected
	ca.Notes = core.CleanString(reason)
	ca.UpdatedBy = byUserID
	return svc.repo.UpdateCashAid(ctx, ca)
}

// PayCashAid marks an approved cash aid as paid, books the expense in the
// cash book and, when the aid is funded from an account item, draws the
// amount down from it.
func (svc *service) PayCashAid(ctx context.Context, id string, pca PayCashAid, byUserID string) (CashAid, error) {
	ca, err := svc.repo.GetCashAidByID(ctx, id)
	if err != nil {
		return CashAid{}, err
	}
	if ca.Status != CashAidApproved {
		return CashAid{}, transitionError(ca.Status, CashAidPaid)
	}

	// draw the account down first; an underfunded account must not leave an
	// expense booked for a payment that never happened
	if ca.AccountItemID != "" {
		nm := inventory.NewMovement{
			ItemID:          ca.AccountItemID,
			Type:            inventory.MovementOut,
			Quantity:        float64(ca.Amount) / 100, // lira
			FamilyID:        ca.FamilyID,
			AidRequestID:    ca.AidRequestID,
			Description:     fmt.Sprintf("cash aid payment %s", ca.ID),
			ReferenceNumber: pca.ReferenceNo,
		}
		if _, err = svc.invSvc.RecordMovement(ctx, nm, byUserID); err != nil {
			return CashAid{}, err
		}
	}

	now := time.Now().UTC()
	trx, err := svc.repo.CreateTransaction(ctx, Transaction{
		Type:          TransactionExpense,
		Category:      CategoryAid,
		Amount:        ca.Amount,
		Date:          now,
		Description:   ca.Reason,
		FamilyID:      ca.FamilyID,
		ReferenceNo:   pca.ReferenceNo,
		PaymentMethod: pca.PaymentMethod,
		CreatedBy:     byUserID,
	})
	if err != nil {
		return CashAid{}, err
	}

	ca.Status = CashAidPaid
	ca.PaymentMethod = pca.PaymentMethod
	ca.PaidBy = byUserID
	ca.PaidAt = &now
	ca.TransactionID = trx.ID
	ca.UpdatedBy = byUserID
	return svc.repo.UpdateCashAid(ctx, ca)
}

func (svc *service) CancelCashAid(ctx context.Context, id string, byUserID string) (CashAid, error) {
	ca, err := svc.repo.GetCashAidByID(ctx, id)
	if err != nil {
		return CashAid{}, err
	}
	switch ca.Status {
	case CashAidPending, CashAidApproved:
	default:
		return CashAid{}, transitionError(ca.Status, CashAidCancelled)
	}
	ca.Status = CashAidCancelled
	ca.UpdatedBy = byUserID
	return svc.repo.UpdateCashAid(ctx, ca)
}

// ---------- pending invoices ----------

func (svc *service) CreateInvoice(ctx context.Context, npi NewPendingInvoice, byUserID string) (PendingInvoice, error) {
	inv := PendingInvoice{
		Type:         npi.Type,
		Status:       InvoiceAvailable,
		Amount:       npi.Amount,
		SubscriberNo: npi.SubscriberNo,
		Provider:     npi.Provider,
		DueDate:      npi.DueDate,
		DonorID:      npi.DonorID,
		Notes:        npi.Notes,
		CreatedBy:    byUserID,
	}
	return svc.repo.CreateInvoice(ctx, inv)
}

func (svc *service) GetInvoice(ctx context.Context, id string) (PendingInvoice, error) {
	return svc.repo.GetInvoiceByID(ctx, id)
}

func (svc *service) QueryInvoices(ctx context.Context, filter InvoiceQueryFilter, ordering ...core.DBOrdering) ([]PendingInvoice, error) {
	filter.Clean()
	return svc.repo.FilterInvoices(ctx, filter, ordering)
}

func (svc *service) ReserveInvoice(ctx context.Context, id, familyID string, byUserID string) (PendingInvoice, error) {
	inv, err := svc.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return PendingInvoice{}, err
	}
	if !inv.IsAvailable() {
		return PendingInvoice{}, ErrInvoiceNotAvailable
	}
	if _, err = svc.famRepo.GetFamilyByID(ctx, familyID); err != nil {
		return PendingInvoice{}, err
	}
	now := time.Now().UTC()
	inv.Status = InvoiceReserved
	inv.FamilyID = familyID
	inv.ReservedBy = byUserID
	inv.ReservedAt = &now
	return svc.repo.UpdateInvoice(ctx, inv)
}

// ReleaseInvoice puts a reserved invoice back in the pool.
func (svc *service) ReleaseInvoice(ctx context.Context, id string) (PendingInvoice, error) {
	inv, err := svc.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return PendingInvoice{}, err
	}
	if inv.Status != InvoiceReserved {
		return PendingInvoice{}, ErrInvoiceNotReserved
	}
	inv.Status = InvoiceAvailable
	inv.FamilyID = ""
	inv.ReservedBy = ""
	inv.ReservedAt = nil
	return svc.repo.UpdateInvoice(ctx, inv)
}

// UseInvoice marks a reserved invoice as paid and books the expense.
func (svc *service) UseInvoice(ctx context.Context, id string, byUserID string) (PendingInvoice, error) {
	inv, err := svc.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return PendingInvoice{}, err
	}
	if inv.Status != InvoiceReserved {
		return PendingInvoice{}, ErrInvoiceNotReserved
	}
	now := time.Now().UTC()
	trx, err := svc.repo.CreateTransaction(ctx, Transaction{
		Type:        TransactionExpense,
		Category:    CategoryInvoice,
		Amount:      inv.Amount,
		Date:        now,
		Description: fmt.Sprintf("%s invoice %s", inv.Type, inv.SubscriberNo),
		DonorID:     inv.DonorID,
		FamilyID:    inv.FamilyID,
		CreatedBy:   byUserID,
	})
	if err != nil {
		return PendingInvoice{}, err
	}
	inv.Status = InvoiceUsed
	inv.UsedAt = &now
	inv.TransactionID = trx.ID
	return svc.repo.UpdateInvoice(ctx, inv)
}

// ExpireInvoices marks available and reserved invoices past their due date as
// expired, returning how many were flipped. Meant to run from a cron job.
func (svc *service) ExpireInvoices(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	var count int
	for _, status := range []string{InvoiceAvailable, InvoiceReserved} {
		invs, err := svc.repo.FilterInvoices(ctx, InvoiceQueryFilter{Status: status}, nil)
		if err != nil {
			return count, err
		}
		for _, inv := range invs {
			if !inv.IsOverdue(now) {
				continue
			}
			inv.Status = InvoiceExpired
			if _, err = svc.repo.UpdateInvoice(ctx, inv); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// ---------- transactions ----------

func (svc *service) RecordTransaction(ctx context.Context, nt NewTransaction, byUserID string) (Transaction, error) {
	if nt.FamilyID != "" {
		if _, err := svc.famRepo.GetFamilyByID(ctx, nt.FamilyID); err != nil {
			return Transaction{}, err
		}
	}
	trx := Transaction{
		Type:          nt.Type,
		Category:      nt.Category,
		Amount:        nt.Amount,
		Date:          nt.Date,
		Description:   nt.Description,
		DonorID:       nt.DonorID,
		FamilyID:      nt.FamilyID,
		ReferenceNo:   nt.ReferenceNo,
		PaymentMethod: nt.PaymentMethod,
		CreatedBy:     byUserID,
	}
	return svc.repo.CreateTransaction(ctx, trx)
}

func (svc *service) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return svc.repo.GetTransactionByID(ctx, id)
}

func (svc *service) QueryTransactions(ctx context.Context, filter TransactionQueryFilter, ordering ...core.DBOrdering) ([]Transaction, error) {
	filter.Clean()
	return svc.repo.FilterTransactions(ctx, filter, ordering)
}

func (svc *service) Summarize(ctx context.Context, from, to time.Time) (Summary, error) {
	var filter TransactionQueryFilter
	if !from.IsZero() {
		filter.DateFrom = &from
	}
	if !to.IsZero() {
		filter.DateTo = &to
	}
	trxs, err := svc.repo.FilterTransactions(ctx, filter, nil)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{From: from, To: to, ByCategory: make(map[string]int64)}
	for _, trx := range trxs {
		switch trx.Type {
		case TransactionIncome:
			sum.TotalIncome += trx.Amount
		case TransactionExpense:
			sum.TotalExpense += trx.Amount
		}
		sum.ByCategory[trx.Category] += trx.SignedAmount()
	}
	sum.Balance = sum.TotalIncome - sum.TotalExpense
	return sum, nil
}

// ---------- budgets ----------

func (svc *service) CreateBudget(ctx context.Context, nb NewBudget, byUserID string) (Budget, error) {
	b := Budget{
		Name:      nb.Name,
		Category:  nb.Category,
		Period:    nb.Period,
		Amount:    nb.Amount,
		StartDate: nb.StartDate,
		EndDate:   nb.EndDate,
		Notes:     nb.Notes,
		CreatedBy: byUserID,
	}
	b.SetActive(true)
	return svc.repo.CreateBudget(ctx, b)
}

func (svc *service) GetBudget(ctx context.Context, id string) (Budget, error) {
	return svc.repo.GetBudgetByID(ctx, id)
}

func (svc *service) QueryBudgets(ctx context.Context, ordering ...core.DBOrdering) ([]Budget, error) {
	return svc.repo.GetAllBudgets(ctx, ordering)
}

func (svc *service) ArchiveBudget(ctx context.Context, id string) error {
	b, err := svc.repo.GetBudgetByID(ctx, id)
	if err != nil {
		return err
	}
	b.SetActive(false)
	_, err = svc.repo.UpdateBudget(ctx, b)
	return err
}

// BudgetUsage returns the budget together with the expense total booked in
// its category over its date range.
func (svc *service) BudgetUsage(ctx context.Context, id string) (Budget, int64, error) {
	b, err := svc.repo.GetBudgetByID(ctx, id)
	if err != nil {
		return Budget{}, 0, err
	}
	trxs, err := svc.repo.FilterTransactions(ctx, TransactionQueryFilter{
		Type:     TransactionExpense,
		Category: b.Category,
		DateFrom: &b.StartDate,
		DateTo:   &b.EndDate,
	}, nil)
	if err != nil {
		return Budget{}, 0, err
	}
	var spent int64
	for _, trx := range trxs {
		spent += trx.Amount
	}
	return b, spent, nil
}

func transitionError(from, to string) error {
	return errors.Wrapf(ErrInvalidTransition, "%s -> %s", from, to)
}
