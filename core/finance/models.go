package finance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yardimel/yardimel/core"
)

// Cash aid statuses
const (
	CashAidPending   = "pending"
	CashAidApproved  = "approved"
	CashAidPaid      = "paid"
	CashAidRejected  = "rejected"
	CashAidCancelled = "cancelled"
)

// Payment methods
const (
	PaymentCash         = "cash"
	PaymentBankTransfer = "bank_transfer"
	PaymentCheck        = "check"
	PaymentOther        = "other"
)

// Invoice types
const (
	InvoiceElectric = "electric"
	InvoiceWater    = "water"
	InvoiceGas      = "gas"
	InvoicePhone    = "phone"
	InvoiceInternet = "internet"
	InvoiceRent     = "rent"
	InvoiceOther    = "other"
)

// Invoice statuses
const (
	InvoiceAvailable = "available"
	InvoiceReserved  = "reserved"
	InvoiceUsed      = "used"
	InvoiceExpired   = "expired"
)

// Transaction types
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction categories
const (
	CategoryDonation = "donation"
	CategoryAid      = "aid"
	CategoryInvoice  = "invoice"
	CategorySalary   = "salary"
	CategoryRent     = "rent"
	CategoryUtility  = "utility"
	CategoryOffice   = "office"
	CategoryVehicle  = "vehicle"
	CategoryOther    = "other"
)

// Budget periods
const (
	BudgetMonthly   = "monthly"
	BudgetQuarterly = "quarterly"
	BudgetYearly    = "yearly"
)

// CashAid is a direct cash payment to a family. Amounts are in kuruş.
type CashAid struct {
	ID            string `json:"id"`
	FamilyID      string `json:"family_id"`
	AidRequestID  string `json:"aid_request_id,omitempty"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method,omitempty"`
	Reason        string `json:"reason"`
	Notes         string `json:"notes,omitempty"`

	AccountItemID string `json:"account_item_id,omitempty"`

	ApprovedBy string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	PaidBy     string     `json:"paid_by,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`

	TransactionID string `json:"transaction_id,omitempty"`

	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ca *CashAid) IsPending() bool { return ca.Status == CashAidPending }
func (ca *CashAid) IsPaid() bool    { return ca.Status == CashAidPaid }

func (ca *CashAid) IsTerminal() bool {
	switch ca.Status {
	case CashAidPaid, CashAidRejected, CashAidCancelled:
		return true
	}
	return false
}

// PendingInvoice is a utility bill a donor offered to cover; it sits in a pool
// until reserved for a family and finally used (paid).
type PendingInvoice struct {
	ID            string     `json:"id"`
	Type          string     `json:"invoice_type"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"` // kuruş
	SubscriberNo  string     `json:"subscriber_no,omitempty"`
	Provider      string     `json:"provider,omitempty"`
	DueDate       time.Time  `json:"due_date"`
	DonorID       string     `json:"donor_id,omitempty"`
	FamilyID      string     `json:"family_id,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	ReservedBy    string     `json:"reserved_by,omitempty"`
	ReservedAt    *time.Time `json:"reserved_at,omitempty"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	CreatedBy     string     `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (pi *PendingInvoice) IsAvailable() bool { return pi.Status == InvoiceAvailable }

// IsOverdue reports whether the bill's due date has passed without it being used.
func (pi *PendingInvoice) IsOverdue(now time.Time) bool {
	return pi.Status != InvoiceUsed && now.After(pi.DueDate)
}

// Transaction is one line of the cash book.
type Transaction struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	Amount        int64     `json:"amount"` // kuruş
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	DonorID       string    `json:"donor_id,omitempty"`
	FamilyID      string    `json:"family_id,omitempty"`
	ReferenceNo   string    `json:"reference_no,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SignedAmount is positive for income, negative for expense.
func (t *Transaction) SignedAmount() int64 {
	if t.Type == TransactionExpense {
		return -t.Amount
	}
	return t.Amount
}

// Budget caps spending for a category over a period. Amounts in kuruş.
type Budget struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Period    string    `json:"period"`
	Amount    int64     `json:"amount"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Notes     string    `json:"notes,omitempty"`
	IsActive  *bool     `json:"is_active"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Budget) SetActive(active bool) { b.IsActive = &active }

// UsagePercentage is spent over budgeted, as a 0-100+ percentage.
func (b *Budget) UsagePercentage(spent int64) float64 {
	if b.Amount == 0 {
		return 0
	}
	return float64(spent) / float64(b.Amount) * 100
}

// Summary aggregates the cash book over a date range.
type Summary struct {
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	TotalIncome  int64            `json:"total_income"`
	TotalExpense int64            `json:"total_expense"`
	Balance      int64            `json:"balance"`
	ByCategory   map[string]int64 `json:"by_category"`
}

// Request payloads

type NewCashAid struct {
	FamilyID      string `json:"family_id" validate:"required,uuid4"`
	AidRequestID  string `json:"aid_request_id" validate:"omitempty,uuid4"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Reason        string `json:"reason" validate:"required"`
	Notes         string `json:"notes"`
	AccountItemID string `json:"account_item_id" validate:"omitempty,uuid4"`
}

func (nca *NewCashAid) Validate(validate *validator.Validate) error {
	nca.Reason = core.CleanString(nca.Reason)
	return validate.Struct(nca)
}

type PayCashAid struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash bank_transfer check other"`
	ReferenceNo   string `json:"reference_no" validate:"omitempty,max=50"`
}

func (pca *PayCashAid) Validate(validate *validator.Validate) error {
	pca.ReferenceNo = core.CleanString(pca.ReferenceNo)
	return validate.Struct(pca)
}

type NewPendingInvoice struct {
	Type         string    `json:"invoice_type" validate:"required,oneof=electric water gas phone internet rent other"`
	Amount       int64     `json:"amount" validate:"required,gt=0"`
	SubscriberNo string    `json:"subscriber_no" validate:"omitempty,max=50"`
	Provider     string    `json:"provider" validate:"omitempty,max=100"`
	DueDate      time.Time `json:"due_date" validate:"required"`
	DonorID      string    `json:"donor_id" validate:"omitempty,uuid4"`
	Notes        string    `json:"notes"`
}

func (npi *NewPendingInvoice) Validate(validate *validator.Validate) error {
	npi.Provider = core.CleanString(npi.Provider)
	return validate.Struct(npi)
}

type NewTransaction struct {
	Type          string    `json:"type" validate:"required,oneof=income expense"`
	Category      string    `json:"category" validate:"required,oneof=donation aid invoice salary rent utility office vehicle other"`
	Amount        int64     `json:"amount" validate:"required,gt=0"`
	Date          time.Time `json:"date" validate:"required"`
	Description   string    `json:"description" validate:"required"`
	DonorID       string    `json:"donor_id" validate:"omitempty,uuid4"`
	FamilyID      string    `json:"family_id" validate:"omitempty,uuid4"`
	ReferenceNo   string    `json:"reference_no" validate:"omitempty,max=50"`
	PaymentMethod string    `json:"payment_method" validate:"omitempty,oneof=cash bank_transfer check other"`
}

func (nt *NewTransaction) Validate(validate *validator.Validate) error {
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

type NewBudget struct {
	Name      string    `json:"name" validate:"required,max=200"`
	Category  string    `json:"category" validate:"required,oneof=donation aid invoice salary rent utility office vehicle other"`
	Period    string    `json:"period" validate:"required,oneof=monthly quarterly yearly"`
	Amount    int64     `json:"amount" validate:"required,gt=0"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Notes     string    `json:"notes"`
}

func (nb *NewBudget) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	return validate.Struct(nb)
}

// Query filters

type CashAidQueryFilter struct {
	FamilyID string `query:"family_id"`
	Status   string `query:"status"`
}

func (qf *CashAidQueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

type InvoiceQueryFilter struct {
	Type     string `query:"invoice_type"`
	Status   string `query:"status"`
	FamilyID string `query:"family_id"`
	DonorID  string `query:"donor_id"`
}

func (qf *InvoiceQueryFilter) Clean() {
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

type TransactionQueryFilter struct {
	Type     string     `query:"type"`
	Category string     `query:"category"`
	FamilyID string     `query:"family_id"`
	DonorID  string     `query:"donor_id"`
	DateFrom *time.Time `query:"date_from"`
	DateTo   *time.Time `query:"date_to"`
}

func (qf *TransactionQueryFilter) Clean() {
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}
