package aid

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yardimel/yardimel/core"
)

// Request statuses
const (
	StatusPending     = "pending"
	StatusApproved    = "approved"
	StatusPrepared    = "prepared"
	StatusDistributed = "distributed"
	StatusRejected    = "rejected"
	StatusCancelled   = "cancelled"
)

// Aid types
const (
	TypeCash    = "cash"
	TypeInKind  = "inkind"
	TypeInvoice = "invoice"
	TypeMixed   = "mixed"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Distribution types
const (
	DistributionField    = "field"
	DistributionOffice   = "office"
	DistributionDelivery = "delivery"
)

// Request is an aid request raised for a family. It moves through a fixed
// workflow: pending -> approved -> prepared -> distributed, with rejected and
// cancelled as terminal side exits.
type Request struct {
	ID         string `json:"id"`
	FamilyID   string `json:"family_id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	CashAmount int64  `json:"cash_amount,omitempty"` // kuruş
	Reason     string `json:"reason"`
	Notes      string `json:"notes,omitempty"`

	ApprovedBy    string     `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovalNotes string     `json:"approval_notes,omitempty"`

	PreparedBy string     `json:"prepared_by,omitempty"`
	PreparedAt *time.Time `json:"prepared_at,omitempty"`

	DistributedBy string     `json:"distributed_by,omitempty"`
	DistributedAt *time.Time `json:"distributed_at,omitempty"`

	PlannedDistributionDate *time.Time `json:"planned_distribution_date,omitempty"`

	IsActive  *bool     `json:"is_active"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Request) SetActive(active bool) { r.IsActive = &active }

func (r *Request) IsPending() bool     { return r.Status == StatusPending }
func (r *Request) IsApproved() bool    { return r.Status == StatusApproved }
func (r *Request) IsDistributed() bool { return r.Status == StatusDistributed }

// IsTerminal reports whether the request reached a final state.
func (r *Request) IsTerminal() bool {
	switch r.Status {
	case StatusDistributed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// HasCash reports whether the request includes a cash component.
func (r *Request) HasCash() bool {
	return (r.Type == TypeCash || r.Type == TypeInvoice || r.Type == TypeMixed) && r.CashAmount > 0
}

// NeedsItems reports whether the request must carry at least one item line.
func (r *Request) NeedsItems() bool {
	return r.Type == TypeInKind || r.Type == TypeMixed
}

// RequestItem is one in-kind line of a Request: which inventory item, and how
// much was requested, approved and finally handed out.
type RequestItem struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	ItemID         string    `json:"item_id"`
	RequestedQty   float64   `json:"requested_quantity"`
	ApprovedQty    *float64  `json:"approved_quantity,omitempty"`
	DistributedQty *float64  `json:"distributed_quantity,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// QuantityDifference is approved minus requested; nil before approval.
func (ri *RequestItem) QuantityDifference() *float64 {
	if ri.ApprovedQty == nil {
		return nil
	}
	d := *ri.ApprovedQty - ri.RequestedQty
	return &d
}

func (ri *RequestItem) IsFullyApproved() bool {
	return ri.ApprovedQty != nil && *ri.ApprovedQty >= ri.RequestedQty
}

func (ri *RequestItem) IsFullyDistributed() bool {
	if ri.DistributedQty == nil {
		return false
	}
	approved := ri.RequestedQty
	if ri.ApprovedQty != nil {
		approved = *ri.ApprovedQty
	}
	return *ri.DistributedQty >= approved
}

// EffectiveQty is the quantity to hand out: the approved quantity when set,
// otherwise the requested one.
func (ri *RequestItem) EffectiveQty() float64 {
	if ri.ApprovedQty != nil {
		return *ri.ApprovedQty
	}
	return ri.RequestedQty
}

// Distribution groups distributed requests into one logistics round,
// eg. "Ramazan Dağıtımı 2024".
type Distribution struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Date            time.Time  `json:"distribution_date"`
	Type            string     `json:"distribution_type"`
	Zone            string     `json:"zone,omitempty"`
	Description     string     `json:"description,omitempty"`
	RequestIDs      []string   `json:"request_ids"`
	ResponsibleUser string     `json:"responsible_user,omitempty"`
	IsCompleted     bool       `json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedBy       string     `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Request payloads

type NewRequestItem struct {
	ItemID       string  `json:"item_id" validate:"required,uuid4"`
	RequestedQty float64 `json:"requested_quantity" validate:"required,gt=0"`
	Notes        string  `json:"notes" validate:"omitempty,max=255"`
}

type NewRequest struct {
	FamilyID                string           `json:"family_id" validate:"required,uuid4"`
	Type                    string           `json:"type" validate:"required,oneof=cash inkind invoice mixed"`
	Priority                string           `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	CashAmount              int64            `json:"cash_amount" validate:"omitempty,gt=0"` // kuruş
	Reason                  string           `json:"reason" validate:"required"`
	Notes                   string           `json:"notes"`
	PlannedDistributionDate *time.Time       `json:"planned_distribution_date"`
	Items                   []NewRequestItem `json:"items" validate:"omitempty,dive"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.Reason = core.CleanString(nr.Reason)
	if nr.Priority == "" {
		nr.Priority = PriorityNormal
	}
	if err := validate.Struct(nr); err != nil {
		return err
	}

	var flds []core.FieldError
	switch nr.Type {
	case TypeCash, TypeInvoice:
		if nr.CashAmount <= 0 {
			flds = append(flds, core.FieldError{Field: "cash_amount", Error: "cash amount is required for cash aid"})
		}
	case TypeInKind:
		if len(nr.Items) == 0 {
			flds = append(flds, core.FieldError{Field: "items", Error: "at least one item is required for in-kind aid"})
		}
	case TypeMixed:
		if nr.CashAmount <= 0 {
			flds = append(flds, core.FieldError{Field: "cash_amount", Error: "cash amount is required for mixed aid"})
		}
		if len(nr.Items) == 0 {
			flds = append(flds, core.FieldError{Field: "items", Error: "at least one item is required for mixed aid"})
		}
	}
	seen := make(map[string]bool, len(nr.Items))
	for _, it := range nr.Items {
		if seen[it.ItemID] {
			flds = append(flds, core.FieldError{Field: "items", Error: "duplicate item: " + it.ItemID})
		}
		seen[it.ItemID] = true
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// ApproveRequest carries per-item approved quantities keyed by request item ID.
type ApproveRequest struct {
	Notes        string             `json:"notes" validate:"omitempty"`
	ApprovedQtys map[string]float64 `json:"approved_quantities" validate:"omitempty,dive,gte=0"`
}

func (ar *ApproveRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (rr *RejectRequest) Validate(validate *validator.Validate) error {
	rr.Reason = core.CleanString(rr.Reason)
	return validate.Struct(rr)
}

type NewDistribution struct {
	Name            string    `json:"name" validate:"required,max=200"`
	Date            time.Time `json:"distribution_date" validate:"required"`
	Type            string    `json:"distribution_type" validate:"required,oneof=field office delivery"`
	Zone            string    `json:"zone" validate:"omitempty,max=100"`
	Description     string    `json:"description"`
	RequestIDs      []string  `json:"request_ids" validate:"omitempty,dive,uuid4"`
	ResponsibleUser string    `json:"responsible_user" validate:"omitempty,uuid4"`
}

func (nd *NewDistribution) Validate(validate *validator.Validate) error {
	nd.Name = core.CleanString(nd.Name)
	return validate.Struct(nd)
}

type QueryFilter struct {
	FamilyID string `query:"family_id"`
	Status   string `query:"status"`
	Type     string `query:"type"`
	Priority string `query:"priority"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	qf.Priority = core.CleanString(qf.Priority, true /* lower */)
}
