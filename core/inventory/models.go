package inventory

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yardimel/yardimel/core"
)

// Item types
const (
	ItemTypeStock   = "stock"
	ItemTypeCash    = "cash"
	ItemTypeAccount = "account"
)

// Units
const (
	UnitPiece  = "piece"
	UnitKg     = "kg"
	UnitGram   = "gram"
	UnitLiter  = "liter"
	UnitPack   = "pack"
	UnitBox    = "box"
	UnitCarton = "carton"
	UnitTRY    = "try"
	UnitMeter  = "meter"
)

// Movement types
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
	MovementTransfer   = "transfer"
)

// Donor types
const (
	DonorIndividual  = "individual"
	DonorCorporate   = "corporate"
	DonorFoundation  = "foundation"
	DonorAssociation = "association"
	DonorGovernment  = "government"
)

// Stock count statuses
const (
	CountPlanned    = "planned"
	CountInProgress = "in_progress"
	CountCompleted  = "completed"
	CountCancelled  = "cancelled"
)

// Stock statuses reported by Item.StockStatus.
const (
	StockCritical = "critical"
	StockLow      = "low"
	StockOptimal  = "optimal"
	StockNormal   = "normal"
)

// Category groups items; categories may nest one level deep via ParentID.
type Category struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ParentID     string    `json:"parent_id,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsActive     *bool     `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Category) SetActive(active bool) { c.IsActive = &active }

// Item is a stock line: physical goods, a cash box or a bank account.
// Monetary values (UnitPrice) are in kuruş.
type Item struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	CategoryID    string  `json:"category_id,omitempty"`
	Type          string  `json:"type"`
	Unit          string  `json:"unit"`
	StockAmount   float64 `json:"stock_amount"`
	CriticalLevel float64 `json:"critical_level"`
	OptimalLevel  float64 `json:"optimal_level"`
	Location      string  `json:"location,omitempty"`
	Warehouse     string  `json:"warehouse,omitempty"`

	// account fields, only set for cash/account items
	AccountType   string `json:"account_type,omitempty"`
	Institution   string `json:"institution,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`

	Description   string    `json:"description,omitempty"`
	Barcode       string    `json:"barcode,omitempty"`
	SKU           string    `json:"sku,omitempty"`
	UnitPrice     *int64    `json:"unit_price,omitempty"` // kuruş
	LowStockAlert bool      `json:"low_stock_alert"`
	IsActive      *bool     `json:"is_active"`
	CreatedBy     string    `json:"created_by,omitempty"`
	UpdatedBy     string    `json:"updated_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (i *Item) SetActive(active bool) { i.IsActive = &active }

func (i *Item) IsCritical() bool {
	return i.StockAmount <= i.CriticalLevel
}

func (i *Item) IsLowStock() bool {
	return i.StockAmount <= i.CriticalLevel*1.5
}

func (i *Item) IsOptimal() bool {
	if i.OptimalLevel == 0 {
		return true
	}
	return i.StockAmount >= i.OptimalLevel
}

func (i *Item) StockStatus() string {
	switch {
	case i.IsCritical():
		return StockCritical
	case i.IsLowStock():
		return StockLow
	case i.IsOptimal():
		return StockOptimal
	default:
		return StockNormal
	}
}

// TotalValue returns the stock value in kuruş, or nil when no unit price is set.
func (i *Item) TotalValue() *int64 {
	if i.UnitPrice == nil {
		return nil
	}
	v := int64(i.StockAmount * float64(*i.UnitPrice))
	return &v
}

// Donor is an individual or organization donating goods or funds.
type Donor struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	Address        string    `json:"address,omitempty"`
	TaxNumber      string    `json:"tax_number,omitempty"`
	TaxOffice      string    `json:"tax_office,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	WantsReceipt   bool      `json:"wants_receipt"`
	CanBeContacted bool      `json:"can_be_contacted"`
	IsActive       *bool     `json:"is_active"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (d *Donor) SetActive(active bool) { d.IsActive = &active }

// Movement is a stock ledger entry. Recording one atomically updates the
// item's stock amount; StockBefore/StockAfter snapshot the transition.
type Movement struct {
	ID       string  `json:"id"`
	ItemID   string  `json:"item_id"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`

	// in: donation source
	DonorID   string `json:"donor_id,omitempty"`
	DonorName string `json:"donor_name,omitempty"`

	// out: distribution target
	FamilyID     string `json:"family_id,omitempty"`
	AidRequestID string `json:"aid_request_id,omitempty"`

	// transfer
	TargetLocation string `json:"target_location,omitempty"`

	Description     string    `json:"description,omitempty"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	StockBefore     float64   `json:"stock_before"`
	StockAfter      float64   `json:"stock_after"`
	CreatedBy       string    `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsDonation reports whether the movement is an incoming donation.
func (m *Movement) IsDonation() bool {
	return m.Type == MovementIn && (m.DonorID != "" || m.DonorName != "")
}

func (m *Movement) DonorDisplay() string {
	if m.DonorName != "" {
		return m.DonorName
	}
	if m.DonorID != "" {
		return m.DonorID
	}
	return "-"
}

// Count is a periodic physical stock count.
type Count struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	CountDate       time.Time  `json:"count_date"`
	Status          string     `json:"status"`
	Warehouse       string     `json:"warehouse,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	ResponsibleUser string     `json:"responsible_user,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedBy       string     `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CountItem records the counted quantity of one item within a Count.
type CountItem struct {
	ID             string    `json:"id"`
	CountID        string    `json:"count_id"`
	ItemID         string    `json:"item_id"`
	SystemQuantity float64   `json:"system_quantity"`
	CountedQty     float64   `json:"counted_quantity"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ci *CountItem) Discrepancy() float64 {
	return ci.CountedQty - ci.SystemQuantity
}

func (ci *CountItem) HasDiscrepancy() bool {
	return ci.Discrepancy() != 0
}

func (ci *CountItem) DiscrepancyPercentage() float64 {
	if ci.SystemQuantity == 0 {
		return 0
	}
	return (ci.Discrepancy() / ci.SystemQuantity) * 100
}

// Request payloads

type NewCategory struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description"`
	ParentID     string `json:"parent_id" validate:"omitempty,uuid4"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

func (nc *NewCategory) Validate(validate *validator.Validate, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCategoryNameUniqueness(nc.Name)
}

type NewItem struct {
	Name          string  `json:"name" validate:"required,max=100"`
	CategoryID    string  `json:"category_id" validate:"omitempty,uuid4"`
	Type          string  `json:"type" validate:"required,oneof=stock cash account"`
	Unit          string  `json:"unit" validate:"required,oneof=piece kg gram liter pack box carton try meter"`
	StockAmount   float64 `json:"stock_amount" validate:"gte=0"`
	CriticalLevel float64 `json:"critical_level" validate:"gte=0"`
	OptimalLevel  float64 `json:"optimal_level" validate:"gte=0"`
	Location      string  `json:"location" validate:"omitempty,max=100"`
	Warehouse     string  `json:"warehouse" validate:"omitempty,max=100"`
	AccountType   string  `json:"account_type" validate:"omitempty,max=50"`
	Institution   string  `json:"institution" validate:"omitempty,max=100"`
	IBAN          string  `json:"iban" validate:"omitempty,max=34"`
	AccountNumber string  `json:"account_number" validate:"omitempty,max=50"`
	Description   string  `json:"description"`
	Barcode       string  `json:"barcode" validate:"omitempty,max=50"`
	SKU           string  `json:"sku" validate:"omitempty,max=50"`
	UnitPrice     *int64  `json:"unit_price" validate:"omitempty,gte=0"` // kuruş
	LowStockAlert *bool   `json:"low_stock_alert"`
}

func (ni *NewItem) Validate(validate *validator.Validate, svc Service) error {
	ni.Name = core.CleanString(ni.Name)
	ni.Barcode = core.CleanString(ni.Barcode)
	ni.SKU = core.CleanString(ni.SKU)
	if err := validate.Struct(ni); err != nil {
		return err
	}
	return svc.CheckItemCodeUniqueness(ni.Barcode, ni.SKU)
}

type UpdateItem struct {
	Name          string   `json:"name" validate:"omitempty,max=100"`
	CategoryID    string   `json:"category_id" validate:"omitempty,uuid4"`
	Unit          string   `json:"unit" validate:"omitempty,oneof=piece kg gram liter pack box carton try meter"`
	CriticalLevel *float64 `json:"critical_level" validate:"omitempty,gte=0"`
	OptimalLevel  *float64 `json:"optimal_level" validate:"omitempty,gte=0"`
	Location      string   `json:"location" validate:"omitempty,max=100"`
	Warehouse     string   `json:"warehouse" validate:"omitempty,max=100"`
	AccountType   string   `json:"account_type" validate:"omitempty,max=50"`
	Institution   string   `json:"institution" validate:"omitempty,max=100"`
	IBAN          string   `json:"iban" validate:"omitempty,max=34"`
	AccountNumber string   `json:"account_number" validate:"omitempty,max=50"`
	Description   string   `json:"description"`
	Barcode       string   `json:"barcode" validate:"omitempty,max=50"`
	SKU           string   `json:"sku" validate:"omitempty,max=50"`
	UnitPrice     *int64   `json:"unit_price" validate:"omitempty,gte=0"` // kuruş
	LowStockAlert *bool    `json:"low_stock_alert"`
}

func (ui *UpdateItem) Validate(orig Item, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(ui.Name); name != "" {
		ui.Name = name
	} else {
		ui.Name = orig.Name
	}
	ui.Barcode = core.CleanString(ui.Barcode)
	ui.SKU = core.CleanString(ui.SKU)
	if err := validate.Struct(ui); err != nil {
		return err
	}
	return svc.CheckItemCodeUniqueness(ui.Barcode, ui.SKU, orig)
}

type NewDonor struct {
	Name           string `json:"name" validate:"required,max=100"`
	Type           string `json:"type" validate:"required,oneof=individual corporate foundation association government"`
	Phone          string `json:"phone" validate:"omitempty,max=20"`
	Email          string `json:"email" validate:"omitempty,email"`
	Address        string `json:"address"`
	TaxNumber      string `json:"tax_number" validate:"omitempty,max=20"`
	TaxOffice      string `json:"tax_office" validate:"omitempty,max=100"`
	Notes          string `json:"notes"`
	WantsReceipt   bool   `json:"wants_receipt"`
	CanBeContacted *bool  `json:"can_be_contacted"`
}

func (nd *NewDonor) Validate(validate *validator.Validate) error {
	nd.Name = core.CleanString(nd.Name)
	nd.Email = core.CleanString(nd.Email, true /* lower */)
	return validate.Struct(nd)
}

type NewMovement struct {
	ItemID          string  `json:"item_id" validate:"required,uuid4"`
	Type            string  `json:"type" validate:"required,oneof=in out adjustment transfer"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	DonorID         string  `json:"donor_id" validate:"omitempty,uuid4"`
	DonorName       string  `json:"donor_name" validate:"omitempty,max=100"`
	FamilyID        string  `json:"family_id" validate:"omitempty,uuid4"`
	AidRequestID    string  `json:"aid_request_id" validate:"omitempty,uuid4"`
	TargetLocation  string  `json:"target_location" validate:"omitempty,max=100"`
	Description     string  `json:"description"`
	ReferenceNumber string  `json:"reference_number" validate:"omitempty,max=50"`
}

func (nm *NewMovement) Validate(validate *validator.Validate) error {
	nm.DonorName = core.CleanString(nm.DonorName)
	return validate.Struct(nm)
}

type NewCount struct {
	Name            string    `json:"name" validate:"required,max=200"`
	CountDate       time.Time `json:"count_date" validate:"required"`
	Warehouse       string    `json:"warehouse" validate:"omitempty,max=100"`
	Notes           string    `json:"notes"`
	ResponsibleUser string    `json:"responsible_user" validate:"omitempty,uuid4"`
}

func (nc *NewCount) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type NewCountItem struct {
	ItemID     string  `json:"item_id" validate:"required,uuid4"`
	CountedQty float64 `json:"counted_quantity" validate:"gte=0"`
	Notes      string  `json:"notes"`
}

func (nci *NewCountItem) Validate(validate *validator.Validate) error {
	return validate.Struct(nci)
}

// Query filters

type ItemQueryFilter struct {
	Search     string `query:"search"`
	Type       string `query:"type"`
	CategoryID string `query:"category_id"`
	LowStock   *bool  `query:"low_stock"`
	IsActive   *bool  `query:"is_active"`
}

func (qf *ItemQueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Type = core.CleanString(qf.Type, true /* lower */)
}

type DonorQueryFilter struct {
	Search   string `query:"search"`
	Type     string `query:"type"`
	IsActive *bool  `query:"is_active"`
}

func (qf *DonorQueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Type = core.CleanString(qf.Type, true /* lower */)
}

type MovementQueryFilter struct {
	ItemID       string `query:"item_id"`
	Type         string `query:"type"`
	DonorID      string `query:"donor_id"`
	FamilyID     string `query:"family_id"`
	AidRequestID string `query:"aid_request_id"`
}
