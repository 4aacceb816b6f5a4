package inventory

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core"
)

var (
	// errors
	ErrItemNotFound      = errors.New("item not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDonorNotFound     = errors.New("donor not found")
	ErrMovementNotFound  = errors.New("stock movement not found")
	ErrCountNotFound     = errors.New("stock count not found")
	ErrCategoryExists    = errors.New("a category with this name already exists")
	ErrBarcodeExists     = errors.New("an item with this barcode already exists")
	ErrSKUExists         = errors.New("an item with this SKU already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCountClosed       = errors.New("stock count is closed")
	ErrCountItemExists   = errors.New("item already counted in this stock count")
)

type (
	Repository interface {
		CheckCategoryNameUniqueness(ctx context.Context, name string, excluded ...Category) error
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		GetCategoryByID(ctx context.Context, id string) (Category, error)
		QueryCategories(ctx context.Context) ([]Category, error)
		UpdateCategory(ctx context.Context, cat Category) (Category, error)

		CheckItemCodeUniqueness(ctx context.Context, barcode, sku string, excluded ...Item) error
		CreateItem(ctx context.Context, itm Item) (Item, error)
		GetItemByID(ctx context.Context, id string) (Item, error)
		FilterItems(ctx context.Context, filter ItemQueryFilter, ordering []core.DBOrdering) ([]Item, error)
		UpdateItem(ctx context.Context, itm Item) (Item, error)

		CreateDonor(ctx context.Context, dnr Donor) (Donor, error)
		GetDonorByID(ctx context.Context, id string) (Donor, error)
		FilterDonors(ctx context.Context, filter DonorQueryFilter, ordering []core.DBOrdering) ([]Donor, error)
		UpdateDonor(ctx context.Context, dnr Donor) (Donor, error)

		// ApplyMovement atomically inserts the movement and sets the item's
		// stock to mv.StockAfter, guarding on mv.StockBefore so a concurrent
		// change fails with ErrInsufficientStock.
		ApplyMovement(ctx context.Context, mv Movement) (Movement, error)
		FilterMovements(ctx context.Context, filter MovementQueryFilter, ordering []core.DBOrdering) ([]Movement, error)

		CreateCount(ctx context.Context, cnt Count) (Count, error)
		GetCountByID(ctx context.Context, id string) (Count, error)
		QueryCounts(ctx context.Context) ([]Count, error)
		UpdateCount(ctx context.Context, cnt Count) (Count, error)
		CreateCountItem(ctx context.Context, ci CountItem) (CountItem, error)
		GetCountItems(ctx context.Context, countID string) ([]CountItem, error)
	}

	Service interface {
		CheckCategoryNameUniqueness(name string, excluded ...Category) error
		CreateCategory(ctx context.Context, nc NewCategory) (Category, error)
		Categories(ctx context.Context) ([]Category, error)
		ArchiveCategory(ctx context.Context, id string) (Category, error)

		CheckItemCodeUniqueness(barcode, sku string, excluded ...Item) error
		CreateItem(ctx context.Context, ni NewItem, byUserID string) (Item, error)
		GetItem(ctx context.Context, id string) (Item, error)
		QueryItems(ctx context.Context, filter *ItemQueryFilter, ordering []core.DBOrdering) ([]Item, error)
		UpdateItem(ctx context.Context, id string, ui UpdateItem, byUserID string) (Item, error)
		ArchiveItem(ctx context.Context, id, byUserID string) (Item, error)

		CreateDonor(ctx context.Context, nd NewDonor, byUserID string) (Donor, error)
		GetDonor(ctx context.Context, id string) (Donor, error)
		QueryDonors(ctx context.Context, filter *DonorQueryFilter, ordering []core.DBOrdering) ([]Donor, error)
		ArchiveDonor(ctx context.Context, id string) (Donor, error)

		// CanFulfil reports whether the item holds at least qty in stock.
		CanFulfil(ctx context.Context, itemID string, qty float64) error
		RecordMovement(ctx context.Context, nm NewMovement, byUserID string) (Movement, error)
		QueryMovements(ctx context.Context, filter *MovementQueryFilter, ordering []core.DBOrdering) ([]Movement, error)

		CreateCount(ctx context.Context, nc NewCount, byUserID string) (Count, error)
		GetCount(ctx context.Context, id string) (Count, []CountItem, error)
		QueryCounts(ctx context.Context) ([]Count, error)
		AddCountItem(ctx context.Context, countID string, nci NewCountItem) (CountItem, error)
		CompleteCount(ctx context.Context, id string) (Count, error)
		CancelCount(ctx context.Context, id string) (Count, error)
	}

	service struct {
		conf    *core.Config
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService) Service {
	return &service{
		conf:    conf,
		repo:    repo,
		mailSvc: mailSvc,
	}
}

// Categories

func (svc *service) CheckCategoryNameUniqueness(name string, excluded ...Category) error {
	if err := svc.repo.CheckCategoryNameUniqueness(context.Background(), name, excluded...); err != nil {
		if errors.Cause(err) == ErrCategoryExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) CreateCategory(ctx context.Context, nc NewCategory) (Category, error) {
	if nc.ParentID != "" {
		if _, err := svc.repo.GetCategoryByID(ctx, nc.ParentID); err != nil {
			return Category{}, err
		}
	}
	now := time.Now().UTC()
	cat := Category{
		Name:         nc.Name,
		Description:  nc.Description,
		ParentID:     nc.ParentID,
		DisplayOrder: nc.DisplayOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	cat.SetActive(true)
	return svc.repo.CreateCategory(ctx, cat)
}

func (svc *service) Categories(ctx context.Context) ([]Category, error) {
	return svc.repo.QueryCategories(ctx)
}

func (svc *service) ArchiveCategory(ctx context.Context, id string) (Category, error) {
	cat, err := svc.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return Category{}, err
	}
	cat.SetActive(false)
	cat.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCategory(ctx, cat)
}

// Items

func (svc *service) CheckItemCodeUniqueness(barcode, sku string, excluded ...Item) error {
	if barcode == "" && sku == "" {
		return nil
	}
	if err := svc.repo.CheckItemCodeUniqueness(context.Background(), barcode, sku, excluded...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrBarcodeExists:
			field = "barcode"
		case ErrSKUExists:
			field = "sku"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) CreateItem(ctx context.Context, ni NewItem, byUserID string) (Item, error) {
	if ni.CategoryID != "" {
		if _, err := svc.repo.GetCategoryByID(ctx, ni.CategoryID); err != nil {
			return Item{}, err
		}
	}
	now := time.Now().UTC()
	itm := Item{
		Name:          ni.Name,
		CategoryID:    ni.CategoryID,
		Type:          ni.Type,
		Unit:          ni.Unit,
		StockAmount:   ni.StockAmount,
		CriticalLevel: ni.CriticalLevel,
		OptimalLevel:  ni.OptimalLevel,
		Location:      ni.Location,
		Warehouse:     ni.Warehouse,
		AccountType:   ni.AccountType,
		Institution:   ni.Institution,
		IBAN:          ni.IBAN,
		AccountNumber: ni.AccountNumber,
		Description:   ni.Description,
		Barcode:       ni.Barcode,
		SKU:           ni.SKU,
		UnitPrice:     ni.UnitPrice,
		LowStockAlert: ni.LowStockAlert == nil || *ni.LowStockAlert,
		CreatedBy:     byUserID,
		UpdatedBy:     byUserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	itm.SetActive(true)
	return svc.repo.CreateItem(ctx, itm)
}

func (svc *service) GetItem(ctx context.Context, id string) (Item, error) {
	return svc.repo.GetItemByID(ctx, id)
}

func (svc *service) QueryItems(ctx context.Context, filter *ItemQueryFilter, ordering []core.DBOrdering) ([]Item, error) {
	if filter == nil {
		filter = new(ItemQueryFilter)
	}
	return svc.repo.FilterItems(ctx, *filter, ordering)
}

func (svc *service) UpdateItem(ctx context.Context, id string, ui UpdateItem, byUserID string) (Item, error) {
	itm, err := svc.repo.GetItemByID(ctx, id)
	if err != nil {
		return Item{}, err
	}
	itm.Name = ui.Name
	if ui.CategoryID != "" {
		if _, err := svc.repo.GetCategoryByID(ctx, ui.CategoryID); err != nil {
			return Item{}, err
		}
		itm.CategoryID = ui.CategoryID
	}
	if ui.Unit != "" {
		itm.Unit = ui.Unit
	}
	if ui.CriticalLevel != nil {
		itm.CriticalLevel = *ui.CriticalLevel
	}
	if ui.OptimalLevel != nil {
		itm.OptimalLevel = *ui.OptimalLevel
	}
	if ui.Location != "" {
		itm.Location = ui.Location
	}
	if ui.Warehouse != "" {
		itm.Warehouse = ui.Warehouse
	}
	if ui.AccountType != "" {
		itm.AccountType = ui.AccountType
	}
	if ui.Institution != "" {
		itm.Institution = ui.Institution
	}
	if ui.IBAN != "" {
		itm.IBAN = ui.IBAN
	}
	if ui.AccountNumber != "" {
		itm.AccountNumber = ui.AccountNumber
	}
	if ui.Description != "" {
		itm.Description = ui.Description
	}
	if ui.Barcode != "" {
		itm.Barcode = ui.Barcode
	}
	if ui.SKU != "" {
		itm.SKU = ui.SKU
	}
	if ui.UnitPrice != nil {
		itm.UnitPrice = ui.UnitPrice
	}
	if ui.LowStockAlert != nil {
		itm.LowStockAlert = *ui.LowStockAlert
	}
	itm.UpdatedBy = byUserID
	itm.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateItem(ctx, itm)
}

func (svc *service) ArchiveItem(ctx context.Context, id, byUserID string) (Item, error) {
	itm, err := svc.repo.GetItemByID(ctx, id)
	if err != nil {
		return Item{}, err
	}
	itm.SetActive(false)
	itm.UpdatedBy = byUserID
	itm.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateItem(ctx, itm)
}

// Donors

func (svc *service) CreateDonor(ctx context.Context, nd NewDonor, byUserID string) (Donor, error) {
	now := time.Now().UTC()
	dnr := Donor{
		Name:           nd.Name,
		Type:           nd.Type,
		Phone:          nd.Phone,
		Email:          nd.Email,
		Address:        nd.Address,
		TaxNumber:      nd.TaxNumber,
		TaxOffice:      nd.TaxOffice,
		Notes:          nd.Notes,
		WantsReceipt:   nd.WantsReceipt,
		CanBeContacted: nd.CanBeContacted == nil || *nd.CanBeContacted,
		CreatedBy:      byUserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	dnr.SetActive(true)
	return svc.repo.CreateDonor(ctx, dnr)
}

func (svc *service) GetDonor(ctx context.Context, id string) (Donor, error) {
	return svc.repo.GetDonorByID(ctx, id)
}

func (svc *service) QueryDonors(ctx context.Context, filter *DonorQueryFilter, ordering []core.DBOrdering) ([]Donor, error) {
	if filter == nil {
		filter = new(DonorQueryFilter)
	}
	return svc.repo.FilterDonors(ctx, *filter, ordering)
}

func (svc *service) ArchiveDonor(ctx context.Context, id string) (Donor, error) {
	dnr, err := svc.repo.GetDonorByID(ctx, id)
	if err != nil {
		return Donor{}, err
	}
	dnr.SetActive(false)
	dnr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateDonor(ctx, dnr)
}

// Movements

func (svc *service) CanFulfil(ctx context.Context, itemID string, qty float64) error {
	itm, err := svc.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if itm.StockAmount < qty {
		return core.NewValidationError(ErrInsufficientStock, core.FieldError{
			Field: "quantity",
			Error: fmt.Sprintf("%s: %s has %g, requested %g", ErrInsufficientStock, itm.Name, itm.StockAmount, qty),
		})
	}
	return nil
}

func (svc *service) RecordMovement(ctx context.Context, nm NewMovement, byUserID string) (Movement, error) {
	itm, err := svc.repo.GetItemByID(ctx, nm.ItemID)
	if err != nil {
		return Movement{}, err
	}
	if nm.DonorID != "" {
		if _, err := svc.repo.GetDonorByID(ctx, nm.DonorID); err != nil {
			return Movement{}, err
		}
	}

	before := itm.StockAmount
	var after float64
	switch nm.Type {
	case MovementIn:
		after = before + nm.Quantity
	case MovementOut, MovementTransfer:
		if before < nm.Quantity {
			return Movement{}, core.NewValidationError(ErrInsufficientStock, core.FieldError{
				Field: "quantity",
				Error: fmt.Sprintf("%s: %s has %g, requested %g", ErrInsufficientStock, itm.Name, before, nm.Quantity),
			})
		}
		after = before - nm.Quantity
	case MovementAdjustment:
		after = nm.Quantity
	}

	mv := Movement{
		ItemID:          nm.ItemID,
		Type:            nm.Type,
		Quantity:        nm.Quantity,
		DonorID:         nm.DonorID,
		DonorName:       nm.DonorName,
		FamilyID:        nm.FamilyID,
		AidRequestID:    nm.AidRequestID,
		TargetLocation:  nm.TargetLocation,
		Description:     nm.Description,
		ReferenceNumber: nm.ReferenceNumber,
		StockBefore:     before,
		StockAfter:      after,
		CreatedBy:       byUserID,
		CreatedAt:       time.Now().UTC(),
	}
	mv, err = svc.repo.ApplyMovement(ctx, mv)
	if err != nil {
		return Movement{}, err
	}

	itm.StockAmount = after
	if itm.LowStockAlert && itm.IsCritical() && (nm.Type == MovementOut || nm.Type == MovementTransfer || nm.Type == MovementAdjustment) {
		svc.sendLowStockAlert(itm)
	}
	return mv, nil
}

func (svc *service) QueryMovements(ctx context.Context, filter *MovementQueryFilter, ordering []core.DBOrdering) ([]Movement, error) {
	if filter == nil {
		filter = new(MovementQueryFilter)
	}
	return svc.repo.FilterMovements(ctx, *filter, ordering)
}

func (svc *service) sendLowStockAlert(itm Item) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: svc.conf.ContactEmail}},
		Subject:      fmt.Sprintf("Low stock: %s", itm.Name),
		TemplateName: "low-stock-alert",
		TemplateData: struct{ Item Item }{itm},
	})
}

// Counts

func (svc *service) CreateCount(ctx context.Context, nc NewCount, byUserID string) (Count, error) {
	now := time.Now().UTC()
	cnt := Count{
		Name:            nc.Name,
		CountDate:       nc.CountDate,
		Status:          CountPlanned,
		Warehouse:       nc.Warehouse,
		Notes:           nc.Notes,
		ResponsibleUser: nc.ResponsibleUser,
		CreatedBy:       byUserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateCount(ctx, cnt)
}

func (svc *service) GetCount(ctx context.Context, id string) (Count, []CountItem, error) {
	cnt, err := svc.repo.GetCountByID(ctx, id)
	if err != nil {
		return Count{}, nil, err
	}
	items, err := svc.repo.GetCountItems(ctx, id)
	if err != nil {
		return Count{}, nil, err
	}
	return cnt, items, nil
}

func (svc *service) QueryCounts(ctx context.Context) ([]Count, error) {
	return svc.repo.QueryCounts(ctx)
}

func (svc *service) AddCountItem(ctx context.Context, countID string, nci NewCountItem) (CountItem, error) {
	cnt, err := svc.repo.GetCountByID(ctx, countID)
	if err != nil {
		return CountItem{}, err
	}
	if cnt.Status == CountCompleted || cnt.Status == CountCancelled {
		return CountItem{}, core.NewValidationError(ErrCountClosed)
	}
	itm, err := svc.repo.GetItemByID(ctx, nci.ItemID)
	if err != nil {
		return CountItem{}, err
	}

	existing, err := svc.repo.GetCountItems(ctx, countID)
	if err != nil {
		return CountItem{}, err
	}
	for _, ci := range existing {
		if ci.ItemID == nci.ItemID {
			return CountItem{}, core.NewValidationError(ErrCountItemExists, core.FieldError{Field: "item_id", Error: ErrCountItemExists.Error()})
		}
	}

	if cnt.Status == CountPlanned {
		cnt.Status = CountInProgress
		cnt.UpdatedAt = time.Now().UTC()
		if _, err := svc.repo.UpdateCount(ctx, cnt); err != nil {
			return CountItem{}, err
		}
	}

	ci := CountItem{
		CountID:        countID,
		ItemID:         nci.ItemID,
		SystemQuantity: itm.StockAmount,
		CountedQty:     nci.CountedQty,
		Notes:          nci.Notes,
		CreatedAt:      time.Now().UTC(),
	}
	return svc.repo.CreateCountItem(ctx, ci)
}

func (svc *service) CompleteCount(ctx context.Context, id string) (Count, error) {
	cnt, err := svc.repo.GetCountByID(ctx, id)
	if err != nil {
		return Count{}, err
	}
	if cnt.Status == CountCompleted || cnt.Status == CountCancelled {
		return Count{}, core.NewValidationError(ErrCountClosed)
	}
	now := time.Now().UTC()
	cnt.Status = CountCompleted
	cnt.CompletedAt = &now
	cnt.UpdatedAt = now
	return svc.repo.UpdateCount(ctx, cnt)
}

func (svc *service) CancelCount(ctx context.Context, id string) (Count, error) {
	cnt, err := svc.repo.GetCountByID(ctx, id)
	if err != nil {
		return Count{}, err
	}
	if cnt.Status == CountCompleted || cnt.Status == CountCancelled {
		return Count{}, core.NewValidationError(ErrCountClosed)
	}
	cnt.Status = CountCancelled
	cnt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCount(ctx, cnt)
}
