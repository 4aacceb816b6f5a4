package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/yardimel/yardimel/core"
	"github.com/yardimel/yardimel/core/inventory"
)

type itemCategoryRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	ParentID     string    `db:"parent_id"`
	DisplayOrder int       `db:"display_order"`
	IsActive     null.Bool `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *itemCategoryRow) category() inventory.Category {
	return inventory.Category{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		ParentID:     r.ParentID,
		DisplayOrder: r.DisplayOrder,
		IsActive:     r.IsActive.Ptr(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type itemRow struct {
	ID            string     `db:"id"`
	Name          string     `db:"name"`
	CategoryID    string     `db:"category_id"`
	Type          string     `db:"type"`
	Unit          string     `db:"unit"`
	StockAmount   float64    `db:"stock_amount"`
	CriticalLevel float64    `db:"critical_level"`
	OptimalLevel  float64    `db:"optimal_level"`
	Location      string     `db:"location"`
	Warehouse     string     `db:"warehouse"`
	AccountType   string     `db:"account_type"`
	Institution   string     `db:"institution"`
	IBAN          string     `db:"iban"`
	AccountNumber string     `db:"account_number"`
	Description   string     `db:"description"`
	Barcode       string     `db:"barcode"`
	SKU           string     `db:"sku"`
	UnitPrice     null.Int64 `db:"unit_price"`
	LowStockAlert bool       `db:"low_stock_alert"`
	IsActive      null.Bool  `db:"is_active"`
	CreatedBy     string     `db:"created_by"`
	UpdatedBy     string     `db:"updated_by"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r *itemRow) load(itm inventory.Item) {
	r.ID = itm.ID
	r.Name = itm.Name
	r.CategoryID = itm.CategoryID
	r.Type = itm.Type
	r.Unit = itm.Unit
	r.StockAmount = itm.StockAmount
	r.CriticalLevel = itm.CriticalLevel
	r.OptimalLevel = itm.OptimalLevel
	r.Location = itm.Location
	r.Warehouse = itm.Warehouse
	r.AccountType = itm.AccountType
	r.Institution = itm.Institution
	r.IBAN = itm.IBAN
	r.AccountNumber = itm.AccountNumber
	r.Description = itm.Description
	r.Barcode = itm.Barcode
	r.SKU = itm.SKU
	r.UnitPrice = null.Int64FromPtr(itm.UnitPrice)
	r.LowStockAlert = itm.LowStockAlert
	r.IsActive = null.BoolFromPtr(itm.IsActive)
	r.CreatedBy = itm.CreatedBy
	r.UpdatedBy = itm.UpdatedBy
	r.CreatedAt = itm.CreatedAt.UTC()
	r.UpdatedAt = itm.UpdatedAt.UTC()
}

func (r *itemRow) item() inventory.Item {
	return inventory.Item{
		ID:            r.ID,
		Name:          r.Name,
		CategoryID:    r.CategoryID,
		Type:          r.Type,
		Unit:          r.Unit,
		StockAmount:   r.StockAmount,
		CriticalLevel: r.CriticalLevel,
		OptimalLevel:  r.OptimalLevel,
		Location:      r.Location,
		Warehouse:     r.Warehouse,
		AccountType:   r.AccountType,
		Institution:   r.Institution,
		IBAN:          r.IBAN,
		AccountNumber: r.AccountNumber,
		Description:   r.Description,
		Barcode:       r.Barcode,
		SKU:           r.SKU,
		UnitPrice:     r.UnitPrice.Ptr(),
		LowStockAlert: r.LowStockAlert,
		IsActive:      r.IsActive.Ptr(),
		CreatedBy:     r.CreatedBy,
		UpdatedBy:     r.UpdatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type donorRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	Type           string    `db:"type"`
	Phone          string    `db:"phone"`
	Email          string    `db:"email"`
	Address        string    `db:"address"`
	TaxNumber      string    `db:"tax_number"`
	TaxOffice      string    `db:"tax_office"`
	Notes          string    `db:"notes"`
	WantsReceipt   bool      `db:"wants_receipt"`
	CanBeContacted bool      `db:"can_be_contacted"`
	IsActive       null.Bool `db:"is_active"`
	CreatedBy      string    `db:"created_by"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r *donorRow) load(dnr inventory.Donor) {
	r.ID = dnr.ID
	r.Name = dnr.Name
	r.Type = dnr.Type
	r.Phone = dnr.Phone
	r.Email = dnr.Email
	r.Address = dnr.Address
	r.TaxNumber = dnr.TaxNumber
	r.TaxOffice = dnr.TaxOffice
	r.Notes = dnr.Notes
	r.WantsReceipt = dnr.WantsReceipt
	r.CanBeContacted = dnr.CanBeContacted
	r.IsActive = null.BoolFromPtr(dnr.IsActive)
	r.CreatedBy = dnr.CreatedBy
	r.CreatedAt = dnr.CreatedAt.UTC()
	r.UpdatedAt = dnr.UpdatedAt.UTC()
}

func (r *donorRow) donor() inventory.Donor {
	return inventory.Donor{
		ID:             r.ID,
		Name:           r.Name,
		Type:           r.Type,
		Phone:          r.Phone,
		Email:          r.Email,
		Address:        r.Address,
		TaxNumber:      r.TaxNumber,
		TaxOffice:      r.TaxOffice,
		Notes:          r.Notes,
		WantsReceipt:   r.WantsReceipt,
		CanBeContacted: r.CanBeContacted,
		IsActive:       r.IsActive.Ptr(),
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type movementRow struct {
	ID              string    `db:"id"`
	ItemID          string    `db:"item_id"`
	Type            string    `db:"type"`
	Quantity        float64   `db:"quantity"`
	DonorID         string    `db:"donor_id"`
	DonorName       string    `db:"donor_name"`
	FamilyID        string    `db:"family_id"`
	AidRequestID    string    `db:"aid_request_id"`
	TargetLocation  string    `db:"target_location"`
	Description     string    `db:"description"`
	ReferenceNumber string    `db:"reference_number"`
	StockBefore     float64   `db:"stock_before"`
	StockAfter      float64   `db:"stock_after"`
	CreatedBy       string    `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r *movementRow) load(mv inventory.Movement) {
	r.ID = mv.ID
	r.ItemID = mv.ItemID
	r.Type = mv.Type
	r.Quantity = mv.Quantity
	r.DonorID = mv.DonorID
	r.DonorName = mv.DonorName
	r.FamilyID = mv.FamilyID
	r.AidRequestID = mv.AidRequestID
	r.TargetLocation = mv.TargetLocation
	r.Description = mv.Description
	r.ReferenceNumber = mv.ReferenceNumber
	r.StockBefore = mv.StockBefore
	r.StockAfter = mv.StockAfter
	r.CreatedBy = mv.CreatedBy
	r.CreatedAt = mv.CreatedAt.UTC()
}

func (r *movementRow) movement() inventory.Movement {
	return inventory.Movement{
		ID:              r.ID,
		ItemID:          r.ItemID,
		Type:            r.Type,
		Quantity:        r.Quantity,
		DonorID:         r.DonorID,
		DonorName:       r.DonorName,
		FamilyID:        r.FamilyID,
		AidRequestID:    r.AidRequestID,
		TargetLocation:  r.TargetLocation,
		Description:     r.Description,
		ReferenceNumber: r.ReferenceNumber,
		StockBefore:     r.StockBefore,
		StockAfter:      r.StockAfter,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
	}
}

type countRow struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	CountDate       time.Time `db:"count_date"`
	Status          string    `db:"status"`
	Warehouse       string    `db:"warehouse"`
	Notes           string    `db:"notes"`
	ResponsibleUser string    `db:"responsible_user"`
	CompletedAt     null.Time `db:"completed_at"`
	CreatedBy       string    `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r *countRow) load(cnt inventory.Count) {
	r.ID = cnt.ID
	r.Name = cnt.Name
	r.CountDate = cnt.CountDate.UTC()
	r.Status = cnt.Status
	r.Warehouse = cnt.Warehouse
	r.Notes = cnt.Notes
	r.ResponsibleUser = cnt.ResponsibleUser
	if cnt.CompletedAt != nil {
		r.CompletedAt = null.TimeFrom(cnt.CompletedAt.UTC())
	}
	r.CreatedBy = cnt.CreatedBy
	r.CreatedAt = cnt.CreatedAt.UTC()
	r.UpdatedAt = cnt.UpdatedAt.UTC()
}

func (r *countRow) count() inventory.Count {
	cnt := inventory.Count{
		ID:              r.ID,
		Name:            r.Name,
		CountDate:       r.CountDate,
		Status:          r.Status,
		Warehouse:       r.Warehouse,
		Notes:           r.Notes,
		ResponsibleUser: r.ResponsibleUser,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		cnt.CompletedAt = &t
	}
	return cnt
}

type countItemRow struct {
	ID             string    `db:"id"`
	CountID        string    `db:"count_id"`
	ItemID         string    `db:"item_id"`
	SystemQuantity float64   `db:"system_quantity"`
	CountedQty     float64   `db:"counted_quantity"`
	Notes          string    `db:"notes"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r *countItemRow) countItem() inventory.CountItem {
	return inventory.CountItem{
		ID:             r.ID,
		CountID:        r.CountID,
		ItemID:         r.ItemID,
		SystemQuantity: r.SystemQuantity,
		CountedQty:     r.CountedQty,
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
	}
}

type inventoryRepository struct {
	db *sqlx.DB
}

var _ inventory.Repository = (*inventoryRepository)(nil) // interface compliance check

func NewInventoryRepository(db *sqlx.DB) *inventoryRepository {
	return &inventoryRepository{db: db}
}

func (repo inventoryRepository) trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// ---------- categories ----------

func (repo inventoryRepository) CheckCategoryNameUniqueness(ctx context.Context, name string, excluded ...inventory.Category) error {
	query := "SELECT COUNT(*) FROM item_categories WHERE LOWER(name) = ?"
	args := []interface{}{strings.ToLower(name)}
	if len(excluded) > 0 {
		query += " AND id NOT IN (" + placeholders(len(excluded)) + ")"
		for _, cat := range excluded {
			args = append(args, cat.ID)
		}
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking category uniqueness")
	}
	if count > 0 {
		return inventory.ErrCategoryExists
	}
	return nil
}

func (repo inventoryRepository) CreateCategory(ctx context.Context, cat inventory.Category) (inventory.Category, error) {
	cat.ID = uuid.New().String()
	now := time.Now().UTC()
	cat.CreatedAt, cat.UpdatedAt = now, now

	query := `
		INSERT INTO item_categories (id, name, description, parent_id, display_order, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(query),
		cat.ID, cat.Name, cat.Description, cat.ParentID, cat.DisplayOrder, cat.IsActive != nil && *cat.IsActive, cat.CreatedAt, cat.UpdatedAt)
	if err != nil {
		return inventory.Category{}, errors.Wrap(err, "inserting category")
	}
	return cat, nil
}

func (repo inventoryRepository) GetCategoryByID(ctx context.Context, id string) (inventory.Category, error) {
	var row itemCategoryRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM item_categories WHERE id = ?"), id); err != nil {
		return inventory.Category{}, repo.trapNoRowsErr(err, inventory.ErrCategoryNotFound, "finding category")
	}
	return row.category(), nil
}

func (repo inventoryRepository) QueryCategories(ctx context.Context) ([]inventory.Category, error) {
	var rows []itemCategoryRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM item_categories ORDER BY display_order ASC, name ASC"); err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	cats := make([]inventory.Category, 0, len(rows))
	for i := range rows {
		cats = append(cats, rows[i].category())
	}
	return cats, nil
}

func (repo inventoryRepository) UpdateCategory(ctx context.Context, cat inventory.Category) (inventory.Category, error) {
	cat.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE item_categories SET name = ?, description = ?, parent_id = ?, display_order = ?, is_active = ?, updated_at = ?
		WHERE id = ?`
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(query),
		cat.Name, cat.Description, cat.ParentID, cat.DisplayOrder, cat.IsActive != nil && *cat.IsActive, cat.UpdatedAt, cat.ID)
	if err != nil {
		return inventory.Category{}, errors.Wrap(err, "updating category")
	}
	return repo.GetCategoryByID(ctx, cat.ID)
}

// ---------- items ----------

func (repo inventoryRepository) CheckItemCodeUniqueness(ctx context.Context, barcode, sku string, excluded ...inventory.Item) error {
	if barcode == "" && sku == "" {
		return nil
	}
	query := "SELECT * FROM items WHERE (barcode = ? AND barcode != '') OR (sku = ? AND sku != '')"
	args := []interface{}{barcode, sku}
	if len(excluded) > 0 {
		query += " AND id NOT IN (" + placeholders(len(excluded)) + ")"
		for _, itm := range excluded {
			args = append(args, itm.ID)
		}
	}

	var rows []itemRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking item code uniqueness")
	}
	for _, row := range rows {
		if barcode != "" && row.Barcode == barcode {
			return inventory.ErrBarcodeExists
		}
		if sku != "" && row.SKU == sku {
			return inventory.ErrSKUExists
		}
	}
	return nil
}

func (repo inventoryRepository) CreateItem(ctx context.Context, itm inventory.Item) (inventory.Item, error) {
	itm.ID = uuid.New().String()
	now := time.Now().UTC()
	itm.CreatedAt, itm.UpdatedAt = now, now

	var row itemRow
	row.load(itm)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO items (id, name, category_id, type, unit, stock_amount, critical_level, optimal_level,
			location, warehouse, account_type, institution, iban, account_number, description, barcode, sku,
			unit_price, low_stock_alert, is_active, created_by, updated_by, created_at, updated_at)
		VALUES (:id, :name, :category_id, :type, :unit, :stock_amount, :critical_level, :optimal_level,
			:location, :warehouse, :account_type, :institution, :iban, :account_number, :description, :barcode, :sku,
			:unit_price, :low_stock_alert, :is_active, :created_by, :updated_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return inventory.Item{}, errors.Wrap(err, "inserting item")
	}
	return row.item(), nil
}

func (repo inventoryRepository) GetItemByID(ctx context.Context, id string) (inventory.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	var row itemRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM items WHERE id = ?"), id); err != nil {
		return inventory.Item{}, repo.trapNoRowsErr(err, inventory.ErrItemNotFound, "finding item")
	}
	return row.item(), nil
}

func (repo inventoryRepository) FilterItems(ctx context.Context, filter inventory.ItemQueryFilter, ordering []core.DBOrdering) ([]inventory.Item, error) {
	query := "SELECT * FROM items WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		query += " AND (LOWER(name) LIKE ? OR barcode LIKE ? OR sku LIKE ?)"
		val := contains(filter.Search)
		args = append(args, val, val, val)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, filter.CategoryID)
	}
	if filter.LowStock != nil {
		if *filter.LowStock {
			query += " AND stock_amount <= critical_level * 1.5"
		} else {
			query += " AND stock_amount > critical_level * 1.5"
		}
	}
	if filter.IsActive != nil {
		query += " AND is_active = ?"
		args = append(args, *filter.IsActive)
	}
	query += orderClause(ordering)

	var rows []itemRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying items")
	}
	items := make([]inventory.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].item())
	}
	return items, nil
}

func (repo inventoryRepository) UpdateItem(ctx context.Context, itm inventory.Item) (inventory.Item, error) {
	var row itemRow
	row.load(itm)
	row.UpdatedAt = time.Now().UTC()
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE items SET name = :name, category_id = :category_id, type = :type, unit = :unit,
			critical_level = :critical_level, optimal_level = :optimal_level, location = :location,
			warehouse = :warehouse, account_type = :account_type, institution = :institution, iban = :iban,
			account_number = :account_number, description = :description, barcode = :barcode, sku = :sku,
			unit_price = :unit_price, low_stock_alert = :low_stock_alert, is_active = :is_active,
			updated_by = :updated_by, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return inventory.Item{}, errors.Wrap(err, "updating item")
	}
	return repo.GetItemByID(ctx, itm.ID)
}

// ---------- donors ----------

func (repo inventoryRepository) CreateDonor(ctx context.Context, dnr inventory.Donor) (inventory.Donor, error) {
	dnr.ID = uuid.New().String()
	now := time.Now().UTC()
	dnr.CreatedAt, dnr.UpdatedAt = now, now

	var row donorRow
	row.load(dnr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO donors (id, name, type, phone, email, address, tax_number, tax_office, notes,
			wants_receipt, can_be_contacted, is_active, created_by, created_at, updated_at)
		VALUES (:id, :name, :type, :phone, :email, :address, :tax_number, :tax_office, :notes,
			:wants_receipt, :can_be_contacted, :is_active, :created_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return inventory.Donor{}, errors.Wrap(err, "inserting donor")
	}
	return row.donor(), nil
}

func (repo inventoryRepository) GetDonorByID(ctx context.Context, id string) (inventory.Donor, error) {
	var row donorRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM donors WHERE id = ?"), id); err != nil {
		return inventory.Donor{}, repo.trapNoRowsErr(err, inventory.ErrDonorNotFound, "finding donor")
	}
	return row.donor(), nil
}

func (repo inventoryRepository) FilterDonors(ctx context.Context, filter inventory.DonorQueryFilter, ordering []core.DBOrdering) ([]inventory.Donor, error) {
	query := "SELECT * FROM donors WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		query += " AND (LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)"
		val := contains(filter.Search)
		args = append(args, val, val, val)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.IsActive != nil {
		query += " AND is_active = ?"
		args = append(args, *filter.IsActive)
	}
	query += orderClause(ordering)

	var rows []donorRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying donors")
	}
	donors := make([]inventory.Donor, 0, len(rows))
	for i := range rows {
		donors = append(donors, rows[i].donor())
	}
	return donors, nil
}

func (repo inventoryRepository) UpdateDonor(ctx context.Context, dnr inventory.Donor) (inventory.Donor, error) {
	var row donorRow
	row.load(dnr)
	row.UpdatedAt = time.Now().UTC()
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE donors SET name = :name, type = :type, phone = :phone, email = :email, address = :address,
			tax_number = :tax_number, tax_office = :tax_office, notes = :notes, wants_receipt = :wants_receipt,
			can_be_contacted = :can_be_contacted, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return inventory.Donor{}, errors.Wrap(err, "updating donor")
	}
	return repo.GetDonorByID(ctx, dnr.ID)
}

// ---------- movements ----------

// ApplyMovement inserts the movement and moves the item's stock to
// mv.StockAfter in one transaction. The stock update is guarded on the
// snapshotted mv.StockBefore; a concurrent change makes the guard miss and
// the whole movement fails.
func (repo inventoryRepository) ApplyMovement(ctx context.Context, mv inventory.Movement) (inventory.Movement, error) {
	mv.ID = uuid.New().String()
	mv.CreatedAt = time.Now().UTC()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return inventory.Movement{}, errors.Wrap(err, "starting movement transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, tx.Rebind("UPDATE items SET stock_amount = ?, updated_at = ? WHERE id = ? AND stock_amount = ?"),
		mv.StockAfter, mv.CreatedAt, mv.ItemID, mv.StockBefore)
	if err != nil {
		return inventory.Movement{}, errors.Wrap(err, "updating item stock")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return inventory.Movement{}, errors.Wrap(err, "updating item stock")
	}
	if affected == 0 {
		return inventory.Movement{}, inventory.ErrInsufficientStock
	}

	var row movementRow
	row.load(mv)
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO stock_movements (id, item_id, type, quantity, donor_id, donor_name, family_id, aid_request_id,
			target_location, description, reference_number, stock_before, stock_after, created_by, created_at)
		VALUES (:id, :item_id, :type, :quantity, :donor_id, :donor_name, :family_id, :aid_request_id,
			:target_location, :description, :reference_number, :stock_before, :stock_after, :created_by, :created_at)`,
		&row,
	)
	if err != nil {
		return inventory.Movement{}, errors.Wrap(err, "inserting stock movement")
	}

	if err = tx.Commit(); err != nil {
		return inventory.Movement{}, errors.Wrap(err, "committing movement")
	}
	return row.movement(), nil
}

func (repo inventoryRepository) FilterMovements(ctx context.Context, filter inventory.MovementQueryFilter, ordering []core.DBOrdering) ([]inventory.Movement, error) {
	query := "SELECT * FROM stock_movements WHERE 1=1"
	var args []interface{}

	if filter.ItemID != "" {
		query += " AND item_id = ?"
		args = append(args, filter.ItemID)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.DonorID != "" {
		query += " AND donor_id = ?"
		args = append(args, filter.DonorID)
	}
	if filter.FamilyID != "" {
		query += " AND family_id = ?"
		args = append(args, filter.FamilyID)
	}
	if filter.AidRequestID != "" {
		query += " AND aid_request_id = ?"
		args = append(args, filter.AidRequestID)
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	query += orderClause(ordering)

	var rows []movementRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying stock movements")
	}
	mvs := make([]inventory.Movement, 0, len(rows))
	for i := range rows {
		mvs = append(mvs, rows[i].movement())
	}
	return mvs, nil
}

// ---------- counts ----------

func (repo inventoryRepository) CreateCount(ctx context.Context, cnt inventory.Count) (inventory.Count, error) {
	cnt.ID = uuid.New().String()
	now := time.Now().UTC()
	cnt.CreatedAt, cnt.UpdatedAt = now, now

	var row countRow
	row.load(cnt)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO stock_counts (id, name, count_date, status, warehouse, notes, responsible_user, completed_at, created_by, created_at, updated_at)
		VALUES (:id, :name, :count_date, :status, :warehouse, :notes, :responsible_user, :completed_at, :created_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return inventory.Count{}, errors.Wrap(err, "inserting stock count")
	}
	return row.count(), nil
}

func (repo inventoryRepository) GetCountByID(ctx context.Context, id string) (inventory.Count, error) {
	var row countRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM stock_counts WHERE id = ?"), id); err != nil {
		return inventory.Count{}, repo.trapNoRowsErr(err, inventory.ErrCountNotFound, "finding stock count")
	}
	return row.count(), nil
}

func (repo inventoryRepository) QueryCounts(ctx context.Context) ([]inventory.Count, error) {
	var rows []countRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM stock_counts ORDER BY count_date DESC"); err != nil {
		return nil, errors.Wrap(err, "querying stock counts")
	}
	cnts := make([]inventory.Count, 0, len(rows))
	for i := range rows {
		cnts = append(cnts, rows[i].count())
	}
	return cnts, nil
}

func (repo inventoryRepository) UpdateCount(ctx context.Context, cnt inventory.Count) (inventory.Count, error) {
	var row countRow
	row.load(cnt)
	row.UpdatedAt = time.Now().UTC()
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE stock_counts SET name = :name, count_date = :count_date, status = :status, warehouse = :warehouse,
			notes = :notes, responsible_user = :responsible_user, completed_at = :completed_at, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return inventory.Count{}, errors.Wrap(err, "updating stock count")
	}
	return repo.GetCountByID(ctx, cnt.ID)
}

func (repo inventoryRepository) CreateCountItem(ctx context.Context, ci inventory.CountItem) (inventory.CountItem, error) {
	ci.ID = uuid.New().String()
	ci.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO stock_count_items (id, count_id, item_id, system_quantity, counted_quantity, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(query),
		ci.ID, ci.CountID, ci.ItemID, ci.SystemQuantity, ci.CountedQty, ci.Notes, ci.CreatedAt)
	if err != nil {
		return inventory.CountItem{}, errors.Wrap(err, "inserting stock count item")
	}
	return ci, nil
}

func (repo inventoryRepository) GetCountItems(ctx context.Context, countID string) ([]inventory.CountItem, error) {
	var rows []countItemRow
	query := "SELECT * FROM stock_count_items WHERE count_id = ? ORDER BY created_at ASC"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), countID); err != nil {
		return nil, errors.Wrap(err, "querying stock count items")
	}
	cis := make([]inventory.CountItem, 0, len(rows))
	for i := range rows {
		cis = append(cis, rows[i].countItem())
	}
	return cis, nil
}
