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
	"github.com/yardimel/yardimel/core/family"
)

type familyRow struct {
	ID                 string       `db:"id"`
	NationalID         string       `db:"national_id"`
	RepresentativeName string       `db:"representative_name"`
	Phone              string       `db:"phone"`
	City               string       `db:"city"`
	District           string       `db:"district"`
	Neighborhood       string       `db:"neighborhood"`
	AddressDetail      string       `db:"address_detail"`
	Latitude           null.Float64 `db:"latitude"`
	Longitude          null.Float64 `db:"longitude"`
	LocationLink       string       `db:"location_link"`
	Status             string       `db:"status"`
	DistributionZone   string       `db:"distribution_zone"`
	Notes              string       `db:"notes"`
	IsActive           null.Bool    `db:"is_active"`
	CreatedBy          string       `db:"created_by"`
	UpdatedBy          string       `db:"updated_by"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

func (r *familyRow) load(fam family.Family) {
	r.ID = fam.ID
	r.NationalID = fam.NationalID
	r.RepresentativeName = fam.RepresentativeName
	r.Phone = fam.Phone
	r.City = fam.City
	r.District = fam.District
	r.Neighborhood = fam.Neighborhood
	r.AddressDetail = fam.AddressDetail
	r.Latitude = null.Float64FromPtr(fam.Latitude)
	r.Longitude = null.Float64FromPtr(fam.Longitude)
	r.LocationLink = fam.LocationLink
	r.Status = fam.Status
	r.DistributionZone = fam.DistributionZone
	r.Notes = fam.Notes
	r.IsActive = null.BoolFromPtr(fam.IsActive)
	r.CreatedBy = fam.CreatedBy
	r.UpdatedBy = fam.UpdatedBy
	r.CreatedAt = fam.CreatedAt.UTC()
	r.UpdatedAt = fam.UpdatedAt.UTC()
}

func (r *familyRow) family() family.Family {
	return family.Family{
		ID:                 r.ID,
		NationalID:         r.NationalID,
		RepresentativeName: r.RepresentativeName,
		Phone:              r.Phone,
		City:               r.City,
		District:           r.District,
		Neighborhood:       r.Neighborhood,
		AddressDetail:      r.AddressDetail,
		Latitude:           r.Latitude.Ptr(),
		Longitude:          r.Longitude.Ptr(),
		LocationLink:       r.LocationLink,
		Status:             r.Status,
		DistributionZone:   r.DistributionZone,
		Notes:              r.Notes,
		IsActive:           r.IsActive.Ptr(),
		CreatedBy:          r.CreatedBy,
		UpdatedBy:          r.UpdatedBy,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type memberRow struct {
	ID          string    `db:"id"`
	FamilyID    string    `db:"family_id"`
	FullName    string    `db:"full_name"`
	Relation    string    `db:"relation"`
	Age         null.Int  `db:"age"`
	IsHead      bool      `db:"is_head"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *memberRow) load(mbr family.Member) {
	r.ID = mbr.ID
	r.FamilyID = mbr.FamilyID
	r.FullName = mbr.FullName
	r.Relation = mbr.Relation
	r.Age = null.IntFromPtr(mbr.Age)
	r.IsHead = mbr.IsHead
	r.Description = mbr.Description
	r.CreatedAt = mbr.CreatedAt.UTC()
	r.UpdatedAt = mbr.UpdatedAt.UTC()
}

func (r *memberRow) member() family.Member {
	return family.Member{
		ID:          r.ID,
		FamilyID:    r.FamilyID,
		FullName:    r.FullName,
		Relation:    r.Relation,
		Age:         r.Age.Ptr(),
		IsHead:      r.IsHead,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type documentRow struct {
	ID          string    `db:"id"`
	FamilyID    string    `db:"family_id"`
	Type        string    `db:"type"`
	FileName    string    `db:"file_name"`
	Description string    `db:"description"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *documentRow) document() family.Document {
	return family.Document{
		ID:          r.ID,
		FamilyID:    r.FamilyID,
		Type:        r.Type,
		FileName:    r.FileName,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

type familyRepository struct {
	db *sqlx.DB
}

var _ family.Repository = (*familyRepository)(nil) // interface compliance check

func NewFamilyRepository(db *sqlx.DB) *familyRepository {
	return &familyRepository{db: db}
}

func (repo familyRepository) trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo familyRepository) CheckNationalIDUniqueness(ctx context.Context, nationalID string, excluded ...family.Family) error {
	query := "SELECT COUNT(*) FROM families WHERE national_id = ?"
	args := []interface{}{nationalID}
	if len(excluded) > 0 {
		query += " AND id NOT IN (" + placeholders(len(excluded)) + ")"
		for _, fam := range excluded {
			args = append(args, fam.ID)
		}
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking national ID uniqueness")
	}
	if count > 0 {
		return family.ErrNationalIDExists
	}
	return nil
}

func (repo familyRepository) CreateFamily(ctx context.Context, fam family.Family) (family.Family, error) {
	fam.ID = uuid.New().String()
	now := time.Now().UTC()
	fam.CreatedAt, fam.UpdatedAt = now, now

	var row familyRow
	row.load(fam)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO families (id, national_id, representative_name, phone, city, district, neighborhood, address_detail,
			latitude, longitude, location_link, status, distribution_zone, notes, is_active, created_by, updated_by, created_at, updated_at)
		VALUES (:id, :national_id, :representative_name, :phone, :city, :district, :neighborhood, :address_detail,
			:latitude, :longitude, :location_link, :status, :distribution_zone, :notes, :is_active, :created_by, :updated_by, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return family.Family{}, errors.Wrap(err, "inserting family")
	}
	return row.family(), nil
}

func (repo familyRepository) GetFamilyByID(ctx context.Context, id string) (family.Family, error) {
	if _, err := uuid.Parse(id); err != nil {
		return family.Family{}, family.ErrNotFound
	}
	var row familyRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM families WHERE id = ?"), id); err != nil {
		return family.Family{}, repo.trapNoRowsErr(err, family.ErrNotFound, "finding family by ID")
	}
	return row.family(), nil
}

func (repo familyRepository) GetFamilyByNationalID(ctx context.Context, nationalID string) (family.Family, error) {
	var row familyRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM families WHERE national_id = ?"), nationalID); err != nil {
		return family.Family{}, repo.trapNoRowsErr(err, family.ErrNotFound, "finding family by national ID")
	}
	return row.family(), nil
}

func (repo familyRepository) FilterFamilies(ctx context.Context, filter family.QueryFilter, ordering []core.DBOrdering) ([]family.Family, error) {
	query := "SELECT * FROM families WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		query += " AND (LOWER(representative_name) LIKE ? OR national_id LIKE ? OR phone LIKE ?)"
		val := contains(filter.Search)
		args = append(args, val, val, val)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.District != "" {
		query += " AND LOWER(district) = ?"
		args = append(args, strings.ToLower(filter.District))
	}
	if filter.Zone != "" {
		query += " AND distribution_zone = ?"
		args = append(args, filter.Zone)
	}
	if filter.IsActive != nil {
		query += " AND is_active = ?"
		args = append(args, *filter.IsActive)
	}
	query += orderClause(ordering)

	var rows []familyRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying families")
	}
	fams := make([]family.Family, 0, len(rows))
	for i := range rows {
		fams = append(fams, rows[i].family())
	}
	return fams, nil
}

func (repo familyRepository) UpdateFamily(ctx context.Context, fam family.Family) (family.Family, error) {
	fam.UpdatedAt = time.Now().UTC()
	var row familyRow
	row.load(fam)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE families SET representative_name = :representative_name, phone = :phone, city = :city,
			district = :district, neighborhood = :neighborhood, address_detail = :address_detail,
			latitude = :latitude, longitude = :longitude, location_link = :location_link, status = :status,
			distribution_zone = :distribution_zone, notes = :notes, is_active = :is_active,
			updated_by = :updated_by, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return family.Family{}, errors.Wrap(err, "updating family")
	}
	return repo.GetFamilyByID(ctx, fam.ID)
}

func (repo familyRepository) CreateMember(ctx context.Context, mbr family.Member) (family.Member, error) {
	mbr.ID = uuid.New().String()
	now := time.Now().UTC()
	mbr.CreatedAt, mbr.UpdatedAt = now, now

	var row memberRow
	row.load(mbr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO family_members (id, family_id, full_name, relation, age, is_head, description, created_at, updated_at)
		VALUES (:id, :family_id, :full_name, :relation, :age, :is_head, :description, :created_at, :updated_at)`,
		&row,
	)
	if err != nil {
		return family.Member{}, errors.Wrap(err, "inserting family member")
	}
	return row.member(), nil
}

func (repo familyRepository) GetMemberByID(ctx context.Context, id string) (family.Member, error) {
	var row memberRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM family_members WHERE id = ?"), id); err != nil {
		return family.Member{}, repo.trapNoRowsErr(err, family.ErrMemberNotFound, "finding family member")
	}
	return row.member(), nil
}

func (repo familyRepository) GetFamilyMembers(ctx context.Context, familyID string) ([]family.Member, error) {
	var rows []memberRow
	query := "SELECT * FROM family_members WHERE family_id = ? ORDER BY is_head DESC, created_at ASC"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), familyID); err != nil {
		return nil, errors.Wrap(err, "querying family members")
	}
	mbrs := make([]family.Member, 0, len(rows))
	for i := range rows {
		mbrs = append(mbrs, rows[i].member())
	}
	return mbrs, nil
}

func (repo familyRepository) UpdateMember(ctx context.Context, mbr family.Member) (family.Member, error) {
	mbr.UpdatedAt = time.Now().UTC()
	var row memberRow
	row.load(mbr)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE family_members SET full_name = :full_name, relation = :relation, age = :age,
			is_head = :is_head, description = :description, updated_at = :updated_at
		WHERE id = :id`,
		&row,
	)
	if err != nil {
		return family.Member{}, errors.Wrap(err, "updating family member")
	}
	return repo.GetMemberByID(ctx, mbr.ID)
}

func (repo familyRepository) DeleteMember(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM family_members WHERE id = ?"), id); err != nil {
		return errors.Wrap(err, "deleting family member")
	}
	return nil
}

func (repo familyRepository) CreateDocument(ctx context.Context, doc family.Document) (family.Document, error) {
	doc.ID = uuid.New().String()
	doc.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO family_documents (id, family_id, type, file_name, description, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(query),
		doc.ID, doc.FamilyID, doc.Type, doc.FileName, doc.Description, doc.CreatedBy, doc.CreatedAt)
	if err != nil {
		return family.Document{}, errors.Wrap(err, "inserting family document")
	}
	return doc, nil
}

func (repo familyRepository) GetDocumentByID(ctx context.Context, id string) (family.Document, error) {
	var row documentRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM family_documents WHERE id = ?"), id); err != nil {
		return family.Document{}, repo.trapNoRowsErr(err, family.ErrDocumentNotFound, "finding family document")
	}
	return row.document(), nil
}

func (repo familyRepository) GetFamilyDocuments(ctx context.Context, familyID string) ([]family.Document, error) {
	var rows []documentRow
	query := "SELECT * FROM family_documents WHERE family_id = ? ORDER BY created_at DESC"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), familyID); err != nil {
		return nil, errors.Wrap(err, "querying family documents")
	}
	docs := make([]family.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, rows[i].document())
	}
	return docs, nil
}

func (repo familyRepository) DeleteDocument(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM family_documents WHERE id = ?"), id); err != nil {
		return errors.Wrap(err, "deleting family document")
	}
	return nil
}
