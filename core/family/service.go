package family

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/yardimel/yardimel/core"
)

var (
	// errors
	ErrNotFound         = errors.New("family not found")
	ErrMemberNotFound   = errors.New("family member not found")
	ErrDocumentNotFound = errors.New("family document not found")
	ErrNationalIDExists = errors.New("a family with this national ID already exists")
	ErrInvalidStatus    = errors.New("invalid family status")
	ErrHeadExists       = errors.New("family already has a head member")
)

type (
	Repository interface {
		CheckNationalIDUniqueness(ctx context.Context, nationalID string, excluded ...Family) error
		CreateFamily(ctx context.Context, fam Family) (Family, error)
		GetFamilyByID(ctx context.Context, id string) (Family, error)
		GetFamilyByNationalID(ctx context.Context, nationalID string) (Family, error)
		// FilterFamilies applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// Family.RepresentativeName, Family.NationalID or Family.Phone.
		FilterFamilies(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Family, error)
		UpdateFamily(ctx context.Context, fam Family) (Family, error)

		CreateMember(ctx context.Context, mbr Member) (Member, error)
		GetMemberByID(ctx context.Context, id string) (Member, error)
		GetFamilyMembers(ctx context.Context, familyID string) ([]Member, error)
		UpdateMember(ctx context.Context, mbr Member) (Member, error)
		DeleteMember(ctx context.Context, id string) error

		CreateDocument(ctx context.Context, doc Document) (Document, error)
		GetDocumentByID(ctx context.Context, id string) (Document, error)
		GetFamilyDocuments(ctx context.Context, familyID string) ([]Document, error)
		DeleteDocument(ctx context.Context, id string) error
	}

	Service interface {
		CheckNationalIDUniqueness(nationalID string, excluded ...Family) error
		Create(ctx context.Context, nf NewFamily, byUserID string) (Family, error)
		GetByID(ctx context.Context, id string) (Family, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Family, error)
		Update(ctx context.Context, id string, uf UpdateFamily, byUserID string) (Family, error)
		SetStatus(ctx context.Context, id, status, byUserID string) (Family, error)
		Archive(ctx context.Context, id, byUserID string) (Family, error)

		Members(ctx context.Context, familyID string) ([]Member, error)
		AddMember(ctx context.Context, familyID string, nm NewMember) (Member, error)
		UpdateMember(ctx context.Context, id string, um UpdateMember) (Member, error)
		RemoveMember(ctx context.Context, id string) error

		Documents(ctx context.Context, familyID string) ([]Document, error)
		AddDocument(ctx context.Context, familyID string, nd NewDocument, byUserID string) (Document, error)
		RemoveDocument(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckNationalIDUniqueness(nationalID string, excluded ...Family) error {
	if err := svc.repo.CheckNationalIDUniqueness(context.Background(), nationalID, excluded...); err != nil {
		if errors.Cause(err) == ErrNationalIDExists {
			return core.NewValidationError(err, core.FieldError{Field: "national_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nf NewFamily, byUserID string) (Family, error) {
	now := time.Now().UTC()
	fam := Family{
		NationalID:         nf.NationalID,
		RepresentativeName: nf.RepresentativeName,
		Phone:              nf.Phone,
		City:               nf.City,
		District:           nf.District,
		Neighborhood:       nf.Neighborhood,
		AddressDetail:      nf.AddressDetail,
		Latitude:           nf.Latitude,
		Longitude:          nf.Longitude,
		LocationLink:       nf.LocationLink,
		Status:             StatusPending,
		DistributionZone:   nf.DistributionZone,
		Notes:              nf.Notes,
		CreatedBy:          byUserID,
		UpdatedBy:          byUserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	fam.SetActive(true)
	return svc.repo.CreateFamily(ctx, fam)
}

func (svc *service) GetByID(ctx context.Context, id string) (Family, error) {
	return svc.repo.GetFamilyByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Family, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.FilterFamilies(ctx, *filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, uf UpdateFamily, byUserID string) (Family, error) {
	fam, err := svc.repo.GetFamilyByID(ctx, id)
	if err != nil {
		return Family{}, err
	}
	fam.RepresentativeName = uf.RepresentativeName
	fam.Phone = uf.Phone
	fam.City = uf.City
	fam.District = uf.District
	fam.Neighborhood = uf.Neighborhood
	fam.AddressDetail = uf.AddressDetail
	if uf.Latitude != nil {
		fam.Latitude = uf.Latitude
	}
	if uf.Longitude != nil {
		fam.Longitude = uf.Longitude
	}
	if uf.LocationLink != "" {
		fam.LocationLink = uf.LocationLink
	}
	if uf.DistributionZone != "" {
		fam.DistributionZone = uf.DistributionZone
	}
	if uf.Notes != "" {
		fam.Notes = uf.Notes
	}
	fam.UpdatedBy = byUserID
	fam.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateFamily(ctx, fam)
}

func (svc *service) SetStatus(ctx context.Context, id, status, byUserID string) (Family, error) {
	switch status {
	case StatusPending, StatusActive, StatusInactive, StatusRejected: // pass
	default:
		return Family{}, core.NewValidationError(ErrInvalidStatus, core.FieldError{Field: "status", Error: ErrInvalidStatus.Error()})
	}

	fam, err := svc.repo.GetFamilyByID(ctx, id)
	if err != nil {
		return Family{}, err
	}
	fam.Status = status
	fam.UpdatedBy = byUserID
	fam.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateFamily(ctx, fam)
}

// Archive soft deletes a family: the record stays queryable but is marked inactive.
func (svc *service) Archive(ctx context.Context, id, byUserID string) (Family, error) {
	fam, err := svc.repo.GetFamilyByID(ctx, id)
	if err != nil {
		return Family{}, err
	}
	fam.SetActive(false)
	fam.Status = StatusInactive
	fam.UpdatedBy = byUserID
	fam.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateFamily(ctx, fam)
}

func (svc *service) Members(ctx context.Context, familyID string) ([]Member, error) {
	if _, err := svc.repo.GetFamilyByID(ctx, familyID); err != nil {
		return nil, err
	}
	return svc.repo.GetFamilyMembers(ctx, familyID)
}

func (svc *service) AddMember(ctx context.Context, familyID string, nm NewMember) (Member, error) {
	if _, err := svc.repo.GetFamilyByID(ctx, familyID); err != nil {
		return Member{}, err
	}
	isHead := nm.Relation == RelationHead
	if isHead {
		if err := svc.checkNoOtherHead(ctx, familyID, ""); err != nil {
			return Member{}, err
		}
	}

	now := time.Now().UTC()
	mbr := Member{
		FamilyID:    familyID,
		FullName:    nm.FullName,
		Relation:    nm.Relation,
		Age:         nm.Age,
		IsHead:      isHead,
		Description: nm.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateMember(ctx, mbr)
}

func (svc *service) UpdateMember(ctx context.Context, id string, um UpdateMember) (Member, error) {
	mbr, err := svc.repo.GetMemberByID(ctx, id)
	if err != nil {
		return Member{}, err
	}
	if um.Relation == RelationHead && !mbr.IsHead {
		if err := svc.checkNoOtherHead(ctx, mbr.FamilyID, mbr.ID); err != nil {
			return Member{}, err
		}
	}
	mbr.FullName = um.FullName
	mbr.Relation = um.Relation
	mbr.IsHead = um.Relation == RelationHead
	if um.Age != nil {
		mbr.Age = um.Age
	}
	if um.Description != "" {
		mbr.Description = um.Description
	}
	mbr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMember(ctx, mbr)
}

func (svc *service) RemoveMember(ctx context.Context, id string) error {
	return svc.repo.DeleteMember(ctx, id)
}

// checkNoOtherHead enforces the single-head invariant per family.
func (svc *service) checkNoOtherHead(ctx context.Context, familyID, excludedMemberID string) error {
	members, err := svc.repo.GetFamilyMembers(ctx, familyID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.IsHead && m.ID != excludedMemberID {
			return core.NewValidationError(ErrHeadExists, core.FieldError{Field: "relation", Error: ErrHeadExists.Error()})
		}
	}
	return nil
}

func (svc *service) Documents(ctx context.Context, familyID string) ([]Document, error) {
	if _, err := svc.repo.GetFamilyByID(ctx, familyID); err != nil {
		return nil, err
	}
	return svc.repo.GetFamilyDocuments(ctx, familyID)
}

func (svc *service) AddDocument(ctx context.Context, familyID string, nd NewDocument, byUserID string) (Document, error) {
	if _, err := svc.repo.GetFamilyByID(ctx, familyID); err != nil {
		return Document{}, err
	}
	doc := Document{
		FamilyID:    familyID,
		Type:        nd.Type,
		FileName:    nd.FileName,
		Description: nd.Description,
		CreatedBy:   byUserID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateDocument(ctx, doc)
}

func (svc *service) RemoveDocument(ctx context.Context, id string) error {
	return svc.repo.DeleteDocument(ctx, id)
}
